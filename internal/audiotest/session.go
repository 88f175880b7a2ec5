// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"context"
	"sync"

	"github.com/soundpile/overdub/session"
)

// FakeSession is a scriptable session.HardwareSession. Routes are
// served from a queue so tests can model a wireless accessory settling
// over several polls; when the queue empties the last route repeats.
type FakeSession struct {
	mu          sync.Mutex
	routes      []session.Route
	activates   int
	lastCat     session.Category
	events      chan session.Event
	RouteErr    error
	ActivateErr error
}

func NewFakeSession(routes ...session.Route) *FakeSession {
	return &FakeSession{
		routes: routes,
		events: make(chan session.Event, 8),
	}
}

func (f *FakeSession) Activate(ctx context.Context, cat session.Category, opts session.Options) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activates++
	f.lastCat = cat
	return f.ActivateErr
}

func (f *FakeSession) Deactivate() error { return nil }

func (f *FakeSession) CurrentRoute() (session.Route, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RouteErr != nil {
		return session.Route{}, f.RouteErr
	}
	if len(f.routes) == 0 {
		return session.Route{}, nil
	}
	r := f.routes[0]
	if len(f.routes) > 1 {
		f.routes = f.routes[1:]
	}
	return r, nil
}

func (f *FakeSession) Events() <-chan session.Event { return f.events }

// Emit delivers a hardware notification to the engine.
func (f *FakeSession) Emit(ev session.Event) { f.events <- ev }

// Activations reports how many times Activate ran.
func (f *FakeSession) Activations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.activates
}

// WiredRoute is a stable wired headset route at the given format.
func WiredRoute(rate, channels int) session.Route {
	return session.Route{
		Inputs: []session.Port{{
			Kind:   session.PortWiredHeadsetMic,
			Name:   "headset mic",
			Format: session.Format{SampleRate: rate, Channels: channels},
		}},
		Outputs: []session.Port{{
			Kind: session.PortWiredHeadphones,
			Name: "headphones",
		}},
	}
}

// WirelessMediaRoute is a wireless accessory still stuck in its
// playback-only media profile.
func WirelessMediaRoute() session.Route {
	return session.Route{
		Inputs: []session.Port{{
			Kind:    session.PortWireless,
			Name:    "wireless buds",
			Profile: session.ProfileMedia,
		}},
		Outputs: []session.Port{{
			Kind: session.PortWireless,
			Name: "wireless buds",
		}},
	}
}

// WirelessVoiceRoute is a wireless accessory settled into the voice
// profile at the given capture format.
func WirelessVoiceRoute(rate, channels int) session.Route {
	return session.Route{
		Inputs: []session.Port{{
			Kind:    session.PortWireless,
			Name:    "wireless buds",
			Profile: session.ProfileVoice,
			Format:  session.Format{SampleRate: rate, Channels: channels},
		}},
		Outputs: []session.Port{{
			Kind: session.PortWireless,
			Name: "wireless buds",
		}},
	}
}

// SpeakerRoute has no monitoring path: built-in mic and speaker only.
func SpeakerRoute() session.Route {
	return session.Route{
		Inputs: []session.Port{{
			Kind:   session.PortBuiltInMic,
			Name:   "built-in mic",
			Format: session.Format{SampleRate: 48000, Channels: 1},
		}},
		Outputs: []session.Port{{
			Kind: session.PortBuiltInSpeaker,
			Name: "speaker",
		}},
	}
}

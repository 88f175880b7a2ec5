// SPDX-License-Identifier: EPL-2.0

package session

import "context"

// Category is the requested use of the hardware audio session.
type Category string

const (
	CategoryPlayback      Category = "playback"
	CategoryPlayAndRecord Category = "play_and_record"
)

// Options are the accessory routes the session is allowed to use.
type Options uint8

const (
	AllowWireless Options = 1 << iota
	AllowWiredHeadset
	DefaultToSpeaker
)

// PortKind is the closed set of hardware port types. Raw route-name
// strings from the host never leak past this package.
type PortKind int

const (
	PortUnknown PortKind = iota
	PortBuiltInMic
	PortBuiltInSpeaker
	PortWiredHeadphones
	PortWiredHeadsetMic
	PortWireless // variable-profile wireless accessory (playback and capture)
)

func (k PortKind) String() string {
	switch k {
	case PortBuiltInMic:
		return "built-in mic"
	case PortBuiltInSpeaker:
		return "built-in speaker"
	case PortWiredHeadphones:
		return "wired headphones"
	case PortWiredHeadsetMic:
		return "wired headset mic"
	case PortWireless:
		return "wireless"
	default:
		return "unknown"
	}
}

// Profile is the active hardware profile of a wireless port. Media is
// the high-quality playback-only profile; Voice is the bidirectional
// profile capture needs.
type Profile int

const (
	ProfileNone Profile = iota
	ProfileMedia
	ProfileVoice
)

// Format is a negotiated hardware stream format.
type Format struct {
	SampleRate int
	Channels   int
}

func (f Format) Valid() bool {
	return f.SampleRate > 0 && f.Channels > 0
}

// Port is one endpoint of the active route.
type Port struct {
	Kind    PortKind
	Name    string
	Profile Profile // meaningful only for PortWireless
	Format  Format
}

// Route is the active input/output routing of the hardware session.
type Route struct {
	Inputs  []Port
	Outputs []Port
}

// HasUsableInput reports whether any input port presents a valid
// capture format.
func (r Route) HasUsableInput() bool {
	for _, p := range r.Inputs {
		if p.Format.Valid() {
			return true
		}
	}
	return false
}

// InputFormat returns the format of the first usable input port.
func (r Route) InputFormat() (Format, bool) {
	for _, p := range r.Inputs {
		if p.Format.Valid() {
			return p.Format, true
		}
	}
	return Format{}, false
}

// HasMonitoringPath reports whether the outputs include a headphone
// path. Recording over open speakers feeds the mic back into the
// take, so the engine refuses to start without one.
func (r Route) HasMonitoringPath() bool {
	for _, p := range r.Outputs {
		switch p.Kind {
		case PortWiredHeadphones, PortWireless:
			return true
		}
	}
	return false
}

// WirelessInputInMediaProfile returns the first wireless input still
// stuck in the playback-only media profile, if any.
func (r Route) WirelessInputInMediaProfile() (Port, bool) {
	for _, p := range r.Inputs {
		if p.Kind == PortWireless && p.Profile != ProfileVoice {
			return p, true
		}
	}
	return Port{}, false
}

// EventKind discriminates host session notifications.
type EventKind int

const (
	EventInterruptionBegan EventKind = iota
	EventInterruptionEnded
	EventRouteChanged
)

// Event is a host notification: an interruption (a competing call) or
// a route change (headset plugged, profile switched).
type Event struct {
	Kind EventKind
}

// HardwareSession is the host audio subsystem as the engine sees it.
// Injected so the engine runs against a fake in tests; nothing in this
// module talks to real hardware directly.
type HardwareSession interface {
	// Activate declares the desired category and accessory options and
	// brings the hardware session up. Re-activating with the same
	// category forces a wireless profile re-negotiation on hosts that
	// support it.
	Activate(ctx context.Context, category Category, opts Options) error
	Deactivate() error
	// CurrentRoute returns the active routing. An empty route means
	// the hardware has not settled yet.
	CurrentRoute() (Route, error)
	// Events delivers interruption and route-change notifications.
	Events() <-chan Event
}

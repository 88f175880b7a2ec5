// SPDX-License-Identifier: EPL-2.0

package session

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Retry budget for waiting on a hardware input route after a profile
// switch. Worst case the caller blocks Attempts * Interval.
const (
	DefaultAttempts = 6
	DefaultInterval = 300 * time.Millisecond
)

var (
	// ErrNoInputRoute means the poll budget ran out with no input port
	// at all.
	ErrNoInputRoute = errors.New("no audio input route available")
	// ErrWirelessProfile means a wireless accessory never switched to
	// its bidirectional voice profile. Many wireless devices only
	// support playback, not capture.
	ErrWirelessProfile = errors.New("wireless device never presented a capture profile; the device may only support playback")
	// ErrInvalidInputFormat means the route settled but reports zero
	// sample rate or zero channels.
	ErrInvalidInputFormat = errors.New("negotiated input format has zero sample rate or channels")
)

// Negotiator waits for the hardware session to present a usable input
// route after a device or profile change. A wireless headset switching
// from its media profile to its voice profile can take well over a
// second, so the negotiator polls with a bounded retry budget instead
// of trusting the first answer.
type Negotiator struct {
	Attempts int
	Interval time.Duration
}

func NewNegotiator() *Negotiator {
	return &Negotiator{
		Attempts: DefaultAttempts,
		Interval: DefaultInterval,
	}
}

// Stabilize forces the record category onto the session and polls
// until an input port with a valid format appears, the retry budget
// runs out, or ctx is cancelled. On success it returns the negotiated
// input format; the caller must open its capture asset with this
// format, not the one it originally asked for.
func (n *Negotiator) Stabilize(ctx context.Context, hw HardwareSession) (Format, error) {
	attempts := n.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	interval := n.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	// Re-declaring the category is what nudges a wireless accessory
	// out of its playback-only media profile.
	if err := hw.Activate(ctx, CategoryPlayAndRecord, AllowWireless|AllowWiredHeadset); err != nil {
		return Format{}, fmt.Errorf("activating record session: %w", err)
	}

	sawWirelessMedia := false
	sawInputPort := false
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return Format{}, ctx.Err()
			case <-time.After(interval):
			}
		}

		route, err := hw.CurrentRoute()
		if err != nil {
			continue
		}

		if _, stuck := route.WirelessInputInMediaProfile(); stuck {
			sawWirelessMedia = true
			continue
		}

		if f, ok := route.InputFormat(); ok {
			return f, nil
		}

		if len(route.Inputs) > 0 {
			// Port present but format not settled yet; keep polling.
			sawInputPort = true
		}
	}

	switch {
	case sawWirelessMedia:
		return Format{}, ErrWirelessProfile
	case sawInputPort:
		return Format{}, ErrInvalidInputFormat
	default:
		return Format{}, ErrNoInputRoute
	}
}

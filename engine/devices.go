// SPDX-License-Identifier: EPL-2.0

package engine

import "github.com/soundpile/overdub/session"

// CaptureFunc is the render callback of the capture path. The device
// invokes it on its own real-time thread with an interleaved buffer;
// the callback must not block, must not allocate unboundedly, and must
// not retain buf past its return.
type CaptureFunc func(buf []float32, frames int)

// RenderFunc fills dst with interleaved playback samples and returns
// the number of frames produced. Fewer frames than requested means
// the remainder of dst is silence.
type RenderFunc func(dst []float32) int

// Stream is an open hardware stream. Stop blocks until no further
// callback can fire, which is what makes StopRecording's teardown
// ordering safe.
type Stream interface {
	Stop() error
}

// CaptureDevice opens a capture stream at a negotiated format.
// Injected so the engine records from a fake in tests.
type CaptureDevice interface {
	OpenCapture(format session.Format, fn CaptureFunc) (Stream, error)
}

// PlaybackDevice opens a monitored playback stream.
type PlaybackDevice interface {
	OpenPlayback(format session.Format, render RenderFunc) (Stream, error)
}

// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"sync"
	"sync/atomic"

	"github.com/soundpile/overdub/asset"
	"github.com/soundpile/overdub/utils"
)

// WriteFailureThreshold is how many consecutive asset-write failures
// the capture path tolerates before aborting the recording. A single
// success resets the count, which separates transient contention from
// genuine storage exhaustion.
const WriteFailureThreshold = 10

// captureEvent is the only thing that crosses from the capture thread
// to the coordinator: scalars, never buffers.
type captureEvent struct {
	meter float64
	abort error
}

// captureBridge runs the per-buffer capture work on the hardware's
// real-time thread: write the buffer to the open asset, track
// consecutive write failures, and compute the scalar meter level.
// The failure counter is the only state shared across the thread
// boundary; its mutex is never held during I/O.
type captureBridge struct {
	writer   asset.WriteHandle
	channels int

	mu       sync.Mutex
	failures int

	aborted atomic.Bool
	frames  atomic.Int64

	// post hands a scalar event to the coordinator without blocking;
	// dropped events are fine, ordering is "eventually, in post order"
	post func(captureEvent)
}

func newCaptureBridge(writer asset.WriteHandle, channels int, post func(captureEvent)) *captureBridge {
	return &captureBridge{
		writer:   writer,
		channels: channels,
		post:     post,
	}
}

// OnBuffer is the capture callback. It never blocks on the coordinator
// and never forwards buf anywhere: the meter level is reduced to a
// scalar right here, on the producing thread.
func (b *captureBridge) OnBuffer(buf []float32, frames int) {
	if b.aborted.Load() {
		return
	}

	if err := b.writer.WriteSamples(buf[:frames*b.channels]); err != nil {
		if b.bumpFailures() >= WriteFailureThreshold {
			b.aborted.Store(true)
			b.post(captureEvent{abort: recordingErr(ReasonStorageWrite, err)})
			return
		}
	} else {
		b.resetFailures()
		b.frames.Add(int64(frames))
	}

	b.post(captureEvent{meter: utils.MeterLevel(buf[:frames*b.channels], b.channels)})
}

func (b *captureBridge) bumpFailures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	return b.failures
}

func (b *captureBridge) resetFailures() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
}

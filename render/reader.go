// SPDX-License-Identifier: EPL-2.0

package render

import (
	"fmt"
	"io"

	"github.com/soundpile/overdub/asset"
	"github.com/soundpile/overdub/audio"
)

// trackReader pulls one track of the group at the render rate, frame
// range by frame range. It owns the per-track pipeline (decode ->
// resample -> downmix past stereo), applies the layer's time offset,
// and reopens the asset to wrap when the channel loops. The renderer
// drives it strictly forward, one chunk at a time, so memory stays at
// one scratch buffer per track.
type trackReader struct {
	store    asset.Store
	location string
	rate     int
	channels int
	looped   bool

	src audio.Source
	// positive-offset silence still owed before the first sample
	delayFrames int64
	done        bool

	scratch  []float32
	produced int // frames valid in scratch after the last next()
}

func openTrackReader(store asset.Store, location string, rate int, offset float64, looped bool) (*trackReader, error) {
	r := &trackReader{
		store:    store,
		location: location,
		rate:     rate,
		looped:   looped,
	}
	if offset > 0 {
		r.delayFrames = int64(offset * float64(rate))
	}

	skip := int64(0)
	if offset < 0 {
		skip = int64(-offset * float64(rate))
	}
	if err := r.open(skip); err != nil {
		return nil, err
	}
	return r, nil
}

// open builds the pipeline, dropping skip frames from the front.
func (r *trackReader) open(skip int64) error {
	src, err := r.store.Open(r.location)
	if err != nil {
		return err
	}
	if src.Channels() > 2 {
		src = audio.NewMonoMixer(src)
	}
	if src.SampleRate() != r.rate {
		src = audio.NewResampler(src, r.rate)
	}
	r.src = src
	r.channels = src.Channels()

	for skip > 0 {
		buf := make([]float32, 4096*r.channels)
		n := int64(len(buf)) / int64(r.channels)
		if n > skip {
			n = skip
		}
		read, err := src.ReadSamples(buf[:n*int64(r.channels)])
		skip -= int64(read / r.channels)
		if err == io.EOF {
			// Offset pushes the whole file out of range; the channel
			// contributes nothing.
			r.done = true
			return nil
		}
		if err != nil {
			src.Close()
			r.src = nil
			return fmt.Errorf("skipping into %q: %w", r.location, err)
		}
		if read == 0 {
			break
		}
	}
	return nil
}

func (r *trackReader) close() {
	if r.src != nil {
		r.src.Close()
		r.src = nil
	}
}

// next fills the scratch buffer with up to frames frames of this
// channel's timeline (leading offset silence included) and returns
// how many were produced. Zero means the channel is exhausted.
func (r *trackReader) next(frames int) (int, error) {
	if cap(r.scratch) < frames*2 {
		r.scratch = make([]float32, frames*2)
	}
	r.scratch = r.scratch[:frames*r.channels]
	for i := range r.scratch {
		r.scratch[i] = 0
	}
	r.produced = 0

	// Delayed start: the silence is part of the channel's duration.
	for r.delayFrames > 0 && r.produced < frames {
		r.delayFrames--
		r.produced++
	}

	for r.produced < frames && !r.done {
		off := r.produced * r.channels
		n, err := r.src.ReadSamples(r.scratch[off : frames*r.channels])
		r.produced += n / r.channels

		if err == io.EOF {
			if !r.looped {
				r.done = true
				break
			}
			// Wrap: reopen from the top; offsets apply to the first
			// pass only.
			r.src.Close()
			if oerr := r.open(0); oerr != nil {
				r.done = true
				return r.produced, fmt.Errorf("wrapping %q: %w", r.location, oerr)
			}
			continue
		}
		if err != nil {
			return r.produced, fmt.Errorf("reading %q: %w", r.location, err)
		}
		if n == 0 {
			break
		}
	}
	return r.produced, nil
}

// sumInto adds the frames produced by the last next() into the stereo
// accumulator with the given placement gains.
func (r *trackReader) sumInto(acc []float32, gl, gr float32) {
	frames := r.produced
	if frames*2 > len(acc) {
		frames = len(acc) / 2
	}
	if r.channels == 1 {
		for f := 0; f < frames; f++ {
			s := r.scratch[f]
			acc[2*f] += s * gl
			acc[2*f+1] += s * gr
		}
		return
	}
	for f := 0; f < frames; f++ {
		acc[2*f] += r.scratch[2*f] * gl
		acc[2*f+1] += r.scratch[2*f+1] * gr
	}
}

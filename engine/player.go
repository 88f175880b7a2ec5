// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"fmt"
	"io"

	"github.com/soundpile/overdub/asset"
	"github.com/soundpile/overdub/audio"
)

// MaxBufferFrames caps the full-buffer load of a single track at
// roughly 100 MB of stereo float32. Longer tracks fall back to a
// streamed player that cannot seek backwards or loop, trading
// fidelity of those operations for bounded memory.
const MaxBufferFrames = 25_000_000

// player is one playback node of the audio graph: a single track of
// the group, already converted to the engine rate and at most stereo.
//
// Buffered players hold the whole track in memory and support seek and
// loop. Streamed players read forward only: a backward seek silences
// them for the rest of the pass.
type player struct {
	layerIndex int // -1 for the base track
	channels   int
	rate       int

	// signed offset in engine-rate frames: positive delays the start,
	// negative skips into the file
	offsetFrames int64

	// buffered mode
	buf    []float32
	frames int64

	// streamed mode
	src       audio.Source
	srcPos    int64
	scratch   []float32
	exhausted bool
}

func (p *player) buffered() bool { return p.src == nil }

// durationFrames returns the track length in engine-rate frames, or
// -1 when unknown (streamed mode).
func (p *player) durationFrames() int64 {
	if p.buffered() {
		return p.frames
	}
	return -1
}

func (p *player) close() error {
	if p.src != nil {
		return p.src.Close()
	}
	return nil
}

// loadPlayer opens a track asset and normalizes it to the engine
// format: sources wider than stereo are downmixed to mono, foreign
// sample rates go through the resampler. The track is buffered whole
// unless it exceeds MaxBufferFrames.
func loadPlayer(store asset.Store, location string, engineRate, layerIndex int, offsetSec float64) (*player, error) {
	src, err := store.Open(location)
	if err != nil {
		return nil, err
	}

	if src.Channels() > 2 {
		src = audio.NewMonoMixer(src)
	}
	if src.SampleRate() != engineRate {
		src = audio.NewResampler(src, engineRate)
	}

	p := &player{
		layerIndex:   layerIndex,
		channels:     src.Channels(),
		rate:         engineRate,
		offsetFrames: int64(offsetSec * float64(engineRate)),
	}

	// Pull the whole track up to the cap.
	chunk := make([]float32, 32768*p.channels)
	var buf []float32
	capped := false
	for {
		n, rerr := src.ReadSamples(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if int64(len(buf))/int64(p.channels) > MaxBufferFrames {
			capped = true
			break
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			src.Close()
			return nil, fmt.Errorf("reading track: %w", rerr)
		}
	}

	if capped {
		// Too big to hold: chain what we already read in front of the
		// live source and stream the rest.
		p.src = &chainSource{head: buf, tail: src, channels: p.channels, rate: engineRate}
		p.scratch = make([]float32, 32768*p.channels)
		return p, nil
	}

	src.Close()
	p.buf = buf
	p.frames = int64(len(buf)) / int64(p.channels)
	return p, nil
}

// measureDuration reads an asset end to end to learn its length in
// seconds. Prepare falls back to it when the caller passes no base
// duration and the track was too large to buffer whole.
func measureDuration(store asset.Store, location string) (float64, error) {
	src, err := store.Open(location)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	frames, err := audio.DrainFrames(src, 0)
	if err != nil {
		return 0, err
	}
	return float64(frames) / float64(src.SampleRate()), nil
}

// mixInto adds frames starting at timeline frame start into the
// stereo accumulator dst, honoring the player's offset, with the
// given left/right placement gains. dst holds frames*2 samples.
func (p *player) mixInto(dst []float32, start int64, frames int, gainL, gainR float64, looped bool) {
	if p.exhausted && !p.buffered() {
		return
	}

	if p.buffered() {
		p.mixBuffered(dst, start, frames, float32(gainL), float32(gainR), looped)
		return
	}
	p.mixStreamed(dst, start, frames, float32(gainL), float32(gainR))
}

func (p *player) mixBuffered(dst []float32, start int64, frames int, gl, gr float32, looped bool) {
	if p.frames == 0 {
		return
	}
	for f := 0; f < frames; f++ {
		fileFrame := start + int64(f) - p.offsetFrames
		if fileFrame < 0 {
			continue
		}
		if fileFrame >= p.frames {
			if !looped {
				return
			}
			fileFrame %= p.frames
		}
		idx := fileFrame * int64(p.channels)
		if p.channels == 1 {
			s := p.buf[idx]
			dst[2*f] += s * gl
			dst[2*f+1] += s * gr
		} else {
			dst[2*f] += p.buf[idx] * gl
			dst[2*f+1] += p.buf[idx+1] * gr
		}
	}
}

func (p *player) mixStreamed(dst []float32, start int64, frames int, gl, gr float32) {
	want := start - p.offsetFrames
	if want+int64(frames) <= 0 {
		return
	}

	offsetIntoDst := 0
	if want < 0 {
		offsetIntoDst = int(-want)
		want = 0
	}

	// Forward-only: a rewind cannot be honored without reopening, so
	// the player goes silent for the remainder of the pass.
	if want < p.srcPos {
		p.exhausted = true
		return
	}

	// Discard frames between the stream position and the wanted range.
	for p.srcPos < want {
		skip := want - p.srcPos
		if skip > int64(len(p.scratch))/int64(p.channels) {
			skip = int64(len(p.scratch)) / int64(p.channels)
		}
		n, err := p.src.ReadSamples(p.scratch[:skip*int64(p.channels)])
		p.srcPos += int64(n / p.channels)
		if err != nil {
			p.exhausted = true
			return
		}
	}

	for offsetIntoDst < frames {
		need := (frames - offsetIntoDst) * p.channels
		if need > len(p.scratch) {
			need = len(p.scratch)
		}
		n, err := p.src.ReadSamples(p.scratch[:need])
		got := n / p.channels
		for f := 0; f < got; f++ {
			d := offsetIntoDst + f
			if p.channels == 1 {
				s := p.scratch[f]
				dst[2*d] += s * gl
				dst[2*d+1] += s * gr
			} else {
				dst[2*d] += p.scratch[2*f] * gl
				dst[2*d+1] += p.scratch[2*f+1] * gr
			}
		}
		p.srcPos += int64(got)
		offsetIntoDst += got
		if err != nil {
			p.exhausted = true
			return
		}
		if got == 0 {
			return
		}
	}
}

// chainSource replays an in-memory head before continuing with the
// live tail source.
type chainSource struct {
	head     []float32
	headPos  int
	tail     audio.Source
	channels int
	rate     int
}

func (c *chainSource) SampleRate() int { return c.rate }
func (c *chainSource) Channels() int   { return c.channels }
func (c *chainSource) Close() error    { return c.tail.Close() }

func (c *chainSource) ReadSamples(dst []float32) (int, error) {
	if c.headPos < len(c.head) {
		n := copy(dst, c.head[c.headPos:])
		c.headPos += n
		return n, nil
	}
	return c.tail.ReadSamples(dst)
}

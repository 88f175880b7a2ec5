// SPDX-License-Identifier: EPL-2.0

package render

import (
	"errors"
	"fmt"

	"github.com/soundpile/overdub/asset"
	"github.com/soundpile/overdub/group"
	"github.com/soundpile/overdub/mix"
)

var (
	ErrInvalidOutputFormat = errors.New("mixdown output format is invalid")
	ErrNoTracks            = errors.New("group has no renderable tracks")
	ErrLocationCount       = errors.New("location count does not match the group's layers")
)

// DurationPolicy decides how long the bounce runs when some channels
// loop.
type DurationPolicy int

const (
	// DurationNonLooped renders the maximum duration among non-looped
	// channels; looped channels wrap to fill it. When every channel is
	// looped, this degrades to one full pass of the longest channel.
	DurationNonLooped DurationPolicy = iota
	// DurationLongest renders the maximum duration among all channels
	// with no wrapping at all.
	DurationLongest
)

// DefaultChunkFrames bounds renderer memory: the whole bounce is
// processed in fixed-size frame chunks regardless of track length.
const DefaultChunkFrames = 32768

// Params configures a mixdown pass.
type Params struct {
	SampleRate  int
	Channels    int // output layout; only stereo is supported
	ChunkFrames int
	Policy      DurationPolicy
}

// DefaultParams returns a stereo render at the given rate.
func DefaultParams(sampleRate int) Params {
	return Params{
		SampleRate:  sampleRate,
		Channels:    2,
		ChunkFrames: DefaultChunkFrames,
	}
}

// Mixdown blends every track of a group into a single stereo stream
// written through out. The render is offline, deterministic, and
// bounded: identical inputs produce byte-identical output, and memory
// use is independent of how long the takes run.
//
// Channel semantics follow the mix model exactly: per-channel
// effective volumes come from mix.Settings.EffectiveVolumes (the same
// function the live monitoring path applies), placement uses the
// constant-power pan law, and the summation path contains no dithering
// or randomization.
func Mixdown(store asset.Store, g *group.Group, locations GroupLocations, params Params, out asset.WriteHandle) error {
	if params.SampleRate <= 0 || params.Channels != 2 {
		return ErrInvalidOutputFormat
	}
	if len(locations.Layers) != len(g.Layers) {
		return ErrLocationCount
	}
	chunkFrames := params.ChunkFrames
	if chunkFrames <= 0 {
		chunkFrames = DefaultChunkFrames
	}

	g.Mix.SyncLayerCount(len(g.Layers))
	baseGain, layerGains := g.Mix.EffectiveVolumes()

	type renderChannel struct {
		reader *trackReader
		gain   float64
		pan    float64
		looped bool
	}

	var channels []renderChannel
	closeAll := func() {
		for _, c := range channels {
			c.reader.close()
		}
	}

	addChannel := func(location string, offset, gain, pan float64, looped bool) error {
		// A silenced looped channel never plays and never determines
		// the duration; skipping it entirely is safe. A silenced
		// non-looped channel still bounds the render length, so it is
		// opened and drained without being summed.
		if gain == 0 && looped {
			return nil
		}
		r, err := openTrackReader(store, location, params.SampleRate, offset, looped)
		if err != nil {
			return fmt.Errorf("opening %q: %w", location, err)
		}
		channels = append(channels, renderChannel{reader: r, gain: gain, pan: pan, looped: looped})
		return nil
	}

	looped := func(c mix.ChannelSettings) bool {
		return c.Looped && params.Policy == DurationNonLooped
	}

	if err := addChannel(locations.Base, 0, baseGain, g.Mix.Base.Pan, looped(g.Mix.Base)); err != nil {
		closeAll()
		return err
	}
	for i, l := range g.Layers {
		strip := g.Mix.Layers[i]
		if err := addChannel(locations.Layers[i], l.Offset, layerGains[i], strip.Pan, looped(strip)); err != nil {
			closeAll()
			return err
		}
	}
	defer closeAll()

	if len(channels) == 0 {
		return ErrNoTracks
	}

	// With every channel looped there is nothing to bound the render,
	// so looping is disabled and the longest single pass wins.
	allLooped := true
	for _, c := range channels {
		if !c.looped {
			allLooped = false
			break
		}
	}
	if allLooped {
		for i := range channels {
			channels[i].looped = false
			channels[i].reader.looped = false
		}
	}

	acc := make([]float32, chunkFrames*2)
	for {
		// Duration-determining channels first: the longest
		// contribution among them is the length of this chunk.
		determined := 0
		for _, c := range channels {
			if c.looped {
				continue
			}
			n, err := c.reader.next(chunkFrames)
			if err != nil {
				return err
			}
			if n > determined {
				determined = n
			}
		}
		if determined == 0 {
			return nil
		}

		// Looped channels wrap to fill exactly the determined range.
		for _, c := range channels {
			if !c.looped {
				continue
			}
			if _, err := c.reader.next(determined); err != nil {
				return err
			}
		}

		for i := range acc[:determined*2] {
			acc[i] = 0
		}
		for _, c := range channels {
			if c.gain == 0 {
				continue
			}
			gl, gr := mix.StereoPlacement(c.gain, c.pan, c.reader.channels)
			c.reader.sumInto(acc[:determined*2], float32(gl), float32(gr))
		}

		if err := out.WriteSamples(acc[:determined*2]); err != nil {
			return fmt.Errorf("writing mixdown chunk: %w", err)
		}
	}
}

// GroupLocations carries the asset locations of a group's tracks in
// group order, exactly one location per layer.
type GroupLocations struct {
	Base   string
	Layers []string
}

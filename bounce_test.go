// SPDX-License-Identifier: EPL-2.0

package overdub_test

import (
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/soundpile/overdub"
	"github.com/soundpile/overdub/asset"
	"github.com/soundpile/overdub/audio"
	"github.com/soundpile/overdub/group"
	"github.com/soundpile/overdub/internal/audiotest"
	"github.com/soundpile/overdub/render"
)

func TestBounce_WritesStereoAsset(t *testing.T) {
	t.Parallel()

	store := audiotest.NewMemStore()
	store.AddSource("takes/base.wav", func() audio.Source {
		return audiotest.NewConstantSource(22050, 1, 22050, 0.5)
	})
	store.AddSource("takes/layer-0.wav", func() audio.Source {
		return audiotest.NewConstantSource(22050, 1, 22050, 0.25)
	})

	g := group.New(uuid.New())
	if err := g.AddLayer(uuid.New(), 0); err != nil {
		t.Fatal(err)
	}
	locs := render.GroupLocations{
		Base:   "takes/base.wav",
		Layers: []string{"takes/layer-0.wav"},
	}

	err := overdub.Bounce(store, g, locs, "bounces/mix.wav", asset.PresetVoice)
	if err != nil {
		t.Fatalf("Bounce() error = %v", err)
	}

	w, ok := store.Written("bounces/mix.wav")
	if !ok {
		t.Fatal("bounce asset was not created")
	}
	if !w.Closed {
		t.Error("bounce asset was not closed")
	}
	if w.Chans != 2 {
		t.Errorf("bounce channels = %d, want 2", w.Chans)
	}
	if w.Rate != asset.PresetVoice.SampleRate {
		t.Errorf("bounce rate = %d, want %d", w.Rate, asset.PresetVoice.SampleRate)
	}
	if got := len(w.Data) / 2; got != 22050 {
		t.Errorf("bounce frames = %d, want 22050", got)
	}

	// Both takes centered: (0.5 + 0.25) * cos(pi/4) on each side.
	want := 0.75 * float32(math.Cos(math.Pi/4))
	if math.Abs(float64(w.Data[0]-want)) > 1e-5 {
		t.Errorf("Data[0] = %f, want %f", w.Data[0], want)
	}
}

func TestBounce_InvalidPreset(t *testing.T) {
	t.Parallel()

	store := audiotest.NewMemStore()
	g := group.New(uuid.New())

	err := overdub.Bounce(store, g, render.GroupLocations{Base: "base.wav"}, "out.wav", asset.QualityPreset{})
	if !errors.Is(err, render.ErrInvalidOutputFormat) {
		t.Errorf("Bounce() error = %v, want ErrInvalidOutputFormat", err)
	}
}

func TestBounce_RemovesPartialOutputOnFailure(t *testing.T) {
	t.Parallel()

	// The base asset is missing, so the render fails after the output
	// has already been created.
	store := audiotest.NewMemStore()
	g := group.New(uuid.New())

	err := overdub.Bounce(store, g, render.GroupLocations{Base: "missing.wav"}, "out.wav", asset.PresetVoice)
	if err == nil {
		t.Fatal("Bounce() with missing base error = nil, want error")
	}

	if _, ok := store.Written("out.wav"); ok {
		t.Error("partial output not removed after failed bounce")
	}
}

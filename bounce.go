// SPDX-License-Identifier: EPL-2.0

package overdub

import (
	"fmt"

	"github.com/soundpile/overdub/asset"
	"github.com/soundpile/overdub/group"
	"github.com/soundpile/overdub/render"
)

// Bounce renders an overdub group into a single stereo WAV asset at
// outLocation, applying the group's mix settings. The preset's sample
// rate and bit depth pick the output format; the channel layout is
// always stereo. On failure the partial output asset is removed.
//
// Callers must not mutate the group's mix settings while the bounce
// runs; serialize bounces per group.
func Bounce(store asset.Store, g *group.Group, locations render.GroupLocations, outLocation string, preset asset.QualityPreset) error {
	if !preset.Valid() {
		return render.ErrInvalidOutputFormat
	}

	out, err := store.Create(outLocation, asset.QualityPreset{
		SampleRate: preset.SampleRate,
		BitDepth:   preset.BitDepth,
		Channels:   2,
	})
	if err != nil {
		return fmt.Errorf("creating bounce asset: %w", err)
	}

	params := render.DefaultParams(preset.SampleRate)
	if err := render.Mixdown(store, g, locations, params, out); err != nil {
		out.Close()
		store.Remove(outLocation)
		return err
	}

	if err := out.Close(); err != nil {
		store.Remove(outLocation)
		return fmt.Errorf("finalizing bounce asset: %w", err)
	}
	return nil
}

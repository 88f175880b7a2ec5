// SPDX-License-Identifier: EPL-2.0

package mix

import "math"

// Volume and pan limits for a single channel strip.
const (
	MinVolume = 0.0
	MaxVolume = 1.5
	MinPan    = -1.0
	MaxPan    = 1.0
)

// ChannelSettings is the mix state of a single track in an overdub
// group: one for the base take and one per layer.
type ChannelSettings struct {
	Volume float64 `json:"volume"`
	Pan    float64 `json:"pan"`
	Muted  bool    `json:"muted"`
	Solo   bool    `json:"solo"`
	// Looped repeats the track to fill the mixdown duration.
	Looped bool `json:"looped"`
}

// DefaultChannel returns a channel strip at unity gain, centered,
// neither muted nor soloed.
func DefaultChannel() ChannelSettings {
	return ChannelSettings{Volume: 1.0}
}

// Settings is the full mix model of an overdub group. Pure value
// type: it carries no I/O and no goroutines, and EffectiveVolumes is
// the only behavior beyond field access.
type Settings struct {
	Base         ChannelSettings   `json:"base"`
	Layers       []ChannelSettings `json:"layers"`
	MasterVolume float64           `json:"master_volume"`
}

// DefaultSettings returns a mix for a group with n layers, every
// strip at unity and master at unity.
func DefaultSettings(n int) Settings {
	s := Settings{
		Base:         DefaultChannel(),
		MasterVolume: 1.0,
	}
	s.SyncLayerCount(n)
	return s
}

// SyncLayerCount forces len(Layers) == n, padding with default strips
// or truncating. The first min(old, n) strips are left untouched.
func (s *Settings) SyncLayerCount(n int) {
	if n < 0 {
		n = 0
	}
	for len(s.Layers) < n {
		s.Layers = append(s.Layers, DefaultChannel())
	}
	if len(s.Layers) > n {
		s.Layers = s.Layers[:n]
	}
}

// AnySolo reports whether any strip, base included, is soloed.
func (s *Settings) AnySolo() bool {
	if s.Base.Solo {
		return true
	}
	for _, l := range s.Layers {
		if l.Solo {
			return true
		}
	}
	return false
}

// EffectiveVolumes resolves the final gain of every strip. Mute always
// wins over solo; with any strip soloed, non-solo strips drop to zero;
// the master volume scales everything. The live monitoring path and
// the offline renderer both call this, so they apply bit-identical
// gains for the same settings.
func (s *Settings) EffectiveVolumes() (base float64, layers []float64) {
	anySolo := s.AnySolo()

	base = effective(s.Base, anySolo) * s.MasterVolume
	layers = make([]float64, len(s.Layers))
	for i, l := range s.Layers {
		layers[i] = effective(l, anySolo) * s.MasterVolume
	}
	return base, layers
}

func effective(c ChannelSettings, anySolo bool) float64 {
	if c.Muted {
		return 0
	}
	if anySolo && !c.Solo {
		return 0
	}
	return c.Volume
}

// PanGains maps pan in [-1, 1] to constant-power left/right gains.
// Center pan yields cos(pi/4) on both sides, so a centered mono
// source keeps its perceived loudness as it moves across the field.
func PanGains(pan float64) (left, right float64) {
	if pan < MinPan {
		pan = MinPan
	}
	if pan > MaxPan {
		pan = MaxPan
	}
	theta := (pan + 1) * math.Pi / 4
	return math.Cos(theta), math.Sin(theta)
}

// StereoPlacement combines an effective gain with the pan law for a
// source of srcChannels channels, returning the left/right multipliers
// to place it in a stereo bus. Mono sources use the raw constant-power
// gains; stereo sources are treated as a balance control, compensated
// so center pan is unity. The engine's monitoring path and the
// mixdown renderer both place sources through this function, keeping
// the bounce bit-identical to what monitoring applied.
func StereoPlacement(gain, pan float64, srcChannels int) (left, right float64) {
	l, r := PanGains(pan)
	if srcChannels >= 2 {
		l *= math.Sqrt2
		r *= math.Sqrt2
	}
	return gain * l, gain * r
}

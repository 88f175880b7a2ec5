// SPDX-License-Identifier: EPL-2.0

package utils

import "math"

// Meter range used for level display. Levels below the floor read as
// silence, levels at or above the ceiling read as full scale.
const (
	MeterFloorDB = -50.0
	MeterCeilDB  = 0.0
)

// ChannelRMS computes the root-mean-square of one channel of an
// interleaved buffer. channels is the interleave stride, ch the
// channel index. Returns 0 for an empty buffer.
func ChannelRMS(buf []float32, channels, ch int) float64 {
	if channels <= 0 || ch < 0 || ch >= channels {
		return 0
	}

	var sum float64
	frames := 0
	for i := ch; i < len(buf); i += channels {
		v := float64(buf[i])
		sum += v * v
		frames++
	}
	if frames == 0 {
		return 0
	}

	return math.Sqrt(sum / float64(frames))
}

// AmplitudeToDB converts a linear amplitude to decibels. Zero and
// negative amplitudes map to the meter floor rather than -Inf.
func AmplitudeToDB(a float64) float64 {
	if a <= 0 {
		return MeterFloorDB
	}
	return 20 * math.Log10(a)
}

// NormalizeDB clamps db to [MeterFloorDB, MeterCeilDB] and maps it
// linearly to [0, 1].
func NormalizeDB(db float64) float64 {
	if db < MeterFloorDB {
		db = MeterFloorDB
	}
	if db > MeterCeilDB {
		db = MeterCeilDB
	}
	return (db - MeterFloorDB) / (MeterCeilDB - MeterFloorDB)
}

// MeterLevel computes the display level of an interleaved buffer from
// the RMS of its first channel: amplitude -> dB -> clamped -> [0,1].
// This runs on the capture thread, so it allocates nothing.
func MeterLevel(buf []float32, channels int) float64 {
	return NormalizeDB(AmplitudeToDB(ChannelRMS(buf, channels, 0)))
}

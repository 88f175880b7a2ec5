// SPDX-License-Identifier: EPL-2.0

package engine

// State is the engine lifecycle state. Idle and Paused are stable;
// Recording is entered only from Idle and always returns to Idle on
// stop, including on error.
type State int

const (
	StateIdle State = iota
	StatePlaying
	StatePaused
	StateRecording
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateRecording:
		return "recording"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable view of the observable engine state,
// returned by value so no caller can mutate engine internals. This is
// the query half of the engine's command/query surface.
type Snapshot struct {
	State               State
	CurrentPlaybackTime float64
	BaseDuration        float64
	RecordingDuration   float64
	MeterLevel          float64
	FailedLayerIndices  []int
	RecordingErr        error
}

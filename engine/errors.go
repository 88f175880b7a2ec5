// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrNotPrepared is a caller sequencing error: the operation needs
	// a prepared engine. Recoverable by calling Prepare again.
	ErrNotPrepared = errors.New("engine not prepared")
	// ErrHeadphonesRequired means no monitoring path is attached.
	// Recording over open speakers would feed playback into the mic.
	ErrHeadphonesRequired = errors.New("headphones required for overdub recording")
	// ErrBusy means the requested transition is invalid from the
	// current state, e.g. starting a recording while one is running.
	ErrBusy = errors.New("engine busy")
)

// RecordingReason classifies why a recording could not start or was
// aborted.
type RecordingReason int

const (
	ReasonNoInput RecordingReason = iota
	ReasonWirelessProfile
	ReasonInvalidFormat
	ReasonStorageWrite
	ReasonInterrupted
)

func (r RecordingReason) String() string {
	switch r {
	case ReasonNoInput:
		return "no input route"
	case ReasonWirelessProfile:
		return "wireless profile never stabilized"
	case ReasonInvalidFormat:
		return "invalid negotiated format"
	case ReasonStorageWrite:
		return "storage write failure"
	case ReasonInterrupted:
		return "audio session interrupted"
	default:
		return "unknown"
	}
}

// RecordingError is a failed or aborted recording with a classified
// reason and the underlying cause.
type RecordingError struct {
	Reason RecordingReason
	Err    error
}

func (e *RecordingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("recording failed (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("recording failed (%s)", e.Reason)
}

func (e *RecordingError) Unwrap() error { return e.Err }

func recordingErr(reason RecordingReason, err error) *RecordingError {
	return &RecordingError{Reason: reason, Err: err}
}

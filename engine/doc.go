// SPDX-License-Identifier: EPL-2.0

// Package engine implements the overdub session engine: the real-time
// audio graph that plays back the existing tracks of an overdub group
// while capturing a new layer on top of them.
//
// # State machine
//
//	idle -> playing <-> paused
//	idle -> recording -> idle
//
// Idle and paused are stable. Recording is entered only from idle, on
// a prepared engine, and always returns to idle on stop - including
// when the take is aborted by a storage failure or an interruption.
//
// # Concurrency
//
// Two execution contexts exist. The coordinator context owns every
// state transition and observable property: commands (Prepare, Play,
// StartRecording, ...) run on the caller's goroutine under one mutex,
// and queries return immutable Snapshot values. The capture thread
// belongs to the hardware and only ever runs the capture callback,
// which writes the buffer to the open asset, maintains a bounded
// consecutive-write-failure counter, and reduces the buffer to a
// scalar meter level. Only scalars cross back to the coordinator,
// through a non-blocking post, so no buffer lifetime ever spans the
// thread boundary.
//
// Stream.Stop blocks until no further callback can fire, and the
// playback render callback takes the engine mutex, so every teardown
// path detaches its streams under the mutex and releases it while
// they wind down.
//
// # Route negotiation
//
// StartRecording requires a headphone monitoring path and, when the
// active input is a wireless accessory stuck in its playback-only
// media profile, runs the session.Negotiator's bounded poll before
// opening the capture stream. The output asset is created with the
// negotiated input format, never the requested one.
package engine

// SPDX-License-Identifier: EPL-2.0

// Package group holds the overdub-group bookkeeping: a base track, up
// to three ordered layer tracks with per-layer time offsets, and the
// group's mix settings. The layer list and the mix strip list are kept
// in lock-step through every mutation, and ValidateIntegrity repairs
// groups after tracks disappear underneath them.
package group

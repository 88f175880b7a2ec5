// SPDX-License-Identifier: EPL-2.0

// Package mix holds the pure mix model of an overdub group: one
// channel strip per track (volume, pan, mute, solo, loop) plus a
// master volume, and the deterministic resolution of those strips
// into effective gains.
//
// The resolution rules are:
//   - A muted strip is always silent, even when soloed.
//   - If any strip is soloed, every non-solo strip is silent.
//   - Otherwise a strip plays at its own volume.
//   - The master volume scales every strip.
//
// EffectiveVolumes has no side effects and no hidden state. Both the
// engine's live monitoring path and the offline mixdown renderer call
// it, which guarantees the bounce sounds like the rehearsal.
package mix

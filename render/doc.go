// SPDX-License-Identifier: EPL-2.0

// Package render is the offline mixdown ("bounce") renderer: it blends
// every track of an overdub group into one stereo file, applying the
// group's mix model, without ever holding more than one chunk of audio
// per track in memory.
//
// The render is strictly deterministic. Channel order is fixed (base,
// then layers in recording order, non-looped before looped within a
// chunk), gains come from the same effective-volume resolution the
// live engine uses, and the summation path contains no dithering or
// randomization, so rendering the same group twice produces
// byte-identical files.
//
// Render duration follows the DurationPolicy: by default it is the
// longest non-looped channel, with looped channels wrapping to fill;
// a group where everything loops falls back to one full pass of the
// longest channel.
package render

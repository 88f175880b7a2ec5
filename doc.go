// SPDX-License-Identifier: EPL-2.0

// Package overdub is a multi-track overdub recording and mixdown
// library: record a base take, layer up to three more takes on top of
// it while monitoring the earlier ones in sync, and bounce the whole
// group into a single stereo file.
//
// # Architecture
//
// The module is split along the seams of the problem:
//
//   - mix holds the pure mix model (volume, pan, mute, solo, loop and
//     the effective-volume resolution both playback and bounce share).
//   - group is the overdub-group bookkeeping: base track, ordered
//     layers with time offsets, integrity validation.
//   - engine is the real-time session engine: monitored playback of
//     the existing tracks plus capture of a new layer, with route
//     negotiation for unreliable wireless inputs.
//   - render is the offline mixdown renderer: deterministic,
//     chunk-by-chunk, bounded memory.
//   - asset opens and creates track files; session models the host
//     audio subsystem; audio and formats carry the streaming decode
//     pipeline underneath everything.
//
// # Quick Start
//
// Bouncing a group to a stereo WAV:
//
//	store := asset.NewDirStore("takes")
//	g := group.New(baseID)
//	g.AddLayer(layerID, 0)
//
//	locs := render.GroupLocations{
//		Base:   "base.wav",
//		Layers: []string{"layer0.wav"},
//	}
//	err := overdub.Bounce(store, g, locs, "bounce.wav", asset.PresetHigh)
//
// # Recording a layer
//
// The engine is driven as a command/query state machine:
//
//	eng, _ := engine.New(engine.Config{
//		Store:    store,
//		Hardware: hw,
//		Capture:  capDev,
//		Playback: playDev,
//	})
//	eng.Prepare("base.wav", 12.5, nil, asset.PresetHigh)
//	eng.Play()              // rehearse
//	eng.Stop()
//	eng.StartRecording(ctx, "layer0.wav", asset.PresetHigh)
//	// ... take happens ...
//	dur, _ := eng.StopRecording()
//
// All decoding goes through the audio.Source interface: WAV, MP3, Ogg
// Vorbis and AIFF takes all stream the same way, at any sample rate,
// resampled to the session rate on the fly.
package overdub

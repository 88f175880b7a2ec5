// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/soundpile/overdub/asset"
	"github.com/soundpile/overdub/mix"
	"github.com/soundpile/overdub/session"
)

// Layer describes one overdub take to prepare: where its asset lives
// and its time offset in seconds (negative skips into the file,
// positive delays its start).
type Layer struct {
	Location string
	Offset   float64
}

// Config wires the engine's collaborators. Everything is an interface
// so the whole engine runs against fakes in tests.
type Config struct {
	Store    asset.Store
	Hardware session.HardwareSession
	Capture  CaptureDevice
	Playback PlaybackDevice
	// Negotiator defaults to session.NewNegotiator when nil.
	Negotiator *session.Negotiator
}

// Engine coordinates simultaneous playback of the existing tracks of
// an overdub group and capture of a new layer. All commands run on the
// caller's goroutine under a single mutex (the coordinator context);
// the capture callback runs on the hardware thread and hands scalars
// back through a non-blocking post.
type Engine struct {
	cfg        Config
	negotiator *session.Negotiator

	mu           sync.Mutex
	state        State
	format       session.Format // graph format: stereo bus at the preset rate
	players      []*player
	settings     mix.Settings
	failedLayers []int
	baseDuration float64

	playhead   int64
	playStream Stream
	capStream  Stream
	bridge     *captureBridge
	writer     asset.WriteHandle
	recordRate int

	meterLevel float64
	recErr     error

	events chan captureEvent
	done   chan struct{}
}

// New builds an engine and starts its coordinator event loop. Call
// Close when the engine is no longer needed.
func New(cfg Config) (*Engine, error) {
	if cfg.Store == nil || cfg.Hardware == nil || cfg.Capture == nil || cfg.Playback == nil {
		return nil, errors.New("engine config is missing a collaborator")
	}
	neg := cfg.Negotiator
	if neg == nil {
		neg = session.NewNegotiator()
	}

	e := &Engine{
		cfg:        cfg,
		negotiator: neg,
		state:      StateIdle,
		events:     make(chan captureEvent, 64),
		done:       make(chan struct{}),
	}
	go e.eventLoop()
	return e, nil
}

// Prepare loads the group's tracks and builds one playback node per
// track on a common stereo bus at the preset's sample rate. A failure
// to open the base track is fatal; a corrupt layer is skipped and its
// index recorded so the session stays usable. Pass a zero baseDuration
// to have the engine measure it from the base asset.
func (e *Engine) Prepare(baseLocation string, baseDuration float64, layers []Layer, preset asset.QualityPreset) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateRecording {
		return ErrBusy
	}
	e.teardownLocked()

	if !preset.Valid() {
		preset = asset.PresetStandard
	}
	rate := preset.SampleRate

	base, err := loadPlayer(e.cfg.Store, baseLocation, rate, -1, 0)
	if err != nil {
		return fmt.Errorf("%w: loading base track: %v", ErrNotPrepared, err)
	}
	if baseDuration <= 0 {
		if bf := base.durationFrames(); bf >= 0 {
			baseDuration = float64(bf) / float64(rate)
		} else if d, derr := measureDuration(e.cfg.Store, baseLocation); derr == nil {
			baseDuration = d
		}
	}

	// Layers load concurrently; per-layer failures are tolerated.
	loaded := make([]*player, len(layers))
	errs := make([]error, len(layers))
	var g errgroup.Group
	for i, l := range layers {
		i, l := i, l
		g.Go(func() error {
			loaded[i], errs[i] = loadPlayer(e.cfg.Store, l.Location, rate, i, l.Offset)
			return nil
		})
	}
	g.Wait()

	e.players = []*player{base}
	e.failedLayers = nil
	for i := range layers {
		if errs[i] != nil {
			e.failedLayers = append(e.failedLayers, i)
			continue
		}
		e.players = append(e.players, loaded[i])
	}

	e.format = session.Format{SampleRate: rate, Channels: 2}
	e.settings = mix.DefaultSettings(len(layers))
	e.baseDuration = baseDuration
	e.playhead = 0
	e.meterLevel = 0
	e.recErr = nil
	e.state = StateIdle
	return nil
}

// Play starts or resumes monitored playback of the prepared tracks.
func (e *Engine) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.players == nil {
		return ErrNotPrepared
	}
	switch e.state {
	case StateRecording:
		return ErrBusy
	case StatePlaying:
		return nil
	}

	if err := e.ensurePlaybackLocked(); err != nil {
		return err
	}
	e.state = StatePlaying
	return nil
}

// Pause halts playback, keeping the graph attached and the position.
func (e *Engine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateRecording {
		return ErrBusy
	}
	if e.state == StatePlaying {
		e.state = StatePaused
	}
	return nil
}

// Seek moves the playhead to t seconds, clamped to the base take's
// duration. Every buffered node reschedules exactly; streamed nodes
// (tracks over the buffer cap) can only skip forward and go silent on
// a backward seek.
func (e *Engine) Seek(t float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.players == nil {
		return ErrNotPrepared
	}
	if e.state == StateRecording {
		return ErrBusy
	}
	if t < 0 {
		t = 0
	}
	if e.baseDuration > 0 && t > e.baseDuration {
		t = e.baseDuration
	}
	e.playhead = int64(t * float64(e.format.SampleRate))
	return nil
}

// StartRecording negotiates the input route, rebuilds the audio
// graph, opens the output asset with the negotiated format and begins
// capturing a new layer while monitoring the existing tracks.
// Requires a prepared engine in the idle state and an attached
// headphone path. May block for the route-negotiation budget.
func (e *Engine) StartRecording(ctx context.Context, location string, preset asset.QualityPreset) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.players == nil {
		return ErrNotPrepared
	}
	if e.state != StateIdle {
		return ErrBusy
	}

	route, err := e.cfg.Hardware.CurrentRoute()
	if err != nil {
		return recordingErr(ReasonNoInput, err)
	}
	if !route.HasMonitoringPath() {
		return ErrHeadphonesRequired
	}

	negotiated, err := e.negotiateInputLocked(ctx, route)
	if err != nil {
		return err
	}
	if !negotiated.Valid() {
		return recordingErr(ReasonInvalidFormat, session.ErrInvalidInputFormat)
	}

	// A route change invalidates node formats and connections, so the
	// graph is torn down and rebuilt before the capture stream opens.
	e.stopPlaybackLocked()
	// The lock was released while the old stream wound down; re-check
	// the preconditions before rebuilding.
	if e.players == nil || e.state != StateIdle {
		return ErrBusy
	}
	if err := e.ensurePlaybackLocked(); err != nil {
		return err
	}

	// The output asset uses the negotiated input format, not the
	// requested preset, so capture never fights a format mismatch.
	writer, err := e.cfg.Store.Create(location, asset.QualityPreset{
		SampleRate: negotiated.SampleRate,
		BitDepth:   preset.BitDepth,
		Channels:   negotiated.Channels,
	})
	if err != nil {
		return recordingErr(ReasonStorageWrite, err)
	}

	bridge := newCaptureBridge(writer, negotiated.Channels, e.postEvent)
	capStream, err := e.cfg.Capture.OpenCapture(negotiated, bridge.OnBuffer)
	if err != nil {
		writer.Close()
		return recordingErr(ReasonNoInput, err)
	}

	e.writer = writer
	e.bridge = bridge
	e.capStream = capStream
	e.recordRate = negotiated.SampleRate
	e.playhead = 0
	e.meterLevel = 0
	e.recErr = nil
	e.state = StateRecording
	return nil
}

func (e *Engine) negotiateInputLocked(ctx context.Context, route session.Route) (session.Format, error) {
	_, wirelessStuck := route.WirelessInputInMediaProfile()
	if !wirelessStuck {
		if f, ok := route.InputFormat(); ok {
			return f, nil
		}
	}

	f, err := e.negotiator.Stabilize(ctx, e.cfg.Hardware)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrWirelessProfile):
			return session.Format{}, recordingErr(ReasonWirelessProfile, err)
		case errors.Is(err, session.ErrInvalidInputFormat):
			return session.Format{}, recordingErr(ReasonInvalidFormat, err)
		default:
			return session.Format{}, recordingErr(ReasonNoInput, err)
		}
	}
	return f, nil
}

// StopRecording finalizes the take and returns the recorded duration
// in seconds. Idempotent and safe to call from idle (a no-op). On
// return no further capture callback can fire and the output asset is
// closed.
func (e *Engine) StopRecording() (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateRecording {
		return 0, nil
	}
	return e.stopRecordingLocked()
}

func (e *Engine) stopRecordingLocked() (float64, error) {
	// Leave the recording state and detach the graph resources first,
	// so the engine is consistent during the unlocked wind-down below
	// and a late render callback produces silence.
	e.state = StateIdle
	capStream, playStream := e.capStream, e.playStream
	e.capStream, e.playStream = nil, nil
	writer, bridge, rate := e.writer, e.bridge, e.recordRate
	e.writer, e.bridge = nil, nil

	// Stream.Stop blocks until no further callback can fire, and the
	// render callback takes e.mu on entry, so the lock cannot be held
	// across the stops. Capture goes first, synchronously: once its
	// Stop returns the frame count is final and the writer is safe to
	// close.
	e.mu.Unlock()
	var err error
	if capStream != nil {
		err = capStream.Stop()
	}
	if playStream != nil {
		playStream.Stop()
	}
	var duration float64
	if bridge != nil && rate > 0 {
		duration = float64(bridge.frames.Load()) / float64(rate)
	}
	if writer != nil {
		if cerr := writer.Close(); err == nil {
			err = cerr
		}
	}
	e.mu.Lock()
	return duration, err
}

// Stop halts playback and any recording and rewinds to zero.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateRecording {
		e.stopRecordingLocked()
	}
	e.state = StateIdle
	e.stopPlaybackLocked()
	e.playhead = 0
	return nil
}

// Cleanup is a full teardown: stops everything and releases every
// graph resource. The engine returns to idle and can be re-prepared.
func (e *Engine) Cleanup() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateRecording {
		e.stopRecordingLocked()
	}
	e.state = StateIdle
	e.stopPlaybackLocked()
	e.teardownLocked()
	return e.cfg.Hardware.Deactivate()
}

// Close ends the coordinator event loop. The engine is unusable
// afterwards.
func (e *Engine) Close() error {
	err := e.Cleanup()
	close(e.done)
	return err
}

func (e *Engine) teardownLocked() {
	for _, p := range e.players {
		p.close()
	}
	e.players = nil
	e.failedLayers = nil
	e.playhead = 0
	e.baseDuration = 0
}

// UpdateMix replaces the group's mix settings. The layer strip count
// is re-synced to the prepared layer count first.
func (e *Engine) UpdateMix(s mix.Settings) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s.SyncLayerCount(len(e.settings.Layers))
	e.settings = s
}

// Mix returns a copy of the current mix settings.
func (e *Engine) Mix() mix.Settings {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := e.settings
	out.Layers = append([]mix.ChannelSettings(nil), e.settings.Layers...)
	return out
}

// Snapshot returns an immutable view of the observable state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	var recDur float64
	if e.bridge != nil && e.recordRate > 0 {
		recDur = float64(e.bridge.frames.Load()) / float64(e.recordRate)
	}
	return Snapshot{
		State:               e.state,
		CurrentPlaybackTime: float64(e.playhead) / float64(max(e.format.SampleRate, 1)),
		BaseDuration:        e.baseDuration,
		RecordingDuration:   recDur,
		MeterLevel:          e.meterLevel,
		FailedLayerIndices:  append([]int(nil), e.failedLayers...),
		RecordingErr:        e.recErr,
	}
}

// stopPlaybackLocked detaches and stops the playback stream. The
// render callback takes e.mu on entry and Stream.Stop waits out any
// callback in flight, so the lock is released around the stop; the
// stream is detached first, keeping the engine consistent for anything
// that runs in the window.
func (e *Engine) stopPlaybackLocked() {
	playStream := e.playStream
	e.playStream = nil
	if playStream == nil {
		return
	}
	e.mu.Unlock()
	playStream.Stop()
	e.mu.Lock()
}

func (e *Engine) ensurePlaybackLocked() error {
	if e.playStream != nil {
		return nil
	}
	stream, err := e.cfg.Playback.OpenPlayback(e.format, e.renderMonitor)
	if err != nil {
		return fmt.Errorf("opening playback: %w", err)
	}
	e.playStream = stream
	return nil
}

// renderMonitor is the playback render callback: it mixes every
// scheduled track into the stereo bus at the current playhead, using
// the same effective-volume resolution the offline renderer applies.
func (e *Engine) renderMonitor(dst []float32) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range dst {
		dst[i] = 0
	}
	if e.state != StatePlaying && e.state != StateRecording {
		return 0
	}

	frames := len(dst) / 2
	baseGain, layerGains := e.settings.EffectiveVolumes()

	for _, p := range e.players {
		var gain, pan float64
		var looped bool
		if p.layerIndex < 0 {
			gain, pan, looped = baseGain, e.settings.Base.Pan, e.settings.Base.Looped
		} else if p.layerIndex < len(layerGains) {
			strip := e.settings.Layers[p.layerIndex]
			gain, pan, looped = layerGains[p.layerIndex], strip.Pan, strip.Looped
		}
		if gain == 0 {
			continue
		}
		gl, gr := mix.StereoPlacement(gain, pan, p.channels)
		p.mixInto(dst, e.playhead, frames, gl, gr, looped)
	}

	e.playhead += int64(frames)
	return frames
}

// postEvent hands a capture-thread scalar to the coordinator without
// ever blocking the real-time thread; under pressure events drop.
func (e *Engine) postEvent(ev captureEvent) {
	select {
	case e.events <- ev:
	default:
	}
}

// eventLoop is the coordinator side of the capture bridge and the
// hardware notification handler.
func (e *Engine) eventLoop() {
	hwEvents := e.cfg.Hardware.Events()
	for {
		select {
		case <-e.done:
			return
		case ev := <-e.events:
			e.handleCaptureEvent(ev)
		case hev, ok := <-hwEvents:
			if !ok {
				hwEvents = nil
				continue
			}
			e.handleHardwareEvent(hev)
		}
	}
}

func (e *Engine) handleCaptureEvent(ev captureEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateRecording {
		return
	}
	if ev.abort != nil {
		e.recErr = ev.abort
		e.stopRecordingLocked()
		return
	}
	e.meterLevel = ev.meter
}

// handleHardwareEvent reacts to interruptions and route changes:
// never corrupt state, prefer pausing or ending the take cleanly.
func (e *Engine) handleHardwareEvent(ev session.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch ev.Kind {
	case session.EventInterruptionBegan:
		switch e.state {
		case StateRecording:
			e.recErr = recordingErr(ReasonInterrupted, nil)
			e.stopRecordingLocked()
		case StatePlaying:
			e.state = StatePaused
		}
	case session.EventRouteChanged:
		if e.state == StateRecording {
			e.recErr = recordingErr(ReasonInterrupted, errors.New("input route changed mid-recording"))
			e.stopRecordingLocked()
		}
	}
}

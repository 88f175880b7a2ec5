// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/soundpile/overdub/asset"
	"github.com/soundpile/overdub/audio"
	"github.com/soundpile/overdub/internal/audiotest"
	"github.com/soundpile/overdub/mix"
	"github.com/soundpile/overdub/session"
)

type fakeStream struct {
	mu    sync.Mutex
	stops int
}

func (s *fakeStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops++
	return nil
}

type fakeCapture struct {
	mu     sync.Mutex
	fn     CaptureFunc
	format session.Format
	stream *fakeStream
	err    error
	opens  int
}

func (c *fakeCapture) OpenCapture(format session.Format, fn CaptureFunc) (Stream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	c.opens++
	c.fn = fn
	c.format = format
	c.stream = &fakeStream{}
	return c.stream, nil
}

func (c *fakeCapture) callback() CaptureFunc {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fn
}

type fakePlayback struct {
	mu     sync.Mutex
	render RenderFunc
	stream *fakeStream
	err    error
	opens  int
}

func (p *fakePlayback) OpenPlayback(format session.Format, render RenderFunc) (Stream, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	p.opens++
	p.render = render
	p.stream = &fakeStream{}
	return p.stream, nil
}

func (p *fakePlayback) renderFn() RenderFunc {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.render
}

// testRig assembles an engine around fakes, seeded with a one-second
// mono base take at the standard rate.
type testRig struct {
	engine   *Engine
	store    *audiotest.MemStore
	hw       *audiotest.FakeSession
	capture  *fakeCapture
	playback *fakePlayback
}

func newTestRig(t *testing.T, routes ...session.Route) *testRig {
	t.Helper()

	store := audiotest.NewMemStore()
	store.AddSource("base.wav", func() audio.Source {
		return audiotest.NewConstantSource(44100, 1, 44100, 0.5)
	})

	hw := audiotest.NewFakeSession(routes...)
	capture := &fakeCapture{}
	playback := &fakePlayback{}

	e, err := New(Config{
		Store:    store,
		Hardware: hw,
		Capture:  capture,
		Playback: playback,
		Negotiator: &session.Negotiator{
			Attempts: 3,
			Interval: time.Millisecond,
		},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { e.Close() })

	return &testRig{engine: e, store: store, hw: hw, capture: capture, playback: playback}
}

func (r *testRig) prepare(t *testing.T, layers ...Layer) {
	t.Helper()
	if err := r.engine.Prepare("base.wav", 1.0, layers, asset.PresetStandard); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
}

// waitFor polls the predicate until it holds or the deadline passes.
// The coordinator applies capture and hardware events asynchronously.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition never held")
}

func TestNew_MissingCollaborator(t *testing.T) {
	t.Parallel()

	_, err := New(Config{})
	if err == nil {
		t.Error("New() with empty config error = nil, want error")
	}
}

func TestPrepare_MissingBaseIsFatal(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, audiotest.WiredRoute(48000, 1))

	err := rig.engine.Prepare("missing.wav", 1.0, nil, asset.PresetStandard)
	if !errors.Is(err, ErrNotPrepared) {
		t.Fatalf("Prepare() error = %v, want ErrNotPrepared", err)
	}

	if err := rig.engine.Play(); !errors.Is(err, ErrNotPrepared) {
		t.Errorf("Play() after failed Prepare error = %v, want ErrNotPrepared", err)
	}
}

func TestPrepare_CorruptLayerIsTolerated(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, audiotest.WiredRoute(48000, 1))
	rig.store.AddSource("layer0.wav", func() audio.Source {
		return audiotest.NewConstantSource(44100, 1, 44100, 0.25)
	})
	// layer1.wav is never registered, so it fails to open

	err := rig.engine.Prepare("base.wav", 1.0, []Layer{
		{Location: "layer0.wav"},
		{Location: "layer1.wav"},
	}, asset.PresetStandard)
	if err != nil {
		t.Fatalf("Prepare() error = %v, want nil (layer failures are tolerated)", err)
	}

	snap := rig.engine.Snapshot()
	if len(snap.FailedLayerIndices) != 1 || snap.FailedLayerIndices[0] != 1 {
		t.Errorf("FailedLayerIndices = %v, want [1]", snap.FailedLayerIndices)
	}

	// The session stays fully usable
	if err := rig.engine.Play(); err != nil {
		t.Errorf("Play() error = %v", err)
	}
}

func TestPlayPauseSeek(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, audiotest.WiredRoute(48000, 1))
	rig.prepare(t)

	if err := rig.engine.Play(); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if got := rig.engine.Snapshot().State; got != StatePlaying {
		t.Errorf("state = %v, want playing", got)
	}

	// Play while playing is a no-op
	if err := rig.engine.Play(); err != nil {
		t.Errorf("Play() while playing error = %v", err)
	}

	if err := rig.engine.Pause(); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}
	if got := rig.engine.Snapshot().State; got != StatePaused {
		t.Errorf("state = %v, want paused", got)
	}

	if err := rig.engine.Seek(0.5); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	if got := rig.engine.Snapshot().CurrentPlaybackTime; math.Abs(got-0.5) > 1e-9 {
		t.Errorf("CurrentPlaybackTime = %f, want 0.5", got)
	}

	// Negative seek clamps to zero
	rig.engine.Seek(-3)
	if got := rig.engine.Snapshot().CurrentPlaybackTime; got != 0 {
		t.Errorf("CurrentPlaybackTime = %f, want 0", got)
	}

	if err := rig.engine.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if got := rig.engine.Snapshot().State; got != StateIdle {
		t.Errorf("state = %v, want idle", got)
	}
}

func TestRenderMonitor_MixesBaseTrack(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, audiotest.WiredRoute(48000, 1))
	rig.prepare(t)
	if err := rig.engine.Play(); err != nil {
		t.Fatalf("Play() error = %v", err)
	}

	render := rig.playback.renderFn()
	if render == nil {
		t.Fatal("playback device never received a render callback")
	}

	dst := make([]float32, 256)
	n := render(dst)
	if n != 128 {
		t.Errorf("render produced %d frames, want 128", n)
	}

	// Centered mono 0.5 through the constant-power pan law
	want := 0.5 * float32(math.Cos(math.Pi/4))
	if math.Abs(float64(dst[0]-want)) > 1e-5 {
		t.Errorf("dst[0] = %f, want %f", dst[0], want)
	}
	if dst[0] != dst[1] {
		t.Errorf("center pan left %f != right %f", dst[0], dst[1])
	}

	// The playhead advanced
	if got := rig.engine.Snapshot().CurrentPlaybackTime; got <= 0 {
		t.Errorf("CurrentPlaybackTime = %f, want > 0", got)
	}
}

func TestRenderMonitor_SilentWhenPaused(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, audiotest.WiredRoute(48000, 1))
	rig.prepare(t)
	rig.engine.Play()
	rig.engine.Pause()

	render := rig.playback.renderFn()
	dst := make([]float32, 64)
	for i := range dst {
		dst[i] = 0.7 // stale garbage the callback must clear
	}

	if n := render(dst); n != 0 {
		t.Errorf("render while paused produced %d frames, want 0", n)
	}
	for i, v := range dst {
		if v != 0 {
			t.Fatalf("dst[%d] = %f, want 0", i, v)
		}
	}
}

func TestRenderMonitor_MutedBaseIsSilent(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, audiotest.WiredRoute(48000, 1))
	rig.prepare(t)

	s := rig.engine.Mix()
	s.Base.Muted = true
	rig.engine.UpdateMix(s)

	rig.engine.Play()
	render := rig.playback.renderFn()

	dst := make([]float32, 64)
	render(dst)
	for i, v := range dst {
		if v != 0 {
			t.Fatalf("dst[%d] = %f, want 0 (base muted)", i, v)
		}
	}
}

func TestStartRecording_RequiresPrepare(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, audiotest.WiredRoute(48000, 1))

	err := rig.engine.StartRecording(context.Background(), "take.wav", asset.PresetStandard)
	if !errors.Is(err, ErrNotPrepared) {
		t.Errorf("StartRecording() error = %v, want ErrNotPrepared", err)
	}
}

func TestStartRecording_RequiresHeadphones(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, audiotest.SpeakerRoute())
	rig.prepare(t)

	err := rig.engine.StartRecording(context.Background(), "take.wav", asset.PresetStandard)
	if !errors.Is(err, ErrHeadphonesRequired) {
		t.Fatalf("StartRecording() error = %v, want ErrHeadphonesRequired", err)
	}

	if got := rig.engine.Snapshot().State; got != StateIdle {
		t.Errorf("state = %v, want idle after refused recording", got)
	}
}

func TestStartRecording_WiredHappyPath(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, audiotest.WiredRoute(48000, 1))
	rig.prepare(t)

	err := rig.engine.StartRecording(context.Background(), "take.wav", asset.PresetStandard)
	if err != nil {
		t.Fatalf("StartRecording() error = %v", err)
	}

	if got := rig.engine.Snapshot().State; got != StateRecording {
		t.Errorf("state = %v, want recording", got)
	}

	// Capture opened at the negotiated hardware format
	if rig.capture.format.SampleRate != 48000 || rig.capture.format.Channels != 1 {
		t.Errorf("capture format = %+v, want 48000/1", rig.capture.format)
	}

	// The output asset uses the negotiated format, not the preset
	w, ok := rig.store.Written("take.wav")
	if !ok {
		t.Fatal("no output asset created")
	}
	if w.Rate != 48000 || w.Chans != 1 {
		t.Errorf("asset format = %d/%d, want 48000/1", w.Rate, w.Chans)
	}

	// Monitoring runs during recording
	if rig.playback.opens == 0 {
		t.Error("playback graph was not opened for monitoring")
	}
}

func TestStartRecording_WhileRecordingIsBusy(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, audiotest.WiredRoute(48000, 1))
	rig.prepare(t)

	if err := rig.engine.StartRecording(context.Background(), "take.wav", asset.PresetStandard); err != nil {
		t.Fatalf("StartRecording() error = %v", err)
	}

	err := rig.engine.StartRecording(context.Background(), "other.wav", asset.PresetStandard)
	if !errors.Is(err, ErrBusy) {
		t.Errorf("second StartRecording() error = %v, want ErrBusy", err)
	}
}

func TestStartRecording_WirelessNeverStabilizes(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, audiotest.WirelessMediaRoute())
	rig.prepare(t)

	err := rig.engine.StartRecording(context.Background(), "take.wav", asset.PresetStandard)

	var recErr *RecordingError
	if !errors.As(err, &recErr) {
		t.Fatalf("StartRecording() error = %v, want *RecordingError", err)
	}
	if recErr.Reason != ReasonWirelessProfile {
		t.Errorf("Reason = %v, want ReasonWirelessProfile", recErr.Reason)
	}
	if !errors.Is(err, session.ErrWirelessProfile) {
		t.Errorf("error does not unwrap to session.ErrWirelessProfile: %v", err)
	}

	// A failed start leaves the engine idle and playable
	if got := rig.engine.Snapshot().State; got != StateIdle {
		t.Errorf("state = %v, want idle", got)
	}
	if err := rig.engine.Play(); err != nil {
		t.Errorf("Play() after failed recording error = %v", err)
	}
}

func TestStartRecording_WirelessSettlesIntoVoiceProfile(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t,
		audiotest.WirelessMediaRoute(),
		audiotest.WirelessMediaRoute(),
		audiotest.WirelessVoiceRoute(16000, 1),
	)
	rig.prepare(t)

	err := rig.engine.StartRecording(context.Background(), "take.wav", asset.PresetStandard)
	if err != nil {
		t.Fatalf("StartRecording() error = %v", err)
	}

	// Asset format follows the voice profile the accessory settled on
	w, _ := rig.store.Written("take.wav")
	if w.Rate != 16000 || w.Chans != 1 {
		t.Errorf("asset format = %d/%d, want 16000/1", w.Rate, w.Chans)
	}
}

func TestStartRecording_StorageCreateFails(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, audiotest.WiredRoute(48000, 1))
	rig.prepare(t)
	rig.store.CreateErr = errors.New("disk full")

	err := rig.engine.StartRecording(context.Background(), "take.wav", asset.PresetStandard)

	var recErr *RecordingError
	if !errors.As(err, &recErr) {
		t.Fatalf("StartRecording() error = %v, want *RecordingError", err)
	}
	if recErr.Reason != ReasonStorageWrite {
		t.Errorf("Reason = %v, want ReasonStorageWrite", recErr.Reason)
	}
	if got := rig.engine.Snapshot().State; got != StateIdle {
		t.Errorf("state = %v, want idle", got)
	}
}

func TestStopRecording_ReturnsDuration(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, audiotest.WiredRoute(48000, 1))
	rig.prepare(t)

	if err := rig.engine.StartRecording(context.Background(), "take.wav", asset.PresetStandard); err != nil {
		t.Fatalf("StartRecording() error = %v", err)
	}

	// Simulate one second of captured audio
	fn := rig.capture.callback()
	buf := make([]float32, 4800)
	for _i := 0; _i < 10; _i++ {
		fn(buf, 4800)
	}

	dur, err := rig.engine.StopRecording()
	if err != nil {
		t.Fatalf("StopRecording() error = %v", err)
	}
	if math.Abs(dur-1.0) > 1e-9 {
		t.Errorf("duration = %f, want 1.0", dur)
	}

	if got := rig.engine.Snapshot().State; got != StateIdle {
		t.Errorf("state = %v, want idle", got)
	}

	// The asset was finalized
	w, _ := rig.store.Written("take.wav")
	if !w.Closed {
		t.Error("output asset not closed")
	}

	// The capture stream was stopped before the asset closed
	if rig.capture.stream.stops == 0 {
		t.Error("capture stream never stopped")
	}
}

func TestStopRecording_IdempotentFromIdle(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, audiotest.WiredRoute(48000, 1))
	rig.prepare(t)

	dur, err := rig.engine.StopRecording()
	if err != nil || dur != 0 {
		t.Errorf("StopRecording() from idle = (%f, %v), want (0, nil)", dur, err)
	}

	// And again after a real record/stop cycle
	rig.engine.StartRecording(context.Background(), "take.wav", asset.PresetStandard)
	if _, err := rig.engine.StopRecording(); err != nil {
		t.Fatalf("StopRecording() error = %v", err)
	}
	if _, err := rig.engine.StopRecording(); err != nil {
		t.Errorf("second StopRecording() error = %v, want nil", err)
	}
}

func TestRecording_AbortsAfterWriteFailures(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, audiotest.WiredRoute(48000, 1))
	rig.prepare(t)

	if err := rig.engine.StartRecording(context.Background(), "take.wav", asset.PresetStandard); err != nil {
		t.Fatalf("StartRecording() error = %v", err)
	}

	w, _ := rig.store.Written("take.wav")
	w.SetFailures(WriteFailureThreshold)

	fn := rig.capture.callback()
	buf := make([]float32, 480)
	for _i := 0; _i < WriteFailureThreshold; _i++ {
		fn(buf, 480)
	}

	// The coordinator picks up the abort and ends the take
	waitFor(t, func() bool {
		return rig.engine.Snapshot().State == StateIdle
	})

	snap := rig.engine.Snapshot()
	var recErr *RecordingError
	if !errors.As(snap.RecordingErr, &recErr) {
		t.Fatalf("RecordingErr = %v, want *RecordingError", snap.RecordingErr)
	}
	if recErr.Reason != ReasonStorageWrite {
		t.Errorf("Reason = %v, want ReasonStorageWrite", recErr.Reason)
	}

	if !w.Closed {
		t.Error("output asset not closed after abort")
	}
}

func TestRecording_MeterLevelReachesSnapshot(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, audiotest.WiredRoute(48000, 1))
	rig.prepare(t)

	if err := rig.engine.StartRecording(context.Background(), "take.wav", asset.PresetStandard); err != nil {
		t.Fatalf("StartRecording() error = %v", err)
	}

	fn := rig.capture.callback()
	buf := make([]float32, 480)
	for i := range buf {
		buf[i] = 0.5
	}
	fn(buf, 480)

	waitFor(t, func() bool {
		return rig.engine.Snapshot().MeterLevel > 0
	})

	if got := rig.engine.Snapshot().MeterLevel; got <= 0 || got > 1 {
		t.Errorf("MeterLevel = %f, want in (0, 1]", got)
	}
}

func TestInterruption_EndsRecording(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, audiotest.WiredRoute(48000, 1))
	rig.prepare(t)

	if err := rig.engine.StartRecording(context.Background(), "take.wav", asset.PresetStandard); err != nil {
		t.Fatalf("StartRecording() error = %v", err)
	}

	rig.hw.Emit(session.Event{Kind: session.EventInterruptionBegan})

	waitFor(t, func() bool {
		return rig.engine.Snapshot().State == StateIdle
	})

	snap := rig.engine.Snapshot()
	var recErr *RecordingError
	if !errors.As(snap.RecordingErr, &recErr) {
		t.Fatalf("RecordingErr = %v, want *RecordingError", snap.RecordingErr)
	}
	if recErr.Reason != ReasonInterrupted {
		t.Errorf("Reason = %v, want ReasonInterrupted", recErr.Reason)
	}
}

func TestInterruption_PausesPlayback(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, audiotest.WiredRoute(48000, 1))
	rig.prepare(t)
	rig.engine.Play()

	rig.hw.Emit(session.Event{Kind: session.EventInterruptionBegan})

	waitFor(t, func() bool {
		return rig.engine.Snapshot().State == StatePaused
	})
}

func TestRouteChange_EndsRecording(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, audiotest.WiredRoute(48000, 1))
	rig.prepare(t)

	if err := rig.engine.StartRecording(context.Background(), "take.wav", asset.PresetStandard); err != nil {
		t.Fatalf("StartRecording() error = %v", err)
	}

	rig.hw.Emit(session.Event{Kind: session.EventRouteChanged})

	waitFor(t, func() bool {
		return rig.engine.Snapshot().State == StateIdle
	})
}

func TestUpdateMix_ResyncsLayerCount(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, audiotest.WiredRoute(48000, 1))
	rig.store.AddSource("layer0.wav", func() audio.Source {
		return audiotest.NewConstantSource(44100, 1, 44100, 0.25)
	})
	rig.prepare(t, Layer{Location: "layer0.wav"})

	// A stale settings value with the wrong strip count gets repaired
	rig.engine.UpdateMix(mix.Settings{
		Base:         mix.ChannelSettings{Volume: 0.5},
		MasterVolume: 1.0,
	})

	got := rig.engine.Mix()
	if len(got.Layers) != 1 {
		t.Errorf("len(Layers) = %d, want 1 after resync", len(got.Layers))
	}
	if got.Base.Volume != 0.5 {
		t.Errorf("Base.Volume = %f, want 0.5", got.Base.Volume)
	}
}

func TestCleanup_AllowsReprepare(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, audiotest.WiredRoute(48000, 1))
	rig.prepare(t)
	rig.engine.Play()

	if err := rig.engine.Cleanup(); err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}

	if err := rig.engine.Play(); !errors.Is(err, ErrNotPrepared) {
		t.Errorf("Play() after Cleanup error = %v, want ErrNotPrepared", err)
	}

	rig.prepare(t)
	if err := rig.engine.Play(); err != nil {
		t.Errorf("Play() after re-prepare error = %v", err)
	}
}

// windDownStream models a conforming hardware stream: Stop delivers
// one last render callback, the buffer already in flight, and does not
// return until the callback has.
type windDownStream struct {
	render RenderFunc

	mu    sync.Mutex
	stops int
}

func (s *windDownStream) Stop() error {
	if s.render != nil {
		buf := make([]float32, 256)
		s.render(buf)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops++
	return nil
}

type windDownPlayback struct {
	mu     sync.Mutex
	stream *windDownStream
}

func (p *windDownPlayback) OpenPlayback(format session.Format, render RenderFunc) (Stream, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stream = &windDownStream{render: render}
	return p.stream, nil
}

// newWindDownEngine builds an engine whose playback stream keeps one
// render callback in flight across Stop. The engine is not closed by
// t.Cleanup: a regression here hangs the teardown path itself, so the
// tests close it only once the operation under test has returned.
func newWindDownEngine(t *testing.T) (*Engine, *windDownPlayback, *fakeCapture) {
	t.Helper()

	store := audiotest.NewMemStore()
	store.AddSource("base.wav", func() audio.Source {
		return audiotest.NewConstantSource(44100, 1, 44100, 0.5)
	})

	playback := &windDownPlayback{}
	capture := &fakeCapture{}
	e, err := New(Config{
		Store:    store,
		Hardware: audiotest.NewFakeSession(audiotest.WiredRoute(44100, 1)),
		Capture:  capture,
		Playback: playback,
		Negotiator: &session.Negotiator{
			Attempts: 3,
			Interval: time.Millisecond,
		},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := e.Prepare("base.wav", 1.0, nil, asset.PresetStandard); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	return e, playback, capture
}

func TestStop_WaitsOutFinalRenderCallback(t *testing.T) {
	t.Parallel()

	e, playback, _ := newWindDownEngine(t)
	if err := e.Play(); err != nil {
		t.Fatalf("Play() error = %v", err)
	}

	done := make(chan struct{})
	go func() {
		e.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop() did not return while a render callback was in flight")
	}

	playback.mu.Lock()
	stream := playback.stream
	playback.mu.Unlock()
	stream.mu.Lock()
	stops := stream.stops
	stream.mu.Unlock()
	if stops != 1 {
		t.Errorf("stream stops = %d, want 1", stops)
	}
	if got := e.Snapshot(); got.State != StateIdle || got.CurrentPlaybackTime != 0 {
		t.Errorf("Snapshot after Stop = %+v, want idle at zero", got)
	}
	e.Close()
}

func TestStopRecording_WaitsOutFinalRenderCallback(t *testing.T) {
	t.Parallel()

	e, _, _ := newWindDownEngine(t)
	if err := e.StartRecording(context.Background(), "layer.wav", asset.PresetStandard); err != nil {
		t.Fatalf("StartRecording() error = %v", err)
	}

	done := make(chan struct{})
	go func() {
		e.StopRecording()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("StopRecording() did not return while a render callback was in flight")
	}

	if got := e.Snapshot().State; got != StateIdle {
		t.Errorf("state after StopRecording = %v, want idle", got)
	}
	e.Close()
}

func TestCleanup_WaitsOutFinalRenderCallback(t *testing.T) {
	t.Parallel()

	e, _, _ := newWindDownEngine(t)
	if err := e.Play(); err != nil {
		t.Fatalf("Play() error = %v", err)
	}

	done := make(chan struct{})
	go func() {
		e.Cleanup()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Cleanup() did not return while a render callback was in flight")
	}
	e.Close()
}

func TestPrepare_MeasuresBaseDuration(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t)
	if err := rig.engine.Prepare("base.wav", 0, nil, asset.PresetStandard); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	// The seeded base take is one second of audio.
	if got := rig.engine.Snapshot().BaseDuration; math.Abs(got-1.0) > 1e-9 {
		t.Errorf("BaseDuration = %f, want 1.0", got)
	}
}

func TestSeek_ClampsToBaseDuration(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t)
	rig.prepare(t)

	if err := rig.engine.Seek(5.0); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	snap := rig.engine.Snapshot()
	if snap.BaseDuration != 1.0 {
		t.Errorf("BaseDuration = %f, want 1.0", snap.BaseDuration)
	}
	if snap.CurrentPlaybackTime != 1.0 {
		t.Errorf("CurrentPlaybackTime = %f, want clamp to 1.0", snap.CurrentPlaybackTime)
	}
}

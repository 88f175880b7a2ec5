// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/soundpile/overdub/asset"
	"github.com/soundpile/overdub/audio"
)

// MemStore is an in-memory asset.Store for tests: sources come from
// registered factories (so a location can be opened repeatedly, which
// looped mixdown channels rely on), writes land in MemWriter buffers.
type MemStore struct {
	mu      sync.Mutex
	sources map[string]func() audio.Source
	writes  map[string]*MemWriter

	// CreateErr, when set, fails every Create call.
	CreateErr error
}

func NewMemStore() *MemStore {
	return &MemStore{
		sources: make(map[string]func() audio.Source),
		writes:  make(map[string]*MemWriter),
	}
}

// AddSource registers a factory producing a fresh source per Open.
func (s *MemStore) AddSource(location string, factory func() audio.Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[location] = factory
}

func (s *MemStore) Open(location string) (audio.Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	factory, ok := s.sources[location]
	if !ok {
		return nil, fmt.Errorf("no such asset: %s", location)
	}
	return factory(), nil
}

func (s *MemStore) Create(location string, preset asset.QualityPreset) (asset.WriteHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return nil, s.CreateErr
	}
	if !preset.Valid() {
		return nil, asset.ErrInvalidPreset
	}
	w := &MemWriter{Rate: preset.SampleRate, Chans: preset.Channels}
	s.writes[location] = w
	return w, nil
}

func (s *MemStore) Remove(location string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.writes, location)
	delete(s.sources, location)
	return nil
}

// Written returns the writer created at location, if any.
func (s *MemStore) Written(location string) (*MemWriter, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.writes[location]
	return w, ok
}

// MemWriter is an in-memory asset.WriteHandle. FailNext makes the
// next N writes fail, for exercising the capture failure counter.
type MemWriter struct {
	Rate  int
	Chans int

	mu       sync.Mutex
	Data     []float32
	FailNext int
	Closed   bool
	frames   int64
}

func (w *MemWriter) WriteSamples(src []float32) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.Closed {
		return errors.New("write on closed asset")
	}
	if w.FailNext > 0 {
		w.FailNext--
		return errors.New("simulated write failure")
	}
	w.Data = append(w.Data, src...)
	w.frames += int64(len(src) / w.Chans)
	return nil
}

func (w *MemWriter) Frames() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.frames
}

func (w *MemWriter) SampleRate() int { return w.Rate }
func (w *MemWriter) Channels() int   { return w.Chans }

func (w *MemWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Closed = true
	return nil
}

// SetFailures arms the writer to fail the next n writes.
func (w *MemWriter) SetFailures(n int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.FailNext = n
}

// SPDX-License-Identifier: EPL-2.0

package asset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/soundpile/overdub/audio"
	"github.com/soundpile/overdub/formats/aiff"
	"github.com/soundpile/overdub/formats/mp3"
	"github.com/soundpile/overdub/formats/vorbis"
	"github.com/soundpile/overdub/formats/wav"
)

var (
	ErrInvalidPreset = errors.New("quality preset has zero sample rate or channels")
)

// QualityPreset pins the format of a newly created asset.
type QualityPreset struct {
	SampleRate int `json:"sample_rate"`
	BitDepth   int `json:"bit_depth"`
	Channels   int `json:"channels"`
}

// Common presets. Voice keeps takes small, Standard matches CD rate,
// High is the studio default.
var (
	PresetVoice    = QualityPreset{SampleRate: 22050, BitDepth: 16, Channels: 1}
	PresetStandard = QualityPreset{SampleRate: 44100, BitDepth: 16, Channels: 2}
	PresetHigh     = QualityPreset{SampleRate: 48000, BitDepth: 24, Channels: 2}
)

func (p QualityPreset) Valid() bool {
	return p.SampleRate > 0 && p.Channels > 0
}

// WriteHandle is an open-for-write audio asset. The engine and the
// renderer only ever write through a handle they were given; file
// existence, atomic replacement and backups stay with the store.
type WriteHandle interface {
	WriteSamples(src []float32) error
	Frames() int64
	SampleRate() int
	Channels() int
	Close() error
}

// Store opens audio assets for reading and creates new ones for
// writing, keyed by an opaque location string.
type Store interface {
	Open(location string) (audio.Source, error)
	Create(location string, preset QualityPreset) (WriteHandle, error)
	Remove(location string) error
}

// DirStore is a filesystem Store rooted at a directory. Decoding is
// dispatched by file extension through an audio.Registry, so wav, mp3,
// ogg and aiff takes all open the same way.
type DirStore struct {
	root     string
	registry *audio.Registry
}

func NewDirStore(root string) *DirStore {
	reg := audio.NewRegistry()
	reg.Register("wav", wav.Decoder{})
	reg.Register("mp3", mp3.Decoder{})
	reg.Register("ogg", vorbis.Decoder{})
	reg.Register("aiff", aiff.Decoder{})
	reg.Register("aif", aiff.Decoder{})

	return &DirStore{root: root, registry: reg}
}

func (s *DirStore) path(location string) string {
	if filepath.IsAbs(location) {
		return location
	}
	return filepath.Join(s.root, location)
}

func (s *DirStore) Open(location string) (audio.Source, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(location), "."))
	dec, ok := s.registry.Get(ext)
	if !ok {
		return nil, fmt.Errorf("%q: %w", location, audio.ErrUnknownFormat)
	}

	f, err := os.Open(s.path(location))
	if err != nil {
		return nil, fmt.Errorf("opening asset: %w", err)
	}

	src, err := dec.Decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decoding %q: %w", location, err)
	}

	return &fileSource{Source: src, f: f}, nil
}

func (s *DirStore) Create(location string, preset QualityPreset) (WriteHandle, error) {
	if !preset.Valid() {
		return nil, ErrInvalidPreset
	}

	path := s.path(location)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating asset dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating asset: %w", err)
	}

	w, err := wav.NewWriter(f, preset.SampleRate, preset.BitDepth, preset.Channels)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &fileWriter{Writer: w, f: f}, nil
}

func (s *DirStore) Remove(location string) error {
	return os.Remove(s.path(location))
}

// fileSource closes the backing file together with the decoder.
type fileSource struct {
	audio.Source
	f *os.File
}

func (fs *fileSource) Close() error {
	err := fs.Source.Close()
	if cerr := fs.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// fileWriter finalizes the RIFF header before closing the file.
type fileWriter struct {
	*wav.Writer
	f *os.File
}

func (fw *fileWriter) Close() error {
	err := fw.Writer.Close()
	if cerr := fw.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"io"
	"sync"
)

// Source is a pull-based stream of interleaved float32 samples in
// [-1, 1]. Every track asset, resampler and downmixer in this module
// speaks this interface.
type Source interface {
	// SampleRate of the PCM stream in Hz.
	SampleRate() int
	// Channels count (1=mono, 2=stereo).
	Channels() int
	// ReadSamples fills dst with interleaved samples and returns the
	// number of float32 values written (not frames). n == 0 with
	// err == io.EOF means the stream is finished.
	ReadSamples(dst []float32) (n int, err error)
	// Close releases any resources held by the source.
	Close() error
}

// Decoder constructs a Source from an input reader.
type Decoder interface {
	Decode(r io.Reader) (Source, error)
}

// Registry maps format keys (file extensions such as "wav", "mp3",
// "ogg", "aiff") to decoders. Safe for concurrent use.
type Registry struct {
	codecs map[string]Decoder
	mtx    sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{
		codecs: make(map[string]Decoder),
	}
}

func (r *Registry) Register(format string, d Decoder) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.codecs[format] = d
}

func (r *Registry) Get(format string) (Decoder, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	d, ok := r.codecs[format]
	return d, ok
}

// DrainFrames reads src to exhaustion, discarding samples, and returns
// the number of frames seen. Used to measure the duration of streams
// whose container does not carry a frame count.
func DrainFrames(src Source, bufSize int) (int64, error) {
	if bufSize <= 0 {
		bufSize = 4096
	}
	buf := make([]float32, bufSize*src.Channels())

	var frames int64
	for {
		n, err := src.ReadSamples(buf)
		frames += int64(n / src.Channels())
		if err == io.EOF {
			return frames, nil
		}
		if err != nil {
			return frames, err
		}
	}
}

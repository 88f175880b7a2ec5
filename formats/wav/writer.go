// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"
)

// Writer streams interleaved float32 samples to a PCM WAV file
// through a go-audio encoder. It is the output side of both the
// capture path and the mixdown renderer: frames go out in chunks as
// they arrive, so memory stays constant however long the take runs.
type Writer struct {
	enc        *gowav.Encoder
	sampleRate int
	channels   int
	bitDepth   int
	frames     int64
	intBuf     *goaudio.IntBuffer
	closed     bool
}

// NewWriter creates a PCM writer at the given format. Only 16-bit and
// 24-bit depths are supported; anything else falls back to 16.
func NewWriter(ws io.WriteSeeker, sampleRate, bitDepth, channels int) (*Writer, error) {
	if sampleRate <= 0 || channels <= 0 {
		return nil, ErrInvalidWriterFormat
	}
	if bitDepth != 16 && bitDepth != 24 {
		bitDepth = 16
	}

	return &Writer{
		enc:        gowav.NewEncoder(ws, sampleRate, bitDepth, channels, 1),
		sampleRate: sampleRate,
		channels:   channels,
		bitDepth:   bitDepth,
		intBuf: &goaudio.IntBuffer{
			Format: &goaudio.Format{
				NumChannels: channels,
				SampleRate:  sampleRate,
			},
			SourceBitDepth: bitDepth,
		},
	}, nil
}

func (w *Writer) SampleRate() int { return w.sampleRate }
func (w *Writer) Channels() int   { return w.channels }

// Frames returns the number of frames written so far.
func (w *Writer) Frames() int64 { return w.frames }

// WriteSamples appends interleaved float32 samples in [-1, 1].
// len(src) must be a multiple of the channel count.
func (w *Writer) WriteSamples(src []float32) error {
	if w.closed {
		return ErrWriterClosed
	}
	if len(src)%w.channels != 0 {
		return ErrInvalidWriterFormat
	}
	if len(src) == 0 {
		return nil
	}

	if cap(w.intBuf.Data) < len(src) {
		w.intBuf.Data = make([]int, len(src))
	}
	w.intBuf.Data = w.intBuf.Data[:len(src)]

	scale := pcmScale(w.bitDepth)
	maxVal := int(scale) - 1
	minVal := -int(scale)
	for i, x := range src {
		v := int(x * scale)
		if v > maxVal {
			v = maxVal
		} else if v < minVal {
			v = minVal
		}
		w.intBuf.Data[i] = v
	}

	if err := w.enc.Write(w.intBuf); err != nil {
		return fmt.Errorf("%w", err)
	}
	w.frames += int64(len(src) / w.channels)
	return nil
}

// Close finalizes the RIFF header. Idempotent.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.enc.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

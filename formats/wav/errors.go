package wav

import "errors"

var (
	ErrNotWavFile           = errors.New("not a WAV file")
	ErrUnsupportedWavLayout = errors.New("unsupported WAV layout")
	ErrInvalidWriterFormat  = errors.New("invalid writer format")
	ErrWriterClosed         = errors.New("writer already closed")
)

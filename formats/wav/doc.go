// SPDX-License-Identifier: EPL-2.0

// Package wav provides WAV audio file decoding and encoding.
//
// This package wraps the github.com/go-audio libraries for robust WAV
// file handling. It is the primary on-disk format for takes: recorded
// audio is streamed out through Writer, and mixdown output is written
// the same way.
//
// # Supported Formats
//
// Decoding:
//   - PCM 8/16/24/32-bit
//   - Mono, stereo and wider layouts
//   - Any sample rate
//
// Encoding:
//   - PCM 16-bit and 24-bit
//   - Any channel count and sample rate
//
// # Decoding WAV Files
//
// Use the Decoder to read WAV files:
//
//	decoder := wav.Decoder{}
//	file, _ := os.Open("audio.wav")
//	source, err := decoder.Decode(file)
//	if err != nil {
//	    // Handle error
//	}
//
//	// Read samples
//	buf := make([]float32, 4096)
//	n, err := source.ReadSamples(buf)
//
// The decoder returns an audio.Source that provides samples as float32
// values in the range [-1.0, 1.0].
//
// # Writing WAV Files
//
// Use Writer to stream samples to a WAV file:
//
//	file, _ := os.Create("output.wav")
//	writer, err := wav.NewWriter(file, 44100, 16, 2)
//	err = writer.WriteSamples([]float32{0.1, -0.1, 0.2, -0.2})
//	err = writer.Close()
//
// Frames go out in chunks as they arrive, so memory use stays constant
// regardless of recording length. Close finalizes the RIFF header and
// must be called before the file is readable.
//
// # Error Handling
//
// The package defines several error types:
//   - ErrNotWavFile: The input is not a valid WAV file
//   - ErrUnsupportedWavLayout: Unsupported WAV file structure
//   - ErrInvalidWriterFormat: Writer format or sample slice is invalid
//   - ErrWriterClosed: Write attempted after Close
//
// Example:
//
//	source, err := decoder.Decode(file)
//	if err == wav.ErrNotWavFile {
//	    fmt.Println("Not a WAV file")
//	}
package wav

// Package audiosrc decodes audio files into mono float32 sample buffers.
//
// Two decode strategies exist: a native one built on pure-Go decoders, and a
// fallback that shells out to ffmpeg. They are tried in order; only the
// fallback pins the output sample rate, so consumers must always read the
// rate from the buffer.
package audiosrc

import (
	"context"
	"encoding/binary"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Endianness of the raw PCM byte streams the decode strategies parse.
var Endianness = binary.LittleEndian

// ErrDecode means every decode strategy failed or produced an empty buffer.
// It is fatal to the run.
var ErrDecode = errors.New("could not decode audio file")

// Buffer is a decoded, mono audio signal. It is immutable once returned by a
// strategy.
type Buffer struct {
	// Samples is the signal, one float32 per sample frame, in [-1, 1].
	Samples []float32
	// Rate is the sample rate in Hz.
	Rate int
}

// Len returns the number of samples in the buffer.
func (b *Buffer) Len() int {
	return len(b.Samples)
}

// Duration returns the play time of the buffer.
func (b *Buffer) Duration() time.Duration {
	if b.Rate <= 0 {
		return 0
	}
	return time.Duration(float64(len(b.Samples)) / float64(b.Rate) * float64(time.Second))
}

// Strategy decodes the audio file at path into a Buffer.
type Strategy interface {
	Decode(ctx context.Context, path string) (*Buffer, error)
	// Name identifies the strategy in logs and errors.
	Name() string
}

// Decode tries each strategy in order and returns the first non-empty
// buffer. If every strategy fails, the returned error matches ErrDecode and
// carries each strategy's failure.
func Decode(ctx context.Context, path string, strategies ...Strategy) (*Buffer, error) {
	var failures []string

	for _, s := range strategies {
		buf, err := s.Decode(ctx, path)
		if err != nil {
			failures = append(failures, s.Name()+": "+err.Error())
			continue
		}
		if buf.Len() == 0 {
			failures = append(failures, s.Name()+": decoded an empty buffer")
			continue
		}
		return buf, nil
	}

	return nil, errors.Wrap(ErrDecode, strings.Join(failures, "; "))
}

// downmix collapses interleaved multi-channel samples into mono by averaging
// the channels of each frame. A single channel is returned as-is.
func downmix(samples []float32, channels int) []float32 {
	if channels <= 1 {
		return samples
	}

	frames := len(samples) / channels
	mono := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += samples[i*channels+c]
		}
		mono[i] = sum / float32(channels)
	}
	return mono
}

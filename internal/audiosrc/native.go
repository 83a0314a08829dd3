package audiosrc

import (
	"bytes"
	"context"
	"io"
	"os"

	"github.com/go-audio/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/pkg/errors"
)

// NativeStrategy decodes with pure-Go decoders, picked by sniffing the file
// header: RIFF means WAV, OggS means Ogg Vorbis, anything else is treated as
// MP3. The buffer keeps the file's native sample rate.
type NativeStrategy struct{}

func (NativeStrategy) Name() string { return "native" }

func (NativeStrategy) Decode(ctx context.Context, path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open file")
	}
	defer f.Close()

	var sniff [4]byte
	if _, err := io.ReadFull(f, sniff[:]); err != nil {
		return nil, errors.Wrap(err, "failed to read file header")
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "failed to rewind file")
	}

	switch {
	case bytes.Equal(sniff[:], []byte("RIFF")):
		return decodeWAV(f)
	case bytes.Equal(sniff[:], []byte("OggS")):
		return decodeVorbis(f)
	default:
		return decodeMP3(f)
	}
}

func decodeMP3(r io.Reader) (*Buffer, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open mp3 decoder")
	}

	// go-mp3 emits 16-bit little-endian PCM, always two channels.
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode mp3 stream")
	}

	frames := len(raw) / 4
	samples := make([]float32, frames)
	for i := 0; i < frames; i++ {
		left := int16(Endianness.Uint16(raw[4*i:]))
		right := int16(Endianness.Uint16(raw[4*i+2:]))
		samples[i] = (float32(left) + float32(right)) / 2 / 32768
	}

	return &Buffer{Samples: samples, Rate: dec.SampleRate()}, nil
}

func decodeVorbis(r io.Reader) (*Buffer, error) {
	data, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode vorbis stream")
	}

	return &Buffer{
		Samples: downmix(data, format.Channels),
		Rate:    format.SampleRate,
	}, nil
}

func decodeWAV(r io.ReadSeeker) (*Buffer, error) {
	dec := wav.NewDecoder(r)

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode wav stream")
	}
	if pcm.Format == nil || pcm.Format.NumChannels == 0 || dec.BitDepth == 0 {
		return nil, errors.New("wav stream has no format information")
	}

	scale := float32(int(1) << (dec.BitDepth - 1))
	samples := make([]float32, len(pcm.Data))
	for i, v := range pcm.Data {
		samples[i] = float32(v) / scale
	}

	return &Buffer{
		Samples: downmix(samples, pcm.Format.NumChannels),
		Rate:    pcm.Format.SampleRate,
	}, nil
}

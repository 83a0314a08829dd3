package audiosrc

import (
	"context"
	"math"
	"os/exec"
	"strconv"

	"github.com/pkg/errors"
)

// DefaultRate is the sample rate the ffmpeg fallback requests.
const DefaultRate = 44100

// FFmpegStrategy decodes by shelling out to ffmpeg, requesting raw 64-bit
// little-endian float PCM, mono, at a fixed sample rate on stdout. It covers
// whatever formats the local ffmpeg build does, at the cost of an external
// process per decode.
type FFmpegStrategy struct {
	// Path is the ffmpeg binary. Defaults to "ffmpeg" on $PATH.
	Path string
	// Rate is the requested sample rate. Defaults to DefaultRate.
	Rate int
}

func (FFmpegStrategy) Name() string { return "ffmpeg" }

func (s FFmpegStrategy) Decode(ctx context.Context, path string) (*Buffer, error) {
	bin := s.Path
	if bin == "" {
		bin = "ffmpeg"
	}
	rate := s.Rate
	if rate <= 0 {
		rate = DefaultRate
	}

	cmd := exec.CommandContext(ctx, bin,
		"-i", path,
		"-f", "f64le",
		"-acodec", "pcm_f64le",
		"-ar", strconv.Itoa(rate),
		"-ac", "1",
		"-loglevel", "error",
		"pipe:1",
	)

	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, errors.Wrapf(err, "ffmpeg failed: %s", exitErr.Stderr)
		}
		return nil, errors.Wrap(err, "ffmpeg failed")
	}

	return &Buffer{Samples: parseF64LE(out), Rate: rate}, nil
}

// parseF64LE reads a raw stream of little-endian float64 samples, narrowing
// each to float32. Trailing bytes that do not form a whole sample are
// dropped.
func parseF64LE(raw []byte) []float32 {
	n := len(raw) / 8
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		samples[i] = float32(math.Float64frombits(Endianness.Uint64(raw[8*i:])))
	}
	return samples
}

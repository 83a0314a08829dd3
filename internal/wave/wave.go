// Package wave turns a decoded sample buffer into a time-cadenced sequence
// of loudness/intensity frames.
//
// A fixed-size analysis window slides over the buffer at a fixed hop. One
// window out of every K is retained so that retained frames land roughly one
// per frame interval of real time, whatever the hop rate is.
package wave

import (
	"math"
	"time"

	"libdb.so/glowplay/internal/audiosrc"
)

// Default analysis parameters.
const (
	DefaultWindowSize    = 1024
	DefaultHopSize       = 512
	DefaultBuckets       = 16
	DefaultFrameInterval = 60 * time.Millisecond
)

// Params configures the analysis.
type Params struct {
	// WindowSize is the analysis window length in samples.
	WindowSize int
	// HopSize is the sample offset between consecutive windows.
	HopSize int
	// Buckets is the length of each frame's intensity vector.
	Buckets int
	// Interval is the real-time cadence of retained frames.
	Interval time.Duration
}

func (p Params) withDefaults() Params {
	if p.WindowSize <= 0 {
		p.WindowSize = DefaultWindowSize
	}
	if p.HopSize <= 0 {
		p.HopSize = DefaultHopSize
	}
	if p.Buckets <= 0 {
		p.Buckets = DefaultBuckets
	}
	if p.Interval <= 0 {
		p.Interval = DefaultFrameInterval
	}
	return p
}

// Frame is one retained analysis result.
type Frame struct {
	// Intensity is the window's absolute amplitude reduced to a fixed number
	// of bucket means, normalized against the frame's own maximum. Its max
	// element is 1, unless the window is silent, in which case every element
	// is 0.
	Intensity []float32
	// Loudness is the mean absolute amplitude of the window.
	Loudness float32
}

// Windows iterates fixed-size, hop-aligned analysis windows over a sample
// buffer. The last window is zero-padded on the right. The iterator is not
// restartable, and the slice yielded by Next is only valid until the next
// call.
type Windows struct {
	samples []float32
	size    int
	hop     int
	off     int
	scratch []float32
}

// NewWindows creates a window iterator of the given window and hop size.
func NewWindows(samples []float32, size, hop int) *Windows {
	return &Windows{
		samples: samples,
		size:    size,
		hop:     hop,
		scratch: make([]float32, size),
	}
}

// Count returns the total number of windows the iterator yields.
func (w *Windows) Count() int {
	return (len(w.samples) + w.hop - 1) / w.hop
}

// Next yields the next window, or false when the buffer is exhausted.
func (w *Windows) Next() ([]float32, bool) {
	if w.off >= len(w.samples) {
		return nil, false
	}

	n := copy(w.scratch, w.samples[w.off:])
	for i := n; i < w.size; i++ {
		w.scratch[i] = 0
	}

	w.off += w.hop
	return w.scratch, true
}

// Stride returns how many consecutive windows one retained frame stands for:
// round(hop rate × interval), never less than 1.
func Stride(rate, hop int, interval time.Duration) int {
	k := int(math.Round(float64(rate) / float64(hop) * interval.Seconds()))
	if k < 1 {
		k = 1
	}
	return k
}

// Analyze slides windows over the buffer and keeps every Stride-th one as a
// Frame. The result is materialized because rendering needs the global
// maximum loudness.
func Analyze(buf *audiosrc.Buffer, p Params) []Frame {
	p = p.withDefaults()

	k := Stride(buf.Rate, p.HopSize, p.Interval)
	wins := NewWindows(buf.Samples, p.WindowSize, p.HopSize)

	frames := make([]Frame, 0, (wins.Count()+k-1)/k)
	for i := 0; ; i++ {
		window, ok := wins.Next()
		if !ok {
			break
		}
		if i%k != 0 {
			continue
		}
		frames = append(frames, Frame{
			Intensity: intensity(window, p.Buckets),
			Loudness:  loudness(window),
		})
	}
	return frames
}

// loudness is the mean absolute amplitude of the window.
func loudness(window []float32) float32 {
	if len(window) == 0 {
		return 0
	}
	var sum float64
	for _, s := range window {
		sum += math.Abs(float64(s))
	}
	return float32(sum / float64(len(window)))
}

// intensity splits the window's absolute amplitudes into equal-size buckets
// and takes each bucket's mean, then normalizes by the largest mean. The
// bucket size is len(window)/buckets rounded down; remainder samples at the
// end are dropped. With fewer samples than buckets, the empty buckets are 0.
func intensity(window []float32, buckets int) []float32 {
	out := make([]float32, buckets)

	chunk := len(window) / buckets
	if chunk > 0 {
		for j := 0; j < buckets; j++ {
			var sum float64
			for _, s := range window[j*chunk : (j+1)*chunk] {
				sum += math.Abs(float64(s))
			}
			out[j] = float32(sum / float64(chunk))
		}
	}

	var max float32
	for _, v := range out {
		if v > max {
			max = v
		}
	}
	if max > 0 {
		for j := range out {
			out[j] /= max
		}
	}
	return out
}

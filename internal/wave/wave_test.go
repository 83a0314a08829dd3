package wave

import (
	"math"
	"testing"
	"time"

	"libdb.so/glowplay/internal/audiosrc"
)

func TestWindowsCount(t *testing.T) {
	cases := []struct {
		samples int
		hop     int
		want    int
	}{
		{samples: 1000, hop: 100, want: 10},
		{samples: 1001, hop: 100, want: 11},
		{samples: 44100, hop: 512, want: 87},
		{samples: 1, hop: 512, want: 1},
	}
	for _, c := range cases {
		w := NewWindows(make([]float32, c.samples), 1024, c.hop)
		if got := w.Count(); got != c.want {
			t.Errorf("Count(%d samples, hop %d)=%d want=%d", c.samples, c.hop, got, c.want)
		}
	}
}

func TestWindowsReconstruct(t *testing.T) {
	const size, hop = 256, 100

	samples := make([]float32, 1010)
	for i := range samples {
		samples[i] = float32(i + 1)
	}

	w := NewWindows(samples, size, hop)

	var rebuilt []float32
	var count int
	for off := 0; ; off += hop {
		window, ok := w.Next()
		if !ok {
			break
		}
		count++

		if len(window) != size {
			t.Fatalf("window %d has %d samples, want %d", count-1, len(window), size)
		}

		// The window's first hop worth of samples (or what remains of the
		// buffer) is the non-overlapping part.
		valid := hop
		if off+valid > len(samples) {
			valid = len(samples) - off
		}
		rebuilt = append(rebuilt, window[:valid]...)

		// Everything past the end of the buffer must be zero padding.
		for i := len(samples) - off; i < size; i++ {
			if window[i] != 0 {
				t.Fatalf("window %d sample %d = %f, want zero padding", count-1, i, window[i])
			}
		}
	}

	if want := w.Count(); count != want {
		t.Fatalf("iterated %d windows, Count()=%d", count, want)
	}

	if len(rebuilt) != len(samples) {
		t.Fatalf("rebuilt %d samples, want %d", len(rebuilt), len(samples))
	}
	for i := range samples {
		if rebuilt[i] != samples[i] {
			t.Fatalf("rebuilt[%d]=%f want=%f", i, rebuilt[i], samples[i])
		}
	}
}

func TestStride(t *testing.T) {
	cases := []struct {
		rate, hop int
		interval  time.Duration
		want      int
	}{
		{rate: 44100, hop: 512, interval: 60 * time.Millisecond, want: 5},
		{rate: 48000, hop: 512, interval: 60 * time.Millisecond, want: 6},
		// Very low hop rates must never skip retention entirely.
		{rate: 100, hop: 512, interval: 60 * time.Millisecond, want: 1},
	}
	for _, c := range cases {
		if got := Stride(c.rate, c.hop, c.interval); got != c.want {
			t.Errorf("Stride(%d, %d, %v)=%d want=%d", c.rate, c.hop, c.interval, got, c.want)
		}
	}
}

func TestAnalyzeSilentSecond(t *testing.T) {
	// One second of silence at 44.1 kHz with the default 1024/512 analysis:
	// 87 windows retained every 5th, so 18 all-zero frames.
	buf := &audiosrc.Buffer{
		Samples: make([]float32, 44100),
		Rate:    44100,
	}

	frames := Analyze(buf, Params{})
	if len(frames) != 18 {
		t.Fatalf("got %d frames, want 18", len(frames))
	}

	for i, f := range frames {
		if f.Loudness != 0 {
			t.Errorf("frame %d loudness=%f want 0", i, f.Loudness)
		}
		for j, v := range f.Intensity {
			if v != 0 {
				t.Errorf("frame %d intensity[%d]=%f want 0", i, j, v)
			}
		}
	}
}

func TestAnalyzeFrameCount(t *testing.T) {
	buf := &audiosrc.Buffer{
		Samples: make([]float32, 44100),
		Rate:    44100,
	}
	for i := range buf.Samples {
		buf.Samples[i] = float32(math.Sin(float64(i) / 20))
	}

	frames := Analyze(buf, Params{WindowSize: 1024, HopSize: 512})
	// ceil(87 windows / stride 5).
	if len(frames) != 18 {
		t.Fatalf("got %d frames, want 18", len(frames))
	}

	for i, f := range frames {
		if f.Loudness <= 0 {
			t.Errorf("frame %d loudness=%f, want positive", i, f.Loudness)
		}
		assertNormalized(t, i, f.Intensity)
	}
}

func assertNormalized(t *testing.T, frame int, intensity []float32) {
	t.Helper()

	var max float32
	for j, v := range intensity {
		if v < 0 || v > 1 {
			t.Fatalf("frame %d intensity[%d]=%f out of [0, 1]", frame, j, v)
		}
		if v > max {
			max = v
		}
	}
	if max != 1 {
		t.Fatalf("frame %d max intensity=%f want 1", frame, max)
	}
}

func TestLoudness(t *testing.T) {
	got := loudness([]float32{1, -1, 0.5, -0.5})
	if math.Abs(float64(got)-0.75) > 1e-6 {
		t.Fatalf("loudness=%f want=0.75", got)
	}

	if got := loudness(nil); got != 0 {
		t.Fatalf("loudness(nil)=%f want=0", got)
	}
}

func TestIntensityBuckets(t *testing.T) {
	// 32 samples, 16 buckets of 2. Bucket j averages samples 2j and 2j+1.
	window := make([]float32, 32)
	for i := range window {
		window[i] = float32(i)
	}
	// Bucket means are 0.5, 2.5, ..., 30.5; normalized against 30.5.
	got := intensity(window, 16)
	for j := range got {
		want := (float32(2*j) + 0.5) / 30.5
		if math.Abs(float64(got[j]-want)) > 1e-6 {
			t.Errorf("intensity[%d]=%f want=%f", j, got[j], want)
		}
	}
}

func TestIntensityDropsRemainder(t *testing.T) {
	// 35 samples with 16 buckets: bucket size is 2, samples 32..34 fall off
	// the end and must not affect any bucket.
	base := make([]float32, 32)
	for i := range base {
		base[i] = float32(i)
	}
	withRemainder := append(append([]float32{}, base...), 1e6, 1e6, 1e6)

	want := intensity(base, 16)
	got := intensity(withRemainder, 16)
	for j := range want {
		if got[j] != want[j] {
			t.Fatalf("intensity[%d]=%f, remainder samples leaked in (want %f)", j, got[j], want[j])
		}
	}
}

func TestIntensityShortWindow(t *testing.T) {
	// Fewer samples than buckets: every bucket is empty, so all zero.
	got := intensity([]float32{1, 1, 1}, 16)
	for j, v := range got {
		if v != 0 {
			t.Fatalf("intensity[%d]=%f want=0", j, v)
		}
	}
}

func TestIntensitySilentStaysZero(t *testing.T) {
	got := intensity(make([]float32, 64), 16)
	for j, v := range got {
		if v != 0 {
			t.Fatalf("intensity[%d]=%f want=0", j, v)
		}
		if v != v { // NaN guard
			t.Fatalf("intensity[%d] is NaN", j)
		}
	}
}

// Package pixel maps analysis frames to LED pixel frames.
package pixel

import (
	"encoding/json"
	"io"
	"math"
	"math/rand"
	"time"

	"libdb.so/glowplay/internal/led"
	"libdb.so/glowplay/internal/wave"
)

// falloff is how much brightness fades from the first to the last active
// LED: the tail LED keeps 30% of the base color.
const falloff = 0.7

// Synthesizer renders analysis frames into pixel frames. Each rendered
// frame lights a loudness-proportional prefix of the strip in one random
// base color that fades towards the tail.
type Synthesizer struct {
	numLEDs int
	rng     *rand.Rand
}

// NewSynthesizer creates a synthesizer for a strip of numLEDs pixels. The
// random source drives the per-frame base colors; pass a seeded source for
// reproducible output, or nil for a time-seeded one.
func NewSynthesizer(numLEDs int, src rand.Source) *Synthesizer {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Synthesizer{
		numLEDs: numLEDs,
		rng:     rand.New(src),
	}
}

// Render maps every frame to one pixel frame, in order. It is a two-pass
// batch operation: the number of lit LEDs per frame depends on the maximum
// loudness across the whole sequence.
func (s *Synthesizer) Render(frames []wave.Frame) []led.Frame {
	var maxLoudness float32
	for _, f := range frames {
		if f.Loudness > maxLoudness {
			maxLoudness = f.Loudness
		}
	}

	out := make([]led.Frame, len(frames))
	for i, f := range frames {
		if maxLoudness == 0 {
			// A fully silent run stays dark.
			out[i] = led.NewFrame(s.numLEDs)
			continue
		}
		out[i] = s.renderFrame(float64(f.Loudness) / float64(maxLoudness))
	}
	return out
}

func (s *Synthesizer) renderFrame(relative float64) led.Frame {
	active := int(math.Round(relative*float64(s.numLEDs))) + 1
	if active < 1 {
		active = 1
	}
	if active > s.numLEDs {
		active = s.numLEDs
	}

	// One base color per frame; each channel in [50, 255].
	base := led.RGBColor{
		uint8(50 + s.rng.Intn(206)),
		uint8(50 + s.rng.Intn(206)),
		uint8(50 + s.rng.Intn(206)),
	}

	frame := led.NewFrame(s.numLEDs)
	for i := 0; i < active; i++ {
		factor := 1.0 - float64(i)/float64(active)*falloff
		frame[i] = led.RGBColor{
			uint8(math.Round(float64(base[0]) * factor)),
			uint8(math.Round(float64(base[1]) * factor)),
			uint8(math.Round(float64(base[2]) * factor)),
		}
	}
	return frame
}

// WriteJSON writes the pixel frames as the diagnostic artifact: a JSON array
// with one element per frame, each an array of [r, g, b] integer triples.
func WriteJSON(w io.Writer, frames []led.Frame) error {
	return json.NewEncoder(w).Encode(frames)
}

// Package led holds the pixel types shared by the renderer and the device
// driver.
package led

import (
	"io"
	"unsafe"
)

// RGBColor is the color of a single LED. Channels are ordered R, G, B, each
// in [0, 255].
type RGBColor [3]uint8

// Black is an unlit LED.
var Black = RGBColor{0, 0, 0}

// IsBlack reports whether the LED is unlit.
func (c RGBColor) IsBlack() bool {
	return c == Black
}

// Frame is one rendered state of the strip: exactly one RGBColor per LED.
type Frame []RGBColor

// NewFrame creates a frame of numLEDs pixels. Colors are initialized to
// black (off).
func NewFrame(numLEDs int) Frame {
	return make(Frame, numLEDs)
}

// WriteTo implements io.WriterTo. It writes the frame to the given writer as
// a series of RGBColor values.
func (f Frame) WriteTo(w io.Writer) (int64, error) {
	var written int64
	for _, c := range f {
		n, err := w.Write(c[:])
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// AsPixels returns the frame as a slice of uint8 values. Each LED is
// represented by three values, one for each color channel.
func (f Frame) AsPixels() []uint8 {
	if len(f) == 0 {
		return nil
	}
	return unsafe.Slice((*uint8)(unsafe.Pointer(&f[0])), 3*len(f))
}

// Set sets the color of the LED at the given index.
func (f Frame) Set(i int, c RGBColor) {
	f[i] = c
}

// Fill sets every LED in the frame to the given color.
func (f Frame) Fill(c RGBColor) {
	for i := range f {
		f[i] = c
	}
}

// ActiveLEDs returns the number of lit LEDs at the head of the frame. It
// stops at the first unlit LED.
func (f Frame) ActiveLEDs() int {
	for i, c := range f {
		if c.IsBlack() {
			return i
		}
	}
	return len(f)
}

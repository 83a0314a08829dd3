package ledserial

import (
	"log/slog"

	"github.com/pkg/errors"
	"go.bug.st/serial"

	"libdb.so/glowplay/internal/led"
)

// Device drives an LED strip over a serial port. It owns the port for its
// whole lifetime; callers must Initialize before the first Write.
type Device struct {
	logger *slog.Logger
	path   string
	baud   int

	port    serial.Port
	numLEDs int
}

// NewDevice creates a device for the serial port at path. The port is not
// opened until Initialize is called.
func NewDevice(path string, baud int, logger *slog.Logger) *Device {
	return &Device{
		logger: logger,
		path:   path,
		baud:   baud,
	}
}

// Initialize opens the serial port and tells the controller how many LEDs
// the strip has. It must be called, and must succeed, before any Write.
func (d *Device) Initialize(numLEDs int) error {
	port, err := serial.Open(d.path, &serial.Mode{
		BaudRate: d.baud,
	})
	if err != nil {
		return errors.Wrap(err, "failed to open serial port")
	}

	if err := WritePacket(port, InitializePacket{
		NumLEDs: uint16(numLEDs),
	}); err != nil {
		port.Close()
		return errors.Wrap(err, "failed to send initialize packet")
	}

	d.port = port
	d.numLEDs = numLEDs

	d.logger.Debug(
		"initialized LED device",
		"path", d.path,
		"baud", d.baud,
		"num_leds", numLEDs)

	return nil
}

// Write transmits one frame to the strip. The frame must hold exactly as
// many pixels as the strip was initialized with.
func (d *Device) Write(frame led.Frame) error {
	if d.port == nil {
		return errors.New("device not initialized")
	}
	if len(frame) != d.numLEDs {
		return errors.Errorf("frame has %d pixels, strip has %d", len(frame), d.numLEDs)
	}

	if err := WritePacket(d.port, SetPacket{Pix: frame.AsPixels()}); err != nil {
		return errors.Wrap(err, "failed to write set packet")
	}
	return nil
}

// Clear turns the whole strip off. It runs on the cleanup path, so failures
// are logged rather than returned.
func (d *Device) Clear() {
	if d.port == nil {
		return
	}

	if err := WritePacket(d.port, ClearPacket{}); err != nil {
		d.logger.Warn(
			"failed to clear LED strip",
			"error", err)
	}
}

// Close releases the serial port. The device cannot be reused afterwards.
func (d *Device) Close() error {
	if d.port == nil {
		return nil
	}

	port := d.port
	d.port = nil

	if err := port.Close(); err != nil {
		return errors.Wrap(err, "failed to close serial port")
	}
	return nil
}

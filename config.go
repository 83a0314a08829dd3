package glowplay

import (
	"encoding"
	"io"
	"time"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

// Config is the configuration for a glowplay run.
type Config struct {
	// Device is the path to the serial device file for the LED controller.
	// This is usually /dev/ttyUSB0 or /dev/ttyACM0.
	Device string `toml:"device"`
	// Baud is the baud rate for the serial connection.
	Baud int `toml:"baud"`
	// NumLEDs is the number of LEDs on the strip.
	NumLEDs int `toml:"num_leds"`

	// WindowSize is the analysis window length in samples.
	WindowSize int `toml:"window_size"`
	// HopSize is the sample offset between consecutive analysis windows.
	HopSize int `toml:"hop_size"`
	// FrameInterval is the wall-clock time between displayed frames.
	FrameInterval TOMLDuration `toml:"frame_interval"`

	// PixelsOutput is where the rendered pixel data is written as JSON.
	// Empty disables the artifact.
	PixelsOutput string `toml:"pixels_output"`
	// AnalyzeOnly stops the run after the artifact is written, touching
	// neither the LED device nor the player.
	AnalyzeOnly bool `toml:"analyze_only"`

	// Player is the audio player command. The audio file path is appended
	// as the last argument.
	Player []string `toml:"player"`
	// FFmpeg is the ffmpeg binary used by the fallback decoder.
	FFmpeg string `toml:"ffmpeg"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Device:        "/dev/ttyUSB0",
		Baud:          115200,
		NumLEDs:       16,
		WindowSize:    1024,
		HopSize:       512,
		FrameInterval: TOMLDuration(60 * time.Millisecond),
		PixelsOutput:  "pixels_data.json",
		Player:        []string{"ffplay", "-nodisp", "-autoexit"},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.NumLEDs < 1 {
		return errors.New("num_leds must be at least 1")
	}
	if c.WindowSize <= 0 {
		return errors.New("window_size must be positive")
	}
	if c.HopSize <= 0 || c.HopSize > c.WindowSize {
		return errors.New("hop_size must be positive and no larger than window_size")
	}
	if time.Duration(c.FrameInterval) <= 0 {
		return errors.New("frame_interval must be positive")
	}

	if c.AnalyzeOnly {
		return nil
	}

	if c.Device == "" {
		return errors.New("no serial device configured")
	}
	if c.Baud <= 0 {
		return errors.New("baud must be positive")
	}
	if len(c.Player) == 0 {
		return errors.New("no player command configured")
	}
	return nil
}

// TOMLDuration is a duration that can be parsed from TOML.
type TOMLDuration time.Duration

var (
	_ encoding.TextUnmarshaler = (*TOMLDuration)(nil)
	_ encoding.TextMarshaler   = (*TOMLDuration)(nil)
)

func (d *TOMLDuration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = TOMLDuration(duration)
	return nil
}

func (d TOMLDuration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// ParseConfig parses a configuration from a reader.
func ParseConfig(r io.Reader) (*Config, error) {
	config := DefaultConfig()
	if err := toml.NewDecoder(r).Decode(config); err != nil {
		return nil, err
	}
	return config, nil
}

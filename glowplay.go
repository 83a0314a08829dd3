// Package glowplay renders a decoded audio file into LED pixel frames and
// plays them to an addressable strip in sync with an external audio player.
package glowplay

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"libdb.so/glowplay/internal/audiosrc"
	"libdb.so/glowplay/internal/led"
	"libdb.so/glowplay/internal/pixel"
	"libdb.so/glowplay/internal/playproc"
	"libdb.so/glowplay/internal/wave"
	"libdb.so/glowplay/ledserial"
)

var (
	// ErrDeviceInit means the LED device connection could not be
	// established. No LED is left lit.
	ErrDeviceInit = errors.New("failed to initialize LED device")
	// ErrPlaybackSpawn means the audio player process could not start. The
	// strip is cleared before the run aborts.
	ErrPlaybackSpawn = errors.New("failed to start audio player")
)

// State is the playback synchronizer state.
type State uint8

const (
	StateIdle State = iota
	StateLoading
	StatePlaying
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Strip is the LED device as seen by the synchronizer. It is exclusively
// owned by one Run for the Run's whole lifetime.
type Strip interface {
	// Initialize establishes the hardware connection. It must be called,
	// and must succeed, before any Write.
	Initialize(numLEDs int) error
	// Write transmits one frame to the strip.
	Write(frame led.Frame) error
	// Clear turns the strip off. It runs on the cleanup path; failures are
	// logged by the implementation, not returned.
	Clear()
	Close() error
}

// Player is a running audio playback process. It is unmanaged beyond
// liveness and termination.
type Player interface {
	// Done is closed once the player has exited.
	Done() <-chan struct{}
	// Terminate asks the player to exit if it is still running.
	Terminate()
}

// Run binds one audio file to one pixel frame sequence and one playback
// process.
type Run struct {
	// Strip is the LED device driver. NewRun defaults it to a serial
	// device built from the configuration.
	Strip Strip
	// StartPlayer launches the external audio player.
	StartPlayer func(ctx context.Context, path string) (Player, error)
	// Rand seeds the per-frame base colors. Nil means time-seeded.
	Rand rand.Source

	cfg    *Config
	logger *slog.Logger
	path   string
	state  State
}

// NewRun creates a run for the audio file at path.
func NewRun(cfg *Config, path string, logger *slog.Logger) (*Run, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	r := &Run{
		cfg:    cfg,
		logger: logger,
		path:   path,
		state:  StateIdle,
	}
	r.StartPlayer = func(ctx context.Context, path string) (Player, error) {
		return playproc.Start(ctx, cfg.Player, path)
	}
	return r, nil
}

func (r *Run) setState(s State) {
	r.logger.Debug(
		"state transition",
		"from", r.state,
		"to", s)
	r.state = s
}

// State returns the synchronizer's current state.
func (r *Run) State() State {
	return r.state
}

// Run executes the whole pipeline: decode, analyze, render, then play the
// frames to the strip until they run out, the player exits, or ctx is
// canceled. It blocks until the run has stopped and cleaned up.
func (r *Run) Run(ctx context.Context) error {
	defer r.setState(StateStopped)
	r.setState(StateLoading)

	frames, err := r.load(ctx)
	if err != nil {
		return err
	}

	if r.cfg.AnalyzeOnly {
		r.logger.Info("analyze-only run, not playing")
		return nil
	}

	return r.playback(ctx, frames)
}

// playback drives the rendered frames to the strip while the audio player
// runs. The strip is always cleared and the player terminated on the way
// out, whatever stopped the playback.
func (r *Run) playback(ctx context.Context, frames []led.Frame) error {
	if len(frames) == 0 {
		r.logger.Info("no frames to display")
		return nil
	}

	strip := r.Strip
	if strip == nil {
		strip = ledserial.NewDevice(r.cfg.Device, r.cfg.Baud, r.logger)
	}

	if err := strip.Initialize(r.cfg.NumLEDs); err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceInit, err)
	}
	defer strip.Close()
	defer strip.Clear()

	player, err := r.StartPlayer(ctx, r.path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPlaybackSpawn, err)
	}
	defer player.Terminate()

	r.setState(StatePlaying)
	return r.play(ctx, frames, strip, player)
}

// load decodes the audio file and renders the full pixel frame sequence,
// writing the JSON artifact if one is configured.
func (r *Run) load(ctx context.Context) ([]led.Frame, error) {
	buf, err := audiosrc.Decode(ctx, r.path,
		audiosrc.NativeStrategy{},
		audiosrc.FFmpegStrategy{Path: r.cfg.FFmpeg},
	)
	if err != nil {
		return nil, err
	}

	r.logger.Info(
		"decoded audio file",
		"path", r.path,
		"rate", buf.Rate,
		"duration", buf.Duration())

	waveFrames := wave.Analyze(buf, wave.Params{
		WindowSize: r.cfg.WindowSize,
		HopSize:    r.cfg.HopSize,
		Buckets:    r.cfg.NumLEDs,
		Interval:   time.Duration(r.cfg.FrameInterval),
	})

	synth := pixel.NewSynthesizer(r.cfg.NumLEDs, r.Rand)
	frames := synth.Render(waveFrames)

	r.logger.Info(
		"rendered pixel frames",
		"frames", len(frames))

	if r.cfg.PixelsOutput != "" {
		if err := writePixels(r.cfg.PixelsOutput, frames); err != nil {
			// The artifact is diagnostic; playback works without it.
			r.logger.Warn(
				"failed to write pixel data",
				"path", r.cfg.PixelsOutput,
				"error", err)
		}
	}

	return frames, nil
}

// Sentinel results that stop the playback group without being run failures.
var (
	errFramesExhausted = errors.New("all frames displayed")
	errPlayerExited    = errors.New("player exited")
)

// play displays the frames in order at the configured cadence. A watcher
// goroutine stops the loop as soon as the player exits, even if frames
// remain. Device write failures are logged and playback continues.
func (r *Run) play(ctx context.Context, frames []led.Frame, strip Strip, player Player) error {
	errg, ctx := errgroup.WithContext(ctx)

	errg.Go(func() error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-player.Done():
			r.logger.Info("player exited")
			return errPlayerExited
		}
	})

	errg.Go(func() error {
		ticker := time.NewTicker(time.Duration(r.cfg.FrameInterval))
		defer ticker.Stop()

		for i, frame := range frames {
			if err := strip.Write(frame); err != nil {
				r.logger.Warn(
					"failed to write frame",
					"frame", i,
					"error", err)
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
		return errFramesExhausted
	})

	err := errg.Wait()
	if errors.Is(err, errFramesExhausted) || errors.Is(err, errPlayerExited) {
		return nil
	}
	return err
}

func writePixels(path string, frames []led.Frame) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := pixel.WriteJSON(f, frames); err != nil {
		return err
	}
	return f.Close()
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/pflag"
	"libdb.so/glowplay"
)

var (
	config      = "glowplay.toml"
	verbose     = false
	analyzeOnly = false
	output      = ""
	device      = ""
	numLEDs     = 0
)

func init() {
	pflag.StringVarP(&config, "config", "c", config, "configuration file")
	pflag.BoolVarP(&verbose, "verbose", "v", verbose, "verbose output")
	pflag.BoolVar(&analyzeOnly, "analyze-only", analyzeOnly, "analyze the audio without playing it")
	pflag.StringVarP(&output, "output", "o", output, "pixel data output file")
	pflag.StringVar(&device, "device", device, "serial device of the LED controller")
	pflag.IntVar(&numLEDs, "num-leds", numLEDs, "number of LEDs on the strip")
}

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <audio file>\n", os.Args[0])
		pflag.PrintDefaults()
	}
	pflag.Parse()

	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	if pflag.NArg() != 1 {
		pflag.Usage()
		return errors.New("expected exactly one audio file")
	}

	path := pflag.Arg(0)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("cannot read audio file: %w", err)
	}

	cfg, err := readConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	r, err := glowplay.NewRun(cfg, path, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	if err := r.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run failed: %w", err)
	}

	return nil
}

func readConfig() (*glowplay.Config, error) {
	cfg := glowplay.DefaultConfig()

	f, err := os.Open(config)
	switch {
	case err == nil:
		defer f.Close()
		cfg, err = glowplay.ParseConfig(f)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case os.IsNotExist(err) && !pflag.CommandLine.Changed("config"):
		// No config file is fine unless one was asked for explicitly.
	default:
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	// Flags override the file.
	if pflag.CommandLine.Changed("analyze-only") {
		cfg.AnalyzeOnly = analyzeOnly
	}
	if pflag.CommandLine.Changed("output") {
		cfg.PixelsOutput = output
	}
	if pflag.CommandLine.Changed("device") {
		cfg.Device = device
	}
	if pflag.CommandLine.Changed("num-leds") {
		cfg.NumLEDs = numLEDs
	}

	return cfg, nil
}

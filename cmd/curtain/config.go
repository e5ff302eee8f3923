package main

import (
	"time"

	"github.com/noriah/curtain/input"
	"github.com/noriah/curtain/playback"
	"github.com/noriah/curtain/processor"
	"github.com/pkg/errors"
)

// Config is a temporary struct to define parameters
type config struct {
	// Backend is the backend name from list-backends
	backend string
	// Device is the device name from list-devices
	device string
	// SampleRate is the rate at which samples are read
	sampleRate float64
	// SampleSize is how many samples make up one level reading
	sampleSize int
	// ChannelCount is the number of channels we listen to
	channelCount int
	// ProcessRate is the most ticks per second when the input stalls
	processRate int
	// SmoothFactor is how much of a new reading goes into the level, percent
	smoothFactor float64
	// Threshold is the level where the curtain starts to move
	threshold float64
	// MaxLevel is the level that opens the curtain all the way
	maxLevel float64
	// IdleInterval is the time between idle frames
	idleInterval time.Duration
	// EndingInterval is the time between ending frames
	endingInterval time.Duration
	// AssetsDir holds the image sequences
	assetsDir string
	// Workers is how many images are decoded at once (0 for one per cpu)
	workers int
	// Raw prints frames instead of drawing them
	raw bool
	// Status shows the status line from the start
	status bool
	// LogFile gets log output instead of stderr
	logFile string
	// Seconds to listen for when calibrating
	seconds int
}

// NewZeroConfig returns a zero config
// it is the "default"
func newZeroConfig() config {
	pb := playback.NewZeroConfig()

	return config{
		sampleRate:     44100,
		sampleSize:     1024,
		channelCount:   1,
		processRate:    processor.DefaultProcessRate,
		smoothFactor:   20,
		threshold:      pb.Threshold,
		maxLevel:       pb.MaxLevel,
		idleInterval:   pb.IdleInterval,
		endingInterval: pb.EndingInterval,
		assetsDir:      "img",
		seconds:        10,
	}
}

// Sanitize cleans things up
func (cfg *config) Sanitize() error {
	if cfg.backend == "" {
		if cfg.backend = input.DefaultBackend(); cfg.backend == "" {
			return errors.New("no input backend found; pass one with --backend")
		}
	}

	if cfg.sampleRate < float64(cfg.sampleSize) {
		return errors.New("sample rate lower than sample size")
	}

	if cfg.sampleSize < 4 {
		return errors.New("sample size too small (4+ required)")
	}

	switch {

	case cfg.channelCount > 2:
		return errors.New("too many channels (2 max)")

	case cfg.channelCount < 1:
		return errors.New("too few channels (1 min)")

	}

	// sequence lengths are unknown until the images load, check the rest now
	if err := cfg.playback(1, 1, 1).Validate(); err != nil {
		return errors.Wrap(err, "invalid playback config")
	}

	if cfg.seconds < 1 {
		return errors.New("calibration needs at least one second")
	}

	switch {
	case cfg.smoothFactor > 100:
		cfg.smoothFactor = 1
	case cfg.smoothFactor < 0.001:
		cfg.smoothFactor = 0.00001
	default:
		cfg.smoothFactor /= 100.0
	}

	return nil
}

// playback returns the machine settings. Sequence lengths come from the
// loaded images.
func (cfg *config) playback(idle, scrub, ending int) playback.Config {
	return playback.Config{
		Threshold:      cfg.threshold,
		MaxLevel:       cfg.maxLevel,
		IdleInterval:   cfg.idleInterval,
		EndingInterval: cfg.endingInterval,
		IdleLength:     idle,
		ScrubLength:    scrub,
		EndingLength:   ending,
	}
}

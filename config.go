package curtain

import (
	"context"

	"github.com/noriah/curtain/input"
	"github.com/noriah/curtain/playback"
	"github.com/noriah/curtain/processor"
	"github.com/pkg/errors"
)

const (
	// MaxChannelCount is the most channels a session may capture.
	MaxChannelCount = 2
	// MaxSampleSize is the largest buffer a session may fill per read.
	MaxSampleSize = 1 << 16
)

type (
	SetupFunc   func() error
	StartFunc   func(ctx context.Context) (context.Context, error)
	CleanupFunc func() error
)

type Config struct {
	// The name of the backend from the input package
	Backend string
	// The name of the device to pull data from
	Device string
	// The rate that samples are read
	SampleRate float64
	// The number of samples per batch
	SampleSize int
	// The number of channels to read data from
	ChannelCount int
	// The number of times per second to process data
	ProcessRate int
	// Weight of each new level reading, in (0, 1]
	SmoothingFactor float64
	// Thresholds, intervals and sequence lengths of the playback machine
	Playback playback.Config

	// Function to call when setting up the pipeline
	SetupFunc SetupFunc
	// Function to call when starting the pipeline
	StartFunc StartFunc
	// Function to call when cleaning up the pipeline
	CleanupFunc CleanupFunc
	// Where to send the frames
	Output processor.Output
	// Clock for tick timestamps, real time if nil
	Clock processor.Clock
}

func NewZeroConfig() Config {
	return Config{
		SampleRate:      44100,
		SampleSize:      1024,
		ChannelCount:    1,
		ProcessRate:     processor.DefaultProcessRate,
		SmoothingFactor: 0.2,
		Playback:        playback.NewZeroConfig(),
	}
}

func (cfg *Config) Validate() error {
	if cfg.SampleRate < float64(cfg.SampleSize) {
		return errors.New("sample rate lower than sample size")
	}

	if cfg.SampleSize < 4 {
		return errors.New("sample size too small (4+ required)")
	}

	switch {
	case cfg.ChannelCount > MaxChannelCount:
		return errors.Errorf("too many channels (%d max)", MaxChannelCount)

	case cfg.ChannelCount < 1:
		return errors.New("too few channels (1 min)")

	case cfg.SampleSize > MaxSampleSize:
		return errors.Errorf("sample size too large (%d max)", MaxSampleSize)
	}

	if cfg.ProcessRate < 0 {
		return errors.New("process rate must not be negative")
	}

	if cfg.SmoothingFactor <= 0 || cfg.SmoothingFactor > 1 {
		return errors.Errorf("smoothing factor %g outside (0, 1]", cfg.SmoothingFactor)
	}

	if cfg.Output == nil {
		return errors.New("no output")
	}

	return errors.Wrap(cfg.Playback.Validate(), "invalid playback config")
}

func (cfg *Config) sessionConfig() input.SessionConfig {
	return input.SessionConfig{
		FrameSize:  cfg.ChannelCount,
		SampleSize: cfg.SampleSize,
		SampleRate: cfg.SampleRate,
	}
}

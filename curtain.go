// Package curtain wires a microphone session, the level smoother and the
// playback machine to an output.
package curtain

import (
	"context"
	"sync"

	"github.com/noriah/curtain/dsp"
	"github.com/noriah/curtain/input"
	"github.com/noriah/curtain/playback"
	"github.com/noriah/curtain/processor"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Run captures from the configured device and plays the curtain until ctx is
// cancelled, the session runs dry or the output fails. Cancellation is not an
// error.
func Run(cfg *Config, ctx context.Context) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	machine, err := playback.NewMachine(cfg.Playback)
	if err != nil {
		return err
	}

	// INPUT SETUP

	backend, err := input.InitBackend(cfg.Backend)
	if err != nil {
		return err
	}
	defer backend.Close()

	sessConfig := cfg.sessionConfig()

	if sessConfig.Device, err = input.GetDevice(backend, cfg.Device); err != nil {
		return err
	}

	inputBuffers := input.MakeBuffers(cfg.ChannelCount, cfg.SampleSize)

	audio, err := backend.Start(sessConfig)
	if err != nil {
		return errors.Wrap(err, "failed to start the input backend")
	}

	// OUTPUT SETUP

	if cfg.SetupFunc != nil {
		if err := cfg.SetupFunc(); err != nil {
			return err
		}
	}

	if cfg.CleanupFunc != nil {
		defer cfg.CleanupFunc()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.StartFunc != nil {
		if ctx, err = cfg.StartFunc(ctx); err != nil {
			return err
		}
	}

	proc := processor.New(processor.Config{
		ProcessRate: cfg.ProcessRate,
		Buffers:     inputBuffers,
		Smoother: dsp.NewSmoother(dsp.SmootherConfig{
			SmoothingFactor: cfg.SmoothingFactor,
		}),
		Machine: machine,
		Clock:   cfg.Clock,
		Output:  cfg.Output,
	})

	kickChan := make(chan bool, 1)

	mu := &sync.Mutex{}

	g, gctx := errgroup.WithContext(ctx)

	// Start the processor
	g.Go(func() error {
		return proc.Process(gctx, kickChan, mu)
	})

	g.Go(func() error {
		// a session that returns has nothing more to give
		defer cancel()

		if err := audio.Start(gctx, inputBuffers, kickChan, mu); err != nil {
			return errors.Wrap(err, "failed to start input session")
		}

		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}

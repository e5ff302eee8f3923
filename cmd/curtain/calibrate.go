package main

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/noriah/curtain/dsp"
	"github.com/noriah/curtain/input"
	"github.com/noriah/curtain/util"
	"github.com/pkg/errors"
)

// calibration collects levels of a quiet room.
type calibration struct {
	window *util.MovingWindow
	peak   float64
	reads  int
}

func newCalibration(size int) *calibration {
	return &calibration{window: util.NewMovingWindow(size)}
}

func (c *calibration) Update(level float64) {
	c.window.Update(level)
	c.reads++

	if level > c.peak {
		c.peak = level
	}
}

// Threshold suggests a threshold three deviations above the mean.
func (c *calibration) Threshold() float64 {
	mean, sd := c.window.Recalculate()
	return mean + 3*sd
}

func (c *calibration) Print(w io.Writer) {
	mean, sd := c.window.Recalculate()

	fmt.Fprintf(w, "readings:   %d\n", c.reads)
	fmt.Fprintf(w, "mean:       %.4f\n", mean)
	fmt.Fprintf(w, "deviation:  %.4f\n", sd)
	fmt.Fprintf(w, "peak:       %.4f\n", c.peak)
	fmt.Fprintf(w, "threshold:  %.4f (--threshold)\n", c.Threshold())
}

// calibrate listens to the device for cfg.seconds and prints what it heard.
func calibrate(ctx context.Context, cfg *config, w io.Writer) error {
	backend, err := input.InitBackend(cfg.backend)
	if err != nil {
		return err
	}
	defer backend.Close()

	sessConfig := input.SessionConfig{
		FrameSize:  cfg.channelCount,
		SampleSize: cfg.sampleSize,
		SampleRate: cfg.sampleRate,
	}

	if sessConfig.Device, err = input.GetDevice(backend, cfg.device); err != nil {
		return err
	}

	audio, err := backend.Start(sessConfig)
	if err != nil {
		return errors.Wrap(err, "failed to start the input backend")
	}

	// one level per buffer
	size := int(float64(cfg.seconds) * cfg.sampleRate / float64(cfg.sampleSize))
	cal := newCalibration(size)

	ctx, cancel := context.WithTimeout(ctx, time.Duration(cfg.seconds)*time.Second)
	defer cancel()

	buffers := input.MakeBuffers(cfg.channelCount, cfg.sampleSize)
	kickChan := make(chan bool, 1)
	mu := &sync.Mutex{}

	errChan := make(chan error, 1)
	go func() {
		errChan <- audio.Start(ctx, buffers, kickChan, mu)
	}()

	fmt.Fprintf(w, "listening on %s for %ds, keep quiet...\n", sessConfig.Device, cfg.seconds)

	if err := listen(ctx, cal, buffers, kickChan, mu, errChan); err != nil {
		return err
	}

	if cal.reads == 0 {
		return errors.New("heard nothing from the device")
	}

	cal.Print(w)

	return nil
}

func listen(ctx context.Context, cal *calibration, buffers [][]input.Sample,
	kickChan chan bool, mu *sync.Mutex, errChan chan error) error {

	for {
		select {
		case <-ctx.Done():
			// the session stops with the same context
			<-errChan
			return timeUp(ctx)

		case err := <-errChan:
			if ctx.Err() != nil {
				return timeUp(ctx)
			}

			if err != nil {
				return errors.Wrap(err, "input session failed")
			}

			return nil

		case <-kickChan:
			mu.Lock()
			level := dsp.Level(buffers)
			mu.Unlock()

			cal.Update(level)
		}
	}
}

// timeUp is nil when the listening time ran out.
func timeUp(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil
	}
	return ctx.Err()
}

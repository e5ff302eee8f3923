// Package processor runs the tick loop: it measures the microphone buffers,
// smooths the level, ticks the playback machine and hands the frame to an
// output.
package processor

import (
	"context"
	"sync"
	"time"

	"github.com/noriah/curtain/dsp"
	"github.com/noriah/curtain/input"
	"github.com/noriah/curtain/playback"
	"github.com/pkg/errors"
)

// DefaultProcessRate is used when Config.ProcessRate is not set.
const DefaultProcessRate = 60

// Report is everything an output needs for one tick.
type Report struct {
	Frame    playback.Frame
	Raw      float64 // level measured this tick
	Smoothed float64 // level the machine saw
	Time     time.Duration
}

type Output interface {
	Write(Report) error
}

type Config struct {
	ProcessRate int              // ticks per second
	Buffers     [][]input.Sample // sample buffers
	Smoother    dsp.Smoother     // level smoother
	Machine     *playback.Machine
	Clock       Clock  // tick timestamps, real time if nil
	Output      Output // frame output
}

// Processor owns the smoothed level and the playback machine. Only the
// goroutine running Process may touch them.
type Processor struct {
	processRate int

	inputBufs [][]input.Sample

	smth  dsp.Smoother
	mach  *playback.Machine
	clock Clock
	out   Output
}

func New(cfg Config) *Processor {
	proc := &Processor{
		processRate: cfg.ProcessRate,
		inputBufs:   cfg.Buffers,
		smth:        cfg.Smoother,
		mach:        cfg.Machine,
		clock:       cfg.Clock,
		out:         cfg.Output,
	}

	if proc.processRate <= 0 {
		proc.processRate = DefaultProcessRate
	}

	if proc.clock == nil {
		proc.clock = NewClock()
	}

	return proc
}

// Tick smooths raw and advances the machine by one tick.
func (proc *Processor) Tick(raw float64, now time.Duration) Report {
	level := raw
	if proc.smth != nil {
		level = proc.smth.Smooth(raw)
	}

	return Report{
		Frame:    proc.mach.Tick(level, now),
		Raw:      raw,
		Smoothed: level,
		Time:     now,
	}
}

// Process runs one tick per kick from the input session, and at least one
// per 1/ProcessRate seconds so time driven frames keep moving when the input
// stalls. It returns when ctx is done or the output fails.
func (proc *Processor) Process(ctx context.Context, kickChan chan bool, mu *sync.Mutex) error {
	dur := time.Second / time.Duration(proc.processRate)
	ticker := time.NewTicker(dur)
	defer ticker.Stop()

	for {
		mu.Lock()
		raw := dsp.Level(proc.inputBufs)
		mu.Unlock()

		report := proc.Tick(raw, proc.clock.Now())

		if err := proc.out.Write(report); err != nil {
			return errors.Wrap(err, "failed to write frame")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-kickChan:
		case <-ticker.C:
		}
		ticker.Reset(dur)
	}
}

package processor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/noriah/curtain/dsp"
	"github.com/noriah/curtain/input"
	"github.com/noriah/curtain/playback"
	"github.com/pkg/errors"
)

const (
	SampleSize = 1024
	ChCount    = 2
)

type manualClock struct {
	now time.Duration
}

func (c *manualClock) Now() time.Duration {
	return c.now
}

type testOutput struct {
	reports []Report
	failAt  int
}

func (tO *testOutput) Write(r Report) error {
	tO.reports = append(tO.reports, r)
	if tO.failAt > 0 && len(tO.reports) >= tO.failAt {
		return errors.New("screen gone")
	}
	return nil
}

func testMachine(t testing.TB) *playback.Machine {
	cfg := playback.NewZeroConfig()
	cfg.IdleLength = 19
	cfg.ScrubLength = 15
	cfg.EndingLength = 9

	m, err := playback.NewMachine(cfg)
	if err != nil {
		t.Fatal(err)
	}

	return m
}

func TestTickSmoothsBeforeMachine(t *testing.T) {
	proc := New(Config{
		Smoother: dsp.NewSmoother(dsp.SmootherConfig{SmoothingFactor: 0.2}),
		Machine:  testMachine(t),
		Clock:    &manualClock{},
		Output:   &testOutput{},
	})

	// a single loud sample is damped to 0.2 and already crosses the
	// threshold, so the next tick scrubs
	r := proc.Tick(1, 0)
	if r.Raw != 1 || r.Smoothed != 0.2 || r.Frame.State != playback.Idle {
		t.Fatalf("first tick %+v", r)
	}

	r = proc.Tick(1, time.Millisecond)
	if r.Frame.State != playback.Scrubbing {
		t.Fatalf("second tick %+v, want scrubbing", r)
	}

	// 0.36 smoothed: (0.33 / 0.47) * 14 = 9.8
	if r.Frame.Index != 9 {
		t.Fatalf("scrub index %d, want 9", r.Frame.Index)
	}
}

func TestTickWithoutSmoother(t *testing.T) {
	proc := New(Config{Machine: testMachine(t), Output: &testOutput{}})

	if r := proc.Tick(0.04, 0); r.Smoothed != 0.04 {
		t.Fatalf("smoothed %g, want raw 0.04", r.Smoothed)
	}
}

func TestBreathPlaysEnding(t *testing.T) {
	clock := &manualClock{}
	proc := New(Config{
		Smoother: dsp.NewSmoother(dsp.SmootherConfig{SmoothingFactor: 0.2}),
		Machine:  testMachine(t),
		Clock:    clock,
		Output:   &testOutput{},
	})

	var seen []playback.State
	last := playback.State(-1)

	// blow hard for a second, then stay quiet for two
	for i := 0; i < 180; i++ {
		clock.now += time.Second / 60

		raw := 0.0
		if i < 60 {
			raw = 0.8
		}

		r := proc.Tick(raw, clock.now)
		if r.Frame.State != last {
			seen = append(seen, r.Frame.State)
			last = r.Frame.State
		}
	}

	want := []playback.State{playback.Idle, playback.Scrubbing, playback.Ending, playback.Idle}
	if len(seen) < len(want) {
		t.Fatalf("states %v, want prefix %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("states %v, want prefix %v", seen, want)
		}
	}
}

func TestProcessStopsOnOutputError(t *testing.T) {
	bufs := input.MakeBuffers(ChCount, SampleSize)
	out := &testOutput{failAt: 3}

	proc := New(Config{
		ProcessRate: 1000,
		Buffers:     bufs,
		Smoother:    dsp.NewSmoother(dsp.SmootherConfig{SmoothingFactor: 0.2}),
		Machine:     testMachine(t),
		Output:      out,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := proc.Process(ctx, make(chan bool, 1), &sync.Mutex{})
	if err == nil || errors.Cause(err).Error() != "screen gone" {
		t.Fatalf("got %v, want output error", err)
	}

	if len(out.reports) != 3 {
		t.Fatalf("wrote %d reports, want 3", len(out.reports))
	}
}

func TestProcessMeasuresBuffers(t *testing.T) {
	bufs := input.MakeBuffers(ChCount, SampleSize)
	for ch := range bufs {
		for i := range bufs[ch] {
			bufs[ch][i] = 0.25
		}
	}

	out := &testOutput{failAt: 1}
	proc := New(Config{Buffers: bufs, Machine: testMachine(t), Output: out})

	proc.Process(context.Background(), make(chan bool, 1), &sync.Mutex{})

	if got := out.reports[0].Raw; got != 0.25 {
		t.Fatalf("raw level %g, want 0.25", got)
	}
}

func TestProcessReturnsOnCancel(t *testing.T) {
	proc := New(Config{
		Buffers: input.MakeBuffers(1, 16),
		Machine: testMachine(t),
		Output:  &testOutput{},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := proc.Process(ctx, make(chan bool), &sync.Mutex{}); err != context.Canceled {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}

func BenchmarkProcessTick(b *testing.B) {
	inputBuffers := input.MakeBuffers(ChCount, SampleSize)

	proc := New(Config{
		Buffers:  inputBuffers,
		Smoother: dsp.NewSmoother(dsp.SmootherConfig{SmoothingFactor: 0.2}),
		Machine:  testMachine(b),
		Clock:    &manualClock{},
		Output:   &testOutput{},
	})

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		proc.Tick(dsp.Level(inputBuffers), time.Duration(i)*time.Millisecond)
	}
}

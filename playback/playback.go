// Package playback drives the three image sequences of the curtain from a
// smoothed loudness level.
//
// The machine idles on a looping sequence until the level rises above the
// threshold. While the level is above the threshold it scrubs through the
// curtain sequence, the level picking the frame. Reaching the last curtain
// frame plays the ending sequence once, then the machine idles again.
package playback

import (
	"math"
	"time"

	"github.com/pkg/errors"
)

// State is the active playback mode.
type State int

// Playback states
const (
	Idle State = iota
	Scrubbing
	Ending
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scrubbing:
		return "scrubbing"
	case Ending:
		return "ending"
	default:
		return "unknown"
	}
}

// errors
var (
	ErrEmptySequence    = errors.New("sequence length must be at least 1")
	ErrLevelRange       = errors.New("threshold must be lower than max level")
	ErrNegativeInterval = errors.New("frame interval must not be negative")
)

// Config holds the fixed parameters of a Machine.
type Config struct {
	// Threshold is the level above which interaction begins.
	Threshold float64
	// MaxLevel is the level that selects the last scrub frame.
	MaxLevel float64
	// IdleInterval is the time between idle frame steps.
	IdleInterval time.Duration
	// EndingInterval is the time between ending frame steps.
	EndingInterval time.Duration

	IdleLength   int // frames in the idle sequence
	ScrubLength  int // frames in the scrub sequence
	EndingLength int // frames in the ending sequence
}

// NewZeroConfig returns the defaults the installation was tuned with.
// Sequence lengths are left at zero; they come from the loaded assets.
func NewZeroConfig() Config {
	return Config{
		Threshold:      0.03,
		MaxLevel:       0.5,
		IdleInterval:   200 * time.Millisecond,
		EndingInterval: 120 * time.Millisecond,
	}
}

// Validate checks the preconditions the machine relies on.
func (cfg Config) Validate() error {
	switch {
	case cfg.IdleLength < 1:
		return errors.Wrap(ErrEmptySequence, "idle")
	case cfg.ScrubLength < 1:
		return errors.Wrap(ErrEmptySequence, "scrub")
	case cfg.EndingLength < 1:
		return errors.Wrap(ErrEmptySequence, "ending")
	}

	if !(cfg.Threshold < cfg.MaxLevel) {
		return errors.Wrapf(ErrLevelRange, "threshold %g, max level %g",
			cfg.Threshold, cfg.MaxLevel)
	}

	if cfg.IdleInterval < 0 || cfg.EndingInterval < 0 {
		return ErrNegativeInterval
	}

	return nil
}

// Length returns the sequence length for a state.
func (cfg Config) Length(s State) int {
	switch s {
	case Idle:
		return cfg.IdleLength
	case Scrubbing:
		return cfg.ScrubLength
	case Ending:
		return cfg.EndingLength
	default:
		return 0
	}
}

// Frame is what should be on screen for a tick.
type Frame struct {
	State State
	Index int
}

// Machine is the playback state machine. It is not safe for concurrent use;
// exactly one loop should tick it.
type Machine struct {
	cfg Config

	state State
	index int

	// time of the last time driven step, used by Idle and Ending
	lastFrameTime time.Duration
}

// NewMachine returns a machine in Idle at frame 0.
func NewMachine(cfg Config) (*Machine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid playback config")
	}

	return &Machine{cfg: cfg}, nil
}

// Config returns the configuration the machine was built with.
func (m *Machine) Config() Config {
	return m.cfg
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Index returns the current frame index.
func (m *Machine) Index() int {
	return m.index
}

// Reset puts the machine back to Idle at frame 0.
func (m *Machine) Reset() {
	m.state = Idle
	m.index = 0
	m.lastFrameTime = 0
}

// Tick advances the machine by one tick and returns the frame to render.
//
// level is the smoothed loudness and now a monotonic timestamp. A state
// change decided on a tick applies from the next tick, except when the
// ending sequence runs out, in which case the first idle frame is returned
// right away.
func (m *Machine) Tick(level float64, now time.Duration) Frame {
	switch m.state {
	case Idle:
		return m.tickIdle(level, now)
	case Scrubbing:
		return m.tickScrubbing(level, now)
	case Ending:
		return m.tickEnding(now)
	}

	// unreachable with the exported API
	m.Reset()
	return Frame{Idle, 0}
}

func (m *Machine) tickIdle(level float64, now time.Duration) Frame {
	if now-m.lastFrameTime > m.cfg.IdleInterval {
		m.index = (m.index + 1) % m.cfg.IdleLength
		m.lastFrameTime = now
	}

	out := Frame{Idle, m.index}

	if level > m.cfg.Threshold {
		m.state = Scrubbing
		m.index = 0
	}

	return out
}

func (m *Machine) tickScrubbing(level float64, now time.Duration) Frame {
	m.index = ScrubIndex(level, m.cfg.Threshold, m.cfg.MaxLevel, m.cfg.ScrubLength)

	out := Frame{Scrubbing, m.index}

	switch {
	case m.index >= m.cfg.ScrubLength-1:
		m.state = Ending
		m.index = 0
		m.lastFrameTime = now

	case level < m.cfg.Threshold:
		m.state = Idle
		m.index = 0
	}

	return out
}

func (m *Machine) tickEnding(now time.Duration) Frame {
	if now-m.lastFrameTime > m.cfg.EndingInterval {
		m.index++
		m.lastFrameTime = now
	}

	if m.index >= m.cfg.EndingLength {
		m.state = Idle
		m.index = 0
		return Frame{Idle, 0}
	}

	return Frame{Ending, m.index}
}

// ScrubIndex maps level from [lo, hi] onto the frames [0, n-1] and floors it.
// Levels outside the range clamp to the first or last frame.
func ScrubIndex(level, lo, hi float64, n int) int {
	if n < 2 || !(lo < hi) {
		if level >= hi && n > 0 {
			return n - 1
		}
		return 0
	}

	last := float64(n - 1)
	v := (level - lo) / (hi - lo) * last

	if math.IsNaN(v) {
		return 0
	}

	v = math.Max(0, math.Min(last, v))

	return int(math.Floor(v))
}

package util

import (
	"math"
)

// MovingWindow keeps the running mean and standard deviation of the last
// Cap() values pushed into it.
//
// values live in a ring. head is the slot the next value goes into, the
// oldest value sits length slots behind it. sum and squares are kept
// incrementally and rebuilt by Recalculate to shed rounding drift.
type MovingWindow struct {
	ring []float64
	head int

	length int

	sum     float64
	squares float64

	average float64
	stddev  float64
}

// NewMovingWindow returns a new moving window.
func NewMovingWindow(size int) *MovingWindow {
	if size < 1 {
		size = 1
	}

	return &MovingWindow{
		ring: make([]float64, size),
	}
}

func (mw *MovingWindow) calcFinal() (float64, float64) {
	if mw.length > 0 {
		mw.average = mw.sum / float64(mw.length)
	} else {
		mw.average = 0
	}

	if mw.length > 1 {
		n := float64(mw.length)
		variance := (mw.squares - n*mw.average*mw.average) / (n - 1)
		mw.stddev = math.Sqrt(math.Max(0, variance))
	} else {
		mw.stddev = 0
	}

	return mw.average, mw.stddev
}

// Update pushes a value, dropping the oldest one if the window is full.
func (mw *MovingWindow) Update(value float64) (float64, float64) {
	if mw.length == len(mw.ring) {
		old := mw.ring[mw.head]
		mw.sum -= old
		mw.squares -= old * old
	} else {
		mw.length++
	}

	mw.ring[mw.head] = value
	mw.head = (mw.head + 1) % len(mw.ring)

	mw.sum += value
	mw.squares += value * value

	return mw.calcFinal()
}

// Drop removes the count oldest values from the window.
func (mw *MovingWindow) Drop(count int) (float64, float64) {
	for ; count > 0 && mw.length > 0; count-- {
		old := mw.ring[mw.oldest()]
		mw.sum -= old
		mw.squares -= old * old
		mw.length--
	}

	if mw.length == 0 {
		// clear it so we dont carry a rounding error into the next fill
		mw.sum = 0
		mw.squares = 0
	}

	return mw.calcFinal()
}

// Recalculate rebuilds the sums from the values in the window.
func (mw *MovingWindow) Recalculate() (float64, float64) {
	mw.sum = 0
	mw.squares = 0

	for i, idx := 0, mw.oldest(); i < mw.length; i++ {
		v := mw.ring[idx]
		mw.sum += v
		mw.squares += v * v
		idx = (idx + 1) % len(mw.ring)
	}

	return mw.calcFinal()
}

func (mw *MovingWindow) oldest() int {
	return (mw.head - mw.length + len(mw.ring)) % len(mw.ring)
}

// Len returns how many items in the window
func (mw *MovingWindow) Len() int {
	return mw.length
}

// Cap returns max size of window
func (mw *MovingWindow) Cap() int {
	return len(mw.ring)
}

// Mean is the moving window average
func (mw *MovingWindow) Mean() float64 {
	return mw.average
}

// StdDev is the moving average std
func (mw *MovingWindow) StdDev() float64 {
	return mw.stddev
}

// Stats returns the statistics of this window
func (mw *MovingWindow) Stats() (float64, float64) {
	return mw.average, mw.stddev
}

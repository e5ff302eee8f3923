package dsp

import "math"

type SmootherConfig struct {
	SmoothingFactor float64 // weight of the newest sample, (0, 1]
}

type Smoother interface {
	Smooth(float64) float64
	Value() float64
	Reset()
}

type smoother struct {
	value        float64 // last smoothed value
	smoothFactor float64 // smoothing factor
}

func NewSmoother(cfg SmootherConfig) Smoother {
	return &smoother{
		smoothFactor: cfg.SmoothingFactor,
	}
}

// Smooth feeds a raw sample and returns the new smoothed value.
func (sm *smoother) Smooth(raw float64) float64 {
	sm.value = Smooth(sm.value, raw, sm.smoothFactor)
	return sm.value
}

func (sm *smoother) Value() float64 {
	return sm.value
}

func (sm *smoother) Reset() {
	sm.value = 0
}

// Smooth is one step of an exponential moving average. alpha is the weight of
// raw; 0 keeps previous, 1 follows raw (up to rounding). Nothing is clamped.
func Smooth(previous, raw, alpha float64) float64 {
	return previous + alpha*(raw-previous)
}

// StepsToConverge returns how many Smooth steps with a fixed raw input it
// takes to bring a distance of 1 below eps. It returns -1 if alpha never
// converges.
func StepsToConverge(alpha, eps float64) int {
	if alpha <= 0 || alpha >= 2 || eps <= 0 {
		return -1
	}

	if eps >= 1 {
		return 0
	}

	// the distance shrinks by |1-alpha| every step
	keep := math.Abs(1 - alpha)
	if keep == 0 {
		return 1
	}

	return int(math.Floor(math.Log(eps)/math.Log(keep))) + 1
}

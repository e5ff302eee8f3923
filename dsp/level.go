package dsp

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Level returns the root mean square of all samples across every channel.
// For full scale float input this is in [0, 1]. No samples gives 0.
func Level(bufs [][]float64) float64 {
	var sum float64
	var count int

	for _, buf := range bufs {
		sum += floats.Dot(buf, buf)
		count += len(buf)
	}

	if count == 0 {
		return 0
	}

	return math.Sqrt(sum / float64(count))
}

// Peak returns the largest absolute sample across every channel.
func Peak(bufs [][]float64) float64 {
	peak := 0.0

	for _, buf := range bufs {
		if len(buf) == 0 {
			continue
		}

		if v := math.Max(floats.Max(buf), -floats.Min(buf)); v > peak {
			peak = v
		}
	}

	return peak
}

// Package input provides the microphone side: a registry of capture backends
// and the sessions they start.
package input

import (
	"context"
	"sync"
)

// Sample is the datatype sessions write into the channel buffers.
type Sample = float64

type Device interface {
	// String should return the name used to select the device.
	String() string
}

type SessionConfig struct {
	Device     Device  // device to capture from
	FrameSize  int     // number of channels per frame
	SampleSize int     // number of frames per buffer write
	SampleRate float64 // sample rate
}

type Session interface {
	// Start blocks and writes SampleSize frames into dst for every read,
	// holding mu while writing, then sends on kickChan. It returns when ctx
	// is done or the source runs dry.
	Start(ctx context.Context, dst [][]Sample, kickChan chan bool, mu *sync.Mutex) error
}

// MakeBuffers allocates one buffer per channel.
func MakeBuffers(channels, samples int) [][]Sample {
	bufs := make([][]Sample, channels)
	for idx := range bufs {
		bufs[idx] = make([]Sample, samples)
	}

	return bufs
}

// EnsureBufferLen reports whether buffers matches the shape cfg asks for.
func EnsureBufferLen(cfg SessionConfig, buffers [][]Sample) bool {
	if len(buffers) != cfg.FrameSize {
		return false
	}

	for _, buf := range buffers {
		if len(buf) != cfg.SampleSize {
			return false
		}
	}

	return true
}

// Silence zeroes every buffer.
func Silence(buffers [][]Sample) {
	for _, buf := range buffers {
		for i := range buf {
			buf[i] = 0
		}
	}
}

// Package ffmpeg captures microphones through an ffmpeg subprocess.
package ffmpeg

import (
	"fmt"

	"github.com/noriah/curtain/input"
	"github.com/noriah/curtain/input/common/execread"
)

// FFmpegBackend is a device that knows the ffmpeg input arguments for itself.
type FFmpegBackend interface {
	InputArgs() []string
}

// Args returns the full ffmpeg command line for capturing from b.
func Args(b FFmpegBackend, cfg input.SessionConfig) []string {
	args := []string{"ffmpeg", "-hide_banner", "-loglevel", "panic"}
	args = append(args, b.InputArgs()...)
	args = append(args,
		"-ar", fmt.Sprintf("%.0f", cfg.SampleRate),
		"-ac", fmt.Sprintf("%d", cfg.FrameSize),
		"-f", "f64le",
		"-",
	)

	return args
}

func NewSession(b FFmpegBackend, cfg input.SessionConfig) (*execread.Session, error) {
	return execread.NewSession(Args(b, cfg), false, cfg), nil
}

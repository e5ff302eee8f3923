// Package wavfile replays a WAV recording as if it came from a microphone.
// It is useful for tuning the threshold against a recorded breath without
// blowing into the computer over and over.
package wavfile

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/noriah/curtain/input"
	"github.com/pkg/errors"
)

func init() {
	input.RegisterBackend("wavfile", Backend{})
	input.RegisterBackend("wavfile-loop", Backend{Loop: true})
}

type Backend struct {
	// Loop is handed to every session started by the backend.
	Loop bool
}

func (b Backend) Init() error {
	return nil
}

func (b Backend) Close() error {
	return nil
}

// Devices lists the WAV files in the working directory.
func (b Backend) Devices() ([]input.Device, error) {
	names, err := filepath.Glob("*.wav")
	if err != nil {
		return nil, errors.Wrap(err, "failed to list wav files")
	}

	devices := make([]input.Device, len(names))
	for i, name := range names {
		devices[i] = File(name)
	}

	return devices, nil
}

func (b Backend) DefaultDevice() (input.Device, error) {
	return nil, errors.New("no default wav file; pass one with --device")
}

// Start opens the file given as the device. Any path works, it does not have
// to be listed by Devices.
func (b Backend) Start(cfg input.SessionConfig) (input.Session, error) {
	f, ok := cfg.Device.(File)
	if !ok {
		return nil, errors.Errorf("invalid device type %T", cfg.Device)
	}

	sess := NewSession(string(f), cfg)
	sess.Loop = b.Loop

	return sess, nil
}

// File is the path of a WAV file.
type File string

func (f File) String() string {
	return string(f)
}

// Session plays a WAV file into the channel buffers in real time.
type Session struct {
	// Loop restarts the file when it ends instead of going silent.
	Loop bool

	path string
	cfg  input.SessionConfig
}

func NewSession(path string, cfg input.SessionConfig) *Session {
	return &Session{
		path: path,
		cfg:  cfg,
	}
}

func (s *Session) Start(ctx context.Context, dst [][]input.Sample, kickChan chan bool, mu *sync.Mutex) error {
	if !input.EnsureBufferLen(s.cfg, dst) {
		return errors.New("invalid dst length given")
	}

	file, err := os.Open(s.path)
	if err != nil {
		return errors.Wrap(err, "failed to open wav file")
	}
	defer file.Close()

	dec := wav.NewDecoder(file)
	if !dec.IsValidFile() {
		return errors.Errorf("%s is not a valid wav file", s.path)
	}

	if err := dec.FwdToPCM(); err != nil {
		return errors.Wrap(err, "failed to find pcm data")
	}

	format := dec.Format()
	srcChannels := format.NumChannels
	if srcChannels < 1 {
		return errors.New("wav file has no channels")
	}

	buf := &audio.IntBuffer{
		Format: format,
		Data:   make([]int, s.cfg.SampleSize*srcChannels),
	}

	if format.SampleRate <= 0 {
		return errors.New("wav file has no sample rate")
	}

	scale := fullScale(int(dec.BitDepth))

	// pace reads at the rate of the file, not the configured capture rate
	period := time.Duration(
		float64(s.cfg.SampleSize) / float64(format.SampleRate) * float64(time.Second))

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	var drained, played bool

	for {
		var n int

		if !drained {
			n, err = dec.PCMBuffer(buf)
			if err != nil && !errors.Is(err, io.EOF) {
				return errors.Wrap(err, "failed to decode wav file")
			}

			if n == 0 {
				if s.Loop && played {
					if err := dec.Rewind(); err != nil {
						return errors.Wrap(err, "failed to rewind")
					}
					played = false
					continue
				}

				drained = true
			}

			played = played || n > 0
		}

		mu.Lock()
		fill(dst, buf.Data[:n], srcChannels, scale)
		mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case kickChan <- true:
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// fill writes interleaved integer samples into dst, zero padding the tail. A
// mono file feeds every channel, extra source channels are dropped.
func fill(dst [][]input.Sample, data []int, srcChannels int, scale float64) {
	frames := len(data) / srcChannels

	for ch, buf := range dst {
		src := ch
		if src >= srcChannels {
			src = srcChannels - 1
		}

		for i := range buf {
			if i < frames {
				buf[i] = float64(data[i*srcChannels+src]) / scale
			} else {
				buf[i] = 0
			}
		}
	}
}

// fullScale is the magnitude of the largest sample for a bit depth.
func fullScale(bitDepth int) float64 {
	switch bitDepth {
	case 8:
		return 128
	case 24:
		return 1 << 23
	case 32:
		return 1 << 31
	default:
		return 1 << 15
	}
}

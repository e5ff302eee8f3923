// Package execread provides a shared session that captures audio from the
// standard output of a recorder process.
package execread

import (
	"context"
	"encoding/binary"
	"io"
	"math"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/noriah/curtain/input"
	"github.com/pkg/errors"
)

// Session reads interleaved little-endian floating point frames from a
// recorder process.
type Session struct {
	// Keeps cmd.Stderr from pointing to os.Stderr. The terminal belongs to
	// the display while a session runs.
	DisconnectedStderr bool

	argv []string
	cfg  input.SessionConfig

	samples int // frames * channels

	f32mode bool
}

// NewSession creates a new execread session. f32mode selects float32 input,
// float64 otherwise.
func NewSession(argv []string, f32mode bool, cfg input.SessionConfig) *Session {
	if len(argv) < 1 {
		panic("argv has no arg0")
	}

	return &Session{
		argv:    argv,
		cfg:     cfg,
		f32mode: f32mode,
		samples: cfg.SampleSize * cfg.FrameSize,
	}
}

// Argv returns the command line the session runs.
func (s *Session) Argv() []string {
	return s.argv
}

func (s *Session) Start(ctx context.Context, dst [][]input.Sample, kickChan chan bool, mu *sync.Mutex) error {
	if !input.EnsureBufferLen(s.cfg, dst) {
		return errors.New("invalid dst length given")
	}

	cmd := exec.CommandContext(ctx, s.argv[0], s.argv[1:]...)

	if !s.DisconnectedStderr {
		cmd.Stderr = os.Stderr
	}

	o, err := cmd.StdoutPipe()
	if err != nil {
		return errors.Wrap(err, "failed to get stdout pipe")
	}
	defer o.Close()

	// We need o as an *os.File for SetReadDeadline.
	of, ok := o.(*os.File)
	if !ok {
		return errors.New("stdout pipe is not an *os.File (bug)")
	}

	if err := cmd.Start(); err != nil {
		return errors.Wrap(err, "failed to start "+s.argv[0])
	}

	defer func() {
		// the recorder may still be writing if we bail early
		cmd.Process.Kill()
		cmd.Wait()
	}()

	reader := floatReader{
		order: binary.LittleEndian,
		f64:   !s.f32mode,
	}

	width := 4
	if !s.f32mode {
		width = 8
	}

	frames := frameReader{r: o, raw: make([]byte, s.samples*width)}

	sampleDuration := time.Duration(
		float64(s.cfg.SampleSize) / s.cfg.SampleRate * float64(time.Second))

	// Recorders buffer a little before the first write, so allow a generous
	// deadline until a read has actually expired once.
	var readExpired bool

	for {
		timeout := sampleDuration
		if !readExpired {
			timeout *= 6
		}

		if err := of.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return errors.Wrap(err, "failed to set read deadline")
		}

		if err := frames.read(); err != nil {
			switch {
			case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
				return nil
			case errors.Is(err, os.ErrDeadlineExceeded):
				readExpired = true
			default:
				return errors.Wrap(err, "failed to read samples")
			}
		} else {
			readExpired = false
		}

		mu.Lock()
		if readExpired {
			// a stalled recorder reads as silence
			input.Silence(dst)
		} else {
			reader.reset(frames.raw)
			reader.deinterleave(dst, s.cfg.FrameSize, s.samples)
		}
		mu.Unlock()

		// Signal that we've written to dst.
		select {
		case <-ctx.Done():
			return ctx.Err()
		case kickChan <- true:
		}
	}
}

// frameReader fills raw with whole buffers. Bytes read before an error are
// kept and completed by the next read, so a read deadline that hits mid
// frame does not shift the channels.
type frameReader struct {
	r      io.Reader
	raw    []byte
	filled int
}

func (fr *frameReader) read() error {
	n, err := io.ReadFull(fr.r, fr.raw[fr.filled:])
	fr.filled += n

	if err != nil {
		return err
	}

	fr.filled = 0
	return nil
}

type floatReader struct {
	order binary.ByteOrder
	buf   []byte
	f64   bool
}

func (f *floatReader) reset(b []byte) {
	f.buf = b
}

func (f *floatReader) next() float64 {
	if f.f64 {
		b := f.buf[:8]
		f.buf = f.buf[8:]
		return math.Float64frombits(f.order.Uint64(b))
	}

	b := f.buf[:4]
	f.buf = f.buf[4:]
	return float64(math.Float32frombits(f.order.Uint32(b)))
}

// deinterleave splits count interleaved samples into one buffer per channel.
func (f *floatReader) deinterleave(dst [][]input.Sample, channels, count int) {
	for n := 0; n < count; n++ {
		dst[n%channels][n/channels] = f.next()
	}
}

package execread

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/noriah/curtain/input"
	"github.com/pkg/errors"
)

func TestFloatReaderDeinterleave(t *testing.T) {
	var raw bytes.Buffer
	for _, v := range []float32{0.1, -0.1, 0.2, -0.2, 0.3, -0.3} {
		binary.Write(&raw, binary.LittleEndian, v)
	}

	dst := input.MakeBuffers(2, 3)

	r := floatReader{order: binary.LittleEndian}
	r.reset(raw.Bytes())
	r.deinterleave(dst, 2, 6)

	want := [][]float64{{0.1, 0.2, 0.3}, {-0.1, -0.2, -0.3}}
	for ch := range want {
		for i := range want[ch] {
			if math.Abs(dst[ch][i]-want[ch][i]) > 1e-6 {
				t.Fatalf("dst[%d][%d] = %g, want %g", ch, i, dst[ch][i], want[ch][i])
			}
		}
	}
}

func TestFloatReader64(t *testing.T) {
	var raw bytes.Buffer
	binary.Write(&raw, binary.LittleEndian, 0.75)

	r := floatReader{order: binary.LittleEndian, f64: true}
	r.reset(raw.Bytes())

	if got := r.next(); got != 0.75 {
		t.Fatalf("got %g, want 0.75", got)
	}
}

// stallingReader hands out one chunk per Read and times out between chunks.
type stallingReader struct {
	chunks [][]byte
	stall  bool
}

func (r *stallingReader) Read(p []byte) (int, error) {
	if r.stall {
		r.stall = false
		return 0, os.ErrDeadlineExceeded
	}

	if len(r.chunks) == 0 {
		return 0, io.EOF
	}

	n := copy(p, r.chunks[0])
	r.chunks = r.chunks[1:]
	r.stall = true

	return n, nil
}

func TestFrameReaderKeepsPartialFrame(t *testing.T) {
	var raw bytes.Buffer
	for _, v := range []float32{0.5, -0.25} {
		binary.Write(&raw, binary.LittleEndian, v)
	}

	// the stall lands in the middle of the left sample
	b := raw.Bytes()
	src := &stallingReader{chunks: [][]byte{b[:3], b[3:]}}

	fr := frameReader{r: src, raw: make([]byte, len(b))}

	if err := fr.read(); !errors.Is(err, os.ErrDeadlineExceeded) {
		t.Fatalf("first read returned %v, want a deadline error", err)
	}

	if err := fr.read(); err != nil {
		t.Fatalf("second read returned %v", err)
	}

	dst := input.MakeBuffers(2, 1)

	r := floatReader{order: binary.LittleEndian}
	r.reset(fr.raw)
	r.deinterleave(dst, 2, 2)

	if dst[0][0] != 0.5 || dst[1][0] != -0.25 {
		t.Fatalf("channels %v, want [[0.5] [-0.25]]", dst)
	}

	if fr.filled != 0 {
		t.Fatalf("filled %d after a whole frame", fr.filled)
	}
}

func TestSessionReadsRecorderOutput(t *testing.T) {
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}

	var raw bytes.Buffer
	for i := 0; i < 4; i++ {
		binary.Write(&raw, binary.LittleEndian, float32(0.5))
		binary.Write(&raw, binary.LittleEndian, float32(-0.25))
	}

	path := filepath.Join(t.TempDir(), "capture.f32")
	if err := os.WriteFile(path, raw.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := input.SessionConfig{
		FrameSize:  2,
		SampleSize: 4,
		SampleRate: 44100,
	}

	sess := NewSession([]string{"cat", path}, true, cfg)
	sess.DisconnectedStderr = true

	dst := input.MakeBuffers(2, 4)
	kick := make(chan bool, 1)
	mu := &sync.Mutex{}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sess.Start(ctx, dst, kick, mu); err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case <-kick:
	default:
		t.Fatal("session never kicked")
	}

	for i := 0; i < 4; i++ {
		if dst[0][i] != 0.5 || dst[1][i] != -0.25 {
			t.Fatalf("frame %d = %g/%g", i, dst[0][i], dst[1][i])
		}
	}
}

func TestSessionRejectsBadBuffers(t *testing.T) {
	cfg := input.SessionConfig{FrameSize: 2, SampleSize: 4, SampleRate: 44100}
	sess := NewSession([]string{"true"}, true, cfg)

	err := sess.Start(context.Background(), input.MakeBuffers(1, 4),
		make(chan bool, 1), &sync.Mutex{})
	if err == nil {
		t.Fatal("expected error for mismatched buffers")
	}
}

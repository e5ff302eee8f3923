package input

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
)

type testDevice string

func (d testDevice) String() string { return string(d) }

type testBackend struct {
	devices []Device
	initErr error
}

func (b *testBackend) Init() error                    { return b.initErr }
func (b *testBackend) Close() error                   { return nil }
func (b *testBackend) Devices() ([]Device, error)     { return b.devices, nil }
func (b *testBackend) DefaultDevice() (Device, error) { return b.devices[0], nil }

func (b *testBackend) Start(SessionConfig) (Session, error) {
	return nil, errors.New("not implemented")
}

func withBackends(t *testing.T) {
	t.Helper()

	saved := Backends
	Backends = nil
	t.Cleanup(func() { Backends = saved })
}

func TestRegisterAndFind(t *testing.T) {
	withBackends(t)

	RegisterBackend("zeta", &testBackend{})
	RegisterBackend("alpha", &testBackend{})

	if names := strings.Join(GetAllBackendNames(), ","); names != "alpha,zeta" {
		t.Fatalf("names %q", names)
	}

	if !HasBackend("zeta") || HasBackend("nope") {
		t.Fatal("HasBackend mismatch")
	}

	if _, err := InitBackend("nope"); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestInitBackendError(t *testing.T) {
	withBackends(t)

	cause := errors.New("no server")
	RegisterBackend("broken", &testBackend{initErr: cause})

	_, err := InitBackend("broken")
	if errors.Cause(err) != cause {
		t.Fatalf("got %v, want cause %v", err, cause)
	}
}

func TestGetDevice(t *testing.T) {
	b := &testBackend{devices: []Device{testDevice("default"), testDevice("mic")}}

	d, err := GetDevice(b, "")
	if err != nil || d.String() != "default" {
		t.Fatalf("default device: %v %v", d, err)
	}

	d, err = GetDevice(b, "mic")
	if err != nil || d.String() != "mic" {
		t.Fatalf("named device: %v %v", d, err)
	}

	if _, err := GetDevice(b, "speaker"); err == nil {
		t.Fatal("expected error for missing device")
	}
}

func TestBuffers(t *testing.T) {
	cfg := SessionConfig{FrameSize: 2, SampleSize: 8}
	bufs := MakeBuffers(2, 8)

	if !EnsureBufferLen(cfg, bufs) {
		t.Fatal("buffers should match")
	}

	if EnsureBufferLen(SessionConfig{FrameSize: 1, SampleSize: 8}, bufs) {
		t.Fatal("channel mismatch not caught")
	}

	bufs[1][3] = 0.5
	Silence(bufs)
	if bufs[1][3] != 0 {
		t.Fatal("silence left samples")
	}
}


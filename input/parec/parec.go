// Package parec captures microphones from PulseAudio (or pipewire-pulse)
// through parec.
package parec

import (
	"fmt"
	"strings"

	"github.com/lawl/pulseaudio"
	"github.com/noriah/curtain/input"
	"github.com/noriah/curtain/input/common/execread"
	"github.com/pkg/errors"
)

func init() {
	input.RegisterBackend("parec", Backend{})
}

type Backend struct{}

func (p Backend) Init() error {
	return nil
}

func (p Backend) Close() error {
	return nil
}

// Devices lists the PulseAudio sources that are not monitors of an output.
func (p Backend) Devices() ([]input.Device, error) {
	c, err := pulseaudio.NewClient()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create client")
	}
	defer c.Close()

	s, err := c.Sources()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get sources")
	}

	names := make([]string, len(s))
	for i, source := range s {
		names[i] = source.Name
	}

	return microphones(names), nil
}

func microphones(sources []string) []input.Device {
	var devices []input.Device

	for _, name := range sources {
		// monitors record what is played, not what is heard
		if strings.HasSuffix(name, ".monitor") {
			continue
		}

		devices = append(devices, PulseDevice(name))
	}

	return devices
}

func (p Backend) DefaultDevice() (input.Device, error) {
	return PulseDevice("default"), nil
}

func (p Backend) Start(cfg input.SessionConfig) (input.Session, error) {
	return NewSession(cfg)
}

type PulseDevice string

func (d PulseDevice) InputArgs() []string {
	return []string{"-f", "pulse", "-i", string(d)}
}

func (d PulseDevice) String() string {
	return string(d)
}

// Args returns the parec command line for a session.
func Args(dv PulseDevice, cfg input.SessionConfig) []string {
	return []string{
		"parec",
		"--format=float32le",
		fmt.Sprintf("--rate=%.0f", cfg.SampleRate),
		fmt.Sprintf("--channels=%d", cfg.FrameSize),
		fmt.Sprintf("--latency=%d", cfg.SampleSize*cfg.FrameSize*4),
		"-d", dv.String(),
	}
}

func NewSession(cfg input.SessionConfig) (*execread.Session, error) {
	dv, ok := cfg.Device.(PulseDevice)
	if !ok {
		return nil, fmt.Errorf("invalid device type %T", cfg.Device)
	}

	if cfg.FrameSize > 2 {
		return nil, errors.New("channel count not supported, mono/stereo only")
	}

	return execread.NewSession(Args(dv, cfg), true, cfg), nil
}

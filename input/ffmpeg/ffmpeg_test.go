package ffmpeg

import (
	"strings"
	"testing"

	"github.com/noriah/curtain/input"
	"github.com/noriah/curtain/input/parec"
)

func TestParseALSADevice(t *testing.T) {
	tests := map[string]string{
		"00-00": "hw:0,0",
		"01-02": "hw:1,2",
		"10-07": "hw:10,7",
		"2":     "hw:2",
	}

	for in, want := range tests {
		got, err := ParseALSADevice(in)
		if err != nil {
			t.Fatalf("%q: %v", in, err)
		}
		if string(got) != want {
			t.Errorf("ParseALSADevice(%q) = %q, want %q", in, got, want)
		}
	}

	if _, err := ParseALSADevice("1-2-3"); err == nil {
		t.Error("expected error for three parts")
	}
}

func TestParsePCMListKeepsCaptureOnly(t *testing.T) {
	list := strings.Join([]string{
		"00-00: ALC892 Analog : ALC892 Analog : playback 1 : capture 1",
		"00-01: ALC892 Digital : ALC892 Digital : playback 1",
		"01-00: USB Audio : USB Audio : capture 1",
	}, "\n")

	devices, err := parsePCMList(strings.NewReader(list))
	if err != nil {
		t.Fatal(err)
	}

	if len(devices) != 2 || devices[0].String() != "hw:0,0" || devices[1].String() != "hw:1,0" {
		t.Fatalf("got %v", devices)
	}
}

func TestArgs(t *testing.T) {
	cfg := input.SessionConfig{FrameSize: 1, SampleSize: 1024, SampleRate: 44100}

	got := strings.Join(Args(parec.PulseDevice("default"), cfg), " ")
	want := "ffmpeg -hide_banner -loglevel panic -f pulse -i default -ar 44100 -ac 1 -f f64le -"

	if got != want {
		t.Fatalf("got  %q\nwant %q", got, want)
	}
}

func TestStartRejectsForeignDevice(t *testing.T) {
	cfg := input.SessionConfig{Device: parec.PulseDevice("default"), FrameSize: 1}

	if _, err := (ALSA{}).Start(cfg); err == nil {
		t.Fatal("expected error for pulse device on alsa backend")
	}
}

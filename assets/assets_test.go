package assets

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/noriah/curtain/playback"
	"github.com/pkg/errors"
)

func writePNG(t *testing.T, path string, c color.Color) {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, c)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func smallSpecs() [3]SequenceSpec {
	return [3]SequenceSpec{
		{Name: "idle", Pattern: "first-%02d.png", First: 1, Count: 3},
		{Name: "scrub", Pattern: "guess-%02d.png", First: 1, Count: 2},
		{Name: "ending", Pattern: "end-%02d.png", First: 1, Count: 2},
	}
}

func writeAll(t *testing.T, dir string, specs [3]SequenceSpec) {
	t.Helper()

	for _, s := range specs {
		for _, name := range s.Paths() {
			writePNG(t, filepath.Join(dir, name), color.White)
		}
	}
}

func TestDefaultSpecs(t *testing.T) {
	specs := DefaultSpecs()

	if specs[0].Count != 19 || specs[1].Count != 15 || specs[2].Count != 9 {
		t.Fatalf("counts %d/%d/%d", specs[0].Count, specs[1].Count, specs[2].Count)
	}

	paths := specs[1].Paths()
	if paths[0] != "guess-01.png" || paths[14] != "guess-15.png" {
		t.Fatalf("scrub paths %v", paths)
	}

	if (LoadConfig{Specs: specs}).Total() != 43 {
		t.Fatal("total should be 43")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	specs := smallSpecs()
	writeAll(t, dir, specs)

	var last, calls int
	seqs, err := Load(context.Background(), LoadConfig{
		Dir:     dir,
		Specs:   specs,
		Workers: 2,
		Progress: func(loaded, total int) {
			calls++
			last = loaded
			if total != 7 {
				t.Errorf("total %d, want 7", total)
			}
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	if idle, scrub, ending := seqs.Lengths(); idle != 3 || scrub != 2 || ending != 2 {
		t.Fatalf("lengths %d/%d/%d", idle, scrub, ending)
	}

	if calls != 7 || last != 7 {
		t.Fatalf("progress called %d times, last %d", calls, last)
	}

	if len(seqs.For(playback.Scrubbing)) != 2 || seqs.For(playback.State(7)) != nil {
		t.Fatal("For returned the wrong sequence")
	}

	if b := seqs.Ending[1].Bounds(); b.Dx() != 4 || b.Dy() != 2 {
		t.Fatalf("bounds %v", b)
	}
}

func TestLoadAccumulatesEveryFailure(t *testing.T) {
	dir := t.TempDir()
	specs := smallSpecs()
	writeAll(t, dir, specs)

	os.Remove(filepath.Join(dir, "first-02.png"))
	os.Remove(filepath.Join(dir, "end-02.png"))
	os.WriteFile(filepath.Join(dir, "guess-01.png"), []byte("not a png"), 0o644)

	_, err := Load(context.Background(), LoadConfig{Dir: dir, Specs: specs})

	var lerr *LoadError
	if !errors.As(err, &lerr) {
		t.Fatalf("got %v, want *LoadError", err)
	}

	got := strings.Join(lerr.Paths(), ",")
	want := strings.Join([]string{
		filepath.Join(dir, "first-02.png"),
		filepath.Join(dir, "guess-01.png"),
		filepath.Join(dir, "end-02.png"),
	}, ",")

	if got != want {
		t.Fatalf("failed paths\n got %s\nwant %s", got, want)
	}

	if !strings.Contains(lerr.Error(), "3 image(s)") {
		t.Fatalf("error text %q", lerr.Error())
	}
}

func TestLoadRejectsEmptySequence(t *testing.T) {
	specs := smallSpecs()
	specs[2].Count = 0

	_, err := Load(context.Background(), LoadConfig{Dir: t.TempDir(), Specs: specs})
	if !errors.Is(err, playback.ErrEmptySequence) {
		t.Fatalf("got %v, want ErrEmptySequence", err)
	}
}

func TestLoadCancelled(t *testing.T) {
	dir := t.TempDir()
	specs := smallSpecs()
	writeAll(t, dir, specs)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Load(ctx, LoadConfig{Dir: dir, Specs: specs}); err != context.Canceled {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}

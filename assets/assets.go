// Package assets loads the three image sequences of the curtain.
//
// Every file is attempted even after one has failed, so an operator sees the
// whole list of missing or broken files at once instead of fixing them one
// run at a time.
package assets

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	// decoders registered with image.Decode
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/noriah/curtain/playback"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// SequenceSpec describes the files of one sequence: Pattern is formatted with
// the numbers First through First+Count-1.
type SequenceSpec struct {
	Name    string
	Pattern string
	First   int
	Count   int
}

// Paths returns the file names of the sequence in order.
func (s SequenceSpec) Paths() []string {
	paths := make([]string, s.Count)
	for i := range paths {
		paths[i] = fmt.Sprintf(s.Pattern, s.First+i)
	}
	return paths
}

// DefaultSpecs returns the idle, scrub and ending sequences as the artwork
// ships them.
func DefaultSpecs() [3]SequenceSpec {
	return [3]SequenceSpec{
		{Name: "idle", Pattern: "first-%02d.png", First: 1, Count: 19},
		{Name: "scrub", Pattern: "guess-%02d.png", First: 1, Count: 15},
		{Name: "ending", Pattern: "end-%02d.png", First: 1, Count: 9},
	}
}

// Sequences holds the decoded frames.
type Sequences struct {
	Idle   []image.Image
	Scrub  []image.Image
	Ending []image.Image
}

// For returns the sequence played in a state.
func (s *Sequences) For(state playback.State) []image.Image {
	switch state {
	case playback.Idle:
		return s.Idle
	case playback.Scrubbing:
		return s.Scrub
	case playback.Ending:
		return s.Ending
	default:
		return nil
	}
}

// Lengths returns the number of frames per sequence.
func (s *Sequences) Lengths() (idle, scrub, ending int) {
	return len(s.Idle), len(s.Scrub), len(s.Ending)
}

// Failure is one file that could not be loaded.
type Failure struct {
	Path string
	Err  error
}

// LoadError lists every file that failed, in sequence order.
type LoadError struct {
	Failures []Failure
}

func (e *LoadError) Error() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "failed to load %d image(s):", len(e.Failures))
	for _, f := range e.Failures {
		fmt.Fprintf(&sb, "\n  %s: %v", f.Path, f.Err)
	}

	return sb.String()
}

// Paths returns the failed paths.
func (e *LoadError) Paths() []string {
	paths := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		paths[i] = f.Path
	}
	return paths
}

type LoadConfig struct {
	// Dir is where the images live.
	Dir string
	// Specs describe the idle, scrub and ending sequences.
	Specs [3]SequenceSpec
	// Workers bounds the number of files decoded at once. Defaults to the
	// number of CPUs.
	Workers int
	// Progress is called after every loaded file. It may be called from
	// several goroutines, but never concurrently.
	Progress func(loaded, total int)
}

// Total returns the number of files cfg will load.
func (cfg LoadConfig) Total() int {
	total := 0
	for _, s := range cfg.Specs {
		total += s.Count
	}
	return total
}

// Load decodes every frame of the three sequences. It returns a *LoadError
// if any file failed, or the context error if ctx was cancelled.
func Load(ctx context.Context, cfg LoadConfig) (*Sequences, error) {
	for _, s := range cfg.Specs {
		if s.Count < 1 {
			return nil, errors.Wrapf(playback.ErrEmptySequence, "%s sequence", s.Name)
		}
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}

	var frames [3][]image.Image
	var errs [3][]error

	var mu sync.Mutex
	loaded, total := 0, cfg.Total()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for seq, spec := range cfg.Specs {
		paths := spec.Paths()
		frames[seq] = make([]image.Image, len(paths))
		errs[seq] = make([]error, len(paths))

		for idx, name := range paths {
			seq, idx, path := seq, idx, filepath.Join(cfg.Dir, name)

			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}

				img, err := decodeFile(path)
				if err != nil {
					// kept for the report, the rest still loads
					errs[seq][idx] = err
					return nil
				}

				frames[seq][idx] = img

				mu.Lock()
				loaded++
				if cfg.Progress != nil {
					cfg.Progress(loaded, total)
				}
				mu.Unlock()

				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var failures []Failure
	for seq, spec := range cfg.Specs {
		for idx, name := range spec.Paths() {
			if err := errs[seq][idx]; err != nil {
				failures = append(failures, Failure{
					Path: filepath.Join(cfg.Dir, name),
					Err:  err,
				})
			}
		}
	}

	if len(failures) > 0 {
		return nil, &LoadError{Failures: failures}
	}

	return &Sequences{
		Idle:   frames[0],
		Scrub:  frames[1],
		Ending: frames[2],
	}, nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode")
	}

	if b := img.Bounds(); b.Dx() < 1 || b.Dy() < 1 {
		return nil, errors.New("image is empty")
	}

	return img, nil
}

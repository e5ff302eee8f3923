// Package graphic draws the curtain frames into the terminal.
package graphic

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"sync/atomic"

	"github.com/gdamore/tcell/v2"
	"github.com/noriah/curtain/assets"
	"github.com/noriah/curtain/playback"
	"github.com/noriah/curtain/processor"
	"github.com/pkg/errors"
	"golang.org/x/image/draw"
)

const (
	// HalfBlock is drawn in every cell, foreground the upper pixel and
	// background the lower one.
	HalfBlock rune = '▀'

	// DisplaySpace is the block we use for empty cells
	DisplaySpace rune = ' '
)

var (
	colorPaper = tcell.NewRGBColor(255, 255, 255)

	styleText   = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(colorPaper)
	styleError  = styleText.Foreground(tcell.ColorRed).Bold(true)
	styleStatus = tcell.StyleDefault.Reverse(true)
)

// Display handles drawing our frames
type Display struct {
	screen  tcell.Screen
	restore func()

	seqs *assets.Sequences

	showStatus atomic.Bool

	// last scaled frame, only touched by Write
	cache struct {
		frame playback.Frame
		size  image.Point
		img   *image.RGBA
		rect  image.Rectangle
	}
}

var _ processor.Output = &Display{}

// NewDisplay returns a display. Init must be called before anything else.
func NewDisplay() *Display {
	return &Display{}
}

// Init sets up the terminal screen.
func (d *Display) Init() error {
	restore, err := normalizeTerminal()
	if err != nil {
		return errors.Wrap(err, "failed to normalize terminal")
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		restore()
		return errors.Wrap(err, "failed to open screen")
	}

	if err := d.InitScreen(screen); err != nil {
		restore()
		return err
	}

	d.restore = restore

	return nil
}

// InitScreen sets the display up on an existing screen.
func (d *Display) InitScreen(screen tcell.Screen) error {
	if err := screen.Init(); err != nil {
		return errors.Wrap(err, "failed to init screen")
	}

	screen.DisableMouse()
	screen.HideCursor()
	screen.SetStyle(styleText)

	d.screen = screen

	return nil
}

// SetSequences sets the frames Write draws from.
func (d *Display) SetSequences(seqs *assets.Sequences) {
	d.seqs = seqs
}

// SetStatus turns the status line on or off.
func (d *Display) SetStatus(show bool) {
	d.showStatus.Store(show)
}

// Start runs the event poller. The returned context is cancelled when the user
// quits.
func (d *Display) Start(ctx context.Context) context.Context {
	dispCtx, dispCancel := context.WithCancel(ctx)
	go eventPoller(dispCtx, dispCancel, d)
	return dispCtx
}

// eventPoller will take events and do things with them
func eventPoller(ctx context.Context, fn context.CancelFunc, d *Display) {
	defer fn()

	for {
		// first check if we need to exit
		select {
		case <-ctx.Done():
			return
		default:
		}

		ev := d.screen.PollEvent()
		if ev == nil {
			return
		}

		switch ev := ev.(type) {
		case *tcell.EventKey:
			switch ev.Key() {
			case tcell.KeyRune:
				switch ev.Rune() {
				case 'q', 'Q':
					return

				case 's', 'S':
					d.showStatus.Store(!d.showStatus.Load())

				default:

				}

			case tcell.KeyCtrlC, tcell.KeyEscape:
				return

			default:

			}

		case *tcell.EventResize:
			d.screen.Sync()

		default:

		}
	}
}

// Stop does nothing; the poller ends with its context.
func (d *Display) Stop() error {
	return nil
}

// Close will stop display and clean up the terminal
func (d *Display) Close() error {
	if d.screen != nil {
		d.screen.Fini()
	}

	if d.restore != nil {
		d.restore()
	}

	return nil
}

// Fit returns where an image of size src goes inside a viewport of size dst:
// scaled by the largest factor that fits both ways and centered.
func Fit(src, dst image.Point) image.Rectangle {
	if src.X < 1 || src.Y < 1 || dst.X < 1 || dst.Y < 1 {
		return image.Rectangle{}
	}

	scale := math.Min(
		float64(dst.X)/float64(src.X),
		float64(dst.Y)/float64(src.Y))

	w := clampInt(int(math.Round(float64(src.X)*scale)), 1, dst.X)
	h := clampInt(int(math.Round(float64(src.Y)*scale)), 1, dst.Y)

	x0 := (dst.X - w) / 2
	y0 := (dst.Y - h) / 2

	return image.Rect(x0, y0, x0+w, y0+h)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Write draws the frame of a report.
func (d *Display) Write(r processor.Report) error {
	if d.seqs == nil {
		return errors.New("no sequences set")
	}

	seq := d.seqs.For(r.Frame.State)
	if r.Frame.Index < 0 || r.Frame.Index >= len(seq) {
		return errors.Errorf("frame %d out of range for %s (%d frames)",
			r.Frame.Index, r.Frame.State, len(seq))
	}

	cols, rows := d.screen.Size()
	// two pixels per cell
	view := image.Pt(cols, rows*2)

	img, rect := d.scaled(r.Frame, seq[r.Frame.Index], view)

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			top := pixel(img, rect, x, y*2)
			bottom := pixel(img, rect, x, y*2+1)

			d.screen.SetContent(x, y, HalfBlock, nil,
				tcell.StyleDefault.Foreground(top).Background(bottom))
		}
	}

	if d.showStatus.Load() {
		n := len(seq)
		d.drawText(0, rows-1, styleStatus, fmt.Sprintf(
			" %-9s %2d/%-2d  level %.3f  raw %.3f ",
			r.Frame.State, r.Frame.Index+1, n, r.Smoothed, r.Raw))
	}

	d.screen.Show()

	return nil
}

// scaled returns the frame image scaled to fit view, and where it sits.
func (d *Display) scaled(f playback.Frame, src image.Image, view image.Point) (*image.RGBA, image.Rectangle) {
	c := &d.cache
	if c.img != nil && c.frame == f && c.size == view {
		return c.img, c.rect
	}

	rect := Fit(src.Bounds().Size(), view)

	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	c.frame, c.size, c.img, c.rect = f, view, dst, rect

	return dst, rect
}

// pixel returns the color at view position x, y; paper outside the image.
func pixel(img *image.RGBA, rect image.Rectangle, x, y int) tcell.Color {
	p := image.Pt(x, y)
	if !p.In(rect) {
		return colorPaper
	}

	c := img.RGBAAt(x-rect.Min.X, y-rect.Min.Y)

	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

func (d *Display) clear() {
	cols, rows := d.screen.Size()
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			d.screen.SetContent(x, y, DisplaySpace, nil, styleText)
		}
	}
}

func (d *Display) drawText(x, y int, style tcell.Style, text string) {
	for _, r := range text {
		d.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

// drawCentered draws lines centered on the screen.
func (d *Display) drawCentered(style tcell.Style, lines ...string) {
	cols, rows := d.screen.Size()

	y := (rows - len(lines)) / 2
	if y < 0 {
		y = 0
	}

	for _, line := range lines {
		x := (cols - len([]rune(line))) / 2
		if x < 0 {
			x = 0
		}

		d.drawText(x, y, style, line)
		y++
	}
}

// ShowLoading draws the loading screen.
func (d *Display) ShowLoading(loaded, total int) {
	d.clear()
	d.drawCentered(styleText, fmt.Sprintf("loading images... (%d / %d)", loaded, total))
	d.screen.Show()
}

// ShowFailures draws the list of images that did not load.
func (d *Display) ShowFailures(paths []string) {
	lines := []string{
		"failed to load images!",
		"check that these files exist and are named correctly:",
		"",
	}
	lines = append(lines, paths...)
	lines = append(lines, "", "press q to quit")

	d.clear()
	d.drawCentered(styleError, lines...)
	d.screen.Show()
}

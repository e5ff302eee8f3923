package main

import (
	"fmt"
	"io"

	"github.com/noriah/curtain/processor"
)

// RawOutput prints one line per frame change.
type RawOutput struct {
	w io.Writer

	last    processor.Report
	written bool
}

var _ processor.Output = &RawOutput{}

func NewRawOutput(w io.Writer) *RawOutput {
	return &RawOutput{w: w}
}

func (d *RawOutput) Write(r processor.Report) error {
	// ticks without a new frame only repeat the last line
	if d.written && r.Frame == d.last.Frame {
		return nil
	}

	d.last, d.written = r, true

	_, err := fmt.Fprintf(d.w, "%9.3f %-9s %3d %6.3f %6.3f\n",
		r.Time.Seconds(), r.Frame.State, r.Frame.Index, r.Smoothed, r.Raw)

	return err
}

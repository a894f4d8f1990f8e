package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"

	"mediakit/internal/bgremove"
	"mediakit/internal/cli"
)

// textReporter prints per-image progress lines. On a terminal a progress
// bar tracks the batch between lines.
type textReporter struct {
	out io.Writer
	tty bool
	bar *progressbar.ProgressBar
}

func newTextReporter(out io.Writer) *textReporter {
	return &textReporter{out: out, tty: cli.IsTerminal(out)}
}

func (r *textReporter) Start(job *bgremove.Job) {
	total := len(job.Plan.Items)
	fmt.Fprintf(r.out, "Processing %d image(s) on %s...\n", total, strings.ToUpper(job.Device))
	fmt.Fprintf(r.out, "Mode: %s, Quality: %s\n", job.Options.Mode, job.Options.Quality)
	if total == 1 {
		fmt.Fprintf(r.out, "Input: %s\n", job.Plan.Items[0].Input)
		fmt.Fprintf(r.out, "Output: %s\n", job.Plan.Items[0].Output)
	} else {
		fmt.Fprintf(r.out, "Input directory: %s\n", job.Source.Root)
		fmt.Fprintf(r.out, "Output directory: %s\n", job.Plan.OutputDir)
	}
	if r.tty && total > 1 {
		r.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(r.out),
			progressbar.OptionSetDescription("removing backgrounds"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}
}

func (r *textReporter) Saved(index, total int, path string, size int64) {
	r.line("[%d/%d] Saved: %s (%s)", index, total, path, humanize.Bytes(uint64(size)))
}

func (r *textReporter) Failed(index, total int, input, reason string) {
	r.line("[%d/%d] Failed: %s (%s)", index, total, input, reason)
}

func (r *textReporter) Complete(processed int) {
	if r.bar != nil {
		_ = r.bar.Finish()
		r.bar = nil
	}
	fmt.Fprintf(r.out, "Complete! Processed %d image(s).\n", processed)
}

func (r *textReporter) line(format string, args ...any) {
	if r.bar != nil {
		_ = r.bar.Clear()
	}
	fmt.Fprintf(r.out, format+"\n", args...)
	if r.bar != nil {
		_ = r.bar.Add(1)
	}
}

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"

	"mediakit/internal/cli"
	"mediakit/internal/services/ytdlp"
	"mediakit/internal/vidget"
)

// textReporter prints download progress. On a terminal each downloaded
// stream gets a byte progress bar. Saved files are listed once the download
// completes, so merged formats show up as the single file they became.
type textReporter struct {
	out     io.Writer
	tty     bool
	bar     *progressbar.ProgressBar
	current string
}

func newTextReporter(out io.Writer) *textReporter {
	return &textReporter{out: out, tty: cli.IsTerminal(out)}
}

func (r *textReporter) Downloading(title string) {
	fmt.Fprintf(r.out, "Downloading: %s\n", title)
}

func (r *textReporter) Playlist(title string, count int) {
	fmt.Fprintf(r.out, "Playlist: %s (%d videos)\n", title, count)
}

func (r *textReporter) Progress(p ytdlp.Progress) {
	if !r.tty {
		return
	}
	r.updateBar(p)
	if p.Status == "finished" {
		r.finishBar()
	}
}

func (r *textReporter) updateBar(p ytdlp.Progress) {
	if p.Filename != r.current {
		r.finishBar()
		r.current = p.Filename
		total := p.TotalBytes
		if total <= 0 {
			total = -1
		}
		r.bar = progressbar.NewOptions64(total,
			progressbar.OptionSetWriter(r.out),
			progressbar.OptionSetDescription(filepath.Base(p.Filename)),
			progressbar.OptionShowBytes(true),
			progressbar.OptionClearOnFinish(),
		)
	}
	if r.bar != nil && p.DownloadedBytes > 0 {
		_ = r.bar.Set64(p.DownloadedBytes)
	}
}

func (r *textReporter) finishBar() {
	if r.bar != nil {
		_ = r.bar.Finish()
		r.bar = nil
	}
}

func (r *textReporter) Complete(result vidget.Result) {
	r.finishBar()
	for _, file := range result.Files {
		size := ""
		if info, err := os.Stat(file); err == nil {
			size = " (" + humanize.Bytes(uint64(info.Size())) + ")"
		}
		fmt.Fprintf(r.out, "Finished: %s%s\n", filepath.Base(file), size)
	}
	for _, failure := range result.Failures {
		fmt.Fprintf(r.out, "Failed: %s\n", failure)
	}
	fmt.Fprintf(r.out, "Complete! Downloaded %s file(s).\n", humanize.Comma(int64(len(result.Files))))
}

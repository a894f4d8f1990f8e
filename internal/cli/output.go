package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// WriteJSON encodes v as JSON indented by two spaces. HTML characters and
// non-ASCII text are written as is.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// hintError carries follow-up instructions for an error. The hints are
// printed by PrintError and are not part of the message.
type hintError struct {
	err   error
	hints []string
}

func (e *hintError) Error() string { return e.err.Error() }

func (e *hintError) Unwrap() error { return e.err }

// WithHints attaches hint lines to err. The original error stays reachable
// through errors.Is and errors.As.
func WithHints(err error, hints ...string) error {
	if err == nil || len(hints) == 0 {
		return err
	}
	return &hintError{err: err, hints: hints}
}

// PrintError writes err to w followed by any attached hints, one per
// indented line.
func PrintError(w io.Writer, err error) {
	fmt.Fprintln(w, err)
	var h *hintError
	if !errors.As(err, &h) {
		return
	}
	for _, hint := range h.hints {
		fmt.Fprintf(w, "  %s\n", hint)
	}
}

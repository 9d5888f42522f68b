/*
Package emit contains code emitters for Brainfuck IR programs: a human
readable dump and virtual-register based dialects (LLVM IR and QBE IL) that
share the same lowering.
*/
package emit

import (
	"errors"
	"fmt"
	"io"

	"github.com/nspcc-dev/bfc/pkg/ir"
)

// Mode is an output mode name.
type Mode string

// Supported output modes.
const (
	ModeDump Mode = "dump"
	ModeLLVM Mode = "llvm"
	ModeQBE  Mode = "qbe"
)

// ErrUnknownMode is returned for unsupported output modes.
var ErrUnknownMode = errors.New("unknown mode")

// Modes returns all supported output modes.
func Modes() []Mode {
	return []Mode{ModeDump, ModeLLVM, ModeQBE}
}

// ParseMode converts s into a Mode.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes() {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Dialect renders primitive operations in some concrete textual syntax.
type Dialect interface {
	// Name returns the dialect name.
	Name() string
	// Begin writes everything that precedes the first operation.
	Begin(w *Writer)
	// Op writes a single operation.
	Op(w *Writer, op Op)
	// End writes everything that follows the last operation.
	End(w *Writer)
}

// Render lowers the program and writes it to w using the dialect given.
func Render(w io.Writer, d Dialect, prog ir.Program) error {
	ops, err := Lower(prog)
	if err != nil {
		return err
	}
	tw := NewWriter(w)
	d.Begin(tw)
	for _, op := range ops {
		d.Op(tw, op)
	}
	d.End(tw)
	return tw.Err
}

// Writer is a convenient wrapper around io.Writer that remembers the first
// error occurred, all subsequent writes are no-op after it.
type Writer struct {
	w   io.Writer
	Err error
}

// NewWriter creates a Writer on top of w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Linef writes a formatted line.
func (w *Writer) Linef(format string, args ...interface{}) {
	if w.Err != nil {
		return
	}
	_, w.Err = fmt.Fprintf(w.w, format+"\n", args...)
}

// Line writes s followed by a newline.
func (w *Writer) Line(s string) {
	if w.Err != nil {
		return
	}
	_, w.Err = io.WriteString(w.w, s+"\n")
}

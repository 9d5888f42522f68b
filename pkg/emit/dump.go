package emit

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nspcc-dev/bfc/pkg/ir"
)

// DefaultIndent is the default number of spaces loop bodies are indented by.
const DefaultIndent = 2

// ErrNegativeIndent is returned by Dump for negative DumpOptions.Indent.
var ErrNegativeIndent = errors.New("negative indent")

// DumpOptions control the human-readable dump. The zero value means no
// indentation and signed values, use DefaultDumpOptions for the defaults.
type DumpOptions struct {
	// Indent is the number of spaces per loop nesting level.
	Indent int
	// Unsigned makes add deltas and multipliers printed as 0..255 instead
	// of -128..127.
	Unsigned bool
}

// DefaultDumpOptions returns options with DefaultIndent.
func DefaultDumpOptions() DumpOptions {
	return DumpOptions{Indent: DefaultIndent}
}

// Dump writes the program as a list of mnemonics, one instruction per line.
// Unbalanced loops are tolerated, indentation never goes below zero.
func Dump(w io.Writer, prog ir.Program, o DumpOptions) error {
	if o.Indent < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeIndent, o.Indent)
	}
	var (
		tw    = NewWriter(w)
		level int
	)
	for _, inst := range prog {
		if inst.Op == ir.JUMPR && level > 0 {
			level--
		}
		pad := strings.Repeat(" ", level*o.Indent)
		if inst.Op == ir.JUMPL {
			level++
		}

		switch inst.Op {
		case ir.MOVE:
			tw.Linef("%smv %d", pad, inst.Move)
		case ir.ADD:
			tw.Linef("%sadd %d", pad, o.byteValue(inst.Add))
		case ir.JUMPL:
			tw.Line(pad + "[")
		case ir.JUMPR:
			tw.Line(pad + "]")
		case ir.WRITE:
			tw.Line(pad + "write")
		case ir.READ:
			tw.Line(pad + "read")
		case ir.ZEROADD:
			var sb strings.Builder
			sb.WriteString("zero")
			for _, t := range inst.Terms.Slice() {
				fmt.Fprintf(&sb, " (mv %d, * %d)", t.Shift, o.byteValue(t.Mul))
			}
			tw.Line(pad + sb.String())
		default:
			return fmt.Errorf("dump: unknown opcode %s", inst.Op)
		}
	}
	return tw.Err
}

func (o DumpOptions) byteValue(b uint8) int {
	if o.Unsigned {
		return int(b)
	}
	return int(int8(b))
}

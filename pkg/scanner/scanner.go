/*
Package scanner converts Brainfuck source text into the IR instruction
sequence. Any byte that is not one of the eight Brainfuck commands is a
comment and is dropped.
*/
package scanner

import (
	"bufio"
	"errors"
	"io"

	"github.com/nspcc-dev/bfc/pkg/ir"
)

// tokens maps source bytes to the instructions they produce.
var tokens = map[byte]ir.Instruction{
	'>': ir.NewMove(1),
	'<': ir.NewMove(-1),
	'+': ir.NewAdd(1),
	'-': ir.NewAdd(0xff),
	'[': ir.Simple(ir.JUMPL),
	']': ir.Simple(ir.JUMPR),
	'.': ir.Simple(ir.WRITE),
	',': ir.Simple(ir.READ),
}

// IsToken returns true if b is a Brainfuck command.
func IsToken(b byte) bool {
	_, ok := tokens[b]
	return ok
}

// Scan reads r until EOF and returns the instructions found. The only
// possible errors are the ones returned by r.
func Scan(r io.Reader) (ir.Program, error) {
	var (
		prog = ir.Program{}
		br   = bufio.NewReader(r)
	)
	for {
		b, err := br.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return prog, nil
			}
			return nil, err
		}
		if IsToken(b) {
			prog = append(prog, tokens[b])
		}
	}
}

// ScanBytes is the same as Scan, but for in-memory sources.
func ScanBytes(src []byte) ir.Program {
	prog := make(ir.Program, 0, len(src))
	for _, b := range src {
		if IsToken(b) {
			prog = append(prog, tokens[b])
		}
	}
	return prog
}

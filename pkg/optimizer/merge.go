/*
Package optimizer implements peephole passes over the IR. Every pass is a
pure function from one program to another, the input is never modified.
*/
package optimizer

import (
	"github.com/nspcc-dev/bfc/pkg/ir"
)

// Merge fuses runs of MOVE and runs of ADD instructions into single
// instructions, dropping the ones that end up having no effect. Any other
// instruction ends the run and is copied as is.
//
// The last emitted instruction serves as the pending accumulator, so when
// some run cancels out completely the runs around it are merged together.
// This makes Merge idempotent: Merge(Merge(p)) is always equal to Merge(p).
func Merge(prog ir.Program) ir.Program {
	var res = make(ir.Program, 0, len(prog))

	for _, inst := range prog {
		switch inst.Op {
		case ir.MOVE, ir.ADD:
			last := len(res) - 1
			if last >= 0 && res[last].Op == inst.Op {
				res[last] = fuse(res[last], inst)
				if res[last].IsNoOp() {
					res = res[:last]
				}
				continue
			}
			if !inst.IsNoOp() {
				res = append(res, inst)
			}
		default:
			res = append(res, inst)
		}
	}
	return res
}

// fuse combines two instructions of the same arithmetic kind. Both MOVE and
// ADD wrap around on overflow.
func fuse(a, b ir.Instruction) ir.Instruction {
	if a.Op == ir.MOVE {
		return ir.NewMove(a.Move + b.Move)
	}
	return ir.NewAdd(a.Add + b.Add)
}

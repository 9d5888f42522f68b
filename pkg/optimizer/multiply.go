package optimizer

import (
	"fmt"
	"sort"

	"github.com/nspcc-dev/bfc/pkg/ir"
)

// loopCandidate tracks a loop that may turn out to be a multiply loop.
type loopCandidate struct {
	start  int
	shift  int16
	deltas map[int16]uint8
}

func newLoopCandidate(start int) *loopCandidate {
	return &loopCandidate{
		start:  start,
		deltas: make(map[int16]uint8),
	}
}

// isMultiply checks that the loop body returns to the starting cell and
// decrements it by exactly one per iteration.
func (c *loopCandidate) isMultiply() bool {
	return c.shift == 0 && c.deltas[0] == 0xff
}

// zeroAdd builds ZEROADD instruction out of the collected deltas. Terms are
// ordered by shift.
func (c *loopCandidate) zeroAdd() (ir.Instruction, error) {
	var shifts = make([]int16, 0, len(c.deltas))
	for shift, mul := range c.deltas {
		if shift != 0 && mul != 0 {
			shifts = append(shifts, shift)
		}
	}
	sort.Slice(shifts, func(i, j int) bool { return shifts[i] < shifts[j] })

	var terms = make([]ir.Term, 0, len(shifts))
	for _, shift := range shifts {
		terms = append(terms, ir.Term{Shift: shift, Mul: c.deltas[shift]})
	}
	return ir.NewZeroAdd(terms...)
}

// MultiplyLoops replaces innermost loops consisting only of MOVE and ADD
// instructions that leave the pointer where it was and decrement the
// current cell by one with a single ZEROADD instruction, e.g. `[-]`,
// `[>>>++<<<-]` or `[->+>-<<]`. Loops that can't be converted are copied
// verbatim. An error is returned if some loop needs more than ir.MaxTerms
// terms, no program is returned in this case.
func MultiplyLoops(prog ir.Program) (ir.Program, error) {
	var (
		res     = make(ir.Program, 0, len(prog))
		written int
		cand    *loopCandidate
	)

	// catchUp copies everything up to and including idx to the output
	// and drops the current candidate.
	catchUp := func(idx int) {
		res = append(res, prog[written:idx+1]...)
		written = idx + 1
		cand = nil
	}

	for i, inst := range prog {
		if cand == nil {
			if inst.Op == ir.JUMPL {
				cand = newLoopCandidate(i)
				continue
			}
			res = append(res, inst)
			written = i + 1
			continue
		}

		switch inst.Op {
		case ir.JUMPL:
			catchUp(i - 1)
			cand = newLoopCandidate(i)
		case ir.MOVE:
			cand.shift += inst.Move
		case ir.ADD:
			cand.deltas[cand.shift] += inst.Add
		case ir.JUMPR:
			if !cand.isMultiply() {
				catchUp(i)
				continue
			}
			za, err := cand.zeroAdd()
			if err != nil {
				return nil, fmt.Errorf("loop at instruction %d: %w", cand.start, err)
			}
			res = append(res, za)
			written = i + 1
			cand = nil
		default:
			catchUp(i)
		}
	}
	if cand != nil {
		catchUp(len(prog) - 1)
	}
	return res, nil
}

// Optimize applies all passes in order: Merge and then MultiplyLoops.
func Optimize(prog ir.Program) (ir.Program, error) {
	return MultiplyLoops(Merge(prog))
}

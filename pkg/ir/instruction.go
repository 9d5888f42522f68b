/*
Package ir contains the intermediate representation the Brainfuck compiler
works with: an instruction sum type tagged by Opcode and a Program that is an
ordered sequence of such instructions.
*/
package ir

import (
	"errors"
	"fmt"
	"strings"
)

// MaxTerms is the maximum number of (shift, multiplier) pairs a single
// ZEROADD instruction can carry.
const MaxTerms = 5

// ErrTooManyTerms is returned when a ZEROADD instruction has to hold more
// than MaxTerms terms.
var ErrTooManyTerms = errors.New("too many zeroadd terms")

// Term is a single (shift, multiplier) pair of the ZEROADD instruction, it
// adds Mul times the old current cell value to the cell at Shift relative to
// the pointer.
type Term struct {
	Shift int16
	Mul   uint8
}

// Terms is a bounded list of ZEROADD terms.
type Terms struct {
	items [MaxTerms]Term
	count int
}

// Append adds t to the list or returns ErrTooManyTerms if the list is full.
func (ts *Terms) Append(t Term) error {
	if ts.count == MaxTerms {
		return ErrTooManyTerms
	}
	ts.items[ts.count] = t
	ts.count++
	return nil
}

// Len returns the number of terms stored.
func (ts Terms) Len() int {
	return ts.count
}

// Slice returns a copy of stored terms.
func (ts Terms) Slice() []Term {
	res := make([]Term, ts.count)
	copy(res, ts.items[:ts.count])
	return res
}

// Instruction is a single IR instruction. Op is the variant tag, payload
// fields are only meaningful for their variant: Move for MOVE, Add for ADD
// and Terms for ZEROADD.
type Instruction struct {
	Op    Opcode
	Move  int16
	Add   uint8
	Terms Terms
}

// Program is an ordered sequence of instructions in execution order.
type Program []Instruction

// NewMove creates a MOVE instruction with the given displacement.
func NewMove(n int16) Instruction {
	return Instruction{Op: MOVE, Move: n}
}

// NewAdd creates an ADD instruction with the given delta.
func NewAdd(d uint8) Instruction {
	return Instruction{Op: ADD, Add: d}
}

// NewZeroAdd creates a ZEROADD instruction out of the given terms.
func NewZeroAdd(terms ...Term) (Instruction, error) {
	inst := Instruction{Op: ZEROADD}
	for _, t := range terms {
		if err := inst.Terms.Append(t); err != nil {
			return Instruction{}, fmt.Errorf("%w: %d > %d", err, len(terms), MaxTerms)
		}
	}
	return inst, nil
}

// Simple creates a payload-less instruction (JUMPL, JUMPR, WRITE, READ).
func Simple(op Opcode) Instruction {
	return Instruction{Op: op}
}

// IsNoOp returns true for MOVE and ADD instructions that have no effect.
func (i Instruction) IsNoOp() bool {
	switch i.Op {
	case MOVE:
		return i.Move == 0
	case ADD:
		return i.Add == 0
	default:
		return false
	}
}

// String implements fmt.Stringer.
func (i Instruction) String() string {
	switch i.Op {
	case MOVE:
		return fmt.Sprintf("%s %d", i.Op, i.Move)
	case ADD:
		return fmt.Sprintf("%s %d", i.Op, i.Add)
	case ZEROADD:
		var sb strings.Builder
		sb.WriteString(i.Op.String())
		for _, t := range i.Terms.Slice() {
			fmt.Fprintf(&sb, " (%d, %d)", t.Shift, t.Mul)
		}
		return sb.String()
	default:
		return i.Op.String()
	}
}

// Equal checks whether two instructions are the same, payload of other
// variants is not taken into account.
func (i Instruction) Equal(o Instruction) bool {
	if i.Op != o.Op {
		return false
	}
	switch i.Op {
	case MOVE:
		return i.Move == o.Move
	case ADD:
		return i.Add == o.Add
	case ZEROADD:
		return i.Terms == o.Terms
	default:
		return true
	}
}

// Equal checks whether two programs consist of the same instructions.
func (p Program) Equal(o Program) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if !p[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

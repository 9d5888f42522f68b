package emit

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/bfc/pkg/ir"
)

// TapeSize is the number of cells allocated for the program.
const TapeSize = 30000

// ErrUnbalancedLoop is returned when loop markers of the program don't match.
var ErrUnbalancedLoop = errors.New("unbalanced loop")

// Reg is a virtual register number. Registers are numbered starting from 1
// in the order they're defined and are never reused.
type Reg int

// OpKind is a kind of the primitive operation the IR is lowered to.
type OpKind byte

// Primitive operations. Comments describe operands used by every kind.
const (
	// OpAlloc allocates the tape and initializes base and current pointer slots.
	OpAlloc OpKind = iota
	// OpLoadPtr loads current pointer into Dst.
	OpLoadPtr
	// OpLoadBase loads tape base address into Dst.
	OpLoadBase
	// OpStorePtr stores A into the current pointer slot.
	OpStorePtr
	// OpOffset computes address A + Imm into Dst.
	OpOffset
	// OpLoadByte loads a byte at address A into Dst.
	OpLoadByte
	// OpStoreByte stores byte A at address B.
	OpStoreByte
	// OpStoreZero stores 0 at address A.
	OpStoreZero
	// OpAddImm adds Imm to byte A, the result is in Dst.
	OpAddImm
	// OpAddReg adds bytes A and B, the result is in Dst.
	OpAddReg
	// OpMulImm multiplies byte A by Imm, the result is in Dst.
	OpMulImm
	// OpCmpNonZero sets Dst if byte A is not zero.
	OpCmpNonZero
	// OpBranch jumps to the body label of Loop if A is set and to the end
	// label otherwise.
	OpBranch
	// OpJump jumps to the condition label of Loop.
	OpJump
	// OpLabel starts a new block named by Label and Loop.
	OpLabel
	// OpSignExt sign-extends byte A to a machine word in Dst.
	OpSignExt
	// OpPutChar outputs A, the call result is in Dst.
	OpPutChar
	// OpGetChar reads a single input byte into Dst.
	OpGetChar
	// OpTrunc truncates word A to a byte in Dst.
	OpTrunc
	// OpFree releases the tape at address A.
	OpFree
	// OpReturn returns successfully.
	OpReturn
)

// LabelKind distinguishes the blocks of a single loop.
type LabelKind byte

// Loop blocks.
const (
	LabelCond LabelKind = iota
	LabelBody
	LabelEnd
)

// String implements fmt.Stringer.
func (k LabelKind) String() string {
	switch k {
	case LabelCond:
		return "while_cond"
	case LabelBody:
		return "while_body"
	default:
		return "while_end"
	}
}

// Op is a single primitive operation.
type Op struct {
	Kind  OpKind
	Dst   Reg
	A     Reg
	B     Reg
	Imm   int
	Loop  int
	Label LabelKind
}

// lowerer holds the numbering state of a single lowering.
type lowerer struct {
	ops   []Op
	reg   Reg
	loops int
	stack []int
}

func (l *lowerer) newReg() Reg {
	l.reg++
	return l.reg
}

func (l *lowerer) emit(op Op) {
	l.ops = append(l.ops, op)
}

// def emits an operation defining a new register and returns that register.
func (l *lowerer) def(op Op) Reg {
	op.Dst = l.newReg()
	l.emit(op)
	return op.Dst
}

// Lower converts the program into a sequence of primitive operations every
// textual dialect renders. The result is deterministic for the same program.
func Lower(prog ir.Program) ([]Op, error) {
	l := &lowerer{ops: make([]Op, 0, 4*len(prog)+8)}

	l.emit(Op{Kind: OpAlloc})
	for i, inst := range prog {
		if err := l.lower(inst); err != nil {
			return nil, fmt.Errorf("instruction %d: %w", i, err)
		}
	}
	if len(l.stack) != 0 {
		return nil, fmt.Errorf("%w: %d loop(s) not closed", ErrUnbalancedLoop, len(l.stack))
	}

	base := l.def(Op{Kind: OpLoadBase})
	l.emit(Op{Kind: OpFree, A: base})
	l.emit(Op{Kind: OpReturn})
	return l.ops, nil
}

func (l *lowerer) lower(inst ir.Instruction) error {
	switch inst.Op {
	case ir.MOVE:
		ptr := l.def(Op{Kind: OpLoadPtr})
		addr := l.def(Op{Kind: OpOffset, A: ptr, Imm: int(inst.Move)})
		l.emit(Op{Kind: OpStorePtr, A: addr})
	case ir.ADD:
		ptr := l.def(Op{Kind: OpLoadPtr})
		val := l.def(Op{Kind: OpLoadByte, A: ptr})
		sum := l.def(Op{Kind: OpAddImm, A: val, Imm: int(inst.Add)})
		l.emit(Op{Kind: OpStoreByte, A: sum, B: ptr})
	case ir.JUMPL:
		loop := l.loops
		l.loops++
		l.stack = append(l.stack, loop)

		l.emit(Op{Kind: OpJump, Loop: loop})
		l.emit(Op{Kind: OpLabel, Loop: loop, Label: LabelCond})
		ptr := l.def(Op{Kind: OpLoadPtr})
		val := l.def(Op{Kind: OpLoadByte, A: ptr})
		cond := l.def(Op{Kind: OpCmpNonZero, A: val})
		l.emit(Op{Kind: OpBranch, A: cond, Loop: loop})
		l.emit(Op{Kind: OpLabel, Loop: loop, Label: LabelBody})
	case ir.JUMPR:
		if len(l.stack) == 0 {
			return fmt.Errorf("%w: no loop to close", ErrUnbalancedLoop)
		}
		loop := l.stack[len(l.stack)-1]
		l.stack = l.stack[:len(l.stack)-1]

		l.emit(Op{Kind: OpJump, Loop: loop})
		l.emit(Op{Kind: OpLabel, Loop: loop, Label: LabelEnd})
	case ir.WRITE:
		ptr := l.def(Op{Kind: OpLoadPtr})
		val := l.def(Op{Kind: OpLoadByte, A: ptr})
		ext := l.def(Op{Kind: OpSignExt, A: val})
		l.def(Op{Kind: OpPutChar, A: ext})
	case ir.READ:
		c := l.def(Op{Kind: OpGetChar})
		val := l.def(Op{Kind: OpTrunc, A: c})
		ptr := l.def(Op{Kind: OpLoadPtr})
		l.emit(Op{Kind: OpStoreByte, A: val, B: ptr})
	case ir.ZEROADD:
		ptr := l.def(Op{Kind: OpLoadPtr})
		old := l.def(Op{Kind: OpLoadByte, A: ptr})
		l.emit(Op{Kind: OpStoreZero, A: ptr})
		for _, t := range inst.Terms.Slice() {
			addr := l.def(Op{Kind: OpOffset, A: ptr, Imm: int(t.Shift)})
			val := l.def(Op{Kind: OpLoadByte, A: addr})
			prod := l.def(Op{Kind: OpMulImm, A: old, Imm: int(t.Mul)})
			sum := l.def(Op{Kind: OpAddReg, A: val, B: prod})
			l.emit(Op{Kind: OpStoreByte, A: sum, B: addr})
		}
	default:
		return fmt.Errorf("unknown opcode %s", inst.Op)
	}
	return nil
}

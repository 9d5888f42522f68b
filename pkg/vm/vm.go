/*
Package vm implements a reference interpreter for Brainfuck IR programs. It
executes both plain and optimized programs and is used to check that the
optimizer preserves program behavior as well as by the interactive VM CLI.
*/
package vm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/nspcc-dev/bfc/pkg/ir"
)

// TapeSize is the number of cells available to the program.
const TapeSize = 30000

// EOFValue is the value stored into the current cell when the input is
// exhausted. It matches the truncated getchar() result of compiled programs.
const EOFValue = 0xff

// Various VM errors.
var (
	ErrUnbalancedLoop = errors.New("unbalanced loop")
	ErrTapeOverflow   = errors.New("pointer is out of tape")
	ErrStepLimit      = errors.New("step limit exceeded")
	ErrNotReady       = errors.New("no program loaded")
	ErrFailed         = errors.New("VM has failed")
	ErrInvalidOpcode  = errors.New("invalid opcode")
)

// VM represents the interpreter state.
type VM struct {
	prog  ir.Program
	jumps []int

	tape []byte
	ptr  int
	ip   int

	in  *bufio.Reader
	out io.Writer

	state       State
	breakPoints []int
	steps       uint64
	stepLimit   uint64
}

// New returns a new VM with the program loaded. in is used for READ, out for
// WRITE instructions, both can be nil.
func New(prog ir.Program, in io.Reader, out io.Writer) (*VM, error) {
	jumps, err := jumpTable(prog)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = io.Discard
	}
	v := &VM{
		prog:  prog,
		jumps: jumps,
		tape:  make([]byte, TapeSize),
		out:   out,
	}
	if in != nil {
		v.in = bufio.NewReader(in)
	}
	return v, nil
}

// jumpTable matches every JUMPL with its JUMPR.
func jumpTable(prog ir.Program) ([]int, error) {
	var (
		jumps = make([]int, len(prog))
		stack []int
	)
	for i, inst := range prog {
		if !ir.IsValid(inst.Op) {
			return nil, fmt.Errorf("%w %d at %d", ErrInvalidOpcode, inst.Op, i)
		}
		switch inst.Op {
		case ir.JUMPL:
			stack = append(stack, i)
		case ir.JUMPR:
			if len(stack) == 0 {
				return nil, fmt.Errorf("%w: unexpected loop end at %d", ErrUnbalancedLoop, i)
			}
			start := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			jumps[start] = i
			jumps[i] = start
		}
	}
	if len(stack) != 0 {
		return nil, fmt.Errorf("%w: loop at %d is not closed", ErrUnbalancedLoop, stack[len(stack)-1])
	}
	return jumps, nil
}

// SetStepLimit limits the number of instructions executed, 0 means no limit.
func (v *VM) SetStepLimit(n uint64) {
	v.stepLimit = n
}

// AddBreakPoint adds a breakpoint to the instruction at ip.
func (v *VM) AddBreakPoint(ip int) {
	v.breakPoints = append(v.breakPoints, ip)
}

// AddBreakPointRel adds a breakpoint n instructions after the current one.
func (v *VM) AddBreakPointRel(n int) {
	v.AddBreakPoint(v.ip + n)
}

// BreakPoints returns a copy of the breakpoint list.
func (v *VM) BreakPoints() []int {
	res := make([]int, len(v.breakPoints))
	copy(res, v.breakPoints)
	return res
}

// Ready returns true if there are instructions left to execute.
func (v *VM) Ready() bool {
	return v.ip < len(v.prog) && !v.state.HasFlag(FaultState)
}

// State returns the current VM state.
func (v *VM) State() State {
	return v.state
}

// HasFailed returns whether the VM is in the failed state now.
func (v *VM) HasFailed() bool {
	return v.state.HasFlag(FaultState)
}

// HasHalted returns whether the VM is in the halted state.
func (v *VM) HasHalted() bool {
	return v.state.HasFlag(HaltState)
}

// AtBreakpoint returns whether the VM is at breakpoint.
func (v *VM) AtBreakpoint() bool {
	return v.state.HasFlag(BreakState)
}

// IP returns the index of the next instruction to execute.
func (v *VM) IP() int {
	return v.ip
}

// Pointer returns the current tape pointer.
func (v *VM) Pointer() int {
	return v.ptr
}

// Steps returns the number of instructions executed so far.
func (v *VM) Steps() uint64 {
	return v.steps
}

// Program returns the program being executed.
func (v *VM) Program() ir.Program {
	return v.prog
}

// Tape returns a copy of n cells starting from the cell from, the range is
// clamped to the tape bounds.
func (v *VM) Tape(from, n int) []byte {
	if from < 0 {
		from = 0
	}
	if from > TapeSize {
		from = TapeSize
	}
	to := from + n
	if to > TapeSize {
		to = TapeSize
	}
	res := make([]byte, to-from)
	copy(res, v.tape[from:to])
	return res
}

// Run executes the program until it halts, fails or reaches a breakpoint.
func (v *VM) Run() error {
	if v.state.HasFlag(FaultState) {
		return ErrFailed
	}
	// HALT and BREAK are the same for us here.
	v.state = NoneState
	for {
		switch {
		case v.state.HasFlag(FaultState), v.state.HasFlag(HaltState), v.state.HasFlag(BreakState):
			return nil
		case v.state == NoneState:
			if err := v.Step(); err != nil {
				return err
			}
		}
	}
}

// Step executes a single instruction.
func (v *VM) Step() error {
	if v.state.HasFlag(FaultState) {
		return ErrFailed
	}
	if v.ip >= len(v.prog) {
		v.state = HaltState
		return nil
	}
	if v.stepLimit != 0 && v.steps >= v.stepLimit {
		v.state = FaultState
		return fmt.Errorf("at instruction %d: %w", v.ip, ErrStepLimit)
	}
	ip := v.ip
	if err := v.execute(v.prog[ip]); err != nil {
		v.state = FaultState
		return fmt.Errorf("at instruction %d (%s): %w", ip, v.prog[ip].Op, err)
	}
	v.steps++
	v.ip++

	switch {
	case v.ip >= len(v.prog):
		v.state = HaltState
	default:
		v.state = NoneState
		for _, p := range v.breakPoints {
			if p == v.ip {
				v.state = BreakState
			}
		}
	}
	return nil
}

// cell returns the index of the cell at shift from the current pointer.
func (v *VM) cell(shift int) (int, error) {
	c := v.ptr + shift
	if c < 0 || c >= TapeSize {
		return 0, fmt.Errorf("%w: %d", ErrTapeOverflow, c)
	}
	return c, nil
}

func (v *VM) execute(inst ir.Instruction) error {
	if inst.Op == ir.MOVE {
		v.ptr += int(inst.Move)
		return nil
	}
	cur, err := v.cell(0)
	if err != nil {
		return err
	}
	switch inst.Op {
	case ir.ADD:
		v.tape[cur] += inst.Add
	case ir.JUMPL:
		if v.tape[cur] == 0 {
			v.ip = v.jumps[v.ip]
		}
	case ir.JUMPR:
		if v.tape[cur] != 0 {
			v.ip = v.jumps[v.ip]
		}
	case ir.WRITE:
		if _, err := v.out.Write([]byte{v.tape[cur]}); err != nil {
			return err
		}
	case ir.READ:
		v.tape[cur] = EOFValue
		if v.in == nil {
			return nil
		}
		b, err := v.in.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		v.tape[cur] = b
	case ir.ZEROADD:
		old := v.tape[cur]
		v.tape[cur] = 0
		// The loop body is never entered for a zero cell, so are its cells.
		if old == 0 {
			return nil
		}
		for _, t := range inst.Terms.Slice() {
			c, err := v.cell(int(t.Shift))
			if err != nil {
				return err
			}
			v.tape[c] += old * t.Mul
		}
	default:
		return fmt.Errorf("unknown opcode %s", inst.Op)
	}
	return nil
}

// PrintOps prints the program with the current position and breakpoints
// marked.
func (v *VM) PrintOps(out io.Writer) {
	w := tabwriter.NewWriter(out, 0, 0, 4, ' ', 0)
	fmt.Fprintln(w, "INDEX\tOPCODE\tPARAMETER\t")
	for i, inst := range v.prog {
		var param string
		switch inst.Op {
		case ir.MOVE:
			param = fmt.Sprintf("%d", inst.Move)
		case ir.ADD:
			param = fmt.Sprintf("%d", inst.Add)
		case ir.JUMPL, ir.JUMPR:
			param = fmt.Sprintf("%d", v.jumps[i])
		case ir.ZEROADD:
			for _, t := range inst.Terms.Slice() {
				param += fmt.Sprintf("(%d, %d)", t.Shift, t.Mul)
			}
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t", i, inst.Op, param)
		for _, p := range v.breakPoints {
			if p == i {
				fmt.Fprint(w, "<<")
				break
			}
		}
		if i == v.ip {
			fmt.Fprint(w, "\t<<-- current")
		}
		fmt.Fprintln(w)
	}
	w.Flush()
}

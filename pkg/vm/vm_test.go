package vm

import (
	"bytes"
	"math/rand"
	"strings"
	"testing"

	"github.com/nspcc-dev/bfc/pkg/ir"
	"github.com/nspcc-dev/bfc/pkg/optimizer"
	"github.com/nspcc-dev/bfc/pkg/scanner"
	"github.com/stretchr/testify/require"
)

const helloWorld = `++++++++[>++++[>++>+++>+++>+<<<<-]>+>+>->>+[<]<-]>>.>---.+++++++..+++.>>.<-.<.+++.------.--------.>>+.>++.`

func load(t *testing.T, src string, in string) (*VM, *bytes.Buffer) {
	out := bytes.NewBuffer(nil)
	v, err := New(scanner.ScanBytes([]byte(src)), strings.NewReader(in), out)
	require.NoError(t, err)
	return v, out
}

func runOutput(t *testing.T, prog ir.Program, in string) string {
	out := bytes.NewBuffer(nil)
	v, err := New(prog, strings.NewReader(in), out)
	require.NoError(t, err)
	v.SetStepLimit(10_000_000)
	require.NoError(t, v.Run())
	require.True(t, v.HasHalted())
	return out.String()
}

func TestRunPrograms(t *testing.T) {
	testCases := []struct {
		name   string
		src    string
		in     string
		output string
	}{
		{"hello world", helloWorld, "", "Hello World!\n"},
		{"letter", "++++++++[>++++++++<-]>+.", "", "A"},
		{"echo", ",+[-.,+]", "abc", "abc"},
		{"multiply", "+++++[>++<-]>.", "", "\n"},
		{"empty", "", "", ""},
		{"comments", "no commands here", "", ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			raw := scanner.ScanBytes([]byte(tc.src))
			require.Equal(t, tc.output, runOutput(t, raw, tc.in))

			opt, err := optimizer.Optimize(raw)
			require.NoError(t, err)
			require.Equal(t, tc.output, runOutput(t, opt, tc.in))
		})
	}
}

func TestZeroAddExecution(t *testing.T) {
	za, err := ir.NewZeroAdd(ir.Term{Shift: -1, Mul: 3}, ir.Term{Shift: 2, Mul: 255})
	require.NoError(t, err)
	prog := ir.Program{ir.NewMove(1), ir.NewAdd(7), za}
	v, err := New(prog, nil, nil)
	require.NoError(t, err)
	require.NoError(t, v.Run())
	require.True(t, v.HasHalted())
	require.Equal(t, []byte{21, 0, 0, 249}, v.Tape(0, 4))
	require.Equal(t, 1, v.Pointer())
	require.Equal(t, uint64(3), v.Steps())
}

func TestZeroAddOnZeroCell(t *testing.T) {
	// Neither the loop body nor ZEROADD touches cells left of the tape
	// start when the current cell is zero.
	const src = "[-<+>]+++."
	raw := scanner.ScanBytes([]byte(src))
	require.Equal(t, "\x03", runOutput(t, raw, ""))

	opt, err := optimizer.Optimize(raw)
	require.NoError(t, err)
	require.Equal(t, ir.ZEROADD, opt[0].Op)
	require.Equal(t, "\x03", runOutput(t, opt, ""))

	// Non-zero cell still faults on the out-of-tape term.
	v, _ := load(t, "+[-<+>]", "")
	require.ErrorIs(t, v.Run(), ErrTapeOverflow)
	vo, err := New(mustOptimize(t, "+[-<+>]"), nil, nil)
	require.NoError(t, err)
	require.ErrorIs(t, vo.Run(), ErrTapeOverflow)
}

func mustOptimize(t *testing.T, src string) ir.Program {
	prog, err := optimizer.Optimize(scanner.ScanBytes([]byte(src)))
	require.NoError(t, err)
	return prog
}

func TestInvalidOpcode(t *testing.T) {
	_, err := New(ir.Program{ir.NewAdd(1), {Op: 0x07}}, nil, nil)
	require.ErrorIs(t, err, ErrInvalidOpcode)
}

func TestReadEOF(t *testing.T) {
	v, _ := load(t, ",", "")
	require.NoError(t, v.Run())
	require.Equal(t, []byte{EOFValue}, v.Tape(0, 1))

	v, err := New(scanner.ScanBytes([]byte(",")), nil, nil)
	require.NoError(t, err)
	require.NoError(t, v.Run())
	require.Equal(t, []byte{EOFValue}, v.Tape(0, 1))
}

func TestUnbalanced(t *testing.T) {
	for _, src := range []string{"[", "]", "[[]", "[]]"} {
		_, err := New(scanner.ScanBytes([]byte(src)), nil, nil)
		require.ErrorIs(t, err, ErrUnbalancedLoop, src)
	}
}

func TestTapeOverflow(t *testing.T) {
	v, _ := load(t, "<+", "")
	require.ErrorIs(t, v.Run(), ErrTapeOverflow)
	require.True(t, v.HasFailed())
	require.False(t, v.Ready())
	require.ErrorIs(t, v.Run(), ErrFailed)
	require.ErrorIs(t, v.Step(), ErrFailed)

	// Pointer is only checked on access.
	v, _ = load(t, "<>+", "")
	require.NoError(t, v.Run())
	require.True(t, v.HasHalted())
}

func TestStepLimit(t *testing.T) {
	v, _ := load(t, "+[]", "")
	v.SetStepLimit(100)
	require.ErrorIs(t, v.Run(), ErrStepLimit)
	require.True(t, v.HasFailed())
	require.Equal(t, uint64(100), v.Steps())
}

func TestBreakPoints(t *testing.T) {
	v, _ := load(t, "+++>+", "")
	v.AddBreakPoint(2)
	require.True(t, v.Ready())

	require.NoError(t, v.Run())
	require.True(t, v.AtBreakpoint())
	require.Equal(t, 2, v.IP())
	require.Equal(t, []byte{2}, v.Tape(0, 1))

	require.NoError(t, v.Step())
	require.Equal(t, 3, v.IP())
	require.Equal(t, NoneState, v.State())

	require.NoError(t, v.Run())
	require.True(t, v.HasHalted())
	require.False(t, v.Ready())
	require.Equal(t, []byte{3, 1}, v.Tape(0, 2))
}

func TestTapeClamp(t *testing.T) {
	v, _ := load(t, "", "")
	require.Len(t, v.Tape(-5, 10), 10)
	require.Len(t, v.Tape(TapeSize-2, 10), 2)
	require.Len(t, v.Tape(TapeSize+2, 10), 0)
}

func TestPrintOps(t *testing.T) {
	v, _ := load(t, "+[-]", "")
	v.AddBreakPoint(2)
	buf := bytes.NewBuffer(nil)
	v.PrintOps(buf)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	require.Contains(t, lines[0], "INDEX")
	require.Contains(t, lines[1], "ADD")
	require.Contains(t, lines[1], "<<-- current")
	require.Contains(t, lines[2], "JUMPL")
	require.Contains(t, lines[3], "<<")
}

// randomProgram generates a balanced program without I/O.
func randomProgram(r *rand.Rand, depth int) string {
	var sb strings.Builder
	n := r.Intn(12)
	for i := 0; i < n; i++ {
		switch c := r.Intn(10); {
		case c < 4:
			sb.WriteByte("+-"[r.Intn(2)])
		case c < 8:
			sb.WriteByte("<>"[r.Intn(2)])
		case depth > 0:
			sb.WriteString("[" + randomProgram(r, depth-1) + "]")
		}
	}
	return sb.String()
}

func TestOptimizerPreservesSemantics(t *testing.T) {
	fixed := []string{
		"[-<+>]+++.",
		"[->>+<<]",
		">[-<+>]<[->+<]",
	}
	r := rand.New(rand.NewSource(42))
	var compared int
	for i := 0; i < 2000+len(fixed); i++ {
		var src string
		if i < len(fixed) {
			src = fixed[i]
		} else {
			src = ">>>>>>>>" + randomProgram(r, 3)
		}
		raw := scanner.ScanBytes([]byte(src))
		opt, err := optimizer.Optimize(raw)
		if err != nil {
			continue
		}

		vr, err := New(raw, nil, nil)
		require.NoError(t, err)
		vr.SetStepLimit(100_000)
		if vr.Run() != nil {
			require.Less(t, len(fixed)-1, i, src)
			continue
		}
		vo, err := New(opt, nil, nil)
		require.NoError(t, err)
		vo.SetStepLimit(100_000)
		require.NoError(t, vo.Run(), src)
		require.Equal(t, vr.Pointer(), vo.Pointer(), src)
		require.Equal(t, vr.Tape(0, TapeSize), vo.Tape(0, TapeSize), src)
		compared++
	}
	require.Greater(t, compared, 100)
}

func TestBreakPointRel(t *testing.T) {
	v, _ := load(t, "++++", "")
	require.NoError(t, v.Step())
	v.AddBreakPointRel(2)
	require.NoError(t, v.Run())
	require.True(t, v.AtBreakpoint())
	require.Equal(t, 3, v.IP())
	require.Equal(t, "BREAK", v.State().String())
}

func TestBreakPointsCopy(t *testing.T) {
	v, _ := load(t, "++", "")
	v.AddBreakPoint(1)
	bps := v.BreakPoints()
	require.Equal(t, []int{1}, bps)
	bps[0] = 5
	require.Equal(t, []int{1}, v.BreakPoints())
}

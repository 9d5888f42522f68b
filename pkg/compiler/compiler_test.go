package compiler

import (
	"bytes"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/nspcc-dev/bfc/pkg/emit"
	"github.com/nspcc-dev/bfc/pkg/ir"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func TestCompileDump(t *testing.T) {
	testCases := []struct {
		name string
		src  string
		opts Options
		out  string
	}{
		{
			name: "optimized",
			src:  "+++++[>++<-]",
			opts: Options{Dump: emit.DumpOptions{Indent: 2}},
			out:  "add 5\nzero (mv 1, * 2)\n",
		},
		{
			name: "passes disabled",
			src:  "++[-]",
			opts: Options{DisablePasses: true, Dump: emit.DumpOptions{Indent: 2}},
			out:  "add 1\nadd 1\n[\n  add -1\n]\n",
		},
		{
			name: "unsigned",
			src:  "-",
			opts: Options{Dump: emit.DumpOptions{Unsigned: true}},
			out:  "add 255\n",
		},
		{
			name: "empty",
			src:  "",
			out:  "",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.opts.Mode = emit.ModeDump
			tc.opts.Log = zaptest.NewLogger(t)
			out, err := Compile(strings.NewReader(tc.src), &tc.opts)
			require.NoError(t, err)
			require.Equal(t, tc.out, string(out))
		})
	}
}

func TestCompileDefaultMode(t *testing.T) {
	out, err := Compile(strings.NewReader("+>"), nil)
	require.NoError(t, err)
	require.Equal(t, "add 1\nmv 1\n", string(out))

	out, err = Compile(strings.NewReader("[.]"), nil)
	require.NoError(t, err)
	require.Equal(t, "[\n  write\n]\n", string(out))
}

func TestCompileDialects(t *testing.T) {
	const src = "+++++[>++<-]>.,"
	prog, err := Program(strings.NewReader(src), nil)
	require.NoError(t, err)

	testCases := []struct {
		opts    Options
		dialect emit.Dialect
	}{
		{Options{Mode: emit.ModeLLVM}, emit.LLVM{}},
		{Options{Mode: emit.ModeLLVM, TypedPointers: true}, emit.LLVM{TypedPointers: true}},
		{Options{Mode: emit.ModeQBE}, emit.QBE{}},
	}
	for _, tc := range testCases {
		t.Run(tc.dialect.Name(), func(t *testing.T) {
			var expected bytes.Buffer
			require.NoError(t, emit.Render(&expected, tc.dialect, prog))

			tc.opts.Log = zaptest.NewLogger(t)
			out, err := Compile(strings.NewReader(src), &tc.opts)
			require.NoError(t, err)
			require.Equal(t, expected.String(), string(out))
		})
	}
}

func TestCompileErrors(t *testing.T) {
	t.Run("unknown mode", func(t *testing.T) {
		out, err := Compile(strings.NewReader("+"), &Options{Mode: "wasm"})
		require.ErrorIs(t, err, emit.ErrUnknownMode)
		require.Nil(t, out)
	})
	t.Run("unbalanced", func(t *testing.T) {
		for _, mode := range []emit.Mode{emit.ModeLLVM, emit.ModeQBE} {
			out, err := Compile(strings.NewReader("+[>+"), &Options{Mode: mode})
			require.ErrorIs(t, err, emit.ErrUnbalancedLoop)
			require.Nil(t, out)
		}
	})
	t.Run("too many terms", func(t *testing.T) {
		out, err := Compile(strings.NewReader("+[->+>+>+>+>+>+<<<<<<]"), &Options{Mode: emit.ModeLLVM})
		require.ErrorIs(t, err, ir.ErrTooManyTerms)
		require.Nil(t, out)

		// Without passes the loop stays as is.
		_, err = Compile(strings.NewReader("+[->+>+>+>+>+>+<<<<<<]"), &Options{Mode: emit.ModeLLVM, DisablePasses: true})
		require.NoError(t, err)
	})
	t.Run("negative indent", func(t *testing.T) {
		for _, src := range []string{"[.]", ""} {
			out, err := Compile(strings.NewReader(src), &Options{Dump: emit.DumpOptions{Indent: -1}})
			require.ErrorIs(t, err, emit.ErrNegativeIndent)
			require.Nil(t, out)
		}
	})
	t.Run("reader", func(t *testing.T) {
		out, err := Compile(iotest.ErrReader(iotest.ErrTimeout), nil)
		require.ErrorIs(t, err, iotest.ErrTimeout)
		require.Nil(t, out)
	})
}

func TestProgram(t *testing.T) {
	prog, err := Program(strings.NewReader("+++[-]"), &Options{Log: zaptest.NewLogger(t)})
	require.NoError(t, err)
	za, err := ir.NewZeroAdd()
	require.NoError(t, err)
	require.True(t, ir.Program{ir.NewAdd(3), za}.Equal(prog))

	prog, err = Program(strings.NewReader("+++[-]"), &Options{DisablePasses: true})
	require.NoError(t, err)
	require.Len(t, prog, 6)
}

func TestProgramPassLogs(t *testing.T) {
	var changed = func(t *testing.T, src string) []string {
		core, logs := observer.New(zap.DebugLevel)
		_, err := Program(strings.NewReader(src), &Options{Log: zap.New(core)})
		require.NoError(t, err)
		require.Equal(t, 2, logs.FilterField(zap.Bool("changed", false)).Len()+
			logs.FilterField(zap.Bool("changed", true)).Len())
		var res []string
		for _, e := range logs.FilterField(zap.Bool("changed", true)).AllUntimed() {
			res = append(res, e.Message)
		}
		return res
	}
	require.Equal(t, []string{"merge pass done", "multiply-loop pass done"}, changed(t, "+++[-]"))
	require.Equal(t, []string{"merge pass done"}, changed(t, "++."))
	require.Empty(t, changed(t, "+.>,"))
}

/*
Package compiler ties the scanner, optimization passes and emitters together
into a single batch pipeline.
*/
package compiler

import (
	"bytes"
	"fmt"
	"io"

	"github.com/nspcc-dev/bfc/pkg/emit"
	"github.com/nspcc-dev/bfc/pkg/ir"
	"github.com/nspcc-dev/bfc/pkg/optimizer"
	"github.com/nspcc-dev/bfc/pkg/scanner"
	"go.uber.org/zap"
)

// Options contains all the parameters that affect the behaviour of the compiler.
type Options struct {
	// Output mode, dump is used if empty.
	Mode emit.Mode

	// DisablePasses skips merge and multiply-loop passes.
	DisablePasses bool

	// Dump formatting options, only used for dump mode. The zero value
	// means no indentation.
	Dump emit.DumpOptions

	// TypedPointers enables pre-opaque-pointer LLVM syntax.
	TypedPointers bool

	// Log is used for debug messages, no logging happens if nil.
	Log *zap.Logger
}

func (o *Options) logger() *zap.Logger {
	if o == nil || o.Log == nil {
		return zap.NewNop()
	}
	return o.Log
}

// Program reads Brainfuck source from r and returns its IR, optimized unless
// passes are disabled.
func Program(r io.Reader, o *Options) (ir.Program, error) {
	log := o.logger()
	prog, err := scanner.Scan(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read program: %w", err)
	}
	log.Debug("program scanned", zap.Int("instructions", len(prog)))
	if o != nil && o.DisablePasses {
		return prog, nil
	}

	merged := optimizer.Merge(prog)
	log.Debug("merge pass done", zap.Int("instructions", len(merged)),
		zap.Bool("changed", !merged.Equal(prog)))
	prog, err = optimizer.MultiplyLoops(merged)
	if err != nil {
		return nil, fmt.Errorf("multiply-loop pass: %w", err)
	}
	log.Debug("multiply-loop pass done", zap.Int("instructions", len(prog)),
		zap.Bool("changed", !prog.Equal(merged)))
	return prog, nil
}

// Compile reads Brainfuck source from r and returns the complete output in
// the selected mode. Nothing is returned if any stage fails. nil options
// mean dump mode with emit.DefaultDumpOptions.
func Compile(r io.Reader, o *Options) ([]byte, error) {
	if o == nil {
		o = &Options{Dump: emit.DefaultDumpOptions()}
	}
	if o.Dump.Indent < 0 {
		return nil, fmt.Errorf("%w: %d", emit.ErrNegativeIndent, o.Dump.Indent)
	}
	mode := o.Mode
	if mode == "" {
		mode = emit.ModeDump
	}
	if _, err := emit.ParseMode(string(mode)); err != nil {
		return nil, err
	}
	prog, err := Program(r, o)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	switch mode {
	case emit.ModeDump:
		err = emit.Dump(&buf, prog, o.Dump)
	case emit.ModeLLVM:
		err = emit.Render(&buf, emit.LLVM{TypedPointers: o.TypedPointers}, prog)
	case emit.ModeQBE:
		err = emit.Render(&buf, emit.QBE{}, prog)
	}
	if err != nil {
		return nil, fmt.Errorf("%s emission: %w", mode, err)
	}
	o.logger().Debug("program emitted", zap.String("mode", string(mode)), zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

package compile

import (
	"fmt"

	"github.com/nspcc-dev/bfc/cli/cmdargs"
	"github.com/nspcc-dev/bfc/cli/input"
	"github.com/nspcc-dev/bfc/cli/options"
	"github.com/nspcc-dev/bfc/pkg/compiler"
	"github.com/nspcc-dev/bfc/pkg/config"
	"github.com/nspcc-dev/bfc/pkg/emit"
	"github.com/urfave/cli"
)

// DisablePasses is a flag turning the optimization passes off.
var DisablePasses = cli.BoolFlag{
	Name:  "disable-passes",
	Usage: "emit the program as is, without merge and multiply-loop passes",
}

var dumpFlags = []cli.Flag{
	options.ConfigFile,
	options.Debug,
	DisablePasses,
	cli.IntFlag{
		Name:  "indent",
		Usage: "number of spaces per loop nesting level",
		Value: emit.DefaultIndent,
	},
	cli.BoolFlag{
		Name:  "unsigned",
		Usage: "print add deltas and multipliers as 0..255 instead of -128..127",
	},
}

var llvmFlags = []cli.Flag{
	options.ConfigFile,
	options.Debug,
	DisablePasses,
	cli.BoolFlag{
		Name:  "typed-pointers",
		Usage: "use i8* pointers instead of opaque ptr for older LLVM versions",
	},
}

// NewCommands returns compilation commands, one per output mode.
func NewCommands() []cli.Command {
	return []cli.Command{
		{
			Name:      string(emit.ModeDump),
			Usage:     "Print optimized program in a human-readable form",
			UsageText: "bfc [--config-file file] [--debug] dump [--disable-passes] [--indent N] [--unsigned] < program.bf",
			Action:    func(ctx *cli.Context) error { return compileProgram(ctx, emit.ModeDump) },
			Flags:     dumpFlags,
		},
		{
			Name:      string(emit.ModeLLVM),
			Usage:     "Compile program into LLVM IR",
			UsageText: "bfc [--config-file file] [--debug] llvm [--disable-passes] [--typed-pointers] < program.bf",
			Action:    func(ctx *cli.Context) error { return compileProgram(ctx, emit.ModeLLVM) },
			Flags:     llvmFlags,
		},
		{
			Name:      string(emit.ModeQBE),
			Usage:     "Compile program into QBE IL",
			UsageText: "bfc [--config-file file] [--debug] qbe [--disable-passes] < program.bf",
			Action:    func(ctx *cli.Context) error { return compileProgram(ctx, emit.ModeQBE) },
			Flags:     []cli.Flag{options.ConfigFile, options.Debug, DisablePasses},
		},
	}
}

// GetCompilerOptions returns compiler options for the mode given, command line
// flags override configuration values.
func GetCompilerOptions(ctx *cli.Context, cfg config.CompilerConfiguration, mode emit.Mode) (*compiler.Options, error) {
	o := &compiler.Options{
		Mode:          mode,
		DisablePasses: cfg.DisablePasses || ctx.Bool("disable-passes"),
		Dump: emit.DumpOptions{
			Indent:   cfg.DumpIndent,
			Unsigned: cfg.DumpUnsigned || ctx.Bool("unsigned"),
		},
		TypedPointers: cfg.TypedPointers || ctx.Bool("typed-pointers"),
	}
	if ctx.IsSet("indent") {
		o.Dump.Indent = ctx.Int("indent")
	}
	if o.Dump.Indent < 0 {
		return nil, fmt.Errorf("invalid indent %d", o.Dump.Indent)
	}
	return o, nil
}

func compileProgram(ctx *cli.Context, mode emit.Mode) error {
	if err := cmdargs.EnsureNone(ctx); err != nil {
		return err
	}
	cfg, log, closer, err := options.GetLogger(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if closer != nil {
		defer func() { _ = closer() }()
	}
	defer func() { _ = log.Sync() }()

	o, err := GetCompilerOptions(ctx, cfg.CompilerConfiguration, mode)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	o.Log = log

	out, err := compiler.Compile(input.Reader(), o)
	if err != nil {
		return cli.NewExitError(fmt.Errorf("failed to compile: %w", err), 1)
	}
	if _, err := ctx.App.Writer.Write(out); err != nil {
		return cli.NewExitError(err, 1)
	}
	return nil
}

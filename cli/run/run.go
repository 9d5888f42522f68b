package run

import (
	"fmt"
	"os"

	"github.com/nspcc-dev/bfc/cli/cmdargs"
	"github.com/nspcc-dev/bfc/cli/compile"
	"github.com/nspcc-dev/bfc/cli/input"
	"github.com/nspcc-dev/bfc/cli/options"
	"github.com/nspcc-dev/bfc/pkg/compiler"
	"github.com/nspcc-dev/bfc/pkg/vm"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

// NewCommands returns 'run' command.
func NewCommands() []cli.Command {
	return []cli.Command{{
		Name:      "run",
		Usage:     "Interpret program from the file given, stdin is used as program input",
		UsageText: "bfc [--config-file file] [--debug] run [--disable-passes] [--step-limit N] <file>",
		Action:    runProgram,
		Flags: []cli.Flag{
			options.ConfigFile,
			options.Debug,
			compile.DisablePasses,
			cli.Uint64Flag{
				Name:  "step-limit",
				Usage: "maximum number of instructions to execute, 0 means no limit",
			},
		},
	}}
}

func runProgram(ctx *cli.Context) error {
	path, exitErr := cmdargs.EnsureOne(ctx, "program file")
	if exitErr != nil {
		return exitErr
	}
	cfg, log, closer, err := options.GetLogger(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if closer != nil {
		defer func() { _ = closer() }()
	}
	defer func() { _ = log.Sync() }()

	f, err := os.Open(path)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer f.Close()

	prog, err := compiler.Program(f, &compiler.Options{
		DisablePasses: cfg.CompilerConfiguration.DisablePasses || ctx.Bool("disable-passes"),
		Log:           log,
	})
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	v, err := vm.New(prog, input.Reader(), ctx.App.Writer)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	v.SetStepLimit(ctx.Uint64("step-limit"))

	err = v.Run()
	log.Debug("program finished",
		zap.Stringer("state", v.State()),
		zap.Uint64("steps", v.Steps()),
		zap.Int("pointer", v.Pointer()))
	if err != nil {
		return cli.NewExitError(fmt.Errorf("execution failed: %w", err), 1)
	}
	return nil
}

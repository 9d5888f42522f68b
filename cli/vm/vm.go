package vm

import (
	"os"

	"github.com/chzyer/readline"
	"github.com/nspcc-dev/bfc/cli/cmdargs"
	"github.com/nspcc-dev/bfc/cli/compile"
	"github.com/nspcc-dev/bfc/cli/options"
	"github.com/urfave/cli"
)

// NewCommands returns 'vm' command.
func NewCommands() []cli.Command {
	return []cli.Command{{
		Name:      "vm",
		Usage:     "Start the interactive Brainfuck VM prompt",
		UsageText: "bfc [--config-file file] vm [--disable-passes] [--step-limit N]",
		Action:    startVMPrompt,
		Flags: []cli.Flag{
			options.ConfigFile,
			compile.DisablePasses,
			cli.Uint64Flag{
				Name:  "step-limit",
				Usage: "maximum number of instructions to execute per program run, 0 means no limit",
			},
		},
	}}
}

func startVMPrompt(ctx *cli.Context) error {
	if err := cmdargs.EnsureNone(ctx); err != nil {
		return err
	}
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	o := Options{
		DisablePasses: cfg.CompilerConfiguration.DisablePasses || ctx.Bool("disable-passes"),
		StepLimit:     ctx.Uint64("step-limit"),
	}
	p, err := NewWithConfig(true, os.Exit, &readline.Config{}, o)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if err := p.Run(); err != nil {
		return cli.NewExitError(err, 1)
	}
	return nil
}

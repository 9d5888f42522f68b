package app

import (
	"fmt"
	"os"
	"runtime"

	"github.com/nspcc-dev/bfc/cli/compile"
	"github.com/nspcc-dev/bfc/cli/options"
	"github.com/nspcc-dev/bfc/cli/run"
	"github.com/nspcc-dev/bfc/cli/vm"
	"github.com/nspcc-dev/bfc/pkg/config"
	"github.com/urfave/cli"
)

func versionPrinter(c *cli.Context) {
	_, _ = fmt.Fprintf(c.App.Writer, "bfc\nVersion: %s\nGoVersion: %s\n",
		config.Version,
		runtime.Version(),
	)
}

// New creates a bfc instance of [cli.App] with all commands included.
func New() *cli.App {
	cli.VersionPrinter = versionPrinter
	ctl := cli.NewApp()
	ctl.Name = "bfc"
	ctl.Version = config.Version
	ctl.Usage = "Optimizing Brainfuck compiler emitting LLVM IR and QBE IL"
	ctl.ErrWriter = os.Stderr
	ctl.Flags = options.Global

	ctl.Commands = append(ctl.Commands, compile.NewCommands()...)
	ctl.Commands = append(ctl.Commands, run.NewCommands()...)
	ctl.Commands = append(ctl.Commands, vm.NewCommands()...)
	return ctl
}

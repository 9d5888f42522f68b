package cmdargs

import (
	"fmt"

	"github.com/urfave/cli"
)

// EnsureNone returns an error if there are any positional arguments present.
// It can be used to check them in commands that don't accept arguments.
func EnsureNone(ctx *cli.Context) *cli.ExitError {
	if ctx.Args().Present() {
		return cli.NewExitError("additional arguments given while this command expects none", 1)
	}
	return nil
}

// EnsureOne returns the only positional argument given or an error if there
// are none or more than one.
func EnsureOne(ctx *cli.Context, name string) (string, *cli.ExitError) {
	args := ctx.Args()
	switch {
	case !args.Present():
		return "", cli.NewExitError(fmt.Errorf("missing %s", name), 1)
	case len(args) > 1:
		return "", cli.NewExitError(fmt.Errorf("only one %s expected, got %d arguments", name, len(args)), 1)
	}
	return args.First(), nil
}

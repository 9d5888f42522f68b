package vm

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/davecgh/go-spew/spew"
	"github.com/kballard/go-shellquote"
	"github.com/nspcc-dev/bfc/pkg/compiler"
	"github.com/nspcc-dev/bfc/pkg/config"
	"github.com/nspcc-dev/bfc/pkg/ir"
	"github.com/nspcc-dev/bfc/pkg/vm"
	"github.com/urfave/cli"
)

const (
	vmKey               = "vm"
	programKey          = "program"
	optionsKey          = "options"
	exitFuncKey         = "exitFunc"
	readlineInstanceKey = "readlineKey"
	printLogoKey        = "printLogoKey"
)

// Number of cells shown by 'tape' command by default.
const defaultTapeCount = 16

var commands = []cli.Command{
	{
		Name:        "exit",
		Usage:       "Exit the VM prompt",
		Description: "Exit the VM prompt",
		Action:      handleExit,
	},
	{
		Name:        "ip",
		Usage:       "Show current instruction",
		Description: "Show current instruction",
		Action:      handleIP,
	},
	{
		Name:      "break",
		Usage:     "Place a breakpoint",
		UsageText: `break <ip>|<opcode>`,
		Description: `break <ip>|<opcode>
<ip> is an instruction index, <opcode> places a breakpoint at every
     instruction of this kind in the loaded program, examples:
> break 12
> break zeroadd`,
		Action: handleBreak,
	},
	{
		Name:      "load",
		Usage:     "Load a program from the file into the VM",
		UsageText: `load <file>`,
		Description: `load <file>
<file> is mandatory parameter, example:
> load /path/to/hello.bf`,
		Action: handleLoad,
	},
	{
		Name:      "loadbf",
		Usage:     "Load a program from the string into the VM",
		UsageText: `loadbf <code>`,
		Description: `loadbf <code>
<code> is mandatory parameter, use quotes for code with spaces and put
       '--' before code starting with '-', example:
> loadbf "+++++[>++<-]>."`,
		Action: handleLoadBF,
	},
	{
		Name:   "reset",
		Usage:  "Unload the program from the VM",
		Action: handleReset,
	},
	{
		Name:      "run",
		Usage:     "Execute the current loaded program from the beginning",
		UsageText: `run [<input>]`,
		Description: `run [<input>]
<input> is an optional string the program reads from, EOF is
        returned after it's exhausted. Breakpoints are kept. Example:
> run "some input"`,
		Action: handleRun,
	},
	{
		Name:        "cont",
		Usage:       "Continue execution of the current loaded program",
		Description: "Continue execution of the current loaded program",
		Action:      handleCont,
	},
	{
		Name:      "step",
		Usage:     "Step (n) instruction in the program",
		UsageText: `step [<n>]`,
		Description: `step [<n>]
<n> is optional parameter to specify number of instructions to run, example:
> step 10`,
		Action: handleStep,
	},
	{
		Name:      "tape",
		Usage:     "Show tape contents",
		UsageText: `tape [<from> [<count>]]`,
		Description: `tape [<from> [<count>]]
<from> is the first cell to show, the current one is used by default.
<count> is the number of cells to show (16 by default). Example:
> tape 0 32`,
		Action: handleTape,
	},
	{
		Name:        "ops",
		Usage:       "Dump instructions of the current loaded program",
		Description: "Dump instructions of the current loaded program",
		Action:      handleOps,
	},
}

var completer *readline.PrefixCompleter

func init() {
	var pcItems []readline.PrefixCompleterInterface
	for _, c := range commands {
		if !c.Hidden {
			var flagsItems []readline.PrefixCompleterInterface
			for _, f := range c.Flags {
				names := strings.SplitN(f.GetName(), ", ", 2) // only long name will be offered
				flagsItems = append(flagsItems, readline.PcItem("--"+names[0]))
			}
			pcItems = append(pcItems, readline.PcItem(c.Name, flagsItems...))
		}
	}
	completer = readline.NewPrefixCompleter(pcItems...)
}

// Various errors.
var (
	ErrMissingParameter = errors.New("missing argument")
	ErrInvalidParameter = errors.New("can't parse argument")
)

// Options are the settings used to load programs into the VM.
type Options struct {
	DisablePasses bool
	StepLimit     uint64
}

// VMCLI object for interacting with the VM.
type VMCLI struct {
	shell *cli.App
}

// NewWithConfig returns new VMCLI instance using provided readline config.
// onExit is called on 'exit' command.
func NewWithConfig(printLogotype bool, onExit func(int), c *readline.Config, o Options) (*VMCLI, error) {
	if c.AutoComplete == nil {
		// Autocomplete commands/flags on TAB.
		c.AutoComplete = completer
	}
	l, err := readline.NewEx(c)
	if err != nil {
		return nil, fmt.Errorf("failed to create readline instance: %w", err)
	}
	ctl := cli.NewApp()
	ctl.Name = "VM CLI"

	// Note: need to set empty `ctl.HelpName` and `ctl.UsageText`, otherwise
	// `filepath.Base(os.Args[0])` will be used which is `bfc`.
	ctl.HelpName = ""
	ctl.UsageText = ""

	ctl.Writer = l.Stdout()
	ctl.ErrWriter = l.Stderr()
	ctl.Version = config.Version
	ctl.Usage = "Brainfuck VM CLI"

	// Override default error handler in order not to exit on error.
	ctl.ExitErrHandler = func(context *cli.Context, err error) {}

	ctl.Commands = commands

	vmcli := VMCLI{
		shell: ctl,
	}

	vmcli.shell.Metadata = map[string]interface{}{
		vmKey:               (*vm.VM)(nil),
		programKey:          ir.Program(nil),
		optionsKey:          o,
		exitFuncKey:         onExit,
		readlineInstanceKey: l,
		printLogoKey:        printLogotype,
	}
	changePrompt(vmcli.shell)
	return &vmcli, nil
}

func getExitFuncFromContext(app *cli.App) func(int) {
	return app.Metadata[exitFuncKey].(func(int))
}

func getReadlineInstanceFromContext(app *cli.App) *readline.Instance {
	return app.Metadata[readlineInstanceKey].(*readline.Instance)
}

func getVMFromContext(app *cli.App) *vm.VM {
	return app.Metadata[vmKey].(*vm.VM)
}

func getProgramFromContext(app *cli.App) ir.Program {
	return app.Metadata[programKey].(ir.Program)
}

func getOptionsFromContext(app *cli.App) Options {
	return app.Metadata[optionsKey].(Options)
}

func getPrintLogoFromContext(app *cli.App) bool {
	return app.Metadata[printLogoKey].(bool)
}

func setVMInContext(app *cli.App, v *vm.VM) {
	app.Metadata[vmKey] = v
}

func setProgramInContext(app *cli.App, prog ir.Program) {
	app.Metadata[programKey] = prog
}

func checkVMIsLoaded(app *cli.App) bool {
	if getVMFromContext(app) == nil {
		writeErr(app.Writer, fmt.Errorf("VM is not ready: %w", vm.ErrNotReady))
		return false
	}
	return true
}

func checkVMIsReady(app *cli.App) bool {
	if !checkVMIsLoaded(app) {
		return false
	}
	if !getVMFromContext(app).Ready() {
		writeErr(app.Writer, errors.New("VM is not ready: execution has finished, use 'run' to restart"))
		return false
	}
	return true
}

func handleExit(c *cli.Context) error {
	l := getReadlineInstanceFromContext(c.App)
	_ = l.Close()
	exit := getExitFuncFromContext(c.App)
	fmt.Fprintln(c.App.Writer, "Bye!")
	exit(0)
	return nil
}

func handleIP(c *cli.Context) error {
	if !checkVMIsLoaded(c.App) {
		return nil
	}
	v := getVMFromContext(c.App)
	if ip := v.IP(); ip < len(v.Program()) {
		fmt.Fprintf(c.App.Writer, "instruction pointer at %d (%s)\n", ip, v.Program()[ip].Op)
	} else {
		fmt.Fprintln(c.App.Writer, "execution has finished")
	}
	return nil
}

func handleBreak(c *cli.Context) error {
	if !checkVMIsLoaded(c.App) {
		return nil
	}
	v := getVMFromContext(c.App)
	args := c.Args()
	if len(args) != 1 {
		return fmt.Errorf("%w: <ip>", ErrMissingParameter)
	}
	n, err := strconv.Atoi(args[0])
	if err == nil {
		v.AddBreakPoint(n)
		fmt.Fprintf(c.App.Writer, "breakpoint added at instruction %d\n", n)
		return nil
	}
	op, opErr := ir.FromString(strings.ToUpper(args[0]))
	if opErr != nil {
		return fmt.Errorf("%w: %s", ErrInvalidParameter, err)
	}
	var found bool
	for i, inst := range v.Program() {
		if inst.Op == op {
			v.AddBreakPoint(i)
			fmt.Fprintf(c.App.Writer, "breakpoint added at instruction %d (%s)\n", i, op)
			found = true
		}
	}
	if !found {
		fmt.Fprintf(c.App.Writer, "no %s instructions in the program\n", op)
	}
	return nil
}

func handleLoad(c *cli.Context) error {
	args := c.Args()
	if len(args) < 1 {
		return fmt.Errorf("%w: <file>", ErrMissingParameter)
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()
	return loadProgram(c.App, f)
}

func handleLoadBF(c *cli.Context) error {
	args := c.Args()
	if len(args) < 1 {
		return fmt.Errorf("%w: <code>", ErrMissingParameter)
	}
	return loadProgram(c.App, strings.NewReader(strings.Join(args, " ")))
}

func loadProgram(app *cli.App, r io.Reader) error {
	o := getOptionsFromContext(app)
	prog, err := compiler.Program(r, &compiler.Options{DisablePasses: o.DisablePasses})
	if err != nil {
		return err
	}
	v, err := newVM(app, prog, nil, nil)
	if err != nil {
		return err
	}
	setProgramInContext(app, prog)
	setVMInContext(app, v)
	fmt.Fprintf(app.Writer, "READY: loaded %d instructions\n", len(prog))
	changePrompt(app)
	return nil
}

func newVM(app *cli.App, prog ir.Program, in io.Reader, breakPoints []int) (*vm.VM, error) {
	v, err := vm.New(prog, in, app.Writer)
	if err != nil {
		return nil, err
	}
	v.SetStepLimit(getOptionsFromContext(app).StepLimit)
	for _, bp := range breakPoints {
		v.AddBreakPoint(bp)
	}
	return v, nil
}

func handleReset(c *cli.Context) error {
	setVMInContext(c.App, nil)
	setProgramInContext(c.App, nil)
	changePrompt(c.App)
	return nil
}

func handleRun(c *cli.Context) error {
	if !checkVMIsLoaded(c.App) {
		return nil
	}
	var in io.Reader
	if args := c.Args(); len(args) != 0 {
		in = strings.NewReader(strings.Join(args, " "))
	}
	old := getVMFromContext(c.App)
	v, err := newVM(c.App, getProgramFromContext(c.App), in, old.BreakPoints())
	if err != nil {
		return err
	}
	setVMInContext(c.App, v)
	runVMWithHandling(c)
	changePrompt(c.App)
	return nil
}

func runVMWithHandling(c *cli.Context) {
	v := getVMFromContext(c.App)
	err := v.Run()
	if err != nil {
		writeErr(c.App.ErrWriter, err)
	}

	var message string
	switch {
	case v.HasFailed():
		message = "" // the error is printed already
	case v.HasHalted():
		message = fmt.Sprintf("\nexecution has finished in %d steps", v.Steps())
	case v.AtBreakpoint():
		if ip := v.IP(); ip < len(v.Program()) {
			message = fmt.Sprintf("\nat breakpoint %d (%s)", ip, v.Program()[ip].Op)
		} else {
			message = "\nexecution has finished"
		}
	}
	if message != "" {
		fmt.Fprintln(c.App.Writer, message)
	}
}

func handleCont(c *cli.Context) error {
	if !checkVMIsReady(c.App) {
		return nil
	}
	runVMWithHandling(c)
	changePrompt(c.App)
	return nil
}

func handleStep(c *cli.Context) error {
	var (
		n   = 1
		err error
	)

	if !checkVMIsReady(c.App) {
		return nil
	}
	v := getVMFromContext(c.App)
	args := c.Args()
	if len(args) > 0 {
		n, err = strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidParameter, err)
		}
	}
	v.AddBreakPointRel(n)
	runVMWithHandling(c)
	changePrompt(c.App)
	return nil
}

func handleTape(c *cli.Context) error {
	if !checkVMIsLoaded(c.App) {
		return nil
	}
	var (
		v     = getVMFromContext(c.App)
		from  = v.Pointer()
		count = defaultTapeCount
		args  = c.Args()
		err   error
	)
	if len(args) > 0 {
		from, err = strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidParameter, err)
		}
	}
	if len(args) > 1 {
		count, err = strconv.Atoi(args[1])
		if err != nil || count < 0 {
			return fmt.Errorf("%w: invalid count %q", ErrInvalidParameter, args[1])
		}
	}
	fmt.Fprintf(c.App.Writer, "pointer at %d, cells from %d:\n", v.Pointer(), from)
	fmt.Fprint(c.App.Writer, spew.Sdump(v.Tape(from, count)))
	return nil
}

func handleOps(c *cli.Context) error {
	if !checkVMIsLoaded(c.App) {
		return nil
	}
	v := getVMFromContext(c.App)
	out := bytes.NewBuffer(nil)
	v.PrintOps(out)
	fmt.Fprintln(c.App.Writer, out.String())
	return nil
}

func changePrompt(app *cli.App) {
	v := getVMFromContext(app)
	l := getReadlineInstanceFromContext(app)
	if v != nil && v.Ready() {
		l.SetPrompt(fmt.Sprintf("\033[32mBFC-VM %d >\033[0m ", v.IP()))
	} else {
		l.SetPrompt("\033[32mBFC-VM >\033[0m ")
	}
}

// Run waits for user input from Stdin and executes the passed command.
func (c *VMCLI) Run() error {
	if getPrintLogoFromContext(c.shell) {
		printLogo(c.shell.Writer)
	}
	l := getReadlineInstanceFromContext(c.shell)
	for {
		line, err := l.Readline()
		if errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt) {
			return nil // OK, stop execution.
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err) // Critical error, stop execution.
		}

		args, err := shellquote.Split(line)
		if err != nil {
			writeErr(c.shell.ErrWriter, fmt.Errorf("failed to parse arguments: %w", err))
			continue // Not a critical error, continue execution.
		}
		if len(args) == 0 {
			continue
		}

		err = c.shell.Run(append([]string{"vm"}, args...))
		if err != nil {
			writeErr(c.shell.ErrWriter, err) // Various command/flags parsing errors and execution errors.
		}
	}
}

func printLogo(w io.Writer) {
	logo := `
    ____  ___________      _    ____  ___
   / __ )/ ____/ ____/    | |  / /  |/  /
  / __  / /_  / /   ______| | / / /|_/ /
 / /_/ / __/ / /___/_____/| |/ / /  / /
/_____/_/    \____/       |___/_/  /_/
`
	fmt.Fprint(w, logo)
	fmt.Fprintln(w)
	fmt.Fprintln(w)
}

func writeErr(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %s\n", err)
}

// Package cli implements the ms command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/missions/internal/config"
)

const helpFlag = "--help"

// Run is the main entry point. Returns exit code.
// sigCh, if non-nil, cancels the command context on the first signal.
func Run(in io.Reader, out io.Writer, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	globals := flag.NewFlagSet("ms", flag.ContinueOnError)
	globals.SetInterspersed(false)
	globals.SetOutput(&strings.Builder{})

	help := globals.BoolP("help", "h", false, "Show help")
	workDir := globals.StringP("cwd", "C", "", "Run as if started in `dir`")
	configPath := globals.StringP("config", "c", "", "Use specified config `file`")
	dataDir := globals.String("data-dir", "", "Override data directory")
	backend := globals.String("backend", "", "Storage backend (file|sqlite|redis|postgres|memory)")

	a := &app{in: in, out: out, errOut: errOut, env: env}
	cmds := a.commands()

	if len(args) == 0 {
		args = []string{"ms"}
	}

	err := globals.Parse(args[1:])
	if err != nil {
		fprintln(errOut, "error:", err)
		fprintln(errOut)
		printUsage(errOut, globals, cmds)

		return 1
	}

	if globals.Changed("data-dir") && strings.TrimSpace(*dataDir) == "" {
		fprintln(errOut, "error:", config.ErrDataDirEmpty)
		fprintln(errOut)
		printUsage(errOut, globals, cmds)

		return 1
	}

	rest := globals.Args()
	if *help || len(rest) == 0 {
		printUsage(out, globals, cmds)

		return 0
	}

	cmd := findCommand(cmds, rest[0])
	if cmd == nil {
		fprintln(errOut, "error: unknown command:", rest[0])
		fprintln(errOut)
		printUsage(errOut, globals, cmds)

		return 1
	}

	o := NewIO(out, errOut)

	if hasHelpFlag(rest[1:]) {
		cmd.PrintHelp(o)

		return 0
	}

	cfg, err := config.Load(config.LoadInput{
		WorkDirOverride: *workDir,
		ConfigPath:      *configPath,
		DataDir:         *dataDir,
		Backend:         *backend,
		Env:             env,
	})
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	a.cfg = cfg

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if sigCh != nil {
		go func() {
			select {
			case <-sigCh:
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	if !cmd.Offline {
		err = a.open(ctx)
		if err != nil {
			fprintln(errOut, "error:", err)

			return 1
		}
		defer a.close()

		if !cmd.Scheduled {
			a.scheduler(nil).RunOnce(ctx)
		}
	}

	code := cmd.Run(ctx, o, rest[1:])

	if o.Finish() != 0 {
		return 1
	}

	return code
}

// commands returns a fresh command table. Flag sets keep parsed values, so
// the shell builds a new table per line.
func (a *app) commands() []*Command {
	return []*Command{
		a.projectAddCmd(),
		a.projectEditCmd(),
		a.projectRmCmd(),
		a.missionAddCmd(),
		a.missionEditCmd(),
		a.missionRmCmd(),
		a.dailyAddCmd(),
		a.dailyEditCmd(),
		a.dailyToggleCmd(),
		a.dailyRmCmd(),
		a.lsCmd(),
		a.showCmd(),
		a.statsCmd(),
		a.exportCmd(),
		a.resetCmd(),
		a.watchCmd(),
		a.shellCmd(),
		a.printConfigCmd(),
	}
}

func findCommand(cmds []*Command, name string) *Command {
	for _, c := range cmds {
		if c.Name() == name {
			return c
		}
	}

	return nil
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func hasHelpFlag(args []string) bool {
	for _, arg := range args {
		if arg == "-h" || arg == helpFlag {
			return true
		}
	}

	return false
}

func printUsage(w io.Writer, globals *flag.FlagSet, cmds []*Command) {
	fprintln(w, "ms - projects, missions and daily missions")
	fprintln(w)
	fprintln(w, "Usage: ms [global flags] <command> [args]")
	fprintln(w)
	fprintln(w, "Global flags:")

	var buf strings.Builder
	globals.SetOutput(&buf)
	globals.PrintDefaults()
	globals.SetOutput(&strings.Builder{})

	_, _ = io.WriteString(w, buf.String())

	fprintln(w)
	fprintln(w, "Commands:")

	for _, c := range cmds {
		fprintln(w, c.HelpLine())
	}
}

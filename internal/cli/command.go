package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"
)

// Command defines a CLI command with unified help generation.
type Command struct {
	// Flags defines command-specific flags.
	Flags *flag.FlagSet

	// Usage is the freeform usage string shown after "ms" in help.
	// Examples: "project-add <title>", "ls", "daily-add <pid> <mid> <title> [flags]"
	Usage string

	// Short is a one-line description for the global help listing.
	Short string

	// Long is the full description shown in command help.
	// If empty, Short is used instead.
	Long string

	// Offline commands run without opening the store.
	Offline bool

	// Scheduled commands drive the reset pass themselves, so Run skips the
	// startup pass for them.
	Scheduled bool

	// Exec runs the command after flags are parsed.
	Exec func(ctx context.Context, o *IO, args []string) error
}

// Name returns the command name (first word of Usage).
func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")
	return name
}

// HelpLine returns the short help line for the main usage display.
func (c *Command) HelpLine() string {
	return fmt.Sprintf("  %-40s %s", c.Usage, c.Short)
}

// PrintHelp prints the full help output for "ms <cmd> --help".
func (c *Command) PrintHelp(o *IO) {
	o.Println("Usage: ms", c.Usage)
	o.Println()

	desc := c.Long
	if desc == "" {
		desc = c.Short
	}

	o.Println(desc)

	if c.Flags != nil && c.Flags.HasFlags() {
		o.Println()
		o.Println("Flags:")

		var buf strings.Builder
		c.Flags.SetOutput(&buf)
		c.Flags.PrintDefaults()
		o.Printf("%s", buf.String())
	}
}

// Run parses flags and executes the command. Returns exit code.
func (c *Command) Run(ctx context.Context, o *IO, args []string) int {
	if c.Flags == nil {
		c.Flags = flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	}

	c.Flags.SetOutput(&strings.Builder{}) // discard pflag output

	err := c.Flags.Parse(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			c.PrintHelp(o)
			return 0
		}

		o.ErrPrintln("error:", err)
		o.ErrPrintln()
		c.printUsageTo(o)

		return 1
	}

	err = c.Exec(ctx, o, c.Flags.Args())
	if err != nil {
		o.ErrPrintln("error:", err)
		return 1
	}

	return 0
}

func (c *Command) printUsageTo(o *IO) {
	o.ErrPrintln("Usage: ms", c.Usage)

	if c.Flags != nil && c.Flags.HasFlags() {
		var buf strings.Builder
		c.Flags.SetOutput(&buf)
		c.Flags.PrintDefaults()
		o.ErrPrintln()
		o.ErrPrintln("Flags:")
		o.ErrPrintf("%s", buf.String())
	}
}

var errArgs = errors.New("wrong number of arguments")

// positional splits args into exactly n ids followed by an optional
// free-text tail joined with spaces. tail=true requires a non-empty tail.
func (c *Command) positional(args []string, n int, tail bool) ([]string, string, error) {
	if len(args) < n || (!tail && len(args) > n) || (tail && len(args) == n) {
		return nil, "", fmt.Errorf("%w (usage: ms %s)", errArgs, c.Usage)
	}

	return args[:n], strings.Join(args[n:], " "), nil
}

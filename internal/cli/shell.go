package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-shellwords"
	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"
)

var (
	errUnterminatedQuote = errors.New("unterminated quote or escape")
	errControlOperator   = errors.New("unquoted ; & | < or > (quote it to use it in a title)")
)

// lineReader is satisfied by historyState and by scanReader.
type lineReader interface {
	Prompt(prompt string) (string, error)
	Close() error
}

// scanReader reads lines from a non-terminal input without editing.
type scanReader struct {
	sc *bufio.Scanner
}

func (s scanReader) Prompt(string) (string, error) {
	if !s.sc.Scan() {
		if err := s.sc.Err(); err != nil {
			return "", err
		}

		return "", io.EOF
	}

	return s.sc.Text(), nil
}

func (scanReader) Close() error { return nil }

func (a *app) shellCmd() *Command {
	c := &Command{
		Flags: flag.NewFlagSet("shell", flag.ContinueOnError),
		Usage: "shell",
		Short: "Interactive shell with the reset scheduler running",
		Long: "Read commands line by line and run them against one open store.\n" +
			"Recurring daily missions are reset in the background at every local midnight.\n" +
			"Type 'help' for commands, 'exit' to quit.",
		Scheduled: true,
	}

	c.Exec = func(ctx context.Context, o *IO, args []string) error {
		_, _, err := c.positional(args, 0, false)
		if err != nil {
			return err
		}

		var mu sync.Mutex

		out := lockedWriter{mu: &mu, w: a.out}
		errOut := lockedWriter{mu: &mu, w: a.errOut}

		sched := a.scheduler(func(reset int, _ time.Time) {
			if reset > 0 {
				_, _ = fmt.Fprintf(out, "(reset %d recurring daily missions)\n", reset)
			}
		})

		err = sched.Start(ctx)
		if err != nil {
			return err
		}
		defer sched.Stop()

		r, history := a.lineReader()
		defer func() {
			if history != nil {
				history()
			}

			_ = r.Close()
		}()

		return a.repl(ctx, r, out, errOut)
	}

	return c
}

// lineReader uses liner on an interactive stdin and a plain scanner otherwise.
// The returned func saves history, if any.
func (a *app) lineReader() (lineReader, func()) {
	f, ok := a.in.(*os.File)
	if !ok || f != os.Stdin || !liner.TerminalSupported() {
		in := a.in
		if in == nil {
			in = strings.NewReader("")
		}

		return scanReader{sc: bufio.NewScanner(in)}, nil
	}

	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	state.SetCompleter(func(line string) []string {
		var out []string

		for _, c := range a.shellCommands() {
			if strings.HasPrefix(c.Name(), line) {
				out = append(out, c.Name())
			}
		}

		return out
	})

	path := a.historyFile()
	if path != "" {
		if hf, err := os.Open(path); err == nil {
			_, _ = state.ReadHistory(hf)
			_ = hf.Close()
		}
	}

	save := func() {
		if path == "" {
			return
		}

		if hf, err := os.Create(path); err == nil {
			_, _ = state.WriteHistory(hf)
			_ = hf.Close()
		}
	}

	// Lines are added to history as they are read.
	return historyState{State: state}, save
}

type historyState struct {
	*liner.State
}

func (h historyState) Prompt(p string) (string, error) {
	line, err := h.State.Prompt(p)
	if err == nil && strings.TrimSpace(line) != "" {
		h.AppendHistory(line)
	}

	return line, err
}

// shellCommands is the command table minus the commands that own the process.
func (a *app) shellCommands() []*Command {
	var cmds []*Command

	for _, c := range a.commands() {
		switch c.Name() {
		case "shell", "watch", "print-config":
			continue
		}

		cmds = append(cmds, c)
	}

	return cmds
}

func (a *app) repl(ctx context.Context, r lineReader, out, errOut io.Writer) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		line, err := r.Prompt("ms> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return nil
			}

			return fmt.Errorf("reading input: %w", err)
		}

		words, err := splitWords(line)
		if err != nil {
			fprintln(errOut, "error:", err)

			continue
		}

		if len(words) == 0 {
			continue
		}

		switch words[0] {
		case "exit", "quit", "q":
			return nil
		case "help", "?":
			for _, c := range a.shellCommands() {
				fprintln(out, c.HelpLine())
			}

			fprintln(out, "  exit")

			continue
		}

		cmd := findCommand(a.shellCommands(), words[0])
		if cmd == nil {
			fprintln(errOut, "unknown command:", words[0], "(type 'help' for commands)")

			continue
		}

		o := NewIO(out, errOut)
		cmd.Run(ctx, o, words[1:])
		o.Finish()
	}
}

// splitWords splits a shell line into words with POSIX quoting and
// backslash escapes. Variables and backticks are left as written.
func splitWords(line string) ([]string, error) {
	p := shellwords.NewParser()

	words, err := p.Parse(line)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errUnterminatedQuote, err)
	}

	// Parse stops at the first unquoted control operator.
	if p.Position >= 0 {
		return nil, fmt.Errorf("%w at column %d", errControlOperator, p.Position+1)
	}

	return words, nil
}

package cli

import (
	"context"
	"time"

	flag "github.com/spf13/pflag"
)

func (a *app) resetCmd() *Command {
	c := &Command{
		Flags:     flag.NewFlagSet("reset", flag.ContinueOnError),
		Usage:     "reset",
		Short:     "Uncheck recurring daily missions that are due, prints count",
		Scheduled: true,
	}

	c.Exec = func(ctx context.Context, o *IO, args []string) error {
		_, _, err := c.positional(args, 0, false)
		if err != nil {
			return err
		}

		n, err := a.store.ResetRecurring(ctx)
		if err = a.saved(o, err); err != nil {
			return err
		}

		o.Println(n)

		return nil
	}

	return c
}

func (a *app) watchCmd() *Command {
	c := &Command{
		Flags: flag.NewFlagSet("watch", flag.ContinueOnError),
		Usage: "watch",
		Short: "Run the reset pass now and at every local midnight",
		Long: "Run the recurrence reset immediately and then at every midnight in the\n" +
			"configured timezone, until interrupted (SIGINT/SIGTERM).",
		Scheduled: true,
	}

	c.Exec = func(ctx context.Context, o *IO, args []string) error {
		_, _, err := c.positional(args, 0, false)
		if err != nil {
			return err
		}

		sched := a.scheduler(func(reset int, next time.Time) {
			o.Printf("reset %d, next pass %s\n", reset, next.Format(time.RFC3339))
		})

		err = sched.Start(ctx)
		if err != nil {
			return err
		}

		<-ctx.Done()
		sched.Stop()

		o.Println("stopped")

		return nil
	}

	return c
}

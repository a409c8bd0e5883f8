package cli

import (
	"context"
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/missions/internal/hierarchy"
)

func (a *app) dailyAddCmd() *Command {
	fs := flag.NewFlagSet("daily-add", flag.ContinueOnError)
	recurring := fs.BoolP("recurring", "r", false, "Reset after completion")
	every := fs.IntP("every", "e", 1, "Recurrence interval in days (implies --recurring)")

	c := &Command{
		Flags: fs,
		Usage: "daily-add <pid> <mid> <title> [flags]",
		Short: "Create daily mission, prints ID",
		Long: "Create a daily mission under a mission. It inherits the mission's target date.\n" +
			"Recurring daily missions are unchecked again once --every days have passed since completion.",
	}

	c.Exec = func(ctx context.Context, o *IO, args []string) error {
		ids, title, err := c.positional(args, 2, true)
		if err != nil {
			return err
		}

		// The store reads a zero interval as "use the default".
		if fs.Changed("every") && *every < 1 {
			return fmt.Errorf("%w: --every %d: recurring interval must be >= 1", hierarchy.ErrValidation, *every)
		}

		in := hierarchy.NewDailyMission{
			Title:             title,
			Recurring:         *recurring || fs.Changed("every"),
			RecurringInterval: *every,
		}

		id, err := a.store.AddDailyMission(ctx, ids[0], ids[1], in)
		if id == "" {
			return err
		}

		o.Println(id)

		return a.saved(o, err)
	}

	return c
}

func (a *app) dailyEditCmd() *Command {
	fs := flag.NewFlagSet("daily-edit", flag.ContinueOnError)
	title := fs.StringP("title", "t", "", "New title")
	recurring := fs.BoolP("recurring", "r", false, "Recurring (use --recurring=false to stop)")
	every := fs.IntP("every", "e", 1, "Recurrence interval in days")

	c := &Command{
		Flags: fs,
		Usage: "daily-edit <pid> <mid> <did> [flags]",
		Short: "Edit daily mission title or recurrence",
	}

	c.Exec = func(ctx context.Context, o *IO, args []string) error {
		ids, _, err := c.positional(args, 3, false)
		if err != nil {
			return err
		}

		var patch hierarchy.DailyMissionPatch

		if fs.Changed("title") {
			patch.Title = title
		}

		if fs.Changed("recurring") {
			patch.Recurring = recurring
		}

		if fs.Changed("every") {
			patch.RecurringInterval = every
		}

		if patch.Title == nil && patch.Recurring == nil && patch.RecurringInterval == nil {
			return errNothingToChange
		}

		err = a.store.UpdateDailyMission(ctx, ids[0], ids[1], ids[2], patch)
		if err = a.saved(o, err); err != nil {
			return err
		}

		o.Println("Updated", ids[2])

		return nil
	}

	return c
}

func (a *app) dailyToggleCmd() *Command {
	c := &Command{
		Flags: flag.NewFlagSet("daily-toggle", flag.ContinueOnError),
		Usage: "daily-toggle <pid> <mid> <did>",
		Short: "Check or uncheck daily mission",
	}

	c.Exec = func(ctx context.Context, o *IO, args []string) error {
		ids, _, err := c.positional(args, 3, false)
		if err != nil {
			return err
		}

		err = a.store.ToggleDailyMission(ctx, ids[0], ids[1], ids[2])
		if err = a.saved(o, err); err != nil {
			return err
		}

		d, err := a.store.DailyMission(ids[0], ids[1], ids[2])
		if err != nil {
			return err
		}

		if d.Completed {
			o.Printf("Checked %s (done %d times)\n", d.ID, d.CompletionCount)
		} else {
			o.Printf("Unchecked %s\n", d.ID)
		}

		return nil
	}

	return c
}

func (a *app) dailyRmCmd() *Command {
	c := &Command{
		Flags: flag.NewFlagSet("daily-rm", flag.ContinueOnError),
		Usage: "daily-rm <pid> <mid> <did>",
		Short: "Delete daily mission",
	}

	c.Exec = func(ctx context.Context, o *IO, args []string) error {
		ids, _, err := c.positional(args, 3, false)
		if err != nil {
			return err
		}

		err = a.store.DeleteDailyMission(ctx, ids[0], ids[1], ids[2])
		if err = a.saved(o, err); err != nil {
			return err
		}

		o.Println("Deleted", ids[2])

		return nil
	}

	return c
}

package cli

import (
	"context"
	"errors"
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/missions/internal/hierarchy"
)

var errTargetConflict = errors.New("--target and --clear-target are mutually exclusive")

func parseTarget(s string) (*hierarchy.Date, error) {
	d, err := hierarchy.ParseDate(s)
	if err != nil {
		return nil, fmt.Errorf("%w: --target: %w", hierarchy.ErrValidation, err)
	}

	return &d, nil
}

func (a *app) missionAddCmd() *Command {
	fs := flag.NewFlagSet("mission-add", flag.ContinueOnError)
	target := fs.String("target", "", "Target date (YYYY-MM-DD)")

	c := &Command{
		Flags: fs,
		Usage: "mission-add <pid> <title> [--target DATE]",
		Short: "Create mission under project, prints ID",
	}

	c.Exec = func(ctx context.Context, o *IO, args []string) error {
		ids, title, err := c.positional(args, 1, true)
		if err != nil {
			return err
		}

		var date *hierarchy.Date

		if fs.Changed("target") {
			date, err = parseTarget(*target)
			if err != nil {
				return err
			}
		}

		id, err := a.store.AddMission(ctx, ids[0], title, date)
		if id == "" {
			return err
		}

		o.Println(id)

		return a.saved(o, err)
	}

	return c
}

func (a *app) missionEditCmd() *Command {
	fs := flag.NewFlagSet("mission-edit", flag.ContinueOnError)
	title := fs.StringP("title", "t", "", "New title")
	target := fs.String("target", "", "New target date (YYYY-MM-DD), copied to every daily mission")
	clearTarget := fs.Bool("clear-target", false, "Remove the target date")

	c := &Command{
		Flags: fs,
		Usage: "mission-edit <pid> <mid> [flags]",
		Short: "Edit mission title or target date",
	}

	c.Exec = func(ctx context.Context, o *IO, args []string) error {
		ids, _, err := c.positional(args, 2, false)
		if err != nil {
			return err
		}

		var patch hierarchy.MissionPatch

		if fs.Changed("title") {
			patch.Title = title
		}

		if fs.Changed("target") && *clearTarget {
			return errTargetConflict
		}

		if fs.Changed("target") {
			patch.TargetDate, err = parseTarget(*target)
			if err != nil {
				return err
			}
		}

		patch.ClearTargetDate = *clearTarget

		if patch.Title == nil && patch.TargetDate == nil && !patch.ClearTargetDate {
			return errNothingToChange
		}

		err = a.store.UpdateMission(ctx, ids[0], ids[1], patch)
		if err = a.saved(o, err); err != nil {
			return err
		}

		o.Println("Updated", ids[1])

		return nil
	}

	return c
}

func (a *app) missionRmCmd() *Command {
	c := &Command{
		Flags: flag.NewFlagSet("mission-rm", flag.ContinueOnError),
		Usage: "mission-rm <pid> <mid>",
		Short: "Delete mission with all its daily missions",
	}

	c.Exec = func(ctx context.Context, o *IO, args []string) error {
		ids, _, err := c.positional(args, 2, false)
		if err != nil {
			return err
		}

		err = a.store.DeleteMission(ctx, ids[0], ids[1])
		if err = a.saved(o, err); err != nil {
			return err
		}

		o.Println("Deleted", ids[1])

		return nil
	}

	return c
}

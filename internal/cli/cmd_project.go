package cli

import (
	"context"
	"errors"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/missions/internal/hierarchy"
)

var errNothingToChange = errors.New("nothing to change (see --help)")

func (a *app) projectAddCmd() *Command {
	c := &Command{
		Flags: flag.NewFlagSet("project-add", flag.ContinueOnError),
		Usage: "project-add <title>",
		Short: "Create project, prints ID",
	}

	c.Exec = func(ctx context.Context, o *IO, args []string) error {
		_, title, err := c.positional(args, 0, true)
		if err != nil {
			return err
		}

		id, err := a.store.AddProject(ctx, title)
		if id == "" {
			return err
		}

		o.Println(id)

		return a.saved(o, err)
	}

	return c
}

func (a *app) projectEditCmd() *Command {
	fs := flag.NewFlagSet("project-edit", flag.ContinueOnError)
	title := fs.StringP("title", "t", "", "New title")

	c := &Command{
		Flags: fs,
		Usage: "project-edit <pid> --title <title>",
		Short: "Rename project",
	}

	c.Exec = func(ctx context.Context, o *IO, args []string) error {
		ids, _, err := c.positional(args, 1, false)
		if err != nil {
			return err
		}

		if !fs.Changed("title") {
			return errNothingToChange
		}

		err = a.store.UpdateProject(ctx, ids[0], hierarchy.ProjectPatch{Title: title})
		if err = a.saved(o, err); err != nil {
			return err
		}

		o.Println("Updated", ids[0])

		return nil
	}

	return c
}

func (a *app) projectRmCmd() *Command {
	c := &Command{
		Flags: flag.NewFlagSet("project-rm", flag.ContinueOnError),
		Usage: "project-rm <pid>",
		Short: "Delete project with all its missions",
	}

	c.Exec = func(ctx context.Context, o *IO, args []string) error {
		ids, _, err := c.positional(args, 1, false)
		if err != nil {
			return err
		}

		err = a.store.DeleteProject(ctx, ids[0])
		if err = a.saved(o, err); err != nil {
			return err
		}

		o.Println("Deleted", ids[0])

		return nil
	}

	return c
}

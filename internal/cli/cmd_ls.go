package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/missions/internal/hierarchy"
)

func formatTally(t hierarchy.Tally) string {
	return fmt.Sprintf("%d/%d (%.1f%%)", t.Completed, t.Total, t.Percent())
}

func dailyLine(d hierarchy.DailyMission) string {
	var b strings.Builder

	box := "[ ]"
	if d.Completed {
		box = "[x]"
	}

	fmt.Fprintf(&b, "%s %s  %s", box, d.ID, d.Title)

	if d.Recurring {
		fmt.Fprintf(&b, "  every %dd", max(d.RecurringInterval, 1))
	}

	if d.CompletionCount > 0 {
		fmt.Fprintf(&b, "  done %dx", d.CompletionCount)
	}

	return b.String()
}

func missionLine(m hierarchy.Mission, t hierarchy.Tally) string {
	line := fmt.Sprintf("%s  %s  %s", m.ID, m.Title, formatTally(t))
	if m.TargetDate != nil {
		line += "  target " + m.TargetDate.String()
	}

	return line
}

// printProject prints p with the tallies the store reports.
func (a *app) printProject(o *IO, p hierarchy.Project) error {
	pt, err := a.store.ProjectTally(p.ID)
	if err != nil {
		return err
	}

	o.Printf("%s  %s  %s\n", p.ID, p.Title, formatTally(pt))

	for _, m := range p.Missions {
		mt, err := a.store.MissionTally(p.ID, m.ID)
		if err != nil {
			return err
		}

		o.Println("  " + missionLine(m, mt))

		for _, d := range m.DailyMissions {
			o.Println("    " + dailyLine(d))
		}
	}

	return nil
}

func (a *app) lsCmd() *Command {
	c := &Command{
		Flags: flag.NewFlagSet("ls", flag.ContinueOnError),
		Usage: "ls",
		Short: "List the whole tree with progress",
	}

	c.Exec = func(_ context.Context, o *IO, args []string) error {
		_, _, err := c.positional(args, 0, false)
		if err != nil {
			return err
		}

		projects := a.store.Projects()
		if len(projects) == 0 {
			o.ErrPrintln("no projects")

			return nil
		}

		for _, p := range projects {
			err = a.printProject(o, p)
			if err != nil {
				return err
			}
		}

		return nil
	}

	return c
}

func (a *app) showCmd() *Command {
	c := &Command{
		Flags: flag.NewFlagSet("show", flag.ContinueOnError),
		Usage: "show <pid> [<mid> [<did>]]",
		Short: "Show project, mission or daily mission details",
	}

	c.Exec = func(_ context.Context, o *IO, args []string) error {
		loc := a.store.Location()

		switch len(args) {
		case 1:
			p, err := a.store.Project(args[0])
			if err != nil {
				return err
			}

			err = a.printProject(o, p)
			if err != nil {
				return err
			}

			o.Println()
			o.Println("created:", p.CreatedAt.In(loc).Format(time.RFC3339))
		case 2:
			m, err := a.store.Mission(args[0], args[1])
			if err != nil {
				return err
			}

			t, err := a.store.MissionTally(args[0], args[1])
			if err != nil {
				return err
			}

			o.Println(missionLine(m, t))

			for _, d := range m.DailyMissions {
				o.Println("  " + dailyLine(d))
			}

			o.Println()
			o.Println("created:", m.CreatedAt.In(loc).Format(time.RFC3339))
		case 3:
			d, err := a.store.DailyMission(args[0], args[1], args[2])
			if err != nil {
				return err
			}

			printDaily(o, d, loc)
		default:
			return fmt.Errorf("%w (usage: ms %s)", errArgs, c.Usage)
		}

		return nil
	}

	return c
}

func printDaily(o *IO, d hierarchy.DailyMission, loc *time.Location) {
	o.Println("id:", d.ID)
	o.Println("title:", d.Title)
	o.Println("completed:", d.Completed)
	o.Println("recurring:", d.Recurring)

	if d.Recurring {
		o.Println("interval:", max(d.RecurringInterval, 1))
	}

	o.Println("completion_count:", d.CompletionCount)

	if d.LastCompletedAt != nil {
		o.Println("last_completed:", d.LastCompletedAt.In(loc).Format(time.RFC3339))
	}

	if d.TargetDate != nil {
		o.Println("target:", d.TargetDate.String())
	}

	o.Println("created:", d.CreatedAt.In(loc).Format(time.RFC3339))
}

func (a *app) statsCmd() *Command {
	c := &Command{
		Flags: flag.NewFlagSet("stats", flag.ContinueOnError),
		Usage: "stats",
		Short: "Show overall and per-project progress",
	}

	c.Exec = func(_ context.Context, o *IO, args []string) error {
		_, _, err := c.positional(args, 0, false)
		if err != nil {
			return err
		}

		o.Println("overall", formatTally(a.store.OverallProgress()))

		for _, p := range a.store.Projects() {
			t, err := a.store.ProjectTally(p.ID)
			if err != nil {
				return err
			}

			o.Printf("%s  %s  %s\n", p.ID, p.Title, formatTally(t))
		}

		return nil
	}

	return c
}

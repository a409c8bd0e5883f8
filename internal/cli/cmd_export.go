package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/calvinalkan/missions/internal/hierarchy"
)

func (a *app) exportCmd() *Command {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	format := fs.StringP("format", "f", "json", "Output format: json|yaml")

	c := &Command{
		Flags: fs,
		Usage: "export [--format json|yaml]",
		Short: "Print the whole tree",
		Long:  "Print the whole tree in the persisted layout. JSON output can be saved as a file-backend blob.",
	}

	c.Exec = func(_ context.Context, o *IO, args []string) error {
		_, _, err := c.positional(args, 0, false)
		if err != nil {
			return err
		}

		projects := a.store.Projects()

		switch *format {
		case "json":
			data, err := hierarchy.Encode(projects)
			if err != nil {
				return err
			}

			var buf bytes.Buffer

			err = json.Indent(&buf, data, "", "  ")
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}

			o.Println(buf.String())
		case "yaml":
			data, err := yaml.Marshal(projects)
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}

			o.Printf("%s", data)
		default:
			return fmt.Errorf("%w: unknown format %q (want json or yaml)", hierarchy.ErrValidation, *format)
		}

		return nil
	}

	return c
}

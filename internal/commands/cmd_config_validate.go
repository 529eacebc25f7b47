package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/hay-kot/criterio"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/dayboard/internal/core/config"
	"github.com/colonyops/dayboard/pkg/iojson"
)

type ConfigValidateCmd struct {
	flags  *Flags
	format string
}

// NewConfigValidateCmd creates a new config validate command.
func NewConfigValidateCmd(flags *Flags) *ConfigValidateCmd {
	return &ConfigValidateCmd{flags: flags}
}

// Register adds the config validate command to the application.
func (cmd *ConfigValidateCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Commands: []*cli.Command{
			{
				Name:        "validate",
				Usage:       "Validate configuration file",
				UsageText:   "dayboard config validate [options]",
				Description: "Validates the configuration file, checking the listen address, origin patterns, limits and file paths.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "format",
						Usage:       "output format (text, json)",
						Value:       "text",
						Destination: &cmd.format,
					},
				},
				Action: cmd.run,
			},
		},
	})

	return app
}

type validateOutput struct {
	Valid    bool                       `json:"valid"`
	Errors   []string                   `json:"errors,omitempty"`
	Warnings []config.ValidationWarning `json:"warnings,omitempty"`
}

func (cmd *ConfigValidateCmd) run(_ context.Context, c *cli.Command) error {
	out := validateOutput{Valid: true, Warnings: cmd.flags.Config.Warnings()}

	if err := cmd.flags.Config.ValidateDeep(cmd.flags.ConfigPath); err != nil {
		out.Valid = false
		out.Errors = errorLines(err)
	}

	if cmd.format == "json" {
		if err := iojson.Write(c.Root().Writer, out); err != nil {
			return err
		}
	} else {
		cmd.outputText(c, out)
	}

	if !out.Valid {
		return cli.Exit("", 1)
	}
	return nil
}

func (cmd *ConfigValidateCmd) outputText(c *cli.Command, out validateOutput) {
	w := c.Root().Writer

	for _, warn := range out.Warnings {
		_, _ = fmt.Fprintf(w, "warning: %s: %s\n", warn.Category, warn.Message)
		if warn.Item != "" {
			_, _ = fmt.Fprintf(w, "  Item: %s\n", warn.Item)
		}
	}

	for _, e := range out.Errors {
		_, _ = fmt.Fprintf(w, "error: %s\n", e)
	}

	_, _ = fmt.Fprintln(w)
	if out.Valid {
		_, _ = fmt.Fprintln(w, "Configuration is valid")
		return
	}
	_, _ = fmt.Fprintf(w, "%d error(s) found\n", len(out.Errors))
}

// errorLines flattens criterio field errors into "field: message" lines.
func errorLines(err error) []string {
	var fieldErrs criterio.FieldErrors
	if !errors.As(err, &fieldErrs) {
		return []string{err.Error()}
	}

	lines := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		lines = append(lines, fmt.Sprintf("%s: %s", fe.Field, fe.Err))
	}
	return lines
}

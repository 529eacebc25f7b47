package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/dayboard/internal/board"
	"github.com/colonyops/dayboard/pkg/iojson"
)

// LogCmd prints the activity trail.
type LogCmd struct {
	flags *Flags
	app   *board.App

	page int
}

// NewLogCmd creates a new log command.
func NewLogCmd(flags *Flags, app *board.App) *LogCmd {
	return &LogCmd{flags: flags, app: app}
}

// Register adds the log command to the application.
func (cmd *LogCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "log",
		Usage:     "Show recorded board activity, newest first",
		UsageText: "dayboard log [--page <n>]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "page",
				Usage:       "1-based page number",
				Value:       1,
				Destination: &cmd.page,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *LogCmd) run(ctx context.Context, c *cli.Command) error {
	page, err := cmd.app.Activity.List(ctx, cmd.page)
	if err != nil {
		return fmt.Errorf("list activity: %w", err)
	}

	for _, e := range page.Entries {
		if err := iojson.WriteLine(c.Root().Writer, e); err != nil {
			return err
		}
	}
	if page.HasNext() {
		_, _ = fmt.Fprintf(c.Root().ErrWriter, "more entries: dayboard log --page %d\n", page.Page+1)
	}
	return nil
}

package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/dayboard/internal/board"
	"github.com/colonyops/dayboard/pkg/iojson"
)

// WeekCmd implements the week and export commands.
type WeekCmd struct {
	flags *Flags
	app   *board.App

	out string
}

// NewWeekCmd creates the week and export commands.
func NewWeekCmd(flags *Flags, app *board.App) *WeekCmd {
	return &WeekCmd{flags: flags, app: app}
}

// Register adds the week and export commands to the application.
func (cmd *WeekCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "week",
			Usage:     "Print the Monday-to-Sunday week containing a date",
			UsageText: "dayboard week [YYYY-MM-DD]",
			Action:    cmd.runWeek,
		},
		&cli.Command{
			Name:      "export",
			Usage:     "Export a week as CSV",
			UsageText: "dayboard export [YYYY-MM-DD] [--out <file>]",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:        "out",
					Aliases:     []string{"o"},
					Usage:       "write to file instead of stdout",
					Destination: &cmd.out,
				},
			},
			Action: cmd.runExport,
		},
	)

	return app
}

func (cmd *WeekCmd) runWeek(ctx context.Context, c *cli.Command) error {
	date, err := optionalDate(c.Args().First())
	if err != nil {
		return err
	}

	week, err := cmd.app.Tasks.Week(ctx, date)
	if err != nil {
		return fmt.Errorf("load week: %w", err)
	}
	return iojson.Write(c.Root().Writer, week)
}

func (cmd *WeekCmd) runExport(ctx context.Context, c *cli.Command) (err error) {
	date, err := dateOrToday(c.Args().First())
	if err != nil {
		return err
	}

	var w io.Writer = c.Root().Writer
	if cmd.out != "" {
		f, err := os.Create(cmd.out)
		if err != nil {
			return fmt.Errorf("create export file: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		w = f
	}

	if err := cmd.app.Tasks.Export(ctx, w, date); err != nil {
		return fmt.Errorf("export week: %w", err)
	}
	return nil
}

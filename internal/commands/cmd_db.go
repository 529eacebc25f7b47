package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/dayboard/internal/board"
	"github.com/colonyops/dayboard/internal/data/db"
)

// DBCmd holds database maintenance commands.
type DBCmd struct {
	flags *Flags
	app   *board.App

	steps int
}

// NewDBCmd creates a new db command.
func NewDBCmd(flags *Flags, app *board.App) *DBCmd {
	return &DBCmd{flags: flags, app: app}
}

// Register adds the db command to the application.
func (cmd *DBCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:   "db",
		Usage:  "Database maintenance",
		Hidden: true,
		Commands: []*cli.Command{
			{
				Name:      "status",
				Usage:     "Show the applied schema version and pending migrations",
				UsageText: "dayboard db status",
				Action:    cmd.runStatus,
			},
			{
				Name:      "rollback",
				Usage:     "Revert the most recent schema migrations",
				UsageText: "dayboard db rollback [--steps <n>]",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:        "steps",
						Usage:       "number of migrations to revert",
						Value:       1,
						Destination: &cmd.steps,
					},
				},
				Action: cmd.runRollback,
			},
		},
	})

	return app
}

func (cmd *DBCmd) runStatus(ctx context.Context, c *cli.Command) error {
	status, err := db.ReadStatus(ctx, cmd.app.DB.Conn())
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}

	w := c.Root().Writer
	_, _ = fmt.Fprintf(w, "schema version %d of %d\n", status.Current, status.Latest)
	for _, m := range status.Pending {
		_, _ = fmt.Fprintf(w, "pending %04d_%s\n", m.Version, m.Name)
	}
	return nil
}

func (cmd *DBCmd) runRollback(ctx context.Context, c *cli.Command) error {
	if err := db.MigrateDown(ctx, cmd.app.DB.Conn(), cmd.steps); err != nil {
		return fmt.Errorf("rollback: %w", err)
	}

	_, _ = fmt.Fprintf(c.Root().Writer, "reverted %d migration(s)\n", cmd.steps)
	return nil
}

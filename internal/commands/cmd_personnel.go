package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/dayboard/internal/board"
	"github.com/colonyops/dayboard/pkg/iojson"
)

// PersonnelCmd implements the dayboard personnel command group.
type PersonnelCmd struct {
	flags *Flags
	app   *board.App
}

// NewPersonnelCmd creates a new personnel command.
func NewPersonnelCmd(flags *Flags, app *board.App) *PersonnelCmd {
	return &PersonnelCmd{flags: flags, app: app}
}

// Register adds the personnel command to the application.
func (cmd *PersonnelCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:    "personnel",
		Aliases: []string{"people"},
		Usage:   "Manage the roster offered when assigning tasks",
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List the roster",
				Action:  cmd.runList,
			},
			{
				Name:      "add",
				Usage:     "Add a person",
				UsageText: "dayboard personnel add <name>",
				Action:    cmd.runAdd,
			},
			{
				Name:      "rm",
				Usage:     "Remove a person",
				UsageText: "dayboard personnel rm <name>",
				Action:    cmd.runRm,
			},
		},
	})

	return app
}

func (cmd *PersonnelCmd) runList(ctx context.Context, c *cli.Command) error {
	people, err := cmd.app.Personnel.List(ctx)
	if err != nil {
		return fmt.Errorf("list personnel: %w", err)
	}

	for _, p := range people {
		if err := iojson.WriteLine(c.Root().Writer, p); err != nil {
			return err
		}
	}
	return nil
}

func (cmd *PersonnelCmd) runAdd(ctx context.Context, c *cli.Command) error {
	if c.NArg() < 1 {
		return fmt.Errorf("usage: dayboard personnel add <name>")
	}

	person, err := cmd.app.Personnel.Add(ctx, c.Args().First())
	if err != nil {
		return fmt.Errorf("add person: %w", err)
	}
	return iojson.WriteLine(c.Root().Writer, person)
}

func (cmd *PersonnelCmd) runRm(ctx context.Context, c *cli.Command) error {
	if c.NArg() < 1 {
		return fmt.Errorf("usage: dayboard personnel rm <name>")
	}

	if err := cmd.app.Personnel.Remove(ctx, c.Args().First()); err != nil {
		return fmt.Errorf("remove person: %w", err)
	}

	_, _ = fmt.Fprintln(c.Root().Writer, "removed")
	return nil
}

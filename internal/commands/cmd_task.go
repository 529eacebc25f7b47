package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/dayboard/internal/board"
	"github.com/colonyops/dayboard/internal/core/schedule"
	"github.com/colonyops/dayboard/pkg/iojson"
)

// orderInput is the JSON form of one list ordering.
type orderInput struct {
	Date    schedule.Date `json:"date"`
	TaskIDs []int64       `json:"task_ids"`
}

func (o orderInput) order() schedule.ListOrder {
	return schedule.ListOrder{Date: o.Date, TaskIDs: o.TaskIDs}
}

// MoveInput is the JSON document read by "task move".
type MoveInput struct {
	MovedTask struct {
		ID      int64 `json:"id"`
		Version int64 `json:"version"`
	} `json:"moved_task"`
	TargetList orderInput  `json:"target_list"`
	SourceList *orderInput `json:"source_list,omitempty"`
}

func (in MoveInput) request() schedule.MoveRequest {
	req := schedule.MoveRequest{
		TaskID:      in.MovedTask.ID,
		BaseVersion: in.MovedTask.Version,
		Target:      in.TargetList.order(),
	}
	if in.SourceList != nil {
		src := in.SourceList.order()
		req.Source = &src
	}
	return req
}

// TaskCmd implements the dayboard task command group.
type TaskCmd struct {
	flags *Flags
	app   *board.App

	// add/edit flags
	content   string
	personnel []string
	date      string
	endDate   string

	// edit flags
	version   int64
	overwrite bool

	// reorder flags
	orderIDs []int64

	orderReader iojson.FileReader[orderInput]
	moveReader  iojson.FileReader[MoveInput]
}

// NewTaskCmd creates a new task command.
func NewTaskCmd(flags *Flags, app *board.App) *TaskCmd {
	return &TaskCmd{flags: flags, app: app}
}

// Register adds the task command to the application.
func (cmd *TaskCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:    "task",
		Aliases: []string{"t"},
		Usage:   "Create, edit and arrange tasks",
		Description: `Task commands operate on the board directly. Every task carries a
version; edits and moves must name the version they were based on and
are rejected when someone else changed the task first.

Examples:
  dayboard task add --content "Pour slab" --person alice --date 2024-06-03
  dayboard task edit 12 --content "Pour slab (east)"
  dayboard task reorder --date 2024-06-03 --ids 14,12,13
  dayboard task move -f move.json`,
		Commands: []*cli.Command{
			cmd.addCmd(),
			cmd.getCmd(),
			cmd.editCmd(),
			cmd.rmCmd(),
			cmd.dayCmd(),
			cmd.reorderCmd(),
			cmd.moveCmd(),
		},
	})

	return app
}

func (cmd *TaskCmd) addCmd() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Add a task to one date or a range of dates",
		UsageText: "dayboard task add --content <text> --person <name>... --date <YYYY-MM-DD> [--end <YYYY-MM-DD>]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "content",
				Usage:       "task description",
				Required:    true,
				Destination: &cmd.content,
			},
			&cli.StringSliceFlag{
				Name:        "person",
				Aliases:     []string{"p"},
				Usage:       "assigned person (repeatable)",
				Destination: &cmd.personnel,
			},
			&cli.StringFlag{
				Name:        "date",
				Aliases:     []string{"d"},
				Usage:       "task date, defaults to today",
				Destination: &cmd.date,
			},
			&cli.StringFlag{
				Name:        "end",
				Usage:       "last date of a range; one task is created per day",
				Destination: &cmd.endDate,
			},
		},
		Action: cmd.runAdd,
	}
}

func (cmd *TaskCmd) getCmd() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Print a task",
		UsageText: "dayboard task get <id>",
		Action:    cmd.runGet,
	}
}

func (cmd *TaskCmd) editCmd() *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Edit a task",
		UsageText: "dayboard task edit <id> [--base-version <n>] [--content <text>] [--person <name>...] [--date <YYYY-MM-DD>] [--overwrite]",
		Description: `Edits a task against the version it was read at.

Without --base-version the current version is used. When the task changed in
the meantime the edit is discarded and the current task is printed,
unless --overwrite is given, in which case the edit is reapplied on top
of the newer version.`,
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:        "base-version",
				Aliases:     []string{"b"},
				Usage:       "version the edit is based on",
				Destination: &cmd.version,
			},
			&cli.StringFlag{
				Name:        "content",
				Usage:       "new description",
				Destination: &cmd.content,
			},
			&cli.StringSliceFlag{
				Name:        "person",
				Aliases:     []string{"p"},
				Usage:       "replacement personnel (repeatable)",
				Destination: &cmd.personnel,
			},
			&cli.StringFlag{
				Name:        "date",
				Aliases:     []string{"d"},
				Usage:       "move the task to this date",
				Destination: &cmd.date,
			},
			&cli.BoolFlag{
				Name:        "overwrite",
				Usage:       "reapply the edit when the task changed in the meantime",
				Destination: &cmd.overwrite,
			},
		},
		Action: cmd.runEdit,
	}
}

func (cmd *TaskCmd) rmCmd() *cli.Command {
	return &cli.Command{
		Name:      "rm",
		Usage:     "Delete a task",
		UsageText: "dayboard task rm <id>",
		Action:    cmd.runRm,
	}
}

func (cmd *TaskCmd) dayCmd() *cli.Command {
	return &cli.Command{
		Name:      "day",
		Usage:     "List the tasks of one date in order",
		UsageText: "dayboard task day [YYYY-MM-DD]",
		Action:    cmd.runDay,
	}
}

func (cmd *TaskCmd) reorderCmd() *cli.Command {
	return &cli.Command{
		Name:      "reorder",
		Usage:     "Replace the order of one date's list",
		UsageText: "dayboard task reorder --date <YYYY-MM-DD> --ids <id,...> | -f order.json",
		Description: `The ids must be exactly the tasks currently on that date.

Input can be given as flags or as JSON:
  {"date": "2024-06-03", "task_ids": [14, 12, 13]}`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "date",
				Aliases:     []string{"d"},
				Usage:       "date of the list",
				Destination: &cmd.date,
			},
			&cli.Int64SliceFlag{
				Name:        "ids",
				Usage:       "task ids in their new order",
				Destination: &cmd.orderIDs,
			},
			cmd.orderReader.Flag(),
		},
		Action: cmd.runReorder,
	}
}

func (cmd *TaskCmd) moveCmd() *cli.Command {
	return &cli.Command{
		Name:      "move",
		Usage:     "Move a task and reorder the affected lists",
		UsageText: "dayboard task move [-f move.json]",
		Description: `Reads a move request as JSON:

  {
    "moved_task":  {"id": 12, "version": 3},
    "target_list": {"date": "2024-06-04", "task_ids": [12, 20]},
    "source_list": {"date": "2024-06-03", "task_ids": [13, 14]}
  }

source_list is only needed when the task changes date.`,
		Flags: []cli.Flag{
			cmd.moveReader.Flag(),
		},
		Action: cmd.runMove,
	}
}

func (cmd *TaskCmd) runAdd(ctx context.Context, c *cli.Command) error {
	start, err := dateOrToday(cmd.date)
	if err != nil {
		return err
	}
	end, err := optionalDate(cmd.endDate)
	if err != nil {
		return err
	}

	created, err := cmd.app.Tasks.Create(ctx, board.CreateInput{
		Content:   cmd.content,
		Personnel: cmd.personnel,
		Start:     start,
		End:       end,
	})
	if err != nil {
		return fmt.Errorf("add task: %w", err)
	}

	for _, t := range created {
		if err := iojson.WriteLine(c.Root().Writer, t); err != nil {
			return err
		}
	}
	return nil
}

func (cmd *TaskCmd) runGet(ctx context.Context, c *cli.Command) error {
	id, err := taskIDArg(c)
	if err != nil {
		return err
	}

	task, err := cmd.app.Tasks.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get task: %w", err)
	}
	return iojson.Write(c.Root().Writer, task)
}

func (cmd *TaskCmd) runEdit(ctx context.Context, c *cli.Command) error {
	id, err := taskIDArg(c)
	if err != nil {
		return err
	}

	var patch schedule.Patch
	if c.IsSet("content") {
		patch.Content = &cmd.content
	}
	if c.IsSet("person") {
		patch.Personnel = &cmd.personnel
	}
	if c.IsSet("date") {
		d, err := schedule.ParseDate(cmd.date)
		if err != nil {
			return err
		}
		patch.TaskDate = &d
	}

	current, err := cmd.app.Tasks.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("edit task: %w", err)
	}

	edit := schedule.BeginEdit(current, patch)
	if cmd.version > 0 {
		edit.BaseVersion = cmd.version
	}

	err = edit.Run(ctx, cmd.app.Tasks.Update, func(conflict *schedule.ConflictError) bool {
		log.Debug().
			Int64("task_id", id).
			Int64("current_version", conflict.Current.Version).
			Bool("overwrite", cmd.overwrite).
			Msg("edit conflicted")
		return cmd.overwrite
	})
	if err != nil {
		return fmt.Errorf("edit task: %w", err)
	}

	if edit.State() == schedule.EditDiscarded {
		conflict := edit.Conflict()
		_ = iojson.WriteError(c.Root().ErrWriter, conflict.Error(), map[string]any{
			"current_data": conflict.Current,
		})
		return cli.Exit("edit discarded: task was changed by someone else (use --overwrite to apply anyway)", 1)
	}

	return iojson.Write(c.Root().Writer, edit.Result())
}

func (cmd *TaskCmd) runRm(ctx context.Context, c *cli.Command) error {
	id, err := taskIDArg(c)
	if err != nil {
		return err
	}

	task, err := cmd.app.Tasks.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return iojson.WriteLine(c.Root().Writer, task)
}

func (cmd *TaskCmd) runDay(ctx context.Context, c *cli.Command) error {
	date, err := dateOrToday(c.Args().First())
	if err != nil {
		return err
	}

	list, err := cmd.app.Tasks.Day(ctx, date)
	if err != nil {
		return fmt.Errorf("list day: %w", err)
	}

	for _, t := range list.Tasks {
		if err := iojson.WriteLine(c.Root().Writer, t); err != nil {
			return err
		}
	}
	return nil
}

func (cmd *TaskCmd) runReorder(ctx context.Context, c *cli.Command) error {
	var in orderInput

	if c.IsSet("date") || c.IsSet("ids") {
		d, err := schedule.ParseDate(cmd.date)
		if err != nil {
			return err
		}
		in = orderInput{Date: d, TaskIDs: cmd.orderIDs}
	} else {
		var err error
		in, err = cmd.orderReader.Read()
		if err != nil {
			return err
		}
	}

	list, err := cmd.app.Tasks.Reorder(ctx, in.order())
	if err != nil {
		return fmt.Errorf("reorder: %w", err)
	}
	return iojson.Write(c.Root().Writer, list)
}

func (cmd *TaskCmd) runMove(ctx context.Context, c *cli.Command) error {
	in, err := cmd.moveReader.Read()
	if err != nil {
		return err
	}

	task, err := cmd.app.Tasks.Move(ctx, in.request())
	if err != nil {
		return fmt.Errorf("move task: %w", err)
	}
	return iojson.Write(c.Root().Writer, task)
}

func taskIDArg(c *cli.Command) (int64, error) {
	if c.NArg() < 1 {
		return 0, fmt.Errorf("usage: %s", c.UsageText)
	}
	id, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", c.Args().First())
	}
	return id, nil
}

func optionalDate(s string) (schedule.Date, error) {
	if s == "" {
		return schedule.Date{}, nil
	}
	return schedule.ParseDate(s)
}

func dateOrToday(s string) (schedule.Date, error) {
	if s == "" {
		return schedule.Today(), nil
	}
	return schedule.ParseDate(s)
}

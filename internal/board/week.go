package board

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/colonyops/dayboard/internal/core/activity"
	"github.com/colonyops/dayboard/internal/core/schedule"
)

// DaysPerWeek is the number of day lists on a week board.
const DaysPerWeek = 7

// Week is the Monday-start board view.
type Week struct {
	Start         schedule.Date      `json:"start_date"`
	Days          []schedule.DayList `json:"days"`
	PrevWeek      schedule.Date      `json:"prev_week"`
	NextWeek      schedule.Date      `json:"next_week"`
	IsCurrentWeek bool               `json:"is_current_week"`
}

// TaskCount returns the number of tasks across all days.
func (w Week) TaskCount() int {
	n := 0
	for _, d := range w.Days {
		n += len(d.Tasks)
	}
	return n
}

// Week returns the board for the week containing date. A zero date means
// the current week.
func (s *TaskService) Week(ctx context.Context, date schedule.Date) (Week, error) {
	today := s.today()
	if date.IsZero() {
		date = today
	}
	start := date.StartOfWeek()
	end := start.AddDays(DaysPerWeek - 1)

	tasks, err := s.store.ListRange(ctx, start, end)
	if err != nil {
		return Week{}, err
	}

	byDate := make(map[string][]schedule.Task, DaysPerWeek)
	for _, t := range tasks {
		key := t.TaskDate.String()
		byDate[key] = append(byDate[key], t)
	}

	week := Week{
		Start:         start,
		Days:          make([]schedule.DayList, 0, DaysPerWeek),
		PrevWeek:      start.AddDays(-DaysPerWeek),
		NextWeek:      start.AddDays(DaysPerWeek),
		IsCurrentWeek: today.StartOfWeek().Equal(start),
	}
	for i := range DaysPerWeek {
		d := start.AddDays(i)
		dayTasks := byDate[d.String()]
		if dayTasks == nil {
			dayTasks = []schedule.Task{}
		}
		week.Days = append(week.Days, schedule.DayList{Date: d, Tasks: dayTasks})
	}

	return week, nil
}

var exportHeader = []string{"date", "weekday", "position", "id", "content", "personnel", "version"}

// Export writes the week containing date as CSV, one row per task in board
// order. Returns ErrNotFound when the week has no tasks.
func (s *TaskService) Export(ctx context.Context, w io.Writer, date schedule.Date) error {
	week, err := s.Week(ctx, date)
	if err != nil {
		return err
	}
	if week.TaskCount() == 0 {
		return fmt.Errorf("no tasks in week of %s: %w", week.Start, schedule.ErrNotFound)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("write export header: %w", err)
	}
	for _, day := range week.Days {
		for _, t := range day.Tasks {
			row := []string{
				day.Date.String(),
				day.Date.Weekday().String(),
				strconv.Itoa(t.Position + 1),
				strconv.FormatInt(t.ID, 10),
				t.Content,
				strings.Join(t.Personnel, ", "),
				strconv.FormatInt(t.Version, 10),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write export row: %w", err)
			}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush export: %w", err)
	}

	s.activity.Record(ctx, activity.ActionExport, 0, "exported week of %s (%d tasks)", week.Start, week.TaskCount())
	return nil
}

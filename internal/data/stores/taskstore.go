package stores

import (
	"context"
	"fmt"
	"time"

	"github.com/colonyops/dayboard/internal/core/schedule"
	"github.com/colonyops/dayboard/internal/data/db"
)

const busyRetries = 3

// TaskStore implements schedule.Store using SQLite. Positions are kept dense
// (0..n-1 per date) by every mutation that adds or removes a list member.
type TaskStore struct {
	db  *db.DB
	now func() time.Time
}

var _ schedule.Store = (*TaskStore)(nil)

// NewTaskStore creates a new SQLite-backed task store.
func NewTaskStore(db *db.DB) *TaskStore {
	return &TaskStore{db: db, now: time.Now}
}

// withTx runs fn in a transaction, retrying when SQLite reports the database
// busy past the configured busy timeout.
func (s *TaskStore) withTx(ctx context.Context, fn func(*db.Queries) error) error {
	var err error
	for attempt := 0; attempt < busyRetries; attempt++ {
		err = s.db.WithTx(ctx, fn)
		if !IsBusyError(err) {
			return err
		}
	}
	return err
}

// Create appends a task to the end of its date's list.
func (s *TaskStore) Create(ctx context.Context, task schedule.NewTask) (schedule.Task, error) {
	created, err := s.CreateBatch(ctx, []schedule.NewTask{task})
	if err != nil {
		return schedule.Task{}, err
	}
	return created[0], nil
}

// CreateBatch creates all tasks or none.
func (s *TaskStore) CreateBatch(ctx context.Context, tasks []schedule.NewTask) ([]schedule.Task, error) {
	if len(tasks) == 0 {
		return nil, schedule.MalformedError("no tasks to create")
	}
	for i := range tasks {
		if err := tasks[i].Validate(); err != nil {
			return nil, err
		}
	}

	var created []schedule.Task
	err := s.withTx(ctx, func(q *db.Queries) error {
		created = created[:0]
		now := s.now()
		for _, nt := range tasks {
			date := nt.TaskDate.String()
			n, err := q.CountTasksByDate(ctx, date)
			if err != nil {
				return fmt.Errorf("failed to count tasks for %s: %w", date, err)
			}

			id, err := q.InsertTask(ctx, db.InsertTaskParams{
				Content:   nt.Content,
				TaskDate:  date,
				Position:  n,
				CreatedAt: now.UnixNano(),
				UpdatedAt: now.UnixNano(),
			})
			if err != nil {
				return fmt.Errorf("failed to insert task: %w", err)
			}

			if err := q.ReplaceTaskPersonnel(ctx, id, nt.Personnel); err != nil {
				return err
			}

			created = append(created, schedule.Task{
				ID:        id,
				Content:   nt.Content,
				Personnel: append([]string(nil), nt.Personnel...),
				TaskDate:  nt.TaskDate,
				Version:   1,
				Position:  int(n),
				CreatedAt: time.Unix(0, now.UnixNano()),
				UpdatedAt: time.Unix(0, now.UnixNano()),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// Get returns a task by ID. Returns ErrNotFound if not found.
func (s *TaskStore) Get(ctx context.Context, id int64) (schedule.Task, error) {
	var task schedule.Task
	err := s.db.WithReadTx(ctx, func(q *db.Queries) error {
		var err error
		task, err = loadTask(ctx, q, id)
		return err
	})
	return task, err
}

// Update applies patch when baseVersion is current.
func (s *TaskStore) Update(ctx context.Context, id, baseVersion int64, patch schedule.Patch) (schedule.Task, error) {
	if baseVersion <= 0 {
		return schedule.Task{}, schedule.MalformedError("version is required")
	}
	if err := patch.Validate(); err != nil {
		return schedule.Task{}, err
	}

	var updated schedule.Task
	err := s.withTx(ctx, func(q *db.Queries) error {
		current, err := loadTask(ctx, q, id)
		if err != nil {
			return err
		}
		if err := schedule.CheckVersion(current, baseVersion); err != nil {
			return err
		}

		next := patch.Apply(current)
		next.Version = current.Version + 1
		next.UpdatedAt = time.Unix(0, s.now().UnixNano())

		moved := !next.TaskDate.Equal(current.TaskDate)
		if moved {
			n, err := q.CountTasksByDate(ctx, next.TaskDate.String())
			if err != nil {
				return fmt.Errorf("failed to count tasks for %s: %w", next.TaskDate, err)
			}
			next.Position = int(n)
		}

		if err := q.UpdateTask(ctx, db.UpdateTaskParams{
			ID:        id,
			Content:   next.Content,
			TaskDate:  next.TaskDate.String(),
			Version:   next.Version,
			Position:  int64(next.Position),
			UpdatedAt: next.UpdatedAt.UnixNano(),
		}); err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}

		if patch.Personnel != nil {
			if err := q.ReplaceTaskPersonnel(ctx, id, next.Personnel); err != nil {
				return err
			}
		}

		if moved {
			if err := compact(ctx, q, current.TaskDate); err != nil {
				return err
			}
		}

		updated = next
		return nil
	})
	if err != nil {
		return schedule.Task{}, err
	}

	return updated, nil
}

// Delete removes a task and closes the gap it leaves.
func (s *TaskStore) Delete(ctx context.Context, id int64) (schedule.Task, error) {
	var deleted schedule.Task
	err := s.withTx(ctx, func(q *db.Queries) error {
		current, err := loadTask(ctx, q, id)
		if err != nil {
			return err
		}

		if err := q.DeleteTask(ctx, id); err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}

		if err := compact(ctx, q, current.TaskDate); err != nil {
			return err
		}

		deleted = current
		return nil
	})
	if err != nil {
		return schedule.Task{}, err
	}

	return deleted, nil
}

// Reorder assigns positions for one date from a full ordering of its members.
// Versions are not changed.
func (s *TaskStore) Reorder(ctx context.Context, order schedule.ListOrder) (schedule.DayList, error) {
	if order.Date.IsZero() {
		return schedule.DayList{}, schedule.MalformedError("date is required")
	}
	if err := schedule.CheckDuplicates(order.TaskIDs); err != nil {
		return schedule.DayList{}, err
	}

	var list schedule.DayList
	err := s.withTx(ctx, func(q *db.Queries) error {
		rows, err := q.ListTasksByDate(ctx, order.Date.String())
		if err != nil {
			return fmt.Errorf("failed to list tasks for %s: %w", order.Date, err)
		}

		if err := schedule.ValidateOrdering(order.Date, rowIDs(rows), order.TaskIDs); err != nil {
			return err
		}

		if err := renumber(ctx, q, order.Date, order.TaskIDs); err != nil {
			return err
		}

		list, err = listDay(ctx, q, order.Date)
		return err
	})
	if err != nil {
		return schedule.DayList{}, err
	}

	return list, nil
}

// Move relocates a task and rewrites the affected lists in one transaction.
// Only the moved task's version is incremented.
func (s *TaskStore) Move(ctx context.Context, req schedule.MoveRequest) (schedule.Task, error) {
	if err := req.Validate(); err != nil {
		return schedule.Task{}, err
	}

	var result schedule.Task
	err := s.withTx(ctx, func(q *db.Queries) error {
		moved, err := loadTask(ctx, q, req.TaskID)
		if err != nil {
			return err
		}

		targetRows, err := q.ListTasksByDate(ctx, req.Target.Date.String())
		if err != nil {
			return fmt.Errorf("failed to list tasks for %s: %w", req.Target.Date, err)
		}

		var fromIDs []int64
		if !moved.TaskDate.Equal(req.Target.Date) {
			fromRows, err := q.ListTasksByDate(ctx, moved.TaskDate.String())
			if err != nil {
				return fmt.Errorf("failed to list tasks for %s: %w", moved.TaskDate, err)
			}
			fromIDs = rowIDs(fromRows)
		}

		plan, err := schedule.PlanMove(moved, req, rowIDs(targetRows), fromIDs)
		if err != nil {
			return err
		}

		if err := q.ParkPositions(ctx, plan.Target.Date.String()); err != nil {
			return fmt.Errorf("failed to park positions: %w", err)
		}
		if plan.From != nil {
			if err := q.ParkPositions(ctx, plan.From.Date.String()); err != nil {
				return fmt.Errorf("failed to park positions: %w", err)
			}
		}

		positions := schedule.Positions(plan.Target.TaskIDs)
		moved.TaskDate = plan.Target.Date
		moved.Version = plan.NextVersion
		moved.Position = positions[moved.ID]
		moved.UpdatedAt = time.Unix(0, s.now().UnixNano())

		if err := q.UpdateTask(ctx, db.UpdateTaskParams{
			ID:        moved.ID,
			Content:   moved.Content,
			TaskDate:  moved.TaskDate.String(),
			Version:   moved.Version,
			Position:  int64(moved.Position),
			UpdatedAt: moved.UpdatedAt.UnixNano(),
		}); err != nil {
			return fmt.Errorf("failed to update moved task: %w", err)
		}

		if err := assignPositions(ctx, q, plan.Target.TaskIDs, moved.ID); err != nil {
			return err
		}
		if plan.From != nil {
			if err := assignPositions(ctx, q, plan.From.TaskIDs, 0); err != nil {
				return err
			}
		}

		result = moved
		return nil
	})
	if err != nil {
		return schedule.Task{}, err
	}

	return result, nil
}

// ListDay returns the ordered list for one date.
func (s *TaskStore) ListDay(ctx context.Context, date schedule.Date) (schedule.DayList, error) {
	if date.IsZero() {
		return schedule.DayList{}, schedule.MalformedError("date is required")
	}
	var list schedule.DayList
	err := s.db.WithReadTx(ctx, func(q *db.Queries) error {
		var err error
		list, err = listDay(ctx, q, date)
		return err
	})
	return list, err
}

// ListRange returns tasks dated from..to inclusive.
func (s *TaskStore) ListRange(ctx context.Context, from, to schedule.Date) ([]schedule.Task, error) {
	if from.IsZero() || to.IsZero() {
		return nil, schedule.MalformedError("date range is required")
	}
	if to.Before(from) {
		return nil, schedule.MalformedError("range end %s is before start %s", to, from)
	}
	var tasks []schedule.Task
	err := s.db.WithReadTx(ctx, func(q *db.Queries) error {
		var err error
		tasks, err = listRange(ctx, q, from, to)
		return err
	})
	return tasks, err
}

func loadTask(ctx context.Context, q *db.Queries, id int64) (schedule.Task, error) {
	row, err := q.GetTask(ctx, id)
	if IsNotFoundError(err) {
		return schedule.Task{}, fmt.Errorf("task %d: %w", id, schedule.ErrNotFound)
	}
	if err != nil {
		return schedule.Task{}, fmt.Errorf("failed to get task: %w", err)
	}

	names, err := q.ListTaskPersonnel(ctx, id)
	if err != nil {
		return schedule.Task{}, fmt.Errorf("failed to get personnel: %w", err)
	}

	return rowToTask(row, names)
}

func listDay(ctx context.Context, q *db.Queries, date schedule.Date) (schedule.DayList, error) {
	tasks, err := listRange(ctx, q, date, date)
	if err != nil {
		return schedule.DayList{}, err
	}
	if tasks == nil {
		tasks = []schedule.Task{}
	}
	return schedule.DayList{Date: date, Tasks: tasks}, nil
}

func listRange(ctx context.Context, q *db.Queries, from, to schedule.Date) ([]schedule.Task, error) {
	rows, err := q.ListTasksInRange(ctx, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	people, err := q.ListTaskPersonnelInRange(ctx, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list personnel: %w", err)
	}

	byTask := make(map[int64][]string, len(rows))
	for _, p := range people {
		byTask[p.TaskID] = append(byTask[p.TaskID], p.Name)
	}

	tasks := make([]schedule.Task, 0, len(rows))
	for _, row := range rows {
		t, err := rowToTask(row, byTask[row.ID])
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// compact renumbers a date's remaining tasks to 0..n-1 keeping their order.
func compact(ctx context.Context, q *db.Queries, date schedule.Date) error {
	rows, err := q.ListTasksByDate(ctx, date.String())
	if err != nil {
		return fmt.Errorf("failed to list tasks for %s: %w", date, err)
	}
	return renumber(ctx, q, date, rowIDs(rows))
}

// renumber rewrites a date's positions to match ids.
func renumber(ctx context.Context, q *db.Queries, date schedule.Date, ids []int64) error {
	if err := q.ParkPositions(ctx, date.String()); err != nil {
		return fmt.Errorf("failed to park positions: %w", err)
	}
	return assignPositions(ctx, q, ids, 0)
}

// assignPositions sets each id's position to its index, skipping skip.
func assignPositions(ctx context.Context, q *db.Queries, ids []int64, skip int64) error {
	for i, id := range ids {
		if id == skip {
			continue
		}
		if err := q.SetTaskPosition(ctx, id, int64(i)); err != nil {
			return fmt.Errorf("failed to set position of task %d: %w", id, err)
		}
	}
	return nil
}

func rowIDs(rows []db.Task) []int64 {
	ids := make([]int64, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	return ids
}

// rowToTask converts a db.Task to a schedule.Task.
func rowToTask(row db.Task, names []string) (schedule.Task, error) {
	date, err := schedule.ParseDate(row.TaskDate)
	if err != nil {
		return schedule.Task{}, fmt.Errorf("task %d has invalid stored date: %w", row.ID, err)
	}

	if names == nil {
		names = []string{}
	}

	return schedule.Task{
		ID:        row.ID,
		Content:   row.Content,
		Personnel: names,
		TaskDate:  date,
		Version:   row.Version,
		Position:  int(row.Position),
		CreatedAt: time.Unix(0, row.CreatedAt),
		UpdatedAt: time.Unix(0, row.UpdatedAt),
	}, nil
}

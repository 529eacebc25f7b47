package board

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/colonyops/dayboard/internal/core/activity"
	"github.com/colonyops/dayboard/internal/core/config"
	"github.com/colonyops/dayboard/internal/core/logging"
	"github.com/colonyops/dayboard/internal/core/schedule"
)

// CreateInput describes one or more tasks to add. When End is set, one task
// with the same content and personnel is created on every date Start..End.
type CreateInput struct {
	Content   string
	Personnel []string
	Start     schedule.Date
	End       schedule.Date
}

// TaskService orchestrates board mutations: locking through the Coordinator,
// persistence through the store, and activity recording.
type TaskService struct {
	store    schedule.Store
	coord    *Coordinator
	activity *ActivityService
	cfg      config.ScheduleConfig
	log      zerolog.Logger
	today    func() schedule.Date
}

// NewTaskService creates a new TaskService.
func NewTaskService(store schedule.Store, acts *ActivityService, cfg config.ScheduleConfig, log zerolog.Logger) *TaskService {
	return &TaskService{
		store:    store,
		coord:    NewCoordinator(store, cfg.LockTimeout),
		activity: acts,
		cfg:      cfg,
		log:      logging.Scoped(log, "tasks"),
		today:    schedule.Today,
	}
}

// Create adds a task for each date in the input range.
func (s *TaskService) Create(ctx context.Context, in CreateInput) ([]schedule.Task, error) {
	if in.Start.IsZero() {
		return nil, schedule.MalformedError("start date is required")
	}
	end := in.End
	if end.IsZero() {
		end = in.Start
	}
	if end.Before(in.Start) {
		return nil, schedule.MalformedError("end date %s is before start date %s", end, in.Start)
	}
	if days := in.Start.DaysUntil(end) + 1; days > s.cfg.MaxRangeDays {
		return nil, schedule.MalformedError("range of %d days exceeds the limit of %d", days, s.cfg.MaxRangeDays)
	}

	var batch []schedule.NewTask
	for d := in.Start; !d.After(end); d = d.AddDays(1) {
		batch = append(batch, schedule.NewTask{
			Content:   in.Content,
			Personnel: in.Personnel,
			TaskDate:  d,
		})
	}

	created, err := s.coord.Create(ctx, batch)
	if err != nil {
		return nil, err
	}

	for _, t := range created {
		s.activity.Record(ctx, activity.ActionCreate, t.ID, "created %q on %s for %s",
			t.Content, t.TaskDate, strings.Join(t.Personnel, ", "))
	}
	s.log.Debug().Ctx(ctx).Int("count", len(created)).Msg("tasks created")

	return created, nil
}

// Get returns a task by ID.
func (s *TaskService) Get(ctx context.Context, id int64) (schedule.Task, error) {
	return s.store.Get(ctx, id)
}

// Update applies a patch against the caller's base version.
func (s *TaskService) Update(ctx context.Context, id, baseVersion int64, patch schedule.Patch) (schedule.Task, error) {
	ctx = logging.WithTaskID(ctx, id)

	updated, err := s.coord.Update(ctx, id, baseVersion, patch)
	if err != nil {
		s.log.Debug().Ctx(ctx).Err(err).Int64("base_version", baseVersion).Msg("update rejected")
		return schedule.Task{}, err
	}

	s.activity.Record(ctx, activity.ActionUpdate, id, "updated %s to version %d", describePatch(patch), updated.Version)
	return updated, nil
}

// Delete removes a task.
func (s *TaskService) Delete(ctx context.Context, id int64) (schedule.Task, error) {
	ctx = logging.WithTaskID(ctx, id)

	deleted, err := s.coord.Delete(ctx, id)
	if err != nil {
		return schedule.Task{}, err
	}

	s.activity.Record(ctx, activity.ActionDelete, id, "deleted %q from %s", deleted.Content, deleted.TaskDate)
	return deleted, nil
}

// Reorder applies a full ordering to one date's list.
func (s *TaskService) Reorder(ctx context.Context, order schedule.ListOrder) (schedule.DayList, error) {
	list, err := s.coord.Reorder(ctx, order)
	if err != nil {
		return schedule.DayList{}, err
	}

	s.activity.Record(ctx, activity.ActionReorder, 0, "reordered %s: %v", order.Date, order.TaskIDs)
	return list, nil
}

// Move relocates a task and reorders the affected lists in one unit.
func (s *TaskService) Move(ctx context.Context, req schedule.MoveRequest) (schedule.Task, error) {
	ctx = logging.WithTaskID(ctx, req.TaskID)

	moved, err := s.coord.Move(ctx, req)
	if err != nil {
		s.log.Debug().Ctx(ctx).Err(err).Int64("base_version", req.BaseVersion).Msg("move rejected")
		return schedule.Task{}, err
	}

	s.activity.Record(ctx, activity.ActionMove, moved.ID, "moved to %s position %d (version %d)",
		moved.TaskDate, moved.Position, moved.Version)
	return moved, nil
}

// Day returns one date's ordered list.
func (s *TaskService) Day(ctx context.Context, date schedule.Date) (schedule.DayList, error) {
	return s.store.ListDay(ctx, date)
}

func describePatch(p schedule.Patch) string {
	var fields []string
	if p.Content != nil {
		fields = append(fields, "content")
	}
	if p.Personnel != nil {
		fields = append(fields, "personnel")
	}
	if p.TaskDate != nil {
		fields = append(fields, fmt.Sprintf("task_date=%s", *p.TaskDate))
	}
	return strings.Join(fields, ", ")
}

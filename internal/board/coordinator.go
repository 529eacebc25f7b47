package board

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/colonyops/dayboard/internal/core/schedule"
	"github.com/colonyops/dayboard/pkg/keylock"
)

const maxRelockAttempts = 5

func dateKey(d schedule.Date) string { return "date:" + d.String() }
func taskKey(id int64) string        { return "task:" + strconv.FormatInt(id, 10) }

// Coordinator serializes store mutations per task and per date list. Every
// operation locks the full set of resources it touches before the store opens
// its transaction; keylock orders the keys so overlapping moves cannot deadlock.
type Coordinator struct {
	store       schedule.Store
	locks       *keylock.Locker
	lockTimeout time.Duration
}

// NewCoordinator wraps store. A zero lockTimeout waits for locks until the
// caller's context ends.
func NewCoordinator(store schedule.Store, lockTimeout time.Duration) *Coordinator {
	return &Coordinator{
		store:       store,
		locks:       keylock.New(),
		lockTimeout: lockTimeout,
	}
}

func (c *Coordinator) lock(ctx context.Context, keys ...string) (func(), error) {
	if c.lockTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.lockTimeout)
		defer cancel()
	}

	unlock, err := c.locks.LockContext(ctx, keys...)
	if err != nil {
		return nil, fmt.Errorf("waiting for %v: %w", keylock.Normalize(keys), err)
	}
	return unlock, nil
}

// withTaskLocked locks id plus the date lists returned by dates for the
// task's current state, then runs fn. The task's date is read without a lock
// first, so it is re-read under the lock and the whole acquisition retried if
// another writer moved the task in between.
func (c *Coordinator) withTaskLocked(
	ctx context.Context,
	id int64,
	dates func(current schedule.Task) []schedule.Date,
	fn func() error,
) error {
	for range maxRelockAttempts {
		before, err := c.store.Get(ctx, id)
		if err != nil {
			return err
		}

		keys := []string{taskKey(id)}
		for _, d := range dates(before) {
			keys = append(keys, dateKey(d))
		}

		unlock, err := c.lock(ctx, keys...)
		if err != nil {
			return err
		}

		after, err := c.store.Get(ctx, id)
		if err != nil {
			unlock()
			return err
		}

		if after.TaskDate.Equal(before.TaskDate) {
			err = fn()
			unlock()
			return err
		}
		unlock()
	}

	return fmt.Errorf("task %d kept changing date while acquiring locks", id)
}

// Create appends tasks while holding their dates.
func (c *Coordinator) Create(ctx context.Context, tasks []schedule.NewTask) ([]schedule.Task, error) {
	keys := make([]string, 0, len(tasks))
	for _, t := range tasks {
		keys = append(keys, dateKey(t.TaskDate))
	}

	unlock, err := c.lock(ctx, keys...)
	if err != nil {
		return nil, err
	}
	defer unlock()

	return c.store.CreateBatch(ctx, tasks)
}

// Update holds the task, and both date lists when the patch changes its date.
func (c *Coordinator) Update(ctx context.Context, id, baseVersion int64, patch schedule.Patch) (schedule.Task, error) {
	if patch.TaskDate == nil {
		unlock, err := c.lock(ctx, taskKey(id))
		if err != nil {
			return schedule.Task{}, err
		}
		defer unlock()
		return c.store.Update(ctx, id, baseVersion, patch)
	}

	var updated schedule.Task
	err := c.withTaskLocked(ctx, id,
		func(cur schedule.Task) []schedule.Date { return []schedule.Date{cur.TaskDate, *patch.TaskDate} },
		func() error {
			var err error
			updated, err = c.store.Update(ctx, id, baseVersion, patch)
			return err
		},
	)
	return updated, err
}

// Delete holds the task and the list it leaves.
func (c *Coordinator) Delete(ctx context.Context, id int64) (schedule.Task, error) {
	var deleted schedule.Task
	err := c.withTaskLocked(ctx, id,
		func(cur schedule.Task) []schedule.Date { return []schedule.Date{cur.TaskDate} },
		func() error {
			var err error
			deleted, err = c.store.Delete(ctx, id)
			return err
		},
	)
	return deleted, err
}

// Reorder holds one date list.
func (c *Coordinator) Reorder(ctx context.Context, order schedule.ListOrder) (schedule.DayList, error) {
	unlock, err := c.lock(ctx, dateKey(order.Date))
	if err != nil {
		return schedule.DayList{}, err
	}
	defer unlock()

	return c.store.Reorder(ctx, order)
}

// Move holds the task, its current list, the target list and the declared
// source list.
func (c *Coordinator) Move(ctx context.Context, req schedule.MoveRequest) (schedule.Task, error) {
	if err := req.Validate(); err != nil {
		return schedule.Task{}, err
	}

	var moved schedule.Task
	err := c.withTaskLocked(ctx, req.TaskID,
		func(cur schedule.Task) []schedule.Date {
			dates := []schedule.Date{cur.TaskDate, req.Target.Date}
			if req.Source != nil {
				dates = append(dates, req.Source.Date)
			}
			return dates
		},
		func() error {
			var err error
			moved, err = c.store.Move(ctx, req)
			return err
		},
	)
	return moved, err
}

package board

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/dayboard/internal/core/activity"
	"github.com/colonyops/dayboard/internal/core/config"
	"github.com/colonyops/dayboard/internal/core/schedule"
	"github.com/colonyops/dayboard/internal/data/db"
)

var (
	june1 = schedule.MustParseDate("2024-06-01")
	june2 = schedule.MustParseDate("2024-06-02")
	june3 = schedule.MustParseDate("2024-06-03") // Monday
)

func newTestApp(t *testing.T) *App {
	t.Helper()

	database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	return NewApp(&cfg, database, zerolog.Nop())
}

func createOne(t *testing.T, app *App, content string, date schedule.Date) schedule.Task {
	t.Helper()
	created, err := app.Tasks.Create(context.Background(), CreateInput{
		Content:   content,
		Personnel: []string{"alice"},
		Start:     date,
	})
	require.NoError(t, err)
	require.Len(t, created, 1)
	return created[0]
}

func TestTaskService_CreateRange(t *testing.T) {
	ctx := context.Background()

	t.Run("one task per day", func(t *testing.T) {
		app := newTestApp(t)

		created, err := app.Tasks.Create(ctx, CreateInput{
			Content:   "site walk",
			Personnel: []string{"alice", "bob"},
			Start:     june1,
			End:       june3,
		})
		require.NoError(t, err)
		require.Len(t, created, 3)
		assert.Equal(t, "2024-06-01", created[0].TaskDate.String())
		assert.Equal(t, "2024-06-03", created[2].TaskDate.String())
	})

	t.Run("end before start", func(t *testing.T) {
		app := newTestApp(t)
		_, err := app.Tasks.Create(ctx, CreateInput{Content: "x", Personnel: []string{"a"}, Start: june2, End: june1})
		require.ErrorIs(t, err, schedule.ErrMalformedInput)
	})

	t.Run("range limit", func(t *testing.T) {
		app := newTestApp(t)
		_, err := app.Tasks.Create(ctx, CreateInput{
			Content:   "x",
			Personnel: []string{"a"},
			Start:     june1,
			End:       june1.AddDays(app.Config.Schedule.MaxRangeDays),
		})
		require.ErrorIs(t, err, schedule.ErrMalformedInput)
	})

	t.Run("records activity", func(t *testing.T) {
		app := newTestApp(t)
		createOne(t, app, "A", june1)

		page, err := app.Activity.List(ctx, 1)
		require.NoError(t, err)
		require.Len(t, page.Entries, 1)
		assert.Equal(t, activity.ActionCreate, page.Entries[0].Action)
	})
}

func TestTaskService_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t)

	a := createOne(t, app, "A", june1)
	b := createOne(t, app, "B", june1)
	c := createOne(t, app, "C", june1)

	content := "B2"
	updated, err := app.Tasks.Update(ctx, b.ID, 1, schedule.Patch{Content: &content})
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)

	_, err = app.Tasks.Update(ctx, b.ID, 1, schedule.Patch{Content: &content})
	require.ErrorIs(t, err, schedule.ErrStaleVersion)

	_, err = app.Tasks.Delete(ctx, b.ID)
	require.NoError(t, err)

	day, err := app.Tasks.Day(ctx, june1)
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID, c.ID}, day.IDs())
	assert.Equal(t, 0, day.Tasks[0].Position)
	assert.Equal(t, 1, day.Tasks[1].Position)

	_, err = app.Tasks.Delete(ctx, b.ID)
	require.ErrorIs(t, err, schedule.ErrNotFound)
}

func TestTaskService_UpdateDateChange(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t)

	a := createOne(t, app, "A", june1)
	x := createOne(t, app, "X", june2)

	moved, err := app.Tasks.Update(ctx, a.ID, 1, schedule.Patch{TaskDate: &june2})
	require.NoError(t, err)
	assert.True(t, moved.TaskDate.Equal(june2))

	day, err := app.Tasks.Day(ctx, june2)
	require.NoError(t, err)
	assert.Equal(t, []int64{x.ID, a.ID}, day.IDs())
}

func TestTaskService_Reorder(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t)

	a := createOne(t, app, "A", june1)
	b := createOne(t, app, "B", june1)
	c := createOne(t, app, "C", june1)

	list, err := app.Tasks.Reorder(ctx, schedule.ListOrder{Date: june1, TaskIDs: []int64{c.ID, a.ID, b.ID}})
	require.NoError(t, err)
	assert.Equal(t, []int64{c.ID, a.ID, b.ID}, list.IDs())
	for i, task := range list.Tasks {
		assert.Equal(t, i, task.Position)
	}
}

func TestTaskService_ConcurrentMove(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t)

	task := createOne(t, app, "T", june1)
	for _, content := range []string{"T2", "T3"} {
		var err error
		task, err = app.Tasks.Update(ctx, task.ID, task.Version, schedule.Patch{Content: &content})
		require.NoError(t, err)
	}
	require.Equal(t, int64(3), task.Version)

	req := schedule.MoveRequest{
		TaskID:      task.ID,
		BaseVersion: 3,
		Target:      schedule.ListOrder{Date: june2, TaskIDs: []int64{task.ID}},
		Source:      &schedule.ListOrder{Date: june1, TaskIDs: []int64{}},
	}

	const clients = 2
	var wg sync.WaitGroup
	errs := make([]error, clients)
	for i := range clients {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = app.Tasks.Move(ctx, req)
		}()
	}
	wg.Wait()

	var successes int
	var conflict *schedule.ConflictError
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.As(err, &conflict):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, successes, "exactly one move must win")
	require.NotNil(t, conflict, "the loser must see a conflict")
	assert.Equal(t, int64(4), conflict.Current.Version)
	assert.Equal(t, "2024-06-02", conflict.Current.TaskDate.String())

	day1, err := app.Tasks.Day(ctx, june1)
	require.NoError(t, err)
	assert.Empty(t, day1.Tasks)

	day2, err := app.Tasks.Day(ctx, june2)
	require.NoError(t, err)
	assert.Equal(t, []int64{task.ID}, day2.IDs())
}

func TestTaskService_OppositeMovesDoNotDeadlock(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t)

	a := createOne(t, app, "A", june1)
	b := createOne(t, app, "B", june2)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = app.Tasks.Move(ctx, schedule.MoveRequest{
			TaskID: a.ID, BaseVersion: 1,
			Target: schedule.ListOrder{Date: june2, TaskIDs: []int64{a.ID, b.ID}},
		})
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = app.Tasks.Move(ctx, schedule.MoveRequest{
			TaskID: b.ID, BaseVersion: 1,
			Target: schedule.ListOrder{Date: june1, TaskIDs: []int64{b.ID, a.ID}},
		})
	}()
	wg.Wait()

	// Each request names the other task in its target list, so whichever
	// runs second sees a membership change; at least one must succeed.
	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			require.ErrorIs(t, err, schedule.ErrSetMismatch)
		}
	}
	assert.GreaterOrEqual(t, succeeded, 1)
}

func TestTaskService_Week(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t)
	app.Tasks.today = func() schedule.Date { return june3.AddDays(2) }

	mon := createOne(t, app, "monday", june3)
	sun := createOne(t, app, "sunday", june3.AddDays(6))
	createOne(t, app, "previous sunday", june2)

	week, err := app.Tasks.Week(ctx, june3.AddDays(4))
	require.NoError(t, err)

	assert.Equal(t, "2024-06-03", week.Start.String())
	assert.Equal(t, "2024-05-27", week.PrevWeek.String())
	assert.Equal(t, "2024-06-10", week.NextWeek.String())
	assert.True(t, week.IsCurrentWeek)
	require.Len(t, week.Days, DaysPerWeek)
	assert.Equal(t, []int64{mon.ID}, week.Days[0].IDs())
	assert.Equal(t, []int64{sun.ID}, week.Days[6].IDs())
	assert.Empty(t, week.Days[3].Tasks)
	assert.Equal(t, 2, week.TaskCount())

	prev, err := app.Tasks.Week(ctx, week.PrevWeek)
	require.NoError(t, err)
	assert.False(t, prev.IsCurrentWeek)
	assert.Equal(t, 1, prev.TaskCount())
}

func TestTaskService_Export(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t)

	var empty bytes.Buffer
	require.ErrorIs(t, app.Tasks.Export(ctx, &empty, june3), schedule.ErrNotFound)

	createOne(t, app, "pour, then cure", june3)
	createOne(t, app, "inspect", june3)

	var buf bytes.Buffer
	require.NoError(t, app.Tasks.Export(ctx, &buf, june3))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, exportHeader, records[0])
	assert.Equal(t, "2024-06-03", records[1][0])
	assert.Equal(t, "Monday", records[1][1])
	assert.Equal(t, "1", records[1][2])
	assert.Equal(t, "pour, then cure", records[1][4])
	assert.Equal(t, "2", records[2][2])

	page, err := app.Activity.List(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, activity.ActionExport, page.Entries[0].Action)
}

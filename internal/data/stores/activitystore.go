package stores

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/colonyops/dayboard/internal/core/activity"
	"github.com/colonyops/dayboard/internal/data/db"
)

// ActivityStore implements activity.Store using SQLite.
type ActivityStore struct {
	db *db.DB
}

var _ activity.Store = (*ActivityStore)(nil)

// NewActivityStore creates a new SQLite-backed activity store.
func NewActivityStore(db *db.DB) *ActivityStore {
	return &ActivityStore{db: db}
}

// Record appends an entry.
func (s *ActivityStore) Record(ctx context.Context, entry activity.Entry) error {
	if entry.Action == "" {
		return fmt.Errorf("activity action is required")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	err := s.db.Queries().InsertActivity(ctx, db.InsertActivityParams{
		Action:    entry.Action,
		TaskID:    sql.NullInt64{Int64: entry.TaskID, Valid: entry.TaskID > 0},
		Details:   entry.Details,
		CreatedAt: entry.CreatedAt.UnixNano(),
	})
	if err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}
	return nil
}

// List returns one page of entries, newest first. Pages are 1-based; values
// below 1 are clamped.
func (s *ActivityStore) List(ctx context.Context, page, pageSize int) (activity.Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = activity.DefaultPageSize
	}

	var (
		total int64
		rows  []db.ActivityLog
	)
	err := s.db.WithReadTx(ctx, func(q *db.Queries) error {
		var err error
		total, err = q.CountActivity(ctx)
		if err != nil {
			return fmt.Errorf("failed to count activity: %w", err)
		}
		rows, err = q.ListActivity(ctx, int64(pageSize), int64((page-1)*pageSize))
		if err != nil {
			return fmt.Errorf("failed to list activity: %w", err)
		}
		return nil
	})
	if err != nil {
		return activity.Page{}, err
	}

	entries := make([]activity.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, activity.Entry{
			ID:        row.ID,
			Action:    row.Action,
			TaskID:    row.TaskID.Int64,
			Details:   row.Details,
			CreatedAt: time.Unix(0, row.CreatedAt),
		})
	}

	return activity.Page{
		Entries:  entries,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	}, nil
}

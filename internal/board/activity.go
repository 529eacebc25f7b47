package board

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/colonyops/dayboard/internal/core/activity"
	"github.com/colonyops/dayboard/internal/core/logging"
)

// ActivityService records and pages the audit trail. Recording never fails
// the mutation it describes; errors are logged and dropped.
type ActivityService struct {
	store    activity.Store
	pageSize int
	log      zerolog.Logger
}

// NewActivityService creates a new ActivityService.
func NewActivityService(store activity.Store, pageSize int, log zerolog.Logger) *ActivityService {
	if pageSize < 1 {
		pageSize = activity.DefaultPageSize
	}
	return &ActivityService{
		store:    store,
		pageSize: pageSize,
		log:      logging.Scoped(log, "activity"),
	}
}

// Record appends an entry, logging instead of returning failures.
func (s *ActivityService) Record(ctx context.Context, action string, taskID int64, format string, args ...any) {
	entry := activity.Entry{
		Action:  action,
		TaskID:  taskID,
		Details: fmt.Sprintf(format, args...),
	}
	if err := s.store.Record(ctx, entry); err != nil {
		s.log.Warn().Ctx(ctx).Err(err).Str("action", action).Msg("failed to record activity")
	}
}

// List returns one page of entries, newest first.
func (s *ActivityService) List(ctx context.Context, page int) (activity.Page, error) {
	return s.store.List(ctx, page, s.pageSize)
}

package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// ContextHook copies request_id and task_id from the event's context.
type ContextHook struct{}

// Run adds contextual fields to the zerolog event.
func (h ContextHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == context.Background() || ctx == nil {
		return
	}

	if requestID := GetRequestID(ctx); requestID != "" {
		e.Str("request_id", requestID)
	}

	if taskID := GetTaskID(ctx); taskID != 0 {
		e.Int64("task_id", taskID)
	}
}

package logging

import "context"

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	taskIDKey    contextKey = "task_id"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithTaskID adds the ID of the task being operated on to the context.
func WithTaskID(ctx context.Context, taskID int64) context.Context {
	return context.WithValue(ctx, taskIDKey, taskID)
}

// GetRequestID retrieves the request ID from the context.
// Returns empty string if not present.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// GetTaskID retrieves the task ID from the context.
// Returns 0 if not present.
func GetTaskID(ctx context.Context) int64 {
	if id, ok := ctx.Value(taskIDKey).(int64); ok {
		return id
	}
	return 0
}

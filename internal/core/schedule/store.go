package schedule

import "context"

// Store persists tasks and derives day lists from them. Every mutating
// method validates fully before it writes and commits all-or-nothing.
// Implementations do not lock resources across calls; callers serialize
// access to the same task or date.
type Store interface {
	// Create appends a task to the end of its date's list with version 1.
	Create(ctx context.Context, task NewTask) (Task, error)

	// CreateBatch creates several tasks in one transaction, each appended to
	// its own date's list in input order.
	CreateBatch(ctx context.Context, tasks []NewTask) ([]Task, error)

	// Get returns a task by ID. Returns ErrNotFound if it does not exist.
	Get(ctx context.Context, id int64) (Task, error)

	// Update applies patch when baseVersion matches. Returns a *ConflictError
	// with the stored snapshot when it does not, and ErrNotFound when the
	// task is missing. A date change moves the task to the end of the new list.
	Update(ctx context.Context, id, baseVersion int64, patch Patch) (Task, error)

	// Delete removes a task and compacts its former list.
	Delete(ctx context.Context, id int64) (Task, error)

	// Reorder assigns positions for one date from a full proposed ordering.
	// Returns a *SetMismatchError when ids are not the list's members.
	Reorder(ctx context.Context, order ListOrder) (DayList, error)

	// Move relocates a task and reorders the affected lists atomically.
	Move(ctx context.Context, req MoveRequest) (Task, error)

	// ListDay returns the ordered list for one date.
	ListDay(ctx context.Context, date Date) (DayList, error)

	// ListRange returns the tasks dated from..to inclusive, ordered by date
	// then position.
	ListRange(ctx context.Context, from, to Date) ([]Task, error)
}

package schedule

import (
	"context"
	"errors"
	"fmt"
)

// EditState is the lifecycle state of a pending edit.
type EditState string

const (
	EditEditing     EditState = "editing"
	EditSubmitting  EditState = "submitting"
	EditCommitted   EditState = "committed"
	EditConflicted  EditState = "conflicted"
	EditDiscarded   EditState = "discarded"
	EditOverwritten EditState = "overwritten"
)

var editTransitions = map[EditState][]EditState{
	EditEditing:     {EditSubmitting},
	EditSubmitting:  {EditCommitted, EditConflicted, EditEditing},
	EditConflicted:  {EditDiscarded, EditOverwritten},
	EditOverwritten: {EditSubmitting},
}

// CanTransition reports whether from -> to is allowed.
func (s EditState) CanTransition(to EditState) bool {
	for _, next := range editTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s EditState) IsTerminal() bool {
	return s == EditCommitted || s == EditDiscarded
}

// PendingEdit carries one caller's edit of a task through submission and
// conflict resolution. It holds the state a form would otherwise keep in
// ambient variables.
type PendingEdit struct {
	TaskID      int64
	BaseVersion int64
	Patch       Patch

	state    EditState
	conflict *ConflictError
	result   Task
}

// BeginEdit starts editing t at its current version.
func BeginEdit(t Task, patch Patch) *PendingEdit {
	return &PendingEdit{
		TaskID:      t.ID,
		BaseVersion: t.Version,
		Patch:       patch,
		state:       EditEditing,
	}
}

// State returns the current state.
func (e *PendingEdit) State() EditState { return e.state }

// Conflict returns the last conflict, if the edit is or was conflicted.
func (e *PendingEdit) Conflict() *ConflictError { return e.conflict }

// Result returns the committed task. It is only meaningful once committed.
func (e *PendingEdit) Result() Task { return e.result }

func (e *PendingEdit) transition(to EditState) error {
	if !e.state.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, e.state, to)
	}
	e.state = to
	return nil
}

// Submit marks the edit as in flight.
func (e *PendingEdit) Submit() error {
	return e.transition(EditSubmitting)
}

// Resolve records the outcome of a submission. A *ConflictError moves the
// edit to conflicted; any other error returns it to editing.
func (e *PendingEdit) Resolve(result Task, err error) error {
	if e.state != EditSubmitting {
		return fmt.Errorf("%w: resolve while %s", ErrInvalidTransition, e.state)
	}

	var conflict *ConflictError
	switch {
	case err == nil:
		e.result = result
		e.conflict = nil
		return e.transition(EditCommitted)
	case errors.As(err, &conflict):
		e.conflict = conflict
		return e.transition(EditConflicted)
	default:
		return e.transition(EditEditing)
	}
}

// Discard abandons a conflicted edit.
func (e *PendingEdit) Discard() error {
	return e.transition(EditDiscarded)
}

// Overwrite rebases a conflicted edit onto the version that beat it.
func (e *PendingEdit) Overwrite() error {
	if err := e.transition(EditOverwritten); err != nil {
		return err
	}
	e.BaseVersion = e.conflict.Current.Version
	return nil
}

// UpdateFunc performs one optimistic update.
type UpdateFunc func(ctx context.Context, id, baseVersion int64, patch Patch) (Task, error)

// ConflictPolicy decides whether a conflicted edit is overwritten (true) or
// discarded (false).
type ConflictPolicy func(conflict *ConflictError) bool

// Run drives the edit until it is committed or discarded. Errors other than
// conflicts stop the loop and are returned with the edit back in editing.
func (e *PendingEdit) Run(ctx context.Context, update UpdateFunc, policy ConflictPolicy) error {
	for !e.state.IsTerminal() {
		if err := e.Submit(); err != nil {
			return err
		}

		task, err := update(ctx, e.TaskID, e.BaseVersion, e.Patch)
		if rerr := e.Resolve(task, err); rerr != nil {
			return rerr
		}
		if e.state == EditEditing {
			return err
		}

		if e.state == EditConflicted {
			if policy != nil && policy(e.conflict) {
				if err := e.Overwrite(); err != nil {
					return err
				}
				continue
			}
			if err := e.Discard(); err != nil {
				return err
			}
		}
	}
	return nil
}

package schedule

import "fmt"

// CheckDuplicates rejects orderings that repeat an id or contain a
// non-positive id. Duplicates are never silently collapsed.
func CheckDuplicates(ids []int64) error {
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if id <= 0 {
			return MalformedError("invalid task id %d in ordering", id)
		}
		if _, ok := seen[id]; ok {
			return MalformedError("duplicate task id %d in ordering", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// ValidateOrdering checks that proposed is a permutation of current.
func ValidateOrdering(date Date, current, proposed []int64) error {
	if err := CheckDuplicates(proposed); err != nil {
		return err
	}

	want := make(map[int64]struct{}, len(current))
	for _, id := range current {
		want[id] = struct{}{}
	}
	got := make(map[int64]struct{}, len(proposed))
	for _, id := range proposed {
		got[id] = struct{}{}
	}

	var mismatch SetMismatchError
	for _, id := range current {
		if _, ok := got[id]; !ok {
			mismatch.Missing = append(mismatch.Missing, id)
		}
	}
	for _, id := range proposed {
		if _, ok := want[id]; !ok {
			mismatch.Unexpected = append(mismatch.Unexpected, id)
		}
	}

	if len(mismatch.Missing) > 0 || len(mismatch.Unexpected) > 0 {
		mismatch.Date = date
		return &mismatch
	}
	return nil
}

// Positions maps each id to its index in ids.
func Positions(ids []int64) map[int64]int {
	out := make(map[int64]int, len(ids))
	for i, id := range ids {
		out[id] = i
	}
	return out
}

// Without returns a copy of ids with id removed, preserving order.
func Without(ids []int64, id int64) []int64 {
	out := make([]int64, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// MovePlan is the validated outcome of a move: the final order of the target
// list and, when the task changes date, the final order of the list it left.
type MovePlan struct {
	TaskID      int64
	Target      ListOrder
	From        *ListOrder
	NextVersion int64
}

// SameList reports whether the move stays within one date.
func (p MovePlan) SameList() bool { return p.From == nil }

// PlanMove validates req against the stored state and returns the orders to
// commit. moved is the stored task, target the current ids of the target
// date, and from the current ids of moved's date (ignored for same-list moves).
//
// Checks run in order: version, target membership, source membership. When
// the task changes date but req.Source is nil, the list it leaves keeps its
// relative order.
func PlanMove(moved Task, req MoveRequest, target, from []int64) (MovePlan, error) {
	if err := CheckVersion(moved, req.BaseVersion); err != nil {
		return MovePlan{}, err
	}

	expectTarget := append(Without(target, moved.ID), moved.ID)
	if err := ValidateOrdering(req.Target.Date, expectTarget, req.Target.TaskIDs); err != nil {
		return MovePlan{}, err
	}

	if req.Source != nil && !req.Source.Date.Equal(moved.TaskDate) {
		return MovePlan{}, &SetMismatchError{
			Date:       req.Source.Date,
			Unexpected: []int64{moved.ID},
			Detail:     fmt.Sprintf("task %d is on %s", moved.ID, moved.TaskDate),
		}
	}

	plan := MovePlan{
		TaskID:      moved.ID,
		Target:      ListOrder{Date: req.Target.Date, TaskIDs: append([]int64(nil), req.Target.TaskIDs...)},
		NextVersion: moved.Version + 1,
	}

	if moved.TaskDate.Equal(req.Target.Date) {
		return plan, nil
	}

	remaining := Without(from, moved.ID)
	fromOrder := remaining
	if req.Source != nil {
		if err := ValidateOrdering(req.Source.Date, remaining, req.Source.TaskIDs); err != nil {
			return MovePlan{}, err
		}
		fromOrder = append([]int64(nil), req.Source.TaskIDs...)
	}
	plan.From = &ListOrder{Date: moved.TaskDate, TaskIDs: fromOrder}

	return plan, nil
}

// Package schedule defines the day-partitioned task board domain: tasks,
// per-date ordered lists, and the rules for versioning and reordering them.
package schedule

import (
	"strings"
	"time"
)

// Task is a unit of schedulable work assigned to one calendar date.
type Task struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	Personnel []string  `json:"personnel"`
	TaskDate  Date      `json:"task_date"`
	Version   int64     `json:"version"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DayList is the ordered set of tasks for one date. It is always derived
// from the tasks themselves.
type DayList struct {
	Date  Date   `json:"date"`
	Tasks []Task `json:"tasks"`
}

// IDs returns the task identifiers in list order.
func (l DayList) IDs() []int64 {
	ids := make([]int64, len(l.Tasks))
	for i, t := range l.Tasks {
		ids[i] = t.ID
	}
	return ids
}

// NewTask holds the fields required to create a task.
type NewTask struct {
	Content   string
	Personnel []string
	TaskDate  Date
}

// Validate checks the required fields and normalizes personnel in place.
func (n *NewTask) Validate() error {
	if strings.TrimSpace(n.Content) == "" {
		return MalformedError("content is required")
	}
	if n.TaskDate.IsZero() {
		return MalformedError("task_date is required")
	}
	n.Personnel = NormalizePersonnel(n.Personnel)
	if len(n.Personnel) == 0 {
		return MalformedError("at least one person is required")
	}
	return nil
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Content   *string
	Personnel *[]string
	TaskDate  *Date
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Content == nil && p.Personnel == nil && p.TaskDate == nil
}

// Validate checks the supplied fields and normalizes personnel in place.
func (p *Patch) Validate() error {
	if p.IsEmpty() {
		return MalformedError("patch has no fields to update")
	}
	if p.Content != nil && strings.TrimSpace(*p.Content) == "" {
		return MalformedError("content cannot be empty")
	}
	if p.Personnel != nil {
		names := NormalizePersonnel(*p.Personnel)
		if len(names) == 0 {
			return MalformedError("personnel cannot be empty")
		}
		p.Personnel = &names
	}
	if p.TaskDate != nil && p.TaskDate.IsZero() {
		return MalformedError("task_date cannot be empty")
	}
	return nil
}

// Apply returns t with the patch applied. Version and position are not touched.
func (p Patch) Apply(t Task) Task {
	if p.Content != nil {
		t.Content = *p.Content
	}
	if p.Personnel != nil {
		t.Personnel = append([]string(nil), (*p.Personnel)...)
	}
	if p.TaskDate != nil {
		t.TaskDate = *p.TaskDate
	}
	return t
}

// ListOrder is a caller's full proposed ordering for one date.
type ListOrder struct {
	Date    Date
	TaskIDs []int64
}

// MoveRequest moves a task into a target list and reorders the affected
// lists in one unit. Source is only set when the task leaves another list.
type MoveRequest struct {
	TaskID      int64
	BaseVersion int64
	Target      ListOrder
	Source      *ListOrder
}

// Validate checks the request shape before any state is read.
func (r MoveRequest) Validate() error {
	if r.TaskID <= 0 {
		return MalformedError("moved task id is required")
	}
	if r.BaseVersion <= 0 {
		return MalformedError("moved task version is required")
	}
	if r.Target.Date.IsZero() {
		return MalformedError("target date is required")
	}
	if err := CheckDuplicates(r.Target.TaskIDs); err != nil {
		return err
	}
	if r.Source != nil {
		if r.Source.Date.IsZero() {
			return MalformedError("source date is required")
		}
		if r.Source.Date.Equal(r.Target.Date) {
			return MalformedError("source and target lists are the same date %s", r.Target.Date)
		}
		if err := CheckDuplicates(r.Source.TaskIDs); err != nil {
			return err
		}
	}
	return nil
}

// NormalizePersonnel trims names, drops blanks and removes duplicates while
// keeping the first-seen display order.
func NormalizePersonnel(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

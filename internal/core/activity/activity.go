// Package activity defines the audit trail of board mutations.
package activity

import (
	"context"
	"time"
)

// Action names recorded in the log.
const (
	ActionCreate  = "task.create"
	ActionUpdate  = "task.update"
	ActionDelete  = "task.delete"
	ActionReorder = "list.reorder"
	ActionMove    = "task.move"
	ActionExport  = "board.export"
)

// DefaultPageSize is the number of entries per page when none is configured.
const DefaultPageSize = 20

// Entry is one recorded mutation.
type Entry struct {
	ID        int64     `json:"id"`
	Action    string    `json:"action"`
	TaskID    int64     `json:"task_id,omitempty"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at"`
}

// Page is one page of entries, newest first.
type Page struct {
	Entries  []Entry `json:"entries"`
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
	Total    int64   `json:"total"`
}

// HasNext reports whether a later page exists.
func (p Page) HasNext() bool {
	return int64(p.Page*p.PageSize) < p.Total
}

// Store persists activity entries.
type Store interface {
	// Record appends an entry. CreatedAt is set by the store when zero.
	Record(ctx context.Context, entry Entry) error

	// List returns the given 1-based page, newest first.
	List(ctx context.Context, page, pageSize int) (Page, error)
}

// Package personnel defines the roster of names offered when assigning tasks.
package personnel

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a name is not on the roster.
	ErrNotFound = errors.New("person not found")
	// ErrDuplicate is returned when a name is already on the roster.
	ErrDuplicate = errors.New("person already exists")
	// ErrEmptyName is returned for a blank name.
	ErrEmptyName = errors.New("name cannot be empty")
)

// Person is a roster entry.
type Person struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// CleanName trims a name and rejects blanks.
func CleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	return name, nil
}

// Store persists the roster.
type Store interface {
	// List returns the roster ordered by name.
	List(ctx context.Context) ([]Person, error)

	// Add inserts a name. Returns ErrDuplicate if it exists.
	Add(ctx context.Context, name string) (Person, error)

	// Remove deletes a name. Returns ErrNotFound if it is absent.
	Remove(ctx context.Context, name string) error
}

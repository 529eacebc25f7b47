package stores

import (
	"context"
	"fmt"
	"time"

	"github.com/colonyops/dayboard/internal/core/personnel"
	"github.com/colonyops/dayboard/internal/data/db"
)

// PersonnelStore implements personnel.Store using SQLite.
type PersonnelStore struct {
	db *db.DB
}

var _ personnel.Store = (*PersonnelStore)(nil)

// NewPersonnelStore creates a new SQLite-backed roster store.
func NewPersonnelStore(db *db.DB) *PersonnelStore {
	return &PersonnelStore{db: db}
}

// List returns the roster ordered by name.
func (s *PersonnelStore) List(ctx context.Context) ([]personnel.Person, error) {
	rows, err := s.db.Queries().ListPersonnel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list personnel: %w", err)
	}

	people := make([]personnel.Person, 0, len(rows))
	for _, row := range rows {
		people = append(people, personnel.Person{
			Name:      row.Name,
			CreatedAt: time.Unix(0, row.CreatedAt),
		})
	}
	return people, nil
}

// Add inserts a name. Returns ErrDuplicate if it already exists.
func (s *PersonnelStore) Add(ctx context.Context, name string) (personnel.Person, error) {
	name, err := personnel.CleanName(name)
	if err != nil {
		return personnel.Person{}, err
	}

	now := time.Now()
	err = s.db.Queries().InsertPerson(ctx, db.Person{Name: name, CreatedAt: now.UnixNano()})
	if isUniqueConstraintError(err) {
		return personnel.Person{}, fmt.Errorf("%q: %w", name, personnel.ErrDuplicate)
	}
	if err != nil {
		return personnel.Person{}, fmt.Errorf("failed to add person: %w", err)
	}

	return personnel.Person{Name: name, CreatedAt: time.Unix(0, now.UnixNano())}, nil
}

// Remove deletes a name. Returns ErrNotFound if absent. Tasks already
// assigned to the name keep it.
func (s *PersonnelStore) Remove(ctx context.Context, name string) error {
	name, err := personnel.CleanName(name)
	if err != nil {
		return err
	}

	n, err := s.db.Queries().DeletePerson(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to remove person: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%q: %w", name, personnel.ErrNotFound)
	}
	return nil
}

package board

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/colonyops/dayboard/internal/core/logging"
	"github.com/colonyops/dayboard/internal/core/personnel"
)

// PersonnelService manages the roster offered when assigning tasks.
type PersonnelService struct {
	store personnel.Store
	log   zerolog.Logger
}

// NewPersonnelService creates a new PersonnelService.
func NewPersonnelService(store personnel.Store, log zerolog.Logger) *PersonnelService {
	return &PersonnelService{store: store, log: logging.Scoped(log, "personnel")}
}

// List returns the roster ordered by name.
func (s *PersonnelService) List(ctx context.Context) ([]personnel.Person, error) {
	return s.store.List(ctx)
}

// Add puts a name on the roster.
func (s *PersonnelService) Add(ctx context.Context, name string) (personnel.Person, error) {
	p, err := s.store.Add(ctx, name)
	if err != nil {
		return personnel.Person{}, err
	}
	s.log.Info().Ctx(ctx).Str("name", p.Name).Msg("person added")
	return p, nil
}

// Remove takes a name off the roster. Existing assignments are kept.
func (s *PersonnelService) Remove(ctx context.Context, name string) error {
	if err := s.store.Remove(ctx, name); err != nil {
		return err
	}
	s.log.Info().Ctx(ctx).Str("name", name).Msg("person removed")
	return nil
}

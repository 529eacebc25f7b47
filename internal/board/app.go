// Package board wires the task board services: locking, persistence and the
// activity trail behind the operations exposed by the CLI and HTTP API.
package board

import (
	"github.com/rs/zerolog"

	"github.com/colonyops/dayboard/internal/core/config"
	"github.com/colonyops/dayboard/internal/data/db"
	"github.com/colonyops/dayboard/internal/data/stores"
)

// App is the central entry point for all board operations.
// Commands and the HTTP server consume App instead of cherry-picking raw dependencies.
type App struct {
	Tasks     *TaskService
	Personnel *PersonnelService
	Activity  *ActivityService

	Config *config.Config
	DB     *db.DB
}

// NewApp constructs an App backed by the SQLite stores in database.
func NewApp(cfg *config.Config, database *db.DB, log zerolog.Logger) *App {
	acts := NewActivityService(stores.NewActivityStore(database), cfg.Schedule.ActivityPageSize, log)

	return &App{
		Tasks:     NewTaskService(stores.NewTaskStore(database), acts, cfg.Schedule, log),
		Personnel: NewPersonnelService(stores.NewPersonnelStore(database), log),
		Activity:  acts,
		Config:    cfg,
		DB:        database,
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/dayboard/internal/board"
	"github.com/colonyops/dayboard/internal/commands"
	"github.com/colonyops/dayboard/internal/core/config"
	"github.com/colonyops/dayboard/internal/core/logging"
	"github.com/colonyops/dayboard/internal/data/db"
	"github.com/colonyops/dayboard/internal/data/stores"
	"github.com/colonyops/dayboard/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, build() falls back
	// to runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

// openDatabase opens the board database, moving a corrupt file aside and
// starting fresh when SQLite reports corruption.
func openDatabase(cfg *config.Config) (*db.DB, error) {
	opts := db.OpenOptions{
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		BusyTimeout:  cfg.Database.BusyTimeout,
	}

	database, err := db.Open(cfg.DataDir, opts)
	if err == nil || !stores.IsCorruptionError(err) {
		return database, err
	}

	log.Error().Err(err).Str("data_dir", cfg.DataDir).Msg("database is corrupt, moving it aside")
	if rerr := stores.RecoverFromCorruption(cfg.DataDir); rerr != nil {
		return nil, fmt.Errorf("recover corrupt database: %w", rerr)
	}
	return db.Open(cfg.DataDir, opts)
}

func main() {
	ctx := context.Background()

	var (
		logCloser func()
		boardApp  = &board.App{}
		database  *db.DB
	)

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "dayboard",
		Usage:     "Plan work across days on a shared task board",
		UsageText: "dayboard [global options] command [command options]",
		Description: `Dayboard keeps one ordered list of tasks per calendar day.

Tasks can be edited, reordered within a day and dragged between days by
several people at once. Every change is versioned, so an edit based on
an outdated copy of a task is rejected instead of silently lost.

Run 'dayboard serve' to start the HTTP API.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("DAYBOARD_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "write JSON logs to this file instead of stderr",
				Sources:     cli.EnvVars("DAYBOARD_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "log-format",
				Usage:       "stderr log format (auto, json, console)",
				Sources:     cli.EnvVars("DAYBOARD_LOG_FORMAT"),
				Value:       logutils.FormatAuto,
				Destination: &flags.LogFormat,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("DAYBOARD_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("DAYBOARD_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logger, closer, err := logutils.New(logutils.Options{
				Level:  flags.LogLevel,
				File:   flags.LogFile,
				Format: flags.LogFormat,
			})
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger.Hook(logging.ContextHook{})
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			database, err = openDatabase(cfg)
			if err != nil {
				return ctx, fmt.Errorf("open database: %w", err)
			}

			// Populate the pre-allocated App struct (commands already hold a pointer to it)
			*boardApp = *board.NewApp(cfg, database, log.Logger)

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if database != nil {
				if err := database.Close(); err != nil {
					log.Error().Err(err).Msg("failed to close database")
					return err
				}
			}

			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	app = commands.NewServeCmd(flags, boardApp).Register(app)
	app = commands.NewTaskCmd(flags, boardApp).Register(app)
	app = commands.NewWeekCmd(flags, boardApp).Register(app)
	app = commands.NewPersonnelCmd(flags, boardApp).Register(app)
	app = commands.NewLogCmd(flags, boardApp).Register(app)
	app = commands.NewConfigValidateCmd(flags).Register(app)
	app = commands.NewDBCmd(flags, boardApp).Register(app)

	exitCode := 0
	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}

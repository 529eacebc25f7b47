package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"slices"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SchemaVersion is the board schema this build reads and writes. The embedded
// migration set must run 1..SchemaVersion without gaps.
const SchemaVersion = 3

// ErrSchemaTooNew is returned when the database records migrations this build
// does not ship, usually after a downgrade.
var ErrSchemaTooNew = errors.New("database schema is newer than this build")

const (
	migrationsDir  = "migrations"
	recordApplied  = "INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)"
	recordReverted = "DELETE FROM schema_migrations WHERE version = ?"
)

// migrationFile matches NNNN_snake_name.{up,down}.sql.
var migrationFile = regexp.MustCompile(`^(\d{4})_([a-z0-9]+(?:_[a-z0-9]+)*)\.(up|down)\.sql$`)

type direction string

const (
	up   direction = "up"
	down direction = "down"
)

// Migration is one schema step with its forward and reverse SQL.
type Migration struct {
	Version int
	Name    string
	UpSQL   string
	DownSQL string
}

// Status describes where a database sits relative to SchemaVersion.
type Status struct {
	Current int
	Latest  int
	Pending []Migration
}

// UpToDate reports whether nothing is left to apply.
func (s Status) UpToDate() bool {
	return len(s.Pending) == 0
}

func loadMigrations() ([]Migration, error) {
	return readMigrations(migrationsFS, SchemaVersion)
}

// readMigrations loads every migration pair under migrations/ in fsys and
// checks it forms the contiguous set 1..latest.
func readMigrations(fsys fs.FS, latest int) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory: %w", err)
	}

	byVersion := make(map[int]*Migration)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		version, name, dir, err := parseFilename(entry.Name())
		if err != nil {
			return nil, fmt.Errorf("invalid migration filename %q: %w", entry.Name(), err)
		}

		content, err := fs.ReadFile(fsys, path.Join(migrationsDir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", entry.Name(), err)
		}

		m, ok := byVersion[version]
		if !ok {
			m = &Migration{Version: version, Name: name}
			byVersion[version] = m
		}
		if m.Name != name {
			return nil, fmt.Errorf("migration %04d is named both %q and %q", version, m.Name, name)
		}

		target := &m.UpSQL
		if dir == down {
			target = &m.DownSQL
		}
		if *target != "" {
			return nil, fmt.Errorf("duplicate %s migration for version %04d", dir, version)
		}
		if len(content) == 0 {
			return nil, fmt.Errorf("migration %04d %s file is empty", version, dir)
		}
		*target = string(content)
	}

	migrations := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		migrations = append(migrations, *m)
	}
	slices.SortFunc(migrations, func(a, b Migration) int { return a.Version - b.Version })

	if err := validateSequence(migrations, latest); err != nil {
		return nil, err
	}
	return migrations, nil
}

func validateSequence(migrations []Migration, latest int) error {
	for i, m := range migrations {
		if m.Version != i+1 {
			return fmt.Errorf("migration %04d is out of sequence, expected %04d", m.Version, i+1)
		}
		if m.UpSQL == "" {
			return fmt.Errorf("migration %04d has a down file but no up file", m.Version)
		}
		if m.DownSQL == "" {
			return fmt.Errorf("migration %04d has an up file but no down file", m.Version)
		}
	}
	if len(migrations) != latest {
		return fmt.Errorf("found %d migrations, schema version is %d", len(migrations), latest)
	}
	return nil
}

func parseFilename(filename string) (int, string, direction, error) {
	match := migrationFile.FindStringSubmatch(filename)
	if match == nil {
		return 0, "", "", fmt.Errorf("expected NNNN_name.{up,down}.sql")
	}

	version, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, "", "", fmt.Errorf("version %q: %w", match[1], err)
	}
	if version == 0 {
		return 0, "", "", fmt.Errorf("versions start at 0001")
	}

	return version, match[2], direction(match[3]), nil
}

// migrateUp applies every pending migration in version order. It refuses to
// touch a database that already carries versions past SchemaVersion.
func migrateUp(ctx context.Context, conn *sql.DB) error {
	migrations, err := loadMigrations()
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}

	applied, err := appliedMigrations(ctx, conn)
	if err != nil {
		return err
	}
	if err := checkApplied(applied, migrations); err != nil {
		return err
	}

	for _, m := range migrations {
		if _, ok := applied[m.Version]; ok {
			continue
		}

		log.Info().Int("version", m.Version).Str("name", m.Name).Msg("applying migration")
		if err := step(ctx, conn, m, up); err != nil {
			return fmt.Errorf("migration %04d (%s): %w", m.Version, m.Name, err)
		}
	}

	return nil
}

// MigrateDown reverts the last n applied migrations, newest first.
func MigrateDown(ctx context.Context, conn *sql.DB, n int) error {
	if n <= 0 {
		return fmt.Errorf("n must be positive, got %d", n)
	}

	migrations, err := loadMigrations()
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}

	applied, err := appliedMigrations(ctx, conn)
	if err != nil {
		return err
	}
	if err := checkApplied(applied, migrations); err != nil {
		return err
	}

	var toRevert []Migration
	for _, m := range slices.Backward(migrations) {
		if _, ok := applied[m.Version]; ok {
			toRevert = append(toRevert, m)
		}
	}

	if n > len(toRevert) {
		return fmt.Errorf("requested %d down migrations but only %d are applied", n, len(toRevert))
	}

	for _, m := range toRevert[:n] {
		log.Info().Int("version", m.Version).Str("name", m.Name).Msg("reverting migration")
		if err := step(ctx, conn, m, down); err != nil {
			return fmt.Errorf("revert migration %04d (%s): %w", m.Version, m.Name, err)
		}
	}

	return nil
}

// ReadStatus reports the applied schema version and what remains to apply.
func ReadStatus(ctx context.Context, conn *sql.DB) (Status, error) {
	migrations, err := loadMigrations()
	if err != nil {
		return Status{}, fmt.Errorf("loading migrations: %w", err)
	}

	applied, err := appliedMigrations(ctx, conn)
	if err != nil {
		return Status{}, err
	}
	if err := checkApplied(applied, migrations); err != nil {
		return Status{}, err
	}

	status := Status{Latest: SchemaVersion}
	for _, m := range migrations {
		if _, ok := applied[m.Version]; ok {
			status.Current = m.Version
			continue
		}
		status.Pending = append(status.Pending, m)
	}
	return status, nil
}

// checkApplied rejects records this build cannot account for: versions past
// SchemaVersion, or a version recorded under a different name.
func checkApplied(applied map[int]string, migrations []Migration) error {
	for version, name := range applied {
		if version < 1 {
			return fmt.Errorf("invalid recorded migration version %d", version)
		}
		if version > len(migrations) {
			return fmt.Errorf("%w: version %04d applied, build supports %04d", ErrSchemaTooNew, version, SchemaVersion)
		}
		if want := migrations[version-1].Name; name != want {
			return fmt.Errorf("migration %04d recorded as %q, build ships %q", version, name, want)
		}
	}
	return nil
}

// appliedMigrations returns recorded versions mapped to their names, creating
// the schema_migrations table on first use.
func appliedMigrations(ctx context.Context, conn *sql.DB) (map[int]string, error) {
	_, err := conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("creating schema_migrations table: %w", err)
	}

	rows, err := conn.QueryContext(ctx, "SELECT version, name FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("querying applied versions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	applied := make(map[int]string)
	for rows.Next() {
		var (
			version int
			name    string
		)
		if err := rows.Scan(&version, &name); err != nil {
			return nil, fmt.Errorf("scanning version: %w", err)
		}
		applied[version] = name
	}
	return applied, rows.Err()
}

// step runs one direction of m and updates schema_migrations in the same
// transaction.
func step(ctx context.Context, conn *sql.DB, m Migration, dir direction) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	script, record, args := m.UpSQL, recordApplied, []any{m.Version, m.Name, time.Now().UnixNano()}
	if dir == down {
		script, record, args = m.DownSQL, recordReverted, []any{m.Version}
	}

	if _, err := tx.ExecContext(ctx, script); err != nil {
		return fmt.Errorf("executing %s SQL: %w", dir, err)
	}
	if _, err := tx.ExecContext(ctx, record, args...); err != nil {
		return fmt.Errorf("recording %s migration: %w", dir, err)
	}

	return tx.Commit()
}

package stores

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/dayboard/internal/data/db"
)

func TestRecoverFromCorruption(t *testing.T) {
	t.Run("moves database and side files aside", func(t *testing.T) {
		dir := t.TempDir()
		dbPath := filepath.Join(dir, db.FileName)
		for _, suffix := range []string{"", "-wal", "-shm"} {
			require.NoError(t, os.WriteFile(dbPath+suffix, []byte("garbage"), 0o644))
		}

		require.NoError(t, RecoverFromCorruption(dir))

		for _, suffix := range []string{"", "-wal", "-shm"} {
			_, err := os.Stat(dbPath + suffix)
			assert.True(t, os.IsNotExist(err), "%s should be gone", db.FileName+suffix)
		}

		backups, err := filepath.Glob(filepath.Join(dir, db.FileName+".corrupt.*"))
		require.NoError(t, err)
		assert.Len(t, backups, 3)
	})

	t.Run("missing database is not an error", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, RecoverFromCorruption(dir))

		backups, _ := filepath.Glob(filepath.Join(dir, "*.corrupt.*"))
		assert.Empty(t, backups)
	})

	t.Run("backup name carries a timestamp", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, db.FileName), []byte("garbage"), 0o644))

		require.NoError(t, RecoverFromCorruption(dir))

		backups, _ := filepath.Glob(filepath.Join(dir, db.FileName+".corrupt.*"))
		require.Len(t, backups, 1)
		name := filepath.Base(backups[0])
		assert.True(t, strings.HasPrefix(name, db.FileName+".corrupt."))
		assert.Len(t, strings.TrimPrefix(name, db.FileName+".corrupt."), len("20060102-150405"))
	})

	t.Run("reopen after recovery succeeds", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, db.FileName), []byte("definitely not sqlite"), 0o644))

		_, err := db.Open(dir, db.DefaultOpenOptions())
		require.Error(t, err)

		require.NoError(t, RecoverFromCorruption(dir))

		database, err := db.Open(dir, db.DefaultOpenOptions())
		require.NoError(t, err)
		_ = database.Close()
	})
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a Config with all required fields set for testing.
func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	return &cfg
}

func TestValidateDeep_ValidConfig(t *testing.T) {
	cfg := validConfig(t)
	cfg.Server.AllowedOrigins = []string{"http://localhost:*", "https://*.example.com"}

	assert.NoError(t, cfg.ValidateDeep(""))
}

func TestValidateDeep_InvalidOrigins(t *testing.T) {
	cfg := validConfig(t)
	cfg.Server.AllowedOrigins = []string{"https://ok.example.com", "https://[broken", ""}

	err := cfg.ValidateDeep("")

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Len(t, fieldErrs, 2)
	assert.Equal(t, "server.allowed_origins[1]", fieldErrs[0].Field)
}

func TestValidateDeep_ConfigFileIsDirectory(t *testing.T) {
	cfg := validConfig(t)

	err := cfg.ValidateDeep(t.TempDir())

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Equal(t, "config_file", fieldErrs[0].Field)
}

func TestValidateDeep_DataDirIsFile(t *testing.T) {
	cfg := validConfig(t)
	file := filepath.Join(t.TempDir(), "data")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	cfg.DataDir = file

	err := cfg.ValidateDeep("")

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Equal(t, "data_dir", fieldErrs[0].Field)
	assert.Contains(t, fieldErrs[0].Err.Error(), "not a directory")
}

func TestValidateDeep_StructuralErrorsFirst(t *testing.T) {
	cfg := validConfig(t)
	cfg.Database.MaxOpenConns = 0
	cfg.Server.AllowedOrigins = []string{"https://[broken"}

	err := cfg.ValidateDeep("")

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	require.Len(t, fieldErrs, 1)
	assert.Equal(t, "database.max_open_conns", fieldErrs[0].Field)
}

func TestWarnings(t *testing.T) {
	cfg := validConfig(t)
	assert.Empty(t, cfg.Warnings())

	cfg.Server.AllowedOrigins = []string{"*"}
	cfg.Database.MaxIdleConns = cfg.Database.MaxOpenConns + 1
	cfg.Schedule.LockTimeout = 0

	warnings := cfg.Warnings()
	require.Len(t, warnings, 3)
	assert.Equal(t, "Server", warnings[0].Category)
	assert.Equal(t, "Database", warnings[1].Category)
	assert.Equal(t, "Schedule", warnings[2].Category)
}

package config

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hay-kot/criterio"
)

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Category string `json:"category"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

// ValidateDeep performs comprehensive validation of the configuration including
// origin patterns and file accessibility. The configPath argument specifies the
// config file location to validate (empty string skips config file check).
// This calls Validate() first for basic structural validation, then adds I/O checks.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		c.validateFileAccess(configPath),
		c.validateOrigins(),
	)
}

// Warnings returns non-fatal configuration issues.
func (c *Config) Warnings() []ValidationWarning {
	var warnings []ValidationWarning

	for _, origin := range c.Server.AllowedOrigins {
		if origin == "*" || origin == "**" {
			warnings = append(warnings, ValidationWarning{
				Category: "Server",
				Item:     origin,
				Message:  "allowed_origins matches every origin",
			})
		}
	}

	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		warnings = append(warnings, ValidationWarning{
			Category: "Database",
			Item:     "max_idle_conns",
			Message:  "max_idle_conns exceeds max_open_conns and will be capped",
		})
	}

	if c.Schedule.LockTimeout == 0 {
		warnings = append(warnings, ValidationWarning{
			Category: "Schedule",
			Item:     "lock_timeout",
			Message:  "lock_timeout is 0; requests wait for locks until they are cancelled",
		})
	}

	return warnings
}

// validateFileAccess checks config file and data directory.
func (c *Config) validateFileAccess(configPath string) error {
	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("data_dir", c.DataDir, isDirectoryOrNotExist),
	)
}

// validateOrigins checks allowed_origins are well-formed glob patterns.
func (c *Config) validateOrigins() error {
	var errs criterio.FieldErrorsBuilder
	for i, origin := range c.Server.AllowedOrigins {
		if origin == "" || !doublestar.ValidatePattern(origin) {
			errs = errs.Append(fmt.Sprintf("server.allowed_origins[%d]", i), fmt.Errorf("invalid origin pattern %q", origin))
		}
	}
	return errs.ToError()
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

// isDirectoryOrNotExist validates that a path is a directory or doesn't exist.
func isDirectoryOrNotExist(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil // will be created
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("exists but is not a directory")
	}
	return nil
}

func validAddr(addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 0 || n > 65535 {
		return fmt.Errorf("invalid port %q", port)
	}
	return nil
}

// Package config handles configuration loading and validation for dayboard.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hay-kot/criterio"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Schedule ScheduleConfig `yaml:"schedule"`
	DataDir  string         `yaml:"-"` // set by caller, not from config file
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// AllowedOrigins are glob patterns matched against the Origin header.
	// Empty disables CORS headers entirely.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DatabaseConfig holds SQLite connection pool settings.
type DatabaseConfig struct {
	MaxOpenConns int `yaml:"max_open_conns"`
	MaxIdleConns int `yaml:"max_idle_conns"`
	BusyTimeout  int `yaml:"busy_timeout"` // milliseconds
}

// ScheduleConfig holds board behaviour limits.
type ScheduleConfig struct {
	MaxRangeDays     int           `yaml:"max_range_days"`     // longest start..end span for one create
	ActivityPageSize int           `yaml:"activity_page_size"` // entries per activity page
	LockTimeout      time.Duration `yaml:"lock_timeout"`       // wait for task/date locks; 0 waits for the request
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:            "127.0.0.1:8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns: 10,
			MaxIdleConns: 5,
			BusyTimeout:  5000,
		},
		Schedule: ScheduleConfig{
			MaxRangeDays:     31,
			ActivityPageSize: 20,
			LockTimeout:      5 * time.Second,
		},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	cfg.DataDir = dataDir
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Server.Addr == "" {
		c.Server.Addr = defaults.Server.Addr
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = defaults.Server.ReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = defaults.Server.WriteTimeout
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = defaults.Server.ShutdownTimeout
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = defaults.Database.MaxOpenConns
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = defaults.Database.MaxIdleConns
	}
	if c.Database.BusyTimeout == 0 {
		c.Database.BusyTimeout = defaults.Database.BusyTimeout
	}
	if c.Schedule.MaxRangeDays == 0 {
		c.Schedule.MaxRangeDays = defaults.Schedule.MaxRangeDays
	}
	if c.Schedule.ActivityPageSize == 0 {
		c.Schedule.ActivityPageSize = defaults.Schedule.ActivityPageSize
	}
}

// Validate checks that the configuration is structurally valid. All problems
// are reported together as criterio.FieldErrors.
func (c *Config) Validate() error {
	var errs criterio.FieldErrorsBuilder

	if c.DataDir == "" {
		errs = errs.Append("data_dir", fmt.Errorf("data directory cannot be empty"))
	}
	if err := validAddr(c.Server.Addr); err != nil {
		errs = errs.Append("server.addr", err)
	}
	for field, d := range map[string]time.Duration{
		"server.read_timeout":     c.Server.ReadTimeout,
		"server.write_timeout":    c.Server.WriteTimeout,
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
	} {
		if d < 0 {
			errs = errs.Append(field, fmt.Errorf("must not be negative"))
		}
	}
	if c.Database.MaxOpenConns < 1 {
		errs = errs.Append("database.max_open_conns", fmt.Errorf("must be at least 1"))
	}
	if c.Database.MaxIdleConns < 0 {
		errs = errs.Append("database.max_idle_conns", fmt.Errorf("must not be negative"))
	}
	if c.Database.BusyTimeout < 0 {
		errs = errs.Append("database.busy_timeout", fmt.Errorf("must not be negative"))
	}
	if c.Schedule.MaxRangeDays < 1 {
		errs = errs.Append("schedule.max_range_days", fmt.Errorf("must be at least 1"))
	}
	if c.Schedule.ActivityPageSize < 1 {
		errs = errs.Append("schedule.activity_page_size", fmt.Errorf("must be at least 1"))
	}
	if c.Schedule.LockTimeout < 0 {
		errs = errs.Append("schedule.lock_timeout", fmt.Errorf("must not be negative"))
	}

	return errs.ToError()
}

// DatabasePath returns the path of the SQLite database file.
func (c *Config) DatabasePath(fileName string) string {
	return filepath.Join(c.DataDir, fileName)
}

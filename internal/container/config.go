// Package container provides dependency injection and lifecycle management
// for the tour confirmation service.
package container

import (
	"fmt"
	"time"

	"github.com/garyjia/tour-confirmation/internal/domain/reconcile"
)

// Config holds all configuration for the Container.
// It aggregates configurations for all subsystems.
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// Redis configuration for distributed locks
	Redis RedisConfig

	// Reconcile configuration
	Reconcile ReconcileConfig

	// Outbox configuration
	Outbox OutboxConfig

	// Server configuration
	Server ServerConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file, or ":memory:"
	Path string

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int

	// ConnMaxLifetime is the maximum connection lifetime
	ConnMaxLifetime time.Duration

	// MigrationsDir overrides the embedded migrations when set
	MigrationsDir string
}

// RedisConfig holds redis settings. An empty Addr selects the in-process locker.
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	DialTimeout  time.Duration
	RetryCount   int
	RetryBackoff time.Duration
}

// ReconcileConfig holds reconciliation settings.
type ReconcileConfig struct {
	// LockTTL bounds how long a crashed run blocks a sheet or quote
	LockTTL time.Duration

	// Options holds the marker phrases
	Options reconcile.Options
}

// OutboxConfig holds outbox worker settings.
type OutboxConfig struct {
	Enabled       bool
	PollInterval  time.Duration
	BatchSize     int
	StaleAfter    time.Duration
	MaxAttempts   int
	HandleTimeout time.Duration
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/confirmation.db",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			DialTimeout:  5 * time.Second,
			RetryCount:   0,
			RetryBackoff: 100 * time.Millisecond,
		},
		Reconcile: ReconcileConfig{
			LockTTL: 30 * time.Second,
			Options: reconcile.DefaultOptions(),
		},
		Outbox: OutboxConfig{
			Enabled:       true,
			PollInterval:  2 * time.Second,
			BatchSize:     50,
			StaleAfter:    30 * time.Second,
			MaxAttempts:   5,
			HandleTimeout: 30 * time.Second,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Reconcile.LockTTL <= 0 {
		return fmt.Errorf("reconcile.lock_ttl must be positive")
	}
	if c.Outbox.Enabled {
		if c.Outbox.PollInterval <= 0 {
			return fmt.Errorf("outbox.poll_interval must be positive")
		}
		if c.Outbox.MaxAttempts <= 0 {
			return fmt.Errorf("outbox.max_attempts must be positive")
		}
	}
	return nil
}

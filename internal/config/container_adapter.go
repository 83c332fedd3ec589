package config

import (
	"github.com/garyjia/tour-confirmation/internal/container"
	"github.com/garyjia/tour-confirmation/internal/domain/reconcile"
)

// ToContainerConfig converts the application Config to a container.Config.
// This provides a bridge between the file-based config loaded by viper
// and the container's configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
			MigrationsDir:   c.Database.MigrationsDir,
		},
		Redis: container.RedisConfig{
			Addr:         c.Redis.Addr,
			Password:     c.Redis.Password,
			DB:           c.Redis.DB,
			DialTimeout:  c.Redis.DialTimeout,
			RetryCount:   c.Redis.RetryCount,
			RetryBackoff: c.Redis.RetryBackoff,
		},
		Reconcile: container.ReconcileConfig{
			LockTTL: c.Reconcile.LockTTL,
			Options: reconcile.Options{
				SelfArrangedMarkers:   c.Reconcile.SelfArrangedMarkers,
				HotelBreakfastMarkers: c.Reconcile.HotelBreakfastMarkers,
				SameAsAboveMarkers:    c.Reconcile.SameAsAboveMarkers,
			},
		},
		Outbox: container.OutboxConfig{
			Enabled:       c.Outbox.Enabled,
			PollInterval:  c.Outbox.PollInterval,
			BatchSize:     c.Outbox.BatchSize,
			StaleAfter:    c.Outbox.StaleAfter,
			MaxAttempts:   c.Outbox.MaxAttempts,
			HandleTimeout: c.Outbox.HandleTimeout,
		},
		Server: container.ServerConfig{
			Host:            c.Server.Host,
			Port:            c.Server.Port,
			ReadTimeout:     c.Server.ReadTimeout,
			WriteTimeout:    c.Server.WriteTimeout,
			ShutdownTimeout: c.Server.ShutdownTimeout,
		},
	}
}

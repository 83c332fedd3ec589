package container

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/garyjia/tour-confirmation/internal/application/dispatcher"
	"github.com/garyjia/tour-confirmation/internal/application/port"
	"github.com/garyjia/tour-confirmation/internal/application/service"
	"github.com/garyjia/tour-confirmation/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/tour-confirmation/internal/infrastructure/worker"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Container manages all application dependencies and lifecycle.
// Components are initialized in dependency order and torn down in reverse.
type Container struct {
	config *Config
	logger *zap.Logger

	// Infrastructure - Data
	sqlDB        *sql.DB
	db           *sqlite.DB
	repositories *RepositoryBundle

	// Infrastructure - Locks
	locker port.Locker
	redis  *redis.Client

	// Application
	dispatcher dispatcher.Dispatcher
	services   *ServiceBundle

	// Workers
	workers *worker.Group

	// Lifecycle
	mu      sync.RWMutex
	ctx     context.Context
	cancel  context.CancelFunc
	closers []closer
	ready   atomic.Bool
	closed  atomic.Bool
}

type closer struct {
	name string
	fn   func() error
}

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Quote       port.QuoteRepository
	Snapshot    port.SnapshotRepository
	Sheet       port.SheetRepository
	SheetItem   port.SheetItemRepository
	Outbox      port.OutboxRepository
	CoreBooking port.CoreBookingRepository
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Confirmation  service.ConfirmationService
	Itinerary     service.ItinerarySyncService
	CoreTableSync *service.CoreTableSync
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start brings components up in dependency order: database and
// repositories, locker, dispatcher, services with their event handlers, then
// workers. If a step fails, everything already up is torn down again and the
// container can be started afresh.
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	c.logger.Info("Starting container")

	steps := []struct {
		name string
		run  func() error
	}{
		{"database", c.initDatabase},
		{"locker", c.initLocker},
		{"dispatcher", c.initDispatcher},
		{"services", c.initServices},
		{"workers", c.initWorkers},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			c.logger.Error("Container start failed", zap.String("step", step.name), zap.Error(err))
			if tdErr := c.teardown(); tdErr != nil {
				err = errors.Join(err, tdErr)
			}
			return fmt.Errorf("failed to initialize %s: %w", step.name, err)
		}
		c.logger.Info("Component initialized", zap.String("component", step.name))
	}

	c.ready.Store(true)
	c.logger.Info("Container started")
	return nil
}

// onClose registers a shutdown step; steps run last registered first
func (c *Container) onClose(name string, fn func() error) {
	c.closers = append(c.closers, closer{name: name, fn: fn})
}

// teardown cancels the container context and runs the registered shutdown
// steps. mu must be held.
func (c *Container) teardown() error {
	if c.cancel != nil {
		c.cancel()
	}

	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		cl := c.closers[i]
		if err := cl.fn(); err != nil {
			c.logger.Error("Shutdown step failed", zap.String("component", cl.name), zap.Error(err))
			errs = append(errs, fmt.Errorf("close %s: %w", cl.name, err))
			continue
		}
		c.logger.Info("Component closed", zap.String("component", cl.name))
	}
	c.closers = nil
	c.ready.Store(false)
	return errors.Join(errs...)
}

// Close shuts down all components in reverse start order
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}
	c.closed.Store(true)

	c.logger.Info("Closing container")
	if err := c.teardown(); err != nil {
		return fmt.Errorf("container closed with errors: %w", err)
	}
	c.logger.Info("Container closed")
	return nil
}

// Health returns health status of all components.
func (c *Container) Health(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}
	set := func(name string, healthy bool, msg string) {
		status.Components[name] = ComponentHealth{Healthy: healthy, Message: msg}
		if !healthy {
			status.Overall = false
		}
	}

	switch {
	case c.sqlDB == nil:
		set("database", false, "not initialized")
	default:
		if err := c.sqlDB.PingContext(ctx); err != nil {
			set("database", false, fmt.Sprintf("ping failed: %v", err))
		} else {
			set("database", true, "")
		}
	}

	switch {
	case c.locker == nil:
		set("locker", false, "not initialized")
	case c.redis == nil:
		set("locker", true, "in-process")
	default:
		if err := c.redis.Ping(ctx).Err(); err != nil {
			set("locker", false, fmt.Sprintf("redis ping failed: %v", err))
		} else {
			set("locker", true, "redis")
		}
	}

	if c.workers != nil {
		for _, ws := range c.workers.Status() {
			msg := fmt.Sprintf("sent: %d, failed: %d", ws.Sent, ws.Failed)
			if ws.LastError != "" {
				msg += ", last error: " + ws.LastError
			}
			set("worker."+ws.Name, ws.Running, msg)
		}
	} else {
		set("workers", false, "not initialized")
	}

	if c.dispatcher != nil {
		set("dispatcher", true, "")
	} else {
		set("dispatcher", false, "not initialized")
	}

	return status
}

func (c *Container) initDatabase() error {
	dbBundle, err := ProvideDatabase(&c.config.Database, c.logger)
	if err != nil {
		return err
	}

	c.sqlDB = dbBundle.SqlDB
	c.db = dbBundle.TransactionMgr
	c.onClose("database", c.sqlDB.Close)

	repos, err := ProvideRepositories(c.sqlDB, c.logger)
	if err != nil {
		return err
	}
	c.repositories = repos
	return nil
}

func (c *Container) initLocker() error {
	bundle, err := ProvideLocker(c.ctx, &c.config.Redis, c.logger)
	if err != nil {
		return err
	}
	c.locker = bundle.Locker
	c.redis = bundle.Redis
	if c.redis != nil {
		c.onClose("redis", c.redis.Close)
	}
	return nil
}

func (c *Container) initDispatcher() error {
	disp, err := ProvideDispatcher(c.logger)
	if err != nil {
		return err
	}
	c.dispatcher = disp
	c.onClose("dispatcher", c.dispatcher.Close)
	return nil
}

func (c *Container) initServices() error {
	services, err := ProvideServices(&ServiceDeps{
		Repos:      c.repositories,
		TxManager:  c.db,
		Locker:     c.locker,
		Dispatcher: c.dispatcher,
		Reconcile:  &c.config.Reconcile,
		Logger:     c.logger,
	})
	if err != nil {
		return err
	}
	c.services = services

	return ProvideEventHandlers(&HandlerDeps{
		Services:   c.services,
		Dispatcher: c.dispatcher,
		Logger:     c.logger,
	})
}

func (c *Container) initWorkers() error {
	workers, err := ProvideWorkers(&WorkerDeps{
		Repos:      c.repositories,
		Dispatcher: c.dispatcher,
		OutboxCfg:  &c.config.Outbox,
		Logger:     c.logger,
	})
	if err != nil {
		return err
	}
	c.workers = workers

	if err := c.workers.Start(c.ctx); err != nil {
		return err
	}
	c.onClose("workers", c.workers.Stop)
	return nil
}

// Services returns all application services.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// ServiceLogger returns the container's logger adapted to the key/value
// interface used by services and the HTTP adapter.
func (c *Container) ServiceLogger() service.Logger {
	return &zapLoggerAdapter{logger: c.logger}
}

// zapLoggerAdapter adapts zap.Logger to the service.Logger interface.
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, convertToZapFields(keysAndValues...)...)
}

// convertToZapFields converts key-value pairs to zap fields.
func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		if err, ok := keysAndValues[i+1].(error); ok {
			fields = append(fields, zap.NamedError(key, err))
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}

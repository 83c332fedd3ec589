package container

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garyjia/tour-confirmation/internal/application/dispatcher"
	"github.com/garyjia/tour-confirmation/internal/application/port"
	"github.com/garyjia/tour-confirmation/internal/application/service"
	"github.com/garyjia/tour-confirmation/internal/domain/event"
	"github.com/garyjia/tour-confirmation/internal/infrastructure/lock"
	"github.com/garyjia/tour-confirmation/internal/infrastructure/persistence/repository"
	"github.com/garyjia/tour-confirmation/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/tour-confirmation/internal/infrastructure/worker"
	"github.com/garyjia/tour-confirmation/migrations"
	"github.com/garyjia/tour-confirmation/pkg/database"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	SqlDB          *sql.DB
	TransactionMgr *sqlite.DB
}

// LockBundle holds the locker and, when redis is configured, its client.
type LockBundle struct {
	Locker port.Locker
	Redis  *redis.Client
}

// ProvideDatabase opens the database, applies pending migrations and wraps
// the connection in a transaction manager.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	migrator := database.NewMigrator(db, logger)
	if cfg.MigrationsDir != "" {
		err = migrator.RunMigrations(cfg.MigrationsDir)
	} else {
		err = migrator.RunMigrationsFS(migrations.FS, ".")
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		SqlDB:          db.DB,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(sqlDB *sql.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Quote:       repository.NewQuoteRepository(sqlDB, logger),
		Snapshot:    repository.NewSnapshotRepository(sqlDB, logger),
		Sheet:       repository.NewSheetRepository(sqlDB, logger),
		SheetItem:   repository.NewSheetItemRepository(sqlDB, logger),
		Outbox:      repository.NewOutboxRepository(sqlDB, logger),
		CoreBooking: repository.NewCoreBookingRepository(sqlDB, logger),
	}, nil
}

// ProvideLocker returns a redis-backed locker when an address is configured,
// otherwise an in-process one.
func ProvideLocker(ctx context.Context, cfg *RedisConfig, logger *zap.Logger) (*LockBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if cfg.Addr == "" {
		logger.Info("Redis address not set; using in-process locker")
		return &LockBundle{Locker: lock.NewLocalLocker()}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})

	pingCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect redis at %s: %w", cfg.Addr, err)
	}

	logger.Info("Connected to redis", zap.String("addr", cfg.Addr))
	return &LockBundle{
		Locker: lock.NewRedisLocker(rdb, lock.RedisConfig{
			RetryCount:   cfg.RetryCount,
			RetryBackoff: cfg.RetryBackoff,
		}, logger),
		Redis: rdb,
	}, nil
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return dispatcher.NewDispatcher(logger.With(zap.String("component", "dispatcher"))), nil
}

// ServiceDeps holds dependencies required for creating services.
type ServiceDeps struct {
	Repos      *RepositoryBundle
	TxManager  port.TransactionManager
	Locker     port.Locker
	Dispatcher dispatcher.Dispatcher
	Reconcile  *ReconcileConfig
	Logger     *zap.Logger
}

// ProvideServices creates all application services.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.Locker == nil {
		return nil, fmt.Errorf("locker is required")
	}
	if deps.Reconcile == nil {
		return nil, fmt.Errorf("reconcile config is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	serviceLogger := &zapLoggerAdapter{logger: deps.Logger}
	cfg := service.ConfirmationConfig{
		LockTTL: deps.Reconcile.LockTTL,
		Options: deps.Reconcile.Options,
	}

	var (
		confirmationOpts []service.ConfirmationOption
		itineraryOpts    []service.ItinerarySyncOption
	)
	if deps.Dispatcher != nil {
		confirmationOpts = append(confirmationOpts, service.WithConfirmationDispatcher(deps.Dispatcher))
		itineraryOpts = append(itineraryOpts, service.WithItineraryDispatcher(deps.Dispatcher))
	}

	return &ServiceBundle{
		Confirmation: service.NewConfirmationService(
			deps.Repos.Quote,
			deps.Repos.Snapshot,
			deps.Repos.Sheet,
			deps.Repos.SheetItem,
			deps.Repos.Outbox,
			deps.TxManager,
			deps.Locker,
			cfg,
			serviceLogger,
			confirmationOpts...,
		),
		Itinerary: service.NewItinerarySyncService(
			deps.Repos.Quote,
			deps.Locker,
			cfg,
			serviceLogger,
			itineraryOpts...,
		),
		CoreTableSync: service.NewCoreTableSync(deps.Repos.CoreBooking, serviceLogger),
	}, nil
}

// HandlerDeps holds dependencies required for registering event handlers.
type HandlerDeps struct {
	Services   *ServiceBundle
	Dispatcher dispatcher.Dispatcher
	Logger     *zap.Logger
}

// ProvideEventHandlers subscribes the application's handlers to the dispatcher.
func ProvideEventHandlers(deps *HandlerDeps) error {
	if deps == nil {
		return fmt.Errorf("handler dependencies are required")
	}
	if deps.Services == nil {
		return fmt.Errorf("services are required")
	}
	if deps.Dispatcher == nil {
		return fmt.Errorf("dispatcher is required")
	}
	if deps.Logger == nil {
		return fmt.Errorf("logger is required")
	}

	audit := createAuditLogHandler(deps.Logger)
	subscriptions := []struct {
		eventType event.Type
		name      string
		handler   dispatcher.Handler
	}{
		// delivered by the outbox worker; failures are retried from the outbox
		{event.TypeSheetItemInserted, "core_table_sync", deps.Services.CoreTableSync.HandleEvent},
		{event.TypeSheetRegenerated, "audit_log", audit},
		{event.TypeQuoteItinerarySynced, "audit_log", audit},
	}

	for _, sub := range subscriptions {
		if err := deps.Dispatcher.Register(sub.eventType, sub.name, sub.handler); err != nil {
			return fmt.Errorf("failed to register %s handler: %w", sub.name, err)
		}
	}
	return nil
}

// WorkerDeps holds dependencies required for creating workers.
type WorkerDeps struct {
	Repos      *RepositoryBundle
	Dispatcher dispatcher.Dispatcher
	OutboxCfg  *OutboxConfig
	Logger     *zap.Logger
}

// ProvideWorkers creates the background worker group. Workers are added but not started.
func ProvideWorkers(deps *WorkerDeps) (*worker.Group, error) {
	if deps == nil {
		return nil, fmt.Errorf("worker dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if deps.OutboxCfg == nil {
		return nil, fmt.Errorf("outbox config is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	group := worker.NewGroup(deps.Logger)

	if deps.OutboxCfg.Enabled {
		outboxWorker := worker.NewOutboxWorker(
			worker.OutboxWorkerConfig{
				PollInterval:  deps.OutboxCfg.PollInterval,
				BatchSize:     deps.OutboxCfg.BatchSize,
				StaleAfter:    deps.OutboxCfg.StaleAfter,
				MaxAttempts:   deps.OutboxCfg.MaxAttempts,
				HandleTimeout: deps.OutboxCfg.HandleTimeout,
			},
			deps.Repos.Outbox,
			deps.Dispatcher,
			deps.Logger,
		)
		if err := group.Add(outboxWorker); err != nil {
			return nil, err
		}
	} else {
		deps.Logger.Warn("Outbox worker disabled; core table sync will not run")
	}

	return group, nil
}

// createAuditLogHandler logs completed reconciliation and itinerary runs
func createAuditLogHandler(logger *zap.Logger) dispatcher.Handler {
	return func(_ context.Context, evt *event.Event) error {
		if evt == nil {
			return fmt.Errorf("event cannot be nil")
		}

		fields := []zap.Field{
			zap.String("event_id", evt.ID),
			zap.String("event_type", evt.Type.String()),
			zap.Int64("aggregate_id", evt.AggregateID),
		}
		for k, v := range evt.Payload {
			fields = append(fields, zap.Any(k, v))
		}
		logger.Info("Reconciliation audit", fields...)
		return nil
	}
}

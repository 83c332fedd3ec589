package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// MemoryPath opens a private in-memory database
const MemoryPath = ":memory:"

// Config holds database configuration
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DB is an open SQLite connection pool
type DB struct {
	*sql.DB
	logger *zap.Logger
}

// dsn builds the go-sqlite3 connection string. File databases run in WAL
// mode and take the write lock when a transaction begins: a regeneration
// reads the sheet before it writes, and a deferred lock upgrade in that
// window fails with SQLITE_BUSY instead of waiting for busy_timeout.
func dsn(cfg Config) (string, Config) {
	if cfg.Path == MemoryPath {
		// every connection to :memory: is a separate database
		cfg.MaxOpenConns = 1
		cfg.MaxIdleConns = 1
		cfg.ConnMaxLifetime = 0
		return "file::memory:?_foreign_keys=on", cfg
	}
	return fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on&_txlock=immediate", cfg.Path), cfg
}

// New opens and pings the database at cfg.Path
func New(cfg Config, logger *zap.Logger) (*DB, error) {
	source, cfg := dsn(cfg)

	sqlDB, err := sql.Open("sqlite3", source)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database %s: %w", cfg.Path, err)
	}

	logger.Info("Database connection established", zap.String("path", cfg.Path))
	return &DB{DB: sqlDB, logger: logger}, nil
}

// Close closes the connection pool
func (db *DB) Close() error {
	db.logger.Info("Closing database connection")
	return db.DB.Close()
}

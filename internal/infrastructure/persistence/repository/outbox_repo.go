package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/garyjia/tour-confirmation/internal/application/port"
	"github.com/garyjia/tour-confirmation/internal/domain/entity"
	"github.com/garyjia/tour-confirmation/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// OutboxRepository implements port.OutboxRepository.
// Entries are claimed by stamping locked_at/locked_by; a claim older than
// staleAfter is treated as abandoned and may be taken over.
type OutboxRepository struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewOutboxRepository creates a new outbox repository
func NewOutboxRepository(db *sql.DB, logger *zap.Logger) port.OutboxRepository {
	return &OutboxRepository{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Append records an entry in the caller's transaction
func (r *OutboxRepository) Append(ctx context.Context, entry *entity.OutboxEntry) error {
	if entry.Status == "" {
		entry.Status = entity.OutboxStatusPending
	}

	query := `
		INSERT INTO outbox_events (event_id, event_type, aggregate_id, payload, status)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		entry.EventID,
		entry.EventType,
		entry.AggregateID,
		entry.Payload,
		entry.Status,
	)
	if err != nil {
		r.logger.Error("Failed to append outbox entry",
			zap.String("event_type", entry.EventType),
			zap.Int64("aggregate_id", entry.AggregateID),
			zap.Error(err))
		return fmt.Errorf("failed to append outbox entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	entry.ID = id
	return nil
}

// ClaimPending selects PENDING and FAILED entries that are unlocked or whose
// lock went stale, then claims each with a guarded update. An entry another
// worker claimed in between is skipped.
func (r *OutboxRepository) ClaimPending(ctx context.Context, workerID string, limit int, staleAfter time.Duration) ([]*entity.OutboxEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	now := r.now()
	staleBefore := now.Add(-staleAfter)
	exec := sqlite.ExecutorFrom(ctx, r.db)

	query := `
		SELECT id, event_id, event_type, aggregate_id, payload, status, attempts,
			last_error, created_at
		FROM outbox_events
		WHERE status IN (?, ?)
			AND (locked_at IS NULL OR locked_at <= ?)
		ORDER BY id ASC
		LIMIT ?
	`
	rows, err := exec.QueryContext(ctx, query,
		entity.OutboxStatusPending, entity.OutboxStatusFailed, staleBefore, limit)
	if err != nil {
		r.logger.Error("Failed to select outbox entries", zap.Error(err))
		return nil, fmt.Errorf("failed to select outbox entries: %w", err)
	}

	var candidates []*entity.OutboxEntry
	for rows.Next() {
		var e entity.OutboxEntry
		if err := rows.Scan(
			&e.ID,
			&e.EventID,
			&e.EventType,
			&e.AggregateID,
			&e.Payload,
			&e.Status,
			&e.Attempts,
			&e.LastError,
			&e.CreatedAt,
		); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan outbox entry: %w", err)
		}
		candidates = append(candidates, &e)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to iterate outbox entries: %w", err)
	}
	rows.Close()

	claim := `
		UPDATE outbox_events
		SET locked_at = ?, locked_by = ?
		WHERE id = ?
			AND status IN (?, ?)
			AND (locked_at IS NULL OR locked_at <= ?)
	`
	claimed := make([]*entity.OutboxEntry, 0, len(candidates))
	for _, e := range candidates {
		result, err := exec.ExecContext(ctx, claim,
			now, workerID, e.ID,
			entity.OutboxStatusPending, entity.OutboxStatusFailed, staleBefore)
		if err != nil {
			return claimed, fmt.Errorf("failed to claim outbox entry %d: %w", e.ID, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return claimed, fmt.Errorf("failed to get rows affected: %w", err)
		}
		if n == 0 {
			continue
		}
		lockedAt := now
		e.LockedAt = &lockedAt
		e.LockedBy = workerID
		claimed = append(claimed, e)
	}

	if len(claimed) > 0 {
		r.logger.Debug("Claimed outbox entries",
			zap.String("worker_id", workerID),
			zap.Int("count", len(claimed)))
	}
	return claimed, nil
}

// MarkSent records a successful delivery and releases the claim
func (r *OutboxRepository) MarkSent(ctx context.Context, id int64) error {
	query := `
		UPDATE outbox_events
		SET status = ?, processed_at = ?, locked_at = NULL, locked_by = ''
		WHERE id = ?
	`
	if _, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, entity.OutboxStatusSent, r.now(), id); err != nil {
		r.logger.Error("Failed to mark outbox entry sent", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark outbox entry sent: %w", err)
	}
	return nil
}

// MarkFailed increments attempts, records errMsg, moves the entry to status
// and releases the claim. status must be FAILED or DEAD.
func (r *OutboxRepository) MarkFailed(ctx context.Context, id int64, errMsg string, status string) error {
	if status != entity.OutboxStatusFailed && status != entity.OutboxStatusDead {
		return fmt.Errorf("invalid failure status %q for outbox entry %d", status, id)
	}

	query := `
		UPDATE outbox_events
		SET attempts = attempts + 1,
			last_error = ?,
			status = ?,
			locked_at = NULL,
			locked_by = ''
		WHERE id = ?
	`
	if _, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, errMsg, status, id); err != nil {
		r.logger.Error("Failed to mark outbox entry failed", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark outbox entry failed: %w", err)
	}
	return nil
}

var _ port.OutboxRepository = (*OutboxRepository)(nil)

package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garyjia/tour-confirmation/internal/application/port"
	"github.com/garyjia/tour-confirmation/internal/domain/entity"
	"github.com/garyjia/tour-confirmation/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// SnapshotRepository implements port.SnapshotRepository
type SnapshotRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSnapshotRepository creates a new confirmed snapshot repository
func NewSnapshotRepository(db *sql.DB, logger *zap.Logger) port.SnapshotRepository {
	return &SnapshotRepository{
		db:     db,
		logger: logger,
	}
}

// ListByParent returns the current snapshot of a tour or package
func (r *SnapshotRepository) ListByParent(ctx context.Context, parentType string, parentID int64) ([]entity.ConfirmedSnapshotItem, error) {
	query := `
		SELECT id, parent_type, parent_id, category, supplier_name, title, service_date, created_at
		FROM confirmed_snapshot_items
		WHERE parent_type = ? AND parent_id = ?
		ORDER BY id ASC
	`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, parentType, parentID)
	if err != nil {
		r.logger.Error("Failed to list snapshot items",
			zap.String("parent_type", parentType),
			zap.Int64("parent_id", parentID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list snapshot items: %w", err)
	}
	defer rows.Close()

	var items []entity.ConfirmedSnapshotItem
	for rows.Next() {
		var (
			item        entity.ConfirmedSnapshotItem
			category    string
			serviceDate sql.NullString
		)
		if err := rows.Scan(
			&item.ID,
			&item.ParentType,
			&item.ParentID,
			&category,
			&item.SupplierName,
			&item.Title,
			&serviceDate,
			&item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot item: %w", err)
		}
		item.Category = entity.Category(category)
		item.ServiceDate = scanDate(serviceDate)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshot items: %w", err)
	}
	return items, nil
}

// Replace deletes the parent's snapshot and writes items in its place. Run
// it inside WithTransaction so readers never observe the gap.
func (r *SnapshotRepository) Replace(ctx context.Context, parentType string, parentID int64, items []entity.ConfirmedSnapshotItem) error {
	exec := sqlite.ExecutorFrom(ctx, r.db)

	if _, err := exec.ExecContext(ctx,
		`DELETE FROM confirmed_snapshot_items WHERE parent_type = ? AND parent_id = ?`,
		parentType, parentID,
	); err != nil {
		r.logger.Error("Failed to clear snapshot",
			zap.String("parent_type", parentType),
			zap.Int64("parent_id", parentID),
			zap.Error(err))
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}

	query := `
		INSERT INTO confirmed_snapshot_items (parent_type, parent_id, item_key, category, supplier_name, title, service_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	for _, item := range items {
		if _, err := exec.ExecContext(ctx, query,
			parentType,
			parentID,
			string(item.Key()),
			string(item.Category),
			item.SupplierName,
			item.Title,
			nullDate(item.ServiceDate),
		); err != nil {
			r.logger.Error("Failed to insert snapshot item",
				zap.String("parent_type", parentType),
				zap.Int64("parent_id", parentID),
				zap.Error(err))
			return fmt.Errorf("failed to insert snapshot item: %w", err)
		}
	}

	r.logger.Debug("Snapshot replaced",
		zap.String("parent_type", parentType),
		zap.Int64("parent_id", parentID),
		zap.Int("items", len(items)))
	return nil
}

var _ port.SnapshotRepository = (*SnapshotRepository)(nil)

package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garyjia/tour-confirmation/internal/application/port"
	"github.com/garyjia/tour-confirmation/internal/domain/entity"
	"github.com/garyjia/tour-confirmation/internal/infrastructure/persistence/sqlite"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SheetItemRepository implements port.SheetItemRepository.
// Each row stores its identity key; (sheet_id, item_key) is unique.
type SheetItemRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSheetItemRepository creates a new confirmation sheet item repository
func NewSheetItemRepository(db *sql.DB, logger *zap.Logger) port.SheetItemRepository {
	return &SheetItemRepository{
		db:     db,
		logger: logger,
	}
}

// ListItems returns the rows of a sheet in display order
func (r *SheetItemRepository) ListItems(ctx context.Context, sheetID int64) ([]*entity.ConfirmationSheetItem, error) {
	query := `
		SELECT id, sheet_id, workspace_id, category, supplier_name, title, service_date,
			quantity, unit_price, flight_number, route, resource_id,
			booking_status, actual_cost, sort_order, created_at, updated_at
		FROM confirmation_sheet_items
		WHERE sheet_id = ?
		ORDER BY sort_order ASC, id ASC
	`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, sheetID)
	if err != nil {
		r.logger.Error("Failed to list sheet items", zap.Int64("sheet_id", sheetID), zap.Error(err))
		return nil, fmt.Errorf("failed to list sheet items: %w", err)
	}
	defer rows.Close()

	var items []*entity.ConfirmationSheetItem
	for rows.Next() {
		item, err := scanSheetItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sheet item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sheet items: %w", err)
	}
	return items, nil
}

// DeletePendingItems removes every row of the sheet that has no actual cost
func (r *SheetItemRepository) DeletePendingItems(ctx context.Context, sheetID int64) (int64, error) {
	query := `DELETE FROM confirmation_sheet_items WHERE sheet_id = ? AND actual_cost IS NULL`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, sheetID)
	if err != nil {
		r.logger.Error("Failed to delete pending sheet items", zap.Int64("sheet_id", sheetID), zap.Error(err))
		return 0, fmt.Errorf("failed to delete pending sheet items: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// InsertItems inserts rows one by one within the caller's executor. On a
// failure the IDs assigned so far are left set; callers roll back the
// surrounding transaction.
func (r *SheetItemRepository) InsertItems(ctx context.Context, items []*entity.ConfirmationSheetItem) ([]int64, error) {
	query := `
		INSERT INTO confirmation_sheet_items (
			sheet_id, workspace_id, item_key, category, supplier_name, title, service_date,
			quantity, unit_price, flight_number, route, resource_id,
			booking_status, actual_cost, sort_order
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	exec := sqlite.ExecutorFrom(ctx, r.db)
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		status := item.BookingStatus
		if status == "" {
			status = entity.BookingStatusPending
		}
		result, err := exec.ExecContext(ctx, query,
			item.SheetID,
			item.WorkspaceID,
			string(item.Key()),
			string(item.Category),
			item.SupplierName,
			item.Title,
			nullDate(item.ServiceDate),
			item.Quantity,
			item.UnitPrice,
			item.FlightNumber,
			item.Route,
			item.ResourceID,
			status,
			item.ActualCost,
			item.SortOrder,
		)
		if err != nil {
			r.logger.Error("Failed to insert sheet item",
				zap.Int64("sheet_id", item.SheetID),
				zap.String("category", string(item.Category)),
				zap.String("title", item.Title),
				zap.Error(err))
			return ids, fmt.Errorf("failed to insert sheet item: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return ids, fmt.Errorf("failed to get last insert id: %w", err)
		}
		item.ID = id
		item.BookingStatus = status
		ids = append(ids, id)
	}
	return ids, nil
}

// SetActualCost records the paid cost of a row
func (r *SheetItemRepository) SetActualCost(ctx context.Context, id int64, cost decimal.Decimal) error {
	query := `
		UPDATE confirmation_sheet_items
		SET actual_cost = ?, booking_status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, cost, entity.BookingStatusConfirmed, id)
	if err != nil {
		r.logger.Error("Failed to set actual cost", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to set actual cost: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("sheet item not found: %d", id)
	}
	return nil
}

func scanSheetItem(rows *sql.Rows) (*entity.ConfirmationSheetItem, error) {
	var (
		item        entity.ConfirmationSheetItem
		category    string
		serviceDate sql.NullString
	)
	err := rows.Scan(
		&item.ID,
		&item.SheetID,
		&item.WorkspaceID,
		&category,
		&item.SupplierName,
		&item.Title,
		&serviceDate,
		&item.Quantity,
		&item.UnitPrice,
		&item.FlightNumber,
		&item.Route,
		&item.ResourceID,
		&item.BookingStatus,
		&item.ActualCost,
		&item.SortOrder,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.Category = entity.Category(category)
	item.ServiceDate = scanDate(serviceDate)
	return &item, nil
}

var _ port.SheetItemRepository = (*SheetItemRepository)(nil)

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

// CoreBookingRepository implements port.CoreBookingRepository
type CoreBookingRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCoreBookingRepository creates a new core booking mirror repository
func NewCoreBookingRepository(db *sql.DB, logger *zap.Logger) port.CoreBookingRepository {
	return &CoreBookingRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert writes the mirror row of one obligation, keyed by (sheet_id,
// item_key). A regenerated row replaces the mirror of the row it superseded.
// A redelivered event for an older sheet item id leaves the newer copy alone.
func (r *CoreBookingRepository) Upsert(ctx context.Context, item *entity.CoreBookingItem) error {
	if item.ItemKey == "" {
		return fmt.Errorf("core booking item %d has no item key", item.SheetItemID)
	}

	query := `
		INSERT INTO core_booking_items (
			sheet_id, item_key, sheet_item_id, workspace_id, category, supplier_name,
			title, service_date, booking_status, synced_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(sheet_id, item_key) DO UPDATE SET
			sheet_item_id = excluded.sheet_item_id,
			workspace_id = excluded.workspace_id,
			category = excluded.category,
			supplier_name = excluded.supplier_name,
			title = excluded.title,
			service_date = excluded.service_date,
			booking_status = excluded.booking_status,
			synced_at = excluded.synced_at
		WHERE excluded.sheet_item_id >= core_booking_items.sheet_item_id
	`
	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		item.SheetID,
		item.ItemKey.String(),
		item.SheetItemID,
		item.WorkspaceID,
		string(item.Category),
		item.SupplierName,
		item.Title,
		nullDate(item.ServiceDate),
		item.BookingStatus,
		item.SyncedAt.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to upsert core booking item",
			zap.Int64("sheet_item_id", item.SheetItemID),
			zap.Error(err))
		return fmt.Errorf("failed to upsert core booking item: %w", err)
	}
	return nil
}

// GetBySheetItemID retrieves the mirror of a sheet row, or nil
func (r *CoreBookingRepository) GetBySheetItemID(ctx context.Context, sheetItemID int64) (*entity.CoreBookingItem, error) {
	query := `
		SELECT sheet_item_id, sheet_id, item_key, workspace_id, category, supplier_name, title,
			service_date, booking_status, synced_at
		FROM core_booking_items
		WHERE sheet_item_id = ?
	`

	var (
		item        entity.CoreBookingItem
		itemKey     string
		category    string
		serviceDate sql.NullString
	)
	err := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, sheetItemID).Scan(
		&item.SheetItemID,
		&item.SheetID,
		&itemKey,
		&item.WorkspaceID,
		&category,
		&item.SupplierName,
		&item.Title,
		&serviceDate,
		&item.BookingStatus,
		&item.SyncedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get core booking item", zap.Int64("sheet_item_id", sheetItemID), zap.Error(err))
		return nil, fmt.Errorf("failed to get core booking item: %w", err)
	}
	item.ItemKey = entity.IdentityKey(itemKey)
	item.Category = entity.Category(category)
	item.ServiceDate = scanDate(serviceDate)
	return &item, nil
}

var _ port.CoreBookingRepository = (*CoreBookingRepository)(nil)

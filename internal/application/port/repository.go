package port

import (
	"context"
	"time"

	"github.com/garyjia/tour-confirmation/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// QuoteRepository reads quotes and writes back their cost categories
type QuoteRepository interface {
	Create(ctx context.Context, quote *entity.Quote) error
	GetByID(ctx context.Context, id int64) (*entity.Quote, error)
	UpdateCategories(ctx context.Context, id int64, categories []entity.CostCategory) error
}

// SnapshotRepository persists the confirmed snapshot of a tour or package
type SnapshotRepository interface {
	ListByParent(ctx context.Context, parentType string, parentID int64) ([]entity.ConfirmedSnapshotItem, error)
	// Replace supersedes the whole snapshot of a parent
	Replace(ctx context.Context, parentType string, parentID int64, items []entity.ConfirmedSnapshotItem) error
}

// SheetRepository defines persistence operations for ConfirmationSheet
type SheetRepository interface {
	Create(ctx context.Context, sheet *entity.ConfirmationSheet) error
	GetByID(ctx context.Context, id int64) (*entity.ConfirmationSheet, error)
}

// SheetItemRepository defines persistence operations for ConfirmationSheetItem
type SheetItemRepository interface {
	ListItems(ctx context.Context, sheetID int64) ([]*entity.ConfirmationSheetItem, error)
	// DeletePendingItems removes rows without an actual cost and returns the count
	DeletePendingItems(ctx context.Context, sheetID int64) (int64, error)
	// InsertItems inserts rows, sets their IDs and returns them in order
	InsertItems(ctx context.Context, items []*entity.ConfirmationSheetItem) ([]int64, error)
	// SetActualCost records the cost a booking workflow paid, protecting the row
	SetActualCost(ctx context.Context, id int64, cost decimal.Decimal) error
}

// OutboxRepository defines persistence operations for OutboxEntry
type OutboxRepository interface {
	Append(ctx context.Context, entry *entity.OutboxEntry) error
	// ClaimPending locks up to limit deliverable entries for workerID
	ClaimPending(ctx context.Context, workerID string, limit int, staleAfter time.Duration) ([]*entity.OutboxEntry, error)
	MarkSent(ctx context.Context, id int64) error
	// MarkFailed records a failed attempt and moves the entry to status (FAILED or DEAD)
	MarkFailed(ctx context.Context, id int64, errMsg string, status string) error
}

// CoreBookingRepository mirrors sheet rows into the core bookings table
type CoreBookingRepository interface {
	Upsert(ctx context.Context, item *entity.CoreBookingItem) error
	GetBySheetItemID(ctx context.Context, sheetItemID int64) (*entity.CoreBookingItem, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

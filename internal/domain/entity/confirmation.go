package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ConfirmationSheet owns the confirmation rows of one tour or package
type ConfirmationSheet struct {
	ID          int64     `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	QuoteID     int64     `json:"quote_id"`
	ParentType  string    `json:"parent_type"`
	ParentID    int64     `json:"parent_id"`
	Title       string    `json:"title"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ConfirmationSheetItem is a persisted confirmation row.
// Once ActualCost is set the row is immutable to regeneration.
type ConfirmationSheetItem struct {
	ID           int64               `json:"id"`
	SheetID      int64               `json:"sheet_id"`
	WorkspaceID  string              `json:"workspace_id"`
	Category     Category            `json:"category"`
	SupplierName string              `json:"supplier_name"`
	Title        string              `json:"title"`
	ServiceDate  *time.Time          `json:"service_date,omitempty"`
	Quantity     decimal.Decimal     `json:"quantity"`
	UnitPrice    decimal.NullDecimal `json:"unit_price"`
	FlightNumber string              `json:"flight_number,omitempty"`
	Route        string              `json:"route,omitempty"`
	ResourceID   string              `json:"resource_id,omitempty"`

	BookingStatus string              `json:"booking_status"`
	ActualCost    decimal.NullDecimal `json:"actual_cost"`
	SortOrder     int                 `json:"sort_order"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// Key derives the row's identity key
func (i ConfirmationSheetItem) Key() IdentityKey {
	return DeriveKey(i.Category, i.SupplierName, i.Title, i.ServiceDate)
}

// IsProtected reports whether an actual cost has been recorded
func (i ConfirmationSheetItem) IsProtected() bool {
	return i.ActualCost.Valid
}

// ConfirmedSnapshotItem records an item accepted into the confirmation workflow
// as of the last sync. The snapshot of a parent is replaced wholesale on every
// regeneration.
type ConfirmedSnapshotItem struct {
	ID           int64      `json:"id"`
	ParentType   string     `json:"parent_type"`
	ParentID     int64      `json:"parent_id"`
	Category     Category   `json:"category"`
	SupplierName string     `json:"supplier_name"`
	Title        string     `json:"title"`
	ServiceDate  *time.Time `json:"service_date,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Key derives the snapshot item's identity key
func (s ConfirmedSnapshotItem) Key() IdentityKey {
	return DeriveKey(s.Category, s.SupplierName, s.Title, s.ServiceDate)
}

// SnapshotFromSheet builds the snapshot image of a sheet's rows
func SnapshotFromSheet(sheet *ConfirmationSheet, items []*ConfirmationSheetItem) []ConfirmedSnapshotItem {
	out := make([]ConfirmedSnapshotItem, 0, len(items))
	for _, it := range items {
		out = append(out, ConfirmedSnapshotItem{
			ParentType:   sheet.ParentType,
			ParentID:     sheet.ParentID,
			Category:     it.Category,
			SupplierName: it.SupplierName,
			Title:        it.Title,
			ServiceDate:  it.ServiceDate,
		})
	}
	return out
}

// CoreBookingItem mirrors an inserted sheet row into the core bookings table
type CoreBookingItem struct {
	SheetItemID   int64       `json:"sheet_item_id"`
	SheetID       int64       `json:"sheet_id"`
	ItemKey       IdentityKey `json:"item_key"`
	WorkspaceID   string      `json:"workspace_id"`
	Category      Category    `json:"category"`
	SupplierName  string      `json:"supplier_name"`
	Title         string      `json:"title"`
	ServiceDate   *time.Time  `json:"service_date,omitempty"`
	BookingStatus string      `json:"booking_status"`
	SyncedAt      time.Time   `json:"synced_at"`
}

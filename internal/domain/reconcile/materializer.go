package reconcile

import (
	"github.com/garyjia/tour-confirmation/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Sort order positions for sheet rows
const (
	sortOrderOutbound = 0
	sortOrderReturn   = 1
	sortOrderBase     = 10
)

// InsertBatch is the outcome of materializing a change set
type InsertBatch struct {
	// Rows are the sheet items to insert
	Rows []*entity.ConfirmationSheetItem
	// Skipped are new records whose key already exists on the sheet
	Skipped []entity.ChangeRecord
	// Cancelled are reported for manual review and never deleted here
	Cancelled []entity.ChangeRecord
}

// Materialize turns the new records of cs into pending sheet rows.
// Candidates whose key is in existing, or was produced earlier in the same
// batch, are skipped, so calling it again with the persisted keys inserts
// nothing. existing is not modified.
func Materialize(sheet *entity.ConfirmationSheet, cs entity.ChangeSet, existing entity.KeySet) InsertBatch {
	var batch InsertBatch
	seen := existing.Clone()

	for idx, rec := range cs.Flatten() {
		switch rec.Type {
		case entity.ChangeConfirmed:
			continue
		case entity.ChangeCancelled:
			batch.Cancelled = append(batch.Cancelled, rec)
			continue
		}

		key := rec.Item.Key()
		if seen.Has(key) {
			batch.Skipped = append(batch.Skipped, rec)
			continue
		}
		seen.Add(key)
		batch.Rows = append(batch.Rows, newSheetItem(sheet, rec.Item, sortOrder(rec.Item, idx)))
	}

	return batch
}

func sortOrder(it entity.ServiceItem, idx int) int {
	switch it.Leg {
	case entity.LegOutbound:
		return sortOrderOutbound
	case entity.LegReturn:
		return sortOrderReturn
	default:
		return sortOrderBase + idx
	}
}

func newSheetItem(sheet *entity.ConfirmationSheet, it entity.ServiceItem, order int) *entity.ConfirmationSheetItem {
	row := &entity.ConfirmationSheetItem{
		SheetID:       sheet.ID,
		WorkspaceID:   sheet.WorkspaceID,
		Category:      it.Category,
		SupplierName:  it.SupplierName,
		Title:         it.Title,
		ServiceDate:   it.ServiceDate,
		Quantity:      it.Quantity,
		FlightNumber:  it.FlightNumber,
		Route:         route(it.DepartureAirport, it.ArrivalAirport),
		ResourceID:    it.ResourceID,
		BookingStatus: entity.BookingStatusPending,
		SortOrder:     order,
	}
	if it.UnitPrice != nil {
		row.UnitPrice = decimal.NewNullDecimal(*it.UnitPrice)
	}
	return row
}

func route(from, to string) string {
	if from == "" && to == "" {
		return ""
	}
	return from + "-" + to
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/tour-confirmation/internal/application/port"
	"github.com/garyjia/tour-confirmation/internal/domain/entity"
	"github.com/garyjia/tour-confirmation/internal/domain/event"
)

// CoreTableSync mirrors inserted sheet rows into the core bookings table.
// It consumes sheet_item.inserted events delivered by the outbox worker.
//
// Regeneration deletes pending rows and inserts them again under new ids.
// Mirror rows are keyed by (sheet_id, item_key), so the new row updates the
// mirror of the one it replaced. Mirror rows of cancelled items are kept as
// the last known booking and are not removed here.
type CoreTableSync struct {
	repo   port.CoreBookingRepository
	logger Logger
}

// NewCoreTableSync creates a new CoreTableSync handler
func NewCoreTableSync(repo port.CoreBookingRepository, logger Logger) *CoreTableSync {
	return &CoreTableSync{repo: repo, logger: logger}
}

// HandleEvent upserts the row described by evt
func (h *CoreTableSync) HandleEvent(ctx context.Context, evt *event.Event) error {
	if evt == nil {
		return fmt.Errorf("event cannot be nil")
	}
	if evt.Type != event.TypeSheetItemInserted {
		return nil
	}

	item := &entity.CoreBookingItem{
		SheetItemID:   evt.GetPayloadInt("sheet_item_id"),
		SheetID:       evt.GetPayloadInt("sheet_id"),
		WorkspaceID:   evt.GetPayloadString("workspace_id"),
		Category:      entity.Category(evt.GetPayloadString("category")),
		SupplierName:  evt.GetPayloadString("supplier_name"),
		Title:         evt.GetPayloadString("title"),
		ServiceDate:   entity.ParseDate(evt.GetPayloadString("service_date")),
		BookingStatus: evt.GetPayloadString("booking_status"),
		SyncedAt:      time.Now(),
	}
	if item.SheetItemID == 0 {
		item.SheetItemID = evt.AggregateID
	}
	if item.SheetItemID == 0 {
		return fmt.Errorf("event %s has no sheet item id", evt.ID)
	}
	item.ItemKey = entity.IdentityKey(evt.GetPayloadString("item_key"))
	if item.ItemKey == "" {
		// entries written before item_key joined the payload
		item.ItemKey = entity.DeriveKey(item.Category, item.SupplierName, item.Title, item.ServiceDate)
	}

	if err := h.repo.Upsert(ctx, item); err != nil {
		return fmt.Errorf("upsert core booking: %w", err)
	}

	h.logger.Info("Sheet item synced to core table",
		"sheet_item_id", item.SheetItemID,
		"item_key", item.ItemKey.String(),
		"event_id", evt.ID,
	)
	return nil
}

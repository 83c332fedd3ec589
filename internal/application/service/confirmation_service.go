package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/garyjia/tour-confirmation/internal/application/dispatcher"
	"github.com/garyjia/tour-confirmation/internal/application/port"
	"github.com/garyjia/tour-confirmation/internal/domain/entity"
	"github.com/garyjia/tour-confirmation/internal/domain/event"
	"github.com/garyjia/tour-confirmation/internal/domain/reconcile"
	"golang.org/x/sync/errgroup"
)

// ConfirmationService reconciles confirmation sheets against their quotes
type ConfirmationService interface {
	// PreviewChanges diffs the quote against the confirmed snapshot without writing
	PreviewChanges(ctx context.Context, sheetID int64) (*ReconcileReport, error)
	// RegenerateSheet clears pending rows and rematerializes the sheet
	RegenerateSheet(ctx context.Context, sheetID int64) (*ReconcileReport, error)
	// ReconcileSheet appends the rows missing from the sheet
	ReconcileSheet(ctx context.Context, sheetID int64) (*ReconcileReport, error)
}

// ReconcileReport summarizes one reconciliation pass for an operator
type ReconcileReport struct {
	SheetID     int64                 `json:"sheet_id"`
	Counts      entity.ChangeCounts   `json:"counts"`
	Changes     entity.ChangeSet      `json:"changes,omitempty"`
	Deleted     int64                 `json:"deleted"`
	Inserted    int                   `json:"inserted"`
	Skipped     int                   `json:"skipped"`
	InsertedIDs []int64               `json:"inserted_ids,omitempty"`
	Cancelled   []entity.ChangeRecord `json:"cancelled,omitempty"`
	DryRun      bool                  `json:"dry_run"`
}

// ConfirmationConfig configures ConfirmationService
type ConfirmationConfig struct {
	LockTTL time.Duration
	Options reconcile.Options
}

// ConfirmationOption configures optional collaborators
type ConfirmationOption func(*confirmationServiceImpl)

// WithConfirmationDispatcher publishes sheet.regenerated after each committed run
func WithConfirmationDispatcher(d dispatcher.Dispatcher) ConfirmationOption {
	return func(s *confirmationServiceImpl) {
		s.dispatcher = d
	}
}

type confirmationServiceImpl struct {
	quoteRepo     port.QuoteRepository
	snapshotRepo  port.SnapshotRepository
	sheetRepo     port.SheetRepository
	sheetItemRepo port.SheetItemRepository
	outboxRepo    port.OutboxRepository
	txManager     port.TransactionManager
	locker        port.Locker
	extractor     *reconcile.Extractor
	lockTTL       time.Duration
	dispatcher    dispatcher.Dispatcher
	logger        Logger
}

// NewConfirmationService creates a new ConfirmationService
func NewConfirmationService(
	quoteRepo port.QuoteRepository,
	snapshotRepo port.SnapshotRepository,
	sheetRepo port.SheetRepository,
	sheetItemRepo port.SheetItemRepository,
	outboxRepo port.OutboxRepository,
	txManager port.TransactionManager,
	locker port.Locker,
	cfg ConfirmationConfig,
	logger Logger,
	opts ...ConfirmationOption,
) ConfirmationService {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = DefaultLockTTL
	}
	s := &confirmationServiceImpl{
		quoteRepo:     quoteRepo,
		snapshotRepo:  snapshotRepo,
		sheetRepo:     sheetRepo,
		sheetItemRepo: sheetItemRepo,
		outboxRepo:    outboxRepo,
		txManager:     txManager,
		locker:        locker,
		extractor:     reconcile.NewExtractor(cfg.Options),
		lockTTL:       cfg.LockTTL,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PreviewChanges computes the change set of a sheet
func (s *confirmationServiceImpl) PreviewChanges(ctx context.Context, sheetID int64) (*ReconcileReport, error) {
	sheet, quote, snapshot, err := s.load(ctx, sheetID)
	if err != nil {
		return nil, err
	}

	cs := reconcile.Diff(s.extractor.Extract(quote, quote.Flights), snapshot)
	return &ReconcileReport{
		SheetID:   sheet.ID,
		Counts:    cs.Counts(),
		Changes:   cs,
		Cancelled: cs.OfType(entity.ChangeCancelled),
		DryRun:    true,
	}, nil
}

// RegenerateSheet deletes pending rows, then materializes the change set
func (s *confirmationServiceImpl) RegenerateSheet(ctx context.Context, sheetID int64) (*ReconcileReport, error) {
	return s.run(ctx, sheetID, true)
}

// ReconcileSheet materializes the change set without deleting anything
func (s *confirmationServiceImpl) ReconcileSheet(ctx context.Context, sheetID int64) (*ReconcileReport, error) {
	return s.run(ctx, sheetID, false)
}

func (s *confirmationServiceImpl) run(ctx context.Context, sheetID int64, deletePending bool) (*ReconcileReport, error) {
	var report *ReconcileReport
	err := withLock(ctx, s.locker, sheetLockKey(sheetID), s.lockTTL, s.logger, func() error {
		var err error
		report, err = s.materialize(ctx, sheetID, deletePending)
		return err
	})
	if err != nil {
		s.logger.Error("Failed to reconcile confirmation sheet",
			"sheet_id", sheetID,
			"regenerate", deletePending,
			"error", err,
		)
		return nil, err
	}

	s.logger.Info("Confirmation sheet reconciled",
		"sheet_id", sheetID,
		"regenerate", deletePending,
		"new", report.Counts.New,
		"confirmed", report.Counts.Confirmed,
		"cancelled", report.Counts.Cancelled,
		"deleted", report.Deleted,
		"inserted", report.Inserted,
		"skipped", report.Skipped,
	)
	s.publishRegenerated(ctx, report)
	return report, nil
}

func (s *confirmationServiceImpl) materialize(ctx context.Context, sheetID int64, deletePending bool) (*ReconcileReport, error) {
	sheet, quote, snapshot, err := s.load(ctx, sheetID)
	if err != nil {
		return nil, err
	}

	source := s.extractor.Extract(quote, quote.Flights)
	cs := reconcile.Diff(source, snapshot)
	report := &ReconcileReport{
		SheetID: sheet.ID,
		Counts:  cs.Counts(),
		Changes: cs,
	}

	// The idempotence check must observe the post-delete state, so every
	// write below runs in order inside one transaction.
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if deletePending {
			deleted, err := s.sheetItemRepo.DeletePendingItems(txCtx, sheet.ID)
			if err != nil {
				return fmt.Errorf("delete pending items: %w", err)
			}
			report.Deleted = deleted
		}

		existing, err := s.sheetItemRepo.ListItems(txCtx, sheet.ID)
		if err != nil {
			return fmt.Errorf("list items: %w", err)
		}
		keys := entity.NewKeySet()
		for _, it := range existing {
			keys.Add(it.Key())
		}

		// Materialize against the rows actually on the sheet: after a delete,
		// items the snapshot still confirms have no row and must come back.
		sheetChanges := reconcile.Diff(source, entity.SnapshotFromSheet(sheet, existing))
		batch := reconcile.Materialize(sheet, sheetChanges, keys)
		report.Skipped = len(batch.Skipped)
		report.Cancelled = mergeCancelled(cs.OfType(entity.ChangeCancelled), batch.Cancelled)

		if len(batch.Rows) > 0 {
			ids, err := s.sheetItemRepo.InsertItems(txCtx, batch.Rows)
			if err != nil {
				return fmt.Errorf("insert items: %w", err)
			}
			report.InsertedIDs = ids
			report.Inserted = len(ids)

			for _, row := range batch.Rows {
				entry, err := newInsertedOutboxEntry(row)
				if err != nil {
					return err
				}
				if err := s.outboxRepo.Append(txCtx, entry); err != nil {
					return fmt.Errorf("append outbox entry: %w", err)
				}
			}
		}

		image := entity.SnapshotFromSheet(sheet, append(existing, batch.Rows...))
		if err := s.snapshotRepo.Replace(txCtx, sheet.ParentType, sheet.ParentID, image); err != nil {
			return fmt.Errorf("replace snapshot: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return report, nil
}

// load reads the sheet, then its quote and snapshot concurrently
func (s *confirmationServiceImpl) load(ctx context.Context, sheetID int64) (*entity.ConfirmationSheet, *entity.Quote, []entity.ConfirmedSnapshotItem, error) {
	sheet, err := s.sheetRepo.GetByID(ctx, sheetID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("get sheet: %w", err)
	}
	if sheet == nil {
		return nil, nil, nil, fmt.Errorf("%w: %d", ErrSheetNotFound, sheetID)
	}

	var (
		quote    *entity.Quote
		snapshot []entity.ConfirmedSnapshotItem
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		quote, err = s.quoteRepo.GetByID(gctx, sheet.QuoteID)
		if err != nil {
			return fmt.Errorf("get quote: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		snapshot, err = s.snapshotRepo.ListByParent(gctx, sheet.ParentType, sheet.ParentID)
		if err != nil {
			return fmt.Errorf("list snapshot: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}
	if quote == nil {
		return nil, nil, nil, fmt.Errorf("%w: %d", ErrQuoteNotFound, sheet.QuoteID)
	}

	return sheet, quote, snapshot, nil
}

func (s *confirmationServiceImpl) publishRegenerated(ctx context.Context, report *ReconcileReport) {
	if s.dispatcher == nil {
		return
	}
	evt := event.NewEvent(event.TypeSheetRegenerated, report.SheetID, "", map[string]interface{}{
		"new":       report.Counts.New,
		"confirmed": report.Counts.Confirmed,
		"cancelled": report.Counts.Cancelled,
		"deleted":   report.Deleted,
		"inserted":  report.Inserted,
		"skipped":   report.Skipped,
	})
	s.dispatcher.DispatchAsync(context.WithoutCancel(ctx), evt)
}

// mergeCancelled lists the snapshot's cancellations, then any sheet rows the
// source no longer names that the snapshot did not know about
func mergeCancelled(fromSnapshot, fromSheet []entity.ChangeRecord) []entity.ChangeRecord {
	seen := entity.NewKeySet()
	out := make([]entity.ChangeRecord, 0, len(fromSnapshot)+len(fromSheet))
	for _, records := range [][]entity.ChangeRecord{fromSnapshot, fromSheet} {
		for _, r := range records {
			key := r.Item.Key()
			if seen.Has(key) {
				continue
			}
			seen.Add(key)
			out = append(out, r)
		}
	}
	return out
}

// newInsertedOutboxEntry records a sheet_item.inserted event for row
func newInsertedOutboxEntry(row *entity.ConfirmationSheetItem) (*entity.OutboxEntry, error) {
	evt := event.NewEvent(event.TypeSheetItemInserted, row.ID, row.WorkspaceID, InsertedPayload(row))
	payload, err := json.Marshal(evt.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal outbox payload: %w", err)
	}
	return &entity.OutboxEntry{
		EventID:     evt.ID,
		EventType:   evt.Type.String(),
		AggregateID: row.ID,
		Payload:     string(payload),
		Status:      entity.OutboxStatusPending,
	}, nil
}

// InsertedPayload is the event payload describing an inserted sheet row
func InsertedPayload(row *entity.ConfirmationSheetItem) map[string]interface{} {
	serviceDate := ""
	if row.ServiceDate != nil {
		serviceDate = row.ServiceDate.Format(entity.DateLayout)
	}
	return map[string]interface{}{
		"sheet_item_id":  row.ID,
		"sheet_id":       row.SheetID,
		"item_key":       row.Key().String(),
		"workspace_id":   row.WorkspaceID,
		"category":       string(row.Category),
		"supplier_name":  row.SupplierName,
		"title":          row.Title,
		"service_date":   serviceDate,
		"booking_status": row.BookingStatus,
	}
}

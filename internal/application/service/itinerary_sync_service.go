package service

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/tour-confirmation/internal/application/dispatcher"
	"github.com/garyjia/tour-confirmation/internal/application/port"
	"github.com/garyjia/tour-confirmation/internal/domain/entity"
	"github.com/garyjia/tour-confirmation/internal/domain/event"
	"github.com/garyjia/tour-confirmation/internal/domain/reconcile"
)

// ItinerarySyncService propagates itinerary edits into quote cost buckets
type ItinerarySyncService interface {
	SyncItinerary(ctx context.Context, quoteID int64, days []entity.ItineraryDay) (*ItinerarySyncReport, error)
}

// ItinerarySyncReport summarizes a sync. Unpriced items need a human to price them.
type ItinerarySyncReport struct {
	QuoteID            int64 `json:"quote_id"`
	MealItems          int   `json:"meal_items"`
	AccommodationItems int   `json:"accommodation_items"`
	Priced             int   `json:"priced"`
	Unpriced           int   `json:"unpriced"`
}

// ItinerarySyncOption configures optional collaborators
type ItinerarySyncOption func(*itinerarySyncServiceImpl)

// WithItineraryDispatcher publishes quote.itinerary_synced after each sync
func WithItineraryDispatcher(d dispatcher.Dispatcher) ItinerarySyncOption {
	return func(s *itinerarySyncServiceImpl) {
		s.dispatcher = d
	}
}

type itinerarySyncServiceImpl struct {
	quoteRepo  port.QuoteRepository
	locker     port.Locker
	priceSync  *reconcile.PriceSync
	lockTTL    time.Duration
	dispatcher dispatcher.Dispatcher
	logger     Logger
}

// NewItinerarySyncService creates a new ItinerarySyncService
func NewItinerarySyncService(
	quoteRepo port.QuoteRepository,
	locker port.Locker,
	cfg ConfirmationConfig,
	logger Logger,
	opts ...ItinerarySyncOption,
) ItinerarySyncService {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = DefaultLockTTL
	}
	s := &itinerarySyncServiceImpl{
		quoteRepo: quoteRepo,
		locker:    locker,
		priceSync: reconcile.NewPriceSync(cfg.Options),
		lockTTL:   cfg.LockTTL,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SyncItinerary rebuilds the quote's meals and accommodation buckets from days.
// Calls are serialized per quote so concurrent edits cannot lose an update.
func (s *itinerarySyncServiceImpl) SyncItinerary(ctx context.Context, quoteID int64, days []entity.ItineraryDay) (*ItinerarySyncReport, error) {
	if err := validateDays(days); err != nil {
		return nil, err
	}

	var report *ItinerarySyncReport
	err := withLock(ctx, s.locker, quoteLockKey(quoteID), s.lockTTL, s.logger, func() error {
		quote, err := s.quoteRepo.GetByID(ctx, quoteID)
		if err != nil {
			return fmt.Errorf("get quote: %w", err)
		}
		if quote == nil {
			return fmt.Errorf("%w: %d", ErrQuoteNotFound, quoteID)
		}

		categories := s.priceSync.SyncMealsAndAccommodation(days, quote.Categories)
		if err := s.quoteRepo.UpdateCategories(ctx, quoteID, categories); err != nil {
			return fmt.Errorf("update categories: %w", err)
		}

		report = summarizeSync(quoteID, categories)
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to sync itinerary", "quote_id", quoteID, "error", err)
		return nil, err
	}

	s.logger.Info("Itinerary synced",
		"quote_id", quoteID,
		"meal_items", report.MealItems,
		"accommodation_items", report.AccommodationItems,
		"unpriced", report.Unpriced,
	)

	if s.dispatcher != nil {
		s.dispatcher.DispatchAsync(context.WithoutCancel(ctx), event.NewEvent(event.TypeQuoteItinerarySynced, quoteID, "", map[string]interface{}{
			"meal_items":          report.MealItems,
			"accommodation_items": report.AccommodationItems,
			"unpriced":            report.Unpriced,
		}))
	}
	return report, nil
}

func validateDays(days []entity.ItineraryDay) error {
	seen := make(map[int]bool, len(days))
	for _, d := range days {
		if d.Day < 1 {
			return fmt.Errorf("%w: day %d must be positive", ErrInvalidItinerary, d.Day)
		}
		if seen[d.Day] {
			return fmt.Errorf("%w: day %d appears twice", ErrInvalidItinerary, d.Day)
		}
		seen[d.Day] = true
	}
	return nil
}

func summarizeSync(quoteID int64, categories []entity.CostCategory) *ItinerarySyncReport {
	report := &ItinerarySyncReport{QuoteID: quoteID}
	for _, c := range categories {
		var n *int
		switch c.ID {
		case entity.BucketMeals:
			n = &report.MealItems
		case entity.BucketAccommodation:
			n = &report.AccommodationItems
		default:
			continue
		}
		for _, it := range c.Items {
			*n++
			if it.IsPriced() {
				report.Priced++
			} else {
				report.Unpriced++
			}
		}
	}
	return report
}

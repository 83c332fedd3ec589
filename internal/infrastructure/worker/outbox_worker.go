package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/garyjia/tour-confirmation/internal/application/dispatcher"
	"github.com/garyjia/tour-confirmation/internal/application/port"
	"github.com/garyjia/tour-confirmation/internal/domain/delivery"
	"github.com/garyjia/tour-confirmation/internal/domain/entity"
	"github.com/garyjia/tour-confirmation/internal/domain/event"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventDispatcher delivers a decoded outbox event to its handlers
type EventDispatcher interface {
	Dispatch(ctx context.Context, evt *event.Event) error
}

// OutboxWorkerConfig holds configuration for the outbox worker
type OutboxWorkerConfig struct {
	WorkerID      string
	PollInterval  time.Duration
	BatchSize     int
	StaleAfter    time.Duration
	MaxAttempts   int
	HandleTimeout time.Duration
}

// DefaultOutboxWorkerConfig returns default configuration
func DefaultOutboxWorkerConfig() OutboxWorkerConfig {
	return OutboxWorkerConfig{
		PollInterval:  2 * time.Second,
		BatchSize:     50,
		StaleAfter:    30 * time.Second,
		MaxAttempts:   5,
		HandleTimeout: 30 * time.Second,
	}
}

// OutboxWorker delivers outbox entries through the event dispatcher.
// Delivery is at least once: an entry whose handler succeeded but whose
// MarkSent failed is delivered again, so handlers must be idempotent.
type OutboxWorker struct {
	config     OutboxWorkerConfig
	outboxRepo port.OutboxRepository
	dispatcher EventDispatcher
	logger     *zap.Logger

	// Runtime state
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	isRunning bool
	sent      int
	failed    int
	lastError error
}

// NewOutboxWorker creates a new outbox worker
func NewOutboxWorker(
	config OutboxWorkerConfig,
	outboxRepo port.OutboxRepository,
	events EventDispatcher,
	logger *zap.Logger,
) *OutboxWorker {
	defaults := DefaultOutboxWorkerConfig()
	if config.WorkerID == "" {
		config.WorkerID = "outbox-" + uuid.NewString()[:8]
	}
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	if config.StaleAfter <= 0 {
		config.StaleAfter = defaults.StaleAfter
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaults.MaxAttempts
	}
	if config.HandleTimeout <= 0 {
		config.HandleTimeout = defaults.HandleTimeout
	}

	return &OutboxWorker{
		config:     config,
		outboxRepo: outboxRepo,
		dispatcher: events,
		logger:     logger,
	}
}

// Start begins the polling loop
func (w *OutboxWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.isRunning {
		w.mu.Unlock()
		return fmt.Errorf("outbox worker already running")
	}

	w.ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	w.isRunning = true
	w.mu.Unlock()

	w.logger.Info("OutboxWorker started",
		zap.String("worker_id", w.config.WorkerID),
		zap.Duration("poll_interval", w.config.PollInterval),
		zap.Int("batch_size", w.config.BatchSize))

	go w.pollLoop()
	return nil
}

// Stop cancels the loop and waits for the in-flight batch to finish
func (w *OutboxWorker) Stop() error {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return nil
	}
	w.isRunning = false
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	cancel()
	<-done

	w.mu.RLock()
	w.logger.Info("OutboxWorker stopped",
		zap.Int("sent_count", w.sent),
		zap.Int("failed_count", w.failed))
	w.mu.RUnlock()
	return nil
}

// Name returns the worker name for identification
func (w *OutboxWorker) Name() string {
	return "OutboxWorker"
}

// Stats returns delivered and failed counts since construction
func (w *OutboxWorker) Stats() (sent, failed int, lastError error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.sent, w.failed, w.lastError
}

func (w *OutboxWorker) pollLoop() {
	defer close(w.done)

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			w.logger.Debug("Outbox poll loop context cancelled")
			return
		case <-ticker.C:
			if _, err := w.ProcessOnce(w.ctx); err != nil {
				w.mu.Lock()
				w.lastError = err
				w.mu.Unlock()
				w.logger.Error("Failed to process outbox batch", zap.Error(err))
			}
		}
	}
}

// ProcessOnce claims one batch and delivers it, returning how many entries
// were delivered
func (w *OutboxWorker) ProcessOnce(ctx context.Context) (int, error) {
	entries, err := w.outboxRepo.ClaimPending(ctx, w.config.WorkerID, w.config.BatchSize, w.config.StaleAfter)
	if err != nil {
		return 0, fmt.Errorf("claim outbox entries: %w", err)
	}

	delivered := 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			// unprocessed claims go stale and are picked up again
			break
		}
		if w.deliver(ctx, entry) {
			delivered++
		}
	}
	return delivered, nil
}

func (w *OutboxWorker) deliver(ctx context.Context, entry *entity.OutboxEntry) bool {
	evt, err := ToEvent(entry)
	if err == nil {
		handleCtx, cancel := context.WithTimeout(ctx, w.config.HandleTimeout)
		err = w.dispatcher.Dispatch(handleCtx, evt)
		cancel()
	}

	if err != nil {
		fields := []zap.Field{
			zap.Int64("outbox_id", entry.ID),
			zap.String("event_type", entry.EventType),
			zap.Int("attempts", entry.Attempts+1),
			zap.Error(err),
		}
		var herr *dispatcher.HandlerError
		if errors.As(err, &herr) {
			fields = append(fields, zap.String("handler_name", herr.Subscriber))
		}
		w.logger.Warn("Outbox delivery failed", fields...)
		next, nextErr := delivery.Next(ctx, entry.Status, entry.Attempts, w.config.MaxAttempts, false)
		if nextErr != nil {
			// a claimed entry is PENDING or FAILED; park anything else
			w.logger.Warn("Unexpected outbox entry status", zap.Int64("outbox_id", entry.ID), zap.Error(nextErr))
			next = delivery.StateDead
		}
		if markErr := w.outboxRepo.MarkFailed(ctx, entry.ID, err.Error(), next.String()); markErr != nil {
			w.logger.Error("Failed to mark outbox entry failed", zap.Int64("outbox_id", entry.ID), zap.Error(markErr))
		}
		if next == delivery.StateDead {
			w.logger.Error("Outbox entry moved to dead letter",
				zap.Int64("outbox_id", entry.ID),
				zap.String("event_id", entry.EventID))
		}
		w.mu.Lock()
		w.failed++
		w.mu.Unlock()
		return false
	}

	if err := w.outboxRepo.MarkSent(ctx, entry.ID); err != nil {
		w.logger.Error("Failed to mark outbox entry sent", zap.Int64("outbox_id", entry.ID), zap.Error(err))
		return false
	}
	w.mu.Lock()
	w.sent++
	w.mu.Unlock()
	return true
}

// ToEvent decodes an outbox entry back into the domain event it recorded
func ToEvent(entry *entity.OutboxEntry) (*event.Event, error) {
	t := event.Type(entry.EventType)
	if !t.IsValid() {
		return nil, fmt.Errorf("unknown event type %q", entry.EventType)
	}

	var payload map[string]interface{}
	if entry.Payload != "" {
		if err := json.Unmarshal([]byte(entry.Payload), &payload); err != nil {
			return nil, fmt.Errorf("decode payload of outbox entry %d: %w", entry.ID, err)
		}
	}

	evt := &event.Event{
		ID:            entry.EventID,
		Type:          t,
		AggregateID:   entry.AggregateID,
		Payload:       payload,
		Timestamp:     entry.CreatedAt,
		CorrelationID: entry.EventID,
	}
	evt.WorkspaceID = evt.GetPayloadString("workspace_id")
	return evt, nil
}

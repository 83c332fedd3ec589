package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/garyjia/tour-confirmation/internal/domain/event"
	"go.uber.org/zap"
)

var (
	// ErrClosed is returned when dispatching on a closed dispatcher
	ErrClosed = errors.New("dispatcher is closed")
	// ErrNoHandlers is returned by Dispatch when nothing handles the event type.
	// The outbox worker relies on it to keep undeliverable entries retryable.
	ErrNoHandlers = errors.New("no handlers registered for event type")
	// ErrDuplicateHandler is returned when a name is registered twice for one event type
	ErrDuplicateHandler = errors.New("handler already registered")
)

// Dispatcher routes reconciliation events to named subscribers.
//
// Outbox events (sheet.item_inserted) arrive through Dispatch from the
// outbox worker, which owns retries. Notifications the services raise after
// a committed run go through DispatchAsync and are best effort.
type Dispatcher interface {
	// Register subscribes handler to eventType. Names are unique per type.
	Register(eventType event.Type, name string, handler Handler) error

	// Dispatch runs the subscribers of evt.Type in registration order and
	// stops at the first failure, returned as a *HandlerError
	Dispatch(ctx context.Context, evt *event.Event) error

	// DispatchAsync runs the subscribers on a background goroutine and logs failures
	DispatchAsync(ctx context.Context, evt *event.Event)

	// Close rejects further events and waits for background deliveries
	Close() error
}

type eventDispatcher struct {
	logger *zap.Logger

	mu       sync.Mutex
	routes   map[event.Type][]subscriber
	closed   bool
	inflight sync.WaitGroup
}

// NewDispatcher creates a dispatcher with no subscribers
func NewDispatcher(logger *zap.Logger) Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &eventDispatcher{
		logger: logger,
		routes: make(map[event.Type][]subscriber),
	}
}

func (d *eventDispatcher) Register(eventType event.Type, name string, handler Handler) error {
	if !eventType.IsValid() {
		return fmt.Errorf("register %q: unknown event type %q", name, eventType)
	}
	if name == "" {
		return fmt.Errorf("register %s: handler name is required", eventType)
	}
	if handler == nil {
		return fmt.Errorf("register %s/%s: handler is nil", eventType, name)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}
	for _, s := range d.routes[eventType] {
		if s.name == name {
			return fmt.Errorf("%w: %s/%s", ErrDuplicateHandler, eventType, name)
		}
	}

	// subscribers are appended to a fresh slice so in-flight dispatches keep
	// iterating the list they started with
	current := d.routes[eventType]
	next := make([]subscriber, len(current), len(current)+1)
	copy(next, current)
	d.routes[eventType] = append(next, subscriber{name: name, handle: handler})

	d.logger.Info("Handler registered",
		zap.String("event_type", eventType.String()),
		zap.String("handler_name", name))
	return nil
}

// subscribersFor returns the current route for t, or ErrClosed
func (d *eventDispatcher) subscribersFor(t event.Type) ([]subscriber, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrClosed
	}
	return d.routes[t], nil
}

func (d *eventDispatcher) Dispatch(ctx context.Context, evt *event.Event) error {
	if evt == nil {
		return fmt.Errorf("event cannot be nil")
	}

	subs, err := d.subscribersFor(evt.Type)
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		return fmt.Errorf("%w: %s", ErrNoHandlers, evt.Type)
	}

	d.logger.Debug("Dispatching event",
		zap.String("event_type", evt.Type.String()),
		zap.String("event_id", evt.ID),
		zap.Int64("aggregate_id", evt.AggregateID),
		zap.Int("handler_count", len(subs)))

	return d.run(ctx, evt, subs)
}

func (d *eventDispatcher) run(ctx context.Context, evt *event.Event, subs []subscriber) error {
	for _, s := range subs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.invoke(ctx, evt); err != nil {
			d.logger.Error("Handler failed",
				zap.String("event_type", evt.Type.String()),
				zap.String("event_id", evt.ID),
				zap.String("handler_name", s.name),
				zap.Error(err))
			return err
		}
	}
	return nil
}

func (d *eventDispatcher) DispatchAsync(ctx context.Context, evt *event.Event) {
	if evt == nil {
		return
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.logger.Warn("Dispatcher closed, dropping event",
			zap.String("event_type", evt.Type.String()),
			zap.String("event_id", evt.ID))
		return
	}
	subs := d.routes[evt.Type]
	if len(subs) == 0 {
		d.mu.Unlock()
		return
	}
	d.inflight.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.inflight.Done()
		// failures are already logged by run
		_ = d.run(ctx, evt, subs)
	}()
}

func (d *eventDispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	d.closed = true
	d.mu.Unlock()

	d.inflight.Wait()
	d.logger.Info("Dispatcher closed")
	return nil
}

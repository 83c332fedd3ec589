package dispatcher

import (
	"context"
	"fmt"

	"github.com/garyjia/tour-confirmation/internal/domain/event"
)

// Handler reacts to one domain event. For events delivered from the outbox
// a returned error leaves the entry retryable, so handlers must be idempotent.
type Handler func(ctx context.Context, evt *event.Event) error

// HandlerError names the subscriber that rejected an event
type HandlerError struct {
	Subscriber string
	EventType  event.Type
	EventID    string
	Err        error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("%s handler %q failed on event %s: %v", e.EventType, e.Subscriber, e.EventID, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

type subscriber struct {
	name   string
	handle Handler
}

// invoke turns a handler panic into a HandlerError so one bad subscriber
// cannot take down the outbox worker
func (s subscriber) invoke(ctx context.Context, evt *event.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &HandlerError{Subscriber: s.name, EventType: evt.Type, EventID: evt.ID, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if err := s.handle(ctx, evt); err != nil {
		return &HandlerError{Subscriber: s.name, EventType: evt.Type, EventID: evt.ID, Err: err}
	}
	return nil
}

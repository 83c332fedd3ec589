package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/garyjia/tour-confirmation/internal/domain/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func insertedEvent() *event.Event {
	return event.NewEvent(event.TypeSheetItemInserted, 42, "ws-1", map[string]interface{}{"sheet_id": int64(7)})
}

func noop(context.Context, *event.Event) error { return nil }

func TestRegister(t *testing.T) {
	tests := []struct {
		name      string
		eventType event.Type
		handler   string
		fn        Handler
		wantErr   error
		errSubstr string
	}{
		{name: "valid", eventType: event.TypeSheetItemInserted, handler: "core_table_sync", fn: noop},
		{name: "same name other type", eventType: event.TypeSheetRegenerated, handler: "core_table_sync", fn: noop},
		{name: "duplicate name", eventType: event.TypeSheetItemInserted, handler: "core_table_sync", fn: noop, wantErr: ErrDuplicateHandler},
		{name: "unknown type", eventType: event.Type("sheet.renamed"), handler: "x", fn: noop, errSubstr: "unknown event type"},
		{name: "blank name", eventType: event.TypeSheetItemInserted, handler: "", fn: noop, errSubstr: "name is required"},
		{name: "nil handler", eventType: event.TypeSheetItemInserted, handler: "nil", fn: nil, errSubstr: "handler is nil"},
	}

	// cases share one dispatcher so the duplicate case sees the first registration
	d := NewDispatcher(zap.NewNop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := d.Register(tt.eventType, tt.handler, tt.fn)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errSubstr != "":
				assert.ErrorContains(t, err, tt.errSubstr)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestRegister_LogsRegistration(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	d := NewDispatcher(zap.New(core))

	require.NoError(t, d.Register(event.TypeSheetItemInserted, "core_table_sync", noop))

	entries := logs.FilterMessage("Handler registered").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "core_table_sync", entries[0].ContextMap()["handler_name"])
}

func TestDispatch(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name      string
		handlers  []Handler
		wantCalls string
		check     func(t *testing.T, err error)
	}{
		{
			name:      "runs in registration order",
			handlers:  []Handler{noop, noop, noop},
			wantCalls: "[0 1 2]",
			check:     func(t *testing.T, err error) { assert.NoError(t, err) },
		},
		{
			name:      "first error stops the chain",
			handlers:  []Handler{func(context.Context, *event.Event) error { return boom }, noop},
			wantCalls: "[0]",
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, boom)
				var herr *HandlerError
				require.ErrorAs(t, err, &herr)
				assert.Equal(t, "h0", herr.Subscriber)
				assert.Equal(t, event.TypeSheetItemInserted, herr.EventType)
			},
		},
		{
			name:      "panic becomes handler error",
			handlers:  []Handler{noop, func(context.Context, *event.Event) error { panic("handler exploded") }},
			wantCalls: "[0 1]",
			check: func(t *testing.T, err error) {
				var herr *HandlerError
				require.ErrorAs(t, err, &herr)
				assert.Equal(t, "h1", herr.Subscriber)
				assert.Contains(t, herr.Error(), "handler exploded")
			},
		},
		{
			name:      "no handlers",
			wantCalls: "[]",
			check:     func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrNoHandlers) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDispatcher(zap.NewNop())
			calls := []int{}
			for i, h := range tt.handlers {
				i, h := i, h
				require.NoError(t, d.Register(event.TypeSheetItemInserted, fmt.Sprintf("h%d", i), func(ctx context.Context, evt *event.Event) error {
					calls = append(calls, i)
					return h(ctx, evt)
				}))
			}

			err := d.Dispatch(context.Background(), insertedEvent())
			tt.check(t, err)
			assert.Equal(t, tt.wantCalls, fmt.Sprint(calls))
		})
	}
}

func TestDispatch_StopsOnCancelledContext(t *testing.T) {
	d := NewDispatcher(zap.NewNop())
	called := false
	require.NoError(t, d.Register(event.TypeSheetItemInserted, "core_table_sync", func(context.Context, *event.Event) error {
		called = true
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, d.Dispatch(ctx, insertedEvent()), context.Canceled)
	assert.False(t, called)
}

func TestDispatch_RegistrationDuringDelivery(t *testing.T) {
	d := NewDispatcher(zap.NewNop())
	var late atomic.Bool
	require.NoError(t, d.Register(event.TypeSheetItemInserted, "first", func(context.Context, *event.Event) error {
		return d.Register(event.TypeSheetItemInserted, "late", func(context.Context, *event.Event) error {
			late.Store(true)
			return nil
		})
	}))

	require.NoError(t, d.Dispatch(context.Background(), insertedEvent()))
	assert.False(t, late.Load(), "a subscriber added mid-dispatch joins the next event")

	require.Error(t, d.Dispatch(context.Background(), insertedEvent()), "first now fails on the duplicate name")
	assert.False(t, late.Load())
}

func TestDispatchAsync(t *testing.T) {
	t.Run("close waits for delivery", func(t *testing.T) {
		d := NewDispatcher(zap.NewNop())
		var done atomic.Int32
		for i := 0; i < 2; i++ {
			require.NoError(t, d.Register(event.TypeQuoteItinerarySynced, fmt.Sprintf("slow-%d", i), func(context.Context, *event.Event) error {
				time.Sleep(20 * time.Millisecond)
				done.Add(1)
				return nil
			}))
		}

		d.DispatchAsync(context.Background(), event.NewEvent(event.TypeQuoteItinerarySynced, 3, "ws-1", nil))
		require.NoError(t, d.Close())
		assert.Equal(t, int32(2), done.Load())
	})

	t.Run("failures are logged", func(t *testing.T) {
		core, logs := observer.New(zap.ErrorLevel)
		d := NewDispatcher(zap.New(core))
		require.NoError(t, d.Register(event.TypeSheetRegenerated, "audit_log", func(context.Context, *event.Event) error {
			return errors.New("async failure")
		}))

		d.DispatchAsync(context.Background(), event.NewEvent(event.TypeSheetRegenerated, 7, "ws-1", nil))
		require.NoError(t, d.Close())

		assert.Equal(t, 1, logs.FilterMessage("Handler failed").Len())
	})

	t.Run("closed dispatcher drops event", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		d := NewDispatcher(zap.New(core))
		var called atomic.Bool
		require.NoError(t, d.Register(event.TypeSheetRegenerated, "audit_log", func(context.Context, *event.Event) error {
			called.Store(true)
			return nil
		}))
		require.NoError(t, d.Close())

		d.DispatchAsync(context.Background(), event.NewEvent(event.TypeSheetRegenerated, 7, "ws-1", nil))
		assert.False(t, called.Load())
		assert.Equal(t, 1, logs.FilterMessage("Dispatcher closed, dropping event").Len())
	})
}

func TestClose(t *testing.T) {
	d := NewDispatcher(zap.NewNop())
	require.NoError(t, d.Register(event.TypeSheetItemInserted, "core_table_sync", noop))
	require.NoError(t, d.Close())

	assert.ErrorIs(t, d.Close(), ErrClosed)
	assert.ErrorIs(t, d.Dispatch(context.Background(), insertedEvent()), ErrClosed)
	assert.ErrorIs(t, d.Register(event.TypeSheetRegenerated, "audit_log", noop), ErrClosed)
}

func TestConcurrency(t *testing.T) {
	d := NewDispatcher(zap.NewNop())
	var count atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			assert.NoError(t, d.Register(event.TypeSheetItemInserted, fmt.Sprintf("handler-%d", id), func(context.Context, *event.Event) error {
				count.Add(1)
				return nil
			}))
		}(i)
	}
	wg.Wait()

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, d.Dispatch(context.Background(), insertedEvent()))
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(100), count.Load())
}

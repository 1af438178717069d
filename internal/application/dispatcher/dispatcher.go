// Package dispatcher fans domain events raised by the view models out to the
// notification sinks (local store, Lark push, unread badge).
package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/garyjia/docflow/internal/domain/event"
)

// Dispatcher routes events to registered handlers
type Dispatcher interface {
	// Subscribe registers a named handler for an event type. Registering the
	// same name twice replaces the earlier handler.
	Subscribe(eventType event.Type, name string, handler Handler)

	// Unsubscribe removes a handler by name
	Unsubscribe(eventType event.Type, name string)

	// Dispatch runs all handlers in registration order and returns the first error
	Dispatch(ctx context.Context, evt *event.Event) error

	// DispatchAsync runs handlers in the background, detached from ctx's
	// cancellation so a finished request does not abort its side effects.
	DispatchAsync(ctx context.Context, evt *event.Event)

	// Subscriptions returns registered handlers for an event type
	Subscriptions(eventType event.Type) []Subscription

	// Close waits for running async handlers and rejects further dispatches
	Close() error
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type eventDispatcher struct {
	mu       sync.RWMutex
	handlers map[event.Type][]registered
	logger   Logger

	wg     sync.WaitGroup
	closed atomic.Bool
}

// Option configures the dispatcher
type Option func(*eventDispatcher)

// WithLogger sets a logger for the dispatcher
func WithLogger(logger Logger) Option {
	return func(d *eventDispatcher) {
		d.logger = logger
	}
}

// NewDispatcher creates a new event dispatcher
func NewDispatcher(opts ...Option) Dispatcher {
	d := &eventDispatcher{
		handlers: make(map[event.Type][]registered),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *eventDispatcher) Subscribe(eventType event.Type, name string, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	entry := registered{
		Subscription: Subscription{Name: name, EventType: eventType},
		handler:      handler,
	}

	list := d.handlers[eventType]
	for i := range list {
		if list[i].Name == name {
			list[i] = entry
			d.logInfo("Handler replaced", "event_type", eventType, "handler_name", name)
			return
		}
	}
	d.handlers[eventType] = append(list, entry)
	d.logInfo("Handler registered", "event_type", eventType, "handler_name", name)
}

func (d *eventDispatcher) Unsubscribe(eventType event.Type, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	list := d.handlers[eventType]
	filtered := make([]registered, 0, len(list))
	for _, h := range list {
		if h.Name != name {
			filtered = append(filtered, h)
		}
	}
	d.handlers[eventType] = filtered
}

func (d *eventDispatcher) snapshot(eventType event.Type) []registered {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]registered(nil), d.handlers[eventType]...)
}

func (d *eventDispatcher) Dispatch(ctx context.Context, evt *event.Event) error {
	if d.closed.Load() {
		return fmt.Errorf("dispatcher is closed")
	}

	for _, h := range d.snapshot(evt.Type) {
		if err := d.safeExecute(ctx, evt, h); err != nil {
			d.logError("Handler error",
				"event_type", evt.Type,
				"event_id", evt.ID,
				"correlation_id", evt.CorrelationID,
				"handler_name", h.Name,
				"error", err,
			)
			return fmt.Errorf("handler %s failed: %w", h.Name, err)
		}
	}
	return nil
}

func (d *eventDispatcher) DispatchAsync(ctx context.Context, evt *event.Event) {
	if d.closed.Load() {
		d.logError("Cannot dispatch async event, dispatcher is closed",
			"event_type", evt.Type,
			"event_id", evt.ID,
		)
		return
	}

	detached := context.WithoutCancel(ctx)
	for _, h := range d.snapshot(evt.Type) {
		d.wg.Add(1)
		go func(h registered) {
			defer d.wg.Done()
			if err := d.safeExecute(detached, evt, h); err != nil {
				d.logError("Async handler error",
					"event_type", evt.Type,
					"event_id", evt.ID,
					"correlation_id", evt.CorrelationID,
					"handler_name", h.Name,
					"error", err,
				)
			}
		}(h)
	}
}

func (d *eventDispatcher) Subscriptions(eventType event.Type) []Subscription {
	list := d.snapshot(eventType)
	subs := make([]Subscription, len(list))
	for i, h := range list {
		subs[i] = h.Subscription
	}
	return subs
}

func (d *eventDispatcher) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return fmt.Errorf("dispatcher already closed")
	}
	d.wg.Wait()
	d.logInfo("Dispatcher closed")
	return nil
}

// safeExecute runs a handler with panic recovery
func (d *eventDispatcher) safeExecute(ctx context.Context, evt *event.Event, h registered) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h.handler(ctx, evt)
}

func (d *eventDispatcher) logInfo(msg string, keysAndValues ...interface{}) {
	if d.logger != nil {
		d.logger.Info(msg, keysAndValues...)
	}
}

func (d *eventDispatcher) logError(msg string, keysAndValues ...interface{}) {
	if d.logger != nil {
		d.logger.Error(msg, keysAndValues...)
	}
}

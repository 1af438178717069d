package notification

import (
	"context"
	"sync"

	"github.com/garyjia/docflow/internal/application/port"
	"github.com/garyjia/docflow/internal/domain/entity"
)

// Collector forwards notifications to another Notifier and keeps a copy of
// each, so a console response can render the toasts its request raised.
type Collector struct {
	next port.Notifier

	mu    sync.Mutex
	items []entity.Notification
}

// NewCollector creates a collector in front of next. next may be nil.
func NewCollector(next port.Notifier) *Collector {
	return &Collector{next: next}
}

func (c *Collector) Success(ctx context.Context, n entity.Notification) {
	c.record(entity.NotificationSuccess, n)
	if c.next != nil {
		c.next.Success(ctx, n)
	}
}

func (c *Collector) Info(ctx context.Context, n entity.Notification) {
	c.record(entity.NotificationInfo, n)
	if c.next != nil {
		c.next.Info(ctx, n)
	}
}

func (c *Collector) Warning(ctx context.Context, n entity.Notification) {
	c.record(entity.NotificationWarning, n)
	if c.next != nil {
		c.next.Warning(ctx, n)
	}
}

func (c *Collector) Error(ctx context.Context, n entity.Notification) {
	c.record(entity.NotificationError, n)
	if c.next != nil {
		c.next.Error(ctx, n)
	}
}

func (c *Collector) record(level entity.NotificationLevel, n entity.Notification) {
	n.Level = level
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, n)
}

// Notifications returns the notifications collected so far, oldest first
func (c *Collector) Notifications() []entity.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]entity.Notification{}, c.items...)
}

var _ port.Notifier = (*Collector)(nil)

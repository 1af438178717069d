// Package notification is the console's notification center: it records the
// messages raised by the view models, fans them out to Lark and tracks the
// server-side unread count.
package notification

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/docflow/internal/application/dispatcher"
	"github.com/garyjia/docflow/internal/application/port"
	"github.com/garyjia/docflow/internal/domain/entity"
	"github.com/garyjia/docflow/internal/domain/event"
)

// Payload keys of notification.raised events
const (
	PayloadNotificationID = "notification_id"
	PayloadLevel          = "level"
	PayloadTitle          = "title"
	PayloadMessage        = "message"
	PayloadCount          = "count"
	PayloadPrevious       = "previous"
)

// Center implements port.Notifier. Every notification is logged, stored and
// published as a notification.raised event.
type Center struct {
	repo       port.NotificationRepository
	dispatcher dispatcher.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewCenter creates a notification center. repo and disp may be nil.
func NewCenter(repo port.NotificationRepository, disp dispatcher.Dispatcher, logger *zap.Logger) *Center {
	return &Center{
		repo:       repo,
		dispatcher: disp,
		logger:     logger,
		now:        time.Now,
	}
}

func (c *Center) Success(ctx context.Context, n entity.Notification) {
	c.raise(ctx, entity.NotificationSuccess, n)
}

func (c *Center) Info(ctx context.Context, n entity.Notification) {
	c.raise(ctx, entity.NotificationInfo, n)
}

func (c *Center) Warning(ctx context.Context, n entity.Notification) {
	c.raise(ctx, entity.NotificationWarning, n)
}

func (c *Center) Error(ctx context.Context, n entity.Notification) {
	c.raise(ctx, entity.NotificationError, n)
}

func (c *Center) raise(ctx context.Context, level entity.NotificationLevel, n entity.Notification) {
	n.Level = level
	if n.CreatedAt.IsZero() {
		n.CreatedAt = c.now()
	}

	fields := []zap.Field{
		zap.String("level", string(level)),
		zap.String("title", n.Title),
		zap.String("message", n.Message),
	}
	if n.DocumentID != nil {
		fields = append(fields, zap.Int64("document_id", *n.DocumentID))
	}
	if n.InstanceID != nil {
		fields = append(fields, zap.Int64("instance_id", *n.InstanceID))
	}
	if level == entity.NotificationError || level == entity.NotificationWarning {
		c.logger.Warn("Notification raised", fields...)
	} else {
		c.logger.Info("Notification raised", fields...)
	}

	if c.repo != nil {
		if err := c.repo.Create(ctx, &n); err != nil {
			c.logger.Error("Failed to store notification", zap.Error(err))
		}
	}

	if c.dispatcher != nil {
		c.dispatcher.DispatchAsync(ctx, raisedEvent(n))
	}
}

// Recent returns the latest stored notifications, newest first
func (c *Center) Recent(ctx context.Context, limit int) ([]*entity.Notification, error) {
	if c.repo == nil {
		return []*entity.Notification{}, nil
	}
	return c.repo.ListRecent(ctx, limit)
}

// UnreadLocal counts stored notifications not yet marked read
func (c *Center) UnreadLocal(ctx context.Context) (int, error) {
	if c.repo == nil {
		return 0, nil
	}
	return c.repo.CountUnread(ctx)
}

// MarkRead marks one stored notification read
func (c *Center) MarkRead(ctx context.Context, id int64) error {
	if c.repo == nil {
		return nil
	}
	return c.repo.MarkRead(ctx, id)
}

// MarkAllRead marks every stored notification read
func (c *Center) MarkAllRead(ctx context.Context) (int64, error) {
	if c.repo == nil {
		return 0, nil
	}
	return c.repo.MarkAllRead(ctx)
}

func raisedEvent(n entity.Notification) *event.Event {
	var documentID, instanceID int64
	if n.DocumentID != nil {
		documentID = *n.DocumentID
	}
	if n.InstanceID != nil {
		instanceID = *n.InstanceID
	}
	return event.NewEvent(event.TypeNotificationRaised, documentID, instanceID, map[string]interface{}{
		PayloadNotificationID: n.ID,
		PayloadLevel:          string(n.Level),
		PayloadTitle:          n.Title,
		PayloadMessage:        n.Message,
	})
}

var _ port.Notifier = (*Center)(nil)

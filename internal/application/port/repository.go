package port

import (
	"context"

	"github.com/garyjia/docflow/internal/domain/entity"
)

// NotificationRepository defines persistence operations for the local
// notification center
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	ListRecent(ctx context.Context, limit int) ([]*entity.Notification, error)
	MarkRead(ctx context.Context, id int64) error
	MarkAllRead(ctx context.Context) (int64, error)
	CountUnread(ctx context.Context) (int, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ExportRepository records the statistics exports that were written
type ExportRepository interface {
	Create(ctx context.Context, rec *entity.ExportRecord) error
	ListRecent(ctx context.Context, limit int) ([]*entity.ExportRecord, error)
}

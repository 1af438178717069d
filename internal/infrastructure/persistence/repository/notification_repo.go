package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/docflow/internal/application/port"
	"github.com/garyjia/docflow/internal/domain/entity"
	"github.com/garyjia/docflow/internal/infrastructure/persistence/sqlite"
	apperrors "github.com/garyjia/docflow/pkg/errors"
)

// DefaultListLimit caps ListRecent when no limit is given
const DefaultListLimit = 50

// NotificationRepository implements port.NotificationRepository
type NotificationRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sqlite.DB, logger *zap.Logger) *NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a notification and sets its ID
func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	query := `
		INSERT INTO notifications (
			level, title, message, document_id, instance_id, is_read, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		string(n.Level),
		n.Title,
		n.Message,
		nullInt64(n.DocumentID),
		nullInt64(n.InstanceID),
		n.Read,
		n.CreatedAt.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to create notification",
			zap.String("level", string(n.Level)),
			zap.Error(err))
		return fmt.Errorf("failed to create notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	n.ID = id
	return nil
}

// ListRecent returns the latest notifications, newest first
func (r *NotificationRepository) ListRecent(ctx context.Context, limit int) ([]*entity.Notification, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := `
		SELECT id, level, title, message, document_id, instance_id, is_read, created_at
		FROM notifications
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, limit)
	if err != nil {
		r.logger.Error("Failed to list notifications", zap.Error(err))
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	notifications := []*entity.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

// MarkRead marks one notification read
func (r *NotificationRepository) MarkRead(ctx context.Context, id int64) error {
	result, err := r.db.Executor(ctx).ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to mark notification read",
			zap.Int64("id", id),
			zap.Error(err))
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return apperrors.NewNotFoundError("notification", strconv.FormatInt(id, 10))
	}
	return nil
}

// MarkAllRead marks every unread notification read and returns how many changed
func (r *NotificationRepository) MarkAllRead(ctx context.Context) (int64, error) {
	result, err := r.db.Executor(ctx).ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE is_read = 0`)
	if err != nil {
		r.logger.Error("Failed to mark notifications read", zap.Error(err))
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return result.RowsAffected()
}

// CountUnread counts notifications not yet read
func (r *NotificationRepository) CountUnread(ctx context.Context) (int, error) {
	var count int
	err := r.db.Executor(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE is_read = 0`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

func scanNotification(rows *sql.Rows) (*entity.Notification, error) {
	var n entity.Notification
	var level string
	var documentID, instanceID sql.NullInt64

	if err := rows.Scan(
		&n.ID,
		&level,
		&n.Title,
		&n.Message,
		&documentID,
		&instanceID,
		&n.Read,
		&n.CreatedAt,
	); err != nil {
		return nil, err
	}

	n.Level = entity.NotificationLevel(level)
	if documentID.Valid {
		n.DocumentID = &documentID.Int64
	}
	if instanceID.Valid {
		n.InstanceID = &instanceID.Int64
	}
	return &n, nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

var _ port.NotificationRepository = (*NotificationRepository)(nil)

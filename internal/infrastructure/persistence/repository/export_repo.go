package repository

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/docflow/internal/application/port"
	"github.com/garyjia/docflow/internal/domain/entity"
	"github.com/garyjia/docflow/internal/infrastructure/persistence/sqlite"
)

// ExportRepository implements port.ExportRepository
type ExportRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewExportRepository creates a new export repository
func NewExportRepository(db *sqlite.DB, logger *zap.Logger) *ExportRepository {
	return &ExportRepository{
		db:     db,
		logger: logger,
	}
}

// Create records an export and sets its ID
func (r *ExportRepository) Create(ctx context.Context, rec *entity.ExportRecord) error {
	query := `
		INSERT INTO export_log (file_name, file_path, size_bytes, pending_rows, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		rec.FileName,
		rec.FilePath,
		rec.SizeBytes,
		rec.PendingRows,
		rec.CreatedAt.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to record export",
			zap.String("file_name", rec.FileName),
			zap.Error(err))
		return fmt.Errorf("failed to record export: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	rec.ID = id
	return nil
}

// ListRecent returns the latest exports, newest first
func (r *ExportRepository) ListRecent(ctx context.Context, limit int) ([]*entity.ExportRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := r.db.Executor(ctx).QueryContext(ctx, `
		SELECT id, file_name, file_path, size_bytes, pending_rows, created_at
		FROM export_log
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list exports: %w", err)
	}
	defer rows.Close()

	records := []*entity.ExportRecord{}
	for rows.Next() {
		var rec entity.ExportRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.FileName,
			&rec.FilePath,
			&rec.SizeBytes,
			&rec.PendingRows,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan export: %w", err)
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

var _ port.ExportRepository = (*ExportRepository)(nil)

package report

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/docflow/internal/application/port"
	"github.com/garyjia/docflow/internal/domain/entity"
	"github.com/garyjia/docflow/internal/infrastructure/storage"
)

// ContentType is the MIME type of the generated workbook
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Export is one generated workbook
type Export struct {
	FileName string
	Content  []byte
	Record   *entity.ExportRecord
}

// Service fetches statistics and pending approvals, renders the workbook and
// archives it. Storage and repository are optional.
type Service struct {
	api      port.WorkflowAPI
	exporter *Exporter
	storage  port.FileStorage
	repo     port.ExportRepository
	tx       port.TransactionManager
	journal  port.NotificationRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates an export service
func NewService(api port.WorkflowAPI, exporter *Exporter, store port.FileStorage, repo port.ExportRepository, logger *zap.Logger) *Service {
	return &Service{
		api:      api,
		exporter: exporter,
		storage:  store,
		repo:     repo,
		logger:   logger,
		now:      time.Now,
	}
}

// WithJournal makes every archived export also leave an unread notification.
// The export record and the notification are written in one transaction.
func (s *Service) WithJournal(tx port.TransactionManager, notifications port.NotificationRepository) *Service {
	s.tx = tx
	s.journal = notifications
	return s
}

// Generate renders the current statistics and pending list. A failed archive
// step is logged; the workbook is still returned.
func (s *Service) Generate(ctx context.Context) (*Export, error) {
	stats, err := s.api.GetWorkflowStatistics(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load statistics: %w", err)
	}
	rows, err := s.api.GetPendingApprovals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending approvals: %w", err)
	}

	var buf bytes.Buffer
	if err := s.exporter.Export(&buf, stats, rows); err != nil {
		return nil, err
	}

	now := s.now()
	export := &Export{
		FileName: FileName(now),
		Content:  buf.Bytes(),
	}

	if s.storage != nil {
		rel := path.Join(now.Format("2006-01"), storage.SanitizeName(export.FileName))
		if err := s.storage.Save(ctx, rel, export.Content); err != nil {
			s.logger.Warn("Failed to archive export", zap.String("path", rel), zap.Error(err))
			return export, nil
		}

		record := &entity.ExportRecord{
			FileName:    export.FileName,
			FilePath:    rel,
			SizeBytes:   int64(len(export.Content)),
			PendingRows: len(rows),
			CreatedAt:   now,
		}
		if s.repo != nil {
			if err := s.record(ctx, record); err != nil {
				s.logger.Warn("Failed to record export", zap.String("path", rel), zap.Error(err))
			}
		}
		export.Record = record
	}

	return export, nil
}

func (s *Service) record(ctx context.Context, rec *entity.ExportRecord) error {
	persist := func(ctx context.Context) error {
		if err := s.repo.Create(ctx, rec); err != nil {
			return err
		}
		if s.journal == nil {
			return nil
		}
		return s.journal.Create(ctx, &entity.Notification{
			Level:     entity.NotificationInfo,
			Title:     "Export",
			Message:   fmt.Sprintf("Export généré : %s", rec.FileName),
			CreatedAt: rec.CreatedAt,
		})
	}
	if s.tx == nil {
		return persist(ctx)
	}
	return s.tx.WithTransaction(ctx, persist)
}

// History returns the latest archived exports
func (s *Service) History(ctx context.Context, limit int) ([]*entity.ExportRecord, error) {
	if s.repo == nil {
		return []*entity.ExportRecord{}, nil
	}
	return s.repo.ListRecent(ctx, limit)
}

// FileName returns the workbook name for an export taken at t
func FileName(t time.Time) string {
	return fmt.Sprintf("statistiques-workflow-%s.xlsx", t.Format("20060102-150405"))
}

// Package report renders workflow statistics and the pending approvals list
// as an xlsx workbook.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/docflow/internal/domain/entity"
)

// Sheet names
const (
	SheetStatistics = "Statistiques"
	SheetPending    = "En attente"
)

const dateLayout = "02/01/2006 15:04"

var pendingHeaders = []interface{}{
	"Document", "Étape", "Type", "Initiateur", "Approbations", "Progression (%)", "Priorité", "Échéance", "En retard",
}

// Exporter writes statistics workbooks
type Exporter struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewExporter creates an exporter
func NewExporter(logger *zap.Logger) *Exporter {
	return &Exporter{
		logger: logger,
		now:    time.Now,
	}
}

// Export writes a workbook with a "Statistiques" sheet and an "En attente"
// sheet listing rows in display order. stats may be nil.
func (e *Exporter) Export(w io.Writer, stats *entity.WorkflowStatistics, rows []entity.PendingApproval) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetStatistics); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetPending); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	now := e.now()
	if err := e.fillStatistics(f, headerStyle, stats, now); err != nil {
		return fmt.Errorf("failed to fill statistics: %w", err)
	}

	sorted := append([]entity.PendingApproval(nil), rows...)
	entity.SortPendingApprovals(sorted)
	if err := e.fillPending(f, headerStyle, sorted, now); err != nil {
		return fmt.Errorf("failed to fill pending approvals: %w", err)
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Info("Statistics workbook exported", zap.Int("pending_rows", len(rows)))
	return nil
}

func (e *Exporter) fillStatistics(f *excelize.File, headerStyle int, stats *entity.WorkflowStatistics, now time.Time) error {
	if stats == nil {
		stats = &entity.WorkflowStatistics{}
	}

	values := [][]interface{}{
		{"Indicateur", "Valeur"},
		{"Total des workflows", stats.TotalInstances},
		{"En cours", stats.InProgress},
		{"Approuvés", stats.Approved},
		{"Rejetés", stats.Rejected},
		{"Annulés", stats.Cancelled},
		{"En retard", stats.Overdue},
		{"Délai moyen (heures)", stats.AverageDelayHours},
		{"Approbations en attente", stats.PendingApprovals},
		{},
		{"Généré le", now.Format(dateLayout)},
	}

	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetStatistics, cell, &row); err != nil {
			return err
		}
	}

	if err := f.SetCellStyle(SheetStatistics, "A1", "B1", headerStyle); err != nil {
		return err
	}
	return f.SetColWidth(SheetStatistics, "A", "A", 28)
}

func (e *Exporter) fillPending(f *excelize.File, headerStyle int, rows []entity.PendingApproval, now time.Time) error {
	if err := f.SetSheetRow(SheetPending, "A1", &pendingHeaders); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(pendingHeaders), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetPending, "A1", last, headerStyle); err != nil {
		return err
	}

	for i := range rows {
		p := &rows[i]

		due := ""
		if !p.DueDate.IsZero() {
			due = p.DueDate.Format(dateLayout)
		}
		overdue := "Non"
		if p.IsOverdue(now) {
			overdue = "Oui"
		}

		values := []interface{}{
			p.DocumentTitle,
			p.StepName,
			p.ApprovalType.Presentation().Label,
			p.InitiatorName,
			fmt.Sprintf("%d/%d", p.ApprovalsCount, p.ApprovalsRequired),
			p.ProgressPercent(),
			entity.PriorityLabel(p.Priority),
			due,
			overdue,
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetPending, cell, &values); err != nil {
			return err
		}
	}

	return f.SetColWidth(SheetPending, "A", "D", 24)
}

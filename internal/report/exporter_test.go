package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/docflow/internal/domain/entity"
)

var fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func samplePending() []entity.PendingApproval {
	return []entity.PendingApproval{
		{
			InstanceID:        1,
			StepID:            1,
			DocumentTitle:     "Note de service",
			StepName:          "Relecture",
			ApprovalType:      entity.ApprovalTypeSimple,
			InitiatorName:     "Alice Martin",
			ApprovalsCount:    0,
			ApprovalsRequired: 1,
			Priority:          1,
		},
		{
			InstanceID:        5,
			StepID:            2,
			DocumentTitle:     "Contrat fournisseur",
			StepName:          "Validation juridique",
			ApprovalType:      entity.ApprovalTypeMultiple,
			InitiatorName:     "Bruno Petit",
			ApprovalsCount:    1,
			ApprovalsRequired: 2,
			DueDate:           entity.NewTimestamp(fixedNow.Add(-time.Hour)),
			Priority:          4,
		},
	}
}

func openWorkbook(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestExporter_Export(t *testing.T) {
	e := NewExporter(zap.NewNop())
	e.now = func() time.Time { return fixedNow }

	stats := &entity.WorkflowStatistics{
		TotalInstances:    10,
		InProgress:        4,
		Approved:          3,
		Rejected:          2,
		Cancelled:         1,
		Overdue:           1,
		AverageDelayHours: 12.5,
		PendingApprovals:  2,
	}

	var buf bytes.Buffer
	require.NoError(t, e.Export(&buf, stats, samplePending()))

	f := openWorkbook(t, buf.Bytes())
	assert.Equal(t, []string{SheetStatistics, SheetPending}, f.GetSheetList())

	statRows, err := f.GetRows(SheetStatistics)
	require.NoError(t, err)
	assert.Equal(t, []string{"Indicateur", "Valeur"}, statRows[0])
	assert.Equal(t, []string{"Total des workflows", "10"}, statRows[1])
	assert.Equal(t, []string{"Délai moyen (heures)", "12.5"}, statRows[7])

	generated, err := f.GetCellValue(SheetStatistics, "B11")
	require.NoError(t, err)
	assert.Equal(t, "10/03/2024 12:00", generated)

	pending, err := f.GetRows(SheetPending)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, "Document", pending[0][0])

	// highest priority first
	assert.Equal(t, "Contrat fournisseur", pending[1][0])
	assert.Equal(t, "Approbation multiple", pending[1][2])
	assert.Equal(t, "1/2", pending[1][4])
	assert.Equal(t, "50", pending[1][5])
	assert.Equal(t, "Urgente", pending[1][6])
	assert.Equal(t, "10/03/2024 11:00", pending[1][7])
	assert.Equal(t, "Oui", pending[1][8])

	assert.Equal(t, "Note de service", pending[2][0])
	assert.Equal(t, "", pending[2][7])
	assert.Equal(t, "Non", pending[2][8])
}

func TestExporter_EmptyInputs(t *testing.T) {
	e := NewExporter(zap.NewNop())

	var buf bytes.Buffer
	require.NoError(t, e.Export(&buf, nil, nil))

	f := openWorkbook(t, buf.Bytes())
	pending, err := f.GetRows(SheetPending)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	total, err := f.GetCellValue(SheetStatistics, "B2")
	require.NoError(t, err)
	assert.Equal(t, "0", total)
}

func TestExporter_DoesNotReorderInput(t *testing.T) {
	rows := samplePending()
	var buf bytes.Buffer
	require.NoError(t, NewExporter(zap.NewNop()).Export(&buf, nil, rows))
	assert.Equal(t, int64(1), rows[0].InstanceID)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "statistiques-workflow-20240310-120000.xlsx", FileName(fixedNow))
}

package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/docflow/internal/domain/entity"
	"github.com/garyjia/docflow/internal/infrastructure/storage"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) StartValidationWorkflow(ctx context.Context, documentID int64, comment string) (*entity.StartResult, error) {
	args := m.Called(ctx, documentID, comment)
	r, _ := args.Get(0).(*entity.StartResult)
	return r, args.Error(1)
}

func (m *mockAPI) ProcessApproval(ctx context.Context, req entity.ApprovalRequest) (*entity.ApprovalResult, error) {
	args := m.Called(ctx, req)
	r, _ := args.Get(0).(*entity.ApprovalResult)
	return r, args.Error(1)
}

func (m *mockAPI) GetPendingApprovals(ctx context.Context) ([]entity.PendingApproval, error) {
	args := m.Called(ctx)
	r, _ := args.Get(0).([]entity.PendingApproval)
	return r, args.Error(1)
}

func (m *mockAPI) GetWorkflowInstanceDetails(ctx context.Context, instanceID int64) (*entity.InstanceDetails, error) {
	args := m.Called(ctx, instanceID)
	r, _ := args.Get(0).(*entity.InstanceDetails)
	return r, args.Error(1)
}

func (m *mockAPI) GetDocumentWorkflowStatus(ctx context.Context, documentID int64) (*entity.DocumentWorkflowStatus, error) {
	args := m.Called(ctx, documentID)
	r, _ := args.Get(0).(*entity.DocumentWorkflowStatus)
	return r, args.Error(1)
}

func (m *mockAPI) GetWorkflowStatistics(ctx context.Context) (*entity.WorkflowStatistics, error) {
	args := m.Called(ctx)
	r, _ := args.Get(0).(*entity.WorkflowStatistics)
	return r, args.Error(1)
}

func (m *mockAPI) CanStartWorkflow(ctx context.Context, documentID int64) bool {
	return m.Called(ctx, documentID).Bool(0)
}

type memoryExports struct {
	records []*entity.ExportRecord
	err     error
}

func (r *memoryExports) Create(ctx context.Context, rec *entity.ExportRecord) error {
	if r.err != nil {
		return r.err
	}
	rec.ID = int64(len(r.records) + 1)
	r.records = append(r.records, rec)
	return nil
}

func (r *memoryExports) ListRecent(ctx context.Context, limit int) ([]*entity.ExportRecord, error) {
	return r.records, nil
}

func newService(api *mockAPI, store *storage.LocalFileStorage, repo *memoryExports) *Service {
	exporter := NewExporter(zap.NewNop())
	exporter.now = func() time.Time { return fixedNow }

	var s *Service
	if store == nil {
		s = NewService(api, exporter, nil, nil, zap.NewNop())
	} else {
		s = NewService(api, exporter, store, repo, zap.NewNop())
	}
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestService_GenerateArchives(t *testing.T) {
	api := new(mockAPI)
	api.On("GetWorkflowStatistics", mock.Anything).Return(&entity.WorkflowStatistics{TotalInstances: 3}, nil)
	api.On("GetPendingApprovals", mock.Anything).Return(samplePending(), nil)

	store := storage.NewLocalFileStorage(t.TempDir(), zap.NewNop())
	repo := &memoryExports{}
	s := newService(api, store, repo)

	export, err := s.Generate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "statistiques-workflow-20240310-120000.xlsx", export.FileName)
	assert.NotEmpty(t, export.Content)
	require.NotNil(t, export.Record)
	assert.Equal(t, "2024-03/statistiques-workflow-20240310-120000.xlsx", export.Record.FilePath)
	assert.Equal(t, 2, export.Record.PendingRows)
	assert.Equal(t, int64(len(export.Content)), export.Record.SizeBytes)

	assert.True(t, store.Exists(context.Background(), export.Record.FilePath))
	stored, err := store.Read(context.Background(), export.Record.FilePath)
	require.NoError(t, err)
	assert.Equal(t, export.Content, stored)

	history, err := s.History(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, history, 1)
	api.AssertExpectations(t)
}

func TestService_GenerateWithoutStorage(t *testing.T) {
	api := new(mockAPI)
	api.On("GetWorkflowStatistics", mock.Anything).Return(&entity.WorkflowStatistics{}, nil)
	api.On("GetPendingApprovals", mock.Anything).Return([]entity.PendingApproval{}, nil)

	s := newService(api, nil, nil)
	export, err := s.Generate(context.Background())
	require.NoError(t, err)
	assert.Nil(t, export.Record)
	assert.NotEmpty(t, export.Content)

	history, err := s.History(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestService_RecordFailureStillReturnsWorkbook(t *testing.T) {
	api := new(mockAPI)
	api.On("GetWorkflowStatistics", mock.Anything).Return(&entity.WorkflowStatistics{}, nil)
	api.On("GetPendingApprovals", mock.Anything).Return([]entity.PendingApproval{}, nil)

	store := storage.NewLocalFileStorage(t.TempDir(), zap.NewNop())
	s := newService(api, store, &memoryExports{err: errors.New("locked")})

	export, err := s.Generate(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, export.Content)
}

func TestService_StatisticsFailure(t *testing.T) {
	api := new(mockAPI)
	api.On("GetWorkflowStatistics", mock.Anything).Return(nil, errors.New("backend down"))

	_, err := newService(api, nil, nil).Generate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load statistics")
	api.AssertNotCalled(t, "GetPendingApprovals", mock.Anything)
}

func TestService_PendingFailure(t *testing.T) {
	api := new(mockAPI)
	api.On("GetWorkflowStatistics", mock.Anything).Return(&entity.WorkflowStatistics{}, nil)
	api.On("GetPendingApprovals", mock.Anything).Return(nil, errors.New("backend down"))

	_, err := newService(api, nil, nil).Generate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load pending approvals")
}

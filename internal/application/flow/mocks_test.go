package flow

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/garyjia/docflow/internal/domain/entity"
)

// MockWorkflowAPI mocks port.WorkflowAPI
type MockWorkflowAPI struct {
	mock.Mock
}

func (m *MockWorkflowAPI) StartValidationWorkflow(ctx context.Context, documentID int64, comment string) (*entity.StartResult, error) {
	args := m.Called(ctx, documentID, comment)
	result, _ := args.Get(0).(*entity.StartResult)
	return result, args.Error(1)
}

func (m *MockWorkflowAPI) ProcessApproval(ctx context.Context, req entity.ApprovalRequest) (*entity.ApprovalResult, error) {
	args := m.Called(ctx, req)
	result, _ := args.Get(0).(*entity.ApprovalResult)
	return result, args.Error(1)
}

func (m *MockWorkflowAPI) GetPendingApprovals(ctx context.Context) ([]entity.PendingApproval, error) {
	args := m.Called(ctx)
	rows, _ := args.Get(0).([]entity.PendingApproval)
	return rows, args.Error(1)
}

func (m *MockWorkflowAPI) GetWorkflowInstanceDetails(ctx context.Context, instanceID int64) (*entity.InstanceDetails, error) {
	args := m.Called(ctx, instanceID)
	details, _ := args.Get(0).(*entity.InstanceDetails)
	return details, args.Error(1)
}

func (m *MockWorkflowAPI) GetDocumentWorkflowStatus(ctx context.Context, documentID int64) (*entity.DocumentWorkflowStatus, error) {
	args := m.Called(ctx, documentID)
	status, _ := args.Get(0).(*entity.DocumentWorkflowStatus)
	return status, args.Error(1)
}

func (m *MockWorkflowAPI) GetWorkflowStatistics(ctx context.Context) (*entity.WorkflowStatistics, error) {
	args := m.Called(ctx)
	stats, _ := args.Get(0).(*entity.WorkflowStatistics)
	return stats, args.Error(1)
}

func (m *MockWorkflowAPI) CanStartWorkflow(ctx context.Context, documentID int64) bool {
	args := m.Called(ctx, documentID)
	return args.Bool(0)
}

// recordingNotifier records every notification raised
type recordingNotifier struct {
	mu    sync.Mutex
	items []recorded
}

type recorded struct {
	Level entity.NotificationLevel
	entity.Notification
}

func (r *recordingNotifier) add(level entity.NotificationLevel, n entity.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, recorded{Level: level, Notification: n})
}

func (r *recordingNotifier) Success(ctx context.Context, n entity.Notification) {
	r.add(entity.NotificationSuccess, n)
}

func (r *recordingNotifier) Info(ctx context.Context, n entity.Notification) {
	r.add(entity.NotificationInfo, n)
}

func (r *recordingNotifier) Warning(ctx context.Context, n entity.Notification) {
	r.add(entity.NotificationWarning, n)
}

func (r *recordingNotifier) Error(ctx context.Context, n entity.Notification) {
	r.add(entity.NotificationError, n)
}

func (r *recordingNotifier) All() []recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recorded(nil), r.items...)
}

func (r *recordingNotifier) Levels() []entity.NotificationLevel {
	var levels []entity.NotificationLevel
	for _, n := range r.All() {
		levels = append(levels, n.Level)
	}
	return levels
}

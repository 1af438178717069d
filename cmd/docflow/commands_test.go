package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/docflow/internal/domain/entity"
	"github.com/garyjia/docflow/internal/notification"
	"github.com/garyjia/docflow/internal/report"
	"github.com/garyjia/docflow/internal/session"
	apperrors "github.com/garyjia/docflow/pkg/errors"
)

// MockWorkflowAPI mocks port.WorkflowAPI and port.UnreadCounter
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

func (m *MockWorkflowAPI) GetUnreadNotificationCount(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type stubIdentity struct {
	id  *session.Identity
	err error
}

func (s stubIdentity) Identity(ctx context.Context) (*session.Identity, error) {
	return s.id, s.err
}

type stubExports struct {
	export *report.Export
}

func (s stubExports) Generate(ctx context.Context) (*report.Export, error) {
	return s.export, nil
}

func newTestApp(api *MockWorkflowAPI) (*app, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &app{
		api:      api,
		unread:   api,
		notifier: notification.NewCenter(nil, nil, zap.NewNop()),
		out:      out,
	}, out
}

func TestStatus(t *testing.T) {
	instanceID := int64(5)
	api := new(MockWorkflowAPI)
	api.On("GetDocumentWorkflowStatus", mock.Anything, int64(1)).Return(&entity.DocumentWorkflowStatus{HasWorkflow: false}, nil)
	api.On("GetDocumentWorkflowStatus", mock.Anything, int64(2)).Return(&entity.DocumentWorkflowStatus{
		HasWorkflow:     true,
		InstanceID:      &instanceID,
		Status:          entity.InstanceStatusInProgress,
		CurrentStepName: "Signature",
	}, nil)

	a, out := newTestApp(api)

	require.NoError(t, a.dispatch(context.Background(), "status", []string{"1"}))
	assert.Contains(t, out.String(), "aucun workflow")

	out.Reset()
	require.NoError(t, a.dispatch(context.Background(), "status", []string{"2"}))
	assert.Contains(t, out.String(), "En cours")
	assert.Contains(t, out.String(), "Signature")
	assert.NotContains(t, out.String(), "peut être démarré")

	err := a.dispatch(context.Background(), "status", []string{"x"})
	assert.ErrorIs(t, err, errUsage)
}

func TestStart(t *testing.T) {
	api := new(MockWorkflowAPI)
	api.On("CanStartWorkflow", mock.Anything, int64(1)).Return(true)
	api.On("StartValidationWorkflow", mock.Anything, int64(1), "à relire").
		Return(&entity.StartResult{InstanceID: 9, Status: entity.InstanceStatusInProgress}, nil)

	a, out := newTestApp(api)
	err := a.dispatch(context.Background(), "start", []string{"-title", "Contrat", "-m", "à relire", "1"})

	require.NoError(t, err)
	assert.Contains(t, out.String(), "Instance 9 créée")
	assert.Contains(t, out.String(), "[SUCCESS] Workflow démarré")
	assert.Contains(t, out.String(), "« Contrat »")
	api.AssertExpectations(t)
}

func TestStart_Blocked(t *testing.T) {
	api := new(MockWorkflowAPI)
	api.On("CanStartWorkflow", mock.Anything, int64(1)).Return(false)

	a, _ := newTestApp(api)
	err := a.dispatch(context.Background(), "start", []string{"1"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "déjà en cours")
	api.AssertNotCalled(t, "StartValidationWorkflow", mock.Anything, mock.Anything, mock.Anything)
}

func TestPending(t *testing.T) {
	api := new(MockWorkflowAPI)
	api.On("GetPendingApprovals", mock.Anything).Return([]entity.PendingApproval{
		{InstanceID: 1, StepID: 1, DocumentTitle: "Contrat", Priority: 1, ApprovalsRequired: 2, ApprovalsCount: 1},
		{InstanceID: 2, StepID: 3, DocumentTitle: "Avenant", Priority: 4,
			DueDate: entity.NewTimestamp(time.Now().Add(-time.Hour))},
	}, nil).Once()
	api.On("GetPendingApprovals", mock.Anything).Return([]entity.PendingApproval{}, nil).Once()

	a, out := newTestApp(api)

	require.NoError(t, a.dispatch(context.Background(), "pending", nil))
	text := out.String()
	assert.Contains(t, text, "Contrat")
	assert.Contains(t, text, "1/2 (50%)")
	assert.Contains(t, text, "en retard")
	assert.Less(t, bytes.Index(out.Bytes(), []byte("Avenant")), bytes.Index(out.Bytes(), []byte("Contrat")))

	out.Reset()
	require.NoError(t, a.dispatch(context.Background(), "pending", nil))
	assert.Contains(t, out.String(), "Aucune validation en attente")
}

func TestPending_Failure(t *testing.T) {
	api := new(MockWorkflowAPI)
	api.On("GetPendingApprovals", mock.Anything).Return(nil, errors.New("boom"))

	a, out := newTestApp(api)
	err := a.dispatch(context.Background(), "pending", nil)

	require.Error(t, err)
	assert.Contains(t, out.String(), "[ERROR]")
}

func TestDecide(t *testing.T) {
	next := int64(4)
	api := new(MockWorkflowAPI)
	api.On("GetPendingApprovals", mock.Anything).Return([]entity.PendingApproval{}, nil)
	api.On("ProcessApproval", mock.Anything, entity.ApprovalRequest{
		InstanceID: 5, StepID: 2, Decision: entity.DecisionReject, Comment: "incomplet",
	}).Return(&entity.ApprovalResult{Status: entity.InstanceStatusInProgress, NextStepID: &next}, nil)

	a, out := newTestApp(api)
	err := a.dispatch(context.Background(), "decide", []string{"-m", "incomplet", "5", "2", "reject"})

	require.NoError(t, err)
	assert.Contains(t, out.String(), "Étape suivante: 4")
	api.AssertExpectations(t)
}

func TestDecide_RequiresDecision(t *testing.T) {
	api := new(MockWorkflowAPI)
	api.On("GetPendingApprovals", mock.Anything).Return([]entity.PendingApproval{}, nil)

	a, _ := newTestApp(api)
	err := a.dispatch(context.Background(), "decide", []string{"5", "2", "maybe"})

	assert.ErrorIs(t, err, errUsage)
	api.AssertNotCalled(t, "ProcessApproval", mock.Anything, mock.Anything)
}

func TestDetails(t *testing.T) {
	stepID := int64(2)
	api := new(MockWorkflowAPI)
	api.On("GetWorkflowInstanceDetails", mock.Anything, int64(7)).Return(&entity.InstanceDetails{
		Instance: entity.WorkflowInstance{ID: 7, DocumentID: 1, Status: entity.InstanceStatusInProgress, CurrentStepID: &stepID},
		Steps: []entity.WorkflowStep{
			{ID: 1, Order: 1, Name: "Relecture", ApprovalType: entity.ApprovalTypeSimple},
			{ID: 2, Order: 2, Name: "Signature", ApprovalType: entity.ApprovalTypeMultiple},
		},
		Approvals: []entity.WorkflowApproval{
			{StepID: 1, ApproverName: "Alice Martin", Decision: entity.DecisionApprove, Comment: "ok"},
		},
	}, nil)
	api.On("GetWorkflowInstanceDetails", mock.Anything, int64(8)).Return(nil, apperrors.NewNotFoundError("instance", "8"))

	a, out := newTestApp(api)

	require.NoError(t, a.dispatch(context.Background(), "details", []string{"7"}))
	assert.Contains(t, out.String(), "Signature *")
	assert.Contains(t, out.String(), "Alice Martin")
	assert.Contains(t, out.String(), "« ok »")

	err := a.dispatch(context.Background(), "details", []string{"8"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "n'existe plus")
}

func TestStats(t *testing.T) {
	api := new(MockWorkflowAPI)
	api.On("GetWorkflowStatistics", mock.Anything).Return(&entity.WorkflowStatistics{
		TotalInstances: 10, InProgress: 3, AverageDelayHours: 12.5,
	}, nil)

	a, out := newTestApp(api)
	require.NoError(t, a.dispatch(context.Background(), "stats", nil))
	assert.Contains(t, out.String(), "12.5 h")
	assert.Regexp(t, `Total\s+10`, out.String())
}

func TestExport(t *testing.T) {
	a, out := newTestApp(new(MockWorkflowAPI))
	a.exports = stubExports{export: &report.Export{FileName: "stats.xlsx", Content: []byte("PK")}}

	target := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, a.dispatch(context.Background(), "export", []string{"-o", target}))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "PK", string(data))
	assert.Contains(t, out.String(), target)
}

func TestUnread(t *testing.T) {
	api := new(MockWorkflowAPI)
	api.On("GetUnreadNotificationCount", mock.Anything).Return(3, nil)

	a, out := newTestApp(api)
	require.NoError(t, a.dispatch(context.Background(), "unread", nil))
	assert.Contains(t, out.String(), "3 notification(s)")
}

func TestWhoami(t *testing.T) {
	a, out := newTestApp(new(MockWorkflowAPI))
	a.identity = stubIdentity{id: &session.Identity{Subject: "42", Name: "Alice Martin", Email: "alice@example.com"}}

	require.NoError(t, a.dispatch(context.Background(), "whoami", nil))
	assert.Equal(t, "Alice Martin <alice@example.com>\n", out.String())

	a.identity = stubIdentity{err: apperrors.NewAuthError("no session token")}
	err := a.dispatch(context.Background(), "whoami", nil)
	assert.True(t, apperrors.IsAuth(err))
}

func TestDispatch_UnknownCommand(t *testing.T) {
	a, _ := newTestApp(new(MockWorkflowAPI))
	err := a.dispatch(context.Background(), "frobnicate", nil)
	assert.ErrorIs(t, err, errUsage)
}

func TestExitCode(t *testing.T) {
	var stderr bytes.Buffer

	assert.Equal(t, 0, exitCode(nil, &stderr))
	assert.Equal(t, 2, exitCode(errUsage, &stderr))
	assert.Contains(t, stderr.String(), "usage: docflow")
	assert.Equal(t, 3, exitCode(apperrors.NewAuthError("session expired"), &stderr))
	assert.Equal(t, 1, exitCode(&apperrors.RequestError{Message: "Accès refusé"}, &stderr))
	assert.Contains(t, stderr.String(), "Accès refusé")
}

func TestRun_NoCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run(nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "commands:")
}

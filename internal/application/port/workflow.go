package port

import (
	"context"

	"github.com/garyjia/docflow/internal/domain/entity"
)

// WorkflowAPI defines the validation-workflow backend operations
type WorkflowAPI interface {
	StartValidationWorkflow(ctx context.Context, documentID int64, comment string) (*entity.StartResult, error)
	ProcessApproval(ctx context.Context, req entity.ApprovalRequest) (*entity.ApprovalResult, error)
	GetPendingApprovals(ctx context.Context) ([]entity.PendingApproval, error)
	GetWorkflowInstanceDetails(ctx context.Context, instanceID int64) (*entity.InstanceDetails, error)
	GetDocumentWorkflowStatus(ctx context.Context, documentID int64) (*entity.DocumentWorkflowStatus, error)
	GetWorkflowStatistics(ctx context.Context) (*entity.WorkflowStatistics, error)

	// CanStartWorkflow never fails: any error is logged and reported as false
	CanStartWorkflow(ctx context.Context, documentID int64) bool
}

// UnreadCounter reports the server-side unread notification count
type UnreadCounter interface {
	GetUnreadNotificationCount(ctx context.Context) (int, error)
}

// TokenSource yields the bearer token for the current session
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Notifier surfaces user-facing messages raised by the view models
type Notifier interface {
	Success(ctx context.Context, n entity.Notification)
	Info(ctx context.Context, n entity.Notification)
	Warning(ctx context.Context, n entity.Notification)
	Error(ctx context.Context, n entity.Notification)
}

// MessageSender pushes plain-text messages to a chat platform
type MessageSender interface {
	SendText(ctx context.Context, receiveIDType, receiveID, text string) (string, error)
}

package flow

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/garyjia/docflow/internal/application/port"
	"github.com/garyjia/docflow/internal/domain/entity"
	"github.com/garyjia/docflow/internal/domain/workflow"
	apperrors "github.com/garyjia/docflow/pkg/errors"
)

// PendingListConfig configures a PendingList
type PendingListConfig struct {
	// OnApprovalProcessed is invoked once per successful decision
	OnApprovalProcessed func(req entity.ApprovalRequest, result *entity.ApprovalResult)

	// Now is the clock used for the overdue flag
	Now func() time.Time
}

// PendingRow is one rendered pending approval
type PendingRow struct {
	entity.PendingApproval
	Progress      float64             `json:"progress"`
	Overdue       bool                `json:"overdue"`
	Type          entity.Presentation `json:"type"`
	PriorityLabel string              `json:"priority_label"`
}

// PendingListView is a rendering snapshot of a PendingList
type PendingListView struct {
	Loading      bool         `json:"loading"`
	Failed       bool         `json:"failed"`
	Rows         []PendingRow `json:"rows"`
	EmptyMessage string       `json:"empty_message,omitempty"`
	Decision     DecisionView `json:"decision"`
}

// PendingList lists the steps awaiting the current user's decision and
// submits approve/reject decisions through its DecisionFlow.
type PendingList struct {
	api      port.WorkflowAPI
	notifier port.Notifier
	logger   Logger
	config   PendingListConfig
	life     lifetime

	mu       sync.Mutex
	items    []entity.PendingApproval
	loading  bool
	failed   bool
	decision DecisionFlow
}

// NewPendingList creates a pending approvals list
func NewPendingList(api port.WorkflowAPI, notifier port.Notifier, logger Logger, cfg PendingListConfig) *PendingList {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &PendingList{
		api:      api,
		notifier: notifier,
		logger:   orNop(logger),
		config:   cfg,
	}
}

// Mount begins the list's lifetime and fetches the pending approvals
func (l *PendingList) Mount(ctx context.Context) PendingListView {
	l.life.mount(ctx)
	return l.Refresh(ctx)
}

// Unmount ends the list's lifetime; in-flight resolutions become no-ops
func (l *PendingList) Unmount() {
	l.life.unmount()
}

// Refresh refetches the pending approvals. A failure renders an empty list
// flagged as failed and raises an error notification.
func (l *PendingList) Refresh(ctx context.Context) PendingListView {
	c, err := l.life.begin(ctx)
	if err != nil {
		return l.View()
	}
	defer c.end()

	l.mu.Lock()
	l.loading = true
	l.mu.Unlock()

	items, err := l.api.GetPendingApprovals(c.ctx)

	l.mu.Lock()
	if !l.life.alive(c) {
		l.loading = false
		l.mu.Unlock()
		return l.View()
	}
	l.loading = false
	if err != nil {
		l.items = nil
		l.failed = true
		l.mu.Unlock()

		l.logger.Error("Failed to load pending approvals", "error", err)
		l.notifier.Error(detach(ctx), entity.Notification{
			Title:   "Validations en attente",
			Message: apperrors.UserMessage(err, MsgPendingLoadFailed),
		})
		return l.View()
	}
	entity.SortPendingApprovals(items)
	l.items = items
	l.failed = false
	l.mu.Unlock()

	return l.View()
}

// OpenDecision opens the decision modal on a row with a pre-seeded decision
func (l *PendingList) OpenDecision(instanceID, stepID int64, decision entity.Decision) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.decision.Select(DecisionTarget{InstanceID: instanceID, StepID: stepID}, decision)
}

// SetDecision changes the decision of the open modal
func (l *PendingList) SetDecision(decision entity.Decision) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.decision.SetDecision(decision)
}

// SetDecisionComment binds the decision comment
func (l *PendingList) SetDecisionComment(comment string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.decision.SetComment(comment)
}

// CancelDecision closes the decision modal
func (l *PendingList) CancelDecision() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.decision.Cancel()
}

// SubmitDecision posts the decision of the open modal. An empty decision is
// rejected locally with no network call. On success the modal closes, the
// list is refetched and OnApprovalProcessed is invoked. On failure the list
// and the modal are left untouched.
func (l *PendingList) SubmitDecision(ctx context.Context) (*entity.ApprovalResult, error) {
	l.mu.Lock()
	req, err := l.decision.Request()
	if err != nil {
		l.mu.Unlock()
		if errors.Is(err, ErrDecisionRequired) {
			l.notifier.Error(detach(ctx), entity.Notification{
				Title:   "Décision",
				Message: MsgDecisionRequired,
			})
		}
		return nil, err
	}
	c, err := l.life.begin(ctx)
	if err != nil {
		l.mu.Unlock()
		return nil, err
	}
	defer c.end()
	if !l.decision.BeginSubmit() {
		l.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	l.mu.Unlock()

	result, err := l.api.ProcessApproval(c.ctx, req)

	l.mu.Lock()
	l.decision.EndSubmit()
	if !l.life.alive(c) {
		l.mu.Unlock()
		return nil, ErrNotMounted
	}

	if err != nil {
		l.mu.Unlock()
		l.logger.Error("Failed to process approval",
			"instance_id", req.InstanceID,
			"etape_id", req.StepID,
			"decision", req.Decision,
			"error", err,
		)
		l.notifier.Error(detach(ctx), instanceNotification(
			"Décision",
			apperrors.UserMessage(err, MsgApprovalFailed),
			req.InstanceID,
		))
		return nil, err
	}

	l.decision.Complete(DecisionTarget{InstanceID: req.InstanceID, StepID: req.StepID})
	l.mu.Unlock()

	if result.Status != "" {
		if verr := workflow.ValidateResolution(c.ctx, entity.InstanceStatusInProgress, result.Status); verr != nil {
			l.logger.Error("Server reported an unexpected instance status",
				"instance_id", req.InstanceID,
				"status", result.Status,
				"error", verr,
			)
		}
	}

	l.logger.Info("Approval processed",
		"instance_id", req.InstanceID,
		"etape_id", req.StepID,
		"decision", req.Decision,
		"status", result.Status,
		"final", result.Final,
	)

	l.Refresh(c.ctx)

	if l.config.OnApprovalProcessed != nil {
		l.config.OnApprovalProcessed(req, result)
	}

	l.notifier.Success(detach(ctx), instanceNotification(
		"Décision enregistrée",
		approvalMessage(req.Decision, result),
		req.InstanceID,
	))

	return result, nil
}

// View returns a rendering snapshot
func (l *PendingList) View() PendingListView {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.config.Now()
	rows := make([]PendingRow, 0, len(l.items))
	for i := range l.items {
		p := l.items[i]
		rows = append(rows, PendingRow{
			PendingApproval: p,
			Progress:        p.ProgressPercent(),
			Overdue:         p.IsOverdue(now),
			Type:            p.ApprovalType.Presentation(),
			PriorityLabel:   entity.PriorityLabel(p.Priority),
		})
	}

	view := PendingListView{
		Loading:  l.loading,
		Failed:   l.failed,
		Rows:     rows,
		Decision: l.decision.View(),
	}
	if len(rows) == 0 && !l.loading {
		view.EmptyMessage = MsgNoPending
	}
	return view
}

func approvalMessage(decision entity.Decision, result *entity.ApprovalResult) string {
	if result.Message != "" {
		return result.Message
	}
	if decision == entity.DecisionReject {
		return "Le document a été rejeté"
	}
	return "Le document a été approuvé"
}

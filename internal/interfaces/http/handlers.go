package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/docflow/internal/application/dispatcher"
	"github.com/garyjia/docflow/internal/application/flow"
	"github.com/garyjia/docflow/internal/application/port"
	"github.com/garyjia/docflow/internal/domain/entity"
	"github.com/garyjia/docflow/internal/domain/event"
	"github.com/garyjia/docflow/internal/notification"
	"github.com/garyjia/docflow/internal/report"
	apperrors "github.com/garyjia/docflow/pkg/errors"
	"github.com/garyjia/docflow/pkg/utils"
)

// Console messages
const (
	MsgInvalidID         = "Identifiant invalide"
	MsgInvalidBody       = "Requête invalide"
	MsgInstanceGone      = "Ce workflow n'existe plus"
	MsgDetailsFailed     = "Erreur lors du chargement du workflow"
	MsgStatisticsFailed  = "Erreur lors du chargement des statistiques"
	MsgExportFailed      = "Erreur lors de l'export des statistiques"
	MsgNotificationsFail = "Erreur lors du chargement des notifications"
	MsgStartUnavailable  = "Un workflow est déjà en cours pour ce document"
)

// NotificationStore is the read side of the local notification center
type NotificationStore interface {
	Recent(ctx context.Context, limit int) ([]*entity.Notification, error)
	UnreadLocal(ctx context.Context) (int, error)
	MarkRead(ctx context.Context, id int64) error
	MarkAllRead(ctx context.Context) (int64, error)
}

// UnreadSource reports the last polled server-side unread count
type UnreadSource interface {
	Count() (int, bool)
}

// ExportService renders statistics workbooks
type ExportService interface {
	Generate(ctx context.Context) (*report.Export, error)
	History(ctx context.Context, limit int) ([]*entity.ExportRecord, error)
}

// HealthFunc reports overall health and per-component details
type HealthFunc func(ctx context.Context) (bool, interface{})

// Deps are the collaborators of the console handlers. Everything but API and
// Notifier is optional.
type Deps struct {
	API           port.WorkflowAPI
	Notifier      port.Notifier
	Notifications NotificationStore
	Unread        UnreadSource
	Exports       ExportService
	Dispatcher    dispatcher.Dispatcher
	Health        HealthFunc
	HistoryLimit  int
}

// Handlers contains the console HTTP handlers
type Handlers struct {
	deps   Deps
	logger Logger
}

// NewHandlers creates console handlers
func NewHandlers(deps Deps, logger Logger) *Handlers {
	if deps.HistoryLimit <= 0 {
		deps.HistoryLimit = 50
	}
	if logger == nil {
		logger = nopLogger{}
	}
	return &Handlers{deps: deps, logger: logger}
}

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

// Response is the standard console envelope. Notifications carries the
// toasts raised while serving the request.
type Response struct {
	Success       bool                  `json:"success"`
	Data          interface{}           `json:"data,omitempty"`
	Error         string                `json:"error,omitempty"`
	Notifications []entity.Notification `json:"notifications,omitempty"`
}

// StartWorkflowRequest is the body of POST /documents/:id/workflow
type StartWorkflowRequest struct {
	Title   string `json:"title"`
	Comment string `json:"commentaire"`
}

// DecisionRequest is the body of POST /approvals/decision
type DecisionRequest struct {
	InstanceID int64  `json:"instance_id" binding:"required"`
	StepID     int64  `json:"etape_id" binding:"required"`
	Decision   string `json:"decision"`
	Comment    string `json:"commentaire"`
}

// MarkReadRequest is the optional body of POST /notifications/read
type MarkReadRequest struct {
	ID *int64 `json:"id"`
}

// requestScope wires the per-request notifier
type requestScope struct {
	collector *notification.Collector
}

func (h *Handlers) scope() *requestScope {
	return &requestScope{collector: notification.NewCollector(h.deps.Notifier)}
}

func (s *requestScope) ok(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{
		Success:       true,
		Data:          data,
		Notifications: s.collector.Notifications(),
	})
}

func (s *requestScope) fail(c *gin.Context, status int, msg string, data interface{}) {
	c.JSON(status, Response{
		Success:       false,
		Data:          data,
		Error:         msg,
		Notifications: s.collector.Notifications(),
	})
}

func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err == nil {
		err = utils.ValidateID(name, id)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: MsgInvalidID})
		return 0, false
	}
	return id, true
}

func (h *Handlers) publish(ctx context.Context, evt *event.Event) {
	if h.deps.Dispatcher == nil {
		return
	}
	h.deps.Dispatcher.DispatchAsync(ctx, evt)
}

// Health handles GET /health
func (h *Handlers) Health(c *gin.Context) {
	if h.deps.Health == nil {
		c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"status": "ok"}})
		return
	}

	healthy, details := h.deps.Health(c.Request.Context())
	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, Response{Success: healthy, Data: details})
}

func (h *Handlers) newStartFlow(s *requestScope, documentID int64, title string) *flow.StartFlow {
	return flow.NewStartFlow(h.deps.API, s.collector, h.logger, flow.StartFlowConfig{
		DocumentID:    documentID,
		DocumentTitle: title,
		OnStarted: func(result *entity.StartResult) {
			h.publish(context.Background(), event.NewEvent(event.TypeWorkflowStarted, documentID, result.InstanceID, map[string]interface{}{
				"title":  title,
				"status": string(result.Status),
			}))
		},
	})
}

// GetDocumentWorkflow handles GET /documents/:id/workflow
func (h *Handlers) GetDocumentWorkflow(c *gin.Context) {
	documentID, ok := parseID(c, "id")
	if !ok {
		return
	}

	s := h.scope()
	f := h.newStartFlow(s, documentID, c.Query("title"))
	f.Mount(c.Request.Context())
	defer f.Unmount()

	s.ok(c, http.StatusOK, f.View())
}

// StartDocumentWorkflow handles POST /documents/:id/workflow
func (h *Handlers) StartDocumentWorkflow(c *gin.Context) {
	documentID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req StartWorkflowRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: MsgInvalidBody})
			return
		}
	}

	ctx := c.Request.Context()
	s := h.scope()
	f := h.newStartFlow(s, documentID, strings.TrimSpace(req.Title))
	f.Mount(ctx)
	defer f.Unmount()

	if err := f.Open(); err != nil {
		s.fail(c, http.StatusConflict, MsgStartUnavailable, f.View())
		return
	}
	f.SetComment(utils.SanitizeComment(req.Comment))

	result, err := f.Submit(ctx)
	if err != nil {
		s.fail(c, apperrors.HTTPStatus(err), apperrors.UserMessage(err, flow.MsgStartFailed), f.View())
		return
	}

	s.ok(c, http.StatusCreated, gin.H{
		"result": result,
		"view":   f.View(),
	})
}

func (h *Handlers) newPendingList(s *requestScope) *flow.PendingList {
	return flow.NewPendingList(h.deps.API, s.collector, h.logger, flow.PendingListConfig{
		OnApprovalProcessed: func(req entity.ApprovalRequest, result *entity.ApprovalResult) {
			h.publish(context.Background(), event.NewEvent(event.TypeApprovalProcessed, 0, req.InstanceID, map[string]interface{}{
				"etape_id": req.StepID,
				"decision": string(req.Decision),
				"status":   string(result.Status),
				"final":    result.Final,
			}))
		},
	})
}

// ListPendingApprovals handles GET /approvals
func (h *Handlers) ListPendingApprovals(c *gin.Context) {
	s := h.scope()
	l := h.newPendingList(s)
	view := l.Mount(c.Request.Context())
	defer l.Unmount()

	if view.Failed {
		s.fail(c, http.StatusBadGateway, flow.MsgPendingLoadFailed, view)
		return
	}
	s.ok(c, http.StatusOK, view)
}

// SubmitDecision handles POST /approvals/decision
func (h *Handlers) SubmitDecision(c *gin.Context) {
	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: MsgInvalidBody})
		return
	}

	ctx := c.Request.Context()
	s := h.scope()
	l := h.newPendingList(s)
	l.Mount(ctx)
	defer l.Unmount()

	l.OpenDecision(req.InstanceID, req.StepID, entity.ParseDecision(req.Decision))
	l.SetDecisionComment(utils.SanitizeComment(req.Comment))

	result, err := l.SubmitDecision(ctx)
	if err != nil {
		if errors.Is(err, flow.ErrDecisionRequired) {
			s.fail(c, http.StatusBadRequest, flow.MsgDecisionRequired, nil)
			return
		}
		s.fail(c, apperrors.HTTPStatus(err), apperrors.UserMessage(err, flow.MsgApprovalFailed), nil)
		return
	}

	s.ok(c, http.StatusOK, gin.H{
		"result":  result,
		"pending": l.View(),
	})
}

// GetInstanceDetails handles GET /instances/:id
func (h *Handlers) GetInstanceDetails(c *gin.Context) {
	instanceID, ok := parseID(c, "id")
	if !ok {
		return
	}

	details, err := h.deps.API.GetWorkflowInstanceDetails(c.Request.Context(), instanceID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			c.JSON(http.StatusNotFound, Response{Success: false, Error: MsgInstanceGone})
			return
		}
		h.logger.Error("Failed to load instance details", "instance_id", instanceID, "error", err)
		c.JSON(http.StatusBadGateway, Response{Success: false, Error: apperrors.UserMessage(err, MsgDetailsFailed)})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: newInstanceView(details)})
}

// GetStatistics handles GET /statistics
func (h *Handlers) GetStatistics(c *gin.Context) {
	stats, err := h.deps.API.GetWorkflowStatistics(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to load statistics", "error", err)
		c.JSON(http.StatusBadGateway, Response{Success: false, Error: apperrors.UserMessage(err, MsgStatisticsFailed)})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: stats})
}

// ExportStatistics handles GET /statistics/export
func (h *Handlers) ExportStatistics(c *gin.Context) {
	if h.deps.Exports == nil {
		c.JSON(http.StatusNotImplemented, Response{Success: false, Error: MsgExportFailed})
		return
	}

	export, err := h.deps.Exports.Generate(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to export statistics", "error", err)
		c.JSON(http.StatusBadGateway, Response{Success: false, Error: apperrors.UserMessage(err, MsgExportFailed)})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName))
	c.Data(http.StatusOK, report.ContentType, export.Content)
}

// ListExports handles GET /statistics/exports
func (h *Handlers) ListExports(c *gin.Context) {
	if h.deps.Exports == nil {
		c.JSON(http.StatusOK, Response{Success: true, Data: []*entity.ExportRecord{}})
		return
	}

	records, err := h.deps.Exports.History(c.Request.Context(), h.deps.HistoryLimit)
	if err != nil {
		h.logger.Error("Failed to list exports", "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: MsgExportFailed})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: records})
}

// ListNotifications handles GET /notifications
func (h *Handlers) ListNotifications(c *gin.Context) {
	ctx := c.Request.Context()
	data := gin.H{
		"items":         []*entity.Notification{},
		"unread_local":  0,
		"unread_server": nil,
	}

	if h.deps.Notifications != nil {
		items, err := h.deps.Notifications.Recent(ctx, h.deps.HistoryLimit)
		if err != nil {
			h.logger.Error("Failed to list notifications", "error", err)
			c.JSON(http.StatusInternalServerError, Response{Success: false, Error: MsgNotificationsFail})
			return
		}
		unread, err := h.deps.Notifications.UnreadLocal(ctx)
		if err != nil {
			h.logger.Error("Failed to count unread notifications", "error", err)
			c.JSON(http.StatusInternalServerError, Response{Success: false, Error: MsgNotificationsFail})
			return
		}
		data["items"] = items
		data["unread_local"] = unread
	}

	if h.deps.Unread != nil {
		if count, ok := h.deps.Unread.Count(); ok {
			data["unread_server"] = count
		}
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

// MarkNotificationsRead handles POST /notifications/read. Without an id every
// notification is marked read.
func (h *Handlers) MarkNotificationsRead(c *gin.Context) {
	if h.deps.Notifications == nil {
		c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"marked": 0}})
		return
	}

	var req MarkReadRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: MsgInvalidBody})
			return
		}
	}

	ctx := c.Request.Context()
	if req.ID != nil {
		if err := h.deps.Notifications.MarkRead(ctx, *req.ID); err != nil {
			status := http.StatusInternalServerError
			if apperrors.IsNotFound(err) {
				status = http.StatusNotFound
			}
			c.JSON(status, Response{Success: false, Error: err.Error()})
			return
		}
		c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"marked": 1}})
		return
	}

	n, err := h.deps.Notifications.MarkAllRead(ctx)
	if err != nil {
		h.logger.Error("Failed to mark notifications read", "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"marked": n}})
}

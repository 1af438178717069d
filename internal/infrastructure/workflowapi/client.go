// Package workflowapi is the HTTP client for the validation-workflow backend.
package workflowapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garyjia/docflow/internal/application/port"
	"github.com/garyjia/docflow/internal/domain/entity"
	apperrors "github.com/garyjia/docflow/pkg/errors"
)

const (
	// DefaultBasePath is the canonical mount point of the workflow endpoints
	DefaultBasePath = "/api/validation-workflow"

	unreadCountPath = "/api/notifications/unread-count"
)

// Config holds client configuration
type Config struct {
	BaseURL  string
	BasePath string
	Timeout  time.Duration
}

// Client implements port.WorkflowAPI over HTTP
type Client struct {
	baseURL    string
	basePath   string
	httpClient *http.Client
	tokens     port.TokenSource
	logger     *zap.Logger
}

// NewClient creates a new workflow API client
func NewClient(cfg Config, tokens port.TokenSource, logger *zap.Logger) *Client {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = DefaultBasePath
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		basePath: "/" + strings.Trim(basePath, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		tokens: tokens,
		logger: logger,
	}
}

// envelope is the uniform {success, data, message} response wrapper
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

func (e *envelope) serverMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

// StartValidationWorkflow starts a validation workflow on a document
func (c *Client) StartValidationWorkflow(ctx context.Context, documentID int64, comment string) (*entity.StartResult, error) {
	var result entity.StartResult
	body := entity.StartRequest{DocumentID: documentID, Comment: comment}
	if err := c.doRequest(ctx, http.MethodPost, c.path("/start"), body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ProcessApproval submits one approver's decision on a step
func (c *Client) ProcessApproval(ctx context.Context, req entity.ApprovalRequest) (*entity.ApprovalResult, error) {
	var result entity.ApprovalResult
	if err := c.doRequest(ctx, http.MethodPost, c.path("/approve"), req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetPendingApprovals lists the steps awaiting the current user's decision
func (c *Client) GetPendingApprovals(ctx context.Context) ([]entity.PendingApproval, error) {
	var pending []entity.PendingApproval
	if err := c.doRequest(ctx, http.MethodGet, c.path("/pending"), nil, &pending); err != nil {
		return nil, err
	}
	if pending == nil {
		pending = []entity.PendingApproval{}
	}
	for _, p := range pending {
		if raw := p.DueDate.Unparsed(); raw != "" {
			c.logger.Warn("Ignoring unrecognized due date",
				zap.Int64("instance_id", p.InstanceID),
				zap.Int64("etape_id", p.StepID),
				zap.String("value", raw),
			)
		}
	}
	return pending, nil
}

// GetWorkflowInstanceDetails fetches an instance with its approvals and steps
func (c *Client) GetWorkflowInstanceDetails(ctx context.Context, instanceID int64) (*entity.InstanceDetails, error) {
	var details entity.InstanceDetails
	err := c.doRequest(ctx, http.MethodGet, c.path(fmt.Sprintf("/instance/%d", instanceID)), nil, &details)
	if err != nil {
		var reqErr *apperrors.RequestError
		if errors.As(err, &reqErr) && reqErr.StatusCode == http.StatusNotFound {
			return nil, &apperrors.NotFoundError{
				Resource: "workflow instance",
				ID:       fmt.Sprintf("%d", instanceID),
				Message:  reqErr.Message,
			}
		}
		return nil, err
	}
	if details.Approvals == nil {
		details.Approvals = []entity.WorkflowApproval{}
	}
	if details.Steps == nil {
		details.Steps = []entity.WorkflowStep{}
	}
	return &details, nil
}

// GetDocumentWorkflowStatus returns whether a document has a workflow and its status
func (c *Client) GetDocumentWorkflowStatus(ctx context.Context, documentID int64) (*entity.DocumentWorkflowStatus, error) {
	var status entity.DocumentWorkflowStatus
	err := c.doRequest(ctx, http.MethodGet, c.path(fmt.Sprintf("/document/%d/status", documentID)), nil, &status)
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// GetWorkflowStatistics returns aggregate counters. The server may deny
// access; that surfaces as an ordinary RequestError.
func (c *Client) GetWorkflowStatistics(ctx context.Context) (*entity.WorkflowStatistics, error) {
	var stats entity.WorkflowStatistics
	if err := c.doRequest(ctx, http.MethodGet, c.path("/statistics"), nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// CanStartWorkflow reports whether a new workflow may be started for the
// document. Failures are logged and treated as "cannot start".
func (c *Client) CanStartWorkflow(ctx context.Context, documentID int64) bool {
	status, err := c.GetDocumentWorkflowStatus(ctx, documentID)
	if err != nil {
		if ctx.Err() == nil {
			c.logger.Warn("Failed to check workflow status",
				zap.Int64("document_id", documentID),
				zap.Error(err))
		}
		return false
	}
	return status.AllowsStart()
}

// GetUnreadNotificationCount returns the server-side unread notification count
func (c *Client) GetUnreadNotificationCount(ctx context.Context) (int, error) {
	var payload struct {
		Count int `json:"count"`
	}
	if err := c.doRequest(ctx, http.MethodGet, unreadCountPath, nil, &payload); err != nil {
		return 0, err
	}
	return payload.Count, nil
}

func (c *Client) path(suffix string) string {
	return c.basePath + suffix
}

// doRequest executes a request and decodes the envelope's data into result
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	var reqBody io.Reader
	if body != nil {
		jsonBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &apperrors.NetworkError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &apperrors.NetworkError{Method: method, Path: path, Err: err}
	}

	c.logger.Debug("Workflow API call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
		zap.String("request_id", requestID))

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode == http.StatusUnauthorized {
		return apperrors.NewAuthError(env.serverMessage())
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &apperrors.RequestError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    env.serverMessage(),
		}
	}

	if decodeErr != nil {
		return &apperrors.RequestError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("invalid response body: %v", decodeErr),
		}
	}

	if env.Success != nil && !*env.Success {
		return &apperrors.RequestError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    env.serverMessage(),
		}
	}

	if result == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, result); err != nil {
		return &apperrors.RequestError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("invalid response data: %v", err),
		}
	}
	return nil
}

var (
	_ port.WorkflowAPI   = (*Client)(nil)
	_ port.UnreadCounter = (*Client)(nil)
)

package flow

import (
	"context"
	"sync"

	"github.com/garyjia/docflow/internal/application/port"
	"github.com/garyjia/docflow/internal/domain/workflow"
)

// StatusChecker decides whether a validation workflow may be started for a
// document: CHECKING, then CAN_START or BLOCKED.
type StatusChecker struct {
	api    port.WorkflowAPI
	logger Logger

	mu         sync.Mutex
	machine    workflow.StateMachine
	generation uint64
	documentID int64
}

// NewStatusChecker creates a checker in the CHECKING state
func NewStatusChecker(api port.WorkflowAPI, logger Logger) *StatusChecker {
	return &StatusChecker{
		api:     api,
		logger:  orNop(logger),
		machine: workflow.NewCheckerMachine(),
	}
}

// Check re-enters CHECKING and resolves to CAN_START or BLOCKED. A resolution
// superseded by a later Check or MarkStarted is dropped.
func (c *StatusChecker) Check(ctx context.Context, documentID int64) workflow.State {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.documentID = documentID
	c.fire(ctx, workflow.TriggerRecheck)
	c.mu.Unlock()

	canStart := c.api.CanStartWorkflow(ctx, documentID)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation || ctx.Err() != nil {
		return c.machine.State()
	}

	if canStart {
		c.fire(ctx, workflow.TriggerAllow)
	} else {
		c.fire(ctx, workflow.TriggerBlock)
	}
	return c.machine.State()
}

// MarkStarted blocks the document immediately after a successful start,
// without waiting for a re-check.
func (c *StatusChecker) MarkStarted(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	c.fire(ctx, workflow.TriggerBlock)
}

// State returns the current checker state
func (c *StatusChecker) State() workflow.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.State()
}

func (c *StatusChecker) fire(ctx context.Context, trigger workflow.Trigger) {
	if err := c.machine.Fire(ctx, trigger); err != nil {
		c.logger.Error("Status checker transition rejected",
			"document_id", c.documentID,
			"state", c.machine.State(),
			"trigger", trigger,
			"error", err,
		)
	}
}

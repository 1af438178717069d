package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/garyjia/docflow/internal/application/port"
	"github.com/garyjia/docflow/internal/domain/entity"
	"github.com/garyjia/docflow/internal/domain/workflow"
	apperrors "github.com/garyjia/docflow/pkg/errors"
)

var (
	// ErrStartUnavailable is returned by Open when the document cannot be put
	// into validation (checking, or a workflow already in progress).
	ErrStartUnavailable = errors.New("workflow cannot be started for this document")

	// ErrModalClosed is returned by Submit when the comment modal is not open
	ErrModalClosed = errors.New("modal is not open")
)

// Start button labels
const (
	LabelChecking   = "Vérification..."
	LabelCanStart   = "Demander validation"
	LabelInProgress = "Workflow en cours"
)

// StartFlowConfig configures a StartFlow
type StartFlowConfig struct {
	DocumentID    int64
	DocumentTitle string

	// OnStarted is invoked once per successful start
	OnStarted func(result *entity.StartResult)
}

// StartFlowView is a rendering snapshot of a StartFlow
type StartFlowView struct {
	DocumentID      int64          `json:"document_id"`
	DocumentTitle   string         `json:"document_title"`
	State           workflow.State `json:"state"`
	ButtonLabel     string         `json:"button_label"`
	ButtonEnabled   bool           `json:"button_enabled"`
	ModalOpen       bool           `json:"modal_open"`
	Comment         string         `json:"comment"`
	Submitting      bool           `json:"submitting"`
	ConfirmDisabled bool           `json:"confirm_disabled"`
}

// StartFlow is the "request validation" affordance of a document: a button
// gated by the status checker and a comment modal that starts the workflow.
type StartFlow struct {
	api      port.WorkflowAPI
	notifier port.Notifier
	logger   Logger
	checker  *StatusChecker
	life     lifetime

	mu         sync.Mutex
	config     StartFlowConfig
	modalOpen  bool
	comment    string
	submitting bool
}

// NewStartFlow creates a start flow for one document
func NewStartFlow(api port.WorkflowAPI, notifier port.Notifier, logger Logger, cfg StartFlowConfig) *StartFlow {
	logger = orNop(logger)
	return &StartFlow{
		api:      api,
		notifier: notifier,
		logger:   logger,
		checker:  NewStatusChecker(api, logger),
		config:   cfg,
	}
}

// Mount begins the flow's lifetime and runs the status check
func (f *StartFlow) Mount(ctx context.Context) workflow.State {
	f.life.mount(ctx)
	return f.recheck(ctx)
}

// Unmount ends the flow's lifetime; in-flight resolutions become no-ops
func (f *StartFlow) Unmount() {
	f.life.unmount()
}

// SetDocument points the flow at another document and re-checks it. The
// modal of the previous document is discarded.
func (f *StartFlow) SetDocument(ctx context.Context, documentID int64, title string) workflow.State {
	f.mu.Lock()
	changed := f.config.DocumentID != documentID
	f.config.DocumentID = documentID
	f.config.DocumentTitle = title
	if changed {
		f.modalOpen = false
		f.comment = ""
	}
	f.mu.Unlock()

	if !changed {
		return f.checker.State()
	}
	return f.recheck(ctx)
}

func (f *StartFlow) recheck(ctx context.Context) workflow.State {
	c, err := f.life.begin(ctx)
	if err != nil {
		return f.checker.State()
	}
	defer c.end()

	f.mu.Lock()
	documentID := f.config.DocumentID
	f.mu.Unlock()

	return f.checker.Check(c.ctx, documentID)
}

// Open opens the comment modal. Only allowed in CAN_START.
func (f *StartFlow) Open() error {
	if !f.life.mounted() {
		return ErrNotMounted
	}
	if f.checker.State() != workflow.StateCanStart {
		return ErrStartUnavailable
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.modalOpen = true
	return nil
}

// SetComment binds the modal's free-text comment
func (f *StartFlow) SetComment(comment string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.comment = comment
}

// Cancel closes the modal and resets the comment so a reopened modal is blank
func (f *StartFlow) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.modalOpen = false
	f.comment = ""
}

// Submit starts the workflow with the modal's comment. While a submission is
// in flight the confirm control is disabled and further calls return
// ErrSubmitInFlight.
func (f *StartFlow) Submit(ctx context.Context) (*entity.StartResult, error) {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	if !f.modalOpen {
		f.mu.Unlock()
		return nil, ErrModalClosed
	}
	c, err := f.life.begin(ctx)
	if err != nil {
		f.mu.Unlock()
		return nil, err
	}
	defer c.end()

	f.submitting = true
	documentID := f.config.DocumentID
	title := f.config.DocumentTitle
	comment := strings.TrimSpace(f.comment)
	onStarted := f.config.OnStarted
	f.mu.Unlock()

	result, err := f.api.StartValidationWorkflow(c.ctx, documentID, comment)

	f.mu.Lock()
	f.submitting = false
	if !f.life.alive(c) {
		f.mu.Unlock()
		return nil, ErrNotMounted
	}

	if err != nil {
		f.mu.Unlock()
		f.logger.Error("Failed to start validation workflow",
			"document_id", documentID,
			"error", err,
		)
		f.notifier.Error(detach(ctx), documentNotification(
			"Demande de validation",
			apperrors.UserMessage(err, MsgStartFailed),
			documentID,
		))
		return nil, err
	}

	// The shown document may have changed while the request was in flight.
	current := f.config.DocumentID == documentID
	if current {
		f.modalOpen = false
		f.comment = ""
	}
	f.mu.Unlock()

	if current {
		f.checker.MarkStarted(c.ctx)
	}

	f.logger.Info("Validation workflow started",
		"document_id", documentID,
		"instance_id", result.InstanceID,
	)

	if onStarted != nil {
		onStarted(result)
	}

	n := documentNotification("Workflow démarré", startedMessage(title), documentID)
	n.InstanceID = int64Ptr(result.InstanceID)
	f.notifier.Success(detach(ctx), n)

	return result, nil
}

// State returns the status checker state
func (f *StartFlow) State() workflow.State {
	return f.checker.State()
}

// View returns a rendering snapshot
func (f *StartFlow) View() StartFlowView {
	state := f.checker.State()

	f.mu.Lock()
	defer f.mu.Unlock()

	return StartFlowView{
		DocumentID:      f.config.DocumentID,
		DocumentTitle:   f.config.DocumentTitle,
		State:           state,
		ButtonLabel:     buttonLabel(state),
		ButtonEnabled:   state == workflow.StateCanStart && !f.submitting,
		ModalOpen:       f.modalOpen,
		Comment:         f.comment,
		Submitting:      f.submitting,
		ConfirmDisabled: f.submitting,
	}
}

func buttonLabel(state workflow.State) string {
	switch state {
	case workflow.StateCanStart:
		return LabelCanStart
	case workflow.StateBlocked:
		return LabelInProgress
	default:
		return LabelChecking
	}
}

func startedMessage(title string) string {
	if title == "" {
		return "Le workflow de validation a été démarré"
	}
	return fmt.Sprintf("Le workflow de validation a été démarré pour « %s »", title)
}

package flow

import (
	"errors"
	"strings"

	"github.com/garyjia/docflow/internal/domain/entity"
)

var (
	// ErrDecisionRequired is returned when no approve/reject decision is selected
	ErrDecisionRequired = errors.New("a decision is required")

	// ErrDecisionClosed is returned when submitting without an open decision modal
	ErrDecisionClosed = errors.New("decision modal is not open")
)

// DecisionTarget identifies the step a decision applies to
type DecisionTarget struct {
	InstanceID int64 `json:"instance_id"`
	StepID     int64 `json:"etape_id"`
}

// DecisionView is a rendering snapshot of a DecisionFlow
type DecisionView struct {
	Open       bool                `json:"open"`
	Target     DecisionTarget      `json:"target"`
	Decision   entity.Decision     `json:"decision"`
	Label      entity.Presentation `json:"label"`
	Comment    string              `json:"comment"`
	Submitting bool                `json:"submitting"`
}

// DecisionFlow is the confirmation modal of an approve/reject action.
// It is not safe for concurrent use; owners serialize access.
type DecisionFlow struct {
	target     DecisionTarget
	decision   entity.Decision
	comment    string
	open       bool
	submitting bool
}

// Select opens the modal on a target with a pre-seeded decision. Moving to a
// different target clears the comment; reselecting the same target keeps
// the draft.
func (d *DecisionFlow) Select(target DecisionTarget, decision entity.Decision) {
	if target != d.target {
		d.comment = ""
	}
	d.target = target
	d.decision = decision
	d.open = true
}

// SetDecision changes the selected decision
func (d *DecisionFlow) SetDecision(decision entity.Decision) {
	d.decision = decision
}

// SetComment binds the optional comment
func (d *DecisionFlow) SetComment(comment string) {
	d.comment = comment
}

// Cancel closes the modal without submitting
func (d *DecisionFlow) Cancel() {
	d.open = false
}

// Complete closes the modal after a successful submission on target and
// discards the draft. It reports false and leaves the modal alone when the
// modal has since moved to another target.
func (d *DecisionFlow) Complete(target DecisionTarget) bool {
	if d.target != target {
		return false
	}
	d.open = false
	d.comment = ""
	d.decision = entity.DecisionNone
	d.target = DecisionTarget{}
	return true
}

// Request builds the approval request for the current target
func (d *DecisionFlow) Request() (entity.ApprovalRequest, error) {
	if !d.open {
		return entity.ApprovalRequest{}, ErrDecisionClosed
	}
	if !d.decision.IsSubmittable() {
		return entity.ApprovalRequest{}, ErrDecisionRequired
	}
	return entity.ApprovalRequest{
		InstanceID: d.target.InstanceID,
		StepID:     d.target.StepID,
		Decision:   d.decision,
		Comment:    strings.TrimSpace(d.comment),
	}, nil
}

// BeginSubmit marks a submission in flight. It returns false if one already is.
func (d *DecisionFlow) BeginSubmit() bool {
	if d.submitting {
		return false
	}
	d.submitting = true
	return true
}

// EndSubmit clears the in-flight flag
func (d *DecisionFlow) EndSubmit() {
	d.submitting = false
}

// View returns a rendering snapshot
func (d *DecisionFlow) View() DecisionView {
	return DecisionView{
		Open:       d.open,
		Target:     d.target,
		Decision:   d.decision,
		Label:      d.decision.Presentation(),
		Comment:    d.comment,
		Submitting: d.submitting,
	}
}

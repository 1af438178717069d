package http

import (
	"github.com/garyjia/docflow/internal/domain/entity"
	"github.com/garyjia/docflow/internal/domain/workflow"
)

// InstanceView renders the details of a workflow instance
type InstanceView struct {
	Instance    entity.WorkflowInstance   `json:"instance"`
	Status      entity.Presentation       `json:"status"`
	CurrentStep *entity.WorkflowStep      `json:"current_step,omitempty"`
	CanDecide   bool                      `json:"can_decide"`
	Steps       []StepView                `json:"steps"`
	Approvals   []entity.WorkflowApproval `json:"approvals"`
}

// StepView is one step of an instance's timeline
type StepView struct {
	entity.WorkflowStep
	Type     entity.Presentation `json:"type"`
	Decision entity.Presentation `json:"decision"`
	Current  bool                `json:"current"`
}

func newInstanceView(d *entity.InstanceDetails) InstanceView {
	current := d.CurrentStep()

	steps := make([]StepView, 0, len(d.Steps))
	for _, st := range d.Steps {
		steps = append(steps, StepView{
			WorkflowStep: st,
			Type:         st.ApprovalType.Presentation(),
			Decision:     st.Status.Presentation(),
			Current:      current != nil && current.ID == st.ID,
		})
	}

	approvals := d.Approvals
	if approvals == nil {
		approvals = []entity.WorkflowApproval{}
	}

	return InstanceView{
		Instance:    d.Instance,
		Status:      d.Instance.Status.Presentation(),
		CurrentStep: current,
		CanDecide:   workflow.CanDecide(d.Instance.Status),
		Steps:       steps,
		Approvals:   approvals,
	}
}

package entity

// WorkflowInstance is one run of a validation process attached to one document.
// Instances are owned by the server; the client only holds refetched copies.
type WorkflowInstance struct {
	ID            int64          `json:"id"`
	WorkflowID    int64          `json:"workflow_id"`
	DocumentID    int64          `json:"document_id"`
	InitiatorID   int64          `json:"initiateur_id"`
	CurrentStepID *int64         `json:"etape_courante_id,omitempty"`
	Status        InstanceStatus `json:"status"`
	CreatedAt     Timestamp      `json:"date_creation"`
	CompletedAt   Timestamp      `json:"date_fin"`
	Comment       string         `json:"commentaire,omitempty"`
}

// WorkflowStep (étape) is an ordered stage within a workflow definition.
// The per-instance fields are only set when the step is returned as part of
// an instance's details.
type WorkflowStep struct {
	ID            int64        `json:"id"`
	WorkflowID    int64        `json:"workflow_id"`
	Name          string       `json:"nom"`
	Description   string       `json:"description,omitempty"`
	Order         int          `json:"ordre"`
	ApprovalType  ApprovalType `json:"type_approbation"`
	MaxDelayHours *int         `json:"delai_max_heures,omitempty"`
	Status        Decision     `json:"status,omitempty"`
	DecidedAt     Timestamp    `json:"date_decision"`
	ApproverID    *int64       `json:"approbateur_id,omitempty"`
}

// WorkflowApproval (approbation) is an immutable record of one approver's
// decision on one step of one instance.
type WorkflowApproval struct {
	ID           int64     `json:"id"`
	InstanceID   int64     `json:"instance_id"`
	StepID       int64     `json:"etape_id"`
	ApproverID   int64     `json:"approbateur_id"`
	ApproverName string    `json:"approbateur_nom,omitempty"`
	Decision     Decision  `json:"decision"`
	DecidedAt    Timestamp `json:"date_decision"`
	Comment      string    `json:"commentaire,omitempty"`
}

// InstanceDetails is the payload of GET /instance/{id}
type InstanceDetails struct {
	Instance  WorkflowInstance   `json:"instance"`
	Approvals []WorkflowApproval `json:"approbations"`
	Steps     []WorkflowStep     `json:"etapes"`
}

// CurrentStep returns the step the instance's current-step pointer references
func (d *InstanceDetails) CurrentStep() *WorkflowStep {
	if d.Instance.CurrentStepID == nil {
		return nil
	}
	for i := range d.Steps {
		if d.Steps[i].ID == *d.Instance.CurrentStepID {
			return &d.Steps[i]
		}
	}
	return nil
}

// DocumentWorkflowStatus is the payload of GET /document/{id}/status
type DocumentWorkflowStatus struct {
	HasWorkflow     bool           `json:"has_workflow"`
	InstanceID      *int64         `json:"instance_id,omitempty"`
	Status          InstanceStatus `json:"status,omitempty"`
	CurrentStepID   *int64         `json:"etape_courante_id,omitempty"`
	CurrentStepName string         `json:"etape_courante_nom,omitempty"`
	CreatedAt       Timestamp      `json:"date_creation"`
}

// AllowsStart reports whether a new workflow may be started for the document:
// no workflow exists, or the existing one is no longer in progress.
func (s *DocumentWorkflowStatus) AllowsStart() bool {
	return !s.HasWorkflow || s.Status != InstanceStatusInProgress
}

// WorkflowStatistics is the payload of GET /statistics
type WorkflowStatistics struct {
	TotalInstances    int     `json:"total_instances"`
	InProgress        int     `json:"en_cours"`
	Approved          int     `json:"approuves"`
	Rejected          int     `json:"rejetes"`
	Cancelled         int     `json:"annules"`
	Overdue           int     `json:"en_retard"`
	AverageDelayHours float64 `json:"delai_moyen_heures"`
	PendingApprovals  int     `json:"approbations_en_attente"`
}

// StartRequest is the body of POST /start
type StartRequest struct {
	DocumentID int64  `json:"document_id"`
	Comment    string `json:"commentaire"`
}

// StartResult is the payload of POST /start
type StartResult struct {
	InstanceID    int64          `json:"instance_id"`
	WorkflowID    int64          `json:"workflow_id"`
	CurrentStepID int64          `json:"etape_courante_id"`
	Status        InstanceStatus `json:"status"`
	Message       string         `json:"message"`
}

// ApprovalRequest is the body of POST /approve
type ApprovalRequest struct {
	InstanceID int64    `json:"instance_id"`
	StepID     int64    `json:"etape_id"`
	Decision   Decision `json:"decision"`
	Comment    string   `json:"commentaire,omitempty"`
}

// ApprovalResult is the payload of POST /approve
type ApprovalResult struct {
	Status     InstanceStatus `json:"status"`
	Message    string         `json:"message"`
	Final      bool           `json:"final"`
	NextStepID *int64         `json:"etape_suivante_id,omitempty"`
}

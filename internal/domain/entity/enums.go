package entity

import (
	"encoding/json"
	"strings"
)

// InstanceStatus is the lifecycle status of a WorkflowInstance
type InstanceStatus string

const (
	InstanceStatusInProgress InstanceStatus = "EN_COURS"
	InstanceStatusApproved   InstanceStatus = "APPROUVE"
	InstanceStatusRejected   InstanceStatus = "REJETE"
	InstanceStatusCancelled  InstanceStatus = "ANNULE"
	InstanceStatusUnknown    InstanceStatus = "INCONNU"
)

// ParseInstanceStatus maps a wire value to an InstanceStatus.
// Unrecognized values map to InstanceStatusUnknown.
func ParseInstanceStatus(s string) InstanceStatus {
	switch InstanceStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case InstanceStatusInProgress:
		return InstanceStatusInProgress
	case InstanceStatusApproved:
		return InstanceStatusApproved
	case InstanceStatusRejected:
		return InstanceStatusRejected
	case InstanceStatusCancelled:
		return InstanceStatusCancelled
	}
	return InstanceStatusUnknown
}

// IsTerminal returns true once no further transition is allowed
func (s InstanceStatus) IsTerminal() bool {
	return s == InstanceStatusApproved || s == InstanceStatusRejected || s == InstanceStatusCancelled
}

// String returns the wire representation of the status
func (s InstanceStatus) String() string {
	return string(s)
}

// UnmarshalJSON normalizes unrecognized statuses to InstanceStatusUnknown
func (s *InstanceStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == "" {
		*s = ""
		return nil
	}
	*s = ParseInstanceStatus(raw)
	return nil
}

// ApprovalType is the policy governing how many approvers act on a step
type ApprovalType string

const (
	ApprovalTypeSimple   ApprovalType = "SIMPLE"
	ApprovalTypeMultiple ApprovalType = "MULTIPLE"
	ApprovalTypeParallel ApprovalType = "PARALLELE"
	ApprovalTypeUnknown  ApprovalType = "INCONNU"
)

// ParseApprovalType maps a wire value to an ApprovalType.
// Unrecognized values map to ApprovalTypeUnknown.
func ParseApprovalType(s string) ApprovalType {
	switch ApprovalType(strings.ToUpper(strings.TrimSpace(s))) {
	case ApprovalTypeSimple:
		return ApprovalTypeSimple
	case ApprovalTypeMultiple:
		return ApprovalTypeMultiple
	case ApprovalTypeParallel, "PARALLEL":
		return ApprovalTypeParallel
	}
	return ApprovalTypeUnknown
}

// String returns the wire representation of the approval type
func (t ApprovalType) String() string {
	return string(t)
}

// UnmarshalJSON normalizes unrecognized approval types to ApprovalTypeUnknown
func (t *ApprovalType) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = ParseApprovalType(raw)
	return nil
}

// Decision is one approver's verdict on a step
type Decision string

const (
	DecisionNone    Decision = ""
	DecisionApprove Decision = "APPROUVE"
	DecisionReject  Decision = "REJETE"
	DecisionPending Decision = "EN_ATTENTE"
)

// ParseDecision accepts the wire value or the short CLI forms (approve, reject).
func ParseDecision(s string) Decision {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "APPROUVE", "APPROVE", "APPROVED":
		return DecisionApprove
	case "REJETE", "REJECT", "REJECTED":
		return DecisionReject
	case "EN_ATTENTE", "PENDING":
		return DecisionPending
	}
	return DecisionNone
}

// IsSubmittable returns true for decisions a user may post
func (d Decision) IsSubmittable() bool {
	return d == DecisionApprove || d == DecisionReject
}

// String returns the wire representation of the decision
func (d Decision) String() string {
	return string(d)
}

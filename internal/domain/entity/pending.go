package entity

import (
	"sort"
	"time"
)

// PendingApproval is a read-model row: one (instance, step) pair awaiting the
// current user's decision.
type PendingApproval struct {
	InstanceID        int64        `json:"instance_id"`
	StepID            int64        `json:"etape_id"`
	DocumentID        int64        `json:"document_id"`
	DocumentTitle     string       `json:"document_titre"`
	StepName          string       `json:"etape_nom"`
	ApprovalType      ApprovalType `json:"type_approbation"`
	InitiatorID       int64        `json:"initiateur_id"`
	InitiatorName     string       `json:"initiateur_nom"`
	ApprovalsCount    int          `json:"approbations_count"`
	ApprovalsRequired int          `json:"approbations_necessaires"`
	DueDate           Timestamp    `json:"date_echeance"`
	Priority          int          `json:"priorite"`
	CreatedAt         Timestamp    `json:"date_creation"`
}

// IsOverdue reports whether a due date is set and strictly before now
func (p *PendingApproval) IsOverdue(now time.Time) bool {
	return !p.DueDate.IsZero() && p.DueDate.Before(now)
}

// ProgressPercent returns received/required approvals as a percentage.
// A step that requires no approval counts as complete.
func (p *PendingApproval) ProgressPercent() float64 {
	if p.ApprovalsRequired <= 0 {
		return 100
	}
	pct := float64(p.ApprovalsCount) / float64(p.ApprovalsRequired) * 100
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return pct
}

// IsResolved reports whether the step has received all required approvals
func (p *PendingApproval) IsResolved() bool {
	return p.ApprovalsCount >= p.ApprovalsRequired
}

// Priority bounds
const (
	PriorityLowest  = 0
	PriorityHighest = 4
)

// ClampedPriority returns Priority bounded to [PriorityLowest, PriorityHighest]
func (p *PendingApproval) ClampedPriority() int {
	if p.Priority < PriorityLowest {
		return PriorityLowest
	}
	if p.Priority > PriorityHighest {
		return PriorityHighest
	}
	return p.Priority
}

// SortPendingApprovals orders rows by priority descending, then due date ascending
// with missing due dates last, then instance and step id.
func SortPendingApprovals(items []PendingApproval) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := &items[i], &items[j]
		if pa, pb := a.ClampedPriority(), b.ClampedPriority(); pa != pb {
			return pa > pb
		}
		aDue, bDue := !a.DueDate.IsZero(), !b.DueDate.IsZero()
		if aDue != bDue {
			return aDue
		}
		if aDue && !a.DueDate.Equal(b.DueDate.Time) {
			return a.DueDate.Before(b.DueDate.Time)
		}
		if a.InstanceID != b.InstanceID {
			return a.InstanceID < b.InstanceID
		}
		return a.StepID < b.StepID
	})
}

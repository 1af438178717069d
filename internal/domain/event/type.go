package event

// Type identifies the type of domain event
type Type string

const (
	TypeWorkflowStarted    Type = "workflow.started"
	TypeApprovalProcessed  Type = "approval.processed"
	TypeNotificationRaised Type = "notification.raised"
	TypeUnreadCountChanged Type = "notification.unread_changed"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeWorkflowStarted,
		TypeApprovalProcessed,
		TypeNotificationRaised,
		TypeUnreadCountChanged:
		return true
	default:
		return false
	}
}

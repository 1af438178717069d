package workflow

// Trigger represents an event that can cause a state transition
type Trigger string

// Status checker triggers
const (
	TriggerRecheck Trigger = "RECHECK"
	TriggerAllow   Trigger = "ALLOW"
	TriggerBlock   Trigger = "BLOCK"
)

// Instance lifecycle triggers
const (
	TriggerApprove Trigger = "APPROVE"
	TriggerReject  Trigger = "REJECT"
	TriggerCancel  Trigger = "CANCEL"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}

package workflow

import "github.com/garyjia/docflow/internal/domain/entity"

// State is a node of a state machine
type State string

// Status checker states: whether a validation workflow may be started for a document
const (
	StateChecking State = "CHECKING"
	StateCanStart State = "CAN_START"
	StateBlocked  State = "BLOCKED"
)

// CheckerStates lists the states of the status checker machine
var CheckerStates = []State{StateChecking, StateCanStart, StateBlocked}

// Instance lifecycle states mirror entity.InstanceStatus
const (
	StateInProgress State = State(entity.InstanceStatusInProgress)
	StateApproved   State = State(entity.InstanceStatusApproved)
	StateRejected   State = State(entity.InstanceStatusRejected)
	StateCancelled  State = State(entity.InstanceStatusCancelled)
)

// InstanceStates lists the states of the instance lifecycle machine
var InstanceStates = []State{StateInProgress, StateApproved, StateRejected, StateCancelled}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

package workflow

import (
	"context"
	"fmt"

	"github.com/garyjia/docflow/internal/domain/entity"
)

// NewCheckerMachine builds the status checker machine, starting in CHECKING.
//
//	CHECKING  --allow--> CAN_START
//	CHECKING  --block--> BLOCKED
//	CAN_START --block--> BLOCKED   (a workflow was just started)
//	any       --recheck--> CHECKING
func NewCheckerMachine() StateMachine {
	b := NewBuilder(CheckerStates...)
	b.Configure(StateChecking).
		Permit(TriggerAllow, StateCanStart).
		Permit(TriggerBlock, StateBlocked).
		Permit(TriggerRecheck, StateChecking)
	b.Configure(StateCanStart).
		Permit(TriggerBlock, StateBlocked).
		Permit(TriggerRecheck, StateChecking)
	b.Configure(StateBlocked).
		Permit(TriggerBlock, StateBlocked).
		Permit(TriggerRecheck, StateChecking)
	return b.Build(StateChecking)
}

var instanceBuilder = func() StateMachineBuilder {
	b := NewBuilder(InstanceStates...)
	b.Configure(StateInProgress).
		Permit(TriggerApprove, StateApproved).
		Permit(TriggerReject, StateRejected).
		Permit(TriggerCancel, StateCancelled)
	// Terminal states are configured with no transitions
	b.Configure(StateApproved)
	b.Configure(StateRejected)
	b.Configure(StateCancelled)
	return b
}()

// NewInstanceMachine builds the lifecycle machine for an instance in the given
// status. Unknown statuses are rejected.
func NewInstanceMachine(status entity.InstanceStatus) (StateMachine, error) {
	switch status {
	case entity.InstanceStatusInProgress, entity.InstanceStatusApproved,
		entity.InstanceStatusRejected, entity.InstanceStatusCancelled:
		return instanceBuilder.Build(State(status)), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidTransition, status)
}

// CanDecide reports whether a decision may still be submitted against an
// instance in the given status.
func CanDecide(status entity.InstanceStatus) bool {
	m, err := NewInstanceMachine(status)
	if err != nil {
		return false
	}
	return m.CanFire(TriggerApprove) || m.CanFire(TriggerReject)
}

// ValidateResolution checks that a server-reported status is reachable from
// the previous one. Unchanged status is always valid (non-final step).
func ValidateResolution(ctx context.Context, from, to entity.InstanceStatus) error {
	if from == to {
		return nil
	}
	m, err := NewInstanceMachine(from)
	if err != nil {
		return err
	}
	if from.IsTerminal() {
		return fmt.Errorf("%w: %s", ErrTerminalStatus, from)
	}
	var trigger Trigger
	switch to {
	case entity.InstanceStatusApproved:
		trigger = TriggerApprove
	case entity.InstanceStatusRejected:
		trigger = TriggerReject
	case entity.InstanceStatusCancelled:
		trigger = TriggerCancel
	default:
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return m.Fire(ctx, trigger)
}

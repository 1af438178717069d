package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/garyjia/docflow/internal/domain/entity"
)

func TestState_String(t *testing.T) {
	if got := StateCanStart.String(); got != "CAN_START" {
		t.Errorf("State.String() = %v, want %v", got, "CAN_START")
	}
}

func TestTrigger_String(t *testing.T) {
	if got := TriggerRecheck.String(); got != "RECHECK" {
		t.Errorf("Trigger.String() = %v, want %v", got, "RECHECK")
	}
}

func TestBuilder_Configure(t *testing.T) {
	builder := NewBuilder(CheckerStates...)

	config := builder.Configure(StateChecking)
	if config == nil {
		t.Fatal("Configure() returned nil")
	}

	config2 := builder.Configure(StateChecking)
	if config != config2 {
		t.Error("Configure() should return same config for same state")
	}
}

func TestBuilder_ConfigurePanicsOnForeignState(t *testing.T) {
	builder := NewBuilder(CheckerStates...)

	defer func() {
		if r := recover(); r == nil {
			t.Error("Configure() should panic on a state the builder does not know")
		}
	}()

	builder.Configure(StateApproved)
}

func TestBuilder_BuildPanicsOnInvalidInitialState(t *testing.T) {
	builder := NewBuilder(CheckerStates...)

	defer func() {
		if r := recover(); r == nil {
			t.Error("Build() should panic on invalid initial state")
		}
	}()

	builder.Build(State("INVALID"))
}

func TestStateConfiguration_PermitIf(t *testing.T) {
	tests := []struct {
		name      string
		guard     bool
		wantState State
		wantErr   error
	}{
		{"guard passes", true, StateCanStart, nil},
		{"guard fails", false, StateChecking, ErrGuardFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			builder := NewBuilder(CheckerStates...)
			builder.Configure(StateChecking).
				PermitIf(TriggerAllow, StateCanStart, func(ctx context.Context) bool {
					return tt.guard
				})

			machine := builder.Build(StateChecking)
			err := machine.Fire(context.Background(), TriggerAllow)

			if tt.wantErr == nil && err != nil {
				t.Errorf("Fire() error = %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Fire() error = %v, want %v", err, tt.wantErr)
			}
			if machine.State() != tt.wantState {
				t.Errorf("State after Fire() = %v, want %v", machine.State(), tt.wantState)
			}
		})
	}
}

func TestBuild_MachinesAreIndependent(t *testing.T) {
	builder := NewBuilder(CheckerStates...)
	builder.Configure(StateChecking).Permit(TriggerAllow, StateCanStart)

	m1 := builder.Build(StateChecking)
	m2 := builder.Build(StateChecking)

	if err := m1.Fire(context.Background(), TriggerAllow); err != nil {
		t.Fatalf("Fire() failed: %v", err)
	}
	if m2.State() != StateChecking {
		t.Errorf("second machine moved to %v", m2.State())
	}
}

func TestCheckerMachine_Transitions(t *testing.T) {
	tests := []struct {
		name     string
		triggers []Trigger
		want     State
		wantErr  bool
	}{
		{"initial", nil, StateChecking, false},
		{"allowed", []Trigger{TriggerAllow}, StateCanStart, false},
		{"blocked", []Trigger{TriggerBlock}, StateBlocked, false},
		{"started after allow", []Trigger{TriggerAllow, TriggerBlock}, StateBlocked, false},
		{"recheck from blocked", []Trigger{TriggerBlock, TriggerRecheck}, StateChecking, false},
		{"allow twice", []Trigger{TriggerAllow, TriggerAllow}, StateCanStart, true},
		{"allow from blocked", []Trigger{TriggerBlock, TriggerAllow}, StateBlocked, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewCheckerMachine()
			var err error
			for _, trig := range tt.triggers {
				if err = m.Fire(context.Background(), trig); err != nil {
					break
				}
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("Fire() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("Fire() error = %v, want ErrInvalidTransition", err)
			}
			if m.State() != tt.want {
				t.Errorf("State() = %v, want %v", m.State(), tt.want)
			}
		})
	}
}

func TestInstanceMachine_TerminalStatusesAreImmutable(t *testing.T) {
	for _, status := range []entity.InstanceStatus{
		entity.InstanceStatusApproved,
		entity.InstanceStatusRejected,
		entity.InstanceStatusCancelled,
	} {
		t.Run(string(status), func(t *testing.T) {
			m, err := NewInstanceMachine(status)
			if err != nil {
				t.Fatalf("NewInstanceMachine() error = %v", err)
			}
			if got := m.PermittedTriggers(); len(got) != 0 {
				t.Errorf("PermittedTriggers() = %v, want none", got)
			}
			if CanDecide(status) {
				t.Error("CanDecide() = true for terminal status")
			}
		})
	}
}

func TestInstanceMachine_InProgress(t *testing.T) {
	m, err := NewInstanceMachine(entity.InstanceStatusInProgress)
	if err != nil {
		t.Fatalf("NewInstanceMachine() error = %v", err)
	}

	want := []Trigger{TriggerApprove, TriggerCancel, TriggerReject}
	got := m.PermittedTriggers()
	if len(got) != len(want) {
		t.Fatalf("PermittedTriggers() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("PermittedTriggers()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestNewInstanceMachine_UnknownStatus(t *testing.T) {
	if _, err := NewInstanceMachine(entity.InstanceStatusUnknown); err == nil {
		t.Error("NewInstanceMachine() should reject unknown status")
	}
	if CanDecide(entity.InstanceStatusUnknown) {
		t.Error("CanDecide() = true for unknown status")
	}
}

func TestValidateResolution(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		from    entity.InstanceStatus
		to      entity.InstanceStatus
		wantErr error
	}{
		{"non-final step", entity.InstanceStatusInProgress, entity.InstanceStatusInProgress, nil},
		{"approved", entity.InstanceStatusInProgress, entity.InstanceStatusApproved, nil},
		{"rejected", entity.InstanceStatusInProgress, entity.InstanceStatusRejected, nil},
		{"cancelled", entity.InstanceStatusInProgress, entity.InstanceStatusCancelled, nil},
		{"terminal reopened", entity.InstanceStatusApproved, entity.InstanceStatusInProgress, ErrTerminalStatus},
		{"terminal flipped", entity.InstanceStatusRejected, entity.InstanceStatusApproved, ErrTerminalStatus},
		{"unknown target", entity.InstanceStatusInProgress, entity.InstanceStatusUnknown, ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateResolution(ctx, tt.from, tt.to)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateResolution() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateResolution() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

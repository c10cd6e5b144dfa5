package workflow

import (
	"context"
	"errors"
	"testing"
)

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StateDraft, false},
		{StatePending, false},
		{StateApproved, true},
		{StateRejected, true},
		{StateCancelled, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.expected {
				t.Errorf("State.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		expected bool
	}{
		{"valid state", StateDraft, true},
		{"valid terminal state", StateCancelled, true},
		{"invalid state", State("INVALID"), false},
		{"empty state", State(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.expected {
				t.Errorf("State.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_String(t *testing.T) {
	if got := StateDraft.String(); got != "DRAFT" {
		t.Errorf("State.String() = %v, want %v", got, "DRAFT")
	}
}

func TestTrigger_String(t *testing.T) {
	if got := TriggerSubmit.String(); got != "SUBMIT" {
		t.Errorf("Trigger.String() = %v, want %v", got, "SUBMIT")
	}
}

func TestBuilder_Configure(t *testing.T) {
	builder := NewBuilder()

	config := builder.Configure(StateDraft)
	if config == nil {
		t.Fatal("Configure() returned nil")
	}

	// Configure same state again should return same config
	config2 := builder.Configure(StateDraft)
	if config != config2 {
		t.Error("Configure() should return same config for same state")
	}
}

func TestBuilder_ConfigurePanicsOnInvalidState(t *testing.T) {
	builder := NewBuilder()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Configure() should panic on invalid state")
		}
	}()

	builder.Configure(State("INVALID"))
}

func TestBuilder_BuildPanicsOnInvalidInitialState(t *testing.T) {
	builder := NewBuilder()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Build() should panic on invalid initial state")
		}
	}()

	builder.Build(State("INVALID"))
}

func TestStateMachine_Fire(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateDraft).
		Permit(TriggerSubmit, StatePending).
		Permit(TriggerCancel, StateCancelled)
	builder.Configure(StatePending).
		Permit(TriggerApprove, StateApproved).
		Permit(TriggerReject, StateRejected)

	tests := []struct {
		name         string
		initialState State
		trigger      Trigger
		wantState    State
		wantErr      error
	}{
		{"submit draft", StateDraft, TriggerSubmit, StatePending, nil},
		{"cancel draft", StateDraft, TriggerCancel, StateCancelled, nil},
		{"approve pending", StatePending, TriggerApprove, StateApproved, nil},
		{"reject pending", StatePending, TriggerReject, StateRejected, nil},
		{"approve draft is invalid", StateDraft, TriggerApprove, StateDraft, ErrInvalidTransition},
		{"fire from terminal state", StateApproved, TriggerSubmit, StateApproved, ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			machine := builder.Build(tt.initialState)

			err := machine.Fire(context.Background(), tt.trigger)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Fire() error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if machine.State() != tt.wantState {
				t.Errorf("expected state %s, got %s", tt.wantState, machine.State())
			}
		})
	}
}

func TestStateMachine_GuardedTransition(t *testing.T) {
	allowed := false

	builder := NewBuilder()
	builder.Configure(StateDraft).
		PermitIf(TriggerSubmit, StatePending, func(ctx context.Context) bool {
			return allowed
		})

	machine := builder.Build(StateDraft)

	err := machine.Fire(context.Background(), TriggerSubmit)
	if !errors.Is(err, ErrGuardFailed) {
		t.Errorf("Fire() error = %v, want ErrGuardFailed", err)
	}
	if machine.State() != StateDraft {
		t.Errorf("state should not change when guard fails, got %s", machine.State())
	}

	allowed = true
	if err := machine.Fire(context.Background(), TriggerSubmit); err != nil {
		t.Errorf("unexpected error after guard passes: %v", err)
	}
	if machine.State() != StatePending {
		t.Errorf("expected state PENDING, got %s", machine.State())
	}
}

func TestStateMachine_CanFire(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateDraft).
		Permit(TriggerSubmit, StatePending)

	machine := builder.Build(StateDraft)

	if !machine.CanFire(TriggerSubmit) {
		t.Error("CanFire(SUBMIT) should be true from DRAFT")
	}
	if machine.CanFire(TriggerApprove) {
		t.Error("CanFire(APPROVE) should be false from DRAFT")
	}
}

func TestStateMachine_PermittedTriggers(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateDraft).
		Permit(TriggerSubmit, StatePending).
		Permit(TriggerCancel, StateCancelled)

	machine := builder.Build(StateDraft)

	triggers := machine.PermittedTriggers()
	if len(triggers) != 2 {
		t.Fatalf("expected 2 permitted triggers, got %d", len(triggers))
	}

	seen := make(map[Trigger]bool)
	for _, tr := range triggers {
		seen[tr] = true
	}
	if !seen[TriggerSubmit] || !seen[TriggerCancel] {
		t.Errorf("expected SUBMIT and CANCEL, got %v", triggers)
	}

	// Terminal state has no configuration
	terminal := builder.Build(StateApproved)
	if got := terminal.PermittedTriggers(); len(got) != 0 {
		t.Errorf("expected no permitted triggers from APPROVED, got %v", got)
	}
}

func TestStateMachine_BuilderIsolation(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateDraft).
		Permit(TriggerSubmit, StatePending)

	machine := builder.Build(StateDraft)

	// Mutating the builder after Build must not affect the machine
	builder.Configure(StateDraft).
		Permit(TriggerCancel, StateCancelled)

	if machine.CanFire(TriggerCancel) {
		t.Error("machine should not see transitions added to the builder after Build")
	}
}

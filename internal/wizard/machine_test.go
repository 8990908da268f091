package wizard

import (
	"errors"
	"testing"
)

func TestMachine_AdvanceAndRetreat(t *testing.T) {
	m, err := NewMachine(FlowReturningPatient)
	if err != nil {
		t.Fatalf("new machine: %v", err)
	}
	if m.Current() != StepSessionDetails || !m.AtStart() {
		t.Fatalf("expected to start at session-details, got %q", m.Current())
	}
	if m.Retreat() {
		t.Fatalf("retreat at the first step must report exit")
	}

	want := []Step{StepSlotSelection, StepConfirmation, StepBookingConfirmed}
	for _, step := range want {
		if !m.Advance() {
			t.Fatalf("advance to %q failed", step)
		}
		if m.Current() != step {
			t.Fatalf("expected %q, got %q", step, m.Current())
		}
	}
	if !m.AtTerminal() {
		t.Fatalf("expected terminal step")
	}
	if m.Advance() {
		t.Fatalf("advance at the last step must be a no-op")
	}
	if m.Current() != StepBookingConfirmed {
		t.Fatalf("step moved past terminal: %q", m.Current())
	}
	if !m.Retreat() || m.Current() != StepConfirmation {
		t.Fatalf("expected retreat to confirmation, got %q", m.Current())
	}
}

func TestMachine_FlowsStartAndEnd(t *testing.T) {
	cases := map[Flow]Step{
		FlowNewPatient:       StepPatientDetails,
		FlowReturningPatient: StepSessionDetails,
		FlowStaffBooking:     StepPatientSelection,
	}
	for flow, first := range cases {
		steps, err := Steps(flow)
		if err != nil {
			t.Fatalf("%s: %v", flow, err)
		}
		if steps[0] != first {
			t.Errorf("%s: expected first step %q, got %q", flow, first, steps[0])
		}
		if steps[len(steps)-1] != StepBookingConfirmed {
			t.Errorf("%s: expected booking-confirmed last, got %q", flow, steps[len(steps)-1])
		}
	}
}

func TestMachine_UnknownFlowAndStep(t *testing.T) {
	if _, err := NewMachine("walk-in"); !errors.Is(err, ErrUnknownFlow) {
		t.Fatalf("expected ErrUnknownFlow, got %v", err)
	}
	if _, err := RestoreMachine(FlowReturningPatient, StepPatientDetails); !errors.Is(err, ErrUnknownStep) {
		t.Fatalf("expected ErrUnknownStep, got %v", err)
	}
	m, err := RestoreMachine(FlowStaffBooking, StepConfirmation)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if m.Index() != 3 || m.Len() != 5 {
		t.Fatalf("unexpected position %d/%d", m.Index(), m.Len())
	}
}

func TestSteps_ReturnsCopy(t *testing.T) {
	steps, _ := Steps(FlowNewPatient)
	steps[0] = StepConfirmation
	again, _ := Steps(FlowNewPatient)
	if again[0] != StepPatientDetails {
		t.Fatalf("flow definition was mutated through Steps")
	}
}

// Package wizard drives the multi-step booking flows: which step is showing,
// what has been collected so far, and when an appointment is actually created.
package wizard

import (
	"errors"
	"fmt"
)

// Step names one screen of a booking flow.
type Step string

const (
	StepPatientDetails   Step = "patient-details"
	StepPatientSelection Step = "patient-selection"
	StepSessionDetails   Step = "session-details"
	StepSlotSelection    Step = "slot-selection"
	StepConfirmation     Step = "confirmation"
	StepBookingConfirmed Step = "booking-confirmed"
)

// Flow names a booking variant with its own fixed step order.
type Flow string

const (
	FlowNewPatient       Flow = "new-patient"
	FlowReturningPatient Flow = "returning-patient"
	FlowStaffBooking     Flow = "staff-booking"
)

var (
	ErrUnknownFlow = errors.New("wizard: unknown flow")
	ErrUnknownStep = errors.New("wizard: step is not part of flow")
)

var flowSteps = map[Flow][]Step{
	FlowNewPatient:       {StepPatientDetails, StepSessionDetails, StepSlotSelection, StepConfirmation, StepBookingConfirmed},
	FlowReturningPatient: {StepSessionDetails, StepSlotSelection, StepConfirmation, StepBookingConfirmed},
	FlowStaffBooking:     {StepPatientSelection, StepSessionDetails, StepSlotSelection, StepConfirmation, StepBookingConfirmed},
}

// Steps returns a copy of the ordered steps of flow.
func Steps(flow Flow) ([]Step, error) {
	steps, ok := flowSteps[flow]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFlow, flow)
	}
	return append([]Step(nil), steps...), nil
}

// Machine tracks the current position within one flow. The zero value is not usable.
type Machine struct {
	flow  Flow
	steps []Step
	index int
}

// NewMachine starts flow at its first step.
func NewMachine(flow Flow) (*Machine, error) {
	steps, err := Steps(flow)
	if err != nil {
		return nil, err
	}
	return &Machine{flow: flow, steps: steps}, nil
}

// RestoreMachine positions a machine at a previously persisted step.
func RestoreMachine(flow Flow, step Step) (*Machine, error) {
	m, err := NewMachine(flow)
	if err != nil {
		return nil, err
	}
	for i, s := range m.steps {
		if s == step {
			m.index = i
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: %q in %q", ErrUnknownStep, step, flow)
}

func (m *Machine) Flow() Flow    { return m.flow }
func (m *Machine) Current() Step { return m.steps[m.index] }
func (m *Machine) Index() int    { return m.index }
func (m *Machine) Len() int      { return len(m.steps) }

// AtStart reports whether going back would leave the wizard.
func (m *Machine) AtStart() bool { return m.index == 0 }

// AtTerminal reports whether the confirmed screen is showing.
func (m *Machine) AtTerminal() bool { return m.index == len(m.steps)-1 }

// Advance moves to the next step. It is a no-op at the last step.
func (m *Machine) Advance() bool {
	if m.AtTerminal() {
		return false
	}
	m.index++
	return true
}

// Retreat moves to the previous step. At the first step it returns false and the
// caller is expected to exit the wizard.
func (m *Machine) Retreat() bool {
	if m.AtStart() {
		return false
	}
	m.index--
	return true
}

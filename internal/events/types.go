package events

import "time"

// Event is an analytics payload with a stable, versioned type name.
type Event interface {
	EventType() string
}

type WizardStartedV1 struct {
	SessionID string    `json:"session_id"`
	OrgID     string    `json:"org_id"`
	Flow      string    `json:"flow"`
	PatientID string    `json:"patient_id,omitempty"`
	CenterID  string    `json:"center_id,omitempty"`
	StartedAt time.Time `json:"started_at"`
}

func (WizardStartedV1) EventType() string { return "wizard.started.v1" }

type WizardStepCompletedV1 struct {
	SessionID   string    `json:"session_id"`
	OrgID       string    `json:"org_id"`
	Flow        string    `json:"flow"`
	Step        string    `json:"step"`
	NextStep    string    `json:"next_step"`
	CompletedAt time.Time `json:"completed_at"`
}

func (WizardStepCompletedV1) EventType() string { return "wizard.step_completed.v1" }

type WizardExitedV1 struct {
	SessionID string    `json:"session_id"`
	OrgID     string    `json:"org_id"`
	Flow      string    `json:"flow"`
	Step      string    `json:"step"`
	ExitedAt  time.Time `json:"exited_at"`
}

func (WizardExitedV1) EventType() string { return "wizard.exited.v1" }

type AvailabilityLoadedV1 struct {
	SessionID   string    `json:"session_id"`
	OrgID       string    `json:"org_id"`
	CenterID    string    `json:"center_id"`
	Date        string    `json:"date"`
	SlotCount   int       `json:"slot_count"`
	Failed      bool      `json:"failed"`
	Stale       bool      `json:"stale"`
	LoadedAt    time.Time `json:"loaded_at"`
	DurationMin int       `json:"duration_min"`
}

func (AvailabilityLoadedV1) EventType() string { return "availability.loaded.v1" }

type AppointmentBookedV1 struct {
	SessionID     string    `json:"session_id"`
	OrgID         string    `json:"org_id"`
	AppointmentID string    `json:"appointment_id"`
	PatientID     string    `json:"patient_id"`
	ConsultantID  string    `json:"consultant_id"`
	CenterID      string    `json:"center_id"`
	TreatmentID   string    `json:"treatment_id"`
	PriceCents    int64     `json:"price_cents"`
	StartTime     time.Time `json:"start_time"`
	BookedAt      time.Time `json:"booked_at"`
}

func (AppointmentBookedV1) EventType() string { return "appointment.booked.v1" }

type AppointmentFailedV1 struct {
	SessionID string    `json:"session_id"`
	OrgID     string    `json:"org_id"`
	Reason    string    `json:"reason"`
	FailedAt  time.Time `json:"failed_at"`
}

func (AppointmentFailedV1) EventType() string { return "appointment.failed.v1" }

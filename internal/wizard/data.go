package wizard

import "time"

// SelectedSlot is the time the patient picked, with every consultant able to take it.
type SelectedSlot struct {
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	DisplayTime   string    `json:"display_time"`
	ConsultantIDs []string  `json:"consultant_ids,omitempty"`
}

// IsZero reports whether no slot has been chosen.
func (s SelectedSlot) IsZero() bool { return s.StartTime.IsZero() }

// BookingData accumulates what each step collects.
type BookingData struct {
	PatientID           string       `json:"patient_id,omitempty"`
	CenterID            string       `json:"center_id,omitempty"`
	TreatmentID         string       `json:"treatment_id,omitempty"`
	TreatmentName       string       `json:"treatment_name,omitempty"`
	TreatmentDuration   int          `json:"treatment_duration,omitempty"` // minutes
	TreatmentPriceCents int64        `json:"treatment_price_cents"`
	Designation         string       `json:"designation,omitempty"`
	SelectedDate        string       `json:"selected_date,omitempty"`
	SelectedSlot        SelectedSlot `json:"selected_slot"`
	ConsultantID        string       `json:"consultant_id,omitempty"`
	AppointmentID       string       `json:"appointment_id,omitempty"`
}

// Patch carries the fields a step supplies. Nil fields are left alone by Merge.
type Patch struct {
	PatientID           *string
	CenterID            *string
	TreatmentID         *string
	TreatmentName       *string
	TreatmentDuration   *int
	TreatmentPriceCents *int64
	Designation         *string
	SelectedDate        *string
	SelectedSlot        *SelectedSlot
	ConsultantID        *string
	AppointmentID       *string
}

// Merge returns a copy of d with every supplied patch field applied.
func (d BookingData) Merge(p Patch) BookingData {
	out := d
	out.SelectedSlot.ConsultantIDs = append([]string(nil), d.SelectedSlot.ConsultantIDs...)
	setString(&out.PatientID, p.PatientID)
	setString(&out.CenterID, p.CenterID)
	setString(&out.TreatmentID, p.TreatmentID)
	setString(&out.TreatmentName, p.TreatmentName)
	setString(&out.Designation, p.Designation)
	setString(&out.SelectedDate, p.SelectedDate)
	setString(&out.ConsultantID, p.ConsultantID)
	setString(&out.AppointmentID, p.AppointmentID)
	if p.TreatmentDuration != nil {
		out.TreatmentDuration = *p.TreatmentDuration
	}
	if p.TreatmentPriceCents != nil {
		out.TreatmentPriceCents = *p.TreatmentPriceCents
	}
	if p.SelectedSlot != nil {
		out.SelectedSlot = *p.SelectedSlot
		out.SelectedSlot.ConsultantIDs = append([]string(nil), p.SelectedSlot.ConsultantIDs...)
	}
	return out
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// Handoff is what one route passes to the wizard it opens.
type Handoff struct {
	Flow      Flow   `json:"flow"`
	PatientID string `json:"patient_id,omitempty"`
	CenterID  string `json:"center_id,omitempty"`
}

// Package appointments persists booked treatment sessions.
package appointments

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrMissingOrgID      = errors.New("appointments: org id is required")
	ErrMissingPatient    = errors.New("appointments: patient id is required")
	ErrMissingConsultant = errors.New("appointments: consultant id is required")
	ErrMissingCenter     = errors.New("appointments: center id is required")
	ErrMissingTreatment  = errors.New("appointments: treatment id is required")
	ErrInvalidWindow     = errors.New("appointments: end must be after start")
	ErrInvalidPrice      = errors.New("appointments: price cannot be negative")

	// ErrSlotTaken is returned when the consultant already has an overlapping booking.
	ErrSlotTaken = errors.New("appointments: consultant already booked for that time")
	// ErrNotFound is returned when no appointment matches.
	ErrNotFound = errors.New("appointments: appointment not found")
)

// Status of an appointment.
type Status string

const (
	StatusBooked    Status = "booked"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// Appointment is a confirmed booking of a consultant for a patient.
type Appointment struct {
	ID           string    `json:"id"`
	OrgID        string    `json:"org_id"`
	CenterID     string    `json:"center_id"`
	PatientID    string    `json:"patient_id"`
	ConsultantID string    `json:"consultant_id"`
	TreatmentID  string    `json:"treatment_id"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Status       Status    `json:"status"`
	PriceCents   int64     `json:"price_cents"`
	BookingRef   string    `json:"booking_ref,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateRequest carries everything needed to book.
type CreateRequest struct {
	OrgID        string
	CenterID     string
	PatientID    string
	ConsultantID string
	TreatmentID  string
	StartTime    time.Time
	EndTime      time.Time
	PriceCents   int64
	// BookingRef makes Create idempotent: a second request with the same org and
	// ref returns the live appointment already booked under it.
	BookingRef   string
}

// Validate checks required fields.
func (r *CreateRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.OrgID) == "":
		return ErrMissingOrgID
	case strings.TrimSpace(r.PatientID) == "":
		return ErrMissingPatient
	case strings.TrimSpace(r.ConsultantID) == "":
		return ErrMissingConsultant
	case strings.TrimSpace(r.CenterID) == "":
		return ErrMissingCenter
	case strings.TrimSpace(r.TreatmentID) == "":
		return ErrMissingTreatment
	case !r.EndTime.After(r.StartTime):
		return ErrInvalidWindow
	case r.PriceCents < 0:
		return ErrInvalidPrice
	}
	return nil
}

package patients

import (
	"net/mail"
	"strings"
	"time"
)

// Status tracks where a patient is in the booking lifecycle.
type Status string

const (
	StatusNew      Status = "new"
	StatusActive   Status = "active"
	StatusBooked   Status = "booked"
	StatusInactive Status = "inactive"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusActive, StatusBooked, StatusInactive:
		return true
	}
	return false
}

// Patient is a person that can be booked for treatments
type Patient struct {
	ID          string    `json:"id"`
	OrgID       string    `json:"org_id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	DateOfBirth string    `json:"date_of_birth,omitempty"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FullName joins first and last name.
func (p *Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// CreatePatientRequest represents the request body for creating a patient
type CreatePatientRequest struct {
	OrgID       string `json:"-"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	DateOfBirth string `json:"date_of_birth"`
}

// Validate validates the create patient request
func (r *CreatePatientRequest) Validate() error {
	if strings.TrimSpace(r.OrgID) == "" {
		return ErrMissingOrgID
	}
	if strings.TrimSpace(r.FirstName) == "" || strings.TrimSpace(r.LastName) == "" {
		return ErrInvalidName
	}
	if strings.TrimSpace(r.Email) == "" && strings.TrimSpace(r.Phone) == "" {
		return ErrMissingContact
	}
	if r.Email != "" {
		if _, err := mail.ParseAddress(r.Email); err != nil {
			return ErrInvalidEmail
		}
	}
	if r.DateOfBirth != "" {
		if _, err := time.Parse("2006-01-02", r.DateOfBirth); err != nil {
			return ErrInvalidDateOfBirth
		}
	}
	return nil
}

// UpdatePatientRequest carries a partial update; nil fields are left unchanged.
type UpdatePatientRequest struct {
	FirstName   *string `json:"first_name,omitempty"`
	LastName    *string `json:"last_name,omitempty"`
	Email       *string `json:"email,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	DateOfBirth *string `json:"date_of_birth,omitempty"`
	Status      *Status `json:"status,omitempty"`
}

// Validate validates the supplied fields only
func (r *UpdatePatientRequest) Validate() error {
	if r.FirstName != nil && strings.TrimSpace(*r.FirstName) == "" {
		return ErrInvalidName
	}
	if r.LastName != nil && strings.TrimSpace(*r.LastName) == "" {
		return ErrInvalidName
	}
	if r.Email != nil && *r.Email != "" {
		if _, err := mail.ParseAddress(*r.Email); err != nil {
			return ErrInvalidEmail
		}
	}
	if r.DateOfBirth != nil && *r.DateOfBirth != "" {
		if _, err := time.Parse("2006-01-02", *r.DateOfBirth); err != nil {
			return ErrInvalidDateOfBirth
		}
	}
	if r.Status != nil && !r.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

func (r *UpdatePatientRequest) apply(p *Patient) {
	if r.FirstName != nil {
		p.FirstName = *r.FirstName
	}
	if r.LastName != nil {
		p.LastName = *r.LastName
	}
	if r.Email != nil {
		p.Email = *r.Email
	}
	if r.Phone != nil {
		p.Phone = *r.Phone
	}
	if r.DateOfBirth != nil {
		p.DateOfBirth = *r.DateOfBirth
	}
	if r.Status != nil {
		p.Status = *r.Status
	}
}

// ListFilter narrows patient listings.
type ListFilter struct {
	Status Status
	Search string
	Limit  int
	Offset int
}

package wizard

import (
	"context"
	"errors"
	"time"

	"github.com/wolfman30/carebook/internal/slots"
)

var (
	ErrSessionNotFound = errors.New("wizard: session not found")
	ErrMissingOrgID    = errors.New("wizard: org id is required")
)

// SlotView is the slot list currently shown on the slot-selection screen.
type SlotView struct {
	Date       string               `json:"date,omitempty"`
	Generation int64                `json:"generation"`
	Slots      []slots.BookableSlot `json:"slots"`
	Error      string               `json:"error,omitempty"`
}

// Session is one in-progress booking.
type Session struct {
	ID           string      `json:"id"`
	OrgID        string      `json:"org_id"`
	Flow         Flow        `json:"flow"`
	Step         Step        `json:"step"`
	Data         BookingData `json:"data"`
	Availability SlotView    `json:"availability"`
	LastError    string      `json:"last_error,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

func (s *Session) clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Data = s.Data.Merge(Patch{})
	out.Availability.Slots = cloneSlots(s.Availability.Slots)
	return &out
}

func cloneSlots(in []slots.BookableSlot) []slots.BookableSlot {
	if in == nil {
		return nil
	}
	out := make([]slots.BookableSlot, len(in))
	for i, s := range in {
		s.ConsultantIDs = append([]string(nil), s.ConsultantIDs...)
		s.ConsultantNames = append([]string(nil), s.ConsultantNames...)
		out[i] = s
	}
	return out
}

// machine restores the step sequencer for the session's flow.
func (s *Session) machine() (*Machine, error) {
	return RestoreMachine(s.Flow, s.Step)
}

// Store persists sessions, the slot view shown for them, and the submit guard.
type Store interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error

	// BeginAvailability starts a new slot load and returns its generation.
	BeginAvailability(ctx context.Context, id string) (int64, error)
	// ApplyAvailability stores view only if gen is still the latest generation.
	ApplyAvailability(ctx context.Context, id string, gen int64, view SlotView) (bool, error)

	AcquireSubmit(ctx context.Context, id string, ttl time.Duration) (bool, error)
	ReleaseSubmit(ctx context.Context, id string) error
}

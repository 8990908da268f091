package appointments

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for appointment storage
type Repository interface {
	Create(ctx context.Context, req *CreateRequest) (*Appointment, error)
	GetByID(ctx context.Context, orgID, id string) (*Appointment, error)
	Cancel(ctx context.Context, orgID, id string) error
}

// InMemoryRepository implements Repository using in-memory storage
type InMemoryRepository struct {
	mu           sync.Mutex
	appointments map[string]*Appointment
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{appointments: make(map[string]*Appointment)}
}

// Create books the slot unless the consultant already has an overlapping booking.
func (r *InMemoryRepository) Create(ctx context.Context, req *CreateRequest) (*Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if req.BookingRef != "" {
		for _, existing := range r.appointments {
			if existing.OrgID == req.OrgID && existing.BookingRef == req.BookingRef && existing.Status != StatusCancelled {
				clone := *existing
				return &clone, nil
			}
		}
	}

	for _, existing := range r.appointments {
		if existing.ConsultantID != req.ConsultantID || existing.Status == StatusCancelled {
			continue
		}
		if existing.StartTime.Before(req.EndTime) && existing.EndTime.After(req.StartTime) {
			return nil, ErrSlotTaken
		}
	}

	appt := &Appointment{
		ID:           uuid.New().String(),
		OrgID:        req.OrgID,
		CenterID:     req.CenterID,
		PatientID:    req.PatientID,
		ConsultantID: req.ConsultantID,
		TreatmentID:  req.TreatmentID,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Status:       StatusBooked,
		PriceCents:   req.PriceCents,
		BookingRef:   req.BookingRef,
		CreatedAt:    time.Now().UTC(),
	}
	r.appointments[appt.ID] = appt
	clone := *appt
	return &clone, nil
}

// GetByID retrieves an appointment scoped to the org
func (r *InMemoryRepository) GetByID(ctx context.Context, orgID, id string) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	appt, ok := r.appointments[id]
	if !ok || appt.OrgID != orgID {
		return nil, ErrNotFound
	}
	clone := *appt
	return &clone, nil
}

// Cancel frees the slot.
func (r *InMemoryRepository) Cancel(ctx context.Context, orgID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	appt, ok := r.appointments[id]
	if !ok || appt.OrgID != orgID {
		return ErrNotFound
	}
	appt.Status = StatusCancelled
	return nil
}

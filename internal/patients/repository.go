package patients

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for patient storage
type Repository interface {
	Create(ctx context.Context, req *CreatePatientRequest) (*Patient, error)
	GetByID(ctx context.Context, orgID, id string) (*Patient, error)
	List(ctx context.Context, orgID string, filter ListFilter) ([]*Patient, error)
	Update(ctx context.Context, orgID, id string, req *UpdatePatientRequest) (*Patient, error)
	UpdateStatus(ctx context.Context, orgID, id string, status Status) error
	Delete(ctx context.Context, orgID, id string) error
}

// InMemoryRepository implements Repository using in-memory storage
type InMemoryRepository struct {
	mu       sync.RWMutex
	patients map[string]*Patient
	now      func() time.Time
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		patients: make(map[string]*Patient),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create creates a new patient in memory
func (r *InMemoryRepository) Create(ctx context.Context, req *CreatePatientRequest) (*Patient, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := r.now()
	patient := &Patient{
		ID:          uuid.New().String(),
		OrgID:       req.OrgID,
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		Email:       strings.TrimSpace(req.Email),
		Phone:       strings.TrimSpace(req.Phone),
		DateOfBirth: req.DateOfBirth,
		Status:      StatusNew,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	r.mu.Lock()
	r.patients[patient.ID] = patient
	r.mu.Unlock()

	clone := *patient
	return &clone, nil
}

// GetByID retrieves a patient scoped to the org
func (r *InMemoryRepository) GetByID(ctx context.Context, orgID, id string) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	patient, ok := r.patients[id]
	if !ok || patient.OrgID != orgID {
		return nil, ErrPatientNotFound
	}
	clone := *patient
	return &clone, nil
}

// List returns the org's patients, newest first.
func (r *InMemoryRepository) List(ctx context.Context, orgID string, filter ListFilter) ([]*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	var out []*Patient
	for _, p := range r.patients {
		if p.OrgID != orgID {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.FullName()), search) &&
			!strings.Contains(strings.ToLower(p.Email), search) {
			continue
		}
		clone := *p
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if filter.Offset >= len(out) {
		return []*Patient{}, nil
	}
	out = out[filter.Offset:]
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Update applies a partial update.
func (r *InMemoryRepository) Update(ctx context.Context, orgID, id string, req *UpdatePatientRequest) (*Patient, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	patient, ok := r.patients[id]
	if !ok || patient.OrgID != orgID {
		return nil, ErrPatientNotFound
	}
	req.apply(patient)
	patient.UpdatedAt = r.now()
	clone := *patient
	return &clone, nil
}

// UpdateStatus sets only the lifecycle status.
func (r *InMemoryRepository) UpdateStatus(ctx context.Context, orgID, id string, status Status) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	patient, ok := r.patients[id]
	if !ok || patient.OrgID != orgID {
		return ErrPatientNotFound
	}
	patient.Status = status
	patient.UpdatedAt = r.now()
	return nil
}

// Delete removes a patient.
func (r *InMemoryRepository) Delete(ctx context.Context, orgID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	patient, ok := r.patients[id]
	if !ok || patient.OrgID != orgID {
		return ErrPatientNotFound
	}
	delete(r.patients, id)
	return nil
}

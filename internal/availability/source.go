package availability

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Source supplies the raw scheduling facts the aggregator combines.
// Consultants must be returned in a stable order; that order is kept in results.
type Source interface {
	Consultants(ctx context.Context, scope Scope, designation string) ([]Consultant, error)
	WorkingHours(ctx context.Context, consultantIDs []string) (map[string][]WorkingHours, error)
	// Busy returns booked appointments and unavailability blocks overlapping [from, to).
	Busy(ctx context.Context, consultantIDs []string, from, to time.Time) (map[string][]Interval, error)
}

// MemorySource is an in-process Source for development and tests.
type MemorySource struct {
	mu          sync.RWMutex
	consultants []Consultant
	hours       map[string][]WorkingHours
	busy        map[string][]Interval
}

// NewMemorySource creates an empty in-memory source.
func NewMemorySource() *MemorySource {
	return &MemorySource{
		hours: make(map[string][]WorkingHours),
		busy:  make(map[string][]Interval),
	}
}

// AddConsultant registers a consultant with its weekly hours.
func (m *MemorySource) AddConsultant(c Consultant, hours ...WorkingHours) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.consultants = append(m.consultants, c)
	m.hours[c.ID] = append(m.hours[c.ID], hours...)
}

// Block marks [start, end) as busy for the consultant.
func (m *MemorySource) Block(consultantID string, start, end time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.busy[consultantID] = append(m.busy[consultantID], Interval{Start: start, End: end})
}

func (m *MemorySource) Consultants(_ context.Context, scope Scope, designation string) ([]Consultant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Consultant
	for _, c := range m.consultants {
		if scope.CenterID != "" && c.CenterID != scope.CenterID {
			continue
		}
		if (scope.CenterID == "" || scope.OrgID != "") && c.OrgID != scope.OrgID {
			continue
		}
		if designation != "" && !strings.EqualFold(c.Designation, designation) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *MemorySource) WorkingHours(_ context.Context, consultantIDs []string) (map[string][]WorkingHours, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string][]WorkingHours, len(consultantIDs))
	for _, id := range consultantIDs {
		if hours := m.hours[id]; len(hours) > 0 {
			out[id] = append([]WorkingHours(nil), hours...)
		}
	}
	return out, nil
}

func (m *MemorySource) Busy(_ context.Context, consultantIDs []string, from, to time.Time) (map[string][]Interval, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	window := Interval{Start: from, End: to}
	out := make(map[string][]Interval, len(consultantIDs))
	for _, id := range consultantIDs {
		for _, iv := range m.busy[id] {
			if overlaps(iv, window) {
				out[id] = append(out[id], iv)
			}
		}
	}
	return out, nil
}

package wizard

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process. Used by tests and local runs without Redis.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	gens     map[string]int64
	locks    map[string]time.Time
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		gens:     make(map[string]int64),
		locks:    make(map[string]time.Time),
		now:      time.Now,
	}
}

func (m *MemoryStore) Create(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s.clone()
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s.clone(), nil
}

// Save replaces everything but the slot view, which only ApplyAvailability writes.
func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.sessions[s.ID]
	if !ok {
		return ErrSessionNotFound
	}
	next := s.clone()
	next.Availability = existing.Availability
	m.sessions[s.ID] = next
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	delete(m.gens, id)
	delete(m.locks, id)
	return nil
}

func (m *MemoryStore) BeginAvailability(_ context.Context, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return 0, ErrSessionNotFound
	}
	m.gens[id]++
	return m.gens[id], nil
}

func (m *MemoryStore) ApplyAvailability(_ context.Context, id string, gen int64, view SlotView) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return false, ErrSessionNotFound
	}
	if m.gens[id] != gen {
		return false, nil
	}
	view.Generation = gen
	view.Slots = cloneSlots(view.Slots)
	s.Availability = view
	return true, nil
}

func (m *MemoryStore) AcquireSubmit(_ context.Context, id string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if until, ok := m.locks[id]; ok && now.Before(until) {
		return false, nil
	}
	m.locks[id] = now.Add(ttl)
	return true, nil
}

func (m *MemoryStore) ReleaseSubmit(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, id)
	return nil
}

var _ Store = (*MemoryStore)(nil)

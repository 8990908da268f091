package slots

import (
	"errors"
	"math/rand/v2"
	"sync"
)

// ErrNoConsultant is returned when a slot has nobody to assign.
var ErrNoConsultant = errors.New("slots: slot has no consultant")

// Picker chooses the consultant an appointment is booked with.
type Picker interface {
	Pick(slot BookableSlot) (string, error)
}

// PickerFunc adapts a function, e.g. a load-based ranking, to Picker.
type PickerFunc func(slot BookableSlot) (string, error)

func (f PickerFunc) Pick(slot BookableSlot) (string, error) { return f(slot) }

// RandomPicker picks uniformly among the slot's consultants.
type RandomPicker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomPicker uses rng when given, otherwise a randomly seeded source.
func NewRandomPicker(rng *rand.Rand) *RandomPicker {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &RandomPicker{rng: rng}
}

func (p *RandomPicker) Pick(slot BookableSlot) (string, error) {
	if len(slot.ConsultantIDs) == 0 {
		return "", ErrNoConsultant
	}
	p.mu.Lock()
	i := p.rng.IntN(len(slot.ConsultantIDs))
	p.mu.Unlock()
	if slot.ConsultantIDs[i] == "" {
		return "", ErrNoConsultant
	}
	return slot.ConsultantIDs[i], nil
}

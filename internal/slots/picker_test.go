package slots

import (
	"errors"
	"math/rand/v2"
	"testing"
)

func TestRandomPicker_AlwaysReturnsMember(t *testing.T) {
	p := NewRandomPicker(rand.New(rand.NewPCG(1, 2)))
	slot := BookableSlot{ConsultantIDs: []string{"a", "b", "c"}}
	seen := map[string]int{}
	for i := 0; i < 300; i++ {
		id, err := p.Pick(slot)
		if err != nil {
			t.Fatalf("pick: %v", err)
		}
		if !slot.HasConsultant(id) {
			t.Fatalf("picked %q which is not in the slot", id)
		}
		seen[id]++
	}
	if len(seen) != 3 {
		t.Fatalf("expected every consultant to be picked at some point, got %v", seen)
	}
}

func TestRandomPicker_SingleConsultant(t *testing.T) {
	id, err := NewRandomPicker(nil).Pick(BookableSlot{ConsultantIDs: []string{"only"}})
	if err != nil || id != "only" {
		t.Fatalf("expected only, got %q %v", id, err)
	}
}

func TestRandomPicker_EmptySlot(t *testing.T) {
	if _, err := NewRandomPicker(nil).Pick(BookableSlot{}); !errors.Is(err, ErrNoConsultant) {
		t.Fatalf("expected ErrNoConsultant, got %v", err)
	}
}

func TestPickerFunc(t *testing.T) {
	var p Picker = PickerFunc(func(s BookableSlot) (string, error) { return s.ConsultantIDs[len(s.ConsultantIDs)-1], nil })
	id, _ := p.Pick(BookableSlot{ConsultantIDs: []string{"a", "z"}})
	if id != "z" {
		t.Fatalf("expected z, got %s", id)
	}
}

// Package slots merges per-consultant availability into the patient-facing list
// of bookable start times and picks a consultant when a slot is committed.
package slots

import (
	"sort"
	"strings"
	"time"

	"github.com/wolfman30/carebook/internal/availability"
)

const keyLayout = "2006-01-02T15:04"

// BookableSlot is one selectable start time, possibly served by several consultants.
type BookableSlot struct {
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DisplayTime     string    `json:"display_time"`
	ConsultantIDs   []string  `json:"consultant_ids"`
	ConsultantNames []string  `json:"consultant_names"`
}

// HasConsultant reports whether the consultant can take the slot.
func (s BookableSlot) HasConsultant(id string) bool {
	for _, c := range s.ConsultantIDs {
		if c == id {
			return true
		}
	}
	return false
}

// FormatDisplayTime renders a window as "10:00 AM - 10:20 AM" in loc.
func FormatDisplayTime(start, end time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return start.In(loc).Format("3:04 PM") + " - " + end.In(loc).Format("3:04 PM")
}

// Group folds every consultant's windows into one slot per start minute.
// The first window seen for a minute fixes the slot's start and end.
// Windows from consultants without an id are dropped; empty names are not listed.
func Group(avail []availability.ConsultantAvailability, loc *time.Location) []BookableSlot {
	if loc == nil {
		loc = time.UTC
	}
	byKey := make(map[string]*BookableSlot)
	for _, ca := range avail {
		id := strings.TrimSpace(ca.ConsultantID)
		if id == "" {
			continue
		}
		name := strings.TrimSpace(ca.ConsultantName)
		for _, w := range ca.AvailableSlots {
			key := w.Start.In(loc).Format(keyLayout)
			slot, ok := byKey[key]
			if !ok {
				slot = &BookableSlot{
					StartTime:       w.Start,
					EndTime:         w.End,
					DisplayTime:     FormatDisplayTime(w.Start, w.End, loc),
					ConsultantIDs:   []string{},
					ConsultantNames: []string{},
				}
				byKey[key] = slot
			}
			if slot.HasConsultant(id) {
				continue
			}
			slot.ConsultantIDs = append(slot.ConsultantIDs, id)
			if name != "" {
				slot.ConsultantNames = append(slot.ConsultantNames, name)
			}
		}
	}

	out := make([]BookableSlot, 0, len(byKey))
	for _, slot := range byKey {
		out = append(out, *slot)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

// Find returns the displayed slot starting in the same minute as start.
func Find(list []BookableSlot, start time.Time) (BookableSlot, bool) {
	want := start.UTC().Truncate(time.Minute)
	for _, s := range list {
		if s.StartTime.UTC().Truncate(time.Minute).Equal(want) {
			return s, true
		}
	}
	return BookableSlot{}, false
}

// Package availability computes, per consultant, the time windows in which a
// treatment of a given length can still be booked.
package availability

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrInvalidDuration is returned when the requested service duration is not positive.
	ErrInvalidDuration = errors.New("availability: service duration must be positive")
	// ErrMissingScope is returned when neither a center nor an org is given.
	ErrMissingScope = errors.New("availability: center or org scope required")
	// ErrInvalidRange is returned when the query range is empty or inverted.
	ErrInvalidRange = errors.New("availability: end must be after start")
)

// Scope selects the consultants considered by a query. CenterID wins when both are set.
type Scope struct {
	CenterID string `json:"center_id,omitempty"`
	OrgID    string `json:"org_id,omitempty"`
}

// Kind reports "center" or "org" for logs and metrics.
func (s Scope) Kind() string {
	if strings.TrimSpace(s.CenterID) != "" {
		return "center"
	}
	return "org"
}

// IsZero reports whether no scope identifier was provided.
func (s Scope) IsZero() bool {
	return strings.TrimSpace(s.CenterID) == "" && strings.TrimSpace(s.OrgID) == ""
}

// Request describes one availability query.
type Request struct {
	Scope           Scope
	Start           time.Time
	End             time.Time
	ServiceDuration int // minutes
	Designation     string
}

// Validate fails fast on inputs that can never produce availability.
func (r Request) Validate() error {
	if r.ServiceDuration <= 0 {
		return ErrInvalidDuration
	}
	if r.Scope.IsZero() {
		return ErrMissingScope
	}
	if !r.End.After(r.Start) {
		return ErrInvalidRange
	}
	return nil
}

func (r Request) duration() time.Duration {
	return time.Duration(r.ServiceDuration) * time.Minute
}

// TimeWindow is a half-open [Start, End) bookable interval.
type TimeWindow struct {
	Start time.Time `json:"start_time"`
	End   time.Time `json:"end_time"`
}

// ConsultantAvailability lists the bookable windows of one consultant.
type ConsultantAvailability struct {
	ConsultantID   string       `json:"consultant_id"`
	ConsultantName string       `json:"consultant_name"`
	Designation    string       `json:"designation,omitempty"`
	AvailableSlots []TimeWindow `json:"available_slots"`
}

// Consultant is a practitioner that can be booked.
type Consultant struct {
	ID          string
	OrgID       string
	CenterID    string
	Name        string
	Designation string
	// SlotGranularity is the step in minutes between candidate start times.
	// Zero means windows are laid back to back.
	SlotGranularity int
}

// WorkingHours is a recurring weekly shift in the center's local time.
type WorkingHours struct {
	Weekday    time.Weekday
	Start      string // HH:MM
	End        string // HH:MM
	BreakStart string // optional HH:MM
	BreakEnd   string // optional HH:MM
}

// Interval is a half-open [Start, End) span of absolute time.
type Interval struct {
	Start time.Time
	End   time.Time
}

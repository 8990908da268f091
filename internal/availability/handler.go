package availability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/wolfman30/carebook/internal/tenancy"
	"github.com/wolfman30/carebook/pkg/logging"
)

// ErrInvalidDate is returned when a calendar date cannot be parsed.
var ErrInvalidDate = errors.New("availability: date must be YYYY-MM-DD")

// DayRange returns [local midnight, next local midnight) for a YYYY-MM-DD date,
// extended by days-1 additional days.
func DayRange(date string, days int, loc *time.Location) (time.Time, time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	day, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(date), loc)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidDate
	}
	if days < 1 {
		days = 1
	}
	return day, day.AddDate(0, 0, days), nil
}

// IsValidation reports whether err is an input error the caller can fix.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidDuration) ||
		errors.Is(err, ErrMissingScope) ||
		errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrInvalidDate)
}

// Query is the shape of GET /availability parameters after parsing.
type Query struct {
	Request
	Location *time.Location
}

// Locator resolves the timezone a scope is scheduled in.
type Locator interface {
	Location(ctx context.Context, scope Scope) *time.Location
}

// ParseQuery reads center_id, date, days, duration and designation. The org scope
// comes from the tenancy context.
func ParseQuery(r *http.Request, locator Locator) (Query, error) {
	q := r.URL.Query()
	scope := Scope{CenterID: strings.TrimSpace(q.Get("center_id"))}
	if orgID, ok := tenancy.OrgIDFromContext(r.Context()); ok {
		scope.OrgID = orgID
	}

	duration, err := strconv.Atoi(q.Get("duration"))
	if err != nil {
		return Query{}, ErrInvalidDuration
	}
	days := 1
	if raw := q.Get("days"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 31 {
			days = n
		}
	}

	req := Request{Scope: scope, ServiceDuration: duration, Designation: strings.TrimSpace(q.Get("designation"))}
	if err := req.Validate(); err != nil && !errors.Is(err, ErrInvalidRange) {
		return Query{}, err
	}

	loc := locator.Location(r.Context(), scope)
	start, end, err := DayRange(q.Get("date"), days, loc)
	if err != nil {
		return Query{}, err
	}
	req.Start, req.End = start, end
	return Query{Request: req, Location: loc}, nil
}

// Handler serves raw per-consultant availability.
type Handler struct {
	aggregator *Aggregator
	logger     *logging.Logger
}

// NewHandler creates a new availability handler
func NewHandler(aggregator *Aggregator, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{aggregator: aggregator, logger: logger}
}

// AvailabilityResponse is returned by GET /availability.
type AvailabilityResponse struct {
	Timezone    string                   `json:"timezone"`
	Start       time.Time                `json:"start"`
	End         time.Time                `json:"end"`
	Consultants []ConsultantAvailability `json:"consultants"`
}

// GetAvailability handles GET /availability requests
func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	query, err := ParseQuery(r, h.aggregator)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.aggregator.Aggregate(r.Context(), query.Request)
	if err != nil {
		if IsValidation(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to aggregate availability", "error", err, "center_id", query.Scope.CenterID)
		http.Error(w, "availability temporarily unavailable", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(AvailabilityResponse{
		Timezone:    query.Location.String(),
		Start:       query.Start,
		End:         query.End,
		Consultants: result,
	})
}

package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/carebook/internal/centers"
	"github.com/wolfman30/carebook/internal/observability/metrics"
	"github.com/wolfman30/carebook/pkg/logging"
)

var availabilityTracer = otel.Tracer("carebook.internal.availability")

// CenterLookup resolves center profiles for timezone and opening hours.
type CenterLookup interface {
	Get(ctx context.Context, centerID string) (*centers.Center, error)
}

// Aggregator turns schedules and existing bookings into bookable windows.
type Aggregator struct {
	source      Source
	centers     CenterLookup
	defaultLoc  *time.Location
	granularity int
	logger      *logging.Logger
	metrics     *metrics.BookingMetrics
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithCenters enables center timezone and opening-hours lookup.
func WithCenters(lookup CenterLookup) Option {
	return func(a *Aggregator) { a.centers = lookup }
}

// WithDefaultLocation sets the timezone used when no center profile applies.
func WithDefaultLocation(loc *time.Location) Option {
	return func(a *Aggregator) {
		if loc != nil {
			a.defaultLoc = loc
		}
	}
}

// WithDefaultGranularity sets the grid step for consultants without their own.
func WithDefaultGranularity(minutes int) Option {
	return func(a *Aggregator) {
		if minutes >= 0 {
			a.granularity = minutes
		}
	}
}

func WithLogger(logger *logging.Logger) Option {
	return func(a *Aggregator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

func WithMetrics(m *metrics.BookingMetrics) Option {
	return func(a *Aggregator) { a.metrics = m }
}

// NewAggregator constructs an aggregator over the given source.
func NewAggregator(source Source, opts ...Option) *Aggregator {
	if source == nil {
		panic("availability: source required")
	}
	a := &Aggregator{
		source:     source,
		defaultLoc: time.UTC,
		logger:     logging.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Location returns the timezone availability is computed in for the scope.
func (a *Aggregator) Location(ctx context.Context, scope Scope) *time.Location {
	center := a.center(ctx, scope)
	if center != nil && center.Timezone != "" {
		return center.Location()
	}
	return a.defaultLoc
}

func (a *Aggregator) center(ctx context.Context, scope Scope) *centers.Center {
	if a.centers == nil || scope.CenterID == "" {
		return nil
	}
	c, err := a.centers.Get(ctx, scope.CenterID)
	if err != nil {
		if !errors.Is(err, centers.ErrNotFound) {
			a.logger.Warn("center lookup failed", "center_id", scope.CenterID, "error", err)
		}
		return nil
	}
	if scope.OrgID != "" && c.OrgID != "" && c.OrgID != scope.OrgID {
		return nil
	}
	return c
}

// Aggregate returns one entry per matching consultant, in source order, each
// holding chronologically ordered windows exactly ServiceDuration long.
func (a *Aggregator) Aggregate(ctx context.Context, req Request) ([]ConsultantAvailability, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, span := availabilityTracer.Start(ctx, "availability.aggregate")
	defer span.End()
	span.SetAttributes(
		attribute.String("carebook.scope", req.Scope.Kind()),
		attribute.String("carebook.center_id", req.Scope.CenterID),
		attribute.String("carebook.org_id", req.Scope.OrgID),
		attribute.Int("carebook.service_duration", req.ServiceDuration),
	)

	started := time.Now()
	out, err := a.aggregate(ctx, req)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		span.RecordError(err)
	} else if len(out) == 0 {
		outcome = "empty"
	}
	a.metrics.ObserveAvailability(req.Scope.Kind(), outcome, time.Since(started).Seconds())
	return out, err
}

func (a *Aggregator) aggregate(ctx context.Context, req Request) ([]ConsultantAvailability, error) {
	center := a.center(ctx, req.Scope)
	loc := a.defaultLoc
	if center != nil && center.Timezone != "" {
		loc = center.Location()
	}
	if center != nil && !center.Offers(req.Designation) {
		return []ConsultantAvailability{}, nil
	}

	consultants, err := a.source.Consultants(ctx, req.Scope, req.Designation)
	if err != nil {
		return nil, fmt.Errorf("availability: load consultants: %w", err)
	}
	if len(consultants) == 0 {
		return []ConsultantAvailability{}, nil
	}

	ids := make([]string, len(consultants))
	for i, c := range consultants {
		ids[i] = c.ID
	}
	hours, err := a.source.WorkingHours(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("availability: load working hours: %w", err)
	}
	busy, err := a.source.Busy(ctx, ids, req.Start, req.End)
	if err != nil {
		return nil, fmt.Errorf("availability: load busy intervals: %w", err)
	}

	var fallback []WorkingHours
	if center != nil {
		fallback = hoursFromCenter(center.BusinessHours)
	}

	out := make([]ConsultantAvailability, 0, len(consultants))
	for _, c := range consultants {
		weekly := hours[c.ID]
		if len(weekly) == 0 {
			weekly = fallback
		}
		shifts := workingIntervals(weekly, req.Start, req.End, loc)
		free := subtract(shiftIntervals(shifts), busy[c.ID])

		step := c.SlotGranularity
		if step <= 0 {
			step = a.granularity
		}
		windows := sliceWindows(free, shifts, req.duration(), time.Duration(step)*time.Minute)
		if windows == nil {
			windows = []TimeWindow{}
		}
		out = append(out, ConsultantAvailability{
			ConsultantID:   c.ID,
			ConsultantName: c.Name,
			Designation:    c.Designation,
			AvailableSlots: windows,
		})
	}

	a.logger.Debug("availability aggregated",
		"scope", req.Scope.Kind(),
		"center_id", req.Scope.CenterID,
		"org_id", req.Scope.OrgID,
		"consultants", len(out),
	)
	return out, nil
}

// hoursFromCenter maps center opening hours onto a weekly schedule.
func hoursFromCenter(b centers.BusinessHours) []WorkingHours {
	var out []WorkingHours
	for d := time.Sunday; d <= time.Saturday; d++ {
		if h := b.ForDay(d); h != nil {
			out = append(out, WorkingHours{Weekday: d, Start: h.Open, End: h.Close})
		}
	}
	return out
}

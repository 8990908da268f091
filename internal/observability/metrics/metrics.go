package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for availability and wizard flows.
type BookingMetrics struct {
	availabilityTotal   *prometheus.CounterVec
	availabilityLatency *prometheus.HistogramVec
	slotsReturned       prometheus.Histogram
	stepTransitions     *prometheus.CounterVec
	appointmentsTotal   *prometheus.CounterVec
	sideEffectFailures  *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		availabilityTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carebook",
			Subsystem: "availability",
			Name:      "queries_total",
			Help:      "Total availability aggregations by scope and outcome",
		}, []string{"scope", "outcome"}),
		availabilityLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "carebook",
			Subsystem: "availability",
			Name:      "query_latency_seconds",
			Help:      "Latency of availability aggregation",
			Buckets:   prometheus.DefBuckets,
		}, []string{"scope"}),
		slotsReturned: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "carebook",
			Subsystem: "availability",
			Name:      "bookable_slots",
			Help:      "Number of grouped bookable slots shown per load",
			Buckets:   []float64{0, 1, 5, 10, 20, 40, 80},
		}),
		stepTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carebook",
			Subsystem: "wizard",
			Name:      "step_transitions_total",
			Help:      "Wizard step transitions by flow, step left and direction",
		}, []string{"flow", "step", "direction"}),
		appointmentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carebook",
			Subsystem: "wizard",
			Name:      "appointments_total",
			Help:      "Appointment creation attempts from the wizard by outcome",
		}, []string{"outcome"}),
		sideEffectFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carebook",
			Subsystem: "wizard",
			Name:      "side_effect_failures_total",
			Help:      "Best-effort post-booking actions that failed",
		}, []string{"kind"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.availabilityTotal,
		m.availabilityLatency,
		m.slotsReturned,
		m.stepTransitions,
		m.appointmentsTotal,
		m.sideEffectFailures,
	)
	return m
}

func (m *BookingMetrics) ObserveAvailability(scope, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.availabilityTotal.WithLabelValues(scope, outcome).Inc()
	m.availabilityLatency.WithLabelValues(scope).Observe(seconds)
}

func (m *BookingMetrics) ObserveSlots(count int) {
	if m == nil {
		return
	}
	m.slotsReturned.Observe(float64(count))
}

func (m *BookingMetrics) ObserveTransition(flow, step, direction string) {
	if m == nil {
		return
	}
	m.stepTransitions.WithLabelValues(flow, step, direction).Inc()
}

func (m *BookingMetrics) ObserveAppointment(outcome string) {
	if m == nil {
		return
	}
	m.appointmentsTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveSideEffectFailure(kind string) {
	if m == nil {
		return
	}
	m.sideEffectFailures.WithLabelValues(kind).Inc()
}

package slots

import (
	"encoding/json"
	"net/http"

	"github.com/wolfman30/carebook/internal/availability"
	"github.com/wolfman30/carebook/internal/observability/metrics"
	"github.com/wolfman30/carebook/pkg/logging"
)

// Handler serves the grouped, patient-facing slot list.
type Handler struct {
	aggregator *availability.Aggregator
	metrics    *metrics.BookingMetrics
	logger     *logging.Logger
}

// NewHandler creates a new slots handler
func NewHandler(aggregator *availability.Aggregator, m *metrics.BookingMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{aggregator: aggregator, metrics: m, logger: logger}
}

// SlotsResponse is returned by GET /slots.
type SlotsResponse struct {
	Timezone string         `json:"timezone"`
	Slots    []BookableSlot `json:"slots"`
	Count    int            `json:"count"`
}

// ListSlots handles GET /slots requests
func (h *Handler) ListSlots(w http.ResponseWriter, r *http.Request) {
	query, err := availability.ParseQuery(r, h.aggregator)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	avail, err := h.aggregator.Aggregate(r.Context(), query.Request)
	if err != nil {
		if availability.IsValidation(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to load slots", "error", err, "center_id", query.Scope.CenterID)
		http.Error(w, "availability temporarily unavailable", http.StatusBadGateway)
		return
	}

	grouped := Group(avail, query.Location)
	h.metrics.ObserveSlots(len(grouped))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SlotsResponse{
		Timezone: query.Location.String(),
		Slots:    grouped,
		Count:    len(grouped),
	})
}

package wizard

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/carebook/internal/availability"
	"github.com/wolfman30/carebook/internal/patients"
	"github.com/wolfman30/carebook/internal/tenancy"
	"github.com/wolfman30/carebook/pkg/logging"
)

// Handler exposes booking sessions over HTTP.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Routes mounts the session endpoints on r, typically under /wizard/sessions.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.StartSession)
	r.Get("/{sessionID}", h.GetSession)
	r.Delete("/{sessionID}", h.AbandonSession)
	r.Post("/{sessionID}/steps/{step}", h.CompleteStep)
	r.Post("/{sessionID}/back", h.Back)
	r.Post("/{sessionID}/availability", h.LoadAvailability)
	r.Post("/{sessionID}/confirm", h.Confirm)
}

// StartSession handles POST /wizard/sessions
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}
	var handoff Handoff
	if err := json.NewDecoder(r.Body).Decode(&handoff); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	sess, err := h.service.Start(r.Context(), orgID, handoff)
	if err != nil {
		h.writeError(w, err, "failed to start booking")
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

// GetSession handles GET /wizard/sessions/{sessionID}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	orgID, _ := tenancy.OrgIDFromContext(r.Context())
	sess, err := h.service.Get(r.Context(), orgID, chi.URLParam(r, "sessionID"))
	if err != nil {
		h.writeError(w, err, "failed to load booking")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// AbandonSession handles DELETE /wizard/sessions/{sessionID}
func (h *Handler) AbandonSession(w http.ResponseWriter, r *http.Request) {
	orgID, _ := tenancy.OrgIDFromContext(r.Context())
	if err := h.service.Abandon(r.Context(), orgID, chi.URLParam(r, "sessionID")); err != nil {
		h.writeError(w, err, "failed to abandon booking")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CompleteStep handles POST /wizard/sessions/{sessionID}/steps/{step}
func (h *Handler) CompleteStep(w http.ResponseWriter, r *http.Request) {
	orgID, _ := tenancy.OrgIDFromContext(r.Context())
	var in StepInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	sess, err := h.service.Complete(r.Context(), orgID, chi.URLParam(r, "sessionID"), Step(chi.URLParam(r, "step")), in)
	if err != nil {
		h.writeSessionError(w, sess, err, "failed to complete step")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// BackResponse reports where the session went. Exited means the wizard was left.
type BackResponse struct {
	Session *Session `json:"session,omitempty"`
	Exited  bool     `json:"exited"`
}

// Back handles POST /wizard/sessions/{sessionID}/back
func (h *Handler) Back(w http.ResponseWriter, r *http.Request) {
	orgID, _ := tenancy.OrgIDFromContext(r.Context())
	sess, exited, err := h.service.Back(r.Context(), orgID, chi.URLParam(r, "sessionID"))
	if err != nil {
		h.writeError(w, err, "failed to go back")
		return
	}
	writeJSON(w, http.StatusOK, BackResponse{Session: sess, Exited: exited})
}

type loadAvailabilityRequest struct {
	Date string `json:"date"`
}

// LoadAvailability handles POST /wizard/sessions/{sessionID}/availability
func (h *Handler) LoadAvailability(w http.ResponseWriter, r *http.Request) {
	orgID, _ := tenancy.OrgIDFromContext(r.Context())
	var req loadAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	result, err := h.service.LoadAvailability(r.Context(), orgID, chi.URLParam(r, "sessionID"), req.Date)
	if err != nil {
		h.writeError(w, err, "failed to load availability")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Confirm handles POST /wizard/sessions/{sessionID}/confirm
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	orgID, _ := tenancy.OrgIDFromContext(r.Context())
	sess, err := h.service.Confirm(r.Context(), orgID, chi.URLParam(r, "sessionID"))
	if err != nil {
		h.writeSessionError(w, sess, err, "failed to confirm booking")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// writeSessionError answers a failed booking with 502 and the session, so the
// client can show LastError and retry from the confirmation step.
func (h *Handler) writeSessionError(w http.ResponseWriter, sess *Session, err error, msg string) {
	if sess != nil && errors.Is(err, ErrAppointmentNotCreated) {
		h.logger.Warn(msg, "error", err, "session_id", sess.ID)
		writeJSON(w, http.StatusBadGateway, sess)
		return
	}
	h.writeError(w, err, msg)
}

func (h *Handler) writeError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, patients.ErrPatientNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrSubmitInFlight),
		errors.Is(err, ErrStepMismatch),
		errors.Is(err, ErrWizardComplete),
		errors.Is(err, ErrBackDisabled),
		errors.Is(err, ErrNotConfirmable):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrAppointmentNotCreated):
		h.logger.Warn(msg, "error", err)
		http.Error(w, ErrAppointmentNotCreated.Error(), http.StatusBadGateway)
	case isValidation(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error(msg, "error", err)
		http.Error(w, msg, http.StatusInternalServerError)
	}
}

func isValidation(err error) bool {
	for _, target := range []error{
		ErrMissingOrgID, ErrUnknownFlow, ErrUnknownStep, ErrMissingPatientDetails, ErrMissingPatient,
		ErrMissingCenter, ErrCenterNotInOrg, ErrMissingTreatment, ErrInvalidDuration, ErrInvalidPrice,
		ErrMissingSlot, ErrSlotUnavailable, ErrSessionDetailsRequired,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return patients.IsValidation(err) || availability.IsValidation(err)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

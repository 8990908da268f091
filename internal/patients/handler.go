package patients

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/carebook/internal/tenancy"
	"github.com/wolfman30/carebook/pkg/logging"
)

// Handler handles HTTP requests for patient management
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new patients handler
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

// Routes mounts the patient endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.CreatePatient)
	r.Get("/", h.ListPatients)
	r.Get("/{patientID}", h.GetPatient)
	r.Put("/{patientID}", h.UpdatePatient)
	r.Delete("/{patientID}", h.DeletePatient)
}

// CreatePatient handles POST /patients requests
func (h *Handler) CreatePatient(w http.ResponseWriter, r *http.Request) {
	var req CreatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}
	req.OrgID = orgID

	patient, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		h.writeError(w, err, "failed to create patient")
		return
	}

	h.logger.Info("patient created", "id", patient.ID, "org_id", orgID)
	writeJSON(w, http.StatusCreated, patient)
}

// ListPatientsResponse is the response for listing patients
type ListPatientsResponse struct {
	Patients []*Patient `json:"patients"`
	Count    int        `json:"count"`
	Offset   int        `json:"offset"`
	Limit    int        `json:"limit"`
}

// ListPatients handles GET /patients requests
func (h *Handler) ListPatients(w http.ResponseWriter, r *http.Request) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}

	filter := ListFilter{
		Limit:  50,
		Offset: 0,
		Search: r.URL.Query().Get("q"),
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 && limit <= 100 {
			filter.Limit = limit
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filter.Offset = offset
		}
	}
	if status := Status(r.URL.Query().Get("status")); status != "" {
		if !status.Valid() {
			http.Error(w, ErrInvalidStatus.Error(), http.StatusBadRequest)
			return
		}
		filter.Status = status
	}

	list, err := h.repo.List(r.Context(), orgID, filter)
	if err != nil {
		h.logger.Error("failed to list patients", "error", err, "org_id", orgID)
		http.Error(w, "failed to list patients", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, ListPatientsResponse{
		Patients: list,
		Count:    len(list),
		Offset:   filter.Offset,
		Limit:    filter.Limit,
	})
}

// GetPatient handles GET /patients/{patientID} requests
func (h *Handler) GetPatient(w http.ResponseWriter, r *http.Request) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}
	patient, err := h.repo.GetByID(r.Context(), orgID, chi.URLParam(r, "patientID"))
	if err != nil {
		h.writeError(w, err, "failed to load patient")
		return
	}
	writeJSON(w, http.StatusOK, patient)
}

// UpdatePatient handles PUT /patients/{patientID} requests
func (h *Handler) UpdatePatient(w http.ResponseWriter, r *http.Request) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}
	var req UpdatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	patient, err := h.repo.Update(r.Context(), orgID, chi.URLParam(r, "patientID"), &req)
	if err != nil {
		h.writeError(w, err, "failed to update patient")
		return
	}
	h.logger.Info("patient updated", "id", patient.ID, "org_id", orgID)
	writeJSON(w, http.StatusOK, patient)
}

// DeletePatient handles DELETE /patients/{patientID} requests
func (h *Handler) DeletePatient(w http.ResponseWriter, r *http.Request) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}
	id := chi.URLParam(r, "patientID")
	if err := h.repo.Delete(r.Context(), orgID, id); err != nil {
		h.writeError(w, err, "failed to delete patient")
		return
	}
	h.logger.Info("patient deleted", "id", id, "org_id", orgID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(w http.ResponseWriter, err error, msg string) {
	switch {
	case IsValidation(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrPatientNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		h.logger.Error(msg, "error", err)
		http.Error(w, msg, http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

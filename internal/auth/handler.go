package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/wolfman30/carebook/pkg/logging"
)

// Handler serves staff sign-in.
type Handler struct {
	store  StaffStore
	issuer *Issuer
	logger *logging.Logger
}

func NewHandler(store StaffStore, issuer *Issuer, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, issuer: issuer, logger: logger}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Staff     *Staff    `json:"staff"`
}

// Login handles POST /auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		http.Error(w, "email and password are required", http.StatusBadRequest)
		return
	}

	staff, err := h.store.GetByEmail(r.Context(), req.Email)
	if err != nil && !errors.Is(err, ErrStaffNotFound) {
		h.logger.Error("failed to load staff", "error", err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}
	if staff == nil || !CheckPassword(staff.PasswordHash, req.Password) {
		h.logger.Warn("staff login rejected", "email", normalizeEmail(req.Email))
		http.Error(w, ErrInvalidCredentials.Error(), http.StatusUnauthorized)
		return
	}

	token, expires, err := h.issuer.MakeToken(staff)
	if err != nil {
		h.logger.Error("failed to sign staff token", "error", err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}
	h.logger.Info("staff signed in", "staff_id", staff.ID, "org_id", staff.OrgID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(LoginResponse{Token: token, ExpiresAt: expires, Staff: staff})
}

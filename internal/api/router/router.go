package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/carebook/internal/auth"
	"github.com/wolfman30/carebook/internal/availability"
	httpmiddleware "github.com/wolfman30/carebook/internal/http/middleware"
	"github.com/wolfman30/carebook/internal/patients"
	"github.com/wolfman30/carebook/internal/slots"
	"github.com/wolfman30/carebook/internal/wizard"
	"github.com/wolfman30/carebook/pkg/logging"
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	AvailabilityHandler *availability.Handler
	SlotsHandler        *slots.Handler
	WizardHandler       *wizard.Handler
	PatientsHandler     *patients.Handler
	AuthHandler         *auth.Handler
	StaffTokens         httpmiddleware.TokenParser
	MetricsHandler      http.Handler
	CORSAllowedOrigins  []string
	RateLimiter         *httpmiddleware.RateLimiter
	HealthChecks        map[string]HealthCheck
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	if cfg.RateLimiter != nil {
		r.Use(httpmiddleware.RateLimit(cfg.RateLimiter))
	}

	r.Get("/health", healthHandler(cfg.HealthChecks))
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}
	if cfg.AuthHandler != nil {
		r.Post("/auth/login", cfg.AuthHandler.Login)
	}

	// Patient-facing booking, scoped by X-Org-Id.
	r.Group(func(tenant chi.Router) {
		tenant.Use(requireOrgID)
		if cfg.AvailabilityHandler != nil {
			tenant.Get("/availability", cfg.AvailabilityHandler.GetAvailability)
		}
		if cfg.SlotsHandler != nil {
			tenant.Get("/slots", cfg.SlotsHandler.ListSlots)
		}
		if cfg.WizardHandler != nil {
			tenant.Route("/wizard/sessions", cfg.WizardHandler.Routes)
		}
	})

	// Staff routes take the org from the signed token.
	r.Group(func(staff chi.Router) {
		staff.Use(httpmiddleware.StaffJWT(cfg.StaffTokens))
		if cfg.PatientsHandler != nil {
			staff.Route("/patients", cfg.PatientsHandler.Routes)
		}
		if cfg.WizardHandler != nil {
			staff.Route("/staff/wizard/sessions", cfg.WizardHandler.Routes)
		}
	})

	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		if len(checks) > 0 {
			resp.Checks = make(map[string]string, len(checks))
			for name, check := range checks {
				if err := check(ctx); err != nil {
					resp.Checks[name] = err.Error()
					resp.Status = "degraded"
					status = http.StatusServiceUnavailable
					continue
				}
				resp.Checks[name] = "ok"
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(resp)
	}
}

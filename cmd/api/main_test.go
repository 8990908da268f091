package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/carebook/internal/appointments"
	"github.com/wolfman30/carebook/internal/availability"
	appconfig "github.com/wolfman30/carebook/internal/config"
	"github.com/wolfman30/carebook/internal/wizard"
	"github.com/wolfman30/carebook/pkg/logging"
)

func TestSetupMetricsExposesBookingMetrics(t *testing.T) {
	handler, m := setupMetrics()
	if handler == nil || m == nil {
		t.Fatalf("expected non-nil handler and metrics")
	}

	m.ObserveAppointment("booked")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "carebook_wizard_appointments_total") {
		t.Fatalf("expected appointment counter to be exported")
	}
}

func TestBuildRepositoriesWithoutDatabase(t *testing.T) {
	repos := buildRepositories(nil)
	if _, ok := repos.appointments.(*appointments.InMemoryRepository); !ok {
		t.Fatalf("expected in-memory appointments, got %T", repos.appointments)
	}
	if _, ok := repos.source.(*availability.MemorySource); !ok {
		t.Fatalf("expected memory availability source, got %T", repos.source)
	}
	if repos.patients == nil || repos.staff == nil {
		t.Fatalf("expected patient and staff stores")
	}
}

func TestBuildWizardStore(t *testing.T) {
	cfg := &appconfig.Config{WizardSessionTTL: time.Hour}
	if _, ok := buildWizardStore(nil, cfg).(*wizard.MemoryStore); !ok {
		t.Fatalf("expected memory store without redis")
	}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	if _, ok := buildWizardStore(client, cfg).(*wizard.RedisStore); !ok {
		t.Fatalf("expected redis store")
	}
}

func TestLoadLocationFallsBackToUTC(t *testing.T) {
	logger := logging.New("error")
	if loc := loadLocation("Not/AZone", logger); loc != time.UTC {
		t.Fatalf("expected UTC fallback, got %v", loc)
	}
	if loc := loadLocation("America/New_York", logger); loc.String() != "America/New_York" {
		t.Fatalf("expected America/New_York, got %v", loc)
	}
}

func TestHealthChecksOnlyIncludeConfiguredDependencies(t *testing.T) {
	if checks := healthChecks(nil, nil); len(checks) != 0 {
		t.Fatalf("expected no checks, got %d", len(checks))
	}
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	checks := healthChecks(nil, client)
	if err := checks["redis"](t.Context()); err != nil {
		t.Fatalf("redis check failed: %v", err)
	}
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/carebook/cmd/mainconfig"
	"github.com/wolfman30/carebook/internal/api/router"
	"github.com/wolfman30/carebook/internal/app/bootstrap"
	"github.com/wolfman30/carebook/internal/appointments"
	"github.com/wolfman30/carebook/internal/auth"
	"github.com/wolfman30/carebook/internal/availability"
	appconfig "github.com/wolfman30/carebook/internal/config"
	httpmiddleware "github.com/wolfman30/carebook/internal/http/middleware"
	"github.com/wolfman30/carebook/internal/notify"
	"github.com/wolfman30/carebook/internal/observability/metrics"
	"github.com/wolfman30/carebook/internal/patients"
	"github.com/wolfman30/carebook/internal/slots"
	"github.com/wolfman30/carebook/internal/wizard"
	"github.com/wolfman30/carebook/pkg/logging"
)

func main() {
	// .env is optional; real deployments inject the environment directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.NewWithFormat(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting carebook API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool := bootstrap.ConnectPostgresPool(ctx, cfg.DatabaseURL, logger)
	if pool != nil {
		defer pool.Close()
	} else {
		logger.Warn("DATABASE_URL not set or unreachable; using in-memory repositories")
	}
	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	} else {
		logger.Warn("redis unavailable; wizard sessions are kept in process memory")
	}

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Warn("failed to load AWS config; AWS integrations disabled", "error", err)
	}
	awsCfgPtr := &awsCfg
	if err != nil {
		awsCfgPtr = nil
	}

	metricsHandler, bookingMetrics := setupMetrics()
	repos := buildRepositories(pool)
	centerStore := bootstrap.BuildCenterStore(redisClient)

	aggOpts := []availability.Option{
		availability.WithDefaultLocation(loadLocation(cfg.DefaultTimezone, logger)),
		availability.WithDefaultGranularity(cfg.DefaultSlotGranularity),
		availability.WithLogger(logger),
		availability.WithMetrics(bookingMetrics),
	}
	var centerLookup notify.CenterLookup
	var wizardCenters wizard.CenterLookup
	if centerStore != nil {
		aggOpts = append(aggOpts, availability.WithCenters(centerStore))
		centerLookup = centerStore
		wizardCenters = centerStore
	}
	aggregator := availability.NewAggregator(repos.source, aggOpts...)

	tracker, deliverer := bootstrap.BuildAnalytics(cfg, pool, awsCfgPtr, logger)
	if deliverer != nil {
		go deliverer.Start(ctx)
	}

	emailSender := bootstrap.BuildEmailSender(cfg, awsCfgPtr, logger)

	wizardService := wizard.NewService(wizard.Config{
		Store:         buildWizardStore(redisClient, cfg),
		Availability:  aggregator,
		Appointments:  appointments.NewService(repos.appointments, logger),
		Patients:      repos.patients,
		Centers:       wizardCenters,
		Notifier:      notify.NewConfirmationNotifier(emailSender, centerLookup, logger),
		Tracker:       tracker,
		Picker:        slots.NewRandomPicker(nil),
		Metrics:       bookingMetrics,
		Logger:        logger,
		SubmitLockTTL: cfg.SubmitLockTTL,
	})

	var authHandler *auth.Handler
	var staffTokens httpmiddleware.TokenParser
	if cfg.StaffJWTSecret != "" {
		issuer := auth.NewIssuer(cfg.StaffJWTSecret, cfg.StaffTokenTTL)
		authHandler = auth.NewHandler(repos.staff, issuer, logger)
		staffTokens = issuer
	} else {
		logger.Warn("STAFF_JWT_SECRET not set; staff routes disabled")
	}

	limiter := httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.RunCleanup(ctx.Done(), time.Minute)

	r := router.New(&router.Config{
		Logger:              logger,
		AvailabilityHandler: availability.NewHandler(aggregator, logger),
		SlotsHandler:        slots.NewHandler(aggregator, bookingMetrics, logger),
		WizardHandler:       wizard.NewHandler(wizardService, logger),
		PatientsHandler:     patients.NewHandler(repos.patients, logger),
		AuthHandler:         authHandler,
		StaffTokens:         staffTokens,
		MetricsHandler:      metricsHandler,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimiter:         limiter,
		HealthChecks:        healthChecks(pool, redisClient),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

type repositories struct {
	patients     patients.Repository
	appointments appointments.Repository
	source       availability.Source
	staff        auth.StaffStore
}

func buildRepositories(pool *pgxpool.Pool) repositories {
	if pool == nil {
		return repositories{
			patients:     patients.NewInMemoryRepository(),
			appointments: appointments.NewInMemoryRepository(),
			source:       availability.NewMemorySource(),
			staff:        auth.NewMemoryStaffStore(),
		}
	}
	return repositories{
		patients:     patients.NewPostgresRepository(pool),
		appointments: appointments.NewPostgresRepository(pool),
		source:       availability.NewPostgresSource(pool),
		staff:        auth.NewPostgresStaffStore(pool),
	}
}

func buildWizardStore(redisClient *redis.Client, cfg *appconfig.Config) wizard.Store {
	if redisClient == nil {
		return wizard.NewMemoryStore()
	}
	return wizard.NewRedisStore(redisClient, cfg.WizardSessionTTL)
}

func setupMetrics() (http.Handler, *metrics.BookingMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics.NewBookingMetrics(reg)
}

func loadLocation(name string, logger *logging.Logger) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		logger.Warn("invalid DEFAULT_TIMEZONE; falling back to UTC", "timezone", name, "error", err)
		return time.UTC
	}
	return loc
}

func healthChecks(pool *pgxpool.Pool, redisClient *redis.Client) map[string]router.HealthCheck {
	checks := map[string]router.HealthCheck{}
	if pool != nil {
		checks["postgres"] = pool.Ping
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	return checks
}

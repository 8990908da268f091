// Command seed loads a center fixture into a development environment: the
// center profile goes to Redis, consultants and staff go to Postgres.
//
// Usage: go run ./cmd/seed cmd/seed/testdata/sample-center.json
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/joho/godotenv"

	"github.com/wolfman30/carebook/internal/app/bootstrap"
	"github.com/wolfman30/carebook/internal/auth"
	"github.com/wolfman30/carebook/internal/availability"
	"github.com/wolfman30/carebook/internal/centers"
	appconfig "github.com/wolfman30/carebook/internal/config"
	"github.com/wolfman30/carebook/pkg/logging"
)

type fixture struct {
	Center      centers.Center      `json:"center"`
	Consultants []fixtureConsultant `json:"consultants"`
	Staff       []fixtureStaff      `json:"staff"`
}

type fixtureConsultant struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Designation     string         `json:"designation"`
	SlotGranularity int            `json:"slot_granularity_mins"`
	Hours           []fixtureHours `json:"hours"`
}

type fixtureHours struct {
	Weekday    string `json:"weekday"`
	Start      string `json:"start"`
	End        string `json:"end"`
	BreakStart string `json:"break_start,omitempty"`
	BreakEnd   string `json:"break_end,omitempty"`
}

type fixtureStaff struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type centerWriter interface {
	Set(ctx context.Context, c *centers.Center) error
}

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./cmd/seed <center-fixture.json>")
		os.Exit(1)
	}

	cfg := appconfig.Load()
	logger := logging.NewWithFormat(cfg.LogLevel, "text")
	ctx := context.Background()

	fx, err := loadFixture(os.Args[1])
	if err != nil {
		logger.Error("load fixture", "error", err)
		os.Exit(1)
	}

	pool := bootstrap.ConnectPostgresPool(ctx, cfg.DatabaseURL, logger)
	if pool == nil {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient == nil {
		logger.Error("redis is required to store the center profile")
		os.Exit(1)
	}
	defer redisClient.Close()

	if err := seed(ctx, fx, pool, bootstrap.BuildCenterStore(redisClient)); err != nil {
		logger.Error("seed failed", "error", err)
		os.Exit(1)
	}
	logger.Info("seed complete",
		"center_id", fx.Center.ID,
		"consultants", len(fx.Consultants),
		"staff", len(fx.Staff),
	)
}

func loadFixture(path string) (*fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fx fixture
	if err := json.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if strings.TrimSpace(fx.Center.ID) == "" || strings.TrimSpace(fx.Center.OrgID) == "" {
		return nil, errors.New("fixture center needs id and org_id")
	}
	if fx.Center.Timezone != "" {
		if _, err := time.LoadLocation(fx.Center.Timezone); err != nil {
			return nil, fmt.Errorf("center timezone: %w", err)
		}
	}
	for _, c := range fx.Consultants {
		for _, h := range c.Hours {
			if _, err := parseWeekday(h.Weekday); err != nil {
				return nil, fmt.Errorf("consultant %s: %w", c.ID, err)
			}
		}
	}
	return &fx, nil
}

func seed(ctx context.Context, fx *fixture, db execer, store centerWriter) error {
	if err := store.Set(ctx, &fx.Center); err != nil {
		return fmt.Errorf("store center: %w", err)
	}

	for _, c := range fx.Consultants {
		consultant := availability.Consultant{
			ID:              c.ID,
			OrgID:           fx.Center.OrgID,
			CenterID:        fx.Center.ID,
			Name:            c.Name,
			Designation:     c.Designation,
			SlotGranularity: c.SlotGranularity,
		}
		if _, err := db.Exec(ctx, `
			INSERT INTO consultants (id, org_id, center_id, name, designation, slot_granularity_mins)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				designation = EXCLUDED.designation,
				slot_granularity_mins = EXCLUDED.slot_granularity_mins,
				active = TRUE`,
			consultant.ID, consultant.OrgID, consultant.CenterID, consultant.Name, consultant.Designation, consultant.SlotGranularity,
		); err != nil {
			return fmt.Errorf("upsert consultant %s: %w", c.ID, err)
		}

		if _, err := db.Exec(ctx, `DELETE FROM consultant_working_hours WHERE consultant_id = $1`, c.ID); err != nil {
			return fmt.Errorf("reset hours %s: %w", c.ID, err)
		}
		for _, h := range c.Hours {
			weekday, _ := parseWeekday(h.Weekday)
			if _, err := db.Exec(ctx, `
				INSERT INTO consultant_working_hours (consultant_id, weekday, start_time, end_time, break_start, break_end)
				VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''))`,
				c.ID, int(weekday), h.Start, h.End, h.BreakStart, h.BreakEnd,
			); err != nil {
				return fmt.Errorf("insert hours %s: %w", c.ID, err)
			}
		}
	}

	for _, s := range fx.Staff {
		hash, err := auth.HashPassword(s.Password)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", s.Email, err)
		}
		if _, err := db.Exec(ctx, `
			INSERT INTO staff (id, org_id, email, name, role, password_hash)
			VALUES ($1, $2, lower($3), $4, $5, $6)
			ON CONFLICT (email) DO UPDATE SET password_hash = EXCLUDED.password_hash, name = EXCLUDED.name, role = EXCLUDED.role`,
			s.ID, fx.Center.OrgID, s.Email, s.Name, s.Role, hash,
		); err != nil {
			return fmt.Errorf("upsert staff %s: %w", s.Email, err)
		}
	}
	return nil
}

func parseWeekday(name string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), name) || strings.EqualFold(d.String()[:3], name) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", name)
}

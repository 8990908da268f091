package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type rowsQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresSource reads consultants, shifts and busy time from the relational database.
type PostgresSource struct {
	pool rowsQuerier
}

// NewPostgresSource initializes a source backed by pgxpool.
func NewPostgresSource(pool *pgxpool.Pool) *PostgresSource {
	if pool == nil {
		panic("availability: pgx pool required")
	}
	return &PostgresSource{pool: pool}
}

func newPostgresSourceWithQuerier(q rowsQuerier) *PostgresSource {
	if q == nil {
		panic("availability: querier required")
	}
	return &PostgresSource{pool: q}
}

const consultantsByCenterSQL = `
	SELECT id, org_id, center_id, name, designation, slot_granularity_mins
	FROM consultants
	WHERE center_id = $1 AND active AND ($2 = '' OR lower(designation) = lower($2))
	  AND ($3 = '' OR org_id = $3)
	ORDER BY name, id
`

const consultantsByOrgSQL = `
	SELECT id, org_id, center_id, name, designation, slot_granularity_mins
	FROM consultants
	WHERE org_id = $1 AND active AND ($2 = '' OR lower(designation) = lower($2))
	ORDER BY name, id
`

func (s *PostgresSource) Consultants(ctx context.Context, scope Scope, designation string) ([]Consultant, error) {
	query, args := consultantsByOrgSQL, []any{scope.OrgID, designation}
	if scope.CenterID != "" {
		// A center id never widens the search past the caller's org.
		query, args = consultantsByCenterSQL, []any{scope.CenterID, designation, scope.OrgID}
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("availability: query consultants: %w", err)
	}
	defer rows.Close()

	var out []Consultant
	for rows.Next() {
		var c Consultant
		if err := rows.Scan(&c.ID, &c.OrgID, &c.CenterID, &c.Name, &c.Designation, &c.SlotGranularity); err != nil {
			return nil, fmt.Errorf("availability: scan consultant: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("availability: iterate consultants: %w", err)
	}
	return out, nil
}

func (s *PostgresSource) WorkingHours(ctx context.Context, consultantIDs []string) (map[string][]WorkingHours, error) {
	out := make(map[string][]WorkingHours)
	if len(consultantIDs) == 0 {
		return out, nil
	}
	query := `
		SELECT consultant_id, weekday, start_time, end_time, COALESCE(break_start, ''), COALESCE(break_end, '')
		FROM consultant_working_hours
		WHERE consultant_id = ANY($1)
		ORDER BY consultant_id, weekday, start_time
	`
	rows, err := s.pool.Query(ctx, query, consultantIDs)
	if err != nil {
		return nil, fmt.Errorf("availability: query working hours: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id      string
			weekday int
			wh      WorkingHours
		)
		if err := rows.Scan(&id, &weekday, &wh.Start, &wh.End, &wh.BreakStart, &wh.BreakEnd); err != nil {
			return nil, fmt.Errorf("availability: scan working hours: %w", err)
		}
		wh.Weekday = time.Weekday(weekday)
		out[id] = append(out[id], wh)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("availability: iterate working hours: %w", err)
	}
	return out, nil
}

func (s *PostgresSource) Busy(ctx context.Context, consultantIDs []string, from, to time.Time) (map[string][]Interval, error) {
	out := make(map[string][]Interval)
	if len(consultantIDs) == 0 {
		return out, nil
	}
	query := `
		SELECT consultant_id, start_time, end_time
		FROM appointments
		WHERE consultant_id = ANY($1) AND status <> 'cancelled' AND start_time < $3 AND end_time > $2
		UNION ALL
		SELECT consultant_id, start_time, end_time
		FROM consultant_unavailability
		WHERE consultant_id = ANY($1) AND start_time < $3 AND end_time > $2
	`
	rows, err := s.pool.Query(ctx, query, consultantIDs, from, to)
	if err != nil {
		return nil, fmt.Errorf("availability: query busy intervals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id string
			iv Interval
		)
		if err := rows.Scan(&id, &iv.Start, &iv.End); err != nil {
			return nil, fmt.Errorf("availability: scan busy interval: %w", err)
		}
		out[id] = append(out[id], iv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("availability: iterate busy intervals: %w", err)
	}
	return out, nil
}

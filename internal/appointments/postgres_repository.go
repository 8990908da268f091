package appointments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores appointments in the relational database.
type PostgresRepository struct {
	pool txBeginner
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

func newPostgresRepositoryWithPool(pool txBeginner) *PostgresRepository {
	if pool == nil {
		panic("appointments: pool required")
	}
	return &PostgresRepository{pool: pool}
}

const appointmentColumns = `id, org_id, center_id, patient_id, consultant_id, treatment_id, start_time, end_time, status, price_cents, COALESCE(booking_ref, ''), created_at`

// Create locks the consultant row, rejects overlaps with bookings and blocked time,
// and inserts in one transaction. A live appointment with the same booking ref is
// returned as is.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateRequest) (*Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("appointments: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT id FROM consultants WHERE id = $1 FOR UPDATE`, req.ConsultantID); err != nil {
		return nil, fmt.Errorf("appointments: lock consultant: %w", err)
	}

	if req.BookingRef != "" {
		existing, err := scanAppointment(tx.QueryRow(ctx, `
			SELECT `+appointmentColumns+`
			FROM appointments
			WHERE org_id = $1 AND booking_ref = $2 AND status <> 'cancelled'`,
			req.OrgID, req.BookingRef))
		switch {
		case err == nil:
			if err := tx.Commit(ctx); err != nil {
				return nil, fmt.Errorf("appointments: commit: %w", err)
			}
			return existing, nil
		case !errors.Is(err, pgx.ErrNoRows):
			return nil, fmt.Errorf("appointments: booking ref lookup: %w", err)
		}
	}

	var overlapping bool
	if err := tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE consultant_id = $1 AND status <> 'cancelled'
			  AND start_time < $3 AND end_time > $2
		) OR EXISTS (
			SELECT 1 FROM consultant_unavailability
			WHERE consultant_id = $1
			  AND start_time < $3 AND end_time > $2
		)`, req.ConsultantID, req.StartTime, req.EndTime).Scan(&overlapping); err != nil {
		return nil, fmt.Errorf("appointments: overlap check: %w", err)
	}
	if overlapping {
		return nil, ErrSlotTaken
	}

	appt := &Appointment{
		ID:           uuid.New().String(),
		OrgID:        req.OrgID,
		CenterID:     req.CenterID,
		PatientID:    req.PatientID,
		ConsultantID: req.ConsultantID,
		TreatmentID:  req.TreatmentID,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Status:       StatusBooked,
		PriceCents:   req.PriceCents,
		BookingRef:   req.BookingRef,
	}
	query := `
		INSERT INTO appointments (id, org_id, center_id, patient_id, consultant_id, treatment_id, start_time, end_time, status, price_cents, booking_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULLIF($11, ''))
		RETURNING created_at
	`
	if err := tx.QueryRow(ctx, query,
		appt.ID,
		appt.OrgID,
		appt.CenterID,
		appt.PatientID,
		appt.ConsultantID,
		appt.TreatmentID,
		appt.StartTime,
		appt.EndTime,
		string(appt.Status),
		appt.PriceCents,
		appt.BookingRef,
	).Scan(&appt.CreatedAt); err != nil {
		return nil, fmt.Errorf("appointments: insert failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("appointments: commit: %w", err)
	}
	return appt, nil
}

// GetByID fetches an appointment scoped to the org.
func (r *PostgresRepository) GetByID(ctx context.Context, orgID, id string) (*Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1 AND org_id = $2`
	appt, err := scanAppointment(r.pool.QueryRow(ctx, query, id, orgID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointments: select failed: %w", err)
	}
	return appt, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var (
		appt   Appointment
		status string
	)
	if err := row.Scan(
		&appt.ID,
		&appt.OrgID,
		&appt.CenterID,
		&appt.PatientID,
		&appt.ConsultantID,
		&appt.TreatmentID,
		&appt.StartTime,
		&appt.EndTime,
		&status,
		&appt.PriceCents,
		&appt.BookingRef,
		&appt.CreatedAt,
	); err != nil {
		return nil, err
	}
	appt.Status = Status(status)
	return &appt, nil
}

// Cancel frees the slot.
func (r *PostgresRepository) Cancel(ctx context.Context, orgID, id string) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE appointments SET status = 'cancelled' WHERE id = $1 AND org_id = $2 AND status <> 'cancelled'`,
		id, orgID)
	if err != nil {
		return fmt.Errorf("appointments: cancel failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

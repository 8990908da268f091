package patients

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores patients in the relational database.
type PostgresRepository struct {
	pool querier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("patients: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

func newPostgresRepositoryWithQuerier(q querier) *PostgresRepository {
	if q == nil {
		panic("patients: querier required")
	}
	return &PostgresRepository{pool: q}
}

const patientColumns = `id, org_id, first_name, last_name, email, phone, date_of_birth, status, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var (
		p      Patient
		status string
	)
	if err := row.Scan(
		&p.ID,
		&p.OrgID,
		&p.FirstName,
		&p.LastName,
		&p.Email,
		&p.Phone,
		&p.DateOfBirth,
		&status,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.Status = Status(status)
	return &p, nil
}

// Create inserts a new row.
func (r *PostgresRepository) Create(ctx context.Context, req *CreatePatientRequest) (*Patient, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO patients (id, org_id, first_name, last_name, email, phone, date_of_birth, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + patientColumns
	p, err := scanPatient(r.pool.QueryRow(ctx, query,
		uuid.New().String(),
		req.OrgID,
		strings.TrimSpace(req.FirstName),
		strings.TrimSpace(req.LastName),
		strings.TrimSpace(req.Email),
		strings.TrimSpace(req.Phone),
		req.DateOfBirth,
		string(StatusNew),
	))
	if err != nil {
		return nil, fmt.Errorf("patients: insert failed: %w", err)
	}
	return p, nil
}

// GetByID fetches a patient scoped to the org.
func (r *PostgresRepository) GetByID(ctx context.Context, orgID, id string) (*Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1 AND org_id = $2`
	p, err := scanPatient(r.pool.QueryRow(ctx, query, id, orgID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("patients: select failed: %w", err)
	}
	return p, nil
}

// List returns the org's patients, newest first.
func (r *PostgresRepository) List(ctx context.Context, orgID string, filter ListFilter) ([]*Patient, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT ` + patientColumns + `
		FROM patients
		WHERE org_id = $1
		  AND ($2 = '' OR status = $2)
		  AND ($3 = '' OR (first_name || ' ' || last_name) ILIKE '%' || $3 || '%' OR email ILIKE '%' || $3 || '%')
		ORDER BY created_at DESC, id
		LIMIT $4 OFFSET $5
	`
	rows, err := r.pool.Query(ctx, query, orgID, string(filter.Status), strings.TrimSpace(filter.Search), limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("patients: list failed: %w", err)
	}
	defer rows.Close()

	out := []*Patient{}
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("patients: scan failed: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("patients: list failed: %w", err)
	}
	return out, nil
}

// Update applies a partial update; NULL parameters keep the stored value.
func (r *PostgresRepository) Update(ctx context.Context, orgID, id string, req *UpdatePatientRequest) (*Patient, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var status *string
	if req.Status != nil {
		s := string(*req.Status)
		status = &s
	}
	query := `
		UPDATE patients SET
			first_name = COALESCE($3, first_name),
			last_name = COALESCE($4, last_name),
			email = COALESCE($5, email),
			phone = COALESCE($6, phone),
			date_of_birth = COALESCE($7, date_of_birth),
			status = COALESCE($8, status),
			updated_at = now()
		WHERE id = $1 AND org_id = $2
		RETURNING ` + patientColumns
	p, err := scanPatient(r.pool.QueryRow(ctx, query, id, orgID,
		req.FirstName, req.LastName, req.Email, req.Phone, req.DateOfBirth, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("patients: update failed: %w", err)
	}
	return p, nil
}

// UpdateStatus sets only the lifecycle status.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, orgID, id string, status Status) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	ct, err := r.pool.Exec(ctx,
		`UPDATE patients SET status = $3, updated_at = now() WHERE id = $1 AND org_id = $2`,
		id, orgID, string(status))
	if err != nil {
		return fmt.Errorf("patients: update status failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	return nil
}

// Delete removes a patient.
func (r *PostgresRepository) Delete(ctx context.Context, orgID, id string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM patients WHERE id = $1 AND org_id = $2`, id, orgID)
	if err != nil {
		return fmt.Errorf("patients: delete failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	return nil
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Staff is a clinic employee who can manage patients and book on their behalf.
type Staff struct {
	ID           string    `json:"id"`
	OrgID        string    `json:"org_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// StaffStore looks up staff accounts.
type StaffStore interface {
	GetByEmail(ctx context.Context, email string) (*Staff, error)
	Create(ctx context.Context, staff *Staff) error
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// MemoryStaffStore is used in tests and local development.
type MemoryStaffStore struct {
	mu    sync.RWMutex
	staff map[string]*Staff
}

func NewMemoryStaffStore() *MemoryStaffStore {
	return &MemoryStaffStore{staff: make(map[string]*Staff)}
}

func (m *MemoryStaffStore) GetByEmail(_ context.Context, email string) (*Staff, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.staff[normalizeEmail(email)]
	if !ok {
		return nil, ErrStaffNotFound
	}
	clone := *s
	return &clone, nil
}

func (m *MemoryStaffStore) Create(_ context.Context, staff *Staff) error {
	if staff.ID == "" {
		staff.ID = uuid.NewString()
	}
	if staff.CreatedAt.IsZero() {
		staff.CreatedAt = time.Now().UTC()
	}
	staff.Email = normalizeEmail(staff.Email)
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *staff
	m.staff[staff.Email] = &clone
	return nil
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStaffStore reads the staff table.
type PostgresStaffStore struct {
	db querier
}

func NewPostgresStaffStore(pool *pgxpool.Pool) *PostgresStaffStore {
	if pool == nil {
		panic("auth: pgx pool cannot be nil")
	}
	return newPostgresStaffStoreWithQuerier(pool)
}

func newPostgresStaffStoreWithQuerier(q querier) *PostgresStaffStore {
	return &PostgresStaffStore{db: q}
}

func (s *PostgresStaffStore) GetByEmail(ctx context.Context, email string) (*Staff, error) {
	const query = `
		SELECT id, org_id, email, name, role, password_hash, created_at
		FROM staff
		WHERE email = $1
	`
	var st Staff
	err := s.db.QueryRow(ctx, query, normalizeEmail(email)).Scan(
		&st.ID, &st.OrgID, &st.Email, &st.Name, &st.Role, &st.PasswordHash, &st.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStaffNotFound
		}
		return nil, fmt.Errorf("auth: get staff: %w", err)
	}
	return &st, nil
}

func (s *PostgresStaffStore) Create(ctx context.Context, staff *Staff) error {
	if staff.ID == "" {
		staff.ID = uuid.NewString()
	}
	if staff.CreatedAt.IsZero() {
		staff.CreatedAt = time.Now().UTC()
	}
	staff.Email = normalizeEmail(staff.Email)
	const query = `
		INSERT INTO staff (id, org_id, email, name, role, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.Exec(ctx, query, staff.ID, staff.OrgID, staff.Email, staff.Name, staff.Role, staff.PasswordHash, staff.CreatedAt)
	if err != nil {
		return fmt.Errorf("auth: create staff: %w", err)
	}
	return nil
}

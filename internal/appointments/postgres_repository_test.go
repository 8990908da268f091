package appointments

import (
	"context"
	"errors"
	"testing"
	"time"

	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestPostgresRepository_CreateCommits(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	repo := newPostgresRepositoryWithPool(mock)
	req := validRequest()
	created := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec("SELECT id FROM consultants").WithArgs("a").WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("a", req.StartTime, req.EndTime).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(pgxmock.AnyArg(), "org-1", "c-1", "p-1", "a", "t-1", req.StartTime, req.EndTime, "booked", int64(15000), "").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(created))
	mock.ExpectCommit()

	appt, err := repo.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if appt.ID == "" || !appt.CreatedAt.Equal(created) {
		t.Fatalf("unexpected appointment %+v", appt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresRepository_CreateOverlapRollsBack(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	repo := newPostgresRepositoryWithPool(mock)
	req := validRequest()

	mock.ExpectBegin()
	mock.ExpectExec("SELECT id FROM consultants").WithArgs("a").WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery(`SELECT EXISTS[\s\S]+FROM appointments[\s\S]+OR EXISTS[\s\S]+FROM consultant_unavailability`).
		WithArgs("a", req.StartTime, req.EndTime).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	if _, err := repo.Create(context.Background(), req); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresRepository_CreateReturnsExistingBookingRef(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	repo := newPostgresRepositoryWithPool(mock)
	req := validRequest()
	req.BookingRef = "sess-1"
	created := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec("SELECT id FROM consultants").WithArgs("a").WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery("WHERE org_id = \\$1 AND booking_ref = \\$2").
		WithArgs("org-1", "sess-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "org_id", "center_id", "patient_id", "consultant_id", "treatment_id",
			"start_time", "end_time", "status", "price_cents", "booking_ref", "created_at",
		}).AddRow("appt-1", "org-1", "c-1", "p-1", "b", "t-1", req.StartTime, req.EndTime, "booked", int64(15000), "sess-1", created))
	mock.ExpectCommit()

	appt, err := repo.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if appt.ID != "appt-1" || appt.ConsultantID != "b" || appt.BookingRef != "sess-1" {
		t.Fatalf("expected the existing appointment, got %+v", appt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresRepository_GetAndCancel(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	repo := newPostgresRepositoryWithPool(mock)
	ctx := context.Background()

	mock.ExpectQuery("FROM appointments").WithArgs("x", "org-1").WillReturnError(pgx.ErrNoRows)
	if _, err := repo.GetByID(ctx, "org-1", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	mock.ExpectExec("UPDATE appointments SET status").WithArgs("appt-1", "org-1").WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	if err := repo.Cancel(ctx, "org-1", "appt-1"); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

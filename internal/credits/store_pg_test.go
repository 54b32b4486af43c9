package credits

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/lex-technology/workwise-backend/internal/shared/apperr"
)

func profileColumns() []string {
	return []string{"email", "monthly_ai_credits", "remaining_ai_credits", "is_paid_user", "period_resets_at"}
}

func TestPGStoreConsumeDecrements(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	s := NewPGStore(db)

	resetsAt := time.Now().UTC().Add(10 * 24 * time.Hour)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT email, monthly_ai_credits").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(profileColumns()).AddRow("dana@example.com", 10, 3, false, resetsAt))
	mock.ExpectExec("UPDATE user_profiles SET remaining_ai_credits =").
		WithArgs(2, "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	p, err := s.Consume(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if p.RemainingCredits != 2 {
		t.Fatalf("remaining = %d, want 2", p.RemainingCredits)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGStoreConsumeInsufficient(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	s := NewPGStore(db)

	resetsAt := time.Now().UTC().Add(10 * 24 * time.Hour)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT email, monthly_ai_credits").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(profileColumns()).AddRow(nil, 10, 0, false, resetsAt))
	mock.ExpectRollback()

	_, err = s.Consume(context.Background(), "u1")
	if !errors.Is(err, ErrInsufficientCredits) || !errors.Is(err, apperr.ErrInsufficientCredits) {
		t.Fatalf("err = %v, want insufficient credits", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGStoreConsumePaidSkipsDecrement(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	s := NewPGStore(db)

	resetsAt := time.Now().UTC().Add(10 * 24 * time.Hour)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT email, monthly_ai_credits").
		WithArgs("pro").
		WillReturnRows(sqlmock.NewRows(profileColumns()).AddRow("pro@example.com", 10, 0, true, resetsAt))
	mock.ExpectCommit()

	p, err := s.Consume(context.Background(), "pro")
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if !p.IsPaidUser {
		t.Fatal("profile not paid")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGStoreGetSeedsNewUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	s := NewPGStore(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT email, monthly_ai_credits").
		WithArgs("new-user").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO user_profiles").
		WithArgs("new-user", nil, defaultMonthlyCredits, defaultMonthlyCredits, false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	p, err := s.Get(context.Background(), "new-user")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.RemainingCredits != defaultMonthlyCredits {
		t.Fatalf("remaining = %d, want %d", p.RemainingCredits, defaultMonthlyCredits)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGStoreGetRefillsLapsedPeriod(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	s := NewPGStore(db)

	lapsed := time.Now().UTC().Add(-time.Hour)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT email, monthly_ai_credits").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(profileColumns()).AddRow(nil, 10, 0, false, lapsed))
	mock.ExpectExec("UPDATE user_profiles SET remaining_ai_credits =").
		WithArgs(10, sqlmock.AnyArg(), "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	p, err := s.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.RemainingCredits != 10 {
		t.Fatalf("remaining = %d, want refilled 10", p.RemainingCredits)
	}
	if !p.PeriodResetsAt.After(time.Now().UTC()) {
		t.Fatalf("resetsAt = %v, want future", p.PeriodResetsAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGStoreLogRequest(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	s := NewPGStore(db)

	mock.ExpectExec("INSERT INTO ai_requests_log").
		WithArgs("u1", "cover_letter_generation", "success", []byte(`{"tone":"professional"}`), true).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = s.LogRequest(context.Background(), LogEntry{
		UserID:      "u1",
		ServiceName: "cover_letter_generation",
		Status:      "success",
		Metadata:    map[string]any{"tone": "professional"},
		CreditsUsed: true,
	})
	if err != nil {
		t.Fatalf("LogRequest: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

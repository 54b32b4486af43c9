package parsedresumes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/lex-technology/workwise-backend/internal/shared/apperr"
)

func TestPGRepoCreateReturnsAssignedID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	pr := ParsedResume{
		UserID:           "google:117",
		ContentHash:      "abc123",
		OriginalFilename: "resume.pdf",
		RawText:          "John Doe",
		ParsedContent:    json.RawMessage(`{"sections":[]}`),
		Metadata:         json.RawMessage(`{"version":1}`),
		CreatedAt:        time.Now().UTC(),
	}

	mock.ExpectQuery("INSERT INTO parsed_resumes").
		WithArgs(
			pr.UserID,
			pr.ContentHash,
			"resume.pdf",
			pr.RawText,
			[]byte(pr.ParsedContent),
			[]byte(pr.Metadata),
			sqlmock.AnyArg(),
		).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	id, err := repo.Create(context.Background(), pr)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id != 7 {
		t.Fatalf("expected id 7, got %d", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoCreateMapsUniqueViolation(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectQuery("INSERT INTO parsed_resumes").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "parsed_resumes_content_hash_key"})

	_, err = repo.Create(context.Background(), ParsedResume{
		UserID:        "google:117",
		ContentHash:   "abc123",
		RawText:       "John Doe",
		ParsedContent: json.RawMessage(`{}`),
		CreatedAt:     time.Now().UTC(),
	})
	if !errors.Is(err, ErrDuplicateHash) {
		t.Fatalf("expected ErrDuplicateHash, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByHashScansRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{
		"id", "user_id", "content_hash", "original_filename", "raw_text", "parsed_content", "metadata", "created_at",
	}).AddRow(int64(3), "google:117", "abc123", nil, "John Doe", `{"sections":[]}`, `{"version":1}`, created)

	mock.ExpectQuery("FROM parsed_resumes").
		WithArgs("abc123").
		WillReturnRows(rows)

	pr, err := repo.GetByHash(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("GetByHash: %v", err)
	}
	if pr.ID != 3 {
		t.Fatalf("expected id 3, got %d", pr.ID)
	}
	if pr.OriginalFilename != "" {
		t.Fatalf("expected empty filename for NULL column, got %q", pr.OriginalFilename)
	}
	if string(pr.ParsedContent) != `{"sections":[]}` {
		t.Fatalf("unexpected parsed content: %s", pr.ParsedContent)
	}
	if string(pr.Metadata) != `{"version":1}` {
		t.Fatalf("unexpected metadata: %s", pr.Metadata)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByHashNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectQuery("FROM parsed_resumes").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err = repo.GetByHash(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected error to wrap the shared not-found sentinel, got %v", err)
	}
}

func TestPGRepoListByUserClampsLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	rows := sqlmock.NewRows([]string{
		"id", "user_id", "content_hash", "original_filename", "raw_text", "parsed_content", "metadata", "created_at",
	}).AddRow(int64(1), "google:117", "h1", "resume.pdf", "text", `{}`, nil, time.Now().UTC())

	mock.ExpectQuery("FROM parsed_resumes").
		WithArgs("google:117", 100, 0).
		WillReturnRows(rows)

	out, err := repo.ListByUser(context.Background(), "google:117", 500, -3)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 row, got %d", len(out))
	}
	if out[0].OriginalFilename != "resume.pdf" {
		t.Fatalf("unexpected filename: %q", out[0].OriginalFilename)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

package applications

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/lex-technology/workwise-backend/internal/shared/apperr"
)

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func TestPGRepoCreateHeaderReturnsID(t *testing.T) {
	repo, mock := newMockRepo(t)

	parsedID := int64(42)
	app := Application{
		UserID:         "google:117",
		ParsedResumeID: &parsedID,
		CompanyApplied: "Acme",
		RoleApplied:    "Engineer",
		JobDescription: "Build payment systems.",
		Status:         StatusWritingCV,
		ParsingStatus:  StateCompleted,
		AnalysisStatus: StatePending,
		CreatedAt:      time.Now().UTC(),
	}

	mock.ExpectQuery("INSERT INTO resumes").
		WithArgs(
			app.UserID,
			parsedID,
			app.CompanyApplied,
			app.RoleApplied,
			app.JobDescription,
			app.Status,
			app.ParsingStatus,
			app.AnalysisStatus,
			nil,
			app.CreatedAt,
		).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

	id, err := repo.CreateHeader(context.Background(), app)
	if err != nil {
		t.Fatalf("CreateHeader: %v", err)
	}
	if id != 11 {
		t.Fatalf("id = %d, want 11", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateSectionBuckets(t *testing.T) {
	repo, mock := newMockRepo(t)

	buckets := SectionBuckets{
		ContactInformation: json.RawMessage(`{"name":"Dana"}`),
		Education:          json.RawMessage(`[]`),
		Skills:             json.RawMessage(`[{"name":"Go"}]`),
		Certificates:       json.RawMessage(`[]`),
		Miscellaneous:      json.RawMessage(`[]`),
		ExecutiveSummary:   "Platform engineer.",
		PersonalProjects:   json.RawMessage(`[]`),
	}

	mock.ExpectExec("UPDATE resumes SET contact_information =").
		WithArgs(
			[]byte(buckets.ContactInformation),
			[]byte(buckets.Education),
			[]byte(buckets.Skills),
			[]byte(buckets.Certificates),
			[]byte(buckets.Miscellaneous),
			buckets.ExecutiveSummary,
			[]byte(buckets.PersonalProjects),
			int64(9),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateSectionBuckets(context.Background(), 9, buckets); err != nil {
		t.Fatalf("UpdateSectionBuckets: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateSectionBucketsMissingRow(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE resumes SET contact_information =").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateSectionBuckets(context.Background(), 404, SectionBuckets{})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestPGRepoGetByIDScansNulls(t *testing.T) {
	repo, mock := newMockRepo(t)

	created := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "parsed_resume_id", "company_applied", "role_applied", "job_description",
		"status", "parsing_status", "analysis_status",
		"contact_information", "executive_summary", "education", "skills", "certificates",
		"miscellaneous", "personal_projects", "cover_letter",
		"jd_analysis", "skills_analysis", "summary_analysis", "ai_improved_sections", "metadata",
		"resume_file_key", "date_applied", "created_at", "updated_at",
	}).AddRow(
		int64(9), "u1", nil, "Acme", "Engineer", "Build payment systems.",
		"Writing CV", "completed", "pending",
		`{"name":"Dana"}`, nil, `[]`, `[{"name":"Go"}]`, nil,
		nil, `[]`, nil,
		nil, nil, nil, `{"skills":true}`, nil,
		nil, nil, created, created,
	)
	mock.ExpectQuery("SELECT id, user_id, parsed_resume_id").
		WithArgs(int64(9)).
		WillReturnRows(rows)

	app, err := repo.GetByID(context.Background(), 9)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if app.ParsedResumeID != nil {
		t.Fatalf("parsed resume id = %v, want nil", app.ParsedResumeID)
	}
	if string(app.ContactInformation) != `{"name":"Dana"}` {
		t.Fatalf("contact = %s", app.ContactInformation)
	}
	if app.ExecutiveSummary != "" || app.CoverLetter != "" {
		t.Fatalf("null text columns = %q / %q", app.ExecutiveSummary, app.CoverLetter)
	}
	if app.Certificates != nil {
		t.Fatalf("certificates = %s, want nil", app.Certificates)
	}
	if string(app.AIImprovedSections) != `{"skills":true}` {
		t.Fatalf("improved = %s", app.AIImprovedSections)
	}
	if app.DateApplied != nil {
		t.Fatalf("date = %v, want nil", app.DateApplied)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT id, user_id, parsed_resume_id").
		WithArgs(int64(404)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 404)
	if !errors.Is(err, ErrNotFound) || !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestPGRepoListByUserAppliesLimit(t *testing.T) {
	repo, mock := newMockRepo(t)

	applied := time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC)
	created := applied.Add(-48 * time.Hour)
	rows := sqlmock.NewRows([]string{"id", "company_applied", "role_applied", "status", "date_applied", "created_at"}).
		AddRow(int64(2), "Acme", "Engineer", "Applied", applied, created).
		AddRow(int64(1), "Globex", "Analyst", "Writing CV", nil, created)
	mock.ExpectQuery("ORDER BY date_applied DESC NULLS LAST, created_at DESC LIMIT").
		WithArgs("u1", 5).
		WillReturnRows(rows)

	got, err := repo.ListByUser(context.Background(), "u1", 5)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("summaries = %d, want 2", len(got))
	}
	if got[0].DateApplied == nil || !got[0].DateApplied.Equal(applied) {
		t.Fatalf("date = %v", got[0].DateApplied)
	}
	if got[1].DateApplied != nil {
		t.Fatalf("undated row date = %v, want nil", got[1].DateApplied)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoListByUserUnlimited(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("ORDER BY date_applied DESC NULLS LAST, created_at DESC$").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "company_applied", "role_applied", "status", "date_applied", "created_at"}))

	got, err := repo.ListByUser(context.Background(), "u1", 0)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("summaries = %d, want 0", len(got))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateSectionSplicesColumn(t *testing.T) {
	repo, mock := newMockRepo(t)

	content := []byte(`[{"name":"Go"},{"name":"Kafka"}]`)
	patch := []byte(`{"skills":true}`)
	mock.ExpectExec("UPDATE resumes SET skills =").
		WithArgs(content, patch, int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateSection(context.Background(), 9, "skills", content, patch); err != nil {
		t.Fatalf("UpdateSection: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoLatestByParsedResumeSkipsUnused(t *testing.T) {
	repo, mock := newMockRepo(t)

	created := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT company_applied, role_applied, created_at FROM resumes WHERE parsed_resume_id =").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"company_applied", "role_applied", "created_at"}).
			AddRow("Acme", "Engineer", created))
	mock.ExpectQuery("SELECT company_applied, role_applied, created_at FROM resumes WHERE parsed_resume_id =").
		WithArgs(int64(2)).
		WillReturnError(sql.ErrNoRows)

	uses, err := repo.LatestByParsedResume(context.Background(), []int64{1, 2})
	if err != nil {
		t.Fatalf("LatestByParsedResume: %v", err)
	}
	if len(uses) != 1 {
		t.Fatalf("uses = %d, want 1", len(uses))
	}
	if uses[1].Company != "Acme" || !uses[1].CreatedAt.Equal(created) {
		t.Fatalf("use = %+v", uses[1])
	}
}

func TestPGRepoSetSummaryAnalysisFlagsImproved(t *testing.T) {
	repo, mock := newMockRepo(t)

	analysis := []byte(`{"enhanced_version":"Better summary"}`)
	mock.ExpectExec("UPDATE resumes SET summary_analysis =").
		WithArgs(analysis, "Better summary", int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SetSummaryAnalysis(context.Background(), 4, analysis, "Better summary"); err != nil {
		t.Fatalf("SetSummaryAnalysis: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdatePointMissing(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE experience_points SET text =").
		WithArgs("new text", nil, int64(77)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdatePoint(context.Background(), 77, "new text", nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestPGRepoDeletePointIgnoresMissing(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("DELETE FROM experience_points").
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.DeletePoint(context.Background(), 5); err != nil {
		t.Fatalf("DeletePoint: %v", err)
	}
}

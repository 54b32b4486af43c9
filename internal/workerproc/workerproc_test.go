package workerproc

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lex-technology/workwise-backend/internal/analyses"
	"github.com/lex-technology/workwise-backend/internal/applications"
	"github.com/lex-technology/workwise-backend/internal/credits"
	"github.com/lex-technology/workwise-backend/internal/llm"
	"github.com/lex-technology/workwise-backend/internal/queue"
)

type scriptedLLM struct {
	calls     int
	responses []string
	errs      []error
}

func (f *scriptedLLM) Complete(ctx context.Context, input llm.CompletionInput) (string, error) {
	idx := f.calls
	f.calls++
	if idx < len(f.errs) && f.errs[idx] != nil {
		return "", f.errs[idx]
	}
	if idx < len(f.responses) {
		return f.responses[idx], nil
	}
	return "", errors.New("no scripted response")
}

func (f *scriptedLLM) Model() string { return "fake-model" }

type noopCredits struct{}

func (noopCredits) Consume(ctx context.Context, userID string) (credits.Profile, error) {
	return credits.Profile{UserID: userID}, nil
}

func (noopCredits) LogRequest(ctx context.Context, entry credits.LogEntry) {}

func newProcessor(llmClient llm.Client, repo *applications.MemoryRepo) *Processor {
	return &Processor{
		Analyses: &analyses.Service{
			Apps:    &applications.Service{Repo: repo},
			Credits: noopCredits{},
			LLM:     llmClient,
		},
	}
}

func seedApplication(t *testing.T, repo *applications.MemoryRepo, userID string) int64 {
	t.Helper()
	ctx := context.Background()

	resumeID, err := repo.CreateHeader(ctx, applications.Application{
		UserID:         userID,
		CompanyApplied: "Acme",
		RoleApplied:    "Engineer",
		JobDescription: "Looking for a Go engineer with payments background.",
		Status:         applications.StatusWritingCV,
		ParsingStatus:  applications.StateCompleted,
		AnalysisStatus: applications.StatePending,
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateHeader: %v", err)
	}

	err = repo.UpdateSectionBuckets(ctx, resumeID, applications.SectionBuckets{
		ContactInformation: json.RawMessage(`{"name": "Dana Lim"}`),
		Education:          json.RawMessage(`[]`),
		Skills:             json.RawMessage(`[{"technical_skills": "Go, Postgres", "soft_skills": "Communication"}]`),
		Certificates:       json.RawMessage(`[]`),
		Miscellaneous:      json.RawMessage(`[]`),
		ExecutiveSummary:   "Platform engineer focused on payments.",
		PersonalProjects:   json.RawMessage(`[]`),
	})
	if err != nil {
		t.Fatalf("UpdateSectionBuckets: %v", err)
	}
	return resumeID
}

func TestProcessorCompletesJDAnalysis(t *testing.T) {
	repo := applications.NewMemoryRepo()
	client := &scriptedLLM{responses: []string{`{"jd_analysis": [{"line_text": "Go engineer", "has_skill": true}]}`}}
	p := newProcessor(client, repo)
	resumeID := seedApplication(t, repo, "user-1")

	msg := queue.NewJDAnalysis(resumeID, "user-1")
	if err := p.Handle(context.Background(), msg); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	app, err := repo.GetByID(context.Background(), resumeID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if app.AnalysisStatus != applications.StateCompleted {
		t.Fatalf("analysis status = %q, want completed", app.AnalysisStatus)
	}
	if !strings.Contains(string(app.JDAnalysis), "Go engineer") {
		t.Fatalf("jd_analysis not persisted: %s", app.JDAnalysis)
	}
}

func TestProcessorRecordsProviderFailure(t *testing.T) {
	repo := applications.NewMemoryRepo()
	client := &scriptedLLM{errs: []error{errors.New("provider down")}}
	p := newProcessor(client, repo)
	resumeID := seedApplication(t, repo, "user-1")

	msg := queue.NewJDAnalysis(resumeID, "user-1")
	err := p.Handle(context.Background(), msg)
	if err == nil {
		t.Fatal("expected error from failed analysis")
	}
	if !strings.Contains(err.Error(), "jd analysis application") {
		t.Fatalf("unexpected error %v", err)
	}

	app, getErr := repo.GetByID(context.Background(), resumeID)
	if getErr != nil {
		t.Fatalf("GetByID: %v", getErr)
	}
	if app.AnalysisStatus != applications.StateFailed {
		t.Fatalf("analysis status = %q, want failed", app.AnalysisStatus)
	}
}

func TestProcessorRejectsUnknownKind(t *testing.T) {
	p := newProcessor(&scriptedLLM{}, applications.NewMemoryRepo())

	err := p.Handle(context.Background(), queue.Message{Kind: "mystery", ApplicationID: 7, UserID: "user-1"})
	if err == nil || !strings.Contains(err.Error(), "unknown message kind") {
		t.Fatalf("expected unknown kind error, got %v", err)
	}
}

func TestProcessorRejectsMissingTarget(t *testing.T) {
	p := newProcessor(&scriptedLLM{}, applications.NewMemoryRepo())

	err := p.Handle(context.Background(), queue.Message{Kind: queue.KindJDAnalysis, UserID: "user-1"})
	if err == nil || !strings.Contains(err.Error(), "missing target") {
		t.Fatalf("expected missing target error, got %v", err)
	}
}

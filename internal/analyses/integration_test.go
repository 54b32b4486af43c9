package analyses_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lex-technology/workwise-backend/internal/applications"
	"github.com/lex-technology/workwise-backend/internal/bootstrap"
	"github.com/lex-technology/workwise-backend/internal/llm"
	"github.com/lex-technology/workwise-backend/internal/queue"
	"github.com/lex-technology/workwise-backend/internal/shared/apperr"
	"github.com/lex-technology/workwise-backend/internal/shared/auth"
	"github.com/lex-technology/workwise-backend/internal/shared/config"
	"github.com/lex-technology/workwise-backend/internal/workerproc"
)

type scriptedLLM struct {
	mu      sync.Mutex
	replies []string
	errs    []error
	calls   int
}

func (f *scriptedLLM) Complete(_ context.Context, _ llm.CompletionInput) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.calls
	f.calls++
	if idx < len(f.errs) && f.errs[idx] != nil {
		return "", f.errs[idx]
	}
	if idx < len(f.replies) {
		return f.replies[idx], nil
	}
	return "", errors.New("no scripted reply")
}

func (f *scriptedLLM) Model() string { return "stub-model" }

// captureQueue records enqueued messages instead of sending them anywhere.
type captureQueue struct {
	mu   sync.Mutex
	msgs []queue.Message
}

func (q *captureQueue) Send(ctx context.Context, msg queue.Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.msgs = append(q.msgs, msg)
	return nil
}

func (q *captureQueue) drain() []queue.Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.msgs
	q.msgs = nil
	return out
}

func newApp(t *testing.T, stub *scriptedLLM) *bootstrap.App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	app, err := bootstrap.Build(config.Config{
		Env:             "dev",
		CORSAllowOrigin: []string{"http://localhost:3000"},
		ObjectStoreType: "local",
		LocalStoreDir:   t.TempDir(),
		LLMProvider:     "placeholder",
	})
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	app.AnalysesService.LLM = stub
	return app
}

func bearerFor(t *testing.T, sub string) string {
	t.Helper()
	token, err := auth.SignJWT(auth.Claims{Sub: sub, Email: sub + "@example.com"})
	if err != nil {
		t.Fatalf("sign jwt: %v", err)
	}
	return "Bearer " + token
}

// seedApplication inserts an owned application with sections and one
// experience directly through the repo.
func seedApplication(t *testing.T, app *bootstrap.App, userID string) int64 {
	t.Helper()
	ctx := context.Background()

	resumeID, err := app.ApplicationsRepo.CreateHeader(ctx, applications.Application{
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

	err = app.ApplicationsRepo.UpdateSectionBuckets(ctx, resumeID, applications.SectionBuckets{
		ContactInformation: json.RawMessage(`{"name": "Dana Lim", "email": "dana@example.com"}`),
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

	expID, err := app.ApplicationsRepo.InsertExperience(ctx, applications.ProfessionalExperience{
		ResumeID:     resumeID,
		Position:     0,
		Organization: "Acme",
		Role:         "Senior Engineer",
		Duration:     "2019 - 2024",
		Location:     "Singapore",
	})
	if err != nil {
		t.Fatalf("InsertExperience: %v", err)
	}
	if _, err := app.ApplicationsRepo.InsertPoint(ctx, applications.ExperiencePoint{
		ExperienceID: expID,
		Position:     0,
		Text:         "Led zero-downtime migrations",
	}); err != nil {
		t.Fatalf("InsertPoint: %v", err)
	}
	return resumeID
}

func doJSON(app *bootstrap.App, method, path, token string, body []byte) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", token)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	return resp
}

func TestAnalyzeJDQueuedThroughWorker(t *testing.T) {
	stub := &scriptedLLM{replies: []string{`{"jd_analysis": [{"line_text": "Go engineer", "has_skill": true}]}`}}
	app := newApp(t, stub)
	cq := &captureQueue{}
	app.AnalysesService.JobQueue = cq

	token := bearerFor(t, "google:owner")
	resumeID := seedApplication(t, app, "google:owner")
	path := "/api/analyze-jd/" + strconv.FormatInt(resumeID, 10)

	resp := doJSON(app, http.MethodPost, path, token, nil)
	if resp.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202 (body %s)", resp.Code, resp.Body.String())
	}
	var queued struct {
		Status   string `json:"status"`
		ResumeID int64  `json:"resume_id"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &queued); err != nil {
		t.Fatalf("decode queued response: %v", err)
	}
	if queued.Status != "queued" || queued.ResumeID != resumeID {
		t.Fatalf("queued response = %+v", queued)
	}

	// Nothing ran yet; the row is still pending.
	check := doJSON(app, http.MethodGet, "/api/check-analysis/"+strconv.FormatInt(resumeID, 10), token, nil)
	if check.Code != http.StatusOK {
		t.Fatalf("check status = %d", check.Code)
	}
	if !strings.Contains(check.Body.String(), `"analysis_status":"pending"`) {
		t.Fatalf("expected pending analysis, got %s", check.Body.String())
	}

	msgs := cq.drain()
	if len(msgs) != 1 || msgs[0].Kind != queue.KindJDAnalysis {
		t.Fatalf("queued messages = %+v", msgs)
	}

	processor := &workerproc.Processor{Analyses: app.AnalysesService}
	if err := processor.Handle(context.Background(), msgs[0]); err != nil {
		t.Fatalf("worker handle: %v", err)
	}

	check = doJSON(app, http.MethodGet, "/api/check-analysis/"+strconv.FormatInt(resumeID, 10), token, nil)
	if !strings.Contains(check.Body.String(), `"analysis_status":"completed"`) {
		t.Fatalf("expected completed analysis, got %s", check.Body.String())
	}
	if !strings.Contains(check.Body.String(), "Go engineer") {
		t.Fatalf("jd analysis payload missing: %s", check.Body.String())
	}
}

func TestAnalyzeJDProviderTimeout(t *testing.T) {
	stub := &scriptedLLM{errs: []error{fmt.Errorf("chat completion: %w", apperr.ErrProviderTimeout)}}
	app := newApp(t, stub)

	token := bearerFor(t, "google:owner")
	resumeID := seedApplication(t, app, "google:owner")

	resp := doJSON(app, http.MethodPost, "/api/analyze-jd/"+strconv.FormatInt(resumeID, 10), token, nil)
	if resp.Code != http.StatusGatewayTimeout {
		t.Fatalf("status = %d, want 504 (body %s)", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), "provider_timeout") {
		t.Fatalf("body = %s", resp.Body.String())
	}

	check := doJSON(app, http.MethodGet, "/api/check-analysis/"+strconv.FormatInt(resumeID, 10), token, nil)
	if !strings.Contains(check.Body.String(), `"analysis_status":"failed"`) {
		t.Fatalf("expected failed analysis, got %s", check.Body.String())
	}
}

func TestCoverLetterLifecycle(t *testing.T) {
	stub := &scriptedLLM{replies: []string{"Dear Hiring Manager,\n\nI build payment rails in Go.\n\nBest,\nDana"}}
	app := newApp(t, stub)

	token := bearerFor(t, "google:owner")
	resumeID := seedApplication(t, app, "google:owner")

	payload := []byte(`{"resume_id": ` + strconv.FormatInt(resumeID, 10) + `, "tone": "professional"}`)
	resp := doJSON(app, http.MethodPost, "/api/generate-cover-letter", token, payload)
	if resp.Code != http.StatusOK {
		t.Fatalf("generate status = %d (body %s)", resp.Code, resp.Body.String())
	}
	var generated struct {
		CoverLetter string `json:"cover_letter"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &generated); err != nil {
		t.Fatalf("decode generated: %v", err)
	}
	if !strings.Contains(generated.CoverLetter, "payment rails") {
		t.Fatalf("letter = %q", generated.CoverLetter)
	}

	path := "/api/get-cover-letter/" + strconv.FormatInt(resumeID, 10)
	resp = doJSON(app, http.MethodGet, path, token, nil)
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), "payment rails") {
		t.Fatalf("get status = %d body %s", resp.Code, resp.Body.String())
	}

	edited := []byte(`{"edited_letter": "Dear Team, revised draft."}`)
	resp = doJSON(app, http.MethodPut, "/api/save-cover-letter/"+strconv.FormatInt(resumeID, 10), token, edited)
	if resp.Code != http.StatusOK {
		t.Fatalf("save status = %d body %s", resp.Code, resp.Body.String())
	}

	resp = doJSON(app, http.MethodGet, path, token, nil)
	if !strings.Contains(resp.Body.String(), "revised draft") {
		t.Fatalf("saved letter not returned: %s", resp.Body.String())
	}
}

package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
)

func newTestRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api", func(c *gin.Context) {
		c.Set("userId", "user-1")
	})
	h.RegisterRoutes(api)
	return r
}

func formFields() map[string]string {
	return map[string]string{
		"companyApplied": "Acme",
		"roleApplied":    "Engineer",
		"jobDescription": "Build payment rails in Go.",
	}
}

func multipartBody(t *testing.T, fields map[string]string, fileName string, fileData []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if fileName != "" {
		fw, err := writer.CreateFormFile("file", fileName)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(fileData); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func postParseResume(t *testing.T, router *gin.Engine, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/parse-resume", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func decodeErrorEnvelope(t *testing.T, resp *httptest.ResponseRecorder) (string, string) {
	t.Helper()
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return envelope.Error.Code, envelope.Error.Message
}

func TestParseResumeEndpointSuccess(t *testing.T) {
	f := newFixture(t)
	router := newTestRouter(NewHandler(f.svc))

	body, contentType := multipartBody(t, formFields(), "resume.txt", []byte(resumeText))
	resp := postParseResume(t, router, body, contentType)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var out ParseResumeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Status != "success" {
		t.Fatalf("unexpected status %q", out.Status)
	}
	if out.ResumeID <= 0 {
		t.Fatalf("expected a resume id, got %d", out.ResumeID)
	}
	if out.IsReused {
		t.Fatalf("first upload should not be reused")
	}
	if out.Message != "Resume processed successfully" {
		t.Fatalf("unexpected message %q", out.Message)
	}
}

func TestParseResumeEndpointMissingField(t *testing.T) {
	f := newFixture(t)
	router := newTestRouter(NewHandler(f.svc))

	fields := formFields()
	delete(fields, "companyApplied")
	body, contentType := multipartBody(t, fields, "resume.txt", []byte(resumeText))
	resp := postParseResume(t, router, body, contentType)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	code, message := decodeErrorEnvelope(t, resp)
	if code != "validation_error" || message != "companyApplied is required" {
		t.Fatalf("unexpected error %q / %q", code, message)
	}
	if got := f.llm.callCount(); got != 0 {
		t.Fatalf("validation failures must not reach the provider, got %d calls", got)
	}
}

func TestParseResumeEndpointNoFileNoReference(t *testing.T) {
	f := newFixture(t)
	router := newTestRouter(NewHandler(f.svc))

	body, contentType := multipartBody(t, formFields(), "", nil)
	resp := postParseResume(t, router, body, contentType)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if _, message := decodeErrorEnvelope(t, resp); message != "file or parsed_resume_id is required" {
		t.Fatalf("unexpected message %q", message)
	}
}

func TestParseResumeEndpointInvalidReference(t *testing.T) {
	f := newFixture(t)
	router := newTestRouter(NewHandler(f.svc))

	fields := formFields()
	fields["parsed_resume_id"] = "abc"
	body, contentType := multipartBody(t, fields, "", nil)
	resp := postParseResume(t, router, body, contentType)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if _, message := decodeErrorEnvelope(t, resp); message != "parsed_resume_id must be a positive integer" {
		t.Fatalf("unexpected message %q", message)
	}
}

func TestParseResumeEndpointReference(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	router := newTestRouter(NewHandler(f.svc))

	seeded, err := f.svc.Process(ctx, uploadInput("resume.txt"))
	if err != nil {
		t.Fatalf("seed Process: %v", err)
	}
	app, _, err := f.apps.GetFull(ctx, "user-1", seeded.ResumeID)
	if err != nil {
		t.Fatalf("GetFull: %v", err)
	}

	fields := formFields()
	fields["parsed_resume_id"] = strconv.FormatInt(*app.ParsedResumeID, 10)
	body, contentType := multipartBody(t, fields, "", nil)
	resp := postParseResume(t, router, body, contentType)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var out ParseResumeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !out.IsReused {
		t.Fatalf("reference submissions should report reuse")
	}
	if got := f.llm.callCount(); got != 1 {
		t.Fatalf("reference must not reach the provider, got %d calls", got)
	}
}

func TestParseResumeEndpointOversizeUpload(t *testing.T) {
	f := newFixture(t)
	h := &Handler{Svc: f.svc, MaxUploadBytes: 64}
	router := newTestRouter(h)

	big := bytes.Repeat([]byte("a"), 4096)
	body, contentType := multipartBody(t, formFields(), "resume.txt", big)
	resp := postParseResume(t, router, body, contentType)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if _, message := decodeErrorEnvelope(t, resp); message != "file exceeds the upload size limit" {
		t.Fatalf("unexpected message %q", message)
	}
	if got := f.llm.callCount(); got != 0 {
		t.Fatalf("oversize uploads must not reach the provider, got %d calls", got)
	}
}

func TestParseResumeEndpointUnsupportedFormat(t *testing.T) {
	f := newFixture(t)
	router := newTestRouter(NewHandler(f.svc))

	body, contentType := multipartBody(t, formFields(), "resume.exe", []byte(resumeText))
	resp := postParseResume(t, router, body, contentType)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if code, _ := decodeErrorEnvelope(t, resp); code != "unsupported_format" {
		t.Fatalf("unexpected code %q", code)
	}
}

package analyses

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lex-technology/workwise-backend/internal/applications"
	"github.com/lex-technology/workwise-backend/internal/credits"
	"github.com/lex-technology/workwise-backend/internal/llm"
	"github.com/lex-technology/workwise-backend/internal/queue"
	"github.com/lex-technology/workwise-backend/internal/shared/apperr"
	"github.com/lex-technology/workwise-backend/internal/shared/metrics"
	"github.com/lex-technology/workwise-backend/internal/shared/telemetry"
)

// CreditsGateway is the slice of the credits service the orchestrators use:
// consume-before-call gating and the request log.
type CreditsGateway interface {
	Consume(ctx context.Context, userID string) (credits.Profile, error)
	LogRequest(ctx context.Context, entry credits.LogEntry)
}

// Service runs the analysis orchestrators. Each one loads the owned
// application, assembles the prompt context from stored rows, calls the
// provider, validates the payload shape, and persists the result onto the
// owning row. The JD match is free; the other four consume a credit before
// the provider call.
type Service struct {
	Apps    *applications.Service
	Credits CreditsGateway
	LLM     llm.Client

	// JobQueue offloads JD runs to a background worker. Nil runs them
	// inline.
	JobQueue queue.Client
}

// StartJD either runs the JD analysis inline or hands it to the queue. The
// returned payload is nil when the run was queued; the worker completes it.
func (s *Service) StartJD(ctx context.Context, userID string, resumeID int64) (json.RawMessage, bool, error) {
	if s.JobQueue == nil {
		payload, err := s.AnalyzeJD(ctx, userID, resumeID)
		return payload, false, err
	}

	// Ownership is checked here so a queued run never fails on it later.
	if _, err := s.Apps.GetOwned(ctx, userID, resumeID); err != nil {
		return nil, false, err
	}

	msg := queue.NewJDAnalysis(resumeID, userID)
	if err := s.JobQueue.Send(ctx, msg); err != nil {
		return nil, false, fmt.Errorf("enqueue jd analysis: %w", err)
	}
	telemetry.Info("analysis.queued", map[string]any{
		"service":    "jd_analysis",
		"resume_id":  resumeID,
		"user_id":    userID,
		"request_id": msg.RequestID,
	})
	return nil, true, nil
}

// AnalyzeJD scores every job-description line against the stored resume and
// persists the line-by-line match report. The row's analysis_status tracks
// the run so polling clients can follow it.
func (s *Service) AnalyzeJD(ctx context.Context, userID string, resumeID int64) (json.RawMessage, error) {
	app, experiences, err := s.Apps.GetFull(ctx, userID, resumeID)
	if err != nil {
		return nil, err
	}

	metrics.IncAnalysisStarted()
	start := time.Now()
	if err := s.Apps.Repo.SetAnalysisStatus(ctx, resumeID, applications.StateInProgress); err != nil {
		metrics.IncAnalysisFailed()
		return nil, err
	}
	telemetry.Info("analysis.status", map[string]any{
		"service":           "jd_analysis",
		"resume_id":         resumeID,
		"user_id":           userID,
		"status_transition": "pending->in_progress",
	})

	sections := formatResumeSections(app, experiences)
	prompt := fmt.Sprintf(jdPromptTemplate,
		app.JobDescription, sections.Skills, sections.Experience, sections.Education, sections.Projects)

	raw, err := s.LLM.Complete(ctx, llm.CompletionInput{
		System:      jdSystemPrompt,
		User:        prompt,
		JSONMode:    true,
		Temperature: analysisTemperature,
		MaxTokens:   jdMaxTokens,
	})
	if err != nil {
		s.failJD(resumeID, userID, err)
		return nil, err
	}

	payload, err := decodeListPayload(raw, "jd_analysis")
	if err != nil {
		s.failJD(resumeID, userID, err)
		return nil, err
	}

	if err := s.Apps.Repo.SetJDAnalysis(ctx, resumeID, payload); err != nil {
		s.failJD(resumeID, userID, err)
		return nil, err
	}
	if err := s.Apps.Repo.SetAnalysisStatus(ctx, resumeID, applications.StateCompleted); err != nil {
		metrics.IncAnalysisFailed()
		return nil, err
	}

	metrics.IncAnalysisCompleted()
	telemetry.Info("analysis.status", map[string]any{
		"service":           "jd_analysis",
		"resume_id":         resumeID,
		"user_id":           userID,
		"status_transition": "in_progress->completed",
		"duration_ms":       durationMs(start, time.Now()),
	})
	s.Credits.LogRequest(ctx, credits.LogEntry{
		UserID:      userID,
		ServiceName: "jd_analysis",
		Status:      "success",
		Metadata: map[string]any{
			"jd_length":       len(app.JobDescription),
			"resume_sections": []string{"skills", "professional_experience", "education", "personal_projects"},
		},
	})
	return payload, nil
}

// AnalyzeSkills compares the stored skills and work history against the job
// description and persists the add/remove/missing suggestions.
func (s *Service) AnalyzeSkills(ctx context.Context, userID string, resumeID int64, additionalContext json.RawMessage) (json.RawMessage, error) {
	app, experiences, err := s.Apps.GetFull(ctx, userID, resumeID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(app.JobDescription) == "" {
		return nil, ErrJobDescriptionRequired
	}
	if _, err := s.Credits.Consume(ctx, userID); err != nil {
		return nil, err
	}

	metrics.IncAnalysisStarted()
	start := time.Now()

	resumeContext, err := json.Marshal(map[string]any{
		"skills":                  rawOrEmptyList(app.Skills),
		"professional_experience": experiencesContext(experiences),
		"education":               rawOrEmptyList(app.Education),
	})
	if err != nil {
		metrics.IncAnalysisFailed()
		return nil, fmt.Errorf("marshal resume context: %w", err)
	}

	prompt := fmt.Sprintf("Job Description: %s\n\nResume Context: %s", app.JobDescription, resumeContext)
	if len(additionalContext) > 0 {
		prompt += fmt.Sprintf("\nAdditional Context: %s", additionalContext)
	}
	user := "Please analyze the following resume data and provide a JSON response according to the specified format.\n\n" + prompt

	raw, err := s.LLM.Complete(ctx, llm.CompletionInput{
		System:      skillsSystemPrompt,
		User:        user,
		JSONMode:    true,
		Temperature: analysisTemperature,
		MaxTokens:   skillsMaxTokens,
	})
	if err != nil {
		s.failGated(ctx, userID, "skills_analysis", "error", resumeID, err)
		return nil, err
	}

	payload, _, err := decodeObjectPayload(raw, "added_skills", "missing_skills")
	if err != nil {
		s.failGated(ctx, userID, "skills_analysis", "error", resumeID, err)
		return nil, err
	}

	if err := s.Apps.Repo.SetSkillsAnalysis(ctx, resumeID, payload); err != nil {
		s.failGated(ctx, userID, "skills_analysis", "error", resumeID, err)
		return nil, err
	}

	metrics.IncAnalysisCompleted()
	telemetry.Info("analysis.completed", map[string]any{
		"service":     "skills_analysis",
		"resume_id":   resumeID,
		"user_id":     userID,
		"duration_ms": durationMs(start, time.Now()),
	})
	s.Credits.LogRequest(ctx, credits.LogEntry{
		UserID:      userID,
		ServiceName: "skills_analysis",
		Status:      "success",
		Metadata: map[string]any{
			"resume_id":           resumeID,
			"has_job_description": true,
			"model":               s.LLM.Model(),
		},
		CreditsUsed: true,
	})
	return payload, nil
}

// AnalyzeSummary rewrites the executive summary against the job description
// and questionnaire answers. The enhanced text replaces the stored summary
// and the section is flagged as AI improved.
func (s *Service) AnalyzeSummary(ctx context.Context, userID string, resumeID int64, answers map[string]string, additionalContext json.RawMessage) (json.RawMessage, error) {
	app, experiences, err := s.Apps.GetFull(ctx, userID, resumeID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(app.JobDescription) == "" {
		return nil, ErrJobDescriptionRequired
	}
	if _, err := s.Credits.Consume(ctx, userID); err != nil {
		return nil, err
	}

	metrics.IncAnalysisStarted()
	start := time.Now()

	contextMap := map[string]any{
		"questionnaire_answers": answers,
		"job_description":       app.JobDescription,
		"current_resume": map[string]any{
			"executive_summary":       app.ExecutiveSummary,
			"professional_experience": experiencesContext(experiences),
			"education":               rawOrEmptyList(app.Education),
		},
	}
	if len(additionalContext) > 0 {
		var extra map[string]any
		if err := json.Unmarshal(additionalContext, &extra); err != nil {
			metrics.IncAnalysisFailed()
			return nil, fmt.Errorf("analysis: additional_context must be a JSON object: %w", apperr.ErrInvalidInput)
		}
		for k, v := range extra {
			contextMap[k] = v
		}
	}
	user, err := json.Marshal(contextMap)
	if err != nil {
		metrics.IncAnalysisFailed()
		return nil, fmt.Errorf("marshal summary context: %w", err)
	}

	raw, err := s.LLM.Complete(ctx, llm.CompletionInput{
		System:      summarySystemPrompt,
		User:        string(user),
		JSONMode:    true,
		Temperature: analysisTemperature,
		MaxTokens:   summaryMaxTokens,
	})
	if err != nil {
		s.failGated(ctx, userID, "executive_summary_analysis", "failed", resumeID, err)
		return nil, err
	}

	payload, fields, err := decodeObjectPayload(raw, "enhanced_version")
	if err != nil {
		s.failGated(ctx, userID, "executive_summary_analysis", "failed", resumeID, err)
		return nil, err
	}
	content, err := enhancedSummaryContent(fields)
	if err != nil {
		s.failGated(ctx, userID, "executive_summary_analysis", "failed", resumeID, err)
		return nil, err
	}

	if err := s.Apps.Repo.SetSummaryAnalysis(ctx, resumeID, payload, content); err != nil {
		s.failGated(ctx, userID, "executive_summary_analysis", "failed", resumeID, err)
		return nil, err
	}

	metrics.IncAnalysisCompleted()
	telemetry.Info("analysis.completed", map[string]any{
		"service":     "executive_summary_analysis",
		"resume_id":   resumeID,
		"user_id":     userID,
		"duration_ms": durationMs(start, time.Now()),
	})
	s.Credits.LogRequest(ctx, credits.LogEntry{
		UserID:      userID,
		ServiceName: "executive_summary_analysis",
		Status:      "success",
		Metadata: map[string]any{
			"job_description_length": len(app.JobDescription),
			"has_existing_summary":   app.ExecutiveSummary != "",
		},
		CreditsUsed: true,
	})
	return payload, nil
}

// AnalyzeExperience scores one experience entry's bullets against the job
// description. Returned points are mapped back to stored point IDs by their
// original text; rewrites that match nothing become new points so the client
// can reference them.
func (s *Service) AnalyzeExperience(ctx context.Context, userID string, resumeID, experienceID int64) (json.RawMessage, error) {
	app, err := s.Apps.GetOwned(ctx, userID, resumeID)
	if err != nil {
		return nil, err
	}
	exp, err := s.Apps.Repo.GetExperience(ctx, experienceID)
	if err != nil {
		return nil, err
	}
	if exp.ResumeID != app.ID {
		return nil, applications.ErrNotFound
	}
	if strings.TrimSpace(app.JobDescription) == "" {
		return nil, ErrJobDescriptionRequired
	}
	if _, err := s.Credits.Consume(ctx, userID); err != nil {
		return nil, err
	}

	metrics.IncAnalysisStarted()
	start := time.Now()

	points := make([]map[string]any, 0, len(exp.Points))
	for _, p := range exp.Points {
		points = append(points, map[string]any{"id": p.ID, "text": p.Text})
	}
	user, err := json.Marshal(map[string]any{
		"experience": map[string]any{
			"id":           exp.ID,
			"organization": exp.Organization,
			"role":         exp.Role,
			"duration":     exp.Duration,
			"location":     exp.Location,
			"points":       points,
		},
		"job_description": app.JobDescription,
	})
	if err != nil {
		metrics.IncAnalysisFailed()
		return nil, fmt.Errorf("marshal experience context: %w", err)
	}

	raw, err := s.LLM.Complete(ctx, llm.CompletionInput{
		System:      experienceSystemPrompt,
		User:        string(user),
		JSONMode:    true,
		Temperature: analysisTemperature,
		MaxTokens:   experienceMaxTokens,
	})
	if err != nil {
		s.failExperience(ctx, userID, experienceID, err)
		return nil, err
	}

	payload, err := s.attachPointIDs(ctx, raw, exp)
	if err != nil {
		s.failExperience(ctx, userID, experienceID, err)
		return nil, err
	}

	if err := s.Apps.Repo.SetExperienceAnalysis(ctx, experienceID, payload); err != nil {
		s.failExperience(ctx, userID, experienceID, err)
		return nil, err
	}

	metrics.IncAnalysisCompleted()
	telemetry.Info("analysis.completed", map[string]any{
		"service":       "experience_analysis",
		"resume_id":     resumeID,
		"experience_id": experienceID,
		"user_id":       userID,
		"duration_ms":   durationMs(start, time.Now()),
	})
	s.Credits.LogRequest(ctx, credits.LogEntry{
		UserID:      userID,
		ServiceName: "experience_analysis",
		Status:      "success",
		Metadata: map[string]any{
			"experience_id":   experienceID,
			"points_analyzed": len(exp.Points),
		},
		CreditsUsed: true,
	})
	return payload, nil
}

// attachPointIDs validates the experience payload and stamps each analyzed
// point with the stored point ID matching its original text. Unmatched texts
// are inserted as new points appended after the existing ones.
func (s *Service) attachPointIDs(ctx context.Context, raw string, exp applications.ProfessionalExperience) (json.RawMessage, error) {
	cleaned := llm.CleanJSONResponse(raw)
	var payload map[string]any
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, fmt.Errorf("%w: not a JSON object", ErrMalformedResponse)
	}
	inner, ok := payload["experience_analysis"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: missing experience_analysis", ErrMalformedResponse)
	}
	entries, ok := inner["points_analysis"].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: missing points_analysis", ErrMalformedResponse)
	}

	existing := make(map[string]int64, len(exp.Points))
	for _, p := range exp.Points {
		existing[p.Text] = p.ID
	}
	next := len(exp.Points)
	for _, item := range entries {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: points_analysis entry is not an object", ErrMalformedResponse)
		}
		text, _ := entry["original_text"].(string)
		if id, found := existing[text]; found {
			entry["point_id"] = id
			continue
		}
		id, err := s.Apps.Repo.InsertPoint(ctx, applications.ExperiencePoint{
			ExperienceID: exp.ID,
			Position:     next,
			Text:         text,
		})
		if err != nil {
			return nil, err
		}
		next++
		existing[text] = id
		entry["point_id"] = id
	}

	out, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal experience analysis: %w", err)
	}
	return out, nil
}

// CoverLetterInput carries the generation request. Answers are keyed by
// questionnaire ID.
type CoverLetterInput struct {
	ResumeID int64
	Tone     string
	Answers  map[string]string
}

// CoverLetterResult is the generated letter plus the metadata persisted
// alongside it.
type CoverLetterResult struct {
	Letter   string
	Metadata json.RawMessage
}

// GenerateCoverLetter writes a letter from the stored job description, work
// history, and questionnaire answers. Unlike the analyses this is plain
// prose, not JSON.
func (s *Service) GenerateCoverLetter(ctx context.Context, userID string, in CoverLetterInput) (CoverLetterResult, error) {
	app, experiences, err := s.Apps.GetFull(ctx, userID, in.ResumeID)
	if err != nil {
		return CoverLetterResult{}, err
	}
	if strings.TrimSpace(app.JobDescription) == "" {
		return CoverLetterResult{}, ErrJobDescriptionRequired
	}
	if _, err := s.Credits.Consume(ctx, userID); err != nil {
		return CoverLetterResult{}, err
	}

	metrics.IncAnalysisStarted()
	start := time.Now()

	tone := in.Tone
	if tone == "" {
		tone = "professional"
	}
	instruction, ok := toneInstructions[tone]
	if !ok {
		instruction = toneInstructions["professional"]
	}
	answers := in.Answers
	if answers == nil {
		answers = map[string]string{}
	}

	var contact struct {
		Name string `json:"name"`
	}
	_ = json.Unmarshal(app.ContactInformation, &contact)

	prompt := fmt.Sprintf(coverLetterTemplate,
		contact.Name, app.JobDescription, formatExperienceBlocks(experiences), formatAnswers(answers), instruction)

	raw, err := s.LLM.Complete(ctx, llm.CompletionInput{
		System:      coverLetterSystemPrompt,
		User:        prompt,
		Temperature: analysisTemperature,
		MaxTokens:   coverLetterMaxTokens,
	})
	if err != nil {
		s.failGated(ctx, userID, "cover_letter_generation", "error", in.ResumeID, err)
		return CoverLetterResult{}, err
	}
	letter := strings.TrimSpace(raw)

	metadata, err := json.Marshal(map[string]any{
		"tone":         tone,
		"answers":      answers,
		"generated_at": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		metrics.IncAnalysisFailed()
		return CoverLetterResult{}, fmt.Errorf("marshal cover letter metadata: %w", err)
	}
	if err := s.Apps.Repo.SetCoverLetter(ctx, in.ResumeID, letter, metadata); err != nil {
		s.failGated(ctx, userID, "cover_letter_generation", "error", in.ResumeID, err)
		return CoverLetterResult{}, err
	}

	metrics.IncAnalysisCompleted()
	telemetry.Info("analysis.completed", map[string]any{
		"service":     "cover_letter_generation",
		"resume_id":   in.ResumeID,
		"user_id":     userID,
		"duration_ms": durationMs(start, time.Now()),
	})
	s.Credits.LogRequest(ctx, credits.LogEntry{
		UserID:      userID,
		ServiceName: "cover_letter_generation",
		Status:      "success",
		Metadata:    map[string]any{"resume_id": in.ResumeID},
		CreditsUsed: true,
	})
	return CoverLetterResult{Letter: letter, Metadata: metadata}, nil
}

// StoredSkillsAnalysis returns the persisted skills analysis, nil when none
// has run yet.
func (s *Service) StoredSkillsAnalysis(ctx context.Context, userID string, resumeID int64) (json.RawMessage, error) {
	app, err := s.Apps.GetOwned(ctx, userID, resumeID)
	if err != nil {
		return nil, err
	}
	return app.SkillsAnalysis, nil
}

// StoredSummaryAnalysis returns the persisted summary analysis, nil when
// none has run yet.
func (s *Service) StoredSummaryAnalysis(ctx context.Context, userID string, resumeID int64) (json.RawMessage, error) {
	app, err := s.Apps.GetOwned(ctx, userID, resumeID)
	if err != nil {
		return nil, err
	}
	return app.SummaryAnalysis, nil
}

// StoredExperienceAnalysis returns the persisted analysis for one experience
// entry, nil when none has run yet. Ownership is checked through the parent
// application.
func (s *Service) StoredExperienceAnalysis(ctx context.Context, userID string, experienceID int64) (json.RawMessage, error) {
	exp, err := s.Apps.Repo.GetExperience(ctx, experienceID)
	if err != nil {
		return nil, err
	}
	if _, err := s.Apps.GetOwned(ctx, userID, exp.ResumeID); err != nil {
		return nil, err
	}
	return exp.ExperienceAnalysis, nil
}

// failJD marks the row failed and records the cause in metadata. The writes
// use a fresh context so a cancelled request still leaves the terminal state
// visible to polling clients.
func (s *Service) failJD(resumeID int64, userID string, cause error) {
	metrics.IncAnalysisFailed()
	bg := context.Background()
	if err := s.Apps.Repo.SetAnalysisStatus(bg, resumeID, applications.StateFailed); err != nil {
		telemetry.Error("analysis.fail_update", map[string]any{"resume_id": resumeID, "error": err.Error()})
	}
	patch, err := json.Marshal(map[string]string{"error": sanitizeError(cause)})
	if err == nil {
		if err := s.Apps.Repo.MergeMetadata(bg, resumeID, patch); err != nil {
			telemetry.Error("analysis.fail_update", map[string]any{"resume_id": resumeID, "error": err.Error()})
		}
	}
	telemetry.Info("analysis.status", map[string]any{
		"service":           "jd_analysis",
		"resume_id":         resumeID,
		"user_id":           userID,
		"status_transition": "in_progress->failed",
		"error":             sanitizeError(cause),
	})
	s.Credits.LogRequest(bg, credits.LogEntry{
		UserID:      userID,
		ServiceName: "jd_analysis",
		Status:      "failed",
		Metadata:    map[string]any{"error": sanitizeError(cause)},
	})
}

// failGated records a failed gated analysis in the request log.
func (s *Service) failGated(ctx context.Context, userID, service, status string, resumeID int64, cause error) {
	metrics.IncAnalysisFailed()
	telemetry.Warn("analysis.failed", map[string]any{
		"service":   service,
		"resume_id": resumeID,
		"user_id":   userID,
		"error":     sanitizeError(cause),
	})
	s.Credits.LogRequest(ctx, credits.LogEntry{
		UserID:      userID,
		ServiceName: service,
		Status:      status,
		Metadata:    map[string]any{"error": sanitizeError(cause)},
		CreditsUsed: true,
	})
}

func (s *Service) failExperience(ctx context.Context, userID string, experienceID int64, cause error) {
	metrics.IncAnalysisFailed()
	telemetry.Warn("analysis.failed", map[string]any{
		"service":       "experience_analysis",
		"experience_id": experienceID,
		"user_id":       userID,
		"error":         sanitizeError(cause),
	})
	s.Credits.LogRequest(ctx, credits.LogEntry{
		UserID:      userID,
		ServiceName: "experience_analysis",
		Status:      "error",
		Metadata: map[string]any{
			"experience_id": experienceID,
			"error":         sanitizeError(cause),
		},
		CreditsUsed: true,
	})
}

// sanitizeError flattens an error chain into a single log-safe line.
func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.TrimSpace(msg)
	if len(msg) > 500 {
		msg = msg[:500]
	}
	return msg
}

func durationMs(start, end time.Time) float64 {
	return float64(end.Sub(start).Microseconds()) / 1000
}

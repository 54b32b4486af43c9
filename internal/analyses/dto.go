package analyses

import "encoding/json"

type analyzeSkillsRequest struct {
	ResumeID          int64           `json:"resumeId"`
	AdditionalContext json.RawMessage `json:"additional_context"`
}

type analyzeSummaryRequest struct {
	ResumeID          int64             `json:"resumeId"`
	Answers           map[string]string `json:"answers"`
	AdditionalContext json.RawMessage   `json:"additional_context"`
}

type analyzeExperienceRequest struct {
	ResumeID     int64 `json:"resumeId"`
	ExperienceID int64 `json:"experienceId"`
}

type generateCoverLetterRequest struct {
	ResumeID int64             `json:"resume_id"`
	Tone     string            `json:"tone"`
	Answers  map[string]string `json:"answers"`
}

// JDAnalysisResponse wraps the line-by-line JD match report. Queued runs
// omit the analysis; the worker fills the row in later.
type JDAnalysisResponse struct {
	Status   string          `json:"status"`
	ResumeID int64           `json:"resume_id"`
	Analysis json.RawMessage `json:"analysis,omitempty"`
}

// AnalysisResponse wraps an analysis payload. A nil payload marshals as
// null, which clients read as "not run yet".
type AnalysisResponse struct {
	Analysis json.RawMessage `json:"analysis"`
}

// GeneratedCoverLetterResponse carries the fresh letter plus the metadata
// stored alongside it.
type GeneratedCoverLetterResponse struct {
	CoverLetter string          `json:"cover_letter"`
	Metadata    json.RawMessage `json:"metadata"`
}

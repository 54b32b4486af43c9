package ingest

// ParseResumeResponse is the upload endpoint's reply. IsReused tells the
// client the resume text was served from the parse cache.
type ParseResumeResponse struct {
	Status   string `json:"status"`
	ResumeID int64  `json:"resume_id"`
	Message  string `json:"message"`
	IsReused bool   `json:"is_reused"`
}

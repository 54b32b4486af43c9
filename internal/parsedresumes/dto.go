package parsedresumes

import "time"

// LastUseResponse describes the most recent application built from a
// parsed resume.
type LastUseResponse struct {
	Company string    `json:"company"`
	Role    string    `json:"role"`
	Date    time.Time `json:"date"`
}

// ParsedResumeResponse is the outward-facing listing item.
type ParsedResumeResponse struct {
	ID               int64            `json:"id"`
	OriginalFilename string           `json:"original_filename"`
	CreatedAt        time.Time        `json:"created_at"`
	FormattedDate    time.Time        `json:"formatted_date"`
	LastUsed         *LastUseResponse `json:"last_used,omitempty"`
}

func toResponse(pr ParsedResume, lastUsed map[int64]LastUse) ParsedResumeResponse {
	resp := ParsedResumeResponse{
		ID:               pr.ID,
		OriginalFilename: pr.OriginalFilename,
		CreatedAt:        pr.CreatedAt,
		FormattedDate:    pr.CreatedAt,
	}
	if resp.OriginalFilename == "" {
		resp.OriginalFilename = "Unnamed Resume"
	}
	if lu, ok := lastUsed[pr.ID]; ok {
		resp.LastUsed = &LastUseResponse{
			Company: lu.Company,
			Role:    lu.Role,
			Date:    lu.Date,
		}
	}
	return resp
}

package applications

import (
	"encoding/json"
	"time"
)

// ApplicationResponse is the full application payload for the editor view.
type ApplicationResponse struct {
	ID                     int64                `json:"id"`
	ContactInformation     json.RawMessage      `json:"contact_information"`
	Education              json.RawMessage      `json:"education"`
	Skills                 json.RawMessage      `json:"skills"`
	Certificates           json.RawMessage      `json:"certificates"`
	Miscellaneous          json.RawMessage      `json:"miscellaneous"`
	ExecutiveSummary       string               `json:"executive_summary"`
	ProfessionalExperience []ExperienceResponse `json:"professional_experience"`
	AIImprovedSections     json.RawMessage      `json:"ai_improved_sections"`
	JobDescription         string               `json:"job_description"`
	CompanyApplied         string               `json:"company_applied"`
	RoleApplied            string               `json:"role_applied"`
	Status                 string               `json:"status"`
	AnalysisStatus         string               `json:"analysis_status"`
	PersonalProjects       json.RawMessage      `json:"personal_projects"`
	SummaryAnalysis        json.RawMessage      `json:"summary_analysis"`
	JDAnalysis             json.RawMessage      `json:"jd_analysis,omitempty"`
}

// ExperienceResponse is one experience entry with its bullets.
type ExperienceResponse struct {
	ID                      int64           `json:"id"`
	Organization            string          `json:"organization"`
	Role                    string          `json:"role"`
	Duration                string          `json:"duration"`
	Location                string          `json:"location"`
	OrganizationDescription string          `json:"organization_description,omitempty"`
	ExperienceAnalysis      json.RawMessage `json:"experience_analysis,omitempty"`
	IsImproved              bool            `json:"is_improved"`
	Points                  []PointResponse `json:"points"`
}

// PointResponse is one bullet.
type PointResponse struct {
	ID             int64  `json:"id"`
	Text           string `json:"text"`
	RelevanceScore *int   `json:"relevance_score"`
}

// SummaryResponse is the listing projection.
type SummaryResponse struct {
	ID        int64      `json:"id"`
	Company   string     `json:"company"`
	Position  string     `json:"position"`
	Status    string     `json:"status"`
	Date      *time.Time `json:"date"`
	CreatedAt time.Time  `json:"created_at"`
}

func toResponse(app Application, experiences []ProfessionalExperience) ApplicationResponse {
	resp := ApplicationResponse{
		ID:                     app.ID,
		ContactInformation:     objectOrEmpty(app.ContactInformation),
		Education:              listOrEmpty(app.Education),
		Skills:                 listOrEmpty(app.Skills),
		Certificates:           listOrEmpty(app.Certificates),
		Miscellaneous:          listOrEmpty(app.Miscellaneous),
		ExecutiveSummary:       app.ExecutiveSummary,
		ProfessionalExperience: make([]ExperienceResponse, 0, len(experiences)),
		AIImprovedSections:     objectOrEmpty(app.AIImprovedSections),
		JobDescription:         app.JobDescription,
		CompanyApplied:         app.CompanyApplied,
		RoleApplied:            app.RoleApplied,
		Status:                 app.Status,
		AnalysisStatus:         app.AnalysisStatus,
		PersonalProjects:       listOrEmpty(app.PersonalProjects),
		SummaryAnalysis:        app.SummaryAnalysis,
		JDAnalysis:             app.JDAnalysis,
	}
	for _, exp := range experiences {
		resp.ProfessionalExperience = append(resp.ProfessionalExperience, toExperienceResponse(exp))
	}
	return resp
}

func toExperienceResponse(exp ProfessionalExperience) ExperienceResponse {
	out := ExperienceResponse{
		ID:                      exp.ID,
		Organization:            exp.Organization,
		Role:                    exp.Role,
		Duration:                exp.Duration,
		Location:                exp.Location,
		OrganizationDescription: exp.OrganizationDescription,
		ExperienceAnalysis:      exp.ExperienceAnalysis,
		IsImproved:              exp.IsImproved,
		Points:                  make([]PointResponse, 0, len(exp.Points)),
	}
	for _, p := range exp.Points {
		out.Points = append(out.Points, PointResponse{
			ID:             p.ID,
			Text:           p.Text,
			RelevanceScore: p.RelevanceScore,
		})
	}
	return out
}

func toSummaryResponse(s ApplicationSummary) SummaryResponse {
	return SummaryResponse{
		ID:        s.ID,
		Company:   s.CompanyApplied,
		Position:  s.RoleApplied,
		Status:    s.Status,
		Date:      s.DateApplied,
		CreatedAt: s.CreatedAt,
	}
}

// ListResponse wraps the application summaries.
type ListResponse struct {
	Applications []SummaryResponse `json:"applications"`
}

// CheckAnalysisResponse reports JD analysis progress for polling clients.
type CheckAnalysisResponse struct {
	Status         string          `json:"status"`
	AnalysisStatus string          `json:"analysis_status"`
	JDAnalysis     json.RawMessage `json:"jd_analysis"`
}

// CoverLetterResponse carries the stored letter and its settings.
type CoverLetterResponse struct {
	CoverLetter string          `json:"cover_letter"`
	Tone        string          `json:"tone"`
	Answers     json.RawMessage `json:"answers"`
}

func toCoverLetterResponse(app Application) CoverLetterResponse {
	resp := CoverLetterResponse{
		CoverLetter: app.CoverLetter,
		Tone:        "professional",
		Answers:     json.RawMessage(`{}`),
	}
	if len(app.Metadata) == 0 {
		return resp
	}
	var meta struct {
		Tone    string          `json:"tone"`
		Answers json.RawMessage `json:"answers"`
	}
	if err := json.Unmarshal(app.Metadata, &meta); err != nil {
		return resp
	}
	if meta.Tone != "" {
		resp.Tone = meta.Tone
	}
	if len(meta.Answers) > 0 && string(meta.Answers) != "null" {
		resp.Answers = meta.Answers
	}
	return resp
}

type updateSectionRequest struct {
	ResumeID     int64           `json:"resumeId"`
	SectionTitle string          `json:"sectionTitle"`
	Content      json.RawMessage `json:"content"`
}

// UpdateSectionResponse echoes which sections carry AI improvements.
type UpdateSectionResponse struct {
	Message          string          `json:"message"`
	ResumeID         int64           `json:"resume_id"`
	ImprovedSections json.RawMessage `json:"improved_sections"`
}

type modifiedPointRequest struct {
	PointID        int64  `json:"point_id"`
	NewText        string `json:"new_text"`
	RelevanceScore *int   `json:"relevance_score"`
}

type updatePointsRequest struct {
	ExperienceID   int64                  `json:"experienceId"`
	ModifiedPoints []modifiedPointRequest `json:"modifiedPoints"`
	DeletedPoints  []int64                `json:"deletedPoints"`
}

// UpdatePointsResponse counts the applied bullet edits.
type UpdatePointsResponse struct {
	Message            string `json:"message"`
	ModifiedCount      int    `json:"modified_count"`
	DeletedCount       int    `json:"deleted_count"`
	ExperienceImproved bool   `json:"experience_improved"`
}

type updateDateRequest struct {
	DateApplied string `json:"date_applied"`
}

type saveCoverLetterRequest struct {
	EditedLetter string `json:"edited_letter"`
}

// MessageResponse is the plain acknowledgement body.
type MessageResponse struct {
	Message string `json:"message"`
}

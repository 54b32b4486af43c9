package applications

import (
	"encoding/json"
	"time"
)

// Application statuses shown to the user. Status moves from StatusWritingCV
// to StatusApplied when a date is first recorded; later transitions are
// caller-controlled.
const (
	StatusWritingCV = "Writing CV"
	StatusApplied   = "Applied"
)

// Lifecycle states for the parsing_status and analysis_status columns.
const (
	StatePending    = "pending"
	StateInProgress = "in_progress"
	StateCompleted  = "completed"
	StateFailed     = "failed"
)

// Application is one job application built from a parsed resume. The row
// carries both the decomposed resume sections and the analysis payloads
// written by the orchestrators.
type Application struct {
	ID                 int64
	UserID             string
	ParsedResumeID     *int64
	CompanyApplied     string
	RoleApplied        string
	JobDescription     string
	Status             string
	ParsingStatus      string
	AnalysisStatus     string
	ContactInformation json.RawMessage
	ExecutiveSummary   string
	Education          json.RawMessage
	Skills             json.RawMessage
	Certificates       json.RawMessage
	Miscellaneous      json.RawMessage
	PersonalProjects   json.RawMessage
	CoverLetter        string
	JDAnalysis         json.RawMessage
	SkillsAnalysis     json.RawMessage
	SummaryAnalysis    json.RawMessage
	AIImprovedSections json.RawMessage
	Metadata           json.RawMessage
	ResumeFileKey      string
	DateApplied        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ProfessionalExperience is one work-history entry owned by an application.
// Position preserves the order the entry appeared in the resume.
type ProfessionalExperience struct {
	ID                      int64
	ResumeID                int64
	Position                int
	Organization            string
	Role                    string
	Duration                string
	Location                string
	OrganizationDescription string
	ExperienceAnalysis      json.RawMessage
	IsImproved              bool
	Points                  []ExperiencePoint
}

// ExperiencePoint is one bullet under an experience entry.
type ExperiencePoint struct {
	ID             int64
	ExperienceID   int64
	Position       int
	Text           string
	RelevanceScore *int
	IsImproved     bool
}

// ApplicationSummary is the listing projection of an application.
type ApplicationSummary struct {
	ID             int64
	CompanyApplied string
	RoleApplied    string
	Status         string
	DateApplied    *time.Time
	CreatedAt      time.Time
}

// ApplicationUse records the most recent application built from a parsed
// resume, for the parse-cache listing.
type ApplicationUse struct {
	Company   string
	Role      string
	CreatedAt time.Time
}

// SectionBuckets holds the decomposed resume sections destined for the
// application's named columns. Missing sections arrive as empty containers,
// never nil JSON.
type SectionBuckets struct {
	ContactInformation json.RawMessage
	Education          json.RawMessage
	Skills             json.RawMessage
	Certificates       json.RawMessage
	Miscellaneous      json.RawMessage
	ExecutiveSummary   string
	PersonalProjects   json.RawMessage
}

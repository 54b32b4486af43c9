package applications

import (
	"context"
	"time"
)

// Repo defines persistence operations for applications, experiences and
// points. The analysis orchestrators write their payloads through the
// Set* methods; section content always lands in named columns.
type Repo interface {
	CreateHeader(ctx context.Context, app Application) (int64, error)
	UpdateSectionBuckets(ctx context.Context, id int64, buckets SectionBuckets) error
	InsertExperience(ctx context.Context, exp ProfessionalExperience) (int64, error)
	InsertPoint(ctx context.Context, point ExperiencePoint) (int64, error)

	GetByID(ctx context.Context, id int64) (Application, error)
	GetExperience(ctx context.Context, experienceID int64) (ProfessionalExperience, error)
	ListExperiences(ctx context.Context, resumeID int64) ([]ProfessionalExperience, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]ApplicationSummary, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	LatestByParsedResume(ctx context.Context, parsedResumeIDs []int64) (map[int64]ApplicationUse, error)

	// UpdateSection writes content into a named column and merges the
	// improvedPatch into ai_improved_sections. The column name is spliced
	// into the statement; callers validate it against the section whitelist.
	UpdateSection(ctx context.Context, id int64, column string, content any, improvedPatch []byte) error
	UpdateStatus(ctx context.Context, id int64, status string) error
	UpdateDate(ctx context.Context, id int64, dateApplied time.Time, status string) error
	SetAnalysisStatus(ctx context.Context, id int64, status string) error
	MergeMetadata(ctx context.Context, id int64, patch []byte) error
	SetJDAnalysis(ctx context.Context, id int64, analysis []byte) error
	SetSkillsAnalysis(ctx context.Context, id int64, analysis []byte) error
	SetSummaryAnalysis(ctx context.Context, id int64, analysis []byte, enhancedSummary string) error
	SetCoverLetter(ctx context.Context, id int64, letter string, metadataPatch []byte) error
	SetExperienceAnalysis(ctx context.Context, experienceID int64, analysis []byte) error

	UpdatePoint(ctx context.Context, pointID int64, text string, relevanceScore *int) error
	DeletePoint(ctx context.Context, pointID int64) error
	MarkExperienceImproved(ctx context.Context, experienceID int64) error
}

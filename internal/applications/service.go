package applications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lex-technology/workwise-backend/internal/parser"
	"github.com/lex-technology/workwise-backend/internal/shared/apperr"
	"github.com/lex-technology/workwise-backend/internal/shared/telemetry"
)

// Free-plan users can hold this many applications.
const freeApplicationCap = 5

// ProfileSource reports plan information without importing credits.
type ProfileSource interface {
	IsPaidUser(ctx context.Context, userID string) (bool, error)
}

// Service contains business logic for applications.
type Service struct {
	Repo     Repo
	Profiles ProfileSource
}

// BuildInput carries the caller-supplied fields for a new application.
type BuildInput struct {
	UserID         string
	CompanyApplied string
	RoleApplied    string
	JobDescription string
	ParsedResumeID int64
	ResumeFileKey  string
}

// ModifiedPoint is one bullet edit in an update-experience-points request.
type ModifiedPoint struct {
	PointID        int64
	NewText        string
	RelevanceScore *int
}

// CanCreate reports whether the user may create another application.
// Paid users are uncapped; free users stop at the cap.
func (s *Service) CanCreate(ctx context.Context, userID string) error {
	if s.Profiles != nil {
		paid, err := s.Profiles.IsPaidUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("check plan: %w", err)
		}
		if paid {
			return nil
		}
	}
	count, err := s.Repo.CountByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("count applications: %w", err)
	}
	if count >= freeApplicationCap {
		return apperr.ErrApplicationLimit
	}
	return nil
}

// Build persists a new application from a structured parse: header row,
// then section buckets, then experiences and their points in resume order.
// The steps are not one transaction; a failure partway leaves the earlier
// rows in place and surfaces as a persistence error.
func (s *Service) Build(ctx context.Context, in BuildInput, parsed *parser.StructuredResume) (Application, error) {
	app := Application{
		UserID:         in.UserID,
		CompanyApplied: in.CompanyApplied,
		RoleApplied:    in.RoleApplied,
		JobDescription: in.JobDescription,
		Status:         StatusWritingCV,
		ParsingStatus:  StateCompleted,
		AnalysisStatus: StatePending,
		ResumeFileKey:  in.ResumeFileKey,
		CreatedAt:      time.Now().UTC(),
	}
	if in.ParsedResumeID > 0 {
		id := in.ParsedResumeID
		app.ParsedResumeID = &id
	}

	id, err := s.Repo.CreateHeader(ctx, app)
	if err != nil {
		return Application{}, fmt.Errorf("create application header: %w: %v", apperr.ErrPersistenceFailed, err)
	}
	app.ID = id

	buckets := decompose(parsed)
	if err := s.Repo.UpdateSectionBuckets(ctx, id, buckets); err != nil {
		return Application{}, fmt.Errorf("persist resume sections: %w: %v", apperr.ErrPersistenceFailed, err)
	}

	for i, entry := range parsed.Experiences() {
		expID, err := s.Repo.InsertExperience(ctx, ProfessionalExperience{
			ResumeID:                id,
			Position:                i,
			Organization:            entry.Organization,
			Role:                    entry.Role,
			Duration:                entry.Duration,
			Location:                entry.Location,
			OrganizationDescription: entry.OrganizationDescription,
		})
		if err != nil {
			return Application{}, fmt.Errorf("persist experience %d: %w: %v", i, apperr.ErrPersistenceFailed, err)
		}
		for j, text := range entry.Points {
			if _, err := s.Repo.InsertPoint(ctx, ExperiencePoint{
				ExperienceID: expID,
				Position:     j,
				Text:         text,
			}); err != nil {
				return Application{}, fmt.Errorf("persist experience %d point %d: %w: %v", i, j, apperr.ErrPersistenceFailed, err)
			}
		}
	}

	telemetry.Info("applications.built", map[string]any{
		"resume_id":   id,
		"user_id":     in.UserID,
		"experiences": len(parsed.Experiences()),
	})
	return app, nil
}

// GetOwned returns the application after checking the caller owns it.
// Missing rows and foreign rows are distinct failures.
func (s *Service) GetOwned(ctx context.Context, userID string, id int64) (Application, error) {
	app, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Application{}, err
	}
	if app.UserID != userID {
		return Application{}, ErrForbidden
	}
	return app, nil
}

// GetFull returns the owned application with its ordered experiences and
// points attached.
func (s *Service) GetFull(ctx context.Context, userID string, id int64) (Application, []ProfessionalExperience, error) {
	app, err := s.GetOwned(ctx, userID, id)
	if err != nil {
		return Application{}, nil, err
	}
	experiences, err := s.Repo.ListExperiences(ctx, id)
	if err != nil {
		return Application{}, nil, err
	}
	return app, experiences, nil
}

// List returns the caller's application summaries. Free-plan users see at
// most the cap.
func (s *Service) List(ctx context.Context, userID string) ([]ApplicationSummary, error) {
	limit := 0
	if s.Profiles != nil {
		paid, err := s.Profiles.IsPaidUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		if !paid {
			limit = freeApplicationCap
		}
	}
	return s.Repo.ListByUser(ctx, userID, limit)
}

// sectionColumns whitelists the user-editable columns for update-section.
// Everything else in the table is owned by the pipeline or the analyses.
var sectionColumns = map[string]bool{
	"contact_information": true,
	"education":           true,
	"skills":              true,
	"certificates":        true,
	"miscellaneous":       true,
	"executive_summary":   true,
	"personal_projects":   true,
}

// UpdateSection persists an edited section and marks it AI-improved.
func (s *Service) UpdateSection(ctx context.Context, userID string, id int64, section string, content json.RawMessage) (json.RawMessage, error) {
	if !sectionColumns[section] {
		return nil, fmt.Errorf("%w: unknown section %q", apperr.ErrInvalidInput, section)
	}
	app, err := s.GetOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	patch, err := json.Marshal(map[string]bool{section: true})
	if err != nil {
		return nil, err
	}

	var value any = []byte(content)
	if section == "executive_summary" {
		value = contentAsText(content)
	}
	if err := s.Repo.UpdateSection(ctx, id, section, value, patch); err != nil {
		return nil, err
	}
	return mergeJSON(app.AIImprovedSections, patch), nil
}

// UpdateExperiencePoints deletes and rewrites bullets under one experience
// and marks the experience improved. The experience must belong to an
// application the caller owns.
func (s *Service) UpdateExperiencePoints(ctx context.Context, userID string, experienceID int64, modified []ModifiedPoint, deleted []int64) error {
	exp, err := s.Repo.GetExperience(ctx, experienceID)
	if err != nil {
		return err
	}
	if _, err := s.GetOwned(ctx, userID, exp.ResumeID); err != nil {
		return err
	}

	for _, pointID := range deleted {
		if err := s.Repo.DeletePoint(ctx, pointID); err != nil {
			return fmt.Errorf("delete point %d: %w", pointID, err)
		}
	}
	for _, point := range modified {
		if err := s.Repo.UpdatePoint(ctx, point.PointID, point.NewText, point.RelevanceScore); err != nil {
			return fmt.Errorf("update point %d: %w", point.PointID, err)
		}
	}
	return s.Repo.MarkExperienceImproved(ctx, experienceID)
}

// UpdateStatus sets the user-visible status on an owned application.
func (s *Service) UpdateStatus(ctx context.Context, userID string, id int64, status string) error {
	if status == "" {
		return fmt.Errorf("%w: status required", apperr.ErrInvalidInput)
	}
	if _, err := s.GetOwned(ctx, userID, id); err != nil {
		return err
	}
	return s.Repo.UpdateStatus(ctx, id, status)
}

// UpdateDate records when the application was sent. A first date moves
// the status from Writing CV to Applied; later dates keep the status.
func (s *Service) UpdateDate(ctx context.Context, userID string, id int64, dateApplied time.Time) error {
	app, err := s.GetOwned(ctx, userID, id)
	if err != nil {
		return err
	}
	status := app.Status
	if status == StatusWritingCV {
		status = StatusApplied
	}
	return s.Repo.UpdateDate(ctx, id, dateApplied, status)
}

// SaveCoverLetter persists a manually edited letter with its settings.
func (s *Service) SaveCoverLetter(ctx context.Context, userID string, id int64, letter string, metadataPatch []byte) error {
	if _, err := s.GetOwned(ctx, userID, id); err != nil {
		return err
	}
	return s.Repo.SetCoverLetter(ctx, id, letter, metadataPatch)
}

func decompose(parsed *parser.StructuredResume) SectionBuckets {
	return SectionBuckets{
		ContactInformation: objectOrEmpty(parsed.SectionContent(parser.SectionContactInformation)),
		Education:          listOrEmpty(parsed.SectionEntries(parser.SectionEducation)),
		Skills:             listOrEmpty(parsed.SectionEntries(parser.SectionSkills)),
		Certificates:       listOrEmpty(parsed.SectionEntries(parser.SectionCertificates)),
		Miscellaneous:      listOrEmpty(parsed.SectionEntries(parser.SectionMiscellaneous)),
		ExecutiveSummary:   parsed.ExecutiveSummary(),
		PersonalProjects:   listOrEmpty(parsed.SectionEntries(parser.SectionPersonalProjects)),
	}
}

func objectOrEmpty(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || string(raw) == "null" {
		return json.RawMessage(`{}`)
	}
	return raw
}

func listOrEmpty(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || string(raw) == "null" {
		return json.RawMessage(`[]`)
	}
	return raw
}

// contentAsText unwraps a JSON string for text columns; non-string JSON is
// stored verbatim.
func contentAsText(content json.RawMessage) string {
	var s string
	if err := json.Unmarshal(content, &s); err == nil {
		return s
	}
	return string(content)
}

package applications

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu          sync.RWMutex
	nextID      int64
	apps        map[int64]Application
	experiences map[int64]ProfessionalExperience
	points      map[int64]ExperiencePoint
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		apps:        make(map[int64]Application),
		experiences: make(map[int64]ProfessionalExperience),
		points:      make(map[int64]ExperiencePoint),
	}
}

func (r *MemoryRepo) allocID() int64 {
	r.nextID++
	return r.nextID
}

// CreateHeader stores the application row.
func (r *MemoryRepo) CreateHeader(ctx context.Context, app Application) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	app.ID = r.allocID()
	if app.UpdatedAt.IsZero() {
		app.UpdatedAt = app.CreatedAt
	}
	r.apps[app.ID] = app
	return app.ID, nil
}

// UpdateSectionBuckets writes the decomposed sections onto the row.
func (r *MemoryRepo) UpdateSectionBuckets(ctx context.Context, id int64, buckets SectionBuckets) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[id]
	if !ok {
		return ErrNotFound
	}
	app.ContactInformation = buckets.ContactInformation
	app.Education = buckets.Education
	app.Skills = buckets.Skills
	app.Certificates = buckets.Certificates
	app.Miscellaneous = buckets.Miscellaneous
	app.ExecutiveSummary = buckets.ExecutiveSummary
	app.PersonalProjects = buckets.PersonalProjects
	app.UpdatedAt = time.Now().UTC()
	r.apps[id] = app
	return nil
}

// InsertExperience stores one experience row.
func (r *MemoryRepo) InsertExperience(ctx context.Context, exp ProfessionalExperience) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.apps[exp.ResumeID]; !ok {
		return 0, ErrNotFound
	}
	exp.ID = r.allocID()
	exp.Points = nil
	r.experiences[exp.ID] = exp
	return exp.ID, nil
}

// InsertPoint stores one bullet.
func (r *MemoryRepo) InsertPoint(ctx context.Context, point ExperiencePoint) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.experiences[point.ExperienceID]; !ok {
		return 0, ErrNotFound
	}
	point.ID = r.allocID()
	r.points[point.ID] = point
	return point.ID, nil
}

// GetByID returns the application row.
func (r *MemoryRepo) GetByID(ctx context.Context, id int64) (Application, error) {
	if err := ctx.Err(); err != nil {
		return Application{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	app, ok := r.apps[id]
	if !ok {
		return Application{}, ErrNotFound
	}
	return app, nil
}

// GetExperience returns one experience with ordered points.
func (r *MemoryRepo) GetExperience(ctx context.Context, experienceID int64) (ProfessionalExperience, error) {
	if err := ctx.Err(); err != nil {
		return ProfessionalExperience{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	exp, ok := r.experiences[experienceID]
	if !ok {
		return ProfessionalExperience{}, ErrNotFound
	}
	exp.Points = r.pointsForLocked(experienceID)
	return exp, nil
}

// ListExperiences returns a resume's experiences with points, in order.
func (r *MemoryRepo) ListExperiences(ctx context.Context, resumeID int64) ([]ProfessionalExperience, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []ProfessionalExperience
	for _, exp := range r.experiences {
		if exp.ResumeID == resumeID {
			exp.Points = r.pointsForLocked(exp.ID)
			out = append(out, exp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position == out[j].Position {
			return out[i].ID < out[j].ID
		}
		return out[i].Position < out[j].Position
	})
	return out, nil
}

func (r *MemoryRepo) pointsForLocked(experienceID int64) []ExperiencePoint {
	var out []ExperiencePoint
	for _, p := range r.points {
		if p.ExperienceID == experienceID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position == out[j].Position {
			return out[i].ID < out[j].ID
		}
		return out[i].Position < out[j].Position
	})
	return out
}

// ListByUser lists summaries: dated newest-first, undated after them.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit int) ([]ApplicationSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	var out []ApplicationSummary
	for _, app := range r.apps {
		if app.UserID != userID {
			continue
		}
		out = append(out, ApplicationSummary{
			ID:             app.ID,
			CompanyApplied: app.CompanyApplied,
			RoleApplied:    app.RoleApplied,
			Status:         app.Status,
			DateApplied:    app.DateApplied,
			CreatedAt:      app.CreatedAt,
		})
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		di, dj := out[i].DateApplied, out[j].DateApplied
		switch {
		case di != nil && dj != nil && !di.Equal(*dj):
			return di.After(*dj)
		case di == nil && dj != nil:
			return false
		case di != nil && dj == nil:
			return true
		}
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// CountByUser counts a user's applications.
func (r *MemoryRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, app := range r.apps {
		if app.UserID == userID {
			count++
		}
	}
	return count, nil
}

// LatestByParsedResume returns the most recent application per parsed resume.
func (r *MemoryRepo) LatestByParsedResume(ctx context.Context, parsedResumeIDs []int64) (map[int64]ApplicationUse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[int64]bool, len(parsedResumeIDs))
	for _, id := range parsedResumeIDs {
		wanted[id] = true
	}

	out := make(map[int64]ApplicationUse)
	for _, app := range r.apps {
		if app.ParsedResumeID == nil || !wanted[*app.ParsedResumeID] {
			continue
		}
		prID := *app.ParsedResumeID
		if cur, ok := out[prID]; !ok || app.CreatedAt.After(cur.CreatedAt) {
			out[prID] = ApplicationUse{
				Company:   app.CompanyApplied,
				Role:      app.RoleApplied,
				CreatedAt: app.CreatedAt,
			}
		}
	}
	return out, nil
}

// UpdateSection writes content to the named section and merges the
// improved patch.
func (r *MemoryRepo) UpdateSection(ctx context.Context, id int64, column string, content any, improvedPatch []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[id]
	if !ok {
		return ErrNotFound
	}
	switch column {
	case "contact_information":
		app.ContactInformation = toRaw(content)
	case "education":
		app.Education = toRaw(content)
	case "skills":
		app.Skills = toRaw(content)
	case "certificates":
		app.Certificates = toRaw(content)
	case "miscellaneous":
		app.Miscellaneous = toRaw(content)
	case "personal_projects":
		app.PersonalProjects = toRaw(content)
	case "executive_summary":
		if s, ok := content.(string); ok {
			app.ExecutiveSummary = s
		}
	default:
		return ErrInvalidInput
	}
	app.AIImprovedSections = mergeJSON(app.AIImprovedSections, improvedPatch)
	app.UpdatedAt = time.Now().UTC()
	r.apps[id] = app
	return nil
}

// UpdateStatus sets the user-visible status.
func (r *MemoryRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[id]
	if !ok {
		return ErrNotFound
	}
	app.Status = status
	app.UpdatedAt = time.Now().UTC()
	r.apps[id] = app
	return nil
}

// UpdateDate records the applied date and derived status.
func (r *MemoryRepo) UpdateDate(ctx context.Context, id int64, dateApplied time.Time, status string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[id]
	if !ok {
		return ErrNotFound
	}
	app.DateApplied = &dateApplied
	app.Status = status
	app.UpdatedAt = time.Now().UTC()
	r.apps[id] = app
	return nil
}

// SetAnalysisStatus moves the analysis lifecycle state.
func (r *MemoryRepo) SetAnalysisStatus(ctx context.Context, id int64, status string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[id]
	if !ok {
		return ErrNotFound
	}
	app.AnalysisStatus = status
	app.UpdatedAt = time.Now().UTC()
	r.apps[id] = app
	return nil
}

// MergeMetadata folds the patch into the row's metadata object.
func (r *MemoryRepo) MergeMetadata(ctx context.Context, id int64, patch []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[id]
	if !ok {
		return ErrNotFound
	}
	app.Metadata = mergeJSON(app.Metadata, patch)
	app.UpdatedAt = time.Now().UTC()
	r.apps[id] = app
	return nil
}

// SetJDAnalysis persists the job-description match payload.
func (r *MemoryRepo) SetJDAnalysis(ctx context.Context, id int64, analysis []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[id]
	if !ok {
		return ErrNotFound
	}
	app.JDAnalysis = json.RawMessage(analysis)
	app.UpdatedAt = time.Now().UTC()
	r.apps[id] = app
	return nil
}

// SetSkillsAnalysis persists the skills-gap payload.
func (r *MemoryRepo) SetSkillsAnalysis(ctx context.Context, id int64, analysis []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[id]
	if !ok {
		return ErrNotFound
	}
	app.SkillsAnalysis = json.RawMessage(analysis)
	app.UpdatedAt = time.Now().UTC()
	r.apps[id] = app
	return nil
}

// SetSummaryAnalysis persists the summary payload and the enhanced text.
func (r *MemoryRepo) SetSummaryAnalysis(ctx context.Context, id int64, analysis []byte, enhancedSummary string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[id]
	if !ok {
		return ErrNotFound
	}
	app.SummaryAnalysis = json.RawMessage(analysis)
	app.ExecutiveSummary = enhancedSummary
	app.AIImprovedSections = mergeJSON(app.AIImprovedSections, []byte(`{"executive_summary": true}`))
	app.UpdatedAt = time.Now().UTC()
	r.apps[id] = app
	return nil
}

// SetCoverLetter persists the letter text and merges generation metadata.
func (r *MemoryRepo) SetCoverLetter(ctx context.Context, id int64, letter string, metadataPatch []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[id]
	if !ok {
		return ErrNotFound
	}
	app.CoverLetter = letter
	app.Metadata = mergeJSON(app.Metadata, metadataPatch)
	app.UpdatedAt = time.Now().UTC()
	r.apps[id] = app
	return nil
}

// SetExperienceAnalysis persists the per-experience payload.
func (r *MemoryRepo) SetExperienceAnalysis(ctx context.Context, experienceID int64, analysis []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	exp, ok := r.experiences[experienceID]
	if !ok {
		return ErrNotFound
	}
	exp.ExperienceAnalysis = json.RawMessage(analysis)
	r.experiences[experienceID] = exp
	return nil
}

// UpdatePoint rewrites a bullet and marks it improved.
func (r *MemoryRepo) UpdatePoint(ctx context.Context, pointID int64, text string, relevanceScore *int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.points[pointID]
	if !ok {
		return ErrNotFound
	}
	p.Text = text
	p.RelevanceScore = relevanceScore
	p.IsImproved = true
	r.points[pointID] = p
	return nil
}

// DeletePoint removes a bullet; absent points are not an error.
func (r *MemoryRepo) DeletePoint(ctx context.Context, pointID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.points, pointID)
	return nil
}

// MarkExperienceImproved flags the experience.
func (r *MemoryRepo) MarkExperienceImproved(ctx context.Context, experienceID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	exp, ok := r.experiences[experienceID]
	if !ok {
		return ErrNotFound
	}
	exp.IsImproved = true
	r.experiences[experienceID] = exp
	return nil
}

func toRaw(content any) json.RawMessage {
	switch v := content.(type) {
	case json.RawMessage:
		return v
	case []byte:
		return json.RawMessage(v)
	case string:
		return json.RawMessage(v)
	default:
		return nil
	}
}

func mergeJSON(existing json.RawMessage, patch []byte) json.RawMessage {
	merged := map[string]any{}
	if len(existing) > 0 {
		_ = json.Unmarshal(existing, &merged)
	}
	if len(patch) > 0 {
		patchMap := map[string]any{}
		if err := json.Unmarshal(patch, &patchMap); err == nil {
			for k, v := range patchMap {
				merged[k] = v
			}
		}
	}
	out, err := json.Marshal(merged)
	if err != nil {
		return existing
	}
	return out
}

var _ Repo = (*MemoryRepo)(nil)

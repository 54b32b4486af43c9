package applications

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// CreateHeader inserts the application row and returns its assigned ID.
func (r *PGRepo) CreateHeader(ctx context.Context, app Application) (int64, error) {
	const query = `
INSERT INTO resumes (
    user_id,
    parsed_resume_id,
    company_applied,
    role_applied,
    job_description,
    status,
    parsing_status,
    analysis_status,
    resume_file_key,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id`

	var parsedResumeID sql.NullInt64
	if app.ParsedResumeID != nil {
		parsedResumeID = sql.NullInt64{Int64: *app.ParsedResumeID, Valid: true}
	}
	var fileKey sql.NullString
	if app.ResumeFileKey != "" {
		fileKey = sql.NullString{String: app.ResumeFileKey, Valid: true}
	}

	var id int64
	err := r.DB.QueryRowContext(
		ctx,
		query,
		app.UserID,
		parsedResumeID,
		app.CompanyApplied,
		app.RoleApplied,
		app.JobDescription,
		app.Status,
		app.ParsingStatus,
		app.AnalysisStatus,
		fileKey,
		app.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateSectionBuckets writes the decomposed resume sections onto the row.
func (r *PGRepo) UpdateSectionBuckets(ctx context.Context, id int64, buckets SectionBuckets) error {
	const query = `
UPDATE resumes
SET contact_information = $1,
    education = $2,
    skills = $3,
    certificates = $4,
    miscellaneous = $5,
    executive_summary = $6,
    personal_projects = $7,
    updated_at = now()
WHERE id = $8`
	res, err := r.DB.ExecContext(
		ctx,
		query,
		[]byte(buckets.ContactInformation),
		[]byte(buckets.Education),
		[]byte(buckets.Skills),
		[]byte(buckets.Certificates),
		[]byte(buckets.Miscellaneous),
		buckets.ExecutiveSummary,
		[]byte(buckets.PersonalProjects),
		id,
	)
	if err != nil {
		return err
	}
	if updated, _ := res.RowsAffected(); updated == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertExperience inserts one experience row and returns its assigned ID.
func (r *PGRepo) InsertExperience(ctx context.Context, exp ProfessionalExperience) (int64, error) {
	const query = `
INSERT INTO professional_experiences (
    resume_id,
    position,
    organization,
    role,
    duration,
    location,
    organization_description
) VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`

	var orgDescription sql.NullString
	if exp.OrganizationDescription != "" {
		orgDescription = sql.NullString{String: exp.OrganizationDescription, Valid: true}
	}

	var id int64
	err := r.DB.QueryRowContext(
		ctx,
		query,
		exp.ResumeID,
		exp.Position,
		exp.Organization,
		exp.Role,
		exp.Duration,
		exp.Location,
		orgDescription,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// InsertPoint inserts one bullet and returns its assigned ID.
func (r *PGRepo) InsertPoint(ctx context.Context, point ExperiencePoint) (int64, error) {
	const query = `
INSERT INTO experience_points (
    experience_id,
    position,
    text,
    relevance_score
) VALUES ($1, $2, $3, $4)
RETURNING id`

	var score sql.NullInt64
	if point.RelevanceScore != nil {
		score = sql.NullInt64{Int64: int64(*point.RelevanceScore), Valid: true}
	}

	var id int64
	err := r.DB.QueryRowContext(ctx, query, point.ExperienceID, point.Position, point.Text, score).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetByID returns the full application row. No owner filter: the service
// compares owners so missing rows and foreign rows map to different errors.
func (r *PGRepo) GetByID(ctx context.Context, id int64) (Application, error) {
	const query = `
SELECT id, user_id, parsed_resume_id, company_applied, role_applied, job_description,
       status, parsing_status, analysis_status,
       contact_information, executive_summary, education, skills, certificates,
       miscellaneous, personal_projects, cover_letter,
       jd_analysis, skills_analysis, summary_analysis, ai_improved_sections, metadata,
       resume_file_key, date_applied, created_at, updated_at
FROM resumes
WHERE id = $1
LIMIT 1`

	var app Application
	var parsedResumeID sql.NullInt64
	var contactInformation sql.NullString
	var executiveSummary sql.NullString
	var education sql.NullString
	var skills sql.NullString
	var certificates sql.NullString
	var miscellaneous sql.NullString
	var personalProjects sql.NullString
	var coverLetter sql.NullString
	var jdAnalysis sql.NullString
	var skillsAnalysis sql.NullString
	var summaryAnalysis sql.NullString
	var aiImproved sql.NullString
	var metadata sql.NullString
	var fileKey sql.NullString
	var dateApplied sql.NullTime
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&app.ID,
		&app.UserID,
		&parsedResumeID,
		&app.CompanyApplied,
		&app.RoleApplied,
		&app.JobDescription,
		&app.Status,
		&app.ParsingStatus,
		&app.AnalysisStatus,
		&contactInformation,
		&executiveSummary,
		&education,
		&skills,
		&certificates,
		&miscellaneous,
		&personalProjects,
		&coverLetter,
		&jdAnalysis,
		&skillsAnalysis,
		&summaryAnalysis,
		&aiImproved,
		&metadata,
		&fileKey,
		&dateApplied,
		&app.CreatedAt,
		&app.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Application{}, ErrNotFound
		}
		return Application{}, err
	}
	if parsedResumeID.Valid {
		v := parsedResumeID.Int64
		app.ParsedResumeID = &v
	}
	app.ContactInformation = rawOrNil(contactInformation)
	if executiveSummary.Valid {
		app.ExecutiveSummary = executiveSummary.String
	}
	app.Education = rawOrNil(education)
	app.Skills = rawOrNil(skills)
	app.Certificates = rawOrNil(certificates)
	app.Miscellaneous = rawOrNil(miscellaneous)
	app.PersonalProjects = rawOrNil(personalProjects)
	if coverLetter.Valid {
		app.CoverLetter = coverLetter.String
	}
	app.JDAnalysis = rawOrNil(jdAnalysis)
	app.SkillsAnalysis = rawOrNil(skillsAnalysis)
	app.SummaryAnalysis = rawOrNil(summaryAnalysis)
	app.AIImprovedSections = rawOrNil(aiImproved)
	app.Metadata = rawOrNil(metadata)
	if fileKey.Valid {
		app.ResumeFileKey = fileKey.String
	}
	if dateApplied.Valid {
		v := dateApplied.Time
		app.DateApplied = &v
	}
	return app, nil
}

// GetExperience returns one experience row with its ordered points.
func (r *PGRepo) GetExperience(ctx context.Context, experienceID int64) (ProfessionalExperience, error) {
	const query = `
SELECT id, resume_id, position, organization, role, duration, location, organization_description, experience_analysis, is_improved
FROM professional_experiences
WHERE id = $1
LIMIT 1`

	exp, err := scanExperience(r.DB.QueryRowContext(ctx, query, experienceID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ProfessionalExperience{}, ErrNotFound
		}
		return ProfessionalExperience{}, err
	}
	points, err := r.listPoints(ctx, exp.ID)
	if err != nil {
		return ProfessionalExperience{}, err
	}
	exp.Points = points
	return exp, nil
}

// ListExperiences returns a resume's experiences with points, in resume order.
func (r *PGRepo) ListExperiences(ctx context.Context, resumeID int64) ([]ProfessionalExperience, error) {
	const query = `
SELECT id, resume_id, position, organization, role, duration, location, organization_description, experience_analysis, is_improved
FROM professional_experiences
WHERE resume_id = $1
ORDER BY position, id`

	rows, err := r.DB.QueryContext(ctx, query, resumeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ProfessionalExperience
	for rows.Next() {
		exp, err := scanExperience(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, exp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		points, err := r.listPoints(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Points = points
	}
	return out, nil
}

func (r *PGRepo) listPoints(ctx context.Context, experienceID int64) ([]ExperiencePoint, error) {
	const query = `
SELECT id, experience_id, position, text, relevance_score, is_improved
FROM experience_points
WHERE experience_id = $1
ORDER BY position, id`

	rows, err := r.DB.QueryContext(ctx, query, experienceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ExperiencePoint
	for rows.Next() {
		var p ExperiencePoint
		var score sql.NullInt64
		if err := rows.Scan(&p.ID, &p.ExperienceID, &p.Position, &p.Text, &score, &p.IsImproved); err != nil {
			return nil, err
		}
		if score.Valid {
			v := int(score.Int64)
			p.RelevanceScore = &v
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListByUser lists application summaries: dated ones newest-first, undated
// ones after them.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit int) ([]ApplicationSummary, error) {
	query := `
SELECT id, company_applied, role_applied, status, date_applied, created_at
FROM resumes
WHERE user_id = $1
ORDER BY date_applied DESC NULLS LAST, created_at DESC`
	args := []any{userID}
	if limit > 0 {
		query += `
LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ApplicationSummary
	for rows.Next() {
		var s ApplicationSummary
		var dateApplied sql.NullTime
		if err := rows.Scan(&s.ID, &s.CompanyApplied, &s.RoleApplied, &s.Status, &dateApplied, &s.CreatedAt); err != nil {
			return nil, err
		}
		if dateApplied.Valid {
			v := dateApplied.Time
			s.DateApplied = &v
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CountByUser counts a user's applications, for the free-plan cap.
func (r *PGRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	const query = `
SELECT COUNT(*)
FROM resumes
WHERE user_id = $1`
	var count int
	if err := r.DB.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// LatestByParsedResume returns, per parsed resume, the most recent
// application built from it. IDs with no application are absent from the map.
func (r *PGRepo) LatestByParsedResume(ctx context.Context, parsedResumeIDs []int64) (map[int64]ApplicationUse, error) {
	const query = `
SELECT company_applied, role_applied, created_at
FROM resumes
WHERE parsed_resume_id = $1
ORDER BY created_at DESC
LIMIT 1`

	out := make(map[int64]ApplicationUse, len(parsedResumeIDs))
	for _, id := range parsedResumeIDs {
		var use ApplicationUse
		err := r.DB.QueryRowContext(ctx, query, id).Scan(&use.Company, &use.Role, &use.CreatedAt)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, err
		}
		out[id] = use
	}
	return out, nil
}

// UpdateSection writes an edited section into its named column and merges
// the improvedPatch into ai_improved_sections. The caller validates the
// column name; it is spliced into the statement text.
func (r *PGRepo) UpdateSection(ctx context.Context, id int64, column string, content any, improvedPatch []byte) error {
	query := `
UPDATE resumes
SET ` + column + ` = $1,
    ai_improved_sections = COALESCE(ai_improved_sections, '{}'::jsonb) || $2,
    updated_at = now()
WHERE id = $3`
	res, err := r.DB.ExecContext(ctx, query, content, improvedPatch, id)
	if err != nil {
		return err
	}
	if updated, _ := res.RowsAffected(); updated == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatus sets the user-visible application status.
func (r *PGRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	const query = `
UPDATE resumes
SET status = $1, updated_at = now()
WHERE id = $2`
	res, err := r.DB.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}
	if updated, _ := res.RowsAffected(); updated == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateDate records when the application was sent, together with the
// status the service derived from the current one.
func (r *PGRepo) UpdateDate(ctx context.Context, id int64, dateApplied time.Time, status string) error {
	const query = `
UPDATE resumes
SET date_applied = $1, status = $2, updated_at = now()
WHERE id = $3`
	res, err := r.DB.ExecContext(ctx, query, dateApplied, status, id)
	if err != nil {
		return err
	}
	if updated, _ := res.RowsAffected(); updated == 0 {
		return ErrNotFound
	}
	return nil
}

// SetAnalysisStatus moves the analysis lifecycle state.
func (r *PGRepo) SetAnalysisStatus(ctx context.Context, id int64, status string) error {
	const query = `
UPDATE resumes
SET analysis_status = $1, updated_at = now()
WHERE id = $2`
	res, err := r.DB.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}
	if updated, _ := res.RowsAffected(); updated == 0 {
		return ErrNotFound
	}
	return nil
}

// MergeMetadata folds the patch into the row's metadata object.
func (r *PGRepo) MergeMetadata(ctx context.Context, id int64, patch []byte) error {
	const query = `
UPDATE resumes
SET metadata = COALESCE(metadata, '{}'::jsonb) || $1,
    updated_at = now()
WHERE id = $2`
	res, err := r.DB.ExecContext(ctx, query, patch, id)
	if err != nil {
		return err
	}
	if updated, _ := res.RowsAffected(); updated == 0 {
		return ErrNotFound
	}
	return nil
}

// SetJDAnalysis persists the job-description match payload.
func (r *PGRepo) SetJDAnalysis(ctx context.Context, id int64, analysis []byte) error {
	const query = `
UPDATE resumes
SET jd_analysis = $1, updated_at = now()
WHERE id = $2`
	res, err := r.DB.ExecContext(ctx, query, analysis, id)
	if err != nil {
		return err
	}
	if updated, _ := res.RowsAffected(); updated == 0 {
		return ErrNotFound
	}
	return nil
}

// SetSkillsAnalysis persists the skills-gap payload.
func (r *PGRepo) SetSkillsAnalysis(ctx context.Context, id int64, analysis []byte) error {
	const query = `
UPDATE resumes
SET skills_analysis = $1, updated_at = now()
WHERE id = $2`
	res, err := r.DB.ExecContext(ctx, query, analysis, id)
	if err != nil {
		return err
	}
	if updated, _ := res.RowsAffected(); updated == 0 {
		return ErrNotFound
	}
	return nil
}

// SetSummaryAnalysis persists the summary payload, overwrites the
// executive summary with the enhanced text and flags it improved.
func (r *PGRepo) SetSummaryAnalysis(ctx context.Context, id int64, analysis []byte, enhancedSummary string) error {
	const query = `
UPDATE resumes
SET summary_analysis = $1,
    executive_summary = $2,
    ai_improved_sections = COALESCE(ai_improved_sections, '{}'::jsonb) || '{"executive_summary": true}'::jsonb,
    updated_at = now()
WHERE id = $3`
	res, err := r.DB.ExecContext(ctx, query, analysis, enhancedSummary, id)
	if err != nil {
		return err
	}
	if updated, _ := res.RowsAffected(); updated == 0 {
		return ErrNotFound
	}
	return nil
}

// SetCoverLetter persists the letter text and merges generation metadata.
func (r *PGRepo) SetCoverLetter(ctx context.Context, id int64, letter string, metadataPatch []byte) error {
	const query = `
UPDATE resumes
SET cover_letter = $1,
    metadata = COALESCE(metadata, '{}'::jsonb) || $2,
    updated_at = now()
WHERE id = $3`
	res, err := r.DB.ExecContext(ctx, query, letter, metadataPatch, id)
	if err != nil {
		return err
	}
	if updated, _ := res.RowsAffected(); updated == 0 {
		return ErrNotFound
	}
	return nil
}

// SetExperienceAnalysis persists the per-experience analysis payload.
func (r *PGRepo) SetExperienceAnalysis(ctx context.Context, experienceID int64, analysis []byte) error {
	const query = `
UPDATE professional_experiences
SET experience_analysis = $1
WHERE id = $2`
	res, err := r.DB.ExecContext(ctx, query, analysis, experienceID)
	if err != nil {
		return err
	}
	if updated, _ := res.RowsAffected(); updated == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePoint rewrites a bullet's text and score and marks it improved.
func (r *PGRepo) UpdatePoint(ctx context.Context, pointID int64, text string, relevanceScore *int) error {
	const query = `
UPDATE experience_points
SET text = $1, relevance_score = $2, is_improved = TRUE
WHERE id = $3`
	var score sql.NullInt64
	if relevanceScore != nil {
		score = sql.NullInt64{Int64: int64(*relevanceScore), Valid: true}
	}
	res, err := r.DB.ExecContext(ctx, query, text, score, pointID)
	if err != nil {
		return err
	}
	if updated, _ := res.RowsAffected(); updated == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePoint removes a bullet. Deleting an already-absent point is not
// an error.
func (r *PGRepo) DeletePoint(ctx context.Context, pointID int64) error {
	const query = `
DELETE FROM experience_points
WHERE id = $1`
	_, err := r.DB.ExecContext(ctx, query, pointID)
	return err
}

// MarkExperienceImproved flags the experience after its points changed.
func (r *PGRepo) MarkExperienceImproved(ctx context.Context, experienceID int64) error {
	const query = `
UPDATE professional_experiences
SET is_improved = TRUE
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, experienceID)
	if err != nil {
		return err
	}
	if updated, _ := res.RowsAffected(); updated == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExperience(row rowScanner) (ProfessionalExperience, error) {
	var exp ProfessionalExperience
	var organization sql.NullString
	var role sql.NullString
	var duration sql.NullString
	var location sql.NullString
	var orgDescription sql.NullString
	var analysis sql.NullString
	err := row.Scan(
		&exp.ID,
		&exp.ResumeID,
		&exp.Position,
		&organization,
		&role,
		&duration,
		&location,
		&orgDescription,
		&analysis,
		&exp.IsImproved,
	)
	if err != nil {
		return ProfessionalExperience{}, err
	}
	if organization.Valid {
		exp.Organization = organization.String
	}
	if role.Valid {
		exp.Role = role.String
	}
	if duration.Valid {
		exp.Duration = duration.String
	}
	if location.Valid {
		exp.Location = location.String
	}
	if orgDescription.Valid {
		exp.OrganizationDescription = orgDescription.String
	}
	if analysis.Valid && analysis.String != "" {
		exp.ExperienceAnalysis = json.RawMessage(analysis.String)
	}
	return exp, nil
}

func rawOrNil(v sql.NullString) json.RawMessage {
	if !v.Valid || v.String == "" {
		return nil
	}
	return json.RawMessage(v.String)
}

var _ Repo = (*PGRepo)(nil)

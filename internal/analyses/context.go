package analyses

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/lex-technology/workwise-backend/internal/applications"
)

// questionLabels maps questionnaire IDs to the labels shown in the cover
// letter prompt. IDs outside the map fall back to "Additional Info".
var questionLabels = map[string]string{
	"1": "Company Interest",
	"2": "Relevant Achievements",
	"3": "Experience Alignment",
	"4": "Unique Value",
}

var toneInstructions = map[string]string{
	"personal":     "Write in a friendly and personable tone",
	"professional": "Write in a formal and business-like tone",
	"enthusiastic": "Write in a high-energy and passionate tone",
	"confident":    "Write in a strong and assertive tone",
}

type skillEntry struct {
	TechnicalSkills string `json:"technical_skills"`
	SoftSkills      string `json:"soft_skills"`
}

type educationEntry struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	Duration    string `json:"duration"`
}

type projectEntry struct {
	ProjectName       string   `json:"project_name"`
	ProjectExperience []string `json:"project_experience"`
}

// resumeSections holds the plain-text blocks fed to the JD match prompt.
type resumeSections struct {
	Skills     string
	Experience string
	Education  string
	Projects   string
}

// formatResumeSections flattens the stored section JSON into the text blocks
// the JD prompt expects. Sections that fail to decode render empty rather
// than failing the analysis.
func formatResumeSections(app applications.Application, experiences []applications.ProfessionalExperience) resumeSections {
	var skills []skillEntry
	_ = json.Unmarshal(app.Skills, &skills)
	var technical, soft []string
	for _, entry := range skills {
		if entry.TechnicalSkills != "" {
			technical = append(technical, entry.TechnicalSkills)
		}
		if entry.SoftSkills != "" {
			soft = append(soft, entry.SoftSkills)
		}
	}
	skillsText := "Technical Skills: " + strings.Join(technical, ", ") + "\n" +
		"Soft Skills: " + strings.Join(soft, ", ")

	expLines := make([]string, 0, len(experiences))
	for _, exp := range experiences {
		line := fmt.Sprintf("- %s: %s (%s)", exp.Organization, exp.Role, exp.Duration)
		if len(exp.Points) > 0 {
			texts := make([]string, 0, len(exp.Points))
			for _, p := range exp.Points {
				texts = append(texts, p.Text)
			}
			line += "\n  " + strings.Join(texts, "\n  ")
		}
		expLines = append(expLines, line)
	}

	var education []educationEntry
	_ = json.Unmarshal(app.Education, &education)
	eduLines := make([]string, 0, len(education))
	for _, edu := range education {
		eduLines = append(eduLines, fmt.Sprintf("- %s: %s (%s)", edu.Institution, edu.Degree, edu.Duration))
	}

	var projects []projectEntry
	_ = json.Unmarshal(app.PersonalProjects, &projects)
	projLines := make([]string, 0, len(projects))
	for _, proj := range projects {
		line := "- " + proj.ProjectName
		if len(proj.ProjectExperience) > 0 {
			line += "\n  " + strings.Join(proj.ProjectExperience, "\n  ")
		}
		projLines = append(projLines, line)
	}

	return resumeSections{
		Skills:     skillsText,
		Experience: strings.Join(expLines, "\n"),
		Education:  strings.Join(eduLines, "\n"),
		Projects:   strings.Join(projLines, "\n"),
	}
}

// experiencesContext converts experience rows into the JSON shape embedded
// in the skills and summary prompts.
func experiencesContext(experiences []applications.ProfessionalExperience) []map[string]any {
	out := make([]map[string]any, 0, len(experiences))
	for _, exp := range experiences {
		points := make([]map[string]any, 0, len(exp.Points))
		for _, p := range exp.Points {
			points = append(points, map[string]any{"id": p.ID, "text": p.Text})
		}
		out = append(out, map[string]any{
			"organization":             exp.Organization,
			"role":                     exp.Role,
			"duration":                 exp.Duration,
			"location":                 exp.Location,
			"organization_description": exp.OrganizationDescription,
			"points":                   points,
		})
	}
	return out
}

// rawOrEmptyList shields prompt JSON from null section columns.
func rawOrEmptyList(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("[]")
	}
	return raw
}

// formatExperienceBlocks renders the work history for the cover letter
// prompt, one block per role.
func formatExperienceBlocks(experiences []applications.ProfessionalExperience) string {
	if len(experiences) == 0 {
		return "No previous experience provided."
	}
	blocks := make([]string, 0, len(experiences))
	for _, exp := range experiences {
		var b strings.Builder
		fmt.Fprintf(&b, "%s - %s\n", exp.Organization, exp.Role)
		fmt.Fprintf(&b, "Duration: %s\n", exp.Duration)
		fmt.Fprintf(&b, "Location: %s\n", exp.Location)
		b.WriteString("Key Achievements:\n")
		for _, p := range exp.Points {
			fmt.Fprintf(&b, "- %s\n", p.Text)
		}
		if exp.OrganizationDescription != "" {
			fmt.Fprintf(&b, "\nOrganization: %s\n", exp.OrganizationDescription)
		}
		blocks = append(blocks, strings.TrimRight(b.String(), "\n"))
	}
	return strings.Join(blocks, "\n\n")
}

// formatAnswers renders the questionnaire answers for the cover letter
// prompt. Blank answers are skipped; keys are sorted so the prompt is
// deterministic.
func formatAnswers(answers map[string]string) string {
	keys := make([]string, 0, len(answers))
	for k, v := range answers {
		if strings.TrimSpace(v) != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return "Additional Context: None provided"
	}
	sort.Strings(keys)
	lines := []string{"Additional Context:"}
	for _, k := range keys {
		label, ok := questionLabels[k]
		if !ok {
			label = "Additional Info"
		}
		lines = append(lines, label+": "+answers[k])
	}
	return strings.Join(lines, "\n")
}

package parser

import "encoding/json"

// StructuredResume is the validated shape of a provider parse. Sections come
// back as a typed list; lookups are by type and tolerate absent sections.
type StructuredResume struct {
	Content SectionList `json:"content"`
}

// SectionList wraps the section collection.
type SectionList struct {
	Sections []Section `json:"sections"`
}

// Section is one typed resume section. Contact information and the executive
// summary carry Content; every other type carries Entries.
type Section struct {
	Type    string          `json:"type"`
	Content json.RawMessage `json:"content,omitempty"`
	Entries json.RawMessage `json:"entries,omitempty"`
}

// Section types the parse prompt asks for.
const (
	SectionContactInformation     = "contact_information"
	SectionExecutiveSummary       = "executive_summary"
	SectionProfessionalExperience = "professional_experience"
	SectionEducation              = "education"
	SectionSkills                 = "skills"
	SectionCertificates           = "certificates"
	SectionPersonalProjects       = "personal_projects"
	SectionMiscellaneous          = "miscellaneous"
)

// ExperienceEntry is one job position from the professional_experience
// section.
type ExperienceEntry struct {
	Organization            string   `json:"organization"`
	Role                    string   `json:"role"`
	Duration                string   `json:"duration"`
	Location                string   `json:"location"`
	OrganizationDescription string   `json:"organization_description"`
	Points                  []string `json:"points"`
}

// SectionContent returns the content payload of the first section with the
// given type, or nil when absent.
func (r *StructuredResume) SectionContent(sectionType string) json.RawMessage {
	for _, s := range r.Content.Sections {
		if s.Type == sectionType {
			return s.Content
		}
	}
	return nil
}

// SectionEntries returns the entries payload of the first section with the
// given type, or nil when absent.
func (r *StructuredResume) SectionEntries(sectionType string) json.RawMessage {
	for _, s := range r.Content.Sections {
		if s.Type == sectionType {
			return s.Entries
		}
	}
	return nil
}

// ExecutiveSummary decodes the executive_summary content as plain text.
// Returns empty when the section is absent or not a string.
func (r *StructuredResume) ExecutiveSummary() string {
	raw := r.SectionContent(SectionExecutiveSummary)
	if len(raw) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return ""
	}
	return text
}

// Experiences decodes the professional_experience entries. Absent or
// undecodable sections yield an empty slice.
func (r *StructuredResume) Experiences() []ExperienceEntry {
	raw := r.SectionEntries(SectionProfessionalExperience)
	if len(raw) == 0 {
		return nil
	}
	var entries []ExperienceEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil
	}
	return entries
}

package domain

import "strings"

// Section is the normalized category of a resume span.
type Section string

const (
	SectionSummary        Section = "summary"
	SectionSkills         Section = "skills"
	SectionExperience     Section = "experience"
	SectionEducation      Section = "education"
	SectionProjects       Section = "projects"
	SectionCertifications Section = "certifications"
	SectionAchievements   Section = "achievements"
	SectionInterests      Section = "interests"
	SectionLanguages      Section = "languages"
	SectionPublications   Section = "publications"
	SectionReferences     Section = "references"
	SectionPersonal       Section = "personal"
	SectionGeneral        Section = "general"
)

var allSections = []Section{
	SectionSummary,
	SectionSkills,
	SectionExperience,
	SectionEducation,
	SectionProjects,
	SectionCertifications,
	SectionAchievements,
	SectionInterests,
	SectionLanguages,
	SectionPublications,
	SectionReferences,
	SectionPersonal,
	SectionGeneral,
}

// AllSections returns every known section, general last.
func AllSections() []Section {
	out := make([]Section, len(allSections))
	copy(out, allSections)
	return out
}

// HeadingSections returns the sections that can be introduced by a heading line.
func HeadingSections() []Section {
	return AllSections()[:len(allSections)-1]
}

// ParseSection normalizes raw to a known section.
func ParseSection(raw string) (Section, bool) {
	candidate := Section(strings.ToLower(strings.TrimSpace(raw)))
	for _, s := range allSections {
		if s == candidate {
			return s, true
		}
	}
	return "", false
}

func (s Section) String() string {
	return string(s)
}

// Heading is a line recognized as the start of a section. LineNumber is zero-based.
type Heading struct {
	Section    Section `json:"section"`
	Line       string  `json:"line"`
	LineNumber int     `json:"line_number"`
}

// SectionRoute is the query-time section selection. Routed is false when no
// filter should be applied.
type SectionRoute struct {
	Sections   []Section `json:"sections"`
	Confidence string    `json:"confidence,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Routed     bool      `json:"routed"`
}

func UnroutedSection(reason string) SectionRoute {
	return SectionRoute{Reason: reason}
}

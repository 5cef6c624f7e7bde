package sections

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/resume-rag/internal/core/domain"
)

// Category is one row of the heading table: a section and the heading
// variants that introduce it.
type Category struct {
	Section  domain.Section
	Variants []string
}

// DefaultPatterns returns the built-in heading table in matching order.
func DefaultPatterns() []Category {
	return []Category{
		{domain.SectionSummary, []string{"summary", "professional summary", "profile", "career summary", "about me", "objective"}},
		{domain.SectionSkills, []string{"skills", "key skills", "technical skills", "professional skills", "core skills", "competencies", "expertise"}},
		{domain.SectionExperience, []string{"experience", "work experience", "professional experience", "employment history", "career history", "work history"}},
		{domain.SectionEducation, []string{"education", "academic background", "educational qualifications", "qualifications"}},
		{domain.SectionProjects, []string{"projects", "personal projects", "academic projects", "professional projects"}},
		{domain.SectionCertifications, []string{"certifications", "licenses", "certified courses", "certificates", "certificate"}},
		{domain.SectionAchievements, []string{"achievements", "accomplishments", "awards", "honors"}},
		{domain.SectionInterests, []string{"interests", "hobbies", "activities", "extracurricular activities"}},
		{domain.SectionLanguages, []string{"languages", "language proficiency"}},
		{domain.SectionPublications, []string{"publications", "research", "papers"}},
		{domain.SectionReferences, []string{"references", "referees"}},
		{domain.SectionPersonal, []string{"personal details", "personal information", "contact details"}},
	}
}

type patternFile struct {
	Sections map[string][]string `yaml:"sections"`
}

// LoadPatterns reads a YAML override of the heading table:
//
//	sections:
//	  skills: [skills, tech stack]
//
// Listed sections replace their default variants; the rest keep the defaults.
// An empty path returns DefaultPatterns.
func LoadPatterns(path string) ([]Category, error) {
	categories := DefaultPatterns()
	if strings.TrimSpace(path) == "" {
		return categories, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read section patterns: %w", err)
	}
	return mergePatterns(categories, raw)
}

func mergePatterns(categories []Category, raw []byte) ([]Category, error) {
	var file patternFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse section patterns", err)
	}

	for name, variants := range file.Sections {
		section, ok := domain.ParseSection(name)
		if !ok || section == domain.SectionGeneral {
			return nil, domain.WrapError(domain.ErrInvalidInput, "parse section patterns", fmt.Errorf("unknown section %q", name))
		}
		cleaned := make([]string, 0, len(variants))
		for _, v := range variants {
			if v = strings.TrimSpace(v); v != "" {
				cleaned = append(cleaned, v)
			}
		}
		if len(cleaned) == 0 {
			return nil, domain.WrapError(domain.ErrInvalidInput, "parse section patterns", fmt.Errorf("section %q has no variants", name))
		}
		for i := range categories {
			if categories[i].Section == section {
				categories[i].Variants = cleaned
			}
		}
	}
	return categories, nil
}

package usecase

import (
	"regexp"
	"strings"

	"github.com/kirillkom/resume-rag/internal/core/domain"
	"github.com/kirillkom/resume-rag/internal/core/sections"
)

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?\d[\d\s().\-]{6,}\d`)
)

// extractProfile derives the identity record of a resume. The first e-mail
// address is the identity key; without one the resume stays unidentified.
func extractProfile(doc domain.SourceDocument, secs sections.Sections) (domain.ProfileRecord, bool) {
	email := strings.ToLower(emailPattern.FindString(doc.Text))
	if email == "" {
		return domain.ProfileRecord{}, false
	}

	headerText := doc.Text
	if general, ok := secs.Get(domain.SectionGeneral); ok && general != "" {
		headerText = general
	} else if personal, ok := secs.Get(domain.SectionPersonal); ok && personal != "" {
		headerText = personal
	}

	return domain.ProfileRecord{
		IdentityKey: email,
		Name:        guessName(headerText),
		Email:       email,
		Phone:       findPhone(headerText),
		SourceID:    doc.Filename,
	}, true
}

// guessName picks the first short line that looks like a person's name.
func guessName(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.Trim(strings.TrimSpace(line), "#*_ ")
		line = strings.TrimPrefix(line, "Name:")
		line = strings.TrimSpace(line)
		if line == "" || strings.ContainsAny(line, "@/|:0123456789") {
			continue
		}
		if words := strings.Fields(line); len(words) > 5 {
			continue
		}
		return line
	}
	return ""
}

func findPhone(text string) string {
	for _, candidate := range phonePattern.FindAllString(text, -1) {
		digits := 0
		for _, r := range candidate {
			if r >= '0' && r <= '9' {
				digits++
			}
		}
		if digits >= 9 {
			return strings.TrimSpace(candidate)
		}
	}
	return ""
}

package usecase

import (
	"testing"

	"github.com/kirillkom/resume-rag/internal/core/domain"
	"github.com/kirillkom/resume-rag/internal/core/sections"
)

func TestExtractProfileFromHeader(t *testing.T) {
	text := "# Jane Doe\nJane.Doe@Example.com | +1 (555) 123-4567\n\n## Skills\nGo"
	doc := domain.SourceDocument{ID: "jane.md", Filename: "jane.md", Text: text}

	profile, ok := extractProfile(doc, sections.Default().Extract(text))
	if !ok {
		t.Fatalf("expected identity to be found")
	}
	if profile.IdentityKey != "jane.doe@example.com" || profile.Email != "jane.doe@example.com" {
		t.Fatalf("unexpected identity: %+v", profile)
	}
	if profile.Name != "Jane Doe" {
		t.Fatalf("expected name Jane Doe, got %q", profile.Name)
	}
	if profile.Phone != "+1 (555) 123-4567" {
		t.Fatalf("unexpected phone %q", profile.Phone)
	}
	if profile.SourceID != "jane.md" {
		t.Fatalf("unexpected source %q", profile.SourceID)
	}
}

func TestExtractProfileWithoutEmail(t *testing.T) {
	text := "John Roe\nSkills\nGo"
	if _, ok := extractProfile(domain.SourceDocument{Text: text}, sections.Default().Extract(text)); ok {
		t.Fatalf("expected no identity without an email address")
	}
}

func TestGuessNameSkipsContactLines(t *testing.T) {
	got := guessName("john@x.io\n2019 - 2023\n**John Roe**\nSenior engineer")
	if got != "John Roe" {
		t.Fatalf("expected John Roe, got %q", got)
	}
	if got := guessName("Name: Ada Lovelace"); got != "Ada Lovelace" {
		t.Fatalf("expected labelled name, got %q", got)
	}
}

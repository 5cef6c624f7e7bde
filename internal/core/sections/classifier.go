package sections

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/kirillkom/resume-rag/internal/core/domain"
)

// lineBreak splits on every line boundary PDF and OCR output produces,
// including bare carriage returns, form feeds and Unicode separators.
var lineBreak = regexp.MustCompile(`\r\n|[\n\r\v\f\x1c-\x1e\x{85}\x{2028}\x{2029}]`)

// ws is whitespace inside a heading line; Go's \s alone is ASCII only.
const ws = `[\s\v\p{Zs}]`

type matcher struct {
	section domain.Section
	re      *regexp.Regexp
}

// Classifier recognizes section headings in resume text. Matchers are
// compiled once; matching never fails.
type Classifier struct {
	matchers []matcher
}

// NewClassifier compiles one heading matcher per category.
func NewClassifier(categories []Category) (*Classifier, error) {
	matchers := make([]matcher, 0, len(categories))
	for _, cat := range categories {
		re, err := compileCategory(cat.Variants)
		if err != nil {
			return nil, fmt.Errorf("compile %s heading matcher: %w", cat.Section, err)
		}
		matchers = append(matchers, matcher{section: cat.Section, re: re})
	}
	return &Classifier{matchers: matchers}, nil
}

// Default returns a classifier over the built-in heading table.
func Default() *Classifier {
	c, err := NewClassifier(DefaultPatterns())
	if err != nil {
		panic(err)
	}
	return c
}

func compileCategory(variants []string) (*regexp.Regexp, error) {
	alts := make([]string, 0, len(variants)*2)
	for _, v := range variants {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		alts = append(alts, regexp.QuoteMeta(v))
		if spaced, ok := spacedForm(v); ok {
			alts = append(alts, spaced)
		}
	}
	if len(alts) == 0 {
		return nil, fmt.Errorf("no heading variants")
	}
	pattern := `(?i)^` + ws + `*(?:#{1,6}` + ws + `*)?[*_]*(?:` + strings.Join(alts, "|") + `)[\s\v\p{Zs}*_.\-:]*$`
	return regexp.Compile(pattern)
}

// spacedForm matches letter-spaced headings such as "S K I L L S" or
// "W O R K  E X P E R I E N C E". Only purely alphabetic variants qualify.
func spacedForm(variant string) (string, bool) {
	words := strings.Fields(variant)
	parts := make([]string, 0, len(words))
	for _, w := range words {
		letters := make([]string, 0, len(w))
		for _, r := range w {
			if !unicode.IsLetter(r) {
				return "", false
			}
			letters = append(letters, regexp.QuoteMeta(string(r)))
		}
		parts = append(parts, strings.Join(letters, ws+`*`))
	}
	return strings.Join(parts, ws+`+`), true
}

// Match returns the section a single line introduces, if any.
func (c *Classifier) Match(line string) (domain.Section, bool) {
	for _, m := range c.matchers {
		if m.re.MatchString(line) {
			return m.section, true
		}
	}
	return "", false
}

// DetectHeadings returns every heading match ordered by line number.
func (c *Classifier) DetectHeadings(text string) []domain.Heading {
	return c.detect(splitLines(text))
}

func (c *Classifier) detect(lines []string) []domain.Heading {
	var headings []domain.Heading
	for _, m := range c.matchers {
		for i, line := range lines {
			if m.re.MatchString(line) {
				headings = append(headings, domain.Heading{Section: m.section, Line: line, LineNumber: i})
			}
		}
	}
	sort.SliceStable(headings, func(i, j int) bool {
		return headings[i].LineNumber < headings[j].LineNumber
	})
	return headings
}

// Extract partitions text into sections. Text before the first heading is
// general; a document without headings becomes a single general section.
func (c *Classifier) Extract(text string) Sections {
	out := newSections()
	lines := splitLines(text)
	headings := c.detect(lines)

	if len(headings) == 0 {
		if body := strings.TrimSpace(text); body != "" {
			out.set(domain.SectionGeneral, body)
		}
		return out
	}

	if first := headings[0].LineNumber; first > 0 {
		out.set(domain.SectionGeneral, strings.TrimSpace(strings.Join(lines[:first], "\n")))
	}

	for i, h := range headings {
		start := h.LineNumber + 1
		end := len(lines)
		if i+1 < len(headings) {
			end = headings[i+1].LineNumber
		}
		body := ""
		if start < end {
			body = strings.TrimSpace(strings.Join(lines[start:end], "\n"))
		}
		out.set(h.Section, body)
	}
	return out
}

func splitLines(text string) []string {
	return lineBreak.Split(text, -1)
}

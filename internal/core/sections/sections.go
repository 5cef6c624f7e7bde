package sections

import "github.com/kirillkom/resume-rag/internal/core/domain"

// Sections maps section names to their text. A repeated section keeps the
// position of its first occurrence and the text of its last.
type Sections struct {
	order []domain.Section
	text  map[domain.Section]string
}

func newSections() Sections {
	return Sections{text: make(map[domain.Section]string)}
}

func (s *Sections) set(section domain.Section, body string) {
	if _, ok := s.text[section]; !ok {
		s.order = append(s.order, section)
	}
	s.text[section] = body
}

func (s Sections) Names() []domain.Section {
	out := make([]domain.Section, len(s.order))
	copy(out, s.order)
	return out
}

func (s Sections) Get(section domain.Section) (string, bool) {
	body, ok := s.text[section]
	return body, ok
}

func (s Sections) Len() int {
	return len(s.order)
}

func (s Sections) Map() map[domain.Section]string {
	out := make(map[domain.Section]string, len(s.text))
	for k, v := range s.text {
		out[k] = v
	}
	return out
}

package ollama

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/prompts"

	"github.com/kirillkom/resume-rag/internal/core/domain"
)

// DefaultAnswerTemplate keeps the model inside the retrieved resumes.
const DefaultAnswerTemplate = `Answer the question based only on the following context.
If the answer cannot be found in the context, say "I cannot find this information in the provided resumes."

Context:
{{.context}}

Question: {{.question}}

Answer (name the candidates your answer relies on):`

func newAnswerPrompt(template string) (prompts.PromptTemplate, error) {
	if strings.TrimSpace(template) == "" {
		template = DefaultAnswerTemplate
	}
	tmpl := prompts.NewPromptTemplate(template, []string{"context", "question"})
	if _, err := tmpl.Format(map[string]any{"context": "", "question": ""}); err != nil {
		return prompts.PromptTemplate{}, domain.WrapError(domain.ErrInvalidInput, "parse answer template", err)
	}
	return tmpl, nil
}

func buildRouterPrompt(question string) string {
	names := make([]string, 0, len(domain.AllSections()))
	for _, s := range domain.AllSections() {
		names = append(names, string(s))
	}

	return fmt.Sprintf(`You route questions about resumes to resume sections.
Available sections: %s.

Rules:
- Pick every section that could contain the answer, most relevant first.
- Questions about contact data, names or e-mail addresses belong to "personal" and "general".
- If no section fits, return ["general"].
- Use only the section names listed above.

Return strict JSON with keys:
sections (array of section names), confidence ("high", "medium" or "low"), reason (short string).
No markdown, no extra keys.

Question:
%s`, strings.Join(names, ", "), question)
}

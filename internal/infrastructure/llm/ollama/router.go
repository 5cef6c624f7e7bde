package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/kirillkom/resume-rag/internal/core/domain"
)

var confidenceLevels = []any{"high", "medium", "low"}

func routeSchema() map[string]any {
	names := make([]any, 0, len(domain.AllSections()))
	for _, s := range domain.AllSections() {
		names = append(names, string(s))
	}
	return map[string]any{
		"type":     "object",
		"required": []any{"sections"},
		"properties": map[string]any{
			"sections": map[string]any{
				"type":     "array",
				"items":    map[string]any{"type": "string", "enum": names},
				"maxItems": len(names),
			},
			"confidence": map[string]any{"type": "string", "enum": confidenceLevels},
			"reason":     map[string]any{"type": "string"},
		},
	}
}

// SectionClassifier asks the router model which sections a question targets
// and checks the answer against a JSON schema before trusting it.
type SectionClassifier struct {
	client *Client
	schema *gojsonschema.Schema
}

func NewSectionClassifier(client *Client) (*SectionClassifier, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(routeSchema()))
	if err != nil {
		return nil, fmt.Errorf("compile route schema: %w", err)
	}
	return &SectionClassifier{client: client, schema: schema}, nil
}

func (c *SectionClassifier) ClassifySections(ctx context.Context, question string) (domain.SectionRoute, error) {
	raw, err := c.client.generateJSON(ctx, c.client.routerModel, buildRouterPrompt(question))
	if err != nil {
		return domain.SectionRoute{}, err
	}
	return c.parseRoute(raw)
}

// parseRoute lowercases names and confidence before validation, so the enum
// check accepts "Skills" but rejects anything outside the section set.
func (c *SectionClassifier) parseRoute(raw string) (domain.SectionRoute, error) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &doc); err != nil {
		return domain.SectionRoute{}, domain.WrapError(domain.ErrInvalidInput, "decode section route", err)
	}
	normalizeRouteDoc(doc)

	result, err := c.schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return domain.SectionRoute{}, domain.WrapError(domain.ErrInvalidInput, "parse section route", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return domain.SectionRoute{}, domain.WrapError(domain.ErrInvalidInput, "validate section route", errors.New(strings.Join(msgs, "; ")))
	}

	route := domain.SectionRoute{Routed: true}
	if v, ok := doc["confidence"].(string); ok {
		route.Confidence = normalizeConfidence(v)
	}
	if v, ok := doc["reason"].(string); ok {
		route.Reason = strings.TrimSpace(v)
	}
	items, _ := doc["sections"].([]any)
	for _, item := range items {
		name, _ := item.(string)
		if section, ok := domain.ParseSection(name); ok {
			route.Sections = append(route.Sections, section)
		}
	}
	return route, nil
}

func normalizeRouteDoc(doc map[string]any) {
	if items, ok := doc["sections"].([]any); ok {
		for i, item := range items {
			if name, ok := item.(string); ok {
				items[i] = strings.ToLower(strings.TrimSpace(name))
			}
		}
	}
	if v, ok := doc["confidence"].(string); ok {
		doc["confidence"] = strings.ToLower(strings.TrimSpace(v))
	}
}

func normalizeConfidence(raw string) string {
	switch v := strings.ToLower(strings.TrimSpace(raw)); v {
	case "high", "medium", "low":
		return v
	default:
		return ""
	}
}

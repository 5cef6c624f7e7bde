package mcpadapter

import (
	"context"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirillkom/resume-rag/internal/core/domain"
)

type queryFake struct {
	answer *domain.Answer
	err    error
}

func (f queryFake) Answer(context.Context, string) (*domain.Answer, error) {
	return f.answer, f.err
}

type routingFake struct {
	route domain.SectionRoute
}

func (f routingFake) Route(context.Context, string) domain.SectionRoute {
	return f.route
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return text.Text
}

func TestAskResumesFormatsAnswerAndSources(t *testing.T) {
	answer := &domain.Answer{
		Text: "Jane has five years of Go.",
		Sources: []domain.RetrievedChunk{
			{Chunk: domain.Chunk{ID: "1", SourceID: "jane.md", Section: domain.SectionSkills, IdentityKey: "jane@x.io"}},
			{Chunk: domain.Chunk{ID: "2", SourceID: "jane.md", Section: domain.SectionSkills, IdentityKey: "jane@x.io"}},
			{Chunk: domain.Chunk{ID: "3", SourceID: "cv.txt", Section: domain.SectionGeneral}},
		},
	}
	s := NewServer(queryFake{answer: answer}, routingFake{}, nil)

	res, err := s.askResumes(context.Background(), callRequest(map[string]any{"question": "who knows Go?"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t,
		"Jane has five years of Go.\n\nSources:\n- jane.md (skills, jane@x.io)\n- cv.txt (general, Unknown)",
		resultText(t, res),
	)
}

func TestAskResumesRequiresQuestion(t *testing.T) {
	s := NewServer(queryFake{}, routingFake{}, nil)

	res, err := s.askResumes(context.Background(), callRequest(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestAskResumesReportsMissingCorpus(t *testing.T) {
	s := NewServer(queryFake{err: domain.WrapError(domain.ErrCorpusMissing, "load", errors.New("none"))}, routingFake{}, nil)

	res, err := s.askResumes(context.Background(), callRequest(map[string]any{"question": "q"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "resumectl ingest")
}

func TestRouteQuestion(t *testing.T) {
	s := NewServer(queryFake{}, routingFake{route: domain.SectionRoute{
		Sections:   []domain.Section{domain.SectionSkills, domain.SectionProjects},
		Confidence: "medium",
		Routed:     true,
	}}, nil)

	res, err := s.routeQuestion(context.Background(), callRequest(map[string]any{"question": "q"}))
	require.NoError(t, err)
	assert.Equal(t, "sections: skills, projects\nconfidence: medium", resultText(t, res))
}

func TestFormatAnswerWithoutSources(t *testing.T) {
	assert.Equal(t, "No relevant documents found.", FormatAnswer(&domain.Answer{Text: "No relevant documents found.", NoContext: true}))
}

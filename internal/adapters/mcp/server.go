// Package mcpadapter exposes the resume query pipeline as MCP tools over
// stdio.
package mcpadapter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/resume-rag/internal/core/domain"
	"github.com/kirillkom/resume-rag/internal/core/ports"
)

const (
	serverName    = "resume-rag"
	serverVersion = "0.1.0"
)

type Server struct {
	query   ports.ResumeQueryService
	routing ports.SectionRouterService
	logger  *slog.Logger
	mcp     *server.MCPServer
}

func NewServer(query ports.ResumeQueryService, routing ports.SectionRouterService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		query:   query,
		routing: routing,
		logger:  logger,
		mcp:     server.NewMCPServer(serverName, serverVersion, server.WithToolCapabilities(false)),
	}

	s.mcp.AddTool(mcp.NewTool("ask_resumes",
		mcp.WithDescription("Answer a question using only the ingested resumes. Returns the answer and the resume chunks it is based on."),
		mcp.WithString("question", mcp.Required(), mcp.Description("Natural-language question about the candidates")),
	), s.askResumes)

	s.mcp.AddTool(mcp.NewTool("route_question",
		mcp.WithDescription("Show which resume sections a question would be searched in."),
		mcp.WithString("question", mcp.Required(), mcp.Description("Question to route")),
	), s.routeQuestion)

	return s
}

// ServeStdio blocks until stdin closes. Logs must not go to stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) askResumes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := req.RequireString("question")
	if err != nil || strings.TrimSpace(question) == "" {
		return mcp.NewToolResultError("question is required"), nil
	}

	answer, err := s.query.Answer(ctx, question)
	if err != nil {
		s.logger.Warn("mcp_tool_failed", "tool", "ask_resumes", "error", err)
		if domain.IsConfigurationError(err) {
			return mcp.NewToolResultError("the resume corpus is not ingested; run `resumectl ingest` first"), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("answer failed: %v", err)), nil
	}
	return mcp.NewToolResultText(FormatAnswer(answer)), nil
}

func (s *Server) routeQuestion(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := req.RequireString("question")
	if err != nil || strings.TrimSpace(question) == "" {
		return mcp.NewToolResultError("question is required"), nil
	}

	route := s.routing.Route(ctx, question)
	names := make([]string, 0, len(route.Sections))
	for _, section := range route.Sections {
		names = append(names, string(section))
	}
	text := "sections: " + strings.Join(names, ", ")
	if !route.Routed {
		text += "\n(unrouted: " + route.Reason + ")"
	} else if route.Confidence != "" {
		text += "\nconfidence: " + route.Confidence
	}
	return mcp.NewToolResultText(text), nil
}

// FormatAnswer renders an answer followed by its deduplicated source files.
func FormatAnswer(answer *domain.Answer) string {
	var b strings.Builder
	b.WriteString(answer.Text)
	if len(answer.Sources) == 0 {
		return b.String()
	}

	b.WriteString("\n\nSources:")
	seen := make(map[string]struct{}, len(answer.Sources))
	for _, src := range answer.Sources {
		key := src.SourceID + "|" + string(src.Section)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		fmt.Fprintf(&b, "\n- %s (%s, %s)", src.SourceID, src.Section, src.Identity())
	}
	return b.String()
}

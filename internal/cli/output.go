package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/kirillkom/resume-rag/internal/core/domain"
)

var (
	headingColor = color.New(color.Bold)
	sourceColor  = color.New(color.FgCyan)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
)

func errorText(err error) string {
	msg := err.Error()
	if domain.IsConfigurationError(err) {
		msg += "\nhint: run `resumectl ingest` against the same storage path first"
	}
	return errorColor.Sprint("error: ") + msg
}

func printAnswer(w io.Writer, answer *domain.Answer) {
	headingColor.Fprintln(w, "Answer:")
	fmt.Fprintln(w, answer.Text)
	if len(answer.Sections) > 0 {
		fmt.Fprintf(w, "\nSections: %s\n", joinSections(answer.Sections))
	}
	if len(answer.Sources) == 0 {
		return
	}

	fmt.Fprintln(w)
	headingColor.Fprintln(w, "Sources:")
	for i, src := range answer.Sources {
		sourceColor.Fprintf(w, "%d. %s", i+1, src.SourceID)
		fmt.Fprintf(w, " [%s] %s score=%.4f %s\n", src.Section, src.Identity(), src.Score, src.Method)
	}
}

func printReport(w io.Writer, report *domain.IngestReport) {
	headingColor.Fprintln(w, "Ingestion complete")
	fmt.Fprintf(w, "  documents: %d\n  chunks:    %d\n  profiles:  %d\n", report.Documents, report.Chunks, report.Profiles)
	if len(report.Skipped) > 0 {
		warnColor.Fprintf(w, "  skipped:   %d\n", len(report.Skipped))
		for _, name := range report.Skipped {
			fmt.Fprintf(w, "    - %s\n", name)
		}
	}
}

func printRoute(w io.Writer, question string, route domain.SectionRoute) {
	headingColor.Fprintf(w, "%s\n", question)
	if !route.Routed {
		warnColor.Fprintf(w, "  unrouted: %s\n", route.Reason)
		return
	}
	fmt.Fprintf(w, "  sections:   %s\n", joinSections(route.Sections))
	if route.Confidence != "" {
		fmt.Fprintf(w, "  confidence: %s\n", route.Confidence)
	}
	if route.Reason != "" {
		fmt.Fprintf(w, "  reason:     %s\n", route.Reason)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func joinSections(sections []domain.Section) string {
	names := make([]string, 0, len(sections))
	for _, s := range sections {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}

package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/kirillkom/resume-rag/internal/bootstrap"
	"github.com/kirillkom/resume-rag/internal/core/domain"
)

func newSectionsCommand(st *state) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "sections <file>",
		Short: "Print the headings and sections detected in a resume file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			text, err := extractFile(cmd, path)
			if err != nil {
				return err
			}

			classifier, err := bootstrap.LoadSectionClassifier(st.cfg)
			if err != nil {
				return err
			}
			headings := classifier.DetectHeadings(text)
			secs := classifier.Extract(text)

			if asJSON {
				sizes := make(map[string]int, secs.Len())
				for _, name := range secs.Names() {
					body, _ := secs.Get(name)
					sizes[string(name)] = utf8.RuneCountInString(body)
				}
				return writeJSON(st.stdout, map[string]any{
					"file":     filepath.Base(path),
					"headings": headings,
					"sections": sizes,
				})
			}

			headingColor.Fprintf(st.stdout, "%s\n", filepath.Base(path))
			if len(headings) == 0 {
				warnColor.Fprintln(st.stdout, "  no headings detected")
			}
			for _, h := range headings {
				fmt.Fprintf(st.stdout, "  line %-4d %-15s %s\n", h.LineNumber+1, h.Section, h.Line)
			}
			fmt.Fprintln(st.stdout)
			for _, name := range secs.Names() {
				body, _ := secs.Get(name)
				fmt.Fprintf(st.stdout, "  %-15s %d chars\n", name, utf8.RuneCountInString(body))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print headings and section sizes as JSON")
	return cmd
}

func extractFile(cmd *cobra.Command, path string) (string, error) {
	for _, extractor := range bootstrap.Extractors() {
		if !extractor.Supports(path) {
			continue
		}
		f, err := os.Open(path)
		if err != nil {
			return "", err
		}
		defer f.Close()
		return extractor.Extract(cmd.Context(), filepath.Base(path), f)
	}
	return "", domain.WrapError(domain.ErrInvalidInput, "read resume", fmt.Errorf("unsupported file type: %s", path))
}

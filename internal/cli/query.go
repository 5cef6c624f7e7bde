package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kirillkom/resume-rag/internal/bootstrap"
)

func newQueryCommand(st *state) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "query <question>",
		Short: "Answer a question from the ingested resumes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.TrimSpace(strings.Join(args, " "))
			if question == "" {
				return fmt.Errorf("question is required")
			}

			app, err := bootstrap.New(cmd.Context(), st.cfg, st.logger)
			if err != nil {
				return err
			}
			defer app.Close()

			answer, err := app.QueryUC.Answer(cmd.Context(), question)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(st.stdout, answer)
			}
			printAnswer(st.stdout, answer)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the answer as JSON")
	return cmd
}

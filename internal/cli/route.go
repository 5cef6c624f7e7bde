package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/kirillkom/resume-rag/internal/bootstrap"
)

func newRouteCommand(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "route <question>...",
		Short: "Show the resume sections each question is routed to",
		Long:  "Each argument is routed separately, which makes it easy to check the router against a list of questions.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			router, err := bootstrap.NewSectionRouter(st.cfg, st.logger)
			if err != nil {
				return err
			}
			for _, question := range args {
				question = strings.TrimSpace(question)
				if question == "" {
					continue
				}
				printRoute(st.stdout, question, router.Route(cmd.Context(), question))
			}
			return nil
		},
	}
}

package cli

import (
	"github.com/spf13/cobra"

	mcpadapter "github.com/kirillkom/resume-rag/internal/adapters/mcp"
	"github.com/kirillkom/resume-rag/internal/bootstrap"
)

func newMCPCommand(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the ask_resumes tool over MCP stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := bootstrap.New(cmd.Context(), st.cfg, st.logger)
			if err != nil {
				return err
			}
			defer app.Close()

			st.logger.Info("mcp_server_started", "transport", "stdio")
			return mcpadapter.NewServer(app.QueryUC, app.RouterUC, st.logger).ServeStdio()
		},
	}
}

package cli

import (
	"github.com/spf13/cobra"

	"github.com/kirillkom/resume-rag/internal/bootstrap"
)

func newIngestCommand(st *state) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Rebuild the vector index, corpus snapshot and profiles from the data directory",
		Long: "Reads every resume in DATA_PATH, extracts sections and identities, and replaces " +
			"the Qdrant collection, the lexical corpus snapshot and the profile records. " +
			"Stop the API before ingesting into the same storage path.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ingestor, err := bootstrap.NewIngestor(cmd.Context(), st.cfg, st.logger)
			if err != nil {
				return err
			}
			defer ingestor.Close()

			report, err := ingestor.IngestUC.IngestAll(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(st.stdout, report)
			}
			printReport(st.stdout, report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

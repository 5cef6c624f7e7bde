// Package cli implements resumectl, the operator tool for ingesting resumes
// and querying them from a terminal.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kirillkom/resume-rag/internal/config"
	"github.com/kirillkom/resume-rag/internal/observability/logging"
)

type state struct {
	configFile string
	logLevel   string
	logFormat  string

	cfg    config.Config
	logger *slog.Logger
	stdout io.Writer
	stderr io.Writer
}

// NewRootCommand wires every subcommand around one shared configuration.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	st := &state{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "resumectl",
		Short:         "resumectl: ingest resumes and ask questions about them",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return st.load()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVarP(&st.configFile, "config", "c", "", "config file (overrides "+config.ConfigFileEnv+")")
	root.PersistentFlags().StringVar(&st.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&st.logFormat, "log-format", "text", "log format: text or json")

	root.AddCommand(
		newIngestCommand(st),
		newQueryCommand(st),
		newSectionsCommand(st),
		newRouteCommand(st),
		newMCPCommand(st),
	)
	return root
}

// Execute runs resumectl and exits non-zero on failure.
func Execute(ctx context.Context) {
	root := NewRootCommand(os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorText(err))
		os.Exit(1)
	}
}

func (st *state) load() error {
	path := st.configFile
	if path == "" {
		path = os.Getenv(config.ConfigFileEnv)
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	if st.logLevel != "" {
		cfg.LogLevel = st.logLevel
	}
	st.cfg = cfg

	// stdout carries command output and the MCP stream, so logs go to stderr.
	st.logger = logging.NewLogger(st.stderr, "resumectl", cfg.LogLevel, st.logFormat)
	slog.SetDefault(st.logger)
	return nil
}

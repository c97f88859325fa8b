// Package cmd provides the symbolgraph CLI commands.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/symbolgraph/symbolgraph/internal/logging"
	"github.com/symbolgraph/symbolgraph/pkg/version"
)

var (
	debugMode      bool
	loggingCleanup func()
)

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the symbolgraph root command and registers every
// subcommand.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "symbolgraph",
		Short:   "Incremental code-indexing and hybrid search over a repository",
		Version: version.Version,
		Long: `symbolgraph indexes a repository into symbols, imports, and
BM25/semantic search documents, then serves keyword, semantic, and
import-graph queries over the result.

Run 'symbolgraph index' in a project directory, then 'symbolgraph search'
or 'symbolgraph graph' to query the index it built.`,
		SilenceUsage: true,
	}
	cmd.SetVersionTemplate("symbolgraph version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to the symbolgraph log directory")
	cmd.PersistentPreRunE = setupLogging
	cmd.PersistentPostRunE = teardownLogging

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newGraphCmd())
	cmd.AddCommand(newStatsCmd())

	return cmd
}

func setupLogging(_ *cobra.Command, _ []string) error {
	cfg := logging.DefaultConfig()
	cfg.WriteToStderr = false
	if debugMode {
		cfg = logging.DebugConfig()
		cfg.WriteToStderr = false
	}
	logger, cleanup, err := logging.Setup(cfg)
	if err != nil {
		return err
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	return nil
}

func teardownLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
	}
	return nil
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show index summary statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.store.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("load stats: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Files:            %d\n", stats.TotalFiles)
			fmt.Fprintf(out, "Files embedded:   %d\n", stats.FilesWithEmbeddings)
			fmt.Fprintf(out, "Symbols:          %d\n", stats.TotalSymbols)
			fmt.Fprintf(out, "Imports:          %d\n", stats.TotalImports)
			fmt.Fprintf(out, "Last indexed at:  %d (unix ms)\n", stats.LastIndexedAtMs)
			fmt.Fprintln(out, "Languages:")
			for lang, count := range stats.Languages {
				fmt.Fprintf(out, "  %s: %d\n", lang, count)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&root, "root", ".", "Project root to summarize")
	return cmd
}

package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/symbolgraph/symbolgraph/internal/indexer"
	"github.com/symbolgraph/symbolgraph/internal/store"
)

func newIndexCmd() *cobra.Command {
	var (
		files          []string
		ignore         []string
		skipEmbeddings bool
	)

	cmd := &cobra.Command{
		Use:   "index [path]",
		Short: "Index a directory for searching",
		Long: `Index walks a project directory (or an explicit file list),
extracts symbols and imports, and populates the BM25, semantic, and
import-graph domains used by 'search' and 'graph'.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) > 0 {
				root = args[0]
			}
			absRoot, err := filepath.Abs(root)
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			return runIndex(cmd.Context(), cmd, absRoot, files, ignore, skipEmbeddings)
		},
	}

	cmd.Flags().StringSliceVar(&files, "file", nil, "Index only these paths (repeatable), skipping directory discovery")
	cmd.Flags().StringSliceVar(&ignore, "ignore", nil, "Additional gitignore-syntax patterns to exclude (repeatable)")
	cmd.Flags().BoolVar(&skipEmbeddings, "skip-embeddings", false, "Populate the lexical and graph domains only, skip chunking/embedding")

	cmd.AddCommand(newIndexInfoCmd())
	return cmd
}

func newIndexInfoCmd() *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show the embedder an index was built with and whether it still matches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer a.Close()

			info, err := a.store.GetIndexInfo(cmd.Context(), a.root, a.paths.DBPath, a.paths.BleveDir, a.paths.VectorDir,
				store.EmbedderInfo{Model: a.embed.ModelName(), Backend: a.embed.Backend(), Dimensions: a.embed.Dimensions()})
			if err != nil {
				return fmt.Errorf("load index info: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Location:          %s\n", info.Location)
			fmt.Fprintf(out, "Project root:      %s\n", info.ProjectRoot)
			fmt.Fprintf(out, "Documents:         %d\n", info.DocumentCount)
			fmt.Fprintf(out, "Chunks:            %d\n", info.ChunkCount)
			fmt.Fprintf(out, "Index size:        %d bytes\n", info.IndexSizeBytes)
			fmt.Fprintf(out, "BM25 size:         %d bytes\n", info.BM25SizeBytes)
			fmt.Fprintf(out, "Vector size (est): %d bytes\n", info.VectorSizeBytes)
			if !info.CreatedAt.IsZero() {
				fmt.Fprintf(out, "Created at:        %s\n", info.CreatedAt.Format(time.RFC3339))
			}
			if !info.UpdatedAt.IsZero() {
				fmt.Fprintf(out, "Last indexed at:   %s\n", info.UpdatedAt.Format(time.RFC3339))
			}
			fmt.Fprintf(out, "Index embedder:    %s (%s)\n", valueOrNone(info.IndexModel), valueOrNone(info.IndexBackend))
			fmt.Fprintf(out, "Current embedder:  %s (%s, %d dims)\n", info.CurrentModel, info.CurrentBackend, info.CurrentDimensions)
			if info.Compatible {
				fmt.Fprintln(out, "Compatible:        yes")
			} else {
				fmt.Fprintln(out, "Compatible:        no — reindex required before search will return correct results")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&root, "root", ".", "Project root to inspect")
	return cmd
}

func valueOrNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func runIndex(ctx context.Context, cmd *cobra.Command, root string, files, ignore []string, skipEmbeddings bool) error {
	a, err := openApp(ctx, root)
	if err != nil {
		return err
	}
	defer a.Close()

	opts := indexer.Options{
		Files:          files,
		IgnorePatterns: append(append([]string{}, a.cfg.Paths.Exclude...), ignore...),
		SkipEmbeddings: skipEmbeddings || a.cfg.Indexing.SkipEmbeddings,
	}

	stats, err := a.Indexer.IndexRepository(ctx, root, opts)
	if err != nil {
		return fmt.Errorf("index repository: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Indexed %d/%d files (%d already up to date, %d skipped) in %dms\n",
		stats.Indexed, stats.Total, stats.AlreadyIndexed, stats.Skipped, stats.ElapsedMs)
	fmt.Fprintf(out, "Symbols: %d · Files embedded this run: %d\n", stats.TotalSymbols, stats.FilesWithEmbeddings)
	for lang, count := range stats.LanguagesHistogram {
		fmt.Fprintf(out, "  %s: %d\n", lang, count)
	}
	for _, fe := range stats.Errors {
		fmt.Fprintf(cmd.ErrOrStderr(), "error: %s: %v\n", fe.FilePath, fe.Err)
	}
	return nil
}

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/symbolgraph/symbolgraph/internal/search"
)

type searchOptions struct {
	limit  int
	mode   string // "keyword", "semantic", "import"
	format string // "text", "json"
	root   string
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the indexed codebase",
		Long: `Search runs one of three retrieval modes over an index built by
'symbolgraph index':

  keyword   BM25 full-text search over code_stream (default)
  semantic  embedding similarity search, degrading to keyword when no
            vector store or embedding backend is available
  import    group files whose imports mention the query substring`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd.Context(), cmd, query, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 10, "Maximum number of results")
	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "keyword", "Search mode: keyword, semantic, import")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().StringVar(&opts.root, "root", ".", "Project root to search")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
	a, err := openApp(ctx, opts.root)
	if err != nil {
		return err
	}
	defer a.Close()

	var results []search.SearchResult
	switch opts.mode {
	case "keyword":
		results, err = a.Search.SearchKeyword(ctx, query, opts.limit)
	case "semantic":
		results, err = a.Search.SearchSemantic(ctx, query, opts.limit)
	case "import":
		results, err = a.Search.SearchImportGraph(ctx, query, opts.limit)
	default:
		return fmt.Errorf("unknown search mode %q: want keyword, semantic, or import", opts.mode)
	}
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	if opts.format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	out := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintln(out, "No results.")
		return nil
	}
	for i, r := range results {
		fmt.Fprintf(out, "%d. %s  [%s]  score=%.4f\n", i+1, r.FilePath, r.Type, r.Score)
		if r.Snippet != "" {
			fmt.Fprintf(out, "   %s\n", strings.ReplaceAll(r.Snippet, "\n", " "))
		}
		if degraded, ok := r.Metadata["degraded"].(bool); ok && degraded {
			fmt.Fprintf(out, "   (degraded: %v)\n", r.Metadata["fallback_reason"])
		}
	}
	return nil
}

// Package search implements SearchEngine: keyword, semantic, and
// import-graph queries over IndexStore plus the external LexicalIndex and
// VectorStore collaborators.
package search

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/symbolgraph/symbolgraph/internal/domain"
)

// MatchType identifies which retrieval path produced a SearchResult.
type MatchType string

const (
	MatchKeyword  MatchType = "keyword"
	MatchSemantic MatchType = "semantic"
	MatchImport   MatchType = "import"
)

// SearchResult is one ranked hit from any of the three entry points.
type SearchResult struct {
	FilePath string
	Score    float64
	Type     MatchType
	Symbols  []domain.Symbol
	Snippet  string
	Metadata map[string]any
}

// SymbolStore is the subset of IndexStore symbol/authority lookups Engine
// consumes.
type SymbolStore interface {
	SymbolsForFile(ctx context.Context, filePath string) ([]domain.Symbol, error)
	AuthorityAndPartition(ctx context.Context, filePath string) (authority float64, partition string, found bool, err error)
}

// ImportGraphStore is the import-grouping query Engine consumes for
// SearchImportGraph.
type ImportGraphStore interface {
	ImportsByModuleSubstring(ctx context.Context, moduleSubstring string, limit int) ([]domain.ImportGraphHit, error)
}

const candidateMultiplier = 3
const snippetChars = 200

// ErrNilDependency is returned by New when a required collaborator is nil.
var ErrNilDependency = errors.New("nil dependency")

// Reranker optionally reorders a result set after ranking. It must
// preserve the unreranked order's determinism among ties.
type Reranker interface {
	Rerank(ctx context.Context, query string, results []SearchResult) ([]SearchResult, error)
}

// Engine implements SearchKeyword, SearchSemantic, SearchImportGraph.
type Engine struct {
	symbols SymbolStore
	imports ImportGraphStore
	lexical domain.LexicalIndex
	vectors domain.VectorStore
	embed   domain.EmbeddingBackend

	similarityThreshold float64
	vectorCollection    string
	reranker            Reranker

	rootDir string
}

// Config configures an Engine.
type Config struct {
	SimilarityThreshold float64
	VectorCollection    string
	RootDir             string
	Reranker            Reranker
}

// New validates required dependencies and returns an Engine.
// Vector/embedding collaborators are optional: when absent, SearchSemantic
// always degrades to SearchKeyword.
func New(symbols SymbolStore, imports ImportGraphStore, lexical domain.LexicalIndex, vectors domain.VectorStore, embed domain.EmbeddingBackend, cfg Config) (*Engine, error) {
	if symbols == nil || imports == nil || lexical == nil {
		return nil, fmt.Errorf("search.New: %w", ErrNilDependency)
	}
	threshold := cfg.SimilarityThreshold
	if threshold <= 0 {
		threshold = 0.25
	}
	collection := cfg.VectorCollection
	if collection == "" {
		collection = "code"
	}
	return &Engine{
		symbols:             symbols,
		imports:             imports,
		lexical:             lexical,
		vectors:             vectors,
		embed:               embed,
		similarityThreshold: threshold,
		vectorCollection:    collection,
		reranker:            cfg.Reranker,
		rootDir:             cfg.RootDir,
	}, nil
}

// SearchKeyword executes BM25 search, hydrates symbols, and applies
// authority weighting per §4.8.
func (e *Engine) SearchKeyword(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	hits, err := e.lexical.Search(ctx, query, limit*candidateMultiplier)
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}

	results := make([]SearchResult, 0, len(hits))
	for _, hit := range hits {
		result, ok, err := e.hydrateKeywordHit(ctx, hit)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		results = append(results, result)
	}

	return finalize(results, limit), nil
}

func (e *Engine) hydrateKeywordHit(ctx context.Context, hit domain.LexicalHit) (SearchResult, bool, error) {
	filePath := hit.ID
	if _, err := os.Stat(e.absPath(filePath)); err != nil {
		return SearchResult{}, false, nil
	}

	symbols, err := e.symbols.SymbolsForFile(ctx, filePath)
	if err != nil {
		return SearchResult{}, false, fmt.Errorf("hydrate symbols for %s: %w", filePath, err)
	}

	authority, partition, _, err := e.symbols.AuthorityAndPartition(ctx, filePath)
	if err != nil {
		return SearchResult{}, false, fmt.Errorf("authority lookup for %s: %w", filePath, err)
	}

	snippet, _ := readSnippet(e.absPath(filePath), snippetChars)

	return SearchResult{
		FilePath: filePath,
		Score:    hit.Score * authority,
		Type:     MatchKeyword,
		Symbols:  symbols,
		Snippet:  snippet,
		Metadata: map[string]any{
			"original_score":  hit.Score,
			"authority_score": authority,
			"partition":       partition,
		},
	}, true, nil
}

// SearchSemantic executes vector search when available, hydrating symbols
// and applying authority weighting, degrading to SearchKeyword (without
// ever mislabeling match_type) when the VectorStore or EmbeddingBackend is
// unavailable or errors.
func (e *Engine) SearchSemantic(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if e.vectors == nil || e.embed == nil {
		return e.degradeToKeyword(ctx, query, limit, "vector store unavailable")
	}

	vectors, err := e.embed.Embed(ctx, []string{query})
	if err != nil || len(vectors) == 0 {
		return e.degradeToKeyword(ctx, query, limit, fmt.Sprintf("embed query: %v", err))
	}

	hits, err := e.vectors.SearchSimilar(ctx, e.vectorCollection, vectors[0], limit*candidateMultiplier, e.similarityThreshold)
	if err != nil {
		return e.degradeToKeyword(ctx, query, limit, fmt.Sprintf("vector search: %v", err))
	}

	results := make([]SearchResult, 0, len(hits))
	for _, hit := range hits {
		filePath, _ := hit.Metadata["file_path"].(string)
		if filePath == "" {
			continue
		}

		symbols, err := e.symbols.SymbolsForFile(ctx, filePath)
		if err != nil {
			return nil, fmt.Errorf("hydrate symbols for %s: %w", filePath, err)
		}
		authority, _, _, err := e.symbols.AuthorityAndPartition(ctx, filePath)
		if err != nil {
			return nil, fmt.Errorf("authority lookup for %s: %w", filePath, err)
		}

		metadata := make(map[string]any, len(hit.Metadata)+1)
		for k, v := range hit.Metadata {
			metadata[k] = v
		}
		metadata["actual_search_mode"] = "semantic"

		results = append(results, SearchResult{
			FilePath: filePath,
			Score:    hit.Score * authority,
			Type:     MatchSemantic,
			Symbols:  symbols,
			Snippet:  truncate(hit.Content, snippetChars),
			Metadata: metadata,
		})
	}

	ranked := finalize(results, limit)
	if e.reranker != nil {
		reranked, err := e.reranker.Rerank(ctx, query, ranked)
		if err == nil {
			return reranked, nil
		}
	}
	return ranked, nil
}

func (e *Engine) degradeToKeyword(ctx context.Context, query string, limit int, reason string) ([]SearchResult, error) {
	results, err := e.SearchKeyword(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	for i := range results {
		results[i].Metadata["degraded"] = true
		results[i].Metadata["fallback_reason"] = reason
		results[i].Metadata["actual_search_mode"] = "bm25"
	}
	return results, nil
}

// SearchImportGraph groups imports whose path contains modulePath, scoring
// by distinct import count.
func (e *Engine) SearchImportGraph(ctx context.Context, modulePath string, limit int) ([]SearchResult, error) {
	hits, err := e.imports.ImportsByModuleSubstring(ctx, modulePath, limit)
	if err != nil {
		return nil, fmt.Errorf("import graph search: %w", err)
	}

	results := make([]SearchResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, SearchResult{
			FilePath: hit.SourceFile,
			Score:    float64(hit.DistinctCount),
			Type:     MatchImport,
			Snippet:  fmt.Sprintf("Imports: %s", hit.ImportPath),
			Metadata: map[string]any{"distinct_import_count": hit.DistinctCount},
		})
	}
	return finalize(results, limit), nil
}

// finalize re-sorts by (score desc, file_path asc) and truncates to limit —
// the ranking invariant every entry point must produce.
func finalize(results []SearchResult, limit int) []SearchResult {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].FilePath < results[j].FilePath
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

func (e *Engine) absPath(relPath string) string {
	if e.rootDir == "" {
		return relPath
	}
	return e.rootDir + string(os.PathSeparator) + relPath
}

func readSnippet(absPath string, n int) (string, error) {
	data, err := os.ReadFile(absPath)
	if err != nil {
		return "", err
	}
	return truncate(string(data), n), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Package lexical implements domain.LexicalIndex over Bleve v2, with a
// code-aware analyzer (camelCase/snake_case splitting, programming-keyword
// stop words) so BM25 scoring reflects identifier structure.
package lexical

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/registry"

	"github.com/symbolgraph/symbolgraph/internal/domain"
	"github.com/symbolgraph/symbolgraph/internal/errs"
)

const (
	codeTokenizerName = "symbolgraph_code_tokenizer"
	codeStopFilterName = "symbolgraph_code_stop"
	codeAnalyzerName   = "symbolgraph_code_analyzer"
)

func init() {
	_ = registry.RegisterTokenizer(codeTokenizerName, codeTokenizerConstructor)
	_ = registry.RegisterTokenFilter(codeStopFilterName, codeStopFilterConstructor)
}

// Index is a Bleve-backed domain.LexicalIndex. A file's code_stream is
// indexed under its file_path; the only metadata carried is "content", so
// Search returns just (id, score) per the interface contract.
type Index struct {
	mu    sync.RWMutex
	bleve bleve.Index
	path  string
}

var _ domain.LexicalIndex = (*Index)(nil)

type bleveDoc struct {
	Content string `json:"content"`
}

// Open creates or opens a Bleve index at path. An empty path yields an
// in-memory index, used by tests. A corrupted on-disk index (truncated
// index_meta.json, a segment Bleve refuses to load) is detected and
// cleared rather than surfaced, so a process killed mid-write or a binary
// rebuild that leaves a stale index doesn't wedge every future open.
func Open(path string) (*Index, error) {
	indexMapping, err := newIndexMapping()
	if err != nil {
		return nil, fmt.Errorf("failed to build index mapping: %w", err)
	}

	var idx bleve.Index
	if path == "" {
		idx, err = bleve.NewMemOnly(indexMapping)
	} else {
		if mkErr := os.MkdirAll(filepath.Dir(path), 0755); mkErr != nil {
			return nil, fmt.Errorf("failed to create lexical index directory: %w", mkErr)
		}

		if validErr := validateIndexIntegrity(path); validErr != nil {
			if recoverErr := recoverCorruptIndex(path, validErr); recoverErr != nil {
				return nil, recoverErr
			}
		}

		idx, err = bleve.Open(path)
		if err == bleve.ErrorIndexPathDoesNotExist {
			idx, err = bleve.New(path, indexMapping)
		} else if err != nil && isCorruptionError(err) {
			if recoverErr := recoverCorruptIndex(path, err); recoverErr != nil {
				return nil, recoverErr
			}
			idx, err = bleve.New(path, indexMapping)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open lexical index: %w", err)
	}

	return &Index{bleve: idx, path: path}, nil
}

// validateIndexIntegrity checks a Bleve index directory for the minimal
// signs of a complete write (a non-empty, parseable index_meta.json)
// before Open hands it to Bleve. Returns nil if the path doesn't exist
// yet (nothing to validate) or looks intact.
func validateIndexIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	metaPath := filepath.Join(path, "index_meta.json")
	info, err := os.Stat(metaPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("index_meta.json missing (corrupted index)")
	}
	if err != nil {
		return fmt.Errorf("cannot stat index_meta.json: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("index_meta.json is empty (corrupted)")
	}

	data, err := os.ReadFile(metaPath)
	if err != nil {
		return fmt.Errorf("cannot read index_meta.json: %w", err)
	}
	var meta map[string]any
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("index_meta.json is corrupt: %w", err)
	}
	return nil
}

// isCorruptionError reports whether err, returned from bleve.Open, is one
// of the shapes a corrupted index produces rather than a transient or
// permission failure.
func isCorruptionError(err error) bool {
	if err == nil {
		return false
	}
	if err == bleve.ErrorIndexMetaCorrupt {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "unexpected end of JSON") ||
		strings.Contains(errStr, "error parsing mapping JSON") ||
		strings.Contains(errStr, "failed to load segment") ||
		strings.Contains(errStr, "error opening bolt")
}

// recoverCorruptIndex removes a corrupted index directory so the caller
// can create a fresh one in its place. The caller is responsible for
// reindexing afterward; callers that track indexed state elsewhere (the
// metadata store) are expected to notice the BM25 side is now empty and
// repopulate it.
func recoverCorruptIndex(path string, cause error) error {
	slog.Warn("lexical_index_corrupted", slog.String("path", path), slog.String("reason", cause.Error()))
	if err := os.RemoveAll(path); err != nil {
		return errs.New(errs.ErrCodeCorruptIndex, "lexical index corrupted and could not be cleared", err).
			WithDetail("path", path).
			WithSuggestion("remove the index directory manually and reindex")
	}
	slog.Info("lexical_index_cleared", slog.String("path", path), slog.String("reason", "corruption detected, reindex required"))
	return nil
}

func newIndexMapping() (*mapping.IndexMappingImpl, error) {
	m := bleve.NewIndexMapping()
	err := m.AddCustomAnalyzer(codeAnalyzerName, map[string]interface{}{
		"type":      custom.Name,
		"tokenizer": codeTokenizerName,
		"token_filters": []string{
			lowercase.Name,
			codeStopFilterName,
		},
	})
	if err != nil {
		return nil, err
	}
	m.DefaultAnalyzer = codeAnalyzerName
	return m, nil
}

// IndexDocument is an idempotent upsert: re-indexing id replaces its prior
// content.
func (idx *Index) IndexDocument(_ context.Context, id string, text string, _ map[string]any) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.bleve.Index(id, bleveDoc{Content: text})
}

// Search returns the top k documents matching query, scored by BM25 via
// Bleve's default similarity.
func (idx *Index) Search(ctx context.Context, query string, k int) ([]domain.LexicalHit, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	q := bleve.NewMatchQuery(query)
	q.SetField("content")
	req := bleve.NewSearchRequest(q)
	req.Size = k

	result, err := idx.bleve.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("lexical search failed: %w", err)
	}

	hits := make([]domain.LexicalHit, 0, len(result.Hits))
	for _, h := range result.Hits {
		hits = append(hits, domain.LexicalHit{ID: h.ID, Score: h.Score})
	}
	return hits, nil
}

// Delete removes documents from the index, used when a file is deleted or
// reindexed under a new hash.
func (idx *Index) Delete(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()

	batch := idx.bleve.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	return idx.bleve.Batch(batch)
}

// Close closes the underlying Bleve index.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.bleve.Close()
}

func codeTokenizerConstructor(_ map[string]interface{}, _ *registry.Cache) (analysis.Tokenizer, error) {
	return &codeTokenizer{}, nil
}

type codeTokenizer struct{}

func (t *codeTokenizer) Tokenize(input []byte) analysis.TokenStream {
	text := string(input)
	tokens := tokenizeCode(text)

	stream := make(analysis.TokenStream, 0, len(tokens))
	pos, offset := 1, 0
	for _, token := range tokens {
		start := strings.Index(strings.ToLower(text[offset:]), strings.ToLower(token))
		if start == -1 {
			start = offset
		} else {
			start += offset
		}
		end := start + len(token)

		stream = append(stream, &analysis.Token{
			Term:     []byte(token),
			Start:    start,
			End:      end,
			Position: pos,
			Type:     analysis.AlphaNumeric,
		})
		pos++
		if end <= len(text) {
			offset = end
		}
	}
	return stream
}

func codeStopFilterConstructor(_ map[string]interface{}, _ *registry.Cache) (analysis.TokenFilter, error) {
	return &codeStopFilter{stopWords: buildStopWordSet(defaultStopWords)}, nil
}

type codeStopFilter struct {
	stopWords map[string]struct{}
}

func (f *codeStopFilter) Filter(input analysis.TokenStream) analysis.TokenStream {
	out := make(analysis.TokenStream, 0, len(input))
	for _, tok := range input {
		if _, isStop := f.stopWords[strings.ToLower(string(tok.Term))]; !isStop {
			out = append(out, tok)
		}
	}
	return out
}

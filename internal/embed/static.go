// Package embed implements domain.EmbeddingBackend with a dependency-free,
// deterministic hash-based embedder: no network call and no native model
// runtime, so SearchSemantic and EmbeddingPipeline have a real backend to
// exercise without an external service in scope.
package embed

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/symbolgraph/symbolgraph/internal/domain"
)

// Dimensions is the fixed vector width StaticEmbedder produces.
const Dimensions = 256

const (
	tokenWeight = 0.7
	ngramWeight = 0.3
	ngramSize   = 3
)

var tokenRegex = regexp.MustCompile(`[a-zA-Z0-9]+`)

var programmingStopWords = map[string]bool{
	"func": true, "function": true, "def": true, "class": true,
	"return": true, "import": true, "const": true, "var": true,
	"let": true, "int": true, "string": true, "bool": true,
	"void": true, "true": true, "false": true, "nil": true,
	"null": true, "this": true, "self": true, "new": true,
}

// StaticEmbedder maps text to a fixed-width vector via token and n-gram
// hashing. Deterministic and fast, with reduced semantic quality relative
// to a neural backend — but no model to load and nothing that can be
// "unavailable".
type StaticEmbedder struct {
	mu     sync.RWMutex
	closed bool
}

var _ domain.EmbeddingBackend = (*StaticEmbedder)(nil)

// New creates a StaticEmbedder.
func New() *StaticEmbedder {
	return &StaticEmbedder{}
}

// Embed vectorizes each text independently. An empty/whitespace-only text
// embeds to the zero vector.
func (e *StaticEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.RLock()
	closed := e.closed
	e.mu.RUnlock()
	if closed {
		return nil, errClosed
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			out[i] = make([]float32, Dimensions)
			continue
		}
		out[i] = normalizeVector(e.vectorize(trimmed))
	}
	return out, nil
}

// Dimensions reports the fixed vector width.
func (e *StaticEmbedder) Dimensions() int { return Dimensions }

// ModelName and Backend identify this embedder for checkpoint bookkeeping
// and index/embedder compatibility reporting (store.IndexInfo). There is
// only one backend in this build, but the names stay distinct from the Go
// type so a future networked backend can be swapped in without changing
// the stored identifiers' shape.
func (e *StaticEmbedder) ModelName() string { return "static-hash-v1" }
func (e *StaticEmbedder) Backend() string   { return "local" }

// Close marks the embedder unusable; StaticEmbedder holds no resources to
// release but participates in the same lifecycle as a networked backend.
func (e *StaticEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

var errClosed = embedClosedError{}

type embedClosedError struct{}

func (embedClosedError) Error() string { return "embed: embedder is closed" }

func (e *StaticEmbedder) vectorize(text string) []float32 {
	vector := make([]float32, Dimensions)

	for _, token := range filterStopWords(tokenize(text)) {
		vector[hashToIndex(token, Dimensions)] += tokenWeight
	}

	normalized := normalizeForNgrams(text)
	for _, ngram := range extractNgrams(normalized, ngramSize) {
		vector[hashToIndex(ngram, Dimensions)] += ngramWeight
	}

	return vector
}

func tokenize(text string) []string {
	var tokens []string
	for _, word := range tokenRegex.FindAllString(text, -1) {
		for _, t := range splitCodeToken(word) {
			if lower := strings.ToLower(t); lower != "" {
				tokens = append(tokens, lower)
			}
		}
	}
	return tokens
}

func splitCodeToken(token string) []string {
	if strings.Contains(token, "_") {
		var result []string
		for _, part := range strings.Split(token, "_") {
			if part != "" {
				result = append(result, splitCamelCase(part)...)
			}
		}
		return result
	}
	return splitCamelCase(token)
}

func splitCamelCase(s string) []string {
	if s == "" {
		return nil
	}
	var result []string
	var current strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prevIsLower := unicode.IsLower(runes[i-1])
			nextIsLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevIsLower || nextIsLower {
				if current.Len() > 0 {
					result = append(result, current.String())
					current.Reset()
				}
			}
		}
		current.WriteRune(r)
	}
	if current.Len() > 0 {
		result = append(result, current.String())
	}
	return result
}

func filterStopWords(tokens []string) []string {
	var filtered []string
	for _, t := range tokens {
		if !programmingStopWords[t] {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

func normalizeForNgrams(text string) string {
	var result strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

func extractNgrams(text string, n int) []string {
	if len(text) < n {
		return nil
	}
	ngrams := make([]string, 0, len(text)-n+1)
	for i := 0; i <= len(text)-n; i++ {
		ngrams = append(ngrams, text[i:i+n])
	}
	return ngrams
}

func hashToIndex(s string, size int) int {
	h := fnv.New64()
	_, _ = h.Write([]byte(s))
	return int(h.Sum64() % uint64(size))
}

func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v
	}
	normalized := make([]float32, len(v))
	for i, val := range v {
		normalized[i] = float32(float64(val) / magnitude)
	}
	return normalized
}

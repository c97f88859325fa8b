// Package domain holds the relational entities shared across the indexing
// pipeline, storage layer, and search engine: files, symbols, imports, and
// the BM25/semantic/chunk rows derived from them.
package domain

import "context"

// SymbolType enumerates the kinds of symbol a language extractor can
// report. Container kinds (class, interface, enum, type) are valid ParentSymbol
// targets for methods.
type SymbolType string

const (
	SymbolFunction  SymbolType = "function"
	SymbolClass     SymbolType = "class"
	SymbolMethod    SymbolType = "method"
	SymbolVariable  SymbolType = "variable"
	SymbolInterface SymbolType = "interface"
	SymbolTypeAlias SymbolType = "type"
	SymbolEnum      SymbolType = "enum"
)

// containerKinds are symbol types that may be the parent of another symbol.
var containerKinds = map[SymbolType]bool{
	SymbolClass:     true,
	SymbolInterface: true,
	SymbolEnum:      true,
	SymbolTypeAlias: true,
}

// IsContainer reports whether t can hold child symbols (e.g. a class
// holding methods).
func (t SymbolType) IsContainer() bool {
	return containerKinds[t]
}

// Symbol is a single indexed symbol row.
type Symbol struct {
	FilePath     string
	Name         string
	Type         SymbolType
	Signature    string
	Location     string // compact "l1:c1-l2:c2"
	ParentSymbol string
	IsExported   bool
	// BodyText is the symbol's source text, when the extractor captured it.
	// Feeds the code stream only; never the semantic stream.
	BodyText string
}

// Import is a single import edge recorded for a file.
type Import struct {
	SourceFile   string
	ImportPath   string
	ImportedName string
	IsDefault    bool
}

// IndexedFile is the canonical per-file record.
type IndexedFile struct {
	FilePath        string
	MtimeMs         int64
	FileHash        string
	Language        string
	SizeBytes       int64
	SymbolCount     int
	LastIndexedAtMs int64
	IndexVersion    int
	PartitionID     string
	AuthorityScore  float64
}

// BM25Document is the lexical-index row for a file.
type BM25Document struct {
	FilePath       string
	SearchableText string
	TermCount      int
}

// SemanticMetadata is the semantic-index row for a file.
type SemanticMetadata struct {
	FilePath        string
	EmbeddingText   string
	EmbeddingStored bool
	TotalChunks     int
}

// SemanticChunk is one chunk of a file's embedding_text.
type SemanticChunk struct {
	ChunkID        string
	FilePath       string
	ChunkIndex     int
	ChunkText      string
	StartOffset    int
	EndOffset      int
	TokenCount     int
	EmbeddingStored bool
	VectorStoreID   string
}

// FTS5Document is the full-text row for documentation files.
type FTS5Document struct {
	FilePath string
	Content  string
}

// CurrentIndexVersion is stamped on every indexed_files row written by this
// build. IndexStore refuses to open a store whose schema/index_version is
// newer than this (see the config/Open Questions discussion) — there is no
// migration protocol.
const CurrentIndexVersion = 1

// ExtractedSymbol is the hierarchical symbol shape produced by an
// ASTExtractor, before ContentExtractor flattens it into Symbol rows.
type ExtractedSymbol struct {
	Name     string
	Kind     SymbolType
	Text     string
	StartRow int
	StartCol int
	EndRow   int
	EndCol   int
	HasPos   bool
	Children []ExtractedSymbol
}

// ExtractedImport is a single import/require/include statement as reported
// by an ASTExtractor.
type ExtractedImport struct {
	Source       string
	ImportedName string
	IsDefault    bool
}

// ASTResult is what an ASTExtractor returns for a non-documentation file.
type ASTResult struct {
	Symbols  []ExtractedSymbol
	Imports  []ExtractedImport
	Exports  []string
	Language string
}

// ASTExtractor is the external collaborator that turns a file's bytes into
// a symbol tree, import list, and export set. Concrete implementations
// (e.g. a tree-sitter-backed one) live outside this core's invariants.
type ASTExtractor interface {
	Extract(path string, languageHint string, content []byte) (ASTResult, error)
}

// ExtractedContent is ContentExtractor's output: the code/intent stream
// split plus flattened symbol and import rows ready for IndexStore.
type ExtractedContent struct {
	CodeStream   string
	IntentStream string
	Language     string
	Symbols      []Symbol
	Imports      []Import
}

// VectorDoc is one chunk submitted to VectorStore.AddDocuments.
type VectorDoc struct {
	ID       string
	Content  string
	Vector   []float32
	Metadata map[string]any
}

// VectorHit is one VectorStore.SearchSimilar result.
type VectorHit struct {
	ID       string
	Score    float64
	Content  string
	Metadata map[string]any
}

// VectorStore is the external collaborator backing semantic search.
// A nil VectorStore, or any error from SearchSimilar, triggers
// SearchEngine's keyword-degradation contract.
type VectorStore interface {
	AddDocuments(ctx context.Context, collection string, docs []VectorDoc) error
	SearchSimilar(ctx context.Context, collection string, query []float32, k int, threshold float64) ([]VectorHit, error)
}

// LexicalHit is one LexicalIndex.Search result.
type LexicalHit struct {
	ID    string
	Score float64
}

// LexicalIndex is the external collaborator backing keyword search.
type LexicalIndex interface {
	IndexDocument(ctx context.Context, id string, text string, metadata map[string]any) error
	Search(ctx context.Context, query string, k int) ([]LexicalHit, error)
}

// ImportEdge is one (source_file, import_path) row, used by GraphAnalyzer
// to build its in-memory adjacency map.
type ImportEdge struct {
	SourceFile string
	ImportPath string
}

// ImportGraphHit groups imports whose import_path contains a queried
// module substring by source_file, for GraphAnalyzer and SearchEngine's
// import-graph entry point.
type ImportGraphHit struct {
	SourceFile    string
	DistinctCount int
	ImportPath    string
}

// PendingEmbedding is one semantic_metadata row awaiting chunking and
// embedding, carrying forward its file's partition/authority for the
// VectorStore metadata EmbeddingPipeline attaches to each chunk.
type PendingEmbedding struct {
	FilePath       string
	EmbeddingText  string
	PartitionID    string
	AuthorityScore float64
}

// ChunkMetadata accompanies a Chunk produced by a Chunker.
type ChunkMetadata struct {
	ChunkID     string
	ChunkIndex  int
	StartOffset int
	EndOffset   int
	TokenCount  int
}

// Chunk is one unit produced by Chunker.Chunk.
type Chunk struct {
	Text     string
	Metadata ChunkMetadata
}

// ChunkerConfig bounds a Chunker's output per §4.7.
type ChunkerConfig struct {
	TargetTokens    int
	OverlapFraction float64
	HardLimitTokens int
}

// Chunker is a pure function from (text, path, language) to an ordered,
// contiguous, bounded-overlap list of chunks. A small input may yield a
// single chunk covering the whole text.
type Chunker interface {
	Chunk(text, filePath, language string, cfg ChunkerConfig) []Chunk
}

// EmbeddingBackend maps text batches to fixed-dimension vectors. The search
// engine calls Embed directly to turn a semantic query into a vector;
// VectorStore takes precomputed vectors and does not call it.
type EmbeddingBackend interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

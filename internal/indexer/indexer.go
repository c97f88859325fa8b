// Package indexer orchestrates the per-file indexing pipeline: discovery,
// change detection, extraction, classification, atomic persistence, and
// the post-loop embedding pass.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/symbolgraph/symbolgraph/internal/changedet"
	"github.com/symbolgraph/symbolgraph/internal/classify"
	"github.com/symbolgraph/symbolgraph/internal/discover"
	"github.com/symbolgraph/symbolgraph/internal/domain"
	"github.com/symbolgraph/symbolgraph/internal/embedpipe"
	"github.com/symbolgraph/symbolgraph/internal/respath"
	"github.com/symbolgraph/symbolgraph/internal/store"
)

// ContentExtractor is the subset of extract.ContentExtractor the indexer
// consumes.
type ContentExtractor interface {
	Extract(relPath string, isDocumentation bool, content []byte) (domain.ExtractedContent, error)
}

// PersistStore is the subset of IndexStore the indexer writes through.
type PersistStore interface {
	changedet.HashLookup
	PersistFile(ctx context.Context, rec store.PersistRecord) error
}

// LexicalIndex is the subset of lexical.Index the indexer upserts into.
type LexicalIndex interface {
	IndexDocument(ctx context.Context, id string, text string, metadata map[string]any) error
}

// EmbeddingGenerator is the subset of embedpipe.Pipeline the indexer runs
// once per indexing pass.
type EmbeddingGenerator interface {
	GeneratePending(ctx context.Context) (embedpipe.Stats, error)
}

// ProgressReporter receives incremental progress during a run. The zero
// value (NoopReporter) discards every call.
type ProgressReporter interface {
	FileStarted(path string, index, total int)
	FileCompleted(path string, err error)
	Phase(name string)
}

// NoopReporter implements ProgressReporter with no output.
type NoopReporter struct{}

func (NoopReporter) FileStarted(string, int, int) {}
func (NoopReporter) FileCompleted(string, error)  {}
func (NoopReporter) Phase(string)                 {}

const defaultFileBatchSize = 50

// Dependencies are the collaborators Indexer uses. Discovery, Detector,
// Extractor, Classifier, Store and Lexical are required; a nil Embeddings
// skips the embedding pass, and Reporter, Logger and BatchSize fall back to
// defaults.
type Dependencies struct {
	Discovery  *discover.Discovery
	Detector   *changedet.Detector
	Extractor  ContentExtractor
	Classifier classify.PartitionClassifier
	Store      PersistStore
	Lexical    LexicalIndex
	Embeddings EmbeddingGenerator
	Reporter   ProgressReporter
	Logger     *slog.Logger
	BatchSize  int
}

// Indexer runs index_repository per §4.5.
type Indexer struct {
	deps Dependencies
}

// New validates deps and returns an Indexer.
func New(deps Dependencies) (*Indexer, error) {
	if deps.Discovery == nil {
		return nil, fmt.Errorf("discovery is required")
	}
	if deps.Detector == nil {
		return nil, fmt.Errorf("detector is required")
	}
	if deps.Extractor == nil {
		return nil, fmt.Errorf("extractor is required")
	}
	if deps.Classifier == nil {
		return nil, fmt.Errorf("classifier is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if deps.Lexical == nil {
		return nil, fmt.Errorf("lexical index is required")
	}
	if deps.Reporter == nil {
		deps.Reporter = NoopReporter{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.BatchSize <= 0 {
		deps.BatchSize = defaultFileBatchSize
	}
	return &Indexer{deps: deps}, nil
}

// Options configures one IndexRepository run.
type Options struct {
	Files          []string
	IgnorePatterns []string
	SkipEmbeddings bool
}

// FileError records one per-file failure; the run continues past it.
type FileError struct {
	FilePath string
	Err      error
}

// RunStats summarizes an IndexRepository call per §4.5 step 4.
type RunStats struct {
	Total               int
	Indexed             int
	AlreadyIndexed      int
	NeedsIndexing       int
	Skipped             int
	Errors              []FileError
	LanguagesHistogram  map[string]int
	TotalSymbols        int
	FilesWithEmbeddings int
	ElapsedMs           int64
}

// IndexRepository runs the full index → embed pass over root.
func (ix *Indexer) IndexRepository(ctx context.Context, root string, opts Options) (*RunStats, error) {
	start := time.Now()
	stats := &RunStats{LanguagesHistogram: make(map[string]int)}

	files, err := ix.deps.Discovery.Discover(discover.Options{
		RootDir:        root,
		Files:          opts.Files,
		IgnorePatterns: opts.IgnorePatterns,
	})
	if err != nil {
		return nil, fmt.Errorf("discover files: %w", err)
	}
	stats.Total = len(files)

	ix.deps.Reporter.Phase("index")
	for batchStart := 0; batchStart < len(files); batchStart += ix.deps.BatchSize {
		batchEnd := batchStart + ix.deps.BatchSize
		if batchEnd > len(files) {
			batchEnd = len(files)
		}
		for i, f := range files[batchStart:batchEnd] {
			ix.deps.Reporter.FileStarted(f.Path, batchStart+i, len(files))
			err := ix.indexOne(ctx, f, stats)
			ix.deps.Reporter.FileCompleted(f.Path, err)
			if err != nil {
				stats.Skipped++
				stats.Errors = append(stats.Errors, FileError{FilePath: f.Path, Err: err})
				ix.deps.Logger.Error("index_file_failed", "file", f.Path, "error", err)
			}
		}
	}

	if !opts.SkipEmbeddings && ix.deps.Embeddings != nil {
		ix.deps.Reporter.Phase("embed")
		embedStats, err := ix.deps.Embeddings.GeneratePending(ctx)
		if err != nil {
			ix.deps.Logger.Error("embedding_pass_failed", "error", err)
		}
		stats.FilesWithEmbeddings = embedStats.FilesProcessed
	}

	stats.ElapsedMs = time.Since(start).Milliseconds()
	return stats, nil
}

func (ix *Indexer) indexOne(ctx context.Context, f discover.File, stats *RunStats) error {
	dirty, err := ix.deps.Detector.ShouldReindex(ctx, f.Path, f.AbsPath)
	if err != nil {
		return fmt.Errorf("change detection: %w", err)
	}
	if !dirty {
		stats.AlreadyIndexed++
		return nil
	}
	stats.NeedsIndexing++

	data, err := os.ReadFile(f.AbsPath)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	hash := respath.HashBytes(data)

	isDoc := discover.IsDocumentation(extOf(f.Path))
	classification := ix.deps.Classifier.Classify(f.Path)

	extracted, err := ix.deps.Extractor.Extract(f.Path, isDoc, data)
	if err != nil {
		return fmt.Errorf("extract content: %w", err)
	}

	mtimeMs := time.Now().UnixMilli()
	if info, err := os.Stat(f.AbsPath); err == nil {
		mtimeMs = info.ModTime().UnixMilli()
	}

	rec := store.PersistRecord{
		FilePath:        f.Path,
		MtimeMs:         mtimeMs,
		FileHash:        hash,
		Language:        extracted.Language,
		SizeBytes:       f.Size,
		LastIndexedAtMs: time.Now().UnixMilli(),
		PartitionID:     classification.PartitionID,
		AuthorityScore:  classification.AuthorityScore,
		IsDocumentation: isDoc,
		CodeStream:      extracted.CodeStream,
		IntentStream:    extracted.IntentStream,
		Symbols:         extracted.Symbols,
		Imports:         extracted.Imports,
	}

	if err := ix.deps.Store.PersistFile(ctx, rec); err != nil {
		return fmt.Errorf("persist file: %w", err)
	}

	if err := ix.deps.Lexical.IndexDocument(ctx, f.Path, extracted.CodeStream, nil); err != nil {
		return fmt.Errorf("lexical upsert: %w", err)
	}

	stats.Indexed++
	stats.TotalSymbols += len(extracted.Symbols)
	stats.LanguagesHistogram[extracted.Language]++
	return nil
}

func extOf(path string) string {
	for i := len(path) - 1; i >= 0 && path[i] != '/'; i-- {
		if path[i] == '.' {
			return path[i:]
		}
	}
	return ""
}

// Package embedpipe implements EmbeddingPipeline: the asynchronous pass
// that turns pending semantic_metadata rows into chunked, embedded,
// vector-stored rows, batched 20 files at a time per §4.7.
package embedpipe

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/symbolgraph/symbolgraph/internal/domain"
	"github.com/symbolgraph/symbolgraph/internal/errs"
)

// PendingSource is the subset of IndexStore the pipeline reads/writes.
type PendingSource interface {
	PendingEmbeddings(ctx context.Context) ([]domain.PendingEmbedding, error)
	ReplaceChunks(ctx context.Context, filePaths []string, chunks []domain.SemanticChunk) error
	MarkEmbeddingsStored(ctx context.Context, chunkIDs []string) error
	SaveCheckpoint(ctx context.Context, stage string, total, embedded int, embedderModel string) error
	ClearCheckpoint(ctx context.Context) error
	RecordIndexEmbedderInfo(ctx context.Context, model, backend string, dimensions int) error
}

// Config bounds batch size and chunking, sourced from IndexingConfig.
type Config struct {
	EmbeddingBatchSize int
	Chunker            domain.ChunkerConfig
	// EmbedderModel/EmbedderBackend/EmbedderDimensions identify the
	// embedder generating these vectors. EmbedderModel is also stored with
	// each checkpoint; all three are recorded as the index's persisted
	// embedder info (store.IndexInfo's compatibility check) after a run
	// with no failed batches.
	EmbedderModel      string
	EmbedderBackend    string
	EmbedderDimensions int
}

const checkpointStageEmbedding = "embedding"

// Pipeline wires a PendingSource, a Chunker, and a VectorStore together.
type Pipeline struct {
	store   PendingSource
	chunker domain.Chunker
	vectors domain.VectorStore
	cfg     Config
	logger  *slog.Logger
}

// New constructs a Pipeline. logger defaults to slog.Default() if nil.
func New(store PendingSource, chunker domain.Chunker, vectors domain.VectorStore, cfg Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.EmbeddingBatchSize <= 0 {
		cfg.EmbeddingBatchSize = 20
	}
	return &Pipeline{store: store, chunker: chunker, vectors: vectors, cfg: cfg, logger: logger}
}

// Stats summarizes one GeneratePending run.
type Stats struct {
	FilesProcessed int
	ChunksWritten  int
	ChunksStored   int
	BatchesFailed  int
}

const vectorCollection = "code"

// GeneratePending runs the full select/chunk/batch/write/embed/flip
// algorithm once. Batch failures are logged and skipped; rows remain
// eligible for the next run.
func (p *Pipeline) GeneratePending(ctx context.Context) (Stats, error) {
	var stats Stats

	pending, err := p.store.PendingEmbeddings(ctx)
	if err != nil {
		return stats, errs.Wrap(errs.ErrCodeEmbeddingFailed, err)
	}
	if len(pending) == 0 {
		return stats, nil
	}

	for start := 0; start < len(pending); start += p.cfg.EmbeddingBatchSize {
		end := start + p.cfg.EmbeddingBatchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		if err := p.processBatch(ctx, batch, &stats); err != nil {
			stats.BatchesFailed++
			p.logger.Error("embedding_batch_failed", "error", err, "batch_size", len(batch))
		}

		if err := p.store.SaveCheckpoint(ctx, checkpointStageEmbedding, len(pending), stats.ChunksStored, p.cfg.EmbedderModel); err != nil {
			p.logger.Warn("checkpoint_save_failed", "error", err)
		}
	}

	if stats.BatchesFailed == 0 {
		if err := p.store.ClearCheckpoint(ctx); err != nil {
			p.logger.Warn("checkpoint_clear_failed", "error", err)
		}
		if err := p.store.RecordIndexEmbedderInfo(ctx, p.cfg.EmbedderModel, p.cfg.EmbedderBackend, p.cfg.EmbedderDimensions); err != nil {
			p.logger.Warn("index_embedder_info_save_failed", "error", err)
		}
	}

	return stats, nil
}

func (p *Pipeline) processBatch(ctx context.Context, batch []domain.PendingEmbedding, stats *Stats) error {
	chunksByFile := make(map[string][]domain.Chunk, len(batch))

	g, gctx := errgroup.WithContext(ctx)
	results := make([][]domain.Chunk, len(batch))
	for i, row := range batch {
		i, row := i, row
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			results[i] = p.chunker.Chunk(row.EmbeddingText, row.FilePath, "", p.cfg.Chunker)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("chunk batch: %w", err)
	}

	var allChunks []domain.SemanticChunk
	var filePaths []string
	var docs []domain.VectorDoc
	for i, row := range batch {
		chunks := results[i]
		chunksByFile[row.FilePath] = chunks
		filePaths = append(filePaths, row.FilePath)

		for _, c := range chunks {
			allChunks = append(allChunks, domain.SemanticChunk{
				ChunkID:     c.Metadata.ChunkID,
				FilePath:    row.FilePath,
				ChunkIndex:  c.Metadata.ChunkIndex,
				ChunkText:   c.Text,
				StartOffset: c.Metadata.StartOffset,
				EndOffset:   c.Metadata.EndOffset,
				TokenCount:  c.Metadata.TokenCount,
			})
			docs = append(docs, domain.VectorDoc{
				ID:      c.Metadata.ChunkID,
				Content: c.Text,
				Metadata: map[string]any{
					"file_path":       row.FilePath,
					"chunk_index":     c.Metadata.ChunkIndex,
					"total_chunks":    len(chunks),
					"start_offset":    c.Metadata.StartOffset,
					"end_offset":      c.Metadata.EndOffset,
					"token_count":     c.Metadata.TokenCount,
					"indexed_at":      time.Now().UTC().Format(time.RFC3339),
					"partition_id":    row.PartitionID,
					"authority_score": row.AuthorityScore,
				},
			})
		}
	}

	if err := p.store.ReplaceChunks(ctx, filePaths, allChunks); err != nil {
		return fmt.Errorf("replace chunks: %w", err)
	}

	if len(docs) == 0 {
		return nil
	}
	if err := p.vectors.AddDocuments(ctx, vectorCollection, docs); err != nil {
		return errs.Wrap(errs.ErrCodeVectorStoreDown, err)
	}

	chunkIDs := make([]string, 0, len(allChunks))
	for _, c := range allChunks {
		chunkIDs = append(chunkIDs, c.ChunkID)
	}
	if err := p.store.MarkEmbeddingsStored(ctx, chunkIDs); err != nil {
		return fmt.Errorf("mark embeddings stored: %w", err)
	}

	stats.FilesProcessed += len(batch)
	stats.ChunksWritten += len(allChunks)
	stats.ChunksStored += len(chunkIDs)
	return nil
}

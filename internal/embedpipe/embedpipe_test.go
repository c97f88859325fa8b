package embedpipe

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symbolgraph/symbolgraph/internal/domain"
)

type fakeStore struct {
	mu         sync.Mutex
	pending    []domain.PendingEmbedding
	chunks     map[string][]domain.SemanticChunk
	stored     map[string]bool
	checkpoint *Checkpoint
	embedderInfoSaved bool
}

// Checkpoint mirrors store.Checkpoint's shape for this package's own
// tests, which stub PendingSource rather than depending on internal/store.
type Checkpoint struct {
	Stage    string
	Total    int
	Embedded int
	Model    string
}

func newFakeStore(pending []domain.PendingEmbedding) *fakeStore {
	return &fakeStore{pending: pending, chunks: map[string][]domain.SemanticChunk{}, stored: map[string]bool{}}
}

func (f *fakeStore) SaveCheckpoint(ctx context.Context, stage string, total, embedded int, embedderModel string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkpoint = &Checkpoint{Stage: stage, Total: total, Embedded: embedded, Model: embedderModel}
	return nil
}

func (f *fakeStore) ClearCheckpoint(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkpoint = nil
	return nil
}

func (f *fakeStore) RecordIndexEmbedderInfo(ctx context.Context, model, backend string, dimensions int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.embedderInfoSaved = true
	return nil
}

func (f *fakeStore) PendingEmbeddings(ctx context.Context) ([]domain.PendingEmbedding, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.PendingEmbedding
	for _, p := range f.pending {
		if !f.stored[p.FilePath] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) ReplaceChunks(ctx context.Context, filePaths []string, chunks []domain.SemanticChunk) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, fp := range filePaths {
		f.chunks[fp] = nil
	}
	for _, c := range chunks {
		f.chunks[c.FilePath] = append(f.chunks[c.FilePath], c)
	}
	return nil
}

func (f *fakeStore) MarkEmbeddingsStored(ctx context.Context, chunkIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, chunks := range f.chunks {
		for _, c := range chunks {
			for _, id := range chunkIDs {
				if c.ChunkID == id {
					f.stored[c.FilePath] = true
				}
			}
		}
	}
	return nil
}

type fakeChunker struct{}

func (fakeChunker) Chunk(text, filePath, language string, cfg domain.ChunkerConfig) []domain.Chunk {
	return []domain.Chunk{{
		Text: text,
		Metadata: domain.ChunkMetadata{ChunkID: filePath + "#0", ChunkIndex: 0, StartOffset: 0, EndOffset: len(text), TokenCount: len(text) / 4},
	}}
}

type fakeVectorStore struct {
	mu      sync.Mutex
	docs    []domain.VectorDoc
	batches []int
	fail    bool
}

func (f *fakeVectorStore) AddDocuments(ctx context.Context, collection string, docs []domain.VectorDoc) error {
	if f.fail {
		return errors.New("vector store down")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs = append(f.docs, docs...)
	f.batches = append(f.batches, len(docs))
	return nil
}

func (f *fakeVectorStore) SearchSimilar(ctx context.Context, collection string, query []float32, k int, threshold float64) ([]domain.VectorHit, error) {
	return nil, nil
}

func testConfig() Config {
	return Config{
		EmbeddingBatchSize: 20,
		Chunker:            domain.ChunkerConfig{TargetTokens: 28800, OverlapFraction: 0.10, HardLimitTokens: 32000},
		EmbedderModel:      "static-hash-v1",
		EmbedderBackend:    "local",
		EmbedderDimensions: 256,
	}
}

func TestPipeline_GeneratePendingChunksEmbedsAndFlips(t *testing.T) {
	store := newFakeStore([]domain.PendingEmbedding{
		{FilePath: "pkg/a.go", EmbeddingText: "doc comment about a", PartitionID: "source", AuthorityScore: 1.0},
		{FilePath: "pkg/b.go", EmbeddingText: "doc comment about b", PartitionID: "source", AuthorityScore: 1.0},
	})
	vectors := &fakeVectorStore{}
	p := New(store, fakeChunker{}, vectors, testConfig(), nil)

	stats, err := p.GeneratePending(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, stats.FilesProcessed)
	assert.Equal(t, 2, stats.ChunksWritten)
	assert.Equal(t, 2, stats.ChunksStored)
	assert.Len(t, vectors.docs, 2)

	remaining, err := store.PendingEmbeddings(context.Background())
	require.NoError(t, err)
	assert.Empty(t, remaining)

	assert.Nil(t, store.checkpoint, "checkpoint should be cleared after a fully successful run")
	assert.True(t, store.embedderInfoSaved, "index embedder info should be recorded after a fully successful run")
}

func TestPipeline_NoPendingRowsIsNoop(t *testing.T) {
	store := newFakeStore(nil)
	p := New(store, fakeChunker{}, &fakeVectorStore{}, testConfig(), nil)

	stats, err := p.GeneratePending(context.Background())

	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
}

func TestPipeline_VectorStoreFailureLeavesRowsPendingAndDoesNotAbort(t *testing.T) {
	store := newFakeStore([]domain.PendingEmbedding{
		{FilePath: "pkg/a.go", EmbeddingText: "doc comment about a", PartitionID: "source", AuthorityScore: 1.0},
	})
	vectors := &fakeVectorStore{fail: true}
	p := New(store, fakeChunker{}, vectors, testConfig(), nil)

	stats, err := p.GeneratePending(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, stats.BatchesFailed)
	assert.Equal(t, 0, stats.FilesProcessed)

	remaining, err := store.PendingEmbeddings(context.Background())
	require.NoError(t, err)
	assert.Len(t, remaining, 1)

	require.NotNil(t, store.checkpoint, "a failed batch should leave a checkpoint for the next run to find")
	assert.False(t, store.embedderInfoSaved, "embedder info is only recorded once a run finishes with no failed batches")
}

func TestPipeline_BatchesAtConfiguredSize(t *testing.T) {
	pending := make([]domain.PendingEmbedding, 0, 45)
	for i := 0; i < 45; i++ {
		pending = append(pending, domain.PendingEmbedding{FilePath: fmt.Sprintf("pkg/file%02d.go", i), EmbeddingText: "some doc text here", PartitionID: "source", AuthorityScore: 1.0})
	}
	store := newFakeStore(pending)
	cfg := testConfig()
	cfg.EmbeddingBatchSize = 20
	vectors := &fakeVectorStore{}
	p := New(store, fakeChunker{}, vectors, cfg, nil)

	stats, err := p.GeneratePending(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 45, stats.FilesProcessed)
	// fakeChunker yields one chunk per file, so each AddDocuments call
	// carries exactly one batch's files.
	assert.Equal(t, []int{20, 20, 5}, vectors.batches)
}

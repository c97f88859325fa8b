package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symbolgraph/symbolgraph/internal/domain"
)

func TestStore_PendingEmbeddingsSkipsAlreadyStoredAndTooShort(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := samplePersistRecord()
	rec.FilePath = "pkg/long.go"
	rec.IntentStream = "a long enough intent stream to pass the length filter"
	require.NoError(t, s.PersistFile(ctx, rec))

	short := samplePersistRecord()
	short.FilePath = "pkg/short.go"
	short.IntentStream = "short"
	require.NoError(t, s.PersistFile(ctx, short))

	pending, err := s.PendingEmbeddings(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "pkg/long.go", pending[0].FilePath)
	assert.Equal(t, "source", pending[0].PartitionID)
}

func TestStore_ReplaceChunksThenMarkEmbeddingsStored(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := samplePersistRecord()
	rec.IntentStream = "a long enough intent stream to pass the length filter"
	require.NoError(t, s.PersistFile(ctx, rec))

	chunks := []domain.SemanticChunk{
		{ChunkID: "c1", FilePath: rec.FilePath, ChunkIndex: 0, ChunkText: "part one", StartOffset: 0, EndOffset: 8, TokenCount: 2},
		{ChunkID: "c2", FilePath: rec.FilePath, ChunkIndex: 1, ChunkText: "part two", StartOffset: 8, EndOffset: 16, TokenCount: 2},
	}
	require.NoError(t, s.ReplaceChunks(ctx, []string{rec.FilePath}, chunks))

	pending, err := s.PendingEmbeddings(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, s.MarkEmbeddingsStored(ctx, []string{"c1", "c2"}))

	pendingAfter, err := s.PendingEmbeddings(ctx)
	require.NoError(t, err)
	assert.Empty(t, pendingAfter)
}

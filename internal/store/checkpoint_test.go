package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveAndLoadCheckpointRoundTrips(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveCheckpoint(ctx, "embedding", 100, 40, "static-hash-v1"))

	cp, err := s.LoadCheckpoint(ctx)
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, "embedding", cp.Stage)
	assert.Equal(t, 100, cp.Total)
	assert.Equal(t, 40, cp.Embedded)
	assert.Equal(t, "static-hash-v1", cp.EmbedderModel)
	assert.False(t, cp.Timestamp.IsZero())
}

func TestStore_SaveCheckpointOverwritesPriorProgress(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveCheckpoint(ctx, "embedding", 100, 40, "static-hash-v1"))
	require.NoError(t, s.SaveCheckpoint(ctx, "embedding", 100, 75, "static-hash-v1"))

	cp, err := s.LoadCheckpoint(ctx)
	require.NoError(t, err)
	assert.Equal(t, 75, cp.Embedded)
}

func TestStore_LoadCheckpointReturnsNilWhenAbsent(t *testing.T) {
	s := newTestStore(t)
	cp, err := s.LoadCheckpoint(context.Background())
	require.NoError(t, err)
	assert.Nil(t, cp)
}

func TestStore_ClearCheckpointRemovesIt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveCheckpoint(ctx, "embedding", 100, 40, "static-hash-v1"))
	require.NoError(t, s.ClearCheckpoint(ctx))

	cp, err := s.LoadCheckpoint(ctx)
	require.NoError(t, err)
	assert.Nil(t, cp)
}

func TestStore_ClearIndexAlsoClearsCheckpointAndEmbedderInfo(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveCheckpoint(ctx, "embedding", 100, 40, "static-hash-v1"))
	require.NoError(t, s.RecordIndexEmbedderInfo(ctx, "static-hash-v1", "local", 256))
	require.NoError(t, s.PersistFile(ctx, samplePersistRecord()))

	require.NoError(t, s.ClearIndex(ctx))

	cp, err := s.LoadCheckpoint(ctx)
	require.NoError(t, err)
	assert.Nil(t, cp)

	info, err := s.GetIndexInfo(ctx, "/proj", "/proj/.symbolgraph/index.db", "/proj/.symbolgraph/bleve", "/proj/.symbolgraph/vectors", EmbedderInfo{Model: "static-hash-v1", Dimensions: 256})
	require.NoError(t, err)
	assert.Empty(t, info.IndexModel)
}

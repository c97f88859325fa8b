package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symbolgraph/symbolgraph/internal/domain"
)

func TestStore_AddAndSearchSimilarReturnsNearestFirst(t *testing.T) {
	s := New("cos", 16, 20)
	ctx := context.Background()

	err := s.AddDocuments(ctx, "files", []domain.VectorDoc{
		{ID: "a.go", Vector: []float32{1, 0, 0}, Content: "package a"},
		{ID: "b.go", Vector: []float32{0, 1, 0}, Content: "package b"},
	})
	require.NoError(t, err)

	hits, err := s.SearchSimilar(ctx, "files", []float32{1, 0, 0}, 5, 0.0)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "a.go", hits[0].ID)
}

func TestStore_SearchSimilarFiltersBelowThreshold(t *testing.T) {
	s := New("cos", 16, 20)
	ctx := context.Background()

	require.NoError(t, s.AddDocuments(ctx, "files", []domain.VectorDoc{
		{ID: "a.go", Vector: []float32{1, 0, 0}},
		{ID: "b.go", Vector: []float32{0, 0, 1}},
	}))

	hits, err := s.SearchSimilar(ctx, "files", []float32{1, 0, 0}, 5, 0.99)
	require.NoError(t, err)
	for _, h := range hits {
		assert.GreaterOrEqual(t, h.Score, 0.99)
	}
}

func TestStore_AddDocumentsRejectsDimensionMismatch(t *testing.T) {
	s := New("cos", 16, 20)
	ctx := context.Background()
	require.NoError(t, s.AddDocuments(ctx, "files", []domain.VectorDoc{{ID: "a.go", Vector: []float32{1, 0, 0}}}))

	err := s.AddDocuments(ctx, "files", []domain.VectorDoc{{ID: "b.go", Vector: []float32{1, 0}}})
	assert.Error(t, err)
	var dimErr ErrDimensionMismatch
	assert.ErrorAs(t, err, &dimErr)
}

func TestStore_SearchSimilarOnUnknownCollectionReturnsEmpty(t *testing.T) {
	s := New("cos", 16, 20)
	hits, err := s.SearchSimilar(context.Background(), "missing", []float32{1, 0}, 5, 0.0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

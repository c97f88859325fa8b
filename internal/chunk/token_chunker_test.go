package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symbolgraph/symbolgraph/internal/domain"
)

func testCfg() domain.ChunkerConfig {
	return domain.ChunkerConfig{TargetTokens: 100, OverlapFraction: 0.10, HardLimitTokens: 120}
}

func TestTextChunker_SmallInputReturnsSingleChunk(t *testing.T) {
	c := NewTextChunker()
	text := "short piece of text"

	chunks := c.Chunk(text, "pkg/a.go", "go", testCfg())

	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Metadata.ChunkIndex)
	assert.Equal(t, 0, chunks[0].Metadata.StartOffset)
	assert.Equal(t, len(text), chunks[0].Metadata.EndOffset)
}

func TestTextChunker_EmptyTextReturnsNoChunks(t *testing.T) {
	c := NewTextChunker()
	assert.Empty(t, c.Chunk("", "pkg/a.go", "go", testCfg()))
}

func TestTextChunker_LargeInputProducesDenseContiguousOverlappingChunks(t *testing.T) {
	c := NewTextChunker()
	lines := make([]string, 0, 400)
	for i := 0; i < 400; i++ {
		lines = append(lines, strings.Repeat("x", 20))
	}
	text := strings.Join(lines, "\n")

	chunks := c.Chunk(text, "pkg/big.go", "go", testCfg())

	require.Greater(t, len(chunks), 1)
	for i, ch := range chunks {
		assert.Equal(t, i, ch.Metadata.ChunkIndex)
		assert.NotEmpty(t, ch.Metadata.ChunkID)
		if i > 0 {
			assert.LessOrEqual(t, ch.Metadata.StartOffset, chunks[i-1].Metadata.EndOffset, "chunk %d must overlap or touch previous", i)
		}
	}
	last := chunks[len(chunks)-1]
	assert.Equal(t, len(text), last.Metadata.EndOffset)
}

func TestTextChunker_ChunkIDsAreStableAndUnique(t *testing.T) {
	c := NewTextChunker()
	text := strings.Repeat("y", 5000)

	first := c.Chunk(text, "pkg/stable.go", "go", testCfg())
	second := c.Chunk(text, "pkg/stable.go", "go", testCfg())

	require.Equal(t, len(first), len(second))
	seen := make(map[string]bool)
	for i := range first {
		assert.Equal(t, first[i].Metadata.ChunkID, second[i].Metadata.ChunkID)
		assert.False(t, seen[first[i].Metadata.ChunkID])
		seen[first[i].Metadata.ChunkID] = true
	}
}

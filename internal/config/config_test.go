package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, 50, cfg.Indexing.FileBatchSize)
	assert.Equal(t, 20, cfg.Indexing.EmbeddingBatchSize)
	assert.Equal(t, 28800, cfg.Indexing.ChunkTargetTokens)
	assert.InDelta(t, 0.10, cfg.Indexing.ChunkOverlapFraction, 1e-9)
	assert.Equal(t, 32000, cfg.Indexing.ChunkHardLimitTokens)
	assert.EqualValues(t, 10, cfg.Indexing.MinFileSize)
	assert.EqualValues(t, 1048576, cfg.Indexing.MaxFileSize)
	assert.InDelta(t, 0.25, cfg.Search.SimilarityThreshold, 1e-9)
	require.NoError(t, cfg.Validate())
}

func TestLoad_ProjectConfigOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	yamlContent := `
indexing:
  file_batch_size: 10
  skip_embeddings: true
search:
  similarity_threshold: 0.5
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".symbolgraph.yaml"), []byte(yamlContent), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Indexing.FileBatchSize)
	assert.True(t, cfg.Indexing.SkipEmbeddings)
	assert.InDelta(t, 0.5, cfg.Search.SimilarityThreshold, 1e-9)
	// Untouched fields keep their defaults.
	assert.Equal(t, 20, cfg.Indexing.EmbeddingBatchSize)
}

func TestLoad_EnvOverridesProjectConfig(t *testing.T) {
	dir := t.TempDir()
	yamlContent := "search:\n  similarity_threshold: 0.5\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".symbolgraph.yaml"), []byte(yamlContent), 0644))

	t.Setenv("SYMBOLGRAPH_SIMILARITY_THRESHOLD", "0.75")
	t.Setenv("SYMBOLGRAPH_SKIP_EMBEDDINGS", "true")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, cfg.Search.SimilarityThreshold, 1e-9)
	assert.True(t, cfg.Indexing.SkipEmbeddings)
}

func TestLoad_NoConfigFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, NewConfig().Indexing.FileBatchSize, cfg.Indexing.FileBatchSize)
}

func TestValidate_RejectsOutOfRangeSimilarityThreshold(t *testing.T) {
	cfg := NewConfig()
	cfg.Search.SimilarityThreshold = 1.5
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsChunkTargetExceedingHardLimit(t *testing.T) {
	cfg := NewConfig()
	cfg.Indexing.ChunkTargetTokens = cfg.Indexing.ChunkHardLimitTokens + 1
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsMaxFileSizeBelowMinFileSize(t *testing.T) {
	cfg := NewConfig()
	cfg.Indexing.MaxFileSize = cfg.Indexing.MinFileSize
	assert.Error(t, cfg.Validate())
}

func TestFindProjectRoot_StopsAtGitDirectory(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0755))
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))

	found, err := FindProjectRoot(nested)
	require.NoError(t, err)
	assert.Equal(t, root, found)
}

func TestWriteYAML_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.yaml")

	cfg := NewConfig()
	cfg.Search.SimilarityThreshold = 0.42
	require.NoError(t, cfg.WriteYAML(path))

	loaded := NewConfig()
	require.NoError(t, loaded.loadYAML(path))
	assert.InDelta(t, 0.42, loaded.Search.SimilarityThreshold, 1e-9)
}

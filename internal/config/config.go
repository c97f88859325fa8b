package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the complete symbolgraph configuration.
// It mirrors the options record described in the specification's
// configuration section.
type Config struct {
	Version  int            `yaml:"version" json:"version"`
	Paths    PathsConfig    `yaml:"paths" json:"paths"`
	Indexing IndexingConfig `yaml:"indexing" json:"indexing"`
	Search   SearchConfig   `yaml:"search" json:"search"`
	Debug    bool           `yaml:"debug" json:"debug"`
}

// PathsConfig configures which paths to include and exclude during discovery.
type PathsConfig struct {
	Include []string `yaml:"include" json:"include"`
	Exclude []string `yaml:"exclude" json:"exclude"`
}

// IndexingConfig configures file discovery, chunking, and embedding batch
// behavior for the indexing pipeline.
type IndexingConfig struct {
	// FileBatchSize is the number of files processed per indexing batch.
	FileBatchSize int `yaml:"file_batch_size" json:"file_batch_size"`
	// EmbeddingBatchSize is the number of pending files the embedding
	// pipeline processes per batch.
	EmbeddingBatchSize int `yaml:"embedding_batch_size" json:"embedding_batch_size"`
	// ChunkTargetTokens is the target size, in tokens, of an embedding_text
	// chunk before splitting.
	ChunkTargetTokens int `yaml:"chunk_target_tokens" json:"chunk_target_tokens"`
	// ChunkOverlapFraction is the fraction of a chunk that overlaps with
	// the following chunk when a file's embedding_text is split.
	ChunkOverlapFraction float64 `yaml:"chunk_overlap_fraction" json:"chunk_overlap_fraction"`
	// ChunkHardLimitTokens caps chunk size regardless of target/overlap.
	ChunkHardLimitTokens int `yaml:"chunk_hard_limit_tokens" json:"chunk_hard_limit_tokens"`
	// MinFileSize is the minimum file size in bytes to index.
	MinFileSize int64 `yaml:"min_file_size" json:"min_file_size"`
	// MaxFileSize is the maximum file size in bytes to index.
	MaxFileSize int64 `yaml:"max_file_size" json:"max_file_size"`
	// SkipEmbeddings disables the embedding pipeline; indexing populates
	// the lexical and graph domains only.
	SkipEmbeddings bool `yaml:"skip_embeddings" json:"skip_embeddings"`
}

// SearchConfig configures semantic search degradation and ranking.
type SearchConfig struct {
	// SimilarityThreshold is the minimum cosine similarity for a semantic
	// match to be reported as a hit rather than filtered out.
	SimilarityThreshold float64 `yaml:"similarity_threshold" json:"similarity_threshold"`
	// MaxResults is loaded, merged and validated with the rest of the
	// config; no search path reads it, and the search command's --limit
	// flag defaults to 10.
	MaxResults int `yaml:"max_results" json:"max_results"`
}

// defaultExcludePatterns are always excluded from discovery.
var defaultExcludePatterns = []string{
	"**/node_modules/**",
	"**/.git/**",
	"**/vendor/**",
	"**/__pycache__/**",
	"**/dist/**",
	"**/build/**",
	"**/*.min.js",
	"**/*.min.css",
	"**/package-lock.json",
	"**/yarn.lock",
	"**/pnpm-lock.yaml",
	"**/go.sum",
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			Include: []string{},
			Exclude: defaultExcludePatterns,
		},
		Indexing: IndexingConfig{
			FileBatchSize:        50,
			EmbeddingBatchSize:   20,
			ChunkTargetTokens:    28800,
			ChunkOverlapFraction: 0.10,
			ChunkHardLimitTokens: 32000,
			MinFileSize:          10,
			MaxFileSize:          1048576,
			SkipEmbeddings:       false,
		},
		Search: SearchConfig{
			SimilarityThreshold: 0.25,
			MaxResults:          20,
		},
		Debug: false,
	}
}

// GetUserConfigPath returns the path to the user/global configuration file.
// It follows the XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/symbolgraph/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/symbolgraph/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "symbolgraph", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "symbolgraph", "config.yaml")
	}
	return filepath.Join(home, ".config", "symbolgraph", "config.yaml")
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// loadUserConfig loads the user/global configuration file if it exists.
// Returns nil config and nil error if the file doesn't exist (that's OK).
func loadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()
	if !fileExists(configPath) {
		return nil, nil
	}

	cfg := NewConfig()
	if err := cfg.loadYAML(configPath); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", configPath, err)
	}
	return cfg, nil
}

// Load loads configuration from the specified project directory.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/symbolgraph/config.yaml)
//  3. Project config (.symbolgraph.yaml in project root)
//  4. Environment variables (SYMBOLGRAPH_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromFile attempts to load configuration from .symbolgraph.yaml or
// .symbolgraph.yml in dir.
func (c *Config) loadFromFile(dir string) error {
	yamlPath := filepath.Join(dir, ".symbolgraph.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return c.loadYAML(yamlPath)
	}

	ymlPath := filepath.Join(dir, ".symbolgraph.yml")
	if _, err := os.Stat(ymlPath); err == nil {
		return c.loadYAML(ymlPath)
	}

	return nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	if len(other.Paths.Include) > 0 {
		c.Paths.Include = other.Paths.Include
	}
	if len(other.Paths.Exclude) > 0 {
		c.Paths.Exclude = append(c.Paths.Exclude, other.Paths.Exclude...)
	}

	if other.Indexing.FileBatchSize != 0 {
		c.Indexing.FileBatchSize = other.Indexing.FileBatchSize
	}
	if other.Indexing.EmbeddingBatchSize != 0 {
		c.Indexing.EmbeddingBatchSize = other.Indexing.EmbeddingBatchSize
	}
	if other.Indexing.ChunkTargetTokens != 0 {
		c.Indexing.ChunkTargetTokens = other.Indexing.ChunkTargetTokens
	}
	if other.Indexing.ChunkOverlapFraction != 0 {
		c.Indexing.ChunkOverlapFraction = other.Indexing.ChunkOverlapFraction
	}
	if other.Indexing.ChunkHardLimitTokens != 0 {
		c.Indexing.ChunkHardLimitTokens = other.Indexing.ChunkHardLimitTokens
	}
	if other.Indexing.MinFileSize != 0 {
		c.Indexing.MinFileSize = other.Indexing.MinFileSize
	}
	if other.Indexing.MaxFileSize != 0 {
		c.Indexing.MaxFileSize = other.Indexing.MaxFileSize
	}
	if other.Indexing.SkipEmbeddings {
		c.Indexing.SkipEmbeddings = other.Indexing.SkipEmbeddings
	}

	if other.Search.SimilarityThreshold != 0 {
		c.Search.SimilarityThreshold = other.Search.SimilarityThreshold
	}
	if other.Search.MaxResults != 0 {
		c.Search.MaxResults = other.Search.MaxResults
	}

	if other.Debug {
		c.Debug = other.Debug
	}
}

// applyEnvOverrides applies SYMBOLGRAPH_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SYMBOLGRAPH_SIMILARITY_THRESHOLD"); v != "" {
		if f, err := parseFloat64(v); err == nil && f >= 0 && f <= 1 {
			c.Search.SimilarityThreshold = f
		}
	}
	if v := os.Getenv("SYMBOLGRAPH_MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Search.MaxResults = n
		}
	}
	if v := os.Getenv("SYMBOLGRAPH_FILE_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Indexing.FileBatchSize = n
		}
	}
	if v := os.Getenv("SYMBOLGRAPH_EMBEDDING_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Indexing.EmbeddingBatchSize = n
		}
	}
	if v := os.Getenv("SYMBOLGRAPH_SKIP_EMBEDDINGS"); v != "" {
		c.Indexing.SkipEmbeddings = strings.ToLower(v) == "true" || v == "1"
	}
	if v := os.Getenv("SYMBOLGRAPH_DEBUG"); v != "" {
		c.Debug = strings.ToLower(v) == "true" || v == "1"
	}
}

// parseFloat64 parses a string to float64, used for config parsing.
func parseFloat64(s string) (float64, error) {
	var f float64
	_, err := fmt.Sscanf(strings.TrimSpace(s), "%f", &f)
	return f, err
}

// FindProjectRoot finds the project root directory.
// It looks for a .git directory or .symbolgraph.yaml/.yml file by walking up
// the directory tree.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	currentDir := absDir
	for {
		if dirExists(filepath.Join(currentDir, ".git")) {
			return currentDir, nil
		}
		if fileExists(filepath.Join(currentDir, ".symbolgraph.yaml")) ||
			fileExists(filepath.Join(currentDir, ".symbolgraph.yml")) {
			return currentDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return absDir, nil
		}
		currentDir = parentDir
	}
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// dirExists checks if a directory exists.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Search.SimilarityThreshold < 0 || c.Search.SimilarityThreshold > 1 {
		return fmt.Errorf("search.similarity_threshold must be between 0 and 1, got %f", c.Search.SimilarityThreshold)
	}
	if c.Search.MaxResults < 0 {
		return fmt.Errorf("search.max_results must be non-negative, got %d", c.Search.MaxResults)
	}
	if c.Indexing.FileBatchSize <= 0 {
		return fmt.Errorf("indexing.file_batch_size must be positive, got %d", c.Indexing.FileBatchSize)
	}
	if c.Indexing.EmbeddingBatchSize <= 0 {
		return fmt.Errorf("indexing.embedding_batch_size must be positive, got %d", c.Indexing.EmbeddingBatchSize)
	}
	if c.Indexing.ChunkOverlapFraction < 0 || c.Indexing.ChunkOverlapFraction >= 1 {
		return fmt.Errorf("indexing.chunk_overlap_fraction must be in [0, 1), got %f", c.Indexing.ChunkOverlapFraction)
	}
	if c.Indexing.ChunkTargetTokens <= 0 || c.Indexing.ChunkTargetTokens > c.Indexing.ChunkHardLimitTokens {
		return fmt.Errorf("indexing.chunk_target_tokens must be positive and at most the hard limit (%d), got %d",
			c.Indexing.ChunkHardLimitTokens, c.Indexing.ChunkTargetTokens)
	}
	if c.Indexing.MinFileSize < 0 {
		return fmt.Errorf("indexing.min_file_size must be non-negative, got %d", c.Indexing.MinFileSize)
	}
	if c.Indexing.MaxFileSize <= c.Indexing.MinFileSize {
		return fmt.Errorf("indexing.max_file_size must exceed min_file_size, got %d <= %d",
			c.Indexing.MaxFileSize, c.Indexing.MinFileSize)
	}
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// LoadUserConfig loads the user configuration file.
// Returns nil config and nil error if the file doesn't exist.
func LoadUserConfig() (*Config, error) {
	return loadUserConfig()
}

package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/symbolgraph/symbolgraph/internal/changedet"
	"github.com/symbolgraph/symbolgraph/internal/chunk"
	"github.com/symbolgraph/symbolgraph/internal/classify"
	"github.com/symbolgraph/symbolgraph/internal/config"
	"github.com/symbolgraph/symbolgraph/internal/discover"
	"github.com/symbolgraph/symbolgraph/internal/domain"
	"github.com/symbolgraph/symbolgraph/internal/embed"
	"github.com/symbolgraph/symbolgraph/internal/embedpipe"
	"github.com/symbolgraph/symbolgraph/internal/extract"
	"github.com/symbolgraph/symbolgraph/internal/graph"
	"github.com/symbolgraph/symbolgraph/internal/indexer"
	"github.com/symbolgraph/symbolgraph/internal/lexical"
	"github.com/symbolgraph/symbolgraph/internal/respath"
	"github.com/symbolgraph/symbolgraph/internal/search"
	"github.com/symbolgraph/symbolgraph/internal/store"
	"github.com/symbolgraph/symbolgraph/internal/vectorstore"
)

// app wires every collaborator package together for one CLI invocation,
// rooted at a single project directory.
type app struct {
	root  string
	cfg   *config.Config
	paths respath.Paths
	store *store.Store
	lex   *lexical.Index
	vec   *vectorstore.Store
	embed *embed.StaticEmbedder

	Indexer *indexer.Indexer
	Search  *search.Engine
	Graph   *graph.Analyzer
}

// openApp resolves root, loads configuration, and opens every store.
// Callers must call Close when done.
func openApp(ctx context.Context, root string) (*app, error) {
	cfg, err := config.Load(root)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	paths, err := respath.Resolve(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage paths: %w", err)
	}

	st, err := store.Open(ctx, paths.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open index store: %w", err)
	}

	lex, err := lexical.Open(paths.BleveDir)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("open lexical index: %w", err)
	}

	embedder := embed.New()
	vec := vectorstore.New("cos", 16, 20)

	a := &app{
		root:  root,
		cfg:   cfg,
		paths: paths,
		store: st,
		lex:   lex,
		vec:   vec,
		embed: embedder,
	}

	astExtractor := extract.NewTreeSitterExtractor()
	contentExtractor := extract.New(astExtractor)
	classifier := classify.NewPathPrefixClassifier()
	detector := changedet.New(st)
	discovery, err := discover.New()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create discovery: %w", err)
	}

	chunker := chunkerFromConfig(cfg)
	pipeline := embedpipe.New(st, chunker, vec, embedpipe.Config{
		EmbeddingBatchSize: cfg.Indexing.EmbeddingBatchSize,
		Chunker:            chunkerConfig(cfg),
		EmbedderModel:      embedder.ModelName(),
		EmbedderBackend:    embedder.Backend(),
		EmbedderDimensions: embedder.Dimensions(),
	}, slog.Default())

	ix, err := indexer.New(indexer.Dependencies{
		Discovery:  discovery,
		Detector:   detector,
		Extractor:  contentExtractor,
		Classifier: classifier,
		Store:      st,
		Lexical:    lex,
		Embeddings: pipeline,
		Logger:     slog.Default(),
		BatchSize:  cfg.Indexing.FileBatchSize,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create indexer: %w", err)
	}
	a.Indexer = ix

	var embeddingBackend domain.EmbeddingBackend = embedder
	se, err := search.New(st, st, lex, vec, embeddingBackend, search.Config{
		SimilarityThreshold: cfg.Search.SimilarityThreshold,
		RootDir:             root,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create search engine: %w", err)
	}
	a.Search = se

	a.Graph = graph.New(st)

	return a, nil
}

func chunkerConfig(cfg *config.Config) domain.ChunkerConfig {
	return domain.ChunkerConfig{
		TargetTokens:    cfg.Indexing.ChunkTargetTokens,
		OverlapFraction: cfg.Indexing.ChunkOverlapFraction,
		HardLimitTokens: cfg.Indexing.ChunkHardLimitTokens,
	}
}

func chunkerFromConfig(_ *config.Config) domain.Chunker {
	return chunk.NewTextChunker()
}

// Close releases every collaborator this app opened, tolerating any of
// them being nil (partial construction on an earlier error).
func (a *app) Close() {
	if a.lex != nil {
		_ = a.lex.Close()
	}
	if a.embed != nil {
		_ = a.embed.Close()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
}

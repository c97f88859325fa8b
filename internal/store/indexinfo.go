package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// EmbedderInfo identifies an embedding backend by model, backend, and
// output width. GetIndexInfo compares model and width between what the
// on-disk index was built with and what's currently configured; backend is
// reported but not compared.
type EmbedderInfo struct {
	Model      string
	Backend    string
	Dimensions int
}

// IndexInfo summarizes an index's location, the embedder it was built
// with, its size on disk, and whether that embedder still matches the
// one currently configured — the `index info` operation.
type IndexInfo struct {
	Location    string
	ProjectRoot string

	IndexModel      string
	IndexBackend    string
	IndexDimensions int

	ChunkCount      int
	DocumentCount   int
	IndexSizeBytes  int64
	BM25SizeBytes   int64
	VectorSizeBytes int64

	CreatedAt time.Time
	UpdatedAt time.Time

	CurrentModel      string
	CurrentBackend    string
	CurrentDimensions int
	Compatible        bool
}

// RecordIndexEmbedderInfo persists the embedder identity the index was
// (re)built with, called once an embedding pipeline run finishes cleanly.
func (s *Store) RecordIndexEmbedderInfo(ctx context.Context, model, backend string, dimensions int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields := map[string]string{
		stateKeyIndexModel:      model,
		stateKeyIndexBackend:    backend,
		stateKeyIndexDimensions: strconv.Itoa(dimensions),
	}
	for k, v := range fields {
		if err := s.setState(ctx, k, v); err != nil {
			return err
		}
	}
	return nil
}

// GetIndexInfo aggregates index metadata for the `index info` operation:
// the embedder the index was built with (from schema_state), document and
// chunk counts, on-disk size of each backing store, and a compatibility
// verdict against current, the embedder the caller has configured right
// now. bleveDir and vectorDir are the same paths respath.Resolve hands
// every other collaborator.
func (s *Store) GetIndexInfo(ctx context.Context, projectRoot, dbPath, bleveDir, vectorDir string, current EmbedderInfo) (*IndexInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info := &IndexInfo{
		Location:          dbPath,
		ProjectRoot:       projectRoot,
		CurrentModel:      current.Model,
		CurrentBackend:    current.Backend,
		CurrentDimensions: current.Dimensions,
	}

	if v, ok, err := s.getState(ctx, stateKeyIndexModel); err != nil {
		return nil, err
	} else if ok {
		info.IndexModel = v
	}
	if v, ok, err := s.getState(ctx, stateKeyIndexBackend); err != nil {
		return nil, err
	} else if ok {
		info.IndexBackend = v
	}
	if v, ok, err := s.getState(ctx, stateKeyIndexDimensions); err != nil {
		return nil, err
	} else if ok {
		info.IndexDimensions, _ = strconv.Atoi(v)
	}
	if v, ok, err := s.getState(ctx, stateKeyIndexCreatedAt); err != nil {
		return nil, err
	} else if ok {
		if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
			info.CreatedAt = time.UnixMilli(ms).UTC()
		}
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM semantic_chunks`).Scan(&info.ChunkCount); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM indexed_files`).Scan(&info.DocumentCount); err != nil {
		return nil, err
	}

	var lastIndexedMs sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(last_indexed_at_ms) FROM indexed_files`).Scan(&lastIndexedMs); err != nil {
		return nil, err
	}
	if lastIndexedMs.Valid {
		info.UpdatedAt = time.UnixMilli(lastIndexedMs.Int64).UTC()
	}

	info.IndexSizeBytes = fileSize(dbPath)
	info.BM25SizeBytes = dirSize(bleveDir)
	if v := dirSize(vectorDir); v > 0 {
		info.VectorSizeBytes = v
	} else if info.IndexDimensions > 0 {
		// The HNSW vector store this build ships is in-memory only, so
		// there is nothing on disk to measure; approximate from what it
		// would take to hold one float32 per dimension per chunk.
		info.VectorSizeBytes = int64(info.ChunkCount) * int64(info.IndexDimensions) * 4
	}

	info.Compatible = info.IndexModel == "" ||
		(info.IndexModel == current.Model && info.IndexDimensions == current.Dimensions)

	return info, nil
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

func dirSize(root string) int64 {
	var total int64
	_ = filepath.Walk(root, func(_ string, info os.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() {
			return nil
		}
		total += info.Size()
		return nil
	})
	return total
}

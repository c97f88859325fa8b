package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/symbolgraph/symbolgraph/internal/domain"
)

// SymbolsForFile returns every symbol row recorded for filePath, in
// insertion order (depth-first, matching persist_file's traversal).
func (s *Store) SymbolsForFile(ctx context.Context, filePath string) ([]domain.Symbol, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT file_path, name, type, COALESCE(signature, ''), location, COALESCE(parent_symbol, ''), is_exported
		FROM symbols WHERE file_path = ? ORDER BY id
	`, filePath)
	if err != nil {
		return nil, fmt.Errorf("query symbols for %s: %w", filePath, err)
	}
	defer rows.Close()

	var out []domain.Symbol
	for rows.Next() {
		var sym domain.Symbol
		var symType string
		var exported int
		if err := rows.Scan(&sym.FilePath, &sym.Name, &symType, &sym.Signature, &sym.Location, &sym.ParentSymbol, &exported); err != nil {
			return nil, err
		}
		sym.Type = domain.SymbolType(symType)
		sym.IsExported = exported != 0
		out = append(out, sym)
	}
	return out, rows.Err()
}

// AuthorityAndPartition returns a file's authority_score and partition_id,
// defaulting authority to 0.5 when the file is missing (per search's "stale
// result" handling — callers decide whether to drop the result instead).
func (s *Store) AuthorityAndPartition(ctx context.Context, filePath string) (authority float64, partition string, found bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT authority_score, partition_id FROM indexed_files WHERE file_path = ?`, filePath)
	err = row.Scan(&authority, &partition)
	if err == sql.ErrNoRows {
		return 0.5, "", false, nil
	}
	if err != nil {
		return 0, "", false, err
	}
	return authority, partition, true, nil
}

// ImportsByModuleSubstring groups imports whose import_path contains
// moduleSubstring by source_file, returning each source file's distinct
// import count and one representative import_path for the snippet.
func (s *Store) ImportsByModuleSubstring(ctx context.Context, moduleSubstring string, limit int) ([]domain.ImportGraphHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT source_file, COUNT(DISTINCT import_path) AS cnt, MIN(import_path)
		FROM imports
		WHERE import_path LIKE '%' || ? || '%'
		GROUP BY source_file
		ORDER BY cnt DESC, source_file ASC
		LIMIT ?
	`, moduleSubstring, limit)
	if err != nil {
		return nil, fmt.Errorf("query imports by module substring: %w", err)
	}
	defer rows.Close()

	var out []domain.ImportGraphHit
	for rows.Next() {
		var hit domain.ImportGraphHit
		if err := rows.Scan(&hit.SourceFile, &hit.DistinctCount, &hit.ImportPath); err != nil {
			return nil, err
		}
		out = append(out, hit)
	}
	return out, rows.Err()
}

// Dependencies returns every distinct import_path a file imports.
func (s *Store) Dependencies(ctx context.Context, filePath string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT import_path FROM imports WHERE source_file = ? ORDER BY import_path
	`, filePath)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Dependents returns every indexed file whose import_path contains file's
// path as a substring (the spec's declared-target-free approximation).
func (s *Store) Dependents(ctx context.Context, filePath string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT source_file FROM imports WHERE import_path LIKE '%' || ? || '%' ORDER BY source_file
	`, filePath)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// AllImportEdges returns every (source_file, import_path) edge, used by
// GraphAnalyzer to build its in-memory adjacency map.
func (s *Store) AllImportEdges(ctx context.Context) ([]domain.ImportEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT source_file, import_path FROM imports`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ImportEdge
	for rows.Next() {
		var e domain.ImportEdge
		if err := rows.Scan(&e.SourceFile, &e.ImportPath); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// AllFilePaths returns every indexed file path, used by GraphAnalyzer to
// resolve import_path substrings back to concrete files.
func (s *Store) AllFilePaths(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT file_path FROM indexed_files ORDER BY file_path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Stats summarizes the index for the `stats` operation.
type Stats struct {
	TotalFiles         int
	FilesWithEmbeddings int
	TotalSymbols       int
	TotalImports       int
	Languages          map[string]int
	LastIndexedAtMs    int64
}

func (s *Store) Stats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats Stats
	stats.Languages = make(map[string]int)

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM indexed_files`).Scan(&stats.TotalFiles); err != nil {
		return stats, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM semantic_metadata WHERE embedding_stored = 1`).Scan(&stats.FilesWithEmbeddings); err != nil {
		return stats, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM symbols`).Scan(&stats.TotalSymbols); err != nil {
		return stats, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM imports`).Scan(&stats.TotalImports); err != nil {
		return stats, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(last_indexed_at_ms), 0) FROM indexed_files`).Scan(&stats.LastIndexedAtMs); err != nil {
		return stats, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT language, COUNT(*) FROM indexed_files GROUP BY language`)
	if err != nil {
		return stats, err
	}
	defer rows.Close()
	for rows.Next() {
		var lang string
		var count int
		if err := rows.Scan(&lang, &count); err != nil {
			return stats, err
		}
		stats.Languages[lang] = count
	}
	return stats, rows.Err()
}

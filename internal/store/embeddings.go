package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/symbolgraph/symbolgraph/internal/domain"
)

// PendingEmbeddings selects every semantic_metadata row with
// embedding_stored=0 and a non-trivial embedding_text, joined against
// indexed_files for partition/authority.
func (s *Store) PendingEmbeddings(ctx context.Context) ([]domain.PendingEmbedding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT sm.file_path, sm.embedding_text, f.partition_id, f.authority_score
		FROM semantic_metadata sm
		JOIN indexed_files f ON f.file_path = sm.file_path
		WHERE sm.embedding_stored = 0 AND length(sm.embedding_text) > 10
		ORDER BY sm.file_path
	`)
	if err != nil {
		return nil, fmt.Errorf("query pending embeddings: %w", err)
	}
	defer rows.Close()

	var out []domain.PendingEmbedding
	for rows.Next() {
		var p domain.PendingEmbedding
		if err := rows.Scan(&p.FilePath, &p.EmbeddingText, &p.PartitionID, &p.AuthorityScore); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ReplaceChunks deletes any existing semantic_chunks for the given file
// paths and inserts chunks, all in one transaction. embedding_stored
// starts at 0 for every inserted row.
func (s *Store) ReplaceChunks(ctx context.Context, filePaths []string, chunks []domain.SemanticChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, fp := range filePaths {
		if _, err := tx.ExecContext(ctx, `DELETE FROM semantic_chunks WHERE file_path = ?`, fp); err != nil {
			return fmt.Errorf("delete existing chunks for %s: %w", fp, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO semantic_chunks(
			chunk_id, file_path, chunk_index, chunk_text, start_offset, end_offset,
			token_count, embedding_stored, vector_store_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, 0, NULL)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range chunks {
		if _, err := stmt.ExecContext(ctx, c.ChunkID, c.FilePath, c.ChunkIndex, c.ChunkText, c.StartOffset, c.EndOffset, c.TokenCount); err != nil {
			return fmt.Errorf("insert chunk %s: %w", c.ChunkID, err)
		}
	}

	return tx.Commit()
}

// MarkEmbeddingsStored flips embedding_stored=1 on every listed chunk (with
// vector_store_id=chunk_id) and on each affected file's semantic_metadata
// row, stamping total_chunks. This is only called after VectorStore.Add
// succeeds — embedding_stored is never observably true before the vector
// write commits.
func (s *Store) MarkEmbeddingsStored(ctx context.Context, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		UPDATE semantic_chunks SET embedding_stored = 1, vector_store_id = chunk_id WHERE chunk_id = ?
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	affectedFiles := make(map[string]struct{})
	for _, id := range chunkIDs {
		var filePath string
		if err := tx.QueryRowContext(ctx, `SELECT file_path FROM semantic_chunks WHERE chunk_id = ?`, id).Scan(&filePath); err != nil {
			if err == sql.ErrNoRows {
				continue
			}
			return err
		}
		if _, err := stmt.ExecContext(ctx, id); err != nil {
			return fmt.Errorf("mark chunk %s stored: %w", id, err)
		}
		affectedFiles[filePath] = struct{}{}
	}

	for filePath := range affectedFiles {
		var total int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM semantic_chunks WHERE file_path = ?`, filePath).Scan(&total); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE semantic_metadata SET embedding_stored = 1, total_chunks = ? WHERE file_path = ?
		`, total, filePath); err != nil {
			return fmt.Errorf("mark semantic_metadata stored for %s: %w", filePath, err)
		}
	}

	return tx.Commit()
}

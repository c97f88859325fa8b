package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/symbolgraph/symbolgraph/internal/domain"
)

// PersistRecord is one file's complete update, as produced by the indexing
// pipeline: ContentExtractor's output plus the file's hash, size, mtime,
// and classification.
type PersistRecord struct {
	FilePath        string
	MtimeMs         int64
	FileHash        string
	Language        string
	SizeBytes       int64
	LastIndexedAtMs int64
	PartitionID     string
	AuthorityScore  float64
	IsDocumentation bool

	CodeStream   string
	IntentStream string
	Symbols      []domain.Symbol
	Imports      []domain.Import
}

// PersistFile applies rec as one transaction: upsert indexed_files, delete
// the file's prior rows in every owned table, then insert its fresh rows.
// A reader never observes a partial update; any failure discards the whole
// file's change.
func (s *Store) PersistFile(ctx context.Context, rec PersistRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin persist_file transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := upsertIndexedFile(ctx, tx, rec); err != nil {
		return err
	}
	if err := deleteFileRows(ctx, tx, rec.FilePath); err != nil {
		return err
	}
	if err := insertSymbols(ctx, tx, rec.FilePath, rec.Symbols); err != nil {
		return err
	}
	if err := insertImports(ctx, tx, rec.Imports); err != nil {
		return err
	}
	if err := insertBM25Document(ctx, tx, rec); err != nil {
		return err
	}
	if err := insertSemanticMetadata(ctx, tx, rec); err != nil {
		return err
	}
	if rec.IsDocumentation && rec.IntentStream != "" {
		if err := insertFTS5Document(ctx, tx, rec.FilePath, rec.IntentStream); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func upsertIndexedFile(ctx context.Context, tx *sql.Tx, rec PersistRecord) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO indexed_files(
			file_path, mtime_ms, file_hash, language, size_bytes, symbol_count,
			last_indexed_at_ms, index_version, partition_id, authority_score
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_path) DO UPDATE SET
			mtime_ms = excluded.mtime_ms,
			file_hash = excluded.file_hash,
			language = excluded.language,
			size_bytes = excluded.size_bytes,
			symbol_count = excluded.symbol_count,
			last_indexed_at_ms = excluded.last_indexed_at_ms,
			index_version = excluded.index_version,
			partition_id = excluded.partition_id,
			authority_score = excluded.authority_score
	`,
		rec.FilePath, rec.MtimeMs, rec.FileHash, rec.Language, rec.SizeBytes, len(rec.Symbols),
		rec.LastIndexedAtMs, domain.CurrentIndexVersion, rec.PartitionID, rec.AuthorityScore,
	)
	if err != nil {
		return fmt.Errorf("upsert indexed_files: %w", err)
	}
	return nil
}

func deleteFileRows(ctx context.Context, tx *sql.Tx, filePath string) error {
	tables := []string{"symbols", "imports", "bm25_documents", "semantic_metadata", "semantic_chunks", "fts5_documents"}
	for _, table := range tables {
		col := "file_path"
		if table == "imports" {
			col = "source_file"
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE %s = ?", table, col), filePath); err != nil {
			return fmt.Errorf("delete existing %s rows: %w", table, err)
		}
	}
	return nil
}

func insertSymbols(ctx context.Context, tx *sql.Tx, filePath string, symbols []domain.Symbol) error {
	if len(symbols) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO symbols(file_path, name, type, signature, location, parent_symbol, is_exported)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare symbol insert: %w", err)
	}
	defer stmt.Close()

	for _, sym := range symbols {
		location := sym.Location
		if location == "" {
			location = "0:0-0:0"
		}
		var parent any
		if sym.ParentSymbol != "" {
			parent = sym.ParentSymbol
		}
		var signature any
		if sym.Signature != "" {
			signature = sym.Signature
		}
		if _, err := stmt.ExecContext(ctx, filePath, sym.Name, string(sym.Type), signature, location, parent, boolToInt(sym.IsExported)); err != nil {
			return fmt.Errorf("insert symbol %s: %w", sym.Name, err)
		}
	}
	return nil
}

func insertImports(ctx context.Context, tx *sql.Tx, imports []domain.Import) error {
	if len(imports) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO imports(source_file, import_path, imported_name, is_default)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare import insert: %w", err)
	}
	defer stmt.Close()

	for _, imp := range imports {
		var importedName any
		if imp.ImportedName != "" {
			importedName = imp.ImportedName
		}
		if _, err := stmt.ExecContext(ctx, imp.SourceFile, imp.ImportPath, importedName, boolToInt(imp.IsDefault)); err != nil {
			return fmt.Errorf("insert import %s: %w", imp.ImportPath, err)
		}
	}
	return nil
}

func insertBM25Document(ctx context.Context, tx *sql.Tx, rec PersistRecord) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO bm25_documents(file_path, searchable_text, term_count)
		VALUES (?, ?, ?)
	`, rec.FilePath, rec.CodeStream, termCount(rec.CodeStream))
	if err != nil {
		return fmt.Errorf("insert bm25_documents: %w", err)
	}
	return nil
}

func insertSemanticMetadata(ctx context.Context, tx *sql.Tx, rec PersistRecord) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO semantic_metadata(file_path, embedding_text, embedding_stored, total_chunks)
		VALUES (?, ?, 0, NULL)
	`, rec.FilePath, rec.IntentStream)
	if err != nil {
		return fmt.Errorf("insert semantic_metadata: %w", err)
	}
	return nil
}

func insertFTS5Document(ctx context.Context, tx *sql.Tx, filePath, content string) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO fts5_documents(file_path, content) VALUES (?, ?)`, filePath, content)
	if err != nil {
		return fmt.Errorf("insert fts5_documents: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func termCount(text string) int {
	count := 0
	inWord := false
	for _, r := range text {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			inWord = false
			continue
		}
		if !inWord {
			count++
			inWord = true
		}
	}
	return count
}

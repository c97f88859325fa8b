// Package store implements IndexStore: the SQLite-backed relational home
// for indexed_files, symbols, imports, bm25_documents, semantic_metadata,
// semantic_chunks, and fts5_documents. Every mutation to these tables goes
// through this package; VectorStore owns embedding vectors separately.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"github.com/symbolgraph/symbolgraph/internal/domain"
	"github.com/symbolgraph/symbolgraph/internal/errs"
)

// Store is the SQLite-backed IndexStore. A single process holds the write
// lock for the lifetime of the Store; concurrent processes block on Open
// until it is released.
type Store struct {
	mu   sync.RWMutex
	db   *sql.DB
	lock *flock.Flock
}

// Open creates or opens the index database at dbPath, applies WAL pragmas,
// takes the single-writer file lock, and enforces the index_version
// compatibility check.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	lock := flock.New(dbPath + ".lock")
	locked, err := lock.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeStoreLocked, err)
	}
	if !locked {
		return nil, errs.New(errs.ErrCodeStoreLocked, "index is locked by another process", nil).
			WithSuggestion("wait for the other symbolgraph process to finish, or remove the .lock file if it is stale")
	}

	dsn := dbPath + "?_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		_ = lock.Unlock()
		return nil, errs.Wrap(errs.ErrCodeCorruptIndex, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, errs.Wrap(errs.ErrCodeCorruptIndex, err)
		}
	}

	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, errs.Wrap(errs.ErrCodeCorruptIndex, err)
	}

	s := &Store{db: db, lock: lock}
	if err := s.checkIndexVersion(ctx); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, err
	}

	return s, nil
}

func (s *Store) checkIndexVersion(ctx context.Context) error {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM schema_state WHERE key = ?`, schemaVersionKey).Scan(&raw)
	if err == sql.ErrNoRows {
		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_state(key, value) VALUES (?, ?)`,
			schemaVersionKey, strconv.Itoa(domain.CurrentIndexVersion)); err != nil {
			return err
		}
		_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO schema_state(key, value) VALUES (?, ?)`,
			stateKeyIndexCreatedAt, strconv.FormatInt(time.Now().UTC().UnixMilli(), 10))
		return err
	}
	if err != nil {
		return errs.Wrap(errs.ErrCodeCorruptIndex, err)
	}

	onDisk, err := strconv.Atoi(raw)
	if err != nil {
		return errs.New(errs.ErrCodeCorruptIndex, "schema_state index_version is not an integer", err)
	}
	if onDisk > domain.CurrentIndexVersion {
		return errs.New(errs.ErrCodeSchemaVersion,
			fmt.Sprintf("index was built with index_version=%d, this binary supports up to %d", onDisk, domain.CurrentIndexVersion), nil).
			WithDetail("on_disk_version", raw).
			WithDetail("binary_version", strconv.Itoa(domain.CurrentIndexVersion)).
			WithSuggestion("rebuild the index with this version of symbolgraph, or upgrade the binary")
	}
	return nil
}

// Close releases the database connection and the single-writer lock.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var dbErr error
	if s.db != nil {
		dbErr = s.db.Close()
	}
	if s.lock != nil {
		_ = s.lock.Unlock()
	}
	return dbErr
}

// FileHash implements changedet.HashLookup.
func (s *Store) FileHash(ctx context.Context, relPath string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var hash string
	err := s.db.QueryRowContext(ctx, `SELECT file_hash FROM indexed_files WHERE file_path = ?`, relPath).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return hash, true, nil
}

// ClearIndex truncates every table this store owns in a single transaction.
func (s *Store) ClearIndex(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	tables := []string{
		"semantic_chunks", "semantic_metadata", "bm25_documents",
		"fts5_documents", "imports", "symbols", "indexed_files",
	}
	for _, t := range tables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+t); err != nil {
			return fmt.Errorf("clear %s: %w", t, err)
		}
	}

	// Checkpoint and index-embedder bookkeeping describe content this
	// clear just removed; stale entries would make the next run think a
	// resume or a dimension comparison is possible when it isn't.
	staleKeys := []string{
		stateKeyCheckpointStage, stateKeyCheckpointTotal, stateKeyCheckpointEmbedded,
		stateKeyCheckpointTimestamp, stateKeyCheckpointEmbedderModel,
		stateKeyIndexModel, stateKeyIndexBackend, stateKeyIndexDimensions, stateKeyIndexCreatedAt,
	}
	for _, k := range staleKeys {
		if _, err := tx.ExecContext(ctx, `DELETE FROM schema_state WHERE key = ?`, k); err != nil {
			return fmt.Errorf("clear state key %s: %w", k, err)
		}
	}

	return tx.Commit()
}

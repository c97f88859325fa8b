package store

import (
	"context"
	"database/sql"
	"strconv"
	"time"
)

// Checkpoint is the saved progress of one embedding-pipeline run, read back
// by LoadCheckpoint. The embedding pipeline does not consult it; each run
// selects every pending row.
type Checkpoint struct {
	Stage         string
	Total         int
	Embedded      int
	Timestamp     time.Time
	EmbedderModel string
}

// getState reads one schema_state value, returning ("", false, nil) if
// absent.
func (s *Store) getState(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM schema_state WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// setState upserts one schema_state value.
func (s *Store) setState(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO schema_state(key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func (s *Store) deleteState(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM schema_state WHERE key = ?`, key)
	return err
}

// SaveCheckpoint records embedding-pipeline progress: stage name, total and
// embedded counts as the caller supplies them (the embedding pipeline passes
// its pending file count and the chunks stored so far), and the embedder
// model in use. LoadCheckpoint returns the recorded model without comparing
// it to anything.
func (s *Store) SaveCheckpoint(ctx context.Context, stage string, total, embedded int, embedderModel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO schema_state(key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	fields := map[string]string{
		stateKeyCheckpointStage:         stage,
		stateKeyCheckpointTotal:         strconv.Itoa(total),
		stateKeyCheckpointEmbedded:      strconv.Itoa(embedded),
		stateKeyCheckpointTimestamp:     strconv.FormatInt(time.Now().UTC().UnixMilli(), 10),
		stateKeyCheckpointEmbedderModel: embedderModel,
	}
	for k, v := range fields {
		if _, err := stmt.ExecContext(ctx, k, v); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadCheckpoint returns the saved checkpoint, or nil if none exists (a
// fresh index, or one that completed and was cleared).
func (s *Store) LoadCheckpoint(ctx context.Context) (*Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stage, ok, err := s.getState(ctx, stateKeyCheckpointStage)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	cp := &Checkpoint{Stage: stage}
	if v, ok, err := s.getState(ctx, stateKeyCheckpointTotal); err != nil {
		return nil, err
	} else if ok {
		cp.Total, _ = strconv.Atoi(v)
	}
	if v, ok, err := s.getState(ctx, stateKeyCheckpointEmbedded); err != nil {
		return nil, err
	} else if ok {
		cp.Embedded, _ = strconv.Atoi(v)
	}
	if v, ok, err := s.getState(ctx, stateKeyCheckpointEmbedderModel); err != nil {
		return nil, err
	} else if ok {
		cp.EmbedderModel = v
	}
	if v, ok, err := s.getState(ctx, stateKeyCheckpointTimestamp); err != nil {
		return nil, err
	} else if ok {
		if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
			cp.Timestamp = time.UnixMilli(ms).UTC()
		}
	}
	return cp, nil
}

// ClearCheckpoint removes checkpoint state, called once a GeneratePending
// run finishes with zero pending rows left.
func (s *Store) ClearCheckpoint(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := []string{
		stateKeyCheckpointStage,
		stateKeyCheckpointTotal,
		stateKeyCheckpointEmbedded,
		stateKeyCheckpointTimestamp,
		stateKeyCheckpointEmbedderModel,
	}
	for _, k := range keys {
		if err := s.deleteState(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

package store

const schemaDDL = `
CREATE TABLE IF NOT EXISTS schema_state (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS indexed_files (
	file_path          TEXT PRIMARY KEY,
	mtime_ms           INTEGER NOT NULL,
	file_hash          TEXT NOT NULL,
	language           TEXT NOT NULL,
	size_bytes         INTEGER NOT NULL,
	symbol_count       INTEGER NOT NULL,
	last_indexed_at_ms INTEGER NOT NULL,
	index_version      INTEGER NOT NULL,
	partition_id       TEXT NOT NULL,
	authority_score    REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS symbols (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	file_path     TEXT NOT NULL REFERENCES indexed_files(file_path),
	name          TEXT NOT NULL,
	type          TEXT NOT NULL,
	signature     TEXT,
	location      TEXT NOT NULL,
	parent_symbol TEXT,
	is_exported   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_symbols_file_path ON symbols(file_path);
CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name);

CREATE TABLE IF NOT EXISTS imports (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	source_file   TEXT NOT NULL REFERENCES indexed_files(file_path),
	import_path   TEXT NOT NULL,
	imported_name TEXT,
	is_default    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_imports_source_file ON imports(source_file);
CREATE INDEX IF NOT EXISTS idx_imports_import_path ON imports(import_path);

CREATE TABLE IF NOT EXISTS bm25_documents (
	file_path       TEXT PRIMARY KEY REFERENCES indexed_files(file_path),
	searchable_text TEXT NOT NULL,
	term_count      INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS semantic_metadata (
	file_path        TEXT PRIMARY KEY REFERENCES indexed_files(file_path),
	embedding_text   TEXT NOT NULL,
	embedding_stored INTEGER NOT NULL,
	total_chunks     INTEGER
);

CREATE TABLE IF NOT EXISTS semantic_chunks (
	chunk_id         TEXT PRIMARY KEY,
	file_path        TEXT NOT NULL REFERENCES indexed_files(file_path),
	chunk_index      INTEGER NOT NULL,
	chunk_text       TEXT NOT NULL,
	start_offset     INTEGER NOT NULL,
	end_offset       INTEGER NOT NULL,
	token_count      INTEGER NOT NULL,
	embedding_stored INTEGER NOT NULL,
	vector_store_id  TEXT
);
CREATE INDEX IF NOT EXISTS idx_semantic_chunks_file_path ON semantic_chunks(file_path);

CREATE TABLE IF NOT EXISTS fts5_documents (
	file_path TEXT NOT NULL,
	content   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_fts5_documents_file_path ON fts5_documents(file_path);
`

const schemaVersionKey = "index_version"

// schema_state keys tracking embedding-pipeline progress, so a killed
// process can resume without rescanning everything, and the embedder
// bound to the on-disk vectors so a model/dimension swap is detectable.
const (
	stateKeyCheckpointStage         = "checkpoint_stage"
	stateKeyCheckpointTotal         = "checkpoint_total"
	stateKeyCheckpointEmbedded      = "checkpoint_embedded"
	stateKeyCheckpointTimestamp     = "checkpoint_timestamp"
	stateKeyCheckpointEmbedderModel = "checkpoint_embedder_model"

	stateKeyIndexModel      = "index_embedding_model"
	stateKeyIndexBackend    = "index_embedding_backend"
	stateKeyIndexDimensions = "index_embedding_dimension"
	stateKeyIndexCreatedAt  = "index_created_at_ms"
)

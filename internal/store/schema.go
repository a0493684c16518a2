package store

// schemaVersion identifies the current set of tables/columns. Any mismatch
// between this constant and the stored index_meta value triggers a rebuild.
const schemaVersion = 2

const schemaDDL = `
CREATE VIRTUAL TABLE IF NOT EXISTS entries USING fts5(
	file_path UNINDEXED,
	heading,
	content,
	source_type UNINDEXED,
	category UNINDEXED,
	confidence UNINDEXED,
	learned_date UNINDEXED,
	tokenize='porter unicode61'
);

CREATE TABLE IF NOT EXISTS file_meta (
	file_path    TEXT PRIMARY KEY,
	mtime        REAL NOT NULL,
	content_hash TEXT NOT NULL,
	source_type  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS index_meta (
	key   TEXT PRIMARY KEY,
	value TEXT
);

CREATE TABLE IF NOT EXISTS tfidf_vectors (
	file_path  TEXT NOT NULL,
	heading    TEXT NOT NULL,
	vector     BLOB NOT NULL,
	source_type TEXT NOT NULL,
	updated_at REAL NOT NULL,
	PRIMARY KEY (file_path, heading)
);

CREATE TABLE IF NOT EXISTS concordance_results (
	file_path             TEXT NOT NULL,
	heading               TEXT NOT NULL,
	similar_entry_path    TEXT NOT NULL,
	similar_entry_heading TEXT NOT NULL,
	similarity_score      REAL NOT NULL,
	result_type           TEXT NOT NULL,
	computed_at           REAL NOT NULL
);

-- 'col' mode (not 'row') so doc-frequency queries can filter to col='content',
-- excluding file_path/heading from term statistics.
CREATE VIRTUAL TABLE IF NOT EXISTS entries_vocab_row USING fts5vocab('entries', 'col');
CREATE VIRTUAL TABLE IF NOT EXISTS entries_vocab_inst USING fts5vocab('entries', 'instance');
`

// pragmas are applied via statements rather than DSN parameters, since
// modernc.org/sqlite may ignore some pragma DSN query params.
var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA foreign_keys = ON",
}

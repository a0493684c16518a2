package staleness

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

const testSchema = `
CREATE VIRTUAL TABLE entries USING fts5(
	file_path UNINDEXED, heading, content, source_type UNINDEXED,
	category UNINDEXED, confidence UNINDEXED, learned_date UNINDEXED,
	tokenize='porter unicode61'
);
CREATE TABLE tfidf_vectors (
	file_path TEXT NOT NULL, heading TEXT NOT NULL, vector BLOB NOT NULL,
	source_type TEXT NOT NULL, updated_at REAL NOT NULL,
	PRIMARY KEY (file_path, heading)
);
CREATE VIRTUAL TABLE entries_vocab_row USING fts5vocab('entries', 'col');
CREATE VIRTUAL TABLE entries_vocab_inst USING fts5vocab('entries', 'instance');
`

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(testSchema)
	require.NoError(t, err)
	return db
}

func TestScanWithNoConcordanceOrVCSFallsBackToBacklinkAndConfidence(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "principles"), 0o755))
	content := "# Sharding\n<!-- learned: 2026-01-01 | confidence: high -->\nbody referencing [[knowledge:missing]].\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "principles", "a.md"), []byte(content), 0o644))

	db := openTestDB(t)
	opts := DefaultOptions()
	opts.Now = time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)

	report, err := Scan(context.Background(), db, dir, dir, opts)
	require.NoError(t, err)
	require.Equal(t, 1, report.TotalEntries)

	entry := report.Entries[0]
	assert.Equal(t, filepath.Join("principles", "a.md"), entry.File)
	assert.True(t, entry.Signals.BacklinkDrift.Available)
	assert.Equal(t, 1.0, entry.Signals.BacklinkDriftDetail.Score)
	assert.False(t, entry.Signals.FileDrift.Available)
	assert.Equal(t, "2026-01-01", entry.Learned)
	assert.Equal(t, 211, entry.AgeDays)
}

func TestScanEntryWithoutMetadataScoresOnDefaultConfidence(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "principles"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "principles", "a.md"), []byte("# A\nbody\n"), 0o644))

	db := openTestDB(t)
	report, err := Scan(context.Background(), db, dir, dir, DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, 1, report.TotalEntries)
	assert.Equal(t, StatusAging, report.Entries[0].Status)
	assert.Equal(t, 1, report.Aging)
}

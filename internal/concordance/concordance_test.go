package concordance

import (
	"context"
	"database/sql"
	"testing"

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
CREATE TABLE concordance_results (
	file_path TEXT NOT NULL, heading TEXT NOT NULL,
	similar_entry_path TEXT NOT NULL, similar_entry_heading TEXT NOT NULL,
	similarity_score REAL NOT NULL, result_type TEXT NOT NULL, computed_at REAL NOT NULL
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

func insertEntry(t *testing.T, db *sql.DB, path, heading, content, sourceType string) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO entries(file_path, heading, content, source_type, category, confidence, learned_date)
		VALUES (?, ?, ?, ?, '', '', '')`, path, heading, content, sourceType)
	require.NoError(t, err)
}

func TestRebuildAllProducesDistinctVectorsForDistinctContent(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	insertEntry(t, db, "a.md", "A", "sharding reduces database contention across shards", "knowledge")
	insertEntry(t, db, "b.md", "B", "retry policies handle transient network failures", "knowledge")

	require.NoError(t, RebuildAll(ctx, db))

	vecA, ok, err := vectorFor(ctx, db, EntryKey{FilePath: "a.md", Heading: "A"})
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEmpty(t, vecA)

	vecB, ok, err := vectorFor(ctx, db, EntryKey{FilePath: "b.md", Heading: "B"})
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEmpty(t, vecB)

	sim := Cosine(vecA, vecB)
	require.Less(t, sim, 0.5)
}

func TestFindSimilarRanksCloserContentHigher(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	insertEntry(t, db, "a.md", "A", "sharding reduces database contention across database shards", "knowledge")
	insertEntry(t, db, "b.md", "B", "sharding reduces database contention across database shards too", "knowledge")
	insertEntry(t, db, "c.md", "C", "retry policies handle transient network failures gracefully", "knowledge")

	require.NoError(t, RebuildAll(ctx, db))

	results, err := FindSimilar(ctx, db, EntryKey{FilePath: "a.md", Heading: "A"}, 10, "knowledge", nil)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	require.Equal(t, "b.md", results[0].FilePath)
}

func TestQueryVectorComparesAgainstEntryVectors(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	insertEntry(t, db, "a.md", "A", "sharding reduces database contention", "knowledge")
	insertEntry(t, db, "b.md", "B", "retry policies handle network failures", "knowledge")
	require.NoError(t, RebuildAll(ctx, db))

	qVec, err := QueryVector(ctx, db, "database sharding")
	require.NoError(t, err)
	require.NotEmpty(t, qVec)

	vecA, _, err := vectorFor(ctx, db, EntryKey{FilePath: "a.md", Heading: "A"})
	require.NoError(t, err)
	vecB, _, err := vectorFor(ctx, db, EntryKey{FilePath: "b.md", Heading: "B"})
	require.NoError(t, err)

	require.Greater(t, Cosine(qVec, vecA), Cosine(qVec, vecB))
}

func TestFindMergeCandidatesExcludesRelatedFileRows(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	insertEntry(t, db, "a.md", "A", "sharding reduces database contention across shards", "knowledge")
	insertEntry(t, db, "b.md", "B", "sharding reduces database contention across shards too", "knowledge")
	insertEntry(t, db, "src.go", "", "sharding reduces database contention across shards", "source")

	require.NoError(t, RebuildAll(ctx, db))

	_, err := RunFullAnalysis(ctx, db, 3, 0.01, 10)
	require.NoError(t, err)

	var seeAlsoCount, relatedFileCount int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM concordance_results WHERE result_type = ?`, resultTypeSeeAlso).Scan(&seeAlsoCount))
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM concordance_results WHERE result_type = ?`, resultTypeRelatedFile).Scan(&relatedFileCount))
	require.Greater(t, seeAlsoCount, 0)
	require.Greater(t, relatedFileCount, 0, "source entry should have produced a related-file row")

	candidates, err := FindMergeCandidates(ctx, db, 0.01)
	require.NoError(t, err)
	for _, c := range candidates {
		require.NotContains(t, c.TargetPath, "src.go")
		require.NotContains(t, c.SourcePath, "src.go")
	}
	require.NotEmpty(t, candidates, "a.md and b.md should still surface as a merge candidate")
}

package scorer

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

func insertEntry(t *testing.T, db *sql.DB, path, heading, content, sourceType, category, learnedDate string) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO entries(file_path, heading, content, source_type, category, confidence, learned_date)
		VALUES (?, ?, ?, ?, ?, '', ?)`, path, heading, content, sourceType, category, learnedDate)
	require.NoError(t, err)
}

func TestSearchFindsLexicalMatch(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	insertEntry(t, db, "/kb/principles/a.md", "Sharding", "sharding reduces database contention", "knowledge", "principles", "2026-01-01")
	insertEntry(t, db, "/kb/gotchas/b.md", "Retries", "retry policies handle network failures", "knowledge", "gotchas", "2026-01-01")

	results, err := Search(ctx, db, "/kb", "sharding", 10, Filters{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "principles/a.md", results[0].FilePath)
}

func TestSearchExcludesArchivedByDefault(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	insertEntry(t, db, "/kb/_work/_archive/x/plan.md", "Plan", "sharding work item", "work", "", "")

	results, err := Search(ctx, db, "/kb", "sharding", 10, Filters{})
	require.NoError(t, err)
	require.Empty(t, results)

	results, err = Search(ctx, db, "/kb", "sharding", 10, Filters{IncludeArchived: true})
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestSearchSnippetTruncation(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	long := ""
	for i := 0; i < 600; i++ {
		long += "x"
	}
	insertEntry(t, db, "/kb/principles/a.md", "Long", "sharding "+long, "knowledge", "principles", "")

	results, err := Search(ctx, db, "/kb", "sharding", 10, Filters{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.LessOrEqual(t, len(results[0].Snippet), SnippetChars+3)
}

func TestBudgetSearchPartitionsByRemainingBudget(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	insertEntry(t, db, "/kb/principles/a.md", "A", "sharding reduces database contention", "knowledge", "principles", "2026-01-01")
	insertEntry(t, db, "/kb/principles/b.md", "B", "sharding is also discussed here at length", "knowledge", "principles", "2026-01-01")

	result, err := BudgetSearch(ctx, db, "/kb", "sharding", 10, 0, Filters{}, DefaultWeights())
	require.NoError(t, err)
	require.Empty(t, result.Full)
	require.Len(t, result.TitlesOnly, 2)

	result, err = BudgetSearch(ctx, db, "/kb", "sharding", 10, 1_000_000, Filters{}, DefaultWeights())
	require.NoError(t, err)
	require.Len(t, result.Full, 2)
	require.Empty(t, result.TitlesOnly)
}

package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/anticorrelator/lore/internal/store"
)

func writeKnowledgeFixture(t *testing.T, dir string) string {
	t.Helper()
	catDir := filepath.Join(dir, "conventions")
	require.NoError(t, os.MkdirAll(catDir, 0o755))
	path := filepath.Join(catDir, "testing.md")
	content := "# Testing conventions\n\n" +
		"<!-- learned: 2026-01-01 | confidence: high -->\n\n" +
		"Tests live alongside the package they cover.\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIndexAllIndexesAndStats(t *testing.T) {
	dir := t.TempDir()
	writeKnowledgeFixture(t, dir)

	ctx := context.Background()
	s, err := store.Open(ctx, dir)
	require.NoError(t, err)
	defer s.Close()

	result, err := s.IndexAll(ctx, dir, "")
	require.NoError(t, err)
	require.Equal(t, 1, result.FilesIndexed)
	require.Equal(t, 1, result.TotalEntries)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.FileCount)
	require.Equal(t, 1, stats.EntryCount)
	require.Equal(t, 1, stats.TypeCounts["knowledge"])
	require.Equal(t, 1, stats.CategoryCounts["conventions"])
	require.Equal(t, 1, stats.ConfidenceCounts["high"])
	require.NotEmpty(t, stats.LastIndexed)
}

func TestIncrementalIndexSkipsUnchangedFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeKnowledgeFixture(t, dir)

	ctx := context.Background()
	s, err := store.Open(ctx, dir)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.IndexAll(ctx, dir, "")
	require.NoError(t, err)

	result, err := s.IncrementalIndex(ctx, dir, "")
	require.NoError(t, err)
	require.Equal(t, 0, result.FilesReindexed)
	require.Equal(t, 0, result.FilesRemoved)

	// Bump mtime and content so the second incremental pass picks it up.
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("# Testing conventions\n\nUpdated.\n"), 0o644))

	result, err = s.IncrementalIndex(ctx, dir, "")
	require.NoError(t, err)
	require.Equal(t, 1, result.FilesReindexed)
}

func TestIndexAllSplitsV1ThreadFileAtH2(t *testing.T) {
	dir := t.TempDir()
	threadsDir := filepath.Join(dir, "_threads")
	require.NoError(t, os.MkdirAll(threadsDir, 0o755))
	content := "## 2026-01-01\n\nFirst session notes.\n\n## 2026-01-02\n\nSecond session notes.\n"
	require.NoError(t, os.WriteFile(filepath.Join(threadsDir, "project-x.md"), []byte(content), 0o644))

	ctx := context.Background()
	s, err := store.Open(ctx, dir)
	require.NoError(t, err)
	defer s.Close()

	result, err := s.IndexAll(ctx, dir, "")
	require.NoError(t, err)
	require.Equal(t, 1, result.FilesIndexed)
	require.Equal(t, 2, result.TotalEntries)

	var headings []string
	rows, err := s.DB().QueryContext(ctx, "SELECT heading FROM entries ORDER BY heading")
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var h string
		require.NoError(t, rows.Scan(&h))
		headings = append(headings, h)
	}
	require.Equal(t, []string{"2026-01-01", "2026-01-02"}, headings)
}

func TestIndexAllSplitsV2ThreadDirectoryFilePerEntry(t *testing.T) {
	dir := t.TempDir()
	threadDir := filepath.Join(dir, "_threads", "project-x")
	require.NoError(t, os.MkdirAll(threadDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(threadDir, "2026-01-01-s1.md"), []byte("First session notes.\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(threadDir, "2026-01-02-s2.md"), []byte("Second session notes.\n"), 0o644))

	ctx := context.Background()
	s, err := store.Open(ctx, dir)
	require.NoError(t, err)
	defer s.Close()

	result, err := s.IndexAll(ctx, dir, "")
	require.NoError(t, err)
	require.Equal(t, 2, result.FilesIndexed)
	require.Equal(t, 2, result.TotalEntries)

	var headings []string
	rows, err := s.DB().QueryContext(ctx, "SELECT heading FROM entries ORDER BY heading")
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var h string
		require.NoError(t, rows.Scan(&h))
		headings = append(headings, h)
	}
	require.Equal(t, []string{"2026-01-01 (Session 1)", "2026-01-02 (Session 2)"}, headings)
}

func TestIncrementalIndexRemovesDeletedFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeKnowledgeFixture(t, dir)

	ctx := context.Background()
	s, err := store.Open(ctx, dir)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.IndexAll(ctx, dir, "")
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))

	result, err := s.IncrementalIndex(ctx, dir, "")
	require.NoError(t, err)
	require.Equal(t, 1, result.FilesRemoved)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, stats.FileCount)
	require.Equal(t, 0, stats.EntryCount)
}

package concordance

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildMergeCandidatesReportResolvesTitlesFromEncodedHeading(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	insertEntry(t, db, "a.md", "Sharding", "content a", "knowledge")
	insertEntry(t, db, "b.md", "Retries", "content b", "knowledge")

	candidates := []MergeCandidate{
		{TargetPath: "a.md#Sharding", SourcePath: "b.md#Retries", Similarity: 0.8},
	}
	report, err := BuildMergeCandidatesReport(ctx, db, candidates)
	require.NoError(t, err)
	require.Len(t, report, 1)
	require.Equal(t, "Sharding", report[0].TargetTitle)
	require.Equal(t, "Retries", report[0].SourceTitle)
	require.Equal(t, 0.8, report[0].Similarity)
}

func TestBuildMergeCandidatesReportFallsBackToFilePathWhenNoHeading(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	candidates := []MergeCandidate{
		{TargetPath: "missing.md", SourcePath: "also-missing.md", Similarity: 0.6},
	}
	report, err := BuildMergeCandidatesReport(ctx, db, candidates)
	require.NoError(t, err)
	require.Equal(t, "missing.md", report[0].TargetTitle)
	require.Equal(t, "also-missing.md", report[0].SourceTitle)
}

func TestWriteMergeCandidatesReportWritesExpectedShape(t *testing.T) {
	dir := t.TempDir()
	report := []MergeCandidateReport{
		{TargetPath: "a.md", SourcePath: "b.md", Similarity: 0.9, TargetTitle: "A", SourceTitle: "B"},
	}
	require.NoError(t, WriteMergeCandidatesReport(dir, report))

	data, err := os.ReadFile(filepath.Join(dir, "_meta", "merge-candidates.json"))
	require.NoError(t, err)

	var decoded []MergeCandidateReport
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, report, decoded)
}

func TestWriteMergeCandidatesReportWritesEmptyArrayWhenNoneFound(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteMergeCandidatesReport(dir, nil))

	data, err := os.ReadFile(filepath.Join(dir, "_meta", "merge-candidates.json"))
	require.NoError(t, err)
	require.JSONEq(t, "[]", string(data))
}

package staleness

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeFileDriftUnavailableWithoutRelatedFilesOrLearnedDate(t *testing.T) {
	assert.False(t, computeFileDrift("/tmp", "", nil, time.Second).Available)
	assert.False(t, computeFileDrift("/tmp", "2026-01-01", nil, time.Second).Available)
	assert.False(t, computeFileDrift("/tmp", "", []string{"a.go"}, time.Second).Available)
}

func TestComputeFileDriftCountsCommitsSinceLearnedDate(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(), "GIT_AUTHOR_NAME=t", "GIT_AUTHOR_EMAIL=t@t.com", "GIT_COMMITTER_NAME=t", "GIT_COMMITTER_EMAIL=t@t.com")
		require.NoError(t, cmd.Run())
	}
	run("init", "-q")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("package a\n"), 0o644))
	run("add", "a.go")
	run("commit", "-q", "-m", "first")

	learned := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	fd := computeFileDrift(dir, learned, []string{"a.go"}, 5*time.Second)
	require.True(t, fd.Available)
	assert.Equal(t, 1, fd.CommitCount)
	assert.Equal(t, 0.3, fd.Score)
}

func TestComputeFileDriftUnavailableWhenNotAGitRepo(t *testing.T) {
	dir := t.TempDir()
	fd := computeFileDrift(dir, "2026-01-01", []string{"a.go"}, time.Second)
	assert.False(t, fd.Available)
}

func TestComputeBacklinkDriftBinaryScore(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "principles"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "principles", "a.md"), []byte("# A\nbody\n"), 0o644))

	none := computeBacklinkDrift(dir, "no links here")
	assert.False(t, none.Available)

	allOK := computeBacklinkDrift(dir, "see [[knowledge:principles/a]]")
	assert.True(t, allOK.Available)
	assert.Equal(t, 0.0, allOK.Score)

	broken := computeBacklinkDrift(dir, "see [[knowledge:principles/a]] and [[knowledge:missing]]")
	assert.True(t, broken.Available)
	assert.Equal(t, 1.0, broken.Score)
	assert.Equal(t, 1, broken.Broken)
}

func TestConfidenceScore(t *testing.T) {
	assert.Equal(t, 0.0, ConfidenceScore("high"))
	assert.Equal(t, 0.5, ConfidenceScore("medium"))
	assert.Equal(t, 0.5, ConfidenceScore(""))
	assert.Equal(t, 1.0, ConfidenceScore("low"))
}

func TestCheckRelatedFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "exists.go"), []byte("x"), 0o644))

	check := checkRelatedFiles(dir, []string{"exists.go", "missing.go"})
	assert.Equal(t, []string{"exists.go"}, check.Existing)
	assert.Equal(t, []string{"missing.go"}, check.Missing)
	assert.Equal(t, 2, check.Total)
}

func TestAgeDays(t *testing.T) {
	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, -1, AgeDays("", now))
	assert.Equal(t, -1, AgeDays("not-a-date", now))
	assert.Equal(t, 10, AgeDays("2026-07-21", now))
}

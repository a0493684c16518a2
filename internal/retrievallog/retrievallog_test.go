package retrievallog_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/anticorrelator/lore/internal/retrievallog"
)

func TestLogSearchAppendsOneLinePerCall(t *testing.T) {
	dir := t.TempDir()
	logger := retrievallog.New(dir)

	logger.LogSearch("sharding strategy", "knowledge", 3, 12*time.Millisecond, "cli")
	logger.LogSearch("second query", "", 0, 5*time.Millisecond, "")

	path := filepath.Join(dir, "_meta", retrievallog.FileName)
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var first retrievallog.SearchRecord
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.Equal(t, "sharding strategy", first.Query)
	require.Equal(t, "knowledge", first.SourceType)
	require.Equal(t, 3, first.ResultCount)
	require.Equal(t, "cli", first.Caller)
	require.Equal(t, "search", first.Event)
}

func TestLogSearchSwallowsErrorsWhenPathUnwritable(t *testing.T) {
	dir := t.TempDir()
	// A file in place of the _meta directory makes MkdirAll fail.
	blocker := filepath.Join(dir, "_meta")
	require.NoError(t, os.WriteFile(blocker, []byte("not a dir"), 0o644))

	logger := retrievallog.New(dir)
	require.NotPanics(t, func() {
		logger.LogSearch("query", "knowledge", 1, time.Millisecond, "")
	})
}

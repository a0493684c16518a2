package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultLogPathUnderKnowledgeMeta(t *testing.T) {
	dir := "/tmp/knowledge"
	path := DefaultLogPath(dir)
	require.Equal(t, filepath.Join(dir, "_meta", "logs", "lore.log"), path)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/tmp/knowledge")
	require.Equal(t, "info", cfg.Level)
	require.Equal(t, 10, cfg.MaxSizeMB)
	require.Equal(t, 5, cfg.MaxFiles)
	require.False(t, cfg.WriteToStderr)
}

func TestSetupWritesToConfiguredFile(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig(dir)

	logger, cleanup, err := Setup(cfg)
	require.NoError(t, err)
	defer cleanup()

	logger.Info("hello", slog.String("k", "v"))

	data, err := os.ReadFile(cfg.FilePath)
	require.NoError(t, err)
	require.Contains(t, string(data), "hello")
	require.Contains(t, string(data), `"k":"v"`)
}

func TestSetupWithEmptyFilePathLogsToStderr(t *testing.T) {
	logger, cleanup, err := Setup(Config{Level: "debug"})
	require.NoError(t, err)
	defer cleanup()
	require.NotNil(t, logger)
}

func TestSetupDefaultInstallsSlogDefault(t *testing.T) {
	dir := t.TempDir()
	cleanup, err := SetupDefault(dir)
	require.NoError(t, err)
	defer cleanup()

	slog.Info("via default logger")

	data, err := os.ReadFile(DefaultLogPath(dir))
	require.NoError(t, err)
	require.Contains(t, string(data), "via default logger")
}

func TestLevelFromString(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for input, want := range cases {
		require.Equal(t, want, LevelFromString(input), "input %q", input)
	}
}

func TestEnsureLogDirCreatesParent(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "a", "b", "lore.log")
	require.NoError(t, EnsureLogDir(logPath))

	info, err := os.Stat(filepath.Join(dir, "a", "b"))
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestRotatingWriterRotatesOnSizeLimit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.log")

	w, err := NewRotatingWriter(path, 0, 2) // maxSizeMB=0 forces rotation on any write
	require.NoError(t, err)
	defer w.Close()

	_, err = w.Write(bytes.Repeat([]byte("a"), 10))
	require.NoError(t, err)
	_, err = w.Write(bytes.Repeat([]byte("b"), 10))
	require.NoError(t, err)

	require.FileExists(t, path)
	require.FileExists(t, path+".1")
}

func TestRotatingWriterCloseAndSync(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.log")

	w, err := NewRotatingWriter(path, 10, 5)
	require.NoError(t, err)

	_, err = w.Write([]byte("line\n"))
	require.NoError(t, err)
	require.NoError(t, w.Sync())
	require.NoError(t, w.Close())
}

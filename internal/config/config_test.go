package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anticorrelator/lore/internal/config"
)

func TestDefaultMatchesDocumentedDefaults(t *testing.T) {
	cfg := config.Default()

	require.Equal(t, 0.5, cfg.Search.BM25Weight)
	require.Equal(t, 0.3, cfg.Search.RecencyWeight)
	require.Equal(t, 0.2, cfg.Search.TFIDFWeight)
	require.Equal(t, 0.05, cfg.Search.CategoryTiebreak)
	require.Equal(t, 10, cfg.Search.DefaultLimit)
	require.Equal(t, 500, cfg.Search.SnippetChars)

	require.Equal(t, 0.55, cfg.Staleness.FileDriftWeight)
	require.Equal(t, 0.6, cfg.Staleness.StaleThreshold)
	require.Equal(t, 0.3, cfg.Staleness.AgingThreshold)
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, config.Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lore.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search:\n  default_limit: 25\n"), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, 25, cfg.Search.DefaultLimit)
	require.Equal(t, 0.5, cfg.Search.BM25Weight) // untouched fields keep their default
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lore.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search: [not a map"), 0o644))

	_, err := config.Load(path)
	require.Error(t, err)
}

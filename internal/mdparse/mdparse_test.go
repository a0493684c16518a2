package mdparse

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "entry.md")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseEntryFileStripsFrontmatterAndComments(t *testing.T) {
	content := "---\ntitle: ignored\n---\n# Database Sharding\n\n<!-- learned: 2026-01-01 | confidence: high -->\n\nBody text.\n"
	path := writeTemp(t, content)

	entries := ParseEntryFile(path)
	require.Len(t, entries, 1)
	assert.Equal(t, "Database Sharding", entries[0].Heading)
	assert.NotContains(t, entries[0].Content, "<!--")
	assert.NotContains(t, entries[0].Content, "title: ignored")
	assert.Contains(t, entries[0].Content, "Body text.")
}

func TestParseEntryFileIsStableUnderRepeatedParsing(t *testing.T) {
	path := writeTemp(t, "# Title\n\nSome content here.\n")
	first := ParseEntryFile(path)
	second := ParseEntryFile(path)
	assert.Equal(t, first, second)
}

func TestExtractMetadataPreservesFields(t *testing.T) {
	content := "<!-- learned: 2026-02-14 | confidence: medium | source: chat | related_files: a.go,b.go -->"
	meta := ExtractMetadata(content)
	assert.Equal(t, "2026-02-14", meta.Learned)
	assert.EqualValues(t, "medium", meta.Confidence)
	assert.Equal(t, "chat", meta.Source)
	assert.Equal(t, []string{"a.go", "b.go"}, meta.RelatedFiles)
}

func TestExtractMetadataAbsentFieldsAreZeroValued(t *testing.T) {
	meta := ExtractMetadata("no metadata comment here")
	assert.Empty(t, meta.Learned)
	assert.Empty(t, meta.Confidence)
	assert.Nil(t, meta.RelatedFiles)
}

func TestParseFileSplitsOnHeadingLevel(t *testing.T) {
	content := "### First\nfirst body\n### Second\nsecond body\n"
	path := writeTemp(t, content)

	entries := ParseFile(path, "###")
	require.Len(t, entries, 2)
	assert.Equal(t, "First", entries[0].Heading)
	assert.Equal(t, "first body", entries[0].Content)
	assert.Equal(t, "Second", entries[1].Heading)
	assert.Equal(t, "second body", entries[1].Content)
}

func TestParseFileNoHeadingsProducesUngrouped(t *testing.T) {
	path := writeTemp(t, "just some text\nwith no headings\n")
	entries := ParseFile(path, "###")
	require.Len(t, entries, 1)
	assert.Equal(t, "(ungrouped)", entries[0].Heading)
}

func TestParseFileDoesNotSplitOnDeeperHeading(t *testing.T) {
	content := "### Outer\nbody\n#### Inner\nnested body\n"
	path := writeTemp(t, content)
	entries := ParseFile(path, "###")
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Content, "#### Inner")
}

// Package corpus holds the domain types shared by lore's path enumerator,
// markdown parser, indexer, concordance, scorer, resolver, and staleness engine.
package corpus

// SourceType classifies an indexed entry by which part of the corpus it came from.
type SourceType string

const (
	SourceKnowledge SourceType = "knowledge"
	SourceWork      SourceType = "work"
	SourceThread    SourceType = "thread"
	SourceFile      SourceType = "source"
)

// Categories lists the fixed closed set of knowledge category directory names,
// in descending composite-ranking priority order.
var Categories = []string{
	"principles",
	"workflows",
	"conventions",
	"gotchas",
	"abstractions",
	"architecture",
	"domains",
}

// CategoryPriority returns category's rank in Categories (0 = highest priority),
// or -1 if category is not one of the fixed names.
func CategoryPriority(category string) int {
	for i, c := range Categories {
		if c == category {
			return i
		}
	}
	return -1
}

// IsCategory reports whether name is one of the fixed category directory names.
func IsCategory(name string) bool {
	return CategoryPriority(name) >= 0
}

// Confidence is one of high/medium/low, or "" when absent.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Metadata is the set of fields extracted from a knowledge entry's
// `<!-- learned: ... | confidence: ... | source: ... | related_files: ... -->` comment.
type Metadata struct {
	Learned       string // YYYY-MM-DD, or "" if absent/unparseable
	Confidence    Confidence
	Source        string
	RelatedFiles  []string
}

// ParsedEntry is one heading-delimited unit produced by the markdown parser,
// before it is tagged with a source type and file-level metadata by the indexer.
type ParsedEntry struct {
	FilePath string
	Heading  string
	Content  string
}

// Entry is one fully-formed searchable unit, as stored in and returned from the index.
type Entry struct {
	FilePath    string
	Heading     string
	Content     string
	SourceType  SourceType
	Category    string // only meaningful for SourceKnowledge
	Confidence  Confidence
	LearnedDate string // YYYY-MM-DD, or ""
}

// Key returns the (file path, heading) identity tuple for an entry.
func (e Entry) Key() EntryKey {
	return EntryKey{FilePath: e.FilePath, Heading: e.Heading}
}

// EntryKey identifies an entry by (file path, heading).
type EntryKey struct {
	FilePath string
	Heading  string
}

// FileRef is one file discovered by the layout enumerator, tagged with its source type.
type FileRef struct {
	Path       string
	SourceType SourceType
}

package mdparse

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/anticorrelator/lore/internal/corpus"
)

var sessionRE = regexp.MustCompile(`^s(\d+)(-.*)?$`)
var numericSuffixRE = regexp.MustCompile(`^-\d+$`)

// FilenameToHeading reconstructs a v2 thread entry's display heading from its
// filename, per the grammar:
//
//	YYYY-MM-DD.md                      -> "YYYY-MM-DD"
//	YYYY-MM-DD-s<N>.md                 -> "YYYY-MM-DD (Session <N>)"
//	YYYY-MM-DD-s<N>-<qualifier>.md     -> "YYYY-MM-DD (Session <N>, <qualifier>)"
//	YYYY-MM-DD-s<N>-<digits>.md        -> "YYYY-MM-DD (Session <N>)" (disambiguation suffix dropped)
func FilenameToHeading(filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), ".md")
	if len(base) < 10 {
		return base
	}

	date := base[:10]
	rest := base[10:]
	if rest == "" {
		return date
	}
	rest = strings.TrimPrefix(rest, "-")

	m := sessionRE.FindStringSubmatch(rest)
	if m == nil {
		return date
	}

	sessionNum := m[1]
	suffix := m[2]
	if suffix == "" {
		return date + " (Session " + sessionNum + ")"
	}
	if numericSuffixRE.MatchString(suffix) {
		return date + " (Session " + sessionNum + ")"
	}

	qualifier := strings.ReplaceAll(strings.TrimPrefix(suffix, "-"), "-", " ")
	return date + " (Session " + sessionNum + ", " + qualifier + ")"
}

// ParseThreadEntryFile parses a v2 thread file (one file per directory-per-
// thread entry) as a single entry. Unlike ParseEntryFile, the heading always
// comes from the filename via FilenameToHeading rather than an H1 line, since
// v2 thread entries carry no titles of their own. Content is the whole file
// minus frontmatter and HTML comments. Returns nil if the file is unreadable
// or empty.
func ParseThreadEntryFile(path string) []corpus.ParsedEntry {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	text := StripFrontmatter(string(raw))
	text = StripHTMLComments(text)
	content := strings.TrimSpace(text)
	if content == "" {
		return nil
	}

	return []corpus.ParsedEntry{{FilePath: path, Heading: FilenameToHeading(path), Content: content}}
}

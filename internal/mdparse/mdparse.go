// Package mdparse splits knowledge, work, and thread markdown files into
// heading-delimited entries for indexing, per the layout rules of each source type.
package mdparse

import (
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/anticorrelator/lore/internal/corpus"
)

var (
	frontmatterRE = regexp.MustCompile(`(?s)\A---\n.*?\n---\n`)
	htmlCommentRE = regexp.MustCompile(`(?s)<!--.*?-->`)
	h1RE          = regexp.MustCompile(`(?m)^#\s+(.+)$`)

	metadataRE = regexp.MustCompile(`(?s)<!--\s*learned:\s*(?P<learned>\S+)` +
		`\s*\|\s*confidence:\s*(?P<confidence>\S+)` +
		`(?:\s*\|\s*source:\s*(?P<source>[^|]+?))?` +
		`(?:\s*\|\s*related_files:\s*(?P<related>[^-]+?))?` +
		`\s*-->`)

	headingPatternCache = map[string]*regexp.Regexp{}
)

// headingRegexForLevel returns a compiled regex matching a heading at exactly
// the given level (e.g. "##"), not deeper (not "###").
func headingRegexForLevel(level string) *regexp.Regexp {
	if re, ok := headingPatternCache[level]; ok {
		return re
	}
	re := regexp.MustCompile(`(?m)^` + strings.Repeat("#", len(level)) + `(?:[^#]|$)\s*(.+)$`)
	headingPatternCache[level] = re
	return re
}

// StripFrontmatter removes a leading YAML frontmatter block (`---\n...\n---\n`).
func StripFrontmatter(text string) string {
	return frontmatterRE.ReplaceAllString(text, "")
}

// StripHTMLComments removes all `<!-- ... -->` blocks, including metadata comments.
func StripHTMLComments(text string) string {
	return htmlCommentRE.ReplaceAllString(text, "")
}

// ExtractMetadata finds the first learned/confidence HTML comment in text and
// extracts its fields. Fields that are absent or unparseable are left zero-valued.
func ExtractMetadata(text string) corpus.Metadata {
	m := metadataRE.FindStringSubmatch(text)
	if m == nil {
		return corpus.Metadata{}
	}
	names := metadataRE.SubexpNames()
	fields := map[string]string{}
	for i, name := range names {
		if name != "" && i < len(m) {
			fields[name] = strings.TrimSpace(m[i])
		}
	}

	learned := fields["learned"]
	if _, err := time.Parse("2006-01-02", learned); err != nil {
		learned = ""
	}
	confidence := corpus.Confidence(strings.ToLower(fields["confidence"]))
	switch confidence {
	case corpus.ConfidenceHigh, corpus.ConfidenceMedium, corpus.ConfidenceLow:
	default:
		confidence = ""
	}

	meta := corpus.Metadata{
		Learned:    learned,
		Confidence: confidence,
		Source:     fields["source"],
	}
	if rf := fields["related"]; rf != "" {
		for _, f := range strings.Split(rf, ",") {
			f = strings.TrimSpace(f)
			if f != "" {
				meta.RelatedFiles = append(meta.RelatedFiles, f)
			}
		}
	}
	return meta
}

// ParseEntryFile parses a file-per-entry knowledge file as a single entry.
// The H1 heading becomes the entry heading; content is the whole file minus
// frontmatter and HTML comments. Returns nil if the file is unreadable or empty.
func ParseEntryFile(path string) []corpus.ParsedEntry {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	text := string(raw)

	heading := ""
	if m := h1RE.FindStringSubmatch(text); m != nil {
		heading = strings.TrimSpace(m[1])
	}

	text = StripFrontmatter(text)
	text = StripHTMLComments(text)
	content := strings.TrimSpace(text)
	if content == "" {
		return nil
	}

	if heading == "" {
		heading = titleFromFilename(path)
	}

	return []corpus.ParsedEntry{{FilePath: path, Heading: heading, Content: content}}
}

// ParseFile splits a markdown file into heading-delimited entries at the given
// heading level (e.g. "##" for v1 threads, "###" for work items). Frontmatter
// and HTML comments are stripped before splitting. A file with no headings at
// that level produces a single "(ungrouped)" entry.
func ParseFile(path string, headingLevel string) []corpus.ParsedEntry {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	text := StripFrontmatter(string(raw))
	text = StripHTMLComments(text)

	re := headingRegexForLevel(headingLevel)
	matches := re.FindAllStringSubmatchIndex(text, -1)

	if len(matches) == 0 {
		content := strings.TrimSpace(text)
		if content == "" {
			return nil
		}
		return []corpus.ParsedEntry{{FilePath: path, Heading: "(ungrouped)", Content: content}}
	}

	var entries []corpus.ParsedEntry
	for i, m := range matches {
		heading := strings.TrimSpace(text[m[2]:m[3]])
		start := m[1]
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		content := strings.TrimSpace(text[start:end])
		entries = append(entries, corpus.ParsedEntry{FilePath: path, Heading: heading, Content: content})
	}
	return entries
}

func titleFromFilename(path string) string {
	base := path
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	base = strings.TrimSuffix(base, ".md")
	words := strings.Split(strings.ReplaceAll(base, "-", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

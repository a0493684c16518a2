// Package linkcheck scans the corpus for `[[...]]` references and classifies
// each as valid, archived, or broken, via internal/resolver.
package linkcheck

import (
	"os"
	"regexp"
	"strings"

	"github.com/anticorrelator/lore/internal/corpus"
	"github.com/anticorrelator/lore/internal/layout"
	"github.com/anticorrelator/lore/internal/resolver"
)

var (
	fencedCodeRE = regexp.MustCompile("(?s)```.*?```")
	inlineCodeRE = regexp.MustCompile("`[^`\n]+`")
)

// placeholders are example/template targets skipped rather than checked.
var placeholders = map[string]bool{
	"file": true, "slug": true, "...": true, "name": true,
}

// BrokenRef is one reference that failed to resolve.
type BrokenRef struct {
	SourceFile string
	Reference  string
	Error      string
}

// ArchivedRef is one reference that resolved but pointed at archived content.
type ArchivedRef struct {
	SourceFile string
	Reference  string
}

// Report is the aggregate result of a corpus-wide link check.
type Report struct {
	TotalChecked int
	Broken       []BrokenRef
	Archived     []ArchivedRef
	Valid        int
}

// Options controls which files are scanned.
type Options struct {
	IncludeArchived bool
	IncludeThreads  bool
}

// CheckAll enumerates every indexable file under knowledgeDir (and repoRoot,
// if set), strips fenced/inline code spans, extracts `[[...]]` references
// (skipping placeholder targets), and resolves each via internal/resolver.
func CheckAll(knowledgeDir, repoRoot string, opts Options) (*Report, error) {
	refs, err := layout.Enumerate(knowledgeDir, repoRoot)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	for _, ref := range refs {
		if ref.SourceType == corpus.SourceThread && !opts.IncludeThreads {
			continue
		}
		if !opts.IncludeArchived && strings.Contains(ref.Path, "_archive/") {
			continue
		}

		text, err := readFile(ref.Path)
		if err != nil {
			continue
		}

		for _, literal := range findReferences(text) {
			parsed, err := resolver.ParseReference(literal)
			if err != nil {
				continue
			}
			if placeholders[strings.ToLower(parsed.Target)] {
				continue
			}

			report.TotalChecked++
			res := resolver.Resolve(knowledgeDir, literal)
			switch {
			case !res.Resolved:
				report.Broken = append(report.Broken, BrokenRef{SourceFile: ref.Path, Reference: literal, Error: res.Error})
			case res.Archived:
				report.Archived = append(report.Archived, ArchivedRef{SourceFile: ref.Path, Reference: literal})
			default:
				report.Valid++
			}
		}
	}

	return report, nil
}

// findReferences strips fenced code blocks and inline code spans before
// extracting `[[...]]` references, so example backlinks in documentation
// don't register as real ones.
func findReferences(text string) []string {
	stripped := fencedCodeRE.ReplaceAllString(text, "")
	stripped = inlineCodeRE.ReplaceAllString(stripped, "")
	return resolver.FindReferences(stripped)
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

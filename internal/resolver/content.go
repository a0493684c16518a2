package resolver

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/anticorrelator/lore/internal/errs"
	"github.com/anticorrelator/lore/internal/mdparse"
)

// Resolved is the fully resolved content for a reference.
type Resolved struct {
	Resolved bool
	Content  string
	Archived bool
	Error    string
}

var h1RE = regexp.MustCompile(`(?m)^#\s+(.+)$`)

// sectionEndRE matches a heading above "###" (an H1 or H2), which also ends
// a "###" section.
var sectionEndRE = regexp.MustCompile(`(?m)^#{1,2}\s`)

// Resolve parses and resolves a single reference literal to its content.
func Resolve(knowledgeDir, raw string) Resolved {
	ref, err := ParseReference(raw)
	if err != nil {
		return Resolved{Resolved: false, Error: err.Error()}
	}

	path, err := ResolvePath(knowledgeDir, ref)
	if err != nil {
		return Resolved{Resolved: false, Error: err.Error()}
	}

	content, err := resolveContent(knowledgeDir, path, ref)
	if err != nil {
		return Resolved{Resolved: false, Archived: path.Archived, Error: err.Error()}
	}
	return Resolved{Resolved: true, Content: content, Archived: path.Archived}
}

func resolveContent(knowledgeDir string, path ResolvedPath, ref Reference) (string, error) {
	switch ref.Type {
	case TypeKnowledge:
		return resolveKnowledgeContent(knowledgeDir, path, ref)
	case TypeWork:
		return resolveWorkContent(path, ref)
	case TypeThread:
		return resolveThreadContent(path, ref)
	default:
		return "", errs.New(errs.ErrCodeInvalidReference, "unknown reference type", nil)
	}
}

func resolveKnowledgeContent(knowledgeDir string, path ResolvedPath, ref Reference) (string, error) {
	if path.IsCategory {
		return listCategoryTitles(filepath.Join(knowledgeDir, path.Category))
	}

	if len(path.Files) == 0 {
		return "", errs.New(errs.ErrCodeUnresolvedReference, "no file resolved", nil)
	}
	file := path.Files[0]

	if ref.Heading == "" {
		return readFile(file)
	}
	return extractHeadingSection(file, ref.Heading)
}

// listCategoryTitles returns one bullet per file in dir, using each file's H1.
func listCategoryTitles(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", errs.Wrap(errs.ErrCodeFileUnreadable, err)
	}

	var bullets []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") || strings.HasPrefix(e.Name(), "_") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		title := strings.TrimSuffix(e.Name(), ".md")
		if m := h1RE.FindStringSubmatch(string(raw)); m != nil {
			title = strings.TrimSpace(m[1])
		}
		bullets = append(bullets, "- "+title)
	}
	return strings.Join(bullets, "\n"), nil
}

func readFile(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", errs.Wrap(errs.ErrCodeFileUnreadable, err)
	}
	return string(raw), nil
}

// extractHeadingSection extracts the section under the "###" heading whose
// title matches heading, from the heading line through the next heading at
// the same or higher level, or EOF.
func extractHeadingSection(path, heading string) (string, error) {
	entries := mdparse.ParseFile(path, "###")
	for _, e := range entries {
		if strings.EqualFold(strings.TrimSpace(e.Heading), strings.TrimSpace(heading)) {
			content := e.Content
			if loc := sectionEndRE.FindStringIndex(content); loc != nil {
				content = strings.TrimSpace(content[:loc[0]])
			}
			return "### " + e.Heading + "\n" + content, nil
		}
	}

	// Legacy single-entry files keep their title as the H1, not a "###" heading.
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", errs.Wrap(errs.ErrCodeFileUnreadable, err)
	}
	if m := h1RE.FindStringSubmatch(string(raw)); m != nil && strings.EqualFold(strings.TrimSpace(m[1]), strings.TrimSpace(heading)) {
		return mdparse.StripHTMLComments(mdparse.StripFrontmatter(string(raw))), nil
	}

	return "", errs.New(errs.ErrCodeUnresolvedReference, "heading not found: "+heading, nil)
}

func resolveWorkContent(path ResolvedPath, ref Reference) (string, error) {
	if ref.Heading == "" {
		var sb strings.Builder
		for i, f := range path.Files {
			content, err := readFile(f)
			if err != nil {
				return "", err
			}
			if i > 0 {
				sb.WriteString("\n\n")
			}
			sb.WriteString(content)
		}
		return sb.String(), nil
	}

	for _, f := range path.Files {
		for _, e := range mdparse.ParseFile(f, "###") {
			if strings.EqualFold(strings.TrimSpace(e.Heading), strings.TrimSpace(ref.Heading)) {
				return e.Content, nil
			}
		}
	}
	return "", errs.New(errs.ErrCodeUnresolvedReference, "heading not found: "+ref.Heading, nil)
}

func resolveThreadContent(path ResolvedPath, ref Reference) (string, error) {
	isV2 := len(path.Files) > 1 || (len(path.Files) == 1 && !strings.HasSuffix(filepath.Dir(path.Files[0]), "_threads"))

	if ref.Heading == "" {
		if isV2 {
			var sb strings.Builder
			for i, f := range path.Files {
				content, err := readFile(f)
				if err != nil {
					return "", err
				}
				heading := mdparse.FilenameToHeading(f)
				if i > 0 {
					sb.WriteString("\n\n")
				}
				sb.WriteString("## " + heading + "\n\n" + content)
			}
			return sb.String(), nil
		}
		return readFile(path.Files[0])
	}

	if isV2 {
		for _, f := range path.Files {
			stem := strings.TrimSuffix(filepath.Base(f), ".md")
			heading := mdparse.FilenameToHeading(f)
			if stem == ref.Heading || strings.EqualFold(heading, ref.Heading) {
				return readFile(f)
			}
		}
		return "", errs.New(errs.ErrCodeUnresolvedReference, "thread entry not found: "+ref.Heading, nil)
	}

	for _, e := range mdparse.ParseFile(path.Files[0], "##") {
		if strings.EqualFold(strings.TrimSpace(e.Heading), strings.TrimSpace(ref.Heading)) {
			return e.Content, nil
		}
	}
	return "", errs.New(errs.ErrCodeUnresolvedReference, "thread heading not found: "+ref.Heading, nil)
}

package resolver

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/anticorrelator/lore/internal/corpus"
	"github.com/anticorrelator/lore/internal/errs"
)

// ResolvedPath is the on-disk result of resolving a Reference's target.
type ResolvedPath struct {
	Type        ReferenceType
	Category    string   // set when Target names (or lives under) a knowledge category
	IsCategory  bool     // true when the reference targets a bare category (listing)
	Files       []string // candidate file(s), existing, in preference order
	Archived    bool
}

// ResolvePath resolves a Reference's target to one or more on-disk paths.
// Unknown target / missing file returns ErrCodeUnresolvedReference.
func ResolvePath(knowledgeDir string, ref Reference) (ResolvedPath, error) {
	switch ref.Type {
	case TypeKnowledge:
		return resolveKnowledge(knowledgeDir, ref.Target)
	case TypeWork:
		return resolveWork(knowledgeDir, ref.Target)
	case TypeThread:
		return resolveThread(knowledgeDir, ref.Target)
	default:
		return ResolvedPath{}, errs.New(errs.ErrCodeInvalidReference, "unknown reference type", nil)
	}
}

func resolveKnowledge(knowledgeDir, target string) (ResolvedPath, error) {
	if corpus.IsCategory(target) {
		dir := filepath.Join(knowledgeDir, target)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return ResolvedPath{Type: TypeKnowledge, Category: target, IsCategory: true}, nil
		}
		return ResolvedPath{}, errs.New(errs.ErrCodeUnresolvedReference, "category directory missing: "+target, nil)
	}

	if cat, slug, ok := strings.Cut(target, "/"); ok {
		p := filepath.Join(knowledgeDir, cat, slug+".md")
		if fileExists(p) {
			return ResolvedPath{Type: TypeKnowledge, Category: cat, Files: []string{p}}, nil
		}
		return ResolvedPath{}, errs.New(errs.ErrCodeUnresolvedReference, "knowledge entry not found: "+target, nil)
	}

	for _, cat := range corpus.Categories {
		p := filepath.Join(knowledgeDir, cat, target+".md")
		if fileExists(p) {
			return ResolvedPath{Type: TypeKnowledge, Category: cat, Files: []string{p}}, nil
		}
	}

	if p := filepath.Join(knowledgeDir, target+".md"); fileExists(p) {
		return ResolvedPath{Type: TypeKnowledge, Files: []string{p}}, nil
	}
	if p := filepath.Join(knowledgeDir, "domains", target+".md"); fileExists(p) {
		return ResolvedPath{Type: TypeKnowledge, Category: "domains", Files: []string{p}}, nil
	}

	return ResolvedPath{}, errs.New(errs.ErrCodeUnresolvedReference, "knowledge entry not found: "+target, nil)
}

func resolveWork(knowledgeDir, slug string) (ResolvedPath, error) {
	active := filepath.Join(knowledgeDir, "_work", slug)
	if files := existingWorkFiles(active); len(files) > 0 {
		return ResolvedPath{Type: TypeWork, Files: files}, nil
	}

	archived := filepath.Join(knowledgeDir, "_work", "_archive", slug)
	if files := existingWorkFiles(archived); len(files) > 0 {
		return ResolvedPath{Type: TypeWork, Files: files, Archived: true}, nil
	}

	return ResolvedPath{}, errs.New(errs.ErrCodeUnresolvedReference, "work item not found: "+slug, nil)
}

func existingWorkFiles(dir string) []string {
	var files []string
	for _, name := range []string{"plan.md", "notes.md"} {
		p := filepath.Join(dir, name)
		if fileExists(p) {
			files = append(files, p)
		}
	}
	return files
}

func resolveThread(knowledgeDir, slug string) (ResolvedPath, error) {
	v2 := filepath.Join(knowledgeDir, "_threads", slug)
	if info, err := os.Stat(v2); err == nil && info.IsDir() {
		entries, err := os.ReadDir(v2)
		if err != nil {
			return ResolvedPath{}, errs.Wrap(errs.ErrCodeFileUnreadable, err)
		}
		var files []string
		for _, e := range entries {
			if !e.IsDir() && strings.HasSuffix(e.Name(), ".md") {
				files = append(files, filepath.Join(v2, e.Name()))
			}
		}
		sortDescending(files)
		return ResolvedPath{Type: TypeThread, Files: files}, nil
	}

	v1 := filepath.Join(knowledgeDir, "_threads", slug+".md")
	if fileExists(v1) {
		return ResolvedPath{Type: TypeThread, Files: []string{v1}}, nil
	}

	return ResolvedPath{}, errs.New(errs.ErrCodeUnresolvedReference, "thread not found: "+slug, nil)
}

func sortDescending(files []string) {
	sort.Sort(sort.Reverse(sort.StringSlice(files)))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

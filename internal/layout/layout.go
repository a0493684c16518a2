// Package layout enumerates the files that make up a knowledge corpus and
// classifies each by source type, per the corpus layout described in the
// knowledge directory's on-disk structure.
package layout

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/anticorrelator/lore/internal/corpus"
	"github.com/anticorrelator/lore/internal/gitignore"
)

// skipDirs are directory names pruned during recursive walks of category directories.
var skipDirs = map[string]bool{
	"_archive":    true,
	"_meta":       true,
	"_meta_bak":   true,
	"_inbox":      true,
	"__pycache__": true,
	".git":        true,
}

// vcsDirs are additionally pruned when walking a repo root for source files.
var vcsDirs = map[string]bool{
	".git": true, ".hg": true, ".svn": true,
}

// Enumerate walks knowledgeDir's category directories, `_work/`, and `_threads/`,
// and — when repoRoot is non-empty — the repo root (excluding knowledgeDir
// itself and VCS directories), returning every indexable file tagged by source type.
func Enumerate(knowledgeDir, repoRoot string) ([]corpus.FileRef, error) {
	var refs []corpus.FileRef

	for _, cat := range corpus.Categories {
		catDir := filepath.Join(knowledgeDir, cat)
		found, err := walkCategory(catDir)
		if err != nil {
			return nil, err
		}
		refs = append(refs, found...)
	}

	workRefs, err := walkWork(knowledgeDir)
	if err != nil {
		return nil, err
	}
	refs = append(refs, workRefs...)

	threadRefs, err := walkThreads(knowledgeDir)
	if err != nil {
		return nil, err
	}
	refs = append(refs, threadRefs...)

	if repoRoot != "" {
		sourceRefs, err := walkSource(repoRoot, knowledgeDir)
		if err != nil {
			return nil, err
		}
		refs = append(refs, sourceRefs...)
	}

	return refs, nil
}

func walkCategory(dir string) ([]corpus.FileRef, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, nil
	}

	var refs []corpus.FileRef
	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // unreadable subtree is skipped, not fatal
		}
		if d.IsDir() {
			if path != dir && (skipDirs[d.Name()] || strings.HasPrefix(d.Name(), "_")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		if strings.HasPrefix(d.Name(), "_") {
			return nil
		}
		refs = append(refs, corpus.FileRef{Path: path, SourceType: corpus.SourceKnowledge})
		return nil
	})
	return refs, err
}

func walkWork(knowledgeDir string) ([]corpus.FileRef, error) {
	var refs []corpus.FileRef

	active := filepath.Join(knowledgeDir, "_work")
	refs = append(refs, workItemFiles(active, false)...)

	archiveRoot := filepath.Join(active, "_archive")
	entries, err := os.ReadDir(archiveRoot)
	if err != nil {
		return refs, nil //nolint:nilerr // no archive directory is normal
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		refs = append(refs, workItemFiles(filepath.Join(archiveRoot, e.Name()), true)...)
	}
	return refs, nil
}

func workItemFiles(root string, archived bool) []corpus.FileRef {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil
	}
	var refs []corpus.FileRef
	for _, e := range entries {
		if !e.IsDir() || e.Name() == "_archive" {
			continue
		}
		slugDir := filepath.Join(root, e.Name())
		for _, fname := range []string{"plan.md", "notes.md"} {
			p := filepath.Join(slugDir, fname)
			if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
				refs = append(refs, corpus.FileRef{Path: p, SourceType: corpus.SourceWork})
			}
		}
	}
	return refs
}

func walkThreads(knowledgeDir string) ([]corpus.FileRef, error) {
	root := filepath.Join(knowledgeDir, "_threads")
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, nil //nolint:nilerr // no threads directory is normal
	}

	var refs []corpus.FileRef
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "_") {
			continue
		}
		if e.IsDir() {
			subEntries, err := os.ReadDir(filepath.Join(root, e.Name()))
			if err != nil {
				continue
			}
			for _, se := range subEntries {
				if se.IsDir() || !strings.HasSuffix(se.Name(), ".md") {
					continue
				}
				refs = append(refs, corpus.FileRef{
					Path:       filepath.Join(root, e.Name(), se.Name()),
					SourceType: corpus.SourceThread,
				})
			}
			continue
		}
		if strings.HasSuffix(e.Name(), ".md") {
			refs = append(refs, corpus.FileRef{Path: filepath.Join(root, e.Name()), SourceType: corpus.SourceThread})
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Path < refs[j].Path })
	return refs, nil
}

// walkSource walks repoRoot for source files, honoring nested .gitignore files
// via an LRU-cached matcher per directory, and excluding knowledgeDir and VCS directories.
func walkSource(repoRoot, knowledgeDir string) ([]corpus.FileRef, error) {
	absKnowledge, err := filepath.Abs(knowledgeDir)
	if err != nil {
		absKnowledge = knowledgeDir
	}

	cache, err := lru.New[string, *gitignore.Matcher](256)
	if err != nil {
		return nil, err
	}

	var refs []corpus.FileRef
	err = filepath.WalkDir(repoRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // unreadable subtree is skipped, not fatal
		}
		absPath, _ := filepath.Abs(path)
		if d.IsDir() {
			if path != repoRoot {
				if vcsDirs[d.Name()] || absPath == absKnowledge {
					return filepath.SkipDir
				}
				if matcherFor(repoRoot, filepath.Dir(path), cache).Match(relOrSelf(repoRoot, path), true) {
					return filepath.SkipDir
				}
			}
			return nil
		}

		rel := relOrSelf(repoRoot, path)
		if matcherFor(repoRoot, filepath.Dir(path), cache).Match(rel, false) {
			return nil
		}
		refs = append(refs, corpus.FileRef{Path: path, SourceType: corpus.SourceFile})
		return nil
	})
	return refs, err
}

func relOrSelf(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

// matcherFor returns the LRU-cached gitignore matcher covering dir, built from
// every .gitignore file from repoRoot down to dir.
func matcherFor(repoRoot, dir string, cache *lru.Cache[string, *gitignore.Matcher]) *gitignore.Matcher {
	if m, ok := cache.Get(dir); ok {
		return m
	}

	m := gitignore.New()
	rel, err := filepath.Rel(repoRoot, dir)
	if err != nil {
		rel = ""
	}
	if rel == "." {
		rel = ""
	}

	var parts []string
	if rel != "" {
		parts = strings.Split(filepath.ToSlash(rel), "/")
	}

	cur := repoRoot
	base := ""
	_ = m.AddFromFile(filepath.Join(cur, ".gitignore"), base)
	for _, p := range parts {
		cur = filepath.Join(cur, p)
		if base == "" {
			base = p
		} else {
			base = base + "/" + p
		}
		_ = m.AddFromFile(filepath.Join(cur, ".gitignore"), base)
	}

	cache.Add(dir, m)
	return m
}

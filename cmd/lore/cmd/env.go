package cmd

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/anticorrelator/lore/internal/config"
)

// resolveKnowledgeDir implements the CLI boundary's directory resolution
// order: an explicit --knowledge-dir flag, then LORE_KNOWLEDGE_DIR (a direct
// override), then LORE_DATA_DIR (a root under which each repo gets its own
// subdirectory), then a `.lore/knowledge` directory under the detected repo
// root. The core packages never read these environment variables themselves;
// this function exists so only the CLI boundary does.
func resolveKnowledgeDir(flagValue, repoRootFlag string) (knowledgeDir, repoRoot string, err error) {
	repoRoot = repoRootFlag
	if repoRoot == "" {
		root, ferr := config.FindProjectRoot(".")
		if ferr != nil {
			root, ferr = os.Getwd()
			if ferr != nil {
				return "", "", ferr
			}
		}
		repoRoot = root
	}

	switch {
	case flagValue != "":
		knowledgeDir = flagValue
	case os.Getenv("LORE_KNOWLEDGE_DIR") != "":
		knowledgeDir = os.Getenv("LORE_KNOWLEDGE_DIR")
	case os.Getenv("LORE_DATA_DIR") != "":
		knowledgeDir = filepath.Join(os.Getenv("LORE_DATA_DIR"), perRepoSlug(repoRoot))
	default:
		knowledgeDir = filepath.Join(repoRoot, ".lore", "knowledge")
	}

	if abs, aerr := filepath.Abs(knowledgeDir); aerr == nil {
		knowledgeDir = abs
	}
	return knowledgeDir, repoRoot, nil
}

// perRepoSlug names a LORE_DATA_DIR-rooted per-repo subdirectory from the
// repo root's base name plus a short hash of its absolute path, so two
// differently-located repos sharing a base name don't collide.
func perRepoSlug(repoRoot string) string {
	sum := sha256.Sum256([]byte(repoRoot))
	return filepath.Base(repoRoot) + "-" + hex.EncodeToString(sum[:])[:8]
}

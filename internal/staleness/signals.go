// Package staleness computes a weighted, partial-signal drift score for
// every knowledge entry, combining VCS commit activity, broken-backlink
// detection, neighbor freshness, and vocabulary drift.
package staleness

import (
	"context"
	"database/sql"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/anticorrelator/lore/internal/concordance"
	"github.com/anticorrelator/lore/internal/resolver"
)

// FileDrift is the result of compute_file_drift: commit activity on an
// entry's related files since its learned date.
type FileDrift struct {
	Available   bool
	CommitCount int
	Score       float64
}

// computeFileDrift shells out to `git log` with a 30-second timeout, never
// a library-based git read, so the timeout semantics are exact.
func computeFileDrift(repoRoot, learnedDate string, relatedFiles []string, timeout time.Duration) FileDrift {
	if len(relatedFiles) == 0 || learnedDate == "" {
		return FileDrift{}
	}
	if _, err := time.Parse("2006-01-02", learnedDate); err != nil {
		return FileDrift{}
	}
	if fi, err := os.Stat(filepath.Join(repoRoot, ".git")); err != nil || !fi.IsDir() {
		return FileDrift{}
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	args := append([]string{"log", "--oneline", "--after=" + learnedDate, "--"}, relatedFiles...)
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = repoRoot
	out, err := cmd.Output()
	if err != nil {
		return FileDrift{}
	}

	count := 0
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if line != "" {
			count++
		}
	}

	var score float64
	switch {
	case count == 0:
		score = 0.0
	case count <= 3:
		score = 0.3
	case count <= 9:
		score = 0.6
	default:
		score = 1.0
	}
	return FileDrift{Available: true, CommitCount: count, Score: score}
}

// BacklinkDrift is the result of compute_backlink_drift: whether an entry's
// outgoing [[...]] references still resolve.
type BacklinkDrift struct {
	Available   bool
	Total       int
	Broken      int
	BrokenLinks []string
	Score       float64
}

func computeBacklinkDrift(knowledgeDir, text string) BacklinkDrift {
	refs := resolver.FindReferences(text)
	if len(refs) == 0 {
		return BacklinkDrift{}
	}

	var broken []string
	for _, ref := range refs {
		if res := resolver.Resolve(knowledgeDir, ref); !res.Resolved {
			broken = append(broken, ref)
		}
	}

	score := 0.0
	if len(broken) > 0 {
		score = 1.0
	}
	return BacklinkDrift{Available: true, Total: len(refs), Broken: len(broken), BrokenLinks: broken, Score: score}
}

// NeighborDrift is the result of compute_neighbor_drift: the fraction of an
// entry's top knowledge neighbors with a newer learned_date.
type NeighborDrift struct {
	Available        bool
	NeighborsChecked int
	NeighborsUpdated int
	Score            float64
}

const neighborLimit = 5

func computeNeighborDrift(ctx context.Context, db *sql.DB, key concordance.EntryKey, learnedDate string, neighborMeta func(filePath string) string) (NeighborDrift, error) {
	if learnedDate == "" {
		return NeighborDrift{}, nil
	}
	entryDT, err := time.Parse("2006-01-02", learnedDate)
	if err != nil {
		return NeighborDrift{}, nil
	}

	neighbors, err := concordance.FindSimilar(ctx, db, key, neighborLimit, "knowledge", nil)
	if err != nil {
		return NeighborDrift{}, err
	}
	if len(neighbors) == 0 {
		return NeighborDrift{}, nil
	}

	checked, updated := 0, 0
	for _, n := range neighbors {
		neighborLearned := neighborMeta(n.FilePath)
		if neighborLearned == "" {
			continue
		}
		neighborDT, err := time.Parse("2006-01-02", neighborLearned)
		if err != nil {
			continue
		}
		checked++
		if neighborDT.After(entryDT) {
			updated++
		}
	}
	if checked == 0 {
		return NeighborDrift{}, nil
	}

	return NeighborDrift{
		Available:        true,
		NeighborsChecked: checked,
		NeighborsUpdated: updated,
		Score:            float64(updated) / float64(checked),
	}, nil
}

// VocabularyDrift wraps concordance.ComputeVocabularyDrift for use as a signal.
type VocabularyDrift struct {
	Available   bool
	TopKTerms   int
	AbsentCount int
	Score       float64
}

const vocabularyTopK = 10

func computeVocabularyDrift(ctx context.Context, db *sql.DB, key concordance.EntryKey) (VocabularyDrift, error) {
	drift, err := concordance.ComputeVocabularyDrift(ctx, db, key, vocabularyTopK)
	if err != nil {
		return VocabularyDrift{}, err
	}
	if !drift.Available {
		return VocabularyDrift{}, nil
	}
	return VocabularyDrift{
		Available:   true,
		TopKTerms:   drift.TopKTerms,
		AbsentCount: drift.AbsentCount,
		Score:       drift.Score,
	}, nil
}

// ConfidenceScore maps a confidence level to its fallback drift score.
func ConfidenceScore(confidence string) float64 {
	switch confidence {
	case "high":
		return 0.0
	case "low":
		return 1.0
	default:
		return 0.5
	}
}

// RelatedFilesCheck reports which of an entry's related files exist under repoRoot.
type RelatedFilesCheck struct {
	Existing []string
	Missing  []string
	Total    int
}

func checkRelatedFiles(repoRoot string, relatedFiles []string) RelatedFilesCheck {
	check := RelatedFilesCheck{Total: len(relatedFiles)}
	for _, rf := range relatedFiles {
		if _, err := os.Stat(filepath.Join(repoRoot, rf)); err == nil {
			check.Existing = append(check.Existing, rf)
		} else {
			check.Missing = append(check.Missing, rf)
		}
	}
	return check
}

// AgeDays returns the whole-day age of a YYYY-MM-DD learned date, or -1 if
// learnedDate is empty or unparseable.
func AgeDays(learnedDate string, now time.Time) int {
	if learnedDate == "" {
		return -1
	}
	dt, err := time.Parse("2006-01-02", learnedDate)
	if err != nil {
		return -1
	}
	return int(now.Sub(dt).Hours() / 24)
}

package staleness

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/anticorrelator/lore/internal/concordance"
	"github.com/anticorrelator/lore/internal/corpus"
	"github.com/anticorrelator/lore/internal/layout"
	"github.com/anticorrelator/lore/internal/mdparse"
)

// Entry is one scored knowledge file.
type Entry struct {
	File         string
	Status       Status
	DriftScore   float64
	Signals      Signals
	Learned      string
	Confidence   string
	AgeDays      int
	RelatedFiles *RelatedFilesCheck
}

// Report is the full result of a corpus-wide staleness scan.
type Report struct {
	ScanTime     time.Time
	KnowledgeDir string
	RepoRoot     string
	TotalEntries int
	Fresh        int
	Aging        int
	Stale        int
	Entries      []Entry
}

// Options parameterizes a Scan.
type Options struct {
	Weights    Weights
	Thresholds Thresholds
	VCSTimeout time.Duration
	Now        time.Time
}

// DefaultOptions returns the corpus's own default weights, thresholds, and a
// 30-second VCS timeout.
func DefaultOptions() Options {
	return Options{
		Weights:    DefaultWeights(),
		Thresholds: DefaultThresholds(),
		VCSTimeout: 30 * time.Second,
		Now:        time.Now().UTC(),
	}
}

// Scan computes a staleness score for every knowledge-category entry file
// under knowledgeDir, reading VCS activity under repoRoot and the TF-IDF
// concordance from db. No signal failure aborts the scan; a failing signal
// is simply recorded unavailable.
func Scan(ctx context.Context, db *sql.DB, knowledgeDir, repoRoot string, opts Options) (*Report, error) {
	refs, err := layout.Enumerate(knowledgeDir, "")
	if err != nil {
		return nil, err
	}

	report := &Report{
		ScanTime:     opts.Now,
		KnowledgeDir: knowledgeDir,
		RepoRoot:     repoRoot,
	}

	metaCache := map[string]string{}
	neighborMeta := func(filePath string) string {
		if v, ok := metaCache[filePath]; ok {
			return v
		}
		raw, err := os.ReadFile(filePath)
		if err != nil {
			metaCache[filePath] = ""
			return ""
		}
		learned := mdparse.ExtractMetadata(string(raw)).Learned
		metaCache[filePath] = learned
		return learned
	}

	for _, ref := range refs {
		if ref.SourceType != corpus.SourceKnowledge {
			continue
		}

		raw, err := os.ReadFile(ref.Path)
		if err != nil {
			continue
		}
		text := string(raw)
		meta := mdparse.ExtractMetadata(text)

		fd := computeFileDrift(repoRoot, meta.Learned, meta.RelatedFiles, opts.VCSTimeout)
		bd := computeBacklinkDrift(knowledgeDir, text)

		heading := entryHeading(ref.Path)
		key := concordance.EntryKey{FilePath: ref.Path, Heading: heading}

		nd, err := computeNeighborDrift(ctx, db, key, meta.Learned, neighborMeta)
		if err != nil {
			nd = NeighborDrift{}
		}
		vd, err := computeVocabularyDrift(ctx, db, key)
		if err != nil {
			vd = VocabularyDrift{}
		}

		drift, status, signals := ScoreEntry(fd, bd, nd, vd, string(meta.Confidence), opts.Weights, opts.Thresholds)

		rel, err := filepath.Rel(knowledgeDir, ref.Path)
		if err != nil {
			rel = ref.Path
		}

		entry := Entry{
			File:       rel,
			Status:     status,
			DriftScore: drift,
			Signals:    signals,
			Learned:    meta.Learned,
			Confidence: string(meta.Confidence),
			AgeDays:    AgeDays(meta.Learned, opts.Now),
		}
		if len(meta.RelatedFiles) > 0 {
			check := checkRelatedFiles(repoRoot, meta.RelatedFiles)
			entry.RelatedFiles = &check
		}

		report.Entries = append(report.Entries, entry)
		switch status {
		case StatusStale:
			report.Stale++
		case StatusAging:
			report.Aging++
		default:
			report.Fresh++
		}
	}

	report.TotalEntries = len(report.Entries)
	return report, nil
}

// entryHeading extracts the H1 heading used as a knowledge file's entry
// heading during indexing, falling back to the filename-derived title.
func entryHeading(path string) string {
	entries := mdparse.ParseEntryFile(path)
	if len(entries) > 0 {
		return entries[0].Heading
	}
	return ""
}

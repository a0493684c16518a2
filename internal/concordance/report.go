package concordance

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/anticorrelator/lore/internal/errs"
)

// MergeCandidateReport is one MergeCandidate annotated with each side's title,
// for the `_meta/merge-candidates.json` report.
type MergeCandidateReport struct {
	TargetPath  string  `json:"target_path"`
	SourcePath  string  `json:"source_path"`
	Similarity  float64 `json:"similarity"`
	TargetTitle string  `json:"target_title"`
	SourceTitle string  `json:"source_title"`
}

// BuildMergeCandidatesReport resolves a title (the entry's heading, falling
// back to its bare file path) for each side of every candidate.
func BuildMergeCandidatesReport(ctx context.Context, db *sql.DB, candidates []MergeCandidate) ([]MergeCandidateReport, error) {
	out := make([]MergeCandidateReport, 0, len(candidates))
	for _, c := range candidates {
		targetTitle, err := titleFor(ctx, db, c.TargetPath)
		if err != nil {
			return nil, err
		}
		sourceTitle, err := titleFor(ctx, db, c.SourcePath)
		if err != nil {
			return nil, err
		}
		out = append(out, MergeCandidateReport{
			TargetPath:  c.TargetPath,
			SourcePath:  c.SourcePath,
			Similarity:  c.Similarity,
			TargetTitle: targetTitle,
			SourceTitle: sourceTitle,
		})
	}
	return out, nil
}

// titleFor splits an encoded "path#heading" key and returns the heading if
// present, else the entries table's recorded heading for the bare file path,
// else the file path itself.
func titleFor(ctx context.Context, db *sql.DB, encoded string) (string, error) {
	filePath, heading, ok := strings.Cut(encoded, "#")
	if ok && heading != "" {
		return heading, nil
	}

	var h string
	err := db.QueryRowContext(ctx, `SELECT heading FROM entries WHERE file_path = ? LIMIT 1`, filePath).Scan(&h)
	if err == sql.ErrNoRows {
		return filePath, nil
	}
	if err != nil {
		return "", errs.Wrap(errs.ErrCodeDBOpenFailed, err)
	}
	if h == "" {
		return filePath, nil
	}
	return h, nil
}

// WriteMergeCandidatesReport marshals candidates, sorted by similarity
// descending (already the order FindMergeCandidates returns), to
// <knowledgeDir>/_meta/merge-candidates.json.
func WriteMergeCandidatesReport(knowledgeDir string, candidates []MergeCandidateReport) error {
	dir := filepath.Join(knowledgeDir, "_meta")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.Wrap(errs.ErrCodeReportWriteFail, err)
	}

	if candidates == nil {
		candidates = []MergeCandidateReport{}
	}
	data, err := json.MarshalIndent(candidates, "", "  ")
	if err != nil {
		return errs.Wrap(errs.ErrCodeReportWriteFail, err)
	}

	path := filepath.Join(dir, "merge-candidates.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errs.Wrap(errs.ErrCodeReportWriteFail, err)
	}
	return nil
}

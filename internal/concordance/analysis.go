package concordance

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/anticorrelator/lore/internal/errs"
)

// SimilarEntry is one result of FindSimilar.
type SimilarEntry struct {
	FilePath   string
	Heading    string
	SourceType string
	Similarity float64
}

// concordance_results.result_type values, distinguishing knowledge-to-
// knowledge see-also rows from knowledge-to-source related-file rows so
// downstream analyses (FindMergeCandidates in particular) don't have to
// re-derive the distinction from source_type.
const (
	resultTypeSeeAlso     = "see_also"
	resultTypeRelatedFile = "related_file"
)

// EntryKey identifies an entry by (file path, heading), matching corpus.EntryKey.
type EntryKey struct {
	FilePath string
	Heading  string
}

// FindSimilar computes cosine similarity between target's vector and every
// other vector (optionally restricted to sourceTypeFilter), excluding the
// target itself and any key in exclude, returning the top limit by similarity.
func FindSimilar(ctx context.Context, db *sql.DB, target EntryKey, limit int, sourceTypeFilter string, exclude map[EntryKey]bool) ([]SimilarEntry, error) {
	targetVec, ok, err := vectorFor(ctx, db, target)
	if err != nil {
		return nil, err
	}
	if !ok || len(targetVec) == 0 {
		return nil, nil
	}

	query := `SELECT file_path, heading, source_type, vector FROM tfidf_vectors`
	args := []any{}
	if sourceTypeFilter != "" {
		query += ` WHERE source_type = ?`
		args = append(args, sourceTypeFilter)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeDBOpenFailed, err)
	}
	defer rows.Close()

	var results []SimilarEntry
	for rows.Next() {
		var fp, heading, st string
		var blob []byte
		if err := rows.Scan(&fp, &heading, &st, &blob); err != nil {
			return nil, err
		}
		key := EntryKey{FilePath: fp, Heading: heading}
		if key == target || exclude[key] {
			continue
		}
		sim := Cosine(targetVec, DecodeVector(blob))
		if sim <= 0 {
			continue
		}
		results = append(results, SimilarEntry{FilePath: fp, Heading: heading, SourceType: st, Similarity: sim})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Similarity > results[j].Similarity })
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// SuggestRelatedFiles restricts FindSimilar to source_type='source' above threshold.
func SuggestRelatedFiles(ctx context.Context, db *sql.DB, entry EntryKey, threshold float64, limit int) ([]SimilarEntry, error) {
	all, err := FindSimilar(ctx, db, entry, 0, "source", nil)
	if err != nil {
		return nil, err
	}
	var out []SimilarEntry
	for _, r := range all {
		if r.Similarity >= threshold {
			out = append(out, r)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// FullAnalysisResult summarizes a RunFullAnalysis run.
type FullAnalysisResult struct {
	KnowledgeEntries int
	SeeAlsoWritten   int
	RelatedFiles     int
}

// RunFullAnalysis clears concordance_results and, for every knowledge entry,
// writes its top-K see-also knowledge neighbors and its related source files.
func RunFullAnalysis(ctx context.Context, db *sql.DB, seeAlsoLimit int, relatedFilesThreshold float64, relatedFilesLimit int) (*FullAnalysisResult, error) {
	if _, err := db.ExecContext(ctx, `DELETE FROM concordance_results`); err != nil {
		return nil, errs.Wrap(errs.ErrCodeDBOpenFailed, err)
	}

	rows, err := db.QueryContext(ctx, `SELECT file_path, heading FROM tfidf_vectors WHERE source_type = 'knowledge'`)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeDBOpenFailed, err)
	}
	var entries []EntryKey
	for rows.Next() {
		var fp, h string
		if err := rows.Scan(&fp, &h); err != nil {
			rows.Close()
			return nil, err
		}
		entries = append(entries, EntryKey{FilePath: fp, Heading: h})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	now := float64(time.Now().Unix())
	result := &FullAnalysisResult{KnowledgeEntries: len(entries)}

	insert, err := db.PrepareContext(ctx,
		`INSERT INTO concordance_results(file_path, heading, similar_entry_path, similar_entry_heading, similarity_score, result_type, computed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeDBOpenFailed, err)
	}
	defer insert.Close()

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		seeAlso, err := FindSimilar(ctx, db, e, seeAlsoLimit, "knowledge", nil)
		if err != nil {
			return nil, err
		}
		for _, s := range seeAlso {
			if _, err := insert.ExecContext(ctx, e.FilePath, e.Heading, s.FilePath, s.Heading, s.Similarity, resultTypeSeeAlso, now); err != nil {
				return nil, errs.Wrap(errs.ErrCodeDBOpenFailed, err)
			}
			result.SeeAlsoWritten++
		}

		related, err := SuggestRelatedFiles(ctx, db, e, relatedFilesThreshold, relatedFilesLimit)
		if err != nil {
			return nil, err
		}
		for _, r := range related {
			if _, err := insert.ExecContext(ctx, e.FilePath, e.Heading, r.FilePath, r.Heading, r.Similarity, resultTypeRelatedFile, now); err != nil {
				return nil, errs.Wrap(errs.ErrCodeDBOpenFailed, err)
			}
			result.RelatedFiles++
		}
	}

	return result, nil
}

// MergeCandidate is one deduplicated symmetric similarity pair above threshold.
type MergeCandidate struct {
	TargetPath string
	SourcePath string
	Similarity float64
}

// FindMergeCandidates reads see-also rows (knowledge-to-knowledge) above
// threshold and deduplicates the symmetric pair A<->B by canonicalizing to
// (min, max). Related-file rows (result_type = 'related_file', knowledge-to-
// source) are excluded: merge candidates are only ever proposed between two
// knowledge entries.
func FindMergeCandidates(ctx context.Context, db *sql.DB, threshold float64) ([]MergeCandidate, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT file_path, heading, similar_entry_path, similar_entry_heading, similarity_score
		 FROM concordance_results WHERE result_type = ? AND similarity_score >= ?`,
		resultTypeSeeAlso, threshold)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeDBOpenFailed, err)
	}
	defer rows.Close()

	seen := map[[2]string]MergeCandidate{}
	for rows.Next() {
		var fp, heading, relatedPath, relatedHeading string
		var sim float64
		if err := rows.Scan(&fp, &heading, &relatedPath, &relatedHeading, &sim); err != nil {
			return nil, err
		}
		a := encodeRelated(fp, heading)
		b := encodeRelated(relatedPath, relatedHeading)
		if a == b {
			continue
		}
		key := [2]string{a, b}
		if a > b {
			key = [2]string{b, a}
		}
		seen[key] = MergeCandidate{TargetPath: key[0], SourcePath: key[1], Similarity: sim}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]MergeCandidate, 0, len(seen))
	for _, c := range seen {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	return out, nil
}

func encodeRelated(filePath, heading string) string {
	if heading == "" {
		return filePath
	}
	return filePath + "#" + heading
}

// VocabularyDrift is the result of ComputeVocabularyDrift.
type VocabularyDrift struct {
	Available    bool
	AbsentCount  int
	TopKTerms    int
	Score        float64
}

// ComputeVocabularyDrift takes entry's top-K terms by weight, intersects them
// against the codebase vocabulary (union of term indices across all
// source-type vectors), and returns absentCount divided by the number of
// terms taken (topK, or fewer when the entry has fewer than topK terms).
func ComputeVocabularyDrift(ctx context.Context, db *sql.DB, entry EntryKey, topK int) (VocabularyDrift, error) {
	vec, ok, err := vectorFor(ctx, db, entry)
	if err != nil {
		return VocabularyDrift{}, err
	}
	if !ok || len(vec) == 0 {
		return VocabularyDrift{Available: false}, nil
	}

	codebaseVocab, hasSource, err := codebaseVocabulary(ctx, db)
	if err != nil {
		return VocabularyDrift{}, err
	}
	if !hasSource {
		return VocabularyDrift{Available: false}, nil
	}

	sorted := make(Vector, len(vec))
	copy(sorted, vec)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Weight > sorted[j].Weight })
	if len(sorted) > topK {
		sorted = sorted[:topK]
	}

	absent := 0
	for _, t := range sorted {
		if !codebaseVocab[t.Index] {
			absent++
		}
	}

	return VocabularyDrift{
		Available:   true,
		AbsentCount: absent,
		TopKTerms:   len(sorted),
		Score:       float64(absent) / float64(len(sorted)),
	}, nil
}

func codebaseVocabulary(ctx context.Context, db *sql.DB) (map[uint32]bool, bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT vector FROM tfidf_vectors WHERE source_type = 'source'`)
	if err != nil {
		return nil, false, errs.Wrap(errs.ErrCodeDBOpenFailed, err)
	}
	defer rows.Close()

	vocab := map[uint32]bool{}
	found := false
	for rows.Next() {
		var blob []byte
		if err := rows.Scan(&blob); err != nil {
			return nil, false, err
		}
		found = true
		for _, t := range DecodeVector(blob) {
			vocab[t.Index] = true
		}
	}
	return vocab, found, rows.Err()
}

func vectorFor(ctx context.Context, db *sql.DB, key EntryKey) (Vector, bool, error) {
	var blob []byte
	err := db.QueryRowContext(ctx,
		`SELECT vector FROM tfidf_vectors WHERE file_path = ? AND heading = ?`, key.FilePath, key.Heading).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errs.Wrap(errs.ErrCodeDBOpenFailed, err)
	}
	return DecodeVector(blob), true, nil
}

package scorer

import (
	"context"
	"database/sql"
	"os"
	"sort"
	"time"

	"github.com/anticorrelator/lore/internal/concordance"
	"github.com/anticorrelator/lore/internal/corpus"
)

// Weights are the composite-score component weights.
type Weights struct {
	BM25     float64
	Recency  float64
	TFIDF    float64
	Category float64 // category-tiebreak magnitude, capped at 0.05
}

// DefaultWeights matches the spec's default composite weighting.
func DefaultWeights() Weights {
	return Weights{BM25: 0.5, Recency: 0.3, TFIDF: 0.2, Category: 0.05}
}

// CompositeResult is a Result annotated with its composite score.
type CompositeResult struct {
	Result
	Composite float64
}

// CompositeSearch fetches 3x the requested limit lexical results, rescoring
// each by a weighted blend of normalized BM25 rank, recency, and TF-IDF
// cosine similarity to the query, plus a small category tiebreak bonus.
func CompositeSearch(ctx context.Context, db *sql.DB, knowledgeDir, query string, limit int, f Filters, w Weights) ([]CompositeResult, error) {
	lexical, err := Search(ctx, db, knowledgeDir, query, limit*3, f)
	if err != nil {
		return nil, err
	}
	if len(lexical) == 0 {
		return nil, nil
	}

	queryVec, err := concordance.QueryVector(ctx, db, query)
	if err != nil {
		return nil, err
	}

	out := make([]CompositeResult, 0, len(lexical))
	for _, r := range lexical {
		bm25Norm := minF(1, absF(r.Score)/10)

		recency := recencyScore(knowledgeDir, r)

		tfidf := 0.0
		if queryVec != nil {
			entryVec, ok, err := entryVector(ctx, db, r.FilePath, r.Heading, knowledgeDir)
			if err == nil && ok {
				tfidf = concordance.Cosine(queryVec, entryVec)
			}
		}

		composite := w.BM25*bm25Norm + w.Recency*recency + w.TFIDF*tfidf
		if r.Category != "" {
			bonus := w.Category * float64(len(corpus.Categories)-corpus.CategoryPriority(r.Category)) / float64(len(corpus.Categories))
			composite += minF(w.Category, bonus)
		}
		composite = clamp01(composite)

		out = append(out, CompositeResult{Result: r, Composite: composite})
	}

	sortByCompositeDesc(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// entryVector looks up the stored TF-IDF vector for (filePath, heading),
// reconstructing the absolute file_path key from the relative one Search
// returned, since tfidf_vectors keys on the indexer's absolute path.
func entryVector(ctx context.Context, db *sql.DB, relPath, heading, knowledgeDir string) (concordance.Vector, bool, error) {
	abs := relPath
	if knowledgeDir != "" {
		abs = joinIfRelative(knowledgeDir, relPath)
	}
	var blob []byte
	err := db.QueryRowContext(ctx,
		`SELECT vector FROM tfidf_vectors WHERE file_path = ? AND heading = ?`, abs, heading).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return concordance.DecodeVector(blob), true, nil
}

func joinIfRelative(base, path string) string {
	if path == "" {
		return base
	}
	if path[0] == '/' {
		return path
	}
	return base + "/" + path
}

func recencyScore(knowledgeDir string, r Result) float64 {
	learned := r.LearnedDate
	var t time.Time
	if learned != "" {
		if parsed, err := time.Parse("2006-01-02", learned); err == nil {
			t = parsed
		}
	}
	if t.IsZero() {
		abs := r.FilePath
		if knowledgeDir != "" {
			abs = joinIfRelative(knowledgeDir, r.FilePath)
		}
		if info, err := os.Stat(abs); err == nil {
			t = info.ModTime()
		}
	}
	if t.IsZero() {
		return 0
	}
	days := time.Since(t).Hours() / 24
	return maxF(0, 1-days/365)
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func clamp01(v float64) float64 {
	return maxF(0, minF(1, v))
}

func sortByCompositeDesc(results []CompositeResult) {
	sort.SliceStable(results, func(i, j int) bool { return results[i].Composite > results[j].Composite })
}

package scorer

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"

	"github.com/anticorrelator/lore/internal/errs"
)

// SnippetChars is the default snippet truncation length.
const SnippetChars = 500

// Filters narrows a lexical search.
type Filters struct {
	SourceTypes        []string
	Categories         []string
	ExcludeCategories  []string
	IncludeArchived    bool
	MaxRank            *float64 // inclusive upper bound on rank (more negative = stronger); nil disables
}

// Result is one lexical or composite search hit.
type Result struct {
	Heading     string
	FilePath    string // relative to knowledgeDir when under it, else absolute
	SourceType  string
	Category    string
	Confidence  string
	LearnedDate string
	Score       float64
	Snippet     string
	Content     string
}

// Search runs a lexical FTS5 query and returns up to limit results ordered by
// rank * (2.0 for knowledge, else 1.0), descending strength.
func Search(ctx context.Context, db *sql.DB, knowledgeDir, query string, limit int, f Filters) ([]Result, error) {
	matchExpr := PrepareQuery(query)
	results, err := runSearch(ctx, db, knowledgeDir, matchExpr, limit, f)
	if err != nil {
		if isFTSSyntaxError(err) {
			return runSearch(ctx, db, knowledgeDir, FallbackQuery(query), limit, f)
		}
		return nil, err
	}
	return results, nil
}

func isFTSSyntaxError(err error) bool {
	s := err.Error()
	return strings.Contains(s, "fts5:") || strings.Contains(s, "syntax error")
}

func runSearch(ctx context.Context, db *sql.DB, knowledgeDir, matchExpr string, limit int, f Filters) ([]Result, error) {
	if strings.TrimSpace(matchExpr) == "" {
		return nil, nil
	}

	var sb strings.Builder
	sb.WriteString(`SELECT file_path, heading, content, source_type, category, confidence, learned_date, rank
		FROM entries WHERE entries MATCH ?`)
	args := []any{matchExpr}

	if len(f.SourceTypes) > 0 {
		sb.WriteString(" AND source_type IN (" + placeholders(len(f.SourceTypes)) + ")")
		for _, s := range f.SourceTypes {
			args = append(args, s)
		}
	}
	if len(f.Categories) > 0 {
		sb.WriteString(" AND category IN (" + placeholders(len(f.Categories)) + ")")
		for _, c := range f.Categories {
			args = append(args, c)
		}
	}
	if len(f.ExcludeCategories) > 0 {
		sb.WriteString(" AND category NOT IN (" + placeholders(len(f.ExcludeCategories)) + ")")
		for _, c := range f.ExcludeCategories {
			args = append(args, c)
		}
	}
	if !f.IncludeArchived {
		sb.WriteString(` AND file_path NOT LIKE '%_archive/%'`)
	}
	if f.MaxRank != nil {
		sb.WriteString(" AND rank <= ?")
		args = append(args, *f.MaxRank)
	}

	sb.WriteString(` ORDER BY rank * CASE WHEN source_type='knowledge' THEN 2.0 ELSE 1.0 END ASC LIMIT ?`)
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var r Result
		var rank float64
		if err := rows.Scan(&r.FilePath, &r.Heading, &r.Content, &r.SourceType, &r.Category, &r.Confidence, &r.LearnedDate, &rank); err != nil {
			return nil, err
		}
		r.Score = -rank
		r.Snippet = snippet(r.Content)
		r.FilePath = relPath(knowledgeDir, r.FilePath)
		out = append(out, r)
	}
	return out, errs.Wrap(errs.ErrCodeDBOpenFailed, rows.Err())
}

func placeholders(n int) string {
	ph := make([]string, n)
	for i := range ph {
		ph[i] = "?"
	}
	return strings.Join(ph, ",")
}

func snippet(content string) string {
	if len(content) <= SnippetChars {
		return content
	}
	return content[:SnippetChars] + "..."
}

func relPath(knowledgeDir, path string) string {
	if knowledgeDir == "" {
		return path
	}
	rel, err := filepath.Rel(knowledgeDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

package concordance

import (
	"context"
	"database/sql"

	"github.com/anticorrelator/lore/internal/errs"
)

// QueryVector builds a TF-IDF vector for a free-text query, for comparison
// against entry vectors during composite scoring. Term frequencies come from
// an ephemeral FTS5 table tokenized identically to the main entries table;
// document frequencies and the term index come from the live corpus.
func QueryVector(ctx context.Context, db *sql.DB, queryText string) (Vector, error) {
	termIndex, err := buildTermIndex(ctx, db)
	if err != nil {
		return nil, err
	}
	if len(termIndex) == 0 {
		return nil, nil
	}

	docFreq, err := docFrequencies(ctx, db, termIndex)
	if err != nil {
		return nil, err
	}
	n, err := documentCount(ctx, db)
	if err != nil {
		return nil, err
	}

	tf, err := queryTermFrequencies(ctx, db, queryText)
	if err != nil {
		return nil, err
	}

	return buildVector(tf, termIndex, docFreq, n), nil
}

// queryTermFrequencies tokenizes queryText through a scratch FTS5 table using
// the same porter/unicode61 tokenizer as the main index, then reads term
// counts back out via its own fts5vocab view.
func queryTermFrequencies(ctx context.Context, db *sql.DB, queryText string) (map[string]int, error) {
	_, err := db.ExecContext(ctx,
		`CREATE VIRTUAL TABLE IF NOT EXISTS temp.query_scratch USING fts5(content, tokenize='porter unicode61')`)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeDBOpenFailed, err)
	}
	defer func() { _, _ = db.ExecContext(ctx, `DROP TABLE IF EXISTS temp.query_scratch`) }()

	if _, err := db.ExecContext(ctx, `DELETE FROM temp.query_scratch`); err != nil {
		return nil, errs.Wrap(errs.ErrCodeDBOpenFailed, err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO temp.query_scratch(content) VALUES (?)`, queryText); err != nil {
		return nil, errs.Wrap(errs.ErrCodeDBOpenFailed, err)
	}

	if _, err := db.ExecContext(ctx,
		`CREATE VIRTUAL TABLE IF NOT EXISTS temp.query_scratch_vocab USING fts5vocab('temp', 'query_scratch', 'row')`); err != nil {
		return nil, errs.Wrap(errs.ErrCodeDBOpenFailed, err)
	}
	defer func() { _, _ = db.ExecContext(ctx, `DROP TABLE IF EXISTS temp.query_scratch_vocab`) }()

	rows, err := db.QueryContext(ctx, `SELECT term, cnt FROM temp.query_scratch_vocab`)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeDBOpenFailed, err)
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var term string
		var cnt int
		if err := rows.Scan(&term, &cnt); err != nil {
			return nil, err
		}
		out[term] = cnt
	}
	return out, rows.Err()
}

package concordance

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/anticorrelator/lore/internal/errs"
)

// RebuildAll recomputes the TF-IDF vector for every entry and upserts it into
// tfidf_vectors. The term index is re-derived deterministically each run by
// sorting the content-column vocabulary alphabetically and assigning 0..N-1;
// it is never persisted as authoritative.
func RebuildAll(ctx context.Context, db *sql.DB) error {
	termIndex, err := buildTermIndex(ctx, db)
	if err != nil {
		return err
	}
	if len(termIndex) == 0 {
		_, err := db.ExecContext(ctx, `DELETE FROM tfidf_vectors`)
		return errs.Wrap(errs.ErrCodeDBOpenFailed, err)
	}

	docFreq, err := docFrequencies(ctx, db, termIndex)
	if err != nil {
		return err
	}

	n, err := documentCount(ctx, db)
	if err != nil {
		return err
	}

	tf, err := termFrequenciesByDoc(ctx, db)
	if err != nil {
		return err
	}

	docs, err := documentRows(ctx, db)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errs.Wrap(errs.ErrCodeDBOpenFailed, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tfidf_vectors`); err != nil {
		return errs.Wrap(errs.ErrCodeDBOpenFailed, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO tfidf_vectors(file_path, heading, vector, source_type, updated_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return errs.Wrap(errs.ErrCodeDBOpenFailed, err)
	}
	defer stmt.Close()

	now := float64(time.Now().Unix())
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		vec := buildVector(tf[d.rowid], termIndex, docFreq, n)
		if _, err := stmt.ExecContext(ctx, d.filePath, d.heading, EncodeVector(vec), d.sourceType, now); err != nil {
			return errs.Wrap(errs.ErrCodeDBOpenFailed, err)
		}
	}

	return errs.Wrap(errs.ErrCodeDBOpenFailed, tx.Commit())
}

func buildVector(tfs map[string]int, termIndex map[string]uint32, docFreq map[string]int, n int) Vector {
	var vec Vector
	for term, tf := range tfs {
		idx, ok := termIndex[term]
		if !ok {
			continue
		}
		w := Weight(tf, docFreq[term], n)
		if w <= 0 {
			continue
		}
		vec = append(vec, Term{Index: idx, Weight: float32(w)})
	}
	sort.Slice(vec, func(i, j int) bool { return vec[i].Index < vec[j].Index })
	return vec
}

// buildTermIndex assigns each distinct content-column term a 0-based index,
// in alphabetical order.
func buildTermIndex(ctx context.Context, db *sql.DB) (map[string]uint32, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT DISTINCT term FROM entries_vocab_row WHERE col='content' ORDER BY term`)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeDBOpenFailed, err)
	}
	defer rows.Close()

	idx := map[string]uint32{}
	var i uint32
	for rows.Next() {
		var term string
		if err := rows.Scan(&term); err != nil {
			return nil, err
		}
		idx[term] = i
		i++
	}
	return idx, rows.Err()
}

func docFrequencies(ctx context.Context, db *sql.DB, termIndex map[string]uint32) (map[string]int, error) {
	rows, err := db.QueryContext(ctx, `SELECT term, doc FROM entries_vocab_row WHERE col='content'`)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeDBOpenFailed, err)
	}
	defer rows.Close()

	df := map[string]int{}
	for rows.Next() {
		var term string
		var doc int
		if err := rows.Scan(&term, &doc); err != nil {
			return nil, err
		}
		if _, ok := termIndex[term]; ok {
			df[term] = doc
		}
	}
	return df, rows.Err()
}

func documentCount(ctx context.Context, db *sql.DB) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n)
	if err != nil {
		return 0, errs.Wrap(errs.ErrCodeDBOpenFailed, err)
	}
	return n, nil
}

func termFrequenciesByDoc(ctx context.Context, db *sql.DB) (map[int64]map[string]int, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT doc, term, COUNT(*) FROM entries_vocab_inst WHERE col='content' GROUP BY doc, term`)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeDBOpenFailed, err)
	}
	defer rows.Close()

	out := map[int64]map[string]int{}
	for rows.Next() {
		var doc int64
		var term string
		var cnt int
		if err := rows.Scan(&doc, &term, &cnt); err != nil {
			return nil, err
		}
		if out[doc] == nil {
			out[doc] = map[string]int{}
		}
		out[doc][term] = cnt
	}
	return out, rows.Err()
}

type documentRow struct {
	rowid      int64
	filePath   string
	heading    string
	sourceType string
}

func documentRows(ctx context.Context, db *sql.DB) ([]documentRow, error) {
	rows, err := db.QueryContext(ctx, `SELECT rowid, file_path, heading, source_type FROM entries`)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeDBOpenFailed, err)
	}
	defer rows.Close()

	var out []documentRow
	for rows.Next() {
		var d documentRow
		if err := rows.Scan(&d.rowid, &d.filePath, &d.heading, &d.sourceType); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

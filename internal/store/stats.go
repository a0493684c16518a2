package store

import (
	"context"
	"database/sql"
	"os"

	"github.com/anticorrelator/lore/internal/errs"
)

// Stats summarizes the current state of the index, for the `stats` verb.
type Stats struct {
	FileCount        int
	EntryCount       int
	TypeCounts       map[string]int
	CategoryCounts   map[string]int
	ConfidenceCounts map[string]int
	DBSizeBytes      int64
	LastIndexed      string // RFC3339, "" if never indexed
}

// Stats gathers index statistics: entry/file counts, breakdowns by source
// type, category, and confidence, database size on disk, and the last index
// timestamp.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	out := &Stats{
		TypeCounts:       map[string]int{},
		CategoryCounts:   map[string]int{},
		ConfidenceCounts: map[string]int{},
	}

	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM entries`).Scan(&out.EntryCount); err != nil {
		return nil, errs.Wrap(errs.ErrCodeDBOpenFailed, err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM file_meta`).Scan(&out.FileCount); err != nil {
		return nil, errs.Wrap(errs.ErrCodeDBOpenFailed, err)
	}

	if err := scanCounts(ctx, s.db, `SELECT source_type, count(*) FROM file_meta GROUP BY source_type`, out.TypeCounts); err != nil {
		return nil, err
	}
	if err := scanCounts(ctx, s.db,
		`SELECT category, count(*) FROM entries WHERE category IS NOT NULL AND category != '' GROUP BY category`,
		out.CategoryCounts); err != nil {
		return nil, err
	}
	if err := scanCounts(ctx, s.db,
		`SELECT confidence, count(*) FROM entries WHERE confidence IS NOT NULL AND confidence != '' GROUP BY confidence`,
		out.ConfidenceCounts); err != nil {
		return nil, err
	}

	lastIndexed, err := s.LastIndexed(ctx)
	if err != nil {
		return nil, err
	}
	if !lastIndexed.IsZero() {
		out.LastIndexed = lastIndexed.Format("2006-01-02T15:04:05Z07:00")
	}

	if info, err := os.Stat(s.path); err == nil {
		out.DBSizeBytes = info.Size()
	}

	return out, nil
}

func scanCounts(ctx context.Context, db *sql.DB, query string, into map[string]int) error {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return errs.Wrap(errs.ErrCodeDBOpenFailed, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		into[key] = count
	}
	return errs.Wrap(errs.ErrCodeDBOpenFailed, rows.Err())
}

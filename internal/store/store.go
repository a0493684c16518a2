// Package store owns the embedded SQLite FTS5 database that backs lore's
// indexer, concordance builder, and scorer.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"github.com/anticorrelator/lore/internal/errs"
)

// DBFileName is the hidden database file name created inside a knowledge directory.
const DBFileName = ".pk_search.db"

// Store wraps the database connection and its advisory file lock.
type Store struct {
	db   *sql.DB
	path string
	lock *flock.Flock
}

// Open opens (creating if absent) the database at <knowledgeDir>/.pk_search.db.
// If the existing database is corrupt or at the wrong schema version, it is
// deleted and rebuilt from scratch.
func Open(ctx context.Context, knowledgeDir string) (*Store, error) {
	path := filepath.Join(knowledgeDir, DBFileName)
	if err := os.MkdirAll(knowledgeDir, 0o755); err != nil {
		return nil, errs.New(errs.ErrCodeFilePermission, "creating knowledge directory", err)
	}

	if needsRebuild(path) {
		slog.Warn("search_db_rebuild", slog.String("path", path), slog.String("reason", "corrupt or stale schema"))
		removeDBFiles(path)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, errs.New(errs.ErrCodeDBOpenFailed, "opening search database", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, errs.New(errs.ErrCodeDBOpenFailed, "applying pragma "+p, err)
		}
	}

	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		_ = db.Close()
		return nil, errs.New(errs.ErrCodeSchemaMismatch, "creating schema", err)
	}

	s := &Store{db: db, path: path, lock: flock.New(path + ".lock")}
	if err := s.ensureSchemaVersion(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// needsRebuild reports whether the database at path is missing integrity,
// missing the entries table, or stamped with a different schema version.
func needsRebuild(path string) bool {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false
	}

	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return true
	}
	defer func() { _ = db.Close() }()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil || result != "ok" {
		return true
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='entries'`).Scan(&count); err != nil || count == 0 {
		return true
	}

	var version string
	err = db.QueryRow(`SELECT value FROM index_meta WHERE key='schema_version'`).Scan(&version)
	if err != nil {
		return true
	}
	return version != fmt.Sprint(schemaVersion)
}

func removeDBFiles(path string) {
	_ = os.Remove(path)
	_ = os.Remove(path + "-wal")
	_ = os.Remove(path + "-shm")
}

func (s *Store) ensureSchemaVersion(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO index_meta(key, value) VALUES ('schema_version', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		fmt.Sprint(schemaVersion))
	if err != nil {
		return errs.New(errs.ErrCodeSchemaMismatch, "stamping schema version", err)
	}
	return nil
}

// DB returns the underlying connection, for use by concordance/scorer/staleness.
func (s *Store) DB() *sql.DB { return s.db }

// Close checkpoints the WAL and closes the connection.
func (s *Store) Close() error {
	_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return s.db.Close()
}

// LockMaintenance acquires the advisory file lock around a full or
// incremental reindex (IndexAll, IncrementalIndex), serializing it against
// other lore processes sharing the same database file. The schema rebuild in
// Open and concordance analysis do not take this lock.
func (s *Store) LockMaintenance(ctx context.Context) (func(), error) {
	locked, err := s.lock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil || !locked {
		return nil, errs.New(errs.ErrCodeDBOpenFailed, "acquiring maintenance lock", err)
	}
	return func() { _ = s.lock.Unlock() }, nil
}

// SetLastIndexed records the current time as the last successful index run.
func (s *Store) SetLastIndexed(ctx context.Context, t time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO index_meta(key, value) VALUES ('last_indexed', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		t.UTC().Format(time.RFC3339))
	return err
}

// LastIndexed returns the last successful index run time, or the zero time if none.
func (s *Store) LastIndexed(ctx context.Context) (time.Time, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM index_meta WHERE key='last_indexed'`).Scan(&v)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, v)
}

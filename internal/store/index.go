package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/anticorrelator/lore/internal/concordance"
	"github.com/anticorrelator/lore/internal/corpus"
	"github.com/anticorrelator/lore/internal/errs"
	"github.com/anticorrelator/lore/internal/layout"
	"github.com/anticorrelator/lore/internal/mdparse"
)

// headingLevelFor returns the heading level at which a file's entries are
// split, per source type. Knowledge and source files are single-entry
// (file-per-entry). Work items split at "###". Threads split at "##" for
// the flat v1 layout (a single file living directly under _threads/), or
// are file-per-entry for the v2 directory-per-thread layout, where each
// entry's heading is reconstructed from its filename instead.
func headingLevelFor(ref corpus.FileRef) (splitLevel string, fileIsEntry bool) {
	switch ref.SourceType {
	case corpus.SourceWork:
		return "###", false
	case corpus.SourceThread:
		if isV1ThreadFile(ref.Path) {
			return "##", false
		}
		return "", true
	default:
		return "", true
	}
}

// isV1ThreadFile reports whether path is a flat v1 thread file living
// directly under _threads/, as opposed to a v2 per-entry file inside a
// _threads/<thread>/ subdirectory.
func isV1ThreadFile(path string) bool {
	return filepath.Base(filepath.Dir(path)) == "_threads"
}

// FullIndexResult summarizes an IndexAll run.
type FullIndexResult struct {
	FilesIndexed int
	TotalEntries int
	Elapsed      time.Duration
}

// IncrementalIndexResult summarizes an IncrementalIndex run.
type IncrementalIndexResult struct {
	FilesReindexed int
	FilesRemoved   int
	EntriesAdded   int
	Elapsed        time.Duration
}

// IndexAll performs a full rebuild: every enumerated file is parsed and its
// entries (re)inserted, and any previously-indexed file no longer enumerated
// is removed. If force is true, or the database fails its integrity checks,
// the database file is deleted and rebuilt outright by the caller via Open.
func (s *Store) IndexAll(ctx context.Context, knowledgeDir, repoRoot string) (*FullIndexResult, error) {
	start := time.Now()
	unlock, err := s.LockMaintenance(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	refs, err := layout.Enumerate(knowledgeDir, repoRoot)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeFileUnreadable, err)
	}

	enumerated := make(map[string]corpus.FileRef, len(refs))
	for _, r := range refs {
		enumerated[r.Path] = r
	}

	existing, err := s.allFileMetaPaths(ctx)
	if err != nil {
		return nil, err
	}
	for path := range existing {
		if _, ok := enumerated[path]; !ok {
			if err := s.deleteFile(ctx, path); err != nil {
				return nil, err
			}
		}
	}

	total := 0
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := s.reindexFile(ctx, ref)
		if err != nil {
			return nil, err
		}
		total += n
	}

	if err := concordance.RebuildAll(ctx, s.db); err != nil {
		return nil, err
	}
	if err := s.SetLastIndexed(ctx, time.Now()); err != nil {
		return nil, err
	}

	return &FullIndexResult{FilesIndexed: len(refs), TotalEntries: total, Elapsed: time.Since(start)}, nil
}

// IncrementalIndex reindexes only files whose mtime or content hash changed
// since the last run, and removes file_meta/entries rows for files no longer
// enumerated. If nothing changed, the TF-IDF rebuild pass is skipped.
func (s *Store) IncrementalIndex(ctx context.Context, knowledgeDir, repoRoot string) (*IncrementalIndexResult, error) {
	start := time.Now()
	unlock, err := s.LockMaintenance(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	refs, err := layout.Enumerate(knowledgeDir, repoRoot)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeFileUnreadable, err)
	}
	enumerated := make(map[string]corpus.FileRef, len(refs))
	for _, r := range refs {
		enumerated[r.Path] = r
	}

	existing, err := s.allFileMeta(ctx)
	if err != nil {
		return nil, err
	}

	removed := 0
	for path := range existing {
		if _, ok := enumerated[path]; !ok {
			if err := s.deleteFile(ctx, path); err != nil {
				return nil, err
			}
			removed++
		}
	}

	reindexed, added := 0, 0
	changed := removed > 0
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		meta, ok := existing[ref.Path]
		stale, hash, mtime := s.isStale(ref.Path, meta, ok)
		if !stale {
			continue
		}
		n, err := s.reindexFileWith(ctx, ref, hash, mtime)
		if err != nil {
			return nil, err
		}
		reindexed++
		added += n
		changed = true
	}

	if changed {
		if err := concordance.RebuildAll(ctx, s.db); err != nil {
			return nil, err
		}
	}
	if err := s.SetLastIndexed(ctx, time.Now()); err != nil {
		return nil, err
	}

	return &IncrementalIndexResult{FilesReindexed: reindexed, FilesRemoved: removed, EntriesAdded: added, Elapsed: time.Since(start)}, nil
}

type fileMetaRow struct {
	mtime float64
	hash  string
}

func (s *Store) allFileMeta(ctx context.Context) (map[string]fileMetaRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT file_path, mtime, content_hash FROM file_meta`)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeDBOpenFailed, err)
	}
	defer rows.Close()

	out := map[string]fileMetaRow{}
	for rows.Next() {
		var path, hash string
		var mtime float64
		if err := rows.Scan(&path, &mtime, &hash); err != nil {
			return nil, err
		}
		out[path] = fileMetaRow{mtime: mtime, hash: hash}
	}
	return out, rows.Err()
}

func (s *Store) allFileMetaPaths(ctx context.Context) (map[string]struct{}, error) {
	meta, err := s.allFileMeta(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(meta))
	for p := range meta {
		out[p] = struct{}{}
	}
	return out, nil
}

// isStale reports whether a file needs reindexing: absent from file_meta, or
// its mtime differs from stored by more than 10ms and its content hash differs.
func (s *Store) isStale(path string, meta fileMetaRow, known bool) (stale bool, hash string, mtime float64) {
	info, err := os.Stat(path)
	if err != nil {
		return true, "", 0
	}
	mtime = float64(info.ModTime().UnixNano()) / 1e9
	if !known {
		return true, contentHash(path), mtime
	}
	if absFloat(mtime-meta.mtime) <= 0.010 {
		return false, meta.hash, meta.mtime
	}
	h := contentHash(path)
	if h == meta.hash {
		return false, h, mtime
	}
	return true, h, mtime
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func contentHash(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (s *Store) reindexFile(ctx context.Context, ref corpus.FileRef) (int, error) {
	info, err := os.Stat(ref.Path)
	if err != nil {
		return 0, nil //nolint:nilerr // file vanished between enumerate and index; skip it
	}
	mtime := float64(info.ModTime().UnixNano()) / 1e9
	return s.reindexFileWith(ctx, ref, contentHash(ref.Path), mtime)
}

func (s *Store) reindexFileWith(ctx context.Context, ref corpus.FileRef, hash string, mtime float64) (int, error) {
	splitLevel, fileIsEntry := headingLevelFor(ref)
	var parsed []corpus.ParsedEntry
	switch {
	case ref.SourceType == corpus.SourceThread && fileIsEntry:
		parsed = mdparse.ParseThreadEntryFile(ref.Path)
	case fileIsEntry:
		parsed = mdparse.ParseEntryFile(ref.Path)
	default:
		parsed = mdparse.ParseFile(ref.Path, splitLevel)
	}

	raw, _ := os.ReadFile(ref.Path)
	meta := mdparse.ExtractMetadata(string(raw))
	category := categoryFromPath(ref)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errs.Wrap(errs.ErrCodeDBOpenFailed, err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := deleteEntriesForFile(ctx, tx, ref.Path); err != nil {
		return 0, err
	}

	insertStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO entries(file_path, heading, content, source_type, category, confidence, learned_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, errs.Wrap(errs.ErrCodeDBOpenFailed, err)
	}
	defer insertStmt.Close()

	for _, e := range parsed {
		_, err := insertStmt.ExecContext(ctx, e.FilePath, e.Heading, e.Content,
			string(ref.SourceType), category, string(meta.Confidence), meta.Learned)
		if err != nil {
			return 0, errs.Wrap(errs.ErrCodeDBOpenFailed, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO file_meta(file_path, mtime, content_hash, source_type) VALUES (?, ?, ?, ?)
		 ON CONFLICT(file_path) DO UPDATE SET mtime=excluded.mtime, content_hash=excluded.content_hash, source_type=excluded.source_type`,
		ref.Path, mtime, hash, string(ref.SourceType))
	if err != nil {
		return 0, errs.Wrap(errs.ErrCodeDBOpenFailed, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, errs.Wrap(errs.ErrCodeDBOpenFailed, err)
	}
	return len(parsed), nil
}

func (s *Store) deleteFile(ctx context.Context, path string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.Wrap(errs.ErrCodeDBOpenFailed, err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := deleteEntriesForFile(ctx, tx, path); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM file_meta WHERE file_path = ?`, path); err != nil {
		return errs.Wrap(errs.ErrCodeDBOpenFailed, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tfidf_vectors WHERE file_path = ?`, path); err != nil {
		return errs.Wrap(errs.ErrCodeDBOpenFailed, err)
	}
	return errs.Wrap(errs.ErrCodeDBOpenFailed, tx.Commit())
}

func deleteEntriesForFile(ctx context.Context, tx *sql.Tx, path string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE file_path = ?`, path)
	if err != nil {
		return errs.Wrap(errs.ErrCodeDBOpenFailed, err)
	}
	return nil
}

// categoryFromPath scans a knowledge file's path segments for the first one
// that names a known category directory.
func categoryFromPath(ref corpus.FileRef) string {
	if ref.SourceType != corpus.SourceKnowledge {
		return ""
	}
	for _, seg := range strings.Split(filepath.ToSlash(ref.Path), "/") {
		if corpus.IsCategory(seg) {
			return seg
		}
	}
	return ""
}

// Package lorewatch is an opt-in live-reindex wrapper: it watches the
// knowledge directory for changes via internal/watcher's fsnotify-backed
// HybridWatcher, and triggers an incremental reindex on every debounced batch
// of events. The source repository is not watched; its root is only passed
// through to the reindex, so source-file edits are picked up when a change in
// the knowledge directory triggers one.
package lorewatch

import (
	"context"
	"log/slog"
	"time"

	"github.com/anticorrelator/lore/internal/watcher"
)

// Options configures the live-reindex loop.
type Options struct {
	DebounceWindow time.Duration
	RepoRoot       string
}

// WithDefaults fills zero-valued fields from watcher.DefaultOptions.
func (o Options) WithDefaults() Options {
	if o.DebounceWindow == 0 {
		o.DebounceWindow = watcher.DefaultOptions().DebounceWindow
	}
	return o
}

// ReindexFunc performs one incremental reindex; the caller supplies a
// closure over its own *store.Store.
type ReindexFunc func(ctx context.Context, knowledgeDir, repoRoot string) error

// Watch starts a HybridWatcher rooted at knowledgeDir and calls reindex once
// per debounced batch of file events, until ctx is cancelled. Reindex errors
// are logged and do not stop the watch loop; only watcher-start failures are
// returned.
func Watch(ctx context.Context, knowledgeDir string, opts Options, reindex ReindexFunc, logger *slog.Logger) error {
	opts = opts.WithDefaults()

	w, err := watcher.NewHybridWatcher(watcher.Options{
		DebounceWindow: opts.DebounceWindow,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- w.Start(ctx, knowledgeDir)
	}()

	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return ctx.Err()
		case err := <-errCh:
			return err
		case batch, ok := <-w.Events():
			if !ok {
				return nil
			}
			logger.Debug("reindex triggered", "events", len(batch))
			if err := reindex(ctx, knowledgeDir, opts.RepoRoot); err != nil {
				logger.Warn("incremental reindex failed", "error", err)
			}
		case werr, ok := <-w.Errors():
			if !ok {
				continue
			}
			logger.Warn("watcher error", "error", werr)
		}
	}
}

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/anticorrelator/lore/internal/logging"
	"github.com/anticorrelator/lore/internal/lorewatch"
	"github.com/anticorrelator/lore/internal/store"
)

func newWatchCmd() *cobra.Command {
	var debounceMillis int

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the knowledge directory and incrementally reindex on change",
		RunE: func(cmd *cobra.Command, args []string) error {
			knowledgeDir, repoRoot, err := resolveKnowledgeDir(knowledgeDirFlag, repoRootFlag)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, err := store.Open(ctx, knowledgeDir)
			if err != nil {
				return err
			}
			defer s.Close()

			logger, cleanup, err := logging.Setup(logging.DefaultConfig(knowledgeDir))
			if err != nil {
				return err
			}
			defer cleanup()

			w := newWriter(cmd)
			w.Statusf("👀", "Watching %s (repo root: %s)", knowledgeDir, repoRoot)

			reindex := func(ctx context.Context, knowledgeDir, repoRoot string) error {
				_, err := s.IncrementalIndex(ctx, knowledgeDir, repoRoot)
				return err
			}

			opts := lorewatch.Options{RepoRoot: repoRoot}
			if debounceMillis > 0 {
				opts.DebounceWindow = time.Duration(debounceMillis) * time.Millisecond
			}

			if err := lorewatch.Watch(ctx, knowledgeDir, opts, reindex, logger); err != nil && err != context.Canceled {
				return err
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&debounceMillis, "debounce-ms", 0, "Debounce window in milliseconds (default: watcher default)")
	return cmd
}

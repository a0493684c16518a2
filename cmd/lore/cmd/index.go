package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/anticorrelator/lore/internal/store"
)

// removeDBFiles deletes the search database and its WAL/SHM siblings, for
// `index --force`.
func removeDBFiles(knowledgeDir string) error {
	path := filepath.Join(knowledgeDir, store.DBFileName)
	for _, suffix := range []string{"", "-wal", "-shm", ".lock"} {
		if err := os.Remove(path + suffix); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

func newIndexCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build or rebuild the search index",
		RunE: func(cmd *cobra.Command, args []string) error {
			knowledgeDir, repoRoot, err := resolveKnowledgeDir(knowledgeDirFlag, repoRootFlag)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if force {
				if err := removeDBFiles(knowledgeDir); err != nil {
					return err
				}
			}

			s, err := store.Open(ctx, knowledgeDir)
			if err != nil {
				return err
			}
			defer s.Close()

			result, err := s.IndexAll(ctx, knowledgeDir, repoRoot)
			if err != nil {
				return err
			}

			w := newWriter(cmd)
			w.Successf("Indexed %d files (%d entries) in %s", result.FilesIndexed, result.TotalEntries, result.Elapsed.Round(1e6))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Force a full re-index, discarding the existing database")
	return cmd
}

func newIncrementalIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "incremental-index",
		Short: "Re-index only changed files",
		RunE: func(cmd *cobra.Command, args []string) error {
			knowledgeDir, repoRoot, err := resolveKnowledgeDir(knowledgeDirFlag, repoRootFlag)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			s, err := store.Open(ctx, knowledgeDir)
			if err != nil {
				return err
			}
			defer s.Close()

			result, err := s.IncrementalIndex(ctx, knowledgeDir, repoRoot)
			if err != nil {
				return err
			}

			w := newWriter(cmd)
			if result.FilesReindexed == 0 && result.FilesRemoved == 0 {
				w.Status("", "Index up to date.")
				return nil
			}
			w.Successf("Reindexed %d files, removed %d, in %s", result.FilesReindexed, result.FilesRemoved, result.Elapsed.Round(1e6))
			return nil
		},
	}
	return cmd
}

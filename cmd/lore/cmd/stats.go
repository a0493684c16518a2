package cmd

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/anticorrelator/lore/internal/store"
)

func newStatsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show index statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			knowledgeDir, _, err := resolveKnowledgeDir(knowledgeDirFlag, repoRootFlag)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			s, err := store.Open(ctx, knowledgeDir)
			if err != nil {
				return err
			}
			defer s.Close()

			stats, err := s.Stats(ctx)
			if err != nil {
				return err
			}

			if asJSON {
				data, err := json.MarshalIndent(stats, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}

			w := newWriter(cmd)
			w.Statusf("", "Knowledge dir: %s", knowledgeDir)
			w.Statusf("", "Files indexed: %d", stats.FileCount)
			if parts := countParts(stats.TypeCounts); parts != "" {
				w.Statusf("", "  By type:       %s", parts)
			}
			if parts := countParts(stats.CategoryCounts); parts != "" {
				w.Statusf("", "  By category:   %s", parts)
			}
			if parts := countParts(stats.ConfidenceCounts); parts != "" {
				w.Statusf("", "  By confidence: %s", parts)
			}
			w.Statusf("", "Total entries: %d", stats.EntryCount)
			w.Statusf("", "Database size: %s", humanSize(stats.DBSizeBytes))
			if stats.LastIndexed == "" {
				w.Status("", "Last indexed: never")
			} else {
				w.Statusf("", "Last indexed: %s", stats.LastIndexed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func countParts(counts map[string]int) string {
	if len(counts) == 0 {
		return ""
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := ""
	for i, k := range keys {
		if i > 0 {
			parts += ", "
		}
		parts += fmt.Sprintf("%d %s", counts[k], k)
	}
	return parts
}

func humanSize(n int64) string {
	size := float64(n)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if size < 1024 {
			return fmt.Sprintf("%.1f %s", size, unit)
		}
		size /= 1024
	}
	return fmt.Sprintf("%.1f TB", size)
}

package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/anticorrelator/lore/internal/staleness"
	"github.com/anticorrelator/lore/internal/store"
)

func newCheckStalenessCmd() *cobra.Command {
	var (
		vcsTimeoutSec int
		asJSON        bool
	)

	cmd := &cobra.Command{
		Use:   "check-staleness",
		Short: "Score every knowledge entry for drift and write a staleness report",
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

			opts := staleness.DefaultOptions()
			if vcsTimeoutSec > 0 {
				opts.VCSTimeout = time.Duration(vcsTimeoutSec) * time.Second
			}

			report, err := staleness.Scan(ctx, s.DB(), knowledgeDir, repoRoot, opts)
			if err != nil {
				return err
			}
			if err := report.WriteReport(knowledgeDir); err != nil {
				return err
			}

			if asJSON {
				data, err := json.MarshalIndent(report, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}

			w := newWriter(cmd)
			w.Statusf("", "Scanned %d entries: %d fresh, %d aging, %d stale",
				report.TotalEntries, report.Fresh, report.Aging, report.Stale)
			for _, e := range report.Entries {
				if e.Status == staleness.StatusFresh {
					continue
				}
				w.Statusf("", "  [%s] %.2f  %s", e.Status, e.DriftScore, e.File)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&vcsTimeoutSec, "vcs-timeout", 0, "VCS subprocess timeout in seconds (default: 30)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

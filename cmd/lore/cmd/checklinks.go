package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anticorrelator/lore/internal/linkcheck"
)

func newCheckLinksCmd() *cobra.Command {
	var (
		includeArchived bool
		includeThreads  bool
		asJSON          bool
	)

	cmd := &cobra.Command{
		Use:   "check-links",
		Short: "Scan the corpus for broken or archived [[...]] references",
		RunE: func(cmd *cobra.Command, args []string) error {
			knowledgeDir, repoRoot, err := resolveKnowledgeDir(knowledgeDirFlag, repoRootFlag)
			if err != nil {
				return err
			}

			report, err := linkcheck.CheckAll(knowledgeDir, repoRoot, linkcheck.Options{
				IncludeArchived: includeArchived,
				IncludeThreads:  includeThreads,
			})
			if err != nil {
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
			w.Statusf("", "Checked %d references: %d valid, %d archived, %d broken",
				report.TotalChecked, report.Valid, len(report.Archived), len(report.Broken))
			if len(report.Broken) > 0 {
				w.Newline()
				w.Error("Broken references:")
				for _, b := range report.Broken {
					w.Statusf("", "  %s: %s (%s)", b.SourceFile, b.Reference, b.Error)
				}
			}
			if len(report.Archived) > 0 {
				w.Newline()
				w.Warning("Archived references:")
				for _, a := range report.Archived {
					w.Statusf("", "  %s: %s", a.SourceFile, a.Reference)
				}
			}
			if len(report.Broken) > 0 {
				return fmt.Errorf("%d broken reference(s)", len(report.Broken))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&includeArchived, "include-archived", false, "Also scan archived work items for references")
	cmd.Flags().BoolVar(&includeThreads, "include-threads", false, "Also scan thread entries for references")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

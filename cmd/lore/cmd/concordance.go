package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anticorrelator/lore/internal/concordance"
	"github.com/anticorrelator/lore/internal/store"
)

func newAnalyzeConcordanceCmd() *cobra.Command {
	var (
		seeAlsoLim       int
		relatedThreshold float64
		relatedLimit     int
		asJSON           bool
	)

	cmd := &cobra.Command{
		Use:   "analyze-concordance",
		Short: "Recompute see-also neighbors and related-file suggestions for every knowledge entry",
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

			result, err := concordance.RunFullAnalysis(ctx, s.DB(), seeAlsoLim, relatedThreshold, relatedLimit)
			if err != nil {
				return err
			}

			if asJSON {
				data, err := json.MarshalIndent(result, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}

			w := newWriter(cmd)
			w.Successf("Analyzed %d knowledge entries: %d see-also links, %d related files",
				result.KnowledgeEntries, result.SeeAlsoWritten, result.RelatedFiles)
			return nil
		},
	}

	cmd.Flags().IntVar(&seeAlsoLim, "see-also-limit", 3, "Max see-also neighbors per entry")
	cmd.Flags().Float64Var(&relatedThreshold, "related-files-threshold", 0.05, "Min similarity for a related-file suggestion")
	cmd.Flags().IntVar(&relatedLimit, "related-files-limit", 10, "Max related files per entry")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newAnalyzeMergeCandidatesCmd() *cobra.Command {
	var (
		threshold float64
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "analyze-merge-candidates",
		Short: "Find pairs of knowledge entries similar enough to be merge candidates",
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

			candidates, err := concordance.FindMergeCandidates(ctx, s.DB(), threshold)
			if err != nil {
				return err
			}
			report, err := concordance.BuildMergeCandidatesReport(ctx, s.DB(), candidates)
			if err != nil {
				return err
			}
			if err := concordance.WriteMergeCandidatesReport(knowledgeDir, report); err != nil {
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
			if len(report) == 0 {
				w.Status("", "No merge candidates found.")
				return nil
			}
			for _, c := range report {
				w.Statusf("", "%.3f  %s  <->  %s", c.Similarity, c.TargetTitle, c.SourceTitle)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&threshold, "threshold", 0.5, "Min similarity to report as a merge candidate")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

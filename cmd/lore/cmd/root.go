// Package cmd provides the CLI commands for lore.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/anticorrelator/lore/internal/output"
)

var (
	knowledgeDirFlag string
	repoRootFlag     string
)

// NewRootCmd creates the root command for the lore CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lore",
		Short: "Local knowledge corpus indexer and search engine",
		Long: `lore indexes a knowledge directory of markdown notes (plus, optionally,
a source repository) into a local SQLite FTS5 database, and searches it with
lexical, composite (BM25 + recency + TF-IDF), and budget-aware ranking.

It runs entirely locally with no network access.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&knowledgeDirFlag, "knowledge-dir", "", "Knowledge directory (default: $LORE_KNOWLEDGE_DIR, else resolved under $LORE_DATA_DIR or the repo root)")
	cmd.PersistentFlags().StringVar(&repoRootFlag, "repo-root", "", "Source repository root (default: detected from the current directory)")

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newIncrementalIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newResolveCmd())
	cmd.AddCommand(newReadCmd())
	cmd.AddCommand(newCheckLinksCmd())
	cmd.AddCommand(newAnalyzeConcordanceCmd())
	cmd.AddCommand(newAnalyzeMergeCandidatesCmd())
	cmd.AddCommand(newCheckStalenessCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func newWriter(cmd *cobra.Command) *output.Writer {
	return output.New(cmd.OutOrStdout())
}

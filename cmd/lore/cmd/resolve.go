package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anticorrelator/lore/internal/resolver"
)

func newResolveCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "resolve <ref> [ref...]",
		Short: "Resolve one or more [[type:target#heading]] references to content",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			knowledgeDir, _, err := resolveKnowledgeDir(knowledgeDirFlag, repoRootFlag)
			if err != nil {
				return err
			}

			results := resolver.ResolveBatch(knowledgeDir, args)

			if asJSON {
				data, err := json.MarshalIndent(results, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}

			w := newWriter(cmd)
			for i, r := range results {
				if i > 0 {
					w.Newline()
				}
				if !r.Resolved {
					w.Errorf("%s: %s", args[i], r.Error)
					continue
				}
				if r.Archived {
					w.Warningf("%s (archived)", args[i])
				}
				fmt.Fprintln(cmd.OutOrStdout(), r.Content)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

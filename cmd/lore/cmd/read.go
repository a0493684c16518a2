package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/anticorrelator/lore/internal/mdparse"
	"github.com/anticorrelator/lore/internal/resolver"
	"github.com/anticorrelator/lore/internal/scorer"
	"github.com/anticorrelator/lore/internal/store"
)

func newReadCmd() *cobra.Command {
	var (
		refType string
		query   string
	)

	cmd := &cobra.Command{
		Use:   "read <target>",
		Short: "Read a knowledge, work, or thread file, optionally scoped to a query",
		Long: `Without --query, read prints the full content of the resolved file.

With --query, it runs an FTS5 search scoped to the file: sections whose
content matches are printed in full, in relevance order; the remaining
section headings are listed without their content.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			knowledgeDir, _, err := resolveKnowledgeDir(knowledgeDirFlag, repoRootFlag)
			if err != nil {
				return err
			}

			if refType == "" {
				refType = "knowledge"
			}
			raw := args[0]
			if !strings.HasPrefix(raw, "[[") {
				raw = fmt.Sprintf("[[%s:%s]]", refType, raw)
			}

			if query == "" {
				result := resolver.Resolve(knowledgeDir, raw)
				if !result.Resolved {
					return fmt.Errorf("%s", result.Error)
				}
				fmt.Fprint(cmd.OutOrStdout(), result.Content)
				return nil
			}

			ref, err := resolver.ParseReference(raw)
			if err != nil {
				return err
			}
			path, err := resolver.ResolvePath(knowledgeDir, ref)
			if err != nil {
				return err
			}
			if len(path.Files) == 0 {
				return fmt.Errorf("no file resolved for %s", raw)
			}

			return renderQueryScopedRead(cmd, knowledgeDir, path.Files[0], query)
		},
	}

	cmd.Flags().StringVar(&refType, "type", "", "Reference type: knowledge (default), work, or thread")
	cmd.Flags().StringVarP(&query, "query", "q", "", "Scope output to sections matching this FTS5 query")
	return cmd
}

// renderQueryScopedRead prints sections of filePath matching query in full,
// in relevance order, followed by the remaining section headings bare.
func renderQueryScopedRead(cmd *cobra.Command, knowledgeDir, filePath, query string) error {
	ctx := cmd.Context()
	s, err := store.Open(ctx, knowledgeDir)
	if err != nil {
		return err
	}
	defer s.Close()

	matchExpr := scorer.PrepareQuery(query)
	rows, err := s.DB().QueryContext(ctx,
		`SELECT heading, content FROM entries WHERE entries MATCH ? AND file_path = ? ORDER BY rank`,
		matchExpr, filePath)
	if err != nil {
		return err
	}
	defer rows.Close()

	matched := map[string]bool{}
	out := cmd.OutOrStdout()
	for rows.Next() {
		var heading, content string
		if err := rows.Scan(&heading, &content); err != nil {
			return err
		}
		matched[heading] = true
		fmt.Fprintf(out, "### %s\n%s\n\n", heading, content)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	all := mdparse.ParseFile(filePath, "###")
	var remaining []string
	for _, e := range all {
		if !matched[e.Heading] {
			remaining = append(remaining, e.Heading)
		}
	}
	if len(remaining) > 0 {
		fmt.Fprintln(out, "### Other sections (heading only)")
		for _, h := range remaining {
			fmt.Fprintf(out, "- %s\n", h)
		}
		fmt.Fprintln(out)
	}
	return nil
}

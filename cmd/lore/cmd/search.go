package cmd

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/anticorrelator/lore/internal/concordance"
	"github.com/anticorrelator/lore/internal/output"
	"github.com/anticorrelator/lore/internal/retrievallog"
	"github.com/anticorrelator/lore/internal/scorer"
	"github.com/anticorrelator/lore/internal/store"
)

func newSearchCmd() *cobra.Command {
	var (
		limit             int
		threshold         float64
		sourceType        string
		categories        []string
		excludeCategories []string
		caller            string
		includeArchived   bool
		composite         bool
		expand            bool
		budget            int
		asJSON            bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search indexed entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := args[0]
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

			filters := scorer.Filters{
				Categories:        categories,
				ExcludeCategories: excludeCategories,
				IncludeArchived:   includeArchived,
			}
			if sourceType != "" {
				filters.SourceTypes = []string{sourceType}
			}
			if threshold != 0 {
				filters.MaxRank = &threshold
			}

			start := time.Now()
			out, resultCount, err := runSearch(ctx, s, knowledgeDir, query, limit, filters, composite, expand, budget)
			elapsed := time.Since(start)
			if err != nil {
				return err
			}

			retrievallog.New(knowledgeDir).LogSearch(query, sourceType, resultCount, elapsed, caller)

			if asJSON {
				data, err := json.MarshalIndent(out, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			renderSearchResults(cmd, out)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Max results")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "Min relevance score (more negative = stronger match; 0 disables)")
	cmd.Flags().StringVar(&sourceType, "type", "", "Filter by source type (knowledge, work, thread, source)")
	cmd.Flags().StringSliceVar(&categories, "category", nil, "Filter by category")
	cmd.Flags().StringSliceVar(&excludeCategories, "exclude-category", nil, "Exclude these categories")
	cmd.Flags().StringVar(&caller, "caller", "", "Caller identifier logged to the retrieval log")
	cmd.Flags().BoolVar(&includeArchived, "include-archived", false, "Include archived work items")
	cmd.Flags().BoolVar(&composite, "composite", false, "Re-rank with composite scoring (BM25 + recency + TF-IDF)")
	cmd.Flags().BoolVar(&expand, "expand", false, "Expand results with similar entries from the TF-IDF concordance")
	cmd.Flags().IntVar(&budget, "budget", 0, "Budget in characters: return a two-tier full/titles-only result within budget")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	return cmd
}

// searchOutput is the JSON/human-rendered shape returned by every search mode.
// Exactly one of Results/Composite/Budget is populated, matching whichever
// mode (lexical, composite, budget) ran.
type searchOutput struct {
	Results   []scorer.Result          `json:"results,omitempty"`
	Composite []scorer.CompositeResult `json:"composite_results,omitempty"`
	Budget    *scorer.BudgetResult     `json:"budget,omitempty"`
	SeeAlso   map[string][]seeAlsoEntry `json:"see_also,omitempty"`
}

type seeAlsoEntry struct {
	FilePath   string  `json:"file_path"`
	Heading    string  `json:"heading"`
	Similarity float64 `json:"similarity"`
}

const seeAlsoLimit = 3

func runSearch(ctx context.Context, s *store.Store, knowledgeDir, query string, limit int, f scorer.Filters, composite, expand bool, budgetChars int) (*searchOutput, int, error) {
	db := s.DB()
	out := &searchOutput{}
	count := 0

	switch {
	case budgetChars > 0:
		result, err := scorer.BudgetSearch(ctx, db, knowledgeDir, query, limit, budgetChars, f, scorer.DefaultWeights())
		if err != nil {
			return nil, 0, err
		}
		out.Budget = result
		count = len(result.Full) + len(result.TitlesOnly)
		return out, count, nil

	case composite:
		results, err := scorer.CompositeSearch(ctx, db, knowledgeDir, query, limit, f, scorer.DefaultWeights())
		if err != nil {
			return nil, 0, err
		}
		out.Composite = results
		count = len(results)
		if expand {
			plain := make([]scorer.Result, len(results))
			for i, r := range results {
				plain[i] = r.Result
			}
			out.SeeAlso = seeAlso(ctx, db, knowledgeDir, plain)
		}
		return out, count, nil

	default:
		results, err := scorer.Search(ctx, db, knowledgeDir, query, limit, f)
		if err != nil {
			return nil, 0, err
		}
		out.Results = results
		count = len(results)
		if expand {
			out.SeeAlso = seeAlso(ctx, db, knowledgeDir, results)
		}
		return out, count, nil
	}
}

// seeAlso looks up each result's top knowledge neighbors via the TF-IDF
// concordance, keyed by "file_path#heading".
func seeAlso(ctx context.Context, db *sql.DB, knowledgeDir string, results []scorer.Result) map[string][]seeAlsoEntry {
	out := map[string][]seeAlsoEntry{}
	for _, r := range results {
		key := concordance.EntryKey{FilePath: absEntryPath(knowledgeDir, r.FilePath), Heading: r.Heading}
		similar, err := concordance.FindSimilar(ctx, db, key, seeAlsoLimit, "knowledge", nil)
		if err != nil || len(similar) == 0 {
			continue
		}
		entries := make([]seeAlsoEntry, len(similar))
		for i, s := range similar {
			entries[i] = seeAlsoEntry{FilePath: s.FilePath, Heading: s.Heading, Similarity: s.Similarity}
		}
		out[r.FilePath+"#"+r.Heading] = entries
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// absEntryPath reconstructs the absolute file_path key tfidf_vectors stores,
// from the knowledgeDir-relative path scorer.Result returns.
func absEntryPath(knowledgeDir, relPath string) string {
	if relPath == "" || filepath.IsAbs(relPath) {
		return relPath
	}
	return filepath.Join(knowledgeDir, relPath)
}

// renderSearchResults prints whichever of out's variants is populated in the
// same shape as the original CLI's text output.
func renderSearchResults(cmd *cobra.Command, out *searchOutput) {
	w := newWriter(cmd)
	switch {
	case out.Budget != nil:
		renderCompositeResults(cmd, w, out.Budget.Full, out.SeeAlso)
		if len(out.Budget.TitlesOnly) > 0 {
			w.Newline()
			w.Status("", "Other matches (titles only, over budget):")
			for _, t := range out.Budget.TitlesOnly {
				w.Statusf("", "  - %s (%s, score: %.3f)", t.Heading, t.FilePath, t.Composite)
			}
		}
		w.Newline()
		w.Statusf("", "Budget used: %d / %d chars", out.Budget.BudgetUsed, out.Budget.BudgetTotal)

	case out.Composite != nil:
		renderCompositeResults(cmd, w, out.Composite, out.SeeAlso)

	default:
		if len(out.Results) == 0 {
			w.Status("", "No results.")
			return
		}
		for i, r := range out.Results {
			renderResult(w, i+1, r.SourceType, r.Score, r.FilePath, r.Heading, r.Category, r.Confidence, r.LearnedDate, r.Snippet, out.SeeAlso)
		}
	}
}

func renderCompositeResults(cmd *cobra.Command, w *output.Writer, results []scorer.CompositeResult, seeAlso map[string][]seeAlsoEntry) {
	if len(results) == 0 {
		w.Status("", "No results.")
		return
	}
	for i, r := range results {
		renderResult(w, i+1, r.SourceType, r.Composite, r.FilePath, r.Heading, r.Category, r.Confidence, r.LearnedDate, r.Snippet, seeAlso)
	}
}

func renderResult(w *output.Writer, n int, sourceType string, score float64, filePath, heading, category, confidence, learnedDate, snippet string, seeAlso map[string][]seeAlsoEntry) {
	w.Newline()
	w.Statusf("", "--- Result %d [%s] (score: %.4f) ---", n, sourceType, score)
	w.Statusf("", "  File: %s", filePath)
	w.Statusf("", "  Heading: %s", heading)
	if category != "" {
		w.Statusf("", "  Category: %s", category)
	}
	if confidence != "" {
		w.Statusf("", "  Confidence: %s", confidence)
	}
	if learnedDate != "" {
		w.Statusf("", "  Learned: %s", learnedDate)
	}
	w.Statusf("", "  Snippet: %s", snippet)
	if similar, ok := seeAlso[filePath+"#"+heading]; ok && len(similar) > 0 {
		w.Status("", "  See also:")
		for _, s := range similar {
			w.Statusf("", "    - %s (%s, sim: %.3f)", s.Heading, s.FilePath, s.Similarity)
		}
	}
}

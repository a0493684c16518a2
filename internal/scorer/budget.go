package scorer

import (
	"context"
	"database/sql"
)

// TitleOnly is a result reduced to heading + relative path + composite score,
// with no content, for the budget tier that didn't fit.
type TitleOnly struct {
	Heading   string
	FilePath  string
	Composite float64
}

// BudgetResult is the output of BudgetSearch.
type BudgetResult struct {
	Full        []CompositeResult
	TitlesOnly  []TitleOnly
	BudgetUsed  int
	BudgetTotal int
}

// BudgetSearch runs CompositeSearch and walks results in composite-descending
// order, placing each into the "full" tier while its content fits in the
// remaining budget, and into "titles_only" otherwise. budgetChars=0 forces
// everything into titles_only.
func BudgetSearch(ctx context.Context, db *sql.DB, knowledgeDir, query string, limit, budgetChars int, f Filters, w Weights) (*BudgetResult, error) {
	results, err := CompositeSearch(ctx, db, knowledgeDir, query, limit, f, w)
	if err != nil {
		return nil, err
	}

	out := &BudgetResult{BudgetTotal: budgetChars}
	remaining := budgetChars
	for _, r := range results {
		if remaining > 0 && len(r.Content) <= remaining {
			out.Full = append(out.Full, r)
			remaining -= len(r.Content)
			continue
		}
		out.TitlesOnly = append(out.TitlesOnly, TitleOnly{Heading: r.Heading, FilePath: r.FilePath, Composite: r.Composite})
	}
	out.BudgetUsed = budgetChars - remaining
	return out, nil
}

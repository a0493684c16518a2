// Package scorer implements lexical search, composite re-ranking, and
// budget-aware result partitioning over the entries FTS5 table.
package scorer

import (
	"regexp"
	"strings"
)

var ftsOperatorRE = regexp.MustCompile(`[:*"]|\bAND\b|\bOR\b|\bNOT\b|\bNEAR\b`)

// PrepareQuery turns a free-text query into an FTS5 MATCH expression. A
// plain-words query is split on whitespace, each token further split on
// hyphens (the porter+unicode tokenizer treats hyphens as separators), and
// each sub-token double-quoted. A query already containing an FTS operator
// is passed through unchanged.
func PrepareQuery(query string) string {
	if ftsOperatorRE.MatchString(query) {
		return query
	}

	fields := strings.Fields(query)
	var parts []string
	for _, f := range fields {
		for _, sub := range strings.Split(f, "-") {
			sub = strings.TrimSpace(sub)
			if sub != "" {
				parts = append(parts, `"`+sub+`"`)
			}
		}
	}
	return strings.Join(parts, " ")
}

// FallbackQuery wraps the entire original query as a single quoted phrase,
// used when PrepareQuery's expression causes an engine syntax error.
func FallbackQuery(query string) string {
	return `"` + strings.ReplaceAll(query, `"`, `""`) + `"`
}

package resolver

// ResolveBatch maps Resolve over every reference literal, returning one
// Resolved per input in order. Individual failures do not abort the batch.
func ResolveBatch(knowledgeDir string, refs []string) []Resolved {
	out := make([]Resolved, len(refs))
	for i, raw := range refs {
		out[i] = Resolve(knowledgeDir, raw)
	}
	return out
}

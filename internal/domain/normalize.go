package domain

import "strings"

// normalizeLabel case-folds and collapses whitespace for entity-label
// comparisons used by node dedup and alias resolution.
func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), " ")
}

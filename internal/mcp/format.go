package mcp

import (
	"fmt"
	"strings"

	"github.com/legalease-ai/evidence-core/internal/retriever"
)

// FormatSearchResults formats hybrid retrieval results as markdown.
func FormatSearchResults(query string, results []retriever.Result) string {
	if len(results) == 0 {
		return fmt.Sprintf("No results found for %q", query)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Search results for %q\n\n", query)
	fmt.Fprintf(&sb, "Found %d result", len(results))
	if len(results) != 1 {
		sb.WriteString("s")
	}
	sb.WriteString("\n\n")

	for i, r := range results {
		formatResult(&sb, i+1, r)
	}

	return sb.String()
}

func formatResult(sb *strings.Builder, num int, r retriever.Result) {
	fmt.Fprintf(sb, "### %d. evidence %s, chunk %s (%s, score: %.3f)\n\n",
		num, r.EvidenceID, r.ChunkID, r.ChunkType, r.Score)
	if r.Page != nil {
		fmt.Fprintf(sb, "**Page:** %d\n\n", *r.Page)
	}
	if len(r.MatchedTerms) > 0 {
		fmt.Fprintf(sb, "**Matched terms:** %s\n\n", strings.Join(r.MatchedTerms, ", "))
	}
	if r.Warning != "" {
		fmt.Fprintf(sb, "> %s\n\n", r.Warning)
	}
	sb.WriteString(r.Text)
	sb.WriteString("\n\n---\n\n")
}

// clampLimit ensures limit is within bounds.
func clampLimit(limit, defaultVal, min, max int) int {
	if limit <= 0 {
		return defaultVal
	}
	if limit < min {
		return min
	}
	if limit > max {
		return max
	}
	return limit
}

// ToSearchResultOutput converts a retriever result to the tool's output
// schema, including a human-readable explanation of why it matched.
func ToSearchResultOutput(r retriever.Result) SearchResultOutput {
	return SearchResultOutput{
		ChunkID:      r.ChunkID,
		EvidenceID:   r.EvidenceID,
		Text:         r.Text,
		ChunkType:    r.ChunkType,
		Page:         r.Page,
		Score:        r.Score,
		MatchedTerms: r.MatchedTerms,
		MatchReason:  generateMatchReason(r),
	}
}

func generateMatchReason(r retriever.Result) string {
	var parts []string

	if len(r.MatchedTerms) > 0 {
		terms := r.MatchedTerms
		if len(terms) > 5 {
			terms = terms[:5]
		}
		parts = append(parts, fmt.Sprintf("matched: %s", strings.Join(terms, ", ")))
	}
	if r.PreRerankScore != 0 && r.PreRerankScore != r.Score {
		parts = append(parts, "reranked")
	}
	if len(parts) == 0 {
		return "matched content"
	}
	return strings.Join(parts, "; ")
}

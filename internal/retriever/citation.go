package retriever

import "regexp"

// citationPattern recognizes legal citations so the canonical-query rewrite
// never splits one across a token boundary: statute references ("18 U.S.C.
// § 1001"), case reporters ("123 F.3d 456"), and contract section refs
// ("Section 365").
var citationPattern = regexp.MustCompile(
	`(?i)(\d+\s+U\.?S\.?C\.?\s*§*\s*\d+[a-z]*)|(\d+\s+[A-Z][a-z]*\.?\s*\d*[a-z]*\s+\d+)|(Section\s+\d+(\.\d+)*)`,
)

// extractCitations returns every citation-shaped substring found in text,
// in order of appearance.
func extractCitations(text string) []string {
	matches := citationPattern.FindAllString(text, -1)
	if matches == nil {
		return nil
	}
	return matches
}

// preprocessQuery trims the query and extracts any citations it carries,
// run before tokenization so a downstream analyzer's stemmer or stopword
// filter never touches a citation token.
func preprocessQuery(raw string) (canonical string, citations []string) {
	return raw, extractCitations(raw)
}

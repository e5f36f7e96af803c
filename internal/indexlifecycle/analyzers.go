// Package indexlifecycle owns the lexical index mapping shared across the
// four evidence-type collections (documents, transcripts, communications,
// findings): the legal/shingle/citation custom analyzers, collection
// creation and health checks, and the orphan reaper.
package indexlifecycle

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/token/shingle"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/registry"

	"github.com/legalease-ai/evidence-core/configs"
)

const (
	// LegalAnalyzerName folds legal boilerplate and synonym variants so a
	// query for "lawyer" also matches chunks saying "attorney" or "counsel".
	LegalAnalyzerName = "legal_analyzer"

	// ShingleAnalyzerName indexes 2- and 3-word phrases alongside unigrams,
	// used by the findings collection where multi-word legal terms
	// ("breach of contract") carry more signal than their parts.
	ShingleAnalyzerName = "shingle_analyzer"

	// CitationAnalyzerName tokenizes on whitespace/comma/semicolon only,
	// preserving case and punctuation within a token so citation strings
	// like "Exhibit 14, p.3" survive intact for exact matching.
	CitationAnalyzerName = "citation_analyzer"

	legalStopFilterName    = "legal_stop"
	legalSynonymFilterName = "legal_synonym"
	citationTokenizerName  = "citation_tokenizer"
)

var registerOnce sync.Once

func init() {
	registerOnce.Do(func() {
		_ = registry.RegisterTokenFilter(legalStopFilterName, legalStopFilterConstructor)
		_ = registry.RegisterTokenFilter(legalSynonymFilterName, legalSynonymFilterConstructor)
		_ = registry.RegisterTokenizer(citationTokenizerName, citationTokenizerConstructor)
	})
}

// NewIndexMapping builds the shared index mapping for an evidence-type
// collection. All four collections use the same three analyzers; they
// differ only in which documents get routed into them, which lives in the
// caller's Store.
func NewIndexMapping() (*mapping.IndexMappingImpl, error) {
	im := bleve.NewIndexMapping()

	if err := im.AddCustomAnalyzer(LegalAnalyzerName, map[string]interface{}{
		"type":      custom.Name,
		"tokenizer": unicode.Name,
		"token_filters": []string{
			lowercase.Name,
			legalSynonymFilterName,
			legalStopFilterName,
			en.SnowballStemmerName,
		},
	}); err != nil {
		return nil, fmt.Errorf("indexlifecycle: add legal_analyzer: %w", err)
	}

	if err := im.AddCustomAnalyzer(ShingleAnalyzerName, map[string]interface{}{
		"type":      custom.Name,
		"tokenizer": unicode.Name,
		"token_filters": []string{
			lowercase.Name,
			legalStopFilterName,
			shingle.Name,
		},
	}); err != nil {
		return nil, fmt.Errorf("indexlifecycle: add shingle_analyzer: %w", err)
	}

	if err := im.AddCustomAnalyzer(CitationAnalyzerName, map[string]interface{}{
		"type":      custom.Name,
		"tokenizer": citationTokenizerName,
	}); err != nil {
		return nil, fmt.Errorf("indexlifecycle: add citation_analyzer: %w", err)
	}

	im.DefaultAnalyzer = LegalAnalyzerName
	return im, nil
}

// legalStopFilter drops tokens appearing in the embedded legal stop word
// list. Shaped after the teacher's own code-stop-word filter, swapping a
// language-aware word list for a syntax-aware one.
type legalStopFilter struct {
	stopWords map[string]struct{}
}

func legalStopFilterConstructor(config map[string]interface{}, cache *registry.Cache) (analysis.TokenFilter, error) {
	return &legalStopFilter{stopWords: loadStopWords()}, nil
}

func (f *legalStopFilter) Filter(input analysis.TokenStream) analysis.TokenStream {
	result := make(analysis.TokenStream, 0, len(input))
	for _, token := range input {
		if _, stop := f.stopWords[strings.ToLower(string(token.Term))]; stop {
			continue
		}
		result = append(result, token)
	}
	return result
}

// legalSynonymFilter rewrites a token's term to its synonym group's
// canonical (first) member, so every member of a group indexes identically.
type legalSynonymFilter struct {
	canonical map[string]string
}

func legalSynonymFilterConstructor(config map[string]interface{}, cache *registry.Cache) (analysis.TokenFilter, error) {
	return &legalSynonymFilter{canonical: loadSynonyms()}, nil
}

func (f *legalSynonymFilter) Filter(input analysis.TokenStream) analysis.TokenStream {
	for _, token := range input {
		if canon, ok := f.canonical[strings.ToLower(string(token.Term))]; ok {
			token.Term = []byte(canon)
		}
	}
	return input
}

// citationTokenizer splits on runs of whitespace, commas, and semicolons
// only, so a citation like "Exhibit 14, p.3" tokenizes as ["Exhibit", "14",
// "p.3"] rather than being broken up by the punctuation a general-purpose
// tokenizer would treat as boundaries.
type citationTokenizer struct{}

var citationSplit = regexp.MustCompile(`[\s,;]+`)

func citationTokenizerConstructor(config map[string]interface{}, cache *registry.Cache) (analysis.Tokenizer, error) {
	return &citationTokenizer{}, nil
}

func (t *citationTokenizer) Tokenize(input []byte) analysis.TokenStream {
	parts := citationSplit.Split(string(input), -1)
	result := make(analysis.TokenStream, 0, len(parts))
	pos := 1
	offset := 0
	for _, part := range parts {
		if part == "" {
			continue
		}
		start := strings.Index(string(input[offset:]), part) + offset
		end := start + len(part)
		offset = end
		result = append(result, &analysis.Token{
			Term:     []byte(part),
			Start:    start,
			End:      end,
			Position: pos,
			Type:     analysis.AlphaNumeric,
		})
		pos++
	}
	return result
}

var (
	stopWordsOnce sync.Once
	stopWordsSet  map[string]struct{}

	synonymsOnce sync.Once
	synonymsMap  map[string]string
)

func loadStopWords() map[string]struct{} {
	stopWordsOnce.Do(func() {
		var doc struct {
			Words []string `yaml:"words"`
		}
		if err := parseYAML(configs.LegalStopwordsTemplate, &doc); err != nil {
			stopWordsSet = map[string]struct{}{}
			return
		}
		stopWordsSet = make(map[string]struct{}, len(doc.Words))
		for _, w := range doc.Words {
			stopWordsSet[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
		}
	})
	return stopWordsSet
}

func loadSynonyms() map[string]string {
	synonymsOnce.Do(func() {
		var doc struct {
			Groups [][]string `yaml:"groups"`
		}
		if err := parseYAML(configs.LegalSynonymsTemplate, &doc); err != nil {
			synonymsMap = map[string]string{}
			return
		}
		synonymsMap = map[string]string{}
		for _, group := range doc.Groups {
			if len(group) == 0 {
				continue
			}
			canonical := strings.ToLower(strings.TrimSpace(group[0]))
			for _, term := range group {
				synonymsMap[strings.ToLower(strings.TrimSpace(term))] = canonical
			}
		}
	})
	return synonymsMap
}

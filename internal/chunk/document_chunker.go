package chunk

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/legalease-ai/evidence-core/internal/domain"
)

// Regex patterns for document structure detection, adapted from the
// header-splitting approach the teacher used for Markdown.
var (
	headerPattern    = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`)
	pageBreakPattern = regexp.MustCompile(`\x0c|(?m)^-{2,}\s*Page\s+\d+\s*-{2,}$`)
)

// DocumentChunkerOptions configures DocumentChunker behavior.
type DocumentChunkerOptions struct {
	MaxChunkTokens int
	OverlapTokens  int
}

// DocumentChunker splits a DOCUMENT (or COMMUNICATION) evidence item into a
// summary chunk plus section/paragraph chunks, the way the teacher's
// MarkdownChunker split files by header but generalized to page-break
// boundaries and plain prose with no headers at all.
type DocumentChunker struct {
	options DocumentChunkerOptions
}

func NewDocumentChunker() *DocumentChunker {
	return NewDocumentChunkerWithOptions(DocumentChunkerOptions{})
}

func NewDocumentChunkerWithOptions(opts DocumentChunkerOptions) *DocumentChunker {
	if opts.MaxChunkTokens == 0 {
		opts.MaxChunkTokens = DefaultMaxChunkTokens
	}
	if opts.OverlapTokens == 0 {
		opts.OverlapTokens = DefaultOverlapTokens
	}
	return &DocumentChunker{options: opts}
}

// docSection is one header- or page-break-delimited span of a document.
type docSection struct {
	title   string
	content string
}

func (c *DocumentChunker) Chunk(evidence *domain.Evidence, content string) ([]*domain.Chunk, error) {
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}

	var chunks []*domain.Chunk
	pos := 0

	summary, err := domain.NewChunk(evidence.ID, evidence.CaseID, summarize(content), domain.ChunkTypeSummary, pos)
	if err != nil {
		return nil, fmt.Errorf("chunk: build summary chunk for %s: %w", evidence.ID, err)
	}
	chunks = append(chunks, summary)
	pos++

	for _, sec := range c.splitSections(content) {
		trimmed := strings.TrimSpace(sec.content)
		if trimmed == "" {
			continue
		}

		if estimateTokens(trimmed) <= c.options.MaxChunkTokens {
			ch, err := domain.NewChunk(evidence.ID, evidence.CaseID, trimmed, domain.ChunkTypeSection, pos)
			if err != nil {
				return nil, fmt.Errorf("chunk: build section chunk for %s: %w", evidence.ID, err)
			}
			if sec.title != "" {
				ch.Metadata["section_title"] = sec.title
			}
			chunks = append(chunks, ch)
			pos++
			continue
		}

		for _, para := range c.splitParagraphs(trimmed) {
			ch, err := domain.NewChunk(evidence.ID, evidence.CaseID, para, domain.ChunkTypeParagraph, pos)
			if err != nil {
				return nil, fmt.Errorf("chunk: build paragraph chunk for %s: %w", evidence.ID, err)
			}
			if sec.title != "" {
				ch.Metadata["section_title"] = sec.title
			}
			chunks = append(chunks, ch)
			pos++
		}
	}

	return chunks, nil
}

// splitSections breaks content on headers first, falling back to page
// breaks when no headers are present, and finally treating the whole
// document as a single section.
func (c *DocumentChunker) splitSections(content string) []docSection {
	if headerPattern.MatchString(content) {
		return splitByHeader(content)
	}
	if pageBreakPattern.MatchString(content) {
		return splitByPageBreak(content)
	}
	return []docSection{{content: content}}
}

func splitByHeader(content string) []docSection {
	lines := strings.Split(content, "\n")
	var sections []docSection
	var cur *docSection
	var body strings.Builder

	flush := func() {
		if cur != nil {
			cur.content = body.String()
			sections = append(sections, *cur)
			body.Reset()
		}
	}

	for _, line := range lines {
		if m := headerPattern.FindStringSubmatch(line); m != nil {
			flush()
			title := strings.TrimSpace(m[2])
			cur = &docSection{title: title}
			body.WriteString(line)
			body.WriteString("\n")
			continue
		}
		if cur == nil {
			cur = &docSection{}
		}
		body.WriteString(line)
		body.WriteString("\n")
	}
	flush()
	return sections
}

func splitByPageBreak(content string) []docSection {
	parts := pageBreakPattern.Split(content, -1)
	sections := make([]docSection, 0, len(parts))
	for i, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		sections = append(sections, docSection{title: fmt.Sprintf("page %d", i+1), content: p})
	}
	return sections
}

// splitParagraphs packs blank-line-delimited paragraphs into chunks no
// larger than MaxChunkTokens, same bin-packing approach the teacher's
// markdown chunker used for oversized sections.
func (c *DocumentChunker) splitParagraphs(content string) []string {
	raw := strings.Split(content, "\n\n")
	var paragraphs []string
	for _, p := range raw {
		if t := strings.TrimSpace(p); t != "" {
			paragraphs = append(paragraphs, t)
		}
	}

	var out []string
	var cur strings.Builder
	for _, p := range paragraphs {
		if cur.Len() > 0 && estimateTokens(cur.String())+estimateTokens(p) > c.options.MaxChunkTokens {
			out = append(out, strings.TrimSpace(cur.String()))
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteString("\n\n")
		}
		cur.WriteString(p)
	}
	if cur.Len() > 0 {
		out = append(out, strings.TrimSpace(cur.String()))
	}
	return out
}

// summarize produces a crude lead-and-tail excerpt for the summary chunk.
// Full abstractive summarization is out of scope here (no LLM chat client
// exists anywhere in the dependency set); this gives the summary index a
// cheap, deterministic stand-in that still biases toward the document's
// opening facts.
func summarize(content string) string {
	const maxRunes = 2000
	trimmed := strings.TrimSpace(content)
	r := []rune(trimmed)
	if len(r) <= maxRunes {
		return trimmed
	}
	return string(r[:maxRunes])
}

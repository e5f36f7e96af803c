package chunk

import "github.com/legalease-ai/evidence-core/internal/domain"

// Chunk size defaults (based on 2025 RAG research)
const (
	DefaultMaxChunkTokens = 512 // Optimal for 85-90% recall
	DefaultOverlapTokens  = 64  // ~12.5% overlap
	MinChunkTokens        = 100 // Minimum viable chunk
	TokensPerChar         = 4   // Rough approximation: 4 chars = 1 token
)

// Chunker splits one evidence item's raw content into the ordered list of
// Chunks C2 will embed and index. Documents and transcripts each get their
// own implementation below; communications reuse the document chunker since
// an email/message body is, structurally, a short document.
type Chunker interface {
	Chunk(evidence *domain.Evidence, content string) ([]*domain.Chunk, error)
}

// estimateTokens is the same char/4 approximation the teacher's code
// chunker used; good enough to decide where to split, not meant to match
// any specific tokenizer's count.
func estimateTokens(content string) int {
	return len(content) / TokensPerChar
}

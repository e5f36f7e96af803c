package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// ChunkType is one of the four indexed subunit shapes.
type ChunkType string

const (
	ChunkTypeSummary   ChunkType = "summary"
	ChunkTypeSection   ChunkType = "section"
	ChunkTypeMicroblock ChunkType = "microblock"
	ChunkTypeParagraph ChunkType = "paragraph"
)

func (t ChunkType) Valid() bool {
	switch t {
	case ChunkTypeSummary, ChunkTypeSection, ChunkTypeMicroblock, ChunkTypeParagraph:
		return true
	default:
		return false
	}
}

// ChunkIDVersion identifies the scheme used to derive a Chunk's ID.
// Content ("2") is the scheme this repo writes; Legacy ("1") is recognized
// on read for chunks produced by an older position-based scheme.
type ChunkIDVersion string

const (
	ChunkIDVersionLegacy  ChunkIDVersion = "1"
	ChunkIDVersionContent ChunkIDVersion = "2"
)

// CurrentChunkIDVersion is the scheme new writes use.
const CurrentChunkIDVersion = ChunkIDVersionContent

// Chunk is an immutable indexed subunit of evidence.
type Chunk struct {
	ID         string
	EvidenceID string
	CaseID     string
	Text       string
	ChunkType  ChunkType
	Position   int
	Page       *int
	Metadata   map[string]string

	CreatedAt time.Time
}

// DeriveChunkID computes the content-addressable chunk ID: a sha256 hash of
// (evidence_id, chunk_type, position, text). Re-chunking identical evidence
// yields identical IDs, which is what makes C2 dual-store writes idempotent
// on re-index.
func DeriveChunkID(evidenceID string, chunkType ChunkType, position int, text string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%d\x00%s", evidenceID, chunkType, position, text)
	return hex.EncodeToString(h.Sum(nil))
}

// NewChunk validates and constructs a Chunk, deriving its ID.
func NewChunk(evidenceID, caseID, text string, chunkType ChunkType, position int) (*Chunk, error) {
	if evidenceID == "" || caseID == "" {
		return nil, fmt.Errorf("domain: chunk requires evidence_id and case_id")
	}
	if !chunkType.Valid() {
		return nil, fmt.Errorf("domain: invalid chunk_type %q", chunkType)
	}
	if text == "" {
		return nil, fmt.Errorf("domain: chunk text cannot be empty")
	}
	return &Chunk{
		ID:         DeriveChunkID(evidenceID, chunkType, position, text),
		EvidenceID: evidenceID,
		CaseID:     caseID,
		Text:       text,
		ChunkType:  chunkType,
		Position:   position,
		Metadata:   map[string]string{},
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// EmbeddingSet holds the three named dense vectors for one chunk plus its
// bound chunk ID. The lexical companion entry lives in the lexical store
// keyed by the same chunk ID.
type EmbeddingSet struct {
	ChunkID     string
	SummaryVec  []float32
	SectionVec  []float32
	MicroblockVec []float32
}

// ChunkRecord is the enrichment-time projection of a Chunk the hybrid
// retriever (C3) needs to turn a bare vector/lexical hit back into a
// citable Result. Kept here rather than in internal/retriever so the
// chunk lookup store (C2) and the retriever (C3) can both depend on it
// without an import cycle between them.
type ChunkRecord struct {
	EvidenceID string
	Text       string
	ChunkType  ChunkType
	Page       *int
}

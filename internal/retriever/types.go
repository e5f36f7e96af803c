// Package retriever implements the Hybrid Retriever (C3): query
// preprocessing, parallel dense+sparse fan-out, reciprocal-rank or linear
// fusion, threshold filtering, optional cross-encoder rerank, and result
// enrichment, generalized from pkg/searcher/fusion.go and
// internal/search/engine.go.
package retriever

import (
	"context"
	"time"

	"github.com/legalease-ai/evidence-core/internal/domain"
	"github.com/legalease-ai/evidence-core/internal/vectorstore"
)

// Mode selects which rankers participate in a search.
type Mode string

const (
	ModeHybrid      Mode = "HYBRID"
	ModeDenseOnly   Mode = "DENSE_ONLY"
	ModeLexicalOnly Mode = "LEXICAL_ONLY"
)

// FusionMethod selects how dense and sparse rankings are combined.
type FusionMethod string

const (
	FusionRRF    FusionMethod = "RRF"
	FusionLinear FusionMethod = "LINEAR"
)

// DefaultRRFConstant is the smoothing constant k in the RRF formula
// 1/(k+rank). 60 is the value used throughout the information-retrieval
// literature and the teacher's pkg/searcher/fusion.go default.
const DefaultRRFConstant = 60

// DefaultLinearAlpha weights dense vs sparse equally in LINEAR fusion mode.
// The originating source leaves this unquantified; 0.5 is this repo's
// resolved default, overridable per query via Options.
const DefaultLinearAlpha = 0.5

// DateRange bounds a chunk's evidence creation time, inclusive.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Filters narrows the corpus a query searches over. CaseIDs is enforced
// structurally rather than as a runtime predicate: each Engine is built
// over one case's CaseIndex, so a query can never cross a case boundary;
// the field is carried for API parity with multi-case query handlers that
// may fan out one Engine per requested case.
type Filters struct {
	CaseIDs      []string
	ChunkTypes   []string
	EvidenceType string
	DateRange    *DateRange
}

// Options tunes one search call beyond the defaults.
type Options struct {
	UseRerank    bool
	RerankTopN   int
	Fusion       FusionMethod
	RRFConstant  int
	LinearAlpha  float64
	ScoreThreshold float64
	Highlight    bool
}

// DefaultOptions returns the retriever's resolved defaults.
func DefaultOptions() Options {
	return Options{
		Fusion:      FusionRRF,
		RRFConstant: DefaultRRFConstant,
		LinearAlpha: DefaultLinearAlpha,
		RerankTopN:  100,
	}
}

// Query is the full input to Search.
type Query struct {
	Text    string
	Filters Filters
	TopK    int
	Mode    Mode
	Options Options
}

// Highlight marks a matched span within a result's text.
type Highlight struct {
	Start int
	End   int
}

// Result is one enriched, ranked hit.
type Result struct {
	ChunkID       string
	EvidenceID    string
	Text          string
	ChunkType     string
	Page          *int
	Score         float64
	PreRerankScore float64
	MatchedTerms  []string
	Highlights    []Highlight
	Warning       string
}

// Embedder is the subset of embed.Embedder the retriever depends on for
// query-time dense vectorization.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// Reranker scores (query, text) pairs with a cross-encoder, FEAT-RR1 style.
type Reranker interface {
	Score(ctx context.Context, query string, texts []string) ([]float64, error)
}

// ChunkLookup resolves a chunk ID to its stored text, type, and evidence
// metadata for enrichment and for sparse-search fan-out by space. The chunk
// lookup store (C2, internal/chunkstore) satisfies this directly.
type ChunkLookup interface {
	GetChunk(ctx context.Context, chunkID string) (ChunkRecord, bool)
}

// ChunkRecord is an alias of domain.ChunkRecord, kept as a retriever-local
// name since every caller of this package refers to it that way; defined
// in internal/domain to avoid an import cycle with internal/chunkstore,
// which both C2 (writer) and C3 (this package) depend on.
type ChunkRecord = domain.ChunkRecord

func spaceForChunkType(chunkTypes []string) vectorstore.Space {
	for _, ct := range chunkTypes {
		switch ct {
		case "summary":
			return vectorstore.SpaceSummary
		case "microblock":
			return vectorstore.SpaceMicroblock
		case "section":
			return vectorstore.SpaceSection
		}
	}
	return vectorstore.SpaceSection
}

package retriever

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	evidenceerrors "github.com/legalease-ai/evidence-core/internal/errors"
	"github.com/legalease-ai/evidence-core/internal/indexlifecycle"
	"github.com/legalease-ai/evidence-core/internal/lexstore"
	"github.com/legalease-ai/evidence-core/internal/vectorstore"
)

// minFetchLimit is the floor fetchLimit is raised to regardless of top_k,
// carried from pkg/searcher/fusion.go's hybridSearch (`fetchLimit < 20`).
const minFetchLimit = 20

// Engine answers hybrid search queries over one case-scoped collection.
type Engine struct {
	index    *indexlifecycle.CaseIndex
	embedder Embedder
	lookup   ChunkLookup
	reranker Reranker
}

// Option configures an Engine.
type Option func(*Engine)

// WithReranker attaches a cross-encoder reranker, exercised only when a
// query sets Options.UseRerank.
func WithReranker(r Reranker) Option {
	return func(e *Engine) { e.reranker = r }
}

// New builds an Engine over one collection's dual store.
func New(index *indexlifecycle.CaseIndex, embedder Embedder, lookup ChunkLookup, opts ...Option) *Engine {
	e := &Engine{index: index, embedder: embedder, lookup: lookup}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search runs the full retrieval pipeline: preprocessing, parallel
// dense+sparse fan-out, fusion, threshold filter, optional rerank, and
// enrichment.
func (e *Engine) Search(ctx context.Context, q Query) ([]Result, error) {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return nil, &evidenceerrors.ValidationError{Field: "query", Message: "query text must not be empty"}
	}
	if q.TopK <= 0 {
		q.TopK = 20
	}
	if q.TopK > 1000 {
		q.TopK = 1000
	}
	opts := q.Options
	if opts.Fusion == "" {
		opts.Fusion = FusionRRF
	}
	if opts.RRFConstant == 0 {
		opts.RRFConstant = DefaultRRFConstant
	}
	if opts.LinearAlpha == 0 {
		opts.LinearAlpha = DefaultLinearAlpha
	}

	canonical, _ := preprocessQuery(text)

	fetchLimit := q.TopK * 2
	if fetchLimit < minFetchLimit {
		fetchLimit = minFetchLimit
	}

	var (
		dense   []*vectorstore.VectorResult
		sparse  []lexstore.Result
		denseErr, sparseErr error
		warning string
	)

	switch q.Mode {
	case ModeDenseOnly:
		dense, denseErr = e.searchDense(ctx, canonical, q.Filters, fetchLimit)
		if denseErr != nil {
			return nil, &evidenceerrors.FatalBackendError{Message: "dense search failed", Cause: denseErr}
		}
	case ModeLexicalOnly:
		sparse, sparseErr = e.searchSparse(ctx, canonical, fetchLimit)
		if sparseErr != nil {
			return nil, &evidenceerrors.FatalBackendError{Message: "lexical search failed", Cause: sparseErr}
		}
	default: // ModeHybrid
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			dense, denseErr = e.searchDense(gctx, canonical, q.Filters, fetchLimit)
			return nil
		})
		g.Go(func() error {
			sparse, sparseErr = e.searchSparse(gctx, canonical, fetchLimit)
			return nil
		})
		_ = g.Wait()

		if denseErr != nil && sparseErr != nil {
			return nil, &evidenceerrors.FatalBackendError{
				Message: fmt.Sprintf("all rankers failed: dense: %v, sparse: %v", denseErr, sparseErr),
			}
		}
		if denseErr != nil {
			slog.Warn("retriever: dense ranker degraded", slog.String("error", denseErr.Error()))
			warning = "dense search unavailable; results are lexical-only"
		}
		if sparseErr != nil {
			slog.Warn("retriever: sparse ranker degraded", slog.String("error", sparseErr.Error()))
			warning = "lexical search unavailable; results are dense-only"
		}
	}

	var combined []fused
	if opts.Fusion == FusionLinear {
		combined = fuseLinear(dense, sparse, opts.LinearAlpha)
	} else {
		combined = fuseRRF(dense, sparse, opts.RRFConstant)
	}

	if opts.ScoreThreshold > 0 {
		combined = filterThreshold(combined, opts.ScoreThreshold)
	}

	if opts.UseRerank && e.reranker != nil {
		topN := opts.RerankTopN
		if topN <= 0 {
			topN = 100
		}
		var err error
		combined, err = e.rerank(ctx, canonical, combined, topN)
		if err != nil {
			slog.Warn("retriever: rerank failed, keeping fused order", slog.String("error", err.Error()))
		}
	}

	if len(combined) > q.TopK {
		combined = combined[:q.TopK]
	}

	results := e.enrich(combined, q.Filters, opts.Highlight, canonical)
	if warning != "" {
		for i := range results {
			results[i].Warning = warning
		}
	}
	return results, nil
}

func (e *Engine) searchDense(ctx context.Context, query string, filters Filters, limit int) ([]*vectorstore.VectorResult, error) {
	vec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("retriever: embed query: %w", err)
	}
	space := spaceForChunkType(filters.ChunkTypes)
	store, err := e.index.Vectors.Get(space)
	if err != nil {
		return nil, err
	}
	return store.Search(ctx, vec, limit)
}

func (e *Engine) searchSparse(ctx context.Context, query string, limit int) ([]lexstore.Result, error) {
	return e.index.Lexical.Search(ctx, query, limit)
}

func filterThreshold(in []fused, threshold float64) []fused {
	out := in[:0:0]
	for _, f := range in {
		if f.Score >= threshold {
			out = append(out, f)
		}
	}
	return out
}

func (e *Engine) rerank(ctx context.Context, query string, in []fused, topN int) ([]fused, error) {
	if len(in) == 0 {
		return in, nil
	}
	head := in
	tail := []fused(nil)
	if len(in) > topN {
		head = in[:topN]
		tail = in[topN:]
	}

	texts := make([]string, len(head))
	for i, f := range head {
		if e.lookup != nil {
			if rec, ok := e.lookup.GetChunk(ctx, f.ID); ok {
				texts[i] = rec.Text
			}
		}
	}
	scores, err := e.reranker.Score(ctx, query, texts)
	if err != nil {
		return in, err
	}
	if len(scores) != len(head) {
		return in, fmt.Errorf("retriever: reranker returned %d scores for %d candidates", len(scores), len(head))
	}
	for i := range head {
		head[i].Score = scores[i]
	}
	sort.Slice(head, func(i, j int) bool {
		if head[i].Score != head[j].Score {
			return head[i].Score > head[j].Score
		}
		return head[i].ID < head[j].ID
	})
	return append(head, tail...), nil
}

func (e *Engine) enrich(in []fused, filters Filters, highlight bool, canonicalQuery string) []Result {
	out := make([]Result, 0, len(in))
	for _, f := range in {
		r := Result{
			ChunkID:      f.ID,
			Score:        f.Score,
			PreRerankScore: f.Score,
			MatchedTerms: f.MatchedTerms,
		}
		if e.lookup != nil {
			if rec, ok := e.lookup.GetChunk(context.Background(), f.ID); ok {
				r.EvidenceID = rec.EvidenceID
				r.Text = rec.Text
				r.ChunkType = string(rec.ChunkType)
				r.Page = rec.Page
			}
		}
		if highlight {
			r.Highlights = findHighlights(r.Text, canonicalQuery)
		}
		out = append(out, r)
	}
	return out
}

func findHighlights(text, query string) []Highlight {
	if text == "" || query == "" {
		return nil
	}
	lowerText := strings.ToLower(text)
	var hits []Highlight
	for _, term := range strings.Fields(strings.ToLower(query)) {
		if term == "" {
			continue
		}
		start := 0
		for {
			idx := strings.Index(lowerText[start:], term)
			if idx < 0 {
				break
			}
			abs := start + idx
			hits = append(hits, Highlight{Start: abs, End: abs + len(term)})
			start = abs + len(term)
		}
	}
	return hits
}

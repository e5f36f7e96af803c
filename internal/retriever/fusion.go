package retriever

import (
	"math"
	"sort"

	"github.com/legalease-ai/evidence-core/internal/lexstore"
	"github.com/legalease-ai/evidence-core/internal/vectorstore"
)

type fused struct {
	ID           string
	Score        float64
	MatchedTerms []string
	InBoth       bool
}

// fuseRRF applies Reciprocal Rank Fusion: score(d) = Σ 1/(k+rank) across
// whichever rankers produced a hit, generalized from
// pkg/searcher/fusion.go's fuseResults.
func fuseRRF(dense []*vectorstore.VectorResult, sparse []lexstore.Result, k int) []fused {
	scores := make(map[string]*fused)

	for rank, r := range sparse {
		scores[r.DocID] = &fused{
			ID:           r.DocID,
			Score:        1.0 / float64(k+rank+1),
			MatchedTerms: r.MatchedTerms,
		}
	}
	for rank, r := range dense {
		rrf := 1.0 / float64(k+rank+1)
		if existing, ok := scores[r.ID]; ok {
			existing.Score += rrf
			existing.InBoth = true
		} else {
			scores[r.ID] = &fused{ID: r.ID, Score: rrf}
		}
	}

	return sortedFused(scores)
}

// fuseLinear applies α·z(dense) + (1-α)·z(sparse) with z-score
// normalization of each ranker's raw scores before combining, the
// alternative fusion mode named in the retriever's operation contract.
func fuseLinear(dense []*vectorstore.VectorResult, sparse []lexstore.Result, alpha float64) []fused {
	denseZ := zScoreDense(dense)
	sparseZ := zScoreSparse(sparse)

	scores := make(map[string]*fused)
	for id, z := range sparseZ {
		scores[id] = &fused{ID: id, Score: (1 - alpha) * z}
	}
	for id, z := range denseZ {
		if existing, ok := scores[id]; ok {
			existing.Score += alpha * z
			existing.InBoth = true
		} else {
			scores[id] = &fused{ID: id, Score: alpha * z}
		}
	}
	// Attach matched terms from the sparse leg, the only ranker that
	// carries them.
	for _, r := range sparse {
		if f, ok := scores[r.DocID]; ok {
			f.MatchedTerms = r.MatchedTerms
		}
	}
	return sortedFused(scores)
}

func zScoreDense(results []*vectorstore.VectorResult) map[string]float64 {
	if len(results) == 0 {
		return nil
	}
	raw := make([]float64, len(results))
	for i, r := range results {
		raw[i] = float64(r.Score)
	}
	mean, std := meanStd(raw)
	out := make(map[string]float64, len(results))
	for i, r := range results {
		out[r.ID] = zScore(raw[i], mean, std)
	}
	return out
}

func zScoreSparse(results []lexstore.Result) map[string]float64 {
	if len(results) == 0 {
		return nil
	}
	raw := make([]float64, len(results))
	for i, r := range results {
		raw[i] = r.Score
	}
	mean, std := meanStd(raw)
	out := make(map[string]float64, len(results))
	for i, r := range results {
		out[r.DocID] = zScore(raw[i], mean, std)
	}
	return out
}

func meanStd(xs []float64) (mean, std float64) {
	n := float64(len(xs))
	for _, x := range xs {
		mean += x
	}
	mean /= n
	for _, x := range xs {
		std += (x - mean) * (x - mean)
	}
	std = math.Sqrt(std / n)
	return mean, std
}

func zScore(x, mean, std float64) float64 {
	if std == 0 {
		return 0
	}
	return (x - mean) / std
}

// sortedFused orders by score descending, tie-breaking on ID to give a
// total order given deterministic tie-breaks.
func sortedFused(scores map[string]*fused) []fused {
	out := make([]fused, 0, len(scores))
	for _, f := range scores {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	return out
}

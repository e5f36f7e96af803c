package correlation

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/legalease-ai/evidence-core/internal/domain"
)

// similarityThreshold is the cosine-similarity floor for two claims to be
// considered near-equivalent candidates for contradiction.
const similarityThreshold = 0.82

// negationMarkers is the small marker-word list used to detect polarity
// mismatches between two otherwise near-equivalent claims.
var negationMarkers = []string{"not", "never", "no longer", "did not", "didn't", "wasn't", "isn't", "cannot", "can't", "denies", "denied"}

var datePattern = regexp.MustCompile(`\b(\d{1,2}/\d{1,2}/\d{2,4}|\d{4}-\d{2}-\d{2}|January|February|March|April|May|June|July|August|September|October|November|December)\s*\d{0,2},?\s*\d{0,4}\b`)

func extractDates(text string) []string {
	matches := datePattern.FindAllString(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.ToLower(strings.TrimSpace(m)))
	}
	return out
}

func hasNegation(text string) bool {
	lower := strings.ToLower(text)
	for _, m := range negationMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// predicateIncompatible reports whether two near-equivalent claims assert
// incompatible predicates: disjoint extracted dates, or one negates and
// the other doesn't.
func predicateIncompatible(a, b string) bool {
	if hasNegation(a) != hasNegation(b) {
		return true
	}
	da, db := extractDates(a), extractDates(b)
	if len(da) == 0 || len(db) == 0 {
		return false
	}
	for _, x := range da {
		for _, y := range db {
			if x == y {
				return false
			}
		}
	}
	return true
}

func entitySetsOverlap(a, b []string) bool {
	set := make(map[string]struct{}, len(a))
	for _, e := range a {
		set[domain.CanonicalLabel(e)] = struct{}{}
	}
	for _, e := range b {
		if _, ok := set[domain.CanonicalLabel(e)]; ok {
			return true
		}
	}
	return false
}

// cosineSimilarity computes cosine similarity between two embedding
// vectors, 0 if dimensions mismatch or either is empty.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// detectContradictions embeds each finding's claim text once and compares
// every pair of findings whose entity sets overlap; a pair whose claims
// are near-equivalent (cosine ≥ similarityThreshold) but predicate-
// incompatible is flagged as a contradiction.
func detectContradictions(ctx context.Context, embedder Embedder, caseID string, findings []*domain.Finding) ([]Contradiction, error) {
	embeddings := make([][]float32, len(findings))
	for i, f := range findings {
		vec, err := embedder.Embed(ctx, f.Text)
		if err != nil {
			return nil, fmt.Errorf("correlation: embed finding %s: %w", f.ID, err)
		}
		embeddings[i] = vec
	}

	var out []Contradiction
	for i := 0; i < len(findings); i++ {
		for j := i + 1; j < len(findings); j++ {
			a, b := findings[i], findings[j]
			if !entitySetsOverlap(a.Entities, b.Entities) {
				continue
			}
			sim := cosineSimilarity(embeddings[i], embeddings[j])
			if sim < similarityThreshold {
				continue
			}
			if !predicateIncompatible(a.Text, b.Text) {
				continue
			}
			citationCount := len(a.Citations)
			if len(b.Citations) > citationCount {
				citationCount = len(b.Citations)
			}
			out = append(out, Contradiction{
				ID:         uuid.NewString(),
				CaseID:     caseID,
				FindingAID: a.ID,
				FindingBID: b.ID,
				Similarity: sim,
				Severity:   severityForCitationCount(citationCount),
			})
		}
	}
	return out, nil
}

// contradictionRelationships projects each detected Contradiction onto the
// knowledge graph as a contradicts edge between the two findings' primary
// cited documents (resolved against the node IDs buildGraph already
// assigned those documents), so graph consumers can see the conflict
// without re-running detection.
func contradictionRelationships(caseID string, contradictions []Contradiction, findings []*domain.Finding, docNodeByEvidence map[string]string) []*domain.GraphRelationship {
	byID := make(map[string]*domain.Finding, len(findings))
	for _, f := range findings {
		byID[f.ID] = f
	}

	docNodeID := func(f *domain.Finding) (string, bool) {
		if f == nil || len(f.Citations) == 0 {
			return "", false
		}
		id, ok := docNodeByEvidence[f.Citations[0].EvidenceID]
		return id, ok
	}

	var out []*domain.GraphRelationship
	for _, c := range contradictions {
		aDoc, aok := docNodeID(byID[c.FindingAID])
		bDoc, bok := docNodeID(byID[c.FindingBID])
		if !aok || !bok {
			continue
		}
		out = append(out, &domain.GraphRelationship{
			ID:       uuid.NewString(),
			CaseID:   caseID,
			SourceID: aDoc,
			TargetID: bDoc,
			Type:     domain.RelContradicts,
			Properties: map[string]string{
				"finding_a": c.FindingAID,
				"finding_b": c.FindingBID,
				"severity":  string(c.Severity),
			},
		})
	}
	return out
}

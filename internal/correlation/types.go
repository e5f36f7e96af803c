// Package correlation implements the Correlation Engine (C7): synthesis of
// a research run's findings into a knowledge graph, a chronological
// timeline, flagged contradictions, and recurring patterns. It runs as the
// activity behind the orchestrator's CORRELATION phase, after the parallel
// ANALYZING fan-out has joined.
package correlation

import (
	"context"

	"github.com/legalease-ai/evidence-core/internal/domain"
)

// Embedder resolves claim text to a dense vector for contradiction
// detection's similarity check. internal/embed.Embedder satisfies this
// directly; correlation only needs the single-text path.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Severity tiers a Contradiction by how central the contradicted claim is.
type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// severityForCitationCount maps a citation count to a severity tier:
// 1 citation is LOW, 2-3 is MEDIUM, 4+ is HIGH.
func severityForCitationCount(n int) Severity {
	switch {
	case n >= 4:
		return SeverityHigh
	case n >= 2:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Contradiction is a pair of findings whose claims are semantically
// near-equivalent but assert incompatible predicates.
type Contradiction struct {
	ID          string
	CaseID      string
	FindingAID  string
	FindingBID  string
	Similarity  float64
	Severity    Severity
}

// Pattern is a recurring grouping of findings: by finding type, by time
// co-location, or by shared participants.
type Pattern struct {
	ID          string
	CaseID      string
	Kind        string
	Description string
	FindingIDs  []string
}

// Result is the full synthesis output of one Correlate call.
type Result struct {
	AllFindings        []*domain.Finding
	GraphNodes         []*domain.GraphNode
	GraphRelationships []*domain.GraphRelationship
	Timeline           []domain.TimelineEvent
	Contradictions     []Contradiction
	Patterns           []Pattern
}

// Engine runs the four correlation sub-algorithms over one research run's
// findings.
type Engine struct {
	embedder Embedder
}

// New builds an Engine. embedder is optional; a nil embedder disables
// contradiction detection (the rest of the synthesis still runs).
func New(embedder Embedder) *Engine {
	return &Engine{embedder: embedder}
}

// Correlate synthesizes the knowledge graph, timeline, contradictions, and
// patterns for one case's findings.
func (e *Engine) Correlate(ctx context.Context, caseID string, findings []*domain.Finding) (*Result, error) {
	nodes, rels, docNodeByEvidence := buildGraph(caseID, findings)
	timeline := assembleTimeline(caseID, findings)

	var contradictions []Contradiction
	if e.embedder != nil {
		var err error
		contradictions, err = detectContradictions(ctx, e.embedder, caseID, findings)
		if err != nil {
			return nil, err
		}
		rels = append(rels, contradictionRelationships(caseID, contradictions, findings, docNodeByEvidence)...)
	}

	patterns := detectPatterns(caseID, findings)

	return &Result{
		AllFindings:        findings,
		GraphNodes:         nodes,
		GraphRelationships: rels,
		Timeline:           timeline,
		Contradictions:     contradictions,
		Patterns:           patterns,
	}, nil
}

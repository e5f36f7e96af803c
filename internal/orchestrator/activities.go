package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/legalease-ai/evidence-core/internal/correlation"
	"github.com/legalease-ai/evidence-core/internal/domain"
	"github.com/legalease-ai/evidence-core/internal/governor"
	"github.com/legalease-ai/evidence-core/internal/indexlifecycle"
	"github.com/legalease-ai/evidence-core/internal/metadata"
	"github.com/legalease-ai/evidence-core/internal/retriever"
)

// RetrieverProvider resolves a case- and collection-scoped retriever.Engine
// without this package owning index lifecycle, the same collaborator seam
// internal/queryhandlers uses for its search handler.
type RetrieverProvider interface {
	Engine(ctx context.Context, caseID string, collection indexlifecycle.Collection) (*retriever.Engine, error)
}

// Throttle gates LLM-adjacent work (the fan-out search/analysis calls and
// the narrative generation phases) behind the Resource Governor so a
// research run never exceeds the operator's configured concurrency.
// internal/governor.Semaphore satisfies this directly; a nil Throttle
// disables gating entirely (useful in tests).
type Throttle interface {
	Acquire(ctx context.Context, blocking bool, timeout time.Duration) (*governor.LeaseToken, error)
}

// ActivityDeps bundles the collaborators concrete activities are built
// from. NewActivities wires them into the Activities struct the Workflow
// drives.
type ActivityDeps struct {
	Store       *metadata.Store
	Retrieve    RetrieverProvider
	Correlation *correlation.Engine
	Throttle    Throttle
}

func (d ActivityDeps) withPermit(ctx context.Context, fn func(context.Context) error) error {
	if d.Throttle == nil {
		return fn(ctx)
	}
	lease, err := d.Throttle.Acquire(ctx, true, 2*time.Minute)
	if err != nil {
		return fmt.Errorf("orchestrator: acquire governor permit: %w", err)
	}
	defer lease.Release(ctx)
	return fn(ctx)
}

// NewActivities builds the nine research-phase activities from deps.
func NewActivities(deps ActivityDeps) Activities {
	return Activities{
		Initialize:            deps.initialize,
		Index:                 deps.indexPhase,
		Search:                deps.search,
		AnalyzeDocuments:      deps.analyzeCollection(indexlifecycle.CollectionDocuments, domain.EvidenceTypeDocument),
		AnalyzeTranscripts:    deps.analyzeCollection(indexlifecycle.CollectionTranscripts, domain.EvidenceTypeTranscript),
		AnalyzeCommunications: deps.analyzeCollection(indexlifecycle.CollectionCommunications, domain.EvidenceTypeCommunication),
		Correlate:             deps.correlate,
		HypothesisGeneration:  deps.hypothesisGeneration,
		DossierGeneration:     deps.dossierGeneration,
	}
}

// initialize validates the case this run targets exists before any work
// against it begins.
func (d ActivityDeps) initialize(ctx context.Context, run *domain.ResearchRun) error {
	if _, err := d.Store.GetCase(ctx, run.CaseID); err != nil {
		return fmt.Errorf("orchestrator: initialize run %s: %w", run.ID, err)
	}
	return nil
}

// indexPhase is a readiness gate: it resolves the per-collection
// retrievers the rest of the workflow needs, surfacing any index problem
// early rather than mid-analysis.
func (d ActivityDeps) indexPhase(ctx context.Context, run *domain.ResearchRun) error {
	for _, col := range []indexlifecycle.Collection{
		indexlifecycle.CollectionDocuments,
		indexlifecycle.CollectionTranscripts,
		indexlifecycle.CollectionCommunications,
	} {
		if _, err := d.Retrieve.Engine(ctx, run.CaseID, col); err != nil {
			return fmt.Errorf("orchestrator: index phase resolve %s: %w", col, err)
		}
	}
	return nil
}

// search runs a broad cross-collection hybrid search over the run's query
// and persists the hits as low-confidence seed findings; the per-type
// analysis activities deepen these in parallel.
func (d ActivityDeps) search(ctx context.Context, run *domain.ResearchRun) error {
	if run.Query == "" {
		return nil
	}
	return d.withPermit(ctx, func(ctx context.Context) error {
		var findings []*domain.Finding
		for _, col := range []indexlifecycle.Collection{
			indexlifecycle.CollectionDocuments,
			indexlifecycle.CollectionTranscripts,
			indexlifecycle.CollectionCommunications,
		} {
			eng, err := d.Retrieve.Engine(ctx, run.CaseID, col)
			if err != nil {
				return fmt.Errorf("orchestrator: search resolve %s: %w", col, err)
			}
			results, err := eng.Search(ctx, retriever.Query{
				Text:  run.Query,
				TopK:  10,
				Mode:  retriever.ModeHybrid,
				Options: retriever.DefaultOptions(),
			})
			if err != nil {
				return fmt.Errorf("orchestrator: search %s: %w", col, err)
			}
			findings = append(findings, findingsFromResults(run.ID, domain.FindingTypeFact, results, 0.4)...)
		}
		if len(findings) == 0 {
			return nil
		}
		if err := d.Store.SaveFindings(ctx, findings); err != nil {
			return fmt.Errorf("orchestrator: save seed findings: %w", err)
		}
		run.FindingIDs = append(run.FindingIDs, findingIDs(findings)...)
		return nil
	})
}

// analyzeCollection returns an Activity that deepens the seed search
// within one evidence-type collection, promoting its hits to higher-
// confidence QUOTE findings tagged by collection.
func (d ActivityDeps) analyzeCollection(col indexlifecycle.Collection, evidenceType domain.EvidenceType) Activity {
	return func(ctx context.Context, run *domain.ResearchRun) error {
		if run.Query == "" {
			return nil
		}
		return d.withPermit(ctx, func(ctx context.Context) error {
			eng, err := d.Retrieve.Engine(ctx, run.CaseID, col)
			if err != nil {
				return fmt.Errorf("orchestrator: analyze %s resolve engine: %w", col, err)
			}
			opts := retriever.DefaultOptions()
			opts.UseRerank = true
			results, err := eng.Search(ctx, retriever.Query{
				Text:    run.Query,
				TopK:    20,
				Mode:    retriever.ModeHybrid,
				Options: opts,
			})
			if err != nil {
				return fmt.Errorf("orchestrator: analyze %s search: %w", col, err)
			}
			findings := findingsFromResults(run.ID, domain.FindingTypeQuote, results, 0.7)
			for _, f := range findings {
				f.Tags = append(f.Tags, string(evidenceType))
			}
			if len(findings) == 0 {
				return nil
			}
			if err := d.Store.SaveFindings(ctx, findings); err != nil {
				return fmt.Errorf("orchestrator: save %s findings: %w", col, err)
			}
			run.FindingIDs = append(run.FindingIDs, findingIDs(findings)...)
			return nil
		})
	}
}

// correlate loads every finding this run has produced so far and runs the
// Correlation Engine over them, persisting the resulting graph and
// timeline back to the system of record.
func (d ActivityDeps) correlate(ctx context.Context, run *domain.ResearchRun) error {
	if d.Correlation == nil {
		return nil
	}
	findings, err := d.Store.GetFindingsByRun(ctx, run.ID, metadata.GetFindingsFilter{})
	if err != nil {
		return fmt.Errorf("orchestrator: correlate load findings: %w", err)
	}
	if len(findings) == 0 {
		return nil
	}

	result, err := d.Correlation.Correlate(ctx, run.CaseID, findings)
	if err != nil {
		return fmt.Errorf("orchestrator: correlate: %w", err)
	}

	if len(result.GraphNodes) > 0 {
		if err := d.Store.SaveGraphNodes(ctx, result.GraphNodes); err != nil {
			return fmt.Errorf("orchestrator: save graph nodes: %w", err)
		}
	}
	if len(result.GraphRelationships) > 0 {
		if err := d.Store.SaveGraphRelationships(ctx, result.GraphRelationships); err != nil {
			return fmt.Errorf("orchestrator: save graph relationships: %w", err)
		}
	}
	if len(result.Timeline) > 0 {
		if err := d.Store.SaveTimelineEvents(ctx, result.Timeline); err != nil {
			return fmt.Errorf("orchestrator: save timeline: %w", err)
		}
	}

	contradictionFindings := findingsFromContradictions(run.ID, findings, result.Contradictions)
	patternFindings := findingsFromPatterns(run.ID, result.Patterns)
	extra := append(contradictionFindings, patternFindings...)
	if len(extra) > 0 {
		if err := d.Store.SaveFindings(ctx, extra); err != nil {
			return fmt.Errorf("orchestrator: save contradiction/pattern findings: %w", err)
		}
		run.FindingIDs = append(run.FindingIDs, findingIDs(extra)...)
	}
	return nil
}

// hypothesisGeneration synthesizes a small set of defense-theory-relevant
// hypotheses from the confirmed contradictions and patterns, each backed
// by the citations of the findings that produced it.
func (d ActivityDeps) hypothesisGeneration(ctx context.Context, run *domain.ResearchRun) error {
	return d.withPermit(ctx, func(ctx context.Context) error {
		findings, err := d.Store.GetFindingsByRun(ctx, run.ID, metadata.GetFindingsFilter{
			FindingTypes: []domain.FindingType{domain.FindingTypeContradiction, domain.FindingTypePattern},
		})
		if err != nil {
			return fmt.Errorf("orchestrator: hypothesis generation load findings: %w", err)
		}
		if len(findings) == 0 {
			return nil
		}

		summary := "Defense theory hypotheses:\n"
		for _, f := range findings {
			summary += "- " + f.Text + "\n"
		}
		hyp, err := domain.NewFinding(uuid.NewString(), run.ID, domain.FindingTypeFact, summary, 0.6, 0.9)
		if err != nil {
			return fmt.Errorf("orchestrator: build hypothesis finding: %w", err)
		}
		hyp.Tags = []string{"hypothesis"}
		for _, f := range findings {
			hyp.Citations = append(hyp.Citations, f.Citations...)
		}

		if err := d.Store.SaveFindings(ctx, []*domain.Finding{hyp}); err != nil {
			return fmt.Errorf("orchestrator: save hypothesis finding: %w", err)
		}
		run.FindingIDs = append(run.FindingIDs, hyp.ID)
		return nil
	})
}

// dossierGeneration assembles the run's findings, timeline, and
// contradictions into sectioned narrative and persists the final report.
func (d ActivityDeps) dossierGeneration(ctx context.Context, run *domain.ResearchRun) error {
	return d.withPermit(ctx, func(ctx context.Context) error {
		findings, err := d.Store.GetFindingsByRun(ctx, run.ID, metadata.GetFindingsFilter{})
		if err != nil {
			return fmt.Errorf("orchestrator: dossier load findings: %w", err)
		}
		timeline, err := d.Store.GetTimelineByCase(ctx, run.CaseID, metadata.GetTimelineFilter{})
		if err != nil {
			return fmt.Errorf("orchestrator: dossier load timeline: %w", err)
		}

		sections, citations, wordCount := dossierSections(findings, timeline)
		dossier := &domain.Dossier{
			ID:                uuid.NewString(),
			ResearchRunID:     run.ID,
			ExecutiveSummary:  dossierExecutiveSummary(run, findings),
			Sections:          sections,
			CitationsAppendix: citations,
			GeneratedAt:       time.Now().UTC(),
			WordCount:         wordCount,
		}
		if err := d.Store.SaveDossier(ctx, dossier); err != nil {
			return fmt.Errorf("orchestrator: save dossier: %w", err)
		}
		return nil
	})
}

func dossierExecutiveSummary(run *domain.ResearchRun, findings []*domain.Finding) string {
	return fmt.Sprintf("Research run %s produced %d findings for query %q.", run.ID, len(findings), run.Query)
}

func dossierSections(findings []*domain.Finding, timeline []domain.TimelineEvent) ([]domain.DossierSection, []domain.Citation, int) {
	var facts, quotes, hypotheses []string
	var citations []domain.Citation
	for _, f := range findings {
		citations = append(citations, f.Citations...)
		switch {
		case hasTag(f.Tags, "hypothesis"):
			hypotheses = append(hypotheses, f.Text)
		case f.FindingType == domain.FindingTypeQuote:
			quotes = append(quotes, f.Text)
		default:
			facts = append(facts, f.Text)
		}
	}

	var timelineLines []string
	for _, e := range timeline {
		timelineLines = append(timelineLines, fmt.Sprintf("%s: %s", e.Timestamp.Format(time.RFC3339), e.Description))
	}

	sections := []domain.DossierSection{
		{Title: "Key Facts", Content: strings.Join(facts, "\n"), Order: 0},
		{Title: "Supporting Quotes", Content: strings.Join(quotes, "\n"), Order: 1},
		{Title: "Chronology", Content: strings.Join(timelineLines, "\n"), Order: 2},
		{Title: "Hypotheses", Content: strings.Join(hypotheses, "\n"), Order: 3},
	}

	wordCount := 0
	for _, s := range sections {
		wordCount += len(strings.Fields(s.Content))
	}
	return sections, citations, wordCount
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func findingsFromResults(runID string, typ domain.FindingType, results []retriever.Result, relevance float64) []*domain.Finding {
	out := make([]*domain.Finding, 0, len(results))
	for _, r := range results {
		confidence := r.Score
		if confidence > 1 {
			confidence = 1
		}
		if confidence < 0 {
			confidence = 0
		}
		f, err := domain.NewFinding(uuid.NewString(), runID, typ, r.Text, confidence, relevance)
		if err != nil {
			continue
		}
		f.Citations = []domain.Citation{{ChunkID: r.ChunkID, EvidenceID: r.EvidenceID}}
		out = append(out, f)
	}
	return out
}

func findingsFromContradictions(runID string, source []*domain.Finding, contradictions []correlation.Contradiction) []*domain.Finding {
	byID := make(map[string]*domain.Finding, len(source))
	for _, f := range source {
		byID[f.ID] = f
	}
	out := make([]*domain.Finding, 0, len(contradictions))
	for _, c := range contradictions {
		a, b := byID[c.FindingAID], byID[c.FindingBID]
		if a == nil || b == nil {
			continue
		}
		text := fmt.Sprintf("Contradiction (%s severity): %q vs %q", c.Severity, a.Text, b.Text)
		f, err := domain.NewFinding(uuid.NewString(), runID, domain.FindingTypeContradiction, text, c.Similarity, 0.8)
		if err != nil {
			continue
		}
		f.Entities = append(append([]string{}, a.Entities...), b.Entities...)
		f.Citations = append(append([]domain.Citation{}, a.Citations...), b.Citations...)
		f.Tags = []string{string(c.Severity)}
		out = append(out, f)
	}
	return out
}

func findingsFromPatterns(runID string, patterns []correlation.Pattern) []*domain.Finding {
	out := make([]*domain.Finding, 0, len(patterns))
	for _, p := range patterns {
		f, err := domain.NewFinding(uuid.NewString(), runID, domain.FindingTypePattern, p.Description, 0.5, 0.6)
		if err != nil {
			continue
		}
		f.Tags = []string{p.Kind}
		out = append(out, f)
	}
	return out
}

func findingIDs(findings []*domain.Finding) []string {
	out := make([]string, 0, len(findings))
	for _, f := range findings {
		out = append(out, f.ID)
	}
	return out
}

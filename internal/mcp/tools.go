package mcp

import (
	"time"

	"github.com/legalease-ai/evidence-core/internal/domain"
	"github.com/legalease-ai/evidence-core/internal/retriever"
)

// Default and bound values for paginated/limited tool inputs, mirrored
// from the query handlers' own Validate() bounds.
const (
	defaultSearchLimit = 10
	minSearchLimit     = 1
	maxSearchLimit     = 50

	defaultListLimit = 20
	minListLimit     = 1
	maxListLimit     = 1000
)

// SearchEvidenceInput is the search_evidence tool's input.
type SearchEvidenceInput struct {
	CaseID     string   `json:"case_id" jsonschema:"the case this search is scoped to"`
	Collection string   `json:"collection,omitempty"`
	Query      string   `json:"query" jsonschema:"the natural-language search query"`
	ChunkTypes []string `json:"chunk_types,omitempty"`
	Limit      int      `json:"limit,omitempty"`
	Mode       string   `json:"mode,omitempty" jsonschema:"HYBRID, DENSE_ONLY, or LEXICAL_ONLY"`
	UseRerank  bool     `json:"use_rerank,omitempty"`
}

// SearchResultOutput is one ranked, enriched hit returned by search_evidence.
type SearchResultOutput struct {
	ChunkID      string   `json:"chunk_id"`
	EvidenceID   string   `json:"evidence_id"`
	Text         string   `json:"text"`
	ChunkType    string   `json:"chunk_type"`
	Page         *int     `json:"page,omitempty"`
	Score        float64  `json:"score"`
	MatchedTerms []string `json:"matched_terms,omitempty"`
	MatchReason  string   `json:"match_reason"`
}

// SearchEvidenceOutput is the search_evidence tool's output.
type SearchEvidenceOutput struct {
	Results []SearchResultOutput `json:"results"`
}

func toRetrieverMode(mode string) retriever.Mode {
	switch mode {
	case "DENSE_ONLY":
		return retriever.ModeDenseOnly
	case "LEXICAL_ONLY":
		return retriever.ModeLexicalOnly
	default:
		return retriever.ModeHybrid
	}
}

// StartResearchInput is the start_research tool's input.
type StartResearchInput struct {
	CaseID        string `json:"case_id"`
	Query         string `json:"query"`
	DefenseTheory string `json:"defense_theory,omitempty"`
}

// StartResearchOutput is the start_research tool's output.
type StartResearchOutput struct {
	ResearchRunID string `json:"research_run_id"`
	Status        string `json:"status"`
}

// ResearchRunControlInput identifies a run for the cancel/pause/resume tools.
type ResearchRunControlInput struct {
	ResearchRunID string `json:"research_run_id"`
}

// ResearchRunControlOutput reports whether the signal was delivered to an
// in-process workflow. Ok is false when no live workflow is tracked for the
// run (it may already be terminal, or resume failed to reload it).
type ResearchRunControlOutput struct {
	Ok bool `json:"ok"`
}

// GetResearchStatusInput is the get_research_status tool's input.
type GetResearchStatusInput struct {
	ResearchRunID string `json:"research_run_id"`
}

// GetResearchStatusOutput is the get_research_status tool's output.
type GetResearchStatusOutput struct {
	ResearchRunID string   `json:"research_run_id"`
	Status        string   `json:"status"`
	Phase         string   `json:"phase"`
	ProgressPct   float64  `json:"progress_pct"`
	Errors        []string `json:"errors,omitempty"`
}

// ListResearchRunsInput is the list_research_runs tool's input.
type ListResearchRunsInput struct {
	CaseID string `json:"case_id"`
	Status string `json:"status,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// ResearchRunOutput is one run in a list_research_runs response.
type ResearchRunOutput struct {
	ResearchRunID string    `json:"research_run_id"`
	CaseID        string    `json:"case_id"`
	Query         string    `json:"query"`
	Status        string    `json:"status"`
	Phase         string    `json:"phase"`
	StartedAt     time.Time `json:"started_at"`
}

// ListResearchRunsOutput is the list_research_runs tool's output.
type ListResearchRunsOutput struct {
	Runs []ResearchRunOutput `json:"runs"`
}

// GetFindingsInput is the get_findings tool's input.
type GetFindingsInput struct {
	ResearchRunID string   `json:"research_run_id"`
	FindingTypes  []string `json:"finding_types,omitempty"`
	MinConfidence float64  `json:"min_confidence,omitempty"`
	MinRelevance  float64  `json:"min_relevance,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	Limit         int      `json:"limit,omitempty"`
	Offset        int      `json:"offset,omitempty"`
}

// CitationOutput is a Finding or TimelineEvent's reference back to source
// evidence.
type CitationOutput struct {
	ChunkID     string `json:"chunk_id"`
	EvidenceID  string `json:"evidence_id"`
	StartOffset int    `json:"start_offset,omitempty"`
	EndOffset   int    `json:"end_offset,omitempty"`
}

// FindingOutput is one typed, citation-backed claim.
type FindingOutput struct {
	ID          string           `json:"id"`
	FindingType string           `json:"finding_type"`
	Text        string           `json:"text"`
	Entities    []string         `json:"entities,omitempty"`
	Citations   []CitationOutput `json:"citations,omitempty"`
	Confidence  float64          `json:"confidence"`
	Relevance   float64          `json:"relevance"`
	Tags        []string         `json:"tags,omitempty"`
}

// GetFindingsOutput is the get_findings tool's output.
type GetFindingsOutput struct {
	Findings []FindingOutput `json:"findings"`
}

// QueryGraphInput is the query_graph tool's input.
type QueryGraphInput struct {
	CaseID      string   `json:"case_id"`
	SeedNodeIDs []string `json:"seed_node_ids,omitempty"`
	EntityType  string   `json:"entity_type,omitempty"`
	RelType     string   `json:"rel_type,omitempty"`
	MaxDepth    int      `json:"max_depth,omitempty"`
}

// GraphNodeOutput is one knowledge-graph entity.
type GraphNodeOutput struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Label string `json:"label"`
}

// GraphRelationshipOutput is one directed edge between two entities.
type GraphRelationshipOutput struct {
	ID       string `json:"id"`
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
	Type     string `json:"type"`
}

// QueryGraphOutput is the query_graph tool's output.
type QueryGraphOutput struct {
	Nodes         []GraphNodeOutput         `json:"nodes"`
	Relationships []GraphRelationshipOutput `json:"relationships"`
}

// GetTimelineInput is the get_timeline tool's input.
type GetTimelineInput struct {
	CaseID     string    `json:"case_id"`
	From       time.Time `json:"from,omitempty"`
	To         time.Time `json:"to,omitempty"`
	EntityID   string    `json:"entity_id,omitempty"`
	EventTypes []string  `json:"event_types,omitempty"`
	Limit      int       `json:"limit,omitempty"`
}

// TimelineEventOutput is one chronologically-ordered occurrence.
type TimelineEventOutput struct {
	ID           string           `json:"id"`
	Timestamp    time.Time        `json:"timestamp"`
	EventType    string           `json:"event_type"`
	Description  string           `json:"description"`
	Participants []string         `json:"participants,omitempty"`
	Citations    []CitationOutput `json:"citations,omitempty"`
}

// GetTimelineOutput is the get_timeline tool's output.
type GetTimelineOutput struct {
	Events []TimelineEventOutput `json:"events"`
}

// GetDossierInput is the get_dossier tool's input.
type GetDossierInput struct {
	ResearchRunID string `json:"research_run_id"`
}

// DossierSectionOutput is one ordered section of a synthesized report.
type DossierSectionOutput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Order   int    `json:"order"`
}

// GetDossierOutput is the get_dossier tool's output.
type GetDossierOutput struct {
	ExecutiveSummary string                 `json:"executive_summary"`
	Sections         []DossierSectionOutput `json:"sections"`
	Citations        []CitationOutput       `json:"citations,omitempty"`
	FilePaths        []string               `json:"file_paths,omitempty"`
	WordCount        int                    `json:"word_count"`
}

func toCitationOutputs(cs []domain.Citation) []CitationOutput {
	out := make([]CitationOutput, 0, len(cs))
	for _, c := range cs {
		out = append(out, CitationOutput{
			ChunkID: c.ChunkID, EvidenceID: c.EvidenceID,
			StartOffset: c.StartOffset, EndOffset: c.EndOffset,
		})
	}
	return out
}

// Package mcp implements the Model Context Protocol server exposing the
// evidence platform's Query Bus and research workflow controls.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/legalease-ai/evidence-core/internal/domain"
	evidenceerrors "github.com/legalease-ai/evidence-core/internal/errors"
	"github.com/legalease-ai/evidence-core/internal/orchestrator"
	"github.com/legalease-ai/evidence-core/internal/querybus"
	"github.com/legalease-ai/evidence-core/internal/queryhandlers"
	"github.com/legalease-ai/evidence-core/internal/retriever"
	"github.com/legalease-ai/evidence-core/pkg/version"
)

// Server is the MCP server (C9) bridging AI clients to the Query Bus (C4)
// and the Research Orchestrator's (C6) run-control signals.
type Server struct {
	mcp          *mcp.Server
	bus          *querybus.Bus
	store        ResearchRunStore
	orchestrator *orchestrator.Manager
	logger       *slog.Logger
}

// ResearchRunStore is the seam the server uses to persist a freshly started
// research run before handing it to the orchestrator. internal/metadata.Store
// satisfies this.
type ResearchRunStore interface {
	SaveResearchRun(ctx context.Context, r *domain.ResearchRun) error
}

// ToolInfo describes a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

// NewServer builds the MCP server. bus must already have C5's handlers
// registered via queryhandlers.RegisterAll; mgr drives research run
// lifecycle signals.
func NewServer(bus *querybus.Bus, store ResearchRunStore, mgr *orchestrator.Manager) (*Server, error) {
	if bus == nil {
		return nil, errors.New("query bus is required")
	}
	if store == nil {
		return nil, errors.New("research run store is required")
	}
	if mgr == nil {
		return nil, errors.New("orchestrator manager is required")
	}

	s := &Server{
		bus:          bus,
		store:        store,
		orchestrator: mgr,
		logger:       slog.Default(),
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "evidence-core",
			Version: version.Version,
		},
		nil,
	)

	s.registerTools()

	return s, nil
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Info returns the server name and version.
func (s *Server) Info() (name, ver string) {
	return "evidence-core", version.Version
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	return []ToolInfo{
		{Name: "search_evidence", Description: "Hybrid search over a case's indexed evidence (dense + lexical fusion, optional rerank)."},
		{Name: "start_research", Description: "Starts a deep-research run for a case and returns its run ID."},
		{Name: "get_research_status", Description: "Reports a research run's status, phase, and progress percentage."},
		{Name: "cancel_research", Description: "Signals a running research run to cancel."},
		{Name: "pause_research", Description: "Signals a running research run to pause at its next checkpoint."},
		{Name: "resume_research", Description: "Resumes a paused research run from its last checkpoint."},
		{Name: "list_research_runs", Description: "Lists research runs for a case, optionally filtered by status."},
		{Name: "get_findings", Description: "Fetches citation-backed findings produced by a research run."},
		{Name: "query_graph", Description: "Traverses the case's knowledge graph from seed entities or by entity type."},
		{Name: "get_timeline", Description: "Fetches the case's chronologically-ordered timeline events."},
		{Name: "get_dossier", Description: "Fetches the synthesized report for a completed research run."},
	}
}

// registerTools registers every tool with the MCP server.
func (s *Server) registerTools() {
	s.logger.Debug("registering MCP tools")

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "search_evidence",
		Description: "Hybrid search over a case's indexed evidence (dense + lexical fusion, optional rerank).",
	}, s.handleSearchEvidence)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "start_research",
		Description: "Starts a deep-research run for a case and returns its run ID.",
	}, s.handleStartResearch)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_research_status",
		Description: "Reports a research run's status, phase, and progress percentage.",
	}, s.handleGetResearchStatus)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "cancel_research",
		Description: "Signals a running research run to cancel.",
	}, s.handleCancelResearch)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "pause_research",
		Description: "Signals a running research run to pause at its next checkpoint.",
	}, s.handlePauseResearch)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "resume_research",
		Description: "Resumes a paused research run from its last checkpoint.",
	}, s.handleResumeResearch)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_research_runs",
		Description: "Lists research runs for a case, optionally filtered by status.",
	}, s.handleListResearchRuns)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_findings",
		Description: "Fetches citation-backed findings produced by a research run.",
	}, s.handleGetFindings)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "query_graph",
		Description: "Traverses the case's knowledge graph from seed entities or by entity type.",
	}, s.handleQueryGraph)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_timeline",
		Description: "Fetches the case's chronologically-ordered timeline events.",
	}, s.handleGetTimeline)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_dossier",
		Description: "Fetches the synthesized report for a completed research run.",
	}, s.handleGetDossier)

	s.logger.Info("MCP tools registered", slog.Int("count", len(s.ListTools())))
}

func (s *Server) handleSearchEvidence(ctx context.Context, _ *mcp.CallToolRequest, input SearchEvidenceInput) (
	*mcp.CallToolResult, SearchEvidenceOutput, error,
) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, SearchEvidenceOutput{}, NewInvalidParamsError("query must not be empty")
	}

	opts := retriever.DefaultOptions()
	opts.UseRerank = input.UseRerank

	query := queryhandlers.SearchEvidenceQuery{
		CaseID:     input.CaseID,
		Collection: input.Collection,
		Text:       input.Query,
		Filters:    retriever.Filters{ChunkTypes: input.ChunkTypes},
		TopK:       clampLimit(input.Limit, defaultSearchLimit, minSearchLimit, maxSearchLimit),
		Mode:       toRetrieverMode(input.Mode),
		Options:    opts,
	}

	result, err := querybus.Execute[queryhandlers.SearchEvidenceResult](s.bus, ctx, query)
	if err != nil {
		return nil, SearchEvidenceOutput{}, MapError(err)
	}

	out := SearchEvidenceOutput{Results: make([]SearchResultOutput, 0, len(result.Results))}
	for _, r := range result.Results {
		out.Results = append(out.Results, ToSearchResultOutput(r))
	}
	return nil, out, nil
}

func (s *Server) handleStartResearch(ctx context.Context, _ *mcp.CallToolRequest, input StartResearchInput) (
	*mcp.CallToolResult, StartResearchOutput, error,
) {
	if input.CaseID == "" {
		return nil, StartResearchOutput{}, NewInvalidParamsError("case_id is required")
	}
	if strings.TrimSpace(input.Query) == "" {
		return nil, StartResearchOutput{}, NewInvalidParamsError("query must not be empty")
	}

	run, err := domain.NewResearchRun(uuid.NewString(), input.CaseID, input.Query)
	if err != nil {
		return nil, StartResearchOutput{}, MapError(&evidenceerrors.ValidationError{Field: "research_run", Message: err.Error()})
	}
	run.DefenseTheory = input.DefenseTheory

	if err := s.store.SaveResearchRun(ctx, run); err != nil {
		return nil, StartResearchOutput{}, MapError(err)
	}

	run.Status = domain.RunStatusRunning
	s.orchestrator.Start(ctx, run)

	return nil, StartResearchOutput{ResearchRunID: run.ID, Status: string(run.Status)}, nil
}

func (s *Server) handleGetResearchStatus(ctx context.Context, _ *mcp.CallToolRequest, input GetResearchStatusInput) (
	*mcp.CallToolResult, GetResearchStatusOutput, error,
) {
	if input.ResearchRunID == "" {
		return nil, GetResearchStatusOutput{}, NewInvalidParamsError("research_run_id is required")
	}

	result, err := querybus.Execute[queryhandlers.GetResearchStatusResult](s.bus, ctx, queryhandlers.GetResearchStatusQuery{
		ResearchRunID: input.ResearchRunID,
	})
	if err != nil {
		return nil, GetResearchStatusOutput{}, MapError(err)
	}

	return nil, GetResearchStatusOutput{
		ResearchRunID: result.Run.ID,
		Status:        string(result.Run.Status),
		Phase:         string(result.Run.Phase),
		ProgressPct:   result.ProgressPct,
		Errors:        result.Run.Errors,
	}, nil
}

func (s *Server) handleCancelResearch(_ context.Context, _ *mcp.CallToolRequest, input ResearchRunControlInput) (
	*mcp.CallToolResult, ResearchRunControlOutput, error,
) {
	if input.ResearchRunID == "" {
		return nil, ResearchRunControlOutput{}, NewInvalidParamsError("research_run_id is required")
	}
	ok := s.orchestrator.Cancel(input.ResearchRunID)
	return nil, ResearchRunControlOutput{Ok: ok}, nil
}

func (s *Server) handlePauseResearch(_ context.Context, _ *mcp.CallToolRequest, input ResearchRunControlInput) (
	*mcp.CallToolResult, ResearchRunControlOutput, error,
) {
	if input.ResearchRunID == "" {
		return nil, ResearchRunControlOutput{}, NewInvalidParamsError("research_run_id is required")
	}
	ok := s.orchestrator.PauseRun(input.ResearchRunID)
	return nil, ResearchRunControlOutput{Ok: ok}, nil
}

func (s *Server) handleResumeResearch(ctx context.Context, _ *mcp.CallToolRequest, input ResearchRunControlInput) (
	*mcp.CallToolResult, ResearchRunControlOutput, error,
) {
	if input.ResearchRunID == "" {
		return nil, ResearchRunControlOutput{}, NewInvalidParamsError("research_run_id is required")
	}
	if err := s.orchestrator.Resume(ctx, input.ResearchRunID); err != nil {
		return nil, ResearchRunControlOutput{}, MapError(err)
	}
	return nil, ResearchRunControlOutput{Ok: true}, nil
}

func (s *Server) handleListResearchRuns(ctx context.Context, _ *mcp.CallToolRequest, input ListResearchRunsInput) (
	*mcp.CallToolResult, ListResearchRunsOutput, error,
) {
	if input.CaseID == "" {
		return nil, ListResearchRunsOutput{}, NewInvalidParamsError("case_id is required")
	}

	result, err := querybus.Execute[queryhandlers.ListResearchRunsResult](s.bus, ctx, queryhandlers.ListResearchRunsQuery{
		CaseID: input.CaseID,
		Status: domain.RunStatus(input.Status),
		Limit:  clampLimit(input.Limit, defaultListLimit, minListLimit, maxListLimit),
		Offset: input.Offset,
	})
	if err != nil {
		return nil, ListResearchRunsOutput{}, MapError(err)
	}

	out := ListResearchRunsOutput{Runs: make([]ResearchRunOutput, 0, len(result.Runs))}
	for _, r := range result.Runs {
		out.Runs = append(out.Runs, ResearchRunOutput{
			ResearchRunID: r.ID, CaseID: r.CaseID, Query: r.Query,
			Status: string(r.Status), Phase: string(r.Phase), StartedAt: r.StartedAt,
		})
	}
	return nil, out, nil
}

func (s *Server) handleGetFindings(ctx context.Context, _ *mcp.CallToolRequest, input GetFindingsInput) (
	*mcp.CallToolResult, GetFindingsOutput, error,
) {
	if input.ResearchRunID == "" {
		return nil, GetFindingsOutput{}, NewInvalidParamsError("research_run_id is required")
	}

	types := make([]domain.FindingType, 0, len(input.FindingTypes))
	for _, t := range input.FindingTypes {
		types = append(types, domain.FindingType(t))
	}

	result, err := querybus.Execute[queryhandlers.GetFindingsResult](s.bus, ctx, queryhandlers.GetFindingsQuery{
		ResearchRunID: input.ResearchRunID,
		FindingTypes:  types,
		MinConfidence: input.MinConfidence,
		MinRelevance:  input.MinRelevance,
		Tags:          input.Tags,
		Limit:         clampLimit(input.Limit, defaultListLimit, minListLimit, maxListLimit),
		Offset:        input.Offset,
	})
	if err != nil {
		return nil, GetFindingsOutput{}, MapError(err)
	}

	out := GetFindingsOutput{Findings: make([]FindingOutput, 0, len(result.Findings))}
	for _, f := range result.Findings {
		out.Findings = append(out.Findings, FindingOutput{
			ID: f.ID, FindingType: string(f.FindingType), Text: f.Text,
			Entities: f.Entities, Citations: toCitationOutputs(f.Citations),
			Confidence: f.Confidence, Relevance: f.Relevance, Tags: f.Tags,
		})
	}
	return nil, out, nil
}

func (s *Server) handleQueryGraph(ctx context.Context, _ *mcp.CallToolRequest, input QueryGraphInput) (
	*mcp.CallToolResult, QueryGraphOutput, error,
) {
	if input.CaseID == "" {
		return nil, QueryGraphOutput{}, NewInvalidParamsError("case_id is required")
	}

	result, err := querybus.Execute[queryhandlers.QueryGraphResult](s.bus, ctx, queryhandlers.QueryGraphQuery{
		CaseID:      input.CaseID,
		SeedNodeIDs: input.SeedNodeIDs,
		EntityType:  domain.NodeType(input.EntityType),
		RelType:     domain.RelationshipType(input.RelType),
		MaxDepth:    input.MaxDepth,
	})
	if err != nil {
		return nil, QueryGraphOutput{}, MapError(err)
	}

	out := QueryGraphOutput{
		Nodes:         make([]GraphNodeOutput, 0, len(result.Nodes)),
		Relationships: make([]GraphRelationshipOutput, 0, len(result.Relationships)),
	}
	for _, n := range result.Nodes {
		out.Nodes = append(out.Nodes, GraphNodeOutput{ID: n.ID, Type: string(n.Type), Label: n.Label})
	}
	for _, r := range result.Relationships {
		out.Relationships = append(out.Relationships, GraphRelationshipOutput{
			ID: r.ID, SourceID: r.SourceID, TargetID: r.TargetID, Type: string(r.Type),
		})
	}
	return nil, out, nil
}

func (s *Server) handleGetTimeline(ctx context.Context, _ *mcp.CallToolRequest, input GetTimelineInput) (
	*mcp.CallToolResult, GetTimelineOutput, error,
) {
	if input.CaseID == "" {
		return nil, GetTimelineOutput{}, NewInvalidParamsError("case_id is required")
	}

	result, err := querybus.Execute[queryhandlers.GetTimelineResult](s.bus, ctx, queryhandlers.GetTimelineQuery{
		CaseID:     input.CaseID,
		From:       input.From,
		To:         input.To,
		EntityID:   input.EntityID,
		EventTypes: input.EventTypes,
		Limit:      clampLimit(input.Limit, defaultListLimit, minListLimit, maxListLimit),
	})
	if err != nil {
		return nil, GetTimelineOutput{}, MapError(err)
	}

	out := GetTimelineOutput{Events: make([]TimelineEventOutput, 0, len(result.Events))}
	for _, e := range result.Events {
		out.Events = append(out.Events, TimelineEventOutput{
			ID: e.ID, Timestamp: e.Timestamp, EventType: e.EventType, Description: e.Description,
			Participants: e.Participants, Citations: toCitationOutputs(e.SourceCitations),
		})
	}
	return nil, out, nil
}

func (s *Server) handleGetDossier(ctx context.Context, _ *mcp.CallToolRequest, input GetDossierInput) (
	*mcp.CallToolResult, GetDossierOutput, error,
) {
	if input.ResearchRunID == "" {
		return nil, GetDossierOutput{}, NewInvalidParamsError("research_run_id is required")
	}

	result, err := querybus.Execute[queryhandlers.GetDossierResult](s.bus, ctx, queryhandlers.GetDossierQuery{
		ResearchRunID: input.ResearchRunID,
	})
	if err != nil {
		return nil, GetDossierOutput{}, MapError(err)
	}

	sections := make([]DossierSectionOutput, 0, len(result.Dossier.Sections))
	for _, sec := range result.Dossier.Sections {
		sections = append(sections, DossierSectionOutput{Title: sec.Title, Content: sec.Content, Order: sec.Order})
	}

	return nil, GetDossierOutput{
		ExecutiveSummary: result.Dossier.ExecutiveSummary,
		Sections:         sections,
		Citations:        toCitationOutputs(result.Dossier.CitationsAppendix),
		FilePaths:        result.Dossier.FilePaths,
		WordCount:        result.Dossier.WordCount,
	}, nil
}

// Serve starts the server with the specified transport.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("starting MCP server", slog.String("transport", transport))

	switch transport {
	case "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && err != context.Canceled {
			s.logger.Error("MCP server stopped with error", slog.String("error", err.Error()))
		} else {
			s.logger.Info("MCP server stopped gracefully")
		}
		return err
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}

// Close releases server resources. The MCP server stops when its context is
// canceled; there is nothing else to release here.
func (s *Server) Close() error {
	return nil
}

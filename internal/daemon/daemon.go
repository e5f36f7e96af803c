package daemon

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/legalease-ai/evidence-core/internal/domain"
	"github.com/legalease-ai/evidence-core/internal/orchestrator"
	"github.com/legalease-ai/evidence-core/internal/querybus"
	"github.com/legalease-ai/evidence-core/internal/queryhandlers"
	"github.com/legalease-ai/evidence-core/internal/retriever"
)

// ResearchRunStore is the seam the daemon uses to persist a freshly started
// research run before handing it to the orchestrator. internal/metadata.Store
// satisfies this, as does anything satisfying orchestrator.CheckpointStore.
type ResearchRunStore interface {
	SaveResearchRun(ctx context.Context, r *domain.ResearchRun) error
}

// Daemon wires the Query Bus (C4) and Research Orchestrator (C6) to a
// Server (this package's RPC listener), and implements RequestHandler by
// delegating every method to them. It is the Unix-socket counterpart of
// internal/mcp.Server: both are thin C9 transport adapters over the same
// bus and orchestrator.
type Daemon struct {
	cfg          Config
	bus          *querybus.Bus
	store        ResearchRunStore
	orchestrator *orchestrator.Manager
	server       *Server
	pidFile      *PIDFile

	started time.Time

	mu    sync.Mutex
	cases map[string]struct{}
}

// NewDaemon builds a Daemon. bus must already have C5's handlers registered
// via queryhandlers.RegisterAll; mgr drives research run lifecycle signals.
func NewDaemon(cfg Config, bus *querybus.Bus, store ResearchRunStore, mgr *orchestrator.Manager) (*Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if bus == nil {
		return nil, fmt.Errorf("invalid config: query bus is required")
	}
	if store == nil {
		return nil, fmt.Errorf("invalid config: research run store is required")
	}
	if mgr == nil {
		return nil, fmt.Errorf("invalid config: orchestrator manager is required")
	}

	srv, err := NewServer(cfg.SocketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	d := &Daemon{
		cfg:          cfg,
		bus:          bus,
		store:        store,
		orchestrator: mgr,
		server:       srv,
		pidFile:      NewPIDFile(cfg.PIDPath),
		cases:        make(map[string]struct{}),
	}
	srv.SetHandler(d)
	return d, nil
}

// Start prepares the daemon's directories and PID file, then blocks serving
// RPC requests until ctx is cancelled.
func (d *Daemon) Start(ctx context.Context) error {
	if err := d.cfg.EnsureDir(); err != nil {
		return err
	}
	if err := d.pidFile.Write(); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	d.started = time.Now()

	defer func() { _ = d.pidFile.Remove() }()

	return d.server.ListenAndServe(ctx)
}

// HandleSearch implements RequestHandler by dispatching a SearchEvidenceQuery
// on the bus.
func (d *Daemon) HandleSearch(ctx context.Context, params SearchParams) ([]SearchResult, error) {
	opts := retriever.DefaultOptions()
	opts.UseRerank = params.UseRerank

	query := queryhandlers.SearchEvidenceQuery{
		CaseID:     params.CaseID,
		Collection: params.Collection,
		Text:       params.Query,
		Filters:    retriever.Filters{ChunkTypes: params.ChunkTypes},
		TopK:       params.Limit,
		Mode:       toRetrieverMode(params.Mode),
		Options:    opts,
	}

	result, err := querybus.Execute[queryhandlers.SearchEvidenceResult](d.bus, ctx, query)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(result.Results))
	for _, r := range result.Results {
		results = append(results, SearchResult{
			ChunkID:      r.ChunkID,
			EvidenceID:   r.EvidenceID,
			Text:         r.Text,
			ChunkType:    r.ChunkType,
			Page:         r.Page,
			Score:        r.Score,
			MatchedTerms: r.MatchedTerms,
		})
	}
	return results, nil
}

// HandleStartResearch implements RequestHandler by persisting a new run and
// handing it to the orchestrator.
func (d *Daemon) HandleStartResearch(ctx context.Context, params StartResearchParams) (StartResearchResult, error) {
	if active := d.orchestrator.ActiveRunCount(); active >= d.cfg.MaxConcurrentResearchRuns {
		return StartResearchResult{}, fmt.Errorf("daemon: %d research runs already active (limit %d)", active, d.cfg.MaxConcurrentResearchRuns)
	}

	run, err := domain.NewResearchRun(uuid.NewString(), params.CaseID, params.Query)
	if err != nil {
		return StartResearchResult{}, err
	}
	run.DefenseTheory = params.DefenseTheory

	if err := d.store.SaveResearchRun(ctx, run); err != nil {
		return StartResearchResult{}, err
	}

	run.Status = domain.RunStatusRunning
	d.orchestrator.Start(ctx, run)
	d.trackCase(params.CaseID)

	return StartResearchResult{ResearchRunID: run.ID, Status: string(run.Status)}, nil
}

// HandleResearchStatus implements RequestHandler via a GetResearchStatusQuery.
func (d *Daemon) HandleResearchStatus(ctx context.Context, params ResearchRunParams) (ResearchStatusResult, error) {
	result, err := querybus.Execute[queryhandlers.GetResearchStatusResult](d.bus, ctx, queryhandlers.GetResearchStatusQuery{
		ResearchRunID: params.ResearchRunID,
	})
	if err != nil {
		return ResearchStatusResult{}, err
	}
	return ResearchStatusResult{
		ResearchRunID: result.Run.ID,
		Status:        string(result.Run.Status),
		Phase:         string(result.Run.Phase),
		ProgressPct:   result.ProgressPct,
		Errors:        result.Run.Errors,
	}, nil
}

// HandleCancelResearch implements RequestHandler by signalling the
// orchestrator directly; cancellation is in-process and not a bus query.
func (d *Daemon) HandleCancelResearch(_ context.Context, params ResearchRunParams) (ResearchControlResult, error) {
	return ResearchControlResult{Ok: d.orchestrator.Cancel(params.ResearchRunID)}, nil
}

// HandlePauseResearch implements RequestHandler by signalling the orchestrator.
func (d *Daemon) HandlePauseResearch(_ context.Context, params ResearchRunParams) (ResearchControlResult, error) {
	return ResearchControlResult{Ok: d.orchestrator.PauseRun(params.ResearchRunID)}, nil
}

// HandleResumeResearch implements RequestHandler by reloading the run's
// checkpoint and restarting its workflow.
func (d *Daemon) HandleResumeResearch(ctx context.Context, params ResearchRunParams) (ResearchControlResult, error) {
	if err := d.orchestrator.Resume(ctx, params.ResearchRunID); err != nil {
		return ResearchControlResult{}, err
	}
	return ResearchControlResult{Ok: true}, nil
}

// GetStatus implements RequestHandler, reporting process uptime and
// in-process orchestrator load.
func (d *Daemon) GetStatus() StatusResult {
	d.mu.Lock()
	casesLoaded := len(d.cases)
	d.mu.Unlock()

	// PID and Uptime are filled in by Server.getStatus, which tracks its own
	// listen time; only the orchestrator-derived fields matter here.
	return StatusResult{
		Running:            true,
		CasesLoaded:        casesLoaded,
		ActiveResearchRuns: d.orchestrator.ActiveRunCount(),
	}
}

func (d *Daemon) trackCase(caseID string) {
	if caseID == "" {
		return
	}
	d.mu.Lock()
	d.cases[caseID] = struct{}{}
	d.mu.Unlock()
}

// toRetrieverMode maps the wire-level mode string to a retriever.Mode,
// defaulting to hybrid for unrecognized values.
func toRetrieverMode(mode string) retriever.Mode {
	switch strings.ToUpper(mode) {
	case "DENSE_ONLY":
		return retriever.ModeDenseOnly
	case "LEXICAL_ONLY":
		return retriever.ModeLexicalOnly
	default:
		return retriever.ModeHybrid
	}
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"

	"github.com/legalease-ai/evidence-core/internal/caseindex"
	"github.com/legalease-ai/evidence-core/internal/config"
	"github.com/legalease-ai/evidence-core/internal/correlation"
	"github.com/legalease-ai/evidence-core/internal/embed"
	"github.com/legalease-ai/evidence-core/internal/governor"
	"github.com/legalease-ai/evidence-core/internal/intake"
	"github.com/legalease-ai/evidence-core/internal/metadata"
	"github.com/legalease-ai/evidence-core/internal/orchestrator"
	"github.com/legalease-ai/evidence-core/internal/querybus"
	"github.com/legalease-ai/evidence-core/internal/queryhandlers"
	"github.com/legalease-ai/evidence-core/internal/telemetry"
)

// appFlags holds the root command's persistent wiring flags, shared by
// every subcommand that needs a live store, index, or bus.
type appFlags struct {
	dataDir       string
	redisAddr     string
	qdrantDSN     string
	vectorBackend string
	embedProvider string
	embedModel    string
	maxConcurrent int
}

// defaultAppFlags seeds persistent flag defaults from the user/case
// config layers (internal/config.Load), falling back to hardcoded values
// when no config file is present or loading fails. CLI flags still take
// final precedence, since cobra only applies a flag's default when the
// user doesn't pass it explicitly.
func defaultAppFlags() *appFlags {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	f := &appFlags{
		dataDir:       filepath.Join(home, ".evidence-core", "cases"),
		redisAddr:     "localhost:6379",
		vectorBackend: "hnsw",
		embedProvider: string(embed.ProviderOllama),
		embedModel:    "",
		maxConcurrent: 5,
	}

	cwd, err := os.Getwd()
	if err != nil {
		return f
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return f
	}

	if cfg.Store.DataDir != "" {
		f.dataDir = cfg.Store.DataDir
	}
	if cfg.Governor.RedisAddr != "" {
		f.redisAddr = cfg.Governor.RedisAddr
	}
	if cfg.Retrieval.VectorBackend != "" {
		f.vectorBackend = cfg.Retrieval.VectorBackend
	}
	if cfg.Retrieval.QdrantDSN != "" {
		f.qdrantDSN = cfg.Retrieval.QdrantDSN
	}
	if cfg.Retrieval.EmbedProvider != "" {
		f.embedProvider = cfg.Retrieval.EmbedProvider
	}
	if cfg.Retrieval.EmbedModel != "" {
		f.embedModel = cfg.Retrieval.EmbedModel
	}
	if cfg.Governor.MaxConcurrent != 0 {
		f.maxConcurrent = cfg.Governor.MaxConcurrent
	}

	return f
}

func (f *appFlags) register(fs interface {
	StringVar(p *string, name, value, usage string)
	IntVar(p *int, name string, value int, usage string)
}) {
	fs.StringVar(&f.dataDir, "data-dir", f.dataDir, "Root directory for per-case indexes and the metadata database")
	fs.StringVar(&f.redisAddr, "redis-addr", f.redisAddr, "Redis address backing the resource governor's semaphore")
	fs.StringVar(&f.qdrantDSN, "qdrant-dsn", f.qdrantDSN, "Qdrant gRPC address (only used when --vector-backend=qdrant)")
	fs.StringVar(&f.vectorBackend, "vector-backend", f.vectorBackend, "Vector backend: hnsw or qdrant")
	fs.StringVar(&f.embedProvider, "embed-provider", f.embedProvider, "Embedding provider: ollama, mlx, or static")
	fs.StringVar(&f.embedModel, "embed-model", f.embedModel, "Embedding model name (provider-specific default if empty)")
	fs.IntVar(&f.maxConcurrent, "max-concurrent-runs", f.maxConcurrent, "Governor-enforced cap on concurrent LLM-adjacent activities")
}

// app bundles every long-lived collaborator evidence-core's commands are
// built from: the relational store, the per-case index provider, the
// query bus, and the research orchestrator. One app is built per CLI
// invocation and torn down via its cleanup func before the process exits.
type app struct {
	store    *metadata.Store
	embedder embed.Embedder
	provider *caseindex.Provider
	pipeline *intake.Pipeline
	bus      *querybus.Bus
	manager  *orchestrator.Manager
	metrics  *telemetry.QueryMetrics
	redis    *redis.Client
	flags    *appFlags
}

// buildApp wires the full evidence platform stack from flags. The
// returned cleanup func must run before the process exits.
func buildApp(ctx context.Context, flags *appFlags) (*app, func(), error) {
	if err := os.MkdirAll(flags.dataDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("evidence-core: create data dir: %w", err)
	}

	embedder, err := embed.NewEmbedder(ctx, embed.ProviderType(flags.embedProvider), flags.embedModel)
	if err != nil {
		return nil, nil, fmt.Errorf("evidence-core: build embedder: %w", err)
	}

	store, err := metadata.Open(filepath.Join(flags.dataDir, "metadata.db"))
	if err != nil {
		embedder.Close()
		return nil, nil, fmt.Errorf("evidence-core: open metadata store: %w", err)
	}

	provider := caseindex.New(flags.dataDir, embedder.Dimensions(), flags.vectorBackend, flags.qdrantDSN, embedder)
	pipeline := intake.New(embedder, store, provider)

	if err := telemetry.InitTelemetrySchema(store.DB()); err != nil {
		provider.Close()
		store.Close()
		embedder.Close()
		return nil, nil, fmt.Errorf("evidence-core: init telemetry schema: %w", err)
	}
	metricsStore, err := telemetry.NewSQLiteMetricsStore(store.DB())
	if err != nil {
		provider.Close()
		store.Close()
		embedder.Close()
		return nil, nil, fmt.Errorf("evidence-core: open telemetry store: %w", err)
	}
	metrics := telemetry.NewQueryMetrics(metricsStore)

	redisClient := redis.NewClient(&redis.Options{Addr: flags.redisAddr})
	semaphore := governor.NewSemaphore(redisClient, flags.maxConcurrent)

	activities := orchestrator.NewActivities(orchestrator.ActivityDeps{
		Store:       store,
		Retrieve:    provider.ForOrchestrator(),
		Correlation: correlation.New(embedder),
		Throttle:    semaphore,
	})
	manager := orchestrator.NewManager(store, activities)

	bus := querybus.New()
	bus.Use(querybus.ValidationMiddleware{})
	bus.Use(querybus.LoggingMiddleware{})
	bus.Use(telemetry.NewBusMiddleware(metrics))
	queryhandlers.RegisterAll(bus, queryhandlers.Deps{
		Store:    store,
		Retrieve: provider.ForQueryHandlers(),
		Live:     manager,
	})

	a := &app{
		store:    store,
		embedder: embedder,
		provider: provider,
		pipeline: pipeline,
		bus:      bus,
		manager:  manager,
		metrics:  metrics,
		redis:    redisClient,
		flags:    flags,
	}

	cleanup := func() {
		_ = metrics.Close()
		_ = provider.Close()
		_ = store.Close()
		_ = embedder.Close()
		_ = redisClient.Close()
	}

	return a, cleanup, nil
}

package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete evidence-core configuration: the five
// sections mirror the platform's subsystems (Resource Governor, Hybrid
// Retrieval, Research Orchestrator, case storage, transport) rather than
// a single flat options bag.
type Config struct {
	Version      int                `yaml:"version" json:"version"`
	Governor     GovernorConfig     `yaml:"governor" json:"governor"`
	Retrieval    RetrievalConfig    `yaml:"retrieval" json:"retrieval"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator" json:"orchestrator"`
	Store        StoreConfig        `yaml:"store" json:"store"`
	Server       ServerConfig       `yaml:"server" json:"server"`
}

// GovernorConfig configures the Resource Governor (C1): the Redis-backed
// distributed semaphore throttling concurrent GPU/LLM work, and the
// adaptive model selector that trades concurrency, model size, and
// diarization off against available VRAM.
type GovernorConfig struct {
	// RedisAddr is the Redis instance backing the distributed semaphore.
	RedisAddr     string `yaml:"redis_addr" json:"redis_addr"`
	RedisPassword string `yaml:"redis_password" json:"redis_password"`
	RedisDB       int    `yaml:"redis_db" json:"redis_db"`

	// MaxConcurrent bounds concurrent GPU/LLM-bound work (embedding,
	// transcription, correlation) across every process sharing RedisAddr.
	MaxConcurrent int `yaml:"max_concurrent" json:"max_concurrent"`

	// LeaseTimeout is how long a blocking Acquire waits before failing.
	LeaseTimeout time.Duration `yaml:"lease_timeout" json:"lease_timeout"`

	// VRAMBudgetGB is the host's available VRAM, used by SelectModel to
	// degrade model size/concurrency/diarization instead of exhausting it.
	VRAMBudgetGB float64 `yaml:"vram_budget_gb" json:"vram_budget_gb"`

	// Model is the user-requested embedding/transcription model tier, or
	// "auto" to let SelectModel choose one that fits VRAMBudgetGB.
	Model string `yaml:"model" json:"model"`

	// Diarization enables the speaker-diarization pass on transcript
	// evidence when VRAM allows it.
	Diarization bool `yaml:"diarization" json:"diarization"`
}

// RetrievalConfig configures the Hybrid Retrieval Core (C0-C3): chunking,
// embedding, lexical/vector fusion weights, and which vector backend
// indexes a case's evidence.
type RetrievalConfig struct {
	// BM25Weight is the weight for lexical (BM25) matching (0.0-1.0).
	// Must sum to 1.0 with SemanticWeight.
	BM25Weight float64 `yaml:"bm25_weight" json:"bm25_weight"`

	// SemanticWeight is the weight for dense-vector similarity (0.0-1.0).
	// Must sum to 1.0 with BM25Weight.
	SemanticWeight float64 `yaml:"semantic_weight" json:"semantic_weight"`

	// RRFConstant is the RRF fusion smoothing parameter (k).
	// Default: 60 (industry standard used by Azure AI Search, OpenSearch).
	RRFConstant int `yaml:"rrf_constant" json:"rrf_constant"`

	// LexicalBackend selects the lexical index backend: "bleve" (default)
	// or "sqlite" (FTS5, concurrent multi-process access).
	LexicalBackend string `yaml:"lexical_backend" json:"lexical_backend"`

	// VectorBackend selects the dense-vector index backend: "hnsw"
	// (in-process, default) or "qdrant" (out-of-process, QdrantDSN).
	VectorBackend string `yaml:"vector_backend" json:"vector_backend"`
	QdrantDSN     string `yaml:"qdrant_dsn" json:"qdrant_dsn"`

	ChunkSize    int `yaml:"chunk_size" json:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap" json:"chunk_overlap"`
	MaxResults   int `yaml:"max_results" json:"max_results"`

	// Embedder settings
	EmbedProvider string        `yaml:"embed_provider" json:"embed_provider"` // ollama, mlx, static
	EmbedModel    string        `yaml:"embed_model" json:"embed_model"`
	BatchSize     int           `yaml:"batch_size" json:"batch_size"`
	OllamaHost    string        `yaml:"ollama_host" json:"ollama_host"`
	MLXEndpoint   string        `yaml:"mlx_endpoint" json:"mlx_endpoint"`
	MLXModel      string        `yaml:"mlx_model" json:"mlx_model"`
	EmbedTimeout  time.Duration `yaml:"embed_timeout" json:"embed_timeout"`
}

// OrchestratorConfig configures the Research Orchestrator (C6) and the
// Correlation Engine (C7) that runs behind its CORRELATION phase.
type OrchestratorConfig struct {
	// MaxConcurrentRuns is loaded and merged like the other fields but is
	// read by no caller: the daemon's research-run cap
	// (internal/daemon.Config.MaxConcurrentResearchRuns) comes from the
	// --max-concurrent-runs flag instead.
	MaxConcurrentRuns int `yaml:"max_concurrent_runs" json:"max_concurrent_runs"`

	// CorrelationSimilarityThreshold is loaded and merged but is not read
	// by internal/correlation, whose contradiction detection uses its own
	// fixed cosine-similarity floor of 0.82.
	CorrelationSimilarityThreshold float64 `yaml:"correlation_similarity_threshold" json:"correlation_similarity_threshold"`

	// HypothesisModel and DossierModel name the Ollama models used for the
	// HYPOTHESIS_GENERATION and DOSSIER_GENERATION activities.
	HypothesisModel string `yaml:"hypothesis_model" json:"hypothesis_model"`
	DossierModel    string `yaml:"dossier_model" json:"dossier_model"`
}

// StoreConfig configures case storage: the metadata relational store, the
// per-case index lifecycle cache, and the orphan reaper that reconciles
// the lexical and vector stores after interrupted dual writes.
type StoreConfig struct {
	// DataDir is the root directory holding metadata.db and every case's
	// index files. Default: ~/.evidence-core/cases
	DataDir string `yaml:"data_dir" json:"data_dir"`

	// SQLiteCacheMB is the SQLite page cache size in MB.
	SQLiteCacheMB int `yaml:"sqlite_cache_mb" json:"sqlite_cache_mb"`

	// IndexWorkers bounds concurrent chunk/embed work during ingestion.
	IndexWorkers int `yaml:"index_workers" json:"index_workers"`

	// MaxOpenIndexes is loaded and merged but is not read outside this
	// package; caseindex.Provider does not consult it.
	MaxOpenIndexes int `yaml:"max_open_indexes" json:"max_open_indexes"`

	// Reaper settings (orphan reconciliation between lexical/vector stores)
	ReaperEnabled  bool          `yaml:"reaper_enabled" json:"reaper_enabled"`
	ReaperInterval time.Duration `yaml:"reaper_interval" json:"reaper_interval"`
	ReaperBatch    int           `yaml:"reaper_batch" json:"reaper_batch"`

	// DropFolderDir, if set, is watched for new evidence files to ingest
	// automatically (C0 drop-folder intake).
	DropFolderDir string `yaml:"drop_folder_dir" json:"drop_folder_dir"`
}

// ServerConfig configures the transport adapters (C9): the MCP stdio
// server and the long-running Unix-socket daemon.
type ServerConfig struct {
	Transport string `yaml:"transport" json:"transport"` // mcp, daemon
	LogLevel  string `yaml:"log_level" json:"log_level"`

	SocketPath          string        `yaml:"socket_path" json:"socket_path"`
	PIDPath             string        `yaml:"pid_path" json:"pid_path"`
	Timeout             time.Duration `yaml:"timeout" json:"timeout"`
	ShutdownGracePeriod time.Duration `yaml:"shutdown_grace_period" json:"shutdown_grace_period"`
}

// defaultDataDir returns the default case-storage root, ~/.evidence-core/cases.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".evidence-core", "cases")
	}
	return filepath.Join(home, ".evidence-core", "cases")
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Governor: GovernorConfig{
			RedisAddr:     "localhost:6379",
			RedisDB:       0,
			MaxConcurrent: 5,
			LeaseTimeout:  2 * time.Minute,
			VRAMBudgetGB:  8.0,
			Model:         "auto",
			Diarization:   false,
		},
		Retrieval: RetrievalConfig{
			BM25Weight:     0.5,
			SemanticWeight: 0.5,
			RRFConstant:    60,
			LexicalBackend: "bleve",
			VectorBackend:  "hnsw",
			ChunkSize:      1500,
			ChunkOverlap:   200,
			MaxResults:     20,
			EmbedProvider:  "", // empty triggers auto-detection
			EmbedModel:     "qwen3-embedding:8b",
			BatchSize:      32,
			OllamaHost:     "",
			EmbedTimeout:   30 * time.Second,
		},
		Orchestrator: OrchestratorConfig{
			MaxConcurrentRuns:              5,
			CorrelationSimilarityThreshold: 0.85,
			HypothesisModel:                "qwen3:8b",
			DossierModel:                   "qwen3:8b",
		},
		Store: StoreConfig{
			DataDir:        defaultDataDir(),
			SQLiteCacheMB:  64,
			IndexWorkers:   runtime.NumCPU(),
			MaxOpenIndexes: 8,
			ReaperEnabled:  true,
			ReaperInterval: 15 * time.Minute,
			ReaperBatch:    500,
		},
		Server: ServerConfig{
			Transport:           "mcp",
			LogLevel:            "info",
			SocketPath:          filepath.Join(defaultDataDirParent(), "daemon.sock"),
			PIDPath:             filepath.Join(defaultDataDirParent(), "daemon.pid"),
			Timeout:             30 * time.Second,
			ShutdownGracePeriod: 10 * time.Second,
		},
	}
}

// defaultDataDirParent returns ~/.evidence-core, the parent of both
// DataDir and the daemon socket/PID files.
func defaultDataDirParent() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".evidence-core")
	}
	return filepath.Join(home, ".evidence-core")
}

// GetUserConfigPath returns the path to the user/global configuration file.
// It follows XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/evidence-core/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/evidence-core/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "evidence-core", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "evidence-core", "config.yaml")
	}
	return filepath.Join(home, ".config", "evidence-core", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// loadUserConfig loads the user/global configuration file if it exists.
// Returns nil config and nil error if the file doesn't exist (that's OK).
func loadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()

	if !fileExists(configPath) {
		return nil, nil // No user config is fine
	}

	cfg := NewConfig()
	if err := cfg.loadYAML(configPath); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", configPath, err)
	}

	return cfg, nil
}

// Load loads configuration from the specified directory.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/evidence-core/config.yaml)
//  3. Case-workspace config (.evidence-core.yaml in dir)
//  4. Environment variables (EVIDENCE_CORE_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromFile attempts to load configuration from .evidence-core.yaml or .yml.
func (c *Config) loadFromFile(dir string) error {
	yamlPath := filepath.Join(dir, ".evidence-core.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return c.loadYAML(yamlPath)
	}

	ymlPath := filepath.Join(dir, ".evidence-core.yml")
	if _, err := os.Stat(ymlPath); err == nil {
		return c.loadYAML(ymlPath)
	}

	return nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	// Governor
	if other.Governor.RedisAddr != "" {
		c.Governor.RedisAddr = other.Governor.RedisAddr
	}
	if other.Governor.RedisPassword != "" {
		c.Governor.RedisPassword = other.Governor.RedisPassword
	}
	if other.Governor.RedisDB != 0 {
		c.Governor.RedisDB = other.Governor.RedisDB
	}
	if other.Governor.MaxConcurrent != 0 {
		c.Governor.MaxConcurrent = other.Governor.MaxConcurrent
	}
	if other.Governor.LeaseTimeout != 0 {
		c.Governor.LeaseTimeout = other.Governor.LeaseTimeout
	}
	if other.Governor.VRAMBudgetGB != 0 {
		c.Governor.VRAMBudgetGB = other.Governor.VRAMBudgetGB
	}
	if other.Governor.Model != "" {
		c.Governor.Model = other.Governor.Model
	}
	if other.Governor.Diarization {
		c.Governor.Diarization = other.Governor.Diarization
	}

	// Retrieval
	if other.Retrieval.BM25Weight != 0 {
		c.Retrieval.BM25Weight = other.Retrieval.BM25Weight
	}
	if other.Retrieval.SemanticWeight != 0 {
		c.Retrieval.SemanticWeight = other.Retrieval.SemanticWeight
	}
	if other.Retrieval.RRFConstant != 0 {
		c.Retrieval.RRFConstant = other.Retrieval.RRFConstant
	}
	if other.Retrieval.LexicalBackend != "" {
		c.Retrieval.LexicalBackend = other.Retrieval.LexicalBackend
	}
	if other.Retrieval.VectorBackend != "" {
		c.Retrieval.VectorBackend = other.Retrieval.VectorBackend
	}
	if other.Retrieval.QdrantDSN != "" {
		c.Retrieval.QdrantDSN = other.Retrieval.QdrantDSN
	}
	if other.Retrieval.ChunkSize != 0 {
		c.Retrieval.ChunkSize = other.Retrieval.ChunkSize
	}
	if other.Retrieval.ChunkOverlap != 0 {
		c.Retrieval.ChunkOverlap = other.Retrieval.ChunkOverlap
	}
	if other.Retrieval.MaxResults != 0 {
		c.Retrieval.MaxResults = other.Retrieval.MaxResults
	}
	if other.Retrieval.EmbedProvider != "" {
		c.Retrieval.EmbedProvider = other.Retrieval.EmbedProvider
	}
	if other.Retrieval.EmbedModel != "" {
		c.Retrieval.EmbedModel = other.Retrieval.EmbedModel
	}
	if other.Retrieval.BatchSize != 0 {
		c.Retrieval.BatchSize = other.Retrieval.BatchSize
	}
	if other.Retrieval.OllamaHost != "" {
		c.Retrieval.OllamaHost = other.Retrieval.OllamaHost
	}
	if other.Retrieval.MLXEndpoint != "" {
		c.Retrieval.MLXEndpoint = other.Retrieval.MLXEndpoint
	}
	if other.Retrieval.MLXModel != "" {
		c.Retrieval.MLXModel = other.Retrieval.MLXModel
	}
	if other.Retrieval.EmbedTimeout != 0 {
		c.Retrieval.EmbedTimeout = other.Retrieval.EmbedTimeout
	}

	// Orchestrator
	if other.Orchestrator.MaxConcurrentRuns != 0 {
		c.Orchestrator.MaxConcurrentRuns = other.Orchestrator.MaxConcurrentRuns
	}
	if other.Orchestrator.CorrelationSimilarityThreshold != 0 {
		c.Orchestrator.CorrelationSimilarityThreshold = other.Orchestrator.CorrelationSimilarityThreshold
	}
	if other.Orchestrator.HypothesisModel != "" {
		c.Orchestrator.HypothesisModel = other.Orchestrator.HypothesisModel
	}
	if other.Orchestrator.DossierModel != "" {
		c.Orchestrator.DossierModel = other.Orchestrator.DossierModel
	}

	// Store
	if other.Store.DataDir != "" {
		c.Store.DataDir = other.Store.DataDir
	}
	if other.Store.SQLiteCacheMB != 0 {
		c.Store.SQLiteCacheMB = other.Store.SQLiteCacheMB
	}
	if other.Store.IndexWorkers != 0 {
		c.Store.IndexWorkers = other.Store.IndexWorkers
	}
	if other.Store.MaxOpenIndexes != 0 {
		c.Store.MaxOpenIndexes = other.Store.MaxOpenIndexes
	}
	if other.Store.ReaperInterval != 0 || other.Store.ReaperBatch != 0 || other.Store.DropFolderDir != "" {
		c.Store.ReaperEnabled = other.Store.ReaperEnabled
	}
	if other.Store.ReaperInterval != 0 {
		c.Store.ReaperInterval = other.Store.ReaperInterval
	}
	if other.Store.ReaperBatch != 0 {
		c.Store.ReaperBatch = other.Store.ReaperBatch
	}
	if other.Store.DropFolderDir != "" {
		c.Store.DropFolderDir = other.Store.DropFolderDir
	}

	// Server
	if other.Server.Transport != "" {
		c.Server.Transport = other.Server.Transport
	}
	if other.Server.LogLevel != "" {
		c.Server.LogLevel = other.Server.LogLevel
	}
	if other.Server.SocketPath != "" {
		c.Server.SocketPath = other.Server.SocketPath
	}
	if other.Server.PIDPath != "" {
		c.Server.PIDPath = other.Server.PIDPath
	}
	if other.Server.Timeout != 0 {
		c.Server.Timeout = other.Server.Timeout
	}
	if other.Server.ShutdownGracePeriod != 0 {
		c.Server.ShutdownGracePeriod = other.Server.ShutdownGracePeriod
	}
}

// applyEnvOverrides applies EVIDENCE_CORE_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("EVIDENCE_CORE_BM25_WEIGHT"); v != "" {
		if w, err := parseFloat64(v); err == nil && w >= 0 && w <= 1 {
			c.Retrieval.BM25Weight = w
		}
	}
	if v := os.Getenv("EVIDENCE_CORE_SEMANTIC_WEIGHT"); v != "" {
		if w, err := parseFloat64(v); err == nil && w >= 0 && w <= 1 {
			c.Retrieval.SemanticWeight = w
		}
	}
	if v := os.Getenv("EVIDENCE_CORE_RRF_CONSTANT"); v != "" {
		if k, err := strconv.Atoi(v); err == nil && k > 0 {
			c.Retrieval.RRFConstant = k
		}
	}

	if v := os.Getenv("EVIDENCE_CORE_EMBED_PROVIDER"); v != "" {
		c.Retrieval.EmbedProvider = v
	}
	// EVIDENCE_CORE_EMBEDDER is an alias matching internal/embed's own
	// provider override, for callers that set one but not the other.
	if v := os.Getenv("EVIDENCE_CORE_EMBEDDER"); v != "" {
		c.Retrieval.EmbedProvider = v
	}
	if v := os.Getenv("EVIDENCE_CORE_EMBED_MODEL"); v != "" {
		c.Retrieval.EmbedModel = v
	}
	if v := os.Getenv("EVIDENCE_CORE_OLLAMA_HOST"); v != "" {
		c.Retrieval.OllamaHost = v
	}

	if v := os.Getenv("EVIDENCE_CORE_REDIS_ADDR"); v != "" {
		c.Governor.RedisAddr = v
	}
	if v := os.Getenv("EVIDENCE_CORE_REDIS_PASSWORD"); v != "" {
		c.Governor.RedisPassword = v
	}
	if v := os.Getenv("EVIDENCE_CORE_MAX_CONCURRENT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Governor.MaxConcurrent = n
		}
	}

	if v := os.Getenv("EVIDENCE_CORE_DATA_DIR"); v != "" {
		c.Store.DataDir = v
	}

	if v := os.Getenv("EVIDENCE_CORE_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := os.Getenv("EVIDENCE_CORE_TRANSPORT"); v != "" {
		c.Server.Transport = v
	}

	if v := os.Getenv("EVIDENCE_CORE_REAPER_ENABLED"); v != "" {
		c.Store.ReaperEnabled = strings.ToLower(v) == "true" || v == "1"
	}
	if v := os.Getenv("EVIDENCE_CORE_DROP_FOLDER"); v != "" {
		c.Store.DropFolderDir = v
	}
}

// parseFloat64 parses a string to float64, used for config parsing.
func parseFloat64(s string) (float64, error) {
	var f float64
	_, err := fmt.Sscanf(strings.TrimSpace(s), "%f", &f)
	return f, err
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Retrieval.BM25Weight < 0 || c.Retrieval.BM25Weight > 1 {
		return fmt.Errorf("retrieval.bm25_weight must be between 0 and 1, got %f", c.Retrieval.BM25Weight)
	}
	if c.Retrieval.SemanticWeight < 0 || c.Retrieval.SemanticWeight > 1 {
		return fmt.Errorf("retrieval.semantic_weight must be between 0 and 1, got %f", c.Retrieval.SemanticWeight)
	}
	sum := c.Retrieval.BM25Weight + c.Retrieval.SemanticWeight
	if math.Abs(sum-1.0) > 0.01 {
		return fmt.Errorf("retrieval.bm25_weight + retrieval.semantic_weight must equal 1.0, got %.2f", sum)
	}
	if c.Retrieval.MaxResults < 0 {
		return fmt.Errorf("retrieval.max_results must be non-negative, got %d", c.Retrieval.MaxResults)
	}
	if c.Retrieval.ChunkSize < 0 {
		return fmt.Errorf("retrieval.chunk_size must be non-negative, got %d", c.Retrieval.ChunkSize)
	}

	if c.Retrieval.EmbedProvider != "" { // Empty string triggers auto-detection
		validProviders := map[string]bool{"static": true, "ollama": true, "mlx": true}
		if !validProviders[strings.ToLower(c.Retrieval.EmbedProvider)] {
			return fmt.Errorf("retrieval.embed_provider must be 'static', 'ollama', 'mlx', or empty (auto-detect), got %s", c.Retrieval.EmbedProvider)
		}
	}

	validVectorBackends := map[string]bool{"hnsw": true, "qdrant": true}
	if !validVectorBackends[strings.ToLower(c.Retrieval.VectorBackend)] {
		return fmt.Errorf("retrieval.vector_backend must be 'hnsw' or 'qdrant', got %s", c.Retrieval.VectorBackend)
	}
	if strings.ToLower(c.Retrieval.VectorBackend) == "qdrant" && c.Retrieval.QdrantDSN == "" {
		return fmt.Errorf("retrieval.qdrant_dsn is required when vector_backend is 'qdrant'")
	}

	validLexicalBackends := map[string]bool{"bleve": true, "sqlite": true}
	if !validLexicalBackends[strings.ToLower(c.Retrieval.LexicalBackend)] {
		return fmt.Errorf("retrieval.lexical_backend must be 'bleve' or 'sqlite', got %s", c.Retrieval.LexicalBackend)
	}

	validTransports := map[string]bool{"mcp": true, "daemon": true}
	if !validTransports[strings.ToLower(c.Server.Transport)] {
		return fmt.Errorf("server.transport must be 'mcp' or 'daemon', got %s", c.Server.Transport)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Server.LogLevel)] {
		return fmt.Errorf("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.Server.LogLevel)
	}

	if c.Governor.MaxConcurrent < 0 {
		return fmt.Errorf("governor.max_concurrent must be non-negative, got %d", c.Governor.MaxConcurrent)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadUserConfig loads the user configuration file.
// Returns nil config and nil error if the file doesn't exist.
func LoadUserConfig() (*Config, error) {
	return loadUserConfig()
}

// MergeNewDefaults adds new default fields while preserving existing values.
// Returns a list of field names that were added with their default values.
func (c *Config) MergeNewDefaults() []string {
	defaults := NewConfig()
	var added []string

	if c.Retrieval.BM25Weight == 0 {
		c.Retrieval.BM25Weight = defaults.Retrieval.BM25Weight
		added = append(added, "retrieval.bm25_weight")
	}
	if c.Retrieval.SemanticWeight == 0 {
		c.Retrieval.SemanticWeight = defaults.Retrieval.SemanticWeight
		added = append(added, "retrieval.semantic_weight")
	}
	if c.Retrieval.RRFConstant == 0 {
		c.Retrieval.RRFConstant = defaults.Retrieval.RRFConstant
		added = append(added, "retrieval.rrf_constant")
	}
	if c.Retrieval.VectorBackend == "" {
		c.Retrieval.VectorBackend = defaults.Retrieval.VectorBackend
		added = append(added, "retrieval.vector_backend")
	}
	if c.Store.SQLiteCacheMB == 0 {
		c.Store.SQLiteCacheMB = defaults.Store.SQLiteCacheMB
		added = append(added, "store.sqlite_cache_mb")
	}
	if c.Store.DataDir == "" {
		c.Store.DataDir = defaults.Store.DataDir
		added = append(added, "store.data_dir")
	}
	if c.Store.MaxOpenIndexes == 0 {
		c.Store.MaxOpenIndexes = defaults.Store.MaxOpenIndexes
		added = append(added, "store.max_open_indexes")
	}
	if c.Governor.MaxConcurrent == 0 {
		c.Governor.MaxConcurrent = defaults.Governor.MaxConcurrent
		added = append(added, "governor.max_concurrent")
	}
	if c.Orchestrator.MaxConcurrentRuns == 0 {
		c.Orchestrator.MaxConcurrentRuns = defaults.Orchestrator.MaxConcurrentRuns
		added = append(added, "orchestrator.max_concurrent_runs")
	}

	return added
}

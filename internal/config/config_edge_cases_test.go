package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper functions for JSON marshaling tests
func jsonMarshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func jsonUnmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// Edge Case Tests - These test scenarios that could cause silent failures
// or unexpected behavior.

// =============================================================================
// Config Merge Edge Cases
// =============================================================================

// TestLoad_ZeroValuesNotMerged tests that explicit zero values in config
// don't override defaults (the merge-by-non-zero strategy's known limit).
func TestLoad_ZeroValuesNotMerged(t *testing.T) {
	tmpDir := t.TempDir()
	configContent := `
version: 1
retrieval:
  max_results: 0
  chunk_size: 0
store:
  sqlite_cache_mb: 0
`
	err := os.WriteFile(filepath.Join(tmpDir, ".evidence-core.yaml"), []byte(configContent), 0o644)
	require.NoError(t, err)

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Retrieval.MaxResults, "Zero should not override default max_results")
	assert.Equal(t, 1500, cfg.Retrieval.ChunkSize, "Zero should not override default chunk_size")
	assert.Equal(t, 64, cfg.Store.SQLiteCacheMB, "Zero should not override default sqlite_cache_mb")
}

// TestLoad_NegativeValues_Validated tests that negative values are rejected
// by validation.
func TestLoad_NegativeValues_Validated(t *testing.T) {
	tmpDir := t.TempDir()
	configContent := `
version: 1
retrieval:
  max_results: -10
`
	err := os.WriteFile(filepath.Join(tmpDir, ".evidence-core.yaml"), []byte(configContent), 0o644)
	require.NoError(t, err)

	cfg, err := Load(tmpDir)

	require.Error(t, err)
	require.Nil(t, cfg)
	assert.Contains(t, err.Error(), "max_results must be non-negative")
}

// TestLoad_WeightsSumValidated tests that retrieval weights must sum to 1.0.
func TestLoad_WeightsSumValidated(t *testing.T) {
	cfg := NewConfig()
	cfg.Retrieval.BM25Weight = 0.9
	cfg.Retrieval.SemanticWeight = 0.9

	err := cfg.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "bm25_weight + retrieval.semantic_weight must equal 1.0")
}

// TestValidate_QdrantBackendRequiresDSN tests that selecting the Qdrant
// vector backend without a DSN fails validation.
func TestValidate_QdrantBackendRequiresDSN(t *testing.T) {
	cfg := NewConfig()
	cfg.Retrieval.VectorBackend = "qdrant"
	cfg.Retrieval.QdrantDSN = ""

	err := cfg.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "qdrant_dsn is required")
}

// TestValidate_UnknownVectorBackend_Rejected tests that an unrecognized
// vector backend name fails validation.
func TestValidate_UnknownVectorBackend_Rejected(t *testing.T) {
	cfg := NewConfig()
	cfg.Retrieval.VectorBackend = "pinecone"

	err := cfg.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "vector_backend must be")
}

// TestValidate_UnknownTransport_Rejected tests that an unrecognized
// server transport fails validation.
func TestValidate_UnknownTransport_Rejected(t *testing.T) {
	cfg := NewConfig()
	cfg.Server.Transport = "grpc"

	err := cfg.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "transport must be")
}

// =============================================================================
// Config File Permission Edge Cases
// =============================================================================

// TestLoad_UnreadableConfigFile_ReturnsError tests that unreadable config
// files return an error.
func TestLoad_UnreadableConfigFile_ReturnsError(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("Test requires non-root user")
	}

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ".evidence-core.yaml")
	err := os.WriteFile(configPath, []byte("version: 1"), 0o000)
	require.NoError(t, err)
	defer func() { _ = os.Chmod(configPath, 0o644) }()

	cfg, err := Load(tmpDir)

	require.Error(t, err, "Load should fail for unreadable config file")
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "read", "Error should mention read failure")
}

// =============================================================================
// Config JSON Marshaling Edge Cases
// =============================================================================

// TestConfig_JSON_RoundTrip tests that config can be marshaled to JSON
// and back without data loss.
func TestConfig_JSON_RoundTrip(t *testing.T) {
	cfg := NewConfig()
	cfg.Retrieval.ChunkSize = 2000
	cfg.Retrieval.BM25Weight = 0.4
	cfg.Retrieval.SemanticWeight = 0.6
	cfg.Retrieval.RRFConstant = 100
	cfg.Retrieval.EmbedProvider = "static"
	cfg.Governor.MaxConcurrent = 12
	cfg.Store.DataDir = "/tmp/cases"

	data, err := jsonMarshal(cfg)
	require.NoError(t, err)

	var parsed Config
	err = jsonUnmarshal(data, &parsed)
	require.NoError(t, err)

	assert.Equal(t, 2000, parsed.Retrieval.ChunkSize)
	assert.Equal(t, "static", parsed.Retrieval.EmbedProvider)
	assert.Equal(t, 0.4, parsed.Retrieval.BM25Weight)
	assert.Equal(t, 0.6, parsed.Retrieval.SemanticWeight)
	assert.Equal(t, 100, parsed.Retrieval.RRFConstant)
	assert.Equal(t, 12, parsed.Governor.MaxConcurrent)
	assert.Equal(t, "/tmp/cases", parsed.Store.DataDir)
}

// TestConfig_UnmarshalJSON_InvalidJSON_ReturnsError tests that invalid JSON
// returns an error.
func TestConfig_UnmarshalJSON_InvalidJSON_ReturnsError(t *testing.T) {
	invalidJSON := []byte("{invalid json")

	var cfg Config
	err := jsonUnmarshal(invalidJSON, &cfg)

	require.Error(t, err, "Unmarshal should fail for invalid JSON")
}

// =============================================================================
// Store Config Edge Cases
// =============================================================================

// TestNewConfig_DataDir_UsesHomeDir tests that DataDir defaults to a path
// under the home directory.
func TestNewConfig_DataDir_UsesHomeDir(t *testing.T) {
	cfg := NewConfig()

	assert.NotEmpty(t, cfg.Store.DataDir)
	assert.Contains(t, cfg.Store.DataDir, "cases")
}

// TestNewConfig_ReaperEnabled_DefaultsToTrue tests that the orphan reaper
// runs by default.
func TestNewConfig_ReaperEnabled_DefaultsToTrue(t *testing.T) {
	cfg := NewConfig()

	assert.True(t, cfg.Store.ReaperEnabled)
}

// TestMergeWith_ReaperSettings_EnableFollowsOtherReaperFields tests that
// setting any reaper tuning field in an override config also carries that
// config's ReaperEnabled value, since YAML can't distinguish "false" from
// "absent" for a plain bool.
func TestMergeWith_ReaperSettings_EnableFollowsOtherReaperFields(t *testing.T) {
	tmpDir := t.TempDir()
	configContent := `
version: 1
store:
  reaper_enabled: false
  reaper_batch: 250
`
	err := os.WriteFile(filepath.Join(tmpDir, ".evidence-core.yaml"), []byte(configContent), 0o644)
	require.NoError(t, err)

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.False(t, cfg.Store.ReaperEnabled)
	assert.Equal(t, 250, cfg.Store.ReaperBatch)
}

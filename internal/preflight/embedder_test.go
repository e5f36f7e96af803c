package preflight

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/legalease-ai/evidence-core/internal/lifecycle"
)

func TestChecker_CheckEmbedderModel_OllamaUnreachable(t *testing.T) {
	// Given: a checker pointed at a host nothing is listening on
	checker := New()
	m := lifecycle.NewOllamaManagerWithHost("http://127.0.0.1:1")

	// When: I check embedder model readiness
	result := checker.checkEmbedderModelWithManager(m, lifecycle.DefaultModel)

	// Then: status is warn (not critical) since hybrid search can fall back
	// to lexical-only search
	assert.Equal(t, StatusWarn, result.Status)
	assert.Equal(t, "embedder_model", result.Name)
	assert.False(t, result.Required, "embedder model check should not be required")
}

func TestChecker_CheckEmbedderModel_Default(t *testing.T) {
	// Given: a checker using the default manager and model
	checker := New()

	// When: I run the exported entry point
	result := checker.CheckEmbedderModel()

	// Then: the result always reports the embedder_model check, pass or warn
	// depending on whether Ollama happens to be running in this environment
	assert.Equal(t, "embedder_model", result.Name)
	assert.False(t, result.Required)
}

func TestChecker_CheckEmbedderDiskSpace_Sufficient(t *testing.T) {
	// Given: a checker
	checker := New()

	// When: I check embedder disk space (most systems have enough)
	result := checker.CheckEmbedderDiskSpace()

	// Then: should pass (assuming test machine has > 1.5GB free in home)
	// Note: This test may fail on systems with very low disk space
	if result.Status == StatusPass {
		assert.Contains(t, result.Message, "available")
	} else {
		// If it warns, that's fine too - just verify it's the right check
		assert.Equal(t, "embedder_disk_space", result.Name)
	}
}

func TestChecker_CheckEmbedderDiskSpace_ResultFormat(t *testing.T) {
	// Given: a checker
	checker := New()

	// When: I check embedder disk space
	result := checker.CheckEmbedderDiskSpace()

	// Then: result has expected structure
	assert.Equal(t, "embedder_disk_space", result.Name)
	assert.False(t, result.Required, "disk space check should not be required")
	assert.NotEmpty(t, result.Message)
}

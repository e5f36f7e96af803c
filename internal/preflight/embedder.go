package preflight

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/legalease-ai/evidence-core/internal/lifecycle"
)

// MinModelDiskSpaceBytes is the minimum disk space needed for an embedding
// model pull (~1.5GB, large enough for qwen3-embedding and similar models).
const MinModelDiskSpaceBytes = 1.5 * 1024 * 1024 * 1024 // 1.5 GB

// CheckEmbedderModel checks whether the local Ollama daemon is reachable
// and has the target embedding model pulled.
func (c *Checker) CheckEmbedderModel() CheckResult {
	return c.checkEmbedderModelWithManager(lifecycle.NewOllamaManager(), lifecycle.DefaultModel)
}

// checkEmbedderModelWithManager checks embedder readiness against an
// injected manager/model, allowing tests to point at a fake host.
func (c *Checker) checkEmbedderModelWithManager(m *lifecycle.OllamaManager, targetModel string) CheckResult {
	result := CheckResult{
		Name:     "embedder_model",
		Required: false, // Non-critical - hybrid search degrades to lexical-only
	}

	status, err := m.Status(context.Background(), targetModel)
	if err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("cannot reach Ollama: %v", err)
		return result
	}

	if !status.Installed {
		result.Status = StatusWarn
		result.Message = "Ollama is not installed (semantic search will be unavailable)"
		result.Details = lifecycle.InstallInstructions()
		return result
	}
	if !status.Running {
		result.Status = StatusWarn
		result.Message = "Ollama is installed but not running (will attempt to start it)"
		return result
	}
	if !status.HasModel {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("embedding model %s not pulled (will pull on first index)", targetModel)
		return result
	}

	result.Status = StatusPass
	result.Message = fmt.Sprintf("Ollama running with %s ready", targetModel)
	return result
}

// CheckEmbedderDiskSpace checks if there's enough disk space for model download.
func (c *Checker) CheckEmbedderDiskSpace() CheckResult {
	result := CheckResult{
		Name:     "embedder_disk_space",
		Required: false, // Non-critical - we can fall back to static
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("Cannot determine home directory: %v", err)
		return result
	}

	// Check disk space in home directory (where models are stored)
	var stat syscall.Statfs_t
	if err := syscall.Statfs(homeDir, &stat); err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("Cannot check disk space: %v", err)
		return result
	}

	availableBytes := stat.Bavail * uint64(stat.Bsize)

	if availableBytes < uint64(MinModelDiskSpaceBytes) {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("%s available (model needs ~1.5 GB)", formatBytes(availableBytes))
		result.Details = "Consider freeing up disk space or use --embedder=static for offline mode"
		return result
	}

	result.Status = StatusPass
	result.Message = fmt.Sprintf("%s available for model download", formatBytes(availableBytes))
	return result
}

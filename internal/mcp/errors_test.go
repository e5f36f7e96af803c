package mcp

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/legalease-ai/evidence-core/internal/errors"
)

func TestMapError_NilError(t *testing.T) {
	assert.Nil(t, MapError(nil))
}

func TestMapError_NotFound(t *testing.T) {
	err := &domainerrors.NotFoundError{Kind: "case", ID: "case-1"}

	result := MapError(err)

	require.NotNil(t, result)
	assert.Equal(t, ErrCodeNotFound, result.Code)
	assert.Contains(t, result.Message, "case-1")
}

func TestMapError_Validation(t *testing.T) {
	err := &domainerrors.ValidationError{Field: "query", Message: "cannot be empty"}

	result := MapError(err)

	require.NotNil(t, result)
	assert.Equal(t, ErrCodeInvalidParams, result.Code)
	assert.Contains(t, result.Message, "query")
}

func TestMapError_ResourceExhausted(t *testing.T) {
	err := &domainerrors.ResourceExhaustedError{Resource: "governor", Message: "acquire timed out"}

	result := MapError(err)

	require.NotNil(t, result)
	assert.Equal(t, ErrCodeResourceExhausted, result.Code)
}

func TestMapError_TransientBackend(t *testing.T) {
	err := &domainerrors.TransientBackendError{Backend: "lexical", Cause: errors.New("unavailable")}

	result := MapError(err)

	require.NotNil(t, result)
	assert.Equal(t, ErrCodeBackendDegraded, result.Code)
}

func TestMapError_DeadlineExceeded(t *testing.T) {
	result := MapError(context.DeadlineExceeded)

	require.NotNil(t, result)
	assert.Equal(t, ErrCodeTimeout, result.Code)
	assert.Contains(t, result.Message, "timed out")
}

func TestMapError_Canceled(t *testing.T) {
	result := MapError(context.Canceled)

	require.NotNil(t, result)
	assert.Equal(t, ErrCodeTimeout, result.Code)
	assert.Contains(t, result.Message, "canceled")
}

func TestMapError_ToolNotFound(t *testing.T) {
	result := MapError(ErrToolNotFound)

	require.NotNil(t, result)
	assert.Equal(t, ErrCodeMethodNotFound, result.Code)
}

func TestMapError_InvalidParams(t *testing.T) {
	result := MapError(ErrInvalidParams)

	require.NotNil(t, result)
	assert.Equal(t, ErrCodeInvalidParams, result.Code)
}

func TestMapError_UnknownError(t *testing.T) {
	result := MapError(errors.New("some unknown error"))

	require.NotNil(t, result)
	assert.Equal(t, ErrCodeInternalError, result.Code)
}

func TestMapError_WrappedNotFound(t *testing.T) {
	err := fmt.Errorf("load run: %w", &domainerrors.NotFoundError{Kind: "research_run", ID: "run-1"})

	result := MapError(err)

	require.NotNil(t, result)
	assert.Equal(t, ErrCodeNotFound, result.Code)
}

func TestMCPError_Error(t *testing.T) {
	err := &MCPError{Code: ErrCodeInvalidParams, Message: "missing required field"}

	msg := err.Error()

	assert.Contains(t, msg, "MCP error")
	assert.Contains(t, msg, "-32602")
	assert.Contains(t, msg, "missing required field")
}

func TestNewInvalidParamsError(t *testing.T) {
	err := NewInvalidParamsError("query parameter is required")

	assert.Equal(t, ErrCodeInvalidParams, err.Code)
	assert.Equal(t, "query parameter is required", err.Message)
}

func TestNewMethodNotFoundError(t *testing.T) {
	err := NewMethodNotFoundError("unknown_tool")

	assert.Equal(t, ErrCodeMethodNotFound, err.Code)
	assert.Contains(t, err.Message, "unknown_tool")
}

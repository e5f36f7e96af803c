// Package mcp implements the Model Context Protocol server exposing the
// evidence platform's Query Bus and research workflow controls.
package mcp

import (
	"context"
	"errors"
	"fmt"

	domainerrors "github.com/legalease-ai/evidence-core/internal/errors"
)

// Custom MCP error codes for the evidence platform.
const (
	// ErrCodeNotFound indicates a referenced case/evidence/run does not exist.
	ErrCodeNotFound = -32001

	// ErrCodeResourceExhausted indicates a governor timeout or store limit.
	ErrCodeResourceExhausted = -32002

	// ErrCodeTimeout indicates the request timed out.
	ErrCodeTimeout = -32003

	// ErrCodeBackendDegraded indicates one backend (vector or lexical) is
	// unavailable; results, if any, came from the surviving backend.
	ErrCodeBackendDegraded = -32004

	// Standard JSON-RPC error codes.
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// Sentinel errors for internal use.
var (
	ErrToolNotFound     = errors.New("tool not found")
	ErrInvalidParams    = errors.New("invalid parameters")
	ErrResourceNotFound = errors.New("resource not found")
)

// MCPError represents an MCP protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts internal errors to MCP errors, classifying the closed
// domain error taxonomy in internal/errors/kinds.go by errors.As rather
// than string matching.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var notFound *domainerrors.NotFoundError
	var validation *domainerrors.ValidationError
	var timeout *domainerrors.TimeoutError
	var exhausted *domainerrors.ResourceExhaustedError
	var transient *domainerrors.TransientBackendError
	var fatal *domainerrors.FatalBackendError

	switch {
	case errors.As(err, &notFound):
		return &MCPError{Code: ErrCodeNotFound, Message: notFound.Error()}
	case errors.As(err, &validation):
		return &MCPError{Code: ErrCodeInvalidParams, Message: validation.Error()}
	case errors.As(err, &timeout):
		return &MCPError{Code: ErrCodeTimeout, Message: timeout.Error()}
	case errors.As(err, &exhausted):
		return &MCPError{Code: ErrCodeResourceExhausted, Message: exhausted.Error()}
	case errors.As(err, &transient):
		return &MCPError{Code: ErrCodeBackendDegraded, Message: transient.Error()}
	case errors.As(err, &fatal):
		return &MCPError{Code: ErrCodeInternalError, Message: fatal.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{Code: ErrCodeTimeout, Message: "request timed out"}
	case errors.Is(err, context.Canceled):
		return &MCPError{Code: ErrCodeTimeout, Message: "request was canceled"}
	case errors.Is(err, ErrToolNotFound):
		return &MCPError{Code: ErrCodeMethodNotFound, Message: "tool not found"}
	case errors.Is(err, ErrInvalidParams):
		return &MCPError{Code: ErrCodeInvalidParams, Message: "invalid parameters"}
	case errors.Is(err, ErrResourceNotFound):
		return &MCPError{Code: ErrCodeMethodNotFound, Message: "resource not found"}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: "internal server error"}
	}
}

// NewInvalidParamsError creates an error for invalid parameters with a custom message.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{Code: ErrCodeInvalidParams, Message: msg}
}

// NewMethodNotFoundError creates an error for unknown tools.
func NewMethodNotFoundError(name string) *MCPError {
	return &MCPError{Code: ErrCodeMethodNotFound, Message: fmt.Sprintf("tool %q not found", name)}
}

package querybus

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Validatable is implemented by queries carrying their own invariant
// checks, run by ValidationMiddleware before dispatch.
type Validatable interface {
	Validate() error
}

// LoggingMiddleware logs query start, completion with timing, and failure,
// translated from the original's before_query/after_query/on_error hooks.
type LoggingMiddleware struct{}

func (LoggingMiddleware) Before(ctx context.Context, query any) error {
	slog.Debug("query started", slog.String("query_type", queryTypeName(query)))
	return nil
}

func (LoggingMiddleware) After(ctx context.Context, query any, result any, elapsed time.Duration) {
	slog.Info("query completed",
		slog.String("query_type", queryTypeName(query)),
		slog.Duration("elapsed", elapsed))
}

func (LoggingMiddleware) OnError(ctx context.Context, query any, err error) {
	slog.Error("query failed",
		slog.String("query_type", queryTypeName(query)),
		slog.String("error", err.Error()))
}

// ValidationMiddleware runs a query's own Validate method, if it implements
// Validatable, before the handler executes.
type ValidationMiddleware struct{}

func (ValidationMiddleware) Before(ctx context.Context, query any) error {
	if v, ok := query.(Validatable); ok {
		return v.Validate()
	}
	return nil
}

func (ValidationMiddleware) After(ctx context.Context, query any, result any, elapsed time.Duration) {
}

func (ValidationMiddleware) OnError(ctx context.Context, query any, err error) {}

func queryTypeName(query any) string {
	return fmt.Sprintf("%T", query)
}

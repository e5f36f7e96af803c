// Package querybus implements the CQRS Query Bus (C4): typed dispatch of
// read queries to handlers registered at startup, with a middleware chain
// run before, after, and on error around every dispatch.
//
// Go has no runtime generic dispatch the way the Python original's
// Dict[Type, QueryHandler] does, so registration is keyed by
// reflect.Type(query) and handlers are stored behind a type-erased
// function; Register and Execute are free generic functions that recover
// the concrete types at the call site instead.
package querybus

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"time"
)

// Handler is the typed contract a query handler implements, registered via
// Register rather than implemented against an any-typed interface.
type Handler[Q any, R any] func(ctx context.Context, query Q) (R, error)

// Middleware wraps every dispatch. Before/After/OnError mirror the
// original's before_query/after_query/on_error hooks: After and OnError run
// in reverse registration order, matching the original's use of
// `reversed(self._middleware)`.
type Middleware interface {
	Before(ctx context.Context, query any) error
	After(ctx context.Context, query any, result any, elapsed time.Duration)
	OnError(ctx context.Context, query any, err error)
}

type erasedHandler func(ctx context.Context, query any) (any, error)

// Bus dispatches queries to their registered handlers. There is no package
// level singleton: callers build one Bus at startup and register every
// handler explicitly, so the set of wired queries is visible at a single
// call site instead of scattered import-time side effects.
type Bus struct {
	handlers   map[reflect.Type]erasedHandler
	middleware []Middleware
}

// New builds an empty Bus.
func New() *Bus {
	return &Bus{handlers: make(map[reflect.Type]erasedHandler)}
}

// Use appends middleware to the dispatch pipeline.
func (b *Bus) Use(mw Middleware) {
	b.middleware = append(b.middleware, mw)
}

// Register binds a typed handler to the query type Q. Registering a second
// handler for the same Q panics at startup rather than silently shadowing
// the first — the original raises ValueError for the same reason.
func Register[Q any, R any](b *Bus, handler Handler[Q, R]) {
	var zero Q
	t := reflect.TypeOf(zero)
	if _, exists := b.handlers[t]; exists {
		panic(fmt.Sprintf("querybus: handler already registered for %v", t))
	}
	b.handlers[t] = func(ctx context.Context, query any) (any, error) {
		q, ok := query.(Q)
		if !ok {
			return nil, fmt.Errorf("querybus: query type mismatch: expected %v, got %T", t, query)
		}
		return handler(ctx, q)
	}
	slog.Info("querybus: registered handler", slog.String("query_type", t.String()))
}

// Execute dispatches query to its registered handler and runs the
// middleware chain around it. R must match the handler's declared result
// type or Execute returns an error rather than panicking.
func Execute[R any](b *Bus, ctx context.Context, query any) (R, error) {
	var zero R
	t := reflect.TypeOf(query)

	handler, ok := b.handlers[t]
	if !ok {
		return zero, fmt.Errorf("querybus: no handler registered for query type %v", t)
	}

	for _, mw := range b.middleware {
		if err := mw.Before(ctx, query); err != nil {
			return zero, fmt.Errorf("querybus: middleware rejected query: %w", err)
		}
	}

	start := time.Now()
	result, err := handler(ctx, query)
	if err != nil {
		for i := len(b.middleware) - 1; i >= 0; i-- {
			b.middleware[i].OnError(ctx, query, err)
		}
		return zero, fmt.Errorf("querybus: query execution failed: %w", err)
	}

	elapsed := time.Since(start)
	for i := len(b.middleware) - 1; i >= 0; i-- {
		b.middleware[i].After(ctx, query, result, elapsed)
	}

	typed, ok := result.(R)
	if !ok {
		return zero, fmt.Errorf("querybus: result type mismatch: expected %T, got %T", zero, result)
	}
	return typed, nil
}

// IsRegistered reports whether a handler exists for Q.
func IsRegistered[Q any](b *Bus) bool {
	var zero Q
	_, ok := b.handlers[reflect.TypeOf(zero)]
	return ok
}

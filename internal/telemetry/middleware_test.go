package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalease-ai/evidence-core/internal/queryhandlers"
	"github.com/legalease-ai/evidence-core/internal/retriever"
)

func TestBusMiddlewareRecordsSearchQueries(t *testing.T) {
	metrics := NewQueryMetricsWithConfig(nil, QueryMetricsConfig{FlushInterval: time.Hour})
	defer metrics.Close()

	mw := NewBusMiddleware(metrics)

	query := queryhandlers.SearchEvidenceQuery{CaseID: "case-1", Text: "breach of contract", Mode: retriever.ModeHybrid}
	result := queryhandlers.SearchEvidenceResult{Results: []retriever.Result{{ChunkID: "c1"}, {ChunkID: "c2"}}}

	require.NoError(t, mw.Before(context.Background(), query))
	mw.After(context.Background(), query, result, 15*time.Millisecond)

	snap := metrics.Snapshot()
	assert.EqualValues(t, 1, snap.TotalQueries)
	assert.EqualValues(t, 1, snap.QueryTypeCounts[QueryTypeMixed])
}

func TestBusMiddlewareIgnoresOtherQueryTypes(t *testing.T) {
	metrics := NewQueryMetricsWithConfig(nil, QueryMetricsConfig{FlushInterval: time.Hour})
	defer metrics.Close()

	mw := NewBusMiddleware(metrics)
	mw.After(context.Background(), struct{ Unrelated string }{}, nil, time.Millisecond)

	snap := metrics.Snapshot()
	assert.EqualValues(t, 0, snap.TotalQueries)
}

package telemetry

import (
	"context"
	"time"

	"github.com/legalease-ai/evidence-core/internal/queryhandlers"
	"github.com/legalease-ai/evidence-core/internal/retriever"
)

// BusMiddleware records every dispatched SearchEvidenceQuery into a
// QueryMetrics recorder, satisfying querybus.Middleware structurally so
// this leaf package never has to import the bus itself.
type BusMiddleware struct {
	metrics *QueryMetrics
}

// NewBusMiddleware builds a BusMiddleware recording into metrics.
func NewBusMiddleware(metrics *QueryMetrics) BusMiddleware {
	return BusMiddleware{metrics: metrics}
}

func (m BusMiddleware) Before(ctx context.Context, query any) error { return nil }

func (m BusMiddleware) After(ctx context.Context, query any, result any, elapsed time.Duration) {
	q, ok := query.(queryhandlers.SearchEvidenceQuery)
	if !ok {
		return
	}
	res, _ := result.(queryhandlers.SearchEvidenceResult)
	m.metrics.Record(QueryEvent{
		Query:       q.Text,
		QueryType:   classifyMode(q.Mode),
		ResultCount: len(res.Results),
		Latency:     elapsed,
		Timestamp:   time.Now(),
	})
}

func (m BusMiddleware) OnError(ctx context.Context, query any, err error) {}

// classifyMode maps a search's retriever.Mode to the telemetry query-type
// taxonomy.
func classifyMode(mode retriever.Mode) QueryType {
	switch mode {
	case retriever.ModeDenseOnly:
		return QueryTypeSemantic
	case retriever.ModeLexicalOnly:
		return QueryTypeLexical
	default:
		return QueryTypeMixed
	}
}

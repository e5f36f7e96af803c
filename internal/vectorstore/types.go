// Package vectorstore holds the dense vector side of the dual store (C2):
// a VectorStore interface with two concrete backends, an in-process HNSW
// graph and a pluggable Qdrant client, each instantiated three times per
// collection for the named vector spaces (summary, section, microblock).
package vectorstore

import (
	"context"
	"fmt"
)

// VectorResult is one nearest-neighbor hit.
type VectorResult struct {
	ID       string
	Distance float32
	Score    float32
}

// Metric selects the distance function a space was built with.
type Metric string

const (
	MetricCosine    Metric = "cos"
	MetricEuclidean Metric = "l2"
)

// Space names the three named dense vector spaces a chunk may be embedded
// into. Dense retrieval picks a space by chunk_type filter, defaulting to
// Section.
type Space string

const (
	SpaceSummary   Space = "summary"
	SpaceSection   Space = "section"
	SpaceMicroblock Space = "microblock"
)

// Config configures one vector space instance.
type Config struct {
	Dimensions     int
	Metric         Metric
	M              int
	EfConstruction int
	EfSearch       int
}

// DefaultConfig returns sensible HNSW defaults for the given dimensionality.
func DefaultConfig(dimensions int) Config {
	return Config{
		Dimensions:     dimensions,
		Metric:         MetricCosine,
		M:              16,
		EfConstruction: 200,
		EfSearch:       20,
	}
}

// Store is the contract every vector-store backend implements. One Store
// instance holds one named space for one evidence-type collection.
type Store interface {
	Add(ctx context.Context, ids []string, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error)
	Delete(ctx context.Context, ids []string) error
	AllIDs(ctx context.Context) ([]string, error)
	Contains(ctx context.Context, id string) (bool, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

// ErrDimensionMismatch reports a vector whose length does not match the
// space's configured dimensionality.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("vectorstore: dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}

// Spaces bundles the three named-space stores backing one evidence-type
// collection, the unit C2's writer and C3's retriever operate on together.
type Spaces struct {
	Summary   Store
	Section   Store
	Microblock Store
}

// Get returns the store for the named space.
func (s Spaces) Get(space Space) (Store, error) {
	switch space {
	case SpaceSummary:
		return s.Summary, nil
	case SpaceSection:
		return s.Section, nil
	case SpaceMicroblock:
		return s.Microblock, nil
	default:
		return nil, fmt.Errorf("vectorstore: unknown space %q", space)
	}
}

// Close closes all three spaces, returning the first error encountered.
func (s Spaces) Close() error {
	var firstErr error
	for _, st := range []Store{s.Summary, s.Section, s.Microblock} {
		if st == nil {
			continue
		}
		if err := st.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

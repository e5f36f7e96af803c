// Package lexstore holds the lexical (BM25) side of the dual store (C2): a
// Store interface with a blevesearch/bleve/v2-backed implementation, one
// instance per evidence-type collection (documents, transcripts,
// communications, findings).
package lexstore

import (
	"context"
	"strings"
)

// Document is one lexically-indexed unit: a chunk's text keyed by chunk ID.
type Document struct {
	ID   string
	Text string
}

// Result is one BM25 hit.
type Result struct {
	DocID        string
	Score        float64
	MatchedTerms []string
}

// Stats summarizes one collection's lexical index.
type Stats struct {
	DocumentCount int
	SizeBytes     int64
}

// Store is the contract every lexical-index backend implements.
type Store interface {
	Index(ctx context.Context, docs []Document) error
	Search(ctx context.Context, query string, limit int) ([]Result, error)
	Delete(ctx context.Context, ids []string) error
	AllIDs(ctx context.Context) ([]string, error)
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

// BuildStopWordSet lowercases a stop-word list into a lookup set.
func BuildStopWordSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	return set
}

package domain

import (
	"fmt"
	"time"
)

// FindingType is the variant of a Finding's claim.
type FindingType string

const (
	FindingTypeFact           FindingType = "FACT"
	FindingTypeQuote          FindingType = "QUOTE"
	FindingTypeTimelineEvent  FindingType = "TIMELINE_EVENT"
	FindingTypeContradiction  FindingType = "CONTRADICTION"
	FindingTypePattern        FindingType = "PATTERN"
)

// Finding is a typed, citation-backed atomic claim produced during research.
type Finding struct {
	ID            string
	ResearchRunID string
	FindingType   FindingType
	Text          string
	Entities      []string
	Citations     []Citation
	Confidence    float64
	Relevance     float64
	Tags          []string
	CreatedAt     time.Time

	// EventTimestamp is set only for FindingTypeTimelineEvent; zero otherwise.
	EventTimestamp *time.Time
}

// Citation is an immutable reference from a Finding back to a specific
// Chunk (and, for transcripts, a segment offset range within it).
type Citation struct {
	ChunkID    string
	EvidenceID string
	StartOffset int
	EndOffset   int
}

// NewFinding validates and constructs a Finding. Confidence and relevance
// must each lie in [0,1]; violation rejects construction per the data model
// invariant.
func NewFinding(id, researchRunID string, typ FindingType, text string, confidence, relevance float64) (*Finding, error) {
	if id == "" || researchRunID == "" {
		return nil, fmt.Errorf("domain: finding requires id and research_run_id")
	}
	if confidence < 0 || confidence > 1 {
		return nil, fmt.Errorf("domain: finding confidence %.3f out of [0,1]", confidence)
	}
	if relevance < 0 || relevance > 1 {
		return nil, fmt.Errorf("domain: finding relevance %.3f out of [0,1]", relevance)
	}
	return &Finding{
		ID:            id,
		ResearchRunID: researchRunID,
		FindingType:   typ,
		Text:          text,
		Confidence:    confidence,
		Relevance:     relevance,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

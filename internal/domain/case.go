// Package domain holds the core entities of the evidence platform: cases,
// evidence, chunks, research runs, findings, citations, the knowledge graph,
// timeline events, and dossiers. Constructors validate the invariants from
// the data model; callers outside this package never build these structs by
// hand.
package domain

import (
	"fmt"
	"time"
)

// CaseStatus is the lifecycle state of a Case.
type CaseStatus string

const (
	CaseStatusActive   CaseStatus = "ACTIVE"
	CaseStatusClosed   CaseStatus = "CLOSED"
	CaseStatusArchived CaseStatus = "ARCHIVED"
)

// Case is the root aggregate. Evidence rows cascade-delete with their case.
type Case struct {
	ID         string
	CaseNumber string
	Client     string
	MatterType string
	Status     CaseStatus
	TeamID     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewCase validates and constructs a Case. CaseNumber uniqueness is enforced
// by the metadata store, not here, since it requires a lookup.
func NewCase(id, caseNumber, client, matterType, teamID string) (*Case, error) {
	if id == "" {
		return nil, fmt.Errorf("domain: case id is required")
	}
	if caseNumber == "" {
		return nil, fmt.Errorf("domain: case_number is required")
	}
	now := time.Now().UTC()
	return &Case{
		ID:         id,
		CaseNumber: caseNumber,
		Client:     client,
		MatterType: matterType,
		Status:     CaseStatusActive,
		TeamID:     teamID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (s CaseStatus) Valid() bool {
	switch s {
	case CaseStatusActive, CaseStatusClosed, CaseStatusArchived:
		return true
	default:
		return false
	}
}

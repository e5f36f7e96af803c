package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/legalease-ai/evidence-core/internal/domain"
	"github.com/legalease-ai/evidence-core/internal/retriever"
)

func TestToRetrieverMode(t *testing.T) {
	assert.Equal(t, retriever.ModeDenseOnly, toRetrieverMode("DENSE_ONLY"))
	assert.Equal(t, retriever.ModeLexicalOnly, toRetrieverMode("LEXICAL_ONLY"))
	assert.Equal(t, retriever.ModeHybrid, toRetrieverMode("HYBRID"))
	assert.Equal(t, retriever.ModeHybrid, toRetrieverMode(""))
	assert.Equal(t, retriever.ModeHybrid, toRetrieverMode("bogus"))
}

func TestToCitationOutputs(t *testing.T) {
	cs := []domain.Citation{
		{ChunkID: "c1", EvidenceID: "ev-1", StartOffset: 10, EndOffset: 20},
	}

	out := toCitationOutputs(cs)

	assert.Len(t, out, 1)
	assert.Equal(t, "c1", out[0].ChunkID)
	assert.Equal(t, "ev-1", out[0].EvidenceID)
	assert.Equal(t, 10, out[0].StartOffset)
	assert.Equal(t, 20, out[0].EndOffset)
}

func TestToCitationOutputs_Empty(t *testing.T) {
	out := toCitationOutputs(nil)
	assert.Empty(t, out)
}

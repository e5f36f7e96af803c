package chunk

import (
	"fmt"
	"strings"

	"github.com/legalease-ai/evidence-core/internal/domain"
)

// TranscriptChunkerOptions configures TranscriptChunker behavior.
type TranscriptChunkerOptions struct {
	MaxChunkTokens int
	// MaxTurnsPerBlock bounds how many contiguous same-speaker segments get
	// merged into one microblock before a new one starts, independent of
	// the token budget (a witness can speak for a very long single turn).
	MaxTurnsPerBlock int
}

// TranscriptChunker turns a Transcript's ordered Segments into microblock
// chunks — one per contiguous run of turns from a single speaker — plus one
// rolled-up summary chunk for the whole transcript.
type TranscriptChunker struct {
	options TranscriptChunkerOptions
}

func NewTranscriptChunker() *TranscriptChunker {
	return NewTranscriptChunkerWithOptions(TranscriptChunkerOptions{})
}

func NewTranscriptChunkerWithOptions(opts TranscriptChunkerOptions) *TranscriptChunker {
	if opts.MaxChunkTokens == 0 {
		opts.MaxChunkTokens = DefaultMaxChunkTokens
	}
	if opts.MaxTurnsPerBlock == 0 {
		opts.MaxTurnsPerBlock = 20
	}
	return &TranscriptChunker{options: opts}
}

// Chunk ignores the content argument transcripts pass through in the
// Chunker interface (the segments themselves carry the text) and instead
// chunks evidence.Segments directly. content is accepted only so
// TranscriptChunker satisfies the same Chunker shape as DocumentChunker.
func (c *TranscriptChunker) Chunk(evidence *domain.Evidence, content string) ([]*domain.Chunk, error) {
	if len(evidence.Segments) == 0 {
		return nil, nil
	}

	pos := 0
	var chunks []*domain.Chunk
	var full strings.Builder

	var block []domain.Segment
	flush := func() ([]*domain.Chunk, error) {
		if len(block) == 0 {
			return nil, nil
		}
		text := renderBlock(block)
		ch, err := domain.NewChunk(evidence.ID, evidence.CaseID, text, domain.ChunkTypeMicroblock, pos)
		if err != nil {
			return nil, fmt.Errorf("chunk: build microblock chunk for %s: %w", evidence.ID, err)
		}
		ch.Metadata["speaker_id"] = block[0].SpeakerID
		ch.Metadata["start_s"] = formatSeconds(block[0].StartS)
		ch.Metadata["end_s"] = formatSeconds(block[len(block)-1].EndS)
		pos++
		block = nil
		return []*domain.Chunk{ch}, nil
	}

	for _, seg := range evidence.Segments {
		full.WriteString(seg.Text)
		full.WriteString(" ")

		if len(block) > 0 {
			prev := block[len(block)-1]
			sameSpeaker := prev.SpeakerID == seg.SpeakerID
			withinTurnCap := len(block) < c.options.MaxTurnsPerBlock
			withinTokenCap := estimateTokens(renderBlock(block))+estimateTokens(seg.Text) <= c.options.MaxChunkTokens
			if !sameSpeaker || !withinTurnCap || !withinTokenCap {
				flushed, err := flush()
				if err != nil {
					return nil, err
				}
				chunks = append(chunks, flushed...)
			}
		}
		block = append(block, seg)
	}
	flushed, err := flush()
	if err != nil {
		return nil, err
	}
	chunks = append(chunks, flushed...)

	summary, err := domain.NewChunk(evidence.ID, evidence.CaseID, summarize(full.String()), domain.ChunkTypeSummary, pos)
	if err != nil {
		return nil, fmt.Errorf("chunk: build transcript summary chunk for %s: %w", evidence.ID, err)
	}
	chunks = append([]*domain.Chunk{summary}, chunks...)

	return chunks, nil
}

func renderBlock(block []domain.Segment) string {
	var sb strings.Builder
	speaker := block[0].SpeakerID
	if speaker == "" {
		speaker = "unknown speaker"
	}
	sb.WriteString(speaker)
	sb.WriteString(": ")
	for i, seg := range block {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(seg.Text)
	}
	return sb.String()
}

func formatSeconds(s float64) string {
	return fmt.Sprintf("%.2f", s)
}

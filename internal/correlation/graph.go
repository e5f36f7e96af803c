package correlation

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/legalease-ai/evidence-core/internal/domain"
)

// aliasTable maps common nicknames to their canonical form before node
// dedup; resolveAlias applies it word by word to an already
// case-normalized label. Small and fixed; extend as real cases surface
// misses.
var aliasTable = map[string]string{
	"jon":    "jonathan",
	"bob":    "robert",
	"bill":   "william",
	"liz":    "elizabeth",
	"beth":   "elizabeth",
	"mike":   "michael",
	"dave":   "david",
	"jim":    "james",
	"tom":    "thomas",
	"steve":  "steven",
	"chris":  "christopher",
}

func resolveAlias(canonical string) string {
	words := strings.Fields(canonical)
	for i, w := range words {
		if full, ok := aliasTable[w]; ok {
			words[i] = full
		}
	}
	return strings.Join(words, " ")
}

var orgSuffixes = []string{"inc", "inc.", "llc", "l.l.c.", "corp", "corp.", "co.", "ltd", "ltd.", "llp", "company", "corporation", "partners", "group"}

var locationKeywords = []string{"street", "st.", "avenue", "ave.", "road", "rd.", "city", "county", "courthouse", "district", "boulevard"}

// classifyEntityType heuristically buckets an extracted entity label into
// a NodeType when the analysis activities didn't tag one. Organizations
// are recognized by trailing legal-entity suffixes, locations by common
// address/place keywords; anything else defaults to PERSON, the most
// common entity kind in case research.
func classifyEntityType(label string) domain.NodeType {
	lower := strings.ToLower(label)
	fields := strings.Fields(lower)
	if len(fields) > 0 {
		last := strings.TrimRight(fields[len(fields)-1], ".,")
		for _, s := range orgSuffixes {
			if last == strings.TrimRight(s, ".") {
				return domain.NodeTypeOrganization
			}
		}
	}
	for _, kw := range locationKeywords {
		if strings.Contains(lower, kw) {
			return domain.NodeTypeLocation
		}
	}
	return domain.NodeTypePerson
}

type graphBuilder struct {
	caseID string
	nodes  map[string]*domain.GraphNode // keyed by type|canonical-label
	edges  map[string]*domain.GraphRelationship // keyed by source|target|type
}

func newGraphBuilder(caseID string) *graphBuilder {
	return &graphBuilder{
		caseID: caseID,
		nodes:  make(map[string]*domain.GraphNode),
		edges:  make(map[string]*domain.GraphRelationship),
	}
}

func (b *graphBuilder) nodeKey(typ domain.NodeType, label string) string {
	return string(typ) + "|" + resolveAlias(domain.CanonicalLabel(label))
}

func (b *graphBuilder) getOrCreateNode(label string, typ domain.NodeType) *domain.GraphNode {
	key := b.nodeKey(typ, label)
	if n, ok := b.nodes[key]; ok {
		return n
	}
	n := &domain.GraphNode{
		ID:         uuid.NewString(),
		CaseID:     b.caseID,
		Type:       typ,
		Label:      label,
		Properties: map[string]string{},
	}
	b.nodes[key] = n
	return n
}

func (b *graphBuilder) addEdge(sourceID, targetID string, typ domain.RelationshipType) {
	if sourceID == targetID {
		return
	}
	key := sourceID + "|" + targetID + "|" + string(typ)
	if _, ok := b.edges[key]; ok {
		return
	}
	b.edges[key] = &domain.GraphRelationship{
		ID:         uuid.NewString(),
		CaseID:     b.caseID,
		SourceID:   sourceID,
		TargetID:   targetID,
		Type:       typ,
		Properties: map[string]string{},
	}
}

func (b *graphBuilder) nodeSlice() []*domain.GraphNode {
	out := make([]*domain.GraphNode, 0, len(b.nodes))
	for _, n := range b.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (b *graphBuilder) edgeSlice() []*domain.GraphRelationship {
	out := make([]*domain.GraphRelationship, 0, len(b.edges))
	for _, e := range b.edges {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// buildGraph extracts entities, cited documents, and timeline events from
// findings into deduplicated graph nodes, and wires mentioned_in,
// participated_in, related_to, and precedes relationships per finding. The
// returned docNodeByEvidence map lets later stages (contradiction
// detection) attach edges to the same document node IDs rather than
// inventing their own.
func buildGraph(caseID string, findings []*domain.Finding) (nodes []*domain.GraphNode, rels []*domain.GraphRelationship, docNodeByEvidence map[string]string) {
	b := newGraphBuilder(caseID)
	docNodeByEvidence = make(map[string]string)

	type timelineNode struct {
		timestamp time.Time
		nodeID    string
	}
	var timelineNodes []timelineNode

	for _, f := range findings {
		entityNodes := make([]*domain.GraphNode, 0, len(f.Entities))
		for _, ent := range f.Entities {
			if ent == "" {
				continue
			}
			entityNodes = append(entityNodes, b.getOrCreateNode(ent, classifyEntityType(ent)))
		}

		for _, c := range f.Citations {
			if c.EvidenceID == "" {
				continue
			}
			docNode := b.getOrCreateNode(fmt.Sprintf("evidence:%s", c.EvidenceID), domain.NodeTypeDocument)
			docNodeByEvidence[c.EvidenceID] = docNode.ID
			for _, en := range entityNodes {
				b.addEdge(en.ID, docNode.ID, domain.RelMentionedIn)
			}
		}

		for i := 0; i < len(entityNodes); i++ {
			for j := i + 1; j < len(entityNodes); j++ {
				b.addEdge(entityNodes[i].ID, entityNodes[j].ID, domain.RelRelatedTo)
			}
		}

		if f.FindingType == domain.FindingTypeTimelineEvent && f.EventTimestamp != nil {
			eventNode := b.getOrCreateNode(f.Text, domain.NodeTypeEvent)
			for _, en := range entityNodes {
				b.addEdge(en.ID, eventNode.ID, domain.RelParticipatedIn)
			}
			timelineNodes = append(timelineNodes, timelineNode{timestamp: *f.EventTimestamp, nodeID: eventNode.ID})
		}
	}

	sort.SliceStable(timelineNodes, func(i, j int) bool { return timelineNodes[i].timestamp.Before(timelineNodes[j].timestamp) })
	for i := 1; i < len(timelineNodes); i++ {
		b.addEdge(timelineNodes[i-1].nodeID, timelineNodes[i].nodeID, domain.RelPrecedes)
	}

	return b.nodeSlice(), b.edgeSlice(), docNodeByEvidence
}

package common

import (
	"sort"
	"strings"
)

// NodeType classifies a node in the network. Source documents are either
// web pages or uploaded files, link targets outside the crawl are external,
// recurring noun phrases are concepts and everything else is a named-entity
// category reported by the annotator.
type NodeType string

const (
	NodeTypeWeb      NodeType = "web"
	NodeTypeFile     NodeType = "file"
	NodeTypeExternal NodeType = "external"
	NodeTypeConcept  NodeType = "concept"

	NodeTypePerson    NodeType = "PERSON"
	NodeTypeOrg       NodeType = "ORG"
	NodeTypeGPE       NodeType = "GPE"
	NodeTypeEvent     NodeType = "EVENT"
	NodeTypeLoc       NodeType = "LOC"
	NodeTypeProduct   NodeType = "PRODUCT"
	NodeTypeWorkOfArt NodeType = "WORK_OF_ART"
)

// EntityLabels is the closed set of annotator labels that become entity nodes.
var EntityLabels = []NodeType{
	NodeTypePerson,
	NodeTypeOrg,
	NodeTypeGPE,
	NodeTypeEvent,
	NodeTypeLoc,
	NodeTypeProduct,
	NodeTypeWorkOfArt,
}

// ParseEntityLabel maps an annotator label onto an entity node type.
func ParseEntityLabel(label string) (NodeType, bool) {
	t := NodeType(strings.ToUpper(strings.TrimSpace(label)))
	if t.IsEntity() {
		return t, true
	}
	return "", false
}

// IsEntity reports whether t is one of the named-entity categories.
func (t NodeType) IsEntity() bool {
	switch t {
	case NodeTypePerson, NodeTypeOrg, NodeTypeGPE, NodeTypeEvent,
		NodeTypeLoc, NodeTypeProduct, NodeTypeWorkOfArt:
		return true
	default:
		return false
	}
}

// IsDocument reports whether t identifies a source document.
func (t NodeType) IsDocument() bool {
	return t == NodeTypeWeb || t == NodeTypeFile
}

// Priority orders node types for merge conflicts and view ranking.
// Documents rank highest, then entities, then concepts, then external links.
func (t NodeType) Priority() int {
	switch {
	case t.IsDocument():
		return 3
	case t.IsEntity():
		return 2
	case t == NodeTypeConcept:
		return 1
	default:
		return 0
	}
}

// Relation types carried by edges. Verb-driven relations use VerbRelation.
const (
	RelationLinksInternal   = "LINKS_TO_INTERNAL"
	RelationLinksExternal   = "LINKS_TO_EXTERNAL"
	RelationMentionsEntity  = "MENTIONS_ENTITY"
	RelationMentionsConcept = "MENTIONS_CONCEPT"
	RelationCoOccurs        = "CO_OCCURS_IN_SENTENCE"

	verbRelationPrefix = "VERB:"
)

// VerbRelation builds the relation type for a verb lemma, e.g. VERB:ACQUIRE.
func VerbRelation(lemma string) string {
	return verbRelationPrefix + strings.ToUpper(strings.TrimSpace(lemma))
}

// IsVerbRelation reports whether relationType was produced by VerbRelation.
func IsVerbRelation(relationType string) bool {
	return strings.HasPrefix(relationType, verbRelationPrefix)
}

// IsSymmetricRelation reports whether endpoints of the relation are unordered.
func IsSymmetricRelation(relationType string) bool {
	return relationType == RelationCoOccurs
}

// Node is a vertex of the canonical graph. The analytics fields are zero
// until the analytics engine has run over the complete graph.
type Node struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Type       NodeType `json:"type"`
	Count      int      `json:"count"`
	Confidence float64  `json:"confidence"`
	Aliases    []string `json:"aliases"`

	DegreeCentrality float64 `json:"degree_centrality"`
	Betweenness      float64 `json:"betweenness"`
	PageRank         float64 `json:"pagerank"`
	Community        int     `json:"community"`
	Val              float64 `json:"val"`
}

// Edge is a directed relation between two nodes. Candidate edges that share
// a Key are merged by the assembler and never coexist in one graph.
type Edge struct {
	Source            string   `json:"source"`
	Target            string   `json:"target"`
	RelationType      string   `json:"relation_type"`
	Weight            float64  `json:"weight"`
	Confidence        float64  `json:"confidence"`
	Predicate         string   `json:"predicate,omitempty"`
	EvidenceSentence  string   `json:"evidence_sentence,omitempty"`
	EvidenceSentences []string `json:"evidence_sentences,omitempty"`
	SourceDocs        []string `json:"source_docs"`
}

// EdgeKey is the dedup key of an edge.
type EdgeKey struct {
	Source       string
	Target       string
	RelationType string
	Predicate    string
}

// Key returns the dedup key of e.
func (e Edge) Key() EdgeKey {
	return EdgeKey{
		Source:       e.Source,
		Target:       e.Target,
		RelationType: e.RelationType,
		Predicate:    e.Predicate,
	}
}

// String renders the key in a stable form usable for ordering.
func (k EdgeKey) String() string {
	return k.Source + "\x00" + k.Target + "\x00" + k.RelationType + "\x00" + k.Predicate
}

// Graph is the canonical node and edge set of one query. Nodes are ordered
// by id and edges by key so that two graphs with the same content compare
// equal.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"links"`
}

// NodeIndex maps node ids to their position in g.Nodes.
func (g *Graph) NodeIndex() map[string]int {
	idx := make(map[string]int, len(g.Nodes))
	for i := range g.Nodes {
		idx[g.Nodes[i].ID] = i
	}
	return idx
}

// Sort puts nodes and edges into canonical order.
func (g *Graph) Sort() {
	sort.Slice(g.Nodes, func(i, j int) bool { return g.Nodes[i].ID < g.Nodes[j].ID })
	sort.Slice(g.Edges, func(i, j int) bool {
		return g.Edges[i].Key().String() < g.Edges[j].Key().String()
	})
}

// BridgeNode is one entry of the bridge ranking in Insights.
type BridgeNode struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Type  NodeType `json:"type"`
	Score float64  `json:"score"`
}

// CommunitySummary describes one detected community.
type CommunitySummary struct {
	ID          int      `json:"id"`
	Size        int      `json:"size"`
	SampleNodes []string `json:"sample_nodes"`
}

// RelationCount is one bucket of the relation distribution.
type RelationCount struct {
	RelationType string `json:"relation_type"`
	Count        int    `json:"count"`
}

// GraphStats holds whole-graph totals.
type GraphStats struct {
	NodeCount int `json:"node_count"`
	EdgeCount int `json:"edge_count"`
}

// AnalyticsTiers names the algorithm tier chosen for each size-gated metric.
type AnalyticsTiers struct {
	Betweenness string `json:"betweenness"`
	Community   string `json:"community"`
	PageRank    string `json:"pagerank"`
}

// Insights is the summary computed once per query by the analytics engine.
type Insights struct {
	BridgeNodes          []BridgeNode       `json:"bridge_nodes"`
	Communities          []CommunitySummary `json:"communities"`
	RelationDistribution []RelationCount    `json:"relation_distribution"`
	GraphStats           GraphStats         `json:"graph_stats"`
	AnalyticsTiers       AnalyticsTiers     `json:"analytics_tiers"`
}

// SkippedSource records a URL or upload that could not be fetched or decoded.
type SkippedSource struct {
	Source string `json:"source"`
	Reason string `json:"reason"`
}

// Meta describes how a served view relates to its canonical graph.
type Meta struct {
	QueryID          string          `json:"query_id,omitempty"`
	VisibleNodes     int             `json:"visible_nodes"`
	VisibleLinks     int             `json:"visible_links"`
	TotalNodes       int             `json:"total_nodes"`
	TotalLinks       int             `json:"total_links"`
	NodeLimit        int             `json:"node_limit"`
	LinkLimit        int             `json:"link_limit"`
	Truncated        bool            `json:"truncated"`
	LoadMoreNodeStep int             `json:"load_more_node_step"`
	LoadMoreLinkStep int             `json:"load_more_link_step"`
	SkippedSources   []SkippedSource `json:"skipped_sources,omitempty"`
}

// GraphResponse is the document returned by every graph endpoint and
// persisted as a snapshot.
type GraphResponse struct {
	Nodes    []Node   `json:"nodes"`
	Links    []Edge   `json:"links"`
	Insights Insights `json:"insights"`
	Meta     Meta     `json:"meta"`
}

// MaxAliases bounds Node.Aliases.
const MaxAliases = 8

// PreferType resolves a type conflict between two records of the same id:
// the higher priority wins, equal priorities fall back to lexicographic order.
func PreferType(a, b NodeType) NodeType {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	if pa, pb := a.Priority(), b.Priority(); pa != pb {
		if pa > pb {
			return a
		}
		return b
	}
	if b < a {
		return b
	}
	return a
}

// PreferTitle keeps the longer display title, ties broken lexicographically.
func PreferTitle(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	la, lb := len([]rune(a)), len([]rune(b))
	if la != lb {
		if la > lb {
			return a
		}
		return b
	}
	if b < a {
		return b
	}
	return a
}

// UnionSorted merges string sets into a sorted, distinct list of at most
// max entries. A non-positive max keeps everything.
func UnionSorted(max int, lists ...[]string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, list := range lists {
		for _, s := range list {
			if s == "" {
				continue
			}
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	sort.Strings(out)
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}

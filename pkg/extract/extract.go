package extract

import (
	"math"
	"strings"

	"github.com/soitgoes511/graph-network-visualizer/internal/util"
	"github.com/soitgoes511/graph-network-visualizer/pkg/annotate"
	"github.com/soitgoes511/graph-network-visualizer/pkg/common"
	"github.com/soitgoes511/graph-network-visualizer/pkg/loader"
)

// Options bounds the work done per document.
type Options struct {
	ConceptTopN            int
	MinConceptCount        int
	MaxSentences           int
	MaxEntitiesPerSentence int
	MaxCoOccurrencePairs   int
	MaxVerbPairs           int
	MaxRelations           int
	EvidenceChars          int
	Aliases                AliasTable
}

// DefaultOptions returns the extraction caps used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		ConceptTopN:            12,
		MinConceptCount:        2,
		MaxSentences:           1_600,
		MaxEntitiesPerSentence: 10,
		MaxCoOccurrencePairs:   45,
		MaxVerbPairs:           36,
		MaxRelations:           8_000,
		EvidenceChars:          260,
	}
}

const (
	coOccurrenceConfidence = 0.45
	verbConfidence         = 0.62
	linkConfidence         = 1.0
	documentConfidence     = 1.0
	placeholderConfidence  = 0.5
)

// Candidates is the extraction result of one document. Nodes and edges are
// local to the document and still need to be assembled with the rest of
// the batch.
type Candidates struct {
	DocumentID       string
	Nodes            []common.Node
	Edges            []common.Edge
	SkippedSentences int
}

// Extractor turns annotated sentences into candidate nodes and edges. It
// holds no per-document state and is safe for concurrent use.
type Extractor struct {
	opts Options
}

// NewExtractor fills zero fields of opts with defaults.
func NewExtractor(opts Options) *Extractor {
	def := DefaultOptions()
	if opts.ConceptTopN <= 0 {
		opts.ConceptTopN = def.ConceptTopN
	}
	if opts.MinConceptCount <= 0 {
		opts.MinConceptCount = def.MinConceptCount
	}
	if opts.MaxSentences <= 0 {
		opts.MaxSentences = def.MaxSentences
	}
	if opts.MaxEntitiesPerSentence <= 0 {
		opts.MaxEntitiesPerSentence = def.MaxEntitiesPerSentence
	}
	if opts.MaxCoOccurrencePairs <= 0 {
		opts.MaxCoOccurrencePairs = def.MaxCoOccurrencePairs
	}
	if opts.MaxVerbPairs <= 0 {
		opts.MaxVerbPairs = def.MaxVerbPairs
	}
	if opts.MaxRelations <= 0 {
		opts.MaxRelations = def.MaxRelations
	}
	if opts.EvidenceChars <= 0 {
		opts.EvidenceChars = def.EvidenceChars
	}
	if opts.Aliases == nil {
		opts.Aliases = AliasTable{}
	}
	return &Extractor{opts: opts}
}

// docState collects the candidates of one document while it is scanned.
type docState struct {
	docID     string
	sentences []annotate.Sentence
	// tokenNode[s][t] is the node id of token t in sentence s, or "".
	tokenNode [][]string

	entities map[string]*common.Node
	concepts map[string]*common.Node

	relations *relationSet
}

// Extract runs all extraction rules over one document. Sentences with
// annotation gaps are skipped; a document without candidates still yields
// its own document node and links.
func (x *Extractor) Extract(doc loader.Document, sentences []annotate.Sentence) Candidates {
	st := &docState{
		docID:     doc.ID,
		entities:  make(map[string]*common.Node),
		concepts:  make(map[string]*common.Node),
		relations: newRelationSet(doc.ID, x.opts.MaxRelations),
	}

	skipped := 0
	for _, s := range sentences {
		if len(st.sentences) >= x.opts.MaxSentences {
			break
		}
		if !s.Valid() {
			skipped++
			continue
		}
		st.sentences = append(st.sentences, s)
	}
	st.tokenNode = make([][]string, len(st.sentences))
	for i, s := range st.sentences {
		st.tokenNode[i] = make([]string, len(s.Tokens))
	}

	x.collectEntities(st)
	x.collectConcepts(st)
	for i := range st.sentences {
		x.sentenceRelations(st, i)
	}

	out := Candidates{DocumentID: doc.ID, SkippedSentences: skipped}
	out.Nodes = append(out.Nodes, documentNode(doc))
	for _, n := range st.entities {
		out.Nodes = append(out.Nodes, *n)
		out.Edges = append(out.Edges, mentionEdge(doc.ID, n, common.RelationMentionsEntity))
	}
	for _, n := range st.concepts {
		out.Nodes = append(out.Nodes, *n)
		out.Edges = append(out.Edges, mentionEdge(doc.ID, n, common.RelationMentionsConcept))
	}
	out.Edges = append(out.Edges, st.relations.edges()...)

	nodes, edges := x.linkCandidates(doc)
	out.Nodes = append(out.Nodes, nodes...)
	out.Edges = append(out.Edges, edges...)

	g := common.Graph{Nodes: out.Nodes, Edges: out.Edges}
	g.Sort()
	out.Nodes, out.Edges = g.Nodes, g.Edges
	return out
}

func (x *Extractor) collectEntities(st *docState) {
	for si, s := range st.sentences {
		for _, span := range s.Entities {
			typ, ok := common.ParseEntityLabel(span.Label)
			if !ok {
				continue
			}
			surface := util.CollapseSpaces(span.Text)
			if surface == "" {
				surface = spanText(s, span)
			}
			if len([]rune(surface)) < 3 {
				continue
			}
			key := NormalizeName(surface)
			if len([]rune(key)) < 2 {
				continue
			}
			key = x.opts.Aliases.Resolve(key)
			id := EntityID(key)

			n, ok := st.entities[id]
			if !ok {
				n = &common.Node{ID: id, Type: typ}
				st.entities[id] = n
			}
			n.Type = common.PreferType(n.Type, typ)
			n.Title = common.PreferTitle(n.Title, surface)
			n.Count++
			n.Aliases = common.UnionSorted(common.MaxAliases, n.Aliases, []string{surface})

			for ti := span.Start; ti < span.End; ti++ {
				if st.tokenNode[si][ti] == "" {
					st.tokenNode[si][ti] = id
				}
			}
		}
	}
	for _, n := range st.entities {
		n.Confidence = round(math.Min(0.99, 0.5+0.12*math.Log1p(float64(n.Count))), 3)
	}
}

func spanText(s annotate.Sentence, span annotate.EntitySpan) string {
	parts := make([]string, 0, span.End-span.Start)
	for _, tok := range s.Tokens[span.Start:span.End] {
		parts = append(parts, tok.Text)
	}
	return util.CollapseSpaces(strings.Join(parts, " "))
}

func documentNode(doc loader.Document) common.Node {
	typ := common.NodeTypeWeb
	if doc.Kind == loader.DocumentKindFile {
		typ = common.NodeTypeFile
	}
	title := util.CollapseSpaces(doc.Title)
	if title == "" {
		title = doc.ID
	}
	return common.Node{
		ID:         doc.ID,
		Title:      title,
		Type:       typ,
		Count:      1,
		Confidence: documentConfidence,
		Aliases:    []string{},
	}
}

func mentionEdge(docID string, n *common.Node, relation string) common.Edge {
	return common.Edge{
		Source:       docID,
		Target:       n.ID,
		RelationType: relation,
		Weight:       float64(n.Count),
		Confidence:   n.Confidence,
		SourceDocs:   []string{docID},
	}
}

// linkCandidates turns discovered hyperlinks into link edges plus
// placeholder nodes for their targets.
func (x *Extractor) linkCandidates(doc loader.Document) ([]common.Node, []common.Edge) {
	nodes := make(map[string]common.Node)
	edges := make(map[common.EdgeKey]*common.Edge)
	var order []common.EdgeKey

	for _, link := range doc.Links {
		target := strings.TrimSpace(link.Target)
		if target == "" {
			continue
		}
		id := loader.DocumentID(loader.DocumentKindWeb, target)
		if id == doc.ID {
			continue
		}
		typ, relation := common.NodeTypeExternal, common.RelationLinksExternal
		if link.Internal {
			typ, relation = common.NodeTypeWeb, common.RelationLinksInternal
		}
		if _, ok := nodes[id]; !ok {
			nodes[id] = common.Node{
				ID:         id,
				Title:      target,
				Type:       typ,
				Confidence: placeholderConfidence,
				Aliases:    []string{},
			}
		}

		e := common.Edge{Source: doc.ID, Target: id, RelationType: relation}
		key := e.Key()
		cur, ok := edges[key]
		if !ok {
			e.Confidence = linkConfidence
			e.SourceDocs = []string{doc.ID}
			edges[key] = &e
			order = append(order, key)
			cur = &e
		}
		cur.Weight++
		if anchor := trimSentence(link.AnchorText, x.opts.EvidenceChars); anchor != "" {
			cur.EvidenceSentences = common.MergeEvidence(common.MaxEvidenceSentences, cur.EvidenceSentences, []string{anchor})
			cur.EvidenceSentence = common.FirstOrEmpty(cur.EvidenceSentences)
		}
	}

	outNodes := make([]common.Node, 0, len(nodes))
	for _, n := range nodes {
		outNodes = append(outNodes, n)
	}
	outEdges := make([]common.Edge, 0, len(order))
	for _, k := range order {
		outEdges = append(outEdges, *edges[k])
	}
	return outNodes, outEdges
}

// trimSentence collapses whitespace and cuts s to limit characters,
// marking the cut with an ellipsis.
func trimSentence(s string, limit int) string {
	s = util.CollapseSpaces(s)
	if limit <= 3 || len([]rune(s)) <= limit {
		return s
	}
	return strings.TrimRight(util.TruncateRunes(s, limit-3), " ") + "..."
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

package graph

import (
	"math"

	"github.com/soitgoes511/graph-network-visualizer/pkg/common"
	"github.com/soitgoes511/graph-network-visualizer/pkg/extract"
)

// assembler accumulates candidates from any number of documents. Every
// aggregate it keeps is commutative and associative, so the resulting graph
// does not depend on the order documents arrive in.
type assembler struct {
	nodes map[string]common.Node
	edges map[common.EdgeKey]common.Edge
	// rank of the record each node's current title came from
	titles map[string]titleRank
}

func newAssembler() *assembler {
	return &assembler{
		nodes:  make(map[string]common.Node),
		edges:  make(map[common.EdgeKey]common.Edge),
		titles: make(map[string]titleRank),
	}
}

// titleRank orders the records of one node for title selection: titled
// records first, then by type priority, then records of loaded documents
// or counted mentions over link placeholders. Equal ranks fall back to
// common.PreferTitle.
type titleRank struct {
	titled   bool
	priority int
	loaded   bool
}

func rankOf(n common.Node) titleRank {
	return titleRank{
		titled:   n.Title != "",
		priority: n.Type.Priority(),
		loaded:   n.Count > 0,
	}
}

// compare returns -1, 0 or 1 as r ranks below, equal to or above o.
func (r titleRank) compare(o titleRank) int {
	if r.titled != o.titled {
		return boolCmp(r.titled)
	}
	if r.priority != o.priority {
		if r.priority > o.priority {
			return 1
		}
		return -1
	}
	if r.loaded != o.loaded {
		return boolCmp(r.loaded)
	}
	return 0
}

func boolCmp(winner bool) int {
	if winner {
		return 1
	}
	return -1
}

func (a *assembler) add(nodes []common.Node, edges []common.Edge) {
	for _, n := range nodes {
		if n.ID == "" {
			continue
		}
		if cur, ok := a.nodes[n.ID]; ok {
			a.nodes[n.ID], a.titles[n.ID] = mergeNode(cur, a.titles[n.ID], n)
			continue
		}
		n.Aliases = common.UnionSorted(common.MaxAliases, n.Aliases)
		a.nodes[n.ID] = n
		a.titles[n.ID] = rankOf(n)
	}

	for _, e := range edges {
		if e.Source == "" || e.Target == "" || e.Source == e.Target {
			continue
		}
		if common.IsSymmetricRelation(e.RelationType) && e.Target < e.Source {
			e.Source, e.Target = e.Target, e.Source
		}
		key := e.Key()
		if cur, ok := a.edges[key]; ok {
			a.edges[key] = mergeEdge(cur, e)
			continue
		}
		e.SourceDocs = common.UnionSorted(0, e.SourceDocs)
		e.EvidenceSentences = common.MergeEvidence(common.MaxEvidenceSentences, e.EvidenceSentences)
		e.EvidenceSentence = common.FirstOrEmpty(e.EvidenceSentences)
		a.edges[key] = e
	}
}

// graph returns the canonical graph. Edges whose endpoints never appeared
// as nodes are dropped.
func (a *assembler) graph() common.Graph {
	g := common.Graph{
		Nodes: make([]common.Node, 0, len(a.nodes)),
		Edges: make([]common.Edge, 0, len(a.edges)),
	}
	for _, n := range a.nodes {
		g.Nodes = append(g.Nodes, n)
	}
	for _, e := range a.edges {
		if _, ok := a.nodes[e.Source]; !ok {
			continue
		}
		if _, ok := a.nodes[e.Target]; !ok {
			continue
		}
		e.Weight = roundWeight(e.Weight)
		g.Edges = append(g.Edges, e)
	}
	g.Sort()
	return g
}

// mergeNode folds n into cur, whose title came from a record of rank
// curRank. The title follows the best ranked record, so a crawled page
// title beats the bare URL of its link placeholder.
func mergeNode(cur common.Node, curRank titleRank, n common.Node) (common.Node, titleRank) {
	rank := rankOf(n)
	switch c := rank.compare(curRank); {
	case c > 0:
		cur.Title = n.Title
		curRank = rank
	case c == 0:
		cur.Title = common.PreferTitle(cur.Title, n.Title)
	}
	cur.Type = common.PreferType(cur.Type, n.Type)
	cur.Count += n.Count
	cur.Confidence = math.Max(cur.Confidence, n.Confidence)
	cur.Aliases = common.UnionSorted(common.MaxAliases, cur.Aliases, n.Aliases)
	return cur, curRank
}

func mergeEdge(cur, e common.Edge) common.Edge {
	cur.Weight += e.Weight
	cur.Confidence = math.Max(cur.Confidence, e.Confidence)
	cur.SourceDocs = common.UnionSorted(0, cur.SourceDocs, e.SourceDocs)
	cur.EvidenceSentences = common.MergeEvidence(common.MaxEvidenceSentences, cur.EvidenceSentences, e.EvidenceSentences)
	cur.EvidenceSentence = common.FirstOrEmpty(cur.EvidenceSentences)
	return cur
}

// weights are sums of small decimals; rounding keeps float summation order
// from leaking into the result
func roundWeight(w float64) float64 {
	return math.Round(w*1000) / 1000
}

// Assemble merges the candidates of all documents of one query into the
// canonical graph.
func Assemble(candidates []extract.Candidates) common.Graph {
	a := newAssembler()
	for _, c := range candidates {
		a.add(c.Nodes, c.Edges)
	}
	return a.graph()
}

// MergeGraphs merges already assembled graphs with the same rules used for
// candidates. Analytics fields of the inputs are not carried over.
func MergeGraphs(graphs ...common.Graph) common.Graph {
	a := newAssembler()
	for _, g := range graphs {
		a.add(g.Nodes, g.Edges)
	}
	out := a.graph()
	for i := range out.Nodes {
		clearAnalytics(&out.Nodes[i])
	}
	return out
}

func clearAnalytics(n *common.Node) {
	n.DegreeCentrality = 0
	n.Betweenness = 0
	n.PageRank = 0
	n.Community = 0
	n.Val = 0
}

package graph

import (
	"fmt"
	"strings"
	"testing"

	"github.com/soitgoes511/graph-network-visualizer/pkg/common"
	"github.com/soitgoes511/graph-network-visualizer/pkg/extract"
	"github.com/soitgoes511/graph-network-visualizer/pkg/loader"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entityNode(id, title string, count int, conf float64) common.Node {
	return common.Node{ID: id, Title: title, Type: common.NodeTypeOrg, Count: count, Confidence: conf, Aliases: []string{title}}
}

func coEdge(src, dst, doc, evidence string, conf float64) common.Edge {
	return common.Edge{
		Source:            src,
		Target:            dst,
		RelationType:      common.RelationCoOccurs,
		Weight:            1,
		Confidence:        conf,
		EvidenceSentence:  evidence,
		EvidenceSentences: []string{evidence},
		SourceDocs:        []string{doc},
	}
}

func docCandidates(doc string, conf float64, evidence string) extract.Candidates {
	return extract.Candidates{
		DocumentID: doc,
		Nodes: []common.Node{
			{ID: doc, Title: doc, Type: common.NodeTypeFile, Count: 1, Confidence: 1},
			entityNode("entity:acme", "Acme", 1, conf),
			entityNode("entity:ibm", "IBM", 2, conf),
		},
		Edges: []common.Edge{
			coEdge("entity:acme", "entity:ibm", doc, evidence, conf),
		},
	}
}

func TestAssemble_SameEdgeFromTwoDocuments(t *testing.T) {
	g := Assemble([]extract.Candidates{
		docCandidates("file:a.txt", 0.5, "Acme met IBM."),
		docCandidates("file:b.txt", 0.7, "Acme and IBM met again."),
	})

	require.Len(t, g.Edges, 1)
	e := g.Edges[0]
	assert.Equal(t, 2.0, e.Weight)
	assert.Equal(t, 0.7, e.Confidence)
	assert.Equal(t, []string{"file:a.txt", "file:b.txt"}, e.SourceDocs)
	assert.Equal(t, []string{"Acme and IBM met again.", "Acme met IBM."}, e.EvidenceSentences)
	assert.Equal(t, "Acme and IBM met again.", e.EvidenceSentence)

	idx := g.NodeIndex()
	acme := g.Nodes[idx["entity:acme"]]
	assert.Equal(t, 2, acme.Count)
	assert.Equal(t, 0.7, acme.Confidence)
	assert.Len(t, g.Nodes, 4)
}

func TestAssemble_OrderIndependent(t *testing.T) {
	var cands []extract.Candidates
	for i := range 4 {
		c := docCandidates(fmt.Sprintf("file:%d.txt", i), 0.4+0.1*float64(i), fmt.Sprintf("sentence %d %s", i, string(rune('a'+i))))
		c.Nodes[1].Title = []string{"Acme", "ACME", "Acme Inc", "acme"}[i]
		c.Nodes[1].Aliases = []string{c.Nodes[1].Title}
		cands = append(cands, c)
	}
	reversed := []extract.Candidates{cands[3], cands[1], cands[2], cands[0]}

	g1 := Assemble(cands)
	g2 := Assemble(reversed)
	assert.Equal(t, g1, g2)

	// grouping does not matter either
	left := MergeGraphs(MergeGraphs(Assemble(cands[:2]), Assemble(cands[2:3])), Assemble(cands[3:]))
	right := MergeGraphs(Assemble(cands[:1]), MergeGraphs(Assemble(cands[1:3]), Assemble(cands[3:])))
	assert.Equal(t, left, right)
	assert.Equal(t, g1, left)

	acme := g1.Nodes[g1.NodeIndex()["entity:acme"]]
	assert.Equal(t, "Acme Inc", acme.Title)
	assert.Equal(t, []string{"ACME", "Acme", "Acme Inc", "acme"}, acme.Aliases)
}

func TestAssemble_WeightMonotone(t *testing.T) {
	base := Assemble([]extract.Candidates{docCandidates("file:a.txt", 0.5, "x")})
	more := Assemble([]extract.Candidates{
		docCandidates("file:a.txt", 0.5, "x"),
		docCandidates("file:b.txt", 0.1, "y"),
	})
	assert.GreaterOrEqual(t, more.Edges[0].Weight, base.Edges[0].Weight)
	assert.GreaterOrEqual(t, more.Edges[0].Confidence, base.Edges[0].Confidence)
}

func TestAssemble_EvidenceCap(t *testing.T) {
	var cands []extract.Candidates
	for i := range 8 {
		ev := "s" + strings.Repeat("x", i+1)
		cands = append(cands, docCandidates(fmt.Sprintf("file:%d.txt", i), 0.5, ev))
	}
	// duplicate text from another document is not counted twice
	cands = append(cands, docCandidates("file:dup.txt", 0.5, "sxxxxxxxx"))

	g := Assemble(cands)
	e := g.Edges[0]
	require.Len(t, e.EvidenceSentences, common.MaxEvidenceSentences)
	assert.Equal(t, []string{"sxxxxxxxx", "sxxxxxxx", "sxxxxxx", "sxxxxx", "sxxxx"}, e.EvidenceSentences)
	assert.Equal(t, 9.0, e.Weight)
}

func TestAssemble_TypeConflictAndDanglingEdges(t *testing.T) {
	a := extract.Candidates{
		Nodes: []common.Node{
			{ID: "web:https://x.example/", Title: "https://x.example/", Type: common.NodeTypeExternal},
		},
		Edges: []common.Edge{
			{Source: "web:https://x.example/", Target: "entity:ghost", RelationType: common.RelationMentionsEntity, Weight: 1},
		},
	}
	b := extract.Candidates{
		Nodes: []common.Node{
			{ID: "web:https://x.example/", Title: "X Example", Type: common.NodeTypeWeb, Count: 1},
		},
	}

	g := Assemble([]extract.Candidates{a, b})
	require.Len(t, g.Nodes, 1)
	assert.Equal(t, common.NodeTypeWeb, g.Nodes[0].Type)
	assert.Equal(t, "X Example", g.Nodes[0].Title)
	assert.Empty(t, g.Edges)
	assert.Equal(t, g, Assemble([]extract.Candidates{b, a}))
}

func TestAssemble_SymmetricEndpointsNormalized(t *testing.T) {
	c := docCandidates("file:a.txt", 0.5, "x")
	c.Edges = append(c.Edges, coEdge("entity:ibm", "entity:acme", "file:b.txt", "y", 0.5))

	g := Assemble([]extract.Candidates{c})
	require.Len(t, g.Edges, 1)
	assert.Equal(t, "entity:acme", g.Edges[0].Source)
	assert.Equal(t, 2.0, g.Edges[0].Weight)
}

func TestAssemble_CrawledTitleBeatsLinkPlaceholder(t *testing.T) {
	x := extract.NewExtractor(extract.DefaultOptions())
	home := x.Extract(loader.Document{
		ID:    loader.DocumentID(loader.DocumentKindWeb, "https://site.example/"),
		Kind:  loader.DocumentKindWeb,
		Title: "Home",
		Links: []loader.Link{{Target: "https://site.example/about", Internal: true, AnchorText: "About"}},
	}, nil)
	aboutID := loader.DocumentID(loader.DocumentKindWeb, "https://site.example/about")
	about := x.Extract(loader.Document{
		ID:    aboutID,
		Kind:  loader.DocumentKindWeb,
		Title: "About us",
	}, nil)

	for _, order := range [][]extract.Candidates{{home, about}, {about, home}} {
		g := Assemble(order)
		n := g.Nodes[g.NodeIndex()[aboutID]]
		assert.Equal(t, common.NodeTypeWeb, n.Type)
		assert.Equal(t, "About us", n.Title)
		assert.Equal(t, 1, n.Count)
	}
}

func TestAssemble_EmptyTitleOrderIndependent(t *testing.T) {
	untitled := extract.Candidates{Nodes: []common.Node{{ID: "entity:acme", Type: common.NodeTypeOrg, Count: 3}}}
	titled := extract.Candidates{Nodes: []common.Node{entityNode("entity:acme", "Acme", 1, 0.5)}}
	placeholder := extract.Candidates{Nodes: []common.Node{{ID: "entity:acme", Title: "ACME Corporation", Type: common.NodeTypeOrg}}}

	tests := []struct {
		name  string
		order []extract.Candidates
	}{
		{"untitled first", []extract.Candidates{untitled, titled, placeholder}},
		{"titled first", []extract.Candidates{titled, placeholder, untitled}},
		{"placeholder first", []extract.Candidates{placeholder, untitled, titled}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := Assemble(tt.order)
			require.Len(t, g.Nodes, 1)
			assert.Equal(t, "Acme", g.Nodes[0].Title)
			assert.Equal(t, 4, g.Nodes[0].Count)
		})
	}
}

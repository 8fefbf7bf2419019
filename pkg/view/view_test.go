package view

import (
	"errors"
	"fmt"
	"testing"

	"github.com/soitgoes511/graph-network-visualizer/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chainGraph builds a document node linked to n-1 entities chained
// together, with edge weights increasing along the chain.
func chainGraph(n int) common.Graph {
	g := common.Graph{}
	g.Nodes = append(g.Nodes, common.Node{ID: "file:doc.txt", Title: "doc.txt", Type: common.NodeTypeFile, Confidence: 1})
	for i := 1; i < n; i++ {
		id := fmt.Sprintf("entity:e%02d", i)
		g.Nodes = append(g.Nodes, common.Node{ID: id, Title: id, Type: common.NodeTypeOrg, Confidence: 0.5})
		g.Edges = append(g.Edges, common.Edge{
			Source: "file:doc.txt", Target: id, RelationType: common.RelationMentionsEntity, Weight: 1, Confidence: 0.5,
		})
		if i > 1 {
			g.Edges = append(g.Edges, common.Edge{
				Source: fmt.Sprintf("entity:e%02d", i-1), Target: id, RelationType: common.RelationCoOccurs, Weight: float64(i), Confidence: 0.45,
			})
		}
	}
	g.Sort()
	return g
}

func assertNoDanglingEdges(t *testing.T, nodes []common.Node, links []common.Edge) {
	t.Helper()
	ids := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		ids[n.ID] = true
	}
	for _, e := range links {
		assert.True(t, ids[e.Source], "dangling source %s", e.Source)
		assert.True(t, ids[e.Target], "dangling target %s", e.Target)
	}
}

func TestBuild_TruncatedPreview(t *testing.T) {
	g := chainGraph(20)
	resp, err := Build(g, common.Insights{}, Limits{Nodes: 5, Links: 100}, DefaultOptions())
	require.NoError(t, err)

	assert.True(t, resp.Meta.Truncated)
	assert.Equal(t, 5, resp.Meta.VisibleNodes)
	assert.Equal(t, 20, resp.Meta.TotalNodes)
	assert.Equal(t, len(g.Edges), resp.Meta.TotalLinks)
	assert.Equal(t, 100, resp.Meta.LoadMoreNodeStep)
	assert.Equal(t, 200, resp.Meta.LoadMoreLinkStep)
	assert.Equal(t, "file:doc.txt", resp.Nodes[0].ID, "source documents rank first")
	assertNoDanglingEdges(t, resp.Nodes, resp.Links)
}

func TestBuild_CompleteAtMaxLimits(t *testing.T) {
	g := chainGraph(20)
	resp, err := Build(g, common.Insights{}, Limits{Nodes: 20, Links: len(g.Edges)}, DefaultOptions())
	require.NoError(t, err)

	assert.False(t, resp.Meta.Truncated)
	assert.Equal(t, resp.Meta.TotalNodes, resp.Meta.VisibleNodes)
	assert.Equal(t, resp.Meta.TotalLinks, resp.Meta.VisibleLinks)
}

func TestSelect_DeterministicAcrossExpandAndContract(t *testing.T) {
	g := chainGraph(30)
	small := Limits{Nodes: 8, Links: 6}
	large := Limits{Nodes: 25, Links: 40}

	first, err := Select(g, small)
	require.NoError(t, err)
	_, err = Select(g, large)
	require.NoError(t, err)
	again, err := Select(g, small)
	require.NoError(t, err)

	assert.Equal(t, first, again)
	assert.Len(t, first.Edges, 6)
	assertNoDanglingEdges(t, first.Nodes, first.Edges)

	// strongest links first
	for i := 1; i < len(first.Edges); i++ {
		assert.GreaterOrEqual(t, first.Edges[i-1].Weight, first.Edges[i].Weight)
	}
}

func TestSelect_LinkLimitTruncates(t *testing.T) {
	g := chainGraph(10)
	resp, err := Build(g, common.Insights{}, Limits{Nodes: 10, Links: 1}, DefaultOptions())
	require.NoError(t, err)
	assert.True(t, resp.Meta.Truncated)
	assert.Equal(t, 10, resp.Meta.VisibleNodes)
	require.Len(t, resp.Links, 1)
	assert.Equal(t, 9.0, resp.Links[0].Weight)
}

func TestLimits_Validate(t *testing.T) {
	for _, l := range []Limits{{Nodes: 0, Links: 1}, {Nodes: 1, Links: 0}, {Nodes: -3, Links: 5}} {
		_, err := Select(chainGraph(3), l)
		assert.True(t, errors.Is(err, common.ErrInvalidInput), "%+v", l)
	}
	assert.NoError(t, Limits{Nodes: 1, Links: 1}.Validate())
}

func TestSelect_EmptyGraph(t *testing.T) {
	resp, err := Build(common.Graph{}, common.Insights{}, DefaultOptions().DefaultLimits(), DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, resp.Nodes)
	assert.False(t, resp.Meta.Truncated)
}

func TestSelect_NeverExceedsNodeLimit(t *testing.T) {
	g := chainGraph(12)
	g.Edges = append(g.Edges, common.Edge{
		Source: "file:doc.txt", Target: "entity:missing", RelationType: common.RelationMentionsEntity, Weight: 99,
	})

	for _, l := range []Limits{{Nodes: 1, Links: 50}, {Nodes: 4, Links: 2}, {Nodes: 40, Links: 40}} {
		v, err := Select(g, l)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(v.Nodes), l.Nodes)
		assert.LessOrEqual(t, len(v.Edges), l.Links)
		assertNoDanglingEdges(t, v.Nodes, v.Edges)
	}
}

// Package view derives size-bounded, deterministic views from a canonical
// graph. A view is a pure function of the graph and the requested limits.
package view

import (
	"fmt"
	"sort"

	"github.com/soitgoes511/graph-network-visualizer/pkg/common"
)

// Limits bounds a view.
type Limits struct {
	Nodes int `json:"node_limit"`
	Links int `json:"link_limit"`
}

func (l Limits) Validate() error {
	if l.Nodes < 1 {
		return fmt.Errorf("%w: node_limit must be at least 1, got %d", common.ErrInvalidInput, l.Nodes)
	}
	if l.Links < 1 {
		return fmt.Errorf("%w: link_limit must be at least 1, got %d", common.ErrInvalidInput, l.Links)
	}
	return nil
}

// Options carries the defaults used when a caller leaves limits out and
// the load-more steps advertised in every response.
type Options struct {
	DefaultNodeLimit int `yaml:"default_node_limit"`
	DefaultLinkLimit int `yaml:"default_link_limit"`
	NodeStep         int `yaml:"load_more_node_step"`
	LinkStep         int `yaml:"load_more_link_step"`
}

func DefaultOptions() Options {
	return Options{
		DefaultNodeLimit: 150,
		DefaultLinkLimit: 300,
		NodeStep:         100,
		LinkStep:         200,
	}
}

func (o Options) DefaultLimits() Limits {
	return Limits{Nodes: o.DefaultNodeLimit, Links: o.DefaultLinkLimit}
}

// Select returns the top nodes by importance and the strongest links
// among them. Only links with both endpoints selected are candidates, so
// no selected link dangles.
func Select(g common.Graph, l Limits) (common.Graph, error) {
	if err := l.Validate(); err != nil {
		return common.Graph{}, err
	}

	nodes := rankNodes(g)
	if len(nodes) > l.Nodes {
		nodes = nodes[:l.Nodes]
	}
	selected := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		selected[n.ID] = true
	}

	edges := make([]common.Edge, 0, len(g.Edges))
	for _, e := range g.Edges {
		if selected[e.Source] && selected[e.Target] {
			edges = append(edges, e)
		}
	}
	sortEdges(edges)
	if len(edges) > l.Links {
		edges = edges[:l.Links]
	}

	return common.Graph{Nodes: nodes, Edges: edges}, nil
}

// Build selects a view and wraps it with insights and metadata.
func Build(g common.Graph, insights common.Insights, l Limits, opts Options) (common.GraphResponse, error) {
	v, err := Select(g, l)
	if err != nil {
		return common.GraphResponse{}, err
	}
	return common.GraphResponse{
		Nodes:    v.Nodes,
		Links:    v.Edges,
		Insights: insights,
		Meta: common.Meta{
			VisibleNodes:     len(v.Nodes),
			VisibleLinks:     len(v.Edges),
			TotalNodes:       len(g.Nodes),
			TotalLinks:       len(g.Edges),
			NodeLimit:        l.Nodes,
			LinkLimit:        l.Links,
			Truncated:        len(v.Nodes) < len(g.Nodes) || len(v.Edges) < len(g.Edges),
			LoadMoreNodeStep: opts.NodeStep,
			LoadMoreLinkStep: opts.LinkStep,
		},
	}, nil
}

// rankNodes orders by 2*type priority + normalized degree + 0.5*confidence,
// ties by id.
func rankNodes(g common.Graph) []common.Node {
	degree := make(map[string]int, len(g.Nodes))
	for _, e := range g.Edges {
		degree[e.Source]++
		degree[e.Target]++
	}
	maxDegree := 0
	for _, d := range degree {
		maxDegree = max(maxDegree, d)
	}

	type scored struct {
		node  common.Node
		score float64
	}
	ranked := make([]scored, len(g.Nodes))
	for i, n := range g.Nodes {
		s := 2*float64(n.Type.Priority()) + 0.5*n.Confidence
		if maxDegree > 0 {
			s += float64(degree[n.ID]) / float64(maxDegree)
		}
		ranked[i] = scored{node: n, score: s}
	}
	sort.Slice(ranked, func(a, b int) bool {
		if ranked[a].score != ranked[b].score {
			return ranked[a].score > ranked[b].score
		}
		return ranked[a].node.ID < ranked[b].node.ID
	})

	out := make([]common.Node, len(ranked))
	for i, r := range ranked {
		out[i] = r.node
	}
	return out
}

func sortEdges(edges []common.Edge) {
	sort.Slice(edges, func(a, b int) bool {
		ea, eb := edges[a], edges[b]
		if ea.Weight != eb.Weight {
			return ea.Weight > eb.Weight
		}
		if ea.Confidence != eb.Confidence {
			return ea.Confidence > eb.Confidence
		}
		return ea.Key().String() < eb.Key().String()
	})
}

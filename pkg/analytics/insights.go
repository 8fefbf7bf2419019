package analytics

import (
	"sort"

	"github.com/soitgoes511/graph-network-visualizer/pkg/common"
)

func (e *Engine) insights(g common.Graph, p *projection, tiers common.AnalyticsTiers) common.Insights {
	return common.Insights{
		BridgeNodes:          e.bridgeNodes(g, p),
		Communities:          e.communities(g, p),
		RelationDistribution: RelationDistribution(g),
		GraphStats:           common.GraphStats{NodeCount: len(g.Nodes), EdgeCount: len(g.Edges)},
		AnalyticsTiers:       tiers,
	}
}

// bridgeNodes ranks by betweenness. A graph where every score is zero,
// for example a set of stars, falls back to weighted degree so the list
// still says something.
func (e *Engine) bridgeNodes(g common.Graph, p *projection) []common.BridgeNode {
	out := make([]common.BridgeNode, 0, len(g.Nodes))
	useDegree := true
	for _, n := range g.Nodes {
		if n.Betweenness > 0 {
			useDegree = false
			break
		}
	}
	for _, n := range g.Nodes {
		score := n.Betweenness
		if useDegree {
			score = round(p.weightedDegree(p.idx[n.ID]), 5)
		}
		out = append(out, common.BridgeNode{ID: n.ID, Title: n.Title, Type: n.Type, Score: score})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Score != out[b].Score {
			return out[a].Score > out[b].Score
		}
		return out[a].ID < out[b].ID
	})
	if len(out) > e.cfg.TopBridgeNodes {
		out = out[:e.cfg.TopBridgeNodes]
	}
	return out
}

func (e *Engine) communities(g common.Graph, p *projection) []common.CommunitySummary {
	members := make(map[int][]common.Node)
	for _, n := range g.Nodes {
		members[n.Community] = append(members[n.Community], n)
	}
	out := make([]common.CommunitySummary, 0, len(members))
	for id, nodes := range members {
		sort.Slice(nodes, func(a, b int) bool {
			da, db := p.weightedDegree(p.idx[nodes[a].ID]), p.weightedDegree(p.idx[nodes[b].ID])
			if da != db {
				return da > db
			}
			return nodes[a].ID < nodes[b].ID
		})
		samples := make([]string, 0, e.cfg.CommunitySampleSize)
		for _, n := range nodes {
			if len(samples) == e.cfg.CommunitySampleSize {
				break
			}
			samples = append(samples, n.Title)
		}
		out = append(out, common.CommunitySummary{ID: id, Size: len(nodes), SampleNodes: samples})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Size != out[b].Size {
			return out[a].Size > out[b].Size
		}
		return out[a].ID < out[b].ID
	})
	if len(out) > e.cfg.TopCommunities {
		out = out[:e.cfg.TopCommunities]
	}
	return out
}

// RelationDistribution counts edges per relation type, most frequent
// first. It is exact at every graph size.
func RelationDistribution(g common.Graph) []common.RelationCount {
	counts := make(map[string]int)
	for _, e := range g.Edges {
		counts[e.RelationType]++
	}
	out := make([]common.RelationCount, 0, len(counts))
	for rel, c := range counts {
		out = append(out, common.RelationCount{RelationType: rel, Count: c})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Count != out[b].Count {
			return out[a].Count > out[b].Count
		}
		return out[a].RelationType < out[b].RelationType
	})
	return out
}

// Package analytics computes centrality, communities, PageRank and the
// insight summary of a canonical graph. Expensive metrics pick a cheaper
// algorithm as the graph grows so a single query can never stall a worker.
package analytics

import (
	"fmt"
	"math"
	"time"

	"github.com/soitgoes511/graph-network-visualizer/pkg/common"
	"github.com/soitgoes511/graph-network-visualizer/pkg/logger"
)

// Tier names reported in insights.analytics_tiers.
const (
	TierBetweennessExact   = "exact"
	TierBetweennessSampled = "sampled"
	TierBetweennessProxy   = "proxy"

	TierCommunityGreedy      = "greedy_modularity"
	TierCommunityPropagation = "label_propagation"
	TierCommunitySingle      = "single"

	TierPageRankPower   = "power_iteration"
	TierPageRankSkipped = "skipped"
)

// Config holds the size thresholds and insight sizes.
type Config struct {
	// betweenness: exact up to ExactLimit nodes, sampled up to SampleLimit,
	// degree proxy above
	BetweennessExactLimit  int     `yaml:"betweenness_exact_limit"`
	BetweennessSampleLimit int     `yaml:"betweenness_sample_limit"`
	SampleRatio            float64 `yaml:"sample_ratio"`
	SampleMin              int     `yaml:"sample_min"`
	SampleMax              int     `yaml:"sample_max"`

	CommunityExactLimit  int `yaml:"community_exact_limit"`
	CommunityApproxLimit int `yaml:"community_approx_limit"`

	PageRankLimit   int     `yaml:"pagerank_limit"`
	Damping         float64 `yaml:"damping"`
	PageRankMaxIter int     `yaml:"pagerank_max_iter"`
	PageRankTol     float64 `yaml:"pagerank_tol"`

	Seed uint64 `yaml:"seed"`

	TopBridgeNodes      int `yaml:"top_bridge_nodes"`
	TopCommunities      int `yaml:"top_communities"`
	CommunitySampleSize int `yaml:"community_sample_size"`
}

func DefaultConfig() Config {
	return Config{
		BetweennessExactLimit:  380,
		BetweennessSampleLimit: 2400,
		SampleRatio:            0.12,
		SampleMin:              20,
		SampleMax:              180,
		CommunityExactLimit:    550,
		CommunityApproxLimit:   3200,
		PageRankLimit:          5200,
		Damping:                0.85,
		PageRankMaxIter:        60,
		PageRankTol:            1e-4,
		Seed:                   42,
		TopBridgeNodes:         8,
		TopCommunities:         5,
		CommunitySampleSize:    3,
	}
}

// Validate rejects non-positive limits and inverted tier thresholds.
func (c Config) Validate() error {
	positive := map[string]int{
		"betweenness_exact_limit":  c.BetweennessExactLimit,
		"betweenness_sample_limit": c.BetweennessSampleLimit,
		"sample_min":               c.SampleMin,
		"sample_max":               c.SampleMax,
		"community_exact_limit":    c.CommunityExactLimit,
		"community_approx_limit":   c.CommunityApproxLimit,
		"pagerank_limit":           c.PageRankLimit,
		"pagerank_max_iter":        c.PageRankMaxIter,
		"top_bridge_nodes":         c.TopBridgeNodes,
		"top_communities":          c.TopCommunities,
		"community_sample_size":    c.CommunitySampleSize,
	}
	for name, v := range positive {
		if v <= 0 {
			return fmt.Errorf("analytics: %s must be positive, got %d", name, v)
		}
	}
	if c.BetweennessExactLimit > c.BetweennessSampleLimit {
		return fmt.Errorf("analytics: betweenness exact limit %d exceeds sample limit %d", c.BetweennessExactLimit, c.BetweennessSampleLimit)
	}
	if c.CommunityExactLimit > c.CommunityApproxLimit {
		return fmt.Errorf("analytics: community exact limit %d exceeds approximate limit %d", c.CommunityExactLimit, c.CommunityApproxLimit)
	}
	if c.SampleMin > c.SampleMax {
		return fmt.Errorf("analytics: sample_min %d exceeds sample_max %d", c.SampleMin, c.SampleMax)
	}
	if c.SampleRatio <= 0 || c.SampleRatio > 1 {
		return fmt.Errorf("analytics: sample_ratio must be in (0, 1], got %g", c.SampleRatio)
	}
	if c.Damping <= 0 || c.Damping >= 1 {
		return fmt.Errorf("analytics: damping must be in (0, 1), got %g", c.Damping)
	}
	if c.PageRankTol <= 0 {
		return fmt.Errorf("analytics: pagerank_tol must be positive, got %g", c.PageRankTol)
	}
	return nil
}

// Engine is stateless apart from its configuration and safe for
// concurrent use.
type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

func (e *Engine) Config() Config {
	return e.cfg
}

// Analyze returns a copy of g with every node's analytics fields filled
// in, plus the insight summary. g itself is not modified.
func (e *Engine) Analyze(g common.Graph) (common.Graph, common.Insights) {
	start := time.Now()
	p := newProjection(g)
	n := p.size()
	tiers := common.AnalyticsTiers{}

	degree := degreeCentrality(p)

	var bc []float64
	switch {
	case n <= e.cfg.BetweennessExactLimit:
		tiers.Betweenness = TierBetweennessExact
		bc = betweenness(p, allSources(n))
	case n <= e.cfg.BetweennessSampleLimit:
		tiers.Betweenness = TierBetweennessSampled
		bc = betweenness(p, sampleSources(n, e.cfg.sampleSize(n), e.cfg.Seed))
	default:
		tiers.Betweenness = TierBetweennessProxy
		bc = degree
	}

	var labels []int
	switch {
	case n < 3 || p.undirectedEdges == 0 || n > e.cfg.CommunityApproxLimit:
		tiers.Community = TierCommunitySingle
		labels = make([]int, n)
	case n <= e.cfg.CommunityExactLimit:
		tiers.Community = TierCommunityGreedy
		labels = renumber(greedyModularity(p))
	default:
		tiers.Community = TierCommunityPropagation
		labels = renumber(labelPropagation(p, e.cfg.Seed))
	}

	var pr []float64
	if n > e.cfg.PageRankLimit || p.undirectedEdges == 0 {
		tiers.PageRank = TierPageRankSkipped
		pr = make([]float64, n)
	} else {
		tiers.PageRank = TierPageRankPower
		var converged bool
		pr, converged = pageRank(p, e.cfg.Damping, e.cfg.PageRankMaxIter, e.cfg.PageRankTol)
		if !converged {
			logger.Debug("[Analytics] PageRank did not converge, keeping last iterate", "nodes", n, "iterations", e.cfg.PageRankMaxIter)
		}
	}

	out := common.Graph{
		Nodes: make([]common.Node, len(g.Nodes)),
		Edges: make([]common.Edge, len(g.Edges)),
	}
	copy(out.Edges, g.Edges)
	for i, node := range g.Nodes {
		j := p.idx[node.ID]
		node.DegreeCentrality = round(degree[j], 5)
		node.Betweenness = round(bc[j], 5)
		node.PageRank = round(pr[j], 7)
		node.Community = labels[j]
		node.Val = round(math.Max(node.Val, 1+0.35*p.weightedDegree(j)), 3)
		out.Nodes[i] = node
	}

	insights := e.insights(out, p, tiers)
	logger.Info("[Analytics] Complete",
		"nodes", n,
		"edges", len(g.Edges),
		"betweenness", tiers.Betweenness,
		"community", tiers.Community,
		"pagerank", tiers.PageRank,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return out, insights
}

func round(v float64, places int) float64 {
	f := math.Pow(10, float64(places))
	return math.Round(v*f) / f
}

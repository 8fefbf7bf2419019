package graph

import (
	"fmt"

	"github.com/soitgoes511/graph-network-visualizer/pkg/analytics"
	"github.com/soitgoes511/graph-network-visualizer/pkg/cache"
	"github.com/soitgoes511/graph-network-visualizer/pkg/common"
	"github.com/soitgoes511/graph-network-visualizer/pkg/view"
)

// View recomputes the view of a cached query for new limits. A nil limits
// reuses the limits last served for the query. Identical concurrent
// requests share one computation.
func (g *GraphClient) View(queryID string, limits *view.Limits) (common.GraphResponse, error) {
	entry, err := g.cache.Get(queryID)
	if err != nil {
		g.metrics.ViewRequest("not_found")
		return common.GraphResponse{}, err
	}
	l := g.resolveLimits(entry, limits)
	if err := l.Validate(); err != nil {
		g.metrics.ViewRequest("invalid")
		return common.GraphResponse{}, err
	}

	key := fmt.Sprintf("%s|%d|%d", queryID, l.Nodes, l.Links)
	v, err, _ := g.views.Do(key, func() (any, error) {
		return view.Build(entry.Graph, entry.Insights, l, g.viewOpts)
	})
	if err != nil {
		g.metrics.ViewRequest("error")
		return common.GraphResponse{}, err
	}
	entry.RememberLimits(l)
	g.metrics.ViewRequest("ok")

	resp := v.(common.GraphResponse)
	resp.Meta.QueryID = entry.ID
	resp.Meta.SkippedSources = entry.Skipped
	return resp, nil
}

// ShortestPath finds a path between two nodes of a cached query. With
// limits the search only uses the edges of that view.
func (g *GraphClient) ShortestPath(queryID, source, target string, limits *view.Limits) ([]string, error) {
	entry, err := g.cache.Get(queryID)
	if err != nil {
		return nil, err
	}
	if limits == nil {
		return analytics.ShortestPath(entry.Graph, source, target), nil
	}
	sub, err := view.Select(entry.Graph, *limits)
	if err != nil {
		return nil, err
	}
	return analytics.ShortestPath(sub, source, target), nil
}

func (g *GraphClient) resolveLimits(entry *cache.Entry, limits *view.Limits) view.Limits {
	if limits != nil {
		return *limits
	}
	if last, ok := entry.LastLimits(); ok {
		return last
	}
	return g.viewOpts.DefaultLimits()
}

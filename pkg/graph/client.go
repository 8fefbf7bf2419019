package graph

import (
	"errors"

	"github.com/soitgoes511/graph-network-visualizer/internal/metrics"
	"github.com/soitgoes511/graph-network-visualizer/pkg/analytics"
	"github.com/soitgoes511/graph-network-visualizer/pkg/annotate"
	"github.com/soitgoes511/graph-network-visualizer/pkg/cache"
	"github.com/soitgoes511/graph-network-visualizer/pkg/extract"
	"github.com/soitgoes511/graph-network-visualizer/pkg/loader"
	"github.com/soitgoes511/graph-network-visualizer/pkg/view"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

const (
	MinDepth = 1
	MaxDepth = 4
)

// GraphClient runs the processing pipeline and serves views of the
// queries it has cached.
//
// A GraphClient should be created using NewGraphClient.
type GraphClient struct {
	annotator annotate.Annotator
	fetcher   loader.Fetcher
	decoders  *loader.Registry
	extractor *extract.Extractor
	engine    *analytics.Engine
	cache     *cache.Cache
	viewOpts  view.Options
	metrics   *metrics.Metrics

	parallelDocuments int
	analyticsSlots    *semaphore.Weighted
	views             singleflight.Group
}

// NewGraphClientParams configures a GraphClient.
//
// Fetcher may be nil when only uploads are processed. ParallelDocuments
// bounds concurrent fetch and annotate work within one request;
// AnalyticsWorkers bounds concurrent analytics runs across all requests.
type NewGraphClientParams struct {
	Annotator annotate.Annotator
	Fetcher   loader.Fetcher
	Decoders  *loader.Registry
	Extractor *extract.Extractor
	Analytics *analytics.Engine
	Cache     *cache.Cache
	View      view.Options
	Metrics   *metrics.Metrics

	ParallelDocuments int
	AnalyticsWorkers  int
}

func NewGraphClient(params NewGraphClientParams) (*GraphClient, error) {
	if params.Annotator == nil {
		return nil, errors.New("graph: annotator is required")
	}
	if params.Cache == nil {
		return nil, errors.New("graph: cache is required")
	}

	g := &GraphClient{
		annotator:         params.Annotator,
		fetcher:           params.Fetcher,
		decoders:          params.Decoders,
		extractor:         params.Extractor,
		engine:            params.Analytics,
		cache:             params.Cache,
		viewOpts:          params.View,
		metrics:           params.Metrics,
		parallelDocuments: params.ParallelDocuments,
	}
	if g.decoders == nil {
		g.decoders = loader.NewRegistry()
	}
	if g.extractor == nil {
		g.extractor = extract.NewExtractor(extract.DefaultOptions())
	}
	if g.engine == nil {
		g.engine = analytics.NewEngine(analytics.DefaultConfig())
	}
	if g.viewOpts == (view.Options{}) {
		g.viewOpts = view.DefaultOptions()
	}
	if g.parallelDocuments <= 0 {
		g.parallelDocuments = 4
	}
	workers := params.AnalyticsWorkers
	if workers <= 0 {
		workers = 2
	}
	g.analyticsSlots = semaphore.NewWeighted(int64(workers))

	return g, nil
}

func (g *GraphClient) ViewOptions() view.Options {
	return g.viewOpts
}

// SupportedExtensions lists the upload extensions that can be decoded.
func (g *GraphClient) SupportedExtensions() []string {
	return g.decoders.Extensions()
}

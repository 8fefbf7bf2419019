package graph

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/soitgoes511/graph-network-visualizer/pkg/analytics"
	"github.com/soitgoes511/graph-network-visualizer/pkg/common"
	"github.com/soitgoes511/graph-network-visualizer/pkg/extract"
	"github.com/soitgoes511/graph-network-visualizer/pkg/loader"
	"github.com/soitgoes511/graph-network-visualizer/pkg/logger"
	"github.com/soitgoes511/graph-network-visualizer/pkg/view"

	"golang.org/x/sync/errgroup"
)

// ValidateBatch reports the first reason b cannot be processed. It runs
// before any fetching so a bad request never does partial work.
func (g *GraphClient) ValidateBatch(b loader.Batch) error {
	if b.Depth < MinDepth || b.Depth > MaxDepth {
		return fmt.Errorf("%w: depth must be between %d and %d, got %d", common.ErrInvalidInput, MinDepth, MaxDepth, b.Depth)
	}
	if err := (view.Limits{Nodes: b.NodeLimit, Links: b.LinkLimit}).Validate(); err != nil {
		return err
	}
	for _, raw := range b.URLs {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: not an http(s) url: %q", common.ErrInvalidInput, raw)
		}
	}
	if len(b.URLs) > 0 && g.fetcher == nil {
		return fmt.Errorf("%w: url sources are not enabled", common.ErrInvalidInput)
	}
	for _, up := range b.Uploads {
		if !g.decoders.Supports(up.Name) {
			return fmt.Errorf("%w: unsupported file type: %s", common.ErrInvalidInput, up.Name)
		}
	}
	return nil
}

// Process runs one batch through the whole pipeline: fetch and decode,
// per-document annotation and extraction, assembly, analytics and caching.
// The returned response is the initial preview of the new query.
func (g *GraphClient) Process(ctx context.Context, b loader.Batch) (common.GraphResponse, error) {
	if err := g.ValidateBatch(b); err != nil {
		return common.GraphResponse{}, err
	}
	start := time.Now()
	logger.Info("[Process] Starting", "urls", len(b.URLs), "uploads", len(b.Uploads), "depth", b.Depth)

	docs, skipped := g.collectDocuments(ctx, b)
	g.metrics.ObserveStage("fetch", start)
	logger.Info("[Process] Documents collected", "documents", len(docs), "skipped", len(skipped))

	candidates, annotateSkipped := g.extractAll(ctx, docs)
	skipped = append(skipped, annotateSkipped...)
	g.metrics.DocumentsProcessed(len(docs) - len(annotateSkipped))
	g.metrics.SourcesSkipped(len(skipped))

	assembleStart := time.Now()
	canonical := Assemble(candidates)
	g.metrics.ObserveStage("assemble", assembleStart)
	logger.Info("[Assemble] Canonical graph ready", "nodes", len(canonical.Nodes), "edges", len(canonical.Edges))

	analyzed, insights, err := g.analyze(ctx, canonical)
	if err != nil {
		return common.GraphResponse{}, err
	}

	entry, err := g.cache.Insert(analyzed, insights, skipped)
	if err != nil {
		return common.GraphResponse{}, err
	}

	limits := view.Limits{Nodes: b.NodeLimit, Links: b.LinkLimit}
	resp, err := view.Build(entry.Graph, entry.Insights, limits, g.viewOpts)
	if err != nil {
		return common.GraphResponse{}, err
	}
	entry.RememberLimits(limits)
	resp.Meta.QueryID = entry.ID
	resp.Meta.SkippedSources = entry.Skipped

	g.metrics.ObserveStage("process", start)
	logger.Info("[Process] Complete",
		"query_id", entry.ID,
		"nodes", len(analyzed.Nodes),
		"edges", len(analyzed.Edges),
		"visible_nodes", resp.Meta.VisibleNodes,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return resp, nil
}

// collectDocuments crawls every URL and decodes every upload. Failures
// become skipped sources. A document reached from several start URLs is
// kept once, at its first position.
func (g *GraphClient) collectDocuments(ctx context.Context, b loader.Batch) ([]loader.Document, []common.SkippedSource) {
	type result struct {
		docs    []loader.Document
		skipped []common.SkippedSource
	}
	crawled := make([]result, len(b.URLs))
	decoded := make([]result, len(b.Uploads))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.parallelDocuments)
	for i, raw := range b.URLs {
		eg.Go(func() error {
			docs, skipped := g.fetcher.Fetch(egCtx, raw, b.Depth)
			crawled[i] = result{docs: docs, skipped: skipped}
			return nil
		})
	}
	for i, up := range b.Uploads {
		eg.Go(func() error {
			doc, err := g.decoders.Decode(egCtx, up)
			if err != nil {
				logger.Warn("[Process] Skipping upload", "name", up.Name, "err", err)
				decoded[i] = result{skipped: []common.SkippedSource{{Source: up.Name, Reason: err.Error()}}}
				return nil
			}
			decoded[i] = result{docs: []loader.Document{doc}}
			return nil
		})
	}
	_ = eg.Wait()

	seen := make(map[string]bool)
	var docs []loader.Document
	var skipped []common.SkippedSource
	for _, r := range append(crawled, decoded...) {
		for _, d := range r.docs {
			if seen[d.ID] {
				continue
			}
			seen[d.ID] = true
			docs = append(docs, d)
		}
		skipped = append(skipped, r.skipped...)
	}
	return docs, skipped
}

// extractAll annotates and extracts each document in its own task. Each
// task writes only its own slot, so no locking is needed until assembly.
func (g *GraphClient) extractAll(ctx context.Context, docs []loader.Document) ([]extract.Candidates, []common.SkippedSource) {
	start := time.Now()
	results := make([]*extract.Candidates, len(docs))
	failures := make([]*common.SkippedSource, len(docs))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.parallelDocuments)
	for i, doc := range docs {
		eg.Go(func() error {
			sentences, err := g.annotator.Annotate(egCtx, doc.Text)
			if err != nil {
				logger.Warn("[Extract] Annotation failed, skipping document", "document", doc.ID, "err", err)
				failures[i] = &common.SkippedSource{Source: doc.ID, Reason: fmt.Sprintf("annotation failed: %v", err)}
				return nil
			}
			c := g.extractor.Extract(doc, sentences)
			if c.SkippedSentences > 0 {
				logger.Debug("[Extract] Skipped malformed sentences", "document", doc.ID, "count", c.SkippedSentences)
			}
			results[i] = &c
			return nil
		})
	}
	_ = eg.Wait()

	var out []extract.Candidates
	var skipped []common.SkippedSource
	for i := range docs {
		if failures[i] != nil {
			skipped = append(skipped, *failures[i])
			continue
		}
		if results[i] != nil {
			out = append(out, *results[i])
		}
	}
	g.metrics.ObserveStage("extract", start)
	logger.Info("[Extract] Documents extracted", "documents", len(out), "failed", len(skipped))
	return out, skipped
}

// analyze runs the analytics engine on a worker slot so CPU-heavy runs
// from different requests are bounded and never run on the handler path.
func (g *GraphClient) analyze(ctx context.Context, canonical common.Graph) (common.Graph, common.Insights, error) {
	if err := g.analyticsSlots.Acquire(ctx, 1); err != nil {
		return common.Graph{}, common.Insights{}, fmt.Errorf("waiting for analytics worker: %w", err)
	}
	start := time.Now()

	type result struct {
		graph    common.Graph
		insights common.Insights
	}
	done := make(chan result, 1)
	go func() {
		defer g.analyticsSlots.Release(1)
		out, ins := g.engine.Analyze(canonical)
		done <- result{graph: out, insights: ins}
	}()

	r := <-done
	g.metrics.ObserveStage("analytics", start)
	g.metrics.AnalyticsTier("betweenness", r.insights.AnalyticsTiers.Betweenness)
	g.metrics.AnalyticsTier("community", r.insights.AnalyticsTiers.Community)
	g.metrics.AnalyticsTier("pagerank", r.insights.AnalyticsTiers.PageRank)
	return r.graph, r.insights, nil
}

// Engine exposes the analytics configuration, e.g. for the offline CLI.
func (g *GraphClient) Engine() *analytics.Engine {
	return g.engine
}

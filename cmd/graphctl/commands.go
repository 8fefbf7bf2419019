package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/soitgoes511/graph-network-visualizer/internal/config"
	"github.com/soitgoes511/graph-network-visualizer/pkg/analytics"
	"github.com/soitgoes511/graph-network-visualizer/pkg/annotate"
	"github.com/soitgoes511/graph-network-visualizer/pkg/common"
	"github.com/soitgoes511/graph-network-visualizer/pkg/extract"
	"github.com/soitgoes511/graph-network-visualizer/pkg/graph"
	"github.com/soitgoes511/graph-network-visualizer/pkg/loader"
	"github.com/soitgoes511/graph-network-visualizer/pkg/logger"
	"github.com/soitgoes511/graph-network-visualizer/pkg/store"
	"github.com/soitgoes511/graph-network-visualizer/pkg/view"

	"github.com/spf13/cobra"
)

// annotatedDocument is one entry of the build input: a source document
// together with its sentence annotations.
type annotatedDocument struct {
	Name      string              `json:"name"`
	Kind      string              `json:"kind"`
	Title     string              `json:"title"`
	Text      string              `json:"text"`
	Links     []annotatedLink     `json:"links"`
	Sentences []annotate.Sentence `json:"sentences"`
}

type annotatedLink struct {
	Target     string `json:"target"`
	Internal   bool   `json:"internal"`
	AnchorText string `json:"anchor_text"`
}

func (d annotatedDocument) document() (loader.Document, error) {
	if d.Name == "" {
		return loader.Document{}, fmt.Errorf("%w: document without name", common.ErrInvalidInput)
	}
	kind := loader.DocumentKindFile
	switch d.Kind {
	case "", string(loader.DocumentKindFile):
	case string(loader.DocumentKindWeb):
		kind = loader.DocumentKindWeb
	default:
		return loader.Document{}, fmt.Errorf("%w: unknown document kind %q", common.ErrInvalidInput, d.Kind)
	}
	title := d.Title
	if title == "" {
		title = d.Name
	}
	doc := loader.Document{
		ID:    loader.DocumentID(kind, d.Name),
		Kind:  kind,
		Title: title,
		Text:  d.Text,
	}
	for _, l := range d.Links {
		doc.Links = append(doc.Links, loader.Link{Target: l.Target, Internal: l.Internal, AnchorText: l.AnchorText})
	}
	return doc, nil
}

type limitFlags struct {
	nodes int
	links int
}

func (f *limitFlags) register(cmd *cobra.Command, usage string) {
	cmd.Flags().IntVar(&f.nodes, "node-limit", 0, "Maximum nodes "+usage)
	cmd.Flags().IntVar(&f.links, "link-limit", 0, "Maximum links "+usage)
}

// resolve fills unset limits with fallback.
func (f limitFlags) resolve(fallback view.Limits) view.Limits {
	l := fallback
	if f.nodes != 0 {
		l.Nodes = f.nodes
	}
	if f.links != 0 {
		l.Links = f.links
	}
	return l
}

// allOf returns limits that keep every node and link of g.
func allOf(g common.Graph) view.Limits {
	return view.Limits{Nodes: max(1, len(g.Nodes)), Links: max(1, len(g.Edges))}
}

func buildCmd(flags *globalFlags) *cobra.Command {
	var (
		out    string
		name   string
		limits limitFlags
	)
	cmd := &cobra.Command{
		Use:   "build <documents.json>",
		Short: "Build a snapshot from annotated documents",
		Long: `Build reads a JSON array of annotated documents, each with a name,
an optional kind (file or web), text, links and sentence annotations, and
runs extraction, assembly and analytics on them. The resulting snapshot
keeps the complete graph unless limits are given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			var docs []annotatedDocument
			if err := readJSON(args[0], &docs); err != nil {
				return err
			}
			resp, err := buildGraph(cfg, docs, limits)
			if err != nil {
				return err
			}
			snap, err := store.Prepare(store.Snapshot{Name: name, Graph: resp}, time.Now())
			if err != nil {
				return err
			}
			logger.Info("[Build] Snapshot ready", "id", snap.ID, "nodes", resp.Meta.VisibleNodes, "links", resp.Meta.VisibleLinks)
			return writeJSON(cmd.OutOrStdout(), out, snap)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (stdout when empty)")
	cmd.Flags().StringVar(&name, "name", "", "Snapshot name")
	limits.register(cmd, "kept in the snapshot (all when unset)")
	return cmd
}

func buildGraph(cfg *config.Config, docs []annotatedDocument, limits limitFlags) (common.GraphResponse, error) {
	x := extract.NewExtractor(cfg.Extraction.Options())
	candidates := make([]extract.Candidates, 0, len(docs))
	for _, d := range docs {
		doc, err := d.document()
		if err != nil {
			return common.GraphResponse{}, err
		}
		c := x.Extract(doc, d.Sentences)
		if c.SkippedSentences > 0 {
			logger.Warn("[Extract] Skipped broken sentences", "document", doc.ID, "sentences", c.SkippedSentences)
		}
		candidates = append(candidates, c)
	}

	canonical := graph.Assemble(candidates)
	analyzed, insights := analytics.NewEngine(cfg.Analytics).Analyze(canonical)
	return view.Build(analyzed, insights, limits.resolve(allOf(analyzed)), cfg.View)
}

func viewCmd(flags *globalFlags) *cobra.Command {
	var limits limitFlags
	cmd := &cobra.Command{
		Use:   "view <snapshot.json>",
		Short: "Re-truncate a snapshot and print the view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			snap, err := readSnapshot(args[0])
			if err != nil {
				return err
			}
			resp, err := view.Build(graphOf(snap.Graph), snap.Graph.Insights, limits.resolve(cfg.View.DefaultLimits()), cfg.View)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), "", resp)
		},
	}
	limits.register(cmd, "in the view (configured default when unset)")
	return cmd
}

func pathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path <snapshot.json> <source> <target>",
		Short: "Print the shortest path between two nodes of a snapshot",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := readSnapshot(args[0])
			if err != nil {
				return err
			}
			path := analytics.ShortestPath(graphOf(snap.Graph), args[1], args[2])
			if len(path) == 0 {
				logger.Info("[Path] No path", "source", args[1], "target", args[2])
			}
			return writeJSON(cmd.OutOrStdout(), "", path)
		},
	}
}

func mergeCmd(flags *globalFlags) *cobra.Command {
	var (
		out  string
		name string
	)
	cmd := &cobra.Command{
		Use:   "merge <snapshot.json>...",
		Short: "Merge snapshots into one and recompute analytics",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			graphs := make([]common.Graph, 0, len(args))
			for _, p := range args {
				snap, err := readSnapshot(p)
				if err != nil {
					return err
				}
				graphs = append(graphs, graphOf(snap.Graph))
			}
			merged := graph.MergeGraphs(graphs...)
			analyzed, insights := analytics.NewEngine(cfg.Analytics).Analyze(merged)
			resp, err := view.Build(analyzed, insights, allOf(analyzed), cfg.View)
			if err != nil {
				return err
			}
			snap, err := store.Prepare(store.Snapshot{Name: name, Graph: resp}, time.Now())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), out, snap)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (stdout when empty)")
	cmd.Flags().StringVar(&name, "name", "", "Snapshot name")
	return cmd
}

func graphOf(resp common.GraphResponse) common.Graph {
	g := common.Graph{Nodes: resp.Nodes, Edges: resp.Links}
	g.Sort()
	return g
}

func readSnapshot(path string) (store.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return store.Snapshot{}, err
	}
	return store.Decode(data)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// writeJSON writes v to path, or to w when path is empty.
func writeJSON(w io.Writer, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "" {
		_, err = w.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

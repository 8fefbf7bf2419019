package analytics

import (
	"sort"

	"github.com/soitgoes511/graph-network-visualizer/pkg/common"
)

type neighbor struct {
	to     int
	weight float64
}

// projection collapses the multi-relation canonical graph into simple
// weighted graphs over dense node indices. Node ids are sorted so index
// order equals id order.
type projection struct {
	ids []string
	idx map[string]int

	// out[i] lists directed successors with summed weights
	out [][]neighbor
	// in[i] lists directed predecessors with summed weights
	in [][]neighbor
	// und[i] lists undirected neighbors in ascending index order
	und [][]neighbor

	undirectedEdges int
	totalWeight     float64
}

func newProjection(g common.Graph) *projection {
	p := &projection{
		ids: make([]string, 0, len(g.Nodes)),
		idx: make(map[string]int, len(g.Nodes)),
	}
	for _, n := range g.Nodes {
		p.ids = append(p.ids, n.ID)
	}
	sort.Strings(p.ids)
	for i, id := range p.ids {
		p.idx[id] = i
	}

	n := len(p.ids)
	directed := make([]map[int]float64, n)
	undirected := make([]map[int]float64, n)
	for i := 0; i < n; i++ {
		directed[i] = make(map[int]float64)
		undirected[i] = make(map[int]float64)
	}

	for _, e := range g.Edges {
		s, ok := p.idx[e.Source]
		if !ok {
			continue
		}
		t, ok := p.idx[e.Target]
		if !ok || s == t {
			continue
		}
		w := e.Weight
		if w <= 0 {
			w = 1
		}
		directed[s][t] += w
		undirected[s][t] += w
		undirected[t][s] += w
	}

	p.out = make([][]neighbor, n)
	p.in = make([][]neighbor, n)
	p.und = make([][]neighbor, n)
	for s := 0; s < n; s++ {
		for t, w := range directed[s] {
			p.out[s] = append(p.out[s], neighbor{to: t, weight: w})
			p.in[t] = append(p.in[t], neighbor{to: s, weight: w})
		}
		for t, w := range undirected[s] {
			p.und[s] = append(p.und[s], neighbor{to: t, weight: w})
		}
	}
	for i := 0; i < n; i++ {
		sortNeighbors(p.out[i])
		sortNeighbors(p.in[i])
		sortNeighbors(p.und[i])
		// sum in index order so float results repeat exactly
		for _, nb := range p.und[i] {
			if i < nb.to {
				p.undirectedEdges++
				p.totalWeight += nb.weight
			}
		}
	}
	return p
}

func sortNeighbors(ns []neighbor) {
	sort.Slice(ns, func(a, b int) bool { return ns[a].to < ns[b].to })
}

func (p *projection) size() int {
	return len(p.ids)
}

// weightedDegree is the summed weight of incoming and outgoing projected edges.
func (p *projection) weightedDegree(i int) float64 {
	var d float64
	for _, nb := range p.out[i] {
		d += nb.weight
	}
	for _, nb := range p.in[i] {
		d += nb.weight
	}
	return d
}

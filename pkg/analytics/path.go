package analytics

import "github.com/soitgoes511/graph-network-visualizer/pkg/common"

// ShortestPath returns the node ids of an unweighted shortest path from
// start to end, both inclusive, treating every edge as undirected.
// Neighbors are expanded in ascending id order so repeated calls return
// the same path. The result is empty when either id is missing, the nodes
// are disconnected, or start equals end.
func ShortestPath(g common.Graph, start, end string) []string {
	if start == end {
		return []string{}
	}
	p := newProjection(g)
	s, ok := p.idx[start]
	if !ok {
		return []string{}
	}
	t, ok := p.idx[end]
	if !ok {
		return []string{}
	}

	prev := make([]int, p.size())
	for i := range prev {
		prev[i] = -1
	}
	prev[s] = s
	queue := []int{s}
	for head := 0; head < len(queue) && prev[t] < 0; head++ {
		v := queue[head]
		for _, nb := range p.und[v] {
			if prev[nb.to] >= 0 {
				continue
			}
			prev[nb.to] = v
			queue = append(queue, nb.to)
		}
	}
	if prev[t] < 0 {
		return []string{}
	}

	var rev []string
	for v := t; v != s; v = prev[v] {
		rev = append(rev, p.ids[v])
	}
	rev = append(rev, p.ids[s])
	path := make([]string, len(rev))
	for i, id := range rev {
		path[len(rev)-1-i] = id
	}
	return path
}

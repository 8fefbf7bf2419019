package analytics

import (
	"math/rand/v2"
	"sort"
)

const maxPropagationRounds = 100

// greedyModularity is the agglomerative Clauset-Newman-Moore heuristic:
// start from singletons and keep merging the adjacent pair with the
// largest modularity gain until no merge improves modularity. Ties go to
// the pair with the smallest indices, so the result is deterministic.
func greedyModularity(p *projection) []int {
	n := p.size()
	labels := allSources(n)
	if p.totalWeight == 0 {
		return labels
	}
	m2 := 2 * p.totalWeight

	// between[c][d] is the summed edge weight between communities c and d
	between := make([]map[int]float64, n)
	strength := make([]float64, n)
	alive := make([]bool, n)
	for i := 0; i < n; i++ {
		between[i] = make(map[int]float64, len(p.und[i]))
		for _, nb := range p.und[i] {
			between[i][nb.to] = nb.weight
			strength[i] += nb.weight
		}
		alive[i] = true
	}

	for {
		bestGain, bi, bj := 0.0, -1, -1
		for i := 0; i < n; i++ {
			if !alive[i] {
				continue
			}
			for _, j := range sortedKeys(between[i]) {
				if j <= i {
					continue
				}
				gain := 2 * (between[i][j]/m2 - (strength[i]/m2)*(strength[j]/m2))
				if gain > bestGain+1e-12 {
					bestGain, bi, bj = gain, i, j
				}
			}
		}
		if bi < 0 {
			break
		}

		// fold bj into bi
		for k, w := range between[bj] {
			if k == bi {
				continue
			}
			between[bi][k] += w
			between[k][bi] += w
			delete(between[k], bj)
		}
		delete(between[bi], bj)
		between[bj] = nil
		strength[bi] += strength[bj]
		alive[bj] = false
		for v := range labels {
			if labels[v] == bj {
				labels[v] = bi
			}
		}
	}
	return labels
}

// labelPropagation assigns every node the label carrying the most
// neighbor weight, visiting nodes in a seeded random order each round.
// Ties prefer the current label, then the smallest one.
func labelPropagation(p *projection, seed uint64) []int {
	n := p.size()
	labels := allSources(n)
	r := rand.New(rand.NewPCG(seed, seed))

	for round := 0; round < maxPropagationRounds; round++ {
		changed := false
		for _, v := range r.Perm(n) {
			if len(p.und[v]) == 0 {
				continue
			}
			weights := make(map[int]float64, len(p.und[v]))
			for _, nb := range p.und[v] {
				weights[labels[nb.to]] += nb.weight
			}
			best, bestW := labels[v], weights[labels[v]]
			for _, l := range sortedKeys(weights) {
				if weights[l] > bestW+1e-12 {
					best, bestW = l, weights[l]
				}
			}
			if best != labels[v] {
				labels[v] = best
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return labels
}

// renumber maps raw labels onto 0..k-1 with the largest community first;
// equal sizes are ordered by their smallest member.
func renumber(labels []int) []int {
	type group struct {
		label, size, first int
	}
	groups := make(map[int]*group)
	for v, l := range labels {
		g, ok := groups[l]
		if !ok {
			g = &group{label: l, first: v}
			groups[l] = g
		}
		g.size++
	}
	ordered := make([]*group, 0, len(groups))
	for _, g := range groups {
		ordered = append(ordered, g)
	}
	sort.Slice(ordered, func(a, b int) bool {
		if ordered[a].size != ordered[b].size {
			return ordered[a].size > ordered[b].size
		}
		return ordered[a].first < ordered[b].first
	})
	ids := make(map[int]int, len(ordered))
	for i, g := range ordered {
		ids[g.label] = i
	}
	out := make([]int, len(labels))
	for v, l := range labels {
		out[v] = ids[l]
	}
	return out
}

func sortedKeys(m map[int]float64) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

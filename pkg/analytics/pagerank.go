package analytics

import "math"

// pageRank runs weighted power iteration over the directed projection.
// Mass of nodes without outgoing edges is spread uniformly. It reports
// whether the iteration converged within maxIter rounds; the last iterate
// is returned either way.
func pageRank(p *projection, damping float64, maxIter int, tol float64) ([]float64, bool) {
	n := p.size()
	if n == 0 {
		return nil, true
	}
	outWeight := make([]float64, n)
	for i := 0; i < n; i++ {
		for _, nb := range p.out[i] {
			outWeight[i] += nb.weight
		}
	}

	x := make([]float64, n)
	next := make([]float64, n)
	for i := range x {
		x[i] = 1 / float64(n)
	}

	for iter := 0; iter < maxIter; iter++ {
		var dangling float64
		for i := 0; i < n; i++ {
			if outWeight[i] == 0 {
				dangling += x[i]
			}
		}
		base := (1-damping)/float64(n) + damping*dangling/float64(n)
		for i := range next {
			next[i] = base
		}
		for u := 0; u < n; u++ {
			if outWeight[u] == 0 {
				continue
			}
			share := damping * x[u] / outWeight[u]
			for _, nb := range p.out[u] {
				next[nb.to] += share * nb.weight
			}
		}

		var diff float64
		for i := range x {
			diff += math.Abs(next[i] - x[i])
		}
		x, next = next, x
		if diff < float64(n)*tol {
			return x, true
		}
	}
	return x, false
}

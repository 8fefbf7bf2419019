package analytics

import (
	"math/rand/v2"
)

// degreeCentrality is the number of distinct projected neighbors,
// incoming and outgoing, over n-1.
func degreeCentrality(p *projection) []float64 {
	n := p.size()
	out := make([]float64, n)
	if n < 2 {
		return out
	}
	for i := 0; i < n; i++ {
		out[i] = float64(len(p.out[i])+len(p.in[i])) / float64(n-1)
	}
	return out
}

// betweenness runs Brandes' algorithm from the given sources over the
// undirected projection, ignoring weights. The result is normalized for
// undirected graphs and scaled up by n/len(sources) when sampling.
func betweenness(p *projection, sources []int) []float64 {
	n := p.size()
	bc := make([]float64, n)
	if n <= 2 || len(sources) == 0 {
		return bc
	}

	sigma := make([]float64, n)
	dist := make([]int, n)
	delta := make([]float64, n)
	pred := make([][]int, n)
	stack := make([]int, 0, n)
	queue := make([]int, 0, n)

	for _, s := range sources {
		for i := 0; i < n; i++ {
			sigma[i] = 0
			dist[i] = -1
			delta[i] = 0
			pred[i] = pred[i][:0]
		}
		stack = stack[:0]
		queue = append(queue[:0], s)
		sigma[s] = 1
		dist[s] = 0

		for head := 0; head < len(queue); head++ {
			v := queue[head]
			stack = append(stack, v)
			for _, nb := range p.und[v] {
				w := nb.to
				if dist[w] < 0 {
					dist[w] = dist[v] + 1
					queue = append(queue, w)
				}
				if dist[w] == dist[v]+1 {
					sigma[w] += sigma[v]
					pred[w] = append(pred[w], v)
				}
			}
		}

		for i := len(stack) - 1; i >= 0; i-- {
			w := stack[i]
			for _, v := range pred[w] {
				delta[v] += sigma[v] / sigma[w] * (1 + delta[w])
			}
			if w != s {
				bc[w] += delta[w]
			}
		}
	}

	scale := 1 / float64((n-1)*(n-2))
	if len(sources) < n {
		scale *= float64(n) / float64(len(sources))
	}
	for i := range bc {
		bc[i] *= scale
	}
	return bc
}

func allSources(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// sampleSources picks k distinct sources with a seeded generator so the
// same graph always yields the same estimate.
func sampleSources(n, k int, seed uint64) []int {
	if k >= n {
		return allSources(n)
	}
	r := rand.New(rand.NewPCG(seed, seed))
	perm := r.Perm(n)
	return perm[:k]
}

// sampleSize is clamp(ratio*n, min, max), never above n.
func (c Config) sampleSize(n int) int {
	k := int(c.SampleRatio * float64(n))
	if k < c.SampleMin {
		k = c.SampleMin
	}
	if k > c.SampleMax {
		k = c.SampleMax
	}
	if k > n {
		k = n
	}
	return k
}

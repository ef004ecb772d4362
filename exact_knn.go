package mrpt

import (
	"math"
	"sort"
)

// Neighbor is a single result from exact re-ranking: the index of a
// point in the underlying data matrix and its distance to the query.
type Neighbor struct {
	Index    int32
	Distance float32
}

// exactKNN re-ranks a candidate set by true squared-Euclidean distance
// to q and returns the k closest, ascending by distance. Unfilled slots
// (when len(candidates) < k) carry Index -1, Distance -1. Pass
// withDistances=false to skip the sqrt pass when distances are not
// needed by the caller.
func exactKNN(x DataMatrix, q []float32, k int, candidates []int32, withDistances bool) []Neighbor {
	out := make([]Neighbor, k)
	if len(candidates) == 0 {
		for i := range out {
			out[i] = Neighbor{Index: -1, Distance: -1}
		}
		return out
	}

	dist := make([]float32, len(candidates))
	parallelFor(len(candidates), func(i int) {
		dist[i] = squaredEuclidean(x.Column(int(candidates[i])), q)
	})

	if k == 1 {
		best := 0
		for i := 1; i < len(dist); i++ {
			if dist[i] < dist[best] {
				best = i
			}
		}
		var d float32
		if withDistances {
			d = sqrtf32(dist[best])
		}
		out[0] = Neighbor{Index: candidates[best], Distance: d}
		return out
	}

	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	nToSort := k
	if len(candidates) < k {
		nToSort = len(candidates)
	}
	partialSortByKey(order, func(i int) float32 { return dist[i] }, nToSort)

	for i := 0; i < k; i++ {
		if i >= len(candidates) {
			out[i] = Neighbor{Index: -1, Distance: -1}
			continue
		}
		d := dist[order[i]]
		if withDistances {
			d = sqrtf32(d)
		} else {
			d = 0
		}
		out[i] = Neighbor{Index: candidates[order[i]], Distance: d}
	}
	return out
}

// partialSortByKey arranges order so that the first n positions hold
// the n smallest elements by key, ascending; the remainder is
// unspecified. Mirrors std::partial_sort's contract without requiring
// a full sort over the whole candidate set.
func partialSortByKey(order []int, key func(int) float32, n int) {
	if n >= len(order) {
		sort.Slice(order, func(a, b int) bool { return key(order[a]) < key(order[b]) })
		return
	}
	idx := make([]int32, len(order))
	for i, v := range order {
		idx[i] = int32(v)
	}
	quickselectByKey(idx, func(v int32) float32 { return key(int(v)) }, 0, len(idx)-1, n-1)
	sort.Slice(idx[:n], func(a, b int) bool { return key(int(idx[a])) < key(int(idx[b])) })
	for i, v := range idx {
		order[i] = int(v)
	}
}

func sqrtf32(v float32) float32 {
	if v <= 0 {
		return 0
	}
	return float32(math.Sqrt(float64(v)))
}

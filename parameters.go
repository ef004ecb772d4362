package mrpt

// Parameters describes one point in the (trees, depth, votes) lattice
// evaluated by Autotune, with its estimated query latency and recall
// against held-out exact ground truth.
type Parameters struct {
	NTrees    int
	Depth     int
	Votes     int
	EstQTime  float64
	EstRecall float64
}

// paretoFrontier sorts pars ascending by EstQTime, then keeps only the
// points whose recall strictly improves on every faster point that
// precedes it. The result is therefore sorted by increasing query time
// and increasing recall: the set of parameter choices where no other
// choice is both faster and at least as accurate.
func paretoFrontier(pars []Parameters) []Parameters {
	sortByQTime(pars)

	frontier := make([]Parameters, 0, len(pars))
	best := -1.0
	for _, p := range pars {
		if p.EstRecall > best {
			frontier = append(frontier, p)
			best = p.EstRecall
		}
	}
	return frontier
}

func sortByQTime(pars []Parameters) {
	// Simple insertion sort: the lattice autotune evaluates is small
	// (trees x depths x votes, typically a few thousand points at
	// most), and insertion sort keeps equal-qtime entries in the
	// deterministic order they were generated, which pars.insert()'s
	// ordered-set semantics relied on upstream.
	for i := 1; i < len(pars); i++ {
		for j := i; j > 0 && pars[j].EstQTime < pars[j-1].EstQTime; j-- {
			pars[j], pars[j-1] = pars[j-1], pars[j]
		}
	}
}

// optimalParametersFor returns the fastest parameter set in frontier
// (already sorted by EstQTime) whose estimated recall exceeds
// targetRecall - 1e-4, or the zero Parameters if none qualifies.
func optimalParametersFor(frontier []Parameters, targetRecall float64) Parameters {
	threshold := targetRecall - 0.0001
	for _, p := range frontier {
		if p.EstRecall > threshold {
			return p
		}
	}
	return Parameters{}
}

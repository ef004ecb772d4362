package mrpt

// Result is the outcome of a Search: up to K neighbors, ascending by
// distance, plus how many candidates were elected by voting before
// exact re-ranking (useful for diagnosing a too-low vote threshold).
type Result struct {
	Neighbors []Neighbor
	NElected  int
}

// ForestSearch is a builder for a single Search call against a Forest.
// Zero value is not usable; construct with Forest.NewSearch.
type ForestSearch struct {
	f             *Forest
	k             int
	votesRequired int
	withDistances bool
}

// NewSearch starts building a query against f. Defaults: k=10,
// votesRequired taken from Forest.Votes() if set (via Subset or
// DeleteExtraTrees)
// or 1 otherwise, distances included.
func (f *Forest) NewSearch() *ForestSearch {
	return &ForestSearch{f: f, k: 10, withDistances: true}
}

// WithK sets the number of neighbors to return.
func (s *ForestSearch) WithK(k int) *ForestSearch {
	s.k = k
	return s
}

// WithVotesRequired overrides the number of tree votes a candidate
// needs to be elected for exact re-ranking. 0 means "use the forest's
// autotuned value, or 1 if none is set".
func (s *ForestSearch) WithVotesRequired(v int) *ForestSearch {
	s.votesRequired = v
	return s
}

// WithDistances controls whether Execute computes true distances for
// the returned neighbors (skip this to save a sqrt pass when only
// indices matter).
func (s *ForestSearch) WithDistances(enabled bool) *ForestSearch {
	s.withDistances = enabled
	return s
}

// Execute routes q into every tree, elects candidates by vote count,
// and re-ranks the elected set by exact squared-Euclidean distance.
//
// A forest that was never grown (Empty() with no prior Grow) reports
// ErrEmptyForest: that is a caller state the caller is expected to
// inspect, not a malformed call. A forest trimmed to zero trees by
// Subset on an infeasible target recall is different: it is a valid,
// profiled forest that simply elects nothing, so Execute falls
// through to exactKNN with no candidates and returns k neighbors of
// index -1, per its documented infeasible-recall behavior.
func (s *ForestSearch) Execute(q []float32) (Result, error) {
	f := s.f
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.state == stateEmpty {
		return Result{}, ErrEmptyForest
	}
	if len(q) != f.x.Dim() {
		return Result{}, invalidInputf("mrpt: query dimension %d does not match index dimension %d", len(q), f.x.Dim())
	}
	if s.k < 1 {
		return Result{}, invalidInputf("mrpt: k must be >= 1, got %d", s.k)
	}
	if s.k > f.x.NumSamples() {
		return Result{}, invalidInputf("mrpt: k=%d exceeds n_samples=%d", s.k, f.x.NumSamples())
	}

	if f.nTrees == 0 {
		neighbors := exactKNN(f.x, q, s.k, nil, s.withDistances)
		return Result{Neighbors: neighbors, NElected: 0}, nil
	}

	if s.votesRequired != 0 && (s.votesRequired < 1 || s.votesRequired > f.nTrees) {
		return Result{}, invalidInputf("mrpt: votes_required must be in [1,%d], got %d", f.nTrees, s.votesRequired)
	}

	votesRequired := s.votesRequired
	if votesRequired == 0 {
		votesRequired = f.votes
	}
	if votesRequired == 0 {
		votesRequired = 1
	}

	projected := f.proj.project(q)

	foundLeaves := make([]int, f.nTrees)
	parallelFor(f.nTrees, func(t int) {
		foundLeaves[t] = f.routeTree(t, projected)
	})

	n := f.x.NumSamples()
	vb := acquireVoteBuffer(n)
	defer releaseVoteBuffer(vb)
	elected := make([]int32, 0, f.nTrees*(n/(1<<f.depth)+1))

	for t := 0; t < f.nTrees; t++ {
		leaf := foundLeaves[t]
		begin, end := f.leafOffsets[leaf], f.leafOffsets[leaf+1]
		indices := f.leafIndices[t]
		for i := begin; i < end; i++ {
			idx := indices[i]
			if vb.increment(idx) == votesRequired {
				elected = append(elected, idx)
			}
		}
	}

	neighbors := exactKNN(f.x, q, s.k, elected, s.withDistances)
	return Result{Neighbors: neighbors, NElected: len(elected)}, nil
}

// routeTree walks tree t's split-point column from the root, returning
// the 0-based leaf index the projected query lands in.
func (f *Forest) routeTree(t int, projected []float32) int {
	column := f.splitPoints[t*f.nArray : (t+1)*f.nArray]
	nodeIdx := 0
	for d := 0; d < f.depth; d++ {
		j := t*f.depth + d
		idxLeft := 2*nodeIdx + 1
		idxRight := idxLeft + 1
		if projected[j] <= column[nodeIdx] {
			nodeIdx = idxLeft
		} else {
			nodeIdx = idxRight
		}
	}
	return nodeIdx - (1<<f.depth) + 1
}

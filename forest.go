package mrpt

import "sync"

// forestState tracks where a Forest sits in its lifecycle: Empty ->
// Built (after Grow) -> Profiled (after Autotune) -> Trimmed (after
// Subset/DeleteExtraTrees). Search is valid in Built or Trimmed;
// OptimalParametersFor/Subset require Profiled.
type forestState int

const (
	stateEmpty forestState = iota
	stateBuilt
	stateProfiled
	stateTrimmed
)

// GrowParams configures a single call to Forest.Grow.
type GrowParams struct {
	// NTrees is the number of RP-trees in the forest.
	NTrees int
	// Depth is the depth of every tree (2^Depth leaves).
	Depth int
	// Density is the expected fraction of non-zero entries in the
	// projection matrix. Density >= 1 selects the dense path.
	Density float32
	// Seed seeds the projection matrix's RNG. 0 means nondeterministic.
	Seed uint64
}

// Forest owns an ensemble of random-projection trees built over a
// caller-supplied DataMatrix. A Forest is safe for concurrent Search
// calls; Grow, Autotune and DeleteExtraTrees take an exclusive lock and
// must not race with an in-flight Search. Subset leaves the receiver
// unchanged and takes only a read lock.
type Forest struct {
	mu sync.RWMutex

	x DataMatrix

	nTrees  int
	depth   int
	density float32
	votes   int // optimal vote count set by Subset/DeleteExtraTrees; 0 until then

	proj *ProjectionMatrix

	// splitPoints is laid out column-major by tree: entry for tree t,
	// node i is at t*nArray+i, matching the persistence format in §6.
	splitPoints []float32
	nArray      int

	leafIndices [][]int32 // per-tree permutation of [0, n), leaves contiguous
	leafOffsets []int     // shared across trees at the forest's current depth

	// leafOffsetsAllDepths is retained only after Autotune (phase A
	// needs routing/voting at every intermediate depth); nil otherwise.
	leafOffsetsAllDepths [][]int

	stats *AutotunerStats
	state forestState
}

// NewForest creates an empty Forest over x. Call Grow before Search.
func NewForest(x DataMatrix) *Forest {
	return &Forest{x: x, state: stateEmpty}
}

// Dim returns the dimensionality of the underlying data matrix.
func (f *Forest) Dim() int { return f.x.Dim() }

// NumSamples returns the number of points in the underlying data matrix.
func (f *Forest) NumSamples() int { return f.x.NumSamples() }

// NTrees returns the number of trees currently in the forest.
func (f *Forest) NTrees() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.nTrees
}

// Depth returns the depth of the forest's trees.
func (f *Forest) Depth() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.depth
}

// Votes returns the optimal vote threshold set by Subset or
// DeleteExtraTrees, or 0 if none has been set yet.
func (f *Forest) Votes() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.votes
}

// Empty reports whether the forest has zero trees, either because Grow
// was never called or because Subset trimmed it to nothing.
func (f *Forest) Empty() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.nTrees == 0
}

// Grow builds the forest's projection matrix and every tree via
// median-split recursion. Trees are built in parallel by parallelFor's
// bounded pool of goroutines, each tree owning its own
// projected-coordinate slice and index permutation.
func (f *Forest) Grow(p GrowParams) error {
	n := f.x.NumSamples()
	dim := f.x.Dim()

	if n < 1 {
		return invalidInputf("mrpt: data matrix has no samples")
	}
	if p.NTrees < 1 {
		return invalidInputf("mrpt: n_trees must be >= 1, got %d", p.NTrees)
	}
	if p.Depth < 0 {
		return invalidInputf("mrpt: depth must be >= 0, got %d", p.Depth)
	}
	if p.Density <= 0 || p.Density > 1 {
		return invalidInputf("mrpt: density must be in (0,1], got %v", p.Density)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	nPool := p.NTrees * p.Depth
	nArray := 1 << (p.Depth + 1)

	f.proj = newProjectionMatrix(nPool, dim, p.Density, p.Seed)
	f.splitPoints = make([]float32, nArray*p.NTrees)
	f.leafIndices = make([][]int32, p.NTrees)
	f.nArray = nArray
	f.leafOffsets = leafOffsets(n, p.Depth)

	parallelFor(p.NTrees, func(t int) {
		f.growTree(t, p.Depth, n)
	})

	f.nTrees = p.NTrees
	f.depth = p.Depth
	f.density = p.Density
	f.votes = 0
	f.stats = nil
	f.state = stateBuilt
	return nil
}

// growTree builds tree t: projects X through tree t's row slab of the
// pool, then recursively median-splits the index permutation.
func (f *Forest) growTree(t, depth, n int) {
	treeProj := f.proj.projectMatrix(t*depth, depth, f.x)

	indices := make([]int32, n)
	for i := range indices {
		indices[i] = int32(i)
	}

	column := f.splitPoints[t*f.nArray : (t+1)*f.nArray]
	growSubtree(indices, 0, n, 0, depth, 0, treeProj, n, column)

	f.leafIndices[t] = indices
}

// growSubtree recursively median-splits indices[begin:end] at level,
// writing the split value for internal node nodeIdx into column (one
// tree's slab of the split-point array), then recursing to depth.
func growSubtree(indices []int32, begin, end, level, depth, nodeIdx int, treeProj []float32, n int, column []float32) {
	if level == depth {
		return
	}

	m := end - begin
	k := m / 2 // floor(m/2)

	levelRow := treeProj[level*n : (level+1)*n]
	key := func(idx int32) float32 { return levelRow[idx] }

	var leftEnd int
	if m > 0 {
		quickselectByKey(indices, key, begin, end-1, begin+k)

		if m%2 == 1 {
			column[nodeIdx] = key(indices[begin+k])
			leftEnd = begin + k + 1
		} else if k > 0 {
			leftMax := key(indices[begin])
			for i := begin + 1; i < begin+k; i++ {
				if v := key(indices[i]); v > leftMax {
					leftMax = v
				}
			}
			column[nodeIdx] = (key(indices[begin+k]) + leftMax) / 2
			leftEnd = begin + k
		} else {
			// m == 0: nothing to split, both children stay empty.
			leftEnd = begin
		}
	} else {
		leftEnd = begin
	}

	idxLeft := 2*nodeIdx + 1
	idxRight := idxLeft + 1
	growSubtree(indices, begin, leftEnd, level+1, depth, idxLeft, treeProj, n, column)
	growSubtree(indices, leftEnd, end, level+1, depth, idxRight, treeProj, n, column)
}

package mrpt

import (
	"math/rand"
	"time"

	"github.com/x448/float16"
)

// testedTreeCounts mirrors the canonical sample points used upstream
// for fitting the projection/voting latency curves, merged with a
// handful of counts evenly spaced up to the forest's tree count so the
// fit always has samples near the top of the range actually in use.
func testedTreeCounts(nTrees int) []int {
	base := []int{1, 2, 3, 4, 5, 7, 10, 15, 20, 25, 30, 40, 50}
	seen := make(map[int]bool, len(base))
	out := make([]int, 0, len(base)+10)
	for _, t := range base {
		if t <= nTrees && !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}

	nSamples := 10
	if nTrees < nSamples {
		nSamples = nTrees
	}
	if nSamples > 0 {
		incr := nTrees / nSamples
		if incr < 1 {
			incr = 1
		}
		for i := 1; i <= nSamples; i++ {
			t := i * incr
			if t >= 1 && t <= nTrees && !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	return out
}

// testedCandidateSizes mirrors the canonical exact-rank sample sizes,
// merged with evenly spaced sizes up to n/20.
func testedCandidateSizes(n int) []int {
	base := []int{1, 2, 5, 10, 20, 50, 100, 200, 300, 400, 500}
	sMax := n / 20
	seen := make(map[int]bool, len(base))
	out := make([]int, 0, len(base)+20)
	for _, s := range base {
		if s >= 1 && s <= n && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	if sMax > 0 {
		incr := sMax / 20
		if incr < 1 {
			incr = 1
		}
		for i := 1; i <= 20; i++ {
			s := i * incr
			if s >= 1 && s <= n && !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}

// voteThresholds mirrors the canonical vote-threshold sample points:
// every threshold from 1 to a small minimum, plus a handful evenly
// spaced up to votesMax.
func voteThresholds(votesMax int) []int {
	const minAllVotes = 5
	seen := make(map[int]bool)
	out := make([]int, 0, minAllVotes+5)
	limit := minAllVotes
	if votesMax < limit {
		limit = votesMax
	}
	for v := 1; v <= limit; v++ {
		seen[v] = true
		out = append(out, v)
	}

	nVotes := 5
	if votesMax < nVotes {
		nVotes = votesMax
	}
	if nVotes > 0 {
		incr := votesMax / nVotes
		if incr < 1 {
			incr = 1
		}
		for i := 1; i <= nVotes; i++ {
			v := i * incr
			if v > minAllVotes && !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}

// fitLatency measures projection, voting and exact re-ranking cost at
// a range of sample sizes and fits a Theil-Sen line to each, then
// builds the full (trees, depth, votes) lattice and its Pareto
// frontier over estimated query time versus estimated recall.
func (f *Forest) fitLatency(q QueryMatrix, stats *AutotunerStats) {
	rng := rand.New(rand.NewSource(1))
	n := f.x.NumSamples()
	dim := f.x.Dim()
	sample := q.Column(0)

	treeCounts := testedTreeCounts(f.nTrees)

	var projX, projY []float64
	for d := stats.depthMin; d <= stats.depthMax; d++ {
		for _, t := range treeCounts {
			nRandom := t * d
			proj := newProjectionMatrix(nRandom, dim, f.density, 0)

			start := time.Now()
			proj.project(sample)
			elapsed := time.Since(start).Seconds()

			projX = append(projX, float64(nRandom))
			projY = append(projY, elapsed)
		}
	}
	stats.betaProjection = fitTheilSen(projX, projY)

	thresholds := voteThresholds(stats.votesMax)
	stats.betaVoting = make([]votingFit, stats.depthMax-stats.depthMin+1)
	for d := stats.depthMin; d <= stats.depthMax; d++ {
		vf := votingFit{thresholds: thresholds, fits: make([]theilSenFit, len(thresholds))}
		for i, v := range thresholds {
			var voteX, voteY []float64
			for _, t := range treeCounts {
				projected := f.proj.project(sample)

				start := time.Now()
				f.voteCount(t, d, v, projected)
				elapsed := time.Since(start).Seconds()

				voteX = append(voteX, float64(t))
				voteY = append(voteY, elapsed)
			}
			vf.fits[i] = fitTheilSen(voteX, voteY)
		}
		stats.betaVoting[d-stats.depthMin] = vf
	}

	candSizes := testedCandidateSizes(n)
	const nSim = 100
	var exX, exY []float64
	for _, s := range candSizes {
		var total float64
		for sim := 0; sim < nSim; sim++ {
			candidates := make([]int32, s)
			for j := range candidates {
				candidates[j] = int32(rng.Intn(n))
			}

			start := time.Now()
			exactKNN(f.x, sample, stats.k, candidates, false)
			total += time.Since(start).Seconds()
		}
		exX = append(exX, float64(s))
		exY = append(exY, total/nSim)
	}
	stats.betaExact = fitTheilSen(exX, exY)

	f.buildParameterLattice(stats)
}

// voteCount replays the routing+voting step of Search over the first
// nTrees trees at the given depth, with projected already computed
// against the forest's full projection pool (f.depth rows per tree),
// used only to time the voting loop
// in isolation from projection and exact re-ranking.
func (f *Forest) voteCount(nTrees, depth, votesRequired int, projected []float32) int {
	n := f.x.NumSamples()
	offsets := f.leafOffsetsAllDepths[depth]
	vb := acquireVoteBuffer(n)
	defer releaseVoteBuffer(vb)
	elected := 0
	for t := 0; t < nTrees && t < f.nTrees; t++ {
		column := f.splitPoints[t*f.nArray : (t+1)*f.nArray]
		nodeIdx := 0
		for d := 0; d < depth; d++ {
			j := t*f.depth + d
			idxLeft := 2*nodeIdx + 1
			idxRight := idxLeft + 1
			if j < len(projected) && projected[j] <= column[nodeIdx] {
				nodeIdx = idxLeft
			} else {
				nodeIdx = idxRight
			}
		}
		leaf := nodeIdx - (1 << depth) + 1
		begin, end := offsets[leaf], offsets[leaf+1]
		indices := f.leafIndices[t]
		for i := begin; i < end; i++ {
			idx := indices[i]
			if vb.increment(idx) == votesRequired {
				elected++
			}
		}
	}
	return elected
}

// buildParameterLattice evaluates estimated query time and recall for
// every (trees, depth, votes) combination the profiling pass covers
// and reduces it to the Pareto frontier, ascending by estimated query
// time.
func (f *Forest) buildParameterLattice(stats *AutotunerStats) {
	var pars []Parameters
	for d := stats.depthMin; d <= stats.depthMax; d++ {
		row := stats.recall[d-stats.depthMin]
		sizeRow := stats.candSize[d-stats.depthMin]
		for t := 1; t <= stats.nTrees; t++ {
			votesIdx := stats.votesMax
			if t < votesIdx {
				votesIdx = t
			}
			for v := 1; v <= votesIdx; v++ {
				recall := row[(v-1)*stats.nTrees+(t-1)] / float64(stats.k*stats.nTest)
				candSize := sizeRow[(v-1)*stats.nTrees+(t-1)] / float64(stats.nTest)

				qTime := stats.betaProjection.predict(float64(t*d)) +
					stats.betaVoting[d-stats.depthMin].predict(t) +
					stats.betaExact.predict(candSize)

				pars = append(pars, Parameters{
					NTrees:    t,
					Depth:     d,
					Votes:     v,
					EstQTime:  qTime,
					EstRecall: recall,
				})
			}
		}
	}

	stats.pars = pars
	stats.optPars = paretoFrontier(pars)

	snapshot := make([]float16.Float16, len(stats.optPars))
	for i, p := range stats.optPars {
		snapshot[i] = float16.Fromfloat32(float32(p.EstRecall))
	}
	stats.recallSnapshot = snapshot
}

// OptimalParametersFor returns the fastest profiled parameter set
// whose estimated recall exceeds targetRecall, or the zero Parameters
// if Autotune found none. Requires the forest to have been profiled.
func (f *Forest) OptimalParametersFor(targetRecall float64) (Parameters, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.stats == nil {
		return Parameters{}, ErrNotProfiled
	}
	return optimalParametersFor(f.stats.optPars, targetRecall), nil
}

// DeleteExtraTrees trims the forest in place to the fastest profiled
// parameter set meeting targetRecall: it subsets the tree ensemble,
// the split-point matrix and the projection pool down to the chosen
// (trees, depth) pair and records the chosen vote threshold. No-op if
// no profiled parameter set meets targetRecall.
func (f *Forest) DeleteExtraTrees(targetRecall float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.stats == nil {
		return ErrNotProfiled
	}
	best := optimalParametersFor(f.stats.optPars, targetRecall)
	if best.NTrees == 0 {
		return nil
	}
	f.applyParameters(best)
	f.state = stateTrimmed
	return nil
}

// Subset returns a new Forest sharing the same underlying data matrix,
// trimmed to the fastest profiled parameter set meeting targetRecall.
// The receiver is left untouched. Returns a trimmed Forest with zero
// trees if no profiled parameter set meets targetRecall.
func (f *Forest) Subset(targetRecall float64) (*Forest, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.stats == nil {
		return nil, ErrNotProfiled
	}
	best := optimalParametersFor(f.stats.optPars, targetRecall)
	if best.NTrees == 0 {
		// No profiled parameter set meets targetRecall: per the
		// documented infeasible-recall behavior, this is a valid
		// trimmed forest with zero trees, not an unbuilt one — Search
		// falls through it to exactKNN with no elected candidates
		// rather than reporting ErrEmptyForest.
		return &Forest{x: f.x, state: stateTrimmed}, nil
	}

	out := &Forest{x: f.x}
	out.copyFrom(f, best)
	out.state = stateTrimmed
	return out, nil
}

// applyParameters trims f's trees/depth/split-points/projection pool
// down to p's (NTrees, Depth) in place, setting f.votes to p.Votes.
func (f *Forest) applyParameters(p Parameters) {
	depthMax := f.depth
	nArray := 1 << (p.Depth + 1)

	newSplit := make([]float32, nArray*p.NTrees)
	for t := 0; t < p.NTrees; t++ {
		copy(newSplit[t*nArray:(t+1)*nArray], f.splitPoints[t*f.nArray:t*f.nArray+nArray])
	}

	f.proj = f.rowSlabForTrees(p.NTrees, p.Depth, depthMax)
	f.splitPoints = newSplit
	f.nArray = nArray
	f.leafIndices = f.leafIndices[:p.NTrees]
	f.leafOffsets = f.leafOffsetsAllDepths[p.Depth]
	f.nTrees = p.NTrees
	f.depth = p.Depth
	f.votes = p.Votes
}

// copyFrom populates out (whose x is already set) as an independent
// trimmed copy of src at parameters p.
func (out *Forest) copyFrom(src *Forest, p Parameters) {
	depthMax := src.depth
	nArray := 1 << (p.Depth + 1)

	out.splitPoints = make([]float32, nArray*p.NTrees)
	for t := 0; t < p.NTrees; t++ {
		copy(out.splitPoints[t*nArray:(t+1)*nArray], src.splitPoints[t*src.nArray:t*src.nArray+nArray])
	}

	out.leafIndices = make([][]int32, p.NTrees)
	for t := 0; t < p.NTrees; t++ {
		leaves := make([]int32, len(src.leafIndices[t]))
		copy(leaves, src.leafIndices[t])
		out.leafIndices[t] = leaves
	}

	out.proj = src.rowSlabForTrees(p.NTrees, p.Depth, depthMax)
	out.nArray = nArray
	out.leafOffsets = append([]int(nil), src.leafOffsetsAllDepths[p.Depth]...)
	out.nTrees = p.NTrees
	out.depth = p.Depth
	out.density = src.density
	out.votes = p.Votes
}

// rowSlabForTrees extracts the first nTrees*depth rows of the
// projection pool, skipping from depthMax-wide per-tree blocks down to
// depth-wide ones: tree t's kept rows are its first `depth` rows out
// of its original depthMax-wide block.
func (f *Forest) rowSlabForTrees(nTrees, depth, depthMax int) *ProjectionMatrix {
	if depth == depthMax {
		return f.proj.rowSlab(0, nTrees*depth)
	}

	merged := f.proj.rowSlab(0, 0)
	for t := 0; t < nTrees; t++ {
		block := f.proj.rowSlab(t*depthMax, depth)
		merged = mergeProjectionRows(merged, block)
	}
	return merged
}

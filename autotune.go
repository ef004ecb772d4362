package mrpt

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/x448/float16"
)

// AutotuneParams configures a call to Forest.Autotune. The forest must
// already be grown with NTrees=TreesMax and Depth=DepthMax; autotuning
// profiles every (trees, depth, votes) combination with trees in
// [1,TreesMax], depth in [DepthMin,DepthMax] and votes in [1,VotesMax]
// without rebuilding the forest.
type AutotuneParams struct {
	DepthMin int
	VotesMax int
	K        int
}

// AutotunerStats holds the recall and candidate-set-size surfaces
// measured during Autotune's saturation pass, plus the latency model
// fit during its profiling pass. Both are indexed [depth-DepthMin],
// each entry a (VotesMax x NTrees) matrix stored row-major with vote
// threshold as the row and tree count as the column, matching the
// layout Autotune reads back when building the parameter lattice.
type AutotunerStats struct {
	depthMin, depthMax int
	votesMax, nTrees   int
	k, nTest           int

	// recall[d][v*nTrees+t] = cumulative number of (query, matched-gt)
	// hits using the first t+1 trees at vote threshold v+1 and depth
	// depthMin+d, summed over the test set. Divide by k*nTest for a
	// recall fraction.
	recall [][]float64
	// candSize mirrors recall but counts elected candidates regardless
	// of ground-truth membership. Divide by nTest for a mean size.
	candSize [][]float64

	betaProjection theilSenFit
	betaExact      theilSenFit
	betaVoting     []votingFit // indexed [depth-depthMin]

	pars    []Parameters
	optPars []Parameters

	// recallSnapshot is a float16-compacted copy of the final recall
	// fractions, one entry per Pareto-frontier parameter set, kept
	// around for cheap diagnostic reporting after Autotune returns
	// without retaining the full float64 recall/candSize matrices.
	recallSnapshot []float16.Float16
}

// RecallSnapshot returns the estimated recall of every Pareto-frontier
// parameter set, compacted to float16 — good enough precision for a
// diagnostic readout, at half the footprint of the float64 values
// computed internally.
func (s *AutotunerStats) RecallSnapshot() []float16.Float16 {
	return s.recallSnapshot
}

// votingFit holds the voting-latency Theil-Sen fits measured at one
// depth, keyed by the smallest vote threshold each fit is valid for
// (matching the upstream std::map<int, fit> "use the fit for the
// smallest tested threshold >= v" lookup semantics).
type votingFit struct {
	thresholds []int
	fits       []theilSenFit
}

func (v votingFit) predict(nTrees int) float64 {
	if len(v.fits) == 0 {
		return 0
	}
	for i, t := range v.thresholds {
		if nTrees <= t {
			return v.fits[i].predict(float64(nTrees))
		}
	}
	return v.fits[len(v.fits)-1].predict(float64(nTrees))
}

// Autotune runs the two-phase profiling pass used to pick query-time
// optimal (trees, depth, votes) parameters: phase A measures recall
// and candidate-set size against exact ground truth at every depth in
// [p.DepthMin, forest's current depth]; phase B fits latency models
// for projection, voting and exact re-ranking cost and derives the
// Pareto frontier over estimated query time versus estimated recall.
// Q holds the held-out test queries used for both phases.
func (f *Forest) Autotune(q QueryMatrix, p AutotuneParams) (*AutotunerStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != stateBuilt {
		return nil, invalidInputf("mrpt: forest must be freshly grown before Autotune")
	}
	if p.DepthMin < 1 || p.DepthMin > f.depth {
		return nil, invalidInputf("mrpt: depth_min must be in [1,%d], got %d", f.depth, p.DepthMin)
	}
	if p.VotesMax < 1 || p.VotesMax > f.nTrees {
		return nil, invalidInputf("mrpt: votes_max must be in [1,%d], got %d", f.nTrees, p.VotesMax)
	}
	if p.K < 1 {
		return nil, invalidInputf("mrpt: k must be >= 1, got %d", p.K)
	}

	n := f.x.NumSamples()
	f.leafOffsetsAllDepths = leafOffsetsByDepth(n, f.depth)

	stats := &AutotunerStats{
		depthMin: p.DepthMin,
		depthMax: f.depth,
		votesMax: p.VotesMax,
		nTrees:   f.nTrees,
		k:        p.K,
		nTest:    q.NumSamples(),
	}
	nDepths := f.depth - p.DepthMin + 1
	stats.recall = make([][]float64, nDepths)
	stats.candSize = make([][]float64, nDepths)
	for d := 0; d < nDepths; d++ {
		stats.recall[d] = make([]float64, p.VotesMax*f.nTrees)
		stats.candSize[d] = make([]float64, p.VotesMax*f.nTrees)
	}

	nTest := q.NumSamples()
	for i := 0; i < nTest; i++ {
		query := q.Column(i)
		gt := f.bruteForceGroundTruth(query, p.K)
		f.countElected(query, gt, stats)
	}

	f.fitLatency(q, stats)
	f.stats = stats
	f.state = stateProfiled
	return stats, nil
}

// bruteForceGroundTruth returns the exact k nearest neighbors of q as a
// bitmap, used as ground truth when measuring recall during Autotune.
func (f *Forest) bruteForceGroundTruth(q []float32, k int) *roaring.Bitmap {
	all := make([]int32, f.x.NumSamples())
	for i := range all {
		all[i] = int32(i)
	}
	neighbors := exactKNN(f.x, q, k, all, false)

	bm := roaring.New()
	for _, nb := range neighbors {
		if nb.Index >= 0 {
			bm.Add(uint32(nb.Index))
		}
	}
	return bm
}

// countElected routes q through every tree at every depth in
// [depthMin, depthMax] simultaneously (one traversal per tree, sampled
// at each intermediate level) and accumulates, for every (depth,
// votes, treeCount) triple, how many elected candidates are true
// neighbors per gt and how large the candidate set is.
func (f *Forest) countElected(q []float32, gt *roaring.Bitmap, stats *AutotunerStats) {
	projected := f.proj.project(q)
	depthMin := stats.depthMin
	depthMax := stats.depthMax
	nTrees := stats.nTrees
	votesMax := stats.votesMax

	leavesAtLevel := make([][]int, nTrees)
	for t := 0; t < nTrees; t++ {
		leavesAtLevel[t] = f.routeAllLevels(t, projected, depthMax)
	}

	n := f.x.NumSamples()
	for d := depthMin; d <= depthMax; d++ {
		vb := acquireVoteBuffer(n)
		offsets := f.leafOffsetsAllDepths[d]
		row := stats.recall[d-depthMin]
		sizeRow := stats.candSize[d-depthMin]

		tmpRecall := make([]float64, votesMax*nTrees)
		tmpSize := make([]float64, votesMax*nTrees)

		for t := 0; t < nTrees; t++ {
			leaf := leavesAtLevel[t][d-1]
			begin, end := offsets[leaf], offsets[leaf+1]
			indices := f.leafIndices[t]
			for i := begin; i < end; i++ {
				idx := indices[i]
				v := vb.increment(idx)
				if v > votesMax {
					continue
				}
				tmpSize[(v-1)*nTrees+t]++
				if gt.Contains(uint32(idx)) {
					tmpRecall[(v-1)*nTrees+t]++
				}
			}
		}
		releaseVoteBuffer(vb)

		// Propagate the running count forward across tree columns: a
		// candidate that reached vote level v at tree t remains part of
		// the v-vote candidate set for every subsequent tree count.
		for v := 0; v < votesMax; v++ {
			for t := 1; t < nTrees; t++ {
				tmpRecall[v*nTrees+t] += tmpRecall[v*nTrees+t-1]
				tmpSize[v*nTrees+t] += tmpSize[v*nTrees+t-1]
			}
		}

		for i := range row {
			row[i] += tmpRecall[i]
			sizeRow[i] += tmpSize[i]
		}
	}
}

// routeAllLevels walks tree t from the root, returning the leaf index
// the query lands in at every intermediate level 1..depthMax.
func (f *Forest) routeAllLevels(t int, projected []float32, depthMax int) []int {
	column := f.splitPoints[t*f.nArray : (t+1)*f.nArray]
	out := make([]int, depthMax)
	nodeIdx := 0
	for d := 0; d < depthMax; d++ {
		j := t*f.depth + d
		idxLeft := 2*nodeIdx + 1
		idxRight := idxLeft + 1
		if projected[j] <= column[nodeIdx] {
			nodeIdx = idxLeft
		} else {
			nodeIdx = idxRight
		}
		out[d] = nodeIdx - (1 << (d + 1)) + 1
	}
	return out
}

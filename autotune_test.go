package mrpt

import "testing"

func uniquePointData(n, dim int) DataMatrix {
	data := make([]float32, n*dim)
	for i := 0; i < n; i++ {
		for d := 0; d < dim; d++ {
			data[i*dim+d] = float32(i*7+d) * 0.1
		}
	}
	return NewDenseMatrix(dim, n, data)
}

func TestAutotuneRequiresBuiltForest(t *testing.T) {
	x := uniquePointData(20, 4)
	f := NewForest(x)
	q := uniquePointData(5, 4)

	_, err := f.Autotune(q, AutotuneParams{DepthMin: 1, VotesMax: 2, K: 3})
	if err == nil {
		t.Fatalf("Autotune() on an ungrown forest should fail")
	}
}

func TestAutotuneProducesOptimalParameters(t *testing.T) {
	x := uniquePointData(60, 5)
	f := NewForest(x)
	if err := f.Grow(GrowParams{NTrees: 8, Depth: 3, Density: 1, Seed: 17}); err != nil {
		t.Fatalf("Grow() error: %v", err)
	}

	q := uniquePointData(6, 5)
	stats, err := f.Autotune(q, AutotuneParams{DepthMin: 1, VotesMax: 4, K: 3})
	if err != nil {
		t.Fatalf("Autotune() error: %v", err)
	}
	if stats == nil {
		t.Fatalf("Autotune() returned nil stats")
	}
	if len(stats.pars) == 0 {
		t.Fatalf("Autotune() produced no parameter lattice entries")
	}
	if len(stats.optPars) == 0 {
		t.Fatalf("Autotune() produced no Pareto frontier entries")
	}

	// Query times along the frontier must be non-decreasing.
	for i := 1; i < len(stats.optPars); i++ {
		if stats.optPars[i].EstQTime < stats.optPars[i-1].EstQTime {
			t.Fatalf("frontier not sorted by query time at index %d", i)
		}
	}

	p, err := f.OptimalParametersFor(0.0)
	if err != nil {
		t.Fatalf("OptimalParametersFor() error: %v", err)
	}
	if p.NTrees == 0 {
		t.Fatalf("OptimalParametersFor(0.0) should always find a qualifying parameter set")
	}

	snapshot := stats.RecallSnapshot()
	if len(snapshot) != len(stats.optPars) {
		t.Fatalf("RecallSnapshot() has %d entries, want %d", len(snapshot), len(stats.optPars))
	}
	for i, v := range snapshot {
		got := float64(v.Float32())
		want := stats.optPars[i].EstRecall
		if diff := got - want; diff > 0.01 || diff < -0.01 {
			t.Fatalf("RecallSnapshot()[%d] = %v, want close to %v", i, got, want)
		}
	}
}

func TestTrimming(t *testing.T) {
	t.Run("DeleteExtraTrees mutates in place", func(t *testing.T) {
		x := uniquePointData(60, 5)
		f := NewForest(x)
		if err := f.Grow(GrowParams{NTrees: 8, Depth: 3, Density: 1, Seed: 3}); err != nil {
			t.Fatalf("Grow() error: %v", err)
		}
		q := uniquePointData(6, 5)
		if _, err := f.Autotune(q, AutotuneParams{DepthMin: 1, VotesMax: 4, K: 3}); err != nil {
			t.Fatalf("Autotune() error: %v", err)
		}

		if err := f.DeleteExtraTrees(0.0); err != nil {
			t.Fatalf("DeleteExtraTrees() error: %v", err)
		}
		if f.NTrees() > 8 || f.Depth() > 3 {
			t.Fatalf("trimmed forest exceeds original shape: trees=%d depth=%d", f.NTrees(), f.Depth())
		}
		if f.Votes() == 0 {
			t.Fatalf("trimmed forest should carry a non-zero vote threshold")
		}

		q2 := append([]float32(nil), x.Column(0)...)
		if _, err := f.NewSearch().WithK(1).Execute(q2); err != nil {
			t.Fatalf("Search on trimmed forest error: %v", err)
		}
	})

	t.Run("Subset leaves original untouched", func(t *testing.T) {
		x := uniquePointData(60, 5)
		f := NewForest(x)
		if err := f.Grow(GrowParams{NTrees: 8, Depth: 3, Density: 1, Seed: 9}); err != nil {
			t.Fatalf("Grow() error: %v", err)
		}
		q := uniquePointData(6, 5)
		if _, err := f.Autotune(q, AutotuneParams{DepthMin: 1, VotesMax: 4, K: 3}); err != nil {
			t.Fatalf("Autotune() error: %v", err)
		}

		originalTrees := f.NTrees()
		sub, err := f.Subset(0.0)
		if err != nil {
			t.Fatalf("Subset() error: %v", err)
		}
		if f.NTrees() != originalTrees {
			t.Fatalf("Subset() mutated the receiver: NTrees() = %d, want %d", f.NTrees(), originalTrees)
		}
		if sub.NTrees() == 0 {
			t.Fatalf("Subset() returned an empty forest for target recall 0.0")
		}

		q2 := append([]float32(nil), x.Column(0)...)
		if _, err := sub.NewSearch().WithK(1).Execute(q2); err != nil {
			t.Fatalf("Search on subset forest error: %v", err)
		}
	})

	t.Run("Subset on infeasible target recall returns a trimmed-to-zero forest", func(t *testing.T) {
		x := uniquePointData(20, 5)
		f := NewForest(x)
		if err := f.Grow(GrowParams{NTrees: 1, Depth: 1, Density: 1, Seed: 13}); err != nil {
			t.Fatalf("Grow() error: %v", err)
		}
		q := uniquePointData(4, 5)
		if _, err := f.Autotune(q, AutotuneParams{DepthMin: 1, VotesMax: 1, K: 3}); err != nil {
			t.Fatalf("Autotune() error: %v", err)
		}

		// Recall is a fraction in [0,1], so a target above 1.0 can never
		// be met by any profiled parameter set regardless of the data —
		// this keeps the infeasible case deterministic without relying
		// on a particular recall measurement.
		sub, err := f.Subset(1.5)
		if err != nil {
			t.Fatalf("Subset() error: %v", err)
		}
		if sub.NTrees() != 0 {
			t.Fatalf("Subset(1.5) on a trees_max=1,depth_max=1 budget should find nothing, got NTrees=%d", sub.NTrees())
		}

		result, err := sub.NewSearch().WithK(3).Execute(uniquePointData(1, 5).Column(0))
		if err != nil {
			t.Fatalf("Search on infeasible-recall subset error: %v", err)
		}
		for i, nb := range result.Neighbors {
			if nb.Index != -1 {
				t.Fatalf("Neighbors[%d].Index = %d, want -1", i, nb.Index)
			}
		}
	})
}

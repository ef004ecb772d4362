package mrpt

import "testing"

func TestParetoFrontierKeepsOnlyImprovingPoints(t *testing.T) {
	pars := []Parameters{
		{NTrees: 1, EstQTime: 1, EstRecall: 0.5},
		{NTrees: 2, EstQTime: 2, EstRecall: 0.4}, // dominated: slower and worse recall
		{NTrees: 3, EstQTime: 3, EstRecall: 0.8},
		{NTrees: 4, EstQTime: 4, EstRecall: 0.8}, // dominated: same recall, slower
		{NTrees: 5, EstQTime: 5, EstRecall: 0.95},
	}

	frontier := paretoFrontier(pars)
	if len(frontier) != 3 {
		t.Fatalf("len(frontier) = %d, want 3: %+v", len(frontier), frontier)
	}
	wantTrees := []int{1, 3, 5}
	for i, p := range frontier {
		if p.NTrees != wantTrees[i] {
			t.Fatalf("frontier[%d].NTrees = %d, want %d", i, p.NTrees, wantTrees[i])
		}
	}
}

func TestOptimalParametersFor(t *testing.T) {
	cases := []struct {
		name         string
		frontier     []Parameters
		targetRecall float64
		wantNTrees   int
	}{
		{
			name: "picks fastest meeting recall",
			frontier: []Parameters{
				{NTrees: 1, EstQTime: 1, EstRecall: 0.5},
				{NTrees: 3, EstQTime: 3, EstRecall: 0.8},
				{NTrees: 5, EstQTime: 5, EstRecall: 0.95},
			},
			targetRecall: 0.8,
			wantNTrees:   3,
		},
		{
			name: "none qualifies",
			frontier: []Parameters{
				{NTrees: 1, EstQTime: 1, EstRecall: 0.5},
			},
			targetRecall: 0.99,
			wantNTrees:   0,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := optimalParametersFor(c.frontier, c.targetRecall)
			if got.NTrees != c.wantNTrees {
				t.Fatalf("optimalParametersFor(%v) = %+v, want NTrees=%d", c.targetRecall, got, c.wantNTrees)
			}
		})
	}
}

package mrpt

import "testing"

func TestVoteBufferIncrement(t *testing.T) {
	cases := []struct {
		name string
		idx  int32
		n    int
	}{
		{name: "first vote for an index starts at one", idx: 3, n: 8},
		{name: "first vote for index zero starts at one", idx: 0, n: 8},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			vb := acquireVoteBuffer(c.n)
			defer releaseVoteBuffer(vb)

			if got := vb.increment(c.idx); got != 1 {
				t.Fatalf("increment() = %d, want 1", got)
			}
			if got := vb.increment(c.idx); got != 2 {
				t.Fatalf("increment() = %d, want 2", got)
			}
		})
	}
}

func TestVoteBufferResetsAcrossAcquires(t *testing.T) {
	vb := acquireVoteBuffer(8)
	vb.increment(5)
	vb.increment(5)
	releaseVoteBuffer(vb)

	vb2 := acquireVoteBuffer(8)
	defer releaseVoteBuffer(vb2)
	if got := vb2.increment(5); got != 1 {
		t.Fatalf("increment() after re-acquire = %d, want 1 (stale vote leaked across queries)", got)
	}
}

func TestVoteBufferGrowsToLargerCapacity(t *testing.T) {
	vb := acquireVoteBuffer(4)
	releaseVoteBuffer(vb)

	vb2 := acquireVoteBuffer(16)
	defer releaseVoteBuffer(vb2)
	if len(vb2.votes) < 16 {
		t.Fatalf("acquireVoteBuffer(16) left votes slice with len %d, want >= 16", len(vb2.votes))
	}
	if got := vb2.increment(15); got != 1 {
		t.Fatalf("increment() on grown buffer = %d, want 1", got)
	}
}

package mrpt

import (
	"sync/atomic"
	"testing"
)

func TestParallelForVisitsEveryIndexExactlyOnce(t *testing.T) {
	const n = 1000
	var counts [n]int32
	parallelFor(n, func(i int) {
		atomic.AddInt32(&counts[i], 1)
	})
	for i, c := range counts {
		if c != 1 {
			t.Fatalf("index %d visited %d times, want 1", i, c)
		}
	}
}

func TestParallelForZero(t *testing.T) {
	called := false
	parallelFor(0, func(i int) { called = true })
	if called {
		t.Fatalf("parallelFor(0, ...) should not invoke fn")
	}
}

func TestParallelForSingle(t *testing.T) {
	var got int = -1
	parallelFor(1, func(i int) { got = i })
	if got != 0 {
		t.Fatalf("parallelFor(1, ...) called with i=%d, want 0", got)
	}
}

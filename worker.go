package mrpt

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// parallelFor runs fn(i) for every i in [0, n) across a bounded pool of
// goroutines and blocks until all calls complete. Each call owns its own
// index; callers are responsible for giving fn disjoint state to write
// to (see the three parallel regions described in the package's query
// and construction paths).
//
// This is the "worker pool" collaborator: a parallel-for over an
// integer range, with no cooperative suspension and no cancellation.
func parallelFor(n int, fn func(i int)) {
	if n <= 0 {
		return
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	var next atomic.Int64
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for {
				i := next.Add(1) - 1
				if i >= int64(n) {
					return
				}
				fn(int(i))
			}
		}()
	}
	wg.Wait()
}

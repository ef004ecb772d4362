package mrpt

import "math/rand"

// newSeededRand returns a *rand.Rand driven by seed. Seed 0 means
// "nondeterministic": a seed is drawn from the package's auto-seeded
// top-level source. Any other value is reproducible across runs.
func newSeededRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return rand.New(rand.NewSource(int64(seed)))
}

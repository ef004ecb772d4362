package mrpt

import "math"

// squaredEuclidean returns the squared Euclidean distance between a and
// b. MRPT's exact ranking pass and the auto-tuner's ground-truth
// computation both use this single metric — per the package's scope,
// no other distance kind is supported (see the package doc comment).
func squaredEuclidean(a, b []float32) float32 {
	var sum float32
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}

// euclidean returns the (non-squared) Euclidean distance, used only
// when a caller asks the query path to report distances rather than
// just indices.
func euclidean(a, b []float32) float32 {
	return float32(math.Sqrt(float64(squaredEuclidean(a, b))))
}

package mrpt

import "sort"

// theilSenFit is an intercept/slope pair fit by the Theil-Sen
// estimator: the median of all pairwise slopes, then the median
// residual as the intercept. Used throughout autotuning to turn a
// handful of timed samples into a robust linear cost model, since
// individual timing samples are noisy but the median of pairwise
// slopes tolerates a sizeable fraction of outliers.
type theilSenFit struct {
	intercept float64
	slope     float64
}

// fitTheilSen computes the Theil-Sen line through the points (x[i],
// y[i]). Requires len(x) == len(y) >= 2.
func fitTheilSen(x, y []float64) theilSenFit {
	n := len(x)
	slopes := make([]float64, 0, n*(n-1))
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			dx := x[j] - x[i]
			if dx == 0 {
				continue
			}
			slopes = append(slopes, (y[j]-y[i])/dx)
		}
	}
	if len(slopes) == 0 {
		return theilSenFit{}
	}
	slope := medianInPlace(slopes)

	residuals := make([]float64, n)
	for i := range residuals {
		residuals[i] = y[i] - slope*x[i]
	}
	intercept := medianInPlace(residuals)

	return theilSenFit{intercept: intercept, slope: slope}
}

// predict evaluates the fitted line at x.
func (f theilSenFit) predict(x float64) float64 {
	return f.intercept + f.slope*x
}

// medianInPlace sorts v and returns the element at index len(v)/2,
// matching std::nth_element(v.begin()+n/2) semantics used upstream: for
// even n this is the upper of the two middle values, not the
// conventional average of the two middles.
func medianInPlace(v []float64) float64 {
	sort.Float64s(v)
	return v[len(v)/2]
}

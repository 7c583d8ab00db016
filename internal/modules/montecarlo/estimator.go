// Package montecarlo provides the classical sampling-based quantile
// estimator and its error-scaling analysis. It is the asymptotic baseline
// the amplitude-style estimator is compared against.
package montecarlo

import (
	"math"
	"sort"

	"github.com/aristath/tailrisk/internal/domain"
)

// EstimateQuantile returns the empirical (1-alpha) quantile of the samples:
// the value at rank ceil(N*(1-alpha)), 1-indexed, of the ascending sort.
// The result is always one of the input samples.
func EstimateQuantile(samples []float64, alpha float64) (float64, error) {
	if len(samples) == 0 {
		return 0, &domain.InvalidParameterError{Param: "samples", Reason: "at least one sample required"}
	}
	if alpha <= 0 || alpha >= 1 {
		return 0, &domain.InvalidParameterError{Param: "alpha", Reason: "must be in (0, 1)"}
	}

	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	rank := int(math.Ceil(float64(len(sorted)) * (1 - alpha)))
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1], nil
}

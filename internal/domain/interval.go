// Package domain provides shared value types for the estimation engine.
// The domain layer is pure: no infrastructure dependencies.
package domain

import "math"

// Interval is a confidence interval on a scalar value, typically a
// probability in [0, 1]. Invariant: Lower <= Estimate <= Upper.
type Interval struct {
	Lower      float64 `json:"lower"`
	Estimate   float64 `json:"estimate"`
	Upper      float64 `json:"upper"`
	Confidence float64 `json:"confidence"`
}

// NewInterval builds an interval around a point estimate, restoring the
// ordering invariant if the bounds are swapped or the estimate falls outside.
func NewInterval(lower, estimate, upper, confidence float64) Interval {
	if lower > upper {
		lower, upper = upper, lower
	}
	estimate = math.Min(math.Max(estimate, lower), upper)
	return Interval{Lower: lower, Estimate: estimate, Upper: upper, Confidence: confidence}
}

// Width returns the full width of the interval.
func (iv Interval) Width() float64 {
	return iv.Upper - iv.Lower
}

// HalfWidth returns half the interval width.
func (iv Interval) HalfWidth() float64 {
	return (iv.Upper - iv.Lower) / 2
}

// Contains reports whether v lies inside the interval (inclusive).
func (iv Interval) Contains(v float64) bool {
	return v >= iv.Lower && v <= iv.Upper
}

// Intersect returns the intersection of two intervals. The boolean is false
// when the intervals are disjoint, in which case the receiver is returned
// unchanged. The point estimate of the result is the midpoint of the
// intersection and the confidence carries over from the receiver.
func (iv Interval) Intersect(other Interval) (Interval, bool) {
	lo := math.Max(iv.Lower, other.Lower)
	hi := math.Min(iv.Upper, other.Upper)
	if lo > hi {
		return iv, false
	}
	return Interval{
		Lower:      lo,
		Estimate:   (lo + hi) / 2,
		Upper:      hi,
		Confidence: iv.Confidence,
	}, true
}

// Clamp01 clips the interval to the unit interval, for probability values.
func (iv Interval) Clamp01() Interval {
	out := iv
	out.Lower = math.Max(0, math.Min(1, out.Lower))
	out.Upper = math.Max(0, math.Min(1, out.Upper))
	out.Estimate = math.Max(out.Lower, math.Min(out.Upper, out.Estimate))
	return out
}

// QueryResult is the outcome of a single probability-oracle evaluation:
// the confidence interval together with the cumulative number of oracle
// evaluations spent producing it. Results are produced fresh per call and
// never mutated afterwards.
type QueryResult struct {
	Interval Interval `json:"interval"`
	Cost     int64    `json:"cost"`
}

package risk

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/aristath/tailrisk/internal/domain"
	"github.com/aristath/tailrisk/internal/modules/oracle"
	"github.com/aristath/tailrisk/pkg/formulas"
)

// ConditionalMC estimates the conditional tail expectation E[R | R <= v]
// as the mean of the samples at or below the threshold, with a normal
// confidence interval from the tail sub-sample. Cost is the full sample
// count, the tail samples cannot be drawn without generating the rest.
func ConditionalMC(samples []float64, threshold, confidence float64) (domain.QueryResult, error) {
	if len(samples) == 0 {
		return domain.QueryResult{}, &domain.InvalidParameterError{Param: "samples", Reason: "must not be empty"}
	}
	if confidence <= 0 || confidence >= 1 {
		return domain.QueryResult{}, &domain.InvalidParameterError{Param: "confidence", Reason: "must be in (0, 1)"}
	}

	tail := make([]float64, 0, len(samples)/8)
	for _, r := range samples {
		if r <= threshold {
			tail = append(tail, r)
		}
	}
	if len(tail) == 0 {
		return domain.QueryResult{}, &domain.InvalidParameterError{
			Param:  "threshold",
			Reason: "no samples at or below threshold",
		}
	}

	mean := formulas.Mean(tail)
	halfWidth := 0.0
	if len(tail) > 1 {
		z := distuv.Normal{Mu: 0, Sigma: 1}.Quantile(0.5 + confidence/2)
		halfWidth = z * formulas.StdDev(tail) / math.Sqrt(float64(len(tail)))
	}

	return domain.QueryResult{
		Interval: domain.NewInterval(mean-halfWidth, mean, mean+halfWidth, confidence),
		Cost:     int64(len(samples)),
	}, nil
}

// TailIntegral estimates E[R | R <= v] from oracle CDF queries alone,
// using the identity E[R | R <= v] = v - (1/F(v)) * integral of F over
// (-inf, v]. The integral is truncated at lo, which must sit deep enough
// in the tail that F(lo) is negligible, and evaluated by the trapezoid
// rule on a uniform grid. pStar is the known tail probability F(v), so
// the upper endpoint needs no query.
//
// The reported half-width covers only the oracle noise, epsilon per grid
// point; it does not account for discretization or the truncation at lo.
func TailIntegral(ev oracle.Evaluator, lo, v, pStar float64, steps int, epsilon, confidence float64) (domain.QueryResult, error) {
	if steps < 1 {
		return domain.QueryResult{}, &domain.InvalidParameterError{Param: "steps", Reason: "must be at least 1"}
	}
	if lo >= v {
		return domain.QueryResult{}, &domain.InvalidParameterError{Param: "lo", Reason: "must be below the threshold"}
	}
	if pStar <= 0 || pStar > 1 {
		return domain.QueryResult{}, &domain.InvalidParameterError{Param: "pStar", Reason: "must be in (0, 1]"}
	}

	h := (v - lo) / float64(steps)
	var cost int64
	var sum float64

	// Trapezoid weights: 1/2 at both endpoints, 1 elsewhere. The upper
	// endpoint contributes pStar/2 without a query.
	for i := 0; i < steps; i++ {
		t := lo + float64(i)*h
		q, err := ev.Evaluate(t, epsilon, confidence)
		cost += q.Cost
		if err != nil {
			return domain.QueryResult{Cost: cost}, err
		}
		w := 1.0
		if i == 0 {
			w = 0.5
		}
		sum += w * q.Interval.Estimate
	}
	integral := h * (sum + pStar/2)

	value := v - integral/pStar
	halfWidth := epsilon * (v - lo) / pStar

	return domain.QueryResult{
		Interval: domain.NewInterval(value-halfWidth, value, value+halfWidth, confidence),
		Cost:     cost,
	}, nil
}

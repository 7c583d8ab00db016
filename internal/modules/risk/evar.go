package risk

import (
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/aristath/tailrisk/internal/domain"
	"github.com/aristath/tailrisk/internal/modules/distributions"
	"github.com/aristath/tailrisk/pkg/formulas"
)

// ExpectileEvaluator scores a candidate expectile e by the asymmetric
// first-order condition
//
//	S(e) = (1-tau) * E[(e-R)+] - tau * E[(R-e)+]
//
// which is non-decreasing in e and crosses zero exactly at the
// tau-expectile. It satisfies the oracle.Evaluator contract, so the
// threshold search drivers solve S(e) = 0 directly.
//
// All queries reuse one fixed sample set. That makes S monotone in e
// sample-by-sample, which the bracketing search relies on, and makes
// repeated queries at the same point deterministic.
type ExpectileEvaluator struct {
	samples []float64
	tau     float64
	log     zerolog.Logger
}

// NewExpectileEvaluator draws the common sample set for a tau-expectile
// search. tau must lie in (0, 0.5); the upper half is not a tail measure.
func NewExpectileEvaluator(spec distributions.Spec, tau float64, n int, seed uint64, log zerolog.Logger) (*ExpectileEvaluator, error) {
	if tau <= 0 || tau >= 0.5 {
		return nil, &domain.InvalidParameterError{Param: "tau", Reason: "must be in (0, 0.5)"}
	}
	if n < 2 {
		return nil, &domain.InvalidParameterError{Param: "samples", Reason: "must be at least 2"}
	}
	samples, err := distributions.Generate(spec, n, seed)
	if err != nil {
		return nil, err
	}
	return &ExpectileEvaluator{
		samples: samples,
		tau:     tau,
		log:     log.With().Str("component", "expectile_evaluator").Logger(),
	}, nil
}

// SampleMean exposes the mean of the common sample set. The expectile of
// any tau below one half lies beneath it, so it serves as the default
// upper bracket endpoint.
func (e *ExpectileEvaluator) SampleMean() float64 {
	return formulas.Mean(e.samples)
}

// Evaluate scores a candidate expectile. The interval half-width comes
// from the sample variance of the per-sample scores, not from epsilon:
// the sample set is fixed, so precision cannot be tuned per query.
func (e *ExpectileEvaluator) Evaluate(threshold, epsilon, confidence float64) (domain.QueryResult, error) {
	if confidence <= 0 || confidence >= 1 {
		return domain.QueryResult{}, &domain.InvalidParameterError{Param: "confidence", Reason: "must be in (0, 1)"}
	}

	n := len(e.samples)
	scores := make([]float64, n)
	for i, r := range e.samples {
		if r <= threshold {
			scores[i] = (1 - e.tau) * (threshold - r)
		} else {
			scores[i] = -e.tau * (r - threshold)
		}
	}

	mean := formulas.Mean(scores)
	z := distuv.Normal{Mu: 0, Sigma: 1}.Quantile(0.5 + confidence/2)
	halfWidth := z * formulas.StdDev(scores) / math.Sqrt(float64(n))

	return domain.QueryResult{
		Interval: domain.NewInterval(mean-halfWidth, mean, mean+halfWidth, confidence),
		Cost:     int64(n),
	}, nil
}

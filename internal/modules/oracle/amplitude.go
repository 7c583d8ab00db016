package oracle

import (
	"github.com/rs/zerolog"

	"github.com/aristath/tailrisk/internal/domain"
	"github.com/aristath/tailrisk/internal/modules/amplitude"
)

// BackendFactory builds a measurement backend whose success probability at
// power zero equals P(R < threshold). The production factory wraps a
// circuit-evaluation service; sweeps and tests use the simulated one.
type BackendFactory func(threshold float64) (amplitude.Backend, error)

// Amplitude adapts the iterative interval estimator to the oracle
// contract. Cost is the total number of single-oracle-equivalent
// evaluations across all measurement rounds, which scales as 1/epsilon.
type Amplitude struct {
	factory   BackendFactory
	estimator *amplitude.Estimator
	log       zerolog.Logger
}

// NewAmplitude creates an amplitude-style oracle.
func NewAmplitude(factory BackendFactory, opts amplitude.Options, log zerolog.Logger) *Amplitude {
	return &Amplitude{
		factory:   factory,
		estimator: amplitude.NewEstimator(opts, log),
		log:       log.With().Str("component", "amplitude_oracle").Logger(),
	}
}

// Evaluate runs the iterative estimator against a backend for the
// threshold. Budget-class errors from the estimator pass through together
// with the best-achieved result.
func (o *Amplitude) Evaluate(threshold, epsilon, confidence float64) (domain.QueryResult, error) {
	if err := validateQuery(epsilon, confidence); err != nil {
		return domain.QueryResult{}, err
	}

	backend, err := o.factory(threshold)
	if err != nil {
		return domain.QueryResult{}, err
	}

	res, err := o.estimator.Estimate(backend, epsilon, confidence)
	if res == nil {
		return domain.QueryResult{}, err
	}

	o.log.Trace().
		Float64("threshold", threshold).
		Int64("cost", res.Cost).
		Float64("half_width", res.Interval.HalfWidth()).
		Msg("Amplitude oracle query")

	return domain.QueryResult{Interval: res.Interval, Cost: res.Cost}, err
}

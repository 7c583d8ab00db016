package oracle

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/aristath/tailrisk/internal/domain"
	"github.com/aristath/tailrisk/internal/modules/distributions"
)

// Classical answers probability queries by direct sampling: draw until the
// Hoeffding interval around the empirical proportion is narrower than
// 2*epsilon at the requested confidence. Cost is the number of samples
// drawn, which scales as 1/epsilon^2.
type Classical struct {
	spec       distributions.Spec
	stream     *distributions.Stream
	maxSamples int64
	log        zerolog.Logger
}

// NewClassical creates a sampling oracle over a seeded stream. maxSamples
// caps the per-query budget; zero means no cap.
func NewClassical(spec distributions.Spec, seed uint64, maxSamples int64, log zerolog.Logger) (*Classical, error) {
	stream, err := distributions.NewStream(spec, seed)
	if err != nil {
		return nil, err
	}
	return &Classical{
		spec:       spec,
		stream:     stream,
		maxSamples: maxSamples,
		log:        log.With().Str("component", "classical_oracle").Logger(),
	}, nil
}

// hoeffdingSamples is the sample count needed for half-width epsilon at the
// given confidence under the two-sided Hoeffding bound.
func hoeffdingSamples(epsilon, confidence float64) int64 {
	return int64(math.Ceil(math.Log(2/(1-confidence)) / (2 * epsilon * epsilon)))
}

// Evaluate draws fresh samples and counts the proportion below threshold.
// When the budget cap is hit first, the best interval achieved accompanies
// an InsufficientBudgetError.
func (o *Classical) Evaluate(threshold, epsilon, confidence float64) (domain.QueryResult, error) {
	if err := validateQuery(epsilon, confidence); err != nil {
		return domain.QueryResult{}, err
	}

	needed := hoeffdingSamples(epsilon, confidence)
	n := needed
	var budgetErr error
	if o.maxSamples > 0 && needed > o.maxSamples {
		n = o.maxSamples
		budgetErr = &domain.InsufficientBudgetError{Spent: n, Budget: o.maxSamples}
	}

	below := int64(0)
	for i := int64(0); i < n; i++ {
		if o.stream.Next() < threshold {
			below++
		}
	}

	pHat := float64(below) / float64(n)
	halfWidth := math.Sqrt(math.Log(2/(1-confidence)) / (2 * float64(n)))
	iv := domain.NewInterval(pHat-halfWidth, pHat, pHat+halfWidth, confidence).Clamp01()

	o.log.Trace().
		Float64("threshold", threshold).
		Int64("samples", n).
		Float64("half_width", halfWidth).
		Msg("Classical oracle query")

	return domain.QueryResult{Interval: iv, Cost: n}, budgetErr
}

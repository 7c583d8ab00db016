package risk

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/tailrisk/internal/domain"
	"github.com/aristath/tailrisk/internal/modules/search"
)

func TestExpectileScoreBracketsTheRoot(t *testing.T) {
	eval, err := NewExpectileEvaluator(gaussianSpec, 0.05, 50_000, 13, zerolog.Nop())
	require.NoError(t, err)

	// Deep in the left tail the score is negative; at the sample mean it
	// is positive for any tau below one half.
	low, err := eval.Evaluate(-2, 0.01, 0.95)
	require.NoError(t, err)
	assert.Less(t, low.Interval.Upper, 0.0)

	high, err := eval.Evaluate(eval.SampleMean(), 0.01, 0.95)
	require.NoError(t, err)
	assert.Greater(t, high.Interval.Lower, 0.0)

	assert.Equal(t, int64(50_000), low.Cost)
}

func TestExpectileScoreIsMonotone(t *testing.T) {
	eval, err := NewExpectileEvaluator(gaussianSpec, 0.1, 20_000, 5, zerolog.Nop())
	require.NoError(t, err)

	prev := -1e18
	for _, e := range []float64{-1, -0.5, -0.2, 0, 0.2, 0.5} {
		q, err := eval.Evaluate(e, 0.01, 0.95)
		require.NoError(t, err)
		assert.Greater(t, q.Interval.Estimate, prev, "score must increase with the candidate expectile")
		prev = q.Interval.Estimate
	}
}

func TestExpectileSearchSatisfiesFirstOrderCondition(t *testing.T) {
	const tau = 0.05

	eval, err := NewExpectileEvaluator(gaussianSpec, tau, 100_000, 31, zerolog.Nop())
	require.NoError(t, err)

	d := search.NewDriver(eval, zerolog.Nop())
	res, err := d.Bisection(0, -2, eval.SampleMean(), search.Options{Tolerance: 1e-5})
	require.NoError(t, err)
	require.True(t, res.Converged)

	// At the root, tau-weighted upside deviation balances the downside.
	q, err := eval.Evaluate(res.Threshold, 0.01, 0.95)
	require.NoError(t, err)
	assert.InDelta(t, 0, q.Interval.Estimate, 1e-3)

	// The 5% expectile sits between the 5% quantile and the mean.
	assert.Greater(t, res.Threshold, 0.15-1.645*0.20)
	assert.Less(t, res.Threshold, 0.15)
}

func TestExpectileEvaluatorValidation(t *testing.T) {
	var perr *domain.InvalidParameterError

	_, err := NewExpectileEvaluator(gaussianSpec, 0.7, 1000, 1, zerolog.Nop())
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "tau", perr.Param)

	_, err = NewExpectileEvaluator(gaussianSpec, 0.05, 1, 1, zerolog.Nop())
	require.ErrorAs(t, err, &perr)

	eval, err := NewExpectileEvaluator(gaussianSpec, 0.05, 1000, 1, zerolog.Nop())
	require.NoError(t, err)
	_, err = eval.Evaluate(0, 0.01, 1.5)
	require.ErrorAs(t, err, &perr)
}

package oracle

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/tailrisk/internal/domain"
	"github.com/aristath/tailrisk/internal/modules/amplitude"
	"github.com/aristath/tailrisk/internal/modules/distributions"
)

var gaussianSpec = distributions.Spec{Kind: distributions.Gaussian, Mu: 0.15, Sigma: 0.20}

func TestClassicalOracleHitsPrecision(t *testing.T) {
	o, err := NewClassical(gaussianSpec, 21, 0, zerolog.Nop())
	require.NoError(t, err)

	// P(R < 0.15) = 0.5 exactly.
	res, err := o.Evaluate(0.15, 0.02, 0.95)
	require.NoError(t, err)

	assert.LessOrEqual(t, res.Interval.HalfWidth(), 0.02+1e-12)
	assert.True(t, res.Interval.Contains(0.5), "interval %+v should contain 0.5", res.Interval)
	assert.Equal(t, hoeffdingSamples(0.02, 0.95), res.Cost)
}

func TestClassicalOracleCostMonotonicity(t *testing.T) {
	o, err := NewClassical(gaussianSpec, 22, 0, zerolog.Nop())
	require.NoError(t, err)

	tight, err := o.Evaluate(0.0, 0.01, 0.95)
	require.NoError(t, err)
	loose, err := o.Evaluate(0.0, 0.05, 0.95)
	require.NoError(t, err)
	assert.Greater(t, tight.Cost, loose.Cost, "tighter epsilon must cost more")

	confident, err := o.Evaluate(0.0, 0.05, 0.999)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, confident.Cost, loose.Cost, "higher confidence never costs less")
}

func TestClassicalOracleBudgetExhaustion(t *testing.T) {
	o, err := NewClassical(gaussianSpec, 23, 500, zerolog.Nop())
	require.NoError(t, err)

	res, err := o.Evaluate(0.15, 0.001, 0.95)
	require.Error(t, err)

	var bErr *domain.InsufficientBudgetError
	require.True(t, errors.As(err, &bErr))
	assert.Equal(t, int64(500), bErr.Budget)

	// Best-effort interval still comes back, wider than requested.
	assert.Equal(t, int64(500), res.Cost)
	assert.Greater(t, res.Interval.HalfWidth(), 0.001)
	assert.True(t, res.Interval.Contains(0.5))
}

func TestAmplitudeOracleMatchesCDF(t *testing.T) {
	factory := func(threshold float64) (amplitude.Backend, error) {
		return amplitude.NewThresholdBackend(gaussianSpec, threshold, 77)
	}
	o := NewAmplitude(factory, amplitude.Options{Shots: 128}, zerolog.Nop())

	res, err := o.Evaluate(0.15, 0.02, 0.95)
	require.NoError(t, err)
	assert.LessOrEqual(t, res.Interval.HalfWidth(), 0.02)
	assert.True(t, res.Interval.Contains(0.5))
	assert.Greater(t, res.Cost, int64(0))
}

func TestAmplitudeOracleCheaperThanClassicalAtTightEpsilon(t *testing.T) {
	const epsilon = 0.002

	factory := func(threshold float64) (amplitude.Backend, error) {
		return amplitude.NewThresholdBackend(gaussianSpec, threshold, 78)
	}
	amp := NewAmplitude(factory, amplitude.Options{Shots: 128}, zerolog.Nop())

	ampRes, err := amp.Evaluate(0.15, epsilon, 0.95)
	require.NoError(t, err)

	// At this epsilon the classical oracle needs ~460k samples.
	assert.Less(t, ampRes.Cost, hoeffdingSamples(epsilon, 0.95),
		"amplitude oracle must beat direct sampling at tight precision")
}

func TestCDFOracleExact(t *testing.T) {
	o, err := NewCDFOracle(gaussianSpec)
	require.NoError(t, err)

	res, err := o.Evaluate(0.15, 0.01, 0.95)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Interval.Width())
	assert.InDelta(t, 0.5, res.Interval.Estimate, 1e-12)
	assert.Equal(t, int64(1), res.Cost)
}

func TestOracleQueryValidation(t *testing.T) {
	o, err := NewCDFOracle(gaussianSpec)
	require.NoError(t, err)

	for _, tc := range []struct{ eps, conf float64 }{
		{0, 0.95},
		{0.6, 0.95},
		{0.05, 0},
		{0.05, 1},
	} {
		_, err := o.Evaluate(0, tc.eps, tc.conf)
		var pErr *domain.InvalidParameterError
		assert.True(t, errors.As(err, &pErr), "eps=%v conf=%v", tc.eps, tc.conf)
	}
}

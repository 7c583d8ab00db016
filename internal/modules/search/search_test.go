package search

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/tailrisk/internal/domain"
	"github.com/aristath/tailrisk/internal/modules/amplitude"
	"github.com/aristath/tailrisk/internal/modules/distributions"
	"github.com/aristath/tailrisk/internal/modules/oracle"
)

var gaussianSpec = distributions.Spec{Kind: distributions.Gaussian, Mu: 0.15, Sigma: 0.20}

func exactOracle(t *testing.T) oracle.Evaluator {
	t.Helper()
	o, err := oracle.NewCDFOracle(gaussianSpec)
	require.NoError(t, err)
	return o
}

func TestBisectionConvergesLogarithmically(t *testing.T) {
	d := NewDriver(exactOracle(t), zerolog.Nop())

	res, err := d.Bisection(0.05, -1, 1, Options{Tolerance: 1e-4})
	require.NoError(t, err)
	assert.True(t, res.Converged)

	// Halving a width-2 bracket to 1e-4 needs ceil(log2(2/1e-4)) = 15 steps.
	assert.LessOrEqual(t, res.Iterations, 15)

	want, err := distributions.Quantile(gaussianSpec, 0.05)
	require.NoError(t, err)
	assert.InDelta(t, want, res.Threshold, 1e-3)
}

func TestSecantBeatsBisectionOnSmoothCDF(t *testing.T) {
	d := NewDriver(exactOracle(t), zerolog.Nop())
	opts := Options{Tolerance: 1e-4}

	bis, err := d.Bisection(0.05, -1, 1, opts)
	require.NoError(t, err)
	sec, err := d.Secant(0.05, -1, 1, opts)
	require.NoError(t, err)

	want, err := distributions.Quantile(gaussianSpec, 0.05)
	require.NoError(t, err)
	assert.InDelta(t, want, sec.Threshold, 1e-3)
	assert.Less(t, sec.OracleCalls, bis.OracleCalls,
		"interpolation should spend fewer oracle calls than bisection on a smooth CDF")
}

func TestRunDispatchesOnMode(t *testing.T) {
	d := NewDriver(exactOracle(t), zerolog.Nop())
	want, err := distributions.Quantile(gaussianSpec, 0.05)
	require.NoError(t, err)

	for _, mode := range []Mode{ModeBisection, ModeInterpolation, ""} {
		res, err := d.Run(mode, 0.05, -1, 1, Options{})
		require.NoError(t, err, "mode %q", mode)
		assert.InDelta(t, want, res.Threshold, 1e-3, "mode %q", mode)
	}

	_, err = d.Run(Mode("newton"), 0.05, -1, 1, Options{})
	var perr *domain.InvalidParameterError
	require.ErrorAs(t, err, &perr)
}

func TestSearchRejectsBadBrackets(t *testing.T) {
	d := NewDriver(exactOracle(t), zerolog.Nop())

	// Both endpoints above the target probability.
	_, err := d.Bisection(0.05, 1, 2, Options{})
	var berr *domain.InvalidBracketError
	require.ErrorAs(t, err, &berr)
	assert.InDelta(t, 0.05, berr.Target, 1e-12)

	// Inverted bracket.
	_, err = d.Secant(0.05, 1, -1, Options{})
	var perr *domain.InvalidParameterError
	require.ErrorAs(t, err, &perr)
}

func TestSearchReportsBestEffortOnIterationCap(t *testing.T) {
	d := NewDriver(exactOracle(t), zerolog.Nop())

	res, err := d.Bisection(0.05, -1, 1, Options{Tolerance: 1e-6, MaxIterations: 3})
	var merr *domain.MaxIterationsExceededError
	require.ErrorAs(t, err, &merr)
	require.NotNil(t, res)
	assert.False(t, res.Converged)
	assert.Equal(t, 3, res.Iterations)

	// The partial answer still lies inside the shrunken bracket.
	assert.Greater(t, res.Threshold, -1.0)
	assert.Less(t, res.Threshold, 1.0)
	assert.Greater(t, res.HalfWidth, 0.0)
}

func TestSearchOverAmplitudeOracle(t *testing.T) {
	if testing.Short() {
		t.Skip("amplitude-backed search is slow")
	}

	factory := func(threshold float64) (amplitude.Backend, error) {
		return amplitude.NewThresholdBackend(gaussianSpec, threshold, 91)
	}
	ev := oracle.NewAmplitude(factory, amplitude.Options{Shots: 128}, zerolog.Nop())
	d := NewDriver(ev, zerolog.Nop())

	res, err := d.Bisection(0.05, -1, 1, Options{Tolerance: 1e-3, OracleEpsilon: 0.005})
	require.NoError(t, err)
	assert.True(t, res.Converged)

	want, err := distributions.Quantile(gaussianSpec, 0.05)
	require.NoError(t, err)
	assert.InDelta(t, want, res.Threshold, 0.02)
}

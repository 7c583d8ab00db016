package amplitude

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/tailrisk/internal/modules/distributions"
)

func TestSimulatedBackendDeterministicPerSeed(t *testing.T) {
	a := NewSimulatedBackend(0.3, 5)
	b := NewSimulatedBackend(0.3, 5)

	for i := 0; i < 5; i++ {
		sa, err := a.Run(i, 200)
		require.NoError(t, err)
		sb, err := b.Run(i, 200)
		require.NoError(t, err)
		assert.Equal(t, sa, sb)
		assert.GreaterOrEqual(t, sa, 0)
		assert.LessOrEqual(t, sa, 200)
	}
}

func TestSimulatedBackendFrequencyTracksForwardMap(t *testing.T) {
	const shots = 100_000
	backend := NewSimulatedBackend(0.25, 9)

	for _, power := range []int{0, 1, 3} {
		s, err := backend.Run(power, shots)
		require.NoError(t, err)
		assert.InDelta(t, SuccessProbability(0.25, power), float64(s)/shots, 0.01,
			"empirical frequency at power %d", power)
	}
}

func TestThresholdBackendUsesCDF(t *testing.T) {
	spec := distributions.Spec{Kind: distributions.Gaussian, Mu: 0.15, Sigma: 0.20}
	threshold := 0.15 // the mean: P(R < mu) = 0.5

	backend, err := NewThresholdBackend(spec, threshold, 3)
	require.NoError(t, err)

	s, err := backend.Run(0, 50_000)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, float64(s)/50_000, 0.01)
}

func TestThresholdBackendRejectsBadSpec(t *testing.T) {
	_, err := NewThresholdBackend(distributions.Spec{Kind: distributions.Gaussian, Sigma: -1}, 0, 1)
	assert.Error(t, err)
}

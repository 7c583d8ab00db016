package risk

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepositorySaveAndList(t *testing.T) {
	repo := setupTestRepo(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.SaveEstimate(Estimate{
			ID:           fmt.Sprintf("id-%d", i),
			Measure:      "var",
			Distribution: "gaussian",
			Alpha:        0.95,
			Oracle:       "exact",
			Mode:         "bisection",
			Value:        -0.18 + float64(i)*0.001,
			HalfWidth:    1e-4,
			Cost:         int64(100 + i),
			Converged:    i%2 == 0,
		}))
	}

	all, err := repo.ListEstimates(10)
	require.NoError(t, err)
	assert.Len(t, all, 5)
	for _, est := range all {
		assert.Equal(t, "var", est.Measure)
		assert.False(t, est.CreatedAt.IsZero())
	}

	limited, err := repo.ListEstimates(2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	// Zero limit falls back to the default page size.
	fallback, err := repo.ListEstimates(0)
	require.NoError(t, err)
	assert.Len(t, fallback, 5)
}

func TestRepositoryRejectsDuplicateID(t *testing.T) {
	repo := setupTestRepo(t)

	est := Estimate{ID: "dup", Measure: "cvar", Distribution: "lognormal", Oracle: "classical", Mode: "interpolation"}
	require.NoError(t, repo.SaveEstimate(est))
	assert.Error(t, repo.SaveEstimate(est))
}

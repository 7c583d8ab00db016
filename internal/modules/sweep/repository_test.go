package sweep

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/tailrisk/internal/modules/montecarlo"
)

func sampleRun(id string, started time.Time) RunResult {
	return RunResult{
		ID:       id,
		Scenario: fastScenario(),
		Points: []Point{
			{Oracle: "exact", Epsilon: 0.1, Value: -0.179, HalfWidth: 1e-4, Cost: 19, Converged: true},
			{Oracle: "exact", Epsilon: 0.05, Value: -0.179, HalfWidth: 1e-4, Cost: 19, Converged: true},
		},
		Slopes:     map[string]float64{"exact": 0},
		StartedAt:  started,
		FinishedAt: started.Add(time.Second),
	}
}

func TestRepositoryRoundTrip(t *testing.T) {
	repo := setupTestRepo(t)

	run := sampleRun("run-1", time.Now().Add(-time.Minute))
	run.Curve = &montecarlo.CurveResult{
		Points:        []montecarlo.ErrorPoint{{SampleSize: 100, MeanAbsError: 0.03}},
		AnalyticalVaR: -0.179,
		Slope:         -0.5,
	}
	require.NoError(t, repo.SaveRun(run))

	got, err := repo.GetRun("run-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, run.Scenario.Name, got.Scenario.Name)
	assert.Len(t, got.Points, 2)
	assert.Equal(t, run.Slopes, got.Slopes)
	require.NotNil(t, got.Curve)
	assert.InDelta(t, -0.5, got.Curve.Slope, 1e-12)
	assert.Equal(t, run.StartedAt.Unix(), got.StartedAt.Unix())
}

func TestRepositoryGetRunUnknownID(t *testing.T) {
	repo := setupTestRepo(t)

	got, err := repo.GetRun("missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRepositoryListRunsNewestFirst(t *testing.T) {
	repo := setupTestRepo(t)

	base := time.Now().Add(-time.Hour)
	require.NoError(t, repo.SaveRun(sampleRun("old", base)))
	require.NoError(t, repo.SaveRun(sampleRun("new", base.Add(30*time.Minute))))

	runs, err := repo.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "new", runs[0].ID)
	assert.Equal(t, 2, runs[0].Points)

	limited, err := repo.ListRuns(1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

package sweep

import (
	"time"

	"github.com/aristath/tailrisk/internal/modules/montecarlo"
)

// Point is one (oracle, epsilon) cell of a sweep.
type Point struct {
	Oracle    string  `json:"oracle"`
	Epsilon   float64 `json:"epsilon"`
	Value     float64 `json:"value"`
	HalfWidth float64 `json:"half_width"`
	Cost      int64   `json:"cost"`
	Converged bool    `json:"converged"`
}

// RunResult is a finished sweep: every point, the fitted cost exponent
// per oracle, and the optional Monte Carlo error curve.
type RunResult struct {
	ID         string                  `json:"id"`
	Scenario   Scenario                `json:"scenario"`
	Points     []Point                 `json:"points"`
	Slopes     map[string]float64      `json:"slopes"`
	Curve      *montecarlo.CurveResult `json:"curve,omitempty"`
	StartedAt  time.Time               `json:"started_at"`
	FinishedAt time.Time               `json:"finished_at"`
}

// RunSummary is the list view of a stored run.
type RunSummary struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Points     int       `json:"points"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

package montecarlo

import (
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog"

	"github.com/aristath/tailrisk/internal/domain"
	"github.com/aristath/tailrisk/internal/modules/distributions"
	"github.com/aristath/tailrisk/pkg/formulas"
)

// ErrorPoint is the averaged absolute estimation error at one sample size.
type ErrorPoint struct {
	SampleSize   int     `json:"sample_size"`
	MeanAbsError float64 `json:"mean_abs_error"`
}

// CurveRequest configures an error-scaling run.
type CurveRequest struct {
	Spec          distributions.Spec
	Alpha         float64
	SampleSizes   []int
	TrialsPerSize int
	Seed          uint64
	Workers       int
}

// CurveResult carries the error curve together with its fitted log-log
// slope against N. For a quantile estimator the slope sits near -0.5.
type CurveResult struct {
	Points        []ErrorPoint `json:"points"`
	AnalyticalVaR float64      `json:"analytical_var"`
	Slope         float64      `json:"slope"`
}

// Analyzer runs error-scaling experiments for the Monte Carlo estimator.
type Analyzer struct {
	log zerolog.Logger
}

// NewAnalyzer creates a new error-curve analyzer.
func NewAnalyzer(log zerolog.Logger) *Analyzer {
	return &Analyzer{log: log.With().Str("component", "montecarlo_analyzer").Logger()}
}

// ErrorCurve estimates the quantile TrialsPerSize times at every sample
// size and averages the absolute deviation from the analytical quantile.
// Trials are independent and run in parallel; each owns a deterministic
// per-trial seed so the curve is reproducible regardless of scheduling.
func (a *Analyzer) ErrorCurve(req CurveRequest) (*CurveResult, error) {
	if err := req.Spec.Validate(); err != nil {
		return nil, err
	}
	if req.Alpha <= 0 || req.Alpha >= 1 {
		return nil, &domain.InvalidParameterError{Param: "alpha", Reason: "must be in (0, 1)"}
	}
	if len(req.SampleSizes) == 0 {
		return nil, &domain.InvalidParameterError{Param: "sample_sizes", Reason: "at least one sample size required"}
	}
	if req.TrialsPerSize < 1 {
		req.TrialsPerSize = 1
	}
	workers := req.Workers
	if workers <= 0 {
		workers = 4
	}

	analytical, err := distributions.Quantile(req.Spec, 1-req.Alpha)
	if err != nil {
		return nil, err
	}

	a.log.Debug().
		Float64("analytical_var", analytical).
		Int("sizes", len(req.SampleSizes)).
		Int("trials_per_size", req.TrialsPerSize).
		Msg("Running Monte Carlo error curve")

	type job struct {
		sizeIdx int
		trial   int
	}
	type trialResult struct {
		sizeIdx int
		absErr  float64
		err     error
	}

	jobs := make(chan job, len(req.SampleSizes)*req.TrialsPerSize)
	results := make(chan trialResult, len(req.SampleSizes)*req.TrialsPerSize)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				n := req.SampleSizes[j.sizeIdx]
				// Per-trial seed keeps every worker on its own stream.
				seed := req.Seed + uint64(j.sizeIdx)*1_000_003 + uint64(j.trial)
				samples, genErr := distributions.Generate(req.Spec, n, seed)
				if genErr != nil {
					results <- trialResult{sizeIdx: j.sizeIdx, err: genErr}
					continue
				}
				estimate, estErr := EstimateQuantile(samples, req.Alpha)
				if estErr != nil {
					results <- trialResult{sizeIdx: j.sizeIdx, err: estErr}
					continue
				}
				results <- trialResult{sizeIdx: j.sizeIdx, absErr: math.Abs(estimate - analytical)}
			}
		}()
	}

	for i := range req.SampleSizes {
		for trial := 0; trial < req.TrialsPerSize; trial++ {
			jobs <- job{sizeIdx: i, trial: trial}
		}
	}
	close(jobs)
	wg.Wait()
	close(results)

	sums := make([]float64, len(req.SampleSizes))
	counts := make([]int, len(req.SampleSizes))
	for r := range results {
		if r.err != nil {
			return nil, fmt.Errorf("error curve trial failed: %w", r.err)
		}
		sums[r.sizeIdx] += r.absErr
		counts[r.sizeIdx]++
	}

	points := make([]ErrorPoint, len(req.SampleSizes))
	xs := make([]float64, len(req.SampleSizes))
	ys := make([]float64, len(req.SampleSizes))
	for i, n := range req.SampleSizes {
		points[i] = ErrorPoint{SampleSize: n, MeanAbsError: sums[i] / float64(counts[i])}
		xs[i] = float64(n)
		ys[i] = points[i].MeanAbsError
	}

	return &CurveResult{
		Points:        points,
		AnalyticalVaR: analytical,
		Slope:         formulas.LogLogSlope(xs, ys),
	}, nil
}

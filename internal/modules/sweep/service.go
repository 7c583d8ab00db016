package sweep

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/tailrisk/internal/domain"
	"github.com/aristath/tailrisk/internal/events"
	"github.com/aristath/tailrisk/internal/modules/montecarlo"
	"github.com/aristath/tailrisk/internal/modules/risk"
	"github.com/aristath/tailrisk/pkg/formulas"
)

// RunStore persists sweep runs.
type RunStore interface {
	SaveRun(run RunResult) error
	GetRun(id string) (*RunResult, error)
	ListRuns(limit int) ([]RunSummary, error)
}

// Service executes sweep scenarios.
type Service struct {
	store RunStore            // optional
	bus   *events.Broadcaster // optional
	risk  *risk.Service
	mc    *montecarlo.Analyzer
	log   zerolog.Logger
}

// NewService creates a sweep service. store and bus may be nil.
func NewService(store RunStore, bus *events.Broadcaster, log zerolog.Logger) *Service {
	return &Service{
		store: store,
		bus:   bus,
		// The inner risk service stays detached from the estimates store
		// and the bus: sweep points are persisted in sweep tables and
		// progress is reported per point, not per search.
		risk: risk.NewService(nil, nil, log),
		mc:   montecarlo.NewAnalyzer(log),
		log:  log.With().Str("component", "sweep_service").Logger(),
	}
}

// SetRiskDefaults installs configured request defaults on the inner risk
// service so sweep points honor the same shot and budget settings as
// direct estimates.
func (s *Service) SetRiskDefaults(d risk.Defaults) {
	s.risk.SetDefaults(d)
}

// Run executes a scenario synchronously and persists the result.
func (s *Service) Run(scenario Scenario) (*RunResult, error) {
	if err := scenario.Validate(); err != nil {
		return nil, err
	}
	return s.run(uuid.New().String(), scenario)
}

// RunAsync validates the scenario, then executes it in the background and
// returns the run ID immediately. Progress arrives on the event bus.
func (s *Service) RunAsync(scenario Scenario) (string, error) {
	if err := scenario.Validate(); err != nil {
		return "", err
	}
	id := uuid.New().String()
	go func() {
		if _, err := s.run(id, scenario); err != nil {
			s.log.Error().Err(err).Str("run_id", id).Msg("Sweep run failed")
		}
	}()
	return id, nil
}

// GetRun returns a stored run, or nil when unknown.
func (s *Service) GetRun(id string) (*RunResult, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.GetRun(id)
}

// ListRuns returns stored run summaries, newest first.
func (s *Service) ListRuns(limit int) ([]RunSummary, error) {
	if s.store == nil {
		return []RunSummary{}, nil
	}
	return s.store.ListRuns(limit)
}

func (s *Service) run(id string, scenario Scenario) (*RunResult, error) {
	res := &RunResult{
		ID:        id,
		Scenario:  scenario,
		Slopes:    map[string]float64{},
		StartedAt: time.Now(),
	}

	s.log.Info().
		Str("run_id", id).
		Str("scenario", scenario.Name).
		Int("oracles", len(scenario.Oracles)).
		Int("epsilons", len(scenario.Epsilons)).
		Msg("Starting sweep")

	points, err := s.runPoints(id, scenario)
	if err != nil {
		return nil, err
	}
	res.Points = points

	// Fit the cost exponent against 1/epsilon per oracle. Classical
	// sampling sits near 2, amplitude estimation near 1.
	for _, kind := range scenario.Oracles {
		var xs, ys []float64
		for _, p := range points {
			if p.Oracle == string(kind) && p.Cost > 0 {
				xs = append(xs, 1/p.Epsilon)
				ys = append(ys, float64(p.Cost))
			}
		}
		if len(xs) >= 2 {
			res.Slopes[string(kind)] = formulas.LogLogSlope(xs, ys)
		}
	}

	if scenario.Curve != nil {
		curve, curveErr := s.mc.ErrorCurve(montecarlo.CurveRequest{
			Spec:          scenario.Distribution,
			Alpha:         scenario.Alpha,
			SampleSizes:   formulas.LogSpace(scenario.Curve.MinSize, scenario.Curve.MaxSize, scenario.Curve.Points),
			TrialsPerSize: scenario.Curve.Trials,
			Seed:          scenario.Seed,
			Workers:       scenario.Workers,
		})
		if curveErr != nil {
			return nil, fmt.Errorf("error curve failed: %w", curveErr)
		}
		res.Curve = curve
	}

	res.FinishedAt = time.Now()

	if s.store != nil {
		if err := s.store.SaveRun(*res); err != nil {
			s.log.Warn().Err(err).Str("run_id", id).Msg("Failed to persist sweep run")
		}
	}
	s.publish(events.TypeSweepRunFinished, id, map[string]interface{}{
		"scenario": scenario.Name,
		"points":   len(res.Points),
		"slopes":   res.Slopes,
	})
	return res, nil
}

func (s *Service) runPoints(id string, scenario Scenario) ([]Point, error) {
	type cell struct {
		idx     int
		oracle  risk.OracleKind
		epsilon float64
	}
	type outcome struct {
		idx   int
		point Point
		err   error
	}

	cells := make([]cell, 0, len(scenario.Oracles)*len(scenario.Epsilons))
	for _, kind := range scenario.Oracles {
		for _, eps := range scenario.Epsilons {
			cells = append(cells, cell{idx: len(cells), oracle: kind, epsilon: eps})
		}
	}

	workers := scenario.Workers
	if workers <= 0 {
		workers = 4
	}
	if workers > len(cells) {
		workers = len(cells)
	}

	jobs := make(chan cell, len(cells))
	results := make(chan outcome, len(cells))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range jobs {
				// Per-cell seed keeps every worker on its own stream.
				seed := scenario.Seed + uint64(c.idx)*1_000_003
				vr, err := s.risk.EstimateVaR(risk.Request{
					Distribution: scenario.Distribution,
					Alpha:        scenario.Alpha,
					Epsilon:      c.epsilon,
					Confidence:   scenario.Confidence,
					Oracle:       c.oracle,
					Mode:         scenario.Mode,
					Seed:         seed,
				})
				if vr == nil {
					results <- outcome{idx: c.idx, err: err}
					continue
				}
				// Budget-class failures still carry a usable point; a
				// non-converged cell is recorded, not fatal.
				if err != nil && isFatal(err) {
					results <- outcome{idx: c.idx, err: err}
					continue
				}
				results <- outcome{idx: c.idx, point: Point{
					Oracle:    string(c.oracle),
					Epsilon:   c.epsilon,
					Value:     vr.VaR,
					HalfWidth: vr.Interval.HalfWidth(),
					Cost:      vr.Cost,
					Converged: vr.Converged,
				}}
			}
		}()
	}

	for _, c := range cells {
		jobs <- c
	}
	close(jobs)
	wg.Wait()
	close(results)

	points := make([]Point, len(cells))
	for r := range results {
		if r.err != nil {
			return nil, fmt.Errorf("sweep point failed: %w", r.err)
		}
		points[r.idx] = r.point
		s.publish(events.TypeSweepPointDone, id, map[string]interface{}{
			"oracle":  r.point.Oracle,
			"epsilon": r.point.Epsilon,
			"cost":    r.point.Cost,
		})
	}
	return points, nil
}

// isFatal separates configuration mistakes from budget-class failures
// that still produced a best-effort estimate.
func isFatal(err error) bool {
	var invalidParam *domain.InvalidParameterError
	var invalidBracket *domain.InvalidBracketError
	return errors.As(err, &invalidParam) || errors.As(err, &invalidBracket)
}

func (s *Service) publish(eventType, id string, data map[string]interface{}) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(events.Event{Type: eventType, RunID: id, Data: data})
}

package risk

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/tailrisk/internal/domain"
	"github.com/aristath/tailrisk/internal/events"
	"github.com/aristath/tailrisk/internal/modules/amplitude"
	"github.com/aristath/tailrisk/internal/modules/distributions"
	"github.com/aristath/tailrisk/internal/modules/oracle"
	"github.com/aristath/tailrisk/internal/modules/search"
)

const (
	defaultEpsilon    = 0.01
	defaultConfidence = 0.95
	defaultMCSamples  = 100_000
	defaultTailSteps  = 64
	// bracketShrink sets how far the default bracket endpoints pull away
	// from the target tail probability, toward 0 below and 1 above.
	bracketShrink = 10.0
)

// EstimateStore persists finished estimates.
type EstimateStore interface {
	SaveEstimate(est Estimate) error
	ListEstimates(limit int) ([]Estimate, error)
}

// Defaults are applied to requests that leave a knob unset. Zero values
// fall back to the built-in constants.
type Defaults struct {
	Epsilon    float64
	Confidence float64
	Shots      int     // amplitude shots per round
	MaxSamples int64   // classical oracle budget cap, 0 = unlimited
}

// Service orchestrates oracle construction, threshold search and
// persistence for the three risk measures.
type Service struct {
	store    EstimateStore       // optional
	bus      *events.Broadcaster // optional
	defaults Defaults
	log      zerolog.Logger
}

// NewService creates a risk service. store and bus may be nil, for
// offline CLI use.
func NewService(store EstimateStore, bus *events.Broadcaster, log zerolog.Logger) *Service {
	return &Service{
		store: store,
		bus:   bus,
		log:   log.With().Str("component", "risk_service").Logger(),
	}
}

// SetDefaults installs configured request defaults.
func (s *Service) SetDefaults(d Defaults) {
	s.defaults = d
}

// EstimateVaR locates the alpha-VaR threshold, the value v with
// P(R <= v) = 1 - alpha, by running the requested search mode against
// the requested oracle variant. Budget-class failures return the
// best-effort result alongside the error.
func (s *Service) EstimateVaR(req Request) (*VaRResult, error) {
	req = s.normalize(req)
	if req.Alpha <= 0 || req.Alpha >= 1 {
		return nil, &domain.InvalidParameterError{Param: "alpha", Reason: "must be in (0, 1)"}
	}

	ev, err := s.buildEvaluator(req)
	if err != nil {
		return nil, err
	}

	target := 1 - req.Alpha
	lo, hi, err := s.bracket(req, target)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	s.publish(events.TypeEstimateStarted, id, map[string]interface{}{
		"measure": "var",
		"alpha":   req.Alpha,
		"oracle":  string(req.Oracle),
	})

	driver := search.NewDriver(ev, s.log)
	sr, searchErr := driver.Run(req.Mode, target, lo, hi, search.Options{
		OracleEpsilon:    req.Epsilon,
		OracleConfidence: req.Confidence,
	})
	if sr == nil {
		return nil, searchErr
	}

	res := &VaRResult{
		ID:         id,
		VaR:        sr.Threshold,
		Interval:   domain.NewInterval(sr.Threshold-sr.HalfWidth, sr.Threshold, sr.Threshold+sr.HalfWidth, req.Confidence),
		Cost:       sr.OracleCalls,
		Iterations: sr.Iterations,
		Converged:  sr.Converged,
	}

	s.persist(id, "var", req, res.VaR, sr.HalfWidth, res.Cost, res.Converged)
	if res.Converged {
		s.publish(events.TypeSearchConverged, id, map[string]interface{}{
			"measure": "var",
			"value":   res.VaR,
			"cost":    res.Cost,
		})
	}
	return res, searchErr
}

// EstimateCVaR estimates the conditional tail expectation below the VaR
// threshold, locating the threshold first with the same search settings.
func (s *Service) EstimateCVaR(req CVaRRequest) (*CVaRResult, error) {
	req.Request = s.normalize(req.Request)

	vr, err := s.EstimateVaR(req.Request)
	if err != nil {
		return nil, err
	}

	pStar := 1 - req.Alpha
	var q domain.QueryResult

	switch req.Method {
	case CVaRConditionalMC, "":
		n := req.Samples
		if n <= 0 {
			n = defaultMCSamples
		}
		// A fresh stream, offset from the search seed so the tail
		// average is independent of the threshold search.
		samples, genErr := distributions.Generate(req.Distribution, n, req.Seed+1)
		if genErr != nil {
			return nil, genErr
		}
		q, err = ConditionalMC(samples, vr.VaR, req.Confidence)
	case CVaRTailIntegral:
		ev, buildErr := s.buildEvaluator(req.Request)
		if buildErr != nil {
			return nil, buildErr
		}
		steps := req.Steps
		if steps <= 0 {
			steps = defaultTailSteps
		}
		lo, qErr := distributions.Quantile(req.Distribution, pStar/1000)
		if qErr != nil {
			return nil, qErr
		}
		q, err = TailIntegral(ev, lo, vr.VaR, pStar, steps, req.Epsilon, req.Confidence)
	default:
		return nil, &domain.InvalidParameterError{Param: "method", Reason: "unknown CVaR method: " + string(req.Method)}
	}
	if err != nil {
		return nil, err
	}

	res := &CVaRResult{
		ID:       uuid.New().String(),
		VaR:      *vr,
		CVaR:     q.Interval.Estimate,
		Interval: q.Interval,
		Cost:     vr.Cost + q.Cost,
	}
	s.persist(res.ID, "cvar", req.Request, res.CVaR, q.Interval.HalfWidth(), res.Cost, vr.Converged)
	return res, nil
}

// EstimateEVaR estimates the tau-expectile with tau = 1 - alpha, solving
// the asymmetric first-order condition with the same search drivers.
func (s *Service) EstimateEVaR(req EVaRRequest) (*EVaRResult, error) {
	req.Request = s.normalize(req.Request)
	tau := 1 - req.Alpha

	n := req.Samples
	if n <= 0 {
		n = defaultMCSamples
	}
	eval, err := NewExpectileEvaluator(req.Distribution, tau, n, req.Seed, s.log)
	if err != nil {
		return nil, err
	}

	var lo, hi float64
	if req.Bracket != nil {
		lo, hi = req.Bracket[0], req.Bracket[1]
	} else {
		lo, err = distributions.Quantile(req.Distribution, tau/bracketShrink)
		if err != nil {
			return nil, err
		}
		// Any expectile below the median sits under the sample mean.
		hi = eval.SampleMean()
	}

	id := uuid.New().String()
	s.publish(events.TypeEstimateStarted, id, map[string]interface{}{
		"measure": "evar",
		"alpha":   req.Alpha,
	})

	driver := search.NewDriver(eval, s.log)
	sr, searchErr := driver.Run(req.Mode, 0, lo, hi, search.Options{
		OracleEpsilon:    req.Epsilon,
		OracleConfidence: req.Confidence,
	})
	if sr == nil {
		return nil, searchErr
	}

	res := &EVaRResult{
		ID:         id,
		EVaR:       sr.Threshold,
		Interval:   domain.NewInterval(sr.Threshold-sr.HalfWidth, sr.Threshold, sr.Threshold+sr.HalfWidth, req.Confidence),
		Cost:       sr.OracleCalls,
		Iterations: sr.Iterations,
		Converged:  sr.Converged,
	}
	s.persist(id, "evar", req.Request, res.EVaR, sr.HalfWidth, res.Cost, res.Converged)
	if res.Converged {
		s.publish(events.TypeSearchConverged, id, map[string]interface{}{
			"measure": "evar",
			"value":   res.EVaR,
			"cost":    res.Cost,
		})
	}
	return res, searchErr
}

// Estimates returns recent stored estimates, newest first.
func (s *Service) Estimates(limit int) ([]Estimate, error) {
	if s.store == nil {
		return []Estimate{}, nil
	}
	return s.store.ListEstimates(limit)
}

func (s *Service) normalize(req Request) Request {
	if req.Epsilon <= 0 {
		req.Epsilon = s.defaults.Epsilon
	}
	if req.Epsilon <= 0 {
		req.Epsilon = defaultEpsilon
	}
	if req.Confidence <= 0 || req.Confidence >= 1 {
		req.Confidence = s.defaults.Confidence
	}
	if req.Confidence <= 0 || req.Confidence >= 1 {
		req.Confidence = defaultConfidence
	}
	if req.Oracle == "" {
		req.Oracle = OracleClassical
	}
	if req.MaxSamples == 0 {
		req.MaxSamples = s.defaults.MaxSamples
	}
	return req
}

func (s *Service) buildEvaluator(req Request) (oracle.Evaluator, error) {
	if err := req.Distribution.Validate(); err != nil {
		return nil, err
	}
	switch req.Oracle {
	case OracleClassical:
		return oracle.NewClassical(req.Distribution, req.Seed, req.MaxSamples, s.log)
	case OracleAmplitude:
		factory := func(threshold float64) (amplitude.Backend, error) {
			return amplitude.NewThresholdBackend(req.Distribution, threshold, req.Seed)
		}
		return oracle.NewAmplitude(factory, amplitude.Options{Shots: s.defaults.Shots}, s.log), nil
	case OracleExact:
		return oracle.NewCDFOracle(req.Distribution)
	default:
		return nil, &domain.InvalidParameterError{Param: "oracle", Reason: "unknown oracle variant: " + string(req.Oracle)}
	}
}

// bracket derives the search bracket from the model quantiles around the
// target tail probability, unless the request pins one explicitly.
func (s *Service) bracket(req Request, target float64) (lo, hi float64, err error) {
	if req.Bracket != nil {
		if req.Bracket[0] >= req.Bracket[1] {
			return 0, 0, &domain.InvalidParameterError{Param: "bracket", Reason: "lo must be below hi"}
		}
		return req.Bracket[0], req.Bracket[1], nil
	}
	lo, err = distributions.Quantile(req.Distribution, target/bracketShrink)
	if err != nil {
		return 0, 0, err
	}
	hi, err = distributions.Quantile(req.Distribution, target+(1-target)/bracketShrink)
	if err != nil {
		return 0, 0, err
	}
	return lo, hi, nil
}

func (s *Service) persist(id, measure string, req Request, value, halfWidth float64, cost int64, converged bool) {
	if s.store == nil {
		return
	}
	est := Estimate{
		ID:           id,
		Measure:      measure,
		Distribution: string(req.Distribution.Kind),
		Alpha:        req.Alpha,
		Oracle:       string(req.Oracle),
		Mode:         string(req.Mode),
		Value:        value,
		HalfWidth:    halfWidth,
		Cost:         cost,
		Converged:    converged,
	}
	if err := s.store.SaveEstimate(est); err != nil {
		s.log.Warn().Err(err).Str("measure", measure).Msg("Failed to persist estimate")
	}
}

func (s *Service) publish(eventType, id string, data map[string]interface{}) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(events.Event{Type: eventType, RunID: id, Data: data})
}

// Package search locates the threshold x where a probability oracle's
// estimate crosses a target value, treating the oracle as a noisy monotone
// non-decreasing function of x. Bisection gives guaranteed logarithmic
// convergence; secant interpolation converges faster on smooth CDFs and
// falls back to bisection whenever its proposal is unusable.
package search

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/aristath/tailrisk/internal/domain"
	"github.com/aristath/tailrisk/internal/modules/oracle"
)

// Mode selects the stepping strategy.
type Mode string

const (
	ModeBisection     Mode = "bisection"
	ModeInterpolation Mode = "interpolation"
)

// Options configures a search run.
type Options struct {
	// Tolerance is the target width of the threshold bracket.
	Tolerance float64
	// MaxIterations caps oracle calls made while stepping.
	MaxIterations int
	// OracleEpsilon and OracleConfidence parameterize each oracle query.
	OracleEpsilon    float64
	OracleConfidence float64
}

const (
	defaultTolerance     = 1e-4
	defaultMaxIterations = 200
	defaultEpsilon       = 0.01
	defaultConfidence    = 0.95
	// secantFloor guards the secant slope against division by near-zero.
	secantFloor = 1e-12
)

func (o Options) withDefaults() Options {
	if o.Tolerance <= 0 {
		o.Tolerance = defaultTolerance
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = defaultMaxIterations
	}
	if o.OracleEpsilon <= 0 {
		o.OracleEpsilon = defaultEpsilon
	}
	if o.OracleConfidence <= 0 {
		o.OracleConfidence = defaultConfidence
	}
	return o
}

// Result is the outcome of a threshold search.
type Result struct {
	Threshold   float64 `json:"threshold"`
	HalfWidth   float64 `json:"half_width"`
	OracleCalls int64   `json:"oracle_calls"`
	Iterations  int     `json:"iterations"`
	Converged   bool    `json:"converged"`
}

// Driver runs threshold searches against any oracle variant.
type Driver struct {
	ev  oracle.Evaluator
	log zerolog.Logger
}

// NewDriver creates a search driver over an oracle.
func NewDriver(ev oracle.Evaluator, log zerolog.Logger) *Driver {
	return &Driver{ev: ev, log: log.With().Str("component", "search_driver").Logger()}
}

// Run dispatches on mode.
func (d *Driver) Run(mode Mode, target, lo, hi float64, opts Options) (*Result, error) {
	switch mode {
	case ModeInterpolation:
		return d.Secant(target, lo, hi, opts)
	case ModeBisection, "":
		return d.Bisection(target, lo, hi, opts)
	default:
		return nil, &domain.InvalidParameterError{Param: "mode", Reason: "unknown search mode: " + string(mode)}
	}
}

// checkBracket verifies f(lo) < target < f(hi) once at the start, within
// the oracle's own interval uncertainty: the bracket is rejected only when
// the oracle is confident the target lies outside it.
func (d *Driver) checkBracket(target, lo, hi float64, opts Options) (fLo, fHi domain.QueryResult, cost int64, err error) {
	if lo >= hi {
		return fLo, fHi, 0, &domain.InvalidParameterError{Param: "bracket", Reason: "lo must be below hi"}
	}
	fLo, err = d.ev.Evaluate(lo, opts.OracleEpsilon, opts.OracleConfidence)
	cost += fLo.Cost
	if err != nil {
		return fLo, fHi, cost, err
	}
	fHi, err = d.ev.Evaluate(hi, opts.OracleEpsilon, opts.OracleConfidence)
	cost += fHi.Cost
	if err != nil {
		return fLo, fHi, cost, err
	}
	if fLo.Interval.Lower > target || fHi.Interval.Upper < target {
		return fLo, fHi, cost, &domain.InvalidBracketError{Lo: lo, Hi: hi, Target: target}
	}
	return fLo, fHi, cost, nil
}

// Bisection halves the bracket until it is narrower than the tolerance or
// the oracle's interval already pins the target tightly enough.
func (d *Driver) Bisection(target, lo, hi float64, opts Options) (*Result, error) {
	opts = opts.withDefaults()

	_, _, cost, err := d.checkBracket(target, lo, hi, opts)
	if err != nil {
		return nil, err
	}

	res := &Result{OracleCalls: cost}
	for res.Iterations = 0; res.Iterations < opts.MaxIterations; res.Iterations++ {
		if hi-lo <= opts.Tolerance {
			res.Converged = true
			break
		}
		mid := (lo + hi) / 2
		q, evalErr := d.ev.Evaluate(mid, opts.OracleEpsilon, opts.OracleConfidence)
		res.OracleCalls += q.Cost
		if evalErr != nil {
			res.Threshold = mid
			res.HalfWidth = (hi - lo) / 2
			return res, evalErr
		}

		// The oracle interval straddling the target this tightly means
		// further halving cannot improve on the oracle's own precision.
		if q.Interval.Contains(target) && q.Interval.HalfWidth() <= opts.OracleEpsilon {
			lo, hi = mid, mid
			res.Converged = true
			res.Iterations++
			break
		}
		if q.Interval.Estimate < target {
			lo = mid
		} else {
			hi = mid
		}
	}

	res.Threshold = (lo + hi) / 2
	res.HalfWidth = (hi - lo) / 2
	if !res.Converged {
		return res, &domain.MaxIterationsExceededError{Iterations: res.Iterations}
	}

	d.log.Debug().
		Float64("threshold", res.Threshold).
		Int64("oracle_calls", res.OracleCalls).
		Int("iterations", res.Iterations).
		Msg("Bisection converged")
	return res, nil
}

// Secant proposes each next threshold as the root of the line through the
// last two evaluations. Whenever the proposal leaves the bracket or the
// slope degenerates, it takes a plain bisection step instead; the fallback
// is what guarantees termination.
func (d *Driver) Secant(target, lo, hi float64, opts Options) (*Result, error) {
	opts = opts.withDefaults()

	fLo, fHi, cost, err := d.checkBracket(target, lo, hi, opts)
	if err != nil {
		return nil, err
	}

	res := &Result{OracleCalls: cost}
	x0, f0 := lo, fLo.Interval.Estimate
	x1, f1 := hi, fHi.Interval.Estimate

	for res.Iterations = 0; res.Iterations < opts.MaxIterations; res.Iterations++ {
		if hi-lo <= opts.Tolerance {
			res.Converged = true
			break
		}

		next := math.NaN()
		if math.Abs(f1-f0) > secantFloor {
			next = x1 - (f1-target)*(x1-x0)/(f1-f0)
		}
		if math.IsNaN(next) || next <= lo || next >= hi {
			next = (lo + hi) / 2
		}

		// Successive proposals this close mean the interpolant has settled
		// on the root even while the far bracket endpoint lags behind.
		if math.Abs(next-x1) <= opts.Tolerance {
			lo, hi = next, next
			res.Converged = true
			break
		}

		q, evalErr := d.ev.Evaluate(next, opts.OracleEpsilon, opts.OracleConfidence)
		res.OracleCalls += q.Cost
		if evalErr != nil {
			res.Threshold = next
			res.HalfWidth = (hi - lo) / 2
			return res, evalErr
		}

		if q.Interval.Contains(target) && q.Interval.HalfWidth() <= opts.OracleEpsilon {
			lo, hi = next, next
			res.Converged = true
			res.Iterations++
			break
		}
		if q.Interval.Estimate < target {
			lo = next
		} else {
			hi = next
		}
		x0, f0 = x1, f1
		x1, f1 = next, q.Interval.Estimate
	}

	res.Threshold = (lo + hi) / 2
	res.HalfWidth = (hi - lo) / 2
	if !res.Converged {
		return res, &domain.MaxIterationsExceededError{Iterations: res.Iterations}
	}

	d.log.Debug().
		Float64("threshold", res.Threshold).
		Int64("oracle_calls", res.OracleCalls).
		Int("iterations", res.Iterations).
		Msg("Secant converged")
	return res, nil
}

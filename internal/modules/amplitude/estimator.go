package amplitude

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/aristath/tailrisk/internal/domain"
)

// Options tunes the estimator. The zero value picks sensible defaults.
type Options struct {
	// Shots per measurement round.
	Shots int
	// RetryCap bounds how often an inconsistent round is re-measured with
	// a fresh shot batch before the estimator gives up.
	RetryCap int
	// MaxRounds caps the total number of rounds. Zero derives the cap from
	// the target epsilon.
	MaxRounds int
}

const (
	defaultShots    = 128
	defaultRetryCap = 2
)

// RoundRecord describes one accepted measurement round.
type RoundRecord struct {
	Power     int     `json:"power"`
	Shots     int     `json:"shots"`
	HalfWidth float64 `json:"half_width"`
}

// Result is the estimator's output: the final interval on p, the total
// single-oracle-equivalent cost, and the accepted round trace.
type Result struct {
	Interval domain.Interval `json:"interval"`
	Cost     int64           `json:"cost"`
	Rounds   []RoundRecord   `json:"rounds"`
}

// Estimator shrinks a confidence interval on a probability using an
// adaptive schedule of amplification powers.
type Estimator struct {
	opts Options
	log  zerolog.Logger
}

// NewEstimator creates an estimator with the given options.
func NewEstimator(opts Options, log zerolog.Logger) *Estimator {
	if opts.Shots <= 0 {
		opts.Shots = defaultShots
	}
	if opts.RetryCap <= 0 {
		opts.RetryCap = defaultRetryCap
	}
	return &Estimator{
		opts: opts,
		log:  log.With().Str("component", "amplitude_estimator").Logger(),
	}
}

// Estimate narrows an interval on the backend's unknown probability until
// its half-width is at most epsilon, with overall failure probability at
// most 1-confidence. On budget-class failures the best-achieved result is
// returned together with the typed error.
func (e *Estimator) Estimate(backend Backend, epsilon, confidence float64) (*Result, error) {
	if epsilon <= 0 || epsilon >= 0.5 {
		return nil, &domain.InvalidParameterError{Param: "epsilon", Reason: "must be in (0, 0.5)"}
	}
	if confidence <= 0 || confidence >= 1 {
		return nil, &domain.InvalidParameterError{Param: "confidence", Reason: "must be in (0, 1)"}
	}

	roundCap := e.opts.MaxRounds
	if roundCap <= 0 {
		// Each power doubling roughly halves the theta interval; allow
		// slack for repeated rounds at the same power.
		roundCap = 4 * (int(math.Ceil(math.Log2(math.Pi/(4*epsilon)))) + 2)
	}
	// Union bound: every interval update may consume this much failure
	// probability.
	alphaRound := (1 - confidence) / float64(roundCap)

	st := state{thetaL: 0, thetaU: math.Pi / 2}
	res := &Result{}
	retries := 0
	power := 0

	for round := 0; round < roundCap; round++ {
		if st.halfWidthP() <= epsilon {
			break
		}
		if round > 0 {
			power = nextPower(st.thetaL, st.thetaU, power)
		}

		successes, err := backend.Run(power, e.opts.Shots)
		if err != nil {
			return res.finish(st, confidence), err
		}
		res.Cost += int64(e.opts.Shots) * int64(2*power+1)

		// Rounds at an unchanged power pool their shots: the measurement
		// is the same Bernoulli, so the frequency interval keeps tightening.
		snapshot := st.accum
		if st.accum.power != power || st.accum.shots == 0 {
			st.accum = accumulator{power: power}
		}
		st.accum.successes += successes
		st.accum.shots += e.opts.Shots

		freq := float64(st.accum.successes) / float64(st.accum.shots)
		hw := hoeffdingHalfWidth(alphaRound, st.accum.shots)
		fl := math.Max(0, freq-hw)
		fu := math.Min(1, freq+hw)

		lo, hi, ok := invertRound(st.thetaL, st.thetaU, power, fl, fu)
		if ok {
			ok = st.intersect(lo, hi)
		}
		if !ok {
			// Consistency rule violated: the mapped interval is disjoint
			// from the running interval. Discard the batch and retry.
			st.accum = snapshot
			retries++
			if retries > e.opts.RetryCap {
				return res.finish(st, confidence), &domain.RoundInconsistencyError{
					Round:   round,
					Power:   power,
					Retries: retries - 1,
				}
			}
			continue
		}
		retries = 0

		res.Rounds = append(res.Rounds, RoundRecord{
			Power:     power,
			Shots:     st.accum.shots,
			HalfWidth: st.halfWidthP(),
		})

		e.log.Trace().
			Int("round", round).
			Int("power", power).
			Float64("half_width", st.halfWidthP()).
			Msg("Round accepted")
	}

	out := res.finish(st, confidence)
	if st.halfWidthP() > epsilon {
		return out, &domain.PrecisionNotReachedError{Achieved: st.halfWidthP(), Target: epsilon}
	}
	return out, nil
}

type accumulator struct {
	power     int
	successes int
	shots     int
}

type state struct {
	thetaL float64
	thetaU float64
	accum  accumulator
}

func (s *state) halfWidthP() float64 {
	pl := math.Pow(math.Sin(s.thetaL), 2)
	pu := math.Pow(math.Sin(s.thetaU), 2)
	return (pu - pl) / 2
}

// intersect narrows the theta interval; the running interval only ever
// shrinks. Returns false when the candidate is disjoint.
func (s *state) intersect(lo, hi float64) bool {
	nl := math.Max(s.thetaL, lo)
	nu := math.Min(s.thetaU, hi)
	if nl > nu {
		return false
	}
	s.thetaL, s.thetaU = nl, nu
	return true
}

func (r *Result) finish(st state, confidence float64) *Result {
	pl := math.Pow(math.Sin(st.thetaL), 2)
	pu := math.Pow(math.Sin(st.thetaU), 2)
	r.Interval = domain.NewInterval(pl, (pl+pu)/2, pu, confidence).Clamp01()
	return r
}

// hoeffdingHalfWidth is the two-sided Hoeffding bound for a frequency over
// n shots at per-round failure probability alpha.
func hoeffdingHalfWidth(alpha float64, n int) float64 {
	return math.Sqrt(math.Log(2/alpha) / (2 * float64(n)))
}

// nextPower picks the amplification power for the next round: the largest
// power not exceeding the doubling cap for which the scaled angle interval
// stays inside a single half-period of the cosine, so the round's
// frequency interval maps back to theta unambiguously. When no larger
// power qualifies the previous one is reused and its shots accumulate.
func nextPower(thetaL, thetaU float64, prev int) int {
	width := thetaU - thetaL
	if width <= 0 {
		return prev
	}
	limit := 2 * prev
	if limit < 1 {
		limit = 1
	}
	if byWidth := int((math.Pi/(2*width) - 1) / 2); byWidth < limit {
		limit = byWidth
	}
	for k := limit; k > prev; k-- {
		if branchInvertible(thetaL, thetaU, k) {
			return k
		}
	}
	return prev
}

// branchInvertible reports whether [2K*thetaL, 2K*thetaU] with K = 2k+1
// fits inside one half-period [m*pi, (m+1)*pi].
func branchInvertible(thetaL, thetaU float64, k int) bool {
	bigK := float64(2*k + 1)
	phiL := 2 * bigK * thetaL
	phiU := 2 * bigK * thetaU
	m := math.Floor(phiL/math.Pi + 1e-12)
	return phiU <= (m+1)*math.Pi+1e-9
}

// invertRound maps a frequency interval [fl, fu] measured at power k back
// to a theta interval, using the monotone cosine branch the current
// interval occupies. Reports ok=false when the branch is not invertible
// for the given interval.
func invertRound(thetaL, thetaU float64, k int, fl, fu float64) (lo, hi float64, ok bool) {
	if !branchInvertible(thetaL, thetaU, k) {
		return 0, 0, false
	}
	bigK := float64(2*k + 1)
	m := math.Floor(2*bigK*thetaL/math.Pi + 1e-12)

	acosL := math.Acos(clamp(1-2*fl, -1, 1))
	acosU := math.Acos(clamp(1-2*fu, -1, 1))

	var phiLo, phiHi float64
	if math.Mod(m, 2) == 0 {
		// Descending cosine branch: frequency grows with the angle.
		phiLo = m*math.Pi + acosL
		phiHi = m*math.Pi + acosU
	} else {
		// Ascending branch: frequency shrinks with the angle.
		phiLo = (m+1)*math.Pi - acosU
		phiHi = (m+1)*math.Pi - acosL
	}
	return phiLo / (2 * bigK), phiHi / (2 * bigK), true
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

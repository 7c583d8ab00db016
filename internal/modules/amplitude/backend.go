// Package amplitude implements the iterative confidence-interval-narrowing
// estimator for an unknown probability p. Rounds of amplified measurement
// shrink an interval on theta = asin(sqrt(p)): a round at power k measures
// a Bernoulli outcome with success probability sin^2((2k+1)*theta), so each
// extra unit of power multiplies the resolution of one shot. Total oracle
// cost to reach half-width epsilon grows as O(1/epsilon) instead of the
// O(1/epsilon^2) of direct sampling.
package amplitude

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/aristath/tailrisk/internal/modules/distributions"
)

// Backend executes measurement rounds. Run performs shots measurements at
// amplification power k and returns how many succeeded. Implementations
// must behave as pure samplers: no side effects visible to the estimator.
type Backend interface {
	Run(power, shots int) (successes int, err error)
}

// SuccessProbability is the trigonometric forward map: the probability of
// a successful measurement at power k when the underlying value is p.
func SuccessProbability(p float64, power int) float64 {
	theta := math.Asin(math.Sqrt(p))
	s := math.Sin(float64(2*power+1) * theta)
	return s * s
}

// SimulatedBackend samples measurement outcomes for a known probability.
// It stands in for a circuit-evaluation backend in tests and sweeps.
type SimulatedBackend struct {
	p   float64
	src rand.Source
}

// NewSimulatedBackend creates a backend for a fixed probability p.
func NewSimulatedBackend(p float64, seed uint64) *SimulatedBackend {
	return &SimulatedBackend{p: p, src: rand.NewSource(seed)}
}

// NewThresholdBackend creates a backend whose probability is the
// distribution's CDF at the threshold. This is how the amplitude-style
// oracle answers P(R < x) queries without drawing classical samples.
func NewThresholdBackend(spec distributions.Spec, threshold float64, seed uint64) (*SimulatedBackend, error) {
	p, err := distributions.CDF(spec, threshold)
	if err != nil {
		return nil, err
	}
	return &SimulatedBackend{p: p, src: rand.NewSource(seed)}, nil
}

// Run draws the round's success count from a binomial distribution.
func (b *SimulatedBackend) Run(power, shots int) (int, error) {
	q := SuccessProbability(b.p, power)
	bin := distuv.Binomial{N: float64(shots), P: q, Src: b.src}
	return int(bin.Rand()), nil
}

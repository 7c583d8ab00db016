package distributions

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// continuous is the subset of the gonum distribution API the engine needs.
type continuous interface {
	Rand() float64
	CDF(x float64) float64
	Quantile(p float64) float64
}

// build constructs the gonum distribution for a spec. A nil source leaves
// the distribution on gonum's global source; callers wanting determinism
// pass their own.
func build(spec Spec, src rand.Source) (continuous, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	switch spec.Kind {
	case Gaussian:
		return distuv.Normal{Mu: spec.Mu, Sigma: spec.Sigma, Src: src}, nil
	case LogNormal:
		return distuv.LogNormal{Mu: spec.Mu, Sigma: spec.Sigma, Src: src}, nil
	default:
		return distuv.StudentsT{Mu: spec.Mu, Sigma: spec.Sigma, Nu: spec.Nu, Src: src}, nil
	}
}

// Generate draws n independent samples from the distribution, deterministic
// for a given seed. The generator is stateless: equal inputs always produce
// equal output.
func Generate(spec Spec, n int, seed uint64) ([]float64, error) {
	dist, err := build(spec, rand.NewSource(seed))
	if err != nil {
		return nil, err
	}
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = dist.Rand()
	}
	return samples, nil
}

// Stream is a draw-on-demand sample source over a single seeded stream.
// Unlike Generate it keeps its position across calls, which lets an oracle
// consume fresh independent samples per evaluation while staying
// reproducible for a given seed.
type Stream struct {
	dist continuous
}

// NewStream creates a seeded sample stream for the spec.
func NewStream(spec Spec, seed uint64) (*Stream, error) {
	dist, err := build(spec, rand.NewSource(seed))
	if err != nil {
		return nil, err
	}
	return &Stream{dist: dist}, nil
}

// Next draws one sample.
func (s *Stream) Next() float64 {
	return s.dist.Rand()
}

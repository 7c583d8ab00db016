package oracle

import (
	"github.com/aristath/tailrisk/internal/domain"
	"github.com/aristath/tailrisk/internal/modules/distributions"
)

// CDFOracle answers queries from the analytical CDF with zero-width
// intervals at unit cost per call. It serves as ground truth for search
// driver tests and end-to-end verification.
type CDFOracle struct {
	spec distributions.Spec
}

// NewCDFOracle creates an exact oracle for the spec.
func NewCDFOracle(spec distributions.Spec) (*CDFOracle, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &CDFOracle{spec: spec}, nil
}

// Evaluate returns the exact probability as a degenerate interval.
func (o *CDFOracle) Evaluate(threshold, epsilon, confidence float64) (domain.QueryResult, error) {
	if err := validateQuery(epsilon, confidence); err != nil {
		return domain.QueryResult{}, err
	}
	p, err := distributions.CDF(o.spec, threshold)
	if err != nil {
		return domain.QueryResult{}, err
	}
	return domain.QueryResult{
		Interval: domain.Interval{Lower: p, Estimate: p, Upper: p, Confidence: confidence},
		Cost:     1,
	}, nil
}

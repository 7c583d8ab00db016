// Package distributions provides return-distribution specifications,
// deterministic sample generation and analytical reference values.
package distributions

import (
	"github.com/aristath/tailrisk/internal/domain"
)

// Kind identifies a supported return distribution family.
type Kind string

const (
	Gaussian  Kind = "gaussian"
	LogNormal Kind = "lognormal"
	StudentT  Kind = "student_t"
)

// Spec describes an immutable return distribution. Mu and Sigma are the
// location and scale parameters; Nu is the degrees of freedom and only
// applies to the Student-t family.
type Spec struct {
	Kind  Kind    `json:"kind" yaml:"kind"`
	Mu    float64 `json:"mu" yaml:"mu"`
	Sigma float64 `json:"sigma" yaml:"sigma"`
	Nu    float64 `json:"nu,omitempty" yaml:"nu,omitempty"`
}

// Validate rejects parameterizations that cannot describe a distribution.
func (s Spec) Validate() error {
	switch s.Kind {
	case Gaussian, LogNormal:
		if s.Sigma <= 0 {
			return &domain.InvalidParameterError{Param: "sigma", Reason: "scale must be positive"}
		}
	case StudentT:
		if s.Sigma <= 0 {
			return &domain.InvalidParameterError{Param: "sigma", Reason: "scale must be positive"}
		}
		if s.Nu <= 0 {
			return &domain.InvalidParameterError{Param: "nu", Reason: "degrees of freedom must be positive"}
		}
	default:
		return &domain.InvalidParameterError{Param: "kind", Reason: "unknown distribution kind: " + string(s.Kind)}
	}
	return nil
}

// Package sweep runs cost-vs-precision scaling experiments across oracle
// variants and fits the observed cost exponents.
package sweep

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aristath/tailrisk/internal/domain"
	"github.com/aristath/tailrisk/internal/modules/distributions"
	"github.com/aristath/tailrisk/internal/modules/risk"
	"github.com/aristath/tailrisk/internal/modules/search"
)

// CurveSettings sizes the optional Monte Carlo error-curve leg of a sweep.
type CurveSettings struct {
	MinSize int `yaml:"min_size" json:"min_size"`
	MaxSize int `yaml:"max_size" json:"max_size"`
	Points  int `yaml:"points" json:"points"`
	Trials  int `yaml:"trials" json:"trials"`
}

// Scenario describes one sweep: which model, which oracles, and which
// precision targets to traverse.
type Scenario struct {
	Name         string             `yaml:"name" json:"name"`
	Distribution distributions.Spec `yaml:"distribution" json:"distribution"`
	Alpha        float64            `yaml:"alpha" json:"alpha"`
	Confidence   float64            `yaml:"confidence" json:"confidence"`
	Epsilons     []float64          `yaml:"epsilons" json:"epsilons"`
	Oracles      []risk.OracleKind  `yaml:"oracles" json:"oracles"`
	Mode         search.Mode        `yaml:"mode" json:"mode"`
	Seed         uint64             `yaml:"seed" json:"seed"`
	Workers      int                `yaml:"workers" json:"workers"`
	Curve        *CurveSettings     `yaml:"error_curve" json:"error_curve,omitempty"`
}

// DefaultScenario is the calibration sweep run nightly and by the bare
// CLI invocation.
func DefaultScenario() Scenario {
	return Scenario{
		Name:         "default-calibration",
		Distribution: distributions.Spec{Kind: distributions.Gaussian, Mu: 0.15, Sigma: 0.20},
		Alpha:        0.95,
		Confidence:   0.95,
		Epsilons:     []float64{0.1, 0.05, 0.02, 0.01},
		Oracles:      []risk.OracleKind{risk.OracleClassical, risk.OracleAmplitude},
		Mode:         search.ModeBisection,
		Seed:         1,
		Curve: &CurveSettings{
			MinSize: 100,
			MaxSize: 100_000,
			Points:  10,
			Trials:  20,
		},
	}
}

// Validate applies defaults and rejects unusable scenarios.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		s.Name = "unnamed"
	}
	if err := s.Distribution.Validate(); err != nil {
		return err
	}
	if s.Alpha <= 0 || s.Alpha >= 1 {
		return &domain.InvalidParameterError{Param: "alpha", Reason: "must be in (0, 1)"}
	}
	if s.Confidence <= 0 || s.Confidence >= 1 {
		s.Confidence = 0.95
	}
	if len(s.Epsilons) == 0 {
		return &domain.InvalidParameterError{Param: "epsilons", Reason: "at least one precision target required"}
	}
	for _, eps := range s.Epsilons {
		if eps <= 0 || eps >= 0.5 {
			return &domain.InvalidParameterError{Param: "epsilons", Reason: "targets must be in (0, 0.5)"}
		}
	}
	if len(s.Oracles) == 0 {
		s.Oracles = []risk.OracleKind{risk.OracleClassical, risk.OracleAmplitude}
	}
	if s.Curve != nil {
		if s.Curve.MinSize < 2 || s.Curve.MaxSize <= s.Curve.MinSize || s.Curve.Points < 2 {
			return &domain.InvalidParameterError{Param: "error_curve", Reason: "needs min_size >= 2, max_size > min_size and points >= 2"}
		}
		if s.Curve.Trials < 1 {
			s.Curve.Trials = 1
		}
	}
	return nil
}

// LoadScenario reads and validates a YAML scenario file.
func LoadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return Scenario{}, fmt.Errorf("failed to parse scenario file: %w", err)
	}
	if err := scenario.Validate(); err != nil {
		return Scenario{}, err
	}
	return scenario, nil
}

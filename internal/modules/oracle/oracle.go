// Package oracle provides the probability-oracle capability: answering
// P(R < x) queries with a confidence interval and an explicit evaluation
// cost. Two implementations exist, a classical sampling oracle and an
// amplitude-style iterative oracle; callers depend only on the Evaluator
// contract and never on which variant is active.
package oracle

import (
	"github.com/aristath/tailrisk/internal/domain"
)

// Evaluator answers probability queries at a threshold. epsilon bounds the
// half-width of the returned interval and confidence is the probability
// that the true value lies inside it. Implementations must be monotonic in
// cost: a tighter epsilon or a higher confidence never costs less.
type Evaluator interface {
	Evaluate(threshold, epsilon, confidence float64) (domain.QueryResult, error)
}

func validateQuery(epsilon, confidence float64) error {
	if epsilon <= 0 || epsilon >= 0.5 {
		return &domain.InvalidParameterError{Param: "epsilon", Reason: "must be in (0, 0.5)"}
	}
	if confidence <= 0 || confidence >= 1 {
		return &domain.InvalidParameterError{Param: "confidence", Reason: "must be in (0, 1)"}
	}
	return nil
}

package domain

import "fmt"

// InvalidParameterError reports a bad distribution or search configuration.
// It is returned before any estimation work starts.
type InvalidParameterError struct {
	Param  string
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s", e.Param, e.Reason)
}

// InvalidBracketError reports that a search bracket does not straddle the
// target value, accounting for the oracle's own interval uncertainty.
type InvalidBracketError struct {
	Lo     float64
	Hi     float64
	Target float64
}

func (e *InvalidBracketError) Error() string {
	return fmt.Sprintf("bracket [%g, %g] does not straddle target %g", e.Lo, e.Hi, e.Target)
}

// InsufficientBudgetError reports that a sampling budget was exhausted
// before the requested precision was reached. The caller still receives the
// best interval achieved and decides whether to retry with a larger budget.
type InsufficientBudgetError struct {
	Spent  int64
	Budget int64
}

func (e *InsufficientBudgetError) Error() string {
	return fmt.Sprintf("sample budget exhausted: spent %d of %d", e.Spent, e.Budget)
}

// PrecisionNotReachedError reports that an iterative estimator ran out of
// rounds before its interval reached the target half-width. Recoverable:
// the best-achieved interval accompanies the error.
type PrecisionNotReachedError struct {
	Achieved float64
	Target   float64
}

func (e *PrecisionNotReachedError) Error() string {
	return fmt.Sprintf("precision not reached: achieved half-width %g, target %g", e.Achieved, e.Target)
}

// MaxIterationsExceededError reports that a search driver hit its iteration
// cap without converging. The best threshold estimate so far accompanies
// the error.
type MaxIterationsExceededError struct {
	Iterations int
}

func (e *MaxIterationsExceededError) Error() string {
	return fmt.Sprintf("search did not converge within %d iterations", e.Iterations)
}

// RoundInconsistencyError reports that a measurement round produced an
// interval disjoint from the running interval more times than the retry cap
// allows. This signals a backend whose answers contradict themselves.
type RoundInconsistencyError struct {
	Round   int
	Power   int
	Retries int
}

func (e *RoundInconsistencyError) Error() string {
	return fmt.Sprintf("round %d (power %d) inconsistent with running interval after %d retries", e.Round, e.Power, e.Retries)
}

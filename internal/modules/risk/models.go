// Package risk estimates quantile-based tail risk measures (VaR, CVaR and
// expectile VaR) by driving a threshold search against a probability oracle.
package risk

import (
	"time"

	"github.com/aristath/tailrisk/internal/domain"
	"github.com/aristath/tailrisk/internal/modules/distributions"
	"github.com/aristath/tailrisk/internal/modules/search"
)

// OracleKind selects the probability oracle variant backing a search.
type OracleKind string

const (
	OracleClassical OracleKind = "classical"
	OracleAmplitude OracleKind = "amplitude"
	// OracleExact queries the model CDF directly. Useful for calibration
	// and as a ground-truth baseline; costs one unit per query.
	OracleExact OracleKind = "exact"
)

// CVaRMethod selects how the conditional tail expectation is computed.
type CVaRMethod string

const (
	// CVaRConditionalMC averages the samples below the VaR threshold.
	CVaRConditionalMC CVaRMethod = "conditional_mc"
	// CVaRTailIntegral integrates oracle CDF queries below the VaR
	// threshold, so its cost follows the chosen oracle's scaling.
	CVaRTailIntegral CVaRMethod = "tail_integral"
)

// Request describes a single risk estimate.
type Request struct {
	Distribution distributions.Spec `json:"distribution"`
	Alpha        float64            `json:"alpha"`
	Epsilon      float64            `json:"epsilon"`
	Confidence   float64            `json:"confidence"`
	Oracle       OracleKind         `json:"oracle"`
	Mode         search.Mode        `json:"mode"`
	Seed         uint64             `json:"seed"`
	// MaxSamples caps the classical oracle's per-query budget. Zero means
	// unlimited.
	MaxSamples int64 `json:"max_samples,omitempty"`
	// Bracket overrides the default search bracket derived from the model
	// quantiles.
	Bracket *[2]float64 `json:"bracket,omitempty"`
}

// CVaRRequest extends Request with tail-expectation settings.
type CVaRRequest struct {
	Request
	Method CVaRMethod `json:"method"`
	// Samples sizes the Monte Carlo tail average; ignored by the
	// tail-integral method.
	Samples int `json:"samples,omitempty"`
	// Steps sizes the tail-integral grid; ignored by conditional MC.
	Steps int `json:"steps,omitempty"`
}

// EVaRRequest extends Request with expectile-search settings.
type EVaRRequest struct {
	Request
	// Samples sizes the common sample set behind each expectile query.
	Samples int `json:"samples,omitempty"`
}

// VaRResult is the outcome of a VaR estimate.
type VaRResult struct {
	ID         string          `json:"id"`
	VaR        float64         `json:"var"`
	Interval   domain.Interval `json:"interval"`
	Cost       int64           `json:"cost"`
	Iterations int             `json:"iterations"`
	Converged  bool            `json:"converged"`
}

// CVaRResult is the outcome of a CVaR estimate. It embeds the VaR search
// that located the tail threshold.
type CVaRResult struct {
	ID       string          `json:"id"`
	VaR      VaRResult       `json:"var_result"`
	CVaR     float64         `json:"cvar"`
	Interval domain.Interval `json:"interval"`
	Cost     int64           `json:"cost"`
}

// EVaRResult is the outcome of an expectile VaR estimate.
type EVaRResult struct {
	ID         string          `json:"id"`
	EVaR       float64         `json:"evar"`
	Interval   domain.Interval `json:"interval"`
	Cost       int64           `json:"cost"`
	Iterations int             `json:"iterations"`
	Converged  bool            `json:"converged"`
}

// Estimate is a persisted risk estimate row.
type Estimate struct {
	ID           string    `json:"id"`
	Measure      string    `json:"measure"`
	Distribution string    `json:"distribution"`
	Alpha        float64   `json:"alpha"`
	Oracle       string    `json:"oracle"`
	Mode         string    `json:"mode"`
	Value        float64   `json:"value"`
	HalfWidth    float64   `json:"half_width"`
	Cost         int64     `json:"cost"`
	Converged    bool      `json:"converged"`
	CreatedAt    time.Time `json:"created_at"`
}

package distributions

// CDF returns the analytical P(R < x) for the spec.
func CDF(spec Spec, x float64) (float64, error) {
	dist, err := build(spec, nil)
	if err != nil {
		return 0, err
	}
	return dist.CDF(x), nil
}

// Quantile returns the analytical p-quantile for the spec. For a Gaussian
// this is the closed-form VaR reference the Monte Carlo error curves are
// measured against.
func Quantile(spec Spec, p float64) (float64, error) {
	dist, err := build(spec, nil)
	if err != nil {
		return 0, err
	}
	return dist.Quantile(p), nil
}

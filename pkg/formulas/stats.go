// Package formulas provides shared numeric helpers for the estimation engine.
package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// TailMean averages the worst tailProbability fraction of the values.
// This is the empirical conditional tail expectation behind CVaR.
// The tail always contains at least one value.
func TailMean(sorted []float64, tailProbability float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	tailCount := int(math.Ceil(float64(len(sorted)) * tailProbability))
	if tailCount < 1 {
		tailCount = 1
	}
	if tailCount > len(sorted) {
		tailCount = len(sorted)
	}
	sum := 0.0
	for _, v := range sorted[:tailCount] {
		sum += v
	}
	return sum / float64(tailCount)
}

// LogLogSlope fits log(y) against log(x) by least squares and returns the
// slope. Non-positive points are skipped since they have no logarithm.
// Used to verify error- and cost-scaling exponents.
func LogLogSlope(x, y []float64) float64 {
	logX := make([]float64, 0, len(x))
	logY := make([]float64, 0, len(y))
	for i := range x {
		if x[i] <= 0 || y[i] <= 0 {
			continue
		}
		logX = append(logX, math.Log(x[i]))
		logY = append(logY, math.Log(y[i]))
	}
	if len(logX) < 2 {
		return 0
	}
	_, slope := stat.LinearRegression(logX, logY, nil, false)
	return slope
}

// LogSpace returns count integers spaced logarithmically between lo and hi
// inclusive, deduplicated and ascending.
func LogSpace(lo, hi, count int) []int {
	if count < 2 || lo < 1 || hi <= lo {
		return []int{lo}
	}
	out := make([]int, 0, count)
	logLo := math.Log(float64(lo))
	logHi := math.Log(float64(hi))
	prev := 0
	for i := 0; i < count; i++ {
		v := int(math.Round(math.Exp(logLo + (logHi-logLo)*float64(i)/float64(count-1))))
		if v <= prev {
			continue
		}
		out = append(out, v)
		prev = v
	}
	return out
}

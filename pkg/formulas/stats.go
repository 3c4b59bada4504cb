// Package formulas provides small numeric building blocks used by the
// trend and growth analysis code.
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

// StdDev calculates the standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Returns converts a value series to period-over-period percentage returns.
// Returns[i] = (Value[i+1] - Value[i]) / Value[i]
func Returns(values []float64) []float64 {
	if len(values) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] != 0 {
			returns[i-1] = (values[i] - values[i-1]) / values[i-1]
		}
	}
	return returns
}

// LinearTrend fits a least-squares line through the series and returns
// intercept and slope per index step.
func LinearTrend(values []float64) (alpha, beta float64) {
	if len(values) < 2 {
		return 0, 0
	}
	xs := make([]float64, len(values))
	for i := range xs {
		xs[i] = float64(i)
	}
	return stat.LinearRegression(xs, values, nil, false)
}

// CAGR computes the compound annual growth rate between a start and
// end value over the given number of years. Returns 0 when the inputs
// cannot support the computation.
func CAGR(startValue, endValue, years float64) float64 {
	if startValue <= 0 || endValue <= 0 || years <= 0 {
		return 0
	}
	return math.Pow(endValue/startValue, 1/years) - 1
}

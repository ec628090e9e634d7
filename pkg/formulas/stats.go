// Package formulas provides shared statistical helpers used by the
// aggregation and nowcast modules.
package formulas

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// WeightedMean calculates the weighted mean of values. Returns 0 when the
// inputs are empty, mismatched, or the weights sum to zero.
func WeightedMean(values, weights []float64) float64 {
	if len(values) == 0 || len(values) != len(weights) {
		return 0
	}
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total == 0 {
		return 0
	}
	return stat.Mean(values, weights)
}

// StdDev calculates the standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Median returns the median of data without mutating the input.
func Median(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// PercentileIndex returns the index into a sorted slice of length n for the
// given percentile using floor(n * pct / 100), clamped to [0, n-1].
func PercentileIndex(n int, pct float64) int {
	if n <= 0 {
		return 0
	}
	idx := int(math.Floor(float64(n) * pct / 100.0))
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return idx
}

// AnnualizedToDaily converts an annualized volatility (decimal) to daily
// volatility assuming 252 trading days.
func AnnualizedToDaily(annualVol float64) float64 {
	return annualVol / math.Sqrt(252)
}

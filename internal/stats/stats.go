// Package stats provides the small set of order statistics the engine
// needs: means, midpoint medians, and nearest-rank quantiles.
package stats

import (
	"math"
	"sort"
)

// Mean returns the arithmetic mean. ok is false for an empty slice.
func Mean(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), true
}

// Quantile returns the q-th quantile (0 <= q <= 1) by nearest-rank
// selection: the sorted element whose index is closest to q*(n-1). No
// interpolation, so the result is always an observed value. ok is false
// for an empty slice. The input is not modified.
func Quantile(values []float64, q float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	if q < 0 {
		q = 0
	}
	if q > 1 {
		q = 1
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	idx := int(math.Round(q * float64(len(sorted)-1)))
	return sorted[idx], true
}

// Median returns the middle value, or the midpoint of the two middle
// values for an even-length slice. ok is false for an empty slice. The
// input is not modified.
func Median(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2, true
	}
	return sorted[mid], true
}

// Min returns the smallest value. ok is false for an empty slice.
func Min(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m, true
}

// Max returns the largest value. ok is false for an empty slice.
func Max(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m, true
}

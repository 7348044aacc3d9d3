package frame

import (
	"math"
	"strconv"
)

// Percent computes used/total*100. A zero total yields NaN.
func Percent(used, total uint64) float64 {
	if total == 0 {
		return math.NaN()
	}

	return float64(used) / float64(total) * 100
}

// Whole renders v with no decimals, rounding half to even. NaN and
// infinities render as the placeholder.
func Whole(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Placeholder
	}

	r := math.RoundToEven(v)
	if r == 0 {
		r = 0 // drop negative zero
	}

	return strconv.FormatFloat(r, 'f', 0, 64)
}

// Mean averages the values, returning NaN for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}

	var sum float64
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

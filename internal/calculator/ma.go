package calculator

import (
	"math"

	"StockAnalyzer/internal/model"
)

// SMA computes the trailing simple moving average. Positions with fewer than
// window observations, or whose window contains an undefined input, are
// undefined.
func SMA(values model.Series, window int) model.Series {
	out := model.NewSeries(len(values))
	if window <= 0 {
		return out
	}
	for i := window - 1; i < len(values); i++ {
		sum := 0.0
		for j := i - window + 1; j <= i; j++ {
			sum += values[j]
		}
		if math.IsNaN(sum) {
			continue
		}
		out[i] = sum / float64(window)
	}
	return out
}

// EMA computes the exponential moving average with alpha = 2/(span+1),
// renormalized by the total weight seen so far. It keeps a running weighted
// average rather than separate sums, so a run of equal inputs yields exactly
// that value. Undefined inputs decay the existing weight without
// contributing; the output stays undefined until the first observation.
func EMA(values model.Series, span int) model.Series {
	out := model.NewSeries(len(values))
	if span <= 0 {
		return out
	}
	decay := 1 - 2/float64(span+1)
	avg, weight := model.Undefined, 0.0
	for i, v := range values {
		switch {
		case math.IsNaN(avg):
			if !math.IsNaN(v) {
				avg, weight = v, 1
			}
		case math.IsNaN(v):
			weight *= decay
		default:
			weight *= decay
			if avg != v {
				avg = (weight*avg + v) / (weight + 1)
			}
			weight++
		}
		out[i] = avg
	}
	return out
}

// PctChange returns the period-over-period fractional change. Position 0 is
// undefined.
func PctChange(values model.Series) model.Series {
	out := model.NewSeries(len(values))
	for i := 1; i < len(values); i++ {
		out[i] = values[i]/values[i-1] - 1
	}
	return out
}

package calculator

import (
	"math"

	"StockAnalyzer/internal/model"
)

// RollingStd computes the trailing sample standard deviation (n-1
// denominator). A window of identical values yields exactly zero.
func RollingStd(values model.Series, window int) model.Series {
	out := model.NewSeries(len(values))
	if window < 2 {
		return out
	}
	for i := window - 1; i < len(values); i++ {
		w := values[i-window+1 : i+1]
		out[i] = sampleStd(w)
	}
	return out
}

func sampleStd(w []float64) float64 {
	if len(w) < 2 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range w {
		if math.IsNaN(v) {
			return math.NaN()
		}
		sum += v
	}
	if isFlat(w) {
		return 0
	}
	mean := sum / float64(len(w))
	ss := 0.0
	for _, v := range w {
		ss += (v - mean) * (v - mean)
	}
	return math.Sqrt(ss / float64(len(w)-1))
}

// Bollinger returns the upper, middle and lower bands plus the band width
// as a percentage of the middle band.
func Bollinger(closes model.Series, window int, numStd float64) (upper, middle, lower, width model.Series) {
	middle = SMA(closes, window)
	std := RollingStd(closes, window)
	n := len(closes)
	upper, lower, width = model.NewSeries(n), model.NewSeries(n), model.NewSeries(n)
	for i := 0; i < n; i++ {
		upper[i] = middle[i] + numStd*std[i]
		lower[i] = middle[i] - numStd*std[i]
		width[i] = (upper[i] - lower[i]) / middle[i] * 100
	}
	return upper, middle, lower, width
}

// TrueRange is undefined at position 0, which has no previous close.
func TrueRange(highs, lows, closes model.Series) model.Series {
	out := model.NewSeries(len(closes))
	for i := 1; i < len(closes); i++ {
		prev := closes[i-1]
		out[i] = math.Max(highs[i]-lows[i], math.Max(math.Abs(highs[i]-prev), math.Abs(lows[i]-prev)))
	}
	return out
}

// ATR is the simple moving average of the true range, so it is first
// defined at position window.
func ATR(highs, lows, closes model.Series, window int) model.Series {
	return SMA(TrueRange(highs, lows, closes), window)
}

// CCI computes the commodity channel index from the typical price and its
// rolling mean absolute deviation. A zero deviation yields an undefined or
// infinite value.
func CCI(highs, lows, closes model.Series, window int) model.Series {
	n := len(closes)
	tp := model.NewSeries(n)
	for i := range closes {
		tp[i] = (highs[i] + lows[i] + closes[i]) / 3
	}
	out := model.NewSeries(n)
	if window <= 0 {
		return out
	}
	mean := SMA(tp, window)
	for i := window - 1; i < n; i++ {
		m, ok := mean.At(i)
		if !ok {
			continue
		}
		w := tp[i-window+1 : i+1]
		if isFlat(w) {
			// zero deviation: 0/0
			continue
		}
		mad := 0.0
		for _, v := range w {
			mad += math.Abs(v - m)
		}
		mad /= float64(window)
		out[i] = (tp[i] - m) / (0.015 * mad)
	}
	return out
}

func isFlat(w []float64) bool {
	for _, v := range w {
		if v != w[0] {
			return false
		}
	}
	return true
}

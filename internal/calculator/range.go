package calculator

import (
	"github.com/markcheno/go-talib"

	"StockAnalyzer/internal/model"
)

// RollingMax returns the highest value over each trailing window. Positions
// before the window fills are undefined.
func RollingMax(values model.Series, window int) model.Series {
	return rollingExtreme(values, window, talib.Max)
}

// RollingMin returns the lowest value over each trailing window. Positions
// before the window fills are undefined.
func RollingMin(values model.Series, window int) model.Series {
	return rollingExtreme(values, window, talib.Min)
}

func rollingExtreme(values model.Series, window int, fn func([]float64, int) []float64) model.Series {
	n := len(values)
	out := model.NewSeries(n)
	if window <= 0 || n < window {
		return out
	}
	if window == 1 {
		copy(out, values)
		return out
	}
	raw := fn(values, window)
	copy(out[window-1:], raw[window-1:])
	return out
}

// Stochastic computes %K over kWindow and %D as the dWindow SMA of %K.
// A flat high-low range yields an undefined %K.
func Stochastic(highs, lows, closes model.Series, kWindow, dWindow int) (k, d model.Series) {
	hh := RollingMax(highs, kWindow)
	ll := RollingMin(lows, kWindow)
	k = model.NewSeries(len(closes))
	for i := range closes {
		k[i] = 100 * (closes[i] - ll[i]) / (hh[i] - ll[i])
	}
	return k, SMA(k, dWindow)
}

// WilliamsR computes Williams %R in [-100, 0].
func WilliamsR(highs, lows, closes model.Series, window int) model.Series {
	hh := RollingMax(highs, window)
	ll := RollingMin(lows, window)
	out := model.NewSeries(len(closes))
	for i := range closes {
		out[i] = -100 * (hh[i] - closes[i]) / (hh[i] - ll[i])
	}
	return out
}

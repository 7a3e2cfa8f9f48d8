package calculator

import "StockAnalyzer/internal/model"

// RSI computes the relative strength index over simple rolling means of gains
// and losses. The first delta counts as zero and the means need only one
// observation, so the result is defined from position 0. A window with no
// losses yields 100.
func RSI(closes model.Series, window int) model.Series {
	n := len(closes)
	out := model.NewSeries(n)
	if window <= 0 || n == 0 {
		return out
	}

	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gains[i] = d
		} else if d < 0 {
			losses[i] = -d
		}
	}

	for i := 0; i < n; i++ {
		start := max(0, i-window+1)
		var g, l float64
		for j := start; j <= i; j++ {
			g += gains[j]
			l += losses[j]
		}
		cnt := float64(i - start + 1)
		avgGain, avgLoss := g/cnt, l/cnt
		if avgLoss == 0 {
			out[i] = 100
			continue
		}
		rs := avgGain / avgLoss
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

// MACD returns the MACD line, its signal line and the histogram.
func MACD(closes model.Series, fast, slow, signal int) (line, sig, hist model.Series) {
	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)
	line = model.NewSeries(len(closes))
	for i := range closes {
		line[i] = emaFast[i] - emaSlow[i]
	}
	sig = EMA(line, signal)
	hist = model.NewSeries(len(closes))
	for i := range closes {
		hist[i] = line[i] - sig[i]
	}
	return line, sig, hist
}

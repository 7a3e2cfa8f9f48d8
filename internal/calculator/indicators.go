package calculator

import (
	"fmt"

	"StockAnalyzer/internal/config"
	"StockAnalyzer/internal/model"
)

// ComputeAll derives every indicator column from bars. The input is never
// modified. It returns one warning per lookback window longer than the
// series; those columns stay undefined where history is missing.
func ComputeAll(symbol string, bars []model.OHLCV, p config.Analysis) (*model.AugmentedSeries, []string, error) {
	aug := model.NewAugmentedSeries(symbol, bars)
	ps := model.PriceSeries{Symbol: symbol, Bars: aug.Bars}
	closes, highs, lows := ps.Closes(), ps.Highs(), ps.Lows()

	cols := map[string]model.Series{
		model.ColSMA10:  SMA(closes, 10),
		model.ColSMA20:  SMA(closes, 20),
		model.ColSMA50:  SMA(closes, 50),
		model.ColSMA200: SMA(closes, 200),
		model.ColEMA12:  EMA(closes, 12),
		model.ColEMA26:  EMA(closes, 26),
		model.ColEMA50:  EMA(closes, 50),
		model.ColRSI:    RSI(closes, p.RSIWindow),
	}

	cols[model.ColMACD], cols[model.ColMACDSignal], cols[model.ColMACDHistogram] =
		MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)
	cols[model.ColBBUpper], cols[model.ColBBMiddle], cols[model.ColBBLower], cols[model.ColBBWidth] =
		Bollinger(closes, p.BBWindow, p.BBStd)
	cols[model.ColStochK], cols[model.ColStochD] = Stochastic(highs, lows, closes, p.StochK, p.StochD)
	cols[model.ColWilliamsR] = WilliamsR(highs, lows, closes, p.WilliamsWindow)
	cols[model.ColATR] = ATR(highs, lows, closes, p.ATRWindow)
	cols[model.ColCCI] = CCI(highs, lows, closes, p.CCIWindow)
	cols[model.ColReturns] = PctChange(closes)

	for name, s := range cols {
		if err := aug.Set(name, s); err != nil {
			return nil, nil, fmt.Errorf("set %s: %w", name, err)
		}
	}
	return aug, historyWarnings(len(bars), p), nil
}

// BBPosition is where the close sits inside the Bollinger bands, 0 at the
// lower band and 1 at the upper band.
func BBPosition(aug *model.AugmentedSeries) model.Series {
	closes := aug.Closes()
	upper, lower := aug.Col(model.ColBBUpper), aug.Col(model.ColBBLower)
	out := model.NewSeries(len(closes))
	for i := range closes {
		out[i] = (closes[i] - lower[i]) / (upper[i] - lower[i])
	}
	return out
}

func historyWarnings(n int, p config.Analysis) []string {
	lookbacks := []struct {
		name   string
		window int
	}{
		{model.ColSMA200, 200},
		{model.ColSMA50, 50},
		{model.ColSMA20, 20},
		{model.ColMACDSignal, p.MACDSlow},
		{model.ColBBMiddle, p.BBWindow},
		{model.ColStochD, p.StochK + p.StochD - 1},
		{model.ColWilliamsR, p.WilliamsWindow},
		{model.ColATR, p.ATRWindow + 1},
		{model.ColCCI, p.CCIWindow},
	}
	var out []string
	for _, lb := range lookbacks {
		if n < lb.window {
			out = append(out, fmt.Sprintf("insufficient history for %s: need %d bars, have %d", lb.name, lb.window, n))
		}
	}
	return out
}

package strategy

import (
	"StockAnalyzer/internal/config"
	"StockAnalyzer/internal/model"
)

// step gives a rule guarded access to the current and previous bar.
type step struct {
	cols  map[string]model.Series
	i     int
	close model.Series
	bbPos model.Series
}

func (s step) cur(name string) (float64, bool)  { return s.col(name).At(s.i) }
func (s step) prev(name string) (float64, bool) { return s.col(name).At(s.i - 1) }

func (s step) col(name string) model.Series {
	switch name {
	case colClose:
		return s.close
	case colBBPosition:
		return s.bbPos
	}
	return s.cols[name]
}

const (
	colClose      = "Close"
	colBBPosition = "BB_Position"
)

// crossUp reports whether a moved strictly above b at this step after being
// at or below it at the previous step. Any undefined operand means no cross.
func (s step) crossUp(a, b string) bool {
	a0, ok1 := s.cur(a)
	b0, ok2 := s.cur(b)
	a1, ok3 := s.prev(a)
	b1, ok4 := s.prev(b)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return false
	}
	return a0 > b0 && a1 <= b1
}

func (s step) crossDown(a, b string) bool {
	a0, ok1 := s.cur(a)
	b0, ok2 := s.cur(b)
	a1, ok3 := s.prev(a)
	b1, ok4 := s.prev(b)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return false
	}
	return a0 < b0 && a1 >= b1
}

// rule scores one indicator family. At most one side fires per step.
type rule func(s step, p config.Analysis) (delta int, reason string)

var rules = []rule{
	scoreRSI,
	scoreMACD,
	scoreBollinger,
	scoreStochastic,
	scoreWilliams,
	scoreCCI,
	scoreSMA20,
	scoreGoldenCross,
}

func scoreRSI(s step, p config.Analysis) (int, string) {
	v, ok := s.cur(model.ColRSI)
	switch {
	case !ok:
		return 0, ""
	case v < p.RSIOversold:
		return 2, "RSI Oversold"
	case v > p.RSIOverbought:
		return -2, "RSI Overbought"
	}
	return 0, ""
}

func scoreMACD(s step, _ config.Analysis) (int, string) {
	switch {
	case s.crossUp(model.ColMACD, model.ColMACDSignal):
		return 3, "MACD Bullish Crossover"
	case s.crossDown(model.ColMACD, model.ColMACDSignal):
		return -3, "MACD Bearish Crossover"
	}
	return 0, ""
}

func scoreBollinger(s step, _ config.Analysis) (int, string) {
	v, ok := s.cur(colBBPosition)
	switch {
	case !ok:
		return 0, ""
	case v < 0.1:
		return 2, "Below BB Lower Band"
	case v > 0.9:
		return -2, "Above BB Upper Band"
	}
	return 0, ""
}

func scoreStochastic(s step, _ config.Analysis) (int, string) {
	k, ok1 := s.cur(model.ColStochK)
	d, ok2 := s.cur(model.ColStochD)
	if !ok1 || !ok2 {
		return 0, ""
	}
	switch {
	case k < 20 && d < 20 && s.crossUp(model.ColStochK, model.ColStochD):
		return 2, "Stochastic Bullish Crossover"
	case k > 80 && d > 80 && s.crossDown(model.ColStochK, model.ColStochD):
		return -2, "Stochastic Bearish Crossover"
	}
	return 0, ""
}

func scoreWilliams(s step, _ config.Analysis) (int, string) {
	v, ok := s.cur(model.ColWilliamsR)
	switch {
	case !ok:
		return 0, ""
	case v < -80:
		return 1, "Williams %R Oversold"
	case v > -20:
		return -1, "Williams %R Overbought"
	}
	return 0, ""
}

func scoreCCI(s step, _ config.Analysis) (int, string) {
	v, ok := s.cur(model.ColCCI)
	switch {
	case !ok:
		return 0, ""
	case v < -100:
		return 1, "CCI Oversold"
	case v > 100:
		return -1, "CCI Overbought"
	}
	return 0, ""
}

func scoreSMA20(s step, _ config.Analysis) (int, string) {
	switch {
	case s.crossUp(colClose, model.ColSMA20):
		return 1, "Price Above SMA20"
	case s.crossDown(colClose, model.ColSMA20):
		return -1, "Price Below SMA20"
	}
	return 0, ""
}

func scoreGoldenCross(s step, _ config.Analysis) (int, string) {
	switch {
	case s.crossUp(model.ColSMA50, model.ColSMA200):
		return 4, "Golden Cross"
	case s.crossDown(model.ColSMA50, model.ColSMA200):
		return -4, "Death Cross"
	}
	return 0, ""
}

package risk

import (
	"errors"
	"math"
	"sort"

	"StockAnalyzer/internal/model"
)

const (
	// TradingDays annualizes per-bar statistics.
	TradingDays = 252

	stopATRMultiple   = 2.0
	targetATRMultiple = 3.0
	atrFallbackPct    = 0.02
	maxPositionPct    = 0.1

	// RiskFreeRate is the annual rate subtracted in SharpeRatio.
	RiskFreeRate = 0.02
	// VaRLevel is the tail quantile used by ValueAtRisk.
	VaRLevel = 0.05
)

// ErrZeroStopDistance is returned when the stop sits on the entry price.
var ErrZeroStopDistance = errors.New("stop distance is zero")

// Compute derives the risk snapshot from the final bar of aug. Values that
// cannot be computed hold model.Undefined.
func Compute(aug *model.AugmentedSeries, balance, riskPerTrade float64) model.RiskSnapshot {
	snap := model.RiskSnapshot{
		Price:           model.Undefined,
		ATR:             model.Undefined,
		StopLoss:        model.Undefined,
		TakeProfit:      model.Undefined,
		RiskRewardRatio: model.Undefined,
		PositionSize:    model.Undefined,
		MaxDrawdown:     model.Undefined,
		Volatility:      model.Undefined,
	}
	n := aug.Len()
	if n == 0 {
		return snap
	}

	price := aug.Bars[n-1].Close
	atr, ok := aug.Col(model.ColATR).At(n - 1)
	if !ok {
		atr = price * atrFallbackPct
	}

	snap.Price = price
	snap.ATR = atr
	snap.StopLoss = price - stopATRMultiple*atr
	snap.TakeProfit = price + targetATRMultiple*atr

	stopDist := math.Abs(price - snap.StopLoss)
	if stopDist != 0 {
		snap.RiskRewardRatio = math.Abs(snap.TakeProfit-price) / stopDist
	}
	if size, err := PositionSize(balance, riskPerTrade, stopDist/price); err == nil {
		snap.PositionSize = size
	}

	closes := aug.Closes()
	snap.MaxDrawdown = MaxDrawdown(closes)
	snap.Volatility = Volatility(aug.Col(model.ColReturns))
	return snap
}

// PositionSize sizes a position so that hitting the stop loses
// balance*riskPerTrade, capped at 10% of the balance.
func PositionSize(balance, riskPerTrade, stopLossPct float64) (float64, error) {
	if stopLossPct == 0 || !model.IsDefined(stopLossPct) {
		return model.Undefined, ErrZeroStopDistance
	}
	return math.Min(balance*riskPerTrade/stopLossPct, balance*maxPositionPct), nil
}

// MaxDrawdown is the deepest decline from the running peak close, as a
// non-positive fraction.
func MaxDrawdown(closes model.Series) float64 {
	if len(closes) == 0 {
		return model.Undefined
	}
	peak := math.Inf(-1)
	worst := 0.0
	for _, c := range closes {
		if !model.IsDefined(c) {
			continue
		}
		if c > peak {
			peak = c
		}
		if dd := (c - peak) / peak; dd < worst {
			worst = dd
		}
	}
	return worst
}

// Volatility annualizes the sample standard deviation of returns. Undefined
// returns are skipped; fewer than two usable returns yields Undefined.
func Volatility(returns model.Series) float64 {
	return stdDev(defined(returns)) * math.Sqrt(TradingDays)
}

// SharpeRatio is the annualized mean excess return over its volatility.
func SharpeRatio(returns model.Series, riskFree float64) float64 {
	r := defined(returns)
	sd := stdDev(r)
	if len(r) == 0 || sd == 0 {
		return model.Undefined
	}
	daily := riskFree / TradingDays
	sum := 0.0
	for _, v := range r {
		sum += v - daily
	}
	return math.Sqrt(TradingDays) * (sum / float64(len(r))) / sd
}

// ValueAtRisk is the level-quantile of returns with linear interpolation
// between order statistics.
func ValueAtRisk(returns model.Series, level float64) float64 {
	r := defined(returns)
	if len(r) == 0 {
		return model.Undefined
	}
	sort.Float64s(r)
	pos := level * float64(len(r)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return r[lo] + (r[hi]-r[lo])*frac
}

func defined(s model.Series) []float64 {
	out := make([]float64, 0, len(s))
	for i := range s {
		if v, ok := s.At(i); ok {
			out = append(out, v)
		}
	}
	return out
}

func stdDev(v []float64) float64 {
	if len(v) < 2 {
		return model.Undefined
	}
	mean := 0.0
	for _, x := range v {
		mean += x
	}
	mean /= float64(len(v))
	ss := 0.0
	for _, x := range v {
		ss += (x - mean) * (x - mean)
	}
	return math.Sqrt(ss / float64(len(v)-1))
}

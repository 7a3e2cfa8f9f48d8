package strategy

import (
	"math"

	"StockAnalyzer/internal/calculator"
	"StockAnalyzer/internal/config"
	"StockAnalyzer/internal/model"
)

// SnapshotColumns are the indicator values recorded on every signal.
var SnapshotColumns = []string{
	model.ColRSI,
	model.ColMACD,
	model.ColMACDSignal,
	colBBPosition,
	model.ColStochK,
	model.ColWilliamsR,
	model.ColCCI,
}

// Strength maps a rule score to its bucket: min(|score|, 6)/2, with Weak up
// to 1.5 and Moderate up to 2.5.
func Strength(score int) model.SignalStrength {
	v := math.Min(math.Abs(float64(score)), 6) / 2
	switch {
	case v <= 1.5:
		return model.Weak
	case v <= 2.5:
		return model.Moderate
	default:
		return model.Strong
	}
}

// Confidence is |score|/8 clamped to [0, 1].
func Confidence(score int) float64 {
	return math.Min(math.Abs(float64(score))/8, 1)
}

// Score evaluates every rule at position i. i must be at least 1.
func Score(aug *model.AugmentedSeries, i int, p config.Analysis) (int, []string) {
	return scoreStep(newStep(aug, calculator.BBPosition(aug), i), p)
}

func newStep(aug *model.AugmentedSeries, bbPos model.Series, i int) step {
	cols := make(map[string]model.Series, len(aug.Columns()))
	for _, name := range aug.Columns() {
		cols[name] = aug.Col(name)
	}
	return step{cols: cols, i: i, close: aug.Closes(), bbPos: bbPos}
}

func scoreStep(s step, p config.Analysis) (int, []string) {
	score := 0
	var reasons []string
	for _, r := range rules {
		delta, reason := r(s, p)
		if delta == 0 {
			continue
		}
		score += delta
		reasons = append(reasons, reason)
	}
	return score, reasons
}

// GenerateSignals scans from the warm-up offset to the last bar and emits a
// signal wherever |score| reaches the configured minimum. A zero score is
// always a hold, whatever the minimum. The result is in bar order.
func GenerateSignals(aug *model.AugmentedSeries, p config.Analysis) []model.TradingSignal {
	start := max(p.SignalWarmup, 1)
	if aug.Len() <= start {
		return nil
	}
	minStrength := max(p.MinSignalStrength, 1)

	s := newStep(aug, calculator.BBPosition(aug), 0)
	var signals []model.TradingSignal
	for i := start; i < aug.Len(); i++ {
		s.i = i
		score, reasons := scoreStep(s, p)
		if abs(score) < minStrength {
			continue
		}
		typ := model.Sell
		if score > 0 {
			typ = model.Buy
		}
		signals = append(signals, model.TradingSignal{
			Time:       aug.Bars[i].Time,
			Type:       typ,
			Strength:   Strength(score),
			Price:      aug.Bars[i].Close,
			Score:      score,
			Indicators: snapshot(s),
			Reasons:    reasons,
			Confidence: Confidence(score),
		})
	}
	return signals
}

func snapshot(s step) map[string]float64 {
	out := make(map[string]float64, len(SnapshotColumns))
	for _, name := range SnapshotColumns {
		if v, ok := s.cur(name); ok {
			out[name] = v
		}
	}
	return out
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

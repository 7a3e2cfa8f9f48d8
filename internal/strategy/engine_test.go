package strategy

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockAnalyzer/internal/config"
	"StockAnalyzer/internal/model"
)

func newAug(t *testing.T, n int, cols map[string]model.Series) *model.AugmentedSeries {
	t.Helper()
	bars := make([]model.OHLCV, n)
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		bars[i] = model.OHLCV{Time: start.AddDate(0, 0, i), Open: 100, High: 100, Low: 100, Close: 100}
	}
	aug := model.NewAugmentedSeries("TEST", bars)
	for name, s := range cols {
		require.NoError(t, aug.Set(name, s))
	}
	return aug
}

func constant(n int, v float64) model.Series {
	s := make(model.Series, n)
	for i := range s {
		s[i] = v
	}
	return s
}

func switchAt(n, at int, before, after float64) model.Series {
	s := constant(n, before)
	for i := at; i < n; i++ {
		s[i] = after
	}
	return s
}

func TestStrength(t *testing.T) {
	tests := []struct {
		score int
		want  model.SignalStrength
	}{
		{1, model.Weak},
		{2, model.Weak},
		{3, model.Weak},
		{-3, model.Weak},
		{4, model.Moderate},
		{5, model.Moderate},
		{-5, model.Moderate},
		{6, model.Strong},
		{14, model.Strong},
		{-9, model.Strong},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Strength(tt.score), "score %d", tt.score)
	}
}

func TestConfidence(t *testing.T) {
	assert.Equal(t, 0.25, Confidence(2))
	assert.Equal(t, 0.5, Confidence(-4))
	assert.Equal(t, 1.0, Confidence(8))
	assert.Equal(t, 1.0, Confidence(-17))
}

func TestGoldenCrossFiresOnlyAtTransition(t *testing.T) {
	const n, at = 120, 80
	aug := newAug(t, n, map[string]model.Series{
		model.ColSMA50:  switchAt(n, at, 90, 110),
		model.ColSMA200: constant(n, 100),
	})
	p := config.DefaultAnalysis()

	for i := 1; i < n; i++ {
		score, reasons := Score(aug, i, p)
		if i == at {
			assert.Equal(t, 4, score)
			assert.Equal(t, []string{"Golden Cross"}, reasons)
			continue
		}
		assert.Zero(t, score, "step %d", i)
		assert.Empty(t, reasons, "step %d", i)
	}

	signals := GenerateSignals(aug, p)
	require.Len(t, signals, 1)
	sig := signals[0]
	assert.Equal(t, aug.Bars[at].Time, sig.Time)
	assert.Equal(t, model.Buy, sig.Type)
	assert.Equal(t, model.Moderate, sig.Strength)
	assert.Equal(t, 0.5, sig.Confidence)
	assert.Equal(t, 100.0, sig.Price)
}

func TestDeathCross(t *testing.T) {
	const n, at = 100, 70
	aug := newAug(t, n, map[string]model.Series{
		model.ColSMA50:  switchAt(n, at, 110, 90),
		model.ColSMA200: constant(n, 100),
	})
	signals := GenerateSignals(aug, config.DefaultAnalysis())
	require.Len(t, signals, 1)
	assert.Equal(t, model.Sell, signals[0].Type)
	assert.Equal(t, -4, signals[0].Score)
	assert.Equal(t, []string{"Death Cross"}, signals[0].Reasons)
}

func TestCrossNeedsDefinedOperands(t *testing.T) {
	const n, at = 100, 70
	sma200 := constant(n, 100)
	sma200[at-1] = model.Undefined
	aug := newAug(t, n, map[string]model.Series{
		model.ColSMA50:  switchAt(n, at, 90, 110),
		model.ColSMA200: sma200,
	})
	assert.Empty(t, GenerateSignals(aug, config.DefaultAnalysis()))
}

func TestInfiniteValuesNeverMatch(t *testing.T) {
	const n = 60
	aug := newAug(t, n, map[string]model.Series{
		model.ColRSI:       constant(n, math.Inf(-1)),
		model.ColCCI:       constant(n, math.Inf(1)),
		model.ColWilliamsR: constant(n, math.Inf(-1)),
	})
	assert.Empty(t, GenerateSignals(aug, config.DefaultAnalysis()))
}

func TestWarmupOffset(t *testing.T) {
	const n, at = 100, 30
	aug := newAug(t, n, map[string]model.Series{
		model.ColSMA50:  switchAt(n, at, 90, 110),
		model.ColSMA200: constant(n, 100),
	})
	p := config.DefaultAnalysis()
	assert.Empty(t, GenerateSignals(aug, p), "cross before bar 50 is not scanned")

	p.SignalWarmup = 10
	require.Len(t, GenerateSignals(aug, p), 1)
}

func TestRulesAccumulateInOrder(t *testing.T) {
	const n, at = 80, 60
	aug := newAug(t, n, map[string]model.Series{
		model.ColRSI:        constant(n, 25),
		model.ColMACD:       switchAt(n, at, -1, 1),
		model.ColMACDSignal: constant(n, 0),
		model.ColStochK:     switchAt(n, at, 10, 15),
		model.ColStochD:     switchAt(n, at, 12, 14),
		model.ColWilliamsR:  constant(n, -90),
		model.ColCCI:        constant(n, -150),
	})
	score, reasons := Score(aug, at, config.DefaultAnalysis())
	assert.Equal(t, 2+3+2+1+1, score)
	assert.Equal(t, []string{
		"RSI Oversold",
		"MACD Bullish Crossover",
		"Stochastic Bullish Crossover",
		"Williams %R Oversold",
		"CCI Oversold",
	}, reasons)

	signals := GenerateSignals(aug, config.DefaultAnalysis())
	// RSI, Williams and CCI alone score 4 on every other bar
	require.Len(t, signals, n-50)
	for _, s := range signals {
		assert.Equal(t, model.Buy, s.Type)
	}
	got := signals[at-50]
	assert.Equal(t, model.Strong, got.Strength)
	assert.Equal(t, 1.0, got.Confidence)
	assert.Equal(t, 25.0, got.Indicators[model.ColRSI])
	assert.Equal(t, 15.0, got.Indicators[model.ColStochK])
	assert.NotContains(t, got.Indicators, "BB_Position")
}

func TestBelowMinimumStrengthIsHold(t *testing.T) {
	const n = 60
	aug := newAug(t, n, map[string]model.Series{
		model.ColWilliamsR: constant(n, -95),
	})
	assert.Empty(t, GenerateSignals(aug, config.DefaultAnalysis()))

	p := config.DefaultAnalysis()
	p.MinSignalStrength = 1
	signals := GenerateSignals(aug, p)
	require.Len(t, signals, n-50)
	assert.Equal(t, model.Weak, signals[0].Strength)
}

func TestZeroScoreIsHoldEvenWithoutMinimum(t *testing.T) {
	const n = 80
	aug := newAug(t, n, map[string]model.Series{
		model.ColRSI: constant(n, 50),
	})
	p := config.DefaultAnalysis()
	p.MinSignalStrength = 0
	assert.Empty(t, GenerateSignals(aug, p))

	p.MinSignalStrength = -3
	assert.Empty(t, GenerateSignals(aug, p))
}

func TestSignalsAscending(t *testing.T) {
	const n = 90
	aug := newAug(t, n, map[string]model.Series{model.ColRSI: constant(n, 90)})
	signals := GenerateSignals(aug, config.DefaultAnalysis())
	require.NotEmpty(t, signals)
	for i := 1; i < len(signals); i++ {
		assert.True(t, signals[i].Time.After(signals[i-1].Time))
	}
}

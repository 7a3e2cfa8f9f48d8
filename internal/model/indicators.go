package model

import (
	"fmt"
	"math"
)

// Undefined marks a position whose rolling window has not warmed up, or
// whose value came out of a degenerate division. Never compare it directly;
// read positions through Series.At.
var Undefined = math.NaN()

// Indicator column names.
const (
	ColSMA10         = "SMA_10"
	ColSMA20         = "SMA_20"
	ColSMA50         = "SMA_50"
	ColSMA200        = "SMA_200"
	ColEMA12         = "EMA_12"
	ColEMA26         = "EMA_26"
	ColEMA50         = "EMA_50"
	ColRSI           = "RSI"
	ColMACD          = "MACD"
	ColMACDSignal    = "MACD_Signal"
	ColMACDHistogram = "MACD_Histogram"
	ColBBUpper       = "BB_Upper"
	ColBBMiddle      = "BB_Middle"
	ColBBLower       = "BB_Lower"
	ColBBWidth       = "BB_Width"
	ColStochK        = "Stoch_K"
	ColStochD        = "Stoch_D"
	ColWilliamsR     = "Williams_R"
	ColATR           = "ATR"
	ColCCI           = "CCI"
	ColReturns       = "Returns"
)

// Series is a numeric column aligned one-to-one with a bar sequence.
type Series []float64

// NewSeries returns a series of length n with every position undefined.
func NewSeries(n int) Series {
	s := make(Series, n)
	for i := range s {
		s[i] = Undefined
	}
	return s
}

// At returns the value at i and whether it is usable. Out-of-range
// positions, NaN and ±Inf all report ok=false.
func (s Series) At(i int) (float64, bool) {
	if i < 0 || i >= len(s) {
		return 0, false
	}
	v := s[i]
	return v, IsDefined(v)
}

// Last returns the final value of the series.
func (s Series) Last() (float64, bool) { return s.At(len(s) - 1) }

// IsDefined reports whether v is a finite number.
func IsDefined(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// FirstDefined returns the index of the first usable value, or -1.
func (s Series) FirstDefined() int {
	for i := range s {
		if _, ok := s.At(i); ok {
			return i
		}
	}
	return -1
}

// AugmentedSeries is a price series plus its derived indicator columns.
type AugmentedSeries struct {
	Symbol  string
	Bars    []OHLCV
	columns map[string]Series
}

// NewAugmentedSeries wraps bars with an empty column set. The bars slice is
// copied so later column writes never alias the caller's data.
func NewAugmentedSeries(symbol string, bars []OHLCV) *AugmentedSeries {
	cp := make([]OHLCV, len(bars))
	copy(cp, bars)
	return &AugmentedSeries{Symbol: symbol, Bars: cp, columns: make(map[string]Series)}
}

// Len returns the number of bars.
func (a *AugmentedSeries) Len() int { return len(a.Bars) }

// Set stores a column. The column must have exactly one entry per bar.
func (a *AugmentedSeries) Set(name string, s Series) error {
	if len(s) != len(a.Bars) {
		return fmt.Errorf("column %s has %d values, want %d", name, len(s), len(a.Bars))
	}
	a.columns[name] = s
	return nil
}

// Col returns the named column, or an all-undefined column if it is missing.
func (a *AugmentedSeries) Col(name string) Series {
	if s, ok := a.columns[name]; ok {
		return s
	}
	return NewSeries(len(a.Bars))
}

// Has reports whether the named column was computed.
func (a *AugmentedSeries) Has(name string) bool {
	_, ok := a.columns[name]
	return ok
}

// Columns returns the computed column names.
func (a *AugmentedSeries) Columns() []string {
	names := make([]string, 0, len(a.columns))
	for n := range a.columns {
		names = append(names, n)
	}
	return names
}

// Closes extracts the close column.
func (a *AugmentedSeries) Closes() Series {
	return column(a.Bars, func(b OHLCV) float64 { return b.Close })
}

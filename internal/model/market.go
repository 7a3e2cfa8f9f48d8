package model

import "time"

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// PriceSeries holds one symbol's bars in strictly increasing time order.
type PriceSeries struct {
	Symbol    string
	Period    string
	Bars      []OHLCV
	FetchedAt time.Time
}

// Len returns the number of bars.
func (p *PriceSeries) Len() int { return len(p.Bars) }

// Last returns the final bar. It panics on an empty series.
func (p *PriceSeries) Last() OHLCV { return p.Bars[len(p.Bars)-1] }

// Closes extracts the close column.
func (p *PriceSeries) Closes() Series { return column(p.Bars, func(b OHLCV) float64 { return b.Close }) }

// Highs extracts the high column.
func (p *PriceSeries) Highs() Series { return column(p.Bars, func(b OHLCV) float64 { return b.High }) }

// Lows extracts the low column.
func (p *PriceSeries) Lows() Series { return column(p.Bars, func(b OHLCV) float64 { return b.Low }) }

func column(bars []OHLCV, pick func(OHLCV) float64) Series {
	out := make(Series, len(bars))
	for i, b := range bars {
		out[i] = pick(b)
	}
	return out
}

// Package analysis composes the indicator, signal and risk engines into one
// run over a price series.
package analysis

import (
	"errors"
	"fmt"

	"StockAnalyzer/internal/calculator"
	"StockAnalyzer/internal/config"
	"StockAnalyzer/internal/model"
	"StockAnalyzer/internal/risk"
	"StockAnalyzer/internal/strategy"
)

// ErrDataUnavailable means there was no price series to analyse.
var ErrDataUnavailable = errors.New("data unavailable")

// Result is everything one run produces. It is never modified after Run
// returns it.
type Result struct {
	Symbol   string
	Period   string
	Series   *model.AugmentedSeries
	Signals  []model.TradingSignal
	Risk     model.RiskSnapshot
	Balance  float64
	Params   config.Analysis
	Warnings []string
}

// LatestSignal returns the most recent signal, or nil.
func (r *Result) LatestSignal() *model.TradingSignal {
	if len(r.Signals) == 0 {
		return nil
	}
	return &r.Signals[len(r.Signals)-1]
}

// ComputeIndicators validates the inputs and derives every indicator column.
func ComputeIndicators(series *model.PriceSeries, p config.Analysis) (*model.AugmentedSeries, []string, error) {
	if series == nil || series.Len() == 0 {
		return nil, nil, ErrDataUnavailable
	}
	if err := p.Validate(); err != nil {
		return nil, nil, err
	}
	aug, warnings, err := calculator.ComputeAll(series.Symbol, series.Bars, p)
	if err != nil {
		return nil, nil, fmt.Errorf("compute indicators: %w", err)
	}
	return aug, warnings, nil
}

// GenerateSignals scores the augmented series.
func GenerateSignals(aug *model.AugmentedSeries, p config.Analysis) []model.TradingSignal {
	return strategy.GenerateSignals(aug, p)
}

// ComputeRisk sizes a position for balance from the final bar.
func ComputeRisk(aug *model.AugmentedSeries, balance float64, p config.Analysis) model.RiskSnapshot {
	return risk.Compute(aug, balance, p.RiskPerTrade)
}

// Run executes the full pipeline. A non-zero balance overrides
// p.AccountBalance and is validated with the rest of p.
func Run(series *model.PriceSeries, p config.Analysis, balance float64) (*Result, error) {
	if balance != 0 {
		p.AccountBalance = balance
	}
	aug, warnings, err := ComputeIndicators(series, p)
	if err != nil {
		return nil, err
	}
	return &Result{
		Symbol:   series.Symbol,
		Period:   series.Period,
		Series:   aug,
		Signals:  GenerateSignals(aug, p),
		Risk:     ComputeRisk(aug, p.AccountBalance, p),
		Balance:  p.AccountBalance,
		Params:   p,
		Warnings: warnings,
	}, nil
}

package collector

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"StockAnalyzer/internal/model"
)

// Collector fetches bars and hands the analysis core a validated series.
type Collector struct {
	Fetcher Fetcher
	Now     func() time.Time
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher) *Collector {
	return &Collector{Fetcher: fetcher, Now: time.Now}
}

// Collect fetches symbol over period and returns bars that are sorted,
// duplicate-free and free of non-positive or non-finite prices. An empty
// result is ErrNoData; any other fetch failure wraps ErrUpstream.
func (c *Collector) Collect(ctx context.Context, symbol, period string) (*model.PriceSeries, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("%w: empty symbol", ErrNoData)
	}
	if !ValidPeriod(period) {
		return nil, fmt.Errorf("%w: %q (want one of %s)", ErrInvalidPeriod, period, strings.Join(Periods, ", "))
	}

	raw, err := c.Fetcher.FetchBars(ctx, symbol, period)
	if err != nil {
		if errors.Is(err, ErrNoData) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrUpstream, c.Fetcher.Name(), err)
	}

	bars := Clean(raw)
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w for %s over %s", ErrNoData, symbol, period)
	}
	return &model.PriceSeries{
		Symbol:    symbol,
		Period:    period,
		Bars:      bars,
		FetchedAt: c.Now(),
	}, nil
}

// Clean drops unusable bars, sorts by time and keeps the last bar of any
// duplicated timestamp. The input is not modified.
func Clean(raw []model.OHLCV) []model.OHLCV {
	bars := make([]model.OHLCV, 0, len(raw))
	for _, b := range raw {
		if !usable(b) {
			continue
		}
		bars = append(bars, b)
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })

	out := bars[:0]
	for _, b := range bars {
		if n := len(out); n > 0 && out[n-1].Time.Equal(b.Time) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}

func usable(b model.OHLCV) bool {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close} {
		if !model.IsDefined(v) || v <= 0 {
			return false
		}
	}
	return !b.Time.IsZero()
}

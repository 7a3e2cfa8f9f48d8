package collector

import (
	"context"
	"errors"
	"time"

	"StockAnalyzer/internal/model"
)

var (
	// ErrNoData means the source returned no usable bars for the symbol.
	ErrNoData = errors.New("no price data")
	// ErrUpstream wraps transport and decoding failures of a data source.
	ErrUpstream = errors.New("data source failure")
	// ErrInvalidPeriod rejects lookback periods the sources do not serve.
	ErrInvalidPeriod = errors.New("invalid period")
)

// Periods lists the supported lookback ranges.
var Periods = []string{"1mo", "3mo", "6mo", "1y", "2y", "5y", "10y", "ytd", "max"}

// ValidPeriod reports whether p is one of Periods.
func ValidPeriod(p string) bool {
	for _, v := range Periods {
		if v == p {
			return true
		}
	}
	return false
}

// Fetcher defines the interface for fetching daily bars over a period.
type Fetcher interface {
	FetchBars(ctx context.Context, symbol, period string) ([]model.OHLCV, error)
	Name() string
}

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	Bars  []model.OHLCV
	Err   error
	Calls int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(_ context.Context, _ string, period string) ([]model.OHLCV, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Bars != nil {
		return m.Bars, nil
	}
	return GenerateMockBars(m.Price, periodDays(period)), nil
}

// GenerateMockBars builds count daily bars drifting gently around basePrice.
func GenerateMockBars(basePrice float64, count int) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	end := time.Now().UTC().Truncate(24 * time.Hour)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   end.AddDate(0, 0, -(count - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// periodDays approximates the number of trading days in a period.
func periodDays(period string) int {
	switch period {
	case "1mo":
		return 21
	case "3mo":
		return 63
	case "6mo":
		return 126
	case "2y":
		return 504
	case "5y":
		return 1260
	case "10y", "max":
		return 2520
	case "ytd":
		return time.Now().YearDay() * 252 / 365
	default:
		return 252
	}
}

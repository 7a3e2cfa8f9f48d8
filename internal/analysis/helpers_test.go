package analysis

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"StockAnalyzer/internal/model"
)

var epoch = time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)

// seriesFromCloses uses each close as its own high and low.
func seriesFromCloses(symbol string, closes []float64) *model.PriceSeries {
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = model.OHLCV{Time: epoch.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1000}
	}
	return &model.PriceSeries{Symbol: symbol, Period: "1y", Bars: bars}
}

func linearCloses(n int, from, to float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = from + (to-from)*float64(i)/float64(n-1)
	}
	return out
}

func flatCloses(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func randomWalkSeries(n int, seed int64) *model.PriceSeries {
	r := rand.New(rand.NewSource(seed))
	bars := make([]model.OHLCV, n)
	p := 100.0
	for i := range bars {
		p *= 1 + (r.Float64()-0.5)*0.05
		spread := p * 0.01 * r.Float64()
		bars[i] = model.OHLCV{Time: epoch.AddDate(0, 0, i), Open: p, High: p + spread, Low: p - spread, Close: p, Volume: 500}
	}
	return &model.PriceSeries{Symbol: "RAND", Period: "2y", Bars: bars}
}

// sameBits compares floats bit for bit so undefined positions match.
func sameBits(t *testing.T, label string, a, b []float64) {
	t.Helper()
	if !assert.Equal(t, len(a), len(b), label) {
		return
	}
	for i := range a {
		if math.Float64bits(a[i]) != math.Float64bits(b[i]) {
			t.Errorf("%s[%d]: %v != %v", label, i, a[i], b[i])
			return
		}
	}
}

package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockAnalyzer/internal/collector"
	"StockAnalyzer/internal/config"
	"StockAnalyzer/internal/metrics"
	"StockAnalyzer/internal/model"
	"StockAnalyzer/internal/recorder"
)

// risingBars is a steady uptrend: RSI pins at 100 so the last bar always
// scores as a sell.
func risingBars(n int) []model.OHLCV {
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, n)
	for i := range bars {
		c := 100 + float64(i)
		bars[i] = model.OHLCV{Time: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1000}
	}
	return bars
}

type fakeSender struct {
	mu   sync.Mutex
	msgs []string
	err  error
}

func (f *fakeSender) SendWithRetry(_ context.Context, text string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, text)
	return nil
}

type fakePublisher struct {
	symbols []string
	runIDs  []string
}

func (f *fakePublisher) PublishSignal(_ context.Context, runID, symbol string, _ *model.TradingSignal) error {
	f.symbols = append(f.symbols, symbol)
	f.runIDs = append(f.runIDs, runID)
	return nil
}

type fakeRecorder struct {
	records []*recorder.AnalysisRecord
	err     error
}

func (f *fakeRecorder) RecordAnalysis(rec *recorder.AnalysisRecord) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeRecorder) Close() error { return nil }

func newTestScheduler(t *testing.T, fetcher collector.Fetcher, watchlist ...string) (*Scheduler, *fakeSender, *fakePublisher, *fakeRecorder) {
	t.Helper()
	rec := &fakeRecorder{}
	s := NewScheduler(context.Background(), collector.NewCollector(fetcher), config.DefaultAnalysis(), watchlist, rec)
	sender, pub := &fakeSender{}, &fakePublisher{}
	s.Notifier = sender
	s.Publisher = pub
	s.Metrics = metrics.NewMetrics(prometheus.NewRegistry())
	return s, sender, pub, rec
}

func TestRunNow_AlertsOncePerSignal(t *testing.T) {
	fetcher := &collector.MockFetcher{Bars: risingBars(120)}
	s, sender, pub, rec := newTestScheduler(t, fetcher, "AAPL", "MSFT")

	s.RunNow()
	require.Len(t, rec.records, 2)
	assert.Equal(t, "AAPL", rec.records[0].Symbol)
	assert.NotEmpty(t, rec.records[0].RunID)
	assert.NotEqual(t, rec.records[0].RunID, rec.records[1].RunID)

	require.Len(t, sender.msgs, 2)
	assert.Contains(t, sender.msgs[0], "SELL AAPL")
	assert.Equal(t, []string{"AAPL", "MSFT"}, pub.symbols)
	assert.Equal(t, rec.records[0].RunID, pub.runIDs[0])

	// same latest signal: recorded again, not re-alerted
	s.RunNow()
	assert.Len(t, rec.records, 4)
	assert.Len(t, sender.msgs, 2)
	assert.Len(t, pub.symbols, 2)

	// a newer bar produces a newer signal
	fetcher.Bars = risingBars(121)
	s.RunNow()
	assert.Len(t, sender.msgs, 4)
}

func TestRunNow_FailuresDoNotStopWatchlist(t *testing.T) {
	fetcher := &collector.MockFetcher{Err: errors.New("timeout")}
	s, sender, _, rec := newTestScheduler(t, fetcher, "AAPL", "MSFT")

	s.RunNow()
	assert.Equal(t, 2, fetcher.Calls)
	assert.Empty(t, rec.records)
	assert.Empty(t, sender.msgs)
}

func TestRunNow_RecordAndSendErrorsAreLogged(t *testing.T) {
	s, sender, pub, rec := newTestScheduler(t, &collector.MockFetcher{Bars: risingBars(80)}, "AAPL")
	rec.err = errors.New("disk full")
	sender.err = errors.New("telegram down")

	s.RunNow()
	assert.Equal(t, []string{"AAPL"}, pub.symbols)
}

func TestRunNow_UndeliveredSignalIsRetried(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alert_state.json")
	s, sender, _, _ := newTestScheduler(t, &collector.MockFetcher{Bars: risingBars(80)}, "AAPL")
	s.Publisher = nil
	require.NoError(t, s.RestoreState(path))
	sender.err = errors.New("telegram down")

	s.RunNow()
	assert.Empty(t, sender.msgs)
	saved, err := LoadState(path)
	require.NoError(t, err)
	assert.NotContains(t, saved.LastAlerted, "AAPL")

	sender.err = nil
	s.RunNow()
	require.Len(t, sender.msgs, 1)
	assert.Contains(t, sender.msgs[0], "SELL AAPL")
	saved, err = LoadState(path)
	require.NoError(t, err)
	assert.Contains(t, saved.LastAlerted, "AAPL")

	s.RunNow()
	assert.Len(t, sender.msgs, 1)
}

func TestRunNow_NoChannelsStillMarksAlerted(t *testing.T) {
	s, _, _, _ := newTestScheduler(t, &collector.MockFetcher{Bars: risingBars(80)}, "AAPL")
	s.Notifier, s.Publisher = nil, nil

	s.RunNow()
	assert.False(t, s.isNewer("AAPL", risingBars(80)[79].Time))
}

func TestRunNow_StopsOnCancelledContext(t *testing.T) {
	fetcher := &collector.MockFetcher{Bars: risingBars(80)}
	s, _, _, _ := newTestScheduler(t, fetcher, "AAPL")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Ctx = ctx

	s.RunNow()
	assert.Zero(t, fetcher.Calls)
}

func TestMarkAlerted(t *testing.T) {
	s := NewScheduler(context.Background(), nil, config.DefaultAnalysis(), nil, nil)
	day := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	assert.True(t, s.markAlerted("AAPL", day))
	assert.False(t, s.markAlerted("AAPL", day))
	assert.False(t, s.markAlerted("AAPL", day.AddDate(0, 0, -1)))
	assert.True(t, s.markAlerted("MSFT", day))
	assert.True(t, s.markAlerted("AAPL", day.AddDate(0, 0, 1)))
}

func TestRegister(t *testing.T) {
	s := NewScheduler(context.Background(), nil, config.DefaultAnalysis(), nil, nil)
	require.NoError(t, s.Register("0 0 22 * * 1-5"))
	assert.Len(t, s.Cron.Entries(), 1)
	assert.Error(t, s.Register("not a cron spec"))
}

func TestHandleCommand(t *testing.T) {
	s, _, _, _ := newTestScheduler(t, &collector.MockFetcher{Bars: risingBars(120)})
	ctx := context.Background()

	reply := s.HandleCommand(ctx, "/analyze aapl 6mo")
	assert.Contains(t, reply, "<b>AAPL</b>")
	assert.Contains(t, reply, "RSI: 100.00 (Overbought)")

	assert.Contains(t, s.HandleCommand(ctx, "/analyze"), "Usage")
	assert.Contains(t, s.HandleCommand(ctx, "/help"), "/analyze SYMBOL [PERIOD]")
	assert.Contains(t, s.HandleCommand(ctx, "  "), "/analyze SYMBOL [PERIOD]")

	reply = s.HandleCommand(ctx, "/analyze AAPL 7d")
	assert.True(t, strings.HasPrefix(reply, "❌ Invalid request"), reply)
}

func TestHandleCommand_NoData(t *testing.T) {
	s, _, _, _ := newTestScheduler(t, &collector.MockFetcher{Bars: []model.OHLCV{}})
	assert.Equal(t, "❌ No data found for XYZ", s.HandleCommand(context.Background(), "/analyze xyz"))
}

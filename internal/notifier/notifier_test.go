package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockAnalyzer/internal/analysis"
	"StockAnalyzer/internal/model"
)

func ptr(v float64) *float64 { return &v }

func sampleReport() *analysis.Report {
	rep := &analysis.Report{
		Symbol:       "AAPL",
		CurrentPrice: 187.25,
		Date:         "2024-03-01",
		TechnicalIndicators: analysis.TechnicalIndicators{
			RSI: ptr(27.4), RSISignal: "Oversold", MACD: ptr(-1.2), MACDSignal: ptr(-0.8), MACDTrend: "Bearish",
		},
		TrendAnalysis: analysis.TrendAnalysis{ShortTerm: "Bearish", MediumTerm: "Bullish", LongTerm: "Unknown"},
		LatestSignal: &analysis.SignalSummary{
			Date: "2024-03-01", Type: "BUY", Strength: "MODERATE", Confidence: "37.5%",
			Reasons: []string{"RSI Oversold", "Below BB Lower Band"},
		},
		RiskManagement: analysis.RiskManagement{
			StopLoss:        decimal.NewNullDecimal(decimal.NewFromFloat(180.5)),
			TakeProfit:      decimal.NewNullDecimal(decimal.NewFromFloat(197.38)),
			RiskRewardRatio: "1:1.5",
			Volatility:      "1.8%",
			MaxDrawdown:     "-12.0%",
		},
		Warnings: []string{"insufficient history for SMA_200: need 200 bars, have 120"},
	}
	return rep
}

func TestFormatSignalAlert(t *testing.T) {
	msg := FormatSignalAlert(sampleReport())
	assert.Contains(t, msg, "<b>BUY AAPL</b>")
	assert.Contains(t, msg, "MODERATE (confidence 37.5%)")
	assert.Contains(t, msg, "• RSI Oversold")
	assert.Contains(t, msg, "Stop loss: 180.50 | Take profit: 197.38")
	assert.Contains(t, msg, "Position size: N/A")

	rep := sampleReport()
	rep.RiskManagement.PositionSize = decimal.NewNullDecimal(decimal.NewFromInt(2000))
	msg = FormatSignalAlert(rep)
	assert.Contains(t, msg, "Position size: 2000.00 (account currency)")
	assert.NotContains(t, msg, "shares")

	rep.LatestSignal = nil
	assert.Empty(t, FormatSignalAlert(rep))
}

func TestFormatReport(t *testing.T) {
	msg := FormatReport(sampleReport())
	assert.Contains(t, msg, "RSI: 27.40 (Oversold)")
	assert.Contains(t, msg, "Stoch %K/%D: N/A / N/A")
	assert.Contains(t, msg, "long Unknown")
	assert.Contains(t, msg, "Latest signal: MODERATE BUY")
	assert.Contains(t, msg, "insufficient history for SMA_200")

	rep := sampleReport()
	rep.LatestSignal = nil
	assert.Contains(t, FormatReport(rep), "No signals in this period")
}

func TestFormatHelp(t *testing.T) {
	assert.Contains(t, FormatHelp(), "/analyze SYMBOL [PERIOD]")
}

func TestTelegramSend(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tg := NewTelegramNotifier("TOKEN", "42", "")
	tg.APIBase = srv.URL
	require.NoError(t, tg.Send(context.Background(), "<b>hi</b>"))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "HTML", got["parse_mode"])
	assert.Equal(t, "<b>hi</b>", got["text"])
}

func TestTelegramSendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	}))
	defer srv.Close()

	tg := NewTelegramNotifier("TOKEN", "42", "")
	tg.APIBase = srv.URL
	err := tg.Send(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, err.Error(), "chat not found")
}

func TestTelegramRetry(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tg := NewTelegramNotifier("TOKEN", "42", "")
	tg.APIBase = srv.URL
	require.NoError(t, tg.sendWithBackoff(context.Background(), "x", 3, time.Millisecond))
	assert.Equal(t, 3, calls)

	calls = 0
	err := tg.sendWithBackoff(context.Background(), "x", 1, time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 2 retries exhausted")
}

func TestTelegramPoll(t *testing.T) {
	var sent []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			assert.Equal(t, "7", r.URL.Query().Get("offset"))
			w.Write([]byte(`{"ok":true,"result":[
				{"update_id":7,"message":{"text":" /help "}},
				{"update_id":8},
				{"update_id":9,"message":{"text":"/noop"}}
			]}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			body, _ := io.ReadAll(r.Body)
			sent = append(sent, string(body))
			w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer srv.Close()

	tg := NewTelegramNotifier("TOKEN", "42", "")
	tg.APIBase = srv.URL

	var commands []string
	handler := func(_ context.Context, cmd string) string {
		commands = append(commands, cmd)
		if cmd == "/help" {
			return "help text"
		}
		return ""
	}

	next, err := tg.poll(context.Background(), srv.Client(), 7, handler)
	require.NoError(t, err)
	assert.Equal(t, 10, next)
	assert.Equal(t, []string{"/help", "/noop"}, commands)
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], "help text")
}

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublishSignal(t *testing.T) {
	w := &fakeWriter{}
	p := NewKafkaPublisherWithWriter(w, "trading-signals")

	sig := &model.TradingSignal{
		Time:       time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Type:       model.Sell,
		Strength:   model.Strong,
		Price:      101.5,
		Score:      -6,
		Indicators: map[string]float64{"RSI": 81},
		Reasons:    []string{"RSI Overbought"},
		Confidence: 0.75,
	}
	require.NoError(t, p.PublishSignal(context.Background(), "run-1", "MSFT", sig))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "MSFT", string(w.msgs[0].Key))

	var event map[string]any
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &event))
	assert.Equal(t, EventSignalEmitted, event["event_type"])
	assert.Equal(t, "run-1", event["run_id"])
	signal := event["signal"].(map[string]any)
	assert.Equal(t, "SELL", signal["type"])
	assert.Equal(t, "STRONG", signal["strength"])

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublishError(t *testing.T) {
	p := NewKafkaPublisherWithWriter(&fakeWriter{err: errors.New("broker down")}, "t")
	err := p.PublishSignal(context.Background(), "", "MSFT", &model.TradingSignal{Type: model.Buy, Strength: model.Weak})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"StockAnalyzer/internal/collector"
	"StockAnalyzer/internal/config"
	"StockAnalyzer/internal/logger"
	"StockAnalyzer/internal/metrics"
	"StockAnalyzer/internal/model"
)

// Source supplies validated price series. *collector.Collector implements it.
type Source interface {
	Collect(ctx context.Context, symbol, period string) (*model.PriceSeries, error)
}

// Session runs one analysis at a time and keeps only the latest result.
// It is not safe for concurrent use; hosts create one per request.
type Session struct {
	Source  Source
	Params  config.Analysis
	Log     *slog.Logger
	Metrics *metrics.Metrics

	result *Result
}

// NewSession creates a session over src with parameters p.
func NewSession(src Source, p config.Analysis, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	return &Session{Source: src, Params: p, Log: log}
}

// Analyze fetches symbol over period and runs the pipeline. An empty period
// uses the configured default; a zero balance uses the configured account
// balance. The previous result is replaced only on success.
func (s *Session) Analyze(ctx context.Context, symbol, period string, balance float64) (*Result, error) {
	start := time.Now()
	if logger.RunID(ctx) == "" {
		ctx = logger.WithRunID(ctx, logger.NewRunID())
	}
	if period == "" {
		period = s.Params.DefaultPeriod
	}
	log := s.Log.With(logger.Attrs(ctx)...).With("symbol", symbol, "period", period)

	res, err := s.analyze(ctx, symbol, period, balance)
	s.observe(start, res, err)
	if err != nil {
		log.Error("analysis failed", "error", err)
		return nil, err
	}

	for _, w := range res.Warnings {
		log.Warn("insufficient history", "detail", w)
	}
	log.Info("analysis complete",
		"bars", res.Series.Len(),
		"signals", len(res.Signals),
		"elapsed", time.Since(start))
	s.result = res
	return res, nil
}

func (s *Session) analyze(ctx context.Context, symbol, period string, balance float64) (*Result, error) {
	p := s.Params
	if balance != 0 {
		p.AccountBalance = balance
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	series, err := s.Source.Collect(ctx, symbol, period)
	if err != nil {
		if errors.Is(err, collector.ErrNoData) {
			return nil, fmt.Errorf("%w: %w", ErrDataUnavailable, err)
		}
		return nil, fmt.Errorf("collect %s: %w", symbol, err)
	}
	return Run(series, s.Params, balance)
}

// Result returns the latest successful result, or nil.
func (s *Session) Result() *Result { return s.result }

func (s *Session) observe(start time.Time, res *Result, err error) {
	if s.Metrics == nil {
		return
	}
	s.Metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
	s.Metrics.AnalysesTotal.WithLabelValues(Status(err)).Inc()
	if res == nil {
		return
	}
	s.Metrics.BarsAnalysed.Observe(float64(res.Series.Len()))
	for _, sig := range res.Signals {
		s.Metrics.SignalsTotal.WithLabelValues(sig.Type.String(), sig.Strength.String()).Inc()
	}
}

// Status classifies an Analyze error for metrics and logs.
func Status(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrDataUnavailable):
		return "no_data"
	case errors.Is(err, config.ErrInvalidConfig), errors.Is(err, collector.ErrInvalidPeriod):
		return "invalid"
	case errors.Is(err, collector.ErrUpstream):
		return "upstream"
	default:
		return "error"
	}
}

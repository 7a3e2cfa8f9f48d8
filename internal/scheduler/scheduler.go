package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"StockAnalyzer/internal/analysis"
	"StockAnalyzer/internal/collector"
	"StockAnalyzer/internal/config"
	"StockAnalyzer/internal/logger"
	"StockAnalyzer/internal/metrics"
	"StockAnalyzer/internal/model"
	"StockAnalyzer/internal/notifier"
	"StockAnalyzer/internal/recorder"
)

// Sender delivers formatted alerts. *notifier.TelegramNotifier implements it.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Publisher emits signal events. *notifier.KafkaPublisher implements it.
type Publisher interface {
	PublishSignal(ctx context.Context, runID, symbol string, sig *model.TradingSignal) error
}

// Scheduler runs the watchlist analysis on a cron schedule and answers
// chat commands.
type Scheduler struct {
	Cron      *cron.Cron
	Source    analysis.Source
	Params    config.Analysis
	Watchlist []string
	Period    string
	Notifier  Sender    // optional
	Publisher Publisher // optional
	Recorder  recorder.Recorder
	Metrics   *metrics.Metrics
	Log       *slog.Logger
	Ctx       context.Context

	mu          sync.Mutex
	lastAlerted map[string]time.Time
	stateFile   string
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, src analysis.Source, p config.Analysis, watchlist []string, rec recorder.Recorder) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:        cron.New(cron.WithSeconds()),
		Source:      src,
		Params:      p,
		Watchlist:   watchlist,
		Period:      p.DefaultPeriod,
		Recorder:    rec,
		Log:         slog.Default(),
		Ctx:         ctx,
		lastAlerted: make(map[string]time.Time),
	}
}

// Register adds the watchlist job under spec (six-field cron with seconds).
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.RunNow); err != nil {
		return fmt.Errorf("register watchlist task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Log.Info("scheduler started", "watchlist", s.Watchlist)
}

// Stop stops the cron scheduler and waits for a running job.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Log.Info("scheduler stopped")
}

// RunNow analyses every watchlist symbol once. A failing symbol does not
// stop the rest.
func (s *Scheduler) RunNow() {
	s.Log.Info("running watchlist task", "symbols", len(s.Watchlist))
	for _, symbol := range s.Watchlist {
		if s.Ctx.Err() != nil {
			return
		}
		if err := s.analyzeSymbol(symbol); err != nil {
			s.Log.Error("watchlist analysis failed", "symbol", symbol, "status", analysis.Status(err), "error", err)
		}
	}
}

func (s *Scheduler) analyzeSymbol(symbol string) error {
	runID := logger.NewRunID()
	ctx := logger.WithRunID(s.Ctx, runID)

	sess := analysis.NewSession(s.Source, s.Params, s.Log)
	sess.Metrics = s.Metrics
	res, err := sess.Analyze(ctx, symbol, s.Period, 0)
	if err != nil {
		return err
	}

	if err := s.Recorder.RecordAnalysis(recorder.NewAnalysisRecord(runID, res)); err != nil {
		s.Log.Error("record analysis failed", "run_id", runID, "error", err)
		if s.Metrics != nil {
			s.Metrics.RecordErrors.Inc()
		}
	}

	latest := res.LatestSignal()
	if latest == nil || !s.isNewer(res.Symbol, latest.Time) {
		return nil
	}
	// An undelivered signal stays unmarked so the next run retries it.
	if s.alert(ctx, runID, res, latest) {
		s.markAlerted(res.Symbol, latest.Time)
	}
	return nil
}

// isNewer reports whether t is after the last alerted signal for symbol.
func (s *Scheduler) isNewer(symbol string, t time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.lastAlerted[symbol]
	return !ok || t.After(prev)
}

// markAlerted records t as the newest alerted signal for symbol and reports
// whether it was newer than the previous one.
func (s *Scheduler) markAlerted(symbol string, t time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.lastAlerted[symbol]; ok && !t.After(prev) {
		return false
	}
	s.lastAlerted[symbol] = t
	if s.stateFile != "" {
		if err := SaveState(s.stateFile, &AlertState{LastAlerted: s.lastAlerted}); err != nil {
			s.Log.Error("save alert state failed", "path", s.stateFile, "error", err)
		}
	}
	return true
}

// alert delivers sig on every configured channel and reports whether at
// least one accepted it. With no channels configured there is nothing to
// retry, so that counts as delivered.
func (s *Scheduler) alert(ctx context.Context, runID string, res *analysis.Result, sig *model.TradingSignal) bool {
	log := s.Log.With(logger.Attrs(ctx)...).With("symbol", res.Symbol)

	delivered := s.Notifier == nil && s.Publisher == nil
	if s.Notifier != nil {
		msg := notifier.FormatSignalAlert(analysis.BuildReport(res))
		if err := s.Notifier.SendWithRetry(ctx, msg, 3); err != nil {
			log.Error("send notification failed", "error", err)
		} else {
			s.countAlert("telegram")
			delivered = true
		}
	}
	if s.Publisher != nil {
		if err := s.Publisher.PublishSignal(ctx, runID, res.Symbol, sig); err != nil {
			log.Error("publish signal failed", "error", err)
		} else {
			s.countAlert("kafka")
			delivered = true
		}
	}
	if !delivered {
		log.Warn("signal not delivered, will retry next run", "date", sig.Time.Format("2006-01-02"))
		return false
	}
	log.Info("signal alerted", "type", sig.Type.String(), "strength", sig.Strength.String(), "date", sig.Time.Format("2006-01-02"))
	return true
}

func (s *Scheduler) countAlert(channel string) {
	if s.Metrics != nil {
		s.Metrics.AlertsSent.WithLabelValues(channel).Inc()
	}
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}

	switch fields[0] {
	case "/analyze":
		if len(fields) < 2 {
			return "Usage: /analyze SYMBOL [PERIOD]"
		}
		period := s.Period
		if len(fields) > 2 {
			period = fields[2]
		}
		return s.analyzeCommand(ctx, fields[1], period)
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) analyzeCommand(ctx context.Context, symbol, period string) string {
	sess := analysis.NewSession(s.Source, s.Params, s.Log)
	sess.Metrics = s.Metrics
	res, err := sess.Analyze(ctx, symbol, period, 0)
	if err != nil {
		switch analysis.Status(err) {
		case "no_data":
			return fmt.Sprintf("❌ No data found for %s", strings.ToUpper(symbol))
		case "invalid":
			return fmt.Sprintf("❌ Invalid request: %v\nPeriods: %s", err, strings.Join(collector.Periods, ", "))
		default:
			return fmt.Sprintf("❌ Analysis failed for %s: %v", strings.ToUpper(symbol), err)
		}
	}
	return notifier.FormatReport(analysis.BuildReport(res))
}

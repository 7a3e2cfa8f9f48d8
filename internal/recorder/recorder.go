package recorder

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"StockAnalyzer/internal/analysis"
	"StockAnalyzer/internal/model"
)

// AnalysisRecord is one persisted analysis run with its signals.
type AnalysisRecord struct {
	RunID     string
	Symbol    string
	Period    string
	CreatedAt time.Time
	Bars      int
	LastBar   time.Time
	LastClose float64
	Balance   float64
	Risk      model.RiskSnapshot
	Signals   []model.TradingSignal
	Warnings  []string
}

// NewAnalysisRecord captures res under runID.
func NewAnalysisRecord(runID string, res *analysis.Result) *AnalysisRecord {
	rec := &AnalysisRecord{
		RunID:     runID,
		Symbol:    res.Symbol,
		Period:    res.Period,
		CreatedAt: time.Now().UTC(),
		Bars:      res.Series.Len(),
		Balance:   res.Balance,
		Risk:      res.Risk,
		Signals:   res.Signals,
		Warnings:  res.Warnings,
	}
	if n := res.Series.Len(); n > 0 {
		rec.LastBar = res.Series.Bars[n-1].Time
		rec.LastClose = res.Series.Bars[n-1].Close
	}
	return rec
}

// Recorder persists analysis history.
type Recorder interface {
	RecordAnalysis(rec *AnalysisRecord) error
	Close() error
}

// nullable maps undefined values to SQL NULL.
func nullable(v float64) sql.NullFloat64 {
	if !model.IsDefined(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func indicatorsJSON(m map[string]float64) string {
	data, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func joinReasons(r []string) string { return strings.Join(r, "; ") }

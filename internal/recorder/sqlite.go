package recorder

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists analysis history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while the scheduler writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	slog.Info("sqlite recorder opened", "path", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS analysis_runs (
			run_id          TEXT PRIMARY KEY,
			symbol          TEXT NOT NULL,
			period          TEXT NOT NULL,
			created_at      INTEGER NOT NULL,
			bars            INTEGER NOT NULL,
			last_bar        INTEGER,
			last_close      REAL,
			balance         REAL,
			stop_loss       REAL,
			take_profit     REAL,
			risk_reward     REAL,
			position_size   REAL,
			max_drawdown    REAL,
			volatility      REAL,
			signal_count    INTEGER NOT NULL,
			warnings        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_symbol_ts ON analysis_runs(symbol, created_at)`,

		`CREATE TABLE IF NOT EXISTS signals (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL REFERENCES analysis_runs(run_id),
			timestamp   INTEGER NOT NULL,
			signal_type TEXT NOT NULL,
			strength    TEXT NOT NULL,
			price       REAL,
			score       INTEGER,
			confidence  REAL,
			reasons     TEXT,
			indicators  TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_run ON signals(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordAnalysis(rec *AnalysisRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	rs := rec.Risk
	_, err = tx.Exec(`INSERT INTO analysis_runs
		(run_id, symbol, period, created_at, bars, last_bar, last_close, balance,
		 stop_loss, take_profit, risk_reward, position_size, max_drawdown, volatility,
		 signal_count, warnings)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Symbol, rec.Period, rec.CreatedAt.Unix(), rec.Bars, rec.LastBar.Unix(),
		nullable(rec.LastClose), nullable(rec.Balance),
		nullable(rs.StopLoss), nullable(rs.TakeProfit), nullable(rs.RiskRewardRatio),
		nullable(rs.PositionSize), nullable(rs.MaxDrawdown), nullable(rs.Volatility),
		len(rec.Signals), joinReasons(rec.Warnings),
	)
	if err != nil {
		return fmt.Errorf("insert analysis run: %w", err)
	}

	for _, s := range rec.Signals {
		_, err := tx.Exec(`INSERT INTO signals
			(run_id, timestamp, signal_type, strength, price, score, confidence, reasons, indicators)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.RunID, s.Time.Unix(), s.Type.String(), s.Strength.String(),
			nullable(s.Price), s.Score, s.Confidence, joinReasons(s.Reasons), indicatorsJSON(s.Indicators),
		)
		if err != nil {
			return fmt.Errorf("insert signal: %w", err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}

package recorder

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// PostgresRecorder persists analysis history to PostgreSQL.
type PostgresRecorder struct {
	conn *sql.DB
}

// NewPostgresRecorder connects to dsn and applies pending migrations.
func NewPostgresRecorder(dsn string) (*PostgresRecorder, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(conn); err != nil {
		conn.Close()
		return nil, err
	}

	slog.Info("postgres recorder opened")
	return &PostgresRecorder{conn: conn}, nil
}

func runMigrations(conn *sql.DB) error {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	driver, err := pgmigrate.WithInstance(conn, &pgmigrate.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (r *PostgresRecorder) RecordAnalysis(rec *AnalysisRecord) error {
	tx, err := r.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var lastBar sql.NullTime
	if !rec.LastBar.IsZero() {
		lastBar = sql.NullTime{Time: rec.LastBar, Valid: true}
	}

	rs := rec.Risk
	_, err = tx.Exec(`INSERT INTO analysis_runs
		(run_id, symbol, period, created_at, bars, last_bar, last_close, balance,
		 stop_loss, take_profit, risk_reward, position_size, max_drawdown, volatility,
		 signal_count, warnings)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		rec.RunID, rec.Symbol, rec.Period, rec.CreatedAt, rec.Bars, lastBar,
		nullable(rec.LastClose), nullable(rec.Balance),
		nullable(rs.StopLoss), nullable(rs.TakeProfit), nullable(rs.RiskRewardRatio),
		nullable(rs.PositionSize), nullable(rs.MaxDrawdown), nullable(rs.Volatility),
		len(rec.Signals), joinReasons(rec.Warnings),
	)
	if err != nil {
		return fmt.Errorf("failed to insert analysis run: %w", err)
	}

	for _, s := range rec.Signals {
		_, err := tx.Exec(`INSERT INTO signals
			(run_id, ts, signal_type, strength, price, score, confidence, reasons, indicators)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			rec.RunID, s.Time, s.Type.String(), s.Strength.String(),
			nullable(s.Price), s.Score, s.Confidence, joinReasons(s.Reasons), indicatorsJSON(s.Indicators),
		)
		if err != nil {
			return fmt.Errorf("failed to insert signal: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit analysis run: %w", err)
	}
	return nil
}

// SignalCount returns the number of signals stored for runID.
func (r *PostgresRecorder) SignalCount(runID string) (int, error) {
	var n int
	err := r.conn.QueryRow(`SELECT COUNT(*) FROM signals WHERE run_id = $1`, runID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count signals: %w", err)
	}
	return n, nil
}

func (r *PostgresRecorder) Close() error {
	return r.conn.Close()
}

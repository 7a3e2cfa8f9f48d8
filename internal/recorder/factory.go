package recorder

import (
	"fmt"
	"os"
	"path/filepath"

	"StockAnalyzer/internal/config"
)

// NewFromConfig opens the recorder selected by database.driver.
func NewFromConfig(cfg *config.Config) (Recorder, error) {
	db := cfg.Database
	switch db.Driver {
	case "none":
		return NewNoopRecorder(), nil
	case "sqlite", "":
		if dir := filepath.Dir(db.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create data dir: %w", err)
			}
		}
		return NewSQLiteRecorder(db.SQLitePath)
	case "postgres":
		return NewPostgresRecorder(db.PostgresDSN)
	default:
		return nil, fmt.Errorf("%w: unknown database.driver %q", config.ErrInvalidConfig, db.Driver)
	}
}

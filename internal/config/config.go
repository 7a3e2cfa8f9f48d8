package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Validate for out-of-range parameters.
var ErrInvalidConfig = errors.New("invalid config")

// Analysis holds every tunable of the indicator, signal and risk engines.
type Analysis struct {
	RSIWindow         int     `yaml:"rsi_window"`
	RSIOverbought     float64 `yaml:"rsi_overbought"`
	RSIOversold       float64 `yaml:"rsi_oversold"`
	MACDFast          int     `yaml:"macd_fast"`
	MACDSlow          int     `yaml:"macd_slow"`
	MACDSignal        int     `yaml:"macd_signal"`
	BBWindow          int     `yaml:"bb_window"`
	BBStd             float64 `yaml:"bb_std"`
	StochK            int     `yaml:"stoch_k"`
	StochD            int     `yaml:"stoch_d"`
	WilliamsWindow    int     `yaml:"williams_window"`
	ATRWindow         int     `yaml:"atr_window"`
	CCIWindow         int     `yaml:"cci_window"`
	SignalWarmup      int     `yaml:"signal_warmup"`
	MinSignalStrength int     `yaml:"min_signal_strength"`
	RiskPerTrade      float64 `yaml:"risk_per_trade"`
	AccountBalance    float64 `yaml:"account_balance"`
	DefaultPeriod     string  `yaml:"default_period"`
}

// DefaultAnalysis returns the stock parameter set.
func DefaultAnalysis() Analysis {
	return Analysis{
		RSIWindow:         14,
		RSIOverbought:     70,
		RSIOversold:       30,
		MACDFast:          12,
		MACDSlow:          26,
		MACDSignal:        9,
		BBWindow:          20,
		BBStd:             2.0,
		StochK:            14,
		StochD:            3,
		WilliamsWindow:    14,
		ATRWindow:         14,
		CCIWindow:         20,
		SignalWarmup:      50,
		MinSignalStrength: 2,
		RiskPerTrade:      0.02,
		AccountBalance:    100000,
		DefaultPeriod:     "1y",
	}
}

// Validate rejects parameter sets the engines cannot run with.
func (a Analysis) Validate() error {
	windows := []struct {
		name string
		v    int
	}{
		{"rsi_window", a.RSIWindow},
		{"macd_fast", a.MACDFast},
		{"macd_slow", a.MACDSlow},
		{"macd_signal", a.MACDSignal},
		{"bb_window", a.BBWindow},
		{"stoch_k", a.StochK},
		{"stoch_d", a.StochD},
		{"williams_window", a.WilliamsWindow},
		{"atr_window", a.ATRWindow},
		{"cci_window", a.CCIWindow},
	}
	for _, w := range windows {
		if w.v <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidConfig, w.name, w.v)
		}
	}
	if a.SignalWarmup < 1 {
		return fmt.Errorf("%w: signal_warmup must be at least 1, got %d", ErrInvalidConfig, a.SignalWarmup)
	}
	if a.BBStd <= 0 {
		return fmt.Errorf("%w: bb_std must be positive, got %g", ErrInvalidConfig, a.BBStd)
	}
	if a.RSIOversold < 0 || a.RSIOverbought > 100 || a.RSIOversold >= a.RSIOverbought {
		return fmt.Errorf("%w: need 0 <= rsi_oversold < rsi_overbought <= 100, got %g/%g",
			ErrInvalidConfig, a.RSIOversold, a.RSIOverbought)
	}
	if a.MinSignalStrength < 1 {
		return fmt.Errorf("%w: min_signal_strength must be at least 1, got %d", ErrInvalidConfig, a.MinSignalStrength)
	}
	if a.RiskPerTrade <= 0 || a.RiskPerTrade > 1 {
		return fmt.Errorf("%w: risk_per_trade must be in (0, 1], got %g", ErrInvalidConfig, a.RiskPerTrade)
	}
	if a.AccountBalance <= 0 {
		return fmt.Errorf("%w: account_balance must be positive, got %g", ErrInvalidConfig, a.AccountBalance)
	}
	return nil
}

// Config holds all application configuration.
type Config struct {
	Analysis   Analysis `yaml:"analysis"`
	DataSource struct {
		Provider string `yaml:"provider"`
		BaseURL  string `yaml:"base_url"`
		APIKey   string `yaml:"api_key"`
		Proxy    string `yaml:"proxy"`
	} `yaml:"data_source"`
	Cache struct {
		RedisAddr string        `yaml:"redis_addr"`
		TTL       time.Duration `yaml:"ttl"`
	} `yaml:"cache"`
	Database struct {
		Driver      string `yaml:"driver"`
		SQLitePath  string `yaml:"sqlite_path"`
		PostgresDSN string `yaml:"postgres_dsn"`
	} `yaml:"database"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Kafka struct {
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic"`
	} `yaml:"kafka"`
	Schedule struct {
		Cron      string   `yaml:"cron"`
		Watchlist []string `yaml:"watchlist"`
		StateFile string   `yaml:"state_file"`
	} `yaml:"schedule"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	LogLevel string `yaml:"log_level"`
}

// Load reads config from a YAML file, then applies .env and environment
// variable overrides, then fills defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{Analysis: DefaultAnalysis()}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("DATA_SOURCE_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("DATA_SOURCE_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATA_SOURCE_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.DataSource.Proxy = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.PostgresDSN = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		cfg.Kafka.Topic = v
	}
	if v := os.Getenv("CRON_SCHEDULE"); v != "" {
		cfg.Schedule.Cron = v
	}
	if v := os.Getenv("WATCHLIST"); v != "" {
		cfg.Schedule.Watchlist = strings.Split(v, ",")
	}
	if v := os.Getenv("ALERT_STATE_FILE"); v != "" {
		cfg.Schedule.StateFile = v
	}
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("ACCOUNT_BALANCE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Analysis.AccountBalance = f
		}
	}
	if v := os.Getenv("RISK_PER_TRADE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Analysis.RiskPerTrade = f
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Analysis.DefaultPeriod == "" {
		cfg.Analysis.DefaultPeriod = "1y"
	}
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = "yahoo"
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 15 * time.Minute
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/stock_analyzer.db"
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "trading-signals"
	}
	if cfg.Schedule.Cron == "" {
		cfg.Schedule.Cron = "0 0 22 * * 1-5"
	}
	if cfg.Schedule.StateFile == "" {
		cfg.Schedule.StateFile = "data/alert_state.json"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	for i, s := range cfg.Schedule.Watchlist {
		cfg.Schedule.Watchlist[i] = strings.ToUpper(strings.TrimSpace(s))
	}
}

// Validate checks the analysis parameters and the fields the configured
// backends depend on. Telegram and Kafka are optional.
func (c *Config) Validate() error {
	if err := c.Analysis.Validate(); err != nil {
		return err
	}
	switch c.DataSource.Provider {
	case "yahoo", "mock":
	case "rest":
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("%w: data_source.base_url is required for the rest provider", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown data_source.provider %q", ErrInvalidConfig, c.DataSource.Provider)
	}
	switch c.Database.Driver {
	case "sqlite", "none":
	case "postgres":
		if c.Database.PostgresDSN == "" {
			return fmt.Errorf("%w: database.postgres_dsn is required for the postgres driver", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown database.driver %q", ErrInvalidConfig, c.Database.Driver)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("%w: telegram.bot_token and telegram.chat_id must be set together", ErrInvalidConfig)
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"StockAnalyzer/internal/api"
	"StockAnalyzer/internal/collector"
	"StockAnalyzer/internal/config"
	"StockAnalyzer/internal/logger"
	"StockAnalyzer/internal/metrics"
	"StockAnalyzer/internal/notifier"
	"StockAnalyzer/internal/recorder"
	"StockAnalyzer/internal/scheduler"
)

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("config validation", "error", err)
		os.Exit(1)
	}

	log := logger.Init("stock-analyzer", cfg.LogLevel)
	log.Info("StockAnalyzer starting", "config", cfgPath)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init fetcher
	fetcher, closeCache, err := collector.NewFetcherFromConfig(ctx, cfg)
	if err != nil {
		log.Error("init fetcher", "error", err)
		os.Exit(1)
	}
	defer closeCache()
	log.Info("data source ready", "fetcher", fetcher.Name())
	col := collector.NewCollector(fetcher)

	// Init recorder
	rec, err := recorder.NewFromConfig(cfg)
	if err != nil {
		log.Warn("init recorder failed, using noop", "driver", cfg.Database.Driver, "error", err)
		rec = recorder.NewNoopRecorder()
	}
	defer rec.Close()

	m := metrics.NewMetrics(prometheus.NewRegistry())

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, col, cfg.Analysis, cfg.Schedule.Watchlist, rec)
	sched.Metrics = m
	sched.Log = log
	if err := sched.RestoreState(cfg.Schedule.StateFile); err != nil {
		log.Warn("restore alert state failed, starting fresh", "path", cfg.Schedule.StateFile, "error", err)
	}

	var tn *notifier.TelegramNotifier
	if cfg.Telegram.BotToken != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.DataSource.Proxy)
		sched.Notifier = tn
	}
	if len(cfg.Kafka.Brokers) > 0 {
		kp := notifier.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer kp.Close()
		sched.Publisher = kp
	}

	if len(cfg.Schedule.Watchlist) > 0 {
		if err := sched.Register(cfg.Schedule.Cron); err != nil {
			log.Error("register cron task", "error", err)
			os.Exit(1)
		}
		sched.Start()
		defer sched.Stop()

		// Optional: run immediately on start
		if os.Getenv("RUN_ON_START") == "true" {
			log.Info("RUN_ON_START enabled, analysing watchlist now")
			go sched.RunNow()
		}
	}

	// Start Telegram polling
	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info("telegram polling started")
	}

	// HTTP API
	handler := api.NewHandler(col, cfg.Analysis, m, log)
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.SetupRoutes(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("http server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server", "error", err)
			cancel()
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		log.Info("shutdown signal received, stopping")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", "error", err)
	}
	cancel()
	log.Info("StockAnalyzer stopped")
}

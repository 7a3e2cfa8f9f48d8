package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"StockAnalyzer/internal/analysis"
	"StockAnalyzer/internal/collector"
	"StockAnalyzer/internal/config"
	"StockAnalyzer/internal/logger"
)

func main() {
	symbol := flag.String("symbol", "", "ticker to analyse (required)")
	period := flag.String("period", "", "lookback period: 1mo 3mo 6mo 1y 2y 5y 10y ytd max")
	balance := flag.Float64("balance", 0, "account balance for position sizing (default from config)")
	chart := flag.Bool("chart", false, "print chart rows instead of the analysis report")
	cfgPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	if *symbol == "" {
		fmt.Fprintln(os.Stderr, "usage: analyze -symbol AAPL [-period 1y] [-balance 100000] [-chart]")
		os.Exit(2)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config validation: %v\n", err)
		os.Exit(1)
	}

	// Logs go to stderr so stdout stays valid JSON.
	log := logger.InitWriter(os.Stderr, "stock-analyzer-cli", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fetcher, closeCache, err := collector.NewFetcherFromConfig(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init fetcher: %v\n", err)
		os.Exit(1)
	}
	defer closeCache()

	sess := analysis.NewSession(collector.NewCollector(fetcher), cfg.Analysis, log)
	res, err := sess.Analyze(ctx, *symbol, *period, *balance)
	if err != nil {
		fmt.Fprintf(os.Stderr, "analysis failed (%s): %v\n", analysis.Status(err), err)
		os.Exit(1)
	}

	var out any = analysis.BuildReport(res)
	if *chart {
		out = analysis.ChartData(res.Series)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "encode output: %v\n", err)
		os.Exit(1)
	}
}

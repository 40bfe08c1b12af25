// Command sse_load opens many wallet stream subscribers against a running desk and,
// optionally, drives exchanges so the streams carry balance events.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

func main() {
	var cfg loadConfig

	flag.StringVar(&cfg.BaseURL, "url", "http://localhost:8080", "desk base URL")
	flag.IntVar(&cfg.Connections, "conns", 1000, "number of concurrent stream subscribers")
	flag.DurationVar(&cfg.Duration, "dur", 60*time.Second, "test duration (0 for until interrupted)")
	flag.DurationVar(&cfg.RampUp, "ramp", 0, "ramp-up duration (spread connection starts across this window)")
	flag.Float64Var(&cfg.ExchangesPerSec, "exchanges", 0, "USD to USDT exchanges per second driven during the test")
	flag.Parse()

	if cfg.Connections <= 0 {
		log.Fatalf("invalid conns: %d", cfg.Connections)
	}
	if cfg.RampUp == 0 && cfg.Connections > 100 {
		// 1 second per 500 connections
		cfg.RampUp = max(time.Duration(cfg.Connections/500)*time.Second, time.Second)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if cfg.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Duration)
		defer cancel()
	}

	start := time.Now()
	stats := run(ctx, cfg, logger)
	elapsed := max(time.Since(start), time.Millisecond)

	fmt.Printf("done: connected=%d connect_errs=%d stream_errs=%d events=%d exchanges=%d exchange_errs=%d elapsed=%s events/s=%.2f\n",
		stats.Connected.Load(), stats.ConnectErrs.Load(), stats.StreamErrs.Load(), stats.Events.Load(),
		stats.Exchanges.Load(), stats.ExchangeErrs.Load(),
		elapsed.Truncate(time.Millisecond), float64(stats.Events.Load())/elapsed.Seconds())
}

package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	streamPath  = "/api/wallets/stream"
	quotePath   = "/api/exchange/quote"
	executePath = "/api/exchange/execute"
	statusEvery = 5 * time.Second
)

type loadConfig struct {
	BaseURL         string
	Connections     int
	Duration        time.Duration
	RampUp          time.Duration
	ExchangesPerSec float64
}

type loadStats struct {
	Connected    atomic.Int64
	ConnectErrs  atomic.Int64
	StreamErrs   atomic.Int64
	Events       atomic.Int64
	Exchanges    atomic.Int64
	ExchangeErrs atomic.Int64
}

// run subscribes cfg.Connections clients and blocks until ctx is done.
func run(ctx context.Context, cfg loadConfig, logger *zap.Logger) *loadStats {
	stats := &loadStats{}
	client := &http.Client{
		Transport: &http.Transport{
			MaxConnsPerHost:     cfg.Connections + 100,
			MaxIdleConns:        cfg.Connections + 100,
			MaxIdleConnsPerHost: cfg.Connections + 100,
			DisableCompression:  true,
			DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		},
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")

	var interval time.Duration
	if cfg.RampUp > 0 {
		interval = cfg.RampUp / time.Duration(cfg.Connections)
	}

	var wg sync.WaitGroup
	if cfg.ExchangesPerSec > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			driveExchanges(ctx, client, baseURL, cfg.ExchangesPerSec, stats, logger)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		reportStatus(ctx, stats, logger)
	}()

	for i := 0; i < cfg.Connections && ctx.Err() == nil; i++ {
		if i > 0 && interval > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(interval):
			}
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			subscribe(ctx, client, baseURL+streamPath, stats)
		}()
	}

	wg.Wait()

	return stats
}

func subscribe(ctx context.Context, client *http.Client, url string, stats *loadStats) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		stats.ConnectErrs.Add(1)
		return
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := client.Do(req)
	if err != nil {
		stats.ConnectErrs.Add(1)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		stats.ConnectErrs.Add(1)
		return
	}

	stats.Connected.Add(1)
	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if ctx.Err() == nil {
				stats.StreamErrs.Add(1)
			}
			return
		}
		if strings.HasPrefix(line, "event: ") {
			stats.Events.Add(1)
		}
	}
}

// driveExchanges quotes and executes tiny USD to USDT exchanges at perSec.
func driveExchanges(ctx context.Context, client *http.Client, baseURL string, perSec float64, stats *loadStats, logger *zap.Logger) {
	limiter := rate.NewLimiter(rate.Limit(perSec), 1)
	for {
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		if err := exchangeOnce(ctx, client, baseURL); err != nil {
			if ctx.Err() != nil {
				return
			}
			stats.ExchangeErrs.Add(1)
			logger.Debug("exchange failed", zap.Error(err))
			continue
		}
		stats.Exchanges.Add(1)
	}
}

func exchangeOnce(ctx context.Context, client *http.Client, baseURL string) error {
	var quote struct {
		ID string `json:"id"`
	}
	if err := postJSON(ctx, client, baseURL+quotePath, map[string]any{"from": "USD", "to": "USDT", "amount": "1"}, &quote); err != nil {
		return errors.Wrap(err, "quote")
	}

	return errors.Wrap(postJSON(ctx, client, baseURL+executePath, map[string]string{"quoteId": quote.ID}, nil), "execute")
}

func postJSON(ctx context.Context, client *http.Client, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("unexpected status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func reportStatus(ctx context.Context, stats *loadStats, logger *zap.Logger) {
	start := time.Now()
	ticker := time.NewTicker(statusEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			logger.Info("status",
				zap.Int64("connected", stats.Connected.Load()),
				zap.Int64("connect_errs", stats.ConnectErrs.Load()),
				zap.Int64("stream_errs", stats.StreamErrs.Load()),
				zap.Int64("events", stats.Events.Load()),
				zap.Int64("exchanges", stats.Exchanges.Load()),
				zap.Duration("elapsed", time.Since(start).Truncate(time.Second)))
		}
	}
}

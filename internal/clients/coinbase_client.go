package clients

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/vadiminshakov/exdesk/internal/domain"
	"github.com/vadiminshakov/exdesk/pkg/retrier"
)

const (
	DefaultCoinbaseURL     = "https://api.exchange.coinbase.com"
	defaultCoinbaseTimeout = 10 * time.Second
	// public endpoints allow 10 requests per second per IP
	defaultCoinbaseRPS = 10
	userAgent          = "exdesk/1.0"
)

// StatusError non-success HTTP response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// CoinbaseClient reads public market data from the Coinbase Exchange REST API.
type CoinbaseClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	retrier    *retrier.Retrier
	logger     *zap.Logger
}

// NewCoinbaseClient creates a client. Zero values select defaults.
func NewCoinbaseClient(baseURL string, timeout time.Duration, rps float64, logger *zap.Logger) *CoinbaseClient {
	if baseURL == "" {
		baseURL = DefaultCoinbaseURL
	}
	if timeout <= 0 {
		timeout = defaultCoinbaseTimeout
	}
	if rps <= 0 {
		rps = defaultCoinbaseRPS
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 3 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   3 * time.Second,
		ResponseHeaderTimeout: 5 * time.Second,
	}

	c := &CoinbaseClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout, Transport: transport},
		limiter:    rate.NewLimiter(rate.Limit(rps), int(rps)),
		logger:     logger,
	}
	c.retrier = retrier.New(
		retrier.WithRetryIf(isRetryable),
		retrier.WithOnRetry(func(attempt int, err error) {
			c.logger.Debug("retrying coinbase request", zap.Int("attempt", attempt), zap.Error(err))
		}),
	)

	return c
}

// ProductStats returns the raw 24h stats payload for a product such as BTC-USD.
// A product unknown to Coinbase yields domain.ErrMarketNotFound.
func (c *CoinbaseClient) ProductStats(ctx context.Context, product string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/products/%s/stats", c.baseURL, url.PathEscape(product))

	body, err := retrier.DoWithData(c.retrier, ctx, func(ctx context.Context) ([]byte, error) {
		return c.get(ctx, endpoint)
	})
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && (statusErr.Code == http.StatusNotFound || statusErr.Code == http.StatusBadRequest) {
			return nil, errors.Wrapf(domain.ErrMarketNotFound, "coinbase product %s", product)
		}
		return nil, errors.Wrapf(err, "coinbase stats for %s", product)
	}

	return body, nil
}

func (c *CoinbaseClient) get(ctx context.Context, endpoint string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "rate limiter")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create HTTP request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "HTTP request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	return body, nil
}

func isRetryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code == http.StatusTooManyRequests || statusErr.Code >= http.StatusInternalServerError
	}

	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

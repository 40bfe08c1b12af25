package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/exdesk/internal/domain"
)

func TestCoinbaseClient_ProductStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/BTC-USD/stats", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Write([]byte(`{"open":"60000","high":"63000","low":"59000","last":"62000"}`))
	}))
	defer server.Close()

	client := NewCoinbaseClient(server.URL, time.Second, 100, nil)
	body, err := client.ProductStats(context.Background(), "BTC-USD")
	require.NoError(t, err)
	assert.Contains(t, string(body), `"last":"62000"`)
}

func TestCoinbaseClient_NotFound(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"NotFound"}`))
	}))
	defer server.Close()

	client := NewCoinbaseClient(server.URL, time.Second, 100, nil)
	_, err := client.ProductStats(context.Background(), "USD-BTC")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMarketNotFound))
	assert.Equal(t, int32(1), calls.Load(), "not found must not be retried")
}

func TestCoinbaseClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"open":"1","high":"1","low":"1","last":"1"}`))
	}))
	defer server.Close()

	client := NewCoinbaseClient(server.URL, time.Second, 100, nil)
	_, err := client.ProductStats(context.Background(), "ETH-EUR")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCoinbaseClient_PersistentFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewCoinbaseClient(server.URL, time.Second, 100, nil)
	_, err := client.ProductStats(context.Background(), "ETH-EUR")
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrMarketNotFound))

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.Code)
}

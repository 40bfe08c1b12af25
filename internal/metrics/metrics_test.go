package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Counters(t *testing.T) {
	c := New()

	c.QuoteCreated("USD", "USDT")
	c.QuoteCreated("USD", "USDT")
	c.ExecutionFinished("ok")
	c.ExecutionFinished("expired")
	c.SetPendingQuotes(3)
	c.TickerServed("binance", "ok", 20*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.quotesCreated.WithLabelValues("USD", "USDT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.executions.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.executions.WithLabelValues("expired")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.pendingQuotes))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.tickerRequests.WithLabelValues("binance", "ok")))
}

func TestCollector_MiddlewareUsesRouteTemplate(t *testing.T) {
	c := New()

	r := mux.NewRouter()
	r.Use(c.Middleware())
	r.HandleFunc("/api/items/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Handle("/metrics", c.Handler())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/items/42", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.httpRequests.WithLabelValues("GET", "/api/items/{id}", "418")))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "exdesk_http_requests_total")
}

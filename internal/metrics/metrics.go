// Package metrics exposes Prometheus collectors of the wallet desk.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "exdesk"

// Collector owns a private registry so several instances can coexist in tests.
type Collector struct {
	registry *prometheus.Registry

	quotesCreated  *prometheus.CounterVec
	executions     *prometheus.CounterVec
	pendingQuotes  prometheus.Gauge
	tickerRequests *prometheus.CounterVec
	tickerDuration *prometheus.HistogramVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// New creates a collector with process and Go runtime collectors registered.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		quotesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "exchange",
			Name:      "quotes_created_total",
			Help:      "Total number of issued exchange quotes.",
		}, []string{"from", "to"}),
		executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "exchange",
			Name:      "executions_total",
			Help:      "Total number of quote executions by result.",
		}, []string{"result"}),
		pendingQuotes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "exchange",
			Name:      "pending_quotes",
			Help:      "Number of quotes waiting for execution.",
		}),
		tickerRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ticker",
			Name:      "lookups_total",
			Help:      "Total number of ticker lookups by feed and result.",
		}, []string{"source", "result"}),
		tickerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ticker",
			Name:      "lookup_duration_seconds",
			Help:      "Duration of ticker lookups.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
		}, []string{"source"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}, []string{"method", "path"}),
	}

	c.registry.MustRegister(
		c.quotesCreated,
		c.executions,
		c.pendingQuotes,
		c.tickerRequests,
		c.tickerDuration,
		c.httpRequests,
		c.httpDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)

	return c
}

// Handler returns an HTTP handler exposing the registered metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) QuoteCreated(from, to string) {
	c.quotesCreated.WithLabelValues(from, to).Inc()
}

// ExecutionFinished counts an execution attempt; result is ok, not_found, expired, insufficient or error.
func (c *Collector) ExecutionFinished(result string) {
	c.executions.WithLabelValues(result).Inc()
}

func (c *Collector) SetPendingQuotes(n int) {
	c.pendingQuotes.Set(float64(n))
}

// TickerServed records a ticker lookup.
func (c *Collector) TickerServed(source, result string, elapsed time.Duration) {
	c.tickerRequests.WithLabelValues(source, result).Inc()
	c.tickerDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}

// Middleware records request counts and latency labeled by route template.
func (c *Collector) Middleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			path := r.URL.Path
			if route := mux.CurrentRoute(r); route != nil {
				if tpl, err := route.GetPathTemplate(); err == nil {
					path = tpl
				}
			}

			c.httpRequests.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
			c.httpDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps server-sent event streams working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

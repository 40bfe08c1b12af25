// Package web serves the wallet desk HTTP API and its live event streams.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/exdesk/internal/domain"
	"github.com/vadiminshakov/exdesk/internal/storage/ledger"
)

const (
	journalPollInterval = 2 * time.Second
	heartbeatInterval   = 30 * time.Second
)

type walletLister interface {
	List() []domain.Wallet
}

type transactionLister interface {
	List(page, size int, order ledger.SortOrder) ledger.Page
}

type exchanger interface {
	CreateQuote(ctx context.Context, from, to domain.Currency, amount decimal.Decimal) (domain.ExchangeQuote, error)
	Execute(ctx context.Context, quoteID string) (domain.Transaction, error)
}

type tickerGetter interface {
	GetTicker(ctx context.Context, base, quote domain.Currency) (domain.TickerSnapshot, error)
}

type balanceFeed interface {
	Subscribe() chan domain.BalanceSnapshot
	Unsubscribe(ch chan domain.BalanceSnapshot)
}

type exchangeJournal interface {
	TransactionsAfter(index uint64) ([]domain.TransactionRecord, error)
}

type instrumentation interface {
	Middleware() mux.MiddlewareFunc
	Handler() http.Handler
}

// Services the API is served from. Balances, Journal and Metrics are optional.
type Services struct {
	Wallets      walletLister
	Transactions transactionLister
	Exchange     exchanger
	Tickers      tickerGetter
	Balances     balanceFeed
	Journal      exchangeJournal
	Metrics      instrumentation
}

// Server exposes the REST API and SSE streams.
type Server struct {
	Addr     string
	services Services
	logger   *zap.Logger
}

// NewServer creates a new web server instance.
func NewServer(addr string, services Services, logger *zap.Logger) (*Server, error) {
	if services.Wallets == nil || services.Transactions == nil || services.Exchange == nil || services.Tickers == nil {
		return nil, errors.New("wallets, transactions, exchange and tickers are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Server{Addr: addr, services: services, logger: logger}, nil
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	if s.services.Metrics != nil {
		r.Use(s.services.Metrics.Middleware())
		r.Handle("/metrics", s.services.Metrics.Handler()).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/wallets", s.handleWallets).Methods(http.MethodGet)
	api.HandleFunc("/wallets/stream", s.handleBalanceStream).Methods(http.MethodGet)
	api.HandleFunc("/transactions", s.handleTransactions).Methods(http.MethodGet)
	api.HandleFunc("/exchange/quote", s.handleQuote).Methods(http.MethodPost)
	api.HandleFunc("/exchange/execute", s.handleExecute).Methods(http.MethodPost)
	api.HandleFunc("/exchange/stream", s.handleExchangeStream).Methods(http.MethodGet)
	api.HandleFunc("/ticker", s.handleTicker).Methods(http.MethodGet)

	return r
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("http server listening", zap.String("addr", s.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "http server")
	}

	return nil
}

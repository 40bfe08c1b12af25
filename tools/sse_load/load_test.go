package main

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/exdesk/internal/domain"
	"github.com/vadiminshakov/exdesk/internal/events"
	"github.com/vadiminshakov/exdesk/internal/services/exchange"
	"github.com/vadiminshakov/exdesk/internal/services/rates"
	"github.com/vadiminshakov/exdesk/internal/storage/ledger"
	"github.com/vadiminshakov/exdesk/internal/storage/wallets"
	"github.com/vadiminshakov/exdesk/internal/web"
)

type neutralTickers struct{}

func (neutralTickers) GetTicker(context.Context, domain.Currency, domain.Currency) (domain.TickerSnapshot, error) {
	return domain.NeutralSnapshot(), nil
}

func TestRun_SubscribesAndDrivesExchanges(t *testing.T) {
	store, err := wallets.NewStore(wallets.DefaultWallets(), rates.NewReferencePrices())
	require.NoError(t, err)
	txs := ledger.New()
	balances := events.NewBalanceBroadcaster(64)
	engine, err := exchange.NewEngine(exchange.Config{}, rates.NewStaticTable(), store, txs, nil, exchange.WithPublisher(balances))
	require.NoError(t, err)

	server, err := web.NewServer(":0", web.Services{
		Wallets:      store,
		Transactions: txs,
		Exchange:     engine,
		Tickers:      neutralTickers{},
		Balances:     balances,
	}, nil)
	require.NoError(t, err)
	srv := httptest.NewServer(server.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 1500*time.Millisecond)
	defer cancel()

	stats := run(ctx, loadConfig{BaseURL: srv.URL, Connections: 3, ExchangesPerSec: 10}, zap.NewNop())

	assert.Equal(t, int64(3), stats.Connected.Load())
	assert.Zero(t, stats.ConnectErrs.Load())
	assert.Positive(t, stats.Exchanges.Load())
	assert.Zero(t, stats.ExchangeErrs.Load())
	// every subscriber sees the initial wallets event plus balance events
	assert.Greater(t, stats.Events.Load(), int64(3))
	assert.Equal(t, int(stats.Exchanges.Load()), txs.Len())
}

package internal

import (
	"context"
	"testing"
	"time"

	binance "github.com/adshao/go-binance/v2"
	bybit "github.com/hirokisan/bybit/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/exdesk/config"
	"github.com/vadiminshakov/exdesk/internal/clients"
	"github.com/vadiminshakov/exdesk/internal/domain"
	"github.com/vadiminshakov/exdesk/internal/services/ticker"
)

func TestNewStatsFeed(t *testing.T) {
	tests := []struct {
		client any
		source domain.TickerSource
	}{
		{client: binance.NewClient("", ""), source: domain.TickerSourceBinance},
		{client: bybit.NewClient(), source: domain.TickerSourceBybit},
		{client: clients.NewCoinbaseClient("", 0, 0, nil), source: domain.TickerSourceCoinbase},
	}
	for _, tt := range tests {
		feed, err := newStatsFeed(tt.client)
		require.NoError(t, err)
		assert.Equal(t, tt.source, feed.Source())
	}

	_, err := newStatsFeed("not a client")
	assert.Error(t, err)
}

func TestNewDesk_Defaults(t *testing.T) {
	desk, err := NewDesk(config.Default(), nil)
	require.NoError(t, err)
	defer desk.Close()

	assert.Len(t, desk.Wallets.List(), len(domain.Currencies()))
	assert.Equal(t, 3, desk.Ledger.Len())
	assert.Nil(t, desk.journal)
}

func TestNewDesk_InvalidConfig(t *testing.T) {
	conf := config.Default()
	conf.CryptoFeed = "kraken"

	_, err := NewDesk(conf, nil)
	assert.Error(t, err)
}

func TestNewDesk_ZeroFeeConfigIsHonored(t *testing.T) {
	conf := config.Default()
	conf.FeeRate = decimal.Zero
	conf.FeeFloor = decimal.Zero
	require.NoError(t, conf.Validate())

	desk, err := NewDesk(conf, nil)
	require.NoError(t, err)
	defer desk.Close()

	q, err := desk.Engine.CreateQuote(context.Background(), domain.USD, domain.USDT, decimal.NewFromInt(500))
	require.NoError(t, err)
	assert.True(t, q.Fee.IsZero(), "fee %s", q.Fee)
	assert.True(t, q.Expected.Equal(decimal.NewFromInt(500)), "expected %s", q.Expected)
}

func TestDesk_ExchangeIsJournaledAndBroadcast(t *testing.T) {
	conf := config.Default()
	conf.JournalDir = t.TempDir()
	conf.Wallets = []domain.Wallet{{ID: "w_usd", Currency: domain.USD, Balance: decimal.NewFromInt(1000), Decimals: 2}}

	desk, err := NewDesk(conf, nil)
	require.NoError(t, err)
	defer desk.Close()

	updates := desk.Balances.Subscribe()
	defer desk.Balances.Unsubscribe(updates)

	ctx := context.Background()
	quote, err := desk.Engine.CreateQuote(ctx, domain.USD, domain.BTC, decimal.NewFromInt(620))
	require.NoError(t, err)
	tx, err := desk.Engine.Execute(ctx, quote.ID)
	require.NoError(t, err)

	records, err := desk.journal.TransactionsAfter(0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, tx.ID, records[0].Transaction.ID)

	first := <-updates
	assert.Equal(t, "USD", first.Currency)
	assert.Equal(t, "378.76", first.Balance)
}

func TestDesk_ServeStopsOnCancel(t *testing.T) {
	conf := config.Default()
	conf.ListenAddr = "127.0.0.1:0"

	desk, err := NewDesk(conf, nil)
	require.NoError(t, err)
	defer desk.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- desk.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not stop")
	}
}

func TestNewNormalizer_UsesConfiguredFeed(t *testing.T) {
	conf := config.Default()
	conf.CryptoFeed = config.CryptoFeedBybit

	n, err := newNormalizer(conf, nil, zap.NewNop())
	require.NoError(t, err)

	snapshot, err := n.GetTicker(context.Background(), domain.USD, domain.EUR)
	require.NoError(t, err)
	assert.True(t, snapshot.IsNeutral())
	var _ ticker.Getter = n
}

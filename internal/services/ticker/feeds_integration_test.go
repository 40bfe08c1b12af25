//go:build integration

package ticker

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/exdesk/internal/clients"
	"github.com/vadiminshakov/exdesk/internal/domain"
)

// TestNormalizer_Integration calls the public Binance, Bybit and Coinbase APIs.
// To run this test, use: go test -tags=integration -v ./...
func TestNormalizer_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	coinbase := NewCoinbaseFeed(clients.NewCoinbaseClient("", 10*time.Second, 0, nil))
	cryptoFeeds := map[string]StatsFeed{
		"binance": NewBinanceFeed(clients.NewBinanceClient("", "", "")),
		"bybit":   NewBybitFeed(clients.NewBybitClient("", "", "")),
	}

	for name, crypto := range cryptoFeeds {
		t.Run(name, func(t *testing.T) {
			n, err := NewNormalizer(crypto, coinbase, nil)
			require.NoError(t, err)

			pairs := []domain.Pair{
				domain.NewPair(domain.ETH, domain.BTC),
				domain.NewPair(domain.BTC, domain.ETH),
				domain.NewPair(domain.BTC, domain.USD),
				domain.NewPair(domain.USD, domain.BTC),
			}
			for _, pair := range pairs {
				snapshot, err := n.GetTicker(context.Background(), pair.Base, pair.Quote)
				require.NoError(t, err, pair.String())
				assert.True(t, snapshot.Price.Decimal.GreaterThan(decimal.Zero), pair.String())
				assert.True(t, snapshot.Low24h.Decimal.LessThanOrEqual(snapshot.High24h.Decimal), pair.String())
				t.Logf("%s %s via %s", pair.String(), snapshot.Price.Decimal.String(), snapshot.Source)
			}
		})
	}
}

package internal

import (
	"fmt"

	binance "github.com/adshao/go-binance/v2"
	bybit "github.com/hirokisan/bybit/v2"
	"go.uber.org/zap"

	"github.com/vadiminshakov/exdesk/config"
	"github.com/vadiminshakov/exdesk/internal/clients"
	"github.com/vadiminshakov/exdesk/internal/services/ticker"
)

// newStatsFeed wraps a market data client into a ticker feed.
// This is the single point of dispatch to platform-specific implementations.
func newStatsFeed(client any) (ticker.StatsFeed, error) {
	switch c := client.(type) {
	case *binance.Client:
		return ticker.NewBinanceFeed(c), nil
	case *bybit.Client:
		return ticker.NewBybitFeed(c), nil
	case *clients.CoinbaseClient:
		return ticker.NewCoinbaseFeed(c), nil
	default:
		return nil, fmt.Errorf("unsupported client type: %T", client)
	}
}

// newCryptoClient creates the client of the configured crypto/crypto feed.
func newCryptoClient(conf config.Config) (any, error) {
	switch conf.CryptoFeed {
	case config.CryptoFeedBinance:
		return clients.NewBinanceClient("", "", conf.BinanceURL), nil
	case config.CryptoFeedBybit:
		return clients.NewBybitClient("", "", conf.BybitURL), nil
	default:
		return nil, fmt.Errorf("unsupported crypto feed: %s", conf.CryptoFeed)
	}
}

// newNormalizer builds the ticker normalizer over the configured feeds.
func newNormalizer(conf config.Config, observer ticker.Observer, logger *zap.Logger) (*ticker.Normalizer, error) {
	cryptoClient, err := newCryptoClient(conf)
	if err != nil {
		return nil, err
	}
	cryptoFeed, err := newStatsFeed(cryptoClient)
	if err != nil {
		return nil, err
	}
	fiatFeed, err := newStatsFeed(clients.NewCoinbaseClient(conf.CoinbaseURL, conf.FeedTimeout, conf.CoinbaseRPS, logger.Named("coinbase")))
	if err != nil {
		return nil, err
	}

	return ticker.NewNormalizer(cryptoFeed, fiatFeed, logger.Named("ticker"),
		ticker.WithTimeout(conf.FeedTimeout),
		ticker.WithObserver(observer),
	)
}

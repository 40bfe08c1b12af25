package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/exdesk/internal/domain"
)

const (
	CryptoFeedBinance = "binance"
	CryptoFeedBybit   = "bybit"

	RateSourceStatic = "static"
	RateSourceLive   = "live"
)

// Config runtime settings of the wallet desk.
type Config struct {
	ListenAddr    string
	CryptoFeed    string
	BinanceURL    string
	BybitURL      string
	CoinbaseURL   string
	CoinbaseRPS   float64
	FeedTimeout   time.Duration
	RateSource    string
	QuoteTTL      time.Duration
	SweepInterval time.Duration
	FeeRate       decimal.Decimal
	FeeFloor      decimal.Decimal
	// JournalDir empty disables the exchange journal.
	JournalDir string
	// Wallets empty means the demo balances.
	Wallets  []domain.Wallet
	Terminal bool
	LogLevel string
}

// ConfigTmp yaml representation of Config. Decimals are strings to keep precision.
type ConfigTmp struct {
	ListenAddr    string          `yaml:"listen_addr"`
	CryptoFeed    string          `yaml:"crypto_feed"`
	BinanceURL    string          `yaml:"binance_url,omitempty"`
	BybitURL      string          `yaml:"bybit_url,omitempty"`
	CoinbaseURL   string          `yaml:"coinbase_url,omitempty"`
	CoinbaseRPS   float64         `yaml:"coinbase_rps,omitempty"`
	FeedTimeout   time.Duration   `yaml:"feed_timeout"`
	RateSource    string          `yaml:"rate_source"`
	QuoteTTL      time.Duration   `yaml:"quote_ttl"`
	SweepInterval time.Duration   `yaml:"sweep_interval"`
	FeeRateStr    string          `yaml:"fee_rate"`
	FeeFloorStr   string          `yaml:"fee_floor"`
	JournalDir    string          `yaml:"journal_dir,omitempty"`
	Wallets       []WalletSeedTmp `yaml:"wallets,omitempty"`
	Terminal      bool            `yaml:"terminal,omitempty"`
	LogLevel      string          `yaml:"log_level,omitempty"`
}

// WalletSeedTmp yaml representation of a starting wallet balance.
type WalletSeedTmp struct {
	Currency string `yaml:"currency"`
	Balance  string `yaml:"balance"`
	Address  string `yaml:"address,omitempty"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		ListenAddr:    ":8080",
		CryptoFeed:    CryptoFeedBinance,
		CoinbaseRPS:   10,
		FeedTimeout:   10 * time.Second,
		RateSource:    RateSourceStatic,
		QuoteTTL:      30 * time.Second,
		SweepInterval: 10 * time.Second,
		FeeRate:       decimal.RequireFromString("0.002"),
		FeeFloor:      decimal.RequireFromString("0.0001"),
		LogLevel:      "info",
	}
}

// Get reads the configuration from the command line, or from --config when given.
func Get() (Config, error) {
	return Parse(os.Args[1:])
}

// Parse reads the configuration from args.
func Parse(args []string) (Config, error) {
	def := Default()
	fs := flag.NewFlagSet("exdesk", flag.ContinueOnError)

	configPath := fs.String("config", "", "path to yaml config")
	listen := fs.String("listen", def.ListenAddr, "http listen address, example: :8080")
	cryptoFeed := fs.String("cryptofeed", def.CryptoFeed, "crypto/crypto ticker feed: binance or bybit")
	binanceURL := fs.String("binanceurl", "", "binance api base url, empty means the public endpoint")
	bybitURL := fs.String("bybiturl", "", "bybit api base url, empty means the public endpoint")
	coinbaseURL := fs.String("coinbaseurl", "", "coinbase exchange api base url, empty means the public endpoint")
	coinbaseRPS := fs.Float64("coinbaserps", def.CoinbaseRPS, "coinbase requests per second")
	feedTimeout := fs.Duration("feedtimeout", def.FeedTimeout, "timeout of a single ticker lookup")
	rateSource := fs.String("rates", def.RateSource, "quote rate source: static or live")
	quoteTTL := fs.Duration("quotettl", def.QuoteTTL, "quote validity window")
	sweepInterval := fs.Duration("sweepinterval", def.SweepInterval, "how often expired quotes are dropped")
	feeRate := fs.String("feerate", def.FeeRate.String(), "exchange fee rate, example: 0.002 means 0.2%")
	feeFloor := fs.String("feefloor", def.FeeFloor.String(), "minimal fee in source currency units")
	journalDir := fs.String("journal", "", "exchange journal directory, empty disables the journal")
	terminal := fs.Bool("terminal", false, "run the interactive exchange terminal instead of the http server")
	logLevel := fs.String("loglevel", def.LogLevel, "log level: debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if *configPath != "" {
		cfg, err := getYaml(*configPath)
		if err != nil {
			return Config{}, err
		}
		// the mode switch is a command line concern
		cfg.Terminal = cfg.Terminal || *terminal
		return cfg, nil
	}

	cfg := def
	cfg.ListenAddr = *listen
	cfg.CryptoFeed = strings.ToLower(*cryptoFeed)
	cfg.BinanceURL = *binanceURL
	cfg.BybitURL = *bybitURL
	cfg.CoinbaseURL = *coinbaseURL
	cfg.CoinbaseRPS = *coinbaseRPS
	cfg.FeedTimeout = *feedTimeout
	cfg.RateSource = strings.ToLower(*rateSource)
	cfg.QuoteTTL = *quoteTTL
	cfg.SweepInterval = *sweepInterval
	cfg.JournalDir = *journalDir
	cfg.Terminal = *terminal
	cfg.LogLevel = *logLevel

	var err error
	if cfg.FeeRate, err = decimal.NewFromString(*feeRate); err != nil {
		return Config{}, fmt.Errorf("invalid --feerate provided, --feerate=%s", *feeRate)
	}
	if cfg.FeeFloor, err = decimal.NewFromString(*feeFloor); err != nil {
		return Config{}, fmt.Errorf("invalid --feefloor provided, --feefloor=%s", *feeFloor)
	}

	return cfg, cfg.Validate()
}

// Validate checks value ranges and enumerations.
func (c Config) Validate() error {
	switch c.CryptoFeed {
	case CryptoFeedBinance, CryptoFeedBybit:
	default:
		return fmt.Errorf("unknown crypto feed %q, expected %s or %s", c.CryptoFeed, CryptoFeedBinance, CryptoFeedBybit)
	}
	switch c.RateSource {
	case RateSourceStatic, RateSourceLive:
	default:
		return fmt.Errorf("unknown rate source %q, expected %s or %s", c.RateSource, RateSourceStatic, RateSourceLive)
	}
	if c.FeeRate.IsNegative() || c.FeeRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("fee rate must be in [0, 1), got %s", c.FeeRate.String())
	}
	if c.FeeFloor.IsNegative() {
		return fmt.Errorf("fee floor must not be negative, got %s", c.FeeFloor.String())
	}
	if c.QuoteTTL <= 0 {
		return fmt.Errorf("quote ttl must be positive, got %s", c.QuoteTTL)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("sweep interval must be positive, got %s", c.SweepInterval)
	}
	if c.FeedTimeout <= 0 {
		return fmt.Errorf("feed timeout must be positive, got %s", c.FeedTimeout)
	}
	if c.CoinbaseRPS <= 0 {
		return fmt.Errorf("coinbase rps must be positive, got %v", c.CoinbaseRPS)
	}

	return nil
}

func getYaml(path string) (Config, error) {
	var tmp ConfigTmp

	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return Config{}, fmt.Errorf("failed to parse yaml config %s: %w", path, err)
	}

	cfg := Default()
	if tmp.ListenAddr != "" {
		cfg.ListenAddr = tmp.ListenAddr
	}
	if tmp.CryptoFeed != "" {
		cfg.CryptoFeed = strings.ToLower(tmp.CryptoFeed)
	}
	if tmp.RateSource != "" {
		cfg.RateSource = strings.ToLower(tmp.RateSource)
	}
	if tmp.CoinbaseRPS > 0 {
		cfg.CoinbaseRPS = tmp.CoinbaseRPS
	}
	if tmp.FeedTimeout > 0 {
		cfg.FeedTimeout = tmp.FeedTimeout
	}
	if tmp.QuoteTTL > 0 {
		cfg.QuoteTTL = tmp.QuoteTTL
	}
	if tmp.SweepInterval > 0 {
		cfg.SweepInterval = tmp.SweepInterval
	}
	if tmp.LogLevel != "" {
		cfg.LogLevel = tmp.LogLevel
	}
	cfg.BinanceURL = tmp.BinanceURL
	cfg.BybitURL = tmp.BybitURL
	cfg.CoinbaseURL = tmp.CoinbaseURL
	cfg.JournalDir = tmp.JournalDir
	cfg.Terminal = tmp.Terminal

	if tmp.FeeRateStr != "" {
		if cfg.FeeRate, err = decimal.NewFromString(tmp.FeeRateStr); err != nil {
			return Config{}, fmt.Errorf("incorrect 'fee_rate' param in yaml config (must be a decimal), error: %w", err)
		}
	}
	if tmp.FeeFloorStr != "" {
		if cfg.FeeFloor, err = decimal.NewFromString(tmp.FeeFloorStr); err != nil {
			return Config{}, fmt.Errorf("incorrect 'fee_floor' param in yaml config (must be a decimal), error: %w", err)
		}
	}

	for _, w := range tmp.Wallets {
		currency, err := domain.ParseCurrency(w.Currency)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect wallet currency in yaml config: %w", err)
		}
		balance, err := decimal.NewFromString(w.Balance)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect balance of %s wallet in yaml config, error: %w", currency, err)
		}
		cfg.Wallets = append(cfg.Wallets, domain.Wallet{
			ID:       "w_" + strings.ToLower(currency.String()),
			Currency: currency,
			Balance:  balance,
			Address:  w.Address,
			Decimals: displayDecimals(currency),
		})
	}

	return cfg, cfg.Validate()
}

func displayDecimals(c domain.Currency) int32 {
	if c.IsCrypto() && c != domain.USDT {
		return 8
	}

	return 2
}

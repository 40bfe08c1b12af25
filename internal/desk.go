package internal

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vadiminshakov/exdesk/config"
	"github.com/vadiminshakov/exdesk/internal/events"
	"github.com/vadiminshakov/exdesk/internal/metrics"
	"github.com/vadiminshakov/exdesk/internal/services/exchange"
	"github.com/vadiminshakov/exdesk/internal/services/rates"
	"github.com/vadiminshakov/exdesk/internal/services/ticker"
	"github.com/vadiminshakov/exdesk/internal/storage/journal"
	"github.com/vadiminshakov/exdesk/internal/storage/ledger"
	"github.com/vadiminshakov/exdesk/internal/storage/wallets"
	"github.com/vadiminshakov/exdesk/internal/terminal"
	"github.com/vadiminshakov/exdesk/internal/web"
)

const balanceStreamBuffer = 256

// Desk wires the wallet desk components together.
type Desk struct {
	Config   config.Config
	Wallets  *wallets.Store
	Ledger   *ledger.Ledger
	Engine   *exchange.Engine
	Tickers  *ticker.Normalizer
	Balances *events.BalanceBroadcaster
	Metrics  *metrics.Collector

	journal *journal.WALStore
	logger  *zap.Logger
}

// NewDesk creates a desk from configuration.
func NewDesk(conf config.Config, logger *zap.Logger) (*Desk, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := conf.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	collector := metrics.New()

	normalizer, err := newNormalizer(conf, collector, logger)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create ticker normalizer")
	}

	seed := conf.Wallets
	if len(seed) == 0 {
		seed = wallets.DefaultWallets()
	}
	store, err := wallets.NewStore(seed, rates.NewReferencePrices())
	if err != nil {
		return nil, errors.Wrap(err, "failed to create wallets")
	}

	var rateSource exchange.RateSource = rates.NewStaticTable()
	if conf.RateSource == config.RateSourceLive {
		rateSource = rates.NewLive(normalizer, rates.NewStaticTable(), logger.Named("rates"))
	}

	d := &Desk{
		Config:   conf,
		Wallets:  store,
		Ledger:   ledger.New(ledger.DemoHistory(time.Now().UTC())...),
		Tickers:  normalizer,
		Balances: events.NewBalanceBroadcaster(balanceStreamBuffer),
		Metrics:  collector,
		logger:   logger,
	}

	opts := []exchange.Option{
		exchange.WithPublisher(d.Balances),
		exchange.WithMetrics(collector),
	}
	if conf.JournalDir != "" {
		if err := os.MkdirAll(conf.JournalDir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "failed to create journal dir %s", conf.JournalDir)
		}
		d.journal, err = journal.NewWALStore(conf.JournalDir)
		if err != nil {
			return nil, errors.Wrap(err, "failed to open exchange journal")
		}
		opts = append(opts, exchange.WithJournal(d.journal))
	}

	d.Engine, err = exchange.NewEngine(exchange.Config{
		FeeRate:       decimal.NewNullDecimal(conf.FeeRate),
		FeeFloor:      decimal.NewNullDecimal(conf.FeeFloor),
		QuoteTTL:      conf.QuoteTTL,
		SweepInterval: conf.SweepInterval,
	}, rateSource, store, d.Ledger, logger.Named("exchange"), opts...)
	if err != nil {
		d.Close()
		return nil, errors.Wrap(err, "failed to create exchange engine")
	}

	return d, nil
}

// Serve runs the HTTP API and the quote sweeper until ctx is done or one of them fails.
func (d *Desk) Serve(ctx context.Context) error {
	services := web.Services{
		Wallets:      d.Wallets,
		Transactions: d.Ledger,
		Exchange:     d.Engine,
		Tickers:      d.Tickers,
		Balances:     d.Balances,
		Metrics:      d.Metrics,
	}
	if d.journal != nil {
		services.Journal = d.journal
	}

	server, err := web.NewServer(d.Config.ListenAddr, services, d.logger.Named("web"))
	if err != nil {
		return errors.Wrap(err, "failed to create web server")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(ctx)
	})
	g.Go(func() error {
		return d.Engine.Run(ctx)
	})

	d.logger.Info("exchange desk started",
		zap.String("addr", d.Config.ListenAddr),
		zap.String("crypto_feed", d.Config.CryptoFeed),
		zap.String("rates", d.Config.RateSource),
		zap.Bool("journal", d.journal != nil))

	return g.Wait()
}

// RunTerminal runs the interactive exchange terminal with the quote sweeper in the background.
func (d *Desk) RunTerminal(ctx context.Context) error {
	tracker := ticker.NewTracker(d.Tickers, d.logger.Named("tracker"))
	defer tracker.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return d.Engine.Run(ctx)
	})
	g.Go(func() error {
		defer cancel()
		return terminal.New(d.Wallets, d.Engine, tracker, terminal.FormPrompter{}, os.Stdout, d.logger.Named("terminal")).Run(ctx)
	})

	return g.Wait()
}

// Close releases the exchange journal.
func (d *Desk) Close() {
	if d.journal == nil {
		return
	}
	if err := d.journal.Close(); err != nil {
		d.logger.Warn("failed to close exchange journal", zap.Error(err))
	}
}

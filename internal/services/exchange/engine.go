// Package exchange issues price-locked conversion quotes and settles them against the wallets.
package exchange

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/exdesk/internal/domain"
)

const (
	DefaultQuoteTTL      = 30 * time.Second
	DefaultSweepInterval = 10 * time.Second
	// credited amounts are truncated to the finest wallet precision
	expectedPrecision    = 8
)

var (
	DefaultFeeRate  = decimal.RequireFromString("0.002")
	DefaultFeeFloor = decimal.RequireFromString("0.0001")
)

// Execution results reported to Metrics.
const (
	ResultOK           = "ok"
	ResultNotFound     = "not_found"
	ResultExpired      = "expired"
	ResultInsufficient = "insufficient"
	ResultError        = "error"
)

// RateSource returns how many units of to one unit of from buys.
type RateSource interface {
	Rate(ctx context.Context, from, to domain.Currency) (decimal.Decimal, error)
}

// Wallets settles both legs of an exchange in one step.
type Wallets interface {
	Settle(debitCurrency domain.Currency, debit decimal.Decimal, creditCurrency domain.Currency, credit decimal.Decimal) (from, to domain.Wallet, err error)
}

// Ledger records executed exchanges.
type Ledger interface {
	Append(tx domain.Transaction)
}

// Journal durably appends executed exchanges.
type Journal interface {
	Save(tx domain.Transaction) error
}

// Publisher receives wallet balances changed by an execution.
type Publisher interface {
	Publish(snapshots ...domain.BalanceSnapshot)
}

// Metrics observes the quote lifecycle.
type Metrics interface {
	QuoteCreated(from, to string)
	ExecutionFinished(result string)
	SetPendingQuotes(n int)
}

type nopMetrics struct{}

func (nopMetrics) QuoteCreated(string, string) {}

func (nopMetrics) ExecutionFinished(string) {}

func (nopMetrics) SetPendingQuotes(int) {}

// Config pricing and lifecycle parameters. Unset fees and non-positive durations select defaults;
// a set fee of zero disables that fee component.
type Config struct {
	FeeRate       decimal.NullDecimal
	FeeFloor      decimal.NullDecimal
	QuoteTTL      time.Duration
	SweepInterval time.Duration
}

func (c Config) withDefaults() Config {
	if !c.FeeRate.Valid {
		c.FeeRate = decimal.NewNullDecimal(DefaultFeeRate)
	}
	if !c.FeeFloor.Valid {
		c.FeeFloor = decimal.NewNullDecimal(DefaultFeeFloor)
	}
	if c.QuoteTTL <= 0 {
		c.QuoteTTL = DefaultQuoteTTL
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = DefaultSweepInterval
	}

	return c
}

// Option configures optional collaborators of the Engine.
type Option func(*Engine)

// WithJournal appends every executed exchange to j.
func WithJournal(j Journal) Option {
	return func(e *Engine) { e.journal = j }
}

// WithPublisher announces changed balances to p.
func WithPublisher(p Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithMetrics reports the quote lifecycle to m.
func WithMetrics(m Metrics) Option {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// Engine quotes and executes conversions between wallets.
type Engine struct {
	cfg     Config
	rates   RateSource
	wallets Wallets
	ledger  Ledger
	quotes  *quoteStore
	logger  *zap.Logger

	journal   Journal
	publisher Publisher
	metrics   Metrics
	now       func() time.Time
}

// NewEngine creates an engine.
func NewEngine(cfg Config, rates RateSource, wallets Wallets, ledger Ledger, logger *zap.Logger, opts ...Option) (*Engine, error) {
	if rates == nil || wallets == nil || ledger == nil {
		return nil, errors.New("rates, wallets and ledger are required")
	}
	if cfg.FeeRate.Decimal.IsNegative() || cfg.FeeFloor.Decimal.IsNegative() {
		return nil, errors.New("fees must not be negative")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &Engine{
		cfg:     cfg.withDefaults(),
		rates:   rates,
		wallets: wallets,
		ledger:  ledger,
		quotes:  newQuoteStore(),
		logger:  logger,
		metrics: nopMetrics{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// Fee returns the fee charged for converting amount, in source units.
func (e *Engine) Fee(amount decimal.Decimal) decimal.Decimal {
	return decimal.Max(e.cfg.FeeFloor.Decimal, amount.Mul(e.cfg.FeeRate.Decimal))
}

// CreateQuote prices a conversion of amount from into to and keeps the quote pending
// for the configured validity window. Wallets are not touched.
func (e *Engine) CreateQuote(ctx context.Context, from, to domain.Currency, amount decimal.Decimal) (domain.ExchangeQuote, error) {
	if !from.IsValid() || !to.IsValid() {
		return domain.ExchangeQuote{}, errors.Wrapf(domain.ErrValidation, "unsupported pair %s_%s", from, to)
	}
	if from == to {
		return domain.ExchangeQuote{}, errors.Wrapf(domain.ErrValidation, "cannot exchange %s into itself", from)
	}
	if from.IsFiat() && to.IsFiat() {
		return domain.ExchangeQuote{}, errors.Wrapf(domain.ErrValidation, "fiat to fiat exchange %s_%s is not supported", from, to)
	}
	if !amount.IsPositive() {
		return domain.ExchangeQuote{}, errors.Wrap(domain.ErrValidation, "amount must be positive")
	}

	rate, err := e.rates.Rate(ctx, from, to)
	if err != nil {
		return domain.ExchangeQuote{}, errors.Wrapf(err, "failed to get rate for %s_%s", from, to)
	}
	if !rate.IsPositive() {
		return domain.ExchangeQuote{}, errors.Wrapf(domain.ErrValidation, "rate for %s_%s is not positive", from, to)
	}

	fee := e.Fee(amount)
	// the fee is charged in source units and converted at the quote rate
	expected := amount.Sub(fee).Mul(rate).Truncate(expectedPrecision)
	if !expected.IsPositive() {
		return domain.ExchangeQuote{}, errors.Wrapf(domain.ErrValidation, "amount %s %s does not cover the fee %s", amount.String(), from, fee.String())
	}

	q := domain.ExchangeQuote{
		ID:        "q_" + uuid.NewString(),
		From:      from,
		To:        to,
		Amount:    amount,
		Rate:      rate,
		Fee:       fee,
		Expected:  expected,
		ExpiresAt: e.now().Add(e.cfg.QuoteTTL).UTC(),
	}
	e.quotes.put(q)

	e.metrics.QuoteCreated(from.String(), to.String())
	e.metrics.SetPendingQuotes(e.quotes.len())
	e.logger.Info("quote created",
		zap.String("id", q.ID),
		zap.String("pair", q.Pair().String()),
		zap.String("amount", amount.String()),
		zap.String("rate", rate.String()),
		zap.String("fee", fee.String()),
		zap.String("expected", expected.String()))

	return q, nil
}

// Execute settles a pending quote: debits amount plus fee from the source wallet,
// credits the expected amount and records the transaction. A quote executes at most once.
func (e *Engine) Execute(ctx context.Context, quoteID string) (domain.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return domain.Transaction{}, err
	}

	q, ok := e.quotes.claim(quoteID)
	if !ok {
		e.metrics.ExecutionFinished(ResultNotFound)
		return domain.Transaction{}, errors.Wrapf(domain.ErrNotFound, "quote %q", quoteID)
	}

	now := e.now()
	if q.ExpiredAt(now) {
		e.quotes.remove(quoteID)
		e.metrics.ExecutionFinished(ResultExpired)
		e.metrics.SetPendingQuotes(e.quotes.len())
		return domain.Transaction{}, errors.Wrapf(domain.ErrExpired, "quote %s expired at %s", quoteID, q.ExpiresAt.Format(time.RFC3339))
	}

	fromWallet, toWallet, err := e.wallets.Settle(q.From, q.Cost(), q.To, q.Expected)
	if err != nil {
		// the quote stays executable until it expires
		e.quotes.release(quoteID)
		result := ResultError
		if errors.Is(err, domain.ErrInsufficientBalance) {
			result = ResultInsufficient
		}
		e.metrics.ExecutionFinished(result)
		return domain.Transaction{}, errors.Wrapf(err, "failed to settle quote %s", quoteID)
	}

	tx := domain.NewExchangeTransaction("tx_"+uuid.NewString(), q, now.UTC())
	e.ledger.Append(tx)
	e.quotes.remove(quoteID)

	if e.publisher != nil {
		e.publisher.Publish(domain.NewBalanceSnapshot(now, fromWallet), domain.NewBalanceSnapshot(now, toWallet))
	}
	if e.journal != nil {
		if err := e.journal.Save(tx); err != nil {
			e.logger.Warn("failed to journal exchange", zap.String("tx", tx.ID), zap.Error(err))
		}
	}

	e.metrics.ExecutionFinished(ResultOK)
	e.metrics.SetPendingQuotes(e.quotes.len())
	e.logger.Info("quote executed",
		zap.String("quote", quoteID),
		zap.String("tx", tx.ID),
		zap.String("debit", q.Cost().String()+" "+q.From.String()),
		zap.String("credit", q.Expected.String()+" "+q.To.String()))

	return tx, nil
}

// Discard drops a pending quote that was superseded by a newer one.
func (e *Engine) Discard(quoteID string) bool {
	removed := e.quotes.removeUnclaimed(quoteID)
	if removed {
		e.metrics.SetPendingQuotes(e.quotes.len())
	}

	return removed
}

// Pending returns the number of quotes awaiting execution.
func (e *Engine) Pending() int {
	return e.quotes.len()
}

// Sweep drops expired quotes and returns how many were dropped.
func (e *Engine) Sweep() int {
	n := e.quotes.sweep(e.now())
	if n > 0 {
		e.logger.Debug("expired quotes dropped", zap.Int("count", n))
	}
	e.metrics.SetPendingQuotes(e.quotes.len())

	return n
}

// Run sweeps expired quotes until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			e.Sweep()
		}
	}
}

// Package terminal is an interactive command line exchange desk.
package terminal

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/exdesk/internal/domain"
	"github.com/vadiminshakov/exdesk/internal/services/ticker"
)

const (
	title             = "EXDESK EXCHANGE TERMINAL"
	defaultTickerWait = 5 * time.Second
	clearScreen       = "\033[H\033[2J"
)

type walletStore interface {
	List() []domain.Wallet
	Get(currency domain.Currency) (domain.Wallet, error)
}

type exchangeEngine interface {
	CreateQuote(ctx context.Context, from, to domain.Currency, amount decimal.Decimal) (domain.ExchangeQuote, error)
	Execute(ctx context.Context, quoteID string) (domain.Transaction, error)
	Discard(quoteID string) bool
}

type tickerTracker interface {
	Request(ctx context.Context, base, quote domain.Currency) *ticker.Request
	State() ticker.State
}

// Terminal walks the user through pair selection, quoting and execution.
type Terminal struct {
	wallets walletStore
	engine  exchangeEngine
	tracker tickerTracker
	prompt  Prompter
	out     io.Writer
	logger  *zap.Logger

	tickerWait time.Duration
	now        func() time.Time
	clear      bool
}

// New creates a terminal writing to out.
func New(wallets walletStore, engine exchangeEngine, tracker tickerTracker, prompt Prompter, out io.Writer, logger *zap.Logger) *Terminal {
	if logger == nil {
		logger = zap.NewNop()
	}
	if prompt == nil {
		prompt = FormPrompter{}
	}

	return &Terminal{
		wallets:    wallets,
		engine:     engine,
		tracker:    tracker,
		prompt:     prompt,
		out:        out,
		logger:     logger,
		tickerWait: defaultTickerWait,
		now:        time.Now,
		clear:      true,
	}
}

// Run loops over exchanges until the user quits or ctx is done.
func (t *Terminal) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		again, err := t.exchangeOnce(ctx)
		if errors.Is(err, huh.ErrUserAborted) {
			return nil
		}
		if err != nil {
			return err
		}
		if !again {
			return nil
		}
	}
}

func (t *Terminal) header(step string) {
	if t.clear {
		fmt.Fprint(t.out, clearScreen)
	}
	fmt.Fprintln(t.out, headerStyle.Render(title))
	fmt.Fprintln(t.out, stepStyle.Render(step))
}

func (t *Terminal) exchangeOnce(ctx context.Context) (bool, error) {
	t.header("WALLETS")
	fmt.Fprintln(t.out, RenderWallets(t.wallets.List()))

	from, to, err := t.prompt.SelectPair()
	if err != nil {
		return false, err
	}
	if err := validatePair(from, to); err != nil {
		fmt.Fprintln(t.out, errorStyle.Render(err.Error()))
		return t.prompt.Confirm("Start over?")
	}

	t.header("MARKET " + domain.NewPair(from, to).String())
	fmt.Fprintln(t.out, RenderTicker(t.waitTicker(ctx, from, to)))

	wallet, err := t.wallets.Get(from)
	if err != nil {
		return false, err
	}
	amount, err := t.prompt.Amount(from, wallet.Balance)
	if err != nil {
		return false, err
	}

	quote, err := t.engine.CreateQuote(ctx, from, to, amount)
	if err != nil {
		fmt.Fprintln(t.out, errorStyle.Render("Quote error: "+err.Error()))
		return t.prompt.Confirm("Start over?")
	}

	t.header("REVIEW QUOTE")
	fmt.Fprintln(t.out, RenderQuote(quote, t.now()))

	ok, err := t.prompt.Confirm("Execute this exchange?")
	if err != nil {
		t.engine.Discard(quote.ID)
		return false, err
	}
	if !ok {
		t.engine.Discard(quote.ID)
		fmt.Fprintln(t.out, mutedStyle.Render("Quote discarded"))
		return t.prompt.Confirm("Make another exchange?")
	}

	tx, err := t.engine.Execute(ctx, quote.ID)
	if err != nil {
		t.logger.Info("exchange failed", zap.String("quote", quote.ID), zap.Error(err))
		fmt.Fprintln(t.out, errorStyle.Render("Exchange failed: "+failureMessage(err)))
		t.engine.Discard(quote.ID)
		return t.prompt.Confirm("Make another exchange?")
	}

	t.header("DONE")
	fmt.Fprintln(t.out, RenderTransaction(tx))
	fmt.Fprintln(t.out, RenderWallets(t.wallets.List()))

	return t.prompt.Confirm("Make another exchange?")
}

// waitTicker requests the pair and waits briefly for the lookup to settle.
func (t *Terminal) waitTicker(ctx context.Context, base, quote domain.Currency) ticker.State {
	req := t.tracker.Request(ctx, base, quote)

	wait := time.NewTimer(t.tickerWait)
	defer wait.Stop()

	select {
	case <-req.Done():
	case <-wait.C:
	case <-ctx.Done():
	}

	return t.tracker.State()
}

func failureMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientBalance):
		return "insufficient balance"
	case errors.Is(err, domain.ErrExpired):
		return "quote expired, request a new one"
	case errors.Is(err, domain.ErrNotFound):
		return "quote is no longer available"
	default:
		return err.Error()
	}
}

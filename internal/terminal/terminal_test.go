package terminal

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/exdesk/internal/domain"
	"github.com/vadiminshakov/exdesk/internal/services/exchange"
	"github.com/vadiminshakov/exdesk/internal/services/rates"
	"github.com/vadiminshakov/exdesk/internal/services/ticker"
	"github.com/vadiminshakov/exdesk/internal/storage/ledger"
	"github.com/vadiminshakov/exdesk/internal/storage/wallets"
)

// scriptedPrompter replays canned answers.
type scriptedPrompter struct {
	from, to domain.Currency
	amount   decimal.Decimal
	confirms []bool
	asked    []string
	pairErr  error
}

func (p *scriptedPrompter) SelectPair() (domain.Currency, domain.Currency, error) {
	return p.from, p.to, p.pairErr
}

func (p *scriptedPrompter) Amount(domain.Currency, decimal.Decimal) (decimal.Decimal, error) {
	return p.amount, nil
}

func (p *scriptedPrompter) Confirm(title string) (bool, error) {
	p.asked = append(p.asked, title)
	if len(p.confirms) == 0 {
		return false, nil
	}
	answer := p.confirms[0]
	p.confirms = p.confirms[1:]
	return answer, nil
}

type stubGetter struct {
	snapshot domain.TickerSnapshot
}

func (s stubGetter) GetTicker(context.Context, domain.Currency, domain.Currency) (domain.TickerSnapshot, error) {
	return s.snapshot, nil
}

type fixture struct {
	term    *Terminal
	out     *bytes.Buffer
	wallets *wallets.Store
	ledger  *ledger.Ledger
	engine  *exchange.Engine
}

func newFixture(t *testing.T, prompt Prompter) *fixture {
	t.Helper()

	store, err := wallets.NewStore(wallets.DefaultWallets(), rates.NewReferencePrices())
	require.NoError(t, err)
	txs := ledger.New()
	engine, err := exchange.NewEngine(exchange.Config{}, rates.NewStaticTable(), store, txs, nil)
	require.NoError(t, err)

	snapshot := domain.NewTickerSnapshot(domain.DailyStats{
		Open: decimal.NewFromInt(1), Last: decimal.NewFromInt(1),
		High: decimal.NewFromInt(1), Low: decimal.NewFromInt(1),
	}, domain.TickerSourceCoinbase)
	tracker := ticker.NewTracker(stubGetter{snapshot: snapshot}, nil)

	out := &bytes.Buffer{}
	term := New(store, engine, tracker, prompt, out, nil)
	term.clear = false
	term.tickerWait = time.Second

	return &fixture{term: term, out: out, wallets: store, ledger: txs, engine: engine}
}

func TestTerminal_ExecutesConfirmedExchange(t *testing.T) {
	prompt := &scriptedPrompter{from: domain.USD, to: domain.USDT, amount: decimal.NewFromInt(500), confirms: []bool{true, false}}
	f := newFixture(t, prompt)

	require.NoError(t, f.term.Run(context.Background()))

	usd, err := f.wallets.Get(domain.USD)
	require.NoError(t, err)
	assert.True(t, usd.Balance.Equal(decimal.RequireFromString("4733.12")))
	assert.Equal(t, 1, f.ledger.Len())
	assert.Equal(t, []string{"Execute this exchange?", "Make another exchange?"}, prompt.asked)

	out := f.out.String()
	assert.Contains(t, out, "You receive  499 USDT")
	assert.Contains(t, out, "USD → USDT")
	assert.Contains(t, out, "via coinbase")
}

func TestTerminal_DeclinedQuoteIsDiscarded(t *testing.T) {
	prompt := &scriptedPrompter{from: domain.BTC, to: domain.ETH, amount: decimal.RequireFromString("0.1"), confirms: []bool{false, false}}
	f := newFixture(t, prompt)

	require.NoError(t, f.term.Run(context.Background()))

	assert.Zero(t, f.ledger.Len())
	assert.Zero(t, f.engine.Pending())
	assert.Contains(t, f.out.String(), "Quote discarded")
}

func TestTerminal_ReportsQuoteErrors(t *testing.T) {
	prompt := &scriptedPrompter{from: domain.BTC, to: domain.USD, amount: decimal.RequireFromString("0.00001")}
	f := newFixture(t, prompt)

	require.NoError(t, f.term.Run(context.Background()))

	assert.Contains(t, f.out.String(), "Quote error")
	assert.Equal(t, []string{"Start over?"}, prompt.asked)
}

func TestTerminal_ReportsInsufficientBalance(t *testing.T) {
	prompt := &scriptedPrompter{from: domain.ETH, to: domain.BTC, amount: decimal.NewFromInt(100), confirms: []bool{true, false}}
	f := newFixture(t, prompt)

	require.NoError(t, f.term.Run(context.Background()))

	assert.Contains(t, f.out.String(), "insufficient balance")
	assert.Zero(t, f.engine.Pending())
}

func TestTerminal_RejectsFiatPair(t *testing.T) {
	prompt := &scriptedPrompter{from: domain.EUR, to: domain.GBP}
	f := newFixture(t, prompt)

	require.NoError(t, f.term.Run(context.Background()))
	assert.Contains(t, f.out.String(), "fiat to fiat")
}

func TestTerminal_AbortEndsCleanly(t *testing.T) {
	f := newFixture(t, &scriptedPrompter{pairErr: huh.ErrUserAborted})

	require.NoError(t, f.term.Run(context.Background()))
}

func TestRenderTicker(t *testing.T) {
	pair := domain.NewPair(domain.BTC, domain.ETH)

	loading := RenderTicker(ticker.State{Pair: pair, Loading: true})
	assert.Contains(t, loading, "loading")

	neutral := RenderTicker(ticker.State{Pair: pair, Snapshot: domain.NeutralSnapshot(), Error: "feed down"})
	assert.Contains(t, neutral, "—")
	assert.Contains(t, neutral, "feed down")

	stats := domain.DailyStats{
		Open: decimal.NewFromInt(100), Last: decimal.NewFromInt(110),
		High: decimal.NewFromInt(120), Low: decimal.NewFromInt(90),
	}
	live := RenderTicker(ticker.State{Pair: pair, Snapshot: domain.NewTickerSnapshot(stats.Invert(), domain.TickerSourceBinance)})
	assert.Contains(t, live, "0.00909091")
	assert.Contains(t, live, "-9.09%")
}

func TestRenderQuote(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	q := domain.ExchangeQuote{
		ID: "q_1", From: domain.USD, To: domain.USDT,
		Amount: decimal.NewFromInt(500), Rate: decimal.NewFromInt(1),
		Fee: decimal.NewFromInt(1), Expected: decimal.NewFromInt(499),
		ExpiresAt: now.Add(30 * time.Second),
	}

	out := RenderQuote(q, now.Add(10*time.Second))
	assert.Contains(t, out, "You pay      501 USD")
	assert.Contains(t, out, "valid for 20s")

	assert.Contains(t, RenderQuote(q, now.Add(time.Minute)), "valid for 0s")
}

func TestParseAmount(t *testing.T) {
	d, err := parseAmount("12.5")
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.RequireFromString("12.5")))

	_, err = parseAmount("abc")
	assert.Error(t, err)
	_, err = parseAmount("0")
	assert.Error(t, err)
}

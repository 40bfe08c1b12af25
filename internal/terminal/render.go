package terminal

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/exdesk/internal/domain"
	"github.com/vadiminshakov/exdesk/internal/services/ticker"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	danger    = lipgloss.AdaptiveColor{Light: "#E0301E", Dark: "#FF5F56"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1)

	boxStyle   = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1)
	mutedStyle = lipgloss.NewStyle().Foreground(subtle)
	upStyle    = lipgloss.NewStyle().Foreground(special)
	downStyle  = lipgloss.NewStyle().Foreground(danger)
	errorStyle = lipgloss.NewStyle().Foreground(danger).Bold(true)
)

// RenderWallets renders balances with their USD value and the account total.
func RenderWallets(wallets []domain.Wallet) string {
	var (
		b     strings.Builder
		total = decimal.Zero
	)
	fmt.Fprintf(&b, "%-6s %18s %14s\n", "ASSET", "BALANCE", "USD")
	for _, w := range wallets {
		fmt.Fprintf(&b, "%-6s %18s %14s\n", w.Currency, w.DisplayBalance(), w.USDEquivalent.StringFixed(2))
		total = total.Add(w.USDEquivalent)
	}
	fmt.Fprintf(&b, "%-6s %18s %14s", "TOTAL", "", total.StringFixed(2))

	return boxStyle.Render(b.String())
}

// RenderTicker renders the tracked pair. A neutral snapshot shows dashes.
func RenderTicker(state ticker.State) string {
	title := state.Pair.Base.String() + "/" + state.Pair.Quote.String()
	if state.Loading {
		return boxStyle.Render(title + "  " + mutedStyle.Render("loading..."))
	}

	s := state.Snapshot
	lines := []string{
		fmt.Sprintf("%s  %s", title, mutedStyle.Render("via "+s.Source.String())),
		fmt.Sprintf("price  %s", nullable(s.Price, 8)),
		fmt.Sprintf("24h hi %s  lo %s", nullable(s.High24h, 8), nullable(s.Low24h, 8)),
		fmt.Sprintf("24h    %s", change(s.Change24hPct)),
	}
	if state.Error != "" {
		lines = append(lines, errorStyle.Render("feed error: "+state.Error))
	}

	return boxStyle.Render(strings.Join(lines, "\n"))
}

// RenderQuote renders a quote and the time left to accept it.
func RenderQuote(q domain.ExchangeQuote, now time.Time) string {
	left := q.ExpiresAt.Sub(now).Truncate(time.Second)
	if left < 0 {
		left = 0
	}

	return boxStyle.Render(strings.Join([]string{
		fmt.Sprintf("You pay      %s %s", q.Cost().String(), q.From),
		fmt.Sprintf("  amount     %s %s", q.Amount.String(), q.From),
		fmt.Sprintf("  fee        %s %s", q.Fee.String(), q.From),
		fmt.Sprintf("Rate         1 %s = %s %s", q.From, q.Rate.String(), q.To),
		fmt.Sprintf("You receive  %s %s", q.Expected.String(), q.To),
		mutedStyle.Render(fmt.Sprintf("valid for %s", left)),
	}, "\n"))
}

// RenderTransaction renders an executed exchange.
func RenderTransaction(tx domain.Transaction) string {
	return upStyle.Render(fmt.Sprintf("✓ %s %s %s %s (%s)", tx.Purpose, tx.Amount.String(), tx.Currency, tx.Status, tx.ID))
}

func nullable(d decimal.NullDecimal, places int32) string {
	if !d.Valid {
		return "—"
	}

	return d.Decimal.Round(places).String()
}

func change(d decimal.NullDecimal) string {
	if !d.Valid {
		return "—"
	}

	pct := d.Decimal.StringFixed(2) + "%"
	if d.Decimal.IsNegative() {
		return downStyle.Render(pct)
	}

	return upStyle.Render("+" + pct)
}

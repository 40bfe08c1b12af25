// Package wallets keeps the account wallets in memory and settles exchanges against them.
package wallets

import (
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/exdesk/internal/domain"
)

// PriceReference returns USD prices used for cached wallet valuations.
type PriceReference interface {
	USDPrice(currency domain.Currency) decimal.Decimal
}

// Store holds one wallet per currency. Balances never go below zero.
type Store struct {
	mu      sync.RWMutex
	wallets map[domain.Currency]*domain.Wallet
	order   []domain.Currency
	prices  PriceReference
}

// DefaultWallets returns the demo account balances.
func DefaultWallets() []domain.Wallet {
	return []domain.Wallet{
		{ID: "w_usd", Currency: domain.USD, Balance: decimal.RequireFromString("5234.12"), Decimals: 2},
		{ID: "w_eur", Currency: domain.EUR, Balance: decimal.RequireFromString("2310.5"), Decimals: 2},
		{ID: "w_gbp", Currency: domain.GBP, Balance: decimal.RequireFromString("1120.85"), Decimals: 2},
		{ID: "w_btc", Currency: domain.BTC, Balance: decimal.RequireFromString("0.2456789"), Decimals: 8, Address: "bc1qh9m2v0u6xq7y8z9abc1234567890xyz"},
		{ID: "w_usdt", Currency: domain.USDT, Balance: decimal.NewFromInt(1500), Decimals: 2},
		{ID: "w_eth", Currency: domain.ETH, Balance: decimal.RequireFromString("3.412"), Decimals: 8},
	}
}

// NewStore creates a store from seed wallets. Currencies without a seed start empty.
func NewStore(seed []domain.Wallet, prices PriceReference) (*Store, error) {
	if prices == nil {
		return nil, errors.New("price reference is required")
	}

	s := &Store{
		wallets: make(map[domain.Currency]*domain.Wallet, len(domain.Currencies())),
		prices:  prices,
	}

	for _, w := range seed {
		if !w.Currency.IsValid() {
			return nil, errors.Wrapf(domain.ErrValidation, "wallet %s has unknown currency %q", w.ID, w.Currency)
		}
		if w.Balance.IsNegative() {
			return nil, errors.Wrapf(domain.ErrValidation, "wallet %s balance is negative", w.ID)
		}
		if _, dup := s.wallets[w.Currency]; dup {
			return nil, errors.Wrapf(domain.ErrValidation, "duplicate wallet for %s", w.Currency)
		}
		wallet := w
		s.wallets[w.Currency] = &wallet
		s.order = append(s.order, w.Currency)
	}

	for _, c := range domain.Currencies() {
		if _, ok := s.wallets[c]; ok {
			continue
		}
		s.wallets[c] = &domain.Wallet{ID: "w_" + strings.ToLower(c.String()), Currency: c, Balance: decimal.Zero, Decimals: defaultDecimals(c)}
		s.order = append(s.order, c)
	}

	s.revalue()

	return s, nil
}

// List returns copies of all wallets in display order.
func (s *Store) List() []domain.Wallet {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Wallet, 0, len(s.order))
	for _, c := range s.order {
		out = append(out, *s.wallets[c])
	}

	return out
}

// Get returns a copy of the wallet for currency.
func (s *Store) Get(currency domain.Currency) (domain.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.wallets[currency]
	if !ok {
		return domain.Wallet{}, errors.Wrapf(domain.ErrValidation, "no wallet for %q", currency)
	}

	return *w, nil
}

// Settle debits one wallet and credits another in a single step.
// Nothing changes when the debit exceeds the available balance.
func (s *Store) Settle(debitCurrency domain.Currency, debit decimal.Decimal, creditCurrency domain.Currency, credit decimal.Decimal) (from, to domain.Wallet, err error) {
	if debitCurrency == creditCurrency {
		return from, to, errors.Wrap(domain.ErrValidation, "cannot settle a wallet against itself")
	}
	if debit.IsNegative() || credit.IsNegative() {
		return from, to, errors.Wrap(domain.ErrValidation, "settlement amounts must not be negative")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.wallets[debitCurrency]
	if !ok {
		return from, to, errors.Wrapf(domain.ErrValidation, "no wallet for %q", debitCurrency)
	}
	dst, ok := s.wallets[creditCurrency]
	if !ok {
		return from, to, errors.Wrapf(domain.ErrValidation, "no wallet for %q", creditCurrency)
	}

	if src.Balance.LessThan(debit) {
		return from, to, errors.Wrapf(domain.ErrInsufficientBalance, "have %s %s need %s",
			src.Balance.String(), debitCurrency, debit.String())
	}

	src.Balance = src.Balance.Sub(debit)
	dst.Balance = dst.Balance.Add(credit)
	s.revalue()

	return *src, *dst, nil
}

// Deposit credits a wallet with external funds.
func (s *Store) Deposit(currency domain.Currency, amount decimal.Decimal) (domain.Wallet, error) {
	if !amount.IsPositive() {
		return domain.Wallet{}, errors.Wrap(domain.ErrValidation, "deposit amount must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wallets[currency]
	if !ok {
		return domain.Wallet{}, errors.Wrapf(domain.ErrValidation, "no wallet for %q", currency)
	}
	w.Balance = w.Balance.Add(amount)
	s.revalue()

	return *w, nil
}

// TotalUSD returns the cached USD value of all wallets.
func (s *Store) TotalUSD() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, w := range s.wallets {
		total = total.Add(w.USDEquivalent)
	}

	return total
}

// revalue refreshes cached USD equivalents. Callers must hold the write lock.
func (s *Store) revalue() {
	for c, w := range s.wallets {
		w.USDEquivalent = w.Balance.Mul(s.prices.USDPrice(c))
	}
}

func defaultDecimals(c domain.Currency) int32 {
	if c == domain.BTC || c == domain.ETH {
		return 8
	}

	return 2
}

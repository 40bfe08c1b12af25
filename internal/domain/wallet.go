package domain

import "github.com/shopspring/decimal"

// Wallet holds the balance of a single currency for the account.
type Wallet struct {
	ID       string          `json:"id"`
	Currency Currency        `json:"currency"`
	Balance  decimal.Decimal `json:"balance"`
	// USDEquivalent cached balance value in USD, refreshed on every settlement.
	USDEquivalent decimal.Decimal `json:"usdEquivalent"`
	Address       string          `json:"address,omitempty"`
	// Decimals display precision only, balances keep full precision.
	Decimals int32 `json:"decimals"`
}

// DisplayBalance returns the balance rounded to the wallet display precision.
func (w Wallet) DisplayBalance() string {
	return w.Balance.StringFixed(w.Decimals)
}

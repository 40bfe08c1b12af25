package domain

import "time"

// BalanceSnapshot wallet state published after a settlement.
// String fields avoid precision issues when rendered in UI layers.
type BalanceSnapshot struct {
	Timestamp     time.Time `json:"ts"`
	Currency      string    `json:"currency"`
	Balance       string    `json:"balance"`
	USDEquivalent string    `json:"usdEquivalent"`
}

// NewBalanceSnapshot creates a snapshot of the wallet at timestamp.
func NewBalanceSnapshot(timestamp time.Time, wallet Wallet) BalanceSnapshot {
	return BalanceSnapshot{
		Timestamp:     timestamp,
		Currency:      wallet.Currency.String(),
		Balance:       wallet.Balance.String(),
		USDEquivalent: wallet.USDEquivalent.String(),
	}
}

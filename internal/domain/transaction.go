package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionCategory kind of wallet movement.
type TransactionCategory string

const (
	TransactionCategoryDeposit  TransactionCategory = "Deposit"
	TransactionCategorySend     TransactionCategory = "Send"
	TransactionCategoryExchange TransactionCategory = "Exchange"
)

// TransactionStatus processing state of a transaction.
type TransactionStatus string

const (
	TransactionStatusApproved TransactionStatus = "Approved"
	TransactionStatusPending  TransactionStatus = "Pending"
	TransactionStatusDenied   TransactionStatus = "Denied"
)

// Transaction immutable audit record of a wallet movement.
type Transaction struct {
	ID       string              `json:"id"`
	Date     time.Time           `json:"dateISO"`
	Category TransactionCategory `json:"category"`
	// Amount signed, negative for outgoing funds.
	Amount   decimal.Decimal   `json:"amount"`
	Currency Currency          `json:"currency"`
	Entity   string            `json:"entity,omitempty"`
	Purpose  string            `json:"purpose,omitempty"`
	Status   TransactionStatus `json:"status"`
}

// NewExchangeTransaction builds the record appended for an executed quote.
func NewExchangeTransaction(id string, quote ExchangeQuote, at time.Time) Transaction {
	return Transaction{
		ID:       id,
		Date:     at,
		Category: TransactionCategoryExchange,
		Amount:   quote.Amount.Neg(),
		Currency: quote.From,
		Entity:   "Exchange",
		Purpose:  fmt.Sprintf("%s → %s", quote.From, quote.To),
		Status:   TransactionStatusApproved,
	}
}

// TransactionRecord bundles a transaction with the journal index it was written at.
type TransactionRecord struct {
	Index       uint64
	Transaction Transaction
}

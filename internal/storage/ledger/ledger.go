// Package ledger keeps the append-only transaction history of the account.
package ledger

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/exdesk/internal/domain"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// SortOrder direction of the date ordering.
type SortOrder string

const (
	SortDateDesc SortOrder = "date:desc"
	SortDateAsc  SortOrder = "date:asc"
)

// ParseSortOrder parses "date", "date:asc" or "date:desc". Empty input means newest first.
func ParseSortOrder(raw string) (SortOrder, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	switch raw {
	case "", "date", string(SortDateDesc):
		return SortDateDesc, nil
	case string(SortDateAsc):
		return SortDateAsc, nil
	default:
		return "", errors.Wrapf(domain.ErrValidation, "unsupported sort %q", raw)
	}
}

// Page window of the ledger.
type Page struct {
	Items []domain.Transaction `json:"items"`
	Total int                  `json:"total"`
}

// Ledger is safe for concurrent use.
type Ledger struct {
	mu  sync.RWMutex
	txs []domain.Transaction
}

// New creates a ledger holding the given history.
func New(history ...domain.Transaction) *Ledger {
	l := &Ledger{}
	l.txs = append(l.txs, history...)

	return l
}

// DemoHistory returns the demo account history relative to now.
func DemoHistory(now time.Time) []domain.Transaction {
	day := 24 * time.Hour

	return []domain.Transaction{
		{
			ID: "tx_1001", Date: now.Add(-1 * day), Category: domain.TransactionCategoryDeposit,
			Amount: decimal.NewFromInt(1500), Currency: domain.USD, Entity: "Bank Transfer", Purpose: "Top-up",
			Status: domain.TransactionStatusApproved,
		},
		{
			ID: "tx_1002", Date: now.Add(-2 * day), Category: domain.TransactionCategorySend,
			Amount: decimal.RequireFromString("-0.05"), Currency: domain.BTC, Entity: "1A1zP1...", Purpose: "Payment",
			Status: domain.TransactionStatusApproved,
		},
		{
			ID: "tx_1003", Date: now.Add(-3 * day), Category: domain.TransactionCategoryExchange,
			Amount: decimal.NewFromInt(-500), Currency: domain.USD, Entity: "Exchange", Purpose: "Swap to USDT",
			Status: domain.TransactionStatusApproved,
		},
	}
}

// Append records a transaction. Callers own the id.
func (l *Ledger) Append(tx domain.Transaction) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.txs = append(l.txs, tx)
}

// Len returns the number of recorded transactions.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.txs)
}

// List returns one page of transactions. Pages are 1-based.
func (l *Ledger) List(page, size int, order SortOrder) Page {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}

	l.mu.RLock()
	sorted := make([]domain.Transaction, len(l.txs))
	copy(sorted, l.txs)
	l.mu.RUnlock()

	sort.SliceStable(sorted, func(i, j int) bool {
		if order == SortDateAsc {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		return sorted[i].Date.After(sorted[j].Date)
	})

	start := (page - 1) * size
	if start >= len(sorted) {
		return Page{Items: []domain.Transaction{}, Total: len(sorted)}
	}
	end := start + size
	if end > len(sorted) {
		end = len(sorted)
	}

	return Page{Items: sorted[start:end], Total: len(sorted)}
}

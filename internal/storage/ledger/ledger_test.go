package ledger

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/exdesk/internal/domain"
)

func TestParseSortOrder(t *testing.T) {
	order, err := ParseSortOrder("")
	require.NoError(t, err)
	assert.Equal(t, SortDateDesc, order)

	order, err = ParseSortOrder("DATE:ASC")
	require.NoError(t, err)
	assert.Equal(t, SortDateAsc, order)

	_, err = ParseSortOrder("amount:desc")
	require.True(t, errors.Is(err, domain.ErrValidation))
}

func TestLedger_ListNewestFirst(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	l := New(DemoHistory(now)...)

	l.Append(domain.Transaction{
		ID: "tx_new", Date: now, Category: domain.TransactionCategoryExchange,
		Amount: decimal.NewFromInt(-10), Currency: domain.EUR, Status: domain.TransactionStatusApproved,
	})

	page := l.List(1, 10, SortDateDesc)
	require.Equal(t, 4, page.Total)
	require.Len(t, page.Items, 4)
	assert.Equal(t, "tx_new", page.Items[0].ID)
	assert.Equal(t, "tx_1003", page.Items[3].ID)

	page = l.List(1, 10, SortDateAsc)
	assert.Equal(t, "tx_1003", page.Items[0].ID)
	assert.Equal(t, "tx_new", page.Items[3].ID)
}

func TestLedger_Pagination(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	l := New(DemoHistory(now)...)

	page := l.List(2, 2, SortDateDesc)
	require.Equal(t, 3, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "tx_1003", page.Items[0].ID)

	page = l.List(5, 2, SortDateDesc)
	assert.Empty(t, page.Items)
	assert.Equal(t, 3, page.Total)

	// invalid paging falls back to defaults
	page = l.List(0, 0, SortDateDesc)
	assert.Len(t, page.Items, 3)
}

func TestLedger_ConcurrentAppend(t *testing.T) {
	l := New()
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Append(domain.Transaction{ID: fmt.Sprintf("tx_%d", i), Date: now.Add(time.Duration(i) * time.Second)})
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, l.Len())
	page := l.List(1, 50, SortDateDesc)
	assert.Equal(t, "tx_49", page.Items[0].ID)
}

func TestLedger_ListReturnsCopy(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	l := New(DemoHistory(now)...)

	page := l.List(1, 10, SortDateDesc)
	page.Items[0].ID = "mutated"

	assert.Equal(t, "tx_1001", l.List(1, 10, SortDateDesc).Items[0].ID)
}

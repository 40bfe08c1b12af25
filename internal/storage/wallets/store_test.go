package wallets

import (
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/exdesk/internal/domain"
	"github.com/vadiminshakov/exdesk/internal/services/rates"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(DefaultWallets(), rates.NewReferencePrices())
	require.NoError(t, err)
	return store
}

func TestNewStore_SeedsAndValues(t *testing.T) {
	store := newTestStore(t)

	list := store.List()
	require.Len(t, list, 6)
	assert.Equal(t, domain.USD, list[0].Currency)
	assert.Equal(t, domain.ETH, list[5].Currency)

	btc, err := store.Get(domain.BTC)
	require.NoError(t, err)
	// 0.2456789 * 62000
	assert.True(t, btc.USDEquivalent.Equal(decimal.RequireFromString("15232.0918")))
	assert.Equal(t, "0.24567890", btc.DisplayBalance())

	eur, err := store.Get(domain.EUR)
	require.NoError(t, err)
	assert.True(t, eur.USDEquivalent.Equal(decimal.RequireFromString("2495.34")))
}

func TestNewStore_FillsMissingCurrencies(t *testing.T) {
	store, err := NewStore([]domain.Wallet{{ID: "w_usd", Currency: domain.USD, Balance: decimal.NewFromInt(10), Decimals: 2}}, rates.NewReferencePrices())
	require.NoError(t, err)

	require.Len(t, store.List(), 6)
	eth, err := store.Get(domain.ETH)
	require.NoError(t, err)
	assert.True(t, eth.Balance.IsZero())
	assert.Equal(t, "w_eth", eth.ID)
	assert.Equal(t, int32(8), eth.Decimals)
}

func TestNewStore_RejectsBadSeed(t *testing.T) {
	prices := rates.NewReferencePrices()

	_, err := NewStore([]domain.Wallet{{ID: "x", Currency: domain.USD, Balance: decimal.NewFromInt(-1)}}, prices)
	require.True(t, errors.Is(err, domain.ErrValidation))

	_, err = NewStore([]domain.Wallet{{ID: "x", Currency: "XRP"}}, prices)
	require.True(t, errors.Is(err, domain.ErrValidation))

	_, err = NewStore([]domain.Wallet{{ID: "a", Currency: domain.USD}, {ID: "b", Currency: domain.USD}}, prices)
	require.True(t, errors.Is(err, domain.ErrValidation))

	_, err = NewStore(nil, nil)
	require.Error(t, err)
}

func TestStore_Settle(t *testing.T) {
	store := newTestStore(t)

	from, to, err := store.Settle(domain.USD, decimal.NewFromInt(501), domain.USDT, decimal.NewFromInt(499))
	require.NoError(t, err)

	assert.True(t, from.Balance.Equal(decimal.RequireFromString("4733.12")))
	assert.True(t, from.USDEquivalent.Equal(from.Balance))
	assert.True(t, to.Balance.Equal(decimal.NewFromInt(1999)))
	assert.True(t, to.USDEquivalent.Equal(decimal.NewFromInt(1999)))
}

func TestStore_Settle_InsufficientBalance(t *testing.T) {
	store, err := NewStore([]domain.Wallet{{ID: "w_usd", Currency: domain.USD, Balance: decimal.NewFromInt(300), Decimals: 2}}, rates.NewReferencePrices())
	require.NoError(t, err)

	_, _, err = store.Settle(domain.USD, decimal.NewFromInt(501), domain.USDT, decimal.NewFromInt(499))
	require.True(t, errors.Is(err, domain.ErrInsufficientBalance))

	usd, err := store.Get(domain.USD)
	require.NoError(t, err)
	assert.True(t, usd.Balance.Equal(decimal.NewFromInt(300)))
	usdt, err := store.Get(domain.USDT)
	require.NoError(t, err)
	assert.True(t, usdt.Balance.IsZero())
}

func TestStore_Settle_Validation(t *testing.T) {
	store := newTestStore(t)

	_, _, err := store.Settle(domain.USD, decimal.NewFromInt(1), domain.USD, decimal.NewFromInt(1))
	require.True(t, errors.Is(err, domain.ErrValidation))

	_, _, err = store.Settle(domain.USD, decimal.NewFromInt(-1), domain.EUR, decimal.NewFromInt(1))
	require.True(t, errors.Is(err, domain.ErrValidation))
}

func TestStore_Deposit(t *testing.T) {
	store := newTestStore(t)

	w, err := store.Deposit(domain.ETH, decimal.RequireFromString("0.588"))
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(4)))
	assert.True(t, w.USDEquivalent.Equal(decimal.NewFromInt(12800)))

	_, err = store.Deposit(domain.ETH, decimal.Zero)
	require.True(t, errors.Is(err, domain.ErrValidation))
}

func TestStore_ConcurrentSettleNeverOverdraws(t *testing.T) {
	store, err := NewStore([]domain.Wallet{{ID: "w_usd", Currency: domain.USD, Balance: decimal.NewFromInt(100), Decimals: 2}}, rates.NewReferencePrices())
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := store.Settle(domain.USD, decimal.NewFromInt(10), domain.USDT, decimal.NewFromInt(10)); err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, success)
	usd, err := store.Get(domain.USD)
	require.NoError(t, err)
	assert.True(t, usd.Balance.IsZero())
	usdt, err := store.Get(domain.USDT)
	require.NoError(t, err)
	assert.True(t, usdt.Balance.Equal(decimal.NewFromInt(100)))
}

package exchange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vadiminshakov/exdesk/internal/domain"
)

func TestQuoteStore_ClaimIsExclusive(t *testing.T) {
	s := newQuoteStore()
	now := time.Now()
	s.put(domain.ExchangeQuote{ID: "q_1", ExpiresAt: now.Add(time.Minute)})

	_, ok := s.claim("q_1")
	assert.True(t, ok)
	_, ok = s.claim("q_1")
	assert.False(t, ok, "claimed quote is invisible")
	assert.False(t, s.removeUnclaimed("q_1"))
	assert.Zero(t, s.sweep(now.Add(time.Hour)), "claimed quote survives the sweep")

	s.release("q_1")
	q, ok := s.claim("q_1")
	assert.True(t, ok)
	assert.Equal(t, "q_1", q.ID)

	assert.True(t, s.remove("q_1"))
	assert.False(t, s.remove("q_1"))
	assert.Zero(t, s.len())
}

func TestQuoteStore_Sweep(t *testing.T) {
	s := newQuoteStore()
	now := time.Now()
	s.put(domain.ExchangeQuote{ID: "q_old", ExpiresAt: now.Add(-time.Second)})
	s.put(domain.ExchangeQuote{ID: "q_edge", ExpiresAt: now})
	s.put(domain.ExchangeQuote{ID: "q_new", ExpiresAt: now.Add(time.Second)})

	assert.Equal(t, 1, s.sweep(now))
	assert.Equal(t, 2, s.len())

	_, ok := s.claim("q_old")
	assert.False(t, ok)
}

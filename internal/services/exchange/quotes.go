package exchange

import (
	"sync"
	"time"

	"github.com/vadiminshakov/exdesk/internal/domain"
)

type quoteEntry struct {
	quote   domain.ExchangeQuote
	claimed bool
}

// quoteStore keeps pending quotes. A quote being executed is claimed and invisible to other callers.
type quoteStore struct {
	mu     sync.Mutex
	quotes map[string]*quoteEntry
}

func newQuoteStore() *quoteStore {
	return &quoteStore{quotes: make(map[string]*quoteEntry)}
}

func (s *quoteStore) put(q domain.ExchangeQuote) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.quotes[q.ID] = &quoteEntry{quote: q}
}

// claim hands the quote to a single caller until it is released or removed.
func (s *quoteStore) claim(id string) (domain.ExchangeQuote, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.quotes[id]
	if !ok || e.claimed {
		return domain.ExchangeQuote{}, false
	}
	e.claimed = true

	return e.quote, true
}

func (s *quoteStore) release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.quotes[id]; ok {
		e.claimed = false
	}
}

func (s *quoteStore) remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.quotes[id]
	delete(s.quotes, id)

	return ok
}

// removeUnclaimed drops a pending quote unless it is being executed.
func (s *quoteStore) removeUnclaimed(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.quotes[id]
	if !ok || e.claimed {
		return false
	}
	delete(s.quotes, id)

	return true
}

// sweep drops unclaimed quotes expired at now and returns how many were dropped.
func (s *quoteStore) sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	for id, e := range s.quotes {
		if !e.claimed && e.quote.ExpiredAt(now) {
			delete(s.quotes, id)
			n++
		}
	}

	return n
}

func (s *quoteStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.quotes)
}

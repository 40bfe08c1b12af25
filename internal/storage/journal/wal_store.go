// Package journal appends executed exchanges to a write-ahead log for auditing and streaming.
package journal

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"github.com/vadiminshakov/exdesk/internal/domain"
)

const (
	defaultJournalDir = "./wal/exchanges"
	segmentLimit      = 1000
	maxSegments       = 100
	txKeyPrefix       = "exchange_tx_"
)

// WALStore persists exchange transactions in a WAL.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALStore initializes a WAL-backed journal under the provided directory.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = defaultJournalDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "exchange_",
		SegmentThreshold: segmentLimit,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init exchange journal WAL")
	}

	return &WALStore{wal: wal}, nil
}

// Save appends the transaction to the journal.
func (s *WALStore) Save(tx domain.Transaction) error {
	if s == nil || s.wal == nil {
		return errors.New("exchange journal is not initialized")
	}
	if tx.ID == "" {
		return errors.New("journal transaction id is required")
	}

	payload, err := json.Marshal(tx)
	if err != nil {
		return errors.Wrap(err, "marshal journal transaction")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Write(s.wal.CurrentIndex()+1, txKeyPrefix+tx.ID, payload)
}

// TransactionsAfter returns all transactions written after the provided WAL index.
func (s *WALStore) TransactionsAfter(index uint64) ([]domain.TransactionRecord, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("exchange journal is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.wal.CurrentIndex()
	if current <= index {
		return nil, nil
	}

	records := make([]domain.TransactionRecord, 0, current-index)
	for idx := index + 1; idx <= current; idx++ {
		key, payload, err := s.wal.Get(idx)
		if err != nil {
			return nil, errors.Wrapf(err, "read journal entry %d", idx)
		}
		if !strings.HasPrefix(key, txKeyPrefix) {
			continue
		}
		var tx domain.Transaction
		if err := json.Unmarshal(payload, &tx); err != nil {
			return nil, errors.Wrap(err, "decode journal transaction")
		}
		records = append(records, domain.TransactionRecord{Index: idx, Transaction: tx})
	}

	return records, nil
}

// CurrentIndex returns the latest WAL index stored.
func (s *WALStore) CurrentIndex() uint64 {
	if s == nil || s.wal == nil {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.wal.CurrentIndex()
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("exchange journal is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}

package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/lendiq/riskcore/internal/kv"
)

// purchasesKey is the persisted key for the purchase history. Kept
// identical to the layout used by earlier releases.
const purchasesKey = "purchasedReports"

// Compile-time check that KVStore implements Store.
var _ Store = (*KVStore)(nil)

// KVStore implements Store over a key-value backend, storing the full
// purchase history as one JSON array under purchasesKey.
type KVStore struct {
	mu sync.Mutex
	kv kv.Store
}

// NewKVStore creates a purchase store over the given KV backend.
func NewKVStore(backend kv.Store) *KVStore {
	return &KVStore{kv: backend}
}

func (s *KVStore) Append(ctx context.Context, rec *PurchasedReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.readLocked()
	if err != nil {
		return err
	}
	recs = append(recs, rec)

	raw, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("encode purchases: %w", err)
	}
	if err := s.kv.Set(purchasesKey, string(raw)); err != nil {
		return fmt.Errorf("write purchases: %w", err)
	}
	return nil
}

func (s *KVStore) List(ctx context.Context) ([]*PurchasedReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked()
}

func (s *KVStore) readLocked() ([]*PurchasedReport, error) {
	raw, err := s.kv.Get(purchasesKey)
	if err != nil {
		if errors.Is(err, kv.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("read purchases: %w", err)
	}

	var recs []*PurchasedReport
	if err := json.Unmarshal([]byte(raw), &recs); err != nil {
		return nil, fmt.Errorf("corrupt purchase history: %w", err)
	}
	return recs, nil
}

package credits

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/lendiq/riskcore/internal/kv"
)

// balanceKey is the persisted key for the credit balance. Kept identical
// to the layout used by earlier releases so existing installs carry over.
const balanceKey = "availableCredits"

// Compile-time check that KVStore implements Store.
var _ Store = (*KVStore)(nil)

// KVStore implements Store over a key-value backend. A store-level mutex
// makes ConsumeOne an atomic check-then-decrement.
type KVStore struct {
	mu sync.Mutex
	kv kv.Store
}

// NewKVStore creates a credit store over the given KV backend.
func NewKVStore(backend kv.Store) *KVStore {
	return &KVStore{kv: backend}
}

func (s *KVStore) Balance(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked()
}

func (s *KVStore) Add(ctx context.Context, n int) (int, error) {
	if n <= 0 {
		return 0, ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	bal, err := s.readLocked()
	if err != nil {
		return 0, err
	}
	bal += n
	if err := s.writeLocked(bal); err != nil {
		return 0, err
	}
	return bal, nil
}

func (s *KVStore) ConsumeOne(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bal, err := s.readLocked()
	if err != nil {
		return false, err
	}
	if bal <= 0 {
		return false, nil
	}
	if err := s.writeLocked(bal - 1); err != nil {
		return false, err
	}
	return true, nil
}

// readLocked returns the persisted balance, defaulting to 0 when the key
// has never been written (caller holds the lock).
func (s *KVStore) readLocked() (int, error) {
	raw, err := s.kv.Get(balanceKey)
	if err != nil {
		if errors.Is(err, kv.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("read credit balance: %w", err)
	}
	bal, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("corrupt credit balance %q: %w", raw, err)
	}
	return bal, nil
}

func (s *KVStore) writeLocked(bal int) error {
	if err := s.kv.Set(balanceKey, strconv.Itoa(bal)); err != nil {
		return fmt.Errorf("write credit balance: %w", err)
	}
	return nil
}

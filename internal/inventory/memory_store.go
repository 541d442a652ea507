package inventory

import (
	"context"
	"sync"
)

// MemoryStore implements Store with in-memory storage. Used in dev mode and
// in tests; the check-then-decrement runs under one lock so concurrent
// commits for the last units serialize and exactly one wins.
type MemoryStore struct {
	mu     sync.RWMutex
	stocks map[int64]int32
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		stocks: make(map[int64]int32),
	}
}

func (s *MemoryStore) GetStock(_ context.Context, bookIDs []int64) (map[int64]int32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[int64]int32, len(bookIDs))
	for _, id := range bookIDs {
		if qty, exists := s.stocks[id]; exists {
			result[id] = qty
		}
	}
	return result, nil
}

func (s *MemoryStore) SetStock(_ context.Context, bookID int64, quantity int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stocks[bookID] = quantity
	return nil
}

// DecrementAll atomically decrements stock for every item or for none.
// First pass validates, second pass mutates; both run under the same lock.
func (s *MemoryStore) DecrementAll(_ context.Context, items []ItemQuantity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range items {
		qty, exists := s.stocks[item.BookID]
		if !exists {
			return &ShortfallError{BookID: item.BookID, cause: ErrBookNotFound}
		}
		if qty < item.Quantity {
			return &ShortfallError{BookID: item.BookID, cause: ErrInsufficientStock}
		}
	}

	for _, item := range items {
		s.stocks[item.BookID] -= item.Quantity
	}
	return nil
}

// Restore returns previously decremented quantities to the pool. Used as the
// compensating action when a later commit step fails.
func (s *MemoryStore) Restore(_ context.Context, items []ItemQuantity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range items {
		s.stocks[item.BookID] += item.Quantity
	}
}

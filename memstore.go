package quizbank

import (
	"context"
	"sync"
)

// MemoryStore keeps the bank in process memory
type MemoryStore struct {
	mu    sync.RWMutex
	bank  Bank
	saves int
}

// NewMemoryStore creates a store holding a copy of initial
func NewMemoryStore(initial Bank) *MemoryStore {
	return &MemoryStore{bank: initial.Clone()}
}

// Load returns a copy of the stored bank
func (s *MemoryStore) Load(_ context.Context) (Bank, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bank.Clone(), nil
}

// Save replaces the stored bank with a copy of bank
func (s *MemoryStore) Save(_ context.Context, bank Bank) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bank = bank.Clone()
	s.saves++
	return nil
}

// Clear empties the store
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bank = Bank{}
	s.saves++
	return nil
}

// Size returns the number of stored questions
func (s *MemoryStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bank)
}

// Saves returns how many times the bank was replaced
func (s *MemoryStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

package auth

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	attempts  Attempts
	expiresAt time.Time
}

// MemoryStore хранит состояние в памяти процесса
type MemoryStore struct {
	mu       sync.Mutex
	attempts map[int64]memoryEntry
	sessions map[int64]time.Time
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		attempts: make(map[int64]memoryEntry),
		sessions: make(map[int64]time.Time),
		now:      time.Now,
	}
}

func (s *MemoryStore) GetAttempts(_ context.Context, userID int64) (Attempts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.attempts[userID]
	if !ok || s.now().After(e.expiresAt) {
		delete(s.attempts, userID)
		return Attempts{}, nil
	}
	return e.attempts, nil
}

func (s *MemoryStore) SetAttempts(_ context.Context, userID int64, a Attempts, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[userID] = memoryEntry{attempts: a, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) ResetAttempts(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attempts, userID)
	return nil
}

func (s *MemoryStore) SetSession(_ context.Context, userID int64, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = s.now().Add(ttl)
	return nil
}

func (s *MemoryStore) HasSession(_ context.Context, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.sessions[userID]
	if !ok {
		return false, nil
	}
	if s.now().After(exp) {
		delete(s.sessions, userID)
		return false, nil
	}
	return true, nil
}

func (s *MemoryStore) DeleteSession(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	return nil
}

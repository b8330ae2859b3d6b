package sharestore

import (
	"context"
	"sync"
	"time"

	"github.com/yanqian/heartcheck/internal/domain/report"
)

type tokenRecord struct {
	payload   string
	expiresAt time.Time
}

// MemoryStore is an in-memory share-token store for tests/dev.
type MemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]tokenRecord
}

// NewMemoryStore constructs a store backed by process memory.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tokens: make(map[string]tokenRecord)}
}

// Save stores the payload with optional TTL.
func (s *MemoryStore) Save(_ context.Context, token, payload string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp := time.Time{}
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	s.tokens[token] = tokenRecord{payload: payload, expiresAt: exp}
	return nil
}

// Get resolves a token, dropping it once expired.
func (s *MemoryStore) Get(_ context.Context, token string) (string, bool, error) {
	s.mu.RLock()
	record, ok := s.tokens[token]
	s.mu.RUnlock()
	if !ok {
		return "", false, nil
	}
	if hasExpired(record.expiresAt) {
		s.mu.Lock()
		delete(s.tokens, token)
		s.mu.Unlock()
		return "", false, nil
	}
	return record.payload, true, nil
}

func hasExpired(ts time.Time) bool {
	if ts.IsZero() {
		return false
	}
	return ts.Before(time.Now())
}

var _ report.ShareStore = (*MemoryStore)(nil)

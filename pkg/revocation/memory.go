package revocation

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps entries in a map guarded by a RWMutex. Safe for
// concurrent use by request handlers and the sweeper.
type MemoryStore struct {
	mu        sync.RWMutex
	entries   map[string]Entry
	lastSweep time.Time
	now       func() time.Time
	grace     time.Duration
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(opts ...Option) *MemoryStore {
	o := buildOptions(opts)
	return &MemoryStore{
		entries: make(map[string]Entry),
		now:     o.now,
		grace:   o.grace,
	}
}

func (s *MemoryStore) Revoke(_ context.Context, token string) (bool, error) {
	exp, ok := expiry(token)
	if !ok {
		return false, nil
	}
	exp = exp.Add(s.grace)

	now := s.now()
	if !now.Before(exp) {
		// Already dead; the signature check rejects it without our help.
		return true, nil
	}

	fp := fingerprint(token)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[fp] = Entry{Fingerprint: fp, ExpiresAt: exp, RevokedAt: now}
	return true, nil
}

func (s *MemoryStore) IsRevoked(_ context.Context, token string) (bool, error) {
	fp := fingerprint(token)

	s.mu.RLock()
	e, ok := s.entries[fp]
	s.mu.RUnlock()

	if !ok {
		return false, nil
	}
	if s.now().Before(e.ExpiresAt) {
		return true, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Re-check under the write lock; a concurrent Revoke may have replaced it.
	if cur, ok := s.entries[fp]; ok && !s.now().Before(cur.ExpiresAt) {
		delete(s.entries, fp)
	}
	return false, nil
}

func (s *MemoryStore) Sweep(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for fp, e := range s.entries {
		if !now.Before(e.ExpiresAt) {
			delete(s.entries, fp)
			removed++
		}
	}
	s.lastSweep = now
	return removed, nil
}

func (s *MemoryStore) Stats(_ context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Stats{Count: len(s.entries), LastSweep: s.lastSweep}, nil
}

func (s *MemoryStore) Clear(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.entries)
	s.entries = make(map[string]Entry)
	return n, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

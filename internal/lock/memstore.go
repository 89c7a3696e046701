package lock

import (
    "context"
    "sync"
    "time"
)

// MemStore is an in-process Store with the same TTL semantics as
// RedisStore. It backs tests and single-instance deployments where no
// Redis is configured; the coordinator's behavior is identical over
// either store.
type MemStore struct {
    mu    sync.Mutex
    locks map[string]memLock
}

type memLock struct {
    token     string
    expiresAt time.Time
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
    return &MemStore{locks: make(map[string]memLock)}
}

func (s *MemStore) Acquire(_ context.Context, key, token string, ttl time.Duration) (bool, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    now := time.Now()
    if cur, ok := s.locks[key]; ok && cur.expiresAt.After(now) {
        return false, nil
    }
    s.locks[key] = memLock{token: token, expiresAt: now.Add(ttl)}
    return true, nil
}

func (s *MemStore) Release(_ context.Context, key, token string) (bool, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    cur, ok := s.locks[key]
    if !ok || cur.token != token || !cur.expiresAt.After(time.Now()) {
        return false, nil
    }
    delete(s.locks, key)
    return true, nil
}

func (s *MemStore) Renew(_ context.Context, key, token string, ttl time.Duration) (bool, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    cur, ok := s.locks[key]
    if !ok || cur.token != token || !cur.expiresAt.After(time.Now()) {
        return false, nil
    }
    s.locks[key] = memLock{token: token, expiresAt: time.Now().Add(ttl)}
    return true, nil
}

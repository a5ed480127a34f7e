package dialogue

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	sess    Session
	expires time.Time
}

// MemoryStore keeps sessions in process memory. Entries expire after ttl.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[int64]memoryEntry
}

// NewMemoryStore creates a MemoryStore. A non-positive ttl disables expiry.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[int64]memoryEntry),
	}
}

func (m *MemoryStore) Get(_ context.Context, userID int64) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[userID]
	if !ok {
		return nil, nil
	}
	if !e.expires.IsZero() && m.now().After(e.expires) {
		delete(m.entries, userID)
		return nil, nil
	}
	sess := e.sess
	return &sess, nil
}

func (m *MemoryStore) Set(_ context.Context, userID int64, sess *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var expires time.Time
	if m.ttl > 0 {
		expires = m.now().Add(m.ttl)
	}
	m.entries[userID] = memoryEntry{sess: *sess, expires: expires}
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, userID)
	return nil
}

// Sweep drops expired entries and returns how many were removed.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for id, e := range m.entries {
		if !e.expires.IsZero() && now.After(e.expires) {
			delete(m.entries, id)
			removed++
		}
	}
	return removed
}

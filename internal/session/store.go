package session

import (
	"context"
	"sync"
	"time"
)

// Store persists selection state per session id. A missing session loads as
// an empty state.
type Store interface {
	Load(ctx context.Context, id string) (*SelectionState, error)
	// Update applies fn to a copy of the state and persists the copy only if
	// fn returns nil.
	Update(ctx context.Context, id string, fn func(*SelectionState) error) (*SelectionState, error)
	Delete(ctx context.Context, id string) error
}

type memEntry struct {
	state   *SelectionState
	touched time.Time
}

// MemoryStore is an in-process Store. Entries idle longer than ttl are
// dropped on read, and writes sweep the whole map at most once per ttl, so
// abandoned sessions do not accumulate. A zero ttl keeps them forever.
type MemoryStore struct {
	mu        sync.Mutex
	entries   map[string]memEntry
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{entries: make(map[string]memEntry), ttl: ttl, now: time.Now}
}

func (m *MemoryStore) Load(_ context.Context, id string) (*SelectionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.get(id).Clone(), nil
}

func (m *MemoryStore) Update(_ context.Context, id string, fn func(*SelectionState) error) (*SelectionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := m.get(id).Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	now := m.now()
	m.entries[id] = memEntry{state: next, touched: now}
	if m.ttl > 0 && now.Sub(m.lastSweep) >= m.ttl {
		m.sweep()
	}
	return next.Clone(), nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.entries, id)
	m.mu.Unlock()
	return nil
}

// Len returns the number of live sessions.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep()
	return len(m.entries)
}

// get must be called with mu held.
func (m *MemoryStore) get(id string) *SelectionState {
	e, ok := m.entries[id]
	if !ok {
		return nil
	}
	if m.expired(e) {
		delete(m.entries, id)
		return nil
	}
	return e.state
}

// sweep must be called with mu held.
func (m *MemoryStore) sweep() {
	m.lastSweep = m.now()
	for id, e := range m.entries {
		if m.expired(e) {
			delete(m.entries, id)
		}
	}
}

func (m *MemoryStore) expired(e memEntry) bool {
	return m.ttl > 0 && m.now().Sub(e.touched) > m.ttl
}

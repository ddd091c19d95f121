// Package memory is a fully in-memory implementation of store.Store.
// Safe for concurrent access. Intended for unit testing and development.
package memory

import (
	"context"
	"sync"
	"time"

	export "github.com/teacurran/WireTuner/worker-export"
	"github.com/teacurran/WireTuner/worker-export/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

type slot struct {
	payload  []byte
	deadline time.Time // zero means no expiry
}

// Store keeps lists and TTL slots in process memory.
type Store struct {
	mu     sync.Mutex
	closed bool
	lists  map[string][][]byte
	slots  map[string]slot

	// notify is closed and replaced on every push so blocked PopFront
	// callers wake up and re-check their list.
	notify chan struct{}
}

// New returns a new empty Store.
func New() *Store {
	return &Store{
		lists:  make(map[string][][]byte),
		slots:  make(map[string]slot),
		notify: make(chan struct{}),
	}
}

// Close marks the store closed. Blocked pops wake up and all further
// operations return export.ErrStoreClosed. Idempotent.
func (m *Store) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	close(m.notify)
	return nil
}

// PushBack appends the payload to the list at key and wakes blocked pops.
func (m *Store) PushBack(_ context.Context, key string, payload []byte) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return export.ErrStoreClosed
	}
	cp := make([]byte, len(payload))
	copy(cp, payload)
	m.lists[key] = append(m.lists[key], cp)
	woken := m.notify
	m.notify = make(chan struct{})
	m.mu.Unlock()

	close(woken)
	return nil
}

// PopFront removes and returns the oldest entry at key, blocking up to
// timeout. Returns (nil, nil) when the window elapses with the list empty.
func (m *Store) PopFront(ctx context.Context, key string, timeout time.Duration) ([]byte, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			return nil, export.ErrStoreClosed
		}
		if entries := m.lists[key]; len(entries) > 0 {
			head := entries[0]
			m.lists[key] = entries[1:]
			m.mu.Unlock()
			return head, nil
		}
		wait := m.notify
		m.mu.Unlock()

		select {
		case <-wait:
		case <-timer.C:
			return nil, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// SetWithExpiry upserts the slot at key. A non-positive ttl stores the
// slot without expiry, matching Redis SET semantics.
func (m *Store) SetWithExpiry(_ context.Context, key string, payload []byte, ttl time.Duration) error {
	cp := make([]byte, len(payload))
	copy(cp, payload)

	var deadline time.Time
	if ttl > 0 {
		deadline = time.Now().Add(ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return export.ErrStoreClosed
	}
	m.slots[key] = slot{payload: cp, deadline: deadline}
	return nil
}

// Get returns the slot value. Expiry is lazy: an expired slot is removed
// on first read after its deadline.
func (m *Store) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, export.ErrStoreClosed
	}
	s, ok := m.slots[key]
	if !ok {
		return nil, export.ErrNotFound
	}
	if !s.deadline.IsZero() && time.Now().After(s.deadline) {
		delete(m.slots, key)
		return nil, export.ErrNotFound
	}
	return s.payload, nil
}

// Length returns the current length of the list at key.
func (m *Store) Length(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, export.ErrStoreClosed
	}
	return int64(len(m.lists[key])), nil
}

// Ping succeeds until the store is closed.
func (m *Store) Ping(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return export.ErrStoreClosed
	}
	return nil
}

package memory

import (
	"fmt"
	"sync"

	"github.com/Layr-Labs/metatx-relay-go/pkg/types"
)

// MemoryStore is an in-memory implementation of IExecutedStore.
// This implementation is intended for TESTING ONLY.
//
// All data is stored in memory and will be lost when the process exits,
// which silently reopens every consumed authorization on restart.
// Thread-safe using sync.Mutex so check-and-mark is atomic.
type MemoryStore struct {
	mu       sync.Mutex
	executed map[types.Digest]bool
	closed   bool
}

// NewMemoryStore creates a new in-memory executed-set store.
// Prints a loud warning since this should only be used for testing.
func NewMemoryStore() *MemoryStore {
	fmt.Println("⚠️  WARNING: Using in-memory executed-set store - REPLAY PROTECTION IS LOST ON RESTART")
	fmt.Println("⚠️  This should ONLY be used for testing. Set RELAY_PERSISTENCE_TYPE=badger for production")

	return &MemoryStore{
		executed: make(map[types.Digest]bool),
	}
}

// NewQuietMemoryStore creates an in-memory store without the warning banner.
// Test helper.
func NewQuietMemoryStore() *MemoryStore {
	return &MemoryStore{
		executed: make(map[types.Digest]bool),
	}
}

// MarkExecuted records a digest as consumed, atomically with the check
func (m *MemoryStore) MarkExecuted(digest types.Digest) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false, fmt.Errorf("executed store is closed")
	}

	if m.executed[digest] {
		return true, nil
	}

	m.executed[digest] = true
	return false, nil
}

// IsExecuted reports whether a digest has been consumed
func (m *MemoryStore) IsExecuted(digest types.Digest) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false, fmt.Errorf("executed store is closed")
	}

	return m.executed[digest], nil
}

// Close shuts down the store
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

// HealthCheck verifies the store is operational
func (m *MemoryStore) HealthCheck() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("executed store is closed")
	}

	return nil
}

package memory

import (
	"sync"
	"testing"

	"github.com/Layr-Labs/metatx-relay-go/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func digestOf(b byte) types.Digest {
	var d types.Digest
	d[0] = b
	return d
}

func TestMarkExecuted_FirstAndSecondCall(t *testing.T) {
	store := NewQuietMemoryStore()
	defer func() { _ = store.Close() }()

	already, err := store.MarkExecuted(digestOf(1))
	require.NoError(t, err)
	assert.False(t, already)

	already, err = store.MarkExecuted(digestOf(1))
	require.NoError(t, err)
	assert.True(t, already)
}

func TestIsExecuted(t *testing.T) {
	store := NewQuietMemoryStore()
	defer func() { _ = store.Close() }()

	executed, err := store.IsExecuted(digestOf(1))
	require.NoError(t, err)
	assert.False(t, executed)

	_, err = store.MarkExecuted(digestOf(1))
	require.NoError(t, err)

	executed, err = store.IsExecuted(digestOf(1))
	require.NoError(t, err)
	assert.True(t, executed)

	// Distinct digests are independent
	executed, err = store.IsExecuted(digestOf(2))
	require.NoError(t, err)
	assert.False(t, executed)
}

func TestMarkExecuted_ConcurrentSingleWinner(t *testing.T) {
	store := NewQuietMemoryStore()
	defer func() { _ = store.Close() }()

	const goroutines = 32
	d := digestOf(7)

	var wg sync.WaitGroup
	firsts := make(chan struct{}, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			already, err := store.MarkExecuted(d)
			assert.NoError(t, err)
			if !already {
				firsts <- struct{}{}
			}
		}()
	}

	wg.Wait()
	close(firsts)

	count := 0
	for range firsts {
		count++
	}
	assert.Equal(t, 1, count, "exactly one caller may observe the first mark")
}

func TestOperationsAfterClose(t *testing.T) {
	store := NewQuietMemoryStore()
	require.NoError(t, store.Close())

	_, err := store.MarkExecuted(digestOf(1))
	assert.Error(t, err)

	_, err = store.IsExecuted(digestOf(1))
	assert.Error(t, err)

	assert.Error(t, store.HealthCheck())

	// Close is idempotent
	assert.NoError(t, store.Close())
}

func TestHealthCheck(t *testing.T) {
	store := NewQuietMemoryStore()
	assert.NoError(t, store.HealthCheck())
	require.NoError(t, store.Close())
	assert.Error(t, store.HealthCheck())
}

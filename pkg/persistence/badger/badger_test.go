package badger

import (
	"testing"

	"github.com/Layr-Labs/metatx-relay-go/pkg/logger"
	"github.com/Layr-Labs/metatx-relay-go/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, dir string) *BadgerStore {
	t.Helper()
	testLogger, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})

	bs, err := NewBadgerStore(dir, testLogger)
	require.NoError(t, err)
	return bs
}

func digestOf(b byte) types.Digest {
	var d types.Digest
	d[0] = b
	return d
}

func TestBadgerStore_MarkAndCheck(t *testing.T) {
	bs := newTestStore(t, t.TempDir())
	defer func() { _ = bs.Close() }()

	executed, err := bs.IsExecuted(digestOf(1))
	require.NoError(t, err)
	assert.False(t, executed)

	already, err := bs.MarkExecuted(digestOf(1))
	require.NoError(t, err)
	assert.False(t, already)

	already, err = bs.MarkExecuted(digestOf(1))
	require.NoError(t, err)
	assert.True(t, already)

	executed, err = bs.IsExecuted(digestOf(1))
	require.NoError(t, err)
	assert.True(t, executed)
}

func TestBadgerStore_DistinctDigestsIndependent(t *testing.T) {
	bs := newTestStore(t, t.TempDir())
	defer func() { _ = bs.Close() }()

	_, err := bs.MarkExecuted(digestOf(1))
	require.NoError(t, err)

	executed, err := bs.IsExecuted(digestOf(2))
	require.NoError(t, err)
	assert.False(t, executed)
}

func TestBadgerStore_MarksSurviveReopen(t *testing.T) {
	dir := t.TempDir()

	bs := newTestStore(t, dir)
	_, err := bs.MarkExecuted(digestOf(3))
	require.NoError(t, err)
	require.NoError(t, bs.Close())

	// Replay protection must survive a process restart
	bs = newTestStore(t, dir)
	defer func() { _ = bs.Close() }()

	already, err := bs.MarkExecuted(digestOf(3))
	require.NoError(t, err)
	assert.True(t, already)
}

func TestBadgerStore_OperationsAfterClose(t *testing.T) {
	bs := newTestStore(t, t.TempDir())
	require.NoError(t, bs.Close())

	_, err := bs.MarkExecuted(digestOf(1))
	assert.Error(t, err)

	_, err = bs.IsExecuted(digestOf(1))
	assert.Error(t, err)

	assert.Error(t, bs.HealthCheck())

	// Close is idempotent
	assert.NoError(t, bs.Close())
}

func TestBadgerStore_HealthCheck(t *testing.T) {
	bs := newTestStore(t, t.TempDir())
	defer func() { _ = bs.Close() }()

	assert.NoError(t, bs.HealthCheck())
}

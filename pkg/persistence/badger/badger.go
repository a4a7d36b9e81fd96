package badger

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/Layr-Labs/metatx-relay-go/pkg/types"
	badgerdb "github.com/dgraph-io/badger/v3"
	"go.uber.org/zap"
)

// Key layout
const (
	keyPrefixExecuted    = "executed:"
	keySchemaVersion     = "metadata:schema_version"
	currentSchemaVersion = "v1"
)

// executedValue is the single byte stored per consumed digest. The presence
// of the key is the signal; the value is fixed.
var executedValue = []byte{0x01}

// dbLogger routes Badger's internal printf-style logging through zap. Badger
// is chatty at info level (compaction, value-log rotation), which would drown
// out the relay's own logs, so its info and debug output both land at Debug.
type dbLogger struct {
	z *zap.Logger
}

var _ badgerdb.Logger = dbLogger{}

func (l dbLogger) Errorf(format string, args ...interface{}) {
	l.z.Error(fmt.Sprintf(format, args...))
}

func (l dbLogger) Warningf(format string, args ...interface{}) {
	l.z.Warn(fmt.Sprintf(format, args...))
}

func (l dbLogger) Infof(format string, args ...interface{}) {
	l.z.Debug(fmt.Sprintf(format, args...))
}

func (l dbLogger) Debugf(format string, args ...interface{}) {
	l.z.Debug(fmt.Sprintf(format, args...))
}

// BadgerStore is a production-ready executed-set store using Badger.
// Provides durable, disk-based storage with ACID guarantees; the
// check-and-mark runs inside a single serializable transaction.
type BadgerStore struct {
	db       *badgerdb.DB
	logger   *zap.Logger
	gcCancel context.CancelFunc
	gcWg     sync.WaitGroup
	mu       sync.RWMutex
	closed   bool
}

// NewBadgerStore creates a new Badger-backed executed-set store.
// The database is opened at the specified path with SyncWrites enabled:
// losing a mark on crash would reopen a consumed authorization, so every
// write is fsynced. A background goroutine is started for garbage collection.
func NewBadgerStore(dataPath string, logger *zap.Logger) (*BadgerStore, error) {
	absPath, err := filepath.Abs(dataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	opts := badgerdb.DefaultOptions(absPath)
	opts.Logger = dbLogger{z: logger}
	opts.SyncWrites = true
	opts.CompactL0OnClose = true
	opts.NumVersionsToKeep = 1

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database at %s: %w", absPath, err)
	}

	bs := &BadgerStore{
		db:     db,
		logger: logger,
	}

	if err := bs.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	bs.gcCancel = cancel
	bs.gcWg.Add(1)
	go bs.runGC(ctx)

	logger.Sugar().Infow("Badger executed-set store initialized", "path", absPath)

	return bs, nil
}

// initSchema initializes or validates the schema version
func (b *BadgerStore) initSchema() error {
	return b.db.Update(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(keySchemaVersion))
		if err == badgerdb.ErrKeyNotFound {
			return txn.Set([]byte(keySchemaVersion), []byte(currentSchemaVersion))
		}
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}

		var existingVersion string
		err = item.Value(func(val []byte) error {
			existingVersion = string(val)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to read schema version value: %w", err)
		}

		if existingVersion != currentSchemaVersion {
			return fmt.Errorf("unsupported schema version: %s (expected: %s)", existingVersion, currentSchemaVersion)
		}

		return nil
	})
}

// runGC runs periodic value-log garbage collection in the background
func (b *BadgerStore) runGC(ctx context.Context) {
	defer b.gcWg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			err := b.db.RunValueLogGC(0.5)
			if err != nil && err != badgerdb.ErrNoRewrite {
				b.logger.Sugar().Warnw("Badger GC error", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

func executedKey(digest types.Digest) []byte {
	return append([]byte(keyPrefixExecuted), digest[:]...)
}

// MarkExecuted records a digest as consumed. The read and the write share
// one Update transaction under the exclusive lock, so of two concurrent
// marks of the same digest exactly one observes alreadyExecuted=false.
// Badger's optimistic transactions would otherwise surface ErrConflict here.
func (b *BadgerStore) MarkExecuted(digest types.Digest) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false, fmt.Errorf("executed store is closed")
	}

	key := executedKey(digest)
	alreadyExecuted := false

	err := b.db.Update(func(txn *badgerdb.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			alreadyExecuted = true
			return nil
		}
		if err != badgerdb.ErrKeyNotFound {
			return err
		}
		return txn.Set(key, executedValue)
	})
	if err != nil {
		return false, fmt.Errorf("failed to mark digest executed: %w", err)
	}

	return alreadyExecuted, nil
}

// IsExecuted reports whether a digest has been consumed
func (b *BadgerStore) IsExecuted(digest types.Digest) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return false, fmt.Errorf("executed store is closed")
	}

	executed := false
	err := b.db.View(func(txn *badgerdb.Txn) error {
		_, err := txn.Get(executedKey(digest))
		if err == badgerdb.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		executed = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to read executed digest: %w", err)
	}

	return executed, nil
}

// Close shuts down the store
func (b *BadgerStore) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil // Already closed, idempotent
	}
	b.closed = true
	b.mu.Unlock()

	if b.gcCancel != nil {
		b.gcCancel()
	}
	b.gcWg.Wait()

	if err := b.db.Close(); err != nil {
		return fmt.Errorf("failed to close badger database: %w", err)
	}

	b.logger.Sugar().Info("Badger executed-set store closed")
	return nil
}

// HealthCheck verifies the store is operational
func (b *BadgerStore) HealthCheck() error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("executed store is closed")
	}

	return b.db.View(func(txn *badgerdb.Txn) error {
		_, err := txn.Get([]byte(keySchemaVersion))
		if err == badgerdb.ErrKeyNotFound {
			return fmt.Errorf("schema version not found - database may be corrupted")
		}
		return err
	})
}

package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Layr-Labs/metatx-relay-go/pkg/types"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Key layout in Redis
const (
	keyPrefixExecuted    = "relay:executed:"
	keySchemaVersion     = "relay:metadata:schema_version"
	currentSchemaVersion = "v1"
)

// operationTimeout bounds every Redis round trip. The executor API is
// synchronous; a hung store call must fail rather than wedge a submission.
const operationTimeout = 5 * time.Second

// RedisStore is an executed-set store backed by Redis, suitable for
// cloud-native deployments where several relay instances share one
// replay-protection set. SETNX provides the atomic check-and-mark.
type RedisStore struct {
	client    *redis.Client
	logger    *zap.Logger
	keyPrefix string
	mu        sync.RWMutex
	closed    bool
}

// RedisConfig holds the configuration for connecting to Redis
type RedisConfig struct {
	// Address is the Redis server address (host:port)
	Address string
	// Password is the optional Redis password
	Password string
	// DB is the Redis database number (0-15)
	DB int
	// KeyPrefix is an optional custom prefix for all keys (for multi-tenant
	// setups). If set, keys become "<prefix>relay:executed:<digest>".
	KeyPrefix string
}

// NewRedisStore creates a new Redis-backed executed-set store
func NewRedisStore(cfg *RedisConfig, logger *zap.Logger) (*RedisStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	rs := &RedisStore{
		client:    client,
		logger:    logger,
		keyPrefix: cfg.KeyPrefix,
	}

	if err := rs.initSchema(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Sugar().Infow("Redis executed-set store initialized", "address", cfg.Address, "db", cfg.DB)

	return rs, nil
}

func (r *RedisStore) initSchema(ctx context.Context) error {
	key := r.keyPrefix + keySchemaVersion

	// SETNX so the first instance wins and later instances validate
	if err := r.client.SetNX(ctx, key, currentSchemaVersion, 0).Err(); err != nil {
		return fmt.Errorf("failed to write schema version: %w", err)
	}

	existing, err := r.client.Get(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if existing != currentSchemaVersion {
		return fmt.Errorf("unsupported schema version: %s (expected: %s)", existing, currentSchemaVersion)
	}

	return nil
}

func (r *RedisStore) executedKey(digest types.Digest) string {
	return r.keyPrefix + keyPrefixExecuted + hexutil.Encode(digest[:])
}

// MarkExecuted records a digest as consumed. SETNX returns whether the key
// was newly set, which is exactly the atomic check-and-mark the replay
// protection needs — no TTL, the set grows forever.
func (r *RedisStore) MarkExecuted(digest types.Digest) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return false, fmt.Errorf("executed store is closed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	wasSet, err := r.client.SetNX(ctx, r.executedKey(digest), "1", 0).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark digest executed: %w", err)
	}

	return !wasSet, nil
}

// IsExecuted reports whether a digest has been consumed
func (r *RedisStore) IsExecuted(digest types.Digest) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return false, fmt.Errorf("executed store is closed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	count, err := r.client.Exists(ctx, r.executedKey(digest)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to read executed digest: %w", err)
	}

	return count > 0, nil
}

// Close shuts down the store
func (r *RedisStore) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil // Already closed, idempotent
	}
	r.closed = true

	if err := r.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}

	r.logger.Sugar().Info("Redis executed-set store closed")
	return nil
}

// HealthCheck verifies the store is operational
func (r *RedisStore) HealthCheck() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("executed store is closed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}

	return nil
}

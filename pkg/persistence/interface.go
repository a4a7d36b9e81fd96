package persistence

import "github.com/Layr-Labs/metatx-relay-go/pkg/types"

// IExecutedStore is the replay-protection set: every digest the executor has
// accepted, forever. Entries are written once and never removed; the store
// only grows. All implementations must be safe for concurrent use.
//
// MarkExecuted is the load-bearing operation: the check ("was this digest
// seen") and the mark ("it has now been seen") must be one atomic unit, so
// that of two concurrent submissions of the same digest exactly one observes
// alreadyExecuted=false.
type IExecutedStore interface {
	// MarkExecuted records a digest as consumed. Returns alreadyExecuted=true
	// (and does not error) if the digest was consumed by an earlier call.
	MarkExecuted(digest types.Digest) (alreadyExecuted bool, err error)

	// IsExecuted reports whether a digest has been consumed.
	// Read-only; never mutates the store.
	IsExecuted(digest types.Digest) (bool, error)

	// Close cleanly shuts down the store. Idempotent.
	// After Close(), all other operations return errors.
	Close() error

	// HealthCheck verifies the store is operational. Called at startup to
	// fail fast before accepting submissions.
	HealthCheck() error
}

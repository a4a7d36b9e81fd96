package relay

import (
	"errors"
	"fmt"

	"github.com/Layr-Labs/metatx-relay-go/pkg/types"
)

// Executor failure modes. All are terminal for the submission that hit them;
// none are swallowed.
var (
	// ErrUnauthorized means the recovered signer does not match the claimed
	// sender. The caller must obtain a correctly signed authorization.
	ErrUnauthorized = errors.New("recovered signer does not match claimed sender")

	// ErrAlreadyExecuted means this exact intent was already applied. Not a
	// transient condition: a further transfer of the same shape needs a new
	// intent with a different nonce.
	ErrAlreadyExecuted = errors.New("transfer authorization already executed")
)

// LedgerError wraps a ledger failure (insufficient balance or allowance at
// execution time). The relayer may retry after the user tops up, but with a
// freshly signed intent: the digest that hit this error stays consumed.
type LedgerError struct {
	Digest types.Digest
	Err    error
}

func (e *LedgerError) Error() string {
	return fmt.Sprintf("ledger transfer failed for digest %s: %v", e.Digest.Hex(), e.Err)
}

func (e *LedgerError) Unwrap() error {
	return e.Err
}

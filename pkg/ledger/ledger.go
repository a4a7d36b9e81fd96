package ledger

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Ledger failure modes surfaced by TransferFrom. Wrapped errors from
// concrete backends must satisfy errors.Is against these sentinels.
var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
)

// ILedger is the fungible-token boundary the executor moves funds through.
// Implementations must enforce standard debit/credit semantics: TransferFrom
// debits owner, credits recipient, and fails without side effects when the
// owner's balance or the spender's allowance is insufficient.
type ILedger interface {
	// BalanceOf returns the current balance of an account
	BalanceOf(ctx context.Context, account common.Address) (*big.Int, error)

	// Allowance returns how much spender may move on owner's behalf
	Allowance(ctx context.Context, owner common.Address, spender common.Address) (*big.Int, error)

	// Approve sets the caller-side allowance for spender. Invoked by the
	// user directly against the ledger; a precondition for TransferFrom.
	Approve(ctx context.Context, owner common.Address, spender common.Address, amount *big.Int) error

	// TransferFrom moves amount from owner to recipient, gated on the
	// executor's allowance. Fails with ErrInsufficientBalance or
	// ErrInsufficientAllowance.
	TransferFrom(ctx context.Context, owner common.Address, recipient common.Address, amount *big.Int) error
}

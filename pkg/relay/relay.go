package relay

import (
	"context"
	"fmt"
	"math/big"

	"github.com/Layr-Labs/metatx-relay-go/pkg/digest"
	"github.com/Layr-Labs/metatx-relay-go/pkg/intentSigner"
	"github.com/Layr-Labs/metatx-relay-go/pkg/ledger"
	"github.com/Layr-Labs/metatx-relay-go/pkg/persistence"
	"github.com/Layr-Labs/metatx-relay-go/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Executor verifies signed transfer authorizations and executes them against
// the ledger exactly once. It is stateless apart from the injected
// executed-set store; the store owns all replay-protection state.
//
// Verification order is load-bearing:
//  1. recompute the digest from the claimed tuple
//  2. personal-message transform
//  3. recover the signer
//  4. reject if recovered != claimed sender
//  5. atomically check-and-mark the digest as consumed
//  6. only then touch the ledger
//
// The mark lands before the ledger call so any reentrant submission during
// the transfer already sees the digest as consumed. If the ledger call then
// fails, the digest stays consumed: the authorization is burned. Executing
// an authorization at most once is the primary guarantee, even when the
// transfer itself fails for unrelated reasons.
type Executor struct {
	store  persistence.IExecutedStore
	ledger ledger.ILedger
	logger *zap.Logger
}

func NewExecutor(store persistence.IExecutedStore, l ledger.ILedger, logger *zap.Logger) *Executor {
	return &Executor{
		store:  store,
		ledger: l,
		logger: logger,
	}
}

// ComputeDigest returns the digest a sender must sign for the given tuple.
// Read-only and queryable by anyone; signers reproduce these exact bytes
// off-path.
func (e *Executor) ComputeDigest(sender common.Address, amount *big.Int, recipient common.Address, token common.Address, nonce uint64) (types.Digest, error) {
	return digest.ComputeTransferDigest(sender, amount, recipient, token, nonce)
}

// Transfer verifies and executes a signed transfer intent. Callable by
// anyone holding a valid signature; the submitter's identity carries no
// authorization weight. Returns the intent digest alongside the outcome so
// callers can correlate.
func (e *Executor) Transfer(ctx context.Context, intent *types.TransferIntent, signature []byte) (types.Digest, error) {
	if intent == nil {
		return types.Digest{}, fmt.Errorf("intent cannot be nil")
	}

	d, err := digest.ComputeIntentDigest(intent)
	if err != nil {
		return types.Digest{}, fmt.Errorf("failed to compute digest: %w", err)
	}

	signedDigest := digest.PersonalDigest(d)

	recovered, err := intentSigner.RecoverSigner(signedDigest, signature)
	if err != nil {
		return d, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if recovered != intent.Sender {
		e.logger.Sugar().Warnw("Signer mismatch",
			"digest", d.Hex(),
			"claimedSender", intent.Sender.Hex(),
			"recovered", recovered.Hex(),
		)
		return d, ErrUnauthorized
	}

	// Check-and-mark is one atomic store operation. It runs before the
	// ledger call so the reentrancy window is closed: a reentrant
	// submission of the same digest lands here and is rejected.
	alreadyExecuted, err := e.store.MarkExecuted(d)
	if err != nil {
		return d, fmt.Errorf("failed to mark digest executed: %w", err)
	}
	if alreadyExecuted {
		e.logger.Sugar().Warnw("Replay rejected", "digest", d.Hex(), "sender", intent.Sender.Hex())
		return d, ErrAlreadyExecuted
	}

	if err := e.ledger.TransferFrom(ctx, intent.Sender, intent.Recipient, intent.Amount); err != nil {
		// The digest stays marked: this authorization is burned even
		// though no funds moved. See DESIGN.md before changing this.
		e.logger.Sugar().Warnw("Ledger transfer failed, authorization consumed",
			"digest", d.Hex(),
			"sender", intent.Sender.Hex(),
			"amount", intent.Amount.String(),
			"error", err,
		)
		return d, &LedgerError{Digest: d, Err: err}
	}

	e.logger.Sugar().Infow("Transfer executed",
		"digest", d.Hex(),
		"sender", intent.Sender.Hex(),
		"recipient", intent.Recipient.Hex(),
		"token", intent.Token.Hex(),
		"amount", intent.Amount.String(),
		"nonce", intent.Nonce,
	)

	return d, nil
}

// IsExecuted reports whether an intent digest has been consumed
func (e *Executor) IsExecuted(d types.Digest) (bool, error) {
	return e.store.IsExecuted(d)
}

// HealthCheck verifies the executor's store is operational
func (e *Executor) HealthCheck() error {
	return e.store.HealthCheck()
}

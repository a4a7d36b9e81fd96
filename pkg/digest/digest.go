package digest

import (
	"fmt"
	"math/big"

	"github.com/Layr-Labs/metatx-relay-go/pkg/types"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// DomainTag separates transfer-authorization digests from any other message
// a key might sign. It is hashed into every digest as the leading field.
const DomainTag = "MetaTxRelay.Transfer.v1"

var (
	domainSeparator = crypto.Keccak256Hash([]byte(DomainTag))

	transferArguments abi.Arguments
)

func init() {
	bytes32Type, err := abi.NewType("bytes32", "", nil)
	if err != nil {
		panic(fmt.Sprintf("failed to build bytes32 abi type: %v", err))
	}
	addressType, err := abi.NewType("address", "", nil)
	if err != nil {
		panic(fmt.Sprintf("failed to build address abi type: %v", err))
	}
	uint256Type, err := abi.NewType("uint256", "", nil)
	if err != nil {
		panic(fmt.Sprintf("failed to build uint256 abi type: %v", err))
	}

	// (domainSeparator, sender, amount, recipient, token, nonce)
	transferArguments = abi.Arguments{
		{Type: bytes32Type},
		{Type: addressType},
		{Type: uint256Type},
		{Type: addressType},
		{Type: addressType},
		{Type: uint256Type},
	}
}

// ComputeTransferDigest deterministically encodes a transfer intent and
// hashes it with keccak256. Every field occupies a fixed-width 32-byte slot,
// so no two distinct tuples serialize to the same byte string. Signers
// compute this independently off-path; the executor recomputes it on every
// submission, so any drift here breaks all outstanding authorizations.
func ComputeTransferDigest(sender common.Address, amount *big.Int, recipient common.Address, token common.Address, nonce uint64) (types.Digest, error) {
	var d types.Digest

	if amount == nil {
		return d, fmt.Errorf("amount cannot be nil")
	}

	encoded, err := transferArguments.Pack(
		domainSeparator,
		sender,
		amount,
		recipient,
		token,
		new(big.Int).SetUint64(nonce),
	)
	if err != nil {
		return d, fmt.Errorf("failed to encode transfer intent: %w", err)
	}

	copy(d[:], crypto.Keccak256(encoded))
	return d, nil
}

// ComputeIntentDigest is ComputeTransferDigest over a typed intent
func ComputeIntentDigest(intent *types.TransferIntent) (types.Digest, error) {
	if intent == nil {
		return types.Digest{}, fmt.Errorf("intent cannot be nil")
	}
	return ComputeTransferDigest(intent.Sender, intent.Amount, intent.Recipient, intent.Token, intent.Nonce)
}

// PersonalDigest applies the Ethereum personal-message transform to a raw
// transfer digest. Wallets sign "personal messages", not raw 32-byte hashes:
// the signed bytes are keccak256("\x19Ethereum Signed Message:\n32" || digest).
func PersonalDigest(d types.Digest) types.Digest {
	var signed types.Digest
	copy(signed[:], accounts.TextHash(d[:]))
	return signed
}

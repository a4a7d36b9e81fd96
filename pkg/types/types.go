package types

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Digest is the 32-byte keccak256 identifier of a TransferIntent.
// The sender signs the personal-message transform of this value; the
// executor keys its replay protection on the raw value.
type Digest [32]byte

// Hex returns the 0x-prefixed hex encoding of the digest
func (d Digest) Hex() string {
	return hexutil.Encode(d[:])
}

// DigestFromHex parses a 0x-prefixed 32-byte hex string
func DigestFromHex(s string) (Digest, error) {
	var d Digest
	raw, err := hexutil.Decode(s)
	if err != nil {
		return d, fmt.Errorf("invalid digest hex: %w", err)
	}
	if len(raw) != len(d) {
		return d, fmt.Errorf("invalid digest length: %d (expected %d)", len(raw), len(d))
	}
	copy(d[:], raw)
	return d, nil
}

// TransferIntent is the tuple a user authorizes off-chain. Immutable value,
// constructed per call, never persisted directly. The nonce carries no
// ordering semantics; it only differentiates otherwise-identical intents.
type TransferIntent struct {
	Sender    common.Address
	Amount    *big.Int
	Recipient common.Address
	Token     common.Address
	Nonce     uint64
}

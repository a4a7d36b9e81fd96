package intentSigner

import (
	"fmt"

	"github.com/Layr-Labs/metatx-relay-go/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// IIntentSigner signs transfer digests on behalf of a sender. This is the
// user-side half of the signature capability; the executor only needs
// RecoverSigner below and never holds a private key.
type IIntentSigner interface {
	// SignIntent signs the personal-message transform of a transfer digest
	// and returns the 65-byte [R || S || V] signature.
	SignIntent(d types.Digest) ([]byte, error)

	// SignerAddress returns the address corresponding to the signing key
	SignerAddress() common.Address
}

// SignatureLength is the expected [R || S || V] signature size
const SignatureLength = 65

// RecoverSigner recovers the address that produced signature over the
// personal-message digest. Accepts both v ∈ {0,1} and the legacy
// v ∈ {27,28} convention that wallets emit.
func RecoverSigner(signedDigest types.Digest, signature []byte) (common.Address, error) {
	if len(signature) != SignatureLength {
		return common.Address{}, fmt.Errorf("invalid signature length: %d (expected %d)", len(signature), SignatureLength)
	}

	sig := make([]byte, SignatureLength)
	copy(sig, signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}

	recoveredPubKey, err := crypto.SigToPub(signedDigest[:], sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover public key: %w", err)
	}

	return crypto.PubkeyToAddress(*recoveredPubKey), nil
}

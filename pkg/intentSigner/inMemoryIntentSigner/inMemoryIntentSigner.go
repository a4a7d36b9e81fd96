package inMemoryIntentSigner

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/Layr-Labs/metatx-relay-go/pkg/digest"
	"github.com/Layr-Labs/metatx-relay-go/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

// InMemoryIntentSigner holds a secp256k1 private key in process memory.
// Intended for CLIs, tests and local development; production senders sign
// with their own wallet tooling and never hand the relay a key.
type InMemoryIntentSigner struct {
	logger     *zap.Logger
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

func NewInMemoryIntentSigner(privateKeyHex string, logger *zap.Logger) (*InMemoryIntentSigner, error) {
	if privateKeyHex == "" {
		return nil, fmt.Errorf("private key cannot be empty")
	}

	key, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("error loading private key: %w", err)
	}

	return NewInMemoryIntentSignerFromKey(key, logger), nil
}

func NewInMemoryIntentSignerFromKey(key *ecdsa.PrivateKey, logger *zap.Logger) *InMemoryIntentSigner {
	return &InMemoryIntentSigner{
		logger:     logger,
		privateKey: key,
		address:    crypto.PubkeyToAddress(key.PublicKey),
	}
}

// SignIntent signs the personal-message transform of the transfer digest
func (s *InMemoryIntentSigner) SignIntent(d types.Digest) ([]byte, error) {
	signedDigest := digest.PersonalDigest(d)

	signature, err := crypto.Sign(signedDigest[:], s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign digest: %w", err)
	}

	return signature, nil
}

// SignerAddress returns the address corresponding to the signing key
func (s *InMemoryIntentSigner) SignerAddress() common.Address {
	return s.address
}

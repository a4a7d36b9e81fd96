package inMemoryIntentSigner

import (
	"math/big"
	"testing"

	"github.com/Layr-Labs/metatx-relay-go/pkg/digest"
	"github.com/Layr-Labs/metatx-relay-go/pkg/intentSigner"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testDigest(t *testing.T) (d [32]byte) {
	t.Helper()
	computed, err := digest.ComputeTransferDigest(
		common.HexToAddress("0x1111111111111111111111111111111111111111"),
		big.NewInt(10),
		common.HexToAddress("0x2222222222222222222222222222222222222222"),
		common.HexToAddress("0x3333333333333333333333333333333333333333"),
		1,
	)
	require.NoError(t, err)
	return computed
}

func TestSignIntent_RecoverableSigner(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	signer := NewInMemoryIntentSignerFromKey(key, zap.NewNop())
	d := testDigest(t)

	signature, err := signer.SignIntent(d)
	require.NoError(t, err)
	require.Len(t, signature, intentSigner.SignatureLength)

	recovered, err := intentSigner.RecoverSigner(digest.PersonalDigest(d), signature)
	require.NoError(t, err)
	assert.Equal(t, signer.SignerAddress(), recovered)
}

func TestRecoverSigner_LegacyVByte(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	signer := NewInMemoryIntentSignerFromKey(key, zap.NewNop())
	d := testDigest(t)

	signature, err := signer.SignIntent(d)
	require.NoError(t, err)

	// Wallets commonly report v as 27/28 rather than 0/1
	legacy := make([]byte, len(signature))
	copy(legacy, signature)
	legacy[64] += 27

	recovered, err := intentSigner.RecoverSigner(digest.PersonalDigest(d), legacy)
	require.NoError(t, err)
	assert.Equal(t, signer.SignerAddress(), recovered)
}

func TestRecoverSigner_InvalidLength(t *testing.T) {
	_, err := intentSigner.RecoverSigner(digest.PersonalDigest(testDigest(t)), []byte{0x01, 0x02})
	assert.Error(t, err)
}

func TestRecoverSigner_WrongKeyDoesNotMatch(t *testing.T) {
	keyA, err := crypto.GenerateKey()
	require.NoError(t, err)
	keyB, err := crypto.GenerateKey()
	require.NoError(t, err)

	signerA := NewInMemoryIntentSignerFromKey(keyA, zap.NewNop())
	d := testDigest(t)

	signature, err := signerA.SignIntent(d)
	require.NoError(t, err)

	recovered, err := intentSigner.RecoverSigner(digest.PersonalDigest(d), signature)
	require.NoError(t, err)
	assert.NotEqual(t, crypto.PubkeyToAddress(keyB.PublicKey), recovered)
}

func TestNewInMemoryIntentSigner_FromHex(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	hexKey := common.Bytes2Hex(crypto.FromECDSA(key))
	signer, err := NewInMemoryIntentSigner(hexKey, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), signer.SignerAddress())
}

func TestNewInMemoryIntentSigner_EmptyKey(t *testing.T) {
	_, err := NewInMemoryIntentSigner("", zap.NewNop())
	assert.Error(t, err)
}

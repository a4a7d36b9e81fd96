package digest

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/Layr-Labs/metatx-relay-go/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"
)

var (
	testSender    = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testRecipient = common.HexToAddress("0x2222222222222222222222222222222222222222")
	testToken     = common.HexToAddress("0x3333333333333333333333333333333333333333")

	maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
)

func TestComputeTransferDigest_Deterministic(t *testing.T) {
	d1, err := ComputeTransferDigest(testSender, big.NewInt(10), testRecipient, testToken, 1)
	require.NoError(t, err)

	d2, err := ComputeTransferDigest(testSender, big.NewInt(10), testRecipient, testToken, 1)
	require.NoError(t, err)

	assert.Equal(t, d1, d2)
	assert.NotEqual(t, types.Digest{}, d1)
}

func TestComputeTransferDigest_FieldSensitivity(t *testing.T) {
	base, err := ComputeTransferDigest(testSender, big.NewInt(10), testRecipient, testToken, 1)
	require.NoError(t, err)

	otherAddr := common.HexToAddress("0x4444444444444444444444444444444444444444")

	tests := []struct {
		name      string
		sender    common.Address
		amount    *big.Int
		recipient common.Address
		token     common.Address
		nonce     uint64
	}{
		{"different sender", otherAddr, big.NewInt(10), testRecipient, testToken, 1},
		{"different amount", testSender, big.NewInt(11), testRecipient, testToken, 1},
		{"zero amount", testSender, big.NewInt(0), testRecipient, testToken, 1},
		{"max amount", testSender, maxUint256, testRecipient, testToken, 1},
		{"different recipient", testSender, big.NewInt(10), otherAddr, testToken, 1},
		{"different token", testSender, big.NewInt(10), testRecipient, otherAddr, 1},
		{"nonce zero", testSender, big.NewInt(10), testRecipient, testToken, 0},
		{"nonce plus one", testSender, big.NewInt(10), testRecipient, testToken, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ComputeTransferDigest(tt.sender, tt.amount, tt.recipient, tt.token, tt.nonce)
			require.NoError(t, err)
			assert.NotEqual(t, base, d)
		})
	}
}

// TestComputeTransferDigest_EncodingLayout rebuilds the six-slot encoding by
// hand and hashes it independently. Off-path signers reproduce exactly this
// byte layout, so the packed form is part of the wire contract: keccak(tag),
// then sender, amount, recipient, token, nonce, each left-padded to 32 bytes.
func TestComputeTransferDigest_EncodingLayout(t *testing.T) {
	amount := big.NewInt(1234567890)
	nonce := uint64(99)

	d, err := ComputeTransferDigest(testSender, amount, testRecipient, testToken, nonce)
	require.NoError(t, err)

	tag := sha3.NewLegacyKeccak256()
	tag.Write([]byte(DomainTag))

	var encoded []byte
	encoded = append(encoded, tag.Sum(nil)...)
	encoded = append(encoded, common.LeftPadBytes(testSender.Bytes(), 32)...)
	encoded = append(encoded, common.LeftPadBytes(amount.Bytes(), 32)...)
	encoded = append(encoded, common.LeftPadBytes(testRecipient.Bytes(), 32)...)
	encoded = append(encoded, common.LeftPadBytes(testToken.Bytes(), 32)...)
	encoded = append(encoded, common.LeftPadBytes(new(big.Int).SetUint64(nonce).Bytes(), 32)...)
	require.Len(t, encoded, 6*32)

	h := sha3.NewLegacyKeccak256()
	h.Write(encoded)

	var expected types.Digest
	copy(expected[:], h.Sum(nil))
	assert.Equal(t, expected, d)
}

func TestComputeTransferDigest_NilAmount(t *testing.T) {
	_, err := ComputeTransferDigest(testSender, nil, testRecipient, testToken, 1)
	assert.Error(t, err)
}

func TestComputeIntentDigest_MatchesFieldForm(t *testing.T) {
	intent := &types.TransferIntent{
		Sender:    testSender,
		Amount:    big.NewInt(42),
		Recipient: testRecipient,
		Token:     testToken,
		Nonce:     7,
	}

	fromIntent, err := ComputeIntentDigest(intent)
	require.NoError(t, err)

	fromFields, err := ComputeTransferDigest(testSender, big.NewInt(42), testRecipient, testToken, 7)
	require.NoError(t, err)

	assert.Equal(t, fromFields, fromIntent)
}

func TestComputeIntentDigest_NilIntent(t *testing.T) {
	_, err := ComputeIntentDigest(nil)
	assert.Error(t, err)
}

func TestPersonalDigest_PrefixTransform(t *testing.T) {
	d, err := ComputeTransferDigest(testSender, big.NewInt(10), testRecipient, testToken, 1)
	require.NoError(t, err)

	signed := PersonalDigest(d)
	assert.NotEqual(t, d, signed)

	// Recompute the expected transform by hand: the prefix binds the
	// message length (always 32 here) and the raw digest bytes.
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(fmt.Sprintf("\x19Ethereum Signed Message:\n%d", len(d))))
	h.Write(d[:])

	var expected types.Digest
	copy(expected[:], h.Sum(nil))
	assert.Equal(t, expected, signed)
}

func TestPersonalDigest_Deterministic(t *testing.T) {
	d, err := ComputeTransferDigest(testSender, big.NewInt(10), testRecipient, testToken, 1)
	require.NoError(t, err)

	assert.Equal(t, PersonalDigest(d), PersonalDigest(d))
}

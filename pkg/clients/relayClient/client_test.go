package relayClient

import (
	"context"
	"math/big"
	"net/http/httptest"
	"testing"

	"github.com/Layr-Labs/metatx-relay-go/pkg/intentSigner/inMemoryIntentSigner"
	"github.com/Layr-Labs/metatx-relay-go/pkg/ledger/memoryLedger"
	"github.com/Layr-Labs/metatx-relay-go/pkg/persistence/memory"
	"github.com/Layr-Labs/metatx-relay-go/pkg/relay"
	"github.com/Layr-Labs/metatx-relay-go/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	executorAddr = common.HexToAddress("0xEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEE")
	recipient    = common.HexToAddress("0x2222222222222222222222222222222222222222")
	token        = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

// endToEnd spins up a real relay server over an in-memory ledger and store
func endToEnd(t *testing.T) (*Client, *memoryLedger.MemoryLedger) {
	t.Helper()

	l := memoryLedger.NewMemoryLedger(executorAddr)
	store := memory.NewQuietMemoryStore()
	executor := relay.NewExecutor(store, l, zap.NewNop())
	srv := relay.NewServer(executor, &relay.ServerConfig{}, zap.NewNop())

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	client, err := NewClient(&ClientConfig{BaseURL: ts.URL})
	require.NoError(t, err)

	return client, l
}

func TestClient_SignAndTransferRoundTrip(t *testing.T) {
	ctx := context.Background()
	client, l := endToEnd(t)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := inMemoryIntentSigner.NewInMemoryIntentSignerFromKey(key, zap.NewNop())
	sender := signer.SignerAddress()

	l.Mint(sender, big.NewInt(100))
	require.NoError(t, l.Approve(ctx, sender, executorAddr, big.NewInt(100)))

	intent := &types.TransferIntent{
		Sender:    sender,
		Amount:    big.NewInt(25),
		Recipient: recipient,
		Token:     token,
		Nonce:     1,
	}

	// The signer fetches the exact bytes the executor will verify
	d, err := client.ComputeDigest(ctx, intent)
	require.NoError(t, err)

	signature, err := signer.SignIntent(d)
	require.NoError(t, err)

	resp, err := client.Transfer(ctx, intent, signature)
	require.NoError(t, err)
	assert.Equal(t, d.Hex(), resp.Digest)

	balance, err := l.BalanceOf(ctx, recipient)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(25), balance)

	// Replaying through the client surfaces the conflict
	_, err = client.Transfer(ctx, intent, signature)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "409")
}

func TestClient_Health(t *testing.T) {
	client, _ := endToEnd(t)
	assert.NoError(t, client.Health(context.Background()))
}

func TestNewClient_InvalidConfig(t *testing.T) {
	_, err := NewClient(nil)
	assert.Error(t, err)

	_, err = NewClient(&ClientConfig{})
	assert.Error(t, err)
}

package memoryLedger

import (
	"context"
	"math/big"
	"testing"

	"github.com/Layr-Labs/metatx-relay-go/pkg/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	executorAddr = common.HexToAddress("0xEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEE")
	alice        = common.HexToAddress("0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")
	bob          = common.HexToAddress("0xBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB")
)

func TestTransferFrom_MovesBalanceAndAllowance(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger(executorAddr)

	l.Mint(alice, big.NewInt(100))
	require.NoError(t, l.Approve(ctx, alice, executorAddr, big.NewInt(60)))

	require.NoError(t, l.TransferFrom(ctx, alice, bob, big.NewInt(40)))

	aliceBalance, err := l.BalanceOf(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(60), aliceBalance)

	bobBalance, err := l.BalanceOf(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(40), bobBalance)

	remaining, err := l.Allowance(ctx, alice, executorAddr)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(20), remaining)
}

func TestTransferFrom_InsufficientBalance(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger(executorAddr)

	l.Mint(alice, big.NewInt(10))
	require.NoError(t, l.Approve(ctx, alice, executorAddr, big.NewInt(100)))

	err := l.TransferFrom(ctx, alice, bob, big.NewInt(11))
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)

	// Failed transfers leave the ledger untouched
	aliceBalance, err := l.BalanceOf(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(10), aliceBalance)
}

func TestTransferFrom_InsufficientAllowance(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger(executorAddr)

	l.Mint(alice, big.NewInt(100))
	require.NoError(t, l.Approve(ctx, alice, executorAddr, big.NewInt(5)))

	err := l.TransferFrom(ctx, alice, bob, big.NewInt(6))
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrInsufficientAllowance)
}

func TestTransferFrom_NoApproval(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger(executorAddr)

	l.Mint(alice, big.NewInt(100))

	err := l.TransferFrom(ctx, alice, bob, big.NewInt(1))
	assert.ErrorIs(t, err, ledger.ErrInsufficientAllowance)
}

func TestBalanceOf_UnknownAccountIsZero(t *testing.T) {
	l := NewMemoryLedger(executorAddr)

	balance, err := l.BalanceOf(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(0), balance)
}

func TestApprove_Overwrites(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger(executorAddr)

	require.NoError(t, l.Approve(ctx, alice, executorAddr, big.NewInt(10)))
	require.NoError(t, l.Approve(ctx, alice, executorAddr, big.NewInt(3)))

	allowance, err := l.Allowance(ctx, alice, executorAddr)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(3), allowance)
}

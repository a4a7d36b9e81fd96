package erc20Ledger

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"strings"

	"github.com/Layr-Labs/metatx-relay-go/pkg/ledger"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Minimal ERC-20 surface the executor needs
const erc20ABIJSON = `[
	{"constant":true,"inputs":[{"name":"account","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":false,"inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"},
	{"constant":false,"inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"name":"transferFrom","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}
]`

// ERC20Ledger adapts an on-chain ERC-20 token to the ILedger interface.
// State-mutating calls are signed with the executor's key, which is the
// spender the token debits allowances against. Balance and allowance are
// checked before submitting, so the executor surfaces the precise failure
// instead of an opaque revert.
type ERC20Ledger struct {
	client       *ethclient.Client
	contract     *bind.BoundContract
	tokenAddress common.Address
	privateKey   *ecdsa.PrivateKey
	fromAddress  common.Address
	chainID      *big.Int
	logger       *zap.Logger
}

func NewERC20Ledger(
	client *ethclient.Client,
	tokenAddress common.Address,
	privateKeyHex string,
	chainID *big.Int,
	logger *zap.Logger,
) (*ERC20Ledger, error) {
	if privateKeyHex == "" {
		return nil, errors.New("private key cannot be empty")
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse private key")
	}

	parsedABI, err := abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse erc20 abi")
	}

	contract := bind.NewBoundContract(tokenAddress, parsedABI, client, client, client)

	return &ERC20Ledger{
		client:       client,
		contract:     contract,
		tokenAddress: tokenAddress,
		privateKey:   key,
		fromAddress:  crypto.PubkeyToAddress(key.PublicKey),
		chainID:      chainID,
		logger:       logger,
	}, nil
}

// SpenderAddress returns the executor-side address the token sees as the
// transferFrom caller. Users must approve this address.
func (e *ERC20Ledger) SpenderAddress() common.Address {
	return e.fromAddress
}

// BalanceOf returns the token balance of an account
func (e *ERC20Ledger) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	var out []interface{}
	err := e.contract.Call(&bind.CallOpts{Context: ctx}, &out, "balanceOf", account)
	if err != nil {
		return nil, errors.Wrapf(err, "balanceOf call failed for %s", account.Hex())
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// Allowance returns how much spender may move on owner's behalf
func (e *ERC20Ledger) Allowance(ctx context.Context, owner common.Address, spender common.Address) (*big.Int, error) {
	var out []interface{}
	err := e.contract.Call(&bind.CallOpts{Context: ctx}, &out, "allowance", owner, spender)
	if err != nil {
		return nil, errors.Wrapf(err, "allowance call failed for owner %s", owner.Hex())
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// Approve submits an approve transaction. The token attributes approvals to
// the transaction sender, so this only works when the configured key is the
// owner's; anyone else must approve through their own wallet.
func (e *ERC20Ledger) Approve(ctx context.Context, owner common.Address, spender common.Address, amount *big.Int) error {
	if owner != e.fromAddress {
		return errors.Errorf("approve must be submitted by the owner: owner is %s, signing key is %s",
			owner.Hex(), e.fromAddress.Hex())
	}

	opts, err := e.transactOpts(ctx)
	if err != nil {
		return err
	}

	tx, err := e.contract.Transact(opts, "approve", spender, amount)
	if err != nil {
		return errors.Wrap(err, "approve transaction failed")
	}

	return e.waitMined(ctx, tx, "approve")
}

// TransferFrom moves amount from owner to recipient. Balance and allowance
// are read first so insufficient funds surface as the typed ledger errors
// rather than a gas-estimation revert.
func (e *ERC20Ledger) TransferFrom(ctx context.Context, owner common.Address, recipient common.Address, amount *big.Int) error {
	balance, err := e.BalanceOf(ctx, owner)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return errors.Wrapf(ledger.ErrInsufficientBalance, "balance %s, need %s", balance, amount)
	}

	allowance, err := e.Allowance(ctx, owner, e.fromAddress)
	if err != nil {
		return err
	}
	if allowance.Cmp(amount) < 0 {
		return errors.Wrapf(ledger.ErrInsufficientAllowance, "allowance %s, need %s", allowance, amount)
	}

	opts, err := e.transactOpts(ctx)
	if err != nil {
		return err
	}

	e.logger.Sugar().Infow("Submitting transferFrom",
		zap.String("token", e.tokenAddress.Hex()),
		zap.String("owner", owner.Hex()),
		zap.String("recipient", recipient.Hex()),
		zap.String("amount", amount.String()),
	)

	tx, err := e.contract.Transact(opts, "transferFrom", owner, recipient, amount)
	if err != nil {
		return errors.Wrap(err, "transferFrom transaction failed")
	}

	return e.waitMined(ctx, tx, "transferFrom")
}

func (e *ERC20Ledger) transactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(e.privateKey, e.chainID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build transact opts")
	}
	opts.Context = ctx
	return opts, nil
}

func (e *ERC20Ledger) waitMined(ctx context.Context, tx *ethtypes.Transaction, operation string) error {
	receipt, err := bind.WaitMined(ctx, e.client, tx)
	if err != nil {
		return errors.Wrapf(err, "failed waiting for %s receipt", operation)
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return errors.Errorf("%s transaction reverted: %s", operation, tx.Hash().Hex())
	}

	e.logger.Sugar().Infow("Transaction mined",
		zap.String("operation", operation),
		zap.String("txHash", tx.Hash().Hex()),
		zap.Uint64("block", receipt.BlockNumber.Uint64()),
	)
	return nil
}

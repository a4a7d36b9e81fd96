package memoryLedger

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/Layr-Labs/metatx-relay-go/pkg/ledger"
	"github.com/ethereum/go-ethereum/common"
)

// MemoryLedger is an in-process implementation of ILedger backed by
// balance and allowance maps. Used in tests and in local/dev relay mode.
//
// The ledger is constructed with the spender identity that TransferFrom
// debits allowances against, matching ERC-20 semantics where the caller of
// transferFrom is the spender. In relay deployments that spender is the
// executor itself.
type MemoryLedger struct {
	mu sync.Mutex

	spender    common.Address
	balances   map[common.Address]*big.Int
	allowances map[common.Address]map[common.Address]*big.Int
}

func NewMemoryLedger(spender common.Address) *MemoryLedger {
	return &MemoryLedger{
		spender:    spender,
		balances:   make(map[common.Address]*big.Int),
		allowances: make(map[common.Address]map[common.Address]*big.Int),
	}
}

// Mint credits an account out of thin air. Test and dev setup only.
func (m *MemoryLedger) Mint(account common.Address, amount *big.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.balances[account] = new(big.Int).Add(m.balanceLocked(account), amount)
}

// BalanceOf returns the current balance of an account
func (m *MemoryLedger) BalanceOf(_ context.Context, account common.Address) (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return new(big.Int).Set(m.balanceLocked(account)), nil
}

// Allowance returns how much spender may move on owner's behalf
func (m *MemoryLedger) Allowance(_ context.Context, owner common.Address, spender common.Address) (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return new(big.Int).Set(m.allowanceLocked(owner, spender)), nil
}

// Approve sets owner's allowance for spender
func (m *MemoryLedger) Approve(_ context.Context, owner common.Address, spender common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("invalid approve amount")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.allowances[owner] == nil {
		m.allowances[owner] = make(map[common.Address]*big.Int)
	}
	m.allowances[owner][spender] = new(big.Int).Set(amount)
	return nil
}

// TransferFrom moves amount from owner to recipient, debiting the
// configured spender's allowance. Balance and allowance are checked before
// any mutation, so a failed transfer leaves the ledger untouched.
func (m *MemoryLedger) TransferFrom(_ context.Context, owner common.Address, recipient common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("invalid transfer amount")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	balance := m.balanceLocked(owner)
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: balance %s, need %s", ledger.ErrInsufficientBalance, balance, amount)
	}

	allowance := m.allowanceLocked(owner, m.spender)
	if allowance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: allowance %s, need %s", ledger.ErrInsufficientAllowance, allowance, amount)
	}

	m.balances[owner] = new(big.Int).Sub(balance, amount)
	m.balances[recipient] = new(big.Int).Add(m.balanceLocked(recipient), amount)
	m.allowances[owner][m.spender] = new(big.Int).Sub(allowance, amount)
	return nil
}

func (m *MemoryLedger) balanceLocked(account common.Address) *big.Int {
	if b, ok := m.balances[account]; ok {
		return b
	}
	return big.NewInt(0)
}

func (m *MemoryLedger) allowanceLocked(owner common.Address, spender common.Address) *big.Int {
	if spenders, ok := m.allowances[owner]; ok {
		if a, ok := spenders[spender]; ok {
			return a
		}
	}
	return big.NewInt(0)
}

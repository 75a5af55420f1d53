// Package token is the settlement token ledger the marketplace pays and escrows with.
package token

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/xtrntr/marketplace/internal/models"
)

var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrInvalidRecipient      = errors.New("invalid recipient")
	ErrOverflow              = errors.New("balance overflow")
)

// Ledger is the capability the marketplace needs from a settlement token.
type Ledger interface {
	BalanceOf(ctx context.Context, who models.Address) (decimal.Decimal, error)
	// Transfer moves amount from from's own balance.
	Transfer(ctx context.Context, from, to models.Address, amount decimal.Decimal) error
	// TransferFrom moves amount out of owner's balance using the allowance owner granted to spender.
	TransferFrom(ctx context.Context, spender, owner, to models.Address, amount decimal.Decimal) error
}

// Allowances is implemented by ledgers that let the marketplace read and reset the allowance an owner
// granted it.
type Allowances interface {
	Allowance(ctx context.Context, owner, spender models.Address) (decimal.Decimal, error)
	Approve(ctx context.Context, owner, spender models.Address, amount decimal.Decimal) error
}

// Bank is an in-memory settlement token with ERC-20 style allowances.
type Bank struct {
	mu         sync.RWMutex
	balances   map[models.Address]decimal.Decimal
	allowances map[models.Address]map[models.Address]decimal.Decimal
}

var (
	_ Ledger     = (*Bank)(nil)
	_ Allowances = (*Bank)(nil)
)

// NewBank creates an empty ledger
func NewBank() *Bank {
	return &Bank{
		balances:   make(map[models.Address]decimal.Decimal),
		allowances: make(map[models.Address]map[models.Address]decimal.Decimal),
	}
}

func (b *Bank) BalanceOf(ctx context.Context, who models.Address) (decimal.Decimal, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.balances[who], nil
}

// Allowance returns how much spender may still move out of owner's balance.
func (b *Bank) Allowance(ctx context.Context, owner, spender models.Address) (decimal.Decimal, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.allowances[owner][spender], nil
}

// Approve sets spender's allowance over owner's balance to amount.
func (b *Bank) Approve(ctx context.Context, owner, spender models.Address, amount decimal.Decimal) error {
	if !models.IsAmount(amount) {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.allowances[owner] == nil {
		b.allowances[owner] = make(map[models.Address]decimal.Decimal)
	}
	b.allowances[owner][spender] = amount
	return nil
}

// Mint credits amount to to out of thin air.
func (b *Bank) Mint(ctx context.Context, to models.Address, amount decimal.Decimal) error {
	if !models.IsAmount(amount) {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	if to == "" {
		return ErrInvalidRecipient
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	next := b.balances[to].Add(amount)
	if next.GreaterThan(models.MaxAmount) {
		return ErrOverflow
	}
	b.balances[to] = next
	return nil
}

func (b *Bank) Transfer(ctx context.Context, from, to models.Address, amount decimal.Decimal) error {
	if err := validate(to, amount); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.move(from, to, amount)
}

func (b *Bank) TransferFrom(ctx context.Context, spender, owner, to models.Address, amount decimal.Decimal) error {
	if err := validate(to, amount); err != nil {
		return err
	}
	if amount.IsZero() {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	allowed := b.allowances[owner][spender]
	if allowed.LessThan(amount) {
		return fmt.Errorf("%w: %s allowed %s, need %s", ErrInsufficientAllowance, spender, allowed, amount)
	}
	if err := b.move(owner, to, amount); err != nil {
		return err
	}
	b.allowances[owner][spender] = allowed.Sub(amount)
	return nil
}

// move must be called with b.mu held.
func (b *Bank) move(from, to models.Address, amount decimal.Decimal) error {
	have := b.balances[from]
	if have.LessThan(amount) {
		return fmt.Errorf("%w: %s has %s, need %s", ErrInsufficientBalance, from, have, amount)
	}
	if from == to {
		return nil
	}
	next := b.balances[to].Add(amount)
	if next.GreaterThan(models.MaxAmount) {
		return fmt.Errorf("%w: %s would hold %s", ErrOverflow, to, next)
	}
	b.balances[from] = have.Sub(amount)
	b.balances[to] = next
	return nil
}

func validate(to models.Address, amount decimal.Decimal) error {
	if !models.IsAmount(amount) {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	if to == "" {
		return ErrInvalidRecipient
	}
	return nil
}

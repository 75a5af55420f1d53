package token

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtrntr/marketplace/internal/models"
)

func balance(t *testing.T, b *Bank, who models.Address) string {
	t.Helper()
	got, err := b.BalanceOf(context.Background(), who)
	require.NoError(t, err)
	return got.String()
}

func TestBank_Transfer(t *testing.T) {
	ctx := context.Background()
	b := NewBank()
	require.NoError(t, b.Mint(ctx, "alice", decimal.NewFromInt(100)))

	tests := []struct {
		name    string
		to      models.Address
		amount  decimal.Decimal
		wantErr error
	}{
		{"Success", "bob", decimal.NewFromInt(40), nil},
		{"TooMuch", "bob", decimal.NewFromInt(61), ErrInsufficientBalance},
		{"Negative", "bob", decimal.NewFromInt(-1), ErrInvalidAmount},
		{"Fractional", "bob", decimal.RequireFromString("0.5"), ErrInvalidAmount},
		{"NoRecipient", "", decimal.NewFromInt(1), ErrInvalidRecipient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := b.Transfer(ctx, "alice", tt.to, tt.amount)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}

	assert.Equal(t, "60", balance(t, b, "alice"))
	assert.Equal(t, "40", balance(t, b, "bob"))
}

func TestBank_TransferFrom(t *testing.T) {
	ctx := context.Background()
	b := NewBank()
	require.NoError(t, b.Mint(ctx, "alice", decimal.NewFromInt(100)))

	err := b.TransferFrom(ctx, "market", "alice", "market", decimal.NewFromInt(10))
	assert.ErrorIs(t, err, ErrInsufficientAllowance)

	require.NoError(t, b.Approve(ctx, "alice", "market", decimal.NewFromInt(30)))
	require.NoError(t, b.TransferFrom(ctx, "market", "alice", "market", decimal.NewFromInt(10)))

	left, err := b.Allowance(ctx, "alice", "market")
	require.NoError(t, err)
	assert.Equal(t, "20", left.String())
	assert.Equal(t, "90", balance(t, b, "alice"))
	assert.Equal(t, "10", balance(t, b, "market"))

	err = b.TransferFrom(ctx, "market", "alice", "market", decimal.NewFromInt(21))
	assert.ErrorIs(t, err, ErrInsufficientAllowance)

	require.NoError(t, b.TransferFrom(ctx, "market", "carol", "market", decimal.Zero))
}

func TestBank_FailedTransferFromKeepsAllowance(t *testing.T) {
	ctx := context.Background()
	b := NewBank()
	require.NoError(t, b.Approve(ctx, "alice", "market", decimal.NewFromInt(50)))

	err := b.TransferFrom(ctx, "market", "alice", "market", decimal.NewFromInt(5))
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	left, err := b.Allowance(ctx, "alice", "market")
	require.NoError(t, err)
	assert.Equal(t, "50", left.String())
}

func TestBank_MintOverflow(t *testing.T) {
	ctx := context.Background()
	b := NewBank()
	require.NoError(t, b.Mint(ctx, "whale", models.MaxAmount))
	assert.ErrorIs(t, b.Mint(ctx, "whale", decimal.NewFromInt(1)), ErrOverflow)
	assert.ErrorIs(t, b.Mint(ctx, "", decimal.NewFromInt(1)), ErrInvalidRecipient)
	assert.ErrorIs(t, b.Approve(ctx, "whale", "market", decimal.NewFromInt(-3)), ErrInvalidAmount)
}

func TestBank_TransferOverflow(t *testing.T) {
	ctx := context.Background()
	b := NewBank()
	require.NoError(t, b.Mint(ctx, "a", models.MaxAmount))
	require.NoError(t, b.Mint(ctx, "b", models.MaxAmount))
	require.NoError(t, b.Approve(ctx, "a", "market", models.MaxAmount))

	assert.ErrorIs(t, b.Transfer(ctx, "a", "b", decimal.NewFromInt(1)), ErrOverflow)
	assert.ErrorIs(t, b.TransferFrom(ctx, "market", "a", "b", decimal.NewFromInt(1)), ErrOverflow)

	assert.Equal(t, models.MaxAmount.String(), balance(t, b, "a"))
	assert.Equal(t, models.MaxAmount.String(), balance(t, b, "b"))
	allowed, err := b.Allowance(ctx, "a", "market")
	require.NoError(t, err)
	assert.True(t, allowed.Equal(models.MaxAmount))
}

package exchange

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/xtrntr/marketplace/internal/asset"
	"github.com/xtrntr/marketplace/internal/models"
	"github.com/xtrntr/marketplace/internal/token"
)

const basisPointsDenominator = 10000

// moveAsset transfers custody of key from one address to another and records the reverse transfer.
func (e *Exchange) moveAsset(ctx context.Context, j *journal, col asset.Collection, key models.Key, from, to models.Address) error {
	if err := col.TransferCustody(ctx, key.AssetID, from, to); err != nil {
		return fmt.Errorf("transfer %s: %w", key, err)
	}
	j.onUndo(func(ctx context.Context) error {
		return col.TransferCustody(ctx, key.AssetID, to, from)
	})
	return nil
}

// escrowFunds pulls amount from owner into the exchange's custody using owner's allowance. Undoing it pays
// the funds back and, when the ledger exposes allowances, gives the spent allowance back too.
func (e *Exchange) escrowFunds(ctx context.Context, j *journal, owner models.Address, amount decimal.Decimal) error {
	if err := e.token.TransferFrom(ctx, e.self, owner, e.self, amount); err != nil {
		return fmt.Errorf("escrow %s from %s: %w", amount, owner, err)
	}
	j.onUndo(func(ctx context.Context) error {
		if err := e.token.Transfer(ctx, e.self, owner, amount); err != nil {
			return err
		}
		return e.restoreAllowance(ctx, owner, amount)
	})
	return nil
}

func (e *Exchange) restoreAllowance(ctx context.Context, owner models.Address, amount decimal.Decimal) error {
	if amount.IsZero() {
		return nil
	}
	allowances, ok := e.token.(token.Allowances)
	if !ok {
		return nil
	}
	left, err := allowances.Allowance(ctx, owner, e.self)
	if err != nil {
		return fmt.Errorf("allowance of %s: %w", owner, err)
	}
	return allowances.Approve(ctx, owner, e.self, left.Add(amount))
}

// releaseFunds pays amount out of the exchange's custody. Once paid out the funds cannot be pulled back, so
// releases come after every step that can fail.
func (e *Exchange) releaseFunds(ctx context.Context, to models.Address, amount decimal.Decimal) error {
	if amount.IsZero() {
		return nil
	}
	if err := e.token.Transfer(ctx, e.self, to, amount); err != nil {
		return fmt.Errorf("release %s to %s: %w", amount, to, err)
	}
	return nil
}

// settle pays a sale of price out of custody: the fee to the collector and the rest to the seller.
func (e *Exchange) settle(ctx context.Context, seller models.Address, price decimal.Decimal) error {
	fee := e.fee(price)
	if err := e.releaseFunds(ctx, e.settings.FeeCollector, fee); err != nil {
		return err
	}
	return e.releaseFunds(ctx, seller, price.Sub(fee))
}

// fee is price * FeeBasisPoints / 10000, rounded down.
func (e *Exchange) fee(price decimal.Decimal) decimal.Decimal {
	if e.settings.FeeBasisPoints == 0 || e.settings.FeeCollector == "" {
		return decimal.Zero
	}
	q, _ := price.Mul(decimal.NewFromInt(e.settings.FeeBasisPoints)).
		QuoRem(decimal.NewFromInt(basisPointsDenominator), 0)
	return q
}

// checkFingerprint verifies fingerprint against the asset's current metadata. The zero fingerprint skips the
// check; collections without the capability never match.
func (e *Exchange) checkFingerprint(ctx context.Context, col asset.Collection, key models.Key, fingerprint models.Hash) error {
	if fingerprint.IsZero() {
		return nil
	}
	fp, ok := col.(asset.Fingerprinter)
	if !ok {
		return ErrInvalidFingerprint
	}
	valid, err := fp.VerifyFingerprint(ctx, key.AssetID, fingerprint)
	if err != nil {
		return fmt.Errorf("verify fingerprint of %s: %w", key, err)
	}
	if !valid {
		return ErrInvalidFingerprint
	}
	return nil
}

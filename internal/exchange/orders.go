package exchange

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/xtrntr/marketplace/internal/asset"
	"github.com/xtrntr/marketplace/internal/events"
	"github.com/xtrntr/marketplace/internal/models"
)

// CreateOrder lists an asset the caller holds. The asset moves into the exchange's custody until the order
// is cancelled or filled.
func (e *Exchange) CreateOrder(ctx context.Context, caller models.Address, key models.Key, price decimal.Decimal, expiresAt int64) error {
	return e.atomically(ctx, "create_order", func(j *journal) error {
		col, err := e.collections.Collection(key.Collection)
		if err != nil {
			return err
		}
		owner, err := col.OwnerOf(ctx, key.AssetID)
		if err != nil {
			return fmt.Errorf("owner of %s: %w", key, err)
		}
		if owner != caller {
			return ErrNotAssetOwner
		}
		if !validPrice(price) {
			return ErrInvalidPrice
		}
		if !e.validExpiry(expiresAt) {
			return ErrExpiryTooSoon
		}

		if err := e.moveAsset(ctx, j, col, key, caller, e.self); err != nil {
			return err
		}
		e.publish(j, key, caller, price, expiresAt)
		return nil
	})
}

// MintAndCreateOrder mints a new asset straight into the exchange's custody and lists it for the caller in
// the same step. It returns the id of the minted asset.
func (e *Exchange) MintAndCreateOrder(ctx context.Context, caller models.Address, collection string, metadata []byte, price decimal.Decimal, expiresAt int64) (string, error) {
	var assetID string
	err := e.atomically(ctx, "mint_and_create_order", func(j *journal) error {
		if caller == "" {
			return ErrInvalidAddress
		}
		col, err := e.collections.Collection(collection)
		if err != nil {
			return err
		}
		minter, ok := col.(asset.Minter)
		if !ok {
			return ErrMintUnsupported
		}
		if !validPrice(price) {
			return ErrInvalidPrice
		}
		if !e.validExpiry(expiresAt) {
			return ErrExpiryTooSoon
		}

		id, err := minter.Mint(ctx, caller, e.self, metadata)
		if err != nil {
			return fmt.Errorf("mint in %s: %w", collection, err)
		}
		j.onUndo(func(ctx context.Context) error {
			return minter.Burn(ctx, id)
		})
		e.publish(j, models.Key{Collection: collection, AssetID: id}, caller, price, expiresAt)
		assetID = id
		return nil
	})
	if err != nil {
		return "", err
	}
	return assetID, nil
}

func (e *Exchange) publish(j *journal, key models.Key, seller models.Address, price decimal.Decimal, expiresAt int64) {
	now := e.now()
	e.storeOrder(j, &models.Order{
		Key:       key,
		Seller:    seller,
		Price:     price,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	})

	ev := events.New(events.OrderCreated, key, now)
	ev.Seller = seller
	ev.Price = price
	ev.ExpiresAt = expiresAt
	j.emit(ev)
}

// UpdateOrder changes the price and expiration of a live order.
func (e *Exchange) UpdateOrder(ctx context.Context, caller models.Address, key models.Key, price decimal.Decimal, expiresAt int64) error {
	return e.atomically(ctx, "update_order", func(j *journal) error {
		order, ok := e.orders[key]
		if !ok {
			return ErrOrderNotPublished
		}
		if order.Seller != caller {
			return ErrNotSeller
		}
		if order.Expired(e.clock.Now()) {
			return ErrOrderExpired
		}
		if !validPrice(price) {
			return ErrInvalidPrice
		}
		if !e.validExpiry(expiresAt) {
			return ErrExpiryTooSoon
		}

		updated := *order
		updated.Price = price
		updated.ExpiresAt = expiresAt
		e.storeOrder(j, &updated)

		ev := events.New(events.OrderUpdated, key, e.now())
		ev.Seller = caller
		ev.Price = price
		ev.ExpiresAt = expiresAt
		j.emit(ev)
		return nil
	})
}

// CancelOrder returns the asset to the seller. A bid on the order is refunded first.
func (e *Exchange) CancelOrder(ctx context.Context, caller models.Address, key models.Key) error {
	return e.atomically(ctx, "cancel_order", func(j *journal) error {
		order, ok := e.orders[key]
		if !ok {
			return ErrOrderNotPublished
		}
		if order.Seller != caller {
			return ErrNotSeller
		}
		col, err := e.collections.Collection(key.Collection)
		if err != nil {
			return err
		}

		if err := e.moveAsset(ctx, j, col, key, e.self, order.Seller); err != nil {
			return err
		}
		if err := e.refundBid(ctx, j, key); err != nil {
			return err
		}
		e.removeOrder(j, key)

		ev := events.New(events.OrderCancelled, key, e.now())
		ev.Seller = order.Seller
		ev.Price = order.Price
		j.emit(ev)
		return nil
	})
}

// SafeExecuteOrder buys a listed asset at its fixed price. expectedPrice must equal the order's price, so an
// update that lands first makes the purchase fail instead of charging a different amount. A non-zero
// fingerprint must match the asset's current metadata.
func (e *Exchange) SafeExecuteOrder(ctx context.Context, caller models.Address, key models.Key, expectedPrice decimal.Decimal, fingerprint models.Hash) error {
	return e.atomically(ctx, "execute_order", func(j *journal) error {
		order, ok := e.orders[key]
		if !ok {
			return ErrOrderNotPublished
		}
		if order.Seller == caller {
			return ErrSellerCannotBuy
		}
		if order.Expired(e.clock.Now()) {
			return ErrOrderExpired
		}
		if !order.Price.Equal(expectedPrice) {
			return ErrPriceMismatch
		}
		col, err := e.collections.Collection(key.Collection)
		if err != nil {
			return err
		}
		if err := e.checkFingerprint(ctx, col, key, fingerprint); err != nil {
			return err
		}

		if err := e.moveAsset(ctx, j, col, key, e.self, caller); err != nil {
			return err
		}
		if err := e.escrowFunds(ctx, j, caller, order.Price); err != nil {
			return err
		}
		if err := e.refundBid(ctx, j, key); err != nil {
			return err
		}
		if err := e.settle(ctx, order.Seller, order.Price); err != nil {
			return err
		}
		e.removeOrder(j, key)

		ev := events.New(events.OrderSuccessful, key, e.now())
		ev.Seller = order.Seller
		ev.Buyer = caller
		ev.Price = order.Price
		j.emit(ev)
		return nil
	})
}

package exchange

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/xtrntr/marketplace/internal/events"
	"github.com/xtrntr/marketplace/internal/models"
)

// SafePlaceBid escrows price from the caller as an offer on a live order. A bid already on the order must be
// strictly outbid; its funds go back to its bidder.
func (e *Exchange) SafePlaceBid(ctx context.Context, caller models.Address, key models.Key, price decimal.Decimal, expiresAt int64, fingerprint models.Hash) error {
	return e.atomically(ctx, "place_bid", func(j *journal) error {
		order, ok := e.orders[key]
		if !ok {
			return ErrOrderNotPublished
		}
		if order.Expired(e.clock.Now()) {
			return ErrOrderExpired
		}
		col, err := e.collections.Collection(key.Collection)
		if err != nil {
			return err
		}
		if err := e.checkFingerprint(ctx, col, key, fingerprint); err != nil {
			return err
		}
		if !validPrice(price) {
			return ErrInvalidPrice
		}
		if !e.validExpiry(expiresAt) {
			return ErrExpiryTooSoon
		}
		if last, ok := e.bids[key]; ok && !price.GreaterThan(last.Price) {
			return ErrBidTooLow
		}

		if err := e.escrowFunds(ctx, j, caller, price); err != nil {
			return err
		}
		if err := e.refundBid(ctx, j, key); err != nil {
			return err
		}
		e.storeBid(j, &models.Bid{
			Key:         key,
			Bidder:      caller,
			Price:       price,
			ExpiresAt:   expiresAt,
			Fingerprint: fingerprint,
			CreatedAt:   e.now(),
		})

		ev := events.New(events.BidCreated, key, e.now())
		ev.Bidder = caller
		ev.Price = price
		ev.ExpiresAt = expiresAt
		j.emit(ev)
		return nil
	})
}

// CancelBid returns the escrowed funds to the bidder.
func (e *Exchange) CancelBid(ctx context.Context, caller models.Address, key models.Key) error {
	return e.atomically(ctx, "cancel_bid", func(j *journal) error {
		bid, ok := e.bids[key]
		if !ok {
			return ErrBidNotFound
		}
		if bid.Bidder != caller {
			return ErrNotBidder
		}
		return e.refundBid(ctx, j, key)
	})
}

// AcceptBid sells the listed asset to the bidder for the escrowed funds. expectedPrice must equal the live
// bid's price, so a bid replaced in the meantime is never accepted by accident.
func (e *Exchange) AcceptBid(ctx context.Context, caller models.Address, key models.Key, expectedPrice decimal.Decimal) error {
	return e.atomically(ctx, "accept_bid", func(j *journal) error {
		bid, ok := e.bids[key]
		if !ok {
			return ErrBidNotFound
		}
		order, ok := e.orders[key]
		if !ok {
			return ErrOrderNotPublished
		}
		if order.Seller != caller {
			return ErrNotSeller
		}
		if !bid.Price.Equal(expectedPrice) {
			return ErrPriceMismatch
		}
		if bid.Expired(e.clock.Now()) {
			return ErrBidExpired
		}
		col, err := e.collections.Collection(key.Collection)
		if err != nil {
			return err
		}

		if err := e.moveAsset(ctx, j, col, key, e.self, bid.Bidder); err != nil {
			return err
		}
		if err := e.settle(ctx, order.Seller, bid.Price); err != nil {
			return err
		}
		e.removeBid(j, key)
		e.removeOrder(j, key)

		now := e.now()
		accepted := events.New(events.BidAccepted, key, now)
		accepted.Seller = order.Seller
		accepted.Bidder = bid.Bidder
		accepted.Price = bid.Price
		j.emit(accepted)

		sold := events.New(events.OrderSuccessful, key, now)
		sold.Seller = order.Seller
		sold.Buyer = bid.Bidder
		sold.Price = bid.Price
		j.emit(sold)
		return nil
	})
}

// refundBid pays the bid at key back to its bidder and removes it. It does nothing when no bid is stored.
func (e *Exchange) refundBid(ctx context.Context, j *journal, key models.Key) error {
	bid, ok := e.bids[key]
	if !ok {
		return nil
	}
	if err := e.releaseFunds(ctx, bid.Bidder, bid.Price); err != nil {
		return err
	}
	e.removeBid(j, key)

	ev := events.New(events.BidCancelled, key, e.now())
	ev.Bidder = bid.Bidder
	ev.Price = bid.Price
	j.emit(ev)
	return nil
}

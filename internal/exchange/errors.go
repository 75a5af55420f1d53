package exchange

import "errors"

// Authorization errors.
var (
	ErrNotAssetOwner   = errors.New("only the asset owner can create orders")
	ErrNotSeller       = errors.New("only the seller can do this")
	ErrSellerCannotBuy = errors.New("seller cannot buy their own asset")
	ErrNotBidder       = errors.New("only the bidder can cancel the bid")
	ErrNotAdmin        = errors.New("only the administrator can change settings")
)

// Precondition errors.
var (
	ErrOrderNotPublished  = errors.New("asset not published")
	ErrOrderExpired       = errors.New("order expired")
	ErrBidNotFound        = errors.New("bid not found")
	ErrBidExpired         = errors.New("bid expired")
	ErrInvalidPrice       = errors.New("price should be bigger than 0")
	ErrExpiryTooSoon      = errors.New("expiration should be more than 1 minute in the future")
	ErrInvalidFingerprint = errors.New("the asset fingerprint is not valid")
	ErrBidTooLow          = errors.New("bid price should be higher than last bid")
	ErrPriceMismatch      = errors.New("the price is not correct")
	ErrInvalidFee         = errors.New("fee should be between 0 and 10000 basis points")
	ErrInvalidAddress     = errors.New("invalid address")
	ErrMintUnsupported    = errors.New("collection does not support minting")
)

package api

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/xtrntr/marketplace/internal/models"
)

type placeBidRequest struct {
	Price       decimal.Decimal `json:"price"`
	ExpiresAt   int64           `json:"expires_at"`
	Fingerprint models.Hash     `json:"fingerprint"`
}

// PlaceBid escrows the caller's offer on a listed asset
func (h *Handler) PlaceBid(w http.ResponseWriter, r *http.Request) {
	addr, ok := caller(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
		return
	}
	var req placeBidRequest
	if !decode(w, r, &req) {
		return
	}

	key := assetKey(r)
	if err := h.Exchange.SafePlaceBid(r.Context(), addr, key, req.Price, req.ExpiresAt, req.Fingerprint); err != nil {
		h.writeDomainError(w, err)
		return
	}
	bid, _ := h.Exchange.Bid(key)
	writeJSON(w, http.StatusCreated, bid)
}

// CancelBid withdraws the caller's bid and refunds it
func (h *Handler) CancelBid(w http.ResponseWriter, r *http.Request) {
	addr, ok := caller(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
		return
	}

	if err := h.Exchange.CancelBid(r.Context(), addr, assetKey(r)); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "bid cancelled"})
}

type acceptBidRequest struct {
	Price decimal.Decimal `json:"price"`
}

// AcceptBid sells the caller's listed asset to the current bidder
func (h *Handler) AcceptBid(w http.ResponseWriter, r *http.Request) {
	addr, ok := caller(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
		return
	}
	var req acceptBidRequest
	if !decode(w, r, &req) {
		return
	}

	key := assetKey(r)
	if err := h.Exchange.AcceptBid(r.Context(), addr, key, req.Price); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "bid accepted",
		"key":     key,
		"price":   req.Price,
	})
}

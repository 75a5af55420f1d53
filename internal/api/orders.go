package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/xtrntr/marketplace/internal/asset"
	"github.com/xtrntr/marketplace/internal/cache"
	"github.com/xtrntr/marketplace/internal/events"
	"github.com/xtrntr/marketplace/internal/exchange"
	"github.com/xtrntr/marketplace/internal/models"
)

type createOrderRequest struct {
	Collection string          `json:"collection"`
	AssetID    string          `json:"asset_id"`
	Price      decimal.Decimal `json:"price"`
	ExpiresAt  int64           `json:"expires_at"`
}

// CreateOrder lists an asset the caller holds
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	addr, ok := caller(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
		return
	}
	var req createOrderRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Collection == "" || req.AssetID == "" {
		writeError(w, http.StatusBadRequest, codeMissingRequiredField, "collection and asset_id required")
		return
	}

	key := models.Key{Collection: req.Collection, AssetID: req.AssetID}
	if err := h.Exchange.CreateOrder(r.Context(), addr, key, req.Price, req.ExpiresAt); err != nil {
		h.writeDomainError(w, err)
		return
	}
	order, _ := h.Exchange.Order(key)
	writeJSON(w, http.StatusCreated, order)
}

type mintRequest struct {
	Collection string          `json:"collection"`
	Metadata   string          `json:"metadata"`
	Price      decimal.Decimal `json:"price"`
	ExpiresAt  int64           `json:"expires_at"`
}

// MintAndCreateOrder mints a new asset and lists it in one step
func (h *Handler) MintAndCreateOrder(w http.ResponseWriter, r *http.Request) {
	addr, ok := caller(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
		return
	}
	var req mintRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Collection == "" {
		writeError(w, http.StatusBadRequest, codeMissingRequiredField, "collection required")
		return
	}

	id, err := h.Exchange.MintAndCreateOrder(r.Context(), addr, req.Collection, []byte(req.Metadata), req.Price, req.ExpiresAt)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	order, _ := h.Exchange.Order(models.Key{Collection: req.Collection, AssetID: id})
	writeJSON(w, http.StatusCreated, order)
}

type updateOrderRequest struct {
	Price     decimal.Decimal `json:"price"`
	ExpiresAt int64           `json:"expires_at"`
}

// UpdateOrder changes the price and expiration of the caller's order
func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	addr, ok := caller(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
		return
	}
	var req updateOrderRequest
	if !decode(w, r, &req) {
		return
	}

	key := assetKey(r)
	if err := h.Exchange.UpdateOrder(r.Context(), addr, key, req.Price, req.ExpiresAt); err != nil {
		h.writeDomainError(w, err)
		return
	}
	order, _ := h.Exchange.Order(key)
	writeJSON(w, http.StatusOK, order)
}

// CancelOrder withdraws the caller's order and returns the asset
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	addr, ok := caller(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
		return
	}

	if err := h.Exchange.CancelOrder(r.Context(), addr, assetKey(r)); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "order cancelled"})
}

type executeRequest struct {
	Price       decimal.Decimal `json:"price"`
	Fingerprint models.Hash     `json:"fingerprint"`
}

// ExecuteOrder buys a listed asset at the price the caller expects
func (h *Handler) ExecuteOrder(w http.ResponseWriter, r *http.Request) {
	addr, ok := caller(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
		return
	}
	var req executeRequest
	if !decode(w, r, &req) {
		return
	}

	key := assetKey(r)
	if err := h.Exchange.SafeExecuteOrder(r.Context(), addr, key, req.Price, req.Fingerprint); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "order executed",
		"key":     key,
		"buyer":   addr,
		"price":   req.Price,
	})
}

// GetOrderBook returns every stored order and bid
func (h *Handler) GetOrderBook(w http.ResponseWriter, r *http.Request) {
	orders, bids := h.Exchange.GetOrderBook()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"orders": orders,
		"bids":   bids,
	})
}

// GetListing returns the order and bid of one asset through the listing cache
func (h *Handler) GetListing(w http.ResponseWriter, r *http.Request) {
	key := assetKey(r)
	listing, err := cache.Fetch(r.Context(), h.Listings, key, func() *cache.Listing {
		l := &cache.Listing{Key: key}
		if o, ok := h.Exchange.Order(key); ok {
			l.Order = &o
		}
		if b, ok := h.Exchange.Bid(key); ok {
			l.Bid = &b
		}
		return l
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if listing.Order == nil && listing.Bid == nil {
		writeError(w, http.StatusNotFound, codeNotFound, "no listing for asset")
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

type metadataReader interface {
	Metadata(ctx context.Context, assetID string) ([]byte, error)
}

type uriReader interface {
	TokenURI(ctx context.Context, assetID string) (string, error)
}

type assetResponse struct {
	Key         models.Key     `json:"key"`
	Holder      models.Address `json:"holder"`
	InCustody   bool           `json:"in_custody"`
	TokenURI    string         `json:"token_uri,omitempty"`
	Fingerprint *models.Hash   `json:"fingerprint,omitempty"`
}

// GetAsset reports who holds an asset and, where the collection supports it, its current fingerprint
func (h *Handler) GetAsset(w http.ResponseWriter, r *http.Request) {
	key := assetKey(r)
	col, err := h.Catalog.Collection(key.Collection)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	holder, err := col.OwnerOf(r.Context(), key.AssetID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	resp := assetResponse{
		Key:       key,
		Holder:    holder,
		InCustody: holder == h.Exchange.Address(),
	}
	if u, ok := col.(uriReader); ok {
		if resp.TokenURI, err = u.TokenURI(r.Context(), key.AssetID); err != nil {
			h.writeDomainError(w, err)
			return
		}
	}
	if _, ok := col.(asset.Fingerprinter); ok {
		if md, ok := col.(metadataReader); ok {
			metadata, err := md.Metadata(r.Context(), key.AssetID)
			if err != nil {
				h.writeDomainError(w, err)
				return
			}
			fp := asset.Fingerprint(metadata)
			resp.Fingerprint = &fp
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetAssetEvents lists the committed events of one asset, oldest first
func (h *Handler) GetAssetEvents(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid limit")
			return
		}
		limit = n
	}

	list, err := h.History.ListEvents(r.Context(), assetKey(r), limit)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if list == nil {
		list = []events.Event{}
	}
	writeJSON(w, http.StatusOK, list)
}

type metadataWriter interface {
	UpdateMetadata(ctx context.Context, caller models.Address, assetID string, metadata []byte) error
}

type mintAssetRequest struct {
	Metadata string `json:"metadata"`
}

// MintAsset creates a new asset held by the caller in a collection that supports minting
func (h *Handler) MintAsset(w http.ResponseWriter, r *http.Request) {
	addr, ok := caller(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
		return
	}
	var req mintAssetRequest
	if !decode(w, r, &req) {
		return
	}

	collection := chi.URLParam(r, "collection")
	col, err := h.Catalog.Collection(collection)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	minter, ok := col.(asset.Minter)
	if !ok {
		h.writeDomainError(w, exchange.ErrMintUnsupported)
		return
	}
	id, err := minter.Mint(r.Context(), addr, addr, []byte(req.Metadata))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.Key{Collection: collection, AssetID: id})
}

// UpdateMetadata replaces the metadata of an asset the caller created
func (h *Handler) UpdateMetadata(w http.ResponseWriter, r *http.Request) {
	addr, ok := caller(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
		return
	}
	var req mintAssetRequest
	if !decode(w, r, &req) {
		return
	}

	key := assetKey(r)
	col, err := h.Catalog.Collection(key.Collection)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	mw, ok := col.(metadataWriter)
	if !ok {
		writeError(w, http.StatusBadRequest, codeMintUnsupported, "collection has no mutable metadata")
		return
	}
	if err := mw.UpdateMetadata(r.Context(), addr, key.AssetID, []byte(req.Metadata)); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "metadata updated"})
}

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/xtrntr/marketplace/internal/asset"
	"github.com/xtrntr/marketplace/internal/auth"
	"github.com/xtrntr/marketplace/internal/cache"
	"github.com/xtrntr/marketplace/internal/events"
	"github.com/xtrntr/marketplace/internal/exchange"
	"github.com/xtrntr/marketplace/internal/models"
	"github.com/xtrntr/marketplace/internal/token"
)

// EventHistory lists the committed events of one asset.
type EventHistory interface {
	ListEvents(ctx context.Context, key models.Key, limit int) ([]events.Event, error)
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	Exchange    *exchange.Exchange
	AuthService *auth.AuthService
	Catalog     *asset.Catalog
	Bank        *token.Bank
	Listings    cache.Listings
	History     EventHistory
	Logger      zerolog.Logger
}

// NewHandler creates a new handler
func NewHandler(ex *exchange.Exchange, authService *auth.AuthService, catalog *asset.Catalog, bank *token.Bank,
	listings cache.Listings, history EventHistory, logger zerolog.Logger) *Handler {
	return &Handler{
		Exchange:    ex,
		AuthService: authService,
		Catalog:     catalog,
		Bank:        bank,
		Listings:    listings,
		History:     history,
		Logger:      logger.With().Str("module", "api").Logger(),
	}
}

// Mount registers every marketplace route on r.
func (h *Handler) Mount(r chi.Router) {
	// Public endpoints
	r.Post("/auth/register", h.Register)
	r.Post("/auth/login", h.Login)
	r.Get("/orderbook", h.GetOrderBook)
	r.Get("/settings", h.GetSettings)
	r.Get("/listings/{collection}/{assetID}", h.GetListing)
	r.Get("/assets/{collection}/{assetID}", h.GetAsset)
	r.Get("/assets/{collection}/{assetID}/events", h.GetAssetEvents)

	// Protected endpoints (require JWT)
	r.Group(func(r chi.Router) {
		r.Use(h.JWTAuthMiddleware)

		r.Post("/orders", h.CreateOrder)
		r.Post("/orders/mint", h.MintAndCreateOrder)
		r.Put("/orders/{collection}/{assetID}", h.UpdateOrder)
		r.Delete("/orders/{collection}/{assetID}", h.CancelOrder)
		r.Post("/orders/{collection}/{assetID}/execute", h.ExecuteOrder)

		r.Post("/bids/{collection}/{assetID}", h.PlaceBid)
		r.Delete("/bids/{collection}/{assetID}", h.CancelBid)
		r.Post("/bids/{collection}/{assetID}/accept", h.AcceptBid)

		r.Post("/assets/{collection}", h.MintAsset)
		r.Put("/assets/{collection}/{assetID}/metadata", h.UpdateMetadata)

		r.Get("/wallet", h.GetWallet)
		r.Post("/wallet/approve", h.Approve)

		r.Put("/admin/fee", h.SetFee)
		r.Put("/admin/fee-collector", h.SetFeeCollector)
		r.Put("/admin/base-uri", h.SetBaseURI)
		r.Post("/admin/faucet", h.Faucet)
	})
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, codeMissingRequiredField, "username and password required")
		return
	}

	user, err := h.AuthService.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		h.Logger.Info().Err(err).Str("username", req.Username).Msg("registration failed")
		writeError(w, http.StatusBadRequest, codeRegistrationFailed, "failed to register user")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":       user.ID,
		"username": user.Username,
		"address":  user.Address,
	})
}

// Login handles user login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}

	token, err := h.AuthService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, codeInvalidCredentials, "invalid credentials")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

type identityKey struct{}

// JWTAuthMiddleware verifies JWT tokens
func (h *Handler) JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.Header.Get("Authorization")
		if tokenString == "" {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "authorization header required")
			return
		}
		tokenString = strings.TrimPrefix(tokenString, "Bearer ")

		id, err := h.AuthService.GetUserFromToken(tokenString)
		if err != nil {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), identityKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// caller returns the address of the authenticated user.
func caller(r *http.Request) (models.Address, bool) {
	id, ok := r.Context().Value(identityKey{}).(auth.Identity)
	return id.Address, ok && id.Address != ""
}

// assetKey reads the asset key from the route.
func assetKey(r *http.Request) models.Key {
	return models.Key{
		Collection: chi.URLParam(r, "collection"),
		AssetID:    chi.URLParam(r, "assetID"),
	}
}

// decode reads a JSON body into v, writing the error response when it fails.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return false
	}
	return true
}

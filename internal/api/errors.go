package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/xtrntr/marketplace/internal/asset"
	"github.com/xtrntr/marketplace/internal/exchange"
	"github.com/xtrntr/marketplace/internal/token"
)

const (
	codeInvalidRequestBody   = "invalid_request_body"
	codeMissingRequiredField = "missing_required_field"
	codeUnauthorized         = "unauthorized"
	codeInvalidCredentials   = "invalid_credentials"
	codeRegistrationFailed   = "registration_failed"
	codeForbidden            = "forbidden"
	codeNotFound             = "not_found"
	codeOrderExpired         = "order_expired"
	codeBidExpired           = "bid_expired"
	codeInvalidPrice         = "invalid_price"
	codeExpiryTooSoon        = "expiry_too_soon"
	codeInvalidFingerprint   = "invalid_fingerprint"
	codeBidTooLow            = "bid_too_low"
	codePriceMismatch        = "price_mismatch"
	codeInvalidFee           = "invalid_fee"
	codeInvalidAddress       = "invalid_address"
	codeInvalidAmount        = "invalid_amount"
	codeMintUnsupported      = "mint_unsupported"
	codeInsufficientBalance  = "insufficient_balance"
	codeInsufficientAllow    = "insufficient_allowance"
	codeAssetNotHeld         = "asset_not_held"
	codeInvalidRecipient     = "invalid_recipient"
	codeInternalError        = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

var errorMapping = []struct {
	err    error
	status int
	code   string
}{
	{exchange.ErrNotAssetOwner, http.StatusForbidden, codeForbidden},
	{exchange.ErrNotSeller, http.StatusForbidden, codeForbidden},
	{exchange.ErrSellerCannotBuy, http.StatusForbidden, codeForbidden},
	{exchange.ErrNotBidder, http.StatusForbidden, codeForbidden},
	{exchange.ErrNotAdmin, http.StatusForbidden, codeForbidden},
	{exchange.ErrOrderNotPublished, http.StatusNotFound, codeNotFound},
	{exchange.ErrBidNotFound, http.StatusNotFound, codeNotFound},
	{asset.ErrUnknownCollection, http.StatusNotFound, codeNotFound},
	{asset.ErrUnknownAsset, http.StatusNotFound, codeNotFound},
	{asset.ErrNotCreator, http.StatusForbidden, codeForbidden},
	{asset.ErrNotHolder, http.StatusConflict, codeAssetNotHeld},
	{asset.ErrInvalidRecipient, http.StatusBadRequest, codeInvalidRecipient},
	{exchange.ErrOrderExpired, http.StatusConflict, codeOrderExpired},
	{exchange.ErrBidExpired, http.StatusConflict, codeBidExpired},
	{exchange.ErrInvalidFingerprint, http.StatusConflict, codeInvalidFingerprint},
	{exchange.ErrBidTooLow, http.StatusConflict, codeBidTooLow},
	{exchange.ErrPriceMismatch, http.StatusConflict, codePriceMismatch},
	{exchange.ErrInvalidPrice, http.StatusBadRequest, codeInvalidPrice},
	{exchange.ErrExpiryTooSoon, http.StatusBadRequest, codeExpiryTooSoon},
	{exchange.ErrInvalidFee, http.StatusBadRequest, codeInvalidFee},
	{exchange.ErrInvalidAddress, http.StatusBadRequest, codeInvalidAddress},
	{exchange.ErrMintUnsupported, http.StatusBadRequest, codeMintUnsupported},
	{token.ErrInvalidAmount, http.StatusBadRequest, codeInvalidAmount},
	{token.ErrInvalidRecipient, http.StatusBadRequest, codeInvalidAddress},
	{token.ErrOverflow, http.StatusBadRequest, codeInvalidAmount},
	{token.ErrInsufficientBalance, http.StatusConflict, codeInsufficientBalance},
	{token.ErrInsufficientAllowance, http.StatusConflict, codeInsufficientAllow},
}

// writeDomainError maps marketplace errors to their status and code. Anything unknown is a 500.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			writeError(w, m.status, m.code, m.err.Error())
			return
		}
	}
	h.Logger.Error().Err(err).Msg("unhandled error")
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

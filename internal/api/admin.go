package api

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/xtrntr/marketplace/internal/exchange"
	"github.com/xtrntr/marketplace/internal/models"
)

// GetSettings returns the administrative settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Exchange.Settings())
}

type feeRequest struct {
	BasisPoints int64 `json:"basis_points"`
}

func (h *Handler) SetFee(w http.ResponseWriter, r *http.Request) {
	addr, ok := caller(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
		return
	}
	var req feeRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.Exchange.SetFeeBasisPoints(r.Context(), addr, req.BasisPoints); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Exchange.Settings())
}

type feeCollectorRequest struct {
	Address models.Address `json:"address"`
}

func (h *Handler) SetFeeCollector(w http.ResponseWriter, r *http.Request) {
	addr, ok := caller(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
		return
	}
	var req feeCollectorRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.Exchange.SetFeeCollector(r.Context(), addr, req.Address); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Exchange.Settings())
}

type baseURIRequest struct {
	URI string `json:"uri"`
}

func (h *Handler) SetBaseURI(w http.ResponseWriter, r *http.Request) {
	addr, ok := caller(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
		return
	}
	var req baseURIRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.Exchange.SetBaseURI(r.Context(), addr, req.URI); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Exchange.Settings())
}

type faucetRequest struct {
	Address models.Address  `json:"address"`
	Amount  decimal.Decimal `json:"amount"`
}

// Faucet credits settlement tokens to an address. Only the admin may call it.
func (h *Handler) Faucet(w http.ResponseWriter, r *http.Request) {
	addr, ok := caller(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
		return
	}
	var req faucetRequest
	if !decode(w, r, &req) {
		return
	}
	if admin := h.Exchange.Settings().Admin; admin == "" || addr != admin {
		h.writeDomainError(w, exchange.ErrNotAdmin)
		return
	}
	if err := h.Bank.Mint(r.Context(), req.Address, req.Amount); err != nil {
		h.writeDomainError(w, err)
		return
	}
	balance, _ := h.Bank.BalanceOf(r.Context(), req.Address)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"address": req.Address,
		"balance": balance,
	})
}

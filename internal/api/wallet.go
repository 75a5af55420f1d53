package api

import (
	"net/http"

	"github.com/shopspring/decimal"
)

// GetWallet returns the caller's token balance and the allowance granted to the marketplace
func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	addr, ok := caller(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
		return
	}

	balance, err := h.Bank.BalanceOf(r.Context(), addr)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	allowance, err := h.Bank.Allowance(r.Context(), addr, h.Exchange.Address())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"address":   addr,
		"balance":   balance,
		"allowance": allowance,
	})
}

type approveRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// Approve sets how much the marketplace may escrow from the caller
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	addr, ok := caller(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
		return
	}
	var req approveRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.Bank.Approve(r.Context(), addr, h.Exchange.Address(), req.Amount); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"spender":   h.Exchange.Address(),
		"allowance": req.Amount,
	})
}

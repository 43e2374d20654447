package handlers

import (
	"encoding/json"
	"net/http"
)

type voucherRedeemRequest struct {
	Code string `json:"code"`
}

// VouchersRedeem exchanges a voucher code for credits. Failed attempts count
// toward a per-user lockout window.
func (a *App) VouchersRedeem(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req voucherRedeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	credits, err := a.Vouchers.Redeem(r.Context(), userID, req.Code)
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"credits": credits})
}

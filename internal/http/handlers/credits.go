package handlers

import (
	"net/http"
	"strconv"
	"time"

	"genstudio/internal/adapter/repo"
)

// CreditsBalance returns the caller's balance, creating the account row on
// first sight so new users always read zero instead of a missing row.
func (a *App) CreditsBalance(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	if err := a.Credits.EnsureAccount(r.Context(), userID); err != nil {
		a.domainError(w, r, err)
		return
	}
	balance, err := a.Credits.Balance(r.Context(), userID)
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"balance": balance})
}

type transactionItem struct {
	ID          string  `json:"id"`
	Amount      float64 `json:"amount"`
	Type        string  `json:"type"`
	Description string  `json:"description,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

// CreditsTransactions lists the caller's ledger, newest first.
func (a *App) CreditsTransactions(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	q := r.URL.Query()
	limit, _ := strconv.ParseUint(q.Get("limit"), 10, 32)
	offset, _ := strconv.ParseUint(q.Get("offset"), 10, 32)
	items, err := a.Credits.ListTransactions(r.Context(), userID, repo.TransactionFilter{
		Type:   q.Get("type"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	out := make([]transactionItem, 0, len(items))
	for _, t := range items {
		out = append(out, transactionItem{
			ID:          t.ID,
			Amount:      t.Amount,
			Type:        t.Type,
			Description: t.Description,
			CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	a.json(w, http.StatusOK, map[string]any{"transactions": out})
}

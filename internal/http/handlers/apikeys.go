package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"genstudio/internal/domain"
)

type apiKeyItem struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Provider  string  `json:"provider"`
	Secret    string  `json:"secret"`
	Credits   float64 `json:"credits"`
	IsActive  bool    `json:"is_active"`
	CreatedAt string  `json:"created_at"`
}

// maskSecret keeps only a recognizable tail so admins can tell keys apart.
func maskSecret(secret string) string {
	if len(secret) <= 6 {
		return "******"
	}
	return "******" + secret[len(secret)-6:]
}

// AdminAPIKeysList lists provider credentials with masked secrets.
func (a *App) AdminAPIKeysList(w http.ResponseWriter, r *http.Request) {
	keys, err := a.Keys.List(r.Context())
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	out := make([]apiKeyItem, 0, len(keys))
	for _, key := range keys {
		out = append(out, apiKeyItem{
			ID:        key.ID,
			Name:      key.Name,
			Provider:  key.Provider,
			Secret:    maskSecret(key.Secret),
			Credits:   key.Credits,
			IsActive:  key.IsActive,
			CreatedAt: key.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	a.json(w, http.StatusOK, map[string]any{"api_keys": out})
}

type apiKeyCreateRequest struct {
	Name     string  `json:"name"`
	Provider string  `json:"provider"`
	Secret   string  `json:"secret"`
	Credits  float64 `json:"credits"`
	IsActive *bool   `json:"is_active"`
}

// AdminAPIKeysCreate registers a new provider credential.
func (a *App) AdminAPIKeysCreate(w http.ResponseWriter, r *http.Request) {
	var req apiKeyCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	req.Provider = strings.TrimSpace(req.Provider)
	if req.Provider != domain.Server1.Provider() && req.Provider != domain.Server2.Provider() {
		a.error(w, http.StatusBadRequest, "bad_request", "unknown provider")
		return
	}
	if strings.TrimSpace(req.Secret) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "secret is required")
		return
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	id, err := a.Keys.Create(r.Context(), &domain.APIKey{
		Name:     req.Name,
		Provider: req.Provider,
		Secret:   req.Secret,
		Credits:  req.Credits,
		IsActive: active,
	})
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, map[string]string{"id": id})
}

type apiKeyUpdateRequest struct {
	Name     string  `json:"name"`
	Credits  float64 `json:"credits"`
	IsActive bool    `json:"is_active"`
}

// AdminAPIKeysUpdate adjusts a credential's name, budget or active flag. The
// secret itself is immutable; rotate by creating a new key.
func (a *App) AdminAPIKeysUpdate(w http.ResponseWriter, r *http.Request) {
	var req apiKeyUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	err := a.Keys.Update(r.Context(), &domain.APIKey{
		ID:       chi.URLParam(r, "id"),
		Name:     req.Name,
		Credits:  req.Credits,
		IsActive: req.IsActive,
	})
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]string{"status": "updated"})
}

// AdminAPIKeysDelete removes a credential.
func (a *App) AdminAPIKeysDelete(w http.ResponseWriter, r *http.Request) {
	if err := a.Keys.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.domainError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]string{"status": "deleted"})
}

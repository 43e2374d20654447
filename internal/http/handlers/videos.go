package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"genstudio/internal/domain"
	"genstudio/internal/generation"
)

type videoGenerateRequest struct {
	ModelID         string   `json:"model_id"`
	Prompt          string   `json:"prompt"`
	NegativePrompt  string   `json:"negative_prompt"`
	AspectRatio     string   `json:"aspect_ratio"`
	Resolution      string   `json:"resolution"`
	DurationSeconds int      `json:"duration_seconds"`
	AudioEnabled    bool     `json:"audio_enabled"`
	Images          []string `json:"images"`
	ExistingJobID   string   `json:"existing_job_id"`
	Cost            float64  `json:"cost"`
}

// VideosGenerate queues a video job and responds 202. Clients poll the
// status endpoint; a worker process drives the provider side.
func (a *App) VideosGenerate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req videoGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	outcome, err := a.Generator.SubmitVideo(r.Context(), userID, generation.VideoRequest{
		ModelID:         req.ModelID,
		Prompt:          req.Prompt,
		NegativePrompt:  req.NegativePrompt,
		AspectRatio:     req.AspectRatio,
		Resolution:      req.Resolution,
		DurationSeconds: req.DurationSeconds,
		AudioEnabled:    req.AudioEnabled,
		Images:          req.Images,
		ExistingJobID:   req.ExistingJobID,
		DeclaredCost:    req.Cost,
	})
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	status := domain.StatusPending
	if outcome.OutputURL != "" {
		status = domain.StatusCompleted
	}
	a.json(w, http.StatusAccepted, generationResponse{
		JobID:       outcome.JobID,
		Status:      string(status),
		OutputURL:   outcome.OutputURL,
		CreditsUsed: outcome.CreditsUsed,
	})
}

// VideosList returns the caller's video history, newest first.
func (a *App) VideosList(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	items, err := a.History.ListVideos(r.Context(), userID, historyFilterFromQuery(r))
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	out := make([]historyItem, 0, len(items))
	for _, gen := range items {
		out = append(out, toHistoryItem(gen))
	}
	a.json(w, http.StatusOK, map[string]any{"generations": out})
}

// VideoStatus returns a single video job owned by the caller.
func (a *App) VideoStatus(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	gen, err := a.History.VideoByID(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toHistoryItem(*gen))
}

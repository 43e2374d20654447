package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"genstudio/internal/adapter/repo"
	"genstudio/internal/domain"
	"genstudio/internal/generation"
)

type imageGenerateRequest struct {
	ModelID       string   `json:"model_id"`
	Prompt        string   `json:"prompt"`
	AspectRatio   string   `json:"aspect_ratio"`
	Resolution    string   `json:"resolution"`
	OutputFormat  string   `json:"output_format"`
	Images        []string `json:"images"`
	ExistingJobID string   `json:"existing_job_id"`
	Cost          float64  `json:"cost"`
}

type generationResponse struct {
	JobID       string  `json:"job_id"`
	Status      string  `json:"status"`
	OutputURL   string  `json:"output_url,omitempty"`
	CreditsUsed float64 `json:"credits_used"`
}

// ImagesGenerate runs an image job synchronously and returns the output URL.
func (a *App) ImagesGenerate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req imageGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	outcome, err := a.Generator.GenerateImage(r.Context(), userID, generation.ImageRequest{
		ModelID:       req.ModelID,
		Prompt:        req.Prompt,
		AspectRatio:   req.AspectRatio,
		Resolution:    req.Resolution,
		OutputFormat:  req.OutputFormat,
		Images:        req.Images,
		ExistingJobID: req.ExistingJobID,
		DeclaredCost:  req.Cost,
	})
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, generationResponse{
		JobID:       outcome.JobID,
		Status:      string(domain.StatusCompleted),
		OutputURL:   outcome.OutputURL,
		CreditsUsed: outcome.CreditsUsed,
	})
}

type historyItem struct {
	ID              string  `json:"id"`
	Kind            string  `json:"kind"`
	Prompt          string  `json:"prompt"`
	NegativePrompt  string  `json:"negative_prompt,omitempty"`
	AspectRatio     string  `json:"aspect_ratio,omitempty"`
	Resolution      string  `json:"resolution,omitempty"`
	DurationSeconds int     `json:"duration_seconds,omitempty"`
	AudioEnabled    bool    `json:"audio_enabled,omitempty"`
	OutputFormat    string  `json:"output_format,omitempty"`
	ModelID         string  `json:"model_id"`
	ModelName       string  `json:"model_name"`
	Server          string  `json:"server"`
	Status          string  `json:"status"`
	OutputURL       string  `json:"output_url,omitempty"`
	ErrorMessage    string  `json:"error_message,omitempty"`
	CreditsUsed     float64 `json:"credits_used"`
	CreatedAt       string  `json:"created_at"`
}

func toHistoryItem(gen domain.Generation) historyItem {
	return historyItem{
		ID:              gen.ID,
		Kind:            string(gen.Kind),
		Prompt:          gen.Prompt,
		NegativePrompt:  gen.NegativePrompt,
		AspectRatio:     gen.AspectRatio,
		Resolution:      gen.Resolution,
		DurationSeconds: gen.DurationSeconds,
		AudioEnabled:    gen.AudioEnabled,
		OutputFormat:    gen.OutputFormat,
		ModelID:         gen.ModelID,
		ModelName:       gen.ModelName,
		Server:          string(gen.Server),
		Status:          string(gen.Status),
		OutputURL:       gen.OutputURL,
		ErrorMessage:    gen.ErrorMessage,
		CreditsUsed:     gen.CreditsUsed,
		CreatedAt:       gen.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func historyFilterFromQuery(r *http.Request) repo.HistoryFilter {
	q := r.URL.Query()
	limit, _ := strconv.ParseUint(q.Get("limit"), 10, 32)
	offset, _ := strconv.ParseUint(q.Get("offset"), 10, 32)
	return repo.HistoryFilter{
		Status:  q.Get("status"),
		ModelID: q.Get("model_id"),
		Limit:   limit,
		Offset:  offset,
	}
}

// ImagesList returns the caller's image history, newest first.
func (a *App) ImagesList(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	items, err := a.History.ListImages(r.Context(), userID, historyFilterFromQuery(r))
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

// ImageStatus returns a single image job owned by the caller.
func (a *App) ImageStatus(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	gen, err := a.History.ImageByID(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toHistoryItem(*gen))
}

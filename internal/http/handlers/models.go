package handlers

import (
	"net/http"

	"genstudio/internal/domain"
)

// ModelsImages lists the image catalog: both servers, options and pricing.
func (a *App) ModelsImages(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"models": domain.ImageModels})
}

// ModelsVideos lists the video catalog.
func (a *App) ModelsVideos(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"models": domain.VideoModels})
}

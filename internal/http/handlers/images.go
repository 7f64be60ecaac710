package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"articlegen/internal/domain/jsoncfg"
)

const placeholderImageBase = "https://placehold.co"

type imageResponse struct {
	ImageID string `json:"imageId"`
	URL     string `json:"url"`
}

// placeholderSize returns the canvas for an aspect ratio. Unknown ratios get
// the wide layout.
func placeholderSize(aspectRatio string) (int, int) {
	width, height := 1200, 675
	if aspectRatio == "1:1" {
		width = 1024
	}
	if aspectRatio == "4:3" {
		height = 900
	}
	return width, height
}

// ImagesGenerate answers with a placeholder image; no provider is called.
func (a *App) ImagesGenerate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req jsoncfg.ImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if err := req.Validate(); err != nil {
		a.error(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	width, height := placeholderSize(req.AspectRatio)
	a.json(w, http.StatusOK, imageResponse{
		ImageID: a.newID(),
		URL:     fmt.Sprintf("%s/%dx%d/png?text=Generated+Image", placeholderImageBase, width, height),
	})
}

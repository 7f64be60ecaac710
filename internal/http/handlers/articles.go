package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"articlegen/internal/article"
	"articlegen/internal/domain"
	"articlegen/internal/domain/jsoncfg"
	"articlegen/internal/middleware"
)

const (
	maxListLimit = 100
	// Reference images travel inline as data URLs.
	maxCreateBodyBytes = 16 << 20
)

type articleDTO struct {
	ID            string               `json:"id"`
	Status        domain.ArticleStatus `json:"status"`
	Title         *string              `json:"title"`
	BodyMarkdown  *string              `json:"bodyMarkdown"`
	CoverImageURL *string              `json:"coverImageUrl"`
	ErrorMessage  *string              `json:"errorMessage"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

type articleSummaryDTO struct {
	ID        string               `json:"id"`
	Title     *string              `json:"title"`
	Status    domain.ArticleStatus `json:"status"`
	CreatedAt time.Time            `json:"createdAt"`
}

type articleStatusResponse struct {
	Article  articleDTO           `json:"article"`
	Progress article.ProgressView `json:"progress"`
	Stale    bool                 `json:"stale,omitempty"`
}

func toArticleDTO(a domain.Article) articleDTO {
	return articleDTO{
		ID:            a.ID,
		Status:        a.Status,
		Title:         a.Title,
		BodyMarkdown:  a.BodyMarkdown,
		CoverImageURL: a.CoverImageURL,
		ErrorMessage:  a.ErrorMessage,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func (a *App) ArticlesQuota(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	snap, err := a.Articles.Quota(r.Context(), userID)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"quota": snap})
}

func (a *App) ArticlesList(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	limit := maxListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			a.error(w, http.StatusBadRequest, "bad_request", "limit must be a positive number")
			return
		}
		limit = min(n, maxListLimit)
	}
	items, err := a.Articles.List(r.Context(), userID, limit)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	out := make([]articleSummaryDTO, 0, len(items))
	for _, it := range items {
		out = append(out, articleSummaryDTO{ID: it.ID, Title: it.Title, Status: it.Status, CreatedAt: it.CreatedAt})
	}
	a.json(w, http.StatusOK, map[string]any{"articles": out})
}

func (a *App) ArticlesCreate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxCreateBodyBytes))
	if err != nil {
		a.error(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large")
		return
	}
	var req jsoncfg.ArticleRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	// The locale default reaches the provider only; the stored snapshot keeps
	// the body as sent.
	if strings.TrimSpace(req.Article.Language) == "" {
		req.Article.Language = middleware.LocaleFromContext(r.Context())
	}
	id, err := a.Articles.Create(r.Context(), userID, req, raw)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, map[string]string{"articleId": id})
}

func (a *App) ArticleStatus(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	id := chi.URLParam(r, "id")
	if id == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "id required")
		return
	}
	force := isTruthy(r.URL.Query().Get("refresh"))
	res, err := a.Articles.Status(r.Context(), userID, id, force)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, articleStatusResponse{
		Article:  toArticleDTO(res.Article),
		Progress: res.Progress,
		Stale:    res.Stale,
	})
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

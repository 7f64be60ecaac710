package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"articlegen/internal/article"
	"articlegen/internal/domain"
	"articlegen/internal/domain/jsoncfg"
	"articlegen/internal/infra"
	"articlegen/internal/middleware"
)

// ArticleService is the part of article.Service the handlers call.
type ArticleService interface {
	Quota(ctx context.Context, userID string) (domain.QuotaSnapshot, error)
	Create(ctx context.Context, userID string, req jsoncfg.ArticleRequest, raw json.RawMessage) (string, error)
	Status(ctx context.Context, userID, articleID string, forceRefresh bool) (article.StatusResult, error)
	List(ctx context.Context, userID string, limit int) ([]domain.Article, error)
}

type App struct {
	Articles ArticleService
	Logger   infra.Logger
	Clock    func() time.Time
	NewID    func() string
	// Ready, when set, is probed by Health.
	Ready func(ctx context.Context) error
}

func NewApp(articles ArticleService, logger infra.Logger) *App {
	return &App{Articles: articles, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]errorBody{"error": {Code: code, Message: message}})
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

func (a *App) now() time.Time {
	if a.Clock != nil {
		return a.Clock()
	}
	return time.Now()
}

func (a *App) newID() string {
	if a.NewID != nil {
		return a.NewID()
	}
	return uuid.NewString()
}

// writeServiceError maps lifecycle errors onto HTTP responses.
func (a *App) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var quotaErr *domain.QuotaExceededError
	switch {
	case errors.As(err, &quotaErr):
		if quotaErr.Snapshot.NextRefillAt != nil {
			wait := quotaErr.Snapshot.NextRefillAt.Sub(a.now())
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Max(1, math.Ceil(wait.Seconds())))))
		}
		a.json(w, http.StatusTooManyRequests, map[string]any{
			"error": errorBody{Code: "quota_exceeded", Message: "article generation quota exhausted"},
			"quota": quotaErr.Snapshot,
		})
	case errors.Is(err, domain.ErrValidation):
		msg := strings.TrimPrefix(err.Error(), domain.ErrValidation.Error()+": ")
		a.error(w, http.StatusBadRequest, "validation_failed", msg)
	case errors.Is(err, domain.ErrUnauthorized):
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "article not found")
	case errors.Is(err, domain.ErrQuotaUnavailable):
		a.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("quota unavailable")
		a.error(w, http.StatusServiceUnavailable, "quota_unavailable", "quota could not be verified")
	case errors.Is(err, domain.ErrDispatchFailed):
		a.error(w, http.StatusBadGateway, "dispatch_failed", "generation provider rejected the request")
	default:
		a.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

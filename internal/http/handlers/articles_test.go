package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"articlegen/internal/article"
	"articlegen/internal/domain"
	"articlegen/internal/domain/jsoncfg"
	"articlegen/internal/middleware"
)

var handlerNow = time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)

type stubArticles struct {
	quota    domain.QuotaSnapshot
	quotaErr error

	createID  string
	createErr error
	created   []jsoncfg.ArticleRequest
	raw       []json.RawMessage

	status      article.StatusResult
	statusErr   error
	lastForce   bool
	lastID      string
	lastUserID  string
	list        []domain.Article
	listErr     error
	lastLimit   int
	createCalls int
}

func (s *stubArticles) Quota(ctx context.Context, userID string) (domain.QuotaSnapshot, error) {
	s.lastUserID = userID
	return s.quota, s.quotaErr
}

func (s *stubArticles) Create(ctx context.Context, userID string, req jsoncfg.ArticleRequest, raw json.RawMessage) (string, error) {
	s.createCalls++
	s.lastUserID = userID
	s.created = append(s.created, req)
	s.raw = append(s.raw, raw)
	return s.createID, s.createErr
}

func (s *stubArticles) Status(ctx context.Context, userID, articleID string, forceRefresh bool) (article.StatusResult, error) {
	s.lastUserID = userID
	s.lastID = articleID
	s.lastForce = forceRefresh
	return s.status, s.statusErr
}

func (s *stubArticles) List(ctx context.Context, userID string, limit int) ([]domain.Article, error) {
	s.lastUserID = userID
	s.lastLimit = limit
	return s.list, s.listErr
}

func newTestApp(svc ArticleService) *App {
	return &App{
		Articles: svc,
		Logger:   zerolog.Nop(),
		Clock:    func() time.Time { return handlerNow },
		NewID:    func() string { return "img-1" },
	}
}

func authed(req *http.Request, userID string) *http.Request {
	return req.WithContext(middleware.ContextWithUserID(req.Context(), userID))
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var payload struct {
		Error errorBody `json:"error"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return payload.Error
}

const validArticlePayload = `{
	"article":{"language":"en","tone":"friendly","targetAudience":"shop owners"},
	"prompt":{"description":"Pricing handmade soap"},
	"references":{"texts":[],"images":[]},
	"imageGeneration":{"enabled":false}
}`

func TestArticlesCreate_ReturnsCreatedID(t *testing.T) {
	svc := &stubArticles{createID: "article-1"}
	app := newTestApp(svc)

	req := authed(httptest.NewRequest(http.MethodPost, "/v1/articles", strings.NewReader(validArticlePayload)), "user-1")
	rr := httptest.NewRecorder()
	app.ArticlesCreate(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body=%s", rr.Code, rr.Body.String())
	}
	var payload map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["articleId"] != "article-1" {
		t.Fatalf("articleId = %q, want article-1", payload["articleId"])
	}
	if svc.lastUserID != "user-1" {
		t.Fatalf("service saw user %q", svc.lastUserID)
	}
}

func TestArticlesCreate_RequiresUser(t *testing.T) {
	svc := &stubArticles{}
	app := newTestApp(svc)

	rr := httptest.NewRecorder()
	app.ArticlesCreate(rr, httptest.NewRequest(http.MethodPost, "/v1/articles", strings.NewReader(validArticlePayload)))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
	if svc.createCalls != 0 {
		t.Fatalf("service should not be called without a user")
	}
}

func TestArticlesCreate_InvalidJSON(t *testing.T) {
	svc := &stubArticles{}
	app := newTestApp(svc)

	rr := httptest.NewRecorder()
	app.ArticlesCreate(rr, authed(httptest.NewRequest(http.MethodPost, "/v1/articles", strings.NewReader("{")), "user-1"))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if got := decodeError(t, rr).Code; got != "bad_request" {
		t.Fatalf("code = %q, want bad_request", got)
	}
}

func TestArticlesCreate_FillsLanguageFromLocale(t *testing.T) {
	svc := &stubArticles{createID: "article-1"}
	app := newTestApp(svc)
	payload := strings.Replace(validArticlePayload, `"language":"en"`, `"language":""`, 1)

	handler := middleware.Locale(language.English, language.Japanese)(http.HandlerFunc(app.ArticlesCreate))
	req := authed(httptest.NewRequest(http.MethodPost, "/v1/articles", strings.NewReader(payload)), "user-1")
	req.Header.Set("Accept-Language", "ja-JP,ja;q=0.9")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rr.Code)
	}
	if len(svc.created) != 1 || svc.created[0].Article.Language != "ja" {
		t.Fatalf("language not filled from locale: %+v", svc.created)
	}
	if string(svc.raw[0]) != payload {
		t.Fatalf("raw body should keep the blank language, got %s", svc.raw[0])
	}
}

func TestArticlesCreate_PassesBodyVerbatim(t *testing.T) {
	svc := &stubArticles{createID: "article-1"}
	app := newTestApp(svc)
	body := `{"article":{"language":"ja","tone":" friendly ","targetAudience":"shop owners"},` +
		`"prompt":{"description":"  soap pricing  "},"references":{"texts":[],"images":[]},"clientVersion":"2.1"}`

	rr := httptest.NewRecorder()
	app.ArticlesCreate(rr, authed(httptest.NewRequest(http.MethodPost, "/v1/articles", strings.NewReader(body)), "user-1"))

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body=%s", rr.Code, rr.Body.String())
	}
	if len(svc.raw) != 1 || string(svc.raw[0]) != body {
		t.Fatalf("raw body = %q, want %q", svc.raw, body)
	}
	if svc.created[0].Prompt.Description != "  soap pricing  " {
		t.Fatalf("decoded request = %+v", svc.created[0])
	}
}

func TestArticlesCreate_BodyTooLarge(t *testing.T) {
	svc := &stubArticles{}
	app := newTestApp(svc)
	body := `{"prompt":{"description":"` + strings.Repeat("a", maxCreateBodyBytes) + `"}}`

	rr := httptest.NewRecorder()
	app.ArticlesCreate(rr, authed(httptest.NewRequest(http.MethodPost, "/v1/articles", strings.NewReader(body)), "user-1"))

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rr.Code)
	}
	if svc.createCalls != 0 {
		t.Fatalf("service should not be called for an oversized body")
	}
}

func TestArticlesCreate_ErrorMapping(t *testing.T) {
	refill := handlerNow.Add(90*time.Second + 200*time.Millisecond)
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"validation", domain.ValidationError("prompt.description is required"), http.StatusBadRequest, "validation_failed"},
		{"quota exceeded", &domain.QuotaExceededError{Snapshot: domain.QuotaSnapshot{Limit: 6, Used: 6, NextRefillAt: &refill, Window: 24 * time.Hour}}, http.StatusTooManyRequests, "quota_exceeded"},
		{"quota unavailable", fmt.Errorf("%w: connection refused", domain.ErrQuotaUnavailable), http.StatusServiceUnavailable, "quota_unavailable"},
		{"dispatch failed", fmt.Errorf("%w: 500", domain.ErrDispatchFailed), http.StatusBadGateway, "dispatch_failed"},
		{"unexpected", errors.New("disk full"), http.StatusInternalServerError, "internal"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp(&stubArticles{createErr: tc.err})
			rr := httptest.NewRecorder()
			app.ArticlesCreate(rr, authed(httptest.NewRequest(http.MethodPost, "/v1/articles", strings.NewReader(validArticlePayload)), "user-1"))

			if rr.Code != tc.wantCode {
				t.Fatalf("status = %d, want %d", rr.Code, tc.wantCode)
			}
			if got := decodeError(t, rr).Code; got != tc.wantErr {
				t.Fatalf("code = %q, want %q", got, tc.wantErr)
			}
		})
	}
}

func TestArticlesCreate_QuotaExceededCarriesSnapshot(t *testing.T) {
	refill := handlerNow.Add(90*time.Second + 200*time.Millisecond)
	snap := domain.QuotaSnapshot{Limit: 6, Used: 6, NextRefillAt: &refill, Window: 24 * time.Hour}
	app := newTestApp(&stubArticles{createErr: &domain.QuotaExceededError{Snapshot: snap}})

	rr := httptest.NewRecorder()
	app.ArticlesCreate(rr, authed(httptest.NewRequest(http.MethodPost, "/v1/articles", strings.NewReader(validArticlePayload)), "user-1"))

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rr.Code)
	}
	if got := rr.Header().Get("Retry-After"); got != "91" {
		t.Fatalf("Retry-After = %q, want 91", got)
	}
	var payload struct {
		Quota struct {
			Remaining    int    `json:"remaining"`
			NextRefillAt *int64 `json:"nextRefillAt"`
		} `json:"quota"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Quota.Remaining != 0 {
		t.Fatalf("remaining = %d, want 0", payload.Quota.Remaining)
	}
	if payload.Quota.NextRefillAt == nil || *payload.Quota.NextRefillAt != refill.UnixMilli() {
		t.Fatalf("nextRefillAt = %v, want %d", payload.Quota.NextRefillAt, refill.UnixMilli())
	}
}

func TestArticlesQuota(t *testing.T) {
	svc := &stubArticles{quota: domain.QuotaSnapshot{Limit: 6, Used: 1, Remaining: 5, Window: 24 * time.Hour}}
	app := newTestApp(svc)

	rr := httptest.NewRecorder()
	app.ArticlesQuota(rr, authed(httptest.NewRequest(http.MethodGet, "/v1/articles/quota", nil), "user-1"))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var payload struct {
		Quota map[string]any `json:"quota"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Quota["remaining"] != float64(5) || payload.Quota["windowMs"] != float64(86400000) {
		t.Fatalf("unexpected quota payload: %#v", payload.Quota)
	}
	if v, ok := payload.Quota["nextRefillAt"]; !ok || v != nil {
		t.Fatalf("nextRefillAt should be present and null, got %#v", v)
	}
}

func TestArticlesQuota_Unavailable(t *testing.T) {
	app := newTestApp(&stubArticles{quotaErr: fmt.Errorf("%w: timeout", domain.ErrQuotaUnavailable)})

	rr := httptest.NewRecorder()
	app.ArticlesQuota(rr, authed(httptest.NewRequest(http.MethodGet, "/v1/articles/quota", nil), "user-1"))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}
}

func TestArticleStatus_ReturnsArticleAndProgress(t *testing.T) {
	title := "Pricing soap"
	a := domain.Article{
		ID:        "article-1",
		UserID:    "user-1",
		Status:    domain.ArticleStatusCompleted,
		Title:     &title,
		CreatedAt: handlerNow,
		UpdatedAt: handlerNow,
	}
	svc := &stubArticles{status: article.StatusResult{Article: a, Progress: article.Project(a)}}
	app := newTestApp(svc)

	req := httptest.NewRequest(http.MethodGet, "/v1/articles/article-1?refresh=1", nil)
	req = withURLParam(authed(req, "user-1"), "id", "article-1")
	rr := httptest.NewRecorder()
	app.ArticleStatus(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if svc.lastID != "article-1" || !svc.lastForce {
		t.Fatalf("service called with id=%q force=%v", svc.lastID, svc.lastForce)
	}
	var payload struct {
		Article struct {
			ID     string  `json:"id"`
			Status string  `json:"status"`
			Title  *string `json:"title"`
		} `json:"article"`
		Progress struct {
			Percent int    `json:"percent"`
			Phase   string `json:"phase"`
		} `json:"progress"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Article.Status != "completed" || payload.Article.Title == nil || *payload.Article.Title != title {
		t.Fatalf("unexpected article: %+v", payload.Article)
	}
	if payload.Progress.Percent != 100 {
		t.Fatalf("percent = %d, want 100", payload.Progress.Percent)
	}
}

func TestArticleStatus_NotFound(t *testing.T) {
	svc := &stubArticles{statusErr: domain.ErrNotFound}
	app := newTestApp(svc)

	req := withURLParam(authed(httptest.NewRequest(http.MethodGet, "/v1/articles/nope", nil), "user-1"), "id", "nope")
	rr := httptest.NewRecorder()
	app.ArticleStatus(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
	if svc.lastForce {
		t.Fatalf("refresh should default to false")
	}
}

func TestArticlesList(t *testing.T) {
	title := "First"
	svc := &stubArticles{list: []domain.Article{
		{ID: "a-2", Status: domain.ArticleStatusGenerating, CreatedAt: handlerNow},
		{ID: "a-1", Status: domain.ArticleStatusCompleted, Title: &title, CreatedAt: handlerNow.Add(-time.Hour)},
	}}
	app := newTestApp(svc)

	rr := httptest.NewRecorder()
	app.ArticlesList(rr, authed(httptest.NewRequest(http.MethodGet, "/v1/articles?limit=500", nil), "user-1"))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if svc.lastLimit != maxListLimit {
		t.Fatalf("limit = %d, want clamp to %d", svc.lastLimit, maxListLimit)
	}
	var payload struct {
		Articles []map[string]any `json:"articles"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Articles) != 2 || payload.Articles[0]["id"] != "a-2" {
		t.Fatalf("unexpected articles: %#v", payload.Articles)
	}
	if _, ok := payload.Articles[0]["bodyMarkdown"]; ok {
		t.Fatalf("list entries should not carry the body")
	}
}

func TestArticlesList_BadLimit(t *testing.T) {
	app := newTestApp(&stubArticles{})

	rr := httptest.NewRecorder()
	app.ArticlesList(rr, authed(httptest.NewRequest(http.MethodGet, "/v1/articles?limit=abc", nil), "user-1"))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

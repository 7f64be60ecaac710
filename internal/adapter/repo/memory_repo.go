package repo

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"articlegen/internal/domain"
)

// MemoryArticleRepository is an in-process domain.ArticleRepository. Updates
// follow the same merge rules as the PostgreSQL implementation. It backs
// tests and local runs without a database.
type MemoryArticleRepository struct {
	mu       sync.RWMutex
	articles map[string]domain.Article
	now      func() time.Time
}

// NewMemoryArticleRepository creates an empty repository. A nil clock uses
// time.Now for update timestamps.
func NewMemoryArticleRepository(now func() time.Time) *MemoryArticleRepository {
	if now == nil {
		now = time.Now
	}
	return &MemoryArticleRepository{articles: make(map[string]domain.Article), now: now}
}

func (r *MemoryArticleRepository) Create(ctx context.Context, article *domain.Article) error {
	if article == nil {
		return errors.New("article is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.articles[article.ID]; ok {
		return fmt.Errorf("%w: article %s", domain.ErrDuplicateOperation, article.ID)
	}
	r.articles[article.ID] = cloneArticle(*article)
	return nil
}

func (r *MemoryArticleRepository) GetByID(ctx context.Context, articleID string) (*domain.Article, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.articles[articleID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := cloneArticle(a)
	return &out, nil
}

func (r *MemoryArticleRepository) Update(ctx context.Context, articleID string, update domain.ArticleUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.articles[articleID]
	if !ok {
		return domain.ErrNotFound
	}
	if a.Merge(update, r.now()) {
		r.articles[articleID] = a
	}
	return nil
}

func (r *MemoryArticleRepository) ListRecentByUser(ctx context.Context, userID string, since time.Time) ([]domain.Article, error) {
	return r.filter(func(a domain.Article) bool {
		return a.UserID == userID && !a.CreatedAt.Before(since)
	}, newestFirst, 0), nil
}

func (r *MemoryArticleRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Article, error) {
	return r.filter(func(a domain.Article) bool { return a.UserID == userID }, newestFirst, limit), nil
}

func (r *MemoryArticleRepository) ListInFlight(ctx context.Context, limit int) ([]domain.Article, error) {
	return r.filter(func(a domain.Article) bool { return !a.Status.Terminal() }, oldestFirst, limit), nil
}

func (r *MemoryArticleRepository) filter(keep func(domain.Article) bool, order func(a, b domain.Article) int, limit int) []domain.Article {
	r.mu.RLock()
	out := make([]domain.Article, 0, len(r.articles))
	for _, a := range r.articles {
		if keep(a) {
			out = append(out, cloneArticle(a))
		}
	}
	r.mu.RUnlock()

	slices.SortFunc(out, order)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func newestFirst(a, b domain.Article) int { return b.CreatedAt.Compare(a.CreatedAt) }

func oldestFirst(a, b domain.Article) int { return a.CreatedAt.Compare(b.CreatedAt) }

func cloneArticle(a domain.Article) domain.Article {
	a.Title = cloneString(a.Title)
	a.BodyMarkdown = cloneString(a.BodyMarkdown)
	a.CoverImageURL = cloneString(a.CoverImageURL)
	a.ErrorMessage = cloneString(a.ErrorMessage)
	a.InputJSON = slices.Clone(a.InputJSON)
	return a
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

var _ domain.ArticleRepository = (*MemoryArticleRepository)(nil)

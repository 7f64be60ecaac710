package domain

import (
	"context"
	"encoding/json"
	"time"
)

// ArticleRepository defines persistence for article records.
type ArticleRepository interface {
	Create(ctx context.Context, article *Article) error
	GetByID(ctx context.Context, articleID string) (*Article, error)
	// Update applies a partial update with the same rules as Article.Merge so
	// concurrent writers converge on the same terminal content.
	Update(ctx context.Context, articleID string, update ArticleUpdate) error
	// ListRecentByUser returns the user's articles created at or after since,
	// newest first.
	ListRecentByUser(ctx context.Context, userID string, since time.Time) ([]Article, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]Article, error)
	// ListInFlight returns queued or generating articles, oldest first.
	ListInFlight(ctx context.Context, limit int) ([]Article, error)
}

// Generator is the external article generation provider.
type Generator interface {
	// Dispatch submits the input and returns the provider's task handle.
	Dispatch(ctx context.Context, input json.RawMessage) (string, error)
	FetchResult(ctx context.Context, taskID string) (GenerationOutcome, error)
}

// ReconcileGate decides whether a poll may query the provider for a task.
type ReconcileGate interface {
	Allow(ctx context.Context, taskID string) (bool, error)
}

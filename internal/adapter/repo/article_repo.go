package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"articlegen/internal/domain"
	"articlegen/internal/infra"
	"articlegen/internal/sqlinline"
)

// ArticleRepositoryPG implements domain.ArticleRepository.
type ArticleRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewArticleRepository creates a new article repository backed by PostgreSQL.
func NewArticleRepository(sql infra.SQLExecutor) *ArticleRepositoryPG {
	return &ArticleRepositoryPG{sql: sql}
}

// Create inserts a new article record.
func (r *ArticleRepositoryPG) Create(ctx context.Context, article *domain.Article) error {
	if article == nil {
		return errors.New("article is required")
	}
	input := []byte(article.InputJSON)
	if len(input) == 0 {
		input = []byte("{}")
	}
	_, err := r.sql.Exec(ctx, sqlinline.QInsertArticle,
		article.ID,
		article.UserID,
		string(article.Status),
		article.TaskID,
		input,
		article.CreatedAt,
		article.UpdatedAt,
	)
	return classify(err)
}

// GetByID fetches an article by its identifier.
func (r *ArticleRepositoryPG) GetByID(ctx context.Context, articleID string) (*domain.Article, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectArticleByID, articleID)
	article, err := scanArticle(row)
	if err != nil {
		return nil, classify(err)
	}
	return &article, nil
}

// Update applies a forward-only partial update.
func (r *ArticleRepositoryPG) Update(ctx context.Context, articleID string, update domain.ArticleUpdate) error {
	var status *string
	if update.Status != nil {
		s := string(*update.Status)
		status = &s
	}
	row := r.sql.QueryRow(ctx, sqlinline.QUpdateArticle,
		articleID,
		status,
		update.Title,
		update.BodyMarkdown,
		update.CoverImageURL,
		update.ErrorMessage,
	)
	var found bool
	if err := row.Scan(&found); err != nil {
		return classify(err)
	}
	if !found {
		return domain.ErrNotFound
	}
	return nil
}

// ListRecentByUser returns the user's articles created at or after since,
// newest first.
func (r *ArticleRepositoryPG) ListRecentByUser(ctx context.Context, userID string, since time.Time) ([]domain.Article, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListRecentArticlesByUser, userID, since)
	if err != nil {
		return nil, classify(err)
	}
	return collectArticles(rows)
}

// ListByUser returns up to limit of the user's articles, newest first.
func (r *ArticleRepositoryPG) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Article, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListArticlesByUser, userID, limit)
	if err != nil {
		return nil, classify(err)
	}
	return collectArticles(rows)
}

// ListInFlight returns queued and generating articles, oldest first.
func (r *ArticleRepositoryPG) ListInFlight(ctx context.Context, limit int) ([]domain.Article, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListInFlightArticles, limit)
	if err != nil {
		return nil, classify(err)
	}
	return collectArticles(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (domain.Article, error) {
	var (
		a      domain.Article
		status string
		input  []byte
	)
	if err := row.Scan(
		&a.ID,
		&a.UserID,
		&status,
		&a.TaskID,
		&a.Title,
		&a.BodyMarkdown,
		&a.CoverImageURL,
		&a.ErrorMessage,
		&input,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return domain.Article{}, err
	}
	a.Status = domain.ArticleStatus(status)
	if !a.Status.Valid() {
		return domain.Article{}, fmt.Errorf("article %s has unknown status %q", a.ID, status)
	}
	a.InputJSON = input
	return a, nil
}

func collectArticles(rows pgx.Rows) ([]domain.Article, error) {
	defer rows.Close()
	var out []domain.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// classify maps driver errors onto domain sentinels.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if infra.IsNoRows(err) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return fmt.Errorf("%w: %s", domain.ErrDuplicateOperation, pgErr.ConstraintName)
		case pgerrcode.InvalidTextRepresentation:
			// Malformed uuid in a lookup.
			return domain.ErrNotFound
		}
	}
	return err
}

var _ domain.ArticleRepository = (*ArticleRepositoryPG)(nil)

// Package article runs the article generation lifecycle: quota-gated
// creation, dispatch to the generation provider and reconciliation of the
// provider's result into the stored record.
package article

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"articlegen/internal/domain"
	"articlegen/internal/domain/jsoncfg"
	"articlegen/internal/quota"
)

const (
	defaultDispatchTimeout  = 15 * time.Second
	defaultReconcileTimeout = 5 * time.Second
	defaultListLimit        = 100
)

// Options configures a Service.
type Options struct {
	Repo      domain.ArticleRepository
	Generator domain.Generator
	Ledger    *quota.Ledger
	// Gate throttles provider polls. Nil lets every poll through.
	Gate   domain.ReconcileGate
	Logger zerolog.Logger
	Clock  func() time.Time
	NewID  func() string

	DispatchTimeout  time.Duration
	ReconcileTimeout time.Duration
}

// Service coordinates the quota ledger, the article store and the provider.
// It keeps no per-request state.
type Service struct {
	repo      domain.ArticleRepository
	generator domain.Generator
	ledger    *quota.Ledger
	gate      domain.ReconcileGate
	logger    zerolog.Logger
	now       func() time.Time
	newID     func() string

	dispatchTimeout  time.Duration
	reconcileTimeout time.Duration
}

// StatusResult is an article together with its progress view. Stale is set
// when the provider could not be reached and the stored state was returned.
type StatusResult struct {
	Article  domain.Article
	Progress ProgressView
	Stale    bool
}

// NewService validates opts and builds a Service.
func NewService(opts Options) (*Service, error) {
	if opts.Repo == nil {
		return nil, errors.New("article repository is required")
	}
	if opts.Generator == nil {
		return nil, errors.New("generator is required")
	}
	s := &Service{
		repo:             opts.Repo,
		generator:        opts.Generator,
		ledger:           opts.Ledger,
		gate:             opts.Gate,
		logger:           opts.Logger,
		now:              opts.Clock,
		newID:            opts.NewID,
		dispatchTimeout:  opts.DispatchTimeout,
		reconcileTimeout: opts.ReconcileTimeout,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.ledger == nil {
		s.ledger = quota.NewLedger(opts.Repo, quota.WithClock(s.now))
	}
	if s.dispatchTimeout <= 0 {
		s.dispatchTimeout = defaultDispatchTimeout
	}
	if s.reconcileTimeout <= 0 {
		s.reconcileTimeout = defaultReconcileTimeout
	}
	return s, nil
}

// Quota returns the caller's current allowance.
func (s *Service) Quota(ctx context.Context, userID string) (domain.QuotaSnapshot, error) {
	return s.ledger.Compute(ctx, userID, s.now())
}

// Create validates the request, checks the quota, dispatches the job and
// records it. Nothing is persisted when dispatch fails.
//
// raw is the request exactly as the caller sent it and is stored verbatim as
// the article's input snapshot; the provider receives the normalized req.
// A nil raw snapshots req as passed in, before normalization.
//
// The quota check and the insert are not atomic: concurrent creations by the
// same user can each observe the last free slot.
func (s *Service) Create(ctx context.Context, userID string, req jsoncfg.ArticleRequest, raw json.RawMessage) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", domain.ErrUnauthorized
	}
	snapshot, err := inputSnapshot(req, raw)
	if err != nil {
		return "", err
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return "", domain.ValidationError(err.Error())
	}

	now := s.now()
	snap, err := s.ledger.Compute(ctx, userID, now)
	if err != nil {
		return "", err
	}
	if snap.Exhausted() {
		return "", &domain.QuotaExceededError{Snapshot: snap}
	}

	input, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal input: %w", err)
	}

	taskID, err := s.dispatch(ctx, input)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("article dispatch failed")
		return "", err
	}

	article := &domain.Article{
		ID:        s.newID(),
		UserID:    userID,
		Status:    domain.ArticleStatusGenerating,
		TaskID:    taskID,
		InputJSON: snapshot,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, article); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Str("task_id", taskID).Msg("persist article failed")
		return "", fmt.Errorf("create article: %w", err)
	}

	s.logger.Info().
		Str("article_id", article.ID).
		Str("user_id", userID).
		Str("task_id", taskID).
		Int("quota_remaining", snap.Remaining-1).
		Msg("article dispatched")
	return article.ID, nil
}

func inputSnapshot(req jsoncfg.ArticleRequest, raw json.RawMessage) (json.RawMessage, error) {
	if raw == nil {
		b, err := json.Marshal(req)
		if err != nil {
			return nil, fmt.Errorf("marshal input snapshot: %w", err)
		}
		return b, nil
	}
	if !json.Valid(raw) {
		return nil, domain.ValidationError("request body is not valid JSON")
	}
	return slices.Clone(raw), nil
}

func (s *Service) dispatch(ctx context.Context, input json.RawMessage) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.dispatchTimeout)
	defer cancel()

	taskID, err := s.generator.Dispatch(ctx, input)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrDispatchFailed, err)
	}
	if strings.TrimSpace(taskID) == "" {
		return "", fmt.Errorf("%w: provider returned no task id", domain.ErrDispatchFailed)
	}
	return taskID, nil
}

// Status returns the caller's article and its progress. Non-terminal
// articles are reconciled with the provider first; forceRefresh also
// reconciles completed articles so missing outputs can be repaired. Provider
// failures are not surfaced: the stored state is returned with Stale set.
func (s *Service) Status(ctx context.Context, userID, articleID string, forceRefresh bool) (StatusResult, error) {
	a, err := s.load(ctx, userID, articleID)
	if err != nil {
		return StatusResult{}, err
	}

	if !s.shouldReconcile(ctx, *a, forceRefresh) {
		return StatusResult{Article: *a, Progress: Project(*a)}, nil
	}

	updated, err := s.Reconcile(ctx, *a)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("article_id", a.ID).
			Str("task_id", a.TaskID).
			Msg("reconcile failed; serving stored state")
		return StatusResult{Article: *a, Progress: Project(*a), Stale: true}, nil
	}
	return StatusResult{Article: updated, Progress: Project(updated)}, nil
}

func (s *Service) shouldReconcile(ctx context.Context, a domain.Article, force bool) bool {
	switch a.Status {
	case domain.ArticleStatusError:
		return false
	case domain.ArticleStatusCompleted:
		return force && a.NeedsRepair()
	}
	if force || s.gate == nil {
		return true
	}
	allowed, err := s.gate.Allow(ctx, a.TaskID)
	if err != nil {
		s.logger.Warn().Err(err).Str("task_id", a.TaskID).Msg("reconcile gate unavailable")
		return true
	}
	return allowed
}

// Reconcile asks the provider for the article's task and persists whatever
// the outcome changes. The returned article reflects the store after the
// write, so concurrent reconcilers observe the same terminal content.
func (s *Service) Reconcile(ctx context.Context, a domain.Article) (domain.Article, error) {
	if a.Status == domain.ArticleStatusError {
		return a, nil
	}
	if strings.TrimSpace(a.TaskID) == "" {
		return a, fmt.Errorf("%w: article %s has no task id", domain.ErrReconcileUnavailable, a.ID)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.reconcileTimeout)
	outcome, err := s.generator.FetchResult(fetchCtx, a.TaskID)
	cancel()
	if err != nil {
		return a, fmt.Errorf("%w: %v", domain.ErrReconcileUnavailable, err)
	}

	merged := a
	update, changed := merged.Apply(outcome, s.now())
	if !changed {
		return a, nil
	}
	if err := s.repo.Update(ctx, a.ID, update); err != nil {
		return a, fmt.Errorf("update article: %w", err)
	}

	s.logger.Info().
		Str("article_id", a.ID).
		Str("task_id", a.TaskID).
		Str("from", string(a.Status)).
		Str("to", string(merged.Status)).
		Msg("article reconciled")

	stored, err := s.repo.GetByID(ctx, a.ID)
	if err != nil {
		s.logger.Warn().Err(err).Str("article_id", a.ID).Msg("reload after reconcile failed")
		return merged, nil
	}
	return *stored, nil
}

// List returns the caller's articles, newest first.
func (s *Service) List(ctx context.Context, userID string, limit int) ([]domain.Article, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.ErrUnauthorized
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	items, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return items, nil
}

// load fetches an article and hides other users' articles behind
// domain.ErrNotFound.
func (s *Service) load(ctx context.Context, userID, articleID string) (*domain.Article, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.ErrUnauthorized
	}
	if strings.TrimSpace(articleID) == "" {
		return nil, domain.ErrNotFound
	}
	a, err := s.repo.GetByID(ctx, articleID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get article: %w", err)
	}
	if a.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

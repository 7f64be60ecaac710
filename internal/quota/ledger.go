// Package quota computes per-user sliding-window allowances for article
// generation. Each job's slot is held for exactly one window after its
// creation; there is no counter and no calendar reset.
package quota

import (
	"context"
	"fmt"
	"strings"
	"time"

	"articlegen/internal/domain"
)

const (
	// DefaultLimit is the number of jobs a user may start per window.
	DefaultLimit = 6
	// DefaultWindow is the trailing window length.
	DefaultWindow = 24 * time.Hour
)

// RecentLister is the part of the article store the ledger reads.
type RecentLister interface {
	ListRecentByUser(ctx context.Context, userID string, since time.Time) ([]domain.Article, error)
}

// Ledger derives quota snapshots from article creation times. It owns no
// state besides its configuration.
type Ledger struct {
	store  RecentLister
	limit  int
	window time.Duration
	now    func() time.Time
}

// Option customizes a Ledger.
type Option func(*Ledger)

// WithLimit overrides DefaultLimit. Non-positive values are ignored.
func WithLimit(limit int) Option {
	return func(l *Ledger) {
		if limit > 0 {
			l.limit = limit
		}
	}
}

// WithWindow overrides DefaultWindow. Non-positive values are ignored.
func WithWindow(window time.Duration) Option {
	return func(l *Ledger) {
		if window > 0 {
			l.window = window
		}
	}
}

// WithClock injects the time source used by Snapshot.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// NewLedger builds a ledger over store.
func NewLedger(store RecentLister, opts ...Option) *Ledger {
	l := &Ledger{
		store:  store,
		limit:  DefaultLimit,
		window: DefaultWindow,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Limit returns the configured number of jobs per window.
func (l *Ledger) Limit() int { return l.limit }

// Window returns the configured window length.
func (l *Ledger) Window() time.Duration { return l.window }

// Snapshot computes the user's quota at the ledger's current time.
func (l *Ledger) Snapshot(ctx context.Context, userID string) (domain.QuotaSnapshot, error) {
	return l.Compute(ctx, userID, l.now())
}

// Compute returns the user's allowance at now. When the store cannot be read
// the returned snapshot has nothing remaining and the error wraps
// domain.ErrQuotaUnavailable, so callers that ignore the error still refuse
// new work.
func (l *Ledger) Compute(ctx context.Context, userID string, now time.Time) (domain.QuotaSnapshot, error) {
	if strings.TrimSpace(userID) == "" {
		return l.closed(), domain.ValidationError("user id is required")
	}

	cutoff := now.Add(-l.window)
	rows, err := l.store.ListRecentByUser(ctx, userID, cutoff)
	if err != nil {
		return l.closed(), fmt.Errorf("%w: %v", domain.ErrQuotaUnavailable, err)
	}

	snap := domain.QuotaSnapshot{Limit: l.limit, Window: l.window}
	var earliest time.Time
	for _, row := range rows {
		if row.CreatedAt.Before(cutoff) {
			continue
		}
		snap.Used++
		if earliest.IsZero() || row.CreatedAt.Before(earliest) {
			earliest = row.CreatedAt
		}
	}

	snap.Remaining = max(l.limit-snap.Used, 0)
	if snap.Used > 0 {
		refill := earliest.Add(l.window)
		snap.NextRefillAt = &refill
	}
	return snap, nil
}

func (l *Ledger) closed() domain.QuotaSnapshot {
	return domain.QuotaSnapshot{
		Limit:     l.limit,
		Used:      l.limit,
		Remaining: 0,
		Window:    l.window,
	}
}

package article

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// SweepStats summarises one reconciliation sweep.
type SweepStats struct {
	Scanned int
	Updated int
	Failed  int
}

// ReconcileInFlight reconciles up to batch queued or generating articles,
// at most concurrency at a time. A failure on one article does not stop the
// others; only a failure to list the batch is returned.
func (s *Service) ReconcileInFlight(ctx context.Context, batch, concurrency int) (SweepStats, error) {
	if batch <= 0 {
		batch = 50
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	articles, err := s.repo.ListInFlight(ctx, batch)
	if err != nil {
		return SweepStats{}, fmt.Errorf("list in-flight articles: %w", err)
	}

	var updated, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i := range articles {
		a := articles[i]
		g.Go(func() error {
			next, err := s.Reconcile(gctx, a)
			if err != nil {
				failed.Add(1)
				s.logger.Warn().Err(err).Str("article_id", a.ID).Str("task_id", a.TaskID).Msg("sweep reconcile failed")
				return nil
			}
			if next.Status != a.Status {
				updated.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	return SweepStats{
		Scanned: len(articles),
		Updated: int(updated.Load()),
		Failed:  int(failed.Load()),
	}, nil
}

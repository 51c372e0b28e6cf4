package ingest

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "cryptodata/internal/errors"
	"cryptodata/internal/exchange"
	"cryptodata/internal/models"
)

type fetchResult[T any] struct {
	run     *models.IngestRun
	records []T
	err     error
	took    time.Duration
}

// fetchAll fetches from every exchange concurrently, at most r.workers at a
// time. Results keep the fetcher order; one failure does not cancel the
// others.
func fetchAll[T any](ctx context.Context, r *Runner, kind Kind, fetch func(context.Context, exchange.Fetcher) ([]T, error)) []fetchResult[T] {
	results := make([]fetchResult[T], len(r.fetchers))
	for i, f := range r.fetchers {
		results[i].run = r.runs.StartRun(string(kind), f.Name())
	}

	var g errgroup.Group
	g.SetLimit(r.workers)
	for i, f := range r.fetchers {
		g.Go(func() error {
			start := time.Now()
			records, err := fetch(ctx, f)
			took := time.Since(start)
			r.metrics.ObserveFetch(string(kind), f.Name(), took, err)

			if err != nil {
				err = apperrors.Wrap(apperrors.ErrFetchFailed, err)
			} else {
				r.log.Infow("listing fetched", "kind", kind, "exchange", f.Name(), "count", len(records), "took", took.String())
			}
			results[i].records = records
			results[i].err = err
			results[i].took = took
			return nil
		})
	}
	_ = g.Wait()
	return results
}

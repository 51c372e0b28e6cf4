// Package ingest runs the batch job: fetch every configured listing, then
// reconcile it into the database one exchange at a time.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "cryptodata/internal/errors"
	"cryptodata/internal/exchange"
	"cryptodata/internal/logger"
	"cryptodata/internal/metrics"
	"cryptodata/internal/models"
	"cryptodata/internal/reconcile"
	"cryptodata/internal/resolve"
	"cryptodata/internal/services"
)

// Kind selects which part of the dataset a run rebuilds.
type Kind string

const (
	KindReference  Kind = "reference"
	KindCurrencies Kind = "currencies"
	KindPairs      Kind = "pairs"
	KindAll        Kind = "all"
)

// ParseKind parses a command-line kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindReference, KindCurrencies, KindPairs, KindAll:
		return k, nil
	}
	return "", apperrors.WithMessage(apperrors.ErrInvalidInput,
		fmt.Sprintf("unknown ingest kind %q (want reference, currencies, pairs or all)", s))
}

// Step is the outcome of reconciling one source for one kind.
type Step struct {
	Kind     Kind
	Source   string
	Stats    reconcile.Stats
	Err      error
	Duration time.Duration
}

// Result is the outcome of a run.
type Result struct {
	Steps    []Step
	Duration time.Duration
}

// Failed reports whether any step failed.
func (r *Result) Failed() bool {
	for _, s := range r.Steps {
		if s.Err != nil {
			return true
		}
	}
	return false
}

// Errors returns the failed steps.
func (r *Result) Errors() []Step {
	var out []Step
	for _, s := range r.Steps {
		if s.Err != nil {
			out = append(out, s)
		}
	}
	return out
}

// Total sums the stats of every step.
func (r *Result) Total() reconcile.Stats {
	var total reconcile.Stats
	for _, s := range r.Steps {
		total.Add(s.Stats)
	}
	return total
}

// Options tunes a Runner.
type Options struct {
	// Workers bounds concurrent fetches; zero means one per exchange.
	Workers int
	Metrics *metrics.Metrics
}

// Runner orchestrates fetch and reconcile.
type Runner struct {
	fetchers   []exchange.Fetcher
	reference  exchange.ReferenceSource
	reconciler *reconcile.Reconciler
	runs       services.IngestRunServicer
	dataset    services.DatasetServicer
	resolver   *resolve.Resolver
	workers    int
	metrics    *metrics.Metrics
	log        *zap.SugaredLogger
}

// NewRunner creates a Runner. Fetchers are reconciled in slice order; a nil
// reference source disables the reference step.
func NewRunner(
	fetchers []exchange.Fetcher,
	reference exchange.ReferenceSource,
	reconciler *reconcile.Reconciler,
	runs services.IngestRunServicer,
	dataset services.DatasetServicer,
	resolver *resolve.Resolver,
	opts Options,
) *Runner {
	workers := opts.Workers
	if workers <= 0 {
		workers = len(fetchers)
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}
	return &Runner{
		fetchers:   fetchers,
		reference:  reference,
		reconciler: reconciler,
		runs:       runs,
		dataset:    dataset,
		resolver:   resolver,
		workers:    workers,
		metrics:    m,
		log:        logger.Named("ingest"),
	}
}

// Reset empties the reconciled tables and the resolver cache.
func (r *Runner) Reset() error {
	if err := r.dataset.Reset(); err != nil {
		return err
	}
	r.resolver.Forget()
	r.log.Infow("dataset reset")
	return nil
}

// Run executes one kind. Step failures are reported in the Result; the
// returned error is only set when the run as a whole could not proceed.
func (r *Runner) Run(ctx context.Context, kind Kind) (*Result, error) {
	start := time.Now()
	result := &Result{}

	var phases []Kind
	switch kind {
	case KindAll:
		phases = []Kind{KindReference, KindCurrencies, KindPairs}
	case KindReference, KindCurrencies, KindPairs:
		phases = []Kind{kind}
	default:
		_, err := ParseKind(string(kind))
		return nil, err
	}

	if kind == KindReference && r.reference == nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "reference ingest needs COINAPI_KEY")
	}

	for _, phase := range phases {
		var steps []Step
		switch phase {
		case KindReference:
			if r.reference == nil {
				r.log.Warnw("no reference source configured, skipping reference assets")
				continue
			}
			steps = []Step{r.runReference(ctx)}
		case KindCurrencies:
			steps = r.runCurrencies(ctx)
		case KindPairs:
			steps = r.runPairs(ctx)
		}
		result.Steps = append(result.Steps, steps...)

		if err := ctx.Err(); err != nil {
			result.Duration = time.Since(start)
			return result, err
		}
	}

	result.Duration = time.Since(start)
	total := result.Total()
	r.log.Infow("ingest run completed",
		"kind", kind,
		"steps", len(result.Steps),
		"failed_steps", len(result.Errors()),
		"seen", total.Seen,
		"created", total.Created,
		"pks_created", total.PKsCreated,
		"skipped", total.Skipped,
		"duration", result.Duration.String(),
	)
	return result, nil
}

func (r *Runner) runReference(ctx context.Context) Step {
	source := r.reference.Name()
	run := r.runs.StartRun(string(KindReference), source)
	step := Step{Kind: KindReference, Source: source}
	start := time.Now()

	records, err := r.reference.FetchAssets(ctx)
	r.metrics.ObserveFetch(string(KindReference), source, time.Since(start), err)
	if err != nil {
		step.Err = apperrors.Wrap(apperrors.ErrFetchFailed, err)
	} else {
		r.log.Infow("reference assets fetched", "source", source, "count", len(records))
		step.Stats, step.Err = r.reconciler.SyncReferenceAssets(ctx, records)
	}

	return r.finish(run, step, start)
}

func (r *Runner) runCurrencies(ctx context.Context) []Step {
	fetched := fetchAll(ctx, r, KindCurrencies, func(ctx context.Context, f exchange.Fetcher) ([]exchange.RawCurrency, error) {
		return f.FetchCurrencies(ctx)
	})

	steps := make([]Step, 0, len(r.fetchers))
	for i, f := range r.fetchers {
		fr := fetched[i]
		step := Step{Kind: KindCurrencies, Source: f.Name(), Err: fr.err}
		start := time.Now().Add(-fr.took)
		if step.Err == nil {
			step.Stats, step.Err = r.reconciler.SyncCurrencies(ctx, f.Name(), fr.records)
		}
		steps = append(steps, r.finish(fr.run, step, start))
	}
	return steps
}

func (r *Runner) runPairs(ctx context.Context) []Step {
	fetched := fetchAll(ctx, r, KindPairs, func(ctx context.Context, f exchange.Fetcher) ([]exchange.RawPair, error) {
		return f.FetchPairs(ctx)
	})

	steps := make([]Step, 0, len(r.fetchers))
	for i, f := range r.fetchers {
		fr := fetched[i]
		step := Step{Kind: KindPairs, Source: f.Name(), Err: fr.err}
		start := time.Now().Add(-fr.took)
		if step.Err == nil {
			step.Stats, step.Err = r.reconciler.SyncPairs(ctx, f.Name(), fr.records)
		}
		steps = append(steps, r.finish(fr.run, step, start))
	}
	return steps
}

// finish closes the step's audit row and records its metrics.
func (r *Runner) finish(run *models.IngestRun, step Step, start time.Time) Step {
	step.Duration = time.Since(start)
	r.runs.FinishRun(run, step.Stats.RunCounts(), step.Err)
	r.metrics.ObserveStep(string(step.Kind), step.Source, step.Stats, step.Err)

	if step.Err != nil {
		r.log.Errorw("ingest step failed",
			"kind", step.Kind,
			"source", step.Source,
			"error", step.Err,
		)
	}
	return step
}
